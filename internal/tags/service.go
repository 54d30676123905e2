package tags

import (
	"context"
	"fmt"
	"strings"

	"github.com/trove-market/trove/internal/shared"
)

// Service wraps tag catalog rules.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService constructs a new Service.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns tags matching the term with item counts, serving from
// cache when a recent identical window exists.
func (s *Service) List(ctx context.Context, term string, page shared.Page) ([]WithCount, int64, error) {
	page = page.Normalize(10)
	term = strings.TrimSpace(term)
	if cached, total, ok := s.cache.Get(ctx, term, page.Take, page.Skip); ok {
		return cached, total, nil
	}
	listed, total, err := s.repo.ListWithItemCounts(ctx, term, page)
	if err != nil {
		return nil, 0, err
	}
	s.cache.Set(ctx, term, page.Take, page.Skip, listed, total)
	return listed, total, nil
}

// Resolve maps tag ids onto existing tags, dropping unknown ids.
func (s *Service) Resolve(ctx context.Context, ids []int64) ([]Tag, error) {
	return s.repo.FindByIDs(ctx, ids)
}

// Create adds a tag. Name collisions surface as ErrDuplicateName.
func (s *Service) Create(ctx context.Context, name, description string) (*Tag, error) {
	if shared.NormalizeName(name) == "" {
		return nil, fmt.Errorf("%w: tag name required", shared.ErrValidation)
	}
	tag, err := s.repo.Create(ctx, name, description)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return tag, nil
}

// UpdateDescription replaces a tag's description.
func (s *Service) UpdateDescription(ctx context.Context, id int64, description string) (*Tag, error) {
	tag, err := s.repo.UpdateDescription(ctx, id, description)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return tag, nil
}

// InvalidateCounts retires cached listings after an item tag-set write.
func (s *Service) InvalidateCounts(ctx context.Context) {
	s.cache.Invalidate(ctx)
}
