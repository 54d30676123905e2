package users

import (
	"context"
	"fmt"

	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
)

// Service wraps user directory operations behind the transport layer.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns users matching the username term with their item counts.
func (s *Service) List(ctx context.Context, term string, page shared.Page) ([]Summary, int64, error) {
	return s.repo.List(ctx, term, page.Normalize(10))
}

// Get fetches a single account by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// Elevate changes a user's role. Registration always yields basic; this
// is the only path a role ever changes through.
func (s *Service) Elevate(ctx context.Context, userID int64, rawRole string) error {
	role, ok := roles.Parse(rawRole)
	if !ok {
		return fmt.Errorf("%w: unknown role %q", shared.ErrValidation, rawRole)
	}
	return s.repo.UpdateRole(ctx, userID, role)
}
