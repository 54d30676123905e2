package historic

import (
	"context"
	"log/slog"

	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
)

// Service exposes ledger reads and writes to the item directory.
type Service struct {
	logger *slog.Logger
	repo   Repository
}

// NewService constructs a new Service.
func NewService(logger *slog.Logger, repo Repository) *Service {
	return &Service{logger: logger, repo: repo}
}

// RecordChange appends a change record outside any surrounding
// transaction. Failures are logged and returned once, never retried; a
// lost entry under a delete race is tolerated.
func (s *Service) RecordChange(ctx context.Context, itemID int64, rec Record) error {
	if err := s.repo.Insert(ctx, nil, itemID, rec); err != nil {
		s.logger.Error("record change",
			slog.Int64("itemID", itemID),
			slog.String("change", rec.Change),
			slog.Any("error", err))
		return err
	}
	return nil
}

// ListChanges returns an item's history window visible to the caller,
// newest or oldest first per the requested direction. A deleted or
// inaccessible item yields an empty result, not an error.
func (s *Service) ListChanges(ctx context.Context, itemID int64, callerID int64, callerRole roles.Role, page shared.Page, dir shared.SortDirection) ([]Entry, int64, error) {
	scope := roles.ScopeFor(callerID, callerRole)
	return s.repo.ListByItem(ctx, itemID, scope, page.Normalize(5), dir)
}
