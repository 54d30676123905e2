package items

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/trove-market/trove/internal/historic"
	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
	"github.com/trove-market/trove/internal/tags"
	"github.com/trove-market/trove/internal/uploads"
)

// TagResolver supplies tag lookups and count-cache invalidation from the
// tag catalog.
type TagResolver interface {
	Resolve(ctx context.Context, ids []int64) ([]tags.Tag, error)
	InvalidateCounts(ctx context.Context)
}

// CleanupEnqueuer schedules removal of an uploaded image whose item
// never got persisted.
type CleanupEnqueuer interface {
	EnqueueImageCleanup(ctx context.Context, imageURL string) error
}

// Service is the item directory: all operations run under the caller's
// ownership scope and all effective mutations feed the change ledger.
type Service struct {
	logger          *slog.Logger
	repo            Repository
	tags            TagResolver
	store           uploads.Store
	cleanup         CleanupEnqueuer
	defaultImageURL string
}

// NewService constructs a new Service.
func NewService(logger *slog.Logger, repo Repository, tagResolver TagResolver, store uploads.Store, cleanup CleanupEnqueuer, defaultImageURL string) *Service {
	return &Service{
		logger:          logger,
		repo:            repo,
		tags:            tagResolver,
		store:           store,
		cleanup:         cleanup,
		defaultImageURL: defaultImageURL,
	}
}

// CreateInput carries the fields for a new item plus the optional image
// upload.
type CreateInput struct {
	Name        string
	Price       float64
	Stock       int
	Description string
	ColorTheme  string
	File        io.Reader
	FileName    string
}

// Created summarises a successful create.
type Created struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	Description  string  `json:"description,omitempty"`
	ColorTheme   string  `json:"colorTheme,omitempty"`
	ImageURL     string  `json:"imageUrl"`
	AssetsFolder string  `json:"assetsFolder"`
}

// Create validates name uniqueness, uploads the image when one was sent
// and persists the item. On upload failure nothing is persisted. When
// the insert loses the name race after a successful upload, the hosted
// image is handed to the cleanup queue.
func (s *Service) Create(ctx context.Context, ownerID int64, in CreateInput) (*Created, error) {
	count, err := s.repo.CountByName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: item %q", shared.ErrDuplicateName, in.Name)
	}

	folder := "product_" + shared.FoldName(in.Name)
	imageURL := s.defaultImageURL
	uploaded := false
	if in.File != nil {
		fileName := in.FileName
		if fileName == "" {
			fileName = uuid.NewString()
		}
		imageURL, err = s.store.Upload(ctx, in.File, folder, fileName)
		if err != nil {
			return nil, err
		}
		uploaded = true
	}

	id, err := s.repo.Create(ctx, NewItem{
		Name:        in.Name,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
		ColorTheme:  in.ColorTheme,
		ImageURL:    imageURL,
		OwnerID:     ownerID,
	})
	if err != nil {
		if uploaded && s.cleanup != nil {
			if cleanupErr := s.cleanup.EnqueueImageCleanup(ctx, imageURL); cleanupErr != nil {
				s.logger.Warn("enqueue image cleanup", slog.Any("error", cleanupErr))
			}
		}
		return nil, err
	}

	return &Created{
		ID:           id,
		Name:         shared.NormalizeName(in.Name),
		Price:        in.Price,
		Stock:        in.Stock,
		Description:  in.Description,
		ColorTheme:   in.ColorTheme,
		ImageURL:     imageURL,
		AssetsFolder: folder,
	}, nil
}

// FindAll lists items the caller may see, with text and tag filters.
func (s *Service) FindAll(ctx context.Context, callerID int64, callerRole roles.Role, query ListQuery, page shared.Page) ([]Item, int64, error) {
	scope := roles.ScopeFor(callerID, callerRole)
	items, total, err := s.repo.FindAll(ctx, scope, query, page.Normalize(10))
	if err != nil {
		return nil, 0, err
	}
	s.markCreator(items, callerID)
	return items, total, nil
}

// FindOne returns the item with owner and tags, or ErrNotFound when it
// does not exist or the caller may not see it. The two cases are
// deliberately indistinguishable.
func (s *Service) FindOne(ctx context.Context, callerID int64, callerRole roles.Role, itemID int64) (*Item, error) {
	scope := roles.ScopeFor(callerID, callerRole)
	item, err := s.repo.FindOne(ctx, itemID, scope)
	if err != nil {
		return nil, err
	}
	item.IsCreator = item.Owner.ID == callerID
	return item, nil
}

// UpdateInput carries the optional fields of a partial update. Absent
// and zero-valued fields stay untouched.
type UpdateInput struct {
	Price       *float64
	Stock       *int
	Description *string
	ColorTheme  *string
	ImageURL    *string
}

// Update applies the present fields under the scope guard, scheduling
// exactly one ledger record per effective field change with the value
// held before the update. Item write and ledger writes commit together.
func (s *Service) Update(ctx context.Context, callerID int64, callerRole roles.Role, itemID int64, in UpdateInput) (*Item, error) {
	scope := roles.ScopeFor(callerID, callerRole)
	item, err := s.repo.FindOne(ctx, itemID, scope)
	if err != nil {
		return nil, err
	}

	set, records := diffUpdate(item, in)
	if set.Empty() {
		return item, nil
	}
	if err := s.repo.ApplyUpdate(ctx, itemID, set, records); err != nil {
		return nil, err
	}
	return s.repo.FindOne(ctx, itemID, scope)
}

// diffUpdate translates a partial update into the touched field set and
// the ledger records snapshotting each field's prior value.
func diffUpdate(item *Item, in UpdateInput) (FieldSet, []historic.Record) {
	var set FieldSet
	var records []historic.Record

	if in.ImageURL != nil && *in.ImageURL != "" {
		set.ImageURL = in.ImageURL
		records = append(records, historic.Record{
			Change:        historic.ChangeImage,
			PreviousValue: item.ImageURL,
		})
	}
	if in.ColorTheme != nil && *in.ColorTheme != "" {
		set.ColorTheme = in.ColorTheme
		records = append(records, historic.Record{
			Change:        historic.ChangeColorTheme,
			PreviousValue: valueOr(item.ColorTheme, historic.NoColor),
		})
	}
	if in.Description != nil && *in.Description != "" {
		set.Description = in.Description
		records = append(records, historic.Record{
			Change:        historic.ChangeDescription,
			PreviousValue: valueOr(item.Description, historic.NoDescription),
		})
	}
	if in.Price != nil && *in.Price != 0 {
		set.Price = in.Price
		records = append(records, historic.Record{
			Change:        historic.ChangePrice,
			PreviousValue: strconv.FormatFloat(item.Price, 'f', -1, 64),
		})
	}
	if in.Stock != nil && *in.Stock != 0 {
		set.Stock = in.Stock
		records = append(records, historic.Record{
			Change:        historic.ChangeStock,
			PreviousValue: strconv.Itoa(item.Stock),
		})
	}
	return set, records
}

// Delete removes a reachable item together with its ledger (cascade).
// An unreachable or missing item reports deleted=false, never an error.
func (s *Service) Delete(ctx context.Context, callerID int64, callerRole roles.Role, itemID int64) (bool, error) {
	scope := roles.ScopeFor(callerID, callerRole)
	deleted, err := s.repo.Delete(ctx, itemID, scope)
	if err != nil {
		return false, err
	}
	if deleted {
		s.tags.InvalidateCounts(ctx)
	}
	return deleted, nil
}

// UpdateTags replaces the item's full tag set. Unknown tag ids are
// dropped during resolution. The single "tags" ledger record carries the
// joined names of the previous set, even when the set is unchanged.
func (s *Service) UpdateTags(ctx context.Context, callerID int64, callerRole roles.Role, itemID int64, tagIDs []int64) (*Item, error) {
	scope := roles.ScopeFor(callerID, callerRole)
	item, err := s.repo.FindOne(ctx, itemID, scope)
	if err != nil {
		return nil, err
	}
	resolved, err := s.tags.Resolve(ctx, tagIDs)
	if err != nil {
		return nil, err
	}

	previous := historic.NoTags
	if len(item.Tags) > 0 {
		names := make([]string, len(item.Tags))
		for i, t := range item.Tags {
			names[i] = t.Name
		}
		previous = strings.Join(names, ",")
	}

	ids := make([]int64, len(resolved))
	for i, t := range resolved {
		ids[i] = t.ID
	}
	record := historic.Record{Change: historic.ChangeTags, PreviousValue: previous}
	if err := s.repo.ReplaceTags(ctx, itemID, ids, record); err != nil {
		return nil, err
	}
	s.tags.InvalidateCounts(ctx)
	return s.repo.FindOne(ctx, itemID, scope)
}

// RelatedResult is the outcome of a related-items lookup.
type RelatedResult struct {
	Items   []Item
	Count   int64
	HasTags bool
	Name    string
}

// Related returns other users' items sharing at least one tag with the
// given item. A tag-less item reports no relations.
func (s *Service) Related(ctx context.Context, callerID int64, callerRole roles.Role, itemID int64, page shared.Page, dir shared.SortDirection) (*RelatedResult, error) {
	item, err := s.FindOne(ctx, callerID, callerRole, itemID)
	if err != nil {
		return nil, err
	}
	if len(item.Tags) == 0 {
		return &RelatedResult{Items: []Item{}, Count: 0, HasTags: false, Name: item.Name}, nil
	}
	ids := make([]int64, len(item.Tags))
	for i, t := range item.Tags {
		ids[i] = t.ID
	}
	related, total, err := s.repo.Related(ctx, ids, callerID, page.Normalize(10), dir)
	if err != nil {
		return nil, err
	}
	s.markCreator(related, callerID)
	return &RelatedResult{Items: related, Count: total, HasTags: true, Name: item.Name}, nil
}

func (s *Service) markCreator(items []Item, callerID int64) {
	for i := range items {
		items[i].IsCreator = items[i].Owner.ID == callerID
	}
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// IsNotFound reports whether an operation failed only because the item
// is absent or hidden.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
