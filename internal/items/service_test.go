package items

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trove-market/trove/internal/historic"
	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
	"github.com/trove-market/trove/internal/tags"
)

type memoryRepo struct {
	item      *Item
	ownerRole roles.Role

	createErr    error
	created      []NewItem
	applied      []FieldSet
	records      []historic.Record
	replacedTags [][]int64
	deleted      []int64
	nameCount    int64
}

func (r *memoryRepo) Create(ctx context.Context, item NewItem) (int64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.created = append(r.created, item)
	return 42, nil
}

func (r *memoryRepo) CountByName(ctx context.Context, name string) (int64, error) {
	return r.nameCount, nil
}

func (r *memoryRepo) FindAll(ctx context.Context, scope roles.Scope, query ListQuery, page shared.Page) ([]Item, int64, error) {
	if r.item == nil || !scope.Allows(r.item.Owner.ID, r.ownerRole) {
		return nil, 0, nil
	}
	return []Item{*r.item}, 1, nil
}

func (r *memoryRepo) FindOne(ctx context.Context, itemID int64, scope roles.Scope) (*Item, error) {
	if r.item == nil || r.item.ID != itemID || !scope.Allows(r.item.Owner.ID, r.ownerRole) {
		return nil, shared.ErrNotFound
	}
	copied := *r.item
	return &copied, nil
}

func (r *memoryRepo) ApplyUpdate(ctx context.Context, itemID int64, set FieldSet, records []historic.Record) error {
	r.applied = append(r.applied, set)
	r.records = append(r.records, records...)
	if set.Price != nil {
		r.item.Price = *set.Price
	}
	if set.Stock != nil {
		r.item.Stock = *set.Stock
	}
	if set.Description != nil {
		r.item.Description = *set.Description
	}
	if set.ColorTheme != nil {
		r.item.ColorTheme = *set.ColorTheme
	}
	if set.ImageURL != nil {
		r.item.ImageURL = *set.ImageURL
	}
	return nil
}

func (r *memoryRepo) ReplaceTags(ctx context.Context, itemID int64, tagIDs []int64, record historic.Record) error {
	r.replacedTags = append(r.replacedTags, tagIDs)
	r.records = append(r.records, record)
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, itemID int64, scope roles.Scope) (bool, error) {
	if r.item == nil || r.item.ID != itemID || !scope.Allows(r.item.Owner.ID, r.ownerRole) {
		return false, nil
	}
	r.deleted = append(r.deleted, itemID)
	r.item = nil
	return true, nil
}

func (r *memoryRepo) Related(ctx context.Context, tagIDs []int64, callerID int64, page shared.Page, dir shared.SortDirection) ([]Item, int64, error) {
	return nil, 0, nil
}

type stubTags struct {
	known       map[int64]tags.Tag
	invalidated int
}

func (s *stubTags) Resolve(ctx context.Context, ids []int64) ([]tags.Tag, error) {
	var out []tags.Tag
	for _, id := range ids {
		if t, ok := s.known[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTags) InvalidateCounts(ctx context.Context) { s.invalidated++ }

type stubStore struct {
	url     string
	err     error
	uploads int
}

func (s *stubStore) Upload(ctx context.Context, file io.Reader, folder, fileName string) (string, error) {
	s.uploads++
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

type stubCleanup struct {
	urls []string
}

func (s *stubCleanup) EnqueueImageCleanup(ctx context.Context, imageURL string) error {
	s.urls = append(s.urls, imageURL)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureRepo(ownerID int64, ownerRole roles.Role) *memoryRepo {
	return &memoryRepo{
		ownerRole: ownerRole,
		item: &Item{
			ID:       7,
			Name:     "walnut-desk-lamp",
			Price:    100,
			Stock:    5,
			ImageURL: "https://img.local/lamp.png",
			Owner:    Owner{ID: ownerID, Username: "maker", Role: ownerRole},
		},
	}
}

func newTestService(repo *memoryRepo, catalog *stubTags, store *stubStore, cleanup *stubCleanup) *Service {
	return NewService(discardLogger(), repo, catalog, store, cleanup, "https://img.local/default.png")
}

func TestUpdateSnapshotsPreviousValues(t *testing.T) {
	repo := fixtureRepo(1, roles.RoleBasic)
	svc := newTestService(repo, &stubTags{}, &stubStore{}, &stubCleanup{})
	ctx := context.Background()

	price := 150.0
	desc := "warm brass finish"
	updated, err := svc.Update(ctx, 1, roles.RoleBasic, 7, UpdateInput{Price: &price, Description: &desc})
	require.NoError(t, err)
	require.InDelta(t, 150.0, updated.Price, 0.0001)
	require.Equal(t, "warm brass finish", updated.Description)

	require.Len(t, repo.records, 2)
	byChange := map[string]string{}
	for _, rec := range repo.records {
		byChange[rec.Change] = rec.PreviousValue
	}
	require.Equal(t, "100", byChange[historic.ChangePrice])
	require.Equal(t, historic.NoDescription, byChange[historic.ChangeDescription])
}

func TestUpdateSkipsAbsentAndZeroFields(t *testing.T) {
	repo := fixtureRepo(1, roles.RoleBasic)
	svc := newTestService(repo, &stubTags{}, &stubStore{}, &stubCleanup{})
	ctx := context.Background()

	zeroPrice := 0.0
	zeroStock := 0
	empty := ""
	updated, err := svc.Update(ctx, 1, roles.RoleBasic, 7, UpdateInput{
		Price:       &zeroPrice,
		Stock:       &zeroStock,
		Description: &empty,
	})
	require.NoError(t, err)
	require.Empty(t, repo.applied)
	require.Empty(t, repo.records)
	require.InDelta(t, 100.0, updated.Price, 0.0001)
	require.Equal(t, 5, updated.Stock)
}

func TestUpdateOutsideScopeReportsNotFound(t *testing.T) {
	repo := fixtureRepo(2, roles.RoleAdmin) // owned by an admin
	svc := newTestService(repo, &stubTags{}, &stubStore{}, &stubCleanup{})

	price := 10.0
	_, err := svc.Update(context.Background(), 1, roles.RoleBasic, 7, UpdateInput{Price: &price})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.applied)
}

func TestCreateRejectsDuplicateNameBeforeUpload(t *testing.T) {
	repo := fixtureRepo(1, roles.RoleBasic)
	repo.nameCount = 1
	store := &stubStore{url: "https://img.local/up.png"}
	svc := newTestService(repo, &stubTags{}, store, &stubCleanup{})

	_, err := svc.Create(context.Background(), 1, CreateInput{
		Name: "walnut-desk-lamp",
		File: strings.NewReader("png"),
	})
	require.ErrorIs(t, err, shared.ErrDuplicateName)
	require.Zero(t, store.uploads)
}

func TestCreateWithoutFileUsesDefaultImage(t *testing.T) {
	repo := fixtureRepo(1, roles.RoleBasic)
	svc := newTestService(repo, &stubTags{}, &stubStore{}, &stubCleanup{})

	created, err := svc.Create(context.Background(), 1, CreateInput{Name: "trail stove", Price: 89, Stock: 4})
	require.NoError(t, err)
	require.Equal(t, "https://img.local/default.png", created.ImageURL)
	require.Equal(t, "product_trail-stove", created.AssetsFolder)
	require.Equal(t, "trail-stove", created.Name)
	require.Len(t, repo.created, 1)
	require.Equal(t, int64(1), repo.created[0].OwnerID)
}

func TestCreateEnqueuesCleanupWhenInsertLosesRace(t *testing.T) {
	repo := fixtureRepo(1, roles.RoleBasic)
	repo.createErr = shared.ErrDuplicateName
	store := &stubStore{url: "https://img.local/orphan.png"}
	cleanup := &stubCleanup{}
	svc := newTestService(repo, &stubTags{}, store, cleanup)

	_, err := svc.Create(context.Background(), 1, CreateInput{
		Name: "usb-oscilloscope",
		File: strings.NewReader("png"),
	})
	require.Error(t, err)
	require.Equal(t, []string{"https://img.local/orphan.png"}, cleanup.urls)
}

func TestUpdateTagsRecordsPreviousSet(t *testing.T) {
	repo := fixtureRepo(1, roles.RoleBasic)
	repo.item.Tags = []tags.Tag{{ID: 1, Name: "home"}, {ID: 2, Name: "vintage"}}
	catalog := &stubTags{known: map[int64]tags.Tag{
		2: {ID: 2, Name: "vintage"},
		9: {ID: 9, Name: "electronics"},
	}}
	svc := newTestService(repo, catalog, &stubStore{}, &stubCleanup{})

	// 99 is unknown and silently dropped during resolution.
	_, err := svc.UpdateTags(context.Background(), 1, roles.RoleBasic, 7, []int64{2, 9, 99})
	require.NoError(t, err)
	require.Equal(t, [][]int64{{2, 9}}, repo.replacedTags)
	require.Len(t, repo.records, 1)
	require.Equal(t, historic.ChangeTags, repo.records[0].Change)
	require.Equal(t, "home,vintage", repo.records[0].PreviousValue)
	require.Equal(t, 1, catalog.invalidated)
}

func TestUpdateTagsOnBareItemRecordsSentinel(t *testing.T) {
	repo := fixtureRepo(1, roles.RoleBasic)
	catalog := &stubTags{known: map[int64]tags.Tag{1: {ID: 1, Name: "home"}}}
	svc := newTestService(repo, catalog, &stubStore{}, &stubCleanup{})

	_, err := svc.UpdateTags(context.Background(), 1, roles.RoleBasic, 7, []int64{1})
	require.NoError(t, err)
	require.Len(t, repo.records, 1)
	require.Equal(t, historic.NoTags, repo.records[0].PreviousValue)
}

func TestDeleteOutsideScopeReportsFalse(t *testing.T) {
	repo := fixtureRepo(2, roles.RoleMod) // owned by a mod, caller is admin
	catalog := &stubTags{}
	svc := newTestService(repo, catalog, &stubStore{}, &stubCleanup{})

	deleted, err := svc.Delete(context.Background(), 1, roles.RoleAdmin, 7)
	require.NoError(t, err)
	require.False(t, deleted)
	require.Zero(t, catalog.invalidated)
}

func TestDeleteInvalidatesTagCounts(t *testing.T) {
	repo := fixtureRepo(2, roles.RoleBasic) // basic owner reachable by admin
	catalog := &stubTags{}
	svc := newTestService(repo, catalog, &stubStore{}, &stubCleanup{})

	deleted, err := svc.Delete(context.Background(), 1, roles.RoleAdmin, 7)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, 1, catalog.invalidated)
}

func TestRelatedWithoutTags(t *testing.T) {
	repo := fixtureRepo(1, roles.RoleBasic)
	svc := newTestService(repo, &stubTags{}, &stubStore{}, &stubCleanup{})

	result, err := svc.Related(context.Background(), 1, roles.RoleBasic, 7, shared.Page{}, shared.SortAsc)
	require.NoError(t, err)
	require.False(t, result.HasTags)
	require.Zero(t, result.Count)
	require.Empty(t, result.Items)
	require.Equal(t, "walnut-desk-lamp", result.Name)
}

func TestIsNotFound(t *testing.T) {
	require.True(t, IsNotFound(shared.ErrNotFound))
	require.False(t, IsNotFound(errors.New("boom")))
}
