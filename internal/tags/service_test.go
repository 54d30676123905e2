package tags

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/trove-market/trove/internal/shared"
)

type mockRepo struct {
	tags      []WithCount
	listCalls int
	nextID    int64
}

func (m *mockRepo) FindByIDs(ctx context.Context, ids []int64) ([]Tag, error) {
	var out []Tag
	for _, id := range ids {
		for _, t := range m.tags {
			if t.ID == id {
				out = append(out, t.Tag)
			}
		}
	}
	return out, nil
}

func (m *mockRepo) ListWithItemCounts(ctx context.Context, term string, page shared.Page) ([]WithCount, int64, error) {
	m.listCalls++
	return m.tags, int64(len(m.tags)), nil
}

func (m *mockRepo) Create(ctx context.Context, name, description string) (*Tag, error) {
	for _, t := range m.tags {
		if shared.FoldName(t.Name) == shared.FoldName(name) {
			return nil, shared.ErrDuplicateName
		}
	}
	m.nextID++
	t := Tag{ID: m.nextID, Name: shared.NormalizeName(name), Description: description}
	m.tags = append(m.tags, WithCount{Tag: t})
	return &t, nil
}

func (m *mockRepo) UpdateDescription(ctx context.Context, id int64, description string) (*Tag, error) {
	for i := range m.tags {
		if m.tags[i].ID == id {
			m.tags[i].Description = description
			return &m.tags[i].Tag, nil
		}
	}
	return nil, shared.ErrNotFound
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute))
}

func TestListServesSecondReadFromCache(t *testing.T) {
	repo := &mockRepo{tags: []WithCount{{Tag: Tag{ID: 1, Name: "home"}, ItemCount: 3}}, nextID: 1}
	svc := newTestService(t, repo)
	ctx := context.Background()

	first, total, err := svc.List(ctx, "", shared.Page{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, first, 1)

	_, _, err = svc.List(ctx, "", shared.Page{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls)
}

func TestCreateInvalidatesCachedListings(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, _, err := svc.List(ctx, "", shared.Page{})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "outdoors", "camping gear")
	require.NoError(t, err)

	listed, total, err := svc.List(ctx, "", shared.Page{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, listed, 1)
	require.Equal(t, 2, repo.listCalls)
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc := newTestService(t, &mockRepo{})
	_, err := svc.Create(context.Background(), "  --  ", "")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateSurfacesDuplicate(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, "vintage", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "VINTAGE", "")
	require.ErrorIs(t, err, shared.ErrDuplicateName)
}

func TestInvalidateCountsRetiresCache(t *testing.T) {
	repo := &mockRepo{tags: []WithCount{{Tag: Tag{ID: 1, Name: "home"}, ItemCount: 3}}, nextID: 1}
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, _, err := svc.List(ctx, "", shared.Page{})
	require.NoError(t, err)

	svc.InvalidateCounts(ctx)

	_, _, err = svc.List(ctx, "", shared.Page{})
	require.NoError(t, err)
	require.Equal(t, 2, repo.listCalls)
}

func TestResolveDropsUnknownIDs(t *testing.T) {
	repo := &mockRepo{tags: []WithCount{{Tag: Tag{ID: 1, Name: "home"}}, {Tag: Tag{ID: 2, Name: "vintage"}}}}
	svc := newTestService(t, repo)

	resolved, err := svc.Resolve(context.Background(), []int64{2, 99})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, int64(2), resolved[0].ID)
}
