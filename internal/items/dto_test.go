package items

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trove-market/trove/internal/shared"
)

func TestParseListQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/items?search=lamp,%20brass%20,&inTags=1,2,x&ninTags=3,-4&orderBy=price&order=desc&take=20&skip=2", nil)

	query := parseListQuery(r)
	require.Equal(t, []string{"lamp", "brass"}, query.Search)
	require.Equal(t, []int64{1, 2}, query.IncludeTags)
	require.Equal(t, []int64{3}, query.ExcludeTags)
	require.Equal(t, "price", query.SortBy)
	require.Equal(t, "desc", query.SortDir)

	page := parsePage(r)
	require.Equal(t, shared.Page{Take: 20, Skip: 2}, page)
}

func TestParseListQueryEmpty(t *testing.T) {
	r := httptest.NewRequest("GET", "/items", nil)

	query := parseListQuery(r)
	require.Nil(t, query.Search)
	require.Nil(t, query.IncludeTags)
	require.Nil(t, query.ExcludeTags)

	page := parsePage(r).Normalize(10)
	require.Equal(t, shared.Page{Take: 10, Skip: 0}, page)
}

func TestOrderClauseAllowList(t *testing.T) {
	require.Equal(t, " ORDER BY i.price DESC", orderClause("price", "desc"))
	require.Equal(t, " ORDER BY i.created_at ASC", orderClause("owner_id; DROP TABLE items", ""))
}
