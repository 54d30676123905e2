package items

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/trove-market/trove/internal/shared"
)

type createForm struct {
	Name        string  `validate:"required,max=40"`
	Price       float64 `validate:"gte=0,lte=9999"`
	Stock       int     `validate:"gte=0"`
	Description string  `validate:"max=500"`
	ColorTheme  string  `validate:"max=30"`
}

type updateRequest struct {
	Price       *float64 `json:"price" validate:"omitempty,gte=0,lte=9999"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	ColorTheme  *string  `json:"colorTheme" validate:"omitempty,max=30"`
	ImageURL    *string  `json:"imageUrl" validate:"omitempty,url"`
}

type updateTagsRequest struct {
	TagsID []int64 `json:"tagsID"`
}

// parsePage reads the take/skip listing window from query parameters.
func parsePage(r *http.Request) shared.Page {
	take, _ := strconv.Atoi(r.URL.Query().Get("take"))
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	return shared.Page{Take: take, Skip: skip}
}

// parseListQuery reads the findAll filter knobs from query parameters.
func parseListQuery(r *http.Request) ListQuery {
	q := r.URL.Query()
	return ListQuery{
		Search:      splitTerms(q.Get("search")),
		IncludeTags: splitIDs(q.Get("inTags")),
		ExcludeTags: splitIDs(q.Get("ninTags")),
		SortBy:      q.Get("orderBy"),
		SortDir:     q.Get("order"),
	}
}

func splitTerms(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitIDs(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		out = append(out, id)
	}
	return out
}
