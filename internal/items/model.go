// Package items is the catalog aggregate. Every read and mutation passes
// through the caller's ownership scope, and every effective field change
// lands in the historic ledger.
package items

import (
	"time"

	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/tags"
)

// Owner is the user projection embedded in item reads.
type Owner struct {
	ID       int64      `json:"id"`
	Username string     `json:"username"`
	Role     roles.Role `json:"role"`
}

// Item represents a catalog entry. OwnerID is immutable after creation;
// ownership never transfers.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Stock       int        `json:"stock"`
	Description string     `json:"description,omitempty"`
	ColorTheme  string     `json:"colorTheme,omitempty"`
	ImageURL    string     `json:"imageUrl"`
	Owner       Owner      `json:"user"`
	Tags        []tags.Tag `json:"tags"`
	IsCreator   bool       `json:"isCreator,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewItem carries the fields persisted on create.
type NewItem struct {
	Name        string
	Price       float64
	Stock       int
	Description string
	ColorTheme  string
	ImageURL    string
	OwnerID     int64
}

// FieldSet lists the fields an update actually touches. Nil pointers are
// left untouched and produce no ledger entry.
type FieldSet struct {
	Price       *float64
	Stock       *int
	Description *string
	ColorTheme  *string
	ImageURL    *string
}

// Empty reports whether the update would change nothing.
func (f FieldSet) Empty() bool {
	return f.Price == nil && f.Stock == nil && f.Description == nil && f.ColorTheme == nil && f.ImageURL == nil
}

// ListQuery collects the caller-tunable knobs for findAll.
type ListQuery struct {
	Search      []string
	IncludeTags []int64
	ExcludeTags []int64
	SortBy      string
	SortDir     string
}
