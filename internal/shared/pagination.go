package shared

// Page describes a skip/take listing window. Skip counts whole pages of
// Take rows, matching the wire contract of the public API.
type Page struct {
	Skip int
	Take int
}

// Normalize applies the default window size when the request left it unset.
func (p Page) Normalize(defaultTake int) Page {
	if p.Take <= 0 {
		p.Take = defaultTake
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	return p
}

// Offset returns the row offset for the window.
func (p Page) Offset() int {
	return p.Take * p.Skip
}

// SortDirection is a validated ORDER BY direction.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParseSortDirection maps a raw direction string onto a valid direction,
// defaulting to ascending.
func ParseSortDirection(raw string) SortDirection {
	if raw == "DESC" || raw == "desc" {
		return SortDesc
	}
	return SortAsc
}
