package tags

// Tag is reference data attached to items many-to-many.
type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// WithCount is the listing projection including how many items carry
// the tag.
type WithCount struct {
	Tag
	ItemCount int64 `json:"itemCount"`
}
