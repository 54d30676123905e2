// Package historic is the append-only change ledger for items. Entries
// are written once and only ever disappear together with their parent
// item through the delete cascade.
package historic

import "time"

// Change labels recorded in the ledger.
const (
	ChangePrice       = "price"
	ChangeStock       = "stock"
	ChangeDescription = "description"
	ChangeImage       = "front image"
	ChangeColorTheme  = "item color theme"
	ChangeTags        = "tags"
)

// Sentinels stored as the previous value when a field had never been set.
const (
	NoDescription = "no description"
	NoColor       = "no color"
	NoTags        = "no tags"
)

// Entry is one immutable audit record: which field changed on the item
// and what it held before the update.
type Entry struct {
	ID            int64     `json:"id"`
	ItemID        int64     `json:"itemID"`
	Change        string    `json:"change"`
	PreviousValue string    `json:"previousValue"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Record is a pending ledger write scheduled by an item mutation.
type Record struct {
	Change        string
	PreviousValue string
}
