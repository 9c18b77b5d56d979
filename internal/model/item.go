package model

import "time"

// Availability is the lifecycle state of an item.
//
// State machine: available → redeemed (via points redemption, terminal) or
// available → swapped. Nothing leaves redeemed or swapped.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilitySwapped   Availability = "swapped"
	AvailabilityRedeemed  Availability = "redeemed"
)

// Item represents a listed piece of clothing.
//
// An item is visible to ordinary browsing only when Approved is true AND
// Availability is "available". New items are created unapproved; moderation
// flips the flag (or deletes the item along with its stored images).
//
// UploaderID is set at creation and never changes.
type Item struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Category     string       `json:"category,omitempty"`
	Type         string       `json:"type,omitempty"`
	Size         string       `json:"size,omitempty"`
	Condition    string       `json:"condition,omitempty"`
	Tags         []string     `json:"tags"`
	ImagePaths   []string     `json:"imagePaths"`
	UploaderID   string       `json:"uploaderId"`
	Approved     bool         `json:"approved"`
	Availability Availability `json:"availability"`
	CreatedAt    time.Time    `json:"createdAt"`

	// Uploader is the joined public profile of the uploading user.
	// Populated by lookups that join it (GetItem, ListPending); nil elsewhere.
	Uploader *PublicProfile `json:"uploader,omitempty"`
}

// Browsable reports whether the item may appear in public listings.
func (i *Item) Browsable() bool {
	return i.Approved && i.Availability == AvailabilityAvailable
}
