package model

import "time"

// SwapStatus is the lifecycle state of a swap request.
//
// Only the pending state is ever created by the API today; complete and
// rejected exist in the schema for administrative resolution but no
// endpoint performs those transitions yet.
type SwapStatus string

const (
	SwapPending  SwapStatus = "pending"
	SwapComplete SwapStatus = "complete"
	SwapRejected SwapStatus = "rejected"
)

// Swap is a requester's pending claim of interest in an item. It is a
// request record only — creating one does not change the item's state.
//
// At most one pending swap may exist per (item, requester) pair; the
// database enforces this with a partial unique index.
type Swap struct {
	ID          string     `json:"id"`
	ItemID      string     `json:"itemId"`
	RequesterID string     `json:"requesterId"`
	Status      SwapStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`

	// ItemTitle and ItemAvailability are joined from the item for
	// dashboard listings; zero-valued elsewhere.
	ItemTitle        string       `json:"itemTitle,omitempty"`
	ItemAvailability Availability `json:"itemAvailability,omitempty"`
}
