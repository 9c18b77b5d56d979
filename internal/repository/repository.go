// Package repository defines the storage interfaces the service layer
// programs against. The concrete SQLite implementation lives in the sqlite
// subpackage; tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/Losthero1640/rewear/internal/model"
)

// ItemFilter narrows item listings. Tags use all-match semantics: an item
// qualifies only if it carries every requested tag.
type ItemFilter struct {
	Category string
	Tags     []string
}

// ListOptions paginates listings. Limit and Offset are assumed already
// clamped by the service layer.
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	// UpsertByGitHubID creates the user on first OAuth login and refreshes
	// the email on subsequent ones, keyed on the unique github_id.
	UpsertByGitHubID(ctx context.Context, user *model.User) error
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *model.Item) error
	GetItemByID(ctx context.Context, id string) (*model.Item, error)
	// ListBrowsable returns approved+available items matching the filter,
	// newest first, plus the total count for pagination.
	ListBrowsable(ctx context.Context, filter ItemFilter, opts ListOptions) ([]model.Item, int, error)
	ListFeatured(ctx context.Context, limit int) ([]model.Item, error)
	ListPending(ctx context.Context) ([]model.Item, error)
	ListByUploader(ctx context.Context, uploaderID string) ([]model.Item, error)
	Approve(ctx context.Context, id string) error
	DeleteItem(ctx context.Context, id string) error
}

type SwapRepository interface {
	// CreateSwap inserts a pending swap. A second pending swap for the same
	// (item, requester) pair fails with apperror.ErrConflict, enforced by
	// the storage layer so concurrent requests cannot both succeed.
	CreateSwap(ctx context.Context, swap *model.Swap) error
	ListByRequester(ctx context.Context, requesterID string) ([]model.Swap, error)
	DeleteSwapsByItem(ctx context.Context, itemID string) error
}

// Exchanger runs the redeem transaction: debit the requester and mark the
// item redeemed as one atomic unit. Implementations must guarantee both
// writes apply together or not at all.
type Exchanger interface {
	RedeemItem(ctx context.Context, itemID, requesterID string, cost int) error
}
