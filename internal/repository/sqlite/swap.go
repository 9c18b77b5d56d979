package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/Losthero1640/rewear/internal/apperror"
	"github.com/Losthero1640/rewear/internal/model"
	"github.com/Losthero1640/rewear/internal/repository"
)

// compile-time check that *DB implements repository.SwapRepository
var _ repository.SwapRepository = (*DB)(nil)

// CreateSwap inserts a pending swap request.
//
// The partial unique index idx_swaps_one_pending turns a duplicate pending
// request into a constraint violation, which we translate to
// apperror.ErrConflict. The index, not a pre-check, is what holds the
// one-pending-swap-per-pair invariant under concurrent requests.
func (db *DB) CreateSwap(ctx context.Context, swap *model.Swap) error {
	swap.ID = xid.New().String()
	swap.Status = model.SwapPending
	swap.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO swaps (id, item_id, requester_id, status, created_at)
		 VALUES (?, ?, ?, 'pending', ?)`,
		swap.ID,
		swap.ItemID,
		swap.RequesterID,
		swap.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("swap", "swap request already pending for this item")
		}
		return fmt.Errorf("sqlite: creating swap: %w", err)
	}

	return nil
}

// ListByRequester returns a user's swap requests with the item's title and
// availability joined, newest first. Used by the dashboard.
func (db *DB) ListByRequester(ctx context.Context, requesterID string) ([]model.Swap, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT s.id, s.item_id, s.requester_id, s.status, s.created_at,
		        i.title, i.availability
		 FROM swaps s JOIN items i ON i.id = s.item_id
		 WHERE s.requester_id = ?
		 ORDER BY s.created_at DESC`,
		requesterID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing swaps for requester %s: %w", requesterID, err)
	}
	defer rows.Close()

	swaps := []model.Swap{}
	for rows.Next() {
		var s model.Swap
		if err := rows.Scan(
			&s.ID, &s.ItemID, &s.RequesterID, &s.Status, &s.CreatedAt,
			&s.ItemTitle, &s.ItemAvailability,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning swap row: %w", err)
		}
		swaps = append(swaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating swaps: %w", err)
	}

	return swaps, nil
}

// DeleteSwapsByItem removes every swap referencing an item. The schema's
// ON DELETE CASCADE already covers item deletion; the explicit path keeps
// moderation independent of pragma state.
func (db *DB) DeleteSwapsByItem(ctx context.Context, itemID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM swaps WHERE item_id = ?`, itemID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting swaps for item %s: %w", itemID, err)
	}
	return nil
}
