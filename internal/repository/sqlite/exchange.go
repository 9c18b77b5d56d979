package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Losthero1640/rewear/internal/apperror"
	"github.com/Losthero1640/rewear/internal/repository"
)

// compile-time check that *DB implements repository.Exchanger
var _ repository.Exchanger = (*DB)(nil)

// RedeemItem debits the requester's points and marks the item redeemed as
// one transaction.
//
// Both writes are conditional updates: the item flips only if it is still
// approved and available, and the balance drops only if it covers the cost.
// If either condition fails the transaction rolls back. Under concurrency
// exactly one redemption of an item can commit, and a balance can never go
// negative.
func (db *DB) RedeemItem(ctx context.Context, itemID, requesterID string, cost int) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning redeem transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET availability = 'redeemed'
		 WHERE id = ? AND approved = 1 AND availability = 'available'`,
		itemID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: redeeming item %s: %w", itemID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return db.redeemItemFailure(ctx, tx, itemID)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE users SET points = points - ?, updated_at = ?
		 WHERE id = ? AND points >= ?`,
		cost, time.Now(), requesterID, cost,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deducting points for user %s: %w", requesterID, err)
	}
	affected, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE id = ?`, requesterID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("sqlite: checking user %s: %w", requesterID, err)
		}
		if exists == 0 {
			return apperror.NotFound("user", requesterID)
		}
		return apperror.ValidationFailed("points", "not enough points to redeem")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing redeem transaction: %w", err)
	}

	return nil
}

// redeemItemFailure inspects the item inside the transaction to report why
// the conditional update matched nothing.
func (db *DB) redeemItemFailure(ctx context.Context, tx *sql.Tx, itemID string) error {
	var (
		approved     bool
		availability string
	)
	err := tx.QueryRowContext(ctx,
		`SELECT approved, availability FROM items WHERE id = ?`, itemID,
	).Scan(&approved, &availability)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("item", itemID)
		}
		return fmt.Errorf("sqlite: inspecting item %s: %w", itemID, err)
	}
	if !approved {
		return apperror.Forbidden("item not approved")
	}
	return apperror.ValidationFailed("availability", "item is not available")
}
