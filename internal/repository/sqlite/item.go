package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/Losthero1640/rewear/internal/apperror"
	"github.com/Losthero1640/rewear/internal/model"
	"github.com/Losthero1640/rewear/internal/repository"
)

// compile-time check that *DB implements repository.ItemRepository
var _ repository.ItemRepository = (*DB)(nil)

// Tags and image paths are small ordered string lists, stored as JSON text
// columns. SQLite's json_each lets the tag filter run in SQL, so pagination
// totals stay correct without loading every row into Go.

func encodeStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func decodeStrings(raw string) []string {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil || values == nil {
		return []string{}
	}
	return values
}

// CreateItem inserts a new item. New items are always unapproved and
// available, regardless of what the caller set.
func (db *DB) CreateItem(ctx context.Context, item *model.Item) error {
	item.ID = xid.New().String()
	item.Approved = false
	item.Availability = model.AvailabilityAvailable
	item.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO items (id, title, description, category, type, size, condition,
		                    tags, image_paths, uploader_id, approved, availability, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 'available', ?)`,
		item.ID,
		item.Title,
		item.Description,
		item.Category,
		item.Type,
		item.Size,
		item.Condition,
		encodeStrings(item.Tags),
		encodeStrings(item.ImagePaths),
		item.UploaderID,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating item: %w", err)
	}

	return nil
}

const itemColumns = `i.id, i.title, i.description, i.category, i.type, i.size, i.condition,
	i.tags, i.image_paths, i.uploader_id, i.approved, i.availability, i.created_at`

func scanItem(scan func(dest ...any) error) (*model.Item, error) {
	var (
		item       model.Item
		tags       string
		imagePaths string
	)
	err := scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Category,
		&item.Type,
		&item.Size,
		&item.Condition,
		&tags,
		&imagePaths,
		&item.UploaderID,
		&item.Approved,
		&item.Availability,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Tags = decodeStrings(tags)
	item.ImagePaths = decodeStrings(imagePaths)
	return &item, nil
}

// GetItemByID retrieves a single item with the uploader's public profile
// joined.
func (db *DB) GetItemByID(ctx context.Context, id string) (*model.Item, error) {
	var (
		item       model.Item
		tags       string
		imagePaths string
		uploader   model.PublicProfile
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+`, u.id, u.email, u.full_name
		 FROM items i JOIN users u ON u.id = i.uploader_id
		 WHERE i.id = ?`,
		id,
	).Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Category,
		&item.Type,
		&item.Size,
		&item.Condition,
		&tags,
		&imagePaths,
		&item.UploaderID,
		&item.Approved,
		&item.Availability,
		&item.CreatedAt,
		&uploader.ID,
		&uploader.Email,
		&uploader.FullName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("item", id)
		}
		return nil, fmt.Errorf("sqlite: getting item %s: %w", id, err)
	}

	item.Tags = decodeStrings(tags)
	item.ImagePaths = decodeStrings(imagePaths)
	item.Uploader = &uploader
	return &item, nil
}

// browsableWhere builds the WHERE clause and args for approved+available
// listings with optional category and all-match tag filters.
func browsableWhere(filter repository.ItemFilter) (string, []any) {
	where := `i.approved = 1 AND i.availability = 'available'`
	var args []any

	if filter.Category != "" {
		where += ` AND i.category = ?`
		args = append(args, filter.Category)
	}

	if len(filter.Tags) > 0 {
		// All-match: the item's tag array must contain every requested
		// tag. Count distinct matches inside the JSON array and compare
		// against the number requested.
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Tags)), ",")
		where += ` AND (SELECT COUNT(DISTINCT value) FROM json_each(i.tags)
		            WHERE value IN (` + placeholders + `)) = ?`
		for _, tag := range filter.Tags {
			args = append(args, tag)
		}
		args = append(args, len(filter.Tags))
	}

	return where, args
}

// ListBrowsable returns approved+available items matching the filter,
// newest first, along with the total count for pagination.
func (db *DB) ListBrowsable(ctx context.Context, filter repository.ItemFilter, opts repository.ListOptions) ([]model.Item, int, error) {
	where, args := browsableWhere(filter)

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items i WHERE `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting items: %w", err)
	}

	queryArgs := append(args, opts.Limit, opts.Offset)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE `+where+`
		 ORDER BY i.created_at DESC
		 LIMIT ? OFFSET ?`,
		queryArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing items: %w", err)
	}
	defer rows.Close()

	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListFeatured returns the newest browsable items for the landing page.
func (db *DB) ListFeatured(ctx context.Context, limit int) ([]model.Item, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items i
		 WHERE i.approved = 1 AND i.availability = 'available'
		 ORDER BY i.created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing featured items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListPending returns all unapproved items with uploader profiles joined,
// for the moderation queue.
func (db *DB) ListPending(ctx context.Context) ([]model.Item, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+itemColumns+`, u.id, u.email, u.full_name
		 FROM items i JOIN users u ON u.id = i.uploader_id
		 WHERE i.approved = 0
		 ORDER BY i.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing pending items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var (
			item       model.Item
			tags       string
			imagePaths string
			uploader   model.PublicProfile
		)
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.Category,
			&item.Type, &item.Size, &item.Condition, &tags, &imagePaths,
			&item.UploaderID, &item.Approved, &item.Availability, &item.CreatedAt,
			&uploader.ID, &uploader.Email, &uploader.FullName,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning pending item row: %w", err)
		}
		item.Tags = decodeStrings(tags)
		item.ImagePaths = decodeStrings(imagePaths)
		item.Uploader = &uploader
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating pending items: %w", err)
	}

	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// ListByUploader returns every item a user has listed, any state.
func (db *DB) ListByUploader(ctx context.Context, uploaderID string) ([]model.Item, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items i
		 WHERE i.uploader_id = ?
		 ORDER BY i.created_at DESC`,
		uploaderID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items for uploader %s: %w", uploaderID, err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// Approve sets approved=true. Approving an already-approved item is a
// no-op success — the UPDATE still matches the row.
func (db *DB) Approve(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE items SET approved = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: approving item %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("item", id)
	}

	return nil
}

// DeleteItem removes an item. Pending swaps cascade via the foreign key.
func (db *DB) DeleteItem(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM items WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting item %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("item", id)
	}

	return nil
}

func collectItems(rows *sql.Rows) ([]model.Item, error) {
	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating items: %w", err)
	}
	return items, nil
}
