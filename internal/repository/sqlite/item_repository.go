package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inventorycam/internal/model"
)

// ItemRepository implements repository.ItemRepository for SQLite.
type ItemRepository struct {
	db  *DB
	now func() time.Time
}

// NewItemRepository creates a new SQLite item repository.
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db, now: time.Now}
}

// List returns all items ordered by name.
func (r *ItemRepository) List(ctx context.Context) ([]model.Item, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `SELECT name, quantity, updated_at FROM items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.Name, &item.Quantity, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get retrieves an item by name. Returns nil when the item does not exist.
func (r *ItemRepository) Get(ctx context.Context, name string) (*model.Item, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return getItem(ctx, r.db.Conn(), name)
}

// Increment adds by units to the item, creating it when absent.
func (r *ItemRepository) Increment(ctx context.Context, name string, by int) (*model.Item, error) {
	if by <= 0 {
		return nil, fmt.Errorf("invalid increment %d", by)
	}

	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO items (name, quantity, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			quantity = quantity + excluded.quantity,
			updated_at = excluded.updated_at
	`, name, by, r.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to increment item: %w", err)
	}

	return getItem(ctx, r.db.Conn(), name)
}

// Decrement removes one unit from the item. An item at quantity 1 is deleted and
// nil is returned; a missing item is left alone.
func (r *ItemRepository) Decrement(ctx context.Context, name string) (*model.Item, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var quantity int
	err = tx.QueryRowContext(ctx, `SELECT quantity FROM items WHERE name = ?`, name).Scan(&quantity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if quantity <= 1 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE name = ?`, name); err != nil {
			return nil, fmt.Errorf("failed to delete item: %w", err)
		}
		return nil, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET quantity = quantity - 1, updated_at = ? WHERE name = ?
	`, r.now().UTC(), name); err != nil {
		return nil, fmt.Errorf("failed to decrement item: %w", err)
	}

	item, err := getItem(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	return item, tx.Commit()
}

// Delete removes an item regardless of its quantity.
func (r *ItemRepository) Delete(ctx context.Context, name string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().ExecContext(ctx, `DELETE FROM items WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getItem(ctx context.Context, q queryRower, name string) (*model.Item, error) {
	var item model.Item
	err := q.QueryRowContext(ctx, `
		SELECT name, quantity, updated_at FROM items WHERE name = ?
	`, name).Scan(&item.Name, &item.Quantity, &item.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}
