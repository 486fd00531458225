// Package sqlite persists items in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/itemdesk/internal/items"
	"github.com/louisbranch/itemdesk/internal/platform/storage/sqlitedb"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store implements items.Store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates the items database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitedb.Open(ctx, path, migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open items store: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ListItems returns items newest first, filtered by owner when ownerID is set.
func (s *Store) ListItems(ctx context.Context, ownerID string) ([]items.Item, error) {
	query := `SELECT id, title, description, owner_id, created_at, updated_at FROM items`
	args := []any{}
	if strings.TrimSpace(ownerID) != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := []items.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return out, nil
}

// GetItem returns one item or items.ErrNotFound.
func (s *Store) GetItem(ctx context.Context, itemID string) (items.Item, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, title, description, owner_id, created_at, updated_at FROM items WHERE id = ?`, itemID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return items.Item{}, items.ErrNotFound
	}
	return item, err
}

// PutItem inserts or replaces an item.
func (s *Store) PutItem(ctx context.Context, item items.Item) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO items (id, title, description, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    description = excluded.description,
    updated_at = excluded.updated_at`,
		item.ID, item.Title, item.Description, item.OwnerID,
		item.CreatedAt.UTC().UnixMilli(), item.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// DeleteItem removes an item; missing items are not an error.
func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, itemID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (items.Item, error) {
	var (
		item      items.Item
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&item.ID, &item.Title, &item.Description, &item.OwnerID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return items.Item{}, err
		}
		return items.Item{}, fmt.Errorf("scan item: %w", err)
	}
	item.CreatedAt = time.UnixMilli(createdAt).UTC()
	item.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return item, nil
}

var _ items.Store = (*Store)(nil)
