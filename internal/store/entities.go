package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gatewaykit/portage/internal/bundle"
)

// InsertEntity writes one entity outside any import transaction.
// Host-side provisioning and test seeding; imports never use this path.
func (s *Store) InsertEntity(ctx context.Context, item bundle.Item, readOnly bool) error {
	flag := 0
	if readOnly {
		flag = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, type, name, scope, content, read_only)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		string(item.Type),
		bundle.NormalizeName(item.Name),
		item.Scope,
		[]byte(item.Content),
		flag,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s %q: %w", item.Type, item.Name, bundle.ErrUniqueConflict)
		}
		return fmt.Errorf("insert %s %q: %w", item.Type, item.Name, err)
	}
	return nil
}

// GetEntity reads one committed entity by id, outside any transaction.
// Returns (nil, nil) when absent.
func (s *Store) GetEntity(ctx context.Context, typ bundle.EntityType, id string) (*bundle.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, name, scope, content
		FROM entities
		WHERE type = ? AND id = ?
	`, string(typ), id)
	return scanItem(row)
}

// ListEntities returns committed entities, optionally filtered by type,
// in deterministic order (type, then id, binary collation).
func (s *Store) ListEntities(ctx context.Context, typ bundle.EntityType) ([]bundle.Item, error) {
	query := `
		SELECT id, type, name, scope, content
		FROM entities
	`
	args := []any{}
	if typ != "" {
		query += ` WHERE type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY type ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var items []bundle.Item
	for rows.Next() {
		item, err := scanItemRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}

	// Return empty slice instead of nil
	if items == nil {
		items = []bundle.Item{}
	}
	return items, nil
}

// scanItemRows scans one entity from a multi-row result set.
func scanItemRows(rows *sql.Rows) (bundle.Item, error) {
	var item bundle.Item
	var typ string
	var content []byte
	if err := rows.Scan(&item.ID, &typ, &item.Name, &item.Scope, &content); err != nil {
		return bundle.Item{}, fmt.Errorf("scan entity: %w", err)
	}
	item.Type = bundle.EntityType(typ)
	item.Content = string(content)
	return item, nil
}
