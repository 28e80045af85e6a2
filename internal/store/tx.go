package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/gatewaykit/portage/internal/bundle"
)

// Tx is one import's transactional view of the entity store. It
// implements bundle.EntityTx: reads observe writes made earlier in the
// same transaction, and nothing is durable until Commit.
type Tx struct {
	tx *sql.Tx
}

// Begin opens the transactional scope for one import call.
func (s *Store) Begin(ctx context.Context) (bundle.EntityTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Find looks an entity up by id within a type.
// Returns (nil, nil) when no entity matches.
func (t *Tx) Find(ctx context.Context, typ bundle.EntityType, id string) (*bundle.Item, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, type, name, scope, content
		FROM entities
		WHERE type = ? AND id = ?
	`, string(typ), id)
	return scanItem(row)
}

// FindByName looks an entity up by NFC-normalized name within
// (type, scope). Returns (nil, nil) when no entity matches.
func (t *Tx) FindByName(ctx context.Context, typ bundle.EntityType, name, scope string) (*bundle.Item, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, type, name, scope, content
		FROM entities
		WHERE type = ? AND scope = ? AND name = ?
	`, string(typ), scope, bundle.NormalizeName(name))
	return scanItem(row)
}

// Create persists a new entity and returns its id. Names are stored
// NFC-normalized. A primary-key or uniqueness violation is reported as
// an error wrapping bundle.ErrUniqueConflict.
func (t *Tx) Create(ctx context.Context, item bundle.Item) (string, error) {
	if item.ID == "" {
		return "", fmt.Errorf("create %s: entity id is required", item.Type)
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO entities (id, type, name, scope, content)
		VALUES (?, ?, ?, ?, ?)
	`,
		item.ID,
		string(item.Type),
		bundle.NormalizeName(item.Name),
		item.Scope,
		[]byte(item.Content),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("create %s %q: %w", item.Type, item.Name, bundle.ErrUniqueConflict)
		}
		return "", fmt.Errorf("create %s %q: %w", item.Type, item.Name, err)
	}

	return item.ID, nil
}

// Update overwrites the entity with the given id. The read_only flag is
// host configuration and is never touched here.
func (t *Tx) Update(ctx context.Context, id string, item bundle.Item) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE entities
		SET name = ?, scope = ?, content = ?
		WHERE id = ?
	`,
		bundle.NormalizeName(item.Name),
		item.Scope,
		[]byte(item.Content),
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update %s %q: %w", item.Type, item.Name, bundle.ErrUniqueConflict)
		}
		return fmt.Errorf("update entity %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entity %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update entity %s: no such entity", id)
	}
	return nil
}

// IsReadOnly reports whether an entity is protected against mutation.
// Unknown ids are not protected. The read runs on the transaction's
// connection so imports never reach back into the connection pool while
// their transaction holds it.
func (t *Tx) IsReadOnly(ctx context.Context, id string) (bool, error) {
	var flag int
	err := t.tx.QueryRowContext(ctx, `
		SELECT read_only FROM entities WHERE id = ?
	`, id).Scan(&flag)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read protection flag for %s: %w", id, err)
	}
	return flag != 0, nil
}

// Delete removes the entity with the given id.
func (t *Tx) Delete(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entity %s: %w", id, err)
	}
	return nil
}

// Commit makes the transaction's writes durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the transaction's writes. Safe to call after
// Commit (no-op error is swallowed, matching database/sql semantics).
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// scanItem scans one entity row, mapping sql.ErrNoRows to (nil, nil).
func scanItem(row *sql.Row) (*bundle.Item, error) {
	var item bundle.Item
	var typ string
	var content []byte
	err := row.Scan(&item.ID, &typ, &item.Name, &item.Scope, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan entity: %w", err)
	}
	item.Type = bundle.EntityType(typ)
	item.Content = string(content)
	return &item, nil
}

// isUniqueViolation reports whether err is a SQLite primary-key or
// unique-constraint violation.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
