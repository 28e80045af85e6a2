package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// IsReadOnly reports whether an entity is protected against mutation.
// Unknown ids are not protected.
//
// This pool-level read serves inspect and host tooling; imports in
// flight check protection through Tx.IsReadOnly instead, on their own
// transaction's connection.
func (s *Store) IsReadOnly(ctx context.Context, id string) (bool, error) {
	var flag int
	err := s.db.QueryRowContext(ctx, `
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

// MarkReadOnly sets or clears an entity's protection flag. Provided for
// host tooling and tests; the engine itself never changes protection.
func (s *Store) MarkReadOnly(ctx context.Context, id string, readOnly bool) error {
	flag := 0
	if readOnly {
		flag = 1
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE entities SET read_only = ? WHERE id = ?
	`, flag, id)
	if err != nil {
		return fmt.Errorf("mark entity %s read-only: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark entity %s read-only: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("mark entity %s read-only: no such entity", id)
	}
	return nil
}
