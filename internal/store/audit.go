package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gatewaykit/portage/internal/bundle"
)

// RecordChanges writes one audit row per committed mutation. Implements
// bundle.AuditEmitter.
//
// The engine calls this once per import, strictly after the import
// transaction has committed (never on rollback or dry-run), so audit
// rows are written outside that transaction on purpose: a failed audit
// write must not unwind an already-committed import.
func (s *Store) RecordChanges(ctx context.Context, records []bundle.AuditRecord) error {
	for _, rec := range records {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO audit_log (entity_id, entity_type, entity_name, verb, actor, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			rec.EntityID,
			string(rec.EntityType),
			rec.EntityName,
			string(rec.Verb),
			rec.Actor,
			rec.At.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("record audit entry for %s: %w", rec.EntityID, err)
		}
	}
	return nil
}

// ReadAudit returns audit entries in insertion order, newest last.
// limit <= 0 returns all entries.
func (s *Store) ReadAudit(ctx context.Context, limit int) ([]bundle.AuditRecord, error) {
	query := `
		SELECT entity_id, entity_type, entity_name, verb, actor, created_at
		FROM audit_log
		ORDER BY id ASC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var records []bundle.AuditRecord
	for rows.Next() {
		var rec bundle.AuditRecord
		var typ, verb, at string
		if err := rows.Scan(&rec.EntityID, &typ, &rec.EntityName, &verb, &rec.Actor, &at); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		rec.EntityType = bundle.EntityType(typ)
		rec.Verb = bundle.AuditVerb(verb)
		rec.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse audit timestamp %q: %w", at, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}

	// Return empty slice instead of nil
	if records == nil {
		records = []bundle.AuditRecord{}
	}
	return records, nil
}
