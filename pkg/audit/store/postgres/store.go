package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"audittrail/pkg/audit"
)

// RecordKind is the entity kind under which this store's own rows would
// surface in a change-tracking session. Classifiers must skip it to keep
// the audit write from auditing itself.
const RecordKind = "audit_records"

// Store persists mutation records in PostgreSQL. Each Append runs in a
// single transaction so the batch lands atomically: this is the cycle's
// second durable write, independent of the primary entity commit.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id UUID PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL,
	entity_kind TEXT NOT NULL,
	operation TEXT NOT NULL,
	actor_id TEXT,
	key_values JSONB NOT NULL DEFAULT '{}',
	old_values JSONB NOT NULL DEFAULT '{}',
	new_values JSONB NOT NULL DEFAULT '{}',
	changed_fields JSONB NOT NULL DEFAULT '[]',
	unresolved_fields JSONB NOT NULL DEFAULT '[]',
	prev_hash TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_records_entity_kind ON audit_records (entity_kind, recorded_at);
`

// Migrate creates the audit table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

const insertRecord = `
	INSERT INTO audit_records (
		id, recorded_at, entity_kind, operation, actor_id,
		key_values, old_values, new_values, changed_fields, unresolved_fields, prev_hash
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

func (s *Store) Append(ctx context.Context, records ...audit.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		keyJSON, err := marshalValues(rec.KeyValues)
		if err != nil {
			return fmt.Errorf("marshal key values: %w", err)
		}
		oldJSON, err := marshalValues(rec.OldValues)
		if err != nil {
			return fmt.Errorf("marshal old values: %w", err)
		}
		newJSON, err := marshalValues(rec.NewValues)
		if err != nil {
			return fmt.Errorf("marshal new values: %w", err)
		}
		changedJSON, err := marshalNames(rec.ChangedFields)
		if err != nil {
			return fmt.Errorf("marshal changed fields: %w", err)
		}
		unresolvedJSON, err := marshalNames(rec.UnresolvedFields)
		if err != nil {
			return fmt.Errorf("marshal unresolved fields: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertRecord,
			rec.ID, rec.Timestamp, rec.EntityKind, string(rec.Operation), nullable(rec.ActorID),
			keyJSON, oldJSON, newJSON, changedJSON, unresolvedJSON, rec.PrevHash,
		); err != nil {
			return fmt.Errorf("insert audit record %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit tx: %w", err)
	}
	return nil
}

func marshalValues(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func marshalNames(names []string) ([]byte, error) {
	if len(names) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(names)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
