package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Operation classifies what a mutation did to its entity.
type Operation string

const (
	// OperationNone is the unclassified zero value. It survives on entries
	// whose every modification turned out to be value-equal; such entries
	// are dropped before the durable write.
	OperationNone   Operation = ""
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Snapshot captures one field's state at classification time. A snapshot is
// either a key component (resolved into KeyValues) or a regular field
// (resolved into NewValues), never both.
type Snapshot struct {
	FieldName string
	OldValue  any
	NewValue  any
	Key       bool
	Pending   bool
}

// Entry is the in-flight mutation record for a single entity instance in
// one commit cycle. It is created during classification and mutated only by
// deferred resolution, which moves pending snapshots into KeyValues or
// NewValues and clears Pending.
type Entry struct {
	EntityKind    string
	Operation     Operation
	ActorID       string
	KeyValues     map[string]any
	OldValues     map[string]any
	NewValues     map[string]any
	ChangedFields []string
	Pending       []Snapshot
}

// NewEntry builds an entry stub for a classified entity.
func NewEntry(entityKind, actorID string) *Entry {
	return &Entry{
		EntityKind: entityKind,
		ActorID:    actorID,
		KeyValues:  make(map[string]any),
		OldValues:  make(map[string]any),
		NewValues:  make(map[string]any),
	}
}

// HasPending reports whether the entry still awaits engine-assigned values.
// An entry with pending snapshots must not be durably persisted.
func (e *Entry) HasPending() bool { return len(e.Pending) > 0 }

// Record is the canonical persisted shape of a mutation record. Value maps
// are serialized as structured JSON so the old/new images round-trip
// losslessly. PrevHash is populated only when the record passed through a
// hash-chaining store.
type Record struct {
	ID               uuid.UUID      `json:"id"`
	Timestamp        time.Time      `json:"ts"`
	EntityKind       string         `json:"entity_kind"`
	Operation        Operation      `json:"operation"`
	ActorID          string         `json:"actor_id,omitempty"`
	KeyValues        map[string]any `json:"key_values,omitempty"`
	OldValues        map[string]any `json:"old_values,omitempty"`
	NewValues        map[string]any `json:"new_values,omitempty"`
	ChangedFields    []string       `json:"changed_fields,omitempty"`
	UnresolvedFields []string       `json:"unresolved_fields,omitempty"`
	PrevHash         string         `json:"prev_hash,omitempty"`
}

// Record flattens the entry into its canonical persisted shape. Snapshots
// still pending at this point are listed as unresolved rather than dropped.
func (e *Entry) Record(id uuid.UUID, at time.Time) Record {
	rec := Record{
		ID:            id,
		Timestamp:     at,
		EntityKind:    e.EntityKind,
		Operation:     e.Operation,
		ActorID:       e.ActorID,
		KeyValues:     copyValues(e.KeyValues),
		OldValues:     copyValues(e.OldValues),
		NewValues:     copyValues(e.NewValues),
		ChangedFields: append([]string(nil), e.ChangedFields...),
	}
	for _, snap := range e.Pending {
		rec.UnresolvedFields = append(rec.UnresolvedFields, snap.FieldName)
	}
	return rec
}

func copyValues(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is the durable audit sink. Append must write all records or none;
// implementations batching into a single transaction satisfy the "append
// then commit" contract. Stores are interface-driven so in-memory, SQL,
// stream, and broker sinks can fan out behind the same persister.
type Store interface {
	Append(ctx context.Context, records ...Record) error
}
