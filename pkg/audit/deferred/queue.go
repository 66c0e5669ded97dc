// Package deferred completes audit entries whose values were unknown at
// classification time, after the storage engine has assigned them.
package deferred

import (
	"log/slog"

	"audittrail/pkg/audit"
	"audittrail/pkg/audit/classify"
)

// Queue holds entries awaiting engine-assigned field values. It references
// the live source entities, so resolution after the primary commit sees the
// finalized state. A queue belongs to exactly one commit cycle.
type Queue struct {
	log   *slog.Logger
	items []classify.Pending
}

func NewQueue(log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	return &Queue{log: log}
}

// Add enqueues one pending entry.
func (q *Queue) Add(p classify.Pending) {
	q.items = append(q.items, p)
}

func (q *Queue) Len() int { return len(q.items) }

// Resolve completes every held entry from post-commit field state and
// drains the queue. Key snapshots land in KeyValues, the rest in NewValues.
// A field that is still unassigned after the commit stays on the entry as
// pending; the entry is returned anyway so the record is degraded, not
// dropped. Resolving an empty queue is a no-op.
func (q *Queue) Resolve() []*audit.Entry {
	if len(q.items) == 0 {
		return nil
	}
	out := make([]*audit.Entry, 0, len(q.items))
	for _, it := range q.items {
		fields := make(map[string]bool, 8)
		values := make(map[string]any, 8)
		for _, f := range it.Source.Fields() {
			if !f.Temporary {
				fields[f.Name] = true
				values[f.Name] = f.Current
			}
		}

		var unresolved []audit.Snapshot
		for _, snap := range it.Entry.Pending {
			if !fields[snap.FieldName] {
				q.log.Warn("pending field unresolved after commit",
					"entity_kind", it.Entry.EntityKind, "field", snap.FieldName)
				unresolved = append(unresolved, snap)
				continue
			}
			if snap.Key {
				it.Entry.KeyValues[snap.FieldName] = values[snap.FieldName]
			} else {
				it.Entry.NewValues[snap.FieldName] = values[snap.FieldName]
			}
		}
		it.Entry.Pending = unresolved
		out = append(out, it.Entry)
	}
	q.items = nil
	return out
}
