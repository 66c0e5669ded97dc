// Package classify turns a pending mutation batch into audit entries.
//
// Classification is a pure observation step: it reads tracked-entity state,
// never writes anything durable, and treats field values opaquely. Entries
// whose fields are all known go straight to persistence; entries waiting on
// engine-assigned values are handed to the deferred resolution queue.
package classify

import (
	"log/slog"
	"reflect"

	"audittrail/pkg/audit"
	"audittrail/pkg/tracking"
)

// Pending pairs an entry with its live source entity so deferred resolution
// can re-read field state after the primary commit mutates it.
type Pending struct {
	Entry  *audit.Entry
	Source tracking.Entity
}

// Result partitions classified entries by whether they need post-commit
// resolution.
type Result struct {
	Ready   []*audit.Entry
	Pending []Pending
}

// Classifier builds mutation records from tracked-entity state. Kinds in
// the skip set (the audit store's own tables) are never classified, which
// is what keeps the second audit write from auditing itself.
type Classifier struct {
	skipKinds map[string]struct{}
	log       *slog.Logger
}

type Option func(*Classifier)

// WithSkipKinds adds entity kinds the classifier must ignore.
func WithSkipKinds(kinds ...string) Option {
	return func(c *Classifier) {
		for _, k := range kinds {
			c.skipKinds[k] = struct{}{}
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Classifier) {
		if log != nil {
			c.log = log
		}
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{
		skipKinds: make(map[string]struct{}),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify walks the batch and produces one entry per mutated entity.
// Unchanged and detached entities, and skip-listed kinds, yield nothing.
func (c *Classifier) Classify(entities []tracking.Entity, actorID string) Result {
	var res Result
	for _, ent := range entities {
		if ent == nil {
			continue
		}
		if _, skip := c.skipKinds[ent.Kind()]; skip {
			continue
		}
		state := ent.State()
		if state == tracking.StateDetached || state == tracking.StateUnchanged {
			continue
		}

		entry := audit.NewEntry(ent.Kind(), actorID)
		switch state {
		case tracking.StateAdded:
			entry.Operation = audit.OperationCreate
		case tracking.StateDeleted:
			entry.Operation = audit.OperationDelete
		}
		for _, f := range ent.Fields() {
			if f.Temporary {
				entry.Pending = append(entry.Pending, audit.Snapshot{
					FieldName: f.Name,
					NewValue:  f.Current,
					Key:       f.Key,
					Pending:   true,
				})
				continue
			}
			if f.Key {
				entry.KeyValues[f.Name] = f.Current
				continue
			}
			switch state {
			case tracking.StateAdded:
				entry.NewValues[f.Name] = f.Current
			case tracking.StateDeleted:
				entry.OldValues[f.Name] = f.Original
			case tracking.StateModified:
				// Modified-but-value-equal fields are not audited as changed.
				if f.Modified && !valuesEqual(f.Original, f.Current) {
					entry.ChangedFields = append(entry.ChangedFields, f.Name)
					entry.Operation = audit.OperationUpdate
					entry.OldValues[f.Name] = f.Original
					entry.NewValues[f.Name] = f.Current
				}
			}
		}

		if entry.HasPending() {
			res.Pending = append(res.Pending, Pending{Entry: entry, Source: ent})
		} else {
			res.Ready = append(res.Ready, entry)
		}
	}
	c.log.Debug("classified mutation batch",
		"entities", len(entities), "ready", len(res.Ready), "deferred", len(res.Pending))
	return res
}

// valuesEqual compares opaque field values by value, not identity.
func valuesEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	return reflect.DeepEqual(a, b)
}
