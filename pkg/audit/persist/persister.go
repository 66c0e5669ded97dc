// Package persist converts completed audit entries into their canonical
// records and appends them to a durable store.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"audittrail/pkg/audit"
	"audittrail/pkg/platform/sentinel"
)

// Persister serializes mutation records and schedules them for the cycle's
// audit write. The whole batch goes to the store in one Append so the
// store's own commit covers it.
type Persister struct {
	store audit.Store
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Persister)

func WithLogger(log *slog.Logger) Option {
	return func(p *Persister) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Persister) {
		if now != nil {
			p.now = now
		}
	}
}

func New(store audit.Store, opts ...Option) *Persister {
	p := &Persister{
		store: store,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Persist flattens entries into records and appends them as one batch.
// Entries that stayed unclassified (all modifications value-equal) are
// dropped here rather than at classification. Returns how many records
// were written; failures wrap sentinel.ErrAuditPersist.
func (p *Persister) Persist(ctx context.Context, entries []*audit.Entry) (int, error) {
	records := make([]audit.Record, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.Operation == audit.OperationNone {
			p.log.Debug("dropping no-op mutation record", "entity_kind", e.EntityKind)
			continue
		}
		rec := e.Record(uuid.New(), p.now())
		if len(rec.UnresolvedFields) > 0 {
			p.log.Warn("persisting degraded mutation record",
				"entity_kind", rec.EntityKind, "unresolved", rec.UnresolvedFields)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := p.store.Append(ctx, records...); err != nil {
		return 0, fmt.Errorf("append audit records: %w", errors.Join(sentinel.ErrAuditPersist, err))
	}
	return len(records), nil
}
