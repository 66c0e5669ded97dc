// Package coordinator orchestrates one mutation cycle: classify the pending
// batch, run the primary commit, resolve deferred values, persist the audit
// records. The original design re-entered its own save path for the second
// write; here the two phases are an explicit, statically bounded state
// machine instead.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"audittrail/pkg/audit/classify"
	"audittrail/pkg/audit/deferred"
	"audittrail/pkg/audit/metrics"
	"audittrail/pkg/audit/persist"
	"audittrail/pkg/platform/sentinel"
	"audittrail/pkg/tracking"
)

// state is the coordinator's position in the cycle. Transitions only move
// forward; every cycle ends back at idle.
type state int

const (
	stateIdle state = iota
	stateClassifying
	stateCommitting
	stateResolving
	statePersisting
)

func (s state) String() string {
	switch s {
	case stateClassifying:
		return "classifying"
	case stateCommitting:
		return "committing"
	case stateResolving:
		return "resolving"
	case statePersisting:
		return "persisting"
	default:
		return "idle"
	}
}

// Coordinator runs save cycles against a single change-tracking session.
// One cycle at a time: classification and the deferred queue both assume a
// single in-flight batch. Coordinators for different sessions are fully
// independent.
type Coordinator struct {
	tracker    tracking.Tracker
	classifier *classify.Classifier
	persister  *persist.Persister
	metrics    *metrics.Metrics
	log        *slog.Logger
	tracer     trace.Tracer

	mu    sync.Mutex
	state state
}

type Option func(*Coordinator)

func WithClassifier(c *classify.Classifier) Option {
	return func(co *Coordinator) {
		if c != nil {
			co.classifier = c
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(co *Coordinator) { co.metrics = m }
}

func WithLogger(log *slog.Logger) Option {
	return func(co *Coordinator) {
		if log != nil {
			co.log = log
		}
	}
}

func New(tracker tracking.Tracker, persister *persist.Persister, opts ...Option) *Coordinator {
	co := &Coordinator{
		tracker:    tracker,
		classifier: classify.New(),
		persister:  persister,
		log:        slog.Default(),
		tracer:     otel.Tracer("audittrail/coordinator"),
	}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// Save runs one full cycle and returns the number of primary entities the
// commit affected. The count is valid even when the error wraps
// sentinel.ErrAuditPersist or sentinel.ErrResolution: the primary commit
// succeeded, only the audit trail for this cycle is incomplete or
// degraded. Cancellation observed before the commit aborts the cycle with
// no side effects; once the commit has started, ctx only governs the
// persistence step.
func (c *Coordinator) Save(ctx context.Context, actorID string) (int, error) {
	if !c.mu.TryLock() {
		return 0, sentinel.ErrCycleInFlight
	}
	defer c.mu.Unlock()

	start := time.Now()
	defer func() {
		c.state = stateIdle
		c.metrics.ObserveCycleDuration(time.Since(start))
	}()

	// Classifying. A failure here is systemic: fail closed, no commit.
	c.state = stateClassifying
	_, span := c.tracer.Start(ctx, "audit.classify")
	entities, err := c.tracker.Entries(ctx)
	if err != nil {
		span.End()
		return 0, fmt.Errorf("%w: read tracked entries: %v", sentinel.ErrClassification, err)
	}
	res := c.classifier.Classify(entities, actorID)
	queue := deferred.NewQueue(c.log)
	for _, p := range res.Pending {
		queue.Add(p)
	}
	span.End()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// Committing. From here on the primary write is not ours to cancel.
	c.state = stateCommitting
	_, span = c.tracer.Start(ctx, "audit.commit")
	affected, err := c.tracker.Commit(ctx)
	span.End()
	if err != nil {
		// Collected entries and the deferred queue die with the cycle.
		return 0, fmt.Errorf("primary commit: %w", err)
	}

	records := res.Ready

	// Resolving, only when something was deferred.
	unresolved := 0
	if queue.Len() > 0 {
		c.state = stateResolving
		_, span = c.tracer.Start(ctx, "audit.resolve")
		resolved := queue.Resolve()
		for _, e := range resolved {
			if e.HasPending() {
				unresolved++
				c.metrics.IncResolutionFailures()
			}
		}
		records = append(records, resolved...)
		span.End()
	}

	if len(records) == 0 {
		c.metrics.IncCycles()
		return affected, nil
	}

	// Persisting. The audit write is its own commit; a failure here never
	// rolls back the primary mutation.
	c.state = statePersisting
	pctx, span := c.tracer.Start(ctx, "audit.persist")
	n, err := c.persister.Persist(pctx, records)
	span.End()
	if err != nil {
		c.metrics.IncPersistFailures()
		c.log.Error("audit write failed after primary commit",
			"records", len(records), "affected", affected, "err", err)
		return affected, fmt.Errorf("audit write after commit: %w", err)
	}

	c.metrics.AddRecordsPersisted(n)
	c.metrics.IncCycles()
	if unresolved > 0 {
		// Persisted, but degraded: some engine-assigned values never showed
		// up and the records list them as unresolved.
		return affected, fmt.Errorf("%d audit records degraded: %w", unresolved, sentinel.ErrResolution)
	}
	c.log.Debug("save cycle complete", "affected", affected, "records", n)
	return affected, nil
}
