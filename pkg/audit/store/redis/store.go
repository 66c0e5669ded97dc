package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"audittrail/pkg/audit"
)

var appendDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "audittrail_redis_append_duration_ms",
	Help:    "Latency of audit record appends to the Redis stream in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// DefaultStream is the stream key audit records are appended to.
const DefaultStream = "audittrail:records"

// Store ships records to a Redis stream. Intended for deployments that
// forward audit trails to a consumer group rather than querying SQL.
type Store struct {
	client *redis.Client
	stream string
}

type Option func(*Store)

// WithStream overrides the destination stream key.
func WithStream(stream string) Option {
	return func(s *Store) {
		if stream != "" {
			s.stream = stream
		}
	}
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, stream: DefaultStream}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Append(ctx context.Context, records ...audit.Record) error {
	start := time.Now()
	defer func() {
		appendDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal audit record %s: %w", rec.ID, err)
		}
		err = s.client.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]any{
				"entity_kind": rec.EntityKind,
				"operation":   string(rec.Operation),
				"record":      payload,
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("xadd audit record %s: %w", rec.ID, err)
		}
	}
	return nil
}
