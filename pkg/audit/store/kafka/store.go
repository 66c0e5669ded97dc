package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"audittrail/pkg/audit"
)

// DefaultTopic is the topic audit records are produced to.
const DefaultTopic = "audittrail.records"

// Store publishes records to a Kafka topic, keyed by entity kind so one
// entity's trail stays ordered within a partition.
type Store struct {
	client *kgo.Client
	topic  string
}

type Option func(*Store)

// WithTopic overrides the destination topic.
func WithTopic(topic string) Option {
	return func(s *Store) {
		if topic != "" {
			s.topic = topic
		}
	}
}

func New(client *kgo.Client, opts ...Option) *Store {
	s := &Store{client: client, topic: DefaultTopic}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Append(ctx context.Context, records ...audit.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]*kgo.Record, 0, len(records))
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal audit record %s: %w", rec.ID, err)
		}
		msgs = append(msgs, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(rec.EntityKind),
			Value: payload,
		})
	}
	if err := s.client.ProduceSync(ctx, msgs...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit records: %w", err)
	}
	return nil
}

// EnsureTopic creates the audit topic when it does not exist yet. Call once
// at wiring time, before the first Append.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	details, err := adm.ListTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if details.Has(topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, partitions, replication, nil, topic); err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	return nil
}
