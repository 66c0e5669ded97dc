package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryRecordFlattening(t *testing.T) {
	entry := NewEntry("products", "user-1")
	entry.Operation = OperationUpdate
	entry.KeyValues["id"] = int64(3)
	entry.OldValues["qty"] = 5
	entry.NewValues["qty"] = 7
	entry.ChangedFields = []string{"qty"}

	id := uuid.New()
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rec := entry.Record(id, at)

	assert.Equal(t, id, rec.ID)
	assert.Equal(t, at, rec.Timestamp)
	assert.Equal(t, "products", rec.EntityKind)
	assert.Equal(t, OperationUpdate, rec.Operation)
	assert.Equal(t, "user-1", rec.ActorID)
	assert.Equal(t, map[string]any{"id": int64(3)}, rec.KeyValues)
	assert.Equal(t, map[string]any{"qty": 5}, rec.OldValues)
	assert.Equal(t, map[string]any{"qty": 7}, rec.NewValues)
	assert.Equal(t, []string{"qty"}, rec.ChangedFields)
	assert.Empty(t, rec.UnresolvedFields)

	// The record holds copies, not the entry's maps.
	entry.NewValues["qty"] = 99
	assert.Equal(t, 7, rec.NewValues["qty"])
}

func TestEntryRecordListsUnresolvedSnapshots(t *testing.T) {
	entry := NewEntry("products", "")
	entry.Operation = OperationCreate
	entry.Pending = []Snapshot{{FieldName: "id", Key: true, Pending: true}}

	require.True(t, entry.HasPending())
	rec := entry.Record(uuid.New(), time.Now())
	assert.Equal(t, []string{"id"}, rec.UnresolvedFields)
}

type failingStore struct{ err error }

func (s failingStore) Append(context.Context, ...Record) error { return s.err }

type recordingStore struct{ records []Record }

func (s *recordingStore) Append(_ context.Context, records ...Record) error {
	s.records = append(s.records, records...)
	return nil
}

func TestFanoutAppendsToEverySink(t *testing.T) {
	first := &recordingStore{}
	second := &recordingStore{}
	fanout := NewFanout(first, second)

	err := fanout.Append(context.Background(), Record{EntityKind: "products"})
	require.NoError(t, err)
	assert.Len(t, first.records, 1)
	assert.Len(t, second.records, 1)
}

func TestFanoutStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("sink down")
	after := &recordingStore{}
	fanout := NewFanout(failingStore{err: boom}, after)

	err := fanout.Append(context.Background(), Record{EntityKind: "products"})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, after.records)
}
