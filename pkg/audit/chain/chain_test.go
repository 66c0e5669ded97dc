package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audittrail/pkg/audit"
	"audittrail/pkg/audit/store/memory"
)

func record(kind string) audit.Record {
	return audit.Record{
		ID:         uuid.New(),
		EntityKind: kind,
		Operation:  audit.OperationCreate,
		NewValues:  map[string]any{"name": "a"},
	}
}

func TestAppendLinksRecords(t *testing.T) {
	inner := memory.New()
	store := New(inner)

	require.NoError(t, store.Append(context.Background(), record("products"), record("products")))

	records := inner.List()
	require.Len(t, records, 2)
	assert.Empty(t, records[0].PrevHash, "chain genesis has no predecessor")
	require.NotEmpty(t, records[1].PrevHash)

	// The second record's link is the digest of the first as persisted.
	sum, err := digest(records[0])
	require.NoError(t, err)
	assert.Equal(t, sum, records[1].PrevHash)

	last, err := digest(records[1])
	require.NoError(t, err)
	assert.Equal(t, last, store.Head())
}

func TestChainSpansBatches(t *testing.T) {
	inner := memory.New()
	store := New(inner)

	require.NoError(t, store.Append(context.Background(), record("products")))
	head := store.Head()
	require.NoError(t, store.Append(context.Background(), record("products")))

	records := inner.List()
	require.Len(t, records, 2)
	assert.Equal(t, head, records[1].PrevHash)
}

type failingStore struct{ err error }

func (s failingStore) Append(context.Context, ...audit.Record) error { return s.err }

func TestFailedAppendDoesNotAdvanceHead(t *testing.T) {
	store := New(failingStore{err: errors.New("down")})

	err := store.Append(context.Background(), record("products"))
	require.Error(t, err)
	assert.Empty(t, store.Head())
}

func TestNewAtResumesChain(t *testing.T) {
	inner := memory.New()
	store := NewAt(inner, "recovered-head")

	require.NoError(t, store.Append(context.Background(), record("products")))
	records := inner.List()
	require.Len(t, records, 1)
	assert.Equal(t, "recovered-head", records[0].PrevHash)
}
