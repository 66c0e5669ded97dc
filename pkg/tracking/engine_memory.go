package tracking

import (
	"context"
	"fmt"
	"sync"
)

// MemoryEngine is an in-memory storage engine for tests and demos. Keys are
// assigned from a per-kind monotonic counter; rows are held per kind,
// indexed by a caller-chosen key field.
type MemoryEngine struct {
	mu       sync.Mutex
	keyField string
	counters map[string]int64
	rows     map[string]map[string]map[string]any
}

// NewMemoryEngine builds an engine whose rows are indexed by keyField.
func NewMemoryEngine(keyField string) *MemoryEngine {
	return &MemoryEngine{
		keyField: keyField,
		counters: make(map[string]int64),
		rows:     make(map[string]map[string]map[string]any),
	}
}

// AssignValue hands out the next identifier for a kind.
func (e *MemoryEngine) AssignValue(_ context.Context, kind, _ string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counters[kind]++
	return e.counters[kind], nil
}

// Apply stores or removes the row image for a mutation.
func (e *MemoryEngine) Apply(_ context.Context, kind string, state State, row map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := fmt.Sprint(row[e.keyField])
	if e.rows[kind] == nil {
		e.rows[kind] = make(map[string]map[string]any)
	}
	switch state {
	case StateDeleted:
		delete(e.rows[kind], key)
	default:
		e.rows[kind][key] = row
	}
	return nil
}

// Row returns the stored row image for a key, for test assertions.
func (e *MemoryEngine) Row(kind string, key any) (map[string]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	row, ok := e.rows[kind][fmt.Sprint(key)]
	return row, ok
}
