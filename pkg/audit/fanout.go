package audit

import (
	"context"
	"fmt"
)

// Fanout appends each batch to every underlying store in order. The first
// failure aborts the fanout; earlier sinks may already hold the batch, so
// downstream consumers must tolerate duplicates.
type Fanout struct {
	stores []Store
}

func NewFanout(stores ...Store) *Fanout {
	return &Fanout{stores: stores}
}

func (f *Fanout) Append(ctx context.Context, records ...Record) error {
	for i, store := range f.stores {
		if err := store.Append(ctx, records...); err != nil {
			return fmt.Errorf("fanout sink %d: %w", i, err)
		}
	}
	return nil
}
