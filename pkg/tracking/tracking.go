package tracking

import "context"

// State classifies a tracked entity's relationship to storage at
// classification time.
type State string

const (
	StateUnchanged State = "unchanged"
	StateAdded     State = "added"
	StateModified  State = "modified"
	StateDeleted   State = "deleted"
	StateDetached  State = "detached"
)

// Field is the observable state of a single field of a tracked entity.
// Temporary marks a value the storage engine has not assigned yet
// (typically an auto-generated key); it is finalized by the commit.
type Field struct {
	Name      string
	Key       bool
	Temporary bool
	Modified  bool
	Current   any
	Original  any
}

// Entity exposes one tracked entity instance to the audit layer. Fields is
// re-read after the primary commit to resolve deferred values, so
// implementations must reflect live state rather than a snapshot.
type Entity interface {
	Kind() string
	State() State
	Fields() []Field
}

// Tracker is the change-tracking session collaborator: it surfaces the
// pending mutation batch and executes the primary commit against the
// storage engine. Implementations must not be mutated by another cycle
// while a save is in flight.
type Tracker interface {
	// Entries returns every entity participating in the current commit.
	Entries(ctx context.Context) ([]Entity, error)
	// Commit applies the batch and returns the number of entities affected.
	Commit(ctx context.Context) (int, error)
}
