package tracking

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"audittrail/pkg/platform/sentinel"
)

// Engine is the storage engine a session commits against. It assigns
// generated key values and applies row mutations; transactional guarantees
// are its own concern, outside the audit core's authority.
type Engine interface {
	// AssignValue produces the engine-generated value for an auto field of
	// the given kind. Called once per unassigned auto field at commit.
	AssignValue(ctx context.Context, kind, field string) (any, error)
	// Apply persists one entity mutation described by its kind, lifecycle
	// state and full row image.
	Apply(ctx context.Context, kind string, state State, row map[string]any) error
}

// Session is a descriptor-driven change-tracking session: it snapshots
// original values when an entity is tracked, detects value changes against
// live entity state, and finalizes engine-assigned values at commit. It
// implements Tracker and stands in for an external ORM session.
type Session struct {
	mu      sync.Mutex
	reg     *Registry
	engine  Engine
	entries []*trackedEntity
}

func NewSession(reg *Registry, engine Engine) *Session {
	return &Session{reg: reg, engine: engine}
}

type trackedEntity struct {
	desc      Descriptor
	obj       any
	state     State
	originals map[string]any
	modified  map[string]bool
}

func (e *trackedEntity) Kind() string { return e.desc.Kind }

func (e *trackedEntity) State() State { return e.state }

func (e *trackedEntity) Fields() []Field {
	fields := make([]Field, 0, len(e.desc.Fields))
	for _, fd := range e.desc.Fields {
		current := fd.Get(e.obj)
		fields = append(fields, Field{
			Name:      fd.Name,
			Key:       fd.Key,
			Temporary: e.state == StateAdded && fd.Auto && isZeroValue(current),
			Modified:  e.modified[fd.Name],
			Current:   current,
			Original:  e.originals[fd.Name],
		})
	}
	return fields
}

func (s *Session) track(kind string, obj any, state State) (*trackedEntity, error) {
	desc, ok := s.reg.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("no descriptor registered for kind %q: %w", kind, sentinel.ErrNotFound)
	}
	if obj == nil {
		return nil, fmt.Errorf("cannot track nil %q entity", kind)
	}
	entry := &trackedEntity{
		desc:     desc,
		obj:      obj,
		state:    state,
		modified: make(map[string]bool),
	}
	if state != StateAdded {
		entry.originals = snapshot(desc, obj)
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

// Add tracks a new entity for insertion.
func (s *Session) Add(kind string, obj any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.track(kind, obj, StateAdded)
	return err
}

// Track attaches an existing entity as unchanged, snapshotting its current
// values as originals. Later mutations to the object are detected when the
// batch is read.
func (s *Session) Track(kind string, obj any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.track(kind, obj, StateUnchanged)
	return err
}

// Remove tracks an existing entity for deletion.
func (s *Session) Remove(kind string, obj any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.obj == obj {
			e.state = StateDeleted
			return nil
		}
	}
	_, err := s.track(kind, obj, StateDeleted)
	return err
}

// Detach stops tracking an entity without touching storage.
func (s *Session) Detach(obj any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.obj == obj {
			e.state = StateDetached
			return
		}
	}
}

// MarkModified flags fields as modified regardless of whether their value
// actually changed, mirroring explicit dirty-marking in ORM sessions.
func (s *Session) MarkModified(obj any, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.obj != obj {
			continue
		}
		for _, name := range fields {
			e.modified[name] = true
		}
		if e.state == StateUnchanged {
			e.state = StateModified
		}
		return nil
	}
	return fmt.Errorf("entity is not tracked")
}

// detectChanges promotes unchanged entities whose live values drifted from
// their originals, flagging the drifted fields as modified.
func (s *Session) detectChanges() {
	for _, e := range s.entries {
		if e.state != StateUnchanged && e.state != StateModified {
			continue
		}
		for _, fd := range e.desc.Fields {
			if fd.Key {
				continue
			}
			if !reflect.DeepEqual(e.originals[fd.Name], fd.Get(e.obj)) {
				e.modified[fd.Name] = true
			}
		}
		if e.state == StateUnchanged && len(e.modified) > 0 {
			e.state = StateModified
		}
	}
}

// Entries implements Tracker.
func (s *Session) Entries(_ context.Context) ([]Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectChanges()
	out := make([]Entity, len(s.entries))
	for i, e := range s.entries {
		out[i] = e
	}
	return out, nil
}

// Commit implements Tracker: assigns engine-generated values, applies each
// pending mutation, and finalizes tracked state. Deleted entities leave the
// session; added and modified ones become unchanged with fresh originals.
func (s *Session) Commit(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectChanges()

	affected := 0
	for _, e := range s.entries {
		switch e.state {
		case StateUnchanged, StateDetached:
			continue
		}
		if e.state == StateAdded {
			for _, fd := range e.desc.Fields {
				if !fd.Auto || !isZeroValue(fd.Get(e.obj)) {
					continue
				}
				value, err := s.engine.AssignValue(ctx, e.desc.Kind, fd.Name)
				if err != nil {
					return 0, fmt.Errorf("assign %s.%s: %w", e.desc.Kind, fd.Name, err)
				}
				fd.Set(e.obj, value)
			}
		}
		if err := s.engine.Apply(ctx, e.desc.Kind, e.state, snapshot(e.desc, e.obj)); err != nil {
			return 0, fmt.Errorf("apply %s %s: %w", e.state, e.desc.Kind, err)
		}
		affected++
	}

	remaining := s.entries[:0]
	for _, e := range s.entries {
		if e.state == StateDeleted || e.state == StateDetached {
			continue
		}
		e.state = StateUnchanged
		e.originals = snapshot(e.desc, e.obj)
		e.modified = make(map[string]bool)
		remaining = append(remaining, e)
	}
	s.entries = remaining
	return affected, nil
}

func snapshot(desc Descriptor, obj any) map[string]any {
	row := make(map[string]any, len(desc.Fields))
	for _, fd := range desc.Fields {
		row[fd.Name] = fd.Get(obj)
	}
	return row
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
