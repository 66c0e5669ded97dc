package tracking

import (
	"fmt"
	"sync"
)

// FieldDescriptor declares one field of an entity kind. Accessors are plain
// functions supplied by the mapping layer, so the audit path never touches
// reflection.
type FieldDescriptor struct {
	Name string
	// Key marks the field as a component of the entity's identifying key.
	Key bool
	// Auto marks a value the storage engine assigns at commit. Auto fields
	// whose current value is still the zero value are reported as temporary.
	Auto bool
	Get  func(entity any) any
	Set  func(entity any, value any)
}

// Descriptor maps an entity kind to its field layout.
type Descriptor struct {
	Kind   string
	Fields []FieldDescriptor
}

// Registry holds the entity descriptors a session classifies against.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Descriptor)}
}

// Register validates and stores a descriptor. Re-registering a kind is an
// error so mapping mistakes surface at wiring time rather than mid-cycle.
func (r *Registry) Register(d Descriptor) error {
	if d.Kind == "" {
		return fmt.Errorf("descriptor kind is required")
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("descriptor %q has no fields", d.Kind)
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("descriptor %q has an unnamed field", d.Kind)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("descriptor %q declares field %q twice", d.Kind, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Get == nil {
			return fmt.Errorf("descriptor %q field %q has no getter", d.Kind, f.Name)
		}
		if f.Auto && f.Set == nil {
			return fmt.Errorf("descriptor %q auto field %q needs a setter", d.Kind, f.Name)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kinds[d.Kind]; exists {
		return fmt.Errorf("descriptor %q already registered", d.Kind)
	}
	r.kinds[d.Kind] = d
	return nil
}

// Lookup returns the descriptor for a kind.
func (r *Registry) Lookup(kind string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.kinds[kind]
	return d, ok
}
