package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int64
	Name string
}

func widgetDescriptor() Descriptor {
	return Descriptor{
		Kind: "widgets",
		Fields: []FieldDescriptor{
			{
				Name: "id", Key: true, Auto: true,
				Get: func(e any) any { return e.(*widget).ID },
				Set: func(e any, v any) { e.(*widget).ID = v.(int64) },
			},
			{
				Name: "name",
				Get:  func(e any) any { return e.(*widget).Name },
			},
		},
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(widgetDescriptor()))

	d, ok := reg.Lookup("widgets")
	require.True(t, ok)
	assert.Equal(t, "widgets", d.Kind)
	assert.Len(t, d.Fields, 2)

	_, ok = reg.Lookup("gadgets")
	assert.False(t, ok)
}

func TestRegistryRejectsInvalidDescriptors(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.Register(Descriptor{}), "kind is required")
	assert.Error(t, reg.Register(Descriptor{Kind: "empty"}), "fields are required")
	assert.Error(t, reg.Register(Descriptor{
		Kind:   "no-getter",
		Fields: []FieldDescriptor{{Name: "id"}},
	}))
	assert.Error(t, reg.Register(Descriptor{
		Kind: "auto-needs-setter",
		Fields: []FieldDescriptor{
			{Name: "id", Auto: true, Get: func(any) any { return nil }},
		},
	}))
	assert.Error(t, reg.Register(Descriptor{
		Kind: "duplicate-field",
		Fields: []FieldDescriptor{
			{Name: "id", Get: func(any) any { return nil }},
			{Name: "id", Get: func(any) any { return nil }},
		},
	}))
}

func TestRegistryRejectsDuplicateKind(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(widgetDescriptor()))
	assert.Error(t, reg.Register(widgetDescriptor()))
}
