package mapping

import (
	"reflect"
	"sort"

	"xmlrpc-binder/internal/common"
)

// Map is a descriptor map from domain type to Mapping, closed under
// field-type composition once the resolver returns it. A returned Map is
// treated as immutable and may be shared by concurrent binders.
type Map struct {
	m map[reflect.Type]Mapping
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{m: make(map[reflect.Type]Mapping)}
}

// Reserve registers mp for its object type before its fields are populated.
// It returns false, leaving the map unchanged, if the type is already present.
// Reserving first is what lets a field of an ancestor's type observe the
// entry and stop recursing.
func (m *Map) Reserve(mp Mapping) bool {
	t := mp.ObjectType()
	if _, ok := m.m[t]; ok {
		return false
	}

	m.m[t] = mp

	return true
}

// Get returns the Mapping for t.
func (m *Map) Get(t reflect.Type) (Mapping, bool) {
	if m == nil {
		return nil, false
	}

	mp, ok := m.m[t]

	return mp, ok
}

// Has returns true if t is present.
func (m *Map) Has(t reflect.Type) bool {
	_, ok := m.Get(t)
	return ok
}

// Len returns the number of mappings.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.m)
}

// Types returns every mapped type, sorted by full type name.
func (m *Map) Types() []reflect.Type {
	if m == nil {
		return nil
	}

	out := make([]reflect.Type, 0, len(m.m))
	for t := range m.m {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		return common.FullTypeName(out[i]) < common.FullTypeName(out[j])
	})

	return out
}

// Merge copies every mapping of o not already present in m.
func (m *Map) Merge(o *Map) {
	if o == nil {
		return
	}

	for t, mp := range o.m {
		if _, ok := m.m[t]; !ok {
			m.m[t] = mp
		}
	}
}
