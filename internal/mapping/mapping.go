package mapping

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/diagnostic"
)

// Mapping is the shape-independent view of a descriptor.
type Mapping interface {
	// ObjectType is the domain type described.
	ObjectType() reflect.Type
	// Shape is the declared wire shape.
	Shape() Shape
	// Len is the number of bound fields.
	Len() int
	// Bindings returns the field bindings in slot order.
	Bindings() []*FieldBinding
	// ConstructorBindings returns the bindings of the constructor reference
	// list, in declared order.
	ConstructorBindings() ([]*FieldBinding, error)
	// Constructor returns the factory for immutable instances, or the zero
	// Value when instances are built by field assignment alone.
	Constructor() reflect.Value
	// String returns a debug representation.
	String() string
}

// slotted is the storage shared by array and struct mappings, keyed by K.
type slotted[K cmp.Ordered] struct {
	typ      reflect.Type
	shape    Shape
	ctorRefs []K
	ctor     reflect.Value
	bindings map[K]*FieldBinding
	order    []K
	compare  func(a, b K) int
}

func newSlotted[K cmp.Ordered](typ reflect.Type, shape Shape, ctorRefs []K) slotted[K] {
	return slotted[K]{
		typ:      typ,
		shape:    shape,
		ctorRefs: append([]K(nil), ctorRefs...),
		bindings: make(map[K]*FieldBinding),
		compare:  cmp.Compare[K],
	}
}

// Slots returns the taken slots in slot order.
func (m *slotted[K]) Slots() []K {
	out := append([]K(nil), m.order...)
	slices.SortStableFunc(out, m.compare)

	return out
}

// ObjectType implements Mapping.
func (m *slotted[K]) ObjectType() reflect.Type { return m.typ }

// Shape implements Mapping.
func (m *slotted[K]) Shape() Shape { return m.shape }

// Len implements Mapping.
func (m *slotted[K]) Len() int { return len(m.bindings) }

// AddFieldBinding registers fb at slot, failing with ErrDuplicateSlot if
// the slot is taken.
func (m *slotted[K]) AddFieldBinding(slot K, fb *FieldBinding) error {
	if prev, ok := m.bindings[slot]; ok {
		return diagnostic.Errorf(diagnostic.CodeDuplicateSlot, common.ShortTypeName(m.typ), fmt.Sprint(slot),
			"more than one field declares slot %v (%s and %s)", slot, prev.Name, fb.Name)
	}

	m.bindings[slot] = fb
	m.order = append(m.order, slot)

	return nil
}

// HasSlot returns true if slot is taken.
func (m *slotted[K]) HasSlot(slot K) bool {
	_, ok := m.bindings[slot]
	return ok
}

// FieldBinding returns the binding at slot.
func (m *slotted[K]) FieldBinding(slot K) (*FieldBinding, bool) {
	fb, ok := m.bindings[slot]
	return fb, ok
}

// ConstructorRefs returns the constructor reference list.
func (m *slotted[K]) ConstructorRefs() []K {
	return append([]K(nil), m.ctorRefs...)
}

// SetConstructor sets the factory function called with the constructor
// reference values, in declared order.
func (m *slotted[K]) SetConstructor(fn reflect.Value) {
	m.ctor = fn
}

// Constructor implements Mapping.
func (m *slotted[K]) Constructor() reflect.Value { return m.ctor }

// IsConstructorRef returns true if slot appears in the constructor reference list.
func (m *slotted[K]) IsConstructorRef(slot K) bool {
	return slices.Contains(m.ctorRefs, slot)
}

// ConstructorBindings implements Mapping.
func (m *slotted[K]) ConstructorBindings() ([]*FieldBinding, error) {
	out := make([]*FieldBinding, 0, len(m.ctorRefs))

	for _, ref := range m.ctorRefs {
		fb, ok := m.bindings[ref]
		if !ok {
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, common.ShortTypeName(m.typ),
				fmt.Sprint(ref), "constructor references slot %v which no field occupies", ref)
		}

		out = append(out, fb)
	}

	return out, nil
}

// Bindings implements Mapping.
func (m *slotted[K]) Bindings() []*FieldBinding {
	slots := m.Slots()
	out := make([]*FieldBinding, len(slots))

	for i, s := range slots {
		out[i] = m.bindings[s]
	}

	return out
}

// String implements Mapping.
func (m *slotted[K]) String() string {
	return fmt.Sprintf("%sMapping[%s, slots=%v, ctor=%v]", m.shape, common.ShortTypeName(m.typ), m.Slots(), m.ctorRefs)
}

// ArrayMapping maps fields to wire array indexes. Messages use ArrayMapping
// with parameters addressed by index.
type ArrayMapping struct {
	slotted[int]
}

// NewArrayMapping creates an empty mapping for typ. Slots are ordered by
// ascending index.
func NewArrayMapping(typ reflect.Type, shape Shape, ctorIndexes []int) *ArrayMapping {
	return &ArrayMapping{slotted: newSlotted(typ, shape, ctorIndexes)}
}

// StructMapping maps fields to wire struct keys.
type StructMapping struct {
	slotted[string]
}

// NewStructMapping creates an empty mapping for typ. Slots are ordered by
// the declaration order of their fields, so implicit and explicit keys
// interleave as written.
func NewStructMapping(typ reflect.Type, ctorKeys []string) *StructMapping {
	m := &StructMapping{slotted: newSlotted(typ, ShapeStruct, ctorKeys)}
	m.compare = func(a, b string) int {
		return slices.Compare(m.bindings[a].Index, m.bindings[b].Index)
	}

	return m
}
