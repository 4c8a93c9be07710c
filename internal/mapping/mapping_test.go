package mapping

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrpc-binder/internal/diagnostic"
)

type point struct {
	X, Y int
	Tags []string
}

func fieldBinding(t *testing.T, typ reflect.Type, name string) *FieldBinding {
	t.Helper()

	f, ok := typ.FieldByName(name)
	require.True(t, ok, "field %s", name)

	return NewFieldBinding(f)
}

func TestArrayMapping(t *testing.T) {
	t.Parallel()

	typ := reflect.TypeFor[point]()
	m := NewArrayMapping(typ, ShapeArray, []int{1})

	require.NoError(t, m.AddFieldBinding(1, fieldBinding(t, typ, "Y")))
	require.NoError(t, m.AddFieldBinding(0, fieldBinding(t, typ, "X")))

	err := m.AddFieldBinding(1, fieldBinding(t, typ, "Tags"))
	require.ErrorIs(t, err, diagnostic.ErrDuplicateSlot)
	assert.Contains(t, err.Error(), "Y and Tags")

	assert.Equal(t, []int{0, 1}, m.Slots())
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.HasSlot(0))
	assert.True(t, m.IsConstructorRef(1))
	assert.False(t, m.IsConstructorRef(0))
	assert.Equal(t, typ, m.ObjectType())
	assert.Equal(t, ShapeArray, m.Shape())

	names := []string{}
	for _, fb := range m.Bindings() {
		names = append(names, fb.Name)
	}

	assert.Equal(t, []string{"X", "Y"}, names)

	ctor, err := m.ConstructorBindings()
	require.NoError(t, err)
	require.Len(t, ctor, 1)
	assert.Equal(t, "Y", ctor[0].Name)
}

func TestStructMapping_DeclarationOrder(t *testing.T) {
	t.Parallel()

	typ := reflect.TypeFor[point]()
	m := NewStructMapping(typ, []string{"missing"})

	require.NoError(t, m.AddFieldBinding("tags", fieldBinding(t, typ, "Tags")))
	require.NoError(t, m.AddFieldBinding("y", fieldBinding(t, typ, "Y")))
	require.NoError(t, m.AddFieldBinding("x", fieldBinding(t, typ, "X")))

	assert.Equal(t, []string{"x", "y", "tags"}, m.Slots())

	_, err := m.ConstructorBindings()
	assert.ErrorIs(t, err, diagnostic.ErrInvalidDeclaration)
}

func TestFieldBinding_ElemType(t *testing.T) {
	t.Parallel()

	typ := reflect.TypeFor[point]()

	tags := fieldBinding(t, typ, "Tags")
	assert.Equal(t, reflect.TypeFor[string](), tags.ElemType())

	x := fieldBinding(t, typ, "X")
	assert.Nil(t, x.ElemType())

	x.Contains = reflect.TypeFor[point]()
	assert.Equal(t, typ, x.ElemType())

	assert.False(t, tags.HasOverride())
	assert.True(t, tags.WithValueBinder("iso8601").HasOverride())
	assert.Equal(t, "iso8601", tags.WithValueUnbinder("iso8601").UnbindVia)
}

func TestMap(t *testing.T) {
	t.Parallel()

	typ := reflect.TypeFor[point]()
	first := NewArrayMapping(typ, ShapeArray, nil)

	m := NewMap()
	assert.True(t, m.Reserve(first))
	assert.False(t, m.Reserve(NewStructMapping(typ, nil)), "second reservation is ignored")

	got, ok := m.Get(typ)
	require.True(t, ok)
	assert.Same(t, first, got)

	other := NewMap()
	other.Reserve(NewStructMapping(reflect.TypeFor[FieldBinding](), nil))
	m.Merge(other)
	assert.Equal(t, 2, m.Len())
	assert.Len(t, m.Types(), 2)

	var nilMap *Map
	assert.Equal(t, 0, nilMap.Len())
	assert.False(t, nilMap.Has(typ))
}

func TestShape(t *testing.T) {
	t.Parallel()

	for _, s := range []Shape{ShapeNone, ShapeRequest, ShapeResponse, ShapeArray, ShapeStruct} {
		parsed, err := ParseShape(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseShape("table")
	assert.Error(t, err)

	assert.True(t, ShapeResponse.IsArrayShaped())
	assert.True(t, ShapeRequest.IsMessage())
	assert.False(t, ShapeStruct.IsArrayShaped())
	assert.False(t, ShapeNone.IsComposite())

	var s Shape
	require.NoError(t, s.UnmarshalText([]byte("Struct")))
	assert.Equal(t, ShapeStruct, s)
}
