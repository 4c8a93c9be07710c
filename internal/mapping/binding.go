package mapping

import (
	"fmt"
	"reflect"
)

// FieldBinding identifies one field of one domain type and its optional
// custom value conversion.
type FieldBinding struct {
	// Name is the Go field name.
	Name string
	// Index is the reflect index path of the field; longer than one for
	// fields promoted from embedded structs.
	Index []int
	// Type is the declared field type.
	Type reflect.Type
	// Contains overrides the element type of map, slice and array fields.
	Contains reflect.Type
	// Final marks a field that may only be supplied through the constructor.
	Final bool
	// BindVia names the value binder used instead of the default scalar codec.
	BindVia string
	// UnbindVia names the value unbinder used instead of the default scalar codec.
	UnbindVia string
}

// NewFieldBinding creates a binding for a struct field.
func NewFieldBinding(f reflect.StructField) *FieldBinding {
	return &FieldBinding{
		Name:  f.Name,
		Index: append([]int(nil), f.Index...),
		Type:  f.Type,
	}
}

// WithValueBinder sets the named bind override.
func (b *FieldBinding) WithValueBinder(name string) *FieldBinding {
	b.BindVia = name
	return b
}

// WithValueUnbinder sets the named unbind override.
func (b *FieldBinding) WithValueUnbinder(name string) *FieldBinding {
	b.UnbindVia = name
	return b
}

// HasOverride returns true if either conversion direction is overridden.
func (b *FieldBinding) HasOverride() bool {
	return b.BindVia != "" || b.UnbindVia != ""
}

// ElemType returns the element type used for container fields: the
// Contains override if set, else the element type of the (dereferenced)
// map, slice or array type. It returns nil for non-container fields.
func (b *FieldBinding) ElemType() reflect.Type {
	if b.Contains != nil {
		return b.Contains
	}

	t := b.Type
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil {
		return nil
	}

	switch t.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return t.Elem()
	default:
		return nil
	}
}

// String returns a debug representation.
func (b *FieldBinding) String() string {
	return fmt.Sprintf("FieldBinding[name=%s, type=%s, bindVia=%q, unbindVia=%q]",
		b.Name, b.Type, b.BindVia, b.UnbindVia)
}
