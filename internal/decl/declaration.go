package decl

import (
	"reflect"

	"xmlrpc-binder/internal/mapping"
)

// Declaration is the merged tag table entry for one struct type.
type Declaration struct {
	// Type is the declared struct type.
	Type reflect.Type
	// Shape is the declared wire shape, never ShapeNone.
	Shape mapping.Shape
	// Fields lists every bindable field in declaration order, tagged or not.
	Fields []FieldDecl
	// Constructor is nil when instances are built by assignment alone.
	Constructor *Factory
	// Imports lists auxiliary types resolved alongside this one.
	Imports []reflect.Type
}

// FieldDecl is the effective declaration of one field.
type FieldDecl struct {
	Field reflect.StructField

	// Index is the array slot; valid when HasIndex.
	Index    int
	HasIndex bool
	// Key is the struct slot. Implicit is set when Key defaulted to the
	// field name.
	Key      string
	Implicit bool

	Ignore    bool
	Final     bool
	Contains  reflect.Type
	BindVia   string
	UnbindVia string
}

// Tagged reports whether the field occupies a slot.
func (f *FieldDecl) Tagged() bool {
	return !f.Ignore && (f.HasIndex || f.Key != "")
}

// Field returns the declaration of the named field.
func (d *Declaration) Field(name string) (*FieldDecl, bool) {
	for i := range d.Fields {
		if d.Fields[i].Field.Name == name {
			return &d.Fields[i], true
		}
	}

	return nil, false
}

// Factory is the constructor of immutable instances together with the
// slots whose values it takes, in parameter order.
type Factory struct {
	Func    reflect.Value
	Indexes []int
	Keys    []string
}

// Len is the number of referenced slots.
func (c *Factory) Len() int {
	return max(len(c.Indexes), len(c.Keys))
}

// ReturnsPointer reports whether the factory returns *T rather than T.
func (c *Factory) ReturnsPointer() bool {
	return c.Func.Type().Out(0).Kind() == reflect.Pointer
}

// ReturnsError reports whether the factory has a trailing error result.
func (c *Factory) ReturnsError() bool {
	return c.Func.Type().NumOut() == 2
}
