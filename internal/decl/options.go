package decl

import (
	"errors"
	"fmt"
	"reflect"

	"xmlrpc-binder/internal/mapping"
)

// Option configures an explicit declaration.
type Option func(*override) error

// FieldOption configures one field of an explicit declaration.
type FieldOption func(*fieldOverride) error

// override is a partial declaration; nil members leave the lower layer alone.
type override struct {
	shape    mapping.Shape
	ctorFn   reflect.Value
	ctorRefs []any
	hasRefs  bool
	imports  []reflect.Type
	fields   map[string]*fieldOverride
	order    []string
}

type fieldOverride struct {
	index     *int
	key       *string
	ignore    *bool
	final     *bool
	contains  reflect.Type
	bindVia   *string
	unbindVia *string
}

func (o *override) field(name string) *fieldOverride {
	if o.fields == nil {
		o.fields = make(map[string]*fieldOverride)
	}

	fo, ok := o.fields[name]
	if !ok {
		fo = &fieldOverride{}
		o.fields[name] = fo
		o.order = append(o.order, name)
	}

	return fo
}

// merge lays next over o.
func (o *override) merge(next *override) {
	if next.shape != mapping.ShapeNone {
		o.shape = next.shape
	}

	if next.ctorFn.IsValid() {
		o.ctorFn = next.ctorFn
	}

	if next.hasRefs {
		o.ctorRefs, o.hasRefs = next.ctorRefs, true
	}

	o.imports = append(o.imports, next.imports...)

	for _, name := range next.order {
		o.field(name).merge(next.fields[name])
	}
}

func (o *override) empty() bool {
	return o.shape == mapping.ShapeNone && !o.ctorFn.IsValid() && !o.hasRefs &&
		len(o.imports) == 0 && len(o.fields) == 0
}

// check rejects contradictory options coming from a single source.
func (f *fieldOverride) check() error {
	if f.index != nil && f.key != nil {
		return errors.New("both index and key given")
	}

	if f.ignore != nil && *f.ignore && (f.index != nil || f.key != nil) {
		return errors.New("excluded field cannot declare a slot")
	}

	return nil
}

// merge lays next over f. A slot in next clears an exclusion below it and
// an exclusion in next clears a slot below it.
func (f *fieldOverride) merge(next *fieldOverride) {
	if next.index != nil || next.key != nil {
		f.index, f.key = next.index, next.key
		if f.ignore != nil && *f.ignore {
			f.ignore = nil
		}
	}

	if next.ignore != nil {
		f.ignore = next.ignore
		if *next.ignore {
			f.index, f.key = nil, nil
		}
	}

	if next.final != nil {
		f.final = next.final
	}

	if next.contains != nil {
		f.contains = next.contains
	}

	if next.bindVia != nil {
		f.bindVia = next.bindVia
	}

	if next.unbindVia != nil {
		f.unbindVia = next.unbindVia
	}
}

// Shape sets the wire shape.
func Shape(s mapping.Shape) Option {
	return func(o *override) error {
		if s == mapping.ShapeNone {
			return errors.New("shape must not be none")
		}

		o.shape = s

		return nil
	}
}

// Request declares a request message type.
func Request() Option { return Shape(mapping.ShapeRequest) }

// Response declares a response message type.
func Response() Option { return Shape(mapping.ShapeResponse) }

// ArrayPart declares a type carried as a wire array.
func ArrayPart() Option { return Shape(mapping.ShapeArray) }

// StructPart declares a type carried as a wire struct.
func StructPart() Option { return Shape(mapping.ShapeStruct) }

// Constructor declares the factory building immutable instances. refs are
// the slots passed as arguments, in order: ints for array-shaped and
// message types, strings for struct-shaped types.
//
// fn must be a func returning T or *T, optionally followed by an error,
// with one parameter per reference.
func Constructor(fn any, refs ...any) Option {
	return func(o *override) error {
		v := reflect.ValueOf(fn)
		if v.Kind() != reflect.Func || v.IsNil() {
			return fmt.Errorf("constructor must be a non-nil func, got %T", fn)
		}

		o.ctorFn = v

		return ConstructorRefs(refs...)(o)
	}
}

// ConstructorRefs sets the constructor reference list alone, for use with
// a factory declared elsewhere.
func ConstructorRefs(refs ...any) Option {
	return func(o *override) error {
		for _, r := range refs {
			switch r.(type) {
			case int, string:
			default:
				return fmt.Errorf("constructor reference must be int or string, got %T", r)
			}
		}

		o.ctorRefs, o.hasRefs = append([]any(nil), refs...), true

		return nil
	}
}

// Imports declares auxiliary types resolved together with this one.
func Imports(samples ...any) Option {
	return func(o *override) error {
		for _, s := range samples {
			t := reflect.TypeOf(s)
			if t == nil {
				return errors.New("nil import")
			}

			o.imports = append(o.imports, t)
		}

		return nil
	}
}

// Field configures the named field. Promoted fields are addressed by
// their own name.
func Field(name string, opts ...FieldOption) Option {
	return func(o *override) error {
		next := &fieldOverride{}
		for _, opt := range opts {
			if err := opt(next); err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
		}

		if err := next.check(); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}

		o.field(name).merge(next)

		return nil
	}
}

// Index places the field at a wire array index.
func Index(i int) FieldOption {
	return func(f *fieldOverride) error {
		if i < 0 {
			return fmt.Errorf("negative index %d", i)
		}

		f.index = ptr(i)

		return nil
	}
}

// Key places the field at a wire struct member name.
func Key(k string) FieldOption {
	return func(f *fieldOverride) error {
		if k == "" {
			return errors.New("empty key")
		}

		f.key = ptr(k)

		return nil
	}
}

// Ignore excludes the field from binding.
func Ignore() FieldOption {
	return func(f *fieldOverride) error {
		f.ignore = ptr(true)
		return nil
	}
}

// Final marks the field as settable only through the constructor.
func Final() FieldOption {
	return func(f *fieldOverride) error {
		f.final = ptr(true)
		return nil
	}
}

// Contains overrides the element type of a map, slice or array field.
func Contains(sample any) FieldOption {
	return func(f *fieldOverride) error {
		t := reflect.TypeOf(sample)
		if t == nil {
			return errors.New("nil element sample")
		}

		f.contains = t

		return nil
	}
}

// BindVia names the ValueBinder used for the field.
func BindVia(name string) FieldOption {
	return func(f *fieldOverride) error {
		f.bindVia = ptr(name)
		return nil
	}
}

// UnbindVia names the ValueUnbinder used for the field.
func UnbindVia(name string) FieldOption {
	return func(f *fieldOverride) error {
		f.unbindVia = ptr(name)
		return nil
	}
}

// Via names a Converter used in both directions.
func Via(name string) FieldOption {
	return func(f *fieldOverride) error {
		f.bindVia, f.unbindVia = ptr(name), ptr(name)
		return nil
	}
}
