package binding

import (
	"context"
	"reflect"

	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/event"
	"xmlrpc-binder/internal/scalar"
)

// ValueBinder binds scalar leaves with the scalar codec.
type ValueBinder struct {
	base
	codec scalar.Codec
}

// Bind implements Binder.
func (b *ValueBinder) Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error) {
	e, err := scalarEvent(ctx, cur, b.typ)
	if err != nil {
		return reflect.Value{}, err
	}

	return b.codec.Bind(e.Value, e.Type, b.typ)
}

// Unbind implements Binder.
func (b *ValueBinder) Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error) {
	gv, gt, err := b.codec.Unbind(v)
	if err != nil {
		return nil, event.TypeNil, err
	}

	return gv, gt, emit(ctx, l, event.Value(gv, gt))
}

// OverrideBinder delegates to the named converters of a field. A direction
// with no converter uses the binder the field type would otherwise get.
type OverrideBinder struct {
	base
	bind     decl.ValueBinder
	unbind   decl.ValueUnbinder
	fallback Binder
}

// Bind implements Binder.
func (b *OverrideBinder) Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error) {
	if b.bind == nil {
		return b.fallback.Bind(ctx, cur)
	}

	e, err := scalarEvent(ctx, cur, b.typ)
	if err != nil {
		return reflect.Value{}, err
	}

	return b.bind.BindValue(e.Value, e.Type, b.typ)
}

// Unbind implements Binder.
func (b *OverrideBinder) Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error) {
	if b.unbind == nil {
		return b.fallback.Unbind(ctx, v, l)
	}

	gv, gt, err := b.unbind.UnbindValue(v)
	if err != nil {
		return nil, event.TypeNil, err
	}

	return gv, gt, emit(ctx, l, event.Value(gv, gt))
}

// PointerBinder binds *T through the binder of T. NIL binds to a nil
// pointer and a nil pointer unbinds to NIL.
type PointerBinder struct {
	base
	elem Binder
}

// Bind implements Binder.
func (b *PointerBinder) Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error) {
	if e, err := cur.Peek(ctx); err == nil && e.Family == event.FamilyValue && e.Type == event.TypeNil {
		if _, err := cur.Next(ctx); err != nil {
			return reflect.Value{}, err
		}

		return reflect.Zero(b.typ), nil
	}

	v, err := b.elem.Bind(ctx, cur)
	if err != nil {
		return reflect.Value{}, err
	}

	return settle(v, b.typ)
}

// Unbind implements Binder.
func (b *PointerBinder) Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error) {
	if v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return unbindNil(ctx, l)
		}

		v = v.Elem()
	}

	return b.elem.Unbind(ctx, v, l)
}

// GenericBinder binds interface-typed targets to the generic wire form:
// map[string]any for structs, []any for arrays, and wire scalars as is.
// Unbinding dispatches on the dynamic type of the value.
type GenericBinder struct {
	base
}

// Bind implements Binder.
func (b *GenericBinder) Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error) {
	e, err := next(ctx, cur)
	if err != nil {
		return reflect.Value{}, err
	}

	switch {
	case e.Family == event.FamilyValue:
		if e.Value == nil {
			return reflect.Zero(b.typ), nil
		}

		return settle(reflect.ValueOf(e.Value), b.typ)
	case e.Is(event.FamilyStruct, event.PhaseStart):
		m := map[string]any{}

		err := bindStructBody(ctx, cur, func(key string) error {
			v, err := b.Bind(ctx, cur)
			m[key] = generic(v)

			return err
		})
		if err != nil {
			return reflect.Value{}, err
		}

		return settle(reflect.ValueOf(m), b.typ)
	case e.Is(event.FamilyArray, event.PhaseStart):
		s := []any{}

		err := bindArrayBody(ctx, cur, func(int) error {
			v, err := b.Bind(ctx, cur)
			s = append(s, generic(v))

			return err
		})
		if err != nil {
			return reflect.Value{}, err
		}

		return settle(reflect.ValueOf(s), b.typ)
	}

	return reflect.Value{}, violation(e, "a value")
}

// Unbind implements Binder.
func (b *GenericBinder) Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error) {
	if v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return unbindNil(ctx, l)
		}

		v = v.Elem()
	}

	if !v.IsValid() {
		return unbindNil(ctx, l)
	}

	dyn, err := b.c.NewBinder(b, v.Type(), nil)
	if err != nil {
		return nil, event.TypeNil, err
	}

	return dyn.Unbind(ctx, v, l)
}
