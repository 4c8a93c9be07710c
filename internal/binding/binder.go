package binding

import (
	"context"
	"errors"
	"io"
	"reflect"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/event"
)

// Binder binds one wire value to a Go value of one type and back.
type Binder interface {
	// Type is the Go type produced by Bind.
	Type() reflect.Type
	// Parent is the enclosing binder; nil for a message root.
	Parent() Binder
	// Bind consumes exactly one value production from cur.
	Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error)
	// Unbind emits the events of v to l and returns the generic form of v
	// and its wire type, which the caller puts in the completion event.
	Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error)
}

type base struct {
	c      *Context
	parent Binder
	typ    reflect.Type
}

func (b *base) Type() reflect.Type { return b.typ }

func (b *base) Parent() Binder { return b.parent }

func next(ctx context.Context, cur *event.Cursor) (event.Event, error) {
	e, err := cur.Next(ctx)
	if errors.Is(err, io.EOF) {
		return e, diagnostic.Errorf(diagnostic.CodeGrammarViolation, "", "", "unexpected end of stream inside a value")
	}

	return e, err
}

func violation(e event.Event, expecting string) error {
	return diagnostic.Errorf(diagnostic.CodeGrammarViolation, "", "", "saw %s while expecting %s", e, expecting)
}

// mismatch reports a well-formed value of the wrong wire shape for t.
func mismatch(t reflect.Type, e event.Event) error {
	return diagnostic.Errorf(diagnostic.CodeConversion, common.ShortTypeName(t), "",
		"cannot bind %s value to %s", e.Type, t)
}

// open consumes the start event of a composite of family f. It reports
// false, with no error, when the value is NIL.
func open(ctx context.Context, cur *event.Cursor, f event.Family, t reflect.Type) (bool, error) {
	e, err := next(ctx, cur)
	if err != nil {
		return false, err
	}

	switch {
	case e.Is(f, event.PhaseStart):
		return true, nil
	case e.Family == event.FamilyValue && e.Type == event.TypeNil:
		return false, nil
	case e.Family == event.FamilyValue,
		e.Is(event.FamilyStruct, event.PhaseStart),
		e.Is(event.FamilyArray, event.PhaseStart):
		return false, mismatch(t, e)
	}

	return false, violation(e, "a value")
}

// scalarEvent consumes a Value event for t.
func scalarEvent(ctx context.Context, cur *event.Cursor, t reflect.Type) (event.Event, error) {
	e, err := next(ctx, cur)
	if err != nil {
		return e, err
	}

	switch {
	case e.Family == event.FamilyValue:
		return e, nil
	case e.Is(event.FamilyStruct, event.PhaseStart), e.Is(event.FamilyArray, event.PhaseStart):
		return e, mismatch(t, e)
	}

	return e, violation(e, "a value")
}

// complete consumes the completion event matching want.
func complete(ctx context.Context, cur *event.Cursor, want event.Event) error {
	e, err := cur.Expect(ctx, want.Family, event.PhaseMember)
	if err != nil {
		return err
	}

	if e.Key != want.Key || e.Index != want.Index {
		return violation(e, want.Family.String()+"(member) for the open slot")
	}

	return nil
}

// bindArrayBody consumes elements up to ArrayEnd, calling fn to bind the
// value of each.
func bindArrayBody(ctx context.Context, cur *event.Cursor, fn func(i int) error) error {
	for {
		e, err := next(ctx, cur)
		if err != nil {
			return err
		}

		if e.Is(event.FamilyArray, event.PhaseEnd) {
			return nil
		}

		if !e.Is(event.FamilyArray, event.PhaseMemberStart) {
			return violation(e, "Array(member-start) or Array(end)")
		}

		if err := fn(e.Index); err != nil {
			return err
		}

		if err := complete(ctx, cur, event.ArrayElement(e.Index, nil, 0)); err != nil {
			return err
		}
	}
}

// bindStructBody consumes members up to StructEnd, calling fn to bind the
// value of each.
func bindStructBody(ctx context.Context, cur *event.Cursor, fn func(key string) error) error {
	for {
		e, err := next(ctx, cur)
		if err != nil {
			return err
		}

		if e.Is(event.FamilyStruct, event.PhaseEnd) {
			return nil
		}

		if !e.Is(event.FamilyStruct, event.PhaseMemberStart) {
			return violation(e, "Struct(member-start) or Struct(end)")
		}

		if err := fn(e.Key); err != nil {
			return err
		}

		if err := complete(ctx, cur, event.StructMember(e.Key, nil, 0)); err != nil {
			return err
		}
	}
}

type unbindFunc[K any] func(slot K) (any, event.ValueType, error)

func emit(ctx context.Context, l event.Listener, e event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return l.OnEvent(ctx, e)
}

// unbindArrayBody emits an array of n elements produced by fn.
func unbindArrayBody(ctx context.Context, l event.Listener, n int, fn unbindFunc[int]) ([]any, error) {
	if err := emit(ctx, l, event.ArrayStart()); err != nil {
		return nil, err
	}

	out := make([]any, 0, n)

	for i := range n {
		if err := emit(ctx, l, event.ArrayElementStart(i)); err != nil {
			return nil, err
		}

		gv, gt, err := fn(i)
		if err != nil {
			return nil, err
		}

		if err := emit(ctx, l, event.ArrayElement(i, gv, gt)); err != nil {
			return nil, err
		}

		out = append(out, gv)
	}

	return out, emit(ctx, l, event.ArrayEnd())
}

// unbindStructBody emits a struct with the given member keys, in order.
func unbindStructBody(ctx context.Context, l event.Listener, keys []string, fn unbindFunc[string]) (map[string]any, error) {
	if err := emit(ctx, l, event.StructStart()); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(keys))

	for _, k := range keys {
		if err := emit(ctx, l, event.StructMemberStart(k)); err != nil {
			return nil, err
		}

		gv, gt, err := fn(k)
		if err != nil {
			return nil, err
		}

		if err := emit(ctx, l, event.StructMember(k, gv, gt)); err != nil {
			return nil, err
		}

		out[k] = gv
	}

	return out, emit(ctx, l, event.StructEnd())
}

// unbindNil emits a NIL value.
func unbindNil(ctx context.Context, l event.Listener) (any, event.ValueType, error) {
	return nil, event.TypeNil, emit(ctx, l, event.Value(nil, event.TypeNil))
}

// indirect looks through interfaces and pointers. It reports false for a
// nil or invalid value.
func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return v, false
		}

		v = v.Elem()
	}

	return v, v.IsValid()
}

// checkType fails unless v holds a t.
func checkType(v reflect.Value, t reflect.Type) error {
	if v.Type() == t {
		return nil
	}

	return diagnostic.Errorf(diagnostic.CodeConversion, common.ShortTypeName(t), "",
		"cannot unbind %s as %s", v.Type(), t)
}

// settle fits v into target: direct assignment, one pointer allocation,
// or a conversion between compatible types.
func settle(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(target), nil
	}

	switch {
	case v.Type() == target:
		return v, nil
	case v.Type().AssignableTo(target):
		out := reflect.New(target).Elem()
		out.Set(v)

		return out, nil
	case target.Kind() == reflect.Pointer && v.Type().AssignableTo(target.Elem()):
		p := reflect.New(target.Elem())
		p.Elem().Set(v)

		return p, nil
	case v.Type().ConvertibleTo(target) && v.Kind() == target.Kind():
		return v.Convert(target), nil
	}

	return reflect.Value{}, diagnostic.Errorf(diagnostic.CodeConversion, common.ShortTypeName(target), "",
		"cannot hold %s", v.Type())
}

func generic(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}

	return v.Interface()
}
