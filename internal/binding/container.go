package binding

import (
	"context"
	"reflect"
	"slices"

	log "github.com/sirupsen/logrus"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/event"
)

// elemBinder creates the element binder of a container on first use.
type elemBinder struct {
	base
	elemType reflect.Type
	elem     Binder
}

func (b *elemBinder) element(self Binder) (Binder, error) {
	if b.elem != nil {
		return b.elem, nil
	}

	e, err := b.c.NewBinder(self, b.elemType, nil)
	if err != nil {
		return nil, err
	}

	b.elem = e

	return e, nil
}

// bindElem binds one element and fits it into the container's element type.
func (b *elemBinder) bindElem(ctx context.Context, cur *event.Cursor, self Binder) (reflect.Value, error) {
	e, err := b.element(self)
	if err != nil {
		return reflect.Value{}, err
	}

	v, err := e.Bind(ctx, cur)
	if err != nil {
		return reflect.Value{}, err
	}

	return settle(v, b.typ.Elem())
}

func (b *elemBinder) unbindElem(ctx context.Context, v reflect.Value, l event.Listener, self Binder) (any, event.ValueType, error) {
	e, err := b.element(self)
	if err != nil {
		return nil, event.TypeNil, err
	}

	return e.Unbind(ctx, v, l)
}

// MapBinder binds a map with string-kind keys to a wire struct.
type MapBinder struct {
	elemBinder
}

// Bind implements Binder.
func (b *MapBinder) Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error) {
	ok, err := open(ctx, cur, event.FamilyStruct, b.typ)
	if err != nil || !ok {
		return reflect.Zero(b.typ), err
	}

	m := reflect.MakeMap(b.typ)

	err = bindStructBody(ctx, cur, func(key string) error {
		v, err := b.bindElem(ctx, cur, b)
		if err != nil {
			return err
		}

		m.SetMapIndex(reflect.ValueOf(key).Convert(b.typ.Key()), v)

		return nil
	})
	if err != nil {
		return reflect.Value{}, err
	}

	return m, nil
}

// Unbind implements Binder. Members are emitted in key order; a nil map
// is NIL.
func (b *MapBinder) Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error) {
	v, ok := indirect(v)
	if !ok || v.IsNil() {
		return unbindNil(ctx, l)
	}

	if err := checkType(v, b.typ); err != nil {
		return nil, event.TypeNil, err
	}

	keys := v.MapKeys()
	names := make([]string, len(keys))
	byName := make(map[string]reflect.Value, len(keys))

	for i, k := range keys {
		names[i] = k.String()
		byName[names[i]] = k
	}

	slices.Sort(names)

	out, err := unbindStructBody(ctx, l, names, func(key string) (any, event.ValueType, error) {
		return b.unbindElem(ctx, v.MapIndex(byName[key]), l, b)
	})
	if err != nil {
		return nil, event.TypeNil, err
	}

	return out, event.TypeStruct, nil
}

// CollectionBinder binds a slice to a wire array.
type CollectionBinder struct {
	elemBinder
}

// Bind implements Binder. An empty array binds to an empty, non-nil slice.
func (b *CollectionBinder) Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error) {
	ok, err := open(ctx, cur, event.FamilyArray, b.typ)
	if err != nil || !ok {
		return reflect.Zero(b.typ), err
	}

	s := reflect.MakeSlice(b.typ, 0, 0)

	err = bindArrayBody(ctx, cur, func(int) error {
		v, err := b.bindElem(ctx, cur, b)
		if err != nil {
			return err
		}

		s = reflect.Append(s, v)

		return nil
	})
	if err != nil {
		return reflect.Value{}, err
	}

	return s, nil
}

// Unbind implements Binder. A nil slice is NIL.
func (b *CollectionBinder) Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error) {
	v, ok := indirect(v)
	if !ok || v.IsNil() {
		return unbindNil(ctx, l)
	}

	if err := checkType(v, b.typ); err != nil {
		return nil, event.TypeNil, err
	}

	out, err := unbindArrayBody(ctx, l, v.Len(), func(i int) (any, event.ValueType, error) {
		return b.unbindElem(ctx, v.Index(i), l, b)
	})
	if err != nil {
		return nil, event.TypeNil, err
	}

	return out, event.TypeArray, nil
}

// ArrayBinder binds a fixed-size Go array to a wire array. Elements past
// the array length are consumed and dropped.
type ArrayBinder struct {
	elemBinder
}

// Bind implements Binder.
func (b *ArrayBinder) Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error) {
	ok, err := open(ctx, cur, event.FamilyArray, b.typ)
	if err != nil || !ok {
		return reflect.Zero(b.typ), err
	}

	arr := reflect.New(b.typ).Elem()

	err = bindArrayBody(ctx, cur, func(i int) error {
		if i >= b.typ.Len() {
			b.c.log.WithFields(log.Fields{
				"type":  common.ShortTypeName(b.typ),
				"index": i,
			}).Debug("skipping element past array length")

			return b.c.skip(ctx, cur)
		}

		v, err := b.bindElem(ctx, cur, b)
		if err != nil {
			return err
		}

		arr.Index(i).Set(v)

		return nil
	})
	if err != nil {
		return reflect.Value{}, err
	}

	return arr, nil
}

// Unbind implements Binder.
func (b *ArrayBinder) Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error) {
	v, ok := indirect(v)
	if !ok {
		return unbindNil(ctx, l)
	}

	if err := checkType(v, b.typ); err != nil {
		return nil, event.TypeNil, err
	}

	out, err := unbindArrayBody(ctx, l, v.Len(), func(i int) (any, event.ValueType, error) {
		return b.unbindElem(ctx, v.Index(i), l, b)
	})
	if err != nil {
		return nil, event.TypeNil, err
	}

	return out, event.TypeArray, nil
}
