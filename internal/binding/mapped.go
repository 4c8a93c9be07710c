package binding

import (
	"context"
	"fmt"
	"reflect"

	log "github.com/sirupsen/logrus"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/event"
	"xmlrpc-binder/internal/mapping"
	"xmlrpc-binder/internal/match"
)

// slotBinder holds the per-slot children of a mapping binder.
type slotBinder[K comparable] struct {
	base
	// self is the outermost binder, recorded as the parent of children.
	self     Binder
	tpl      *template
	children map[K]Binder
}

func (b *slotBinder[K]) child(slot K, fb *mapping.FieldBinding) (Binder, error) {
	if c, ok := b.children[slot]; ok {
		return c, nil
	}

	c, err := b.c.NewBinder(b.self, fb.Type, fb)
	if err != nil {
		return nil, err
	}

	if b.children == nil {
		b.children = make(map[K]Binder)
	}

	b.children[slot] = c

	return c, nil
}

func (b *slotBinder[K]) skip(ctx context.Context, cur *event.Cursor, slot K) error {
	b.c.log.WithFields(log.Fields{
		"type": common.ShortTypeName(b.typ),
		"slot": fmt.Sprint(slot),
	}).Debug("skipping unmapped slot")

	return b.c.skip(ctx, cur)
}

// ArrayMappingBinder binds an array-shaped type by element index.
type ArrayMappingBinder struct {
	slotBinder[int]
	mp *mapping.ArrayMapping
}

func (c *Context) newArrayMappingBinder(parent Binder, mp *mapping.ArrayMapping) (*ArrayMappingBinder, error) {
	tpl, err := newTemplate(mp)
	if err != nil {
		return nil, err
	}

	b := &ArrayMappingBinder{
		slotBinder: slotBinder[int]{base: base{c: c, parent: parent, typ: mp.ObjectType()}, tpl: tpl},
		mp:         mp,
	}
	b.self = b

	return b, nil
}

// Mapping returns the descriptor the binder follows.
func (b *ArrayMappingBinder) Mapping() *mapping.ArrayMapping {
	return b.mp
}

// Bind implements Binder.
func (b *ArrayMappingBinder) Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error) {
	ok, err := open(ctx, cur, event.FamilyArray, b.typ)
	if err != nil || !ok {
		return reflect.Zero(b.typ), err
	}

	vals := make(values)

	err = bindArrayBody(ctx, cur, func(i int) error {
		return b.bindSlot(ctx, cur, i, vals)
	})
	if err != nil {
		return reflect.Value{}, err
	}

	return b.tpl.build(vals)
}

func (b *ArrayMappingBinder) bindSlot(ctx context.Context, cur *event.Cursor, i int, vals values) error {
	fb, ok := b.mp.FieldBinding(i)
	if !ok {
		return b.skip(ctx, cur, i)
	}

	c, err := b.child(i, fb)
	if err != nil {
		return err
	}

	v, err := c.Bind(ctx, cur)
	if err != nil {
		return err
	}

	vals[fb] = v

	return nil
}

// width is the number of wire slots: one past the highest mapped index.
func (b *ArrayMappingBinder) width() int {
	slots := b.mp.Slots()
	if len(slots) == 0 {
		return 0
	}

	return slots[len(slots)-1] + 1
}

// Unbind implements Binder. Indexes with no field are emitted as NIL so
// the element indexes stay contiguous.
func (b *ArrayMappingBinder) Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error) {
	v, ok := indirect(v)
	if !ok {
		return unbindNil(ctx, l)
	}

	if err := checkType(v, b.typ); err != nil {
		return nil, event.TypeNil, err
	}

	out, err := unbindArrayBody(ctx, l, b.width(), func(i int) (any, event.ValueType, error) {
		return b.unbindSlot(ctx, v, i, l)
	})
	if err != nil {
		return nil, event.TypeNil, err
	}

	return out, event.TypeArray, nil
}

func (b *ArrayMappingBinder) unbindSlot(ctx context.Context, v reflect.Value, i int, l event.Listener) (any, event.ValueType, error) {
	fb, ok := b.mp.FieldBinding(i)
	if !ok {
		return unbindNil(ctx, l)
	}

	c, err := b.child(i, fb)
	if err != nil {
		return nil, event.TypeNil, err
	}

	return c.Unbind(ctx, v.FieldByIndex(fb.Index), l)
}

// StructMappingBinder binds a struct-shaped type by member key.
type StructMappingBinder struct {
	slotBinder[string]
	mp *mapping.StructMapping
}

func (c *Context) newStructMappingBinder(parent Binder, mp *mapping.StructMapping) (*StructMappingBinder, error) {
	tpl, err := newTemplate(mp)
	if err != nil {
		return nil, err
	}

	b := &StructMappingBinder{
		slotBinder: slotBinder[string]{base: base{c: c, parent: parent, typ: mp.ObjectType()}, tpl: tpl},
		mp:         mp,
	}
	b.self = b

	return b, nil
}

// Mapping returns the descriptor the binder follows.
func (b *StructMappingBinder) Mapping() *mapping.StructMapping {
	return b.mp
}

// Bind implements Binder. Members with no field are consumed and dropped.
func (b *StructMappingBinder) Bind(ctx context.Context, cur *event.Cursor) (reflect.Value, error) {
	ok, err := open(ctx, cur, event.FamilyStruct, b.typ)
	if err != nil || !ok {
		return reflect.Zero(b.typ), err
	}

	vals := make(values)

	err = bindStructBody(ctx, cur, func(key string) error {
		fb, ok := b.mp.FieldBinding(key)
		if !ok {
			b.near(key)
			return b.skip(ctx, cur, key)
		}

		c, err := b.child(key, fb)
		if err != nil {
			return err
		}

		v, err := c.Bind(ctx, cur)
		if err != nil {
			return err
		}

		vals[fb] = v

		return nil
	})
	if err != nil {
		return reflect.Value{}, err
	}

	return b.tpl.build(vals)
}

// Unbind implements Binder. Members are emitted in slot order.
func (b *StructMappingBinder) Unbind(ctx context.Context, v reflect.Value, l event.Listener) (any, event.ValueType, error) {
	v, ok := indirect(v)
	if !ok {
		return unbindNil(ctx, l)
	}

	if err := checkType(v, b.typ); err != nil {
		return nil, event.TypeNil, err
	}

	out, err := unbindStructBody(ctx, l, b.mp.Slots(), func(key string) (any, event.ValueType, error) {
		fb, _ := b.mp.FieldBinding(key)

		c, err := b.child(key, fb)
		if err != nil {
			return nil, event.TypeNil, err
		}

		return c.Unbind(ctx, v.FieldByIndex(fb.Index), l)
	})
	if err != nil {
		return nil, event.TypeNil, err
	}

	return out, event.TypeStruct, nil
}

// near logs a mapped key that an unmapped member key looks like a
// misspelling of.
func (b *StructMappingBinder) near(key string) {
	c := match.Rank(key, b.mp.Slots()).Unambiguous(nearScore, nearGap)
	if c == nil {
		return
	}

	b.c.log.WithFields(log.Fields{
		"type": common.ShortTypeName(b.typ),
		"key":  key,
		"near": c.Name,
	}).Warn("unmapped member resembles a mapped key")
}

const (
	nearScore = 0.8
	nearGap   = 0.1
)
