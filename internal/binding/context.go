package binding

import (
	"context"
	"reflect"

	log "github.com/sirupsen/logrus"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/event"
	"xmlrpc-binder/internal/mapping"
	"xmlrpc-binder/internal/scalar"
)

// Converters looks up named value converters. *decl.Registry implements it.
type Converters interface {
	Binder(name string) (decl.ValueBinder, bool)
	Unbinder(name string) (decl.ValueUnbinder, bool)
}

// Context creates binders over one descriptor map.
type Context struct {
	m     *mapping.Map
	conv  Converters
	codec scalar.Codec
	log   log.FieldLogger
}

// Option configures a Context.
type Option func(*Context)

// WithConverters sets the source of named converters.
func WithConverters(cv Converters) Option {
	return func(c *Context) {
		c.conv = cv
	}
}

// WithCodec sets the default scalar codec; scalar.Default otherwise.
func WithCodec(codec scalar.Codec) Option {
	return func(c *Context) {
		c.codec = codec
	}
}

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(c *Context) {
		c.log = l
	}
}

// NewContext creates a Context over m, which must not change afterwards.
func NewContext(m *mapping.Map, opts ...Option) *Context {
	c := &Context{
		m:     m,
		codec: scalar.Default,
		log:   log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Map returns the descriptor map.
func (c *Context) Map() *mapping.Map {
	return c.m
}

// NewMessageBinder returns the root binder of message type t (or *t).
func (c *Context) NewMessageBinder(t reflect.Type) (*MessageBinder, error) {
	if t == nil {
		return nil, diagnostic.Errorf(diagnostic.CodeUnknownMapping, "", "", "nil message type")
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	mp, ok := c.m.Get(t)
	if !ok {
		return nil, diagnostic.Errorf(diagnostic.CodeUnknownMapping, common.ShortTypeName(t), "",
			"type was not resolved")
	}

	am, ok := mp.(*mapping.ArrayMapping)
	if !ok || !am.Shape().IsMessage() {
		return nil, diagnostic.Errorf(diagnostic.CodeUnknownMapping, common.ShortTypeName(t), "",
			"type is resolved as %s, not as a message", mp.Shape())
	}

	return c.newMessageBinder(nil, am)
}

func (c *Context) newMessageBinder(parent Binder, am *mapping.ArrayMapping) (*MessageBinder, error) {
	ab, err := c.newArrayMappingBinder(parent, am)
	if err != nil {
		return nil, err
	}

	mb := &MessageBinder{ArrayMappingBinder: ab}
	ab.self = mb

	return mb, nil
}

// NewBinder selects the binder for values of type t held by a field
// described by fb, which may be nil. In order: the field's named
// converters; the mapping of t (message, array- or struct-shaped); a map,
// slice or array container over the element type or fb.Contains; the
// default scalar codec. Pointers bind through to their element type and
// interface types bind to the generic form.
func (c *Context) NewBinder(parent Binder, t reflect.Type, fb *mapping.FieldBinding) (Binder, error) {
	if fb != nil && fb.HasOverride() {
		return c.newOverrideBinder(parent, t, fb)
	}

	var contains reflect.Type
	if fb != nil {
		contains = fb.Contains
	}

	return c.selectBinder(parent, t, contains)
}

func (c *Context) selectBinder(parent Binder, t reflect.Type, contains reflect.Type) (Binder, error) {
	if t == nil {
		return nil, diagnostic.Errorf(diagnostic.CodeUnboundField, "", "", "no type to bind")
	}

	if t.Kind() == reflect.Pointer {
		pb := &PointerBinder{base: base{c: c, parent: parent, typ: t}}

		elem, err := c.selectBinder(pb, t.Elem(), contains)
		if err != nil {
			return nil, err
		}

		pb.elem = elem

		return pb, nil
	}

	if mp, ok := c.m.Get(t); ok {
		switch mp := mp.(type) {
		case *mapping.ArrayMapping:
			if mp.Shape().IsMessage() {
				return c.newMessageBinder(parent, mp)
			}

			return c.newArrayMappingBinder(parent, mp)
		case *mapping.StructMapping:
			return c.newStructMappingBinder(parent, mp)
		}
	}

	b := base{c: c, parent: parent, typ: t}

	elem := func() elemBinder {
		et := t.Elem()
		if contains != nil {
			et = contains
		}

		return elemBinder{base: b, elemType: et}
	}

	switch {
	case t.Kind() == reflect.Interface:
		return &GenericBinder{base: b}, nil
	case scalar.BaseKind(t) == scalar.KindBytes:
		return &ValueBinder{base: b, codec: c.codec}, nil
	case t.Kind() == reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, diagnostic.Errorf(diagnostic.CodeUnboundField, common.ShortTypeName(t), "",
				"map keys must be strings to bind as struct members, got %s", t.Key())
		}

		return &MapBinder{elemBinder: elem()}, nil
	case t.Kind() == reflect.Slice:
		return &CollectionBinder{elemBinder: elem()}, nil
	case t.Kind() == reflect.Array:
		return &ArrayBinder{elemBinder: elem()}, nil
	case scalar.FromReflectType(t) != 0:
		return &ValueBinder{base: b, codec: c.codec}, nil
	case t.Kind() == reflect.Struct:
		return nil, diagnostic.Errorf(diagnostic.CodeUnknownMapping, common.ShortTypeName(t), "",
			"struct type has no mapping in the descriptor map")
	}

	return nil, diagnostic.Errorf(diagnostic.CodeUnboundField, common.ShortTypeName(t), "",
		"no binder for %s values", t.Kind())
}

func (c *Context) newOverrideBinder(parent Binder, t reflect.Type, fb *mapping.FieldBinding) (Binder, error) {
	ob := &OverrideBinder{base: base{c: c, parent: parent, typ: t}}

	if fb.BindVia != "" {
		vb, ok := c.lookupBinder(fb.BindVia)
		if !ok {
			return nil, unknownConverter(t, fb, fb.BindVia)
		}

		ob.bind = vb
	}

	if fb.UnbindVia != "" {
		vu, ok := c.lookupUnbinder(fb.UnbindVia)
		if !ok {
			return nil, unknownConverter(t, fb, fb.UnbindVia)
		}

		ob.unbind = vu
	}

	if ob.bind == nil || ob.unbind == nil {
		fallback, err := c.selectBinder(ob, t, fb.Contains)
		if err != nil {
			return nil, err
		}

		ob.fallback = fallback
	}

	return ob, nil
}

func (c *Context) lookupBinder(name string) (decl.ValueBinder, bool) {
	if c.conv == nil {
		return nil, false
	}

	return c.conv.Binder(name)
}

func (c *Context) lookupUnbinder(name string) (decl.ValueUnbinder, bool) {
	if c.conv == nil {
		return nil, false
	}

	return c.conv.Unbinder(name)
}

func unknownConverter(t reflect.Type, fb *mapping.FieldBinding, name string) error {
	return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, common.ShortTypeName(t), fb.Name,
		"unknown converter %q", name)
}

var anyType = reflect.TypeFor[any]()

// skip consumes one value production without binding it.
func (c *Context) skip(ctx context.Context, cur *event.Cursor) error {
	_, err := (&GenericBinder{base: base{c: c, typ: anyType}}).Bind(ctx, cur)
	return err
}
