package resolve

import (
	"errors"
	"fmt"
	"reflect"

	log "github.com/sirupsen/logrus"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/mapping"
)

// Resolver turns declarations into descriptor maps.
type Resolver struct {
	reg *decl.Registry
	log log.FieldLogger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// New creates a Resolver reading declarations from reg.
func New(reg *decl.Registry, opts ...Option) *Resolver {
	r := &Resolver{reg: reg, log: log.StandardLogger()}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Registry returns the declaration source.
func (r *Resolver) Registry() *decl.Registry {
	return r.reg
}

// Resolve builds the union of the closures of roots. Every root must be
// declared as a request or response.
func (r *Resolver) Resolve(roots ...reflect.Type) (*mapping.Map, error) {
	m := mapping.NewMap()

	for _, root := range roots {
		if root == nil {
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidRoot, "", "", "nil root type")
		}

		t := deref(root)

		d, err := r.reg.Lookup(t)
		if err != nil {
			return nil, err
		}

		if d == nil || !d.Shape.IsMessage() {
			shape := mapping.ShapeNone
			if d != nil {
				shape = d.Shape
			}

			return nil, diagnostic.Errorf(diagnostic.CodeInvalidRoot, common.ShortTypeName(t), "",
				"root type must be declared request or response, got %s", shape)
		}

		if err := r.process(m, d); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// process adds the mapping of d and everything reachable from it.
func (r *Resolver) process(m *mapping.Map, d *decl.Declaration) error {
	if m.Has(d.Type) {
		return nil
	}

	var err error
	if d.Shape.IsArrayShaped() {
		err = r.processArray(m, d)
	} else {
		err = r.processStruct(m, d)
	}

	if err != nil {
		return err
	}

	for _, it := range d.Imports {
		if err := r.processImport(m, d, it); err != nil {
			return err
		}
	}

	mp, _ := m.Get(d.Type)
	r.log.WithFields(log.Fields{
		"type":  common.ShortTypeName(d.Type),
		"shape": d.Shape.String(),
		"slots": mp.Len(),
	}).Debug("resolved mapping")

	return nil
}

func (r *Resolver) processArray(m *mapping.Map, d *decl.Declaration) error {
	var refs []int
	if d.Constructor != nil {
		refs = d.Constructor.Indexes
	}

	mp := mapping.NewArrayMapping(d.Type, d.Shape, refs)
	if d.Constructor != nil {
		mp.SetConstructor(d.Constructor.Func)
	}

	m.Reserve(mp)

	for i := range d.Fields {
		fd := &d.Fields[i]

		switch {
		case fd.Ignore:
			continue
		case !fd.HasIndex:
			r.log.WithFields(log.Fields{
				"type":  common.ShortTypeName(d.Type),
				"field": fd.Field.Name,
			}).Warn("field has no index and stays unbound")

			continue
		}

		if fd.Final && !mp.IsConstructorRef(fd.Index) {
			return illegalImmutable(d, fd, fd.Index)
		}

		fb, err := r.fieldBinding(d, fd)
		if err != nil {
			return err
		}

		if err := mp.AddFieldBinding(fd.Index, fb); err != nil {
			return err
		}

		if err := r.processFieldType(m, fb); err != nil {
			return err
		}
	}

	return nil
}

func (r *Resolver) processStruct(m *mapping.Map, d *decl.Declaration) error {
	var refs []string
	if d.Constructor != nil {
		refs = d.Constructor.Keys
	}

	mp := mapping.NewStructMapping(d.Type, refs)
	if d.Constructor != nil {
		mp.SetConstructor(d.Constructor.Func)
	}

	m.Reserve(mp)

	for i := range d.Fields {
		fd := &d.Fields[i]
		if fd.Ignore {
			continue
		}

		if fd.Implicit {
			r.log.WithFields(log.Fields{
				"type":  common.ShortTypeName(d.Type),
				"field": fd.Field.Name,
			}).Debug("field bound under its own name")
		}

		if fd.Final && !mp.IsConstructorRef(fd.Key) {
			return illegalImmutable(d, fd, fd.Key)
		}

		fb, err := r.fieldBinding(d, fd)
		if err != nil {
			return err
		}

		if err := mp.AddFieldBinding(fd.Key, fb); err != nil {
			return err
		}

		if err := r.processFieldType(m, fb); err != nil {
			return err
		}
	}

	return nil
}

func (r *Resolver) fieldBinding(d *decl.Declaration, fd *decl.FieldDecl) (*mapping.FieldBinding, error) {
	if fd.BindVia != "" {
		if _, ok := r.reg.Binder(fd.BindVia); !ok {
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, common.ShortTypeName(d.Type), fd.Field.Name,
				"unknown value binder %q", fd.BindVia)
		}
	}

	if fd.UnbindVia != "" {
		if _, ok := r.reg.Unbinder(fd.UnbindVia); !ok {
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, common.ShortTypeName(d.Type), fd.Field.Name,
				"unknown value unbinder %q", fd.UnbindVia)
		}
	}

	fb := mapping.NewFieldBinding(fd.Field).
		WithValueBinder(fd.BindVia).
		WithValueUnbinder(fd.UnbindVia)
	fb.Final = fd.Final
	fb.Contains = fd.Contains

	return fb, nil
}

// processFieldType resolves the field's type, or its element type for
// containers, when it is a declared composite.
func (r *Resolver) processFieldType(m *mapping.Map, fb *mapping.FieldBinding) error {
	if fb.BindVia != "" && fb.UnbindVia != "" {
		return nil
	}

	if elem := fb.ElemType(); elem != nil && !isBytes(fb.Type) {
		return r.processType(m, elem)
	}

	return r.processType(m, fb.Type)
}

// processType resolves t through pointers and nested containers.
func (r *Resolver) processType(m *mapping.Map, t reflect.Type) error {
	t = deref(t)

	switch t.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		if isBytes(t) {
			return nil
		}

		return r.processType(m, t.Elem())
	case reflect.Struct:
	default:
		return nil
	}

	if m.Has(t) {
		return nil
	}

	d, err := r.reg.Lookup(t)
	if err != nil || d == nil {
		return err
	}

	return r.process(m, d)
}

func (r *Resolver) processImport(m *mapping.Map, owner *decl.Declaration, it reflect.Type) error {
	t := deref(it)

	d, err := r.reg.Lookup(t)

	switch {
	case errors.Is(err, decl.ErrNoShape), err == nil && d == nil:
		return diagnostic.Errorf(diagnostic.CodeInvalidImport, common.ShortTypeName(owner.Type), "",
			"imported type %s is not declared array- or struct-shaped", common.ShortTypeName(t)).Wrap(err)
	case err != nil:
		return err
	}

	return r.process(m, d)
}

func illegalImmutable(d *decl.Declaration, fd *decl.FieldDecl, slot any) error {
	return diagnostic.Errorf(diagnostic.CodeIllegalImmutableField, common.ShortTypeName(d.Type), fd.Field.Name,
		"final field at slot %s is not in the constructor reference list", fmt.Sprint(slot))
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

func isBytes(t reflect.Type) bool {
	t = deref(t)
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}
