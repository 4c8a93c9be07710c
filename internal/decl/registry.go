package decl

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/mapping"
	"xmlrpc-binder/internal/match"
)

var errorType = reflect.TypeFor[error]()

// ErrNoShape is the cause of the error Lookup returns for a type with field
// declarations and no shape.
var ErrNoShape = errors.New("no shape declared")

// Registry holds explicit declarations, named converters and factories.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	decls     map[reflect.Type]*override
	known     map[reflect.Type]struct{}
	binders   map[string]ValueBinder
	unbinders map[string]ValueUnbinder
	factories map[string]reflect.Value
	log       log.FieldLogger
}

// NewRegistry creates a registry with the built-in converters registered.
func NewRegistry() *Registry {
	r := &Registry{
		decls:     make(map[reflect.Type]*override),
		known:     make(map[reflect.Type]struct{}),
		binders:   make(map[string]ValueBinder),
		unbinders: make(map[string]ValueUnbinder),
		factories: make(map[string]reflect.Value),
		log:       log.StandardLogger(),
	}

	for name, c := range builtinConverters() {
		r.binders[name] = c
		r.unbinders[name] = c
	}

	return r
}

// SetLogger replaces the logger, which defaults to the logrus standard logger.
func (r *Registry) SetLogger(l log.FieldLogger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log = l
}

// Declare adds an explicit declaration for the type of sample (pointers
// are dereferenced). Repeated declarations of one type merge, later
// options winning.
func (r *Registry) Declare(sample any, opts ...Option) error {
	t := reflect.TypeOf(sample)
	if t == nil {
		return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, "", "", "nil sample")
	}

	return r.DeclareType(t, opts...)
}

// DeclareType is Declare for a reflect.Type.
func (r *Registry) DeclareType(t reflect.Type, opts ...Option) error {
	t = derefType(t)
	name := common.ShortTypeName(t)

	if t.Kind() != reflect.Struct {
		return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, "",
			"only struct types can be declared, got %s", t.Kind())
	}

	next := &override{}
	for _, opt := range opts {
		if err := opt(next); err != nil {
			return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, "", "invalid option").Wrap(err)
		}
	}

	fields := fieldNames(t)
	for _, f := range next.order {
		if !slices.Contains(fields, f) {
			return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, f,
				"no bindable field %q%s", f, didYouMean(f, fields))
		}
	}

	if next.ctorFn.IsValid() {
		if err := checkFactory(t, next.ctorFn); err != nil {
			return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, "", "invalid constructor").Wrap(err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.decls[t]
	if !ok {
		cur = &override{}
		r.decls[t] = cur
	}

	cur.merge(next)
	r.known[t] = struct{}{}

	r.log.WithFields(log.Fields{"type": name, "options": len(opts)}).Debug("declared type")

	return nil
}

// Register makes the types of samples known for name resolution in
// declaration files without declaring anything about them.
func (r *Registry) Register(samples ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		if t := reflect.TypeOf(s); t != nil {
			r.known[derefType(t)] = struct{}{}
		}
	}
}

// Types returns every type declared, registered or looked up so far,
// ordered by full name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reflect.Type, 0, len(r.known))
	for t := range r.known {
		out = append(out, t)
	}

	slices.SortFunc(out, func(a, b reflect.Type) int {
		return strings.Compare(common.FullTypeName(a), common.FullTypeName(b))
	})

	return out
}

// Lookup returns the merged declaration of t, or nil if t is not declared
// by tags or explicitly.
func (r *Registry) Lookup(t reflect.Type) (*Declaration, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, nil
	}

	name := common.ShortTypeName(t)

	shape, err := tagShape(t)
	if err != nil {
		return nil, err
	}

	tagged, err := tagFields(t)
	if err != nil {
		return nil, err
	}

	ov := &override{shape: shape}
	for _, f := range bindableFields(t) {
		if fo, ok := tagged[f.Name]; ok {
			*ov.field(f.Name) = *fo
		}
	}

	r.mu.Lock()
	r.known[t] = struct{}{}
	if explicit, ok := r.decls[t]; ok {
		ov.merge(explicit)
	}
	r.mu.Unlock()

	if ov.shape == mapping.ShapeNone {
		if ov.empty() {
			return nil, nil
		}

		return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, "",
			"type has field declarations").Wrap(ErrNoShape)
	}

	return build(t, ov)
}

func build(t reflect.Type, ov *override) (*Declaration, error) {
	name := common.ShortTypeName(t)
	d := &Declaration{
		Type:    t,
		Shape:   ov.shape,
		Imports: slices.Clone(ov.imports),
	}

	for _, f := range bindableFields(t) {
		fd := FieldDecl{Field: f}

		if fo, ok := ov.fields[f.Name]; ok {
			if fo.index != nil {
				fd.Index, fd.HasIndex = *fo.index, true
			}

			if fo.key != nil {
				fd.Key = *fo.key
			}

			fd.Ignore = fo.ignore != nil && *fo.ignore
			fd.Final = fo.final != nil && *fo.final
			fd.Contains = fo.contains

			if fo.bindVia != nil {
				fd.BindVia = *fo.bindVia
			}

			if fo.unbindVia != nil {
				fd.UnbindVia = *fo.unbindVia
			}
		}

		switch {
		case fd.Ignore:
		case fd.HasIndex && !ov.shape.IsArrayShaped():
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, f.Name,
				"index given on %s-shaped type", ov.shape)
		case fd.Key != "" && !ov.shape.IsStructShaped():
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, f.Name,
				"key given on %s-shaped type", ov.shape)
		case !fd.Tagged() && ov.shape.IsStructShaped():
			fd.Key, fd.Implicit = f.Name, true
		}

		d.Fields = append(d.Fields, fd)
	}

	if ov.ctorFn.IsValid() || ov.hasRefs {
		ctor, err := buildConstructor(d, ov)
		if err != nil {
			return nil, err
		}

		d.Constructor = ctor
	}

	return d, nil
}

func buildConstructor(d *Declaration, ov *override) (*Factory, error) {
	name := common.ShortTypeName(d.Type)

	if !ov.ctorFn.IsValid() {
		return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, "",
			"constructor references %v declared without a constructor function", ov.ctorRefs)
	}

	fnT := ov.ctorFn.Type()
	if fnT.NumIn() != len(ov.ctorRefs) {
		return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, "",
			"constructor takes %d arguments but %d references are declared", fnT.NumIn(), len(ov.ctorRefs))
	}

	c := &Factory{Func: ov.ctorFn}
	seen := make(map[any]struct{}, len(ov.ctorRefs))

	for i, ref := range ov.ctorRefs {
		if _, dup := seen[ref]; dup {
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, fmt.Sprint(ref),
				"constructor references slot %v twice", ref)
		}

		seen[ref] = struct{}{}

		var fd *FieldDecl

		switch r := ref.(type) {
		case int:
			if !d.Shape.IsArrayShaped() {
				return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, fmt.Sprint(r),
					"index reference on %s-shaped type", d.Shape)
			}

			c.Indexes = append(c.Indexes, r)
			fd = d.fieldAtIndex(r)
		case string:
			if !d.Shape.IsStructShaped() {
				return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, r,
					"key reference on %s-shaped type", d.Shape)
			}

			c.Keys = append(c.Keys, r)
			fd = d.fieldAtKey(r)
		}

		if fd == nil {
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, fmt.Sprint(ref),
				"constructor references slot %v which no field occupies", ref)
		}

		if !fd.Field.Type.AssignableTo(fnT.In(i)) {
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, fd.Field.Name,
				"constructor parameter %d (%s) does not accept field type %s", i, fnT.In(i), fd.Field.Type)
		}
	}

	return c, nil
}

func (d *Declaration) fieldAtIndex(i int) *FieldDecl {
	for k := range d.Fields {
		if f := &d.Fields[k]; !f.Ignore && f.HasIndex && f.Index == i {
			return f
		}
	}

	return nil
}

func (d *Declaration) fieldAtKey(key string) *FieldDecl {
	for k := range d.Fields {
		if f := &d.Fields[k]; !f.Ignore && f.Key == key {
			return f
		}
	}

	return nil
}

// checkFactory validates the signature of a factory for t.
func checkFactory(t reflect.Type, fn reflect.Value) error {
	fnT := fn.Type()

	if fnT.IsVariadic() {
		return fmt.Errorf("variadic factory %s", fnT)
	}

	if fnT.NumOut() < 1 || fnT.NumOut() > 2 {
		return fmt.Errorf("factory %s must return %s or (%s, error)", fnT, t, t)
	}

	if out := fnT.Out(0); out != t && out != reflect.PointerTo(t) {
		return fmt.Errorf("factory returns %s, want %s or *%s", out, t, t)
	}

	if fnT.NumOut() == 2 && fnT.Out(1) != errorType {
		return fmt.Errorf("second result of factory %s must be error", fnT)
	}

	return nil
}

// RegisterFactory names a constructor function so declaration files can
// refer to it.
func (r *Registry) RegisterFactory(name string, fn any) error {
	v := reflect.ValueOf(fn)
	if name == "" || v.Kind() != reflect.Func || v.IsNil() {
		return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, "", name, "factory must be a named non-nil func")
	}

	if t := v.Type(); t.NumOut() == 0 || derefType(t.Out(0)).Kind() != reflect.Struct {
		return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, "", name, "factory must return a struct or struct pointer")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = v

	return nil
}

// Factory returns the factory registered under name.
func (r *Registry) Factory(name string) (reflect.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.factories[name]

	return v, ok
}

// RegisterBinder registers b under name, replacing any previous binder.
func (r *Registry) RegisterBinder(name string, b ValueBinder) error {
	if name == "" || b == nil {
		return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, "", name, "binder must be named and non-nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.binders[name] = b

	return nil
}

// RegisterUnbinder registers u under name, replacing any previous unbinder.
func (r *Registry) RegisterUnbinder(name string, u ValueUnbinder) error {
	if name == "" || u == nil {
		return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, "", name, "unbinder must be named and non-nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unbinders[name] = u

	return nil
}

// RegisterConverter registers c in both directions under name.
func (r *Registry) RegisterConverter(name string, c Converter) error {
	if err := r.RegisterBinder(name, c); err != nil {
		return err
	}

	return r.RegisterUnbinder(name, c)
}

// Binder returns the value binder registered under name.
func (r *Registry) Binder(name string) (ValueBinder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.binders[name]

	return b, ok
}

// Unbinder returns the value unbinder registered under name.
func (r *Registry) Unbinder(name string) (ValueUnbinder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.unbinders[name]

	return u, ok
}

// ConverterNames returns the names of all registered binders and
// unbinders, sorted.
func (r *Registry) ConverterNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for n := range r.binders {
		out = append(out, n)
	}

	for n := range r.unbinders {
		if _, ok := r.binders[n]; !ok {
			out = append(out, n)
		}
	}

	slices.Sort(out)

	return out
}

func fieldNames(t reflect.Type) []string {
	fields := bindableFields(t)
	out := make([]string, len(fields))

	for i, f := range fields {
		out[i] = f.Name
	}

	return out
}

func didYouMean(name string, known []string) string {
	if s := match.Suggest(name, known, 1); len(s) > 0 {
		return fmt.Sprintf(" (did you mean %q?)", s[0])
	}

	return ""
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}
