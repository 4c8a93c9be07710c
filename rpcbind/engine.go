package rpcbind

import (
	"context"
	"reflect"

	log "github.com/sirupsen/logrus"

	"xmlrpc-binder/internal/binding"
	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/event"
	"xmlrpc-binder/internal/mapping"
	"xmlrpc-binder/internal/resolve"
	"xmlrpc-binder/internal/scalar"
)

// Engine binds XML-RPC event streams to Go messages and back. It owns a
// declaration registry and a cache of resolved mappings; both may be used
// from several goroutines.
type Engine struct {
	reg       *decl.Registry
	cache     *resolve.Cache
	codec     scalar.Codec
	log       log.FieldLogger
	cacheSize int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by every layer of the engine.
func WithLogger(l log.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCacheSize bounds the number of cached message roots.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithCoercion selects the scalar conversions allowed when binding.
func WithCoercion(c Category) Option {
	return func(e *Engine) {
		e.codec = scalar.Codec{Allowed: c}
	}
}

// WithRegistry makes the engine use reg instead of a fresh registry.
func WithRegistry(reg *decl.Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.reg = reg
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		codec: scalar.Default,
		log:   log.StandardLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.reg == nil {
		e.reg = decl.NewRegistry()
	}

	e.reg.SetLogger(e.log)
	e.cache = resolve.NewCache(resolve.New(e.reg, resolve.WithLogger(e.log)), e.cacheSize)

	return e
}

// Registry returns the declaration registry.
func (e *Engine) Registry() *decl.Registry {
	return e.reg
}

// Declare declares the type of sample. Cached mappings are dropped since
// any of them may reach the declared type.
func (e *Engine) Declare(sample any, opts ...DeclOption) error {
	if err := e.reg.Declare(sample, opts...); err != nil {
		return err
	}

	e.cache.Reset()

	return nil
}

// RegisterConverter registers a named value converter.
func (e *Engine) RegisterConverter(name string, c Converter) error {
	return e.reg.RegisterConverter(name, c)
}

// RegisterFactory registers a constructor that declaration files can name.
func (e *Engine) RegisterFactory(name string, fn any) error {
	return e.reg.RegisterFactory(name, fn)
}

// LoadDeclarations applies a YAML declaration file. Type names resolve
// against the types already registered or declared.
func (e *Engine) LoadDeclarations(path string) error {
	f, err := decl.LoadFile(path)
	if err != nil {
		return err
	}

	if err := decl.Apply(e.reg, f); err != nil {
		return err
	}

	e.cache.Reset()

	e.log.WithFields(log.Fields{
		"path":  path,
		"types": len(f.Types),
	}).Debug("applied declaration file")

	return nil
}

// Resolve returns the mappings reachable from the message types of roots.
// A root is a sample value, a pointer to one, or a reflect.Type.
func (e *Engine) Resolve(roots ...any) (*mapping.Map, error) {
	types := make([]reflect.Type, len(roots))
	for i, r := range roots {
		types[i] = typeOf(r)
	}

	return e.cache.Resolve(types...)
}

// Bind reads one message from src into out, which must be a non-nil
// pointer to a request or response type, or a pointer to such a pointer.
// out is only written on success.
func (e *Engine) Bind(ctx context.Context, src Source, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return diagnostic.Errorf(diagnostic.CodeInvalidRoot, common.ShortTypeName(reflect.TypeOf(out)), "",
			"bind target must be a non-nil pointer")
	}

	// out is *T or **T; the latter receives a freshly bound *T.
	target := rv.Type().Elem()
	indirect := target.Kind() == reflect.Pointer
	if indirect {
		target = target.Elem()
	}

	if target.Kind() != reflect.Struct {
		return diagnostic.Errorf(diagnostic.CodeInvalidRoot, common.ShortTypeName(rv.Type()), "",
			"bind target must point to a message struct")
	}

	mb, err := e.messageBinder(target)
	if err != nil {
		return err
	}

	v, err := mb.BindMessage(ctx, src)
	if err != nil {
		return err
	}

	if indirect {
		rv.Elem().Set(reflect.ValueOf(v))
	} else {
		rv.Elem().Set(reflect.ValueOf(v).Elem())
	}

	return nil
}

// Unbind writes v, a message or a pointer to one, to l as events.
func (e *Engine) Unbind(ctx context.Context, v any, l Listener) error {
	if v == nil {
		return diagnostic.Errorf(diagnostic.CodeInvalidRoot, "", "", "nil message")
	}

	mb, err := e.messageBinder(typeOf(v))
	if err != nil {
		return err
	}

	return mb.UnbindMessage(ctx, v, l)
}

// Events unbinds v and returns the produced events.
func (e *Engine) Events(ctx context.Context, v any) ([]Event, error) {
	var rec event.Recorder

	if err := e.Unbind(ctx, v, &rec); err != nil {
		return nil, err
	}

	return rec.Events, nil
}

// Reset drops every cached mapping.
func (e *Engine) Reset() {
	e.cache.Reset()
}

// messageBinder builds a fresh binder tree for t. Binders fill their child
// binders lazily and are not shared between calls.
func (e *Engine) messageBinder(t reflect.Type) (*binding.MessageBinder, error) {
	m, err := e.cache.Resolve(t)
	if err != nil {
		return nil, err
	}

	c := binding.NewContext(m,
		binding.WithConverters(e.reg),
		binding.WithCodec(e.codec),
		binding.WithLogger(e.log),
	)

	return c.NewMessageBinder(t)
}

func typeOf(v any) reflect.Type {
	if t, ok := v.(reflect.Type); ok {
		return t
	}

	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}
