package decl

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/event"
	"xmlrpc-binder/internal/scalar"
)

// ValueBinder converts a wire scalar into a value of the target type in
// place of the default codec.
type ValueBinder interface {
	BindValue(raw any, vt event.ValueType, target reflect.Type) (reflect.Value, error)
}

// ValueUnbinder converts a field value into its wire scalar in place of
// the default codec.
type ValueUnbinder interface {
	UnbindValue(v reflect.Value) (any, event.ValueType, error)
}

// Converter works in both directions.
type Converter interface {
	ValueBinder
	ValueUnbinder
}

// BindFunc adapts a function to ValueBinder.
type BindFunc func(raw any, vt event.ValueType, target reflect.Type) (reflect.Value, error)

func (f BindFunc) BindValue(raw any, vt event.ValueType, target reflect.Type) (reflect.Value, error) {
	return f(raw, vt, target)
}

// UnbindFunc adapts a function to ValueUnbinder.
type UnbindFunc func(v reflect.Value) (any, event.ValueType, error)

func (f UnbindFunc) UnbindValue(v reflect.Value) (any, event.ValueType, error) {
	return f(v)
}

// Funcs pairs a BindFunc and an UnbindFunc into a Converter.
type Funcs struct {
	Bind   BindFunc
	Unbind UnbindFunc
}

func (c Funcs) BindValue(raw any, vt event.ValueType, target reflect.Type) (reflect.Value, error) {
	return c.Bind(raw, vt, target)
}

func (c Funcs) UnbindValue(v reflect.Value) (any, event.ValueType, error) {
	return c.Unbind(v)
}

// Built-in converter names.
const (
	ConverterISO8601 = "iso8601"
	ConverterUnix    = "unix"
	ConverterString  = "string"
)

// IsBuiltinConverter reports whether every registry knows name.
func IsBuiltinConverter(name string) bool {
	_, ok := builtinConverters()[name]
	return ok
}

func builtinConverters() map[string]Converter {
	return map[string]Converter{
		ConverterISO8601: Funcs{Bind: bindISO8601, Unbind: unbindISO8601},
		ConverterUnix:    Funcs{Bind: bindUnix, Unbind: unbindUnix},
		ConverterString:  Funcs{Bind: bindText, Unbind: unbindText},
	}
}

var (
	timeType            = reflect.TypeFor[time.Time]()
	stringType          = reflect.TypeFor[string]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	stringerType        = reflect.TypeFor[fmt.Stringer]()
)

// iso8601: time.Time <-> compact dateTime.iso8601 text tagged DATETIME.
func bindISO8601(raw any, vt event.ValueType, target reflect.Type) (reflect.Value, error) {
	if raw == nil || vt == event.TypeNil {
		return reflect.Zero(target), nil
	}

	switch v := raw.(type) {
	case time.Time:
		return settle(reflect.ValueOf(v), target)
	case string:
		t, err := scalar.ParseTime(v)
		if err != nil {
			return reflect.Value{}, err
		}

		return settle(reflect.ValueOf(t), target)
	}

	return reflect.Value{}, convErr(target, "iso8601 expects a date, got %T", raw)
}

func unbindISO8601(v reflect.Value) (any, event.ValueType, error) {
	v, ok := deref(v)
	if !ok {
		return nil, event.TypeNil, nil
	}

	if v.Type() != timeType {
		return nil, event.TypeNil, convErr(v.Type(), "iso8601 expects time.Time")
	}

	return scalar.FormatISO8601(v.Interface().(time.Time)), event.TypeDateTime, nil
}

// unix: time.Time <-> Unix seconds tagged INTEGER.
func bindUnix(raw any, vt event.ValueType, target reflect.Type) (reflect.Value, error) {
	if raw == nil || vt == event.TypeNil {
		return reflect.Zero(target), nil
	}

	n, err := scalar.Default.Bind(raw, vt, reflect.TypeFor[int64]())
	if err != nil {
		return reflect.Value{}, err
	}

	return settle(reflect.ValueOf(time.Unix(n.Int(), 0).UTC()), target)
}

func unbindUnix(v reflect.Value) (any, event.ValueType, error) {
	v, ok := deref(v)
	if !ok {
		return nil, event.TypeNil, nil
	}

	if v.Type() != timeType {
		return nil, event.TypeNil, convErr(v.Type(), "unix expects time.Time")
	}

	return v.Interface().(time.Time).Unix(), event.TypeInteger, nil
}

// string: encoding.TextMarshaler, fmt.Stringer or string kinds <-> STRING.
func bindText(raw any, vt event.ValueType, target reflect.Type) (reflect.Value, error) {
	if raw == nil || vt == event.TypeNil {
		return reflect.Zero(target), nil
	}

	s, ok := raw.(string)
	if !ok {
		return reflect.Value{}, convErr(target, "string expects text, got %T", raw)
	}

	if target.Kind() == reflect.Pointer {
		elem, err := bindText(raw, vt, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}

		p := reflect.New(target.Elem())
		p.Elem().Set(elem)

		return p, nil
	}

	if reflect.PointerTo(target).Implements(textUnmarshalerType) {
		p := reflect.New(target)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, convErr(target, "invalid text %q", s).Wrap(err)
		}

		return p.Elem(), nil
	}

	if target.Kind() == reflect.String {
		return reflect.ValueOf(s).Convert(target), nil
	}

	return reflect.Value{}, convErr(target, "type has no text form")
}

func unbindText(v reflect.Value) (any, event.ValueType, error) {
	v, ok := deref(v)
	if !ok {
		return nil, event.TypeNil, nil
	}

	t := v.Type()

	switch {
	case t.Implements(textMarshalerType):
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, event.TypeNil, convErr(t, "marshal text").Wrap(err)
		}

		return string(text), event.TypeString, nil
	case t.Implements(stringerType):
		return v.Interface().(fmt.Stringer).String(), event.TypeString, nil
	case t.Kind() == reflect.String:
		return v.Convert(stringType).Interface(), event.TypeString, nil
	}

	return nil, event.TypeNil, convErr(t, "type has no text form")
}

// settle fits v into target, allocating one pointer level if needed.
func settle(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	switch {
	case v.Type().AssignableTo(target):
		out := reflect.New(target).Elem()
		out.Set(v)

		return out, nil
	case target.Kind() == reflect.Pointer && v.Type().AssignableTo(target.Elem()):
		p := reflect.New(target.Elem())
		p.Elem().Set(v)

		return p, nil
	case v.Type().ConvertibleTo(target):
		return v.Convert(target), nil
	}

	return reflect.Value{}, convErr(target, "cannot hold %s", v.Type())
}

func deref(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return v, false
		}

		v = v.Elem()
	}

	return v, v.IsValid()
}

func convErr(t reflect.Type, format string, args ...any) *diagnostic.Error {
	return diagnostic.Errorf(diagnostic.CodeConversion, common.ShortTypeName(t), "", format, args...)
}
