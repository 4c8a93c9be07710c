package scalar

import (
	"encoding"
	"encoding/base64"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/event"
)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
)

// Codec converts between generic wire values and Go scalars.
//
// A wire value always binds to a field of the same kind. Integers bind to
// any integer field they fit in. Every other pairing needs a category in
// Allowed; CategorySafeNumber additionally admits any number conversion
// that preserves the value.
type Codec struct {
	Allowed Category
}

// Default permits value-preserving number conversions only.
var Default = Codec{Allowed: CategorySafeNumber}

// Bind converts raw, tagged vt on the wire, into a value of type target.
func (c Codec) Bind(raw any, vt event.ValueType, target reflect.Type) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, diagnostic.Errorf(diagnostic.CodeUnboundField, "", "", "no target type")
	}

	if raw == nil || vt == event.TypeNil {
		return reflect.Zero(target), nil
	}

	switch target.Kind() {
	case reflect.Pointer:
		elem, err := c.Bind(raw, vt, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}

		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(elem)

		return ptr, nil
	case reflect.Interface:
		rv := reflect.ValueOf(raw)
		if !rv.Type().AssignableTo(target) {
			return reflect.Value{}, conversionErr(rv.Type(), target, "not assignable")
		}

		out := reflect.New(target).Elem()
		out.Set(rv)

		return out, nil
	}

	raw, err := normalize(raw, vt)
	if err != nil {
		return reflect.Value{}, err
	}

	src := reflect.ValueOf(raw)
	from := BaseKind(src.Type())
	if from == 0 {
		return reflect.Value{}, conversionErr(src.Type(), target, "wire value is not a scalar")
	}

	to := FromReflectType(target)
	switch to {
	case 0:
		return reflect.Value{}, diagnostic.Errorf(diagnostic.CodeUnboundField, common.ShortTypeName(target), "",
			"no scalar conversion for %s", target.Kind())
	case KindPrimitiveEnum:
		if from == KindString && target.Kind() != reflect.String {
			return c.bindEnum(src.String(), target)
		}

		to = BaseKind(target)
	}

	out, err := c.convert(src, from, to)
	if err != nil {
		return reflect.Value{}, err
	}

	return out.Convert(target), nil
}

// Unbind converts v into its generic wire form and type.
func (c Codec) Unbind(v reflect.Value) (any, event.ValueType, error) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil, event.TypeNil, nil
		}

		v = v.Elem()
	}

	if !v.IsValid() {
		return nil, event.TypeNil, nil
	}

	t := v.Type()
	k := FromReflectType(t)
	if k == KindPrimitiveEnum {
		if c.Allowed.Has(CategoryEnumString) && t.Implements(textMarshalerType) {
			text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
			if err != nil {
				return nil, event.TypeNil, conversionErr(t, reflect.TypeFor[string](), "marshal text").Wrap(err)
			}

			return string(text), event.TypeString, nil
		}

		k = BaseKind(t)
	}

	switch {
	case k.IsSigned():
		return v.Int(), event.TypeInteger, nil
	case k.IsUnsigned():
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, event.TypeNil, conversionErr(t, reflect.TypeFor[int64](), "value %d out of range", u)
		}

		return int64(u), event.TypeInteger, nil
	case k.IsFloat():
		return v.Float(), event.TypeDouble, nil
	}

	switch k {
	case KindBool:
		return v.Bool(), event.TypeBoolean, nil
	case KindString:
		return v.String(), event.TypeString, nil
	case KindTime:
		return v.Interface().(time.Time), event.TypeDateTime, nil
	case KindDuration:
		d := time.Duration(v.Int())
		switch {
		case c.Allowed.Has(CategoryDuration):
			return d.String(), event.TypeString, nil
		case c.Allowed.Has(CategorySeconds):
			return d.Seconds(), event.TypeDouble, nil
		default:
			return int64(d), event.TypeInteger, nil
		}
	case KindBytes:
		return append([]byte(nil), v.Bytes()...), event.TypeBase64, nil
	}

	return nil, event.TypeNil, diagnostic.Errorf(diagnostic.CodeUnboundField, common.ShortTypeName(t), "",
		"no scalar conversion for %s", t.Kind())
}

// normalize decodes textual DATETIME and BASE64 wire values.
func normalize(raw any, vt event.ValueType) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return raw, nil
	}

	switch vt {
	case event.TypeDateTime:
		return ParseTime(s)
	case event.TypeBase64:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, diagnostic.Errorf(diagnostic.CodeConversion, "[]byte", "", "invalid base64").Wrap(err)
		}

		return b, nil
	}

	return raw, nil
}

func (c Codec) convert(src reflect.Value, from, to Kind) (reflect.Value, error) {
	typ := to.Type()

	switch {
	case from == to && to == KindBytes:
		return reflect.ValueOf(append([]byte(nil), src.Bytes()...)), nil
	case from == to:
		return src.Convert(typ), nil
	case from.IsInteger() && to.IsInteger():
		out, exact := convertNumber(src, from, to)
		if !exact {
			return reflect.Value{}, conversionErr(src.Type(), typ, "value %v out of range", src.Interface())
		}

		return out, nil
	case from == KindDuration && to.IsInteger(), from.IsInteger() && to == KindDuration:
		// nanoseconds are the native representation of a duration
		if from == KindDuration {
			from = KindInt64
		} else {
			to = KindInt64
		}

		out, exact := convertNumber(src.Convert(from.Type()), from, to)
		if !exact {
			return reflect.Value{}, conversionErr(src.Type(), typ, "value %v out of range", src.Interface())
		}

		return out.Convert(typ), nil
	}

	pair := ConversionPair{from, to}
	permitted := c.Allowed.Permits(pair)

	if from.IsNumber() && to.IsNumber() {
		out, exact := convertNumber(src, from, to)
		if permitted || (exact && c.Allowed.Has(CategorySafeNumber)) {
			return out, nil
		}

		return reflect.Value{}, conversionErr(src.Type(), typ, "value %v would lose precision", src.Interface())
	}

	if !permitted {
		return reflect.Value{}, conversionErr(src.Type(), typ, "coercion not enabled")
	}

	switch {
	case from == KindString && to.IsNumber():
		return parseNumber(src.String(), to)
	case from.IsNumber() && to == KindString:
		return reflect.ValueOf(formatNumber(src, from)), nil
	case from == KindString && to == KindBool:
		return parseBool(src.String())
	case from == KindBool && to == KindString:
		return reflect.ValueOf(strconv.FormatBool(src.Bool())), nil
	case from.IsInteger() && to == KindBool:
		n, _ := convertNumber(src, from, KindInt64)
		switch n.Int() {
		case 0:
			return reflect.ValueOf(false), nil
		case 1:
			return reflect.ValueOf(true), nil
		}

		return reflect.Value{}, conversionErr(src.Type(), typ, "%v is not 0 or 1", src.Interface())
	case from == KindBool && to.IsInteger():
		out := reflect.New(typ).Elem()
		if src.Bool() {
			out, _ = convertNumber(reflect.ValueOf(int64(1)), KindInt64, to)
		}

		return out, nil
	case from == KindString && to == KindTime:
		t, err := ParseTime(src.String())
		if err != nil {
			return reflect.Value{}, err
		}

		return reflect.ValueOf(t), nil
	case from == KindTime && to == KindString:
		return reflect.ValueOf(src.Interface().(time.Time).Format(time.RFC3339Nano)), nil
	case from.IsInteger() && to == KindTime:
		n, exact := convertNumber(src, from, KindInt64)
		if !exact {
			return reflect.Value{}, conversionErr(src.Type(), typ, "value %v out of range", src.Interface())
		}

		return reflect.ValueOf(time.Unix(n.Int(), 0).UTC()), nil
	case from == KindTime && to.IsInteger():
		out, exact := convertNumber(reflect.ValueOf(src.Interface().(time.Time).Unix()), KindInt64, to)
		if !exact {
			return reflect.Value{}, conversionErr(src.Type(), typ, "timestamp out of range")
		}

		return out, nil
	case from == KindString && to == KindDuration:
		d, err := time.ParseDuration(src.String())
		if err != nil {
			return reflect.Value{}, conversionErr(src.Type(), typ, "invalid duration").Wrap(err)
		}

		return reflect.ValueOf(d), nil
	case from == KindDuration && to == KindString:
		return reflect.ValueOf(time.Duration(src.Int()).String()), nil
	case from.IsFloat() && to == KindDuration:
		return reflect.ValueOf(time.Duration(src.Float() * float64(time.Second))), nil
	case from == KindDuration && to.IsFloat():
		return reflect.ValueOf(time.Duration(src.Int()).Seconds()).Convert(typ), nil
	}

	return reflect.Value{}, conversionErr(src.Type(), typ, "unsupported conversion")
}

func (c Codec) bindEnum(s string, target reflect.Type) (reflect.Value, error) {
	if !c.Allowed.Has(CategoryEnumString) {
		return reflect.Value{}, conversionErr(reflect.TypeFor[string](), target, "coercion not enabled")
	}

	ptr := reflect.New(target)
	if !ptr.Type().Implements(textUnmarshalerType) {
		return reflect.Value{}, conversionErr(reflect.TypeFor[string](), target, "type does not implement encoding.TextUnmarshaler")
	}

	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return reflect.Value{}, conversionErr(reflect.TypeFor[string](), target, "invalid value %q", s).Wrap(err)
	}

	return ptr.Elem(), nil
}

// convertNumber converts between number kinds and reports whether the
// result holds exactly the same value.
func convertNumber(src reflect.Value, from, to Kind) (reflect.Value, bool) {
	out := reflect.New(to.Type()).Elem()
	exact := true

	switch {
	case to.IsSigned():
		var n int64
		switch {
		case from.IsSigned():
			n = src.Int()
		case from.IsUnsigned():
			u := src.Uint()
			n, exact = int64(u), u <= math.MaxInt64
		default:
			f := src.Float()
			n, exact = int64(f), f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64
		}

		exact = exact && !out.OverflowInt(n)
		out.SetInt(n)
	case to.IsUnsigned():
		var u uint64
		switch {
		case from.IsSigned():
			n := src.Int()
			u, exact = uint64(n), n >= 0
		case from.IsUnsigned():
			u = src.Uint()
		default:
			f := src.Float()
			u, exact = uint64(f), f == math.Trunc(f) && f >= 0 && f < math.MaxUint64
		}

		exact = exact && !out.OverflowUint(u)
		out.SetUint(u)
	default:
		var f float64
		switch {
		case from.IsSigned():
			n := src.Int()
			f = float64(n)
			exact = f >= math.MinInt64 && f < math.MaxInt64 && int64(f) == n
		case from.IsUnsigned():
			u := src.Uint()
			f = float64(u)
			exact = f < math.MaxUint64 && uint64(f) == u
		default:
			f = src.Float()
		}

		exact = exact && !out.OverflowFloat(f)
		if to == KindFloat32 {
			exact = exact && (math.IsNaN(f) || float64(float32(f)) == f)
		}

		out.SetFloat(f)
	}

	return out, exact
}

func parseNumber(s string, to Kind) (reflect.Value, error) {
	s = strings.TrimSpace(s)
	out := reflect.New(to.Type()).Elem()

	var err error
	switch {
	case to.IsSigned():
		var n int64
		if n, err = strconv.ParseInt(s, 10, to.Bits()); err == nil {
			out.SetInt(n)
		}
	case to.IsUnsigned():
		var u uint64
		if u, err = strconv.ParseUint(s, 10, to.Bits()); err == nil {
			out.SetUint(u)
		}
	default:
		var f float64
		if f, err = strconv.ParseFloat(s, to.Bits()); err == nil {
			out.SetFloat(f)
		}
	}

	if err != nil {
		return reflect.Value{}, conversionErr(reflect.TypeFor[string](), to.Type(), "invalid number %q", s).Wrap(err)
	}

	return out, nil
}

func formatNumber(src reflect.Value, from Kind) string {
	switch {
	case from.IsSigned():
		return strconv.FormatInt(src.Int(), 10)
	case from.IsUnsigned():
		return strconv.FormatUint(src.Uint(), 10)
	default:
		return strconv.FormatFloat(src.Float(), 'g', -1, from.Bits())
	}
}

func parseBool(s string) (reflect.Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on", "true", "1":
		return reflect.ValueOf(true), nil
	case "no", "off", "false", "0":
		return reflect.ValueOf(false), nil
	}

	return reflect.Value{}, conversionErr(reflect.TypeFor[string](), reflect.TypeFor[bool](), "invalid boolean %q", s)
}

func conversionErr(from, to reflect.Type, format string, args ...any) *diagnostic.Error {
	err := diagnostic.Errorf(diagnostic.CodeConversion, common.ShortTypeName(to), "", format, args...)
	err.Message = "from " + common.ShortTypeName(from) + ": " + err.Message

	return err
}
