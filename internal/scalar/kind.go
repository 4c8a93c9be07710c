package scalar

import (
	"reflect"
	"strconv"
	"time"

	"xmlrpc-binder/internal/event"
)

//go:generate go tool stringer -type=Kind -output=kind_string.go

// Kind classifies the Go types the default codec handles as leaf values.
type Kind int

const (
	_ Kind = iota // zero value means "not a scalar"

	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTime
	KindDuration
	KindBytes
	KindPrimitiveEnum // named integer or string type

	// KindTotal is the number of kinds defined.
	KindTotal = int(iota)
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
	bytesType    = reflect.TypeFor[[]byte]()
)

var kindTypes = [...]reflect.Type{
	KindInt:      reflect.TypeFor[int](),
	KindInt8:     reflect.TypeFor[int8](),
	KindInt16:    reflect.TypeFor[int16](),
	KindInt32:    reflect.TypeFor[int32](),
	KindInt64:    reflect.TypeFor[int64](),
	KindUint:     reflect.TypeFor[uint](),
	KindUint8:    reflect.TypeFor[uint8](),
	KindUint16:   reflect.TypeFor[uint16](),
	KindUint32:   reflect.TypeFor[uint32](),
	KindUint64:   reflect.TypeFor[uint64](),
	KindFloat32:  reflect.TypeFor[float32](),
	KindFloat64:  reflect.TypeFor[float64](),
	KindBool:     reflect.TypeFor[bool](),
	KindString:   reflect.TypeFor[string](),
	KindTime:     timeType,
	KindDuration: durationType,
	KindBytes:    bytesType,
}

// Type returns the unnamed Go type of k, or nil for KindPrimitiveEnum and
// the zero Kind.
func (k Kind) Type() reflect.Type {
	if k <= 0 || int(k) >= len(kindTypes) {
		return nil
	}

	return kindTypes[k]
}

// IsNumber reports integer and floating point kinds.
func (k Kind) IsNumber() bool {
	return k.IsInteger() || k.IsFloat()
}

func (k Kind) IsInteger() bool {
	return k.IsSigned() || k.IsUnsigned()
}

func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

func (k Kind) IsSigned() bool {
	return k >= KindInt && k <= KindInt64
}

func (k Kind) IsUnsigned() bool {
	return k >= KindUint && k <= KindUint64
}

// Bits is the size of a number kind on this platform. It panics for other
// kinds.
func (k Kind) Bits() int {
	switch k {
	case KindInt, KindUint:
		return strconv.IntSize
	case KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32, KindFloat32:
		return 32
	case KindInt64, KindUint64, KindFloat64:
		return 64
	default:
		panic("scalar: Bits of non-number kind " + k.String())
	}
}

// width is the range of sizes k may have on any platform.
func (k Kind) width() (lo, hi int) {
	if k == KindInt || k == KindUint {
		return 32, 64
	}

	return k.Bits(), k.Bits()
}

// FromReflectType classifies rtype. Named integer and string types report
// KindPrimitiveEnum; use BaseKind for their underlying representation.
func FromReflectType(rtype reflect.Type) Kind {
	if rtype == nil {
		return 0
	}

	for k, t := range kindTypes {
		if t != nil && t == rtype {
			return Kind(k)
		}
	}

	switch rtype.Kind() {
	default:
		return BaseKind(rtype)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.String:
		return KindPrimitiveEnum
	}
}

// BaseKind classifies rtype by its underlying representation, ignoring the
// type name. It never returns KindPrimitiveEnum.
func BaseKind(rtype reflect.Type) Kind {
	if rtype == nil {
		return 0
	}

	switch {
	case rtype == timeType:
		return KindTime
	case rtype == durationType:
		return KindDuration
	case rtype.Kind() == reflect.Slice && rtype.Elem().Kind() == reflect.Uint8:
		return KindBytes
	}

	switch rtype.Kind() {
	default:
		return 0
	case reflect.Int:
		return KindInt
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Uint:
		return KindUint
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	}
}

// IsScalar reports whether the default codec can bind values of rtype.
// Pointers are looked through; interface types accept any scalar.
func IsScalar(rtype reflect.Type) bool {
	for rtype != nil && rtype.Kind() == reflect.Pointer {
		rtype = rtype.Elem()
	}

	if rtype == nil {
		return false
	}

	return rtype.Kind() == reflect.Interface || FromReflectType(rtype) != 0
}

// ValueTypeOf returns the wire type the codec emits for k by default.
func ValueTypeOf(k Kind) (event.ValueType, bool) {
	switch {
	case k.IsInteger(), k == KindDuration:
		return event.TypeInteger, true
	case k.IsFloat():
		return event.TypeDouble, true
	case k == KindBool:
		return event.TypeBoolean, true
	case k == KindString, k == KindPrimitiveEnum:
		return event.TypeString, true
	case k == KindTime:
		return event.TypeDateTime, true
	case k == KindBytes:
		return event.TypeBase64, true
	default:
		return event.TypeNil, false
	}
}
