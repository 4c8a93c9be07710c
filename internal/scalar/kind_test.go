package scalar_test

import (
	"fmt"
	"reflect"
	"time"

	"xmlrpc-binder/internal/scalar"
)

func Example() {
	type IntEnum int
	type StringEnum string
	type Empty struct{}

	fmt.Println(scalar.FromReflectType(reflect.TypeOf(int(0))))
	fmt.Println(scalar.FromReflectType(reflect.TypeOf("")))
	fmt.Println(scalar.FromReflectType(reflect.TypeOf(IntEnum(0))))
	fmt.Println(scalar.FromReflectType(reflect.TypeOf(StringEnum(""))))
	fmt.Println(scalar.FromReflectType(reflect.TypeOf(time.Duration(0))))
	fmt.Println(scalar.FromReflectType(reflect.TypeOf(time.Time{})))
	fmt.Println(scalar.FromReflectType(reflect.TypeOf([]byte(nil))))
	fmt.Println(scalar.FromReflectType(reflect.TypeOf(Empty{})))
	fmt.Println(scalar.BaseKind(reflect.TypeOf(IntEnum(0))))
	// Output:
	// KindInt
	// KindString
	// KindPrimitiveEnum
	// KindPrimitiveEnum
	// KindDuration
	// KindTime
	// KindBytes
	// Kind(0)
	// KindInt
}
