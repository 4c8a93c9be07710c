package mapping

import (
	"fmt"
	"strings"

	"xmlrpc-binder/internal/common"
)

// Shape is the declared wire shape of a composite type.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeRequest
	ShapeResponse
	ShapeArray
	ShapeStruct
)

// String returns the tag spelling of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeRequest:
		return "request"
	case ShapeResponse:
		return "response"
	case ShapeArray:
		return "array"
	case ShapeStruct:
		return "struct"
	default:
		return common.UnknownStr
	}
}

// IsMessage returns true for request and response roots.
func (s Shape) IsMessage() bool {
	return s == ShapeRequest || s == ShapeResponse
}

// IsArrayShaped returns true for shapes resolved into an ArrayMapping.
// Messages are array-shaped: parameters are addressed by index.
func (s Shape) IsArrayShaped() bool {
	return s == ShapeArray || s.IsMessage()
}

// IsStructShaped returns true for shapes resolved into a StructMapping.
func (s Shape) IsStructShaped() bool {
	return s == ShapeStruct
}

// IsComposite returns true for every recognized shape.
func (s Shape) IsComposite() bool {
	return s.IsArrayShaped() || s.IsStructShaped()
}

// ParseShape parses the tag spelling of a shape. The empty string is ShapeNone.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ShapeNone, nil
	case "request":
		return ShapeRequest, nil
	case "response":
		return ShapeResponse, nil
	case "array":
		return ShapeArray, nil
	case "struct":
		return ShapeStruct, nil
	default:
		return ShapeNone, fmt.Errorf("unknown shape %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(b []byte) error {
	v, err := ParseShape(string(b))
	if err != nil {
		return err
	}

	*s = v

	return nil
}
