package event

//go:generate go tool stringer -type=ValueType -linecomment -output=valuetype_string.go

// ValueType tags the shape of a wire value.
type ValueType int

const (
	TypeString   ValueType = iota // STRING
	TypeInteger                   // INTEGER
	TypeDouble                    // DOUBLE
	TypeBoolean                   // BOOLEAN
	TypeDateTime                  // DATETIME
	TypeBase64                    // BASE64
	TypeNil                       // NIL
	TypeStruct                    // STRUCT
	TypeArray                     // ARRAY
)

// IsComposite returns true for STRUCT and ARRAY.
func (t ValueType) IsComposite() bool {
	return t == TypeStruct || t == TypeArray
}
