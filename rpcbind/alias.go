package rpcbind

import (
	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/event"
	"xmlrpc-binder/internal/scalar"
)

// Event model.
type (
	Event        = event.Event
	ValueType    = event.ValueType
	Listener     = event.Listener
	ListenerFunc = event.ListenerFunc
	Source       = event.Source
	Recorder     = event.Recorder
)

// Wire value types.
const (
	TypeString   = event.TypeString
	TypeInteger  = event.TypeInteger
	TypeDouble   = event.TypeDouble
	TypeBoolean  = event.TypeBoolean
	TypeDateTime = event.TypeDateTime
	TypeBase64   = event.TypeBase64
	TypeNil      = event.TypeNil
	TypeStruct   = event.TypeStruct
	TypeArray    = event.TypeArray
)

// Event constructors.
var (
	ValueEvent             = event.Value
	StructStartEvent       = event.StructStart
	StructMemberStartEvent = event.StructMemberStart
	StructMemberEvent      = event.StructMember
	StructEndEvent         = event.StructEnd
	ArrayStartEvent        = event.ArrayStart
	ArrayElementStartEvent = event.ArrayElementStart
	ArrayElementEvent      = event.ArrayElement
	ArrayEndEvent          = event.ArrayEnd
	ParameterStartEvent    = event.ParameterStart
	ParameterEvent         = event.Parameter
	ParameterEndEvent      = event.ParameterEnd
)

// NewSliceSource replays a fixed list of events.
func NewSliceSource(events ...Event) Source {
	return event.NewSliceSource(events...)
}

// Declarations.
type (
	DeclOption    = decl.Option
	FieldOption   = decl.FieldOption
	Converter     = decl.Converter
	ConverterFunc = decl.Funcs
	BindFunc      = decl.BindFunc
	UnbindFunc    = decl.UnbindFunc
)

var (
	Request     = decl.Request
	Response    = decl.Response
	ArrayPart   = decl.ArrayPart
	StructPart  = decl.StructPart
	Constructor = decl.Constructor
	Imports     = decl.Imports
	Field       = decl.Field

	Index     = decl.Index
	Key       = decl.Key
	Ignore    = decl.Ignore
	Final     = decl.Final
	Contains  = decl.Contains
	BindVia   = decl.BindVia
	UnbindVia = decl.UnbindVia
	Via       = decl.Via
)

// Scalar coercion.
type Category = scalar.Category

const (
	CategorySafeNumber   = scalar.CategorySafeNumber
	CategoryUnsafeNumber = scalar.CategoryUnsafeNumber
	CategoryTextNumber   = scalar.CategoryTextNumber
	CategoryNumericBool  = scalar.CategoryNumericBool
	CategoryTextualBool  = scalar.CategoryTextualBool
	CategoryDatetime     = scalar.CategoryDatetime
	CategoryTimestamp    = scalar.CategoryTimestamp
	CategoryDuration     = scalar.CategoryDuration
	CategoryNanoseconds  = scalar.CategoryNanoseconds
	CategorySeconds      = scalar.CategorySeconds
	CategoryEnumString   = scalar.CategoryEnumString
	CategoryAll          = scalar.CategoryAll
)

// ParseCategories parses coercion category names such as "safe-number".
func ParseCategories(names ...string) (Category, error) {
	return scalar.ParseCategories(names...)
}

// Errors matched with errors.Is.
var (
	ErrInvalidRoot           = diagnostic.ErrInvalidRoot
	ErrDuplicateSlot         = diagnostic.ErrDuplicateSlot
	ErrIllegalImmutableField = diagnostic.ErrIllegalImmutableField
	ErrUnknownMapping        = diagnostic.ErrUnknownMapping
	ErrInvalidImport         = diagnostic.ErrInvalidImport
	ErrUnboundField          = diagnostic.ErrUnboundField
	ErrGrammarViolation      = diagnostic.ErrGrammarViolation
	ErrInvalidDeclaration    = diagnostic.ErrInvalidDeclaration
	ErrConversion            = diagnostic.ErrConversion
)
