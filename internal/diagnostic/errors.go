package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a class of failure.
type Code string

const (
	CodeInvalidRoot           Code = "invalid_root"
	CodeDuplicateSlot         Code = "duplicate_slot"
	CodeIllegalImmutableField Code = "illegal_immutable_field"
	CodeUnknownMapping        Code = "unknown_mapping"
	CodeInvalidImport         Code = "invalid_import"
	CodeUnboundField          Code = "unbound_field"
	CodeGrammarViolation      Code = "grammar_violation"
	CodeInvalidDeclaration    Code = "invalid_declaration"
	CodeConversion            Code = "conversion"
)

// Sentinel errors, one per Code. Every *Error matches its sentinel with errors.Is.
var (
	ErrInvalidRoot           = errors.New("invalid message root")
	ErrDuplicateSlot         = errors.New("duplicate slot")
	ErrIllegalImmutableField = errors.New("illegal immutable field")
	ErrUnknownMapping        = errors.New("unknown mapping")
	ErrInvalidImport         = errors.New("invalid import")
	ErrUnboundField          = errors.New("unbound field")
	ErrGrammarViolation      = errors.New("grammar violation")
	ErrInvalidDeclaration    = errors.New("invalid declaration")
	ErrConversion            = errors.New("conversion failed")
)

var sentinels = map[Code]error{
	CodeInvalidRoot:           ErrInvalidRoot,
	CodeDuplicateSlot:         ErrDuplicateSlot,
	CodeIllegalImmutableField: ErrIllegalImmutableField,
	CodeUnknownMapping:        ErrUnknownMapping,
	CodeInvalidImport:         ErrInvalidImport,
	CodeUnboundField:          ErrUnboundField,
	CodeGrammarViolation:      ErrGrammarViolation,
	CodeInvalidDeclaration:    ErrInvalidDeclaration,
	CodeConversion:            ErrConversion,
}

// Sentinel returns the sentinel error for a code, or nil for unknown codes.
func (c Code) Sentinel() error {
	return sentinels[c]
}

// Error is a fail-fast configuration or protocol error.
type Error struct {
	// Code is the failure class.
	Code Code
	// Type names the domain type involved (if any).
	Type string
	// Field names the field or wire slot involved (if any).
	Field string
	// Message is the human-readable description.
	Message string
	// Err is the underlying cause (if any).
	Err error
}

// Errorf creates an *Error with a formatted message.
func Errorf(code Code, typ, field, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Type:    typ,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a cause and returns the receiver.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// Error implements error.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString("[" + string(e.Code) + "] ")

	switch {
	case e.Type != "" && e.Field != "":
		sb.WriteString(e.Type + "." + e.Field + ": ")
	case e.Type != "":
		sb.WriteString(e.Type + ": ")
	case e.Field != "":
		sb.WriteString(e.Field + ": ")
	}

	sb.WriteString(e.Message)

	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}

	return sb.String()
}

// Unwrap exposes both the sentinel for Code and the cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if s := e.Code.Sentinel(); s != nil {
		errs = append(errs, s)
	}

	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// CodeOf returns the Code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}

	return ""
}
