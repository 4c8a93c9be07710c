package diagnostic

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"xmlrpc-binder/internal/common"
)

// Severity ranks a Diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Diagnostic is one finding of a static check, located by type and field
// name where it applies.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Type     string
	Field    string
	// Suggestions are names the user may have meant.
	Suggestions []string
}

// String formats d as "[Type] Field: [code] message (did you mean ...?)".
func (d Diagnostic) String() string {
	var sb strings.Builder

	if d.Type != "" {
		sb.WriteString("[" + d.Type + "]")
	}

	if d.Field != "" {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(d.Field)
	}

	if sb.Len() > 0 {
		sb.WriteString(": ")
	}

	if d.Code != "" {
		sb.WriteString("[" + string(d.Code) + "] ")
	}

	sb.WriteString(d.Message)

	if len(d.Suggestions) > 0 {
		sb.WriteString(" (did you mean " + strings.Join(d.Suggestions, ", ") + "?)")
	}

	return sb.String()
}

// Diagnostics collects findings by severity. The zero value is empty and
// ready to use.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

func (d *Diagnostics) add(sev Severity, code Code, message, typ, field string, suggestions []string) {
	diag := Diagnostic{
		Severity:    sev,
		Code:        code,
		Message:     message,
		Type:        typ,
		Field:       field,
		Suggestions: suggestions,
	}

	switch sev {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError records an error with optional suggestions.
func (d *Diagnostics) AddError(code Code, message, typ, field string, suggestions ...string) {
	d.add(SeverityError, code, message, typ, field, suggestions)
}

// AddWarning records a warning.
func (d *Diagnostics) AddWarning(code Code, message, typ, field string) {
	d.add(SeverityWarning, code, message, typ, field, nil)
}

// AddInfo records an informational finding.
func (d *Diagnostics) AddInfo(code Code, message, typ, field string) {
	d.add(SeverityInfo, code, message, typ, field, nil)
}

// AddErr records err as an error. The code and location of an *Error
// carry over; any other error is recorded with an empty code.
func (d *Diagnostics) AddErr(err error) {
	var de *Error

	switch {
	case err == nil:
	case errors.As(err, &de):
		msg := de.Message
		if de.Err != nil {
			msg += ": " + de.Err.Error()
		}

		d.AddError(de.Code, msg, de.Type, de.Field)
	default:
		d.AddError("", err.Error(), "", "")
	}
}

// Merge appends every finding of other.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// IsValid is the negation of HasErrors.
func (d *Diagnostics) IsValid() bool {
	return !d.HasErrors()
}

// Sort orders each severity by type, field, then code, keeping the
// insertion order of equal entries.
func (d *Diagnostics) Sort() {
	byLocation := func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.Field, b.Field),
			cmp.Compare(a.Code, b.Code),
		)
	}

	slices.SortStableFunc(d.Errors, byLocation)
	slices.SortStableFunc(d.Warnings, byLocation)
	slices.SortStableFunc(d.Infos, byLocation)
}

// Error joins the error findings into one error, nil when there are none.
func (d *Diagnostics) Error() error {
	errs := make([]error, len(d.Errors))
	for i, e := range d.Errors {
		errs[i] = errors.New(e.String())
	}

	return errors.Join(errs...)
}
