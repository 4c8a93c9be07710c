// Package diagnostic provides the error taxonomy of the binding engine and
// structured warnings/errors for static declaration checks.
//
// Key capabilities:
//   - Sentinel errors for each failure class (ErrDuplicateSlot, ErrUnboundField, ...)
//   - *Error carrying the code, the type and field involved, and an optional cause
//   - Diagnostics collections for tools that report every finding instead of the first
package diagnostic
