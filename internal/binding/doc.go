// Package binding executes bind (events to Go values) and unbind (Go values
// to events) over a resolved descriptor map.
//
// A Context selects one Binder per Go type: a field's named converter
// first, then the mapping of a declared type, then map, slice and array
// containers, and finally the default scalar codec. Binders of composite
// types build their children on first use, so recursive types only
// allocate as deep as the data goes.
//
// Binders are created per call and hold no state across calls; a Context
// and its descriptor map may be shared by concurrent callers.
package binding
