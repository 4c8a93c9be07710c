// Package decl is the declaration table consulted by the resolver: which
// Go struct types take part in binding, their wire shape, the slot of each
// field, their constructors and imports, and the named value converters
// that replace the default scalar codec for individual fields.
//
// Declarations come from three sources, later ones overriding earlier
// ones field by field:
//
//   - struct tags, `xmlrpc:"..."`, including a shape marker on a blank
//     field (`_ struct{} `+"`"+`xmlrpc:"request"`+"`"+`);
//   - explicit Registry.Declare calls with Option values;
//   - YAML declaration files applied with Apply.
//
// Field tag options:
//
//	index=N      wire array index (array-shaped and message types)
//	key=name     wire struct member name (struct-shaped types)
//	-            never bound
//	final        only settable through the constructor
//	bind=name    named ValueBinder for this field
//	unbind=name  named ValueUnbinder for this field
//	via=name     both of the above
package decl
