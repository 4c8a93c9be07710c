// Package analyze discovers xmlrpc-tagged types statically.
//
// It uses golang.org/x/tools/go/packages with AST and go/types to build an
// in-memory model of structs, their shape markers and field tags, without
// compiling or running the code that declares them.
//
// Key types and functions:
//   - TypeID: package import path + type name
//   - TypeInfo: kind, shape and fields of a type
//   - FieldInfo: field name, type, tags and embedding
//   - Declarations: tags rendered as a declaration file, with the
//     findings the resolver would reject at runtime
//   - CheckFile: a declaration file validated against the loaded packages
package analyze
