// Package rpcbind binds XML-RPC messages to Go types.
//
// A message is a Go struct marked as a request or a response:
//
//	type Login struct {
//		_ struct{} `xmlrpc:"request"`
//
//		User     string    `xmlrpc:"index=0"`
//		Password string    `xmlrpc:"index=1"`
//		When     time.Time `xmlrpc:"index=2,via=iso8601"`
//	}
//
// Parameters are addressed by index. Nested values are either array-shaped
// (`xmlrpc:"array"`, fields by index) or struct-shaped (`xmlrpc:"struct"`,
// fields by member key, defaulting to the field name). Everything the tags
// say can also be declared in code with Engine.Declare or in a YAML file
// with Engine.LoadDeclarations; explicit declarations win field by field.
//
// An Engine turns a message into the event stream a wire codec writes
// (Unbind, Events) and an event stream read by a wire codec into a message
// (Bind). Mappings are resolved once per message type and cached.
package rpcbind
