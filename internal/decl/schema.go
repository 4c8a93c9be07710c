package decl

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// JSONSchema describes Refs: a list of indexes or keys.
func (Refs) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{
				{Type: "integer"},
				{Type: "string"},
			},
		},
	}
}

// Schema returns the JSON Schema of declaration files, indented.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
		ExpandedStruct: true,
		Anonymous:      true,
	}

	s := r.Reflect(new(File))
	s.Title = "xmlrpc-binder declarations"
	s.Description = "Wire shape and slot declarations for bound Go types."

	return json.MarshalIndent(s, "", "  ")
}
