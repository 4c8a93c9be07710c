package decl

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"

	"gopkg.in/yaml.v3"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/mapping"
)

// File is the root of a YAML declaration file.
type File struct {
	// Version of the declaration format.
	Version string `yaml:"version,omitempty" jsonschema:"enum=1"`

	// Types lists per-type declarations.
	Types []TypeDecl `yaml:"types"`
}

// TypeDecl declares one type.
type TypeDecl struct {
	// Type is a short ("example.Login"), fully qualified
	// ("example.com/app/example.Login") or bare ("Login") type name.
	Type string `yaml:"type" jsonschema:"minLength=1"`

	// Shape is the wire shape.
	Shape string `yaml:"shape,omitempty" jsonschema:"enum=request,enum=response,enum=array,enum=struct"`

	// Factory names a constructor function registered in code.
	Factory string `yaml:"factory,omitempty"`

	// Constructor lists the slots passed to the constructor, in order.
	Constructor Refs `yaml:"constructor,omitempty"`

	// Imports lists auxiliary types resolved together with this one.
	Imports []string `yaml:"imports,omitempty"`

	// Fields maps Go field names to their declaration.
	Fields map[string]FieldSpec `yaml:"fields,omitempty"`
}

// FieldSpec declares one field.
type FieldSpec struct {
	Index    *int   `yaml:"index,omitempty" jsonschema:"minimum=0"`
	Key      string `yaml:"key,omitempty"`
	Ignore   bool   `yaml:"ignore,omitempty"`
	Final    bool   `yaml:"final,omitempty"`
	Contains string `yaml:"contains,omitempty"`
	Bind     string `yaml:"bind,omitempty"`
	Unbind   string `yaml:"unbind,omitempty"`
	Via      string `yaml:"via,omitempty"`
}

// Refs is a constructor reference list; each entry is an index or a key.
type Refs []any

// UnmarshalYAML accepts a single reference or a sequence of them. Integer
// scalars become indexes, everything else keys.
func (r *Refs) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		ref, err := decodeRef(node)
		if err != nil {
			return err
		}

		*r = Refs{ref}

		return nil
	case yaml.SequenceNode:
		out := make(Refs, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: constructor reference must be a scalar", item.Line)
			}

			ref, err := decodeRef(item)
			if err != nil {
				return err
			}

			out = append(out, ref)
		}

		*r = out

		return nil
	default:
		return fmt.Errorf("line %d: expected reference or list of references", node.Line)
	}
}

func decodeRef(node *yaml.Node) (any, error) {
	if node.Tag == "!!int" {
		var n int
		if err := node.Decode(&n); err != nil {
			return nil, err
		}

		return n, nil
	}

	return node.Value, nil
}

// LoadFile loads and parses a YAML declaration file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, "", "", "failed to parse declaration YAML").Wrap(err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// Apply declares every entry of f in r. Type names resolve against
// r.Types(). All entries are attempted; failures are joined.
func Apply(r *Registry, f *File) error {
	if f == nil {
		return nil
	}

	var errs []error

	for i := range f.Types {
		if err := applyType(r, &f.Types[i]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func applyType(r *Registry, td *TypeDecl) error {
	known := r.Types()

	t, err := lookupType(td.Type, known)
	if err != nil {
		return err
	}

	var opts []Option

	if td.Shape != "" {
		shape, err := mapping.ParseShape(td.Shape)
		if err != nil {
			return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, td.Type, "", "invalid shape").Wrap(err)
		}

		opts = append(opts, Shape(shape))
	}

	switch {
	case td.Factory != "":
		fn, ok := r.Factory(td.Factory)
		if !ok {
			return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, td.Type, "",
				"unknown factory %q", td.Factory)
		}

		opts = append(opts, Constructor(fn.Interface(), td.Constructor...))
	case td.Constructor != nil:
		opts = append(opts, ConstructorRefs(td.Constructor...))
	}

	imports := make([]any, 0, len(td.Imports))
	for _, name := range td.Imports {
		it, err := lookupType(name, known)
		if err != nil {
			return err
		}

		imports = append(imports, reflect.Zero(it).Interface())
	}

	if len(imports) > 0 {
		opts = append(opts, Imports(imports...))
	}

	names := make([]string, 0, len(td.Fields))
	for name := range td.Fields {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		fopts, err := fieldOptions(td.Fields[name], known)
		if err != nil {
			return diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, td.Type, name, "invalid field").Wrap(err)
		}

		opts = append(opts, Field(name, fopts...))
	}

	return r.DeclareType(t, opts...)
}

func fieldOptions(fs FieldSpec, known []reflect.Type) ([]FieldOption, error) {
	var opts []FieldOption

	if fs.Index != nil {
		opts = append(opts, Index(*fs.Index))
	}

	if fs.Key != "" {
		opts = append(opts, Key(fs.Key))
	}

	if fs.Ignore {
		opts = append(opts, Ignore())
	}

	if fs.Final {
		opts = append(opts, Final())
	}

	if fs.Contains != "" {
		ct, err := lookupType(fs.Contains, known)
		if err != nil {
			return nil, err
		}

		opts = append(opts, Contains(reflect.Zero(ct).Interface()))
	}

	if fs.Via != "" {
		opts = append(opts, Via(fs.Via))
	}

	if fs.Bind != "" {
		opts = append(opts, BindVia(fs.Bind))
	}

	if fs.Unbind != "" {
		opts = append(opts, UnbindVia(fs.Unbind))
	}

	return opts, nil
}

func lookupType(name string, known []reflect.Type) (reflect.Type, error) {
	full := make([]string, len(known))
	for i, t := range known {
		full[i] = common.FullTypeName(t)
	}

	i, ok := ResolveTypeName(name, full)
	if !ok {
		short := make([]string, len(known))
		for k, t := range known {
			short[k] = common.ShortTypeName(t)
		}

		return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, name, "",
			"unknown type%s", didYouMean(name, short))
	}

	return known[i], nil
}
