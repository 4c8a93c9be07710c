package analyze

import (
	"cmp"
	"go/token"
	"go/types"
	"reflect"
	"slices"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/mapping"
)

// TypeID names a declared type: import path plus type name.
type TypeID struct {
	PkgPath string // e.g., "xmlrpc-binder/store"
	Name    string // e.g., "Order"
}

// String returns "path.Name", or Name for predeclared types.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// Short returns "alias.Name", the form used in declaration files.
func (t TypeID) Short() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return common.PkgAlias(t.PkgPath) + "." + t.Name
}

// TypeKind is the structural class of a TypeInfo.
type TypeKind int

const (
	TypeKindUnknown   TypeKind = iota
	TypeKindBasic              // predeclared scalars
	TypeKindStruct             // may carry a shape marker
	TypeKindPointer            // NIL or the element
	TypeKindSlice              // wire array
	TypeKindArray              // wire array of fixed length
	TypeKindMap                // wire struct keyed by member name
	TypeKindInterface          // any wire value
	TypeKindAlias              // defined type over a non-struct, e.g. an enum
	TypeKindExternal           // struct from an unloaded package, e.g. time.Time
)

func (k TypeKind) String() string {
	switch k {
	case TypeKindBasic:
		return "basic"
	case TypeKindStruct:
		return "struct"
	case TypeKindPointer:
		return "pointer"
	case TypeKindSlice:
		return "slice"
	case TypeKindArray:
		return "array"
	case TypeKindMap:
		return "map"
	case TypeKindInterface:
		return "interface"
	case TypeKindAlias:
		return "alias"
	case TypeKindExternal:
		return "external"
	default:
		return common.UnknownStr
	}
}

// TypeInfo is one node of the graph. Named types appear once; unnamed
// composites such as []T hang off the fields using them.
type TypeInfo struct {
	ID         TypeID // zero for unnamed types
	Kind       TypeKind
	Underlying *TypeInfo // TypeKindAlias only
	ElemType   *TypeInfo // pointer, slice, array and map
	KeyType    *TypeInfo // map
	Fields     []FieldInfo
	GoType     types.Type

	// Shape is the wire shape declared by blank marker fields.
	Shape mapping.Shape
	// Markers lists the raw marker tags in declaration order.
	Markers []string
	// Pos is where the type is declared.
	Pos token.Position
}

// IsNamed reports whether the node is a defined type.
func (t *TypeInfo) IsNamed() bool {
	return t.ID.Name != ""
}

// IsShaped returns true if the type carries a recognized shape marker.
func (t *TypeInfo) IsShaped() bool {
	return t.Shape != mapping.ShapeNone
}

// FieldInfo is an exported field of a struct node.
type FieldInfo struct {
	Name     string
	Exported bool
	Type     *TypeInfo
	Tag      reflect.StructTag
	Embedded bool
	Index    int // position among all fields, blank ones included
	Pos      token.Position    // Where the field is declared
}

// WireTag returns the xmlrpc tag of the field and whether it is present.
func (f *FieldInfo) WireTag() (string, bool) {
	return f.Tag.Lookup(decl.TagName)
}

// HasTag reports whether the field tag has key.
func (f *FieldInfo) HasTag(key string) bool {
	_, ok := f.Tag.Lookup(key)
	return ok
}

// TypeGraph indexes the declared types of every loaded package.
type TypeGraph struct {
	Types    map[TypeID]*TypeInfo
	Packages map[string]*PackageInfo // by import path
}

func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the node of id, or nil.
func (g *TypeGraph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// Structs returns the named struct types of loaded packages, ordered by ID.
func (g *TypeGraph) Structs() []*TypeInfo {
	var out []*TypeInfo

	for _, pkg := range g.Packages {
		for _, id := range pkg.Types {
			if info := g.Types[id]; info != nil && info.Kind == TypeKindStruct {
				out = append(out, info)
			}
		}
	}

	slices.SortFunc(out, func(a, b *TypeInfo) int {
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	return out
}

// Shaped returns the struct types carrying a shape marker, ordered by ID.
func (g *TypeGraph) Shaped() []*TypeInfo {
	return slices.DeleteFunc(g.Structs(), func(t *TypeInfo) bool {
		return !t.IsShaped() && len(t.Markers) == 0
	})
}

// Find resolves a short, qualified or bare type name against the struct
// types of the graph.
func (g *TypeGraph) Find(name string) (*TypeInfo, bool) {
	structs := g.Structs()

	full := make([]string, len(structs))
	for i, s := range structs {
		full[i] = s.ID.String()
	}

	i, ok := decl.ResolveTypeName(name, full)
	if !ok {
		return nil, false
	}

	return structs[i], true
}

// ShortNames returns the short names of every struct type, for suggestions.
func (g *TypeGraph) ShortNames() []string {
	structs := g.Structs()

	out := make([]string, len(structs))
	for i, s := range structs {
		out[i] = s.ID.Short()
	}

	return out
}

// PackageInfo lists the exported types a package declares.
type PackageInfo struct {
	Path  string
	Name  string
	Types []TypeID
}
