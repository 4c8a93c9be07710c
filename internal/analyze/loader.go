package analyze

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"reflect"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"

	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/mapping"
)

// LoadMode is what the analyzer asks go/packages for: names, type
// information and the files positions point into.
const LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

// Analyzer builds a TypeGraph from type-checked packages. One Analyzer may
// take several loads; the graph accumulates.
type Analyzer struct {
	graph *TypeGraph
	// seen holds every type already described, registered before its
	// parts are walked so self-referencing types terminate.
	seen map[types.Type]*TypeInfo
	fset *token.FileSet
	log  log.FieldLogger
}

// NewAnalyzer returns an Analyzer with an empty graph.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		graph: NewTypeGraph(),
		seen:  make(map[types.Type]*TypeInfo),
		log:   log.StandardLogger(),
	}
}

// SetLogger replaces the logger.
func (a *Analyzer) SetLogger(l log.FieldLogger) {
	if l != nil {
		a.log = l
	}
}

// LoadPackages loads patterns ("./store", "xmlrpc-binder/store", "./...")
// from the current directory.
func (a *Analyzer) LoadPackages(patterns ...string) (*TypeGraph, error) {
	return a.LoadPackagesIn("", patterns...)
}

// LoadPackagesIn is LoadPackages with patterns resolved relative to dir.
// Any load or type error fails the whole load.
func (a *Analyzer) LoadPackagesIn(dir string, patterns ...string) (*TypeGraph, error) {
	pkgs, err := packages.Load(&packages.Config{Mode: LoadMode, Dir: dir}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load %v: %w", patterns, err)
	}

	var errs []error

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}

		// Known before any type is described, so that structs of sibling
		// packages are not taken for external ones.
		a.register(pkg.PkgPath, pkg.Name)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("load %v: %w", patterns, errors.Join(errs...))
	}

	for _, pkg := range pkgs {
		a.fset = pkg.Fset
		a.addScope(pkg.PkgPath, pkg.Types.Scope())
	}

	return a.graph, nil
}

// AddPackage adds a package type-checked by the caller. Positions resolve
// against fset, which may be nil.
func (a *Analyzer) AddPackage(pkg *types.Package, fset *token.FileSet) *TypeGraph {
	a.register(pkg.Path(), pkg.Name())
	a.fset = fset
	a.addScope(pkg.Path(), pkg.Scope())

	return a.graph
}

// Graph returns the graph built so far.
func (a *Analyzer) Graph() *TypeGraph {
	return a.graph
}

// GetStruct returns a named struct of the graph.
func (a *Analyzer) GetStruct(pkgPath, typeName string) (*TypeInfo, error) {
	id := TypeID{PkgPath: pkgPath, Name: typeName}

	switch info := a.graph.GetType(id); {
	case info == nil:
		return nil, fmt.Errorf("type %s not found", id)
	case info.Kind != TypeKindStruct:
		return nil, fmt.Errorf("type %s is not a struct (kind: %s)", id, info.Kind)
	default:
		return info, nil
	}
}

func (a *Analyzer) register(path, name string) {
	if _, ok := a.graph.Packages[path]; !ok {
		a.graph.Packages[path] = &PackageInfo{Path: path, Name: name}
	}
}

func (a *Analyzer) local(pkgPath string) bool {
	_, ok := a.graph.Packages[pkgPath]
	return ok
}

// addScope describes the exported type names declared in scope.
func (a *Analyzer) addScope(pkgPath string, scope *types.Scope) {
	pkg := a.graph.Packages[pkgPath]

	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !tn.Exported() {
			continue
		}

		id := TypeID{PkgPath: pkgPath, Name: name}

		info := a.describe(tn.Type())
		info.ID = id
		info.Pos = a.position(tn.Pos())

		a.graph.Types[id] = info
		pkg.Types = append(pkg.Types, id)
	}

	a.log.WithFields(log.Fields{
		"package": pkgPath,
		"types":   len(pkg.Types),
	}).Debug("analyzed package")
}

// describe returns the TypeInfo of t, building it on first sight.
func (a *Analyzer) describe(t types.Type) *TypeInfo {
	t = types.Unalias(t)

	if info, ok := a.seen[t]; ok {
		return info
	}

	info := &TypeInfo{GoType: t}
	a.seen[t] = info

	switch tt := t.(type) {
	case *types.Named:
		a.describeNamed(tt, info)
	case *types.Basic:
		info.Kind = TypeKindBasic
	case *types.Pointer:
		info.Kind, info.ElemType = TypeKindPointer, a.describe(tt.Elem())
	case *types.Slice:
		info.Kind, info.ElemType = TypeKindSlice, a.describe(tt.Elem())
	case *types.Array:
		info.Kind, info.ElemType = TypeKindArray, a.describe(tt.Elem())
	case *types.Map:
		info.Kind = TypeKindMap
		info.KeyType, info.ElemType = a.describe(tt.Key()), a.describe(tt.Elem())
	case *types.Interface:
		info.Kind = TypeKindInterface
	case *types.Struct:
		info.Kind = TypeKindStruct
		a.describeFields(tt, info)
	default:
		// chan, func
		info.Kind = TypeKindUnknown
	}

	return info
}

// describeNamed fills info for a defined type. Structs declared outside
// the loaded packages (time.Time) are external: scalars on the wire.
func (a *Analyzer) describeNamed(n *types.Named, info *TypeInfo) {
	obj := n.Obj()

	info.ID = TypeID{Name: obj.Name()}
	if obj.Pkg() != nil {
		info.ID.PkgPath = obj.Pkg().Path()
	}

	local := a.local(info.ID.PkgPath)

	switch u := n.Underlying().(type) {
	case *types.Struct:
		if !local {
			info.Kind = TypeKindExternal
			return
		}

		info.Kind = TypeKindStruct
		a.describeFields(u, info)
	case *types.Basic:
		// enums such as OrderStatus
		info.Kind, info.Underlying = TypeKindAlias, a.describe(u)
	default:
		if !local {
			info.Kind = TypeKindExternal
			return
		}

		info.Kind, info.Underlying = TypeKindAlias, a.describe(u)
	}
}

// describeFields records exported fields and blank shape markers.
func (a *Analyzer) describeFields(st *types.Struct, info *TypeInfo) {
	for i := range st.NumFields() {
		f := st.Field(i)
		tag := reflect.StructTag(st.Tag(i))

		switch {
		case f.Name() == "_":
			a.marker(tag, info)
		case f.Exported():
			info.Fields = append(info.Fields, FieldInfo{
				Name:     f.Name(),
				Exported: true,
				Type:     a.describe(f.Type()),
				Tag:      tag,
				Embedded: f.Embedded(),
				Index:    i,
				Pos:      a.position(f.Pos()),
			})
		}
	}
}

// marker records a blank-field shape marker. The first recognized shape
// wins; every raw marker is kept for Declarations to report.
func (a *Analyzer) marker(tag reflect.StructTag, info *TypeInfo) {
	raw, ok := tag.Lookup(decl.TagName)
	if !ok {
		return
	}

	info.Markers = append(info.Markers, raw)

	if shape, err := mapping.ParseShape(raw); err == nil && info.Shape == mapping.ShapeNone {
		info.Shape = shape
	}
}

func (a *Analyzer) position(pos token.Pos) token.Position {
	if a.fset == nil || !pos.IsValid() {
		return token.Position{}
	}

	return a.fset.Position(pos)
}
