package analyze

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/mapping"
	"xmlrpc-binder/internal/match"
)

const maxSuggestions = 3

// slotField is a field together with its effective declaration.
type slotField struct {
	Field *FieldInfo
	Spec  decl.FieldSpec
	// Implicit is set for struct-shaped fields keyed by their own name.
	Implicit bool
}

// bound reports whether the field occupies a slot.
func (s slotField) bound() bool {
	return !s.Spec.Ignore && (s.Spec.Index != nil || s.Spec.Key != "")
}

func (s slotField) slot() string {
	if s.Spec.Index != nil {
		return strconv.Itoa(*s.Spec.Index)
	}

	return strconv.Quote(s.Spec.Key)
}

// bindableFields returns the exported fields of t in declaration order,
// with fields of embedded structs promoted. Embedded pointers are skipped.
func bindableFields(t *TypeInfo) []*FieldInfo {
	var out []*FieldInfo

	seen := map[*TypeInfo]bool{t: true}

	var walk func(info *TypeInfo)
	walk = func(info *TypeInfo) {
		for i := range info.Fields {
			f := &info.Fields[i]

			_, tagged := f.WireTag()
			if f.Embedded && !tagged && f.Type.Kind == TypeKindStruct {
				if !seen[f.Type] {
					seen[f.Type] = true
					walk(f.Type)
				}

				continue
			}

			if f.Embedded && f.Type.Kind == TypeKindPointer {
				continue
			}

			out = append(out, f)
		}
	}

	walk(t)

	// Outer fields shadow promoted ones.
	seenName := make(map[string]bool, len(out))
	uniq := out[:0]

	for _, f := range out {
		if !seenName[f.Name] {
			seenName[f.Name] = true
			uniq = append(uniq, f)
		}
	}

	return uniq
}

// tagSlots reads the xmlrpc tags of t's fields. Malformed tags are
// reported to diags and the field is left out.
func tagSlots(t *TypeInfo, shape mapping.Shape, diags *diagnostic.Diagnostics) []slotField {
	var out []slotField

	for _, f := range bindableFields(t) {
		sf := slotField{Field: f}

		tag, ok := f.WireTag()
		if ok {
			spec, err := decl.ParseTag(tag)
			if err != nil {
				diags.AddError(diagnostic.CodeInvalidDeclaration,
					fmt.Sprintf("invalid %s tag %q: %v", decl.TagName, tag, err), t.ID.Short(), f.Name)

				continue
			}

			sf.Spec = spec
		}

		if shape.IsStructShaped() && !sf.Spec.Ignore && sf.Spec.Index == nil && sf.Spec.Key == "" {
			sf.Spec.Key = f.Name
			sf.Implicit = true
		}

		out = append(out, sf)
	}

	return out
}

// checkSlots reports slot conflicts among fields of a type of the given
// shape, given the constructor references that cover final fields.
func checkSlots(typ string, shape mapping.Shape, fields []slotField, refs map[string]bool,
	diags *diagnostic.Diagnostics,
) {
	taken := make(map[string]string)

	for _, sf := range fields {
		name := sf.Field.Name

		switch {
		case sf.Spec.Ignore:
			continue
		case shape.IsArrayShaped() && sf.Spec.Key != "":
			diags.AddError(diagnostic.CodeInvalidDeclaration,
				fmt.Sprintf("key %q on %s-shaped type", sf.Spec.Key, shape), typ, name)

			continue
		case shape.IsStructShaped() && sf.Spec.Index != nil:
			diags.AddError(diagnostic.CodeInvalidDeclaration,
				fmt.Sprintf("index %d on struct-shaped type", *sf.Spec.Index), typ, name)

			continue
		case !sf.bound():
			diags.AddWarning(diagnostic.CodeUnboundField, "field has no index and stays unbound", typ, name)
			continue
		}

		slot := sf.slot()
		if other, dup := taken[slot]; dup {
			diags.AddError(diagnostic.CodeDuplicateSlot,
				fmt.Sprintf("slot %s already taken by %s", slot, other), typ, name)

			continue
		}

		taken[slot] = name

		if sf.Spec.Final && !refs[slot] {
			diags.AddWarning(diagnostic.CodeIllegalImmutableField,
				"final field needs a constructor referencing slot "+slot, typ, name)
		}

		for _, conv := range []string{sf.Spec.Via, sf.Spec.Bind, sf.Spec.Unbind} {
			if conv != "" && !decl.IsBuiltinConverter(conv) {
				diags.AddInfo(diagnostic.CodeInvalidDeclaration,
					fmt.Sprintf("converter %q must be registered at runtime", conv), typ, name)
			}
		}
	}
}

// Declarations turns the tags of every shaped type in g into a
// declaration file and reports what the resolver would reject at runtime.
// Constructors are never declared by tags, so final fields only warn.
func Declarations(g *TypeGraph) (*decl.File, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	f := &decl.File{Version: "1"}

	for _, t := range g.Structs() {
		typ := t.ID.Short()

		if !checkMarkers(t, &diags) {
			continue
		}

		if !t.IsShaped() {
			if slices.ContainsFunc(bindableFields(t), func(f *FieldInfo) bool { return f.HasTag(decl.TagName) }) {
				diags.AddWarning(diagnostic.CodeInvalidDeclaration,
					"xmlrpc field tags on a type without a shape marker", typ, "")
			}

			continue
		}

		fields := tagSlots(t, t.Shape, &diags)
		checkSlots(typ, t.Shape, fields, nil, &diags)

		td := decl.TypeDecl{Type: typ, Shape: t.Shape.String()}

		for _, sf := range fields {
			if sf.Implicit {
				continue
			}

			if _, tagged := sf.Field.WireTag(); !tagged {
				continue
			}

			if td.Fields == nil {
				td.Fields = make(map[string]decl.FieldSpec)
			}

			td.Fields[sf.Field.Name] = sf.Spec
		}

		f.Types = append(f.Types, td)
	}

	diags.Sort()

	return f, diags
}

// checkMarkers reports unknown or conflicting shape markers and returns
// false when the type cannot be checked further.
func checkMarkers(t *TypeInfo, diags *diagnostic.Diagnostics) bool {
	ok := true

	for _, raw := range t.Markers {
		shape, err := mapping.ParseShape(raw)
		switch {
		case err != nil || shape == mapping.ShapeNone:
			diags.AddError(diagnostic.CodeInvalidDeclaration,
				fmt.Sprintf("unknown shape marker %q", raw), t.ID.Short(), "_")

			ok = false
		case shape != t.Shape:
			diags.AddError(diagnostic.CodeInvalidDeclaration,
				fmt.Sprintf("conflicting shape markers %s and %s", t.Shape, shape), t.ID.Short(), "_")

			ok = false
		}
	}

	return ok
}

// CheckFile validates a declaration file against the analyzed packages:
// type, field and import names must exist, slots must not collide once
// the file is laid over the tags, and constructor references must point
// at occupied slots.
func CheckFile(f *decl.File, g *TypeGraph) diagnostic.Diagnostics {
	var diags diagnostic.Diagnostics

	if f == nil {
		return diags
	}

	for i := range f.Types {
		checkTypeDecl(&f.Types[i], g, &diags)
	}

	diags.Sort()

	return diags
}

func checkTypeDecl(td *decl.TypeDecl, g *TypeGraph, diags *diagnostic.Diagnostics) {
	t, ok := g.Find(td.Type)
	if !ok {
		diags.AddError(diagnostic.CodeInvalidDeclaration, "unknown type", td.Type, "",
			match.Suggest(td.Type, g.ShortNames(), maxSuggestions)...)

		return
	}

	typ := t.ID.Short()

	shape := t.Shape
	if td.Shape != "" {
		s, err := mapping.ParseShape(td.Shape)
		if err != nil {
			diags.AddError(diagnostic.CodeInvalidDeclaration, err.Error(), typ, "")
			return
		}

		shape = s
	}

	if shape == mapping.ShapeNone {
		diags.AddError(diagnostic.CodeInvalidDeclaration, "type has no shape", typ, "")
		return
	}

	for _, name := range td.Imports {
		if _, ok := g.Find(name); !ok {
			diags.AddError(diagnostic.CodeInvalidImport, fmt.Sprintf("unknown import %q", name), typ, "",
				match.Suggest(name, g.ShortNames(), maxSuggestions)...)
		}
	}

	var tagDiags diagnostic.Diagnostics

	fields := tagSlots(t, shape, &tagDiags)
	diags.Merge(tagDiags)

	names := make([]string, len(fields))
	for i, sf := range fields {
		names[i] = sf.Field.Name
	}

	for _, name := range slices.Sorted(maps.Keys(td.Fields)) {
		spec := td.Fields[name]

		i := slices.Index(names, name)
		if i < 0 {
			diags.AddError(diagnostic.CodeInvalidDeclaration, "unknown field", typ, name,
				match.Suggest(name, names, maxSuggestions)...)

			continue
		}

		if spec.Index != nil && spec.Key != "" {
			diags.AddError(diagnostic.CodeInvalidDeclaration, "both index and key given", typ, name)
			continue
		}

		if spec.Contains != "" {
			if _, ok := g.Find(spec.Contains); !ok {
				diags.AddError(diagnostic.CodeInvalidDeclaration,
					fmt.Sprintf("unknown contained type %q", spec.Contains), typ, name,
					match.Suggest(spec.Contains, g.ShortNames(), maxSuggestions)...)
			}
		}

		fields[i] = overlay(fields[i], spec)
	}

	refs := make(map[string]bool, len(td.Constructor))
	for _, ref := range td.Constructor {
		slot, ok := refSlot(ref)
		if !ok {
			diags.AddError(diagnostic.CodeInvalidDeclaration,
				fmt.Sprintf("constructor reference %v is neither index nor key", ref), typ, "")

			continue
		}

		refs[slot] = true
	}

	for slot := range refs {
		if !slices.ContainsFunc(fields, func(sf slotField) bool { return sf.bound() && sf.slot() == slot }) {
			diags.AddError(diagnostic.CodeInvalidDeclaration,
				"constructor references unoccupied slot "+slot, typ, "")
		}
	}

	checkSlots(typ, shape, fields, refs, diags)
}

// overlay lays a declaration file entry over the tag of one field.
func overlay(sf slotField, spec decl.FieldSpec) slotField {
	if spec.Index != nil || spec.Key != "" {
		sf.Spec.Index, sf.Spec.Key, sf.Spec.Ignore = spec.Index, spec.Key, false
		sf.Implicit = false
	}

	if spec.Ignore {
		sf.Spec.Ignore, sf.Spec.Index, sf.Spec.Key = true, nil, ""
	}

	if spec.Final {
		sf.Spec.Final = true
	}

	if spec.Via != "" {
		sf.Spec.Via = spec.Via
	}

	if spec.Bind != "" {
		sf.Spec.Bind = spec.Bind
	}

	if spec.Unbind != "" {
		sf.Spec.Unbind = spec.Unbind
	}

	return sf
}

func refSlot(ref any) (string, bool) {
	switch r := ref.(type) {
	case int:
		return strconv.Itoa(r), true
	case string:
		return strconv.Quote(r), true
	default:
		return "", false
	}
}
