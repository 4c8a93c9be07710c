package analyze

import (
	"go/types"
	"slices"
	"strconv"
	"strings"

	"xmlrpc-binder/internal/diagnostic"
)

// WirePath builds a readable address of a value inside a message.
// Examples:
//   - "store.PlaceOrder" for the message itself
//   - "store.PlaceOrder[1]" for a parameter or an array slot
//   - "store.PlaceOrder[1][]" for the elements of a collection
//   - "store.PlaceOrder[0].email" for a struct member
type WirePath struct {
	parts []string
}

// NewWirePath creates a new WirePath from a root type name.
func NewWirePath(root string) *WirePath {
	return &WirePath{
		parts: []string{root},
	}
}

func (p *WirePath) with(part string) *WirePath {
	return &WirePath{parts: append(slices.Clone(p.parts), part)}
}

// Index appends an array or parameter slot.
func (p *WirePath) Index(i int) *WirePath {
	return p.with("[" + strconv.Itoa(i) + "]")
}

// Key appends a struct member name.
func (p *WirePath) Key(k string) *WirePath {
	return p.with("." + k)
}

// Elem appends the element marker of a collection.
func (p *WirePath) Elem() *WirePath {
	return p.with("[]")
}

// Member appends the member marker of a map.
func (p *WirePath) Member() *WirePath {
	return p.with(".*")
}

// String returns the full path string.
func (p *WirePath) String() string {
	return strings.Join(p.parts, "")
}

// TypeStringer renders TypeInfo values as Go type expressions.
type TypeStringer struct{}

// NewTypeStringer creates a new TypeStringer.
func NewTypeStringer() *TypeStringer {
	return &TypeStringer{}
}

// TypeString returns a human-readable string representation of a TypeInfo.
func (s *TypeStringer) TypeString(t *TypeInfo) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case TypeKindBasic:
		return t.GoType.String()

	case TypeKindStruct:
		if t.IsNamed() {
			return t.ID.Short()
		}
		return "struct{...}"

	case TypeKindPointer:
		return "*" + s.elem(t)

	case TypeKindSlice:
		return "[]" + s.elem(t)

	case TypeKindArray:
		return "[...]" + s.elem(t)

	case TypeKindMap:
		return "map[" + s.TypeString(t.KeyType) + "]" + s.elem(t)

	case TypeKindInterface:
		return "any"

	case TypeKindAlias, TypeKindExternal:
		if t.IsNamed() {
			return t.ID.Short()
		}
		return s.TypeString(t.Underlying)

	default:
		return t.GoType.String()
	}
}

func (s *TypeStringer) elem(t *TypeInfo) string {
	if t.ElemType == nil {
		return "<unknown>"
	}

	return s.TypeString(t.ElemType)
}

// WireEntry is one addressable value below a shaped type.
type WireEntry struct {
	Path  string
	Field *FieldInfo
	Type  string
}

// WirePaths lists the slots reachable from a shaped root in wire order,
// descending into shaped field types up to maxDepth levels. Recursive
// types are cut at the depth limit.
func (s *TypeStringer) WirePaths(root *TypeInfo, maxDepth int) []WireEntry {
	if root == nil || !root.IsShaped() {
		return nil
	}

	var out []WireEntry

	s.walkShaped(root, NewWirePath(root.ID.Short()), &out, 0, maxDepth)

	return out
}

func (s *TypeStringer) walkShaped(t *TypeInfo, path *WirePath, out *[]WireEntry, depth, maxDepth int) {
	if depth > maxDepth {
		return
	}

	var ignored diagnostic.Diagnostics

	fields := slices.DeleteFunc(tagSlots(t, t.Shape, &ignored), func(sf slotField) bool { return !sf.bound() })

	slices.SortStableFunc(fields, func(a, b slotField) int {
		if a.Spec.Index != nil && b.Spec.Index != nil {
			return *a.Spec.Index - *b.Spec.Index
		}

		return 0
	})

	for _, sf := range fields {
		p := path.Key(sf.Spec.Key)
		if sf.Spec.Index != nil {
			p = path.Index(*sf.Spec.Index)
		}

		*out = append(*out, WireEntry{Path: p.String(), Field: sf.Field, Type: s.TypeString(sf.Field.Type)})

		s.walkNested(sf.Field.Type, p, out, depth+1, maxDepth)
	}
}

func (s *TypeStringer) walkNested(t *TypeInfo, path *WirePath, out *[]WireEntry, depth, maxDepth int) {
	if t == nil || depth > maxDepth {
		return
	}

	switch t.Kind {
	case TypeKindStruct:
		if t.IsShaped() {
			s.walkShaped(t, path, out, depth, maxDepth)
		}

	case TypeKindPointer:
		s.walkNested(t.ElemType, path, out, depth, maxDepth)

	case TypeKindSlice, TypeKindArray:
		if b, ok := t.ElemType.GoType.(*types.Basic); ok && b.Kind() == types.Byte {
			// base64 scalar
			return
		}

		s.walkNested(t.ElemType, path.Elem(), out, depth, maxDepth)

	case TypeKindMap:
		s.walkNested(t.ElemType, path.Member(), out, depth, maxDepth)

	case TypeKindBasic, TypeKindInterface, TypeKindAlias, TypeKindExternal, TypeKindUnknown:
		// Terminal types - nothing to recurse into
	}
}
