package decl

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/mapping"
)

// TagName is the struct tag key read by the registry.
const TagName = "xmlrpc"

// tagShape returns the shape declared by blank marker fields of t.
func tagShape(t reflect.Type) (mapping.Shape, error) {
	shape := mapping.ShapeNone

	for i := range t.NumField() {
		f := t.Field(i)
		if f.Name != "_" {
			continue
		}

		tag, ok := f.Tag.Lookup(TagName)
		if !ok {
			continue
		}

		s, err := mapping.ParseShape(tag)
		if err != nil || s == mapping.ShapeNone {
			return mapping.ShapeNone, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, common.ShortTypeName(t), "_",
				"unknown shape marker %q", tag)
		}

		if shape != mapping.ShapeNone && shape != s {
			return mapping.ShapeNone, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, common.ShortTypeName(t), "_",
				"conflicting shape markers %s and %s", shape, s)
		}

		shape = s
	}

	return shape, nil
}

// parseFieldTag parses the options of one field tag.
func parseFieldTag(tag string) (*fieldOverride, error) {
	ov := &fieldOverride{}

	for _, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)
		name, value, hasValue := strings.Cut(opt, "=")

		switch {
		case opt == "":
			continue
		case opt == "-":
			ov.ignore = ptr(true)
		case opt == "final":
			ov.final = ptr(true)
		case name == "index" && hasValue:
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid index %q", value)
			}

			ov.index = ptr(n)
		case name == "key" && hasValue && value != "":
			ov.key = ptr(value)
		case name == "bind" && hasValue && value != "":
			ov.bindVia = ptr(value)
		case name == "unbind" && hasValue && value != "":
			ov.unbindVia = ptr(value)
		case name == "via" && hasValue && value != "":
			ov.bindVia, ov.unbindVia = ptr(value), ptr(value)
		default:
			return nil, fmt.Errorf("unknown option %q", opt)
		}
	}

	if err := ov.check(); err != nil {
		return nil, err
	}

	return ov, nil
}

// tagFields parses the tags of every bindable field of t.
func tagFields(t reflect.Type) (map[string]*fieldOverride, error) {
	out := make(map[string]*fieldOverride)

	for _, f := range bindableFields(t) {
		tag, ok := f.Tag.Lookup(TagName)
		if !ok {
			continue
		}

		ov, err := parseFieldTag(tag)
		if err != nil {
			return nil, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, common.ShortTypeName(t), f.Name,
				"invalid %s tag %q", TagName, tag).Wrap(err)
		}

		out[f.Name] = ov
	}

	return out, nil
}

// bindableFields returns the exported fields of t in declaration order,
// including fields promoted from embedded structs. Fields reached through
// an embedded pointer are skipped since binding would have to allocate
// the embedded value.
func bindableFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			continue
		}

		if throughPointer(t, f.Index) {
			continue
		}

		out = append(out, f)
	}

	return out
}

func throughPointer(t reflect.Type, index []int) bool {
	cur := t
	for _, i := range index[:len(index)-1] {
		ft := cur.Field(i).Type
		if ft.Kind() == reflect.Pointer {
			return true
		}

		cur = ft
	}

	return false
}

func ptr[T any](v T) *T { return &v }

// ParseTag parses the options of one field tag into the declaration file
// form, so tags read from source and from reflection agree.
func ParseTag(tag string) (FieldSpec, error) {
	ov, err := parseFieldTag(tag)
	if err != nil {
		return FieldSpec{}, err
	}

	spec := FieldSpec{Index: ov.index}
	if ov.key != nil {
		spec.Key = *ov.key
	}

	spec.Ignore = ov.ignore != nil && *ov.ignore
	spec.Final = ov.final != nil && *ov.final

	switch {
	case ov.bindVia != nil && ov.unbindVia != nil && *ov.bindVia == *ov.unbindVia:
		spec.Via = *ov.bindVia
	default:
		if ov.bindVia != nil {
			spec.Bind = *ov.bindVia
		}

		if ov.unbindVia != nil {
			spec.Unbind = *ov.unbindVia
		}
	}

	return spec, nil
}
