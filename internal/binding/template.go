package binding

import (
	"reflect"
	"slices"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/mapping"
)

// template builds instances of one mapped type from bound field values.
// Constructor references are passed to the factory in declared order; the
// other fields are assigned afterwards in slot order.
type template struct {
	typ  reflect.Type
	ctor reflect.Value
	refs []*mapping.FieldBinding
	rest []*mapping.FieldBinding
}

func newTemplate(mp mapping.Mapping) (*template, error) {
	refs, err := mp.ConstructorBindings()
	if err != nil {
		return nil, err
	}

	t := &template{typ: mp.ObjectType(), ctor: mp.Constructor(), refs: refs}

	for _, fb := range mp.Bindings() {
		if !slices.Contains(refs, fb) {
			t.rest = append(t.rest, fb)
		}
	}

	return t, nil
}

// values holds the bound value of each field, keyed by its binding.
type values map[*mapping.FieldBinding]reflect.Value

func (t *template) build(vals values) (reflect.Value, error) {
	obj := reflect.New(t.typ).Elem()

	if t.ctor.IsValid() {
		out, err := t.construct(vals)
		if err != nil {
			return reflect.Value{}, err
		}

		obj.Set(out)
	}

	for _, fb := range t.rest {
		v, ok := vals[fb]
		if !ok {
			continue
		}

		f := obj.FieldByIndex(fb.Index)

		sv, err := settle(v, f.Type())
		if err != nil {
			return reflect.Value{}, fieldErr(t.typ, fb, err)
		}

		f.Set(sv)
	}

	return obj, nil
}

func (t *template) construct(vals values) (reflect.Value, error) {
	fnT := t.ctor.Type()
	args := make([]reflect.Value, len(t.refs))

	for i, fb := range t.refs {
		in := fnT.In(i)

		v, ok := vals[fb]
		if !ok {
			args[i] = reflect.Zero(in)
			continue
		}

		sv, err := settle(v, in)
		if err != nil {
			return reflect.Value{}, fieldErr(t.typ, fb, err)
		}

		args[i] = sv
	}

	out := t.ctor.Call(args)
	name := common.ShortTypeName(t.typ)

	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, diagnostic.Errorf(diagnostic.CodeConversion, name, "",
			"constructor rejected bound values").Wrap(out[1].Interface().(error))
	}

	res := out[0]
	if res.Kind() == reflect.Pointer {
		if res.IsNil() {
			return reflect.Value{}, diagnostic.Errorf(diagnostic.CodeConversion, name, "", "constructor returned nil")
		}

		res = res.Elem()
	}

	return res, nil
}

func fieldErr(t reflect.Type, fb *mapping.FieldBinding, err error) error {
	return diagnostic.Errorf(diagnostic.CodeConversion, common.ShortTypeName(t), fb.Name, "cannot assign bound value").Wrap(err)
}
