package binding

import (
	"context"
	"reflect"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/event"
)

// MessageBinder binds a request or response type to a parameter stream.
// As a nested value, a message type binds like an array-shaped type.
type MessageBinder struct {
	*ArrayMappingBinder
}

// BindMessage consumes a whole message from src and returns a pointer to a
// new instance of the message type. The stream is checked against the
// message grammar as it is read.
func (b *MessageBinder) BindMessage(ctx context.Context, src event.Source) (any, error) {
	cur := event.NewCursor(event.ValidateSource(src, event.ModeMessage))
	vals := make(values)

	for {
		eof, err := cur.AtEOF(ctx)
		if err != nil {
			return nil, err
		}

		if eof {
			break
		}

		start, err := cur.Expect(ctx, event.FamilyParameter, event.PhaseStart)
		if err != nil {
			return nil, err
		}

		if err := b.bindSlot(ctx, cur, start.Index, vals); err != nil {
			return nil, err
		}

		if err := complete(ctx, cur, event.Parameter(start.Index, nil, 0)); err != nil {
			return nil, err
		}

		if _, err := cur.Expect(ctx, event.FamilyParameter, event.PhaseEnd); err != nil {
			return nil, err
		}
	}

	v, err := b.tpl.build(vals)
	if err != nil {
		return nil, err
	}

	p := reflect.New(b.typ)
	p.Elem().Set(v)

	return p.Interface(), nil
}

// UnbindMessage emits v, a message value or a pointer to one, as a
// parameter stream. Indexes with no field are emitted as NIL parameters.
func (b *MessageBinder) UnbindMessage(ctx context.Context, v any, l event.Listener) error {
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return diagnostic.Errorf(diagnostic.CodeConversion, common.ShortTypeName(b.typ), "", "cannot unbind a nil message")
	}

	if err := checkType(rv, b.typ); err != nil {
		return err
	}

	vl := event.ValidateListener(l, event.ModeMessage)

	for i := range b.width() {
		if err := emit(ctx, vl, event.ParameterStart(i)); err != nil {
			return err
		}

		gv, gt, err := b.unbindSlot(ctx, rv, i, vl)
		if err != nil {
			return err
		}

		if err := emit(ctx, vl, event.Parameter(i, gv, gt)); err != nil {
			return err
		}

		if err := emit(ctx, vl, event.ParameterEnd()); err != nil {
			return err
		}
	}

	return vl.Finish()
}
