package rpcbind_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrpc-binder/rpcbind"
	"xmlrpc-binder/store"
)

func newEngine(t *testing.T, opts ...rpcbind.Option) (*rpcbind.Engine, *test.Hook) {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	return rpcbind.New(append([]rpcbind.Option{rpcbind.WithLogger(logger)}, opts...)...), hook
}

func roundTrip[T any](t *testing.T, eng *rpcbind.Engine, in T) T {
	t.Helper()

	events, err := eng.Events(context.Background(), in)
	require.NoError(t, err)

	var out T
	require.NoError(t, eng.Bind(context.Background(), rpcbind.NewSliceSource(events...), &out), spew.Sdump(events))

	return out
}

func TestEngine_RoundTrip(t *testing.T) {
	t.Parallel()

	eng, _ := newEngine(t)

	note := "leave at the door"
	in := store.PlaceOrder{
		Customer: store.Customer{ID: 7, Email: "ada@example.com", FullName: "Ada", IsActive: true},
		Items: []store.OrderItem{
			{ProductID: 1, Quantity: 2, UnitPrice: 350},
			{ProductID: 9, Quantity: 1, UnitPrice: 1200},
		},
		Note: &note,
	}

	assert.Equal(t, in, roundTrip(t, eng, in))

	// A nil pointer travels as NIL and comes back nil.
	in.Note = nil
	in.Customer.Address = nil
	assert.Equal(t, in, roundTrip(t, eng, in))
}

func TestEngine_Events(t *testing.T) {
	t.Parallel()

	eng, _ := newEngine(t)

	events, err := eng.Events(context.Background(), &store.PlaceOrder{})
	require.NoError(t, err)

	// Three parameters of four framing events each, plus the nested values.
	assert.Equal(t, rpcbind.ParameterStartEvent(0), events[0])
	assert.Equal(t, rpcbind.ParameterEndEvent(), events[len(events)-1])

	var params []int
	for _, e := range events {
		if e.Equal(rpcbind.ParameterStartEvent(e.Index)) {
			params = append(params, e.Index)
		}
	}

	assert.Equal(t, []int{0, 1, 2}, params)
}

func TestEngine_ConstructorDeclaredAtRuntime(t *testing.T) {
	t.Parallel()

	eng, _ := newEngine(t)

	_, err := eng.Events(context.Background(), store.OrderReceipt{})
	require.ErrorIs(t, err, rpcbind.ErrIllegalImmutableField)

	require.NoError(t, eng.Declare(store.Price{}, rpcbind.Constructor(store.NewPrice, 0, 1)))

	in := store.OrderReceipt{
		Order: store.Order{
			ID:         100,
			CustomerID: 7,
			Status:     store.StatusPaid,
			Total:      store.NewPrice(1999, "USD"),
			Items:      []store.OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: 1999}},
			OrderedAt:  time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC),
		},
		Warnings: []string{"backordered"},
	}

	assert.Equal(t, in, roundTrip(t, eng, in))
}

func TestEngine_BindErrors(t *testing.T) {
	t.Parallel()

	eng, _ := newEngine(t)
	src := rpcbind.NewSliceSource()

	var order store.Order

	tests := []struct {
		name string
		out  any
		want error
	}{
		{"nil", nil, rpcbind.ErrInvalidRoot},
		{"not a pointer", store.PlaceOrder{}, rpcbind.ErrInvalidRoot},
		{"nil pointer", (*store.PlaceOrder)(nil), rpcbind.ErrInvalidRoot},
		{"not a message", &order, rpcbind.ErrInvalidRoot},
		{"three levels", ptrTo(ptrTo(&store.PlaceOrder{})), rpcbind.ErrInvalidRoot},
		{"pointer to slice", &[]store.PlaceOrder{}, rpcbind.ErrInvalidRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, eng.Bind(context.Background(), src, tt.out), tt.want)
		})
	}

	assert.ErrorIs(t, eng.Unbind(context.Background(), nil, &rpcbind.Recorder{}), rpcbind.ErrInvalidRoot)
}

func ptrTo[T any](v T) *T { return &v }

func TestEngine_BindIntoPointer(t *testing.T) {
	t.Parallel()

	eng, _ := newEngine(t)

	in := store.PlaceOrder{
		Customer: store.Customer{ID: 3, Email: "bob@example.com"},
		Items:    []store.OrderItem{{ProductID: 4, Quantity: 1, UnitPrice: 99}},
	}

	events, err := eng.Events(context.Background(), in)
	require.NoError(t, err)

	var out *store.PlaceOrder
	require.NoError(t, eng.Bind(context.Background(), rpcbind.NewSliceSource(events...), &out))
	require.NotNil(t, out)
	assert.Equal(t, in, *out)

	// A non-nil *T is replaced, not written through.
	prev := &store.PlaceOrder{}
	out = prev
	require.NoError(t, eng.Bind(context.Background(), rpcbind.NewSliceSource(events...), &out))
	assert.NotSame(t, prev, out)
	assert.Equal(t, store.PlaceOrder{}, *prev)
}

func TestEngine_BindLeavesTargetOnError(t *testing.T) {
	t.Parallel()

	eng, _ := newEngine(t)

	out := store.PlaceOrder{Customer: store.Customer{ID: 1}}
	err := eng.Bind(context.Background(), rpcbind.NewSliceSource(rpcbind.ParameterStartEvent(1)), &out)

	require.ErrorIs(t, err, rpcbind.ErrGrammarViolation)
	assert.Equal(t, int64(1), out.Customer.ID)
}

type ping struct {
	Seq  int
	Text string
	Skip bool
}

func TestEngine_LoadDeclarations(t *testing.T) {
	t.Parallel()

	eng, hook := newEngine(t)
	eng.Registry().Register(ping{})

	_, err := eng.Events(context.Background(), ping{})
	require.ErrorIs(t, err, rpcbind.ErrInvalidRoot, "ping is not declared yet")

	path := filepath.Join(t.TempDir(), "ping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "1"
types:
  - type: ping
    shape: request
    fields:
      Seq:  { index: 0 }
      Text: { index: 1 }
      Skip: { ignore: true }
`), 0o600))

	require.NoError(t, eng.LoadDeclarations(path))

	events, err := eng.Events(context.Background(), ping{Seq: 7, Text: "hi", Skip: true})
	require.NoError(t, err)
	require.Len(t, events, 8)
	assert.Equal(t, rpcbind.ParameterEvent(0, int64(7), rpcbind.TypeInteger), events[2])
	assert.Equal(t, rpcbind.ParameterEvent(1, "hi", rpcbind.TypeString), events[6])

	var applied bool
	for _, e := range hook.AllEntries() {
		if e.Message == "applied declaration file" {
			applied = true
			assert.Equal(t, path, e.Data["path"])
		}
	}

	assert.True(t, applied)

	assert.Error(t, eng.LoadDeclarations(filepath.Join(t.TempDir(), "missing.yaml")))
}

type reading struct {
	_ struct{} `xmlrpc:"request"`

	Value int  `xmlrpc:"index=0"`
	Ok    bool `xmlrpc:"index=1"`
}

func TestEngine_Coercion(t *testing.T) {
	t.Parallel()

	events := []rpcbind.Event{
		rpcbind.ParameterStartEvent(0),
		rpcbind.ValueEvent("42", rpcbind.TypeString),
		rpcbind.ParameterEvent(0, "42", rpcbind.TypeString),
		rpcbind.ParameterEndEvent(),
		rpcbind.ParameterStartEvent(1),
		rpcbind.ValueEvent("yes", rpcbind.TypeString),
		rpcbind.ParameterEvent(1, "yes", rpcbind.TypeString),
		rpcbind.ParameterEndEvent(),
	}

	strict, _ := newEngine(t)

	var out reading
	err := strict.Bind(context.Background(), rpcbind.NewSliceSource(events...), &out)
	require.ErrorIs(t, err, rpcbind.ErrConversion)

	cats, err := rpcbind.ParseCategories("text-number", "textual-bool")
	require.NoError(t, err)

	lenient, _ := newEngine(t, rpcbind.WithCoercion(cats))
	require.NoError(t, lenient.Bind(context.Background(), rpcbind.NewSliceSource(events...), &out))
	assert.Equal(t, 42, out.Value)
	assert.True(t, out.Ok)
}

func TestEngine_Converter(t *testing.T) {
	t.Parallel()

	eng, _ := newEngine(t)

	type stamped struct {
		_ struct{} `xmlrpc:"request"`

		At time.Time `xmlrpc:"index=0,via=day"`
	}

	_, err := eng.Events(context.Background(), stamped{})
	require.ErrorIs(t, err, rpcbind.ErrInvalidDeclaration, "converter not registered yet")

	require.NoError(t, eng.RegisterConverter("day", rpcbind.ConverterFunc{
		Bind: func(raw any, _ rpcbind.ValueType, _ reflect.Type) (reflect.Value, error) {
			d, err := time.Parse(time.DateOnly, raw.(string))
			return reflect.ValueOf(d), err
		},
		Unbind: func(v reflect.Value) (any, rpcbind.ValueType, error) {
			return v.Interface().(time.Time).Format(time.DateOnly), rpcbind.TypeString, nil
		},
	}))

	// Failed resolutions are not cached, so registering is enough.
	in := stamped{At: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)}

	events, err := eng.Events(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, rpcbind.ParameterEvent(0, "2024-02-29", rpcbind.TypeString), events[2])
	assert.Equal(t, in, roundTrip(t, eng, in))
}

func TestEngine_Resolve(t *testing.T) {
	t.Parallel()

	eng, _ := newEngine(t, rpcbind.WithCacheSize(1))

	m, err := eng.Resolve(store.PlaceOrder{}, reflect.TypeFor[reading]())
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len(), "PlaceOrder, Customer, OrderItem and reading")

	first, err := eng.Resolve(&store.PlaceOrder{})
	require.NoError(t, err)

	again, err := eng.Resolve(store.PlaceOrder{})
	require.NoError(t, err)
	assert.Same(t, first, again)

	eng.Reset()

	fresh, err := eng.Resolve(store.PlaceOrder{})
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
}

func TestEngine_Concurrent(t *testing.T) {
	t.Parallel()

	eng, _ := newEngine(t)

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			in := store.PlaceOrder{
				Customer: store.Customer{ID: int64(i)},
				Items:    []store.OrderItem{{ProductID: int64(i), Quantity: i}},
			}

			events, err := eng.Events(context.Background(), in)
			if !assert.NoError(t, err) {
				return
			}

			var out store.PlaceOrder
			if assert.NoError(t, eng.Bind(context.Background(), rpcbind.NewSliceSource(events...), &out)) {
				assert.Equal(t, in, out)
			}
		}()
	}

	wg.Wait()
}

func TestEngine_MisspelledMember(t *testing.T) {
	t.Parallel()

	eng, hook := newEngine(t)

	in := store.PlaceOrder{Customer: store.Customer{ID: 3, Email: "ada@example.com"}}

	events, err := eng.Events(context.Background(), in)
	require.NoError(t, err)

	for i, e := range events {
		if e.Key == "email" {
			events[i].Key = "e_mail"
		}
	}

	var out store.PlaceOrder
	require.NoError(t, eng.Bind(context.Background(), rpcbind.NewSliceSource(events...), &out))
	assert.Empty(t, out.Customer.Email, "unmapped members are dropped")
	assert.Equal(t, int64(3), out.Customer.ID)

	var near []any
	for _, e := range hook.AllEntries() {
		if e.Message == "unmapped member resembles a mapped key" {
			near = append(near, e.Data["near"])
		}
	}

	assert.Equal(t, []any{"email"}, near)
}
