package decl_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/event"
)

type color int

func (c color) String() string {
	return [...]string{"red", "green"}[c]
}

type tag string

type version struct{ major, minor int }

func (v version) MarshalText() ([]byte, error) {
	return []byte{byte('0' + v.major), '.', byte('0' + v.minor)}, nil
}

func (v *version) UnmarshalText(b []byte) error {
	if len(b) != 3 || b[1] != '.' {
		return assert.AnError
	}

	v.major, v.minor = int(b[0]-'0'), int(b[2]-'0')

	return nil
}

func converter(t *testing.T, name string) (decl.ValueBinder, decl.ValueUnbinder) {
	t.Helper()

	reg := decl.NewRegistry()

	b, ok := reg.Binder(name)
	require.True(t, ok)

	u, ok := reg.Unbinder(name)
	require.True(t, ok)

	return b, u
}

func TestISO8601(t *testing.T) {
	t.Parallel()

	b, u := converter(t, decl.ConverterISO8601)
	when := time.Date(1998, 7, 17, 14, 8, 55, 0, time.UTC)

	raw, vt, err := u.UnbindValue(reflect.ValueOf(when))
	require.NoError(t, err)
	assert.Equal(t, "19980717T14:08:55", raw)
	assert.Equal(t, event.TypeDateTime, vt)

	got, err := b.BindValue(raw, vt, reflect.TypeFor[time.Time]())
	require.NoError(t, err)
	assert.True(t, when.Equal(got.Interface().(time.Time)))

	got, err = b.BindValue(when, event.TypeDateTime, reflect.TypeFor[*time.Time]())
	require.NoError(t, err)
	assert.True(t, when.Equal(*got.Interface().(*time.Time)))

	raw, vt, err = u.UnbindValue(reflect.ValueOf((*time.Time)(nil)))
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Equal(t, event.TypeNil, vt)

	_, err = b.BindValue(42, event.TypeInteger, reflect.TypeFor[time.Time]())
	require.ErrorIs(t, err, diagnostic.ErrConversion)

	_, _, err = u.UnbindValue(reflect.ValueOf("not a time"))
	require.ErrorIs(t, err, diagnostic.ErrConversion)
}

func TestUnix(t *testing.T) {
	t.Parallel()

	b, u := converter(t, decl.ConverterUnix)
	when := time.Unix(1700000000, 0).UTC()

	raw, vt, err := u.UnbindValue(reflect.ValueOf(&when))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), raw)
	assert.Equal(t, event.TypeInteger, vt)

	got, err := b.BindValue(int64(1700000000), event.TypeInteger, reflect.TypeFor[time.Time]())
	require.NoError(t, err)
	assert.Equal(t, when, got.Interface())

	got, err = b.BindValue(nil, event.TypeNil, reflect.TypeFor[time.Time]())
	require.NoError(t, err)
	assert.True(t, got.Interface().(time.Time).IsZero())
}

func TestText(t *testing.T) {
	t.Parallel()

	b, u := converter(t, decl.ConverterString)

	raw, vt, err := u.UnbindValue(reflect.ValueOf(color(1)))
	require.NoError(t, err)
	assert.Equal(t, "green", raw)
	assert.Equal(t, event.TypeString, vt)

	raw, _, err = u.UnbindValue(reflect.ValueOf(version{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, "1.2", raw)

	raw, _, err = u.UnbindValue(reflect.ValueOf(tag("x")))
	require.NoError(t, err)
	assert.Equal(t, "x", raw)

	got, err := b.BindValue("3.4", event.TypeString, reflect.TypeFor[version]())
	require.NoError(t, err)
	assert.Equal(t, version{3, 4}, got.Interface())

	got, err = b.BindValue("3.4", event.TypeString, reflect.TypeFor[*version]())
	require.NoError(t, err)
	assert.Equal(t, &version{3, 4}, got.Interface())

	got, err = b.BindValue("y", event.TypeString, reflect.TypeFor[tag]())
	require.NoError(t, err)
	assert.Equal(t, tag("y"), got.Interface())

	_, err = b.BindValue("bad", event.TypeString, reflect.TypeFor[version]())
	require.ErrorIs(t, err, diagnostic.ErrConversion)

	_, err = b.BindValue("1", event.TypeString, reflect.TypeFor[color]())
	require.ErrorIs(t, err, diagnostic.ErrConversion)

	_, err = b.BindValue(1, event.TypeInteger, reflect.TypeFor[tag]())
	require.ErrorIs(t, err, diagnostic.ErrConversion)

	_, _, err = u.UnbindValue(reflect.ValueOf(3.5))
	require.ErrorIs(t, err, diagnostic.ErrConversion)
}
