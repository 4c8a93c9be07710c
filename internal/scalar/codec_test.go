package scalar_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/event"
	"xmlrpc-binder/internal/scalar"
)

type level int

func (l level) MarshalText() ([]byte, error) {
	switch l {
	case 1:
		return []byte("low"), nil
	case 2:
		return []byte("high"), nil
	}

	return nil, errors.New("bad level")
}

func (l *level) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "low":
		*l = 1
	case "high":
		*l = 2
	default:
		return errors.New("bad level")
	}

	return nil
}

type label string

func TestCodec_Bind(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		codec   scalar.Codec
		raw     any
		vt      event.ValueType
		target  any
		want    any
		wantErr error
	}{
		{"string", scalar.Default, "foo", event.TypeString, "", "foo", nil},
		{"named string", scalar.Default, "foo", event.TypeString, label(""), label("foo"), nil},
		{"int64 to int", scalar.Default, int64(42), event.TypeInteger, 0, 42, nil},
		{"int to int8", scalar.Default, 100, event.TypeInteger, int8(0), int8(100), nil},
		{"int to int8 overflow", scalar.Default, 300, event.TypeInteger, int8(0), nil, diagnostic.ErrConversion},
		{"negative to uint", scalar.Default, -1, event.TypeInteger, uint(0), nil, diagnostic.ErrConversion},
		{"int to named int", scalar.Default, int64(2), event.TypeInteger, level(0), level(2), nil},
		{"exact int to float", scalar.Default, int64(3), event.TypeInteger, 0.0, 3.0, nil},
		{"fraction to int", scalar.Default, 2.5, event.TypeDouble, 0, nil, diagnostic.ErrConversion},
		{"fraction to int unsafe", scalar.Codec{Allowed: scalar.CategoryUnsafeNumber}, 2.5, event.TypeDouble, 0, 2, nil},
		{"no coercion", scalar.Codec{}, int64(3), event.TypeInteger, 0.0, nil, diagnostic.ErrConversion},
		{"bool", scalar.Default, true, event.TypeBoolean, false, true, nil},
		{"text bool disabled", scalar.Default, "yes", event.TypeString, false, nil, diagnostic.ErrConversion},
		{"text bool", scalar.Codec{Allowed: scalar.CategoryTextualBool}, "yes", event.TypeString, false, true, nil},
		{"numeric bool", scalar.Codec{Allowed: scalar.CategoryNumericBool}, 0, event.TypeInteger, true, false, nil},
		{"text number", scalar.Codec{Allowed: scalar.CategoryTextNumber}, " 17 ", event.TypeString, 0, 17, nil},
		{"number text", scalar.Codec{Allowed: scalar.CategoryTextNumber}, 1.5, event.TypeDouble, "", "1.5", nil},
		{"datetime value", scalar.Default, when, event.TypeDateTime, time.Time{}, when, nil},
		{"datetime text", scalar.Default, "20240301T12:30:00", event.TypeDateTime, time.Time{}, when, nil},
		{"timestamp", scalar.Codec{Allowed: scalar.CategoryTimestamp}, when.Unix(), event.TypeInteger, time.Time{}, when, nil},
		{"duration nanos", scalar.Default, int64(time.Second), event.TypeInteger, time.Duration(0), time.Second, nil},
		{"duration text", scalar.Codec{Allowed: scalar.CategoryDuration}, "1m30s", event.TypeString, time.Duration(0), 90 * time.Second, nil},
		{"base64 text", scalar.Default, "aGk=", event.TypeBase64, []byte(nil), []byte("hi"), nil},
		{"bytes", scalar.Default, []byte("hi"), event.TypeBase64, []byte(nil), []byte("hi"), nil},
		{"enum text", scalar.Codec{Allowed: scalar.CategoryEnumString}, "HIGH", event.TypeString, level(0), level(2), nil},
		{"enum text disabled", scalar.Default, "high", event.TypeString, level(0), nil, diagnostic.ErrConversion},
		{"nil to zero", scalar.Default, nil, event.TypeNil, 0, 0, nil},
		{"pointer", scalar.Default, "foo", event.TypeString, (*string)(nil), ptr("foo"), nil},
		{"interface", scalar.Default, int64(5), event.TypeInteger, (*any)(nil), int64(5), nil},
		{"struct target", scalar.Default, "foo", event.TypeString, struct{}{}, nil, diagnostic.ErrUnboundField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := reflect.TypeOf(tt.target)
			if target.Kind() == reflect.Pointer && target.Elem().Kind() == reflect.Interface {
				target = target.Elem()
			}

			got, err := tt.codec.Bind(tt.raw, tt.vt, target)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Equal(t, target, got.Type())
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

func TestCodec_Unbind(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		codec  scalar.Codec
		value  any
		want   any
		wantVT event.ValueType
	}{
		{"string", scalar.Default, "foo", "foo", event.TypeString},
		{"named string", scalar.Default, label("x"), "x", event.TypeString},
		{"int8", scalar.Default, int8(-3), int64(-3), event.TypeInteger},
		{"uint16", scalar.Default, uint16(9), int64(9), event.TypeInteger},
		{"float32", scalar.Default, float32(0.5), 0.5, event.TypeDouble},
		{"bool", scalar.Default, true, true, event.TypeBoolean},
		{"time", scalar.Default, when, when, event.TypeDateTime},
		{"duration", scalar.Default, time.Second, int64(time.Second), event.TypeInteger},
		{"duration text", scalar.Codec{Allowed: scalar.CategoryDuration}, time.Second, "1s", event.TypeString},
		{"bytes", scalar.Default, []byte("hi"), []byte("hi"), event.TypeBase64},
		{"enum", scalar.Default, level(2), int64(2), event.TypeInteger},
		{"enum text", scalar.Codec{Allowed: scalar.CategoryEnumString}, level(2), "high", event.TypeString},
		{"pointer", scalar.Default, ptr("foo"), "foo", event.TypeString},
		{"nil pointer", scalar.Default, (*string)(nil), nil, event.TypeNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, vt, err := tt.codec.Unbind(reflect.ValueOf(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.wantVT, vt)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodec_UnbindErrors(t *testing.T) {
	t.Parallel()

	_, _, err := scalar.Default.Unbind(reflect.ValueOf(uint64(1 << 63)))
	require.ErrorIs(t, err, diagnostic.ErrConversion)

	_, _, err = scalar.Default.Unbind(reflect.ValueOf(struct{ A int }{}))
	require.ErrorIs(t, err, diagnostic.ErrUnboundField)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	values := []any{"s", 7, int8(-1), uint32(99), 1.25, float32(2), false, time.Minute, []byte{1, 2}, label("l"), level(1)}
	for _, v := range values {
		raw, vt, err := scalar.Default.Unbind(reflect.ValueOf(v))
		require.NoError(t, err)

		back, err := scalar.Default.Bind(raw, vt, reflect.TypeOf(v))
		require.NoError(t, err, "%T", v)
		assert.Equal(t, v, back.Interface())
	}
}

func TestParseCategories(t *testing.T) {
	t.Parallel()

	c, err := scalar.ParseCategories("safe-number", " Textual-Bool ", "")
	require.NoError(t, err)
	assert.Equal(t, scalar.CategorySafeNumber|scalar.CategoryTextualBool, c)
	assert.Equal(t, "safe-number,textual-bool", c.String())

	all, err := scalar.ParseCategories("all")
	require.NoError(t, err)
	assert.Equal(t, scalar.Category(scalar.CategoryAll), all)

	_, err = scalar.ParseCategories("bogus")
	require.ErrorIs(t, err, diagnostic.ErrInvalidDeclaration)

	assert.Equal(t, "none", scalar.Category(scalar.CategoryNone).String())
}

func TestCategory_Permits(t *testing.T) {
	t.Parallel()

	safe := scalar.CategorySafeNumber
	assert.True(t, safe.Permits(scalar.ConversionPair{From: scalar.KindInt32, To: scalar.KindFloat64}))
	assert.False(t, safe.Permits(scalar.ConversionPair{From: scalar.KindInt64, To: scalar.KindFloat32}))
	assert.True(t, scalar.CategoryUnsafeNumber.Permits(scalar.ConversionPair{From: scalar.KindInt64, To: scalar.KindFloat32}))
	assert.False(t, scalar.Category(scalar.CategoryNone).Permits(scalar.ConversionPair{From: scalar.KindString, To: scalar.KindBool}))

	lossless := []struct {
		from, to scalar.Kind
		want     bool
	}{
		{scalar.KindInt8, scalar.KindInt8, true},
		{scalar.KindInt32, scalar.KindInt, true},
		{scalar.KindInt, scalar.KindInt64, true},
		{scalar.KindInt64, scalar.KindInt, false},
		{scalar.KindInt8, scalar.KindUint64, false},
		{scalar.KindUint8, scalar.KindInt16, true},
		{scalar.KindUint16, scalar.KindInt16, false},
		{scalar.KindUint32, scalar.KindInt64, true},
		{scalar.KindUint32, scalar.KindInt, false},
		{scalar.KindUint16, scalar.KindFloat32, true},
		{scalar.KindInt32, scalar.KindFloat32, false},
		{scalar.KindFloat32, scalar.KindFloat64, true},
		{scalar.KindFloat64, scalar.KindFloat32, false},
		{scalar.KindFloat32, scalar.KindInt64, false},
	}

	for _, tt := range lossless {
		pair := scalar.ConversionPair{From: tt.from, To: tt.to}
		assert.Equal(t, tt.want, safe.Permits(pair), "%v -> %v", tt.from, tt.to)
		assert.Equal(t, !tt.want, scalar.CategoryUnsafeNumber.Permits(pair), "%v -> %v", tt.from, tt.to)
	}

	// Every category other than the number ones converts both ways.
	symmetric := scalar.CategoryAll &^ (scalar.CategorySafeNumber | scalar.CategoryUnsafeNumber)
	for from := range scalar.Kind(scalar.KindTotal) {
		for to := range scalar.Kind(scalar.KindTotal) {
			there := symmetric.Permits(scalar.ConversionPair{From: from, To: to})
			back := symmetric.Permits(scalar.ConversionPair{From: to, To: from})
			assert.Equal(t, there, back, "%v <-> %v", from, to)
		}
	}

	assert.True(t, scalar.CategoryNanoseconds.Permits(scalar.ConversionPair{From: scalar.KindInt64, To: scalar.KindDuration}))
	assert.False(t, scalar.CategoryNanoseconds.Permits(scalar.ConversionPair{From: scalar.KindUint64, To: scalar.KindDuration}))
	assert.True(t, scalar.CategorySeconds.Permits(scalar.ConversionPair{From: scalar.KindDuration, To: scalar.KindFloat64}))
	assert.False(t, scalar.CategoryTimestamp.Permits(scalar.ConversionPair{From: scalar.KindFloat64, To: scalar.KindTime}))
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	want := time.Date(1998, 7, 17, 14, 8, 55, 0, time.UTC)
	for _, s := range []string{"19980717T14:08:55", "1998-07-17T14:08:55Z", "1998-07-17T14:08:55"} {
		got, err := scalar.ParseTime(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	assert.Equal(t, "19980717T14:08:55", scalar.FormatISO8601(want))

	_, err := scalar.ParseTime("yesterday")
	require.ErrorIs(t, err, diagnostic.ErrConversion)
}

func ptr[T any](v T) *T { return &v }
