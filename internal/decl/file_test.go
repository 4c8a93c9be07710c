package decl_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/diagnostic"
	"xmlrpc-binder/internal/mapping"
)

type session struct {
	Token   string
	Expires int64
	Roles   []string
	Scratch string
}

func newSession(token string) (*session, error) {
	return &session{Token: token}, nil
}

type fault struct {
	_      struct{} `xmlrpc:"struct"`
	Code   int      `xmlrpc:"key=faultCode"`
	Reason string   `xmlrpc:"key=faultString"`
}

const sessionYAML = `
version: "1"
types:
  - type: decl_test.session
    shape: array
    factory: session
    constructor: [0]
    imports: [fault]
    fields:
      Token:   { index: 0, final: true }
      Expires: { index: 1, via: unix }
      Roles:   { index: 2, contains: decl_test.tag }
      Scratch: { ignore: true }
`

func TestParse(t *testing.T) {
	t.Parallel()

	f, err := decl.Parse([]byte(sessionYAML))
	require.NoError(t, err)

	assert.Equal(t, "1", f.Version)
	require.Len(t, f.Types, 1)

	td := f.Types[0]
	assert.Equal(t, "decl_test.session", td.Type)
	assert.Equal(t, "array", td.Shape)
	assert.Equal(t, decl.Refs{0}, td.Constructor)
	assert.Equal(t, []string{"fault"}, td.Imports)
	require.Len(t, td.Fields, 4)
	require.NotNil(t, td.Fields["Token"].Index)
	assert.Equal(t, 0, *td.Fields["Token"].Index)
	assert.True(t, td.Fields["Token"].Final)
	assert.Equal(t, "unix", td.Fields["Expires"].Via)
	assert.True(t, td.Fields["Scratch"].Ignore)
}

func TestParse_Refs(t *testing.T) {
	t.Parallel()

	f, err := decl.Parse([]byte(`
types:
  - type: a
    constructor: [name, 1, "2"]
  - type: b
    constructor: id
`))
	require.NoError(t, err)

	assert.Equal(t, "1", f.Version, "version defaults to 1")
	assert.Equal(t, decl.Refs{"name", 1, "2"}, f.Types[0].Constructor)
	assert.Equal(t, decl.Refs{"id"}, f.Types[1].Constructor)

	_, err = decl.Parse([]byte("types:\n  - type: a\n    constructor: {a: 1}\n"))
	require.ErrorIs(t, err, diagnostic.ErrInvalidDeclaration)
}

func TestApply(t *testing.T) {
	t.Parallel()

	reg := decl.NewRegistry()
	reg.Register(session{}, fault{}, tag(""))
	require.NoError(t, reg.RegisterFactory("session", newSession))

	f, err := decl.Parse([]byte(sessionYAML))
	require.NoError(t, err)
	require.NoError(t, decl.Apply(reg, f))

	d, err := reg.Lookup(reflect.TypeFor[session]())
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.Equal(t, mapping.ShapeArray, d.Shape)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[fault]()}, d.Imports)
	require.NotNil(t, d.Constructor)
	assert.Equal(t, []int{0}, d.Constructor.Indexes)

	token, _ := d.Field("Token")
	assert.True(t, token.Final)

	expires, _ := d.Field("Expires")
	assert.Equal(t, "unix", expires.BindVia)
	assert.Equal(t, "unix", expires.UnbindVia)

	roles, _ := d.Field("Roles")
	assert.Equal(t, reflect.TypeFor[tag](), roles.Contains)

	scratch, _ := d.Field("Scratch")
	assert.True(t, scratch.Ignore)
}

func TestApply_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{"unknown type", "types:\n  - type: decl_test.sesion\n", `did you mean "decl_test.session"?`},
		{"unknown import", "types:\n  - type: session\n    imports: [nope]\n", "unknown type"},
		{"unknown factory", "types:\n  - type: session\n    factory: other\n", `unknown factory "other"`},
		{"bad shape", "types:\n  - type: session\n    shape: tuple\n", "invalid shape"},
		{"unknown field", "types:\n  - type: session\n    shape: array\n    fields:\n      Tokn: {index: 0}\n", `did you mean "Token"?`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := decl.NewRegistry()
			reg.Register(session{})

			f, err := decl.Parse([]byte(tt.yaml))
			require.NoError(t, err)

			err = decl.Apply(reg, f)
			require.Error(t, err)
			assert.ErrorIs(t, err, diagnostic.ErrInvalidDeclaration)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "decl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sessionYAML), 0o600))

	f, err := decl.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Types, 1)

	data, err := decl.Marshal(f)
	require.NoError(t, err)

	again, err := decl.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, f, again)

	_, err = decl.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestResolveTypeName(t *testing.T) {
	t.Parallel()

	full := []string{
		"example.com/app/store.Order",
		"example.com/app/warehouse.Order",
		"example.com/app/store.Item",
	}

	tests := []struct {
		name  string
		want  int
		found bool
	}{
		{"example.com/app/warehouse.Order", 1, true},
		{"warehouse.Order", 1, true},
		{"app/store.Item", 2, true},
		{"Item", 2, true},
		{"Order", 0, true},
		{"store.Missing", -1, false},
		{"other.Order", -1, false},
		{"", -1, false},
		{".Order", -1, false},
	}

	for _, tt := range tests {
		got, ok := decl.ResolveTypeName(tt.name, full)
		assert.Equal(t, tt.found, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestSchema(t *testing.T) {
	t.Parallel()

	data, err := decl.Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "object", doc["type"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "version")
	assert.Contains(t, props, "types")
	assert.Contains(t, string(data), `"request"`)
	assert.Contains(t, string(data), `"constructor"`)
}

func TestParseTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag     string
		want    decl.FieldSpec
		wantErr bool
	}{
		{tag: "index=2,final", want: decl.FieldSpec{Index: ptr(2), Final: true}},
		{tag: "key=when,via=iso8601", want: decl.FieldSpec{Key: "when", Via: "iso8601"}},
		{tag: "bind=a,unbind=b", want: decl.FieldSpec{Bind: "a", Unbind: "b"}},
		{tag: "-", want: decl.FieldSpec{Ignore: true}},
		{tag: "index=1,key=x", wantErr: true},
		{tag: "weird", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()

			got, err := decl.ParseTag(tt.tag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, decl.IsBuiltinConverter("unix"))
	assert.False(t, decl.IsBuiltinConverter("upper"))
}

func ptr[T any](v T) *T { return &v }
