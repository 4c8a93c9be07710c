package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWirePath(t *testing.T) {
	// Simple path
	p1 := NewWirePath("store.PlaceOrder")
	assert.Equal(t, "store.PlaceOrder", p1.String())

	// Parameter
	p2 := p1.Index(1)
	assert.Equal(t, "store.PlaceOrder[1]", p2.String())

	// Collection elements
	p3 := p2.Elem()
	assert.Equal(t, "store.PlaceOrder[1][]", p3.String())

	// Slot of an element
	p4 := p3.Index(0)
	assert.Equal(t, "store.PlaceOrder[1][][0]", p4.String())

	// Struct member and map member
	p5 := p1.Index(0).Key("email")
	assert.Equal(t, "store.PlaceOrder[0].email", p5.String())
	assert.Equal(t, "store.PlaceOrder[0].*", p1.Index(0).Member().String())

	// Parents are not modified
	assert.Equal(t, "store.PlaceOrder[1]", p2.String())
}

func TestTypeStringer_TypeString(t *testing.T) {
	graph := loadStore(t)
	stringer := NewTypeStringer()

	order := graph.GetType(TypeID{PkgPath: storePkg, Name: "Order"})
	require.NotNil(t, order)
	assert.Equal(t, "store.Order", stringer.TypeString(order))

	want := map[string]string{
		"ID":        "int64",
		"Status":    "store.OrderStatus",
		"Items":     "[]store.OrderItem",
		"OrderedAt": "time.Time",
	}

	for name, typ := range want {
		assert.Equal(t, typ, stringer.TypeString(fieldOf(t, order, name).Type), name)
	}

	customer := graph.GetType(TypeID{PkgPath: storePkg, Name: "Customer"})
	require.NotNil(t, customer)
	assert.Equal(t, "*string", stringer.TypeString(fieldOf(t, customer, "Address").Type))
}

func TestTypeStringer_SourceTypes(t *testing.T) {
	graph := analyzeSource(t, `package shop

type Bag struct {
	_ struct{} 'xmlrpc:"struct"'

	Counts map[string]int 'xmlrpc:"key=counts"'
	Any    any            'xmlrpc:"key=any"'
	Pair   [2]bool        'xmlrpc:"key=pair"'
}
`)

	bag := graph.GetType(TypeID{PkgPath: "example.com/shop", Name: "Bag"})
	require.NotNil(t, bag)

	stringer := NewTypeStringer()
	assert.Equal(t, "map[string]int", stringer.TypeString(fieldOf(t, bag, "Counts").Type))
	assert.Equal(t, "any", stringer.TypeString(fieldOf(t, bag, "Any").Type))
	assert.Equal(t, "[...]bool", stringer.TypeString(fieldOf(t, bag, "Pair").Type))
}

func TestTypeStringer_WirePaths(t *testing.T) {
	graph := loadStore(t)

	req := graph.GetType(TypeID{PkgPath: storePkg, Name: "PlaceOrder"})
	require.NotNil(t, req)

	entries := NewTypeStringer().WirePaths(req, 3)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}

	assert.Equal(t, []string{
		"store.PlaceOrder[0]",
		"store.PlaceOrder[0].id",
		"store.PlaceOrder[0].email",
		"store.PlaceOrder[0].name",
		"store.PlaceOrder[0].address",
		"store.PlaceOrder[0].active",
		"store.PlaceOrder[1]",
		"store.PlaceOrder[1][][0]",
		"store.PlaceOrder[1][][1]",
		"store.PlaceOrder[1][][2]",
		"store.PlaceOrder[2]",
	}, paths)

	assert.Equal(t, "Note", entries[len(entries)-1].Field.Name)
	assert.Equal(t, "*string", entries[len(entries)-1].Type)
}

func TestTypeStringer_WirePathsRecursive(t *testing.T) {
	graph := analyzeSource(t, `package shop

type Node struct {
	_ struct{} 'xmlrpc:"struct"'

	Name     string  'xmlrpc:"key=name"'
	Children []*Node 'xmlrpc:"key=children"'
}
`)

	node := graph.GetType(TypeID{PkgPath: "example.com/shop", Name: "Node"})
	require.NotNil(t, node)

	var paths []string
	for _, e := range NewTypeStringer().WirePaths(node, 1) {
		paths = append(paths, e.Path)
	}

	assert.Equal(t, []string{
		"shop.Node.name",
		"shop.Node.children",
		"shop.Node.children[].name",
		"shop.Node.children[].children",
	}, paths)
}

func TestTypeStringer_NilType(t *testing.T) {
	stringer := NewTypeStringer()
	assert.Equal(t, "<nil>", stringer.TypeString(nil))
	assert.Nil(t, stringer.WirePaths(nil, 1))
}
