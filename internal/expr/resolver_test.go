package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewmeta/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	c := catalog.New()
	types := []*catalog.ManagedType{
		{
			Name: "Person",
			ID:   "id",
			Attributes: map[string]*catalog.Attribute{
				"id":   {Type: "int64"},
				"name": {Type: "string"},
				"age":  {Type: "int"},
				"address": {
					Kind:      catalog.AttrEmbedded,
					Type:      "Address",
					Overrides: map[string]string{"country": "SpecialCountry"},
				},
				"pets":   {Kind: catalog.AttrList, Type: "Animal"},
				"tags":   {Kind: catalog.AttrSet, Type: "string"},
				"props":  {Kind: catalog.AttrMap, Type: "string", KeyType: "string"},
				"friend": {Kind: catalog.AttrToOne, Type: "Person"},
			},
		},
		{
			Name: "Address",
			Kind: catalog.KindEmbeddable,
			Attributes: map[string]*catalog.Attribute{
				"city":    {Type: "string"},
				"country": {Kind: catalog.AttrToOne, Type: "Country"},
			},
		},
		{Name: "Country", ID: "id", Attributes: map[string]*catalog.Attribute{
			"id": {Type: "string"}, "name": {Type: "string"},
		}},
		{Name: "SpecialCountry", Super: "Country"},
		{Name: "Animal", ID: "id", Attributes: map[string]*catalog.Attribute{
			"id": {Type: "int64"}, "name": {Type: "string"},
		}},
	}

	for _, mt := range types {
		require.NoError(t, c.Add(mt))
	}

	return c
}

func TestPathResolver_Resolve(t *testing.T) {
	c := testCatalog(t)
	r := NewPathResolver(c)
	person, _ := c.ManagedType("Person")

	tests := []struct {
		expr     string
		expected []TargetType
	}{
		{"name", []TargetType{{LeafBaseType: "string"}}},
		{"this.name", []TargetType{{LeafBaseType: "string"}}},
		{"this", []TargetType{{LeafBaseType: "Person"}}},
		{"address.city", []TargetType{{LeafBaseType: "string"}}},
		{"friend.friend.name", []TargetType{{LeafBaseType: "string"}}},
		{"pets", []TargetType{{LeafBaseType: "list", LeafElementType: "Animal"}}},
		{"props", []TargetType{{LeafBaseType: "map", LeafKeyType: "string", LeafElementType: "string"}}},
		{"pets.name", []TargetType{{LeafBaseType: "string", CollectionJoin: true}}},
		{"pets[0]", []TargetType{{LeafBaseType: "Animal", CollectionJoin: true}}},
		{`props["a"]`, []TargetType{{LeafBaseType: "string", CollectionJoin: true}}},
		{"KEY(props)", []TargetType{{LeafBaseType: "string", CollectionJoin: true}}},
		{"VALUE(pets).name", []TargetType{{LeafBaseType: "string", CollectionJoin: true}}},
		{"INDEX(pets)", []TargetType{{LeafBaseType: "int", CollectionJoin: true}}},
		{"SIZE(pets)", []TargetType{{LeafBaseType: "int64"}}},
		{"TYPE(this)", []TargetType{{LeafBaseType: "string"}}},
		{`COALESCE(name, "x")`, []TargetType{{LeafBaseType: "string"}}},
		{"COALESCE(age, name)", []TargetType{{LeafBaseType: "int"}, {LeafBaseType: "string"}}},
		{"UPPER(name)", []TargetType{{LeafBaseType: "string"}}},
		{"age + 1", []TargetType{{LeafBaseType: "int"}}},
		{"age > 1", []TargetType{{LeafBaseType: "bool"}}},
		{"!(age > 1)", []TargetType{{LeafBaseType: "bool"}}},
		{`age > 1 ? name : "none"`, []TargetType{{LeafBaseType: "string"}}},
		{"Country.name", []TargetType{{LeafBaseType: "string"}}},
		{"1.5", []TargetType{{LeafBaseType: "float64"}}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.Resolve(tt.expr, person, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPathResolver_RootAttributeOverrides(t *testing.T) {
	c := testCatalog(t)
	r := NewPathResolver(c)
	person, _ := c.ManagedType("Person")
	address, _ := c.ManagedType("Address")

	got, err := r.Resolve("country", address, nil)
	require.NoError(t, err)
	assert.Equal(t, []TargetType{{LeafBaseType: "Country"}}, got)

	owner := person.Attributes["address"]

	got, err = r.Resolve("country", address, owner)
	require.NoError(t, err)
	assert.Equal(t, []TargetType{{LeafBaseType: "SpecialCountry"}}, got)

	got, err = r.Resolve("country.name", address, owner)
	require.NoError(t, err)
	assert.Equal(t, []TargetType{{LeafBaseType: "string"}}, got)
}

func TestPathResolver_SyntaxErrors(t *testing.T) {
	c := testCatalog(t)
	r := NewPathResolver(c)
	person, _ := c.ManagedType("Person")

	for _, src := range []string{"", "   ", "name.", "(name"} {
		_, err := r.Resolve(src, person, nil)

		var syntaxErr *SyntaxError
		require.True(t, errors.As(err, &syntaxErr), "expected syntax error for %q, got %v", src, err)
		assert.Equal(t, src, syntaxErr.Expression)
	}
}

func TestPathResolver_ResolutionErrors(t *testing.T) {
	c := testCatalog(t)
	r := NewPathResolver(c)
	person, _ := c.ManagedType("Person")

	tests := []struct {
		expr     string
		contains string
	}{
		{"name.length", "cannot be dereferenced"},
		{"FOO(name)", "unknown function FOO"},
		{"KEY(tags)", "KEY requires a map or list"},
		{"INDEX(props)", "INDEX requires a list"},
		{"VALUE(name)", "requires a plural argument"},
		{"name[0]", "index access on singular"},
		{"SIZE(pets, tags)", "exactly one argument"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := r.Resolve(tt.expr, person, nil)

			var resErr *ResolutionError
			require.True(t, errors.As(err, &resErr), "expected resolution error, got %v", err)
			assert.Contains(t, resErr.Error(), tt.contains)
		})
	}
}

func TestPathResolver_Suggestions(t *testing.T) {
	c := testCatalog(t)
	r := NewPathResolver(c)
	person, _ := c.ManagedType("Person")

	_, err := r.Resolve("nam", person, nil)

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "Person", resErr.Type)
	assert.Contains(t, resErr.Suggestions, "name")
	assert.Contains(t, resErr.Error(), "did you mean")
}

func TestPathResolver_NilRoot(t *testing.T) {
	r := NewPathResolver(catalog.New())

	_, err := r.Resolve("name", nil, nil)

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
}
