package metamodel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"viewmeta/internal/catalog"
	"viewmeta/internal/common"
)

func basicAttr(typ string) *catalog.Attribute {
	return &catalog.Attribute{Type: typ, Accessor: catalog.Accessor{Exported: true}}
}

func refAttr(kind catalog.AttributeKind, typ string) *catalog.Attribute {
	return &catalog.Attribute{Kind: kind, Type: typ, Accessor: catalog.Accessor{Exported: true}}
}

// testCatalog models people owning cats, an embedded address and an
// animal hierarchy.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	c := catalog.New()
	types := []*catalog.ManagedType{
		{
			Name:    "Person",
			ID:      "id",
			Version: "version",
			Attributes: map[string]*catalog.Attribute{
				"id":      basicAttr("int64"),
				"version": basicAttr("int64"),
				"name":    basicAttr("string"),
				"address": {
					Kind:      catalog.AttrEmbedded,
					Type:      "Address",
					Overrides: map[string]string{"country": "SpecialCountry"},
					Accessor:  catalog.Accessor{Exported: true},
				},
				"cats":    refAttr(catalog.AttrSet, "Cat"),
				"friends": refAttr(catalog.AttrSet, "Person"),
				"friend":  refAttr(catalog.AttrToOne, "Person"),
			},
		},
		{
			Name: "Cat",
			ID:   "id",
			Attributes: map[string]*catalog.Attribute{
				"id":    basicAttr("int64"),
				"name":  basicAttr("string"),
				"owner": refAttr(catalog.AttrToOne, "Person"),
			},
		},
		{
			Name: "Address",
			Kind: catalog.KindEmbeddable,
			Attributes: map[string]*catalog.Attribute{
				"city":    basicAttr("string"),
				"country": refAttr(catalog.AttrToOne, "Country"),
			},
		},
		{Name: "Country", ID: "id", Attributes: map[string]*catalog.Attribute{
			"id": basicAttr("string"), "name": basicAttr("string"),
		}},
		{Name: "SpecialCountry", Super: "Country"},
		{Name: "Animal", ID: "id", Abstract: true, Attributes: map[string]*catalog.Attribute{
			"id": basicAttr("int64"), "name": basicAttr("string"),
		}},
		{Name: "Dog", Super: "Animal", Attributes: map[string]*catalog.Attribute{
			"bark": basicAttr("string"),
		}},
		{Name: "Document", ID: "id", Version: "label", Attributes: map[string]*catalog.Attribute{
			"id":     basicAttr("int64"),
			"label":  basicAttr("string"),
			"secret": {Type: "string", Accessor: catalog.Accessor{Package: "internal/store"}},
		}},
	}

	for _, mt := range types {
		require.NoError(t, c.Add(mt))
	}

	require.NoError(t, c.Validate())

	return c
}

// view creates an abstract view with the given attributes.
func view(name, entity string, attrs ...*AttributeMapping) *ViewMapping {
	vm := NewViewMapping(name, entity)
	vm.Package = "views"
	vm.Abstract = true

	for _, am := range attrs {
		if am.DeclaringType == "" && !am.IsParameterBound() {
			am.DeclaringType = name
		}

		vm.AddAttribute(am)
	}

	return vm
}

func getter(name, typ string) *AttributeMapping {
	am := NewMethodAttribute(name, "", common.UpperFirst(name))
	am.Declared = DeclaredType{Type: typ}

	return am
}

func withSetter(am *AttributeMapping) *AttributeMapping {
	am.Setter = "Set" + common.UpperFirst(am.Name)
	return am
}

func plural(name string, container Container, elem string) *AttributeMapping {
	am := NewMethodAttribute(name, "", common.UpperFirst(name))
	am.Declared = DeclaredType{Type: "[]" + elem, Container: container, ElementType: elem}

	return am
}

func mapped(am *AttributeMapping, m Mapping) *AttributeMapping {
	am.Mapping = m
	return am
}

func idAttr(name, typ string) *AttributeMapping {
	return mapped(getter(name, typ), IDMapping(name))
}

func updatable(vm *ViewMapping) *ViewMapping {
	vm.Updatable = &UpdatableDecl{}
	return vm
}

func creatable(vm *ViewMapping) *ViewMapping {
	vm.Creatable = &CreatableDecl{}
	return vm
}

func extends(vm *ViewMapping, supertypes ...string) *ViewMapping {
	vm.Supertypes = append(vm.Supertypes, supertypes...)
	return vm
}

func ptr[T any](v T) *T {
	return &v
}

func newTestContext(t *testing.T, cfg Config, mappings ...*ViewMapping) *Context {
	t.Helper()

	c := NewContext(testCatalog(t), nil, cfg)
	for _, vm := range mappings {
		c.Register(vm)
	}

	return c
}

func codes(c *Context) []string {
	var out []string
	for _, d := range c.Diagnostics().Errors {
		out = append(out, d.Code)
	}

	return out
}

func mustID(t *testing.T, c *Context, name string) NodeID {
	t.Helper()

	id, ok := c.Lookup(name)
	require.True(t, ok, "view %s is not registered", name)

	return id
}
