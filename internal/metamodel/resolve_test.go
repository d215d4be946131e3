package metamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewmeta/internal/diagnostic"
	"viewmeta/internal/expr"
)

func TestResolve_EmbeddableOwner(t *testing.T) {
	country := view("CountryView", "Country", idAttr("id", "string"))
	address := view("AddressView", "Address", getter("city", "string"), getter("country", "CountryView"))
	person := view("PersonView", "Person", idAttr("id", "int64"), getter("address", "AddressView"))

	c := newTestContext(t, DefaultConfig(), country, address, person)
	_, err := c.Build()
	require.NoError(t, err)

	id := mustID(t, c, "AddressView")
	owner := EmbeddableOwner{OwnerType: "Person", Path: "address"}

	assert.Equal(t, []expr.TargetType{{LeafBaseType: "Country"}}, c.PossibleTargets(id, "country", EmbeddableOwner{}))
	assert.Equal(t, []expr.TargetType{{LeafBaseType: "SpecialCountry"}}, c.PossibleTargets(id, "country", owner))
	assert.Equal(t, []expr.TargetType{{LeafBaseType: "string"}}, c.PossibleTargets(id, "city", owner))
	assert.Nil(t, c.PossibleTargets(id, "country", EmbeddableOwner{OwnerType: "Person", Path: "missing"}))
	assert.Nil(t, c.PossibleTargets(id, "missing", EmbeddableOwner{}))

	am := c.Mapping(id).Attribute("city")
	assert.Equal(t, "attribute city[AddressView.City] reached through Person.address", c.location(am, owner))
	assert.Equal(t, "attribute city[AddressView.City]", c.location(am, EmbeddableOwner{}))
}

func TestResolve_EmbeddableOwnerString(t *testing.T) {
	assert.Equal(t, "<root>", EmbeddableOwner{}.String())

	o := EmbeddableOwner{}.child("Person", "address")
	assert.Equal(t, EmbeddableOwner{OwnerType: "Person", Path: "address"}, o)
	assert.Equal(t, "Person.address.inner", o.child("Ignored", "inner").String())
}

func TestResolve_TypeChecks(t *testing.T) {
	tests := []struct {
		name    string
		attr    *AttributeMapping
		code    string
		message string
	}{
		{
			name:    "pointer counterpart",
			attr:    getter("name", "*string"),
		},
		{
			name:    "any",
			attr:    getter("name", "any"),
		},
		{
			name:    "managed subtype",
			attr:    mapped(getter("home", "Country"), ExpressionMapping("address.country")),
		},
		{
			name: "basic mismatch",
			attr: getter("name", "int64"),
			code: diagnostic.CodeTypeMismatch,
			message: "The resolved possible types [string] are not assignable to the given expression type 'int64' " +
				"of the mapping expression declared by the attribute name[PersonView.Name]!",
		},
		{
			name: "plural target for singular attribute",
			attr: getter("cats", "Cat"),
			code: diagnostic.CodeTypeMismatch,
			message: "The resolved possible types [set<Cat>] are not assignable to the given expression type 'Cat' " +
				"of the mapping expression declared by the attribute cats[PersonView.Cats]!",
		},
		{
			name: "unrelated view",
			attr: getter("friend", "CatView"),
			code: diagnostic.CodeTypeMismatch,
		},
		{
			name:    "missing type",
			attr:    getter("name", ""),
			code:    diagnostic.CodeUnresolvableType,
			message: "The type of the attribute name[PersonView.Name] could not be resolved!",
		},
		{
			name:    "missing element type",
			attr:    plural("cats", ContainerSet, ""),
			code:    diagnostic.CodeUnresolvableType,
			message: "The element type of the attribute cats[PersonView.Cats] could not be resolved!",
		},
		{
			name: "syntax error",
			attr: mapped(getter("name", "string"), ExpressionMapping("name +")),
			code: diagnostic.CodeExpressionSyntax,
		},
		{
			name: "unknown path",
			attr: mapped(getter("name", "string"), ExpressionMapping("nmae")),
			code: diagnostic.CodeExpressionResolution,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			catView := view("CatView", "Cat", idAttr("id", "int64"))
			person := view("PersonView", "Person", test.attr)

			_, diags := Build(testCatalog(t), nil, DefaultConfig(), catView, person)
			if test.code == "" {
				assert.False(t, diags.HasErrors(), diags.Summary())
				return
			}

			require.Len(t, diags.Errors, 1, diags.Summary())
			assert.Equal(t, test.code, diags.Errors[0].Code)
			assert.Equal(t, "PersonView", diags.Errors[0].View)

			if test.message != "" {
				assert.Equal(t, test.message, diags.Errors[0].Message)
			}
		})
	}
}

func TestResolve_ExpressionErrorMessages(t *testing.T) {
	person := view("PersonView", "Person", mapped(getter("name", "string"), ExpressionMapping("nmae")))

	_, diags := Build(testCatalog(t), nil, DefaultConfig(), person)
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0].Message,
		"The mapping expression of the attribute name[PersonView.Name] could not be resolved: ")
	assert.Contains(t, diags.Errors[0].Message, "did you mean name")
}

func TestResolve_Correlated(t *testing.T) {
	simple := getter("catName", "string")
	simple.Mapping = Mapping{Kind: MappingCorrelatedSimple, Correlation: Correlation{Entity: "Cat", Basis: "id", Result: "name"}}

	whole := getter("cat", "CatView")
	whole.Mapping = Mapping{Kind: MappingCorrelatedSimple, Correlation: Correlation{Entity: "Cat", Basis: "id"}}

	provided := plural("cats", ContainerList, "CatView")
	provided.Mapping = Mapping{Kind: MappingCorrelated, Correlation: Correlation{Provider: "CatsByOwner", Basis: "id"}}

	catView := view("CatView", "Cat", idAttr("id", "int64"))
	person := view("PersonView", "Person", idAttr("id", "int64"), simple, whole, provided)

	mm, diags := Build(testCatalog(t), nil, DefaultConfig(), catView, person)
	require.False(t, diags.HasErrors(), diags.Summary())

	v := mm.View("PersonView")

	a := v.Attribute("catName")
	assert.Equal(t, KindCorrelatedSingular, a.Kind)
	assert.Equal(t, []expr.TargetType{{LeafBaseType: "string"}}, a.PossibleTargets)
	assert.Equal(t, "string", a.Type.Name)

	a = v.Attribute("cat")
	assert.Equal(t, []expr.TargetType{{LeafBaseType: "Cat"}}, a.PossibleTargets)
	assert.Same(t, mm.View("CatView"), a.Type.View)

	a = v.Attribute("cats")
	assert.Equal(t, KindCorrelatedList, a.Kind)
	assert.Empty(t, a.PossibleTargets)
	assert.Same(t, mm.View("CatView"), a.Type.View)
}

func TestResolve_CorrelatedErrors(t *testing.T) {
	bird := getter("bird", "string")
	bird.Mapping = Mapping{Kind: MappingCorrelatedSimple, Correlation: Correlation{Entity: "Bird", Basis: "id"}}

	_, diags := Build(testCatalog(t), nil, DefaultConfig(), view("PersonView", "Person", bird))
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, diagnostic.CodeUnknownEntity, diags.Errors[0].Code)
	assert.Equal(t,
		"The correlated entity type 'Bird' of the attribute bird[PersonView.Bird] is not a known managed type!",
		diags.Errors[0].Message)

	byName := NewMethodAttribute("catsByName", "", "CatsByName")
	byName.Declared = DeclaredType{Type: "map[string]string", Container: ContainerMap, KeyType: "string", ElementType: "string"}
	byName.Mapping = Mapping{Kind: MappingCorrelatedSimple, Correlation: Correlation{Entity: "Cat", Basis: "id", Result: "name"}}

	_, diags = Build(testCatalog(t), nil, DefaultConfig(), view("PersonView", "Person", byName))
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, diagnostic.CodeCorrelatedMap, diags.Errors[0].Code)
	assert.Equal(t,
		"The mapping defined on the attribute catsByName[PersonView.CatsByName] uses a map type with a correlated mapping which is unsupported!",
		diags.Errors[0].Message)

	badBasis := getter("catName", "string")
	badBasis.Mapping = Mapping{Kind: MappingCorrelatedSimple, Correlation: Correlation{Entity: "Cat", Basis: "nope", Result: "name"}}

	_, diags = Build(testCatalog(t), nil, DefaultConfig(), view("PersonView", "Person", badBasis))
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, diagnostic.CodeExpressionResolution, diags.Errors[0].Code)
}

func TestResolve_FailedExpressionKeepsDeclaredType(t *testing.T) {
	person := view("PersonView", "Person", mapped(getter("name", "string"), ExpressionMapping("nmae")))

	mm, _ := Build(testCatalog(t), nil, DefaultConfig(), person)

	a := mm.View("PersonView").Attribute("name")
	assert.Empty(t, a.PossibleTargets)
	require.NotNil(t, a.Type)
	assert.Equal(t, "string", a.Type.Name)
}
