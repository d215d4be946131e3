package metamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewmeta/internal/diagnostic"
)

func validate(vm *ViewMapping) *diagnostic.Diagnostics {
	diags := &diagnostic.Diagnostics{}
	vm.Validate(diags)

	return diags
}

func TestViewMapping_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mapping func() *ViewMapping
		codes   []string
		message string
	}{
		{
			name:    "valid",
			mapping: func() *ViewMapping { return updatable(view("PersonView", "Person", idAttr("id", "int64"))) },
		},
		{
			name:    "missing entity",
			mapping: func() *ViewMapping { return view("PersonView", "") },
			codes:   []string{diagnostic.CodeMissingEntity},
			message: "No entity type configured in view mapping for view type: PersonView",
		},
		{
			name: "view batch size",
			mapping: func() *ViewMapping {
				vm := view("PersonView", "Person")
				vm.BatchSize = 0

				return vm
			},
			codes:   []string{diagnostic.CodeInvalidBatchSize},
			message: "Illegal batch fetch size defined at 'PersonView'! Use a value greater than 0!",
		},
		{
			name: "attribute batch size",
			mapping: func() *ViewMapping {
				am := getter("name", "string")
				am.BatchSize = -7

				return view("PersonView", "Person", am)
			},
			codes: []string{diagnostic.CodeInvalidBatchSize},
		},
		{
			name: "concrete updatable",
			mapping: func() *ViewMapping {
				vm := updatable(view("PersonView", "Person"))
				vm.Abstract = false

				return vm
			},
			codes:   []string{diagnostic.CodeConcreteUpdatable},
			message: "Only abstract view types can be updatable or creatable, but 'PersonView' is concrete!",
		},
		{
			name: "lock owner on read only view",
			mapping: func() *ViewMapping {
				vm := view("PersonView", "Person")
				vm.LockOwner = "owner"

				return vm
			},
			codes: []string{diagnostic.CodeInvalidLockOwner},
		},
		{
			name: "view filters",
			mapping: func() *ViewMapping {
				vm := view("PersonView", "Person")
				vm.Filters = []FilterMapping{{Name: "", Provider: "P"}, {Name: "a"}, {Name: "a"}}

				return vm
			},
			codes: []string{diagnostic.CodeEmptyFilterName, diagnostic.CodeDuplicateFilter},
		},
		{
			name: "attribute filters",
			mapping: func() *ViewMapping {
				first := getter("age", "int")
				first.Filters = []FilterMapping{{Name: "range"}}
				second := getter("name", "string")
				second.Filters = []FilterMapping{{Name: "range"}}

				return view("PersonView", "Person", first, second)
			},
			codes: []string{diagnostic.CodeDuplicateFilter},
			message: "Illegal duplicate filter name mapping 'range' at the attribute name[PersonView.Name]! " +
				"Already defined on attribute 'age'!",
		},
		{
			name: "empty mappings",
			mapping: func() *ViewMapping {
				expression := mapped(getter("a", "string"), ExpressionMapping(" "))
				param := mapped(getter("b", "string"), Mapping{Kind: MappingParameter})
				correlated := mapped(getter("c", "string"), Mapping{Kind: MappingCorrelated})
				subquery := mapped(getter("d", "string"),
					Mapping{Kind: MappingSubquery, Subquery: Subquery{Provider: "P", Expression: "x"}})

				return view("PersonView", "Person", expression, param, correlated, subquery)
			},
			codes: []string{
				diagnostic.CodeEmptyMapping, diagnostic.CodeEmptyMapping,
				diagnostic.CodeEmptyMapping, diagnostic.CodeEmptyMapping,
			},
		},
		{
			name: "plural id",
			mapping: func() *ViewMapping {
				return view("PersonView", "Person", mapped(plural("ids", ContainerList, "int64"), IDMapping("id")))
			},
			codes:   []string{diagnostic.CodeInvalidID},
			message: "Attribute mapped as id must use a singular type. Plural type found at the attribute ids[PersonView.Ids]!",
		},
		{
			name: "multiple ids",
			mapping: func() *ViewMapping {
				return view("PersonView", "Person", idAttr("id", "int64"), idAttr("key", "int64"))
			},
			codes:   []string{diagnostic.CodeInvalidID},
			message: "Multiple id attributes declared for the view type 'PersonView': id, key",
		},
		{
			name: "update declaration on id",
			mapping: func() *ViewMapping {
				id := idAttr("id", "int64")
				id.Update.Updatable = ptr(true)

				return updatable(view("PersonView", "Person", id))
			},
			codes: []string{diagnostic.CodeIllegalUpdateMapping},
		},
		{
			name: "update declaration on read only view",
			mapping: func() *ViewMapping {
				am := getter("name", "string")
				am.Update.Cascade = []CascadeType{CascadePersist}

				return view("PersonView", "Person", am)
			},
			codes: []string{diagnostic.CodeIllegalUpdateMapping},
			message: "Illegal update declaration for non-updatable and non-creatable view type 'PersonView' " +
				"on the attribute name[PersonView.Name]!",
		},
		{
			name: "secondary constructor parameters",
			mapping: func() *ViewMapping {
				vm := view("CatView", "Cat", idAttr("id", "int64"))
				vm.Abstract = false

				name := NewParameterAttribute("name", "named", "NewCatViewNamed", 0)
				name.BatchSize = 0
				name.Filters = []FilterMapping{{Name: "byName"}, {Name: "byName"}}
				name.Update.Cascade = []CascadeType{CascadePersist}

				_ = vm.AddConstructor(&ConstructorMapping{
					Name:       "named",
					FuncName:   "NewCatViewNamed",
					Parameters: []*AttributeMapping{name},
				})

				return vm
			},
			codes: []string{
				diagnostic.CodeInvalidBatchSize, diagnostic.CodeIllegalUpdateMapping, diagnostic.CodeDuplicateFilter,
			},
			message: "Illegal batch fetch size defined at 'parameter at index 0 of constructor[NewCatViewNamed]'! Use a value greater than 0!",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			diags := validate(test.mapping())

			var got []string
			for _, d := range diags.Errors {
				got = append(got, d.Code)
			}

			assert.Equal(t, test.codes, got)

			if test.message != "" {
				require.NotEmpty(t, diags.Errors)
				assert.Equal(t, test.message, diags.Errors[0].Message)
			}
		})
	}
}

func TestViewMapping_Constructors(t *testing.T) {
	vm := view("PersonView", "Person")

	require.NoError(t, vm.AddConstructor(&ConstructorMapping{Name: "init", FuncName: "NewPersonView"}))
	require.NoError(t, vm.AddConstructor(&ConstructorMapping{Name: "empty", FuncName: "EmptyPersonView"}))

	err := vm.AddConstructor(&ConstructorMapping{Name: "init", FuncName: "NewPersonViewFrom"})
	require.Error(t, err)
	assert.Equal(t, "Constructor with duplicate view constructor name 'init' found: NewPersonView and NewPersonViewFrom", err.Error())

	require.Len(t, vm.Constructors(), 2)
	assert.Equal(t, "empty", vm.Constructors()[0].Name)
	assert.Equal(t, "NewPersonView", vm.Constructor("init").FuncName)
	assert.Nil(t, vm.Constructor("missing"))
}

func TestViewMapping_Attributes(t *testing.T) {
	vm := view("PersonView", "Person", getter("name", "string"), idAttr("id", "int64"))

	prev := vm.AddAttribute(getter("name", "*string"))
	require.NotNil(t, prev)
	assert.Equal(t, "string", prev.Declared.Type)
	assert.Equal(t, "*string", vm.Attribute("name").Declared.Type)

	require.Len(t, vm.Attributes(), 2)
	assert.Equal(t, "id", vm.Attributes()[0].Name)
	assert.Equal(t, "id", vm.IDAttribute().Name)
	assert.False(t, vm.Mutable())
	assert.True(t, creatable(vm).Mutable())
}

func TestAttributeMapping_Location(t *testing.T) {
	am := NewMethodAttribute("name", "PersonView", "Name")
	assert.Equal(t, "attribute name[PersonView.Name]", am.Location())
	assert.False(t, am.IsParameterBound())
	assert.Equal(t, -1, am.BatchSize)

	p := NewParameterAttribute("name", "init", "NewPersonView", 2)
	assert.Equal(t, "parameter at index 2 of constructor[NewPersonView]", p.Location())
	assert.True(t, p.IsParameterBound())
	assert.Equal(t, ImplicitMapping("name"), p.Mapping)
}

func TestMapping(t *testing.T) {
	assert.Equal(t, "name", ExpressionMapping("this.name").Path())
	assert.Empty(t, ExpressionMapping("this").Path())
	assert.Equal(t, "cats.name", ImplicitMapping("cats.name").Path())
	assert.False(t, ImplicitMapping("name").IsExplicit())
	assert.True(t, IDMapping("id").IsExplicit())

	assert.Equal(t, ":owner", Mapping{Kind: MappingParameter, Expression: "owner"}.String())
	assert.Equal(t, "subquery[Counter]", Mapping{Kind: MappingSubquery, Subquery: Subquery{Provider: "Counter"}}.String())
	assert.Equal(t, "correlated[Cat](id)",
		Mapping{Kind: MappingCorrelatedSimple, Correlation: Correlation{Entity: "Cat", Basis: "id"}}.String())
}
