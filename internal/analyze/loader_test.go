package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petSource = `package pets

// Named is a mixin.
type Named interface {
	// Name is the display name.
	//view:mapping "UPPER(name)"
	Name() string
}

//view:entity Animal
//view:inheritance
type AnimalView interface {
	Named
	//view:id
	ID() int64
	SetName(string)
}

// CatView is a concrete view.
//
//view:entity Cat
type CatView struct {
	AnimalBase
	lives int
}

type AnimalBase struct {
	id   int64
	name string
}

func NewAnimalBase(id int64, name string) AnimalBase {
	return AnimalBase{id: id, name: name}
}

//view:constructor init
func NewCatView(id int64, name string, lives int) *CatView {
	return &CatView{AnimalBase: NewAnimalBase(id, name), lives: lives}
}

func NewCatViewCopy(other *CatView) *CatView {
	c := *other
	return &c
}

func NewCatViewHelper() string { return "" }

func (c *CatView) Lives() int { return c.lives }

//view:post-load
func (c *CatView) Loaded() {}

func (a AnimalBase) ID() int64 { return a.id }
`

func loadPets(t *testing.T) *TypeGraph {
	t.Helper()

	graph, err := NewAnalyzer().LoadSource("example.com/pets", map[string]string{"pets.go": petSource})
	require.NoError(t, err)

	return graph
}

func TestAnalyzer_LoadSource(t *testing.T) {
	graph := loadPets(t)

	assert.Contains(t, graph.Packages, "example.com/pets")

	views := graph.Views()
	require.Len(t, views, 2)
	assert.Equal(t, "pets.AnimalView", views[0].ViewName())
	assert.Equal(t, "pets.CatView", views[1].ViewName())

	named := graph.GetType(TypeID{PkgPath: "example.com/pets", Name: "Named"})
	require.NotNil(t, named)
	assert.False(t, named.IsView())
	assert.Equal(t, TypeKindInterface, named.Kind)
}

func TestAnalyzer_InterfaceMembers(t *testing.T) {
	graph := loadPets(t)
	animal := graph.GetType(TypeID{PkgPath: "example.com/pets", Name: "AnimalView"})
	require.NotNil(t, animal)

	assert.True(t, animal.Abstract())
	assert.Equal(t, []TypeID{{PkgPath: "example.com/pets", Name: "Named"}}, animal.Embeds)

	id := animal.Method("ID")
	require.NotNil(t, id)
	assert.True(t, id.IsGetter())
	assert.True(t, id.Directives.Has("id"))

	setter := animal.Method("SetName")
	require.NotNil(t, setter)
	assert.True(t, setter.IsSetterShaped())
	assert.False(t, setter.IsGetter())

	named := graph.GetType(TypeID{PkgPath: "example.com/pets", Name: "Named"})
	mapping, ok := named.Method("Name").Directives.Find("mapping")
	require.True(t, ok)
	assert.Equal(t, "UPPER(name)", mapping.Arg())
}

func TestAnalyzer_StructMembers(t *testing.T) {
	graph := loadPets(t)
	cat := graph.GetType(TypeID{PkgPath: "example.com/pets", Name: "CatView"})
	require.NotNil(t, cat)

	assert.Equal(t, TypeKindStruct, cat.Kind)
	assert.Equal(t, []TypeID{{PkgPath: "example.com/pets", Name: "AnimalBase"}}, cat.Embeds)

	require.Len(t, cat.Fields, 2)
	assert.True(t, cat.Fields[0].Embedded)
	assert.Equal(t, "lives", cat.Fields[1].Name)
	assert.Equal(t, 1, cat.Field("lives").Index)

	require.NotNil(t, cat.Method("Lives"))
	assert.True(t, cat.Method("Loaded").Directives.Has("post-load"))

	// Only funcs returning the type count, the helper does not.
	require.Len(t, cat.Constructors, 2)

	ctor := cat.Constructors[0]
	assert.Equal(t, "NewCatView", ctor.FuncName)
	assert.True(t, ctor.Pointer)
	assert.True(t, ctor.Directives.Has("constructor"))
	require.Len(t, ctor.Params, 3)
	assert.Equal(t, "lives", ctor.Params[2].Name)
	require.NotNil(t, ctor.SSA)
	assert.Equal(t, "NewCatView", ctor.SSA.Name())

	base := graph.GetType(TypeID{PkgPath: "example.com/pets", Name: "AnimalBase"})
	require.NotNil(t, base)
	require.Len(t, base.Constructors, 1)
	assert.False(t, base.Constructors[0].Pointer)
}

func TestTypeGraph_Lookup(t *testing.T) {
	graph := loadPets(t)
	cat := graph.GetType(TypeID{PkgPath: "example.com/pets", Name: "CatView"})
	ctor := cat.Constructors[1]

	require.Len(t, ctor.Params, 1)
	assert.Same(t, cat, graph.Lookup(ctor.Params[0].Type))
	assert.Nil(t, graph.Lookup(cat.Fields[1].Type))
}

func TestAnalyzer_LoadSourceErrors(t *testing.T) {
	_, err := NewAnalyzer().LoadSource("example.com/bad", map[string]string{"bad.go": "package bad\nfunc x( {"})
	assert.Error(t, err)

	_, err = NewAnalyzer().LoadSource("example.com/bad", map[string]string{"bad.go": "package bad\nvar x int = \"s\""})
	assert.Error(t, err)

	_, err = NewAnalyzer().LoadSource("example.com/empty", nil)
	assert.Error(t, err)
}
