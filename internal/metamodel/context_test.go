package metamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewmeta/internal/diagnostic"
)

func TestContext_Listeners(t *testing.T) {
	c := newTestContext(t, DefaultConfig(),
		view("AView", "Person", getter("friend", "BView")),
		view("BView", "Person", getter("friend", "AView")),
	)
	a, b := mustID(t, c, "AView"), mustID(t, c, "BView")

	var fired []string

	c.OnFinish(a, func(id NodeID) {
		assert.Equal(t, a, id)
		assert.Equal(t, StateFinished, c.State(a))
		fired = append(fired, "first")
	})
	c.OnFinish(a, func(NodeID) { fired = append(fired, "second") })

	assert.Equal(t, StateUnseen, c.State(a))
	assert.Equal(t, 2, c.PendingListeners(a))

	c.Initialize(a)

	assert.Equal(t, []string{"first", "second"}, fired)
	assert.Equal(t, StateFinished, c.State(a))
	assert.Equal(t, StateFinished, c.State(b), "referenced views are initialized on demand")
	assert.Zero(t, c.PendingListeners(a))
	assert.Zero(t, c.PendingListeners(b))

	c.OnFinish(a, func(NodeID) { fired = append(fired, "late") })
	assert.Equal(t, []string{"first", "second", "late"}, fired)

	c.Initialize(a)
	assert.Len(t, fired, 3, "initialization runs once")
	assert.False(t, c.Diagnostics().HasErrors(), c.Diagnostics().Summary())
}

func TestContext_Register(t *testing.T) {
	first := view("PersonView", "Person")
	c := newTestContext(t, DefaultConfig(), first, view("CatView", "Cat"))

	id := c.Register(view("PersonView", "Cat"))
	assert.Equal(t, mustID(t, c, "PersonView"), id)
	assert.Same(t, first, c.Mapping(id))
	assert.Equal(t, []string{diagnostic.CodeDuplicateView}, codes(c))
	assert.Equal(t, "Duplicate registration of the view type 'PersonView'", c.Diagnostics().Errors[0].Message)

	assert.True(t, c.IsView("CatView"))
	assert.False(t, c.IsView("DogView"))

	_, ok := c.Lookup("DogView")
	assert.False(t, ok)

	assert.Equal(t, []string{"CatView", "PersonView"}, c.names(c.IDs()))

	_, err := c.Build()
	require.Error(t, err)
	assert.Panics(t, func() { c.Register(view("DogView", "Dog")) })
	assert.Panics(t, func() { c.State(NodeID(42)) })
}

func TestContext_UnknownEntity(t *testing.T) {
	c := newTestContext(t, DefaultConfig(), view("BirdView", "Bird", getter("name", "string")))
	c.InitializeAll()

	assert.Equal(t, []string{diagnostic.CodeUnknownEntity}, codes(c))
	assert.Equal(t, "The entity type 'Bird' used by the view type 'BirdView' is not a known managed type!",
		c.Diagnostics().Errors[0].Message)
	assert.Equal(t, StateFinished, c.State(mustID(t, c, "BirdView")))
}

func TestContext_SubtypeOrdering(t *testing.T) {
	base := view("BaseView", "Animal")
	base.Inheritance = InheritanceDecl{Mode: InheritanceAuto}

	c := newTestContext(t, DefaultConfig(),
		base,
		extends(view("LeftView", "Dog"), "BaseView"),
		extends(view("RightView", "Dog"), "BaseView"),
		extends(view("BottomView", "Dog"), "LeftView", "RightView"),
	)

	baseID, bottom := mustID(t, c, "BaseView"), mustID(t, c, "BottomView")

	assert.Equal(t, []string{"LeftView", "RightView", "BottomView"}, c.names(c.FindSubtypes(baseID)))
	assert.Equal(t, []string{"BottomView"}, c.names(c.FindSubtypes(mustID(t, c, "LeftView"))))
	assert.Empty(t, c.FindSubtypes(bottom))

	assert.True(t, c.Assignable(bottom, baseID))
	assert.True(t, c.Assignable(bottom, bottom))
	assert.False(t, c.Assignable(baseID, bottom))

	c.InitializeAll()
	require.False(t, c.Diagnostics().HasErrors(), c.Diagnostics().Summary())

	assert.Equal(t,
		"BaseView[LeftView=TYPE(this) == Dog,RightView=TYPE(this) == Dog,BottomView]",
		c.node(baseID).inheritance.Key(),
		"BottomView has a supertype on the same entity and gets no inferred discriminator")
}

func TestContext_ExplicitSubtypes(t *testing.T) {
	animal := view("AnimalView", "Animal")
	animal.Inheritance = InheritanceDecl{
		Mode:     InheritanceExplicit,
		Subtypes: []string{"AnimalView", "DgoView", "CatView", "DogView"},
	}

	c := newTestContext(t, DefaultConfig(),
		animal,
		extends(view("DogView", "Dog"), "AnimalView"),
		view("CatView", "Cat"),
	)
	c.InitializeAll()

	errs := c.Diagnostics().Errors
	require.Len(t, errs, 3)

	assert.Equal(t, diagnostic.CodeSelfSubtype, errs[0].Code)
	assert.Equal(t, "Entity view type 'AnimalView' declared itself in inheritance as subtype which is not allowed!", errs[0].Message)

	assert.Equal(t, diagnostic.CodeUnknownSubtype, errs[1].Code)
	assert.Contains(t, errs[1].Message,
		"An unknown or unregistered entity view subtype type 'DgoView' is used for the entity view: AnimalView! Did you mean DogView")

	assert.Equal(t, diagnostic.CodeNotASubtype, errs[2].Code)
	assert.Equal(t, "Entity view subtype 'CatView' was explicitly declared as subtype in 'AnimalView' but isn't a subtype!", errs[2].Message)

	id := mustID(t, c, "AnimalView")
	assert.Equal(t, "AnimalView[DogView=TYPE(this) == Dog]", c.node(id).inheritance.Key())
}

func TestContext_AttributeSubtypes(t *testing.T) {
	friends := plural("friends", ContainerSet, "PersonView")
	friends.ElementSubtypes = map[string]*string{"PersonView": nil, "PersonDetailView": ptr(`name == "x"`)}

	c := newTestContext(t, DefaultConfig(),
		view("PersonView", "Person"),
		extends(view("PersonDetailView", "Person"), "PersonView"),
		view("OwnerView", "Person", friends),
	)
	c.InitializeAll()

	require.False(t, c.Diagnostics().HasErrors(), c.Diagnostics().Summary())

	owner := c.node(mustID(t, c, "OwnerView"))
	r := owner.attrs[friends][EmbeddableOwner{}]
	require.NotNil(t, r.slots[slotElement])
	assert.Equal(t, `PersonView[PersonDetailView=name == "x"]`, r.slots[slotElement].inheritance.Key())
	assert.True(t, r.slots[slotElement].inheritance.Contains(mustID(t, c, "PersonDetailView")))
	assert.False(t, r.slots[slotElement].inheritance.Contains(owner.id))

	base := c.node(mustID(t, c, "PersonView"))
	assert.Equal(t, []string{"PersonView[]", `PersonView[PersonDetailView=name == "x"]`}, base.configOrder)
}
