package metamodel

import (
	"fmt"
	"sync"

	"viewmeta/internal/catalog"
	"viewmeta/internal/expr"
)

// VersionAttributeName is the name of a synthesized version attribute.
const VersionAttributeName = "$$_version"

// Type is the resolved type of an attribute slot. Exactly one of View and
// Basic is set.
type Type struct {
	Name  string
	View  *ManagedViewType
	Basic *BasicType
	// Managed is the managed type the slot projects, if any.
	Managed *catalog.ManagedType
}

// IsView reports whether the slot holds a view.
func (t *Type) IsView() bool {
	return t != nil && t.View != nil
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	return t.Name
}

// Attribute is a frozen view attribute or constructor parameter.
type Attribute struct {
	Name          string
	Kind          AttributeKind
	Location      string
	DeclaringView string

	Binding     BindingKind
	Getter      string
	Setter      string
	Constructor string
	Index       int

	Mapping  Mapping
	Declared DeclaredType

	// Type is the attribute type, the element type for plural attributes.
	Type    *Type
	KeyType *Type
	// PossibleTargets are the entity-side types the mapping resolved to.
	PossibleTargets []expr.TargetType
	CollectionJoin  bool

	Ordered bool
	Sorted  bool
	Indexed bool

	Updatable      bool
	OrphanRemoval  bool
	DeleteCascaded bool
	// AllowedSubtypes, PersistSubtypes and UpdateSubtypes name views in
	// supertype-first order.
	AllowedSubtypes []string
	PersistSubtypes []string
	UpdateSubtypes  []string

	Inverse   *InverseDecl
	Filters   []FilterMapping
	BatchSize int

	TypeInheritance    *InheritanceSubtypeConfiguration
	KeyInheritance     *InheritanceSubtypeConfiguration
	ElementInheritance *InheritanceSubtypeConfiguration

	// Synthetic marks attributes that were not declared.
	Synthetic bool

	container Container
}

// IsPlural reports whether the attribute holds several values.
func (a *Attribute) IsPlural() bool {
	return a.Kind.IsPlural()
}

// IsSubview reports whether the attribute type is a view.
func (a *Attribute) IsSubview() bool {
	return a.Type.IsView()
}

// PersistCascaded reports whether new subviews are persisted.
func (a *Attribute) PersistCascaded() bool {
	return len(a.PersistSubtypes) > 0
}

// UpdateCascaded reports whether changed subviews are updated.
func (a *Attribute) UpdateCascaded() bool {
	return len(a.UpdateSubtypes) > 0
}

// Container returns the collection shape. It panics for singular
// attributes.
func (a *Attribute) Container() Container {
	if !a.IsPlural() {
		panic(fmt.Sprintf("attribute %s is singular and has no container", a.Location))
	}

	return a.container
}

// MappingConstructor is a frozen named constructor.
type MappingConstructor struct {
	Name       string
	FuncName   string
	Parameters []*Attribute
}

// ManagedViewType is a frozen view. Views without an id are flat.
type ManagedViewType struct {
	Name     string
	Package  string
	Abstract bool
	Entity   *catalog.ManagedType

	ID      *Attribute
	Version *Attribute

	Creatable              bool
	CreatableValidation    bool
	ExcludedFromValidation []string
	Updatable              bool
	LockMode               LockMode
	LockOwner              string
	FlushMode              FlushMode
	FlushStrategy          FlushStrategy
	BatchSize              int

	Filters   []FilterMapping
	Lifecycle map[LifecycleKind]*LifecycleMethod

	// InheritanceMapping is the discriminator used when the view is
	// selected as a subtype. Empty when it has none.
	InheritanceMapping string
	// Inheritance is the default subtype configuration.
	Inheritance *InheritanceSubtypeConfiguration
	// InheritanceConfigurations lists every configuration with this view as
	// base, in creation order.
	InheritanceConfigurations []*InheritanceSubtypeConfiguration

	attributes   []*Attribute
	byName       map[string]*Attribute
	constructors []*MappingConstructor

	interfaceEquals     bool
	interfaceEqualsOnce sync.Once
	interfaceEqualsFn   func() bool
}

// Identifiable reports whether the view has an id attribute.
func (v *ManagedViewType) Identifiable() bool {
	return v.ID != nil
}

// Attributes returns the attributes ordered by name.
func (v *ManagedViewType) Attributes() []*Attribute {
	return v.attributes
}

// Attribute returns an attribute by name.
func (v *ManagedViewType) Attribute(name string) *Attribute {
	return v.byName[name]
}

// Constructors returns the constructors ordered by name.
func (v *ManagedViewType) Constructors() []*MappingConstructor {
	return v.constructors
}

// Constructor returns a constructor by name.
func (v *ManagedViewType) Constructor(name string) *MappingConstructor {
	for _, ctor := range v.constructors {
		if ctor.Name == name {
			return ctor
		}
	}

	return nil
}

// SupportsInterfaceEquals reports whether instances can be compared through
// the view interface. It is computed once.
func (v *ManagedViewType) SupportsInterfaceEquals() bool {
	v.interfaceEqualsOnce.Do(func() {
		if v.interfaceEqualsFn != nil {
			v.interfaceEquals = v.interfaceEqualsFn()
			v.interfaceEqualsFn = nil
		}
	})

	return v.interfaceEquals
}

func (v *ManagedViewType) String() string {
	return v.Name
}

// InheritanceSubtypeConfiguration is a frozen InheritanceViewMapping.
type InheritanceSubtypeConfiguration struct {
	Key  string
	Base *ManagedViewType
	// Subtypes holds the base at index 0 followed by the subtypes.
	Subtypes []SubtypeEntry
	// Attributes groups the attributes of all entries by name.
	Attributes map[string]*ConstrainedAttribute
}

// SubtypeEntry is one view of a subtype configuration.
type SubtypeEntry struct {
	View          *ManagedViewType
	Discriminator string
}

// ConstrainedAttribute is one logical attribute across the views of a
// subtype configuration.
type ConstrainedAttribute struct {
	Name         string
	Realizations []Realization
}

// Realization is one concrete attribute of a ConstrainedAttribute. The
// empty constraint applies to the base.
type Realization struct {
	Constraint     string
	SubtypeIndexes []int
	Attribute      *Attribute
}

// RequiresCaseWhen reports whether the views disagree on the mapping.
func (ca *ConstrainedAttribute) RequiresCaseWhen() bool {
	return len(ca.Realizations) > 1
}

// Metamodel is the frozen result of a build.
type Metamodel struct {
	views  []*ManagedViewType
	byName map[string]*ManagedViewType
}

// Views returns every view ordered by name.
func (m *Metamodel) Views() []*ManagedViewType {
	return m.views
}

// View returns a view by name.
func (m *Metamodel) View(name string) *ManagedViewType {
	return m.byName[name]
}
