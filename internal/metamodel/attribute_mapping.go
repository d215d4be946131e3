package metamodel

import (
	"fmt"
	"slices"
)

// DeclaredType is the type an attribute is declared with. Type carries the
// full declared type; for plural attributes ElementType and KeyType hold
// the element and map key types.
type DeclaredType struct {
	Type        string
	Container   Container
	KeyType     string
	ElementType string
}

// Plural reports whether the declared type is a collection or map.
func (d DeclaredType) Plural() bool {
	return d.Container.Plural()
}

// SlotType is the element type of plural declarations and the type itself
// otherwise.
func (d DeclaredType) SlotType() string {
	if d.Plural() {
		return d.ElementType
	}

	return d.Type
}

// Hints are container hints declared on an attribute.
type Hints struct {
	Ordered bool
	Sorted  bool
	Indexed bool
	// Singular forces a collection-typed attribute to be singular.
	Singular bool
}

// UpdateDecl is the update declaration of an attribute.
type UpdateDecl struct {
	Updatable       *bool
	OrphanRemoval   *bool
	Cascade         []CascadeType
	Subtypes        []string
	PersistSubtypes []string
	UpdateSubtypes  []string
}

// Declared reports whether anything was declared.
func (u UpdateDecl) Declared() bool {
	return u.Updatable != nil || u.OrphanRemoval != nil || len(u.Cascade) > 0 ||
		len(u.Subtypes) > 0 || len(u.PersistSubtypes) > 0 || len(u.UpdateSubtypes) > 0
}

// Has reports whether ct was declared.
func (u UpdateDecl) Has(ct CascadeType) bool {
	return slices.Contains(u.Cascade, ct)
}

// Auto reports whether cascades are inferred: none declared, or AUTO.
func (u UpdateDecl) Auto() bool {
	return len(u.Cascade) == 0 || u.Has(CascadeAuto)
}

// InverseDecl marks an attribute as the inverse side of a relationship.
type InverseDecl struct {
	MappedBy       string
	RemoveStrategy InverseRemoveStrategy
}

// FilterMapping binds a named filter provider.
type FilterMapping struct {
	Name     string
	Provider string
}

// AttributeMapping is the declaration of one view attribute or
// constructor parameter.
type AttributeMapping struct {
	Name    string
	Binding BindingKind

	// DeclaringType names the type that declares the accessor.
	DeclaringType string
	Getter        string
	Setter        string

	// Constructor, ConstructorFunc and Index locate parameter bindings.
	Constructor     string
	ConstructorFunc string
	Index           int

	Mapping   Mapping
	Declared  DeclaredType
	Hints     Hints
	Update    UpdateDecl
	Inverse   *InverseDecl
	Filters   []FilterMapping
	BatchSize int

	// TypeSubtypes, KeySubtypes and ElementSubtypes map inheritance subtype
	// names to optional discriminator expressions.
	TypeSubtypes    map[string]*string
	KeySubtypes     map[string]*string
	ElementSubtypes map[string]*string
}

// NewMethodAttribute creates a getter-bound attribute with an implicit
// mapping.
func NewMethodAttribute(name, declaringType, getter string) *AttributeMapping {
	return &AttributeMapping{
		Name:          name,
		Binding:       BindingMethod,
		DeclaringType: declaringType,
		Getter:        getter,
		Mapping:       ImplicitMapping(name),
		BatchSize:     -1,
	}
}

// NewParameterAttribute creates a constructor-parameter attribute with an
// implicit mapping.
func NewParameterAttribute(name, constructor, constructorFunc string, index int) *AttributeMapping {
	return &AttributeMapping{
		Name:            name,
		Binding:         BindingParameter,
		Constructor:     constructor,
		ConstructorFunc: constructorFunc,
		Index:           index,
		Mapping:         ImplicitMapping(name),
		BatchSize:       -1,
	}
}

// IsParameterBound reports whether the attribute is a constructor parameter.
func (am *AttributeMapping) IsParameterBound() bool {
	return am.Binding == BindingParameter
}

// IsID reports whether the attribute is the identifier.
func (am *AttributeMapping) IsID() bool {
	return am.Mapping.Kind == MappingID
}

// HasSetter reports whether a setter is bound.
func (am *AttributeMapping) HasSetter() bool {
	return am.Setter != ""
}

// Location renders the attribute for error messages.
func (am *AttributeMapping) Location() string {
	if am.IsParameterBound() {
		return fmt.Sprintf("parameter at index %d of constructor[%s]", am.Index, am.ConstructorFunc)
	}

	return fmt.Sprintf("attribute %s[%s.%s]", am.Name, am.DeclaringType, am.Getter)
}

// subtypeDecl returns the inheritance subtype declaration of a slot.
func (am *AttributeMapping) subtypeDecl(s slot) map[string]*string {
	switch s {
	case slotKey:
		return am.KeySubtypes
	case slotElement:
		return am.ElementSubtypes
	default:
		return am.TypeSubtypes
	}
}

// EmbeddableOwner identifies the embedded path through which a flat view
// is reached. The zero value stands for the view root.
type EmbeddableOwner struct {
	OwnerType string
	Path      string
}

// IsZero reports whether the owner is the view root.
func (o EmbeddableOwner) IsZero() bool {
	return o == EmbeddableOwner{}
}

// child extends the owner by a path relative to the owned value.
func (o EmbeddableOwner) child(root, path string) EmbeddableOwner {
	if o.IsZero() {
		return EmbeddableOwner{OwnerType: root, Path: path}
	}

	return EmbeddableOwner{OwnerType: o.OwnerType, Path: o.Path + "." + path}
}

func (o EmbeddableOwner) String() string {
	if o.IsZero() {
		return "<root>"
	}

	return o.OwnerType + "." + o.Path
}
