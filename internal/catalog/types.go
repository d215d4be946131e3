package catalog

import (
	"fmt"
	"strings"

	"viewmeta/internal/common"
)

// Kind classifies a managed type.
type Kind int

const (
	KindEntity Kind = iota
	KindEmbeddable
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindEmbeddable:
		return "embeddable"
	default:
		return common.UnknownStr
	}
}

// ParseKind parses a kind name. The empty string means entity.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "entity":
		return KindEntity, nil
	case "embeddable":
		return KindEmbeddable, nil
	default:
		return KindEntity, fmt.Errorf("unknown managed type kind %q", s)
	}
}

// AttributeKind classifies a managed attribute.
type AttributeKind int

const (
	AttrBasic AttributeKind = iota
	AttrEmbedded
	AttrToOne
	AttrCollection
	AttrList
	AttrSet
	AttrMap
)

var attributeKindNames = map[AttributeKind]string{
	AttrBasic:      "basic",
	AttrEmbedded:   "embedded",
	AttrToOne:      "to_one",
	AttrCollection: "collection",
	AttrList:       "list",
	AttrSet:        "set",
	AttrMap:        "map",
}

// String returns the lowercase attribute kind name.
func (k AttributeKind) String() string {
	if s, ok := attributeKindNames[k]; ok {
		return s
	}

	return common.UnknownStr
}

// ParseAttributeKind parses an attribute kind name. The empty string means basic.
func ParseAttributeKind(s string) (AttributeKind, error) {
	if s == "" {
		return AttrBasic, nil
	}

	for k, name := range attributeKindNames {
		if name == strings.ToLower(s) {
			return k, nil
		}
	}

	return AttrBasic, fmt.Errorf("unknown attribute kind %q", s)
}

// Plural reports whether the kind is a collection or map.
func (k AttributeKind) Plural() bool {
	return k >= AttrCollection
}

// ManagedType is one persistent record type.
type ManagedType struct {
	Name string
	Kind Kind
	// EntityName is the name used in type discriminators. Defaults to Name.
	EntityName string
	// Super names the entity supertype, if any.
	Super    string
	Abstract bool
	// ID and Version name the identifier and version attributes.
	ID      string
	Version string

	Attributes map[string]*Attribute
}

// Identifiable reports whether instances of the type have an identity.
func (mt *ManagedType) Identifiable() bool {
	return mt.Kind == KindEntity
}

// Attribute is one attribute of a managed type.
type Attribute struct {
	Name string
	Kind AttributeKind
	// Type is the attribute type; for plural attributes the element type.
	Type string
	// KeyType is the key type of map attributes.
	KeyType string
	// Indexed marks lists that keep an index column.
	Indexed bool
	// MappedBy names the owning side of an inverse relationship.
	MappedBy string
	// Overrides replaces attribute types of an embedded type at this path.
	Overrides map[string]string
	// Accessor describes the backing accessor visibility.
	Accessor Accessor
}

// Accessor describes how the backing accessor of an attribute is declared.
type Accessor struct {
	Exported bool
	Package  string
}

// Plural reports whether the attribute is a collection or map.
func (a *Attribute) Plural() bool {
	return a.Kind.Plural()
}

// EntityDescriptor describes an entity as seen by expressions.
type EntityDescriptor struct {
	Name string
	Type *ManagedType
}

// Oracle answers managed-type questions for the metamodel builder.
// Implementations must be read-only for the duration of a build.
type Oracle interface {
	// ManagedType returns the managed type with the given name.
	ManagedType(name string) (*ManagedType, bool)
	// Attribute resolves a dotted attribute path relative to mt.
	Attribute(mt *ManagedType, path string) (*Attribute, error)
	// Entity returns the entity descriptor for the given type name.
	Entity(name string) (*EntityDescriptor, bool)
}

// IsSubtype reports whether sub equals super or extends it transitively.
func IsSubtype(o Oracle, sub, super string) bool {
	seen := make(map[string]bool)

	for name := sub; name != "" && !seen[name]; {
		if name == super {
			return true
		}

		seen[name] = true

		mt, ok := o.ManagedType(name)
		if !ok {
			return false
		}

		name = mt.Super
	}

	return false
}

// IsProperSubtype reports whether sub extends super and is not super itself.
func IsProperSubtype(o Oracle, sub, super string) bool {
	return sub != super && IsSubtype(o, sub, super)
}
