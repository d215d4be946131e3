package catalog

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"viewmeta/internal/common"
)

// UnknownAttributeError is returned when a path segment names no attribute.
type UnknownAttributeError struct {
	Type      string
	Attribute string
	// Known lists the attribute names that do exist on Type.
	Known []string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("managed type %q has no attribute %q", e.Type, e.Attribute)
}

// Catalog is an in-memory Oracle.
type Catalog struct {
	types map[string]*ManagedType
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{types: make(map[string]*ManagedType)}
}

// Add registers a managed type. Adding the same name twice is an error.
func (c *Catalog) Add(mt *ManagedType) error {
	if mt.Name == "" {
		return fmt.Errorf("managed type without name")
	}

	if _, ok := c.types[mt.Name]; ok {
		return fmt.Errorf("duplicate managed type %q", mt.Name)
	}

	if mt.EntityName == "" {
		mt.EntityName = mt.Name
	}

	if mt.Attributes == nil {
		mt.Attributes = make(map[string]*Attribute)
	}

	for name, attr := range mt.Attributes {
		if attr.Name == "" {
			attr.Name = name
		}
	}

	c.types[mt.Name] = mt

	return nil
}

// Merge adds every type of other to c.
func (c *Catalog) Merge(other *Catalog) error {
	var err error
	for _, name := range other.Names() {
		err = multierr.Append(err, c.Add(other.types[name]))
	}

	return err
}

// Names returns all type names in lexical order.
func (c *Catalog) Names() []string {
	return common.SortedKeys(c.types)
}

// ManagedType implements Oracle.
func (c *Catalog) ManagedType(name string) (*ManagedType, bool) {
	mt, ok := c.types[name]
	return mt, ok
}

// Entity implements Oracle.
func (c *Catalog) Entity(name string) (*EntityDescriptor, bool) {
	mt, ok := c.types[name]
	if !ok || mt.Kind != KindEntity {
		return nil, false
	}

	return &EntityDescriptor{Name: mt.EntityName, Type: mt}, true
}

// Attribute implements Oracle. Each segment of path is looked up on the
// current type and its supertypes.
func (c *Catalog) Attribute(mt *ManagedType, path string) (*Attribute, error) {
	if mt == nil {
		return nil, fmt.Errorf("no managed type to resolve %q against", path)
	}

	segments := strings.Split(path, ".")
	current := mt

	var attr *Attribute

	for i, seg := range segments {
		attr = c.lookup(current, seg)
		if attr == nil {
			return nil, &UnknownAttributeError{Type: current.Name, Attribute: seg, Known: c.AttributeNames(current)}
		}

		if i == len(segments)-1 {
			break
		}

		next, ok := c.types[attr.Type]
		if !ok {
			return nil, fmt.Errorf("attribute %q of %q has basic type %q and cannot be dereferenced", seg, current.Name, attr.Type)
		}

		current = next
	}

	return attr, nil
}

func (c *Catalog) lookup(mt *ManagedType, name string) *Attribute {
	seen := make(map[string]bool)

	for cur := mt; cur != nil && !seen[cur.Name]; cur = c.types[cur.Super] {
		seen[cur.Name] = true

		if attr, ok := cur.Attributes[name]; ok {
			return attr
		}
	}

	return nil
}

// AttributeNames lists the attributes of mt including inherited ones.
func (c *Catalog) AttributeNames(mt *ManagedType) []string {
	set := make(map[string]struct{})
	seen := make(map[string]bool)

	for cur := mt; cur != nil && !seen[cur.Name]; cur = c.types[cur.Super] {
		seen[cur.Name] = true

		for name := range cur.Attributes {
			set[name] = struct{}{}
		}
	}

	return common.SortedKeys(set)
}

// Subtypes returns the proper subtypes of name in lexical order.
func (c *Catalog) Subtypes(name string) []string {
	var out []string

	for _, candidate := range c.Names() {
		if IsProperSubtype(c, candidate, name) {
			out = append(out, candidate)
		}
	}

	return out
}

// Validate checks referential integrity of the catalog.
func (c *Catalog) Validate() error {
	var err error

	for _, name := range c.Names() {
		mt := c.types[name]

		if mt.Super != "" {
			if _, ok := c.types[mt.Super]; !ok {
				err = multierr.Append(err, fmt.Errorf("type %q extends unknown type %q", name, mt.Super))
			} else if IsSubtype(c, mt.Super, name) {
				err = multierr.Append(err, fmt.Errorf("type %q has a cyclic supertype chain", name))
			}
		}

		if mt.Kind == KindEmbeddable && (mt.ID != "" || mt.Version != "") {
			err = multierr.Append(err, fmt.Errorf("embeddable type %q cannot declare id or version", name))
		}

		for _, special := range []string{mt.ID, mt.Version} {
			if special != "" && c.lookup(mt, special) == nil {
				err = multierr.Append(err, fmt.Errorf("type %q names missing attribute %q", name, special))
			}
		}

		for _, attrName := range common.SortedKeys(mt.Attributes) {
			attr := mt.Attributes[attrName]
			if attr.Kind != AttrEmbedded && attr.Kind != AttrToOne {
				continue
			}

			if _, ok := c.types[attr.Type]; !ok {
				err = multierr.Append(err, fmt.Errorf("attribute %q of %q references unknown type %q", attrName, name, attr.Type))
			}
		}
	}

	return err
}
