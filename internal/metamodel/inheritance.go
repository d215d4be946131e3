package metamodel

import "strings"

// InheritanceSubtype is one subtype of an inheritance configuration.
type InheritanceSubtype struct {
	View NodeID
	// Discriminator selects the subtype. Nil means the subtype is never
	// selected by a type check of its own.
	Discriminator *string
}

// InheritanceViewMapping is a base view plus the subtypes that may be
// materialized in its place. Subtypes are ordered supertypes first, then
// lexically.
type InheritanceViewMapping struct {
	Base     NodeID
	Subtypes []InheritanceSubtype

	key string
}

// Key is the canonical form used to deduplicate configurations per base.
func (m *InheritanceViewMapping) Key() string {
	return m.key
}

// Contains reports whether id is the base or one of the subtypes.
func (m *InheritanceViewMapping) Contains(id NodeID) bool {
	if m.Base == id {
		return true
	}

	for _, s := range m.Subtypes {
		if s.View == id {
			return true
		}
	}

	return false
}

func (c *Context) newInheritanceViewMapping(base NodeID, subtypes []InheritanceSubtype) *InheritanceViewMapping {
	var sb strings.Builder

	sb.WriteString(c.nodes[base].vm.Name)
	sb.WriteByte('[')

	for i, s := range subtypes {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(c.nodes[s.View].vm.Name)

		if s.Discriminator != nil {
			sb.WriteByte('=')
			sb.WriteString(*s.Discriminator)
		}
	}

	sb.WriteByte(']')

	ivm := &InheritanceViewMapping{Base: base, Subtypes: subtypes, key: sb.String()}

	n := c.nodes[base]
	if existing, ok := n.configs[ivm.key]; ok {
		return existing
	}

	n.configs[ivm.key] = ivm
	n.configOrder = append(n.configOrder, ivm.key)

	return ivm
}
