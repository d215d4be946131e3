package metamodel

import (
	"slices"
	"strings"
)

// Wildcard is the converter target that accepts every type.
const Wildcard = "*"

// BasicType is a resolved non-view attribute type.
type BasicType struct {
	Name    string
	Mutable bool
	// Version reports whether values can serve as an optimistic lock version.
	Version bool
	// Converter is set when values are converted from an entity type.
	Converter *Converter
}

// Converter converts an entity attribute value to the declared type.
type Converter struct {
	Name string
	// From is the entity-side type the converter was selected for.
	From string
	To   string
}

// SupportsVersion reports whether the type can back a version attribute.
func (b *BasicType) SupportsVersion() bool {
	return b != nil && b.Version
}

var builtinBasicTypes = map[string]BasicType{
	"bool":          {},
	"string":        {},
	"int":           {Version: true},
	"int8":          {Version: true},
	"int16":         {Version: true},
	"int32":         {Version: true},
	"int64":         {Version: true},
	"uint":          {Version: true},
	"uint8":         {Version: true},
	"uint16":        {Version: true},
	"uint32":        {Version: true},
	"uint64":        {Version: true},
	"float32":       {},
	"float64":       {},
	"[]byte":        {Mutable: true},
	"time.Time":     {Version: true},
	"time.Duration": {},
}

// counterpart maps T to *T and *T to T.
func counterpart(name string) string {
	if rest, ok := strings.CutPrefix(name, "*"); ok {
		return rest
	}

	return "*" + name
}

func (c *Context) seedBasicTypes() {
	for name, bt := range builtinBasicTypes {
		c.basics[name] = &BasicType{Name: name, Mutable: bt.Mutable, Version: bt.Version}
	}

	for name, bt := range c.cfg.BasicTypes {
		c.basics[name] = &BasicType{Name: name, Mutable: bt.Mutable, Version: bt.Version}
	}
}

// BasicType returns the basic type for a declared type name given the
// possible entity-side target types. The lookup order is the basic type
// registry, then the converters for each target (exact, counterpart, self,
// wildcard), then the registry entry of the counterpart. Unknown types are
// registered as immutable basic types.
func (c *Context) BasicType(name string, targets []string) *BasicType {
	if bt, ok := c.basics[name]; ok {
		return bt
	}

	sorted := slices.Clone(targets)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	key := name + "\x00" + strings.Join(sorted, "\x00")
	if bt, ok := c.converted[key]; ok {
		return bt
	}

	if conv := c.converterFor(name, sorted); conv != nil {
		bt := &BasicType{Name: name, Converter: conv}
		c.converted[key] = bt

		return bt
	}

	if cp, ok := c.basics[counterpart(name)]; ok {
		bt := &BasicType{Name: name, Mutable: cp.Mutable, Version: cp.Version}
		c.basics[name] = bt

		return bt
	}

	bt := &BasicType{Name: name}
	c.basics[name] = bt

	return bt
}

// converterFor picks the first converter of name that accepts one of the
// sorted targets.
func (c *Context) converterFor(name string, sorted []string) *Converter {
	byTarget := c.cfg.Converters[name]
	if len(byTarget) == 0 {
		return nil
	}

	for _, target := range sorted {
		for _, candidate := range []string{target, counterpart(target)} {
			if conv, ok := byTarget[candidate]; ok {
				return &Converter{Name: conv, From: target, To: name}
			}
		}
	}

	from := ""
	if len(sorted) > 0 {
		from = sorted[0]
	}

	for _, candidate := range []string{name, Wildcard} {
		if conv, ok := byTarget[candidate]; ok {
			return &Converter{Name: conv, From: from, To: name}
		}
	}

	return nil
}
