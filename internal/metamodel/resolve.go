package metamodel

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"viewmeta/internal/catalog"
	"viewmeta/internal/common"
	"viewmeta/internal/diagnostic"
	"viewmeta/internal/expr"
)

// slot selects the declared type, the map key type or the element type of
// an attribute.
type slot int

const (
	slotType slot = iota
	slotKey
	slotElement
)

func (s slot) String() string {
	switch s {
	case slotKey:
		return "key type"
	case slotElement:
		return "element type"
	default:
		return "type"
	}
}

// maxEmbeddingDepth bounds the nesting of embeddable owners.
const maxEmbeddingDepth = 8

// slotResult is the resolved type of one slot. view is NoNode for basic
// types.
type slotResult struct {
	name        string
	view        NodeID
	basic       *BasicType
	managed     *catalog.ManagedType
	inheritance *InheritanceViewMapping
}

// resolution is the memoized result of resolving one attribute mapping for
// one embeddable owner.
type resolution struct {
	owner   EmbeddableOwner
	targets []expr.TargetType
	// failed marks a mapping whose expression did not resolve. Its slots
	// fall back to the declared types without further checks.
	failed  bool
	slots   [3]*slotResult
	cascade *cascadeResult
}

func isPlural(am *AttributeMapping) bool {
	return am.Declared.Plural() && !am.Hints.Singular
}

// cascadeSlot is the slot whose view receives cascades.
func cascadeSlot(am *AttributeMapping) slot {
	if isPlural(am) {
		return slotElement
	}

	return slotType
}

func (c *Context) location(am *AttributeMapping, owner EmbeddableOwner) string {
	if owner.IsZero() {
		return am.Location()
	}

	return am.Location() + " reached through " + owner.String()
}

// PossibleTargets returns the entity-side types an attribute resolved to
// when reached through owner. It is nil for unresolved attributes.
func (c *Context) PossibleTargets(id NodeID, attribute string, owner EmbeddableOwner) []expr.TargetType {
	n := c.node(id)

	am := n.vm.Attribute(attribute)
	if am == nil {
		return nil
	}

	if r, ok := n.attrs[am][owner]; ok {
		return r.targets
	}

	return nil
}

// resolveAttribute resolves the types, inheritance configurations and
// cascades of one attribute. Results are memoized per owner.
func (c *Context) resolveAttribute(n *node, am *AttributeMapping, owner EmbeddableOwner) *resolution {
	byOwner := n.attrs[am]
	if byOwner == nil {
		byOwner = make(map[EmbeddableOwner]*resolution)
		n.attrs[am] = byOwner
	}

	if r, ok := byOwner[owner]; ok {
		return r
	}

	r := &resolution{owner: owner}
	byOwner[owner] = r

	loc := c.location(am, owner)
	root, rootAttr := c.resolutionRoot(n, owner)
	r.targets, r.failed = c.resolveTargets(n, am, root, rootAttr, loc)

	if isPlural(am) {
		r.slots[slotElement] = c.resolveSlot(n, am, r, slotElement, am.Declared.ElementType)
		if am.Declared.Container.IsMap() {
			r.slots[slotKey] = c.resolveSlot(n, am, r, slotKey, am.Declared.KeyType)
		}
	} else {
		if !r.failed && !am.Hints.Singular && slices.ContainsFunc(r.targets, expr.TargetType.Plural) {
			c.typeMismatch(n, r.targets, am.Declared.Type, loc)
			r.failed = true
		}

		r.slots[slotType] = c.resolveSlot(n, am, r, slotType, am.Declared.Type)
	}

	if sr := r.slots[cascadeSlot(am)]; owner.IsZero() && (sr == nil || sr.view == NoNode) {
		r.cascade = c.computeCascade(n, am, NoNode, loc)
	}

	return r
}

// resolutionRoot returns the managed type expressions are resolved against
// and the embedded attribute through which it was reached.
func (c *Context) resolutionRoot(n *node, owner EmbeddableOwner) (*catalog.ManagedType, *catalog.Attribute) {
	if owner.IsZero() {
		return n.managed, nil
	}

	ownerType, ok := c.oracle.ManagedType(owner.OwnerType)
	if !ok {
		return n.managed, nil
	}

	attr, err := c.oracle.Attribute(ownerType, owner.Path)
	if err != nil {
		return n.managed, nil
	}

	return n.managed, attr
}

func (c *Context) resolveTargets(
	n *node,
	am *AttributeMapping,
	root *catalog.ManagedType,
	rootAttr *catalog.Attribute,
	loc string,
) ([]expr.TargetType, bool) {
	m := am.Mapping

	switch {
	case m.Kind.HasPath():
		if root == nil {
			return nil, true
		}

		return c.resolveExpression(n, m.Expression, root, rootAttr, loc)
	case m.Kind.IsCorrelated():
		if am.Declared.Container.IsMap() {
			c.diags.AddErrorf(diagnostic.CodeCorrelatedMap, n.vm.Name, loc,
				"The mapping defined on the %s uses a map type with a correlated mapping which is unsupported!", loc)

			return nil, true
		}

		if root == nil {
			return nil, true
		}

		if _, failed := c.resolveExpression(n, m.Correlation.Basis, root, rootAttr, loc); failed {
			return nil, true
		}

		if m.Correlation.Entity == "" {
			return nil, false
		}

		correlated, ok := c.oracle.ManagedType(m.Correlation.Entity)
		if !ok {
			c.diags.AddErrorf(diagnostic.CodeUnknownEntity, n.vm.Name, loc,
				"The correlated entity type '%s' of the %s is not a known managed type!", m.Correlation.Entity, loc)

			return nil, true
		}

		if m.Correlation.Result == "" {
			return []expr.TargetType{{LeafBaseType: correlated.Name}}, false
		}

		return c.resolveExpression(n, m.Correlation.Result, correlated, nil, loc)
	default:
		return nil, false
	}
}

func (c *Context) resolveExpression(
	n *node,
	expression string,
	root *catalog.ManagedType,
	rootAttr *catalog.Attribute,
	loc string,
) ([]expr.TargetType, bool) {
	targets, err := c.resolver.Resolve(expression, root, rootAttr)
	if err == nil {
		return targets, false
	}

	var syntaxErr *expr.SyntaxError
	if errors.As(err, &syntaxErr) {
		c.diags.AddErrorf(diagnostic.CodeExpressionSyntax, n.vm.Name, loc,
			"Syntax error in the mapping expression of the %s: %s", loc, err)
	} else {
		c.diags.AddErrorf(diagnostic.CodeExpressionResolution, n.vm.Name, loc,
			"The mapping expression of the %s could not be resolved: %s", loc, err)
	}

	return nil, true
}

func (c *Context) resolveSlot(n *node, am *AttributeMapping, r *resolution, s slot, typeName string) *slotResult {
	loc := c.location(am, r.owner)

	if typeName == "" {
		c.diags.AddErrorf(diagnostic.CodeUnresolvableType, n.vm.Name, loc,
			"The %s of the %s could not be resolved!", s, loc)

		return nil
	}

	leaves := leafTypes(r.targets, s)
	bare := strings.TrimPrefix(typeName, "*")

	id, ok := c.byName[bare]
	if !ok {
		sr := &slotResult{name: typeName, view: NoNode}
		if mt, ok := c.oracle.ManagedType(bare); ok {
			sr.managed = mt
		}

		if !r.failed && len(leaves) > 0 && !c.slotAssignable(sr, typeName, leaves) {
			c.typeMismatch(n, r.targets, typeName, loc)
		}

		sr.basic = c.BasicType(typeName, leaves)

		return sr
	}

	sr := &slotResult{name: typeName, view: id}

	c.Initialize(id)

	w := c.nodes[id]
	sr.managed = w.managed

	if !r.failed && len(leaves) > 0 && !c.entityCompatible(w.vm.EntityType, leaves) {
		c.typeMismatch(n, r.targets, typeName, loc)
	}

	c.OnFinish(id, func(NodeID) {
		sr.inheritance = c.inheritanceFor(n, am, s, id, loc)

		if r.owner.IsZero() && s == cascadeSlot(am) {
			r.cascade = c.computeCascade(n, am, id, loc)
		}

		if w.managed == nil || w.managed.Kind != catalog.KindEmbeddable || !am.Mapping.Kind.HasPath() || n.managed == nil {
			return
		}

		child := r.owner.child(n.managed.Name, am.Mapping.Path())
		if strings.Count(child.Path, ".") < maxEmbeddingDepth {
			for _, wam := range c.memberMappings(w) {
				c.resolveAttribute(w, wam, child)
			}
		}
	})

	return sr
}

func (c *Context) typeMismatch(n *node, targets []expr.TargetType, declared, loc string) {
	rendered := make([]string, 0, len(targets))
	for _, t := range targets {
		rendered = append(rendered, renderTarget(t))
	}

	c.diags.AddErrorf(diagnostic.CodeTypeMismatch, n.vm.Name, loc,
		"The resolved possible types [%s] are not assignable to the given expression type '%s' of the mapping expression declared by the %s!",
		strings.Join(rendered, ", "), declared, loc)
}

// entityCompatible reports whether a view projecting entity can stand for
// one of the targets.
func (c *Context) entityCompatible(entity string, targets []string) bool {
	if entity == "" {
		return true
	}

	for _, t := range targets {
		if catalog.IsSubtype(c.oracle, entity, t) || catalog.IsSubtype(c.oracle, t, entity) {
			return true
		}
	}

	return false
}

// inheritanceFor returns the inheritance configuration of a view slot. A
// declared subtype list builds a dedicated configuration of w, anything
// else uses the default one.
func (c *Context) inheritanceFor(n *node, am *AttributeMapping, s slot, w NodeID, loc string) *InheritanceViewMapping {
	decl := am.subtypeDecl(s)
	base := c.nodes[w]

	if len(decl) == 0 {
		return base.inheritance
	}

	declared := common.SortedKeys(decl)
	ids := c.orderSubtypes(c.explicitSubtypes(base, declared, n.vm.Name, loc))

	subs := make([]InheritanceSubtype, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, InheritanceSubtype{View: id, Discriminator: c.discriminator(id, decl[c.name(id)])})
	}

	return c.newInheritanceViewMapping(w, subs)
}

func leafTypes(targets []expr.TargetType, s slot) []string {
	var out []string

	for _, t := range targets {
		var leaf string

		switch s {
		case slotKey:
			leaf = t.LeafKeyType
		case slotElement:
			leaf = t.LeafBaseType
			if t.Plural() {
				leaf = t.LeafElementType
			}
		default:
			leaf = t.LeafBaseType
		}

		if leaf != "" && !slices.Contains(out, leaf) {
			out = append(out, leaf)
		}
	}

	return out
}

// slotAssignable reports whether a non-view slot accepts one of the
// leaves. Managed types accept their sub and super types, anything else
// needs an identical or counterpart leaf or a converter.
func (c *Context) slotAssignable(sr *slotResult, typeName string, leaves []string) bool {
	if sr.managed != nil {
		return c.entityCompatible(sr.managed.Name, leaves)
	}

	return basicAssignable(typeName, leaves) || c.converterFor(typeName, sortedUnique(leaves)) != nil
}

func basicAssignable(typeName string, leaves []string) bool {
	if typeName == "any" || typeName == "interface{}" {
		return true
	}

	for _, leaf := range leaves {
		if leaf == typeName || leaf == counterpart(typeName) {
			return true
		}
	}

	return false
}

func sortedUnique(ss []string) []string {
	out := slices.Clone(ss)
	slices.Sort(out)

	return slices.Compact(out)
}

func renderTarget(t expr.TargetType) string {
	if !t.Plural() {
		return t.LeafBaseType
	}

	if t.LeafKeyType != "" {
		return fmt.Sprintf("%s<%s, %s>", t.LeafBaseType, t.LeafKeyType, t.LeafElementType)
	}

	return fmt.Sprintf("%s<%s>", t.LeafBaseType, t.LeafElementType)
}
