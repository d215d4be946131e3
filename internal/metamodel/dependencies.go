package metamodel

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"viewmeta/internal/diagnostic"
)

// dependencySeed returns the views that must not be reachable from a
// cascade candidate of am. Only attributes needed to instantiate n can
// close a cycle, so the seed is empty for everything else.
func (c *Context) dependencySeed(n *node, am *AttributeMapping) map[NodeID]bool {
	if !am.IsParameterBound() && !am.IsID() {
		return nil
	}

	deps := map[NodeID]bool{n.id: true}
	for _, id := range n.subtypes {
		deps[id] = true
	}

	return deps
}

// introducesCycle reports whether instantiating cand requires a view in
// deps.
func (c *Context) introducesCycle(cand NodeID, deps map[NodeID]bool, visited map[NodeID]bool) bool {
	if visited[cand] {
		return false
	}

	visited[cand] = true

	if deps[cand] {
		return true
	}

	for _, super := range c.supertypesOf(c.nodes[cand]) {
		if deps[super] {
			return true
		}
	}

	for _, next := range c.instantiationEdges(cand) {
		if c.introducesCycle(next, deps, visited) {
			return true
		}
	}

	return false
}

// instantiationEdges returns the views that must exist to construct id:
// the view types of constructor parameters and of a view-typed id.
func (c *Context) instantiationEdges(id NodeID) []NodeID {
	var out []NodeID

	for _, am := range c.memberMappings(c.nodes[id]) {
		if !am.IsParameterBound() && !am.IsID() {
			continue
		}

		for _, typeName := range []string{am.Declared.Type, am.Declared.KeyType, am.Declared.ElementType} {
			target, ok := c.byName[strings.TrimPrefix(typeName, "*")]
			if ok && !slices.Contains(out, target) {
				out = append(out, target)
			}
		}
	}

	slices.Sort(out)

	return out
}

func (c *Context) circularDependency(n *node, deps map[NodeID]bool, cand NodeID, loc string) {
	set := []string{c.name(cand)}
	for id := range deps {
		if name := c.name(id); !slices.Contains(set, name) {
			set = append(set, name)
		}
	}

	slices.Sort(set)

	c.diags.AddErrorf(diagnostic.CodeCircularDependency, n.vm.Name, loc,
		"A circular dependency is introduced at the %s in the following dependency set: [%s]", loc, strings.Join(set, ", "))
}

// validateDependencies is the authoritative pass. It recomputes the
// cascades of every root resolution now that all nodes finished, which
// reports every candidate dropped for closing a cycle, and applies the
// strict cascading check.
func (c *Context) validateDependencies() {
	c.authoritative = true

	for _, id := range c.IDs() {
		n := c.nodes[id]

		for _, am := range c.memberMappings(n) {
			r, ok := n.attrs[am][EmbeddableOwner{}]
			if !ok {
				continue
			}

			w := NoNode
			if sr := r.slots[cascadeSlot(am)]; sr != nil {
				w = sr.view
			}

			loc := am.Location()
			r.cascade = c.computeCascade(n, am, w, loc)

			c.checkPluralSetter(n, am, r.cascade, loc)
		}
	}
}

func (c *Context) checkPluralSetter(n *node, am *AttributeMapping, res *cascadeResult, loc string) {
	if !c.cfg.StrictCascadingCheck || !isPlural(am) || !am.HasSetter() {
		return
	}

	if res.updatable || len(res.persist) > 0 || len(res.update) > 0 {
		return
	}

	msg := fmt.Sprintf("The setter of the %s is only allowed for updatable plural attributes or attributes with cascading! "+
		"Remove the setter or make the attribute updatable.", loc)

	if c.cfg.ErrorOnInvalidPluralSetter {
		c.diags.AddError(diagnostic.CodeInvalidPluralSetter, msg, n.vm.Name, loc)
		return
	}

	if c.diags.AddWarning(diagnostic.CodeInvalidPluralSetter, msg, n.vm.Name, loc) {
		c.logger.Warn(msg, zap.String("view", n.vm.Name))
	}
}
