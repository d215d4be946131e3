package metamodel

import (
	"slices"

	"viewmeta/internal/diagnostic"
)

// cascadeResult holds the inferred update semantics of an attribute.
type cascadeResult struct {
	updatable      bool
	allowed        []NodeID
	persist        []NodeID
	update         []NodeID
	orphanRemoval  bool
	deleteCascaded bool
}

// computeCascade infers the update semantics of am. Explicit declarations
// win over inference, inference only applies to AUTO cascading, and
// everything else defaults to off. w is the view receiving cascades, or
// NoNode.
func (c *Context) computeCascade(n *node, am *AttributeMapping, w NodeID, loc string) *cascadeResult {
	res := &cascadeResult{}
	decl := am.Update

	if decl.Updatable != nil {
		res.updatable = *decl.Updatable
	} else {
		res.updatable = n.vm.Updatable != nil && updatableKind(am.Mapping.Kind) && (am.HasSetter() || isPlural(am))
	}

	persist, update := decl.Has(CascadePersist), decl.Has(CascadeUpdate)

	if !res.updatable {
		if persist {
			c.diags.AddErrorf(diagnostic.CodeCascadeNotUpdatable, n.vm.Name, loc,
				"Persist cascading for non-updatable attributes is not allowed. Invalid definition found on the %s!", loc)
		}

		if update {
			c.diags.AddErrorf(diagnostic.CodeCascadeNotUpdatable, n.vm.Name, loc,
				"Update cascading for non-updatable attributes is not allowed. Invalid definition found on the %s!", loc)
		}
	}

	if w != NoNode {
		res.allowed = c.cascadeCandidates(n, am, w, loc)

		if res.updatable {
			if decl.Auto() {
				res.persist, res.update = c.inferCascades(am, w, res.allowed)
			}

			if persist {
				res.persist = union(res.persist, c.declaredCascades(n, w, decl.PersistSubtypes, res.allowed, c.creatable, loc))
			}

			if update {
				res.update = union(res.update, c.declaredCascades(n, w, decl.UpdateSubtypes, res.allowed, c.updatable, loc))
			}
		}
	}

	if decl.OrphanRemoval != nil {
		res.orphanRemoval = *decl.OrphanRemoval
	} else {
		res.orphanRemoval = am.Inverse != nil && am.Inverse.RemoveStrategy == RemoveRemove
	}

	res.deleteCascaded = res.orphanRemoval || decl.Has(CascadeDelete) || (am.Inverse != nil && res.updatable)

	return res
}

func updatableKind(k MappingKind) bool {
	return k == MappingImplicit || k == MappingExpression
}

// inferCascades applies AUTO cascading. With a setter every creatable or
// updatable candidate may be assigned; without one only the declared view
// itself flows through the attribute.
func (c *Context) inferCascades(am *AttributeMapping, w NodeID, allowed []NodeID) ([]NodeID, []NodeID) {
	if am.HasSetter() {
		return filterNodes(allowed, c.creatable), filterNodes(allowed, c.updatable)
	}

	if !slices.Contains(allowed, w) {
		return nil, nil
	}

	var persist, update []NodeID

	if c.creatable(w) {
		persist = []NodeID{w}
	}

	if c.updatable(w) {
		update = []NodeID{w}
	}

	return persist, update
}

// declaredCascades returns the named cascade subtypes, or every allowed
// candidate satisfying pred when none are named.
func (c *Context) declaredCascades(
	n *node,
	w NodeID,
	names []string,
	allowed []NodeID,
	pred func(NodeID) bool,
	loc string,
) []NodeID {
	if len(names) == 0 {
		return filterNodes(allowed, pred)
	}

	var out []NodeID

	for _, id := range c.namedCandidates(n, w, names, loc) {
		if slices.Contains(allowed, id) {
			out = append(out, id)
		}
	}

	return out
}

// cascadeCandidates returns the views that may be assigned to am: the
// declared subtype list, or w and every registered view assignable to it.
// Candidates that would close an instantiation cycle are dropped and, in
// the authoritative pass, reported.
func (c *Context) cascadeCandidates(n *node, am *AttributeMapping, w NodeID, loc string) []NodeID {
	var candidates []NodeID

	if len(am.Update.Subtypes) > 0 {
		candidates = c.orderSubtypes(c.namedCandidates(n, w, am.Update.Subtypes, loc))
	} else {
		candidates = append([]NodeID{w}, c.FindSubtypes(w)...)
	}

	deps := c.dependencySeed(n, am)
	if len(deps) == 0 {
		return candidates
	}

	out := make([]NodeID, 0, len(candidates))

	for _, cand := range candidates {
		if c.introducesCycle(cand, deps, map[NodeID]bool{}) {
			if c.authoritative {
				c.circularDependency(n, deps, cand, loc)
			}

			continue
		}

		out = append(out, cand)
	}

	return out
}

// namedCandidates resolves subtype names of w, accepting w itself.
func (c *Context) namedCandidates(n *node, w NodeID, names []string, loc string) []NodeID {
	var out []NodeID

	if slices.Contains(names, c.name(w)) {
		out = append(out, w)
	}

	for _, id := range c.explicitSubtypes(c.nodes[w], names, n.vm.Name, loc) {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}

	return out
}

func (c *Context) creatable(id NodeID) bool {
	return c.nodes[id].vm.Creatable != nil
}

func (c *Context) updatable(id NodeID) bool {
	return c.nodes[id].vm.Updatable != nil
}

func filterNodes(ids []NodeID, pred func(NodeID) bool) []NodeID {
	var out []NodeID

	for _, id := range ids {
		if pred(id) {
			out = append(out, id)
		}
	}

	return out
}

func union(a, b []NodeID) []NodeID {
	out := slices.Clone(a)

	for _, id := range b {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}

	return out
}
