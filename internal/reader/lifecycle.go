package reader

import (
	"slices"
	"strings"

	"viewmeta/internal/analyze"
	"viewmeta/internal/common"
	"viewmeta/internal/diagnostic"
	"viewmeta/internal/metamodel"
)

// lifecycleCandidate is a lifecycle method found on a type or one of its
// embedded types.
type lifecycleCandidate struct {
	member
	directive analyze.Directive
}

func (r *Reader) readLifecycle(ti *analyze.TypeInfo, vm *metamodel.ViewMapping, errs *diagnostic.Diagnostics) {
	for _, kind := range metamodel.LifecycleKinds {
		c, ok := r.lifecycleMethod(ti, kind, vm.Name, errs)
		if !ok {
			continue
		}

		m := c.method
		if len(m.Params) > 0 || len(m.Results) > 0 {
			errs.AddErrorf(diagnostic.CodeLifecycleSignature, vm.Name, "",
				"Invalid %s method %s: lifecycle methods take no parameters and return nothing!", kind, c)

			continue
		}

		lm := &metamodel.LifecycleMethod{
			Kind:          kind,
			Method:        m.Name,
			DeclaringType: c.declaring.ViewName(),
		}

		if kind.HasTransitions() {
			transitions, err := metamodel.ParseTransitions(c.directive.ListParam("transitions"))
			if err != nil {
				errs.AddErrorf(diagnostic.CodeInvalidDirective, vm.Name, "", "Invalid directive on %s: %v", c, err)
			}

			lm.Transitions = transitions
		}

		vm.Lifecycle[kind] = lm
	}
}

// lifecycleMethod finds the method of one lifecycle kind. A method declared
// on ti itself wins; otherwise the most derived declaration among the
// embedded types is used.
func (r *Reader) lifecycleMethod(
	ti *analyze.TypeInfo,
	kind metamodel.LifecycleKind,
	view string,
	errs *diagnostic.Diagnostics,
) (lifecycleCandidate, bool) {
	own := lifecycleOf(ti, kind)

	switch {
	case common.IsMultiple(own):
		errs.AddErrorf(diagnostic.CodeLifecycleDuplicate, view, "",
			"Multiple %s methods found in %s: %s", kind, ti.ViewName(), candidateList(own))

		return lifecycleCandidate{}, false
	case common.IsSingle(own):
		return own[0], true
	}

	var found []lifecycleCandidate

	for _, id := range ti.Embeds {
		embedded := r.graph.GetType(id)
		if embedded == nil {
			continue
		}

		if c, ok := r.lifecycleMethod(embedded, kind, view, errs); ok && !slices.ContainsFunc(found, c.same) {
			found = append(found, c)
		}
	}

	var derived []lifecycleCandidate

	for _, c := range found {
		shadowed := slices.ContainsFunc(found, func(other lifecycleCandidate) bool {
			return !other.same(c) && r.embeds(other.declaring, c.declaring.ID)
		})
		if !shadowed {
			derived = append(derived, c)
		}
	}

	found = derived

	switch len(found) {
	case 0:
		return lifecycleCandidate{}, false
	case 1:
		return found[0], true
	}

	errs.AddErrorf(diagnostic.CodeLifecycleDuplicate, view, "",
		"Multiple %s methods found in super types of %s: %s", kind, ti.ViewName(), candidateList(found))

	return lifecycleCandidate{}, false
}

func (c lifecycleCandidate) same(other lifecycleCandidate) bool {
	return c.declaring == other.declaring && c.method == other.method
}

// embeds reports whether ti embeds id, directly or transitively.
func (r *Reader) embeds(ti *analyze.TypeInfo, id analyze.TypeID) bool {
	for _, e := range ti.Embeds {
		if e == id {
			return true
		}

		if embedded := r.graph.GetType(e); embedded != nil && r.embeds(embedded, id) {
			return true
		}
	}

	return false
}

func lifecycleOf(ti *analyze.TypeInfo, kind metamodel.LifecycleKind) []lifecycleCandidate {
	var out []lifecycleCandidate

	for _, m := range ti.Methods {
		if d, ok := m.Directives.Find(kind.String()); ok {
			out = append(out, lifecycleCandidate{member: member{declaring: ti, method: m}, directive: d})
		}
	}

	return out
}

func candidateList(cs []lifecycleCandidate) string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.String())
	}

	return strings.Join(names, ", ")
}
