package reader

import (
	"errors"
	"fmt"
	"go/types"
	"slices"

	"viewmeta/internal/analyze"
	"viewmeta/internal/diagnostic"
	"viewmeta/internal/metamodel"
)

// member is a method together with the type declaring it.
type member struct {
	declaring *analyze.TypeInfo
	method    *analyze.MethodInfo
}

func (m member) String() string {
	return m.declaring.ViewName() + "." + m.method.Name
}

// methodSet returns the methods of ti and of every embedded type, own
// methods first, then embeds depth first in declaration order.
func (r *Reader) methodSet(ti *analyze.TypeInfo) []member {
	var out []member

	seen := make(map[analyze.TypeID]bool)

	var walk func(t *analyze.TypeInfo)
	walk = func(t *analyze.TypeInfo) {
		if seen[t.ID] {
			return
		}

		seen[t.ID] = true

		for _, m := range t.Methods {
			out = append(out, member{declaring: t, method: m})
		}

		for _, id := range t.Embeds {
			if embedded := r.graph.GetType(id); embedded != nil {
				walk(embedded)
			}
		}
	}
	walk(ti)

	return out
}

// readMethodAttributes reads the accessors of an abstract view. The same
// attribute reached through several embedded interfaces is merged.
func (r *Reader) readMethodAttributes(ti *analyze.TypeInfo, vm *metamodel.ViewMapping, errs *diagnostic.Diagnostics) {
	getters := make(map[string]member)
	setters := make(map[string][]member)

	for _, m := range r.methodSet(ti) {
		switch {
		case isLifecycle(m.method):
			continue
		case m.method.IsGetter():
			am := r.readAttribute(vm.Name, m.declaring, m.method, errs)

			prev, ok := getters[am.Name]
			if !ok {
				getters[am.Name] = m
				vm.AddAttribute(am)

				continue
			}

			if prev.method.Name == m.method.Name && prev.declaring == m.declaring {
				continue
			}

			if keep := r.merge(vm, vm.Attribute(am.Name), am, prev, m, errs); keep == am {
				getters[am.Name] = m
				vm.AddAttribute(am)
			}
		case m.method.IsSetterShaped():
			name := attributeName(m.method.Name[3:])
			setters[name] = append(setters[name], m)
		default:
			errs.AddErrorf(diagnostic.CodeInvalidMethod, vm.Name, "",
				"The abstract method %s of the view type '%s' is neither a getter nor a setter!", m, vm.Name)
		}
	}

	for name, candidates := range setters {
		getter, ok := getters[name]
		if !ok {
			errs.AddErrorf(diagnostic.CodeMissingAccessor, vm.Name, "",
				"The setter %s of the view type '%s' has no matching getter %s!", candidates[0], vm.Name, candidates[0].method.Name[3:])

			continue
		}

		am := vm.Attribute(name)
		for _, setter := range candidates {
			if !accessorPair(getter.method, setter.method) {
				errs.AddErrorf(diagnostic.CodeSetterMismatch, vm.Name, am.Location(),
					"The setter %s does not accept the type %s returned by the getter of the %s!",
					setter, typeString(getter.method.Results[0]), am.Location())

				continue
			}

			if am.Setter == "" {
				am.Setter = setter.method.Name
			}
		}
	}
}

// merge applies the replacement rule for an attribute declared twice.
// Identical mappings keep the first declaration, an explicit mapping wins
// over an implicit one and two different explicit mappings conflict.
func (r *Reader) merge(
	vm *metamodel.ViewMapping,
	existing, candidate *metamodel.AttributeMapping,
	existingAt, candidateAt member,
	errs *diagnostic.Diagnostics,
) *metamodel.AttributeMapping {
	switch {
	case existing.Mapping == candidate.Mapping:
		return existing
	case !existing.Mapping.IsExplicit() && candidate.Mapping.IsExplicit():
		return candidate
	case existing.Mapping.IsExplicit() && !candidate.Mapping.IsExplicit():
		return existing
	}

	errs.AddErrorf(diagnostic.CodeConflictingMapping, vm.Name, existing.Location(),
		"Conflicting attribute mapping for attribute '%s' at the methods [%s, %s] for managed view type '%s'!",
		existing.Name, existingAt, candidateAt, vm.Name)

	return existing
}

func accessorPair(getter, setter *analyze.MethodInfo) bool {
	return len(setter.Results) == 0 && types.Identical(getter.Results[0], setter.Params[0])
}

// ReadMethodAttributeMapping reads one getter declared by declaring into
// an attribute of the view named view.
func (r *Reader) ReadMethodAttributeMapping(
	view string,
	declaring *analyze.TypeInfo,
	method *analyze.MethodInfo,
	errs *diagnostic.Diagnostics,
) *metamodel.AttributeMapping {
	if !method.IsGetter() {
		return nil
	}

	return r.readAttribute(view, declaring, method, errs)
}

func (r *Reader) readAttribute(
	view string,
	declaring *analyze.TypeInfo,
	method *analyze.MethodInfo,
	errs *diagnostic.Diagnostics,
) *metamodel.AttributeMapping {
	am := metamodel.NewMethodAttribute(attributeName(method.Name), declaring.ViewName(), method.Name)
	am.Declared = declaredType(method.Results[0])

	applyDirectives(am, method.Directives, declaring.PkgName, view, errs)

	return am
}

var errSubtypeName = errors.New("subtype directive without a view name")

func errSubtypeSlot(slot string) error {
	return fmt.Errorf("unknown subtype slot %q, expected type, key or element", slot)
}

// mappingDirectives are the directives choosing the mapping of an
// attribute.
var mappingDirectives = []string{"id", "mapping", "parameter", "subquery", "correlated", "correlated-simple"}

func hasExplicitMapping(ds analyze.Directives) bool {
	return slices.ContainsFunc(ds, func(d analyze.Directive) bool {
		return slices.Contains(mappingDirectives, d.Name)
	})
}

// applyDirectives reads the attribute directives of ds into am. When a
// directive occurs more than once the first one counts; among mapping
// directives the highest ranked kind wins.
func applyDirectives(am *metamodel.AttributeMapping, ds analyze.Directives, pkgName, view string, errs *diagnostic.Diagnostics) {
	loc := am.Location()
	invalid := func(err error) {
		errs.AddErrorf(diagnostic.CodeInvalidDirective, view, loc, "Invalid directive on the %s: %v", loc, err)
	}

	chosen := false

	for _, d := range ds {
		m, ok := mappingOf(d, am.Name)
		if !ok {
			continue
		}

		if !chosen || m.Kind.Outranks(am.Mapping.Kind) {
			am.Mapping = m
			chosen = true
		}
	}

	if d, ok := ds.Find("collection"); ok {
		if err := applyCollection(am, d); err != nil {
			invalid(err)
		}
	}

	am.Hints.Singular = ds.Has("singular")

	if d, ok := ds.Find("batch-fetch"); ok {
		size, err := d.IntParam("size", -1)
		if err != nil {
			invalid(err)
		}

		am.BatchSize = size
	}

	am.Filters = readFilters(ds)

	if d, ok := ds.Find("update"); ok {
		if err := applyUpdate(am, d, pkgName); err != nil {
			invalid(err)
		}
	}

	if d, ok := ds.Find("inverse"); ok {
		remove, _ := d.Param("remove")

		strategy, err := metamodel.ParseInverseRemoveStrategy(remove)
		if err != nil {
			invalid(err)
		}

		mappedBy, _ := d.Param("mapped-by")
		am.Inverse = &metamodel.InverseDecl{MappedBy: mappedBy, RemoveStrategy: strategy}
	}

	for _, d := range ds.All("subtype") {
		if err := applySubtype(am, d, pkgName); err != nil {
			invalid(err)
		}
	}
}

func mappingOf(d analyze.Directive, name string) (metamodel.Mapping, bool) {
	param := func(key string) string {
		v, _ := d.Param(key)
		return v
	}

	switch d.Name {
	case "id":
		expression := d.Arg()
		if len(d.Args) == 0 {
			expression = name
		}

		return metamodel.IDMapping(expression), true
	case "mapping":
		return metamodel.ExpressionMapping(d.Arg()), true
	case "parameter":
		return metamodel.Mapping{Kind: metamodel.MappingParameter, Expression: d.Arg()}, true
	case "subquery":
		return metamodel.Mapping{
			Kind: metamodel.MappingSubquery,
			Subquery: metamodel.Subquery{
				Provider:   param("provider"),
				Expression: param("expression"),
				Alias:      param("alias"),
			},
		}, true
	case "correlated":
		return metamodel.Mapping{
			Kind: metamodel.MappingCorrelated,
			Correlation: metamodel.Correlation{
				Provider:   param("provider"),
				Basis:      param("basis"),
				Expression: param("expression"),
			},
		}, true
	case "correlated-simple":
		return metamodel.Mapping{
			Kind: metamodel.MappingCorrelatedSimple,
			Correlation: metamodel.Correlation{
				Entity:     param("entity"),
				Basis:      param("basis"),
				Expression: param("expression"),
				Result:     param("result"),
			},
		}, true
	default:
		return metamodel.Mapping{}, false
	}
}

func applyCollection(am *metamodel.AttributeMapping, d analyze.Directive) error {
	for _, arg := range d.Args {
		switch arg {
		case "ordered":
			am.Hints.Ordered = true
		case "sorted":
			am.Hints.Sorted = true
		case "indexed":
			am.Hints.Indexed = true
		}
	}

	if !am.Declared.Plural() {
		return nil
	}

	if kind, ok := d.Param("kind"); ok {
		c, err := metamodel.ParseContainer(kind)
		if err != nil {
			return err
		}

		if c.Plural() && !am.Declared.Container.IsMap() && !c.IsMap() {
			am.Declared.Container = c
		}
	}

	if am.Hints.Sorted {
		switch am.Declared.Container {
		case metamodel.ContainerSet:
			am.Declared.Container = metamodel.ContainerSortedSet
		case metamodel.ContainerMap:
			am.Declared.Container = metamodel.ContainerSortedMap
		}
	}

	return nil
}

func applyUpdate(am *metamodel.AttributeMapping, d analyze.Directive, pkgName string) error {
	updatable, err := d.BoolParam("updatable")
	if err != nil {
		return err
	}

	orphanRemoval, err := d.BoolParam("orphan-removal")
	if err != nil {
		return err
	}

	decl := metamodel.UpdateDecl{
		Updatable:       updatable,
		OrphanRemoval:   orphanRemoval,
		Subtypes:        qualifyAll(pkgName, d.ListParam("subtypes")),
		PersistSubtypes: qualifyAll(pkgName, d.ListParam("persist-subtypes")),
		UpdateSubtypes:  qualifyAll(pkgName, d.ListParam("update-subtypes")),
	}

	for _, name := range d.ListParam("cascade") {
		ct, err := metamodel.ParseCascadeType(name)
		if err != nil {
			return err
		}

		decl.Cascade = append(decl.Cascade, ct)
	}

	am.Update = decl

	return nil
}

func applySubtype(am *metamodel.AttributeMapping, d analyze.Directive, pkgName string) error {
	name := qualify(pkgName, d.Arg())
	if name == "" {
		return errSubtypeName
	}

	var discriminator *string
	if mapping, ok := d.Param("mapping"); ok {
		discriminator = &mapping
	}

	slot, ok := d.Param("slot")
	if !ok {
		slot = "type"
		if am.Declared.Plural() {
			slot = "element"
		}
	}

	var target *map[string]*string

	switch slot {
	case "type":
		target = &am.TypeSubtypes
	case "key":
		target = &am.KeySubtypes
	case "element":
		target = &am.ElementSubtypes
	default:
		return errSubtypeSlot(slot)
	}

	if *target == nil {
		*target = make(map[string]*string)
	}

	(*target)[name] = discriminator

	return nil
}

func isLifecycle(m *analyze.MethodInfo) bool {
	return slices.ContainsFunc(m.Directives, func(d analyze.Directive) bool {
		_, err := metamodel.ParseLifecycleKind(d.Name)
		return err == nil
	})
}
