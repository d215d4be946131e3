package mapping

import (
	"fmt"
	"strings"

	"viewmeta/internal/common"
	"viewmeta/internal/diagnostic"
	"viewmeta/internal/metamodel"
)

// ViewMappings converts the declared views into view mappings. Invalid
// values are reported to errs and left at their zero value.
func (f *File) ViewMappings(errs *diagnostic.Diagnostics) []*metamodel.ViewMapping {
	out := make([]*metamodel.ViewMapping, 0, len(f.Views))

	for i := range f.Views {
		out = append(out, f.Views[i].viewMapping(f.Package, errs))
	}

	return out
}

type converter struct {
	view string
	errs *diagnostic.Diagnostics
}

func (c converter) invalid(location string, err error) {
	c.errs.AddErrorf(diagnostic.CodeInvalidDirective, c.view, location, "Invalid declaration on %s: %v", c.where(location), err)
}

func (c converter) where(location string) string {
	if location == "" {
		return c.view
	}

	return "the " + location
}

func (v *ViewDecl) viewMapping(pkg string, errs *diagnostic.Diagnostics) *metamodel.ViewMapping {
	c := converter{view: v.Name, errs: errs}

	vm := metamodel.NewViewMapping(v.Name, v.Entity)
	vm.Package = pkg
	vm.Abstract = !v.Concrete
	vm.Supertypes = v.Extends
	vm.LockOwner = v.LockOwner
	vm.InheritanceMapping = v.InheritanceMapping
	vm.Filters = filters(v.Filters)

	var err error

	if v.Updatable != nil {
		decl := &metamodel.UpdatableDecl{}
		if decl.Mode, err = metamodel.ParseFlushMode(v.Updatable.Mode); err != nil {
			c.invalid("", err)
		}

		if decl.Strategy, err = metamodel.ParseFlushStrategy(v.Updatable.Strategy); err != nil {
			c.invalid("", err)
		}

		vm.Updatable = decl
	}

	if v.Creatable != nil {
		vm.Creatable = &metamodel.CreatableDecl{Validate: true, Excluded: v.Creatable.Exclude}
		if v.Creatable.Validate != nil {
			vm.Creatable.Validate = *v.Creatable.Validate
		}
	}

	if vm.LockMode, err = metamodel.ParseLockMode(v.Lock); err != nil {
		c.invalid("", err)
	}

	switch {
	case v.Inheritance.Contains(inheritanceAuto):
		vm.Inheritance = metamodel.InheritanceDecl{Mode: metamodel.InheritanceAuto}
	case len(v.Inheritance) > 0:
		vm.Inheritance = metamodel.InheritanceDecl{Mode: metamodel.InheritanceExplicit, Subtypes: v.Inheritance}
	}

	if v.BatchSize != nil {
		vm.BatchSize = *v.BatchSize
	}

	for _, name := range common.SortedKeys(v.Lifecycle) {
		c.lifecycle(vm, name, v.Lifecycle[name])
	}

	shortName := v.Name[strings.LastIndex(v.Name, ".")+1:]

	for i := range v.Attributes {
		a := &v.Attributes[i]
		am := metamodel.NewMethodAttribute(a.Name, v.Name, common.UpperFirst(a.Name))

		if a.Setter {
			am.Setter = "Set" + common.UpperFirst(a.Name)
		}

		c.attribute(am, a)
		vm.AddAttribute(am)
	}

	for i := range v.Constructors {
		ctor := &v.Constructors[i]

		funcName := ctor.Func
		if funcName == "" {
			funcName = "New" + shortName
			if ctor.Name != "init" {
				funcName += common.UpperFirst(ctor.Name)
			}
		}

		cm := &metamodel.ConstructorMapping{Name: ctor.Name, FuncName: funcName}

		for j := range ctor.Parameters {
			p := &ctor.Parameters[j]
			am := metamodel.NewParameterAttribute(p.Name, ctor.Name, funcName, j)
			am.DeclaringType = v.Name

			c.attribute(am, p)
			cm.Parameters = append(cm.Parameters, am)
		}

		if err := vm.AddConstructor(cm); err != nil {
			errs.AddErrorf(diagnostic.CodeDuplicateConstructor, v.Name, "", "%v", err)
			continue
		}

		if ctor.Name == "init" || common.IsSingle(v.Constructors) {
			for _, am := range cm.Parameters {
				vm.AddAttribute(am)
			}
		}
	}

	if common.IsMultiple(v.Constructors) && vm.Constructor("init") == nil {
		errs.AddErrorf(diagnostic.CodeCanonicalConstructor, v.Name, "",
			"Multiple constructors found for the concrete view type '%s' but none named 'init'", v.Name)
	}

	return vm
}

func (c converter) lifecycle(vm *metamodel.ViewMapping, name string, decl LifecycleDecl) {
	kind, err := metamodel.ParseLifecycleKind(name)
	if err != nil {
		c.invalid("", err)
		return
	}

	lm := &metamodel.LifecycleMethod{Kind: kind, Method: decl.Method, DeclaringType: vm.Name}

	if kind.HasTransitions() {
		if lm.Transitions, err = metamodel.ParseTransitions(decl.Transitions); err != nil {
			c.invalid("", err)
		}
	} else if len(decl.Transitions) > 0 {
		c.invalid("", fmt.Errorf("%s does not take transitions", kind))
	}

	vm.Lifecycle[kind] = lm
}

func (c converter) attribute(am *metamodel.AttributeMapping, a *AttributeDecl) {
	loc := am.Location()

	declared, err := declaredType(a)
	if err != nil {
		c.invalid(loc, err)
	}

	am.Declared = declared
	am.Mapping = mapping(a)
	am.Hints = metamodel.Hints{
		Ordered:  a.Hints.Contains("ordered"),
		Sorted:   a.Hints.Contains("sorted"),
		Indexed:  a.Hints.Contains("indexed"),
		Singular: a.Singular,
	}
	am.Filters = filters(a.Filters)

	if a.BatchSize != nil {
		am.BatchSize = *a.BatchSize
	}

	if a.Update != nil {
		am.Update = metamodel.UpdateDecl{
			Updatable:       a.Update.Updatable,
			OrphanRemoval:   a.Update.OrphanRemoval,
			Subtypes:        a.Update.Subtypes,
			PersistSubtypes: a.Update.PersistSubtypes,
			UpdateSubtypes:  a.Update.UpdateSubtypes,
		}

		for _, name := range a.Update.Cascade {
			ct, err := metamodel.ParseCascadeType(name)
			if err != nil {
				c.invalid(loc, err)
				continue
			}

			am.Update.Cascade = append(am.Update.Cascade, ct)
		}
	}

	if a.Inverse != nil {
		strategy, err := metamodel.ParseInverseRemoveStrategy(a.Inverse.Remove)
		if err != nil {
			c.invalid(loc, err)
		}

		am.Inverse = &metamodel.InverseDecl{MappedBy: a.Inverse.MappedBy, RemoveStrategy: strategy}
	}

	if a.Subtypes != nil {
		am.TypeSubtypes = a.Subtypes.Type
		am.KeySubtypes = a.Subtypes.Key
		am.ElementSubtypes = a.Subtypes.Element
	}
}

// declaredType renders the Go spelling of a plural declaration so that it
// reads like a type read from source.
func declaredType(a *AttributeDecl) (metamodel.DeclaredType, error) {
	container, err := metamodel.ParseContainer(a.Container)
	if err != nil {
		return metamodel.DeclaredType{Type: a.Type}, err
	}

	switch {
	case !container.Plural():
		return metamodel.DeclaredType{Type: a.Type}, nil
	case container.IsMap():
		if a.KeyType == "" {
			return metamodel.DeclaredType{Type: a.Type}, fmt.Errorf("%s attribute %q needs a key-type", container, a.Name)
		}

		return metamodel.DeclaredType{
			Type:        "map[" + a.KeyType + "]" + a.Type,
			Container:   container,
			KeyType:     a.KeyType,
			ElementType: a.Type,
		}, nil
	default:
		return metamodel.DeclaredType{
			Type:        "[]" + a.Type,
			Container:   container,
			ElementType: a.Type,
		}, nil
	}
}

// mapping picks the highest ranked mapping declared on a.
func mapping(a *AttributeDecl) metamodel.Mapping {
	m := metamodel.ImplicitMapping(a.Name)

	consider := func(candidate metamodel.Mapping) {
		if candidate.Kind.Outranks(m.Kind) {
			m = candidate
		}
	}

	if a.Mapping != nil {
		consider(metamodel.ExpressionMapping(*a.Mapping))
	}

	if a.CorrelatedSimple != nil {
		consider(metamodel.Mapping{Kind: metamodel.MappingCorrelatedSimple, Correlation: correlation(a.CorrelatedSimple)})
	}

	if a.Correlated != nil {
		consider(metamodel.Mapping{Kind: metamodel.MappingCorrelated, Correlation: correlation(a.Correlated)})
	}

	if a.Subquery != nil {
		consider(metamodel.Mapping{Kind: metamodel.MappingSubquery, Subquery: metamodel.Subquery{
			Provider:   a.Subquery.Provider,
			Expression: a.Subquery.Expression,
			Alias:      a.Subquery.Alias,
		}})
	}

	if a.Parameter != "" {
		consider(metamodel.Mapping{Kind: metamodel.MappingParameter, Expression: a.Parameter})
	}

	if a.ID {
		expression := a.Name
		if a.Mapping != nil {
			expression = *a.Mapping
		}

		consider(metamodel.IDMapping(expression))
	}

	return m
}

func correlation(d *CorrelatedDecl) metamodel.Correlation {
	return metamodel.Correlation{
		Provider:   d.Provider,
		Entity:     d.Entity,
		Basis:      d.Basis,
		Expression: d.Expression,
		Result:     d.Result,
	}
}

func filters(decls []FilterDecl) []metamodel.FilterMapping {
	var out []metamodel.FilterMapping
	for _, d := range decls {
		out = append(out, metamodel.FilterMapping(d))
	}

	return out
}
