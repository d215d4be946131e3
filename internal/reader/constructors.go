package reader

import (
	"fmt"
	"strings"

	"viewmeta/internal/analyze"
	"viewmeta/internal/ctorflow"
	"viewmeta/internal/diagnostic"
	"viewmeta/internal/metamodel"
)

// accessor binds a struct field to the methods reading and writing it.
type accessor struct {
	declaring *analyze.TypeInfo
	field     *analyze.FieldInfo
	getter    string
	setter    string
}

// accessors builds the field table of a concrete view, keyed by attribute
// name. The embedding chain
// is walked breadth first and the shallowest getter and setter win.
func (r *Reader) accessors(ti *analyze.TypeInfo, view string, errs *diagnostic.Diagnostics) map[string]*accessor {
	table := make(map[string]*accessor)

	var chain []*analyze.TypeInfo

	seen := map[analyze.TypeID]bool{ti.ID: true}

	for level := []*analyze.TypeInfo{ti}; len(level) > 0; {
		var next []*analyze.TypeInfo

		for _, t := range level {
			chain = append(chain, t)

			for _, f := range t.Fields {
				if f.Embedded {
					continue
				}

				key := attributeName(f.Name)
				if prev, ok := table[key]; ok {
					errs.AddErrorf(diagnostic.CodeDuplicateField, view, "",
						"Duplicate field '%s' declared in %s and %s for managed view type '%s'!",
						f.Name, prev.declaring.ViewName(), t.ViewName(), view)

					continue
				}

				table[key] = &accessor{declaring: t, field: f}
			}

			for _, id := range t.Embeds {
				embedded := r.graph.GetType(id)
				if embedded == nil || seen[id] || embedded.Kind != analyze.TypeKindStruct {
					continue
				}

				seen[id] = true
				next = append(next, embedded)
			}
		}

		level = next
	}

	for _, t := range chain {
		for _, m := range t.Methods {
			if !m.Exported || isLifecycle(m) {
				continue
			}

			switch {
			case m.IsGetter():
				if a, ok := table[attributeName(m.Name)]; ok && a.getter == "" {
					a.getter = m.Name
				}
			case m.IsSetterShaped() && len(m.Results) == 0:
				if a, ok := table[attributeName(m.Name[3:])]; ok && a.setter == "" {
					a.setter = m.Name
				}
			}
		}
	}

	return table
}

// readConstructors reads the constructors of a concrete view. The
// parameters of the canonical constructor are the view attributes.
func (r *Reader) readConstructors(ti *analyze.TypeInfo, vm *metamodel.ViewMapping, errs *diagnostic.Diagnostics) {
	canonical, ok := canonicalConstructor(ti, vm.Name, errs)
	if !ok {
		return
	}

	table := r.accessors(ti, vm.Name, errs)

	for _, ctor := range ti.Constructors {
		cm, ok := r.readConstructor(ti, ctor, table, vm.Name, errs)
		if !ok {
			continue
		}

		if err := vm.AddConstructor(cm); err != nil {
			errs.AddErrorf(diagnostic.CodeDuplicateConstructor, vm.Name, "", "%v", err)
			continue
		}

		if ctor == canonical {
			for _, am := range cm.Parameters {
				vm.AddAttribute(am)
			}
		}
	}
}

// constructorName is the declared name of a constructor. The plain
// New<Type> func is "init"; New<Type><Suffix> is named after the suffix.
func constructorName(ti *analyze.TypeInfo, ctor *analyze.ConstructorInfo) string {
	if d, ok := ctor.Directives.Find("constructor"); ok && d.Arg() != "" {
		return d.Arg()
	}

	suffix := strings.TrimPrefix(ctor.FuncName, "New"+ti.ID.Name)
	if suffix == "" {
		return "init"
	}

	return attributeName(suffix)
}

func canonicalConstructor(ti *analyze.TypeInfo, view string, errs *diagnostic.Diagnostics) (*analyze.ConstructorInfo, bool) {
	switch len(ti.Constructors) {
	case 0:
		errs.AddErrorf(diagnostic.CodeCanonicalConstructor, view, "",
			"No constructor found for the concrete view type '%s'! Declare a New%s func.", view, ti.ID.Name)

		return nil, false
	case 1:
		return ti.Constructors[0], true
	}

	var (
		found *analyze.ConstructorInfo
		names []string
	)

	for _, ctor := range ti.Constructors {
		names = append(names, ctor.FuncName)

		if constructorName(ti, ctor) != "init" {
			continue
		}

		if found != nil {
			found = nil
			break
		}

		found = ctor
	}

	if found == nil {
		errs.AddErrorf(diagnostic.CodeCanonicalConstructor, view, "",
			"Multiple constructors found for the concrete view type '%s' but not exactly one named 'init': %s",
			view, strings.Join(names, ", "))

		return nil, false
	}

	return found, true
}

// readConstructor reads the parameters of one constructor. Parameters
// without an explicit mapping are bound to the field they initialize; when
// that cannot be recovered the constructor is skipped.
func (r *Reader) readConstructor(
	ti *analyze.TypeInfo,
	ctor *analyze.ConstructorInfo,
	table map[string]*accessor,
	view string,
	errs *diagnostic.Diagnostics,
) (*metamodel.ConstructorMapping, bool) {
	cm := &metamodel.ConstructorMapping{Name: constructorName(ti, ctor), FuncName: ctor.FuncName}

	var (
		flow     ctorflow.Result
		flowErr  error
		analyzed bool
	)

	fieldOf := func(i int) (string, bool, error) {
		if !analyzed {
			analyzed = true
			flow, flowErr = correspondence(ctor, ti)
		}

		if flowErr != nil {
			return "", false, flowErr
		}

		name, ok := flow.Field(i)

		return name, ok, nil
	}

	ok := true

	for i, p := range ctor.Params {
		ds := ctor.Directives.ForParam(p.Name)
		explicit := hasExplicitMapping(ds)

		field, found, err := fieldOf(i)
		if err != nil && !explicit {
			errs.AddErrorf(diagnostic.CodeCorrespondenceFailed, view, "",
				"Could not recover the parameter correspondence of constructor %s of the view type '%s': %v",
				ctor.FuncName, view, err)

			return nil, false
		}

		var a *accessor
		if found {
			field = attributeName(field)
			a = table[field]
		}

		if a != nil {
			ds = append(ds, a.field.Directives.WithoutParamTargets()...)
			explicit = explicit || hasExplicitMapping(a.field.Directives)
		}

		if !found && !explicit {
			errs.AddErrorf(diagnostic.CodeUnresolvedParameter, view, "",
				"The parameter '%s' at index %d of constructor %s does not initialize a field of the view type '%s' and has no mapping!",
				p.Name, i, ctor.FuncName, view)

			ok = false

			continue
		}

		name := p.Name
		if found {
			name = field
		}

		am := metamodel.NewParameterAttribute(name, cm.Name, ctor.FuncName, i)
		am.Declared = declaredType(p.Type)

		if a != nil {
			am.DeclaringType = a.declaring.ViewName()
			am.Getter = a.getter
			am.Setter = a.setter
		}

		applyDirectives(am, ds, ti.PkgName, view, errs)
		cm.Parameters = append(cm.Parameters, am)
	}

	return cm, ok
}

func correspondence(ctor *analyze.ConstructorInfo, ti *analyze.TypeInfo) (ctorflow.Result, error) {
	if ctor.SSA == nil {
		return ctorflow.Result{}, fmt.Errorf("no SSA form for %s", ctor.FuncName)
	}

	return ctorflow.Analyze(ctor.SSA, ti.Named)
}
