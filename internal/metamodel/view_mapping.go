package metamodel

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"viewmeta/internal/common"
	"viewmeta/internal/diagnostic"
)

// CreatableDecl is the creatable declaration of a view.
type CreatableDecl struct {
	Validate bool
	// Excluded names attributes skipped by creation validation.
	Excluded []string
}

// UpdatableDecl is the updatable declaration of a view.
type UpdatableDecl struct {
	Mode     FlushMode
	Strategy FlushStrategy
}

// InheritanceDecl declares the inheritance subtypes of a view.
type InheritanceDecl struct {
	Mode     InheritanceMode
	Subtypes []string
}

// LifecycleMethod is a bound lifecycle callback.
type LifecycleMethod struct {
	Kind          LifecycleKind
	Method        string
	DeclaringType string
	Transitions   []Transition
}

// ConstructorMapping is one named constructor of a view.
type ConstructorMapping struct {
	Name       string
	FuncName   string
	Parameters []*AttributeMapping
}

// ViewMapping is the unresolved declaration of one view type.
type ViewMapping struct {
	Name     string
	Package  string
	Abstract bool
	// Supertypes names the direct view supertypes.
	Supertypes []string
	EntityType string

	// BatchSize is -1 when unset.
	BatchSize int
	Creatable *CreatableDecl
	Updatable *UpdatableDecl
	LockMode  LockMode
	LockOwner string

	Inheritance InheritanceDecl
	// InheritanceMapping is the discriminator used when the view appears
	// as a subtype. Nil defers to an inferred discriminator.
	InheritanceMapping *string

	Filters   []FilterMapping
	Lifecycle map[LifecycleKind]*LifecycleMethod

	attributes   map[string]*AttributeMapping
	constructors map[string]*ConstructorMapping
}

// NewViewMapping creates an empty view mapping.
func NewViewMapping(name, entityType string) *ViewMapping {
	return &ViewMapping{
		Name:         name,
		EntityType:   entityType,
		BatchSize:    -1,
		Lifecycle:    make(map[LifecycleKind]*LifecycleMethod),
		attributes:   make(map[string]*AttributeMapping),
		constructors: make(map[string]*ConstructorMapping),
	}
}

// AddAttribute registers am, replacing an attribute of the same name. The
// replaced attribute is returned.
func (vm *ViewMapping) AddAttribute(am *AttributeMapping) *AttributeMapping {
	prev := vm.attributes[am.Name]
	vm.attributes[am.Name] = am

	return prev
}

// Attribute returns an attribute by name.
func (vm *ViewMapping) Attribute(name string) *AttributeMapping {
	return vm.attributes[name]
}

// Attributes returns the attributes ordered by name.
func (vm *ViewMapping) Attributes() []*AttributeMapping {
	out := make([]*AttributeMapping, 0, len(vm.attributes))
	for _, name := range common.SortedKeys(vm.attributes) {
		out = append(out, vm.attributes[name])
	}

	return out
}

// AddConstructor registers a constructor. Names must be unique.
func (vm *ViewMapping) AddConstructor(cm *ConstructorMapping) error {
	if prev, ok := vm.constructors[cm.Name]; ok {
		return fmt.Errorf("Constructor with duplicate view constructor name '%s' found: %s and %s",
			cm.Name, prev.FuncName, cm.FuncName)
	}

	vm.constructors[cm.Name] = cm

	return nil
}

// Constructor returns a constructor by name.
func (vm *ViewMapping) Constructor(name string) *ConstructorMapping {
	return vm.constructors[name]
}

// Constructors returns the constructors ordered by name.
func (vm *ViewMapping) Constructors() []*ConstructorMapping {
	out := make([]*ConstructorMapping, 0, len(vm.constructors))
	for _, name := range common.SortedKeys(vm.constructors) {
		out = append(out, vm.constructors[name])
	}

	return out
}

// IDAttribute returns the identifier attribute, if any.
func (vm *ViewMapping) IDAttribute() *AttributeMapping {
	for _, am := range vm.Attributes() {
		if am.IsID() {
			return am
		}
	}

	return nil
}

// Mutable reports whether the view is creatable or updatable.
func (vm *ViewMapping) Mutable() bool {
	return vm.Creatable != nil || vm.Updatable != nil
}

// Validate reports declaration errors that do not depend on other views.
func (vm *ViewMapping) Validate(errs *diagnostic.Diagnostics) {
	if vm.EntityType == "" {
		errs.AddErrorf(diagnostic.CodeMissingEntity, vm.Name, "",
			"No entity type configured in view mapping for view type: %s", vm.Name)
	}

	if vm.BatchSize != -1 && vm.BatchSize < 1 {
		errs.AddErrorf(diagnostic.CodeInvalidBatchSize, vm.Name, vm.Name,
			"Illegal batch fetch size defined at '%s'! Use a value greater than 0!", vm.Name)
	}

	if !vm.Abstract && vm.Mutable() {
		errs.AddErrorf(diagnostic.CodeConcreteUpdatable, vm.Name, vm.Name,
			"Only abstract view types can be updatable or creatable, but '%s' is concrete!", vm.Name)
	}

	if !vm.Mutable() && (vm.LockOwner != "" || vm.LockMode != LockUnset) {
		errs.AddErrorf(diagnostic.CodeInvalidLockOwner, vm.Name, vm.Name,
			"The usage of optimistic locking is only allowed on updatable or creatable view types! Invalid definition on the view type '%s'", vm.Name)
	}

	seen := make(map[string]bool)

	for _, f := range vm.Filters {
		if f.Name == "" {
			errs.AddErrorf(diagnostic.CodeEmptyFilterName, vm.Name, vm.Name,
				"Illegal empty name for the filter mapping at the view type '%s' with filter provider '%s'!", vm.Name, f.Provider)
			continue
		}

		if seen[f.Name] {
			errs.AddErrorf(diagnostic.CodeDuplicateFilter, vm.Name, vm.Name,
				"Illegal duplicate filter name mapping '%s' at the view type '%s'!", f.Name, vm.Name)
		}

		seen[f.Name] = true
	}

	var ids []string

	attrFilters := make(map[string]string)

	for _, am := range vm.Attributes() {
		vm.validateAttribute(am, attrFilters, errs)

		if am.IsID() {
			ids = append(ids, am.Name)
		}
	}

	// Parameters of the canonical constructor are attributes and already
	// checked. Filter names of the others are unique per constructor.
	for _, ctor := range vm.Constructors() {
		ctorFilters := maps.Clone(attrFilters)

		for _, p := range ctor.Parameters {
			if vm.Attribute(p.Name) != p {
				vm.validateAttribute(p, ctorFilters, errs)
			}
		}
	}

	if len(ids) > 1 {
		errs.AddErrorf(diagnostic.CodeInvalidID, vm.Name, vm.Name,
			"Multiple id attributes declared for the view type '%s': %s", vm.Name, strings.Join(ids, ", "))
	}
}

func (vm *ViewMapping) validateAttribute(am *AttributeMapping, filters map[string]string, errs *diagnostic.Diagnostics) {
	loc := am.Location()

	if am.BatchSize != -1 && am.BatchSize < 1 {
		errs.AddErrorf(diagnostic.CodeInvalidBatchSize, vm.Name, loc,
			"Illegal batch fetch size defined at '%s'! Use a value greater than 0!", loc)
	}

	m := am.Mapping

	switch {
	case m.Kind.HasPath() && strings.TrimSpace(m.Expression) == "":
		errs.AddErrorf(diagnostic.CodeEmptyMapping, vm.Name, loc, "Illegal empty mapping for the %s", loc)
	case m.Kind == MappingParameter && m.Expression == "":
		errs.AddErrorf(diagnostic.CodeEmptyMapping, vm.Name, loc, "Illegal empty mapping parameter for the %s", loc)
	case m.Kind.IsCorrelated() && strings.TrimSpace(m.Correlation.Basis) == "":
		errs.AddErrorf(diagnostic.CodeEmptyMapping, vm.Name, loc, "Illegal empty correlation basis in the %s", loc)
	case m.Kind == MappingSubquery && m.Subquery.Expression != "" && m.Subquery.Alias == "":
		errs.AddErrorf(diagnostic.CodeEmptyMapping, vm.Name, loc,
			"The subquery alias is empty although the subquery expression is not %s", loc)
	}

	if am.IsID() && am.Declared.Plural() && !am.Hints.Singular {
		errs.AddErrorf(diagnostic.CodeInvalidID, vm.Name, loc,
			"Attribute mapped as id must use a singular type. Plural type found at the %s!", loc)
	}

	if am.Update.Declared() {
		switch {
		case am.IsID():
			errs.AddErrorf(diagnostic.CodeIllegalUpdateMapping, vm.Name, loc,
				"Illegal update declaration along with id mapping on the %s!", loc)
		case !vm.Mutable():
			errs.AddErrorf(diagnostic.CodeIllegalUpdateMapping, vm.Name, loc,
				"Illegal update declaration for non-updatable and non-creatable view type '%s' on the %s!", vm.Name, loc)
		}
	}

	var names []string

	for _, f := range am.Filters {
		if f.Name == "" {
			errs.AddErrorf(diagnostic.CodeEmptyFilterName, vm.Name, loc,
				"Illegal empty name for the filter mapping at the %s with filter provider '%s'!", loc, f.Provider)
			continue
		}

		if owner, ok := filters[f.Name]; ok || slices.Contains(names, f.Name) {
			if owner == "" {
				owner = am.Name
			}

			errs.AddErrorf(diagnostic.CodeDuplicateFilter, vm.Name, loc,
				"Illegal duplicate filter name mapping '%s' at the %s! Already defined on attribute '%s'!", f.Name, loc, owner)

			continue
		}

		names = append(names, f.Name)
	}

	for _, n := range names {
		filters[n] = am.Name
	}
}
