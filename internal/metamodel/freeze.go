package metamodel

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"viewmeta/internal/catalog"
	"viewmeta/internal/common"
	"viewmeta/internal/diagnostic"
)

// pendingConfig is a subtype configuration whose entries are filled once
// every view it references is frozen.
type pendingConfig struct {
	ivm *InheritanceViewMapping
	cfg *InheritanceSubtypeConfiguration
}

// ManagedViewType freezes a finished node. Repeated calls return the same
// value. It panics when the node did not finish.
func (c *Context) ManagedViewType(id NodeID) *ManagedViewType {
	n := c.node(id)
	if n.state != StateFinished {
		panic(fmt.Sprintf("metamodel: view %s is %s, not finished", n.vm.Name, n.state))
	}

	c.freezeDepth++
	v := c.freeze(n)
	c.freezeDepth--

	if c.freezeDepth == 0 {
		c.drainConfigs()
	}

	return v
}

func (c *Context) freeze(n *node) *ManagedViewType {
	if n.frozen != nil {
		return n.frozen
	}

	vm := n.vm
	v := &ManagedViewType{
		Name:      vm.Name,
		Package:   vm.Package,
		Abstract:  vm.Abstract,
		Entity:    n.managed,
		Creatable: vm.Creatable != nil,
		Updatable: vm.Updatable != nil,
		LockOwner: vm.LockOwner,
		BatchSize: vm.BatchSize,
		Filters:   slices.Clone(vm.Filters),
		Lifecycle: maps.Clone(vm.Lifecycle),
		byName:    make(map[string]*Attribute),
	}
	n.frozen = v

	if vm.Creatable != nil {
		v.CreatableValidation = vm.Creatable.Validate
		v.ExcludedFromValidation = slices.Clone(vm.Creatable.Excluded)
	}

	if d := c.discriminator(n.id, nil); d != nil {
		v.InheritanceMapping = *d
	}

	// The id comes first because lock mode inference depends on it.
	idAm := vm.IDAttribute()
	if idAm != nil {
		if n.managed != nil && !n.managed.Identifiable() {
			c.diags.AddErrorf(diagnostic.CodeInvalidID, vm.Name, idAm.Location(),
				"Invalid id attribute mapping for embeddable entity type '%s' at %s for managed view type '%s'!",
				n.managed.Name, idAm.Location(), vm.Name)
		} else {
			v.ID = c.freezeAttribute(n, idAm)
		}
	}

	frozen := make(map[*AttributeMapping]*Attribute)

	for _, am := range vm.Attributes() {
		a := v.ID
		if am != idAm || a == nil {
			a = c.freezeAttribute(n, am)
		}

		frozen[am] = a
		v.attributes = append(v.attributes, a)
		v.byName[a.Name] = a
	}

	for _, ctor := range vm.Constructors() {
		mc := &MappingConstructor{Name: ctor.Name, FuncName: ctor.FuncName}

		for _, p := range ctor.Parameters {
			a, ok := frozen[p]
			if !ok {
				a = c.freezeAttribute(n, p)
			}

			mc.Parameters = append(mc.Parameters, a)
		}

		v.constructors = append(v.constructors, mc)
	}

	c.freezeFlush(n, v)
	c.freezeLocking(n, v)
	c.checkCollectionMappings(n, v)

	v.interfaceEqualsFn = func() bool { return c.interfaceEquals(v) }

	v.Inheritance = c.frozenConfig(n.inheritance)
	for _, key := range n.configOrder {
		v.InheritanceConfigurations = append(v.InheritanceConfigurations, c.frozenConfig(n.configs[key]))
	}

	return v
}

func (c *Context) freezeAttribute(n *node, am *AttributeMapping) *Attribute {
	container := ContainerNone
	if isPlural(am) {
		container = am.Declared.Container
	}

	a := &Attribute{
		Name:          am.Name,
		Kind:          kindOf(am.Mapping.Kind, container),
		Location:      am.Location(),
		DeclaringView: n.vm.Name,
		Binding:       am.Binding,
		Getter:        am.Getter,
		Setter:        am.Setter,
		Constructor:   am.Constructor,
		Index:         am.Index,
		Mapping:       am.Mapping,
		Declared:      am.Declared,
		Ordered:       am.Hints.Ordered || container == ContainerList,
		Sorted:        am.Hints.Sorted || container.Sorted(),
		Indexed:       am.Hints.Indexed,
		Inverse:       am.Inverse,
		Filters:       slices.Clone(am.Filters),
		BatchSize:     am.BatchSize,
		container:     container,
	}

	r, ok := n.attrs[am][EmbeddableOwner{}]
	if !ok {
		return a
	}

	a.PossibleTargets = slices.Clone(r.targets)
	for _, t := range r.targets {
		a.CollectionJoin = a.CollectionJoin || t.CollectionJoin
	}

	main := r.slots[cascadeSlot(am)]
	a.Type = c.freezeSlot(main)
	a.KeyType = c.freezeSlot(r.slots[slotKey])

	if main != nil {
		if isPlural(am) {
			a.ElementInheritance = c.frozenConfig(main.inheritance)
		} else {
			a.TypeInheritance = c.frozenConfig(main.inheritance)
		}
	}

	if key := r.slots[slotKey]; key != nil {
		a.KeyInheritance = c.frozenConfig(key.inheritance)
	}

	if cr := r.cascade; cr != nil {
		a.Updatable = cr.updatable
		a.OrphanRemoval = cr.orphanRemoval
		a.DeleteCascaded = cr.deleteCascaded
		a.AllowedSubtypes = c.names(cr.allowed)
		a.PersistSubtypes = c.names(cr.persist)
		a.UpdateSubtypes = c.names(cr.update)
	}

	return a
}

func (c *Context) freezeSlot(sr *slotResult) *Type {
	if sr == nil {
		return nil
	}

	t := &Type{Name: sr.name, Managed: sr.managed, Basic: sr.basic}
	if sr.view != NoNode {
		t.View = c.freeze(c.nodes[sr.view])
	}

	return t
}

// freezeFlush applies the configured flush overrides: per view, then
// global, then the declaration, then the defaults.
func (c *Context) freezeFlush(n *node, v *ManagedViewType) {
	if n.vm.Updatable == nil {
		return
	}

	mode, strategy := FlushLazy, FlushStrategyEntity

	for _, o := range []FlushOverride{
		{Mode: n.vm.Updatable.Mode, Strategy: n.vm.Updatable.Strategy},
		{Mode: c.cfg.FlushMode, Strategy: c.cfg.FlushStrategy},
		c.cfg.ViewFlush[n.vm.Name],
	} {
		if o.Mode != FlushModeUnset {
			mode = o.Mode
		}

		if o.Strategy != FlushStrategyUnset {
			strategy = o.Strategy
		}
	}

	v.FlushMode, v.FlushStrategy = mode, strategy
}

// freezeLocking infers the lock mode and the version attribute.
func (c *Context) freezeLocking(n *node, v *ManagedViewType) {
	mutable := v.Creatable || v.Updatable
	version := ""

	if n.managed != nil {
		version = n.managed.Version
	}

	// Only identifiable views that can be written keep a lock mode.
	switch {
	case !v.Identifiable() || !mutable:
		v.LockMode = LockNone
	case n.vm.LockMode != LockUnset:
		v.LockMode = n.vm.LockMode
	case version != "":
		v.LockMode = LockOptimistic
	default:
		v.LockMode = LockAuto
	}

	if v.LockMode != LockOptimistic {
		return
	}

	if version == "" {
		entity := n.vm.EntityType
		c.diags.AddErrorf(diagnostic.CodeMissingVersion, n.vm.Name, "",
			"No version attribute could be found for entity type '%s', but since OPTIMISTIC locking was specified for the entity view type '%s' it is required!",
			entity, n.vm.Name)

		return
	}

	for _, a := range v.attributes {
		if a.Mapping.Kind.HasPath() && a.Mapping.Path() == version {
			v.Version = a
			break
		}
	}

	if v.Version == nil {
		v.Version = c.synthesizeVersion(n, version)
	}

	if v.Version.Type == nil || !v.Version.Type.Basic.SupportsVersion() {
		c.diags.AddErrorf(diagnostic.CodeVersionType, n.vm.Name, v.Version.Location,
			"Illegal non-version capable type '%s' used for version attribute on the %s!", v.Version.Type, v.Version.Location)
	}
}

func (c *Context) synthesizeVersion(n *node, version string) *Attribute {
	a := &Attribute{
		Name:          VersionAttributeName,
		Kind:          KindSingular,
		Location:      fmt.Sprintf("attribute %s[%s]", VersionAttributeName, n.vm.Name),
		DeclaringView: n.vm.Name,
		Mapping:       ExpressionMapping(version),
		BatchSize:     -1,
		Synthetic:     true,
	}

	if attr, err := c.oracle.Attribute(n.managed, version); err == nil {
		a.Declared = DeclaredType{Type: attr.Type}
		a.Type = &Type{Name: attr.Type, Basic: c.BasicType(attr.Type, []string{attr.Type})}
	}

	return a
}

// checkCollectionMappings reports collection joins mapped by more than one
// plural attribute. Each constructor is checked together with the
// attributes.
func (c *Context) checkCollectionMappings(n *node, v *ManagedViewType) {
	if n.managed == nil {
		return
	}

	base := make(map[string][]string)
	for _, a := range v.attributes {
		c.collectJoin(n, a, base)
	}

	if len(v.constructors) == 0 {
		c.reportCollectionMappings(n, base)
		return
	}

	for _, ctor := range v.constructors {
		usages := make(map[string][]string, len(base))
		for k, locs := range base {
			usages[k] = slices.Clone(locs)
		}

		for _, p := range ctor.Parameters {
			if v.byName[p.Name] != p {
				c.collectJoin(n, p, usages)
			}
		}

		c.reportCollectionMappings(n, usages)
	}
}

func (c *Context) collectJoin(n *node, a *Attribute, usages map[string][]string) {
	if !a.IsPlural() || a.Kind.IsCorrelated() || !a.Mapping.Kind.HasPath() {
		return
	}

	join := c.collectionJoin(n.managed, a.Mapping.Path())
	if join == "" {
		return
	}

	usages[join] = append(usages[join], fmt.Sprintf("Attribute '%s' in entity view '%s'", a.Name, n.vm.Name))
}

// collectionJoin returns the shortest prefix of path that ends in a plural
// managed attribute.
func (c *Context) collectionJoin(mt *catalog.ManagedType, path string) string {
	if path == "" {
		return ""
	}

	segments := strings.Split(path, ".")
	for i := range segments {
		prefix := strings.Join(segments[:i+1], ".")

		attr, err := c.oracle.Attribute(mt, prefix)
		if err != nil {
			return ""
		}

		if attr.Plural() {
			return prefix
		}
	}

	return ""
}

func (c *Context) reportCollectionMappings(n *node, usages map[string][]string) {
	for _, join := range common.SortedKeys(usages) {
		locs := usages[join]
		if len(locs) < 2 {
			continue
		}

		var sb strings.Builder

		fmt.Fprintf(&sb, "Multiple usages of the mapping '%s' in", join)

		for _, loc := range locs {
			sb.WriteString("\n - ")
			sb.WriteString(loc)
		}

		c.diags.AddError(diagnostic.CodeDuplicateCollectionUse, sb.String(), n.vm.Name, "")
	}
}

// interfaceEquals reports whether equality through the view interface is
// possible: the view projects a concrete entity and every mapped accessor
// is visible from the view package.
func (c *Context) interfaceEquals(v *ManagedViewType) bool {
	mt := v.Entity
	if mt == nil || mt.Kind != catalog.KindEntity || mt.Abstract {
		return false
	}

	for _, a := range v.attributes {
		path := a.Mapping.Path()
		if !a.Mapping.Kind.HasPath() || path == "" {
			continue
		}

		attr, err := c.oracle.Attribute(mt, path)
		if err != nil {
			continue
		}

		if !attr.Accessor.Exported && attr.Accessor.Package != v.Package {
			return false
		}
	}

	return true
}

// frozenConfig returns the frozen form of ivm. Entries are filled when the
// outermost freeze returns.
func (c *Context) frozenConfig(ivm *InheritanceViewMapping) *InheritanceSubtypeConfiguration {
	if ivm == nil {
		return nil
	}

	if cfg, ok := c.frozenConfigs[ivm]; ok {
		return cfg
	}

	cfg := &InheritanceSubtypeConfiguration{
		Key:        ivm.Key(),
		Base:       c.freeze(c.nodes[ivm.Base]),
		Attributes: make(map[string]*ConstrainedAttribute),
	}
	c.frozenConfigs[ivm] = cfg
	c.pendingConfigs = append(c.pendingConfigs, &pendingConfig{ivm: ivm, cfg: cfg})

	return cfg
}

func (c *Context) drainConfigs() {
	for len(c.pendingConfigs) > 0 {
		p := c.pendingConfigs[0]
		c.pendingConfigs = c.pendingConfigs[1:]

		c.fillConfig(p.ivm, p.cfg)
	}
}

func (c *Context) fillConfig(ivm *InheritanceViewMapping, cfg *InheritanceSubtypeConfiguration) {
	cfg.Subtypes = append(cfg.Subtypes, SubtypeEntry{View: cfg.Base})

	for _, s := range ivm.Subtypes {
		entry := SubtypeEntry{View: c.freeze(c.nodes[s.View])}
		if s.Discriminator != nil {
			entry.Discriminator = *s.Discriminator
		}

		cfg.Subtypes = append(cfg.Subtypes, entry)
	}

	names := make(map[string]struct{})

	for _, e := range cfg.Subtypes {
		for _, a := range e.View.attributes {
			names[a.Name] = struct{}{}
		}
	}

	for _, name := range common.SortedKeys(names) {
		ca := &ConstrainedAttribute{Name: name}

		for i, e := range cfg.Subtypes {
			a := e.View.Attribute(name)
			if a == nil {
				continue
			}

			idx := slices.IndexFunc(ca.Realizations, func(r Realization) bool { return r.Attribute.Mapping == a.Mapping })
			if idx < 0 {
				ca.Realizations = append(ca.Realizations, Realization{Attribute: a})
				idx = len(ca.Realizations) - 1
			}

			ca.Realizations[idx].SubtypeIndexes = append(ca.Realizations[idx].SubtypeIndexes, i)
		}

		for i := range ca.Realizations {
			ca.Realizations[i].Constraint = constraintOf(cfg.Subtypes, ca.Realizations[i].SubtypeIndexes)
		}

		cfg.Attributes[name] = ca
	}
}

// constraintOf joins the discriminators of the given entries. A
// realization used by the base needs no constraint.
func constraintOf(entries []SubtypeEntry, indexes []int) string {
	if slices.Contains(indexes, 0) {
		return ""
	}

	var parts []string

	for _, i := range indexes {
		if d := entries[i].Discriminator; d != "" {
			parts = append(parts, d)
		}
	}

	return strings.Join(parts, " || ")
}
