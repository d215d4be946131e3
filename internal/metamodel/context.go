package metamodel

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"viewmeta/internal/catalog"
	"viewmeta/internal/common"
	"viewmeta/internal/diagnostic"
	"viewmeta/internal/expr"
	"viewmeta/internal/match"
)

// NodeID addresses a view node in a Context.
type NodeID int

// NoNode is the NodeID of no view.
const NoNode NodeID = -1

// FinishListener is called once the node it was registered on finished.
type FinishListener func(id NodeID)

const maxSuggestions = 3

// node is the resolution state of one view.
type node struct {
	id        NodeID
	vm        *ViewMapping
	state     NodeState
	listeners []FinishListener

	managed *catalog.ManagedType

	// supertypes lists registered view supertypes, transitively.
	supertypes      []NodeID
	supertypesKnown bool

	// subtypes are the inheritance subtypes in supertype-first order.
	subtypes      []NodeID
	subtypesKnown bool

	inheritance *InheritanceViewMapping
	configs     map[string]*InheritanceViewMapping
	configOrder []string

	attrs map[*AttributeMapping]map[EmbeddableOwner]*resolution

	frozen *ManagedViewType
}

// Context resolves registered view mappings. It is not safe for
// concurrent use.
type Context struct {
	oracle   catalog.Oracle
	resolver expr.Resolver
	cfg      Config
	logger   *zap.Logger
	diags    *diagnostic.Diagnostics

	nodes  []*node
	byName map[string]NodeID

	basics    map[string]*BasicType
	converted map[string]*BasicType

	authoritative bool
	built         bool
	metamodel     *Metamodel

	freezeDepth    int
	pendingConfigs []*pendingConfig
	frozenConfigs  map[*InheritanceViewMapping]*InheritanceSubtypeConfiguration
}

// NewContext creates a building context. A nil resolver defaults to a
// PathResolver over oracle.
func NewContext(oracle catalog.Oracle, resolver expr.Resolver, cfg Config, opts ...Option) *Context {
	if resolver == nil {
		resolver = expr.NewPathResolver(oracle)
	}

	c := &Context{
		oracle:        oracle,
		resolver:      resolver,
		cfg:           cfg,
		logger:        zap.NewNop(),
		diags:         &diagnostic.Diagnostics{},
		byName:        make(map[string]NodeID),
		basics:        make(map[string]*BasicType),
		converted:     make(map[string]*BasicType),
		frozenConfigs: make(map[*InheritanceViewMapping]*InheritanceSubtypeConfiguration),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.seedBasicTypes()

	return c
}

// Diagnostics returns the accumulated diagnostics.
func (c *Context) Diagnostics() *diagnostic.Diagnostics {
	return c.diags
}

// Register adds a view mapping and validates its declaration. Registering
// a second view of the same name is an error and returns the first one.
func (c *Context) Register(vm *ViewMapping) NodeID {
	if c.built {
		panic("metamodel: register after build")
	}

	if id, ok := c.byName[vm.Name]; ok {
		c.diags.AddErrorf(diagnostic.CodeDuplicateView, vm.Name, "",
			"Duplicate registration of the view type '%s'", vm.Name)

		return id
	}

	vm.Validate(c.diags)

	id := NodeID(len(c.nodes))
	c.nodes = append(c.nodes, &node{
		id:      id,
		vm:      vm,
		configs: make(map[string]*InheritanceViewMapping),
		attrs:   make(map[*AttributeMapping]map[EmbeddableOwner]*resolution),
	})
	c.byName[vm.Name] = id

	return id
}

// Lookup returns the node of a view name.
func (c *Context) Lookup(name string) (NodeID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// IsView reports whether name is a registered view.
func (c *Context) IsView(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Mapping returns the declaration of a node.
func (c *Context) Mapping(id NodeID) *ViewMapping {
	return c.node(id).vm
}

// State returns the resolution state of a node.
func (c *Context) State(id NodeID) NodeState {
	return c.node(id).state
}

// PendingListeners returns the number of listeners waiting on a node.
func (c *Context) PendingListeners(id NodeID) int {
	return len(c.node(id).listeners)
}

// IDs returns all nodes ordered by view name.
func (c *Context) IDs() []NodeID {
	out := make([]NodeID, 0, len(c.nodes))
	for _, name := range common.SortedKeys(c.byName) {
		out = append(out, c.byName[name])
	}

	return out
}

func (c *Context) node(id NodeID) *node {
	if id < 0 || int(id) >= len(c.nodes) {
		panic(fmt.Sprintf("metamodel: unknown node %d", id))
	}

	return c.nodes[id]
}

func (c *Context) name(id NodeID) string {
	return c.nodes[id].vm.Name
}

func (c *Context) names(ids []NodeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.name(id))
	}

	return out
}

// OnFinish runs fn once the node finished. It runs immediately when the
// node already finished.
func (c *Context) OnFinish(id NodeID, fn FinishListener) {
	n := c.node(id)
	if n.state == StateFinished {
		fn(id)
		return
	}

	c.logger.Debug("deferring until view finishes",
		zap.String("view", n.vm.Name), zap.Stringer("state", n.state))

	n.listeners = append(n.listeners, fn)
}

// InitializeAll initializes every registered node in name order.
func (c *Context) InitializeAll() {
	for _, id := range c.IDs() {
		c.Initialize(id)
	}
}

// Initialize resolves the subtypes and attributes of a node. Requests for
// a node that is already in progress or finished return immediately.
func (c *Context) Initialize(id NodeID) {
	n := c.node(id)
	if n.state != StateUnseen {
		return
	}

	c.setState(n, StateInitializing)

	if n.vm.EntityType != "" {
		mt, ok := c.oracle.ManagedType(n.vm.EntityType)
		if !ok {
			c.diags.AddErrorf(diagnostic.CodeUnknownEntity, n.vm.Name, "",
				"The entity type '%s' used by the view type '%s' is not a known managed type!", n.vm.EntityType, n.vm.Name)
		}

		n.managed = mt
	}

	c.supertypesOf(n)

	c.setState(n, StateResolvingSubtypes)
	c.resolveSubtypes(n)

	for _, am := range c.memberMappings(n) {
		c.resolveAttribute(n, am, EmbeddableOwner{})
	}

	c.setState(n, StateFinished)

	listeners := n.listeners
	n.listeners = nil

	for _, fn := range listeners {
		fn(id)
	}
}

func (c *Context) setState(n *node, state NodeState) {
	c.logger.Debug("view state",
		zap.String("view", n.vm.Name), zap.Stringer("from", n.state), zap.Stringer("to", state))

	n.state = state
}

// memberMappings returns the attributes followed by the parameters of
// every constructor that are not also attributes.
func (c *Context) memberMappings(n *node) []*AttributeMapping {
	out := n.vm.Attributes()

	for _, ctor := range n.vm.Constructors() {
		for _, p := range ctor.Parameters {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}

	return out
}

func (c *Context) supertypesOf(n *node) []NodeID {
	if !n.supertypesKnown {
		n.supertypes = c.collectSupertypes(n)
		n.supertypesKnown = true
	}

	return n.supertypes
}

// collectSupertypes walks the declared supertypes of n breadth first.
func (c *Context) collectSupertypes(n *node) []NodeID {
	var out []NodeID

	seen := map[NodeID]bool{n.id: true}
	queue := slices.Clone(n.vm.Supertypes)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		id, ok := c.byName[name]
		if !ok || seen[id] {
			continue
		}

		seen[id] = true
		out = append(out, id)
		queue = append(queue, c.nodes[id].vm.Supertypes...)
	}

	slices.SortFunc(out, func(a, b NodeID) int { return strings.Compare(c.name(a), c.name(b)) })

	return out
}

// Assignable reports whether views of sub can be used where super is
// expected.
func (c *Context) Assignable(sub, super NodeID) bool {
	if sub == super {
		return true
	}

	return slices.Contains(c.supertypesOf(c.node(sub)), super)
}

// FindSubtypes returns every registered view assignable to id, excluding
// id, in supertype-first order.
func (c *Context) FindSubtypes(id NodeID) []NodeID {
	var found []NodeID

	for _, other := range c.IDs() {
		if other != id && c.Assignable(other, id) {
			found = append(found, other)
		}
	}

	return c.orderSubtypes(found)
}

// orderSubtypes sorts views lexically, then moves supertypes before their
// subtypes.
func (c *Context) orderSubtypes(ids []NodeID) []NodeID {
	ids = slices.Clone(ids)
	slices.SortFunc(ids, func(a, b NodeID) int { return strings.Compare(c.name(a), c.name(b)) })

	order, err := topoSort(len(ids), func(i int) []int {
		var deps []int

		for j, other := range ids {
			if j != i && c.Assignable(ids[i], other) {
				deps = append(deps, j)
			}
		}

		return deps
	})
	if err != nil {
		return ids
	}

	out := make([]NodeID, 0, len(ids))
	for _, i := range order {
		out = append(out, ids[i])
	}

	return out
}

// resolveSubtypes computes the inheritance subtypes and the default
// inheritance configuration of n.
func (c *Context) resolveSubtypes(n *node) {
	var found []NodeID

	switch n.vm.Inheritance.Mode {
	case InheritanceAuto:
		found = c.FindSubtypes(n.id)
	case InheritanceExplicit:
		found = c.explicitSubtypes(n, n.vm.Inheritance.Subtypes, n.vm.Name, "")
	case InheritanceNone:
	}

	for _, id := range slices.Clone(found) {
		c.Initialize(id)

		if sub := c.nodes[id]; sub.subtypesKnown {
			for _, nested := range sub.subtypes {
				if nested != n.id && !slices.Contains(found, nested) {
					found = append(found, nested)
				}
			}
		}
	}

	n.subtypes = c.orderSubtypes(found)
	n.subtypesKnown = true

	subs := make([]InheritanceSubtype, 0, len(n.subtypes))
	for _, id := range n.subtypes {
		subs = append(subs, InheritanceSubtype{View: id, Discriminator: c.discriminator(id, nil)})
	}

	n.inheritance = c.newInheritanceViewMapping(n.id, subs)
}

// explicitSubtypes validates declared subtype names against base. loc is
// the attribute location and is empty for view level declarations, where
// naming the base itself is an error.
func (c *Context) explicitSubtypes(base *node, declared []string, view, loc string) []NodeID {
	var out []NodeID

	owner := loc
	if owner == "" {
		owner = base.vm.Name
	}

	for _, name := range declared {
		if name == base.vm.Name {
			if loc == "" {
				c.diags.AddErrorf(diagnostic.CodeSelfSubtype, view, loc,
					"Entity view type '%s' declared itself in inheritance as subtype which is not allowed!", name)
			}

			continue
		}

		id, ok := c.byName[name]
		if !ok {
			msg := fmt.Sprintf("An unknown or unregistered entity view subtype type '%s' is used for the entity view: %s!", name, owner)
			if sugg := match.Suggest(name, common.SortedKeys(c.byName), maxSuggestions); len(sugg) > 0 {
				msg += fmt.Sprintf(" Did you mean %s?", strings.Join(sugg, ", "))
			}

			c.diags.AddError(diagnostic.CodeUnknownSubtype, msg, view, loc)

			continue
		}

		if !c.Assignable(id, base.id) {
			c.diags.AddErrorf(diagnostic.CodeNotASubtype, view, loc,
				"Entity view subtype '%s' was explicitly declared as subtype in '%s' but isn't a subtype!", name, owner)

			continue
		}

		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}

	return out
}

// discriminator returns the selection expression of a subtype. A declared
// expression wins; otherwise a type check is inferred when every view
// supertype projects a proper entity supertype.
func (c *Context) discriminator(id NodeID, declared *string) *string {
	if declared != nil {
		return declared
	}

	n := c.nodes[id]
	if n.vm.InheritanceMapping != nil {
		return n.vm.InheritanceMapping
	}

	supertypes := c.supertypesOf(n)
	if len(supertypes) == 0 {
		return nil
	}

	for _, super := range supertypes {
		entity := c.nodes[super].vm.EntityType
		if !catalog.IsProperSubtype(c.oracle, n.vm.EntityType, entity) {
			return nil
		}
	}

	entityName := n.vm.EntityType
	if desc, ok := c.oracle.Entity(n.vm.EntityType); ok {
		entityName = desc.Name
	}

	d := fmt.Sprintf("TYPE(this) == %s", entityName)

	return &d
}
