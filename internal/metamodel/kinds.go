package metamodel

import (
	"fmt"
	"strings"

	"viewmeta/internal/common"
)

// names is a bidirectional table for enum string forms.
type names[E comparable] []struct {
	value E
	name  string
}

func (n names[E]) name(v E) string {
	for _, e := range n {
		if e.value == v {
			return e.name
		}
	}

	return common.UnknownStr
}

func (n names[E]) parse(kind, s string) (E, error) {
	for _, e := range n {
		if e.name == strings.ToLower(s) {
			return e.value, nil
		}
	}

	var zero E

	return zero, fmt.Errorf("unknown %s %q", kind, s)
}

// MappingKind tells which declaration produced an attribute mapping.
type MappingKind int

const (
	MappingImplicit MappingKind = iota
	MappingExpression
	MappingCorrelatedSimple
	MappingCorrelated
	MappingSubquery
	MappingParameter
	MappingID
)

var mappingKindNames = names[MappingKind]{
	{MappingImplicit, "implicit"},
	{MappingExpression, "mapping"},
	{MappingCorrelatedSimple, "correlated-simple"},
	{MappingCorrelated, "correlated"},
	{MappingSubquery, "subquery"},
	{MappingParameter, "parameter"},
	{MappingID, "id"},
}

func (k MappingKind) String() string { return mappingKindNames.name(k) }

// ParseMappingKind parses a mapping kind name.
func ParseMappingKind(s string) (MappingKind, error) {
	return mappingKindNames.parse("mapping kind", s)
}

// Outranks reports whether k takes precedence over other when a member
// carries several mapping declarations.
func (k MappingKind) Outranks(other MappingKind) bool {
	return k > other
}

// IsCorrelated reports whether k is one of the correlation kinds.
func (k MappingKind) IsCorrelated() bool {
	return k == MappingCorrelated || k == MappingCorrelatedSimple
}

// HasPath reports whether the mapping is a path expression on the
// projected type.
func (k MappingKind) HasPath() bool {
	return k == MappingImplicit || k == MappingExpression || k == MappingID
}

// Container is the declared collection shape of an attribute.
type Container int

const (
	ContainerNone Container = iota
	ContainerCollection
	ContainerList
	ContainerSet
	ContainerSortedSet
	ContainerMap
	ContainerSortedMap
)

var containerNames = names[Container]{
	{ContainerNone, "none"},
	{ContainerCollection, "collection"},
	{ContainerList, "list"},
	{ContainerSet, "set"},
	{ContainerSortedSet, "sorted_set"},
	{ContainerMap, "map"},
	{ContainerSortedMap, "sorted_map"},
}

func (c Container) String() string { return containerNames.name(c) }

// ParseContainer parses a container name. The empty string means none.
func ParseContainer(s string) (Container, error) {
	if s == "" {
		return ContainerNone, nil
	}

	return containerNames.parse("container", s)
}

// Plural reports whether c is a collection or map.
func (c Container) Plural() bool { return c != ContainerNone }

// IsMap reports whether c is keyed.
func (c Container) IsMap() bool { return c == ContainerMap || c == ContainerSortedMap }

// Sorted reports whether c keeps its elements sorted.
func (c Container) Sorted() bool { return c == ContainerSortedSet || c == ContainerSortedMap }

// AttributeKind is the closed set of frozen attribute shapes.
type AttributeKind int

const (
	KindSingular AttributeKind = iota
	KindCollection
	KindList
	KindSet
	KindMap
	KindCorrelatedSingular
	KindCorrelatedCollection
	KindCorrelatedList
	KindCorrelatedSet
	KindSubquery
	KindParameter
)

var attributeKindNames = names[AttributeKind]{
	{KindSingular, "singular"},
	{KindCollection, "collection"},
	{KindList, "list"},
	{KindSet, "set"},
	{KindMap, "map"},
	{KindCorrelatedSingular, "correlated_singular"},
	{KindCorrelatedCollection, "correlated_collection"},
	{KindCorrelatedList, "correlated_list"},
	{KindCorrelatedSet, "correlated_set"},
	{KindSubquery, "subquery"},
	{KindParameter, "parameter"},
}

func (k AttributeKind) String() string { return attributeKindNames.name(k) }

// IsPlural reports whether attributes of kind k hold several values.
func (k AttributeKind) IsPlural() bool {
	switch k {
	case KindCollection, KindList, KindSet, KindMap,
		KindCorrelatedCollection, KindCorrelatedList, KindCorrelatedSet:
		return true
	default:
		return false
	}
}

// IsCorrelated reports whether k is fetched through a correlation.
func (k AttributeKind) IsCorrelated() bool {
	return k >= KindCorrelatedSingular && k <= KindCorrelatedSet
}

// kindOf derives the frozen kind from the mapping and container.
func kindOf(m MappingKind, c Container) AttributeKind {
	switch {
	case m == MappingSubquery:
		return KindSubquery
	case m == MappingParameter:
		return KindParameter
	case m.IsCorrelated():
		switch c {
		case ContainerNone:
			return KindCorrelatedSingular
		case ContainerList:
			return KindCorrelatedList
		case ContainerSet, ContainerSortedSet:
			return KindCorrelatedSet
		default:
			return KindCorrelatedCollection
		}
	}

	switch c {
	case ContainerNone:
		return KindSingular
	case ContainerList:
		return KindList
	case ContainerSet, ContainerSortedSet:
		return KindSet
	case ContainerMap, ContainerSortedMap:
		return KindMap
	default:
		return KindCollection
	}
}

// LockMode is the optimistic locking mode of an identifiable view.
type LockMode int

const (
	LockUnset LockMode = iota
	LockAuto
	LockOptimistic
	LockNone
)

var lockModeNames = names[LockMode]{
	{LockUnset, "unset"},
	{LockAuto, "auto"},
	{LockOptimistic, "optimistic"},
	{LockNone, "none"},
}

func (m LockMode) String() string { return lockModeNames.name(m) }

// ParseLockMode parses a lock mode name. The empty string means unset.
func ParseLockMode(s string) (LockMode, error) {
	if s == "" {
		return LockUnset, nil
	}

	return lockModeNames.parse("lock mode", s)
}

// FlushMode controls how much state an updatable view flushes.
type FlushMode int

const (
	FlushModeUnset FlushMode = iota
	FlushLazy
	FlushPartial
	FlushFull
)

var flushModeNames = names[FlushMode]{
	{FlushModeUnset, ""},
	{FlushLazy, "lazy"},
	{FlushPartial, "partial"},
	{FlushFull, "full"},
}

func (m FlushMode) String() string { return flushModeNames.name(m) }

// ParseFlushMode parses a flush mode name. The empty string means unset.
func ParseFlushMode(s string) (FlushMode, error) {
	return flushModeNames.parse("flush mode", s)
}

// FlushStrategy selects how an updatable view flushes.
type FlushStrategy int

const (
	FlushStrategyUnset FlushStrategy = iota
	FlushStrategyEntity
	FlushStrategyQuery
	FlushStrategyAuto
)

var flushStrategyNames = names[FlushStrategy]{
	{FlushStrategyUnset, ""},
	{FlushStrategyEntity, "entity"},
	{FlushStrategyQuery, "query"},
	{FlushStrategyAuto, "auto"},
}

func (s FlushStrategy) String() string { return flushStrategyNames.name(s) }

// ParseFlushStrategy parses a flush strategy name. The empty string means unset.
func ParseFlushStrategy(s string) (FlushStrategy, error) {
	return flushStrategyNames.parse("flush strategy", s)
}

// CascadeType is one declared cascade.
type CascadeType int

const (
	CascadeAuto CascadeType = iota
	CascadePersist
	CascadeUpdate
	CascadeDelete
)

var cascadeTypeNames = names[CascadeType]{
	{CascadeAuto, "auto"},
	{CascadePersist, "persist"},
	{CascadeUpdate, "update"},
	{CascadeDelete, "delete"},
}

func (c CascadeType) String() string { return cascadeTypeNames.name(c) }

// ParseCascadeType parses a cascade name.
func ParseCascadeType(s string) (CascadeType, error) {
	return cascadeTypeNames.parse("cascade type", s)
}

// InverseRemoveStrategy tells what happens to an element removed from an
// inverse collection.
type InverseRemoveStrategy int

const (
	RemoveIgnore InverseRemoveStrategy = iota
	RemoveRemove
	RemoveSetNull
)

var removeStrategyNames = names[InverseRemoveStrategy]{
	{RemoveIgnore, "ignore"},
	{RemoveRemove, "remove"},
	{RemoveSetNull, "set_null"},
}

func (s InverseRemoveStrategy) String() string { return removeStrategyNames.name(s) }

// ParseInverseRemoveStrategy parses a remove strategy. The empty string means ignore.
func ParseInverseRemoveStrategy(s string) (InverseRemoveStrategy, error) {
	if s == "" {
		return RemoveIgnore, nil
	}

	return removeStrategyNames.parse("inverse remove strategy", s)
}

// LifecycleKind is one of the lifecycle callback kinds.
type LifecycleKind int

const (
	PostCreate LifecycleKind = iota
	PrePersist
	PostPersist
	PreUpdate
	PostUpdate
	PreRemove
	PostRemove
	PostRollback
	PostCommit
	PostConvert
	PostLoad
)

var lifecycleKindNames = names[LifecycleKind]{
	{PostCreate, "post-create"},
	{PrePersist, "pre-persist"},
	{PostPersist, "post-persist"},
	{PreUpdate, "pre-update"},
	{PostUpdate, "post-update"},
	{PreRemove, "pre-remove"},
	{PostRemove, "post-remove"},
	{PostRollback, "post-rollback"},
	{PostCommit, "post-commit"},
	{PostConvert, "post-convert"},
	{PostLoad, "post-load"},
}

// LifecycleKinds lists every kind in declaration order.
var LifecycleKinds = []LifecycleKind{
	PostCreate, PrePersist, PostPersist, PreUpdate, PostUpdate,
	PreRemove, PostRemove, PostRollback, PostCommit, PostConvert, PostLoad,
}

func (k LifecycleKind) String() string { return lifecycleKindNames.name(k) }

// ParseLifecycleKind parses a lifecycle kind such as "post-create".
func ParseLifecycleKind(s string) (LifecycleKind, error) {
	return lifecycleKindNames.parse("lifecycle kind", s)
}

// HasTransitions reports whether callbacks of kind k filter by transition.
func (k LifecycleKind) HasTransitions() bool {
	return k == PostRollback || k == PostCommit
}

// Transition is a persistence transition a commit or rollback callback
// can be limited to.
type Transition int

const (
	TransitionPersist Transition = iota
	TransitionUpdate
	TransitionRemove
)

var transitionNames = names[Transition]{
	{TransitionPersist, "persist"},
	{TransitionUpdate, "update"},
	{TransitionRemove, "remove"},
}

// AllTransitions is the default transition filter.
var AllTransitions = []Transition{TransitionPersist, TransitionUpdate, TransitionRemove}

func (t Transition) String() string { return transitionNames.name(t) }

// ParseTransitions parses a list of transition names. An empty list means all.
func ParseTransitions(list []string) ([]Transition, error) {
	if len(list) == 0 {
		return AllTransitions, nil
	}

	out := make([]Transition, 0, len(list))

	for _, s := range list {
		t, err := transitionNames.parse("transition", s)
		if err != nil {
			return nil, err
		}

		out = append(out, t)
	}

	return out, nil
}

// NodeState is the resolution state of a view node.
type NodeState int

const (
	StateUnseen NodeState = iota
	StateInitializing
	StateResolvingSubtypes
	StateFinished
)

var nodeStateNames = names[NodeState]{
	{StateUnseen, "unseen"},
	{StateInitializing, "initializing"},
	{StateResolvingSubtypes, "resolving_subtypes"},
	{StateFinished, "finished"},
}

func (s NodeState) String() string { return nodeStateNames.name(s) }

// BindingKind tells how an attribute is bound to its view.
type BindingKind int

const (
	BindingMethod BindingKind = iota
	BindingParameter
)

// InheritanceMode tells how a view declares its inheritance subtypes.
type InheritanceMode int

const (
	InheritanceNone InheritanceMode = iota
	InheritanceAuto
	InheritanceExplicit
)

var inheritanceModeNames = names[InheritanceMode]{
	{InheritanceNone, "none"},
	{InheritanceAuto, "auto"},
	{InheritanceExplicit, "explicit"},
}

func (m InheritanceMode) String() string { return inheritanceModeNames.name(m) }
