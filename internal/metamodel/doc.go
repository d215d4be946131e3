// Package metamodel resolves view declarations into a frozen metamodel.
//
// A Context owns an arena of view nodes. Each node moves through
// StateUnseen, StateInitializing, StateResolvingSubtypes and StateFinished.
// A request for a node that is still initializing registers a finish
// listener instead of recursing, which keeps cyclic view graphs finite.
//
// Building runs in two phases. The first initializes every node: subtypes,
// attribute types, inheritance configurations and a speculative cascade
// computation that silently drops candidates closing a construction cycle.
// The second validates construction dependencies authoritatively, reports
// cycles, and freezes every node into a ManagedViewType.
package metamodel
