// Package diagnostic provides the accumulated error set of a metamodel build.
//
// Every declaration, analysis and resolution problem is appended to one
// Diagnostics value instead of aborting the build:
//   - messages are de-duplicated on their rendered form
//   - insertion order is preserved, so output is stable across runs
//   - warnings are kept apart from errors and never fail a build
package diagnostic
