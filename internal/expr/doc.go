// Package expr resolves mapping expressions to the set of types they can
// produce.
//
// Expressions are parsed with the HCL native syntax, which covers the
// dotted paths, index traversals, function calls and operators that view
// mappings use. Resolution walks paths against a catalog.Oracle.
package expr
