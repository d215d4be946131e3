// Package analyze loads Go packages that declare views and extracts a type
// graph of their declarations.
//
// It uses golang.org/x/tools/go/packages with AST and go/types to collect
// interfaces and structs together with their methods, embeds, fields,
// constructor funcs and //view: directives, and builds SSA for the
// constructors so their bodies can be analyzed.
//
// Key types:
//   - TypeID: package import path + type name
//   - TypeInfo: one interface or struct declaration
//   - Directive: one parsed //view: comment line
package analyze
