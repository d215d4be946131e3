// Package catalog is the managed-type oracle consulted by the metamodel
// builder.
//
// A catalog describes the persistent record types that views project:
// entities (identifiable, optionally versioned) and embeddables (value
// types reached through an owning entity). The builder only reads it.
//
// Catalogs are usually loaded from a file:
//
//	types:
//	  - name: Person
//	    kind: entity
//	    id: id
//	    version: version
//	    attributes:
//	      id: int64
//	      version: int64
//	      name: string
//	      address: {kind: embedded, type: Address}
//	      friends: {kind: set, type: Person, mapped_by: friendOf}
//
// The same content can be written in HCL (see ParseHCL).
package catalog
