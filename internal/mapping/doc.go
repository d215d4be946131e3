// Package mapping reads entity view declarations from YAML view files.
//
// A view file declares the same information as the //view: directives of a
// Go view type, for views that have no Go declaration or that are shared
// with other tooling.
//
// # Schema Overview
//
//	version: "1"
//	package: views
//	views:
//	  - name: PersonView
//	    entity: Person
//	    updatable: {mode: full, strategy: query}
//	    lock: optimistic
//	    inheritance: [PersonDetailView]
//	    lifecycle:
//	      post-create: Init
//	      post-commit: {method: Committed, transitions: [persist]}
//	    attributes:
//	      - name: id
//	        id: true
//	        type: int64
//	      - name: name
//	        mapping: UPPER(name)
//	        type: string
//	        setter: true
//	      - name: cats
//	        type: CatView
//	        container: set
//	        update: {cascade: [persist, update]}
//	  - name: CatSummary
//	    entity: Cat
//	    concrete: true
//	    constructors:
//	      - name: init
//	        parameters:
//	          - {name: id, id: true, type: int64}
//	          - {name: name, type: string}
//
// View names without a dot are qualified with the file package. Abstract
// views list attributes; concrete views list constructors, and the
// parameters of the constructor named init are their attributes.
//
// Mapping keys follow the directive precedence: id, parameter, subquery,
// correlated, correlated-simple, then mapping. When several are present
// the highest ranked one is used.
package mapping
