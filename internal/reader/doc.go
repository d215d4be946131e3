// Package reader turns the //view: directives of an analyzed type graph
// into metamodel.ViewMapping declarations.
//
// Interfaces are abstract views. Their getter methods, including those of
// embedded interfaces, become method-bound attributes. Structs are
// concrete views. Their attributes are the parameters of the canonical
// constructor, matched to struct fields by following the constructor's SSA
// form with package ctorflow.
//
// Directives recognized on a view type:
//
//	//view:entity <Entity>
//	//view:updatable [mode=lazy|partial|full] [strategy=entity|query|auto] [lock=auto|optimistic|none]
//	//view:creatable [validate=<bool>] [exclude=a,b]
//	//view:lock-owner <path>
//	//view:inheritance [Subtype ...]
//	//view:inheritance-mapping "<expression>"
//	//view:batch-fetch size=<n>
//	//view:filter <name> provider=<provider>
//
// Directives recognized on an attribute:
//
//	//view:id ["<expression>"]
//	//view:mapping "<expression>"
//	//view:parameter <name>
//	//view:subquery provider=<provider> [expression="<expr>"] [alias=<alias>]
//	//view:correlated provider=<provider> basis="<expr>"
//	//view:correlated-simple entity=<Entity> basis="<expr>" [expression="<expr>"] [result="<expr>"]
//	//view:collection [ordered] [sorted] [indexed] [kind=list|set|collection]
//	//view:singular
//	//view:update [updatable=<bool>] [orphan-removal=<bool>] [cascade=persist,update,delete,auto]
//	             [subtypes=A,B] [persist-subtypes=A] [update-subtypes=B]
//	//view:inverse [mapped-by=<attribute>] [remove=ignore|remove|set_null]
//	//view:subtype <View> [mapping="<expression>"] [slot=type|key|element]
//	//view:batch-fetch size=<n>
//	//view:filter <name> provider=<provider>
//
// Constructor funcs accept //view:constructor <name>, and any attribute
// directive carrying param=<name> applies to that parameter. Lifecycle
// methods carry one of //view:post-create, //view:pre-persist, ...,
// //view:post-load; post-commit and post-rollback accept
// transitions=persist,update,remove.
package reader
