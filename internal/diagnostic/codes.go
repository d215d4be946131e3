package diagnostic

// Declaration codes.
const (
	CodeMissingEntity        = "missing_entity"
	CodeInvalidBatchSize     = "invalid_batch_size"
	CodeEmptyFilterName      = "empty_filter_name"
	CodeDuplicateFilter      = "duplicate_filter"
	CodeEmptyMapping         = "empty_mapping"
	CodeMissingAccessor      = "missing_accessor"
	CodeSetterMismatch       = "setter_mismatch"
	CodeInvalidMethod        = "invalid_method"
	CodeConflictingMapping   = "conflicting_mapping"
	CodeLifecycleDuplicate   = "lifecycle_duplicate"
	CodeLifecycleSignature   = "lifecycle_signature"
	CodeConcreteUpdatable    = "concrete_updatable"
	CodeCanonicalConstructor = "canonical_constructor"
	CodeDuplicateConstructor = "duplicate_constructor"
	CodeDuplicateField       = "duplicate_field"
	CodeInvalidDirective     = "invalid_directive"
	CodeDuplicateView        = "duplicate_view"
	CodeIllegalUpdateMapping = "illegal_update_mapping"
)

// Constructor analysis codes.
const (
	CodeCorrespondenceFailed = "correspondence_failed"
	CodeUnresolvedParameter  = "unresolved_parameter"
)

// Resolution codes.
const (
	CodeSelfSubtype            = "self_subtype"
	CodeNotASubtype            = "not_a_subtype"
	CodeUnknownSubtype         = "unknown_subtype"
	CodeUnknownEntity          = "unknown_entity"
	CodeInvalidID              = "invalid_id"
	CodeUnresolvableType       = "unresolvable_type"
	CodeExpressionSyntax       = "expression_syntax"
	CodeExpressionResolution   = "expression_resolution"
	CodeTypeMismatch           = "type_mismatch"
	CodeCorrelatedMap          = "correlated_map"
	CodeCircularDependency     = "circular_dependency"
	CodeMissingVersion         = "missing_version"
	CodeVersionType            = "version_type"
	CodeCascadeNotUpdatable    = "cascade_not_updatable"
	CodeInvalidPluralSetter    = "invalid_plural_setter"
	CodeDuplicateCollectionUse = "duplicate_collection_mapping"
	CodeInvalidLockOwner       = "invalid_lock_owner"
)
