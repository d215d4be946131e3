package mapping

// File is the root of a YAML view file.
type File struct {
	Version string `yaml:"version"`
	// Package qualifies view names declared without a package.
	Package string     `yaml:"package,omitempty"`
	Views   []ViewDecl `yaml:"views"`
}

// ViewDecl declares one view type.
type ViewDecl struct {
	Name     string        `yaml:"name"`
	Entity   string        `yaml:"entity"`
	Concrete bool          `yaml:"concrete,omitempty"`
	Extends  StringOrArray `yaml:"extends,omitempty"`

	Updatable *UpdatableDecl `yaml:"updatable,omitempty"`
	Creatable *CreatableDecl `yaml:"creatable,omitempty"`
	Lock      string         `yaml:"lock,omitempty"`
	LockOwner string         `yaml:"lock-owner,omitempty"`

	// Inheritance is "auto" or a list of subtype view names.
	Inheritance        StringOrArray `yaml:"inheritance,omitempty"`
	InheritanceMapping *string       `yaml:"inheritance-mapping,omitempty"`

	BatchSize *int                     `yaml:"batch-size,omitempty"`
	Filters   []FilterDecl             `yaml:"filters,omitempty"`
	Lifecycle map[string]LifecycleDecl `yaml:"lifecycle,omitempty"`

	Attributes   []AttributeDecl   `yaml:"attributes,omitempty"`
	Constructors []ConstructorDecl `yaml:"constructors,omitempty"`
}

// UpdatableDecl is the updatable section of a view.
type UpdatableDecl struct {
	Mode     string `yaml:"mode,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`
}

// CreatableDecl is the creatable section of a view.
type CreatableDecl struct {
	Validate *bool         `yaml:"validate,omitempty"`
	Exclude  StringOrArray `yaml:"exclude,omitempty"`
}

// FilterDecl binds a named filter provider.
type FilterDecl struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
}

// LifecycleDecl names a lifecycle method. It may be written as a plain
// method name.
type LifecycleDecl struct {
	Method      string        `yaml:"method"`
	Transitions StringOrArray `yaml:"transitions,omitempty"`
}

// ConstructorDecl declares a constructor of a concrete view.
type ConstructorDecl struct {
	Name       string          `yaml:"name"`
	Func       string          `yaml:"func,omitempty"`
	Parameters []AttributeDecl `yaml:"parameters"`
}

// AttributeDecl declares an attribute or constructor parameter.
type AttributeDecl struct {
	Name string `yaml:"name"`

	// Type is the declared type of singular attributes and the element type
	// of plural ones.
	Type      string `yaml:"type"`
	Container string `yaml:"container,omitempty"`
	KeyType   string `yaml:"key-type,omitempty"`
	Setter    bool   `yaml:"setter,omitempty"`

	ID               bool               `yaml:"id,omitempty"`
	Mapping          *string            `yaml:"mapping,omitempty"`
	Parameter        string             `yaml:"parameter,omitempty"`
	Subquery         *SubqueryDecl      `yaml:"subquery,omitempty"`
	Correlated       *CorrelatedDecl    `yaml:"correlated,omitempty"`
	CorrelatedSimple *CorrelatedDecl    `yaml:"correlated-simple,omitempty"`
	Hints            StringOrArray      `yaml:"hints,omitempty"`
	Singular         bool               `yaml:"singular,omitempty"`
	BatchSize        *int               `yaml:"batch-size,omitempty"`
	Filters          []FilterDecl       `yaml:"filters,omitempty"`
	Update           *UpdateDecl        `yaml:"update,omitempty"`
	Inverse          *InverseDecl       `yaml:"inverse,omitempty"`
	Subtypes         *AttributeSubtypes `yaml:"subtypes,omitempty"`
}

// SubqueryDecl is a subquery mapping.
type SubqueryDecl struct {
	Provider   string `yaml:"provider"`
	Expression string `yaml:"expression,omitempty"`
	Alias      string `yaml:"alias,omitempty"`
}

// CorrelatedDecl is a correlated mapping. Provider is used by correlated
// mappings, Entity and Result by simple correlations.
type CorrelatedDecl struct {
	Provider   string `yaml:"provider,omitempty"`
	Entity     string `yaml:"entity,omitempty"`
	Basis      string `yaml:"basis"`
	Expression string `yaml:"expression,omitempty"`
	Result     string `yaml:"result,omitempty"`
}

// UpdateDecl is the update section of an attribute.
type UpdateDecl struct {
	Updatable       *bool         `yaml:"updatable,omitempty"`
	OrphanRemoval   *bool         `yaml:"orphan-removal,omitempty"`
	Cascade         StringOrArray `yaml:"cascade,omitempty"`
	Subtypes        StringOrArray `yaml:"subtypes,omitempty"`
	PersistSubtypes StringOrArray `yaml:"persist-subtypes,omitempty"`
	UpdateSubtypes  StringOrArray `yaml:"update-subtypes,omitempty"`
}

// InverseDecl marks the inverse side of a relationship.
type InverseDecl struct {
	MappedBy string `yaml:"mapped-by"`
	Remove   string `yaml:"remove,omitempty"`
}

// AttributeSubtypes declares inheritance subtypes per slot.
type AttributeSubtypes struct {
	Type    SubtypeSet `yaml:"type,omitempty"`
	Key     SubtypeSet `yaml:"key,omitempty"`
	Element SubtypeSet `yaml:"element,omitempty"`
}

// SubtypeSet maps subtype view names to an optional discriminator. It may
// be written as a list of names or as a map.
type SubtypeSet map[string]*string

// StringOrArray is a string or a list of strings.
type StringOrArray []string
