package analyze

import (
	"go/types"
	"slices"
	"strings"

	"golang.org/x/tools/go/ssa"

	"viewmeta/internal/common"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "viewmeta/examples/views"
	Name    string // e.g., "CatView"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// TypeKind represents the kind of a declared type.
type TypeKind int

const (
	TypeKindUnknown   TypeKind = iota
	TypeKindInterface          // abstract view or mixin
	TypeKindStruct             // concrete view or embedded base
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindInterface:
		return "interface"
	case TypeKindStruct:
		return "struct"
	default:
		return common.UnknownStr
	}
}

// TypeInfo describes one declared interface or struct.
type TypeInfo struct {
	ID         TypeID
	PkgName    string
	Kind       TypeKind
	Directives Directives
	// Embeds lists embedded interfaces or structs in declaration order.
	Embeds []TypeID
	// Methods holds the methods declared on this type only.
	Methods      []*MethodInfo
	Fields       []*FieldInfo
	Constructors []*ConstructorInfo
	Named        *types.Named
	// DirectiveErrors holds malformed directive lines found on the type
	// and its members.
	DirectiveErrors []error
}

// IsView reports whether the type carries a //view:entity directive.
func (t *TypeInfo) IsView() bool {
	return t.Directives.Has("entity")
}

// Abstract reports whether the type is an interface.
func (t *TypeInfo) Abstract() bool {
	return t.Kind == TypeKindInterface
}

// ViewName is the package-qualified name used throughout the metamodel.
func (t *TypeInfo) ViewName() string {
	return t.PkgName + "." + t.ID.Name
}

// Method returns a declared method by name.
func (t *TypeInfo) Method(name string) *MethodInfo {
	for _, m := range t.Methods {
		if m.Name == name {
			return m
		}
	}

	return nil
}

// Field returns a declared field by name.
func (t *TypeInfo) Field(name string) *FieldInfo {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// MethodInfo describes a method of an interface or struct.
type MethodInfo struct {
	Name       string
	Exported   bool
	Params     []types.Type
	Results    []types.Type
	Directives Directives
	Func       *types.Func
}

// IsGetter reports whether the method looks like "Name() T".
func (m *MethodInfo) IsGetter() bool {
	return len(m.Params) == 0 && len(m.Results) == 1
}

// IsSetterShaped reports whether the method is named Set<X> and takes one
// argument.
func (m *MethodInfo) IsSetterShaped() bool {
	return len(m.Name) > 3 && m.Name[:3] == "Set" && len(m.Params) == 1
}

// FieldInfo describes a struct field.
type FieldInfo struct {
	Name       string
	Exported   bool
	Type       types.Type
	Embedded   bool
	Index      int
	Directives Directives
}

// ParamInfo describes a constructor parameter.
type ParamInfo struct {
	Name string
	Type types.Type
}

// ConstructorInfo describes a New<Type> func returning the type or a
// pointer to it.
type ConstructorInfo struct {
	FuncName   string
	Directives Directives
	Params     []ParamInfo
	Pointer    bool
	Func       *types.Func
	// SSA is nil when no SSA package was built.
	SSA *ssa.Function
}

// TypeGraph holds all analyzed types from loaded packages.
type TypeGraph struct {
	// Types maps TypeID to TypeInfo for all declared interfaces and structs.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (g *TypeGraph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// Lookup returns the graph entry of a go/types type, dereferencing pointers.
func (g *TypeGraph) Lookup(t types.Type) *TypeInfo {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}

	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return nil
	}

	return g.Types[IDOf(named)]
}

// Views returns the view types in lexical order of their view names.
func (g *TypeGraph) Views() []*TypeInfo {
	var out []*TypeInfo

	for _, t := range g.Types {
		if t.IsView() {
			out = append(out, t)
		}
	}

	slices.SortFunc(out, func(a, b *TypeInfo) int {
		if c := strings.Compare(a.ViewName(), b.ViewName()); c != 0 {
			return c
		}

		return strings.Compare(a.ID.PkgPath, b.ID.PkgPath)
	})

	return out
}

// IDOf returns the TypeID of a named type.
func IDOf(named *types.Named) TypeID {
	obj := named.Obj()
	if obj.Pkg() == nil {
		return TypeID{Name: obj.Name()}
	}

	return TypeID{PkgPath: obj.Pkg().Path(), Name: obj.Name()}
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path  string   // Import path
	Name  string   // Package name
	Types []TypeID // Named types defined in this package
}
