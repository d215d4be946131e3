package reader

import (
	"go/types"
	"slices"
	"strings"

	"go.uber.org/zap"

	"viewmeta/internal/analyze"
	"viewmeta/internal/diagnostic"
	"viewmeta/internal/metamodel"
)

// Reader reads view declarations from a type graph.
type Reader struct {
	graph  *analyze.TypeGraph
	logger *zap.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) { r.logger = l }
}

// New creates a reader over graph.
func New(graph *analyze.TypeGraph, opts ...Option) *Reader {
	r := &Reader{graph: graph, logger: zap.NewNop()}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ReadAll reads every view type of the graph in lexical order.
func (r *Reader) ReadAll(errs *diagnostic.Diagnostics) []*metamodel.ViewMapping {
	views := r.graph.Views()
	out := make([]*metamodel.ViewMapping, 0, len(views))

	for _, ti := range views {
		if vm := r.ReadViewMapping(ti.ID, errs); vm != nil {
			out = append(out, vm)
		}
	}

	r.logger.Debug("read view mappings", zap.Int("views", len(out)))

	return out
}

// ReadViewMapping reads the declaration of one view type. It returns nil
// when id is not a view type of the graph.
func (r *Reader) ReadViewMapping(id analyze.TypeID, errs *diagnostic.Diagnostics) *metamodel.ViewMapping {
	ti := r.graph.GetType(id)
	if ti == nil || !ti.IsView() {
		return nil
	}

	entity, _ := ti.Directives.Find("entity")
	vm := metamodel.NewViewMapping(ti.ViewName(), entity.Arg())
	vm.Package = ti.ID.PkgPath
	vm.Abstract = ti.Abstract()
	vm.Supertypes = r.viewSupertypes(ti)

	for _, err := range ti.DirectiveErrors {
		errs.AddErrorf(diagnostic.CodeInvalidDirective, vm.Name, "", "Invalid directive on %s: %v", vm.Name, err)
	}

	r.readTypeDirectives(ti, vm, errs)
	r.readLifecycle(ti, vm, errs)

	if ti.Abstract() {
		r.readMethodAttributes(ti, vm, errs)
	} else {
		r.readConstructors(ti, vm, errs)
	}

	r.logger.Debug("read view mapping",
		zap.String("view", vm.Name),
		zap.Int("attributes", len(vm.Attributes())),
		zap.Int("constructors", len(vm.Constructors())))

	return vm
}

// viewSupertypes returns the nearest embedded view types, looking through
// embedded types that are not views.
func (r *Reader) viewSupertypes(ti *analyze.TypeInfo) []string {
	var out []string

	seen := map[analyze.TypeID]bool{ti.ID: true}
	queue := slices.Clone(ti.Embeds)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if seen[id] {
			continue
		}

		seen[id] = true

		embedded := r.graph.GetType(id)
		if embedded == nil {
			continue
		}

		if embedded.IsView() {
			out = append(out, embedded.ViewName())
			continue
		}

		queue = append(queue, embedded.Embeds...)
	}

	return out
}

func (r *Reader) readTypeDirectives(ti *analyze.TypeInfo, vm *metamodel.ViewMapping, errs *diagnostic.Diagnostics) {
	ds := ti.Directives
	invalid := func(err error) {
		errs.AddErrorf(diagnostic.CodeInvalidDirective, vm.Name, "", "Invalid directive on %s: %v", vm.Name, err)
	}

	if d, ok := ds.Find("updatable"); ok {
		decl := &metamodel.UpdatableDecl{}

		var err error

		if mode, ok := d.Param("mode"); ok {
			if decl.Mode, err = metamodel.ParseFlushMode(mode); err != nil {
				invalid(err)
			}
		}

		if strategy, ok := d.Param("strategy"); ok {
			if decl.Strategy, err = metamodel.ParseFlushStrategy(strategy); err != nil {
				invalid(err)
			}
		}

		if lock, ok := d.Param("lock"); ok {
			if vm.LockMode, err = metamodel.ParseLockMode(lock); err != nil {
				invalid(err)
			}
		}

		vm.Updatable = decl
	}

	if d, ok := ds.Find("creatable"); ok {
		decl := &metamodel.CreatableDecl{Validate: true, Excluded: d.ListParam("exclude")}

		validate, err := d.BoolParam("validate")
		if err != nil {
			invalid(err)
		} else if validate != nil {
			decl.Validate = *validate
		}

		vm.Creatable = decl
	}

	if d, ok := ds.Find("lock-owner"); ok {
		vm.LockOwner = d.Arg()
	}

	if d, ok := ds.Find("inheritance"); ok {
		if len(d.Args) == 0 {
			vm.Inheritance = metamodel.InheritanceDecl{Mode: metamodel.InheritanceAuto}
		} else {
			vm.Inheritance = metamodel.InheritanceDecl{
				Mode:     metamodel.InheritanceExplicit,
				Subtypes: qualifyAll(ti.PkgName, d.Args),
			}
		}
	}

	if d, ok := ds.Find("inheritance-mapping"); ok {
		mapping := d.Arg()
		vm.InheritanceMapping = &mapping
	}

	if d, ok := ds.Find("batch-fetch"); ok {
		size, err := d.IntParam("size", -1)
		if err != nil {
			invalid(err)
		}

		vm.BatchSize = size
	}

	vm.Filters = readFilters(ds)
}

func readFilters(ds analyze.Directives) []metamodel.FilterMapping {
	var out []metamodel.FilterMapping

	for _, d := range ds.All("filter") {
		provider, _ := d.Param("provider")
		out = append(out, metamodel.FilterMapping{Name: d.Arg(), Provider: provider})
	}

	return out
}

// qualify prefixes a view name declared without a package with pkgName.
func qualify(pkgName, name string) string {
	if name == "" || strings.Contains(name, ".") {
		return name
	}

	return pkgName + "." + name
}

func qualifyAll(pkgName string, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, qualify(pkgName, n))
	}

	return out
}

// typeString renders t the way view and basic type names are spelled in
// the metamodel: named types are qualified by their package name.
func typeString(t types.Type) string {
	return types.TypeString(t, func(p *types.Package) string { return p.Name() })
}

// declaredType splits t into its container shape. A []byte is a basic
// type.
func declaredType(t types.Type) metamodel.DeclaredType {
	d := metamodel.DeclaredType{Type: typeString(t)}

	switch u := t.Underlying().(type) {
	case *types.Slice:
		if isByte(u.Elem()) {
			return d
		}

		d.Container = metamodel.ContainerList
		d.ElementType = typeString(u.Elem())
	case *types.Array:
		d.Container = metamodel.ContainerList
		d.ElementType = typeString(u.Elem())
	case *types.Map:
		d.Container = metamodel.ContainerMap
		d.KeyType = typeString(u.Key())
		d.ElementType = typeString(u.Elem())
	}

	return d
}

func isByte(t types.Type) bool {
	b, ok := t.(*types.Basic)
	return ok && b.Kind() == types.Byte
}

// attributeName derives the attribute name of an accessor: the leading
// run of upper case letters is lowered, except for the start of the next
// word ("ID" -> "id", "URLPath" -> "urlPath", "Name" -> "name").
func attributeName(method string) string {
	runes := []rune(method)

	n := 0
	for n < len(runes) && runes[n] >= 'A' && runes[n] <= 'Z' {
		n++
	}

	if n > 1 && n < len(runes) {
		n--
	}

	for i := 0; i < n; i++ {
		runes[i] += 'a' - 'A'
	}

	return string(runes)
}
