package analyze

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"viewmeta/internal/common"
)

// LoadMode specifies what information to load from packages. Dependencies
// are loaded with syntax so that SSA is built for embedded constructors
// declared in other packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports |
	packages.NeedDeps

// Analyzer loads Go packages and builds a type graph.
type Analyzer struct {
	graph  *TypeGraph
	dir    string
	logger *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDir sets the directory package patterns are resolved in.
func WithDir(dir string) Option {
	return func(a *Analyzer) { a.dir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		graph:  NewTypeGraph(),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// LoadPackages loads the specified packages and builds the type graph.
// Patterns are standard Go package patterns (e.g., "./views", "viewmeta/examples/views").
func (a *Analyzer) LoadPackages(patterns ...string) (*TypeGraph, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  a.dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs error

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = multierr.Append(errs, e)
		}
	}

	if errs != nil {
		return nil, fmt.Errorf("package errors: %w", errs)
	}

	prog, ssaPkgs := ssautil.Packages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	for i, pkg := range pkgs {
		if err := a.AddPackage(pkg.Fset, pkg.Types, pkg.Syntax, pkg.TypesInfo, ssaPkgs[i]); err != nil {
			return nil, fmt.Errorf("failed to process package %s: %w", pkg.PkgPath, err)
		}
	}

	return a.graph, nil
}

// LoadSource type-checks in-memory sources as one package, builds its SSA
// and adds it to the graph. Keys of files are file names.
func (a *Analyzer) LoadSource(pkgPath string, files map[string]string) (*TypeGraph, error) {
	fset := token.NewFileSet()

	var parsed []*ast.File

	for _, name := range common.SortedKeys(files) {
		f, err := parser.ParseFile(fset, name, files[name], parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		parsed = append(parsed, f)
	}

	first, ok := common.First(parsed)
	if !ok {
		return nil, fmt.Errorf("no sources for package %s", pkgPath)
	}

	pkg := types.NewPackage(pkgPath, first.Name.Name)
	tc := &types.Config{Importer: importer.Default()}

	ssaPkg, info, err := ssautil.BuildPackage(tc, fset, pkg, parsed, ssa.InstantiateGenerics)
	if err != nil {
		return nil, fmt.Errorf("failed to build package %s: %w", pkgPath, err)
	}

	if err := a.AddPackage(fset, ssaPkg.Pkg, parsed, info, ssaPkg); err != nil {
		return nil, err
	}

	return a.graph, nil
}

// Graph returns the current type graph.
func (a *Analyzer) Graph() *TypeGraph {
	return a.graph
}

// sourceDecls indexes the declarations of a package's files.
type sourceDecls struct {
	types   map[string]typeDecl
	methods map[string][]*ast.FuncDecl
	funcs   []*ast.FuncDecl
}

type typeDecl struct {
	spec *ast.TypeSpec
	docs []*ast.CommentGroup
}

func collectDecls(files []*ast.File) sourceDecls {
	sd := sourceDecls{
		types:   make(map[string]typeDecl),
		methods: make(map[string][]*ast.FuncDecl),
	}

	for _, f := range files {
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}

				for _, spec := range d.Specs {
					ts := spec.(*ast.TypeSpec)
					docs := []*ast.CommentGroup{ts.Doc}

					if !d.Lparen.IsValid() {
						docs = append(docs, d.Doc)
					}

					sd.types[ts.Name.Name] = typeDecl{spec: ts, docs: docs}
				}

			case *ast.FuncDecl:
				if d.Recv == nil {
					sd.funcs = append(sd.funcs, d)
					continue
				}

				if recv := receiverName(d.Recv); recv != "" {
					sd.methods[recv] = append(sd.methods[recv], d)
				}
			}
		}
	}

	return sd
}

func receiverName(fl *ast.FieldList) string {
	if fl == nil || len(fl.List) == 0 {
		return ""
	}

	expr := fl.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// AddPackage extracts the interfaces and structs of a type-checked package.
// ssaPkg may be nil, in which case constructors carry no SSA function.
func (a *Analyzer) AddPackage(
	fset *token.FileSet,
	pkg *types.Package,
	files []*ast.File,
	info *types.Info,
	ssaPkg *ssa.Package,
) error {
	if pkg == nil || info == nil {
		return fmt.Errorf("package has no type information")
	}

	decls := collectDecls(files)
	pkgInfo := &PackageInfo{
		Path: pkg.Path(),
		Name: pkg.Name(),
	}

	scope := pkg.Scope()
	for _, name := range scope.Names() {
		typeName, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || typeName.IsAlias() {
			continue
		}

		named, ok := typeName.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}

		decl, ok := decls.types[name]
		if !ok {
			continue
		}

		ti := &TypeInfo{
			ID:      TypeID{PkgPath: pkg.Path(), Name: name},
			PkgName: pkg.Name(),
			Named:   named,
		}

		ti.Directives, ti.DirectiveErrors = ParseDirectives(fset, decl.docs...)

		switch st := decl.spec.Type.(type) {
		case *ast.InterfaceType:
			ti.Kind = TypeKindInterface
			a.analyzeInterface(fset, st, info, ti)
		case *ast.StructType:
			ti.Kind = TypeKindStruct
			a.analyzeStruct(fset, st, named, ti)
			a.analyzeMethods(fset, decls.methods[name], info, ti)
			a.analyzeConstructors(fset, decls.funcs, info, ssaPkg, ti)
		default:
			continue
		}

		a.graph.Types[ti.ID] = ti
		pkgInfo.Types = append(pkgInfo.Types, ti.ID)
	}

	a.graph.Packages[pkg.Path()] = pkgInfo
	a.logger.Debug("analyzed package",
		zap.String("package", pkg.Path()),
		zap.Int("types", len(pkgInfo.Types)))

	return nil
}

func (a *Analyzer) analyzeInterface(fset *token.FileSet, it *ast.InterfaceType, info *types.Info, ti *TypeInfo) {
	for _, field := range it.Methods.List {
		if len(field.Names) == 0 {
			if named := namedOf(info.TypeOf(field.Type)); named != nil {
				ti.Embeds = append(ti.Embeds, IDOf(named))
			}

			continue
		}

		ds, errs := ParseDirectives(fset, field.Doc, field.Comment)
		ti.DirectiveErrors = append(ti.DirectiveErrors, errs...)

		for _, ident := range field.Names {
			fn, ok := info.Defs[ident].(*types.Func)
			if !ok {
				continue
			}

			m := newMethodInfo(fn)
			m.Directives = ds
			ti.Methods = append(ti.Methods, m)
		}
	}
}

func (a *Analyzer) analyzeStruct(fset *token.FileSet, st *ast.StructType, named *types.Named, ti *TypeInfo) {
	underlying, ok := named.Underlying().(*types.Struct)
	if !ok {
		return
	}

	idx := 0

	for _, field := range st.Fields.List {
		ds, errs := ParseDirectives(fset, field.Doc, field.Comment)
		ti.DirectiveErrors = append(ti.DirectiveErrors, errs...)

		count := max(len(field.Names), 1)
		for k := 0; k < count; k++ {
			if idx >= underlying.NumFields() {
				return
			}

			v := underlying.Field(idx)
			ti.Fields = append(ti.Fields, &FieldInfo{
				Name:       v.Name(),
				Exported:   v.Exported(),
				Type:       v.Type(),
				Embedded:   v.Embedded(),
				Index:      idx,
				Directives: ds,
			})

			if v.Embedded() {
				if n := namedOf(v.Type()); n != nil {
					ti.Embeds = append(ti.Embeds, IDOf(n))
				}
			}

			idx++
		}
	}
}

func (a *Analyzer) analyzeMethods(fset *token.FileSet, decls []*ast.FuncDecl, info *types.Info, ti *TypeInfo) {
	for _, fd := range decls {
		fn, ok := info.Defs[fd.Name].(*types.Func)
		if !ok {
			continue
		}

		ds, errs := ParseDirectives(fset, fd.Doc)
		ti.DirectiveErrors = append(ti.DirectiveErrors, errs...)

		m := newMethodInfo(fn)
		m.Directives = ds
		ti.Methods = append(ti.Methods, m)
	}
}

func (a *Analyzer) analyzeConstructors(
	fset *token.FileSet,
	decls []*ast.FuncDecl,
	info *types.Info,
	ssaPkg *ssa.Package,
	ti *TypeInfo,
) {
	prefix := "New" + ti.ID.Name

	for _, fd := range decls {
		if !strings.HasPrefix(fd.Name.Name, prefix) {
			continue
		}

		fn, ok := info.Defs[fd.Name].(*types.Func)
		if !ok {
			continue
		}

		sig := fn.Type().(*types.Signature)
		if sig.Results().Len() != 1 {
			continue
		}

		result := sig.Results().At(0).Type()

		pointer := false
		if p, ok := result.(*types.Pointer); ok {
			result, pointer = p.Elem(), true
		}

		if !types.Identical(result, ti.Named) {
			continue
		}

		ds, errs := ParseDirectives(fset, fd.Doc)
		ti.DirectiveErrors = append(ti.DirectiveErrors, errs...)

		ctor := &ConstructorInfo{
			FuncName:   fd.Name.Name,
			Directives: ds,
			Pointer:    pointer,
			Func:       fn,
		}

		for i := 0; i < sig.Params().Len(); i++ {
			p := sig.Params().At(i)
			ctor.Params = append(ctor.Params, ParamInfo{Name: p.Name(), Type: p.Type()})
		}

		if ssaPkg != nil {
			ctor.SSA = ssaPkg.Func(fd.Name.Name)
		}

		ti.Constructors = append(ti.Constructors, ctor)
	}
}

func newMethodInfo(fn *types.Func) *MethodInfo {
	sig := fn.Type().(*types.Signature)
	m := &MethodInfo{
		Name:     fn.Name(),
		Exported: fn.Exported(),
		Func:     fn,
	}

	for i := 0; i < sig.Params().Len(); i++ {
		m.Params = append(m.Params, sig.Params().At(i).Type())
	}

	for i := 0; i < sig.Results().Len(); i++ {
		m.Results = append(m.Results, sig.Results().At(i).Type())
	}

	return m
}

func namedOf(t types.Type) *types.Named {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}

	named, _ := t.(*types.Named)

	return named
}
