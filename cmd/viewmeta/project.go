package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"viewmeta/internal/analyze"
	"viewmeta/internal/catalog"
	"viewmeta/internal/config"
	"viewmeta/internal/diagnostic"
	"viewmeta/internal/expr"
	"viewmeta/internal/mapping"
	"viewmeta/internal/metamodel"
	"viewmeta/internal/reader"
)

var (
	errNoCatalog = errors.New("no catalog files matched")
	errNoViews   = errors.New("no views declared")
)

// project holds the inputs of one run.
type project struct {
	cfg      metamodel.Config
	catalog  *catalog.Catalog
	mappings []*metamodel.ViewMapping
	// errs collects read diagnostics and, after build, build diagnostics.
	errs   *diagnostic.Diagnostics
	logger *zap.Logger
}

// load reads the configuration, every catalog, view file and package.
// Declaration problems are collected in the project diagnostics; only
// input failures are returned as errors.
func (o *rootOptions) load(ctx context.Context, packages []string, logger *zap.Logger) (*project, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}

	mc, err := cfg.Metamodel()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &project{cfg: mc, errs: &diagnostic.Diagnostics{}, logger: logger}

	catalogPaths, err := expandGlobs(append(cfg.Catalogs, o.catalogs...))
	if err != nil {
		return nil, err
	}

	if len(catalogPaths) == 0 {
		return nil, errNoCatalog
	}

	if p.catalog, err = loadCatalogs(ctx, catalogPaths); err != nil {
		return nil, err
	}

	logger.Debug("loaded catalogs", zap.Strings("files", catalogPaths), zap.Int("types", len(p.catalog.Names())))

	viewPaths, err := expandGlobs(append(cfg.Views, o.views...))
	if err != nil {
		return nil, err
	}

	for _, path := range viewPaths {
		f, err := mapping.LoadFile(path)
		if err != nil {
			return nil, err
		}

		res := mapping.Validate(f)
		p.errs.Merge(res)

		if res.HasErrors() {
			continue
		}

		p.mappings = append(p.mappings, f.ViewMappings(p.errs)...)
	}

	if patterns := append(cfg.Packages, packages...); len(patterns) > 0 {
		graph, err := analyze.NewAnalyzer(analyze.WithDir(o.dir), analyze.WithLogger(logger)).LoadPackages(patterns...)
		if err != nil {
			return nil, err
		}

		p.mappings = append(p.mappings, reader.New(graph, reader.WithLogger(logger)).ReadAll(p.errs)...)
	}

	if len(p.mappings) == 0 && !p.errs.HasErrors() {
		return nil, errNoViews
	}

	return p, nil
}

// build resolves the mappings. Build diagnostics are added to p.errs.
func (p *project) build() *metamodel.Metamodel {
	ctx := metamodel.NewContext(p.catalog, expr.NewPathResolver(p.catalog), p.cfg, metamodel.WithLogger(p.logger))
	for _, vm := range p.mappings {
		ctx.Register(vm)
	}

	mm, _ := ctx.Build()
	p.errs.Merge(ctx.Diagnostics())

	return mm
}

// expandGlobs expands doublestar patterns into a sorted list of unique
// paths. A pattern without meta characters must name an existing file.
func expandGlobs(patterns []string) ([]string, error) {
	var out []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 && !hasMeta(pattern) {
			return nil, fmt.Errorf("file %s does not exist", pattern)
		}

		out = append(out, matches...)
	}

	slices.Sort(out)

	return slices.Compact(out), nil
}

func hasMeta(pattern string) bool {
	return slices.ContainsFunc([]rune(pattern), func(r rune) bool {
		return r == '*' || r == '?' || r == '[' || r == '{'
	})
}

// loadCatalogs loads the catalog files concurrently and merges them in
// path order. Each file is validated on its own, so references must not
// cross files.
func loadCatalogs(ctx context.Context, paths []string) (*catalog.Catalog, error) {
	loaded := make([]*catalog.Catalog, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		i, path := i, path

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			c, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}

			loaded[i] = c

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := catalog.New()
	for i, c := range loaded {
		if err := merged.Merge(c); err != nil {
			return nil, fmt.Errorf("merging %s: %w", paths[i], err)
		}
	}

	return merged, nil
}
