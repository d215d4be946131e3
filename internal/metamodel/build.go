package metamodel

import (
	"go.uber.org/zap"

	"viewmeta/internal/catalog"
	"viewmeta/internal/diagnostic"
	"viewmeta/internal/expr"
)

// Build resolves every registered view and freezes the result. The
// returned error aggregates all error diagnostics. Calling Build again
// returns the same metamodel.
func (c *Context) Build() (*Metamodel, error) {
	if c.built {
		return c.metamodel, c.diags.Err()
	}

	c.InitializeAll()
	c.validateDependencies()

	mm := &Metamodel{byName: make(map[string]*ManagedViewType, len(c.nodes))}

	for _, id := range c.IDs() {
		v := c.ManagedViewType(id)
		mm.views = append(mm.views, v)
		mm.byName[v.Name] = v
	}

	c.built = true
	c.metamodel = mm

	c.logger.Debug("metamodel built",
		zap.Int("views", len(mm.views)),
		zap.Int("errors", len(c.diags.Errors)),
		zap.Int("warnings", len(c.diags.Warnings)))

	return mm, c.diags.Err()
}

// Build registers the mappings in a fresh context and builds them.
func Build(
	oracle catalog.Oracle,
	resolver expr.Resolver,
	cfg Config,
	mappings ...*ViewMapping,
) (*Metamodel, *diagnostic.Diagnostics) {
	c := NewContext(oracle, resolver, cfg)
	for _, vm := range mappings {
		c.Register(vm)
	}

	mm, _ := c.Build()

	return mm, c.Diagnostics()
}
