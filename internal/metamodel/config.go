package metamodel

import "go.uber.org/zap"

// FlushOverride replaces the flush settings of one view.
type FlushOverride struct {
	Mode     FlushMode
	Strategy FlushStrategy
}

// Config holds configuration for a metamodel build.
type Config struct {
	// StrictCascadingCheck reports setters on plural attributes that are
	// neither updatable nor cascading.
	StrictCascadingCheck bool
	// ErrorOnInvalidPluralSetter turns the strict cascading report into an
	// error. It is a warning otherwise.
	ErrorOnInvalidPluralSetter bool
	// FlushMode and FlushStrategy override the declared flush settings of
	// every updatable view.
	FlushMode     FlushMode
	FlushStrategy FlushStrategy
	// ViewFlush overrides flush settings per view name and wins over the
	// global settings.
	ViewFlush map[string]FlushOverride
	// BasicTypes registers additional basic types, keyed by type name.
	BasicTypes map[string]BasicTypeConfig
	// Converters maps a declared type to converters keyed by the target
	// type they accept. The target "*" matches every type.
	Converters map[string]map[string]string
}

// BasicTypeConfig describes a user registered basic type.
type BasicTypeConfig struct {
	Mutable bool
	Version bool
}

// DefaultConfig returns the default build configuration.
func DefaultConfig() Config {
	return Config{
		StrictCascadingCheck:       true,
		ErrorOnInvalidPluralSetter: false,
		ViewFlush:                  map[string]FlushOverride{},
		BasicTypes:                 map[string]BasicTypeConfig{},
		Converters:                 map[string]map[string]string{},
	}
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used by the context.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}
