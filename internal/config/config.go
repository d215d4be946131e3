// Package config loads viewmeta.yaml.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"viewmeta/internal/metamodel"
)

// EnvPrefix prefixes environment overrides, e.g.
// VIEWMETA_BUILD_STRICT_CASCADING_CHECK=false.
const EnvPrefix = "VIEWMETA"

// Config is the project configuration.
type Config struct {
	// Packages are Go package patterns declaring view types.
	Packages []string `mapstructure:"packages"`
	// Catalogs and Views are glob patterns of catalog and view files.
	Catalogs []string    `mapstructure:"catalogs"`
	Views    []string    `mapstructure:"views"`
	Build    BuildConfig `mapstructure:"build"`
}

// BuildConfig mirrors metamodel.Config. Names are kept in lists because
// viper folds map keys to lower case.
type BuildConfig struct {
	StrictCascadingCheck       bool              `mapstructure:"strict_cascading_check"`
	ErrorOnInvalidPluralSetter bool              `mapstructure:"error_on_invalid_plural_setter"`
	FlushMode                  string            `mapstructure:"flush_mode"`
	FlushStrategy              string            `mapstructure:"flush_strategy"`
	ViewFlush                  []ViewFlushConfig `mapstructure:"view_flush"`
	BasicTypes                 []BasicTypeConfig `mapstructure:"basic_types"`
	Converters                 []ConverterConfig `mapstructure:"converters"`
}

// ViewFlushConfig overrides the flush settings of one view.
type ViewFlushConfig struct {
	View     string `mapstructure:"view"`
	Mode     string `mapstructure:"mode"`
	Strategy string `mapstructure:"strategy"`
}

// BasicTypeConfig registers a basic type.
type BasicTypeConfig struct {
	Name    string `mapstructure:"name"`
	Mutable bool   `mapstructure:"mutable"`
	Version bool   `mapstructure:"version"`
}

// ConverterConfig registers a converter from a declared type to a target
// type, "*" matching every target.
type ConverterConfig struct {
	From      string `mapstructure:"from"`
	To        string `mapstructure:"to"`
	Converter string `mapstructure:"converter"`
}

// Load reads the configuration. An empty file searches viewmeta.yaml in
// the working directory and falls back to defaults when there is none.
func Load(file string) (*Config, error) {
	v := viper.New()

	defaults := metamodel.DefaultConfig()
	v.SetDefault("packages", []string{})
	v.SetDefault("catalogs", []string{})
	v.SetDefault("views", []string{})
	v.SetDefault("build.strict_cascading_check", defaults.StrictCascadingCheck)
	v.SetDefault("build.error_on_invalid_plural_setter", defaults.ErrorOnInvalidPluralSetter)
	v.SetDefault("build.flush_mode", "")
	v.SetDefault("build.flush_strategy", "")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("viewmeta")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Metamodel converts the build section into a metamodel configuration.
func (c *Config) Metamodel() (metamodel.Config, error) {
	out := metamodel.DefaultConfig()
	out.StrictCascadingCheck = c.Build.StrictCascadingCheck
	out.ErrorOnInvalidPluralSetter = c.Build.ErrorOnInvalidPluralSetter

	var err error

	if out.FlushMode, err = metamodel.ParseFlushMode(c.Build.FlushMode); err != nil {
		return out, fmt.Errorf("build.flush_mode: %w", err)
	}

	if out.FlushStrategy, err = metamodel.ParseFlushStrategy(c.Build.FlushStrategy); err != nil {
		return out, fmt.Errorf("build.flush_strategy: %w", err)
	}

	for i, vf := range c.Build.ViewFlush {
		if vf.View == "" {
			return out, fmt.Errorf("build.view_flush[%d]: missing view", i)
		}

		var o metamodel.FlushOverride

		if o.Mode, err = metamodel.ParseFlushMode(vf.Mode); err != nil {
			return out, fmt.Errorf("build.view_flush[%d]: %w", i, err)
		}

		if o.Strategy, err = metamodel.ParseFlushStrategy(vf.Strategy); err != nil {
			return out, fmt.Errorf("build.view_flush[%d]: %w", i, err)
		}

		out.ViewFlush[vf.View] = o
	}

	for i, bt := range c.Build.BasicTypes {
		if bt.Name == "" {
			return out, fmt.Errorf("build.basic_types[%d]: missing name", i)
		}

		out.BasicTypes[bt.Name] = metamodel.BasicTypeConfig{Mutable: bt.Mutable, Version: bt.Version}
	}

	for i, cv := range c.Build.Converters {
		if cv.From == "" || cv.To == "" || cv.Converter == "" {
			return out, fmt.Errorf("build.converters[%d]: from, to and converter are required", i)
		}

		if out.Converters[cv.From] == nil {
			out.Converters[cv.From] = map[string]string{}
		}

		out.Converters[cv.From][cv.To] = cv.Converter
	}

	return out, nil
}
