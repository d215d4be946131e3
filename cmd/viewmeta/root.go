package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configFile string
	catalogs   []string
	views      []string
	dir        string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "viewmeta",
		Short: "Build and check entity view metamodels",
		Long: `viewmeta reads entity view declarations from Go packages and YAML view
files, resolves them against entity catalogs and reports every problem
found in a single run.

Package patterns given as arguments are added to the packages of
viewmeta.yaml; --catalog and --views add glob patterns ("**" is supported).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ./viewmeta.yaml)")
	flags.StringSliceVar(&opts.catalogs, "catalog", nil, "catalog file glob, repeatable")
	flags.StringSliceVar(&opts.views, "views", nil, "view file glob, repeatable")
	flags.StringVar(&opts.dir, "dir", "", "directory package patterns are resolved in")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newBuildCommand(opts))
	root.AddCommand(newCheckCommand(opts))
	root.AddCommand(newDumpCommand(opts))

	return root
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	if o.verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)

	return cfg.Build()
}
