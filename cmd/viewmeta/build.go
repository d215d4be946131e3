package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build [packages]",
		Short: "Build the metamodel and print every view",
		Example: `  # Build the views of a package against a YAML catalog
  viewmeta build --catalog catalog.yaml ./views

  # Use the inputs listed in viewmeta.yaml
  viewmeta build`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			p, err := opts.load(cmd.Context(), args, logger)
			if err != nil {
				return err
			}

			mm := p.build()
			out := cmd.OutOrStdout()

			for _, v := range mm.Views() {
				printView(out, v)
			}

			printDiagnostics(cmd.ErrOrStderr(), p.errs)

			if p.errs.HasErrors() {
				return failure(p.errs)
			}

			successColor.Fprintf(out, "built %d view(s)\n", len(mm.Views()))

			return nil
		},
	}
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var warningsAsErrors bool

	cmd := &cobra.Command{
		Use:   "check [packages]",
		Short: "Report declaration problems without printing the metamodel",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			p, err := opts.load(cmd.Context(), args, logger)
			if err != nil {
				return err
			}

			mm := p.build()
			printDiagnostics(cmd.ErrOrStderr(), p.errs)

			if p.errs.HasErrors() || (warningsAsErrors && len(p.errs.Warnings) > 0) {
				return failure(p.errs)
			}

			successColor.Fprint(cmd.OutOrStdout(), "ok")
			fmt.Fprintf(cmd.OutOrStdout(), " %d view(s), %d warning(s)\n", len(mm.Views()), len(p.errs.Warnings))

			return nil
		},
	}

	cmd.Flags().BoolVar(&warningsAsErrors, "strict", false, "treat warnings as errors")

	return cmd
}
