package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

func newDumpCommand(opts *rootOptions) *cobra.Command {
	var (
		view  string
		depth int
	)

	cmd := &cobra.Command{
		Use:   "dump [packages]",
		Short: "Dump the frozen metamodel, or one view of it",
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

			cfg := spew.ConfigState{
				Indent:                  "  ",
				MaxDepth:                depth,
				DisablePointerAddresses: true,
				DisableCapacities:       true,
				SortKeys:                true,
			}

			if view == "" {
				cfg.Fdump(cmd.OutOrStdout(), mm.Views())
				return nil
			}

			v := mm.View(view)
			if v == nil {
				return fmt.Errorf("view %s not found", view)
			}

			cfg.Fdump(cmd.OutOrStdout(), v)

			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "dump only the named view")
	cmd.Flags().IntVar(&depth, "depth", 4, "maximum nesting depth, 0 for unlimited")

	return cmd
}
