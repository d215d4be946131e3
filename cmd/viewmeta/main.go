// Command viewmeta builds and checks entity view metamodels.
//
// Views are read from Go packages (//view: directives) and from YAML view
// files, resolved against one or more entity catalogs and reported:
//
//	viewmeta check --catalog 'catalog/**/*.yaml' ./views/...
//	viewmeta build --views 'views/*.views.yaml'
//	viewmeta dump --view views.PersonView ./views
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
}
