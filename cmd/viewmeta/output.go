package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"viewmeta/internal/diagnostic"
	"viewmeta/internal/metamodel"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen, color.Bold)
	titleColor   = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.Faint)
)

// printDiagnostics writes warnings then errors, one per line.
func printDiagnostics(w io.Writer, errs *diagnostic.Diagnostics) {
	for _, d := range errs.Warnings {
		warningColor.Fprint(w, "warning: ")
		fmt.Fprintln(w, d.String())
	}

	for _, d := range errs.Errors {
		errorColor.Fprint(w, "error: ")
		fmt.Fprintln(w, d.String())
	}
}

// failure is the error returned when diagnostics contain errors.
func failure(errs *diagnostic.Diagnostics) error {
	return fmt.Errorf("%d error(s), %d warning(s)", len(errs.Errors), len(errs.Warnings))
}

// printView writes one view and its attributes.
func printView(w io.Writer, v *metamodel.ManagedViewType) {
	titleColor.Fprint(w, v.Name)

	var traits []string
	if v.Entity != nil {
		traits = append(traits, v.Entity.Name)
	}

	if v.Abstract {
		traits = append(traits, "abstract")
	}

	if v.Creatable {
		traits = append(traits, "creatable")
	}

	if v.Updatable {
		traits = append(traits, "updatable", "flush="+v.FlushMode.String(), "lock="+v.LockMode.String())
	}

	if !v.Identifiable() {
		traits = append(traits, "flat")
	}

	dimColor.Fprintf(w, " (%s)\n", strings.Join(traits, ", "))

	for _, a := range v.Attributes() {
		marker := " "
		if v.ID == a {
			marker = "*"
		}

		fmt.Fprintf(w, "  %s %-20s %-22s %s\n", marker, a.Name, a.Kind, a.Type)
	}

	for _, c := range v.Constructors() {
		names := make([]string, 0, len(c.Parameters))
		for _, p := range c.Parameters {
			names = append(names, p.Name)
		}

		dimColor.Fprintf(w, "  constructor %s %s(%s)\n", c.Name, c.FuncName, strings.Join(names, ", "))
	}
}
