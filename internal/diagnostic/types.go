package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"viewmeta/internal/common"
)

// Diagnostics holds all diagnostics produced while reading and building views.
// The zero value is ready to use.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic

	seen map[string]struct{}
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// View names the view type this relates to (if any).
	View string
	// Location is the attribute or parameter location (if any).
	Location string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticWarning DiagnosticSeverity = iota
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic. It reports whether the diagnostic was new.
func (d *Diagnostics) AddError(code, message, view, location string) bool {
	return d.add(Diagnostic{
		Severity: DiagnosticError,
		Code:     code,
		Message:  message,
		View:     view,
		Location: location,
	})
}

// AddErrorf adds an error diagnostic with a formatted message.
func (d *Diagnostics) AddErrorf(code, view, location, format string, args ...any) bool {
	return d.AddError(code, fmt.Sprintf(format, args...), view, location)
}

// AddWarning adds a warning diagnostic. It reports whether the diagnostic was new.
func (d *Diagnostics) AddWarning(code, message, view, location string) bool {
	return d.add(Diagnostic{
		Severity: DiagnosticWarning,
		Code:     code,
		Message:  message,
		View:     view,
		Location: location,
	})
}

func (d *Diagnostics) add(diag Diagnostic) bool {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}

	key := diag.Severity.String() + "\x00" + diag.String()
	if _, ok := d.seen[key]; ok {
		return false
	}

	d.seen[key] = struct{}{}

	if diag.Severity == DiagnosticError {
		d.Errors = append(d.Errors, diag)
	} else {
		d.Warnings = append(d.Warnings, diag)
	}

	return true
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Len returns the number of errors and warnings.
func (d *Diagnostics) Len() int {
	return len(d.Errors) + len(d.Warnings)
}

// Merge merges another Diagnostics instance into this one, skipping duplicates.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}

	for _, e := range other.Errors {
		d.add(e)
	}

	for _, w := range other.Warnings {
		d.add(w)
	}
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Messages returns the rendered error messages in insertion order.
func (d *Diagnostics) Messages() []string {
	out := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		out = append(out, e.Message)
	}

	return out
}

// Err returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Err() error {
	if d.IsValid() {
		return nil
	}

	var err error
	for _, e := range d.Errors {
		err = multierr.Append(err, errors.New(e.String()))
	}

	return err
}

// Summary renders all errors joined by "; ".
func (d *Diagnostics) Summary() string {
	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return strings.Join(parts, "; ")
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if d.View != "" {
		return "[" + d.View + "] " + msg
	}

	return msg
}
