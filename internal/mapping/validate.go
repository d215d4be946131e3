package mapping

import (
	"fmt"

	"viewmeta/internal/diagnostic"
)

const (
	codeFileIsNil          = "file_is_nil"
	codeUnsupportedVersion = "unsupported_version"
	codeMissingName        = "missing_name"
	codeMissingType        = "missing_type"
	codeDuplicateAttribute = "duplicate_attribute"
	codeMisplacedMembers   = "misplaced_members"
	codeNoConstructors     = "no_constructors"
)

// Validate checks the structure of a view file. Values such as flush modes
// and cascade names are checked when the file is converted.
func Validate(f *File) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError(codeFileIsNil, "view file is nil", "", "")
		return res
	}

	if f.Version != "1" {
		res.AddError(codeUnsupportedVersion, fmt.Sprintf("unsupported view file version %q", f.Version), "", "")
	}

	seen := make(map[string]bool, len(f.Views))

	for i := range f.Views {
		v := &f.Views[i]

		if v.Name == "" {
			res.AddError(codeMissingName, fmt.Sprintf("view at index %d has no name", i), "", "")
			continue
		}

		if seen[v.Name] {
			res.AddError(diagnostic.CodeDuplicateView,
				fmt.Sprintf("A view with the name '%s' is declared more than once!", v.Name), v.Name, "")

			continue
		}

		seen[v.Name] = true

		validateView(res, v)
	}

	return res
}

func validateView(res *diagnostic.Diagnostics, v *ViewDecl) {
	if v.Concrete {
		if len(v.Attributes) > 0 {
			res.AddError(codeMisplacedMembers,
				"concrete view declares attributes; declare constructor parameters instead", v.Name, "")
		}

		if len(v.Constructors) == 0 {
			res.AddError(codeNoConstructors, "concrete view declares no constructors", v.Name, "")
		}

		for i := range v.Constructors {
			c := &v.Constructors[i]
			if c.Name == "" {
				res.AddError(codeMissingName, fmt.Sprintf("constructor at index %d has no name", i), v.Name, "")
				continue
			}

			validateAttributes(res, v.Name, "constructor "+c.Name, c.Parameters)
		}

		return
	}

	if len(v.Constructors) > 0 {
		res.AddError(codeMisplacedMembers, "abstract view declares constructors", v.Name, "")
	}

	validateAttributes(res, v.Name, "view", v.Attributes)
}

func validateAttributes(res *diagnostic.Diagnostics, view, owner string, attrs []AttributeDecl) {
	seen := make(map[string]bool, len(attrs))

	for i := range attrs {
		a := &attrs[i]
		if a.Name == "" {
			res.AddError(codeMissingName, fmt.Sprintf("%s: attribute at index %d has no name", owner, i), view, "")
			continue
		}

		if seen[a.Name] {
			res.AddError(codeDuplicateAttribute, fmt.Sprintf("%s: duplicate attribute %q", owner, a.Name), view, a.Name)
		}

		seen[a.Name] = true

		if a.Type == "" {
			res.AddError(codeMissingType, fmt.Sprintf("%s: attribute %q has no type", owner, a.Name), view, a.Name)
		}
	}
}
