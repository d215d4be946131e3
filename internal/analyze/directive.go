package analyze

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
	"strings"
)

// DirectivePrefix starts every directive comment line.
const DirectivePrefix = "//view:"

// Directive is one "//view:name arg key=value" comment line.
type Directive struct {
	Name   string
	Args   []string
	Params map[string]string
	Pos    token.Position
}

// Arg returns the first positional argument, or "".
func (d Directive) Arg() string {
	if len(d.Args) == 0 {
		return ""
	}

	return d.Args[0]
}

// Param returns a key=value parameter.
func (d Directive) Param(key string) (string, bool) {
	v, ok := d.Params[key]
	return v, ok
}

// BoolParam parses a boolean parameter. A missing key yields nil.
func (d Directive) BoolParam(key string) (*bool, error) {
	v, ok := d.Params[key]
	if !ok {
		return nil, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s: parameter %s: %w", d.Name, key, err)
	}

	return &b, nil
}

// IntParam parses an integer parameter, falling back to the first
// positional argument. A missing value yields def.
func (d Directive) IntParam(key string, def int) (int, error) {
	v, ok := d.Params[key]
	if !ok {
		if len(d.Args) == 0 {
			return def, nil
		}

		v = d.Args[0]
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: parameter %s: %w", d.Name, key, err)
	}

	return n, nil
}

// ListParam splits a comma separated parameter.
func (d Directive) ListParam(key string) []string {
	v, ok := d.Params[key]
	if !ok || v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func (d Directive) String() string {
	return DirectivePrefix + d.Name
}

// Directives is the ordered directive list of one declaration.
type Directives []Directive

// Find returns the first directive with the given name.
func (ds Directives) Find(name string) (Directive, bool) {
	for _, d := range ds {
		if d.Name == name {
			return d, true
		}
	}

	return Directive{}, false
}

// Has reports whether a directive with the given name is present.
func (ds Directives) Has(name string) bool {
	_, ok := ds.Find(name)
	return ok
}

// All returns every directive with the given name.
func (ds Directives) All(name string) Directives {
	var out Directives

	for _, d := range ds {
		if d.Name == name {
			out = append(out, d)
		}
	}

	return out
}

// ForParam returns the directives that target the named constructor
// parameter through param=<name>.
func (ds Directives) ForParam(name string) Directives {
	var out Directives

	for _, d := range ds {
		if p, ok := d.Params["param"]; ok && p == name {
			out = append(out, d)
		}
	}

	return out
}

// WithoutParamTargets drops directives carrying a param= key.
func (ds Directives) WithoutParamTargets() Directives {
	var out Directives

	for _, d := range ds {
		if _, ok := d.Params["param"]; !ok {
			out = append(out, d)
		}
	}

	return out
}

// ParseDirectives extracts the directives of a comment group. Malformed
// lines are returned as errors and skipped.
func ParseDirectives(fset *token.FileSet, groups ...*ast.CommentGroup) (Directives, []error) {
	var (
		out  Directives
		errs []error
	)

	for _, cg := range groups {
		if cg == nil {
			continue
		}

		for _, c := range cg.List {
			if !strings.HasPrefix(c.Text, DirectivePrefix) {
				continue
			}

			var pos token.Position
			if fset != nil {
				pos = fset.Position(c.Slash)
			}

			d, err := parseDirectiveLine(strings.TrimPrefix(c.Text, DirectivePrefix))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", pos, err))
				continue
			}

			d.Pos = pos
			out = append(out, d)
		}
	}

	return out, errs
}

func parseDirectiveLine(line string) (Directive, error) {
	name, rest, _ := strings.Cut(line, " ")
	if name == "" {
		return Directive{}, fmt.Errorf("directive without name")
	}

	d := Directive{Name: name, Params: map[string]string{}}

	tokens, err := tokenize(rest)
	if err != nil {
		return Directive{}, fmt.Errorf("%s: %w", name, err)
	}

	for _, tok := range tokens {
		if tok.key != "" {
			d.Params[tok.key] = tok.value
			continue
		}

		d.Args = append(d.Args, tok.value)
	}

	return d, nil
}

type rawToken struct {
	key   string
	value string
}

// tokenize splits on blanks. Values may be Go string literals, which keeps
// expressions containing spaces intact.
func tokenize(s string) ([]rawToken, error) {
	var out []rawToken

	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return out, nil
		}

		var tok rawToken

		if eq := keyLength(s); eq > 0 {
			tok.key = s[:eq]
			s = s[eq+1:]
		}

		value, rest, err := scanValue(s)
		if err != nil {
			return nil, err
		}

		tok.value = value
		s = rest
		out = append(out, tok)
	}
}

// keyLength returns the length of a leading "key=" identifier, or 0.
func keyLength(s string) int {
	for i, r := range s {
		switch {
		case r == '=' && i > 0:
			return i
		case r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			continue
		default:
			return 0
		}
	}

	return 0
}

func scanValue(s string) (string, string, error) {
	if s != "" && (s[0] == '"' || s[0] == '`') {
		quoted, err := strconv.QuotedPrefix(s)
		if err != nil {
			return "", "", fmt.Errorf("bad quoted value %s", s)
		}

		value, err := strconv.Unquote(quoted)
		if err != nil {
			return "", "", err
		}

		return value, s[len(quoted):], nil
	}

	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return s, "", nil
	}

	return s[:end], s[end:], nil
}
