package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"viewmeta/internal/catalog"
	"viewmeta/internal/match"
)

// ThisRoot is the explicit root of a path expression.
const ThisRoot = "this"

const maxSuggestions = 3

// TargetType is one type an expression can evaluate to.
type TargetType struct {
	// LeafBaseType is the type of the last path element. For plural leaves
	// it is the container name ("list", "set", "map", "collection").
	LeafBaseType    string
	LeafKeyType     string
	LeafElementType string
	// CollectionJoin reports that a plural attribute was traversed.
	CollectionJoin bool
}

// Plural reports whether the leaf is a collection or map.
func (t TargetType) Plural() bool {
	return t.LeafElementType != ""
}

// Resolver maps an expression to its possible target types.
type Resolver interface {
	// Resolve resolves expression relative to root. rootAttribute is the
	// embedded attribute through which root was reached, or nil; its
	// overrides apply to the first path segment.
	Resolve(expression string, root *catalog.ManagedType, rootAttribute *catalog.Attribute) ([]TargetType, error)
}

// PathResolver is the default Resolver.
type PathResolver struct {
	oracle catalog.Oracle
}

// NewPathResolver creates a resolver that walks paths against oracle.
func NewPathResolver(oracle catalog.Oracle) *PathResolver {
	return &PathResolver{oracle: oracle}
}

// Resolve implements Resolver.
func (r *PathResolver) Resolve(
	expression string,
	root *catalog.ManagedType,
	rootAttribute *catalog.Attribute,
) ([]TargetType, error) {
	src := strings.TrimSpace(expression)
	if src == "" {
		return nil, &SyntaxError{
			Expression: expression,
			Diags:      hcl.Diagnostics{{Severity: hcl.DiagError, Summary: "empty expression"}},
		}
	}

	parsed, diags := hclsyntax.ParseExpression([]byte(src), "mapping", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &SyntaxError{Expression: expression, Diags: diags}
	}

	if root == nil {
		return nil, &ResolutionError{Expression: expression, Reason: "no managed type to resolve against"}
	}

	s := &scope{oracle: r.oracle, expression: expression, root: root, rootAttribute: rootAttribute}

	steps, err := s.resolve(parsed)
	if err != nil {
		return nil, err
	}

	out := make([]TargetType, 0, len(steps))
	for _, st := range steps {
		t := st.target()
		if !containsTarget(out, t) {
			out = append(out, t)
		}
	}

	return out, nil
}

func containsTarget(ts []TargetType, t TargetType) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}

	return false
}

// step is the intermediate state of a path walk.
type step struct {
	typ      *catalog.ManagedType // nil for basic types
	typeName string
	plural   bool
	kind     catalog.AttributeKind
	keyType  string
	join     bool
	atRoot   bool
}

func (st step) target() TargetType {
	if st.plural {
		return TargetType{
			LeafBaseType:    st.kind.String(),
			LeafKeyType:     st.keyType,
			LeafElementType: st.typeName,
			CollectionJoin:  st.join,
		}
	}

	return TargetType{LeafBaseType: st.typeName, CollectionJoin: st.join}
}

func basic(typeName string) step {
	return step{typeName: typeName}
}

type scope struct {
	oracle        catalog.Oracle
	expression    string
	root          *catalog.ManagedType
	rootAttribute *catalog.Attribute
}

func (s *scope) fail(typ, format string, args ...any) error {
	return &ResolutionError{Expression: s.expression, Type: typ, Reason: fmt.Sprintf(format, args...)}
}

func (s *scope) managed(name string) *catalog.ManagedType {
	mt, ok := s.oracle.ManagedType(name)
	if !ok {
		return nil
	}

	return mt
}

func (s *scope) rootStep() step {
	return step{typ: s.root, typeName: s.root.Name, atRoot: true}
}

func (s *scope) resolve(e hclsyntax.Expression) ([]step, error) {
	switch ex := e.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		st, err := s.traverseAbs(ex.Traversal)
		if err != nil {
			return nil, err
		}

		return []step{st}, nil

	case *hclsyntax.RelativeTraversalExpr:
		sources, err := s.resolve(ex.Source)
		if err != nil {
			return nil, err
		}

		out := make([]step, 0, len(sources))
		for _, src := range sources {
			st, err := s.traverse(src, ex.Traversal)
			if err != nil {
				return nil, err
			}

			out = append(out, st)
		}

		return out, nil

	case *hclsyntax.IndexExpr:
		colls, err := s.resolve(ex.Collection)
		if err != nil {
			return nil, err
		}

		if _, err := s.resolve(ex.Key); err != nil {
			return nil, err
		}

		out := make([]step, 0, len(colls))
		for _, c := range colls {
			st, err := s.index(c, cty.DynamicVal)
			if err != nil {
				return nil, err
			}

			out = append(out, st)
		}

		return out, nil

	case *hclsyntax.FunctionCallExpr:
		return s.call(ex)

	case *hclsyntax.LiteralValueExpr:
		return literal(ex.Val), nil

	case *hclsyntax.TemplateExpr:
		for _, part := range ex.Parts {
			if _, err := s.resolve(part); err != nil {
				return nil, err
			}
		}

		return []step{basic("string")}, nil

	case *hclsyntax.TemplateWrapExpr:
		return s.resolve(ex.Wrapped)

	case *hclsyntax.ParenthesesExpr:
		return s.resolve(ex.Expression)

	case *hclsyntax.BinaryOpExpr:
		lhs, err := s.resolve(ex.LHS)
		if err != nil {
			return nil, err
		}

		if _, err := s.resolve(ex.RHS); err != nil {
			return nil, err
		}

		if ex.Op.Type.Equals(cty.Bool) {
			return []step{basic("bool")}, nil
		}

		return singularOnly(lhs), nil

	case *hclsyntax.UnaryOpExpr:
		val, err := s.resolve(ex.Val)
		if err != nil {
			return nil, err
		}

		if ex.Op == hclsyntax.OpLogicalNot {
			return []step{basic("bool")}, nil
		}

		return singularOnly(val), nil

	case *hclsyntax.ConditionalExpr:
		if _, err := s.resolve(ex.Condition); err != nil {
			return nil, err
		}

		t, err := s.resolve(ex.TrueResult)
		if err != nil {
			return nil, err
		}

		f, err := s.resolve(ex.FalseResult)
		if err != nil {
			return nil, err
		}

		return append(t, f...), nil

	default:
		return nil, s.fail(s.root.Name, "unsupported expression %T", e)
	}
}

func singularOnly(steps []step) []step {
	out := make([]step, 0, len(steps))
	for _, st := range steps {
		st.plural = false
		out = append(out, st)
	}

	return out
}

func literal(v cty.Value) []step {
	if v.IsNull() {
		return nil
	}

	switch ty := v.Type(); {
	case ty.Equals(cty.String):
		return []step{basic("string")}
	case ty.Equals(cty.Bool):
		return []step{basic("bool")}
	case ty.Equals(cty.Number):
		if v.IsKnown() && v.AsBigFloat().IsInt() {
			return []step{basic("int64")}
		}

		return []step{basic("float64")}
	default:
		return []step{basic(ty.FriendlyName())}
	}
}

// traverseAbs walks a traversal that starts with a root name. "this" names
// the root type; an entity name switches the root to that entity.
func (s *scope) traverseAbs(trav hcl.Traversal) (step, error) {
	name := trav.RootName()
	start := s.rootStep()

	if name == ThisRoot {
		return s.traverse(start, trav[1:])
	}

	if _, err := s.oracle.Attribute(s.root, name); err != nil {
		if ent, ok := s.oracle.Entity(name); ok && name != s.root.Name {
			return s.traverse(step{typ: ent.Type, typeName: ent.Type.Name}, trav[1:])
		}
	}

	return s.traverse(start, append(hcl.Traversal{hcl.TraverseAttr{Name: name}}, trav[1:]...))
}

func (s *scope) traverse(cur step, trav hcl.Traversal) (step, error) {
	var err error

	for _, t := range trav {
		switch tt := t.(type) {
		case hcl.TraverseAttr:
			cur, err = s.attr(cur, tt.Name)
		case hcl.TraverseRoot:
			cur, err = s.attr(cur, tt.Name)
		case hcl.TraverseIndex:
			cur, err = s.index(cur, tt.Key)
		default:
			err = s.fail(cur.typeName, "unsupported traversal %T", t)
		}

		if err != nil {
			return step{}, err
		}
	}

	return cur, nil
}

func (s *scope) attr(cur step, name string) (step, error) {
	if cur.plural {
		cur = s.element(cur.typeName)
	}

	if cur.typ == nil {
		return step{}, s.fail(cur.typeName, "%q cannot be dereferenced on basic type %s", name, cur.typeName)
	}

	attr, err := s.oracle.Attribute(cur.typ, name)
	if err != nil {
		res := &ResolutionError{Expression: s.expression, Type: cur.typ.Name, Reason: err.Error()}

		var unknown *catalog.UnknownAttributeError
		if errors.As(err, &unknown) {
			res.Suggestions = match.Suggest(name, unknown.Known, maxSuggestions)
		}

		return step{}, res
	}

	typeName := attr.Type

	if cur.atRoot && s.rootAttribute != nil {
		if override, ok := s.rootAttribute.Overrides[name]; ok {
			typeName = override
		}
	}

	return step{
		typ:      s.managed(typeName),
		typeName: typeName,
		plural:   attr.Plural(),
		kind:     attr.Kind,
		keyType:  attr.KeyType,
		join:     cur.join,
	}, nil
}

// element moves from a plural step to one of its elements.
func (s *scope) element(typeName string) step {
	return step{typ: s.managed(typeName), typeName: typeName, join: true}
}

func (s *scope) index(cur step, key cty.Value) (step, error) {
	if !cur.plural {
		return step{}, s.fail(cur.typeName, "index access on singular type %s", cur.typeName)
	}

	if cur.kind != catalog.AttrMap && key.IsKnown() && !key.IsNull() && !key.Type().Equals(cty.Number) {
		return step{}, s.fail(cur.typeName, "%s index must be a number", cur.kind)
	}

	return s.element(cur.typeName), nil
}

func (s *scope) call(ex *hclsyntax.FunctionCallExpr) ([]step, error) {
	name := strings.ToUpper(ex.Name)

	args := make([][]step, 0, len(ex.Args))
	for _, a := range ex.Args {
		steps, err := s.resolve(a)
		if err != nil {
			return nil, err
		}

		args = append(args, steps)
	}

	unary := func() ([]step, error) {
		if len(args) != 1 {
			return nil, s.fail(s.root.Name, "%s expects exactly one argument, got %d", name, len(args))
		}

		return args[0], nil
	}

	switch name {
	case "KEY", "VALUE", "INDEX":
		arg, err := unary()
		if err != nil {
			return nil, err
		}

		out := make([]step, 0, len(arg))
		for _, st := range arg {
			next, err := s.collectionFunc(name, st)
			if err != nil {
				return nil, err
			}

			out = append(out, next)
		}

		return out, nil

	case "SIZE", "COUNT":
		if _, err := unary(); err != nil {
			return nil, err
		}

		return []step{basic("int64")}, nil

	case "TYPE":
		if _, err := unary(); err != nil {
			return nil, err
		}

		return []step{basic("string")}, nil

	case "ABS":
		arg, err := unary()
		if err != nil {
			return nil, err
		}

		return singularOnly(arg), nil

	case "COALESCE":
		var out []step
		for _, a := range args {
			out = append(out, a...)
		}

		return out, nil

	case "UPPER", "LOWER", "TRIM", "CONCAT", "SUBSTRING":
		return []step{basic("string")}, nil

	default:
		return nil, s.fail(s.root.Name, "unknown function %s", ex.Name)
	}
}

func (s *scope) collectionFunc(name string, st step) (step, error) {
	if !st.plural {
		return step{}, s.fail(st.typeName, "%s requires a plural argument", name)
	}

	switch name {
	case "KEY":
		switch {
		case st.kind == catalog.AttrMap:
			return s.element(st.keyType), nil
		case st.kind == catalog.AttrList:
			return step{typeName: "int", join: true}, nil
		default:
			return step{}, s.fail(st.typeName, "KEY requires a map or list, got %s", st.kind)
		}
	case "INDEX":
		if st.kind != catalog.AttrList {
			return step{}, s.fail(st.typeName, "INDEX requires a list, got %s", st.kind)
		}

		return step{typeName: "int", join: true}, nil
	default:
		return s.element(st.typeName), nil
	}
}
