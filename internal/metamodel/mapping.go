package metamodel

import (
	"fmt"
	"strings"

	"viewmeta/internal/expr"
)

// Mapping is the raw mapping declaration of an attribute. It is a
// comparable value.
type Mapping struct {
	Kind MappingKind
	// Expression is the path or expression of implicit, expression and id
	// mappings, and the parameter name of parameter mappings.
	Expression  string
	Subquery    Subquery
	Correlation Correlation
}

// Subquery describes a subquery mapping.
type Subquery struct {
	Provider   string
	Expression string
	Alias      string
}

// Correlation describes a correlated mapping.
type Correlation struct {
	// Provider names the correlation provider of correlated mappings.
	Provider string
	// Entity is the correlated entity of simple correlations.
	Entity     string
	Basis      string
	Expression string
	// Result is the path selected from the correlated entity.
	Result string
}

// ImplicitMapping maps an attribute by its own name.
func ImplicitMapping(name string) Mapping {
	return Mapping{Kind: MappingImplicit, Expression: name}
}

// ExpressionMapping is an explicit path or expression mapping.
func ExpressionMapping(expression string) Mapping {
	return Mapping{Kind: MappingExpression, Expression: expression}
}

// IDMapping marks the identifier attribute.
func IDMapping(expression string) Mapping {
	return Mapping{Kind: MappingID, Expression: expression}
}

// IsExplicit reports whether the mapping was declared rather than derived
// from the attribute name.
func (m Mapping) IsExplicit() bool {
	return m.Kind != MappingImplicit
}

// Path returns the expression without a leading "this." root.
func (m Mapping) Path() string {
	if m.Expression == expr.ThisRoot {
		return ""
	}

	return strings.TrimPrefix(m.Expression, expr.ThisRoot+".")
}

func (m Mapping) String() string {
	switch m.Kind {
	case MappingSubquery:
		return fmt.Sprintf("subquery[%s]", m.Subquery.Provider)
	case MappingCorrelated:
		return fmt.Sprintf("correlated[%s](%s)", m.Correlation.Provider, m.Correlation.Basis)
	case MappingCorrelatedSimple:
		return fmt.Sprintf("correlated[%s](%s)", m.Correlation.Entity, m.Correlation.Basis)
	case MappingParameter:
		return ":" + m.Expression
	default:
		return m.Expression
	}
}
