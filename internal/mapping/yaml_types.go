package mapping

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"viewmeta/internal/common"
)

// UnmarshalYAML accepts either a single string or a list of strings.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}

		*s = StringOrArray{}
		if str != "" {
			*s = StringOrArray{str}
		}

		return nil
	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}

		*s = arr

		return nil
	default:
		return fmt.Errorf("line %d: expected string or list, got %s", node.Line, kindName(node.Kind))
	}
}

// MarshalYAML writes a single element as a plain string.
func (s StringOrArray) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}

// First returns the first element or the empty string.
func (s StringOrArray) First() string {
	v, _ := common.First(s)
	return v
}

// Contains reports whether str is an element.
func (s StringOrArray) Contains(str string) bool {
	return slices.Contains(s, str)
}

// UnmarshalYAML accepts a method name or a mapping with method and
// transitions.
func (l *LifecycleDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&l.Method)
	}

	type plain LifecycleDecl

	return node.Decode((*plain)(l))
}

// UnmarshalYAML accepts a list of subtype names or a mapping from subtype
// name to discriminator. A null discriminator is inferred from the entity
// type.
func (s *SubtypeSet) UnmarshalYAML(node *yaml.Node) error {
	out := SubtypeSet{}

	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}

		out[name] = nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}

		for _, name := range names {
			out[name] = nil
		}
	case yaml.MappingNode:
		var m map[string]*string
		if err := node.Decode(&m); err != nil {
			return err
		}

		out = m
	default:
		return fmt.Errorf("line %d: expected subtype list or map, got %s", node.Line, kindName(node.Kind))
	}

	*s = out

	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return common.UnknownStr
	}
}
