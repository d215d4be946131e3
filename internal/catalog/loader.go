package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileSchema is the on-disk catalog layout shared by YAML and HCL.
type fileSchema struct {
	Types []typeSchema `yaml:"types"`
}

type typeSchema struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind,omitempty"`
	EntityName string        `yaml:"entity_name,omitempty"`
	Super      string        `yaml:"super,omitempty"`
	Abstract   bool          `yaml:"abstract,omitempty"`
	ID         string        `yaml:"id,omitempty"`
	Version    string        `yaml:"version,omitempty"`
	Attributes attributeList `yaml:"attributes,omitempty"`
}

type attributeSchema struct {
	Name      string            `yaml:"name,omitempty" hcl:"name,label"`
	Kind      string            `yaml:"kind,omitempty" hcl:"kind,optional"`
	Type      string            `yaml:"type" hcl:"type"`
	KeyType   string            `yaml:"key_type,omitempty" hcl:"key_type,optional"`
	Indexed   bool              `yaml:"indexed,omitempty" hcl:"indexed,optional"`
	MappedBy  string            `yaml:"mapped_by,omitempty" hcl:"mapped_by,optional"`
	Overrides map[string]string `yaml:"overrides,omitempty" hcl:"overrides,optional"`
	Exported  *bool             `yaml:"exported,omitempty" hcl:"exported,optional"`
	Package   string            `yaml:"package,omitempty" hcl:"package,optional"`
}

type attributeList []attributeSchema

// UnmarshalYAML accepts either a sequence of attribute objects or a mapping
// from attribute name to a type name or attribute object.
func (l *attributeList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []attributeSchema
		if err := node.Decode(&items); err != nil {
			return err
		}

		*l = items

		return nil

	case yaml.MappingNode:
		items := make([]attributeSchema, 0, len(node.Content)/2)

		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]

			var attr attributeSchema

			switch value.Kind {
			case yaml.ScalarNode:
				attr.Type = value.Value
			case yaml.MappingNode:
				if err := value.Decode(&attr); err != nil {
					return err
				}
			default:
				return fmt.Errorf("line %d: attribute %q must be a type name or an object", value.Line, key.Value)
			}

			attr.Name = key.Value
			items = append(items, attr)
		}

		*l = items

		return nil

	default:
		return fmt.Errorf("line %d: expected attribute list or mapping", node.Line)
	}
}

// LoadFile loads a catalog file. Files ending in .hcl are read as HCL,
// everything else as YAML.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return ParseHCL(data, path)
	}

	return Parse(data)
}

// Parse parses YAML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var fs fileSchema
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	return fs.build()
}

func (fs *fileSchema) build() (*Catalog, error) {
	c := New()

	for _, ts := range fs.Types {
		mt, err := ts.managedType()
		if err != nil {
			return nil, err
		}

		if err := c.Add(mt); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	return c, nil
}

func (ts *typeSchema) managedType() (*ManagedType, error) {
	kind, err := ParseKind(ts.Kind)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", ts.Name, err)
	}

	mt := &ManagedType{
		Name:       ts.Name,
		Kind:       kind,
		EntityName: ts.EntityName,
		Super:      ts.Super,
		Abstract:   ts.Abstract,
		ID:         ts.ID,
		Version:    ts.Version,
		Attributes: make(map[string]*Attribute, len(ts.Attributes)),
	}

	for _, as := range ts.Attributes {
		if as.Name == "" {
			return nil, fmt.Errorf("type %q: attribute without name", ts.Name)
		}

		if _, dup := mt.Attributes[as.Name]; dup {
			return nil, fmt.Errorf("type %q: duplicate attribute %q", ts.Name, as.Name)
		}

		attrKind, err := ParseAttributeKind(as.Kind)
		if err != nil {
			return nil, fmt.Errorf("type %q attribute %q: %w", ts.Name, as.Name, err)
		}

		exported := as.Exported == nil || *as.Exported

		mt.Attributes[as.Name] = &Attribute{
			Name:      as.Name,
			Kind:      attrKind,
			Type:      as.Type,
			KeyType:   as.KeyType,
			Indexed:   as.Indexed,
			MappedBy:  as.MappedBy,
			Overrides: as.Overrides,
			Accessor:  Accessor{Exported: exported, Package: as.Package},
		}
	}

	return mt, nil
}
