package catalog

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

type hclFile struct {
	Types []*hclType `hcl:"type,block"`
}

type hclType struct {
	Name       string             `hcl:"name,label"`
	Kind       string             `hcl:"kind,optional"`
	EntityName string             `hcl:"entity_name,optional"`
	Super      string             `hcl:"super,optional"`
	Abstract   bool               `hcl:"abstract,optional"`
	ID         string             `hcl:"id,optional"`
	Version    string             `hcl:"version,optional"`
	Attributes []*attributeSchema `hcl:"attribute,block"`
}

// ParseHCL parses an HCL catalog:
//
//	type "Person" {
//	  id      = "id"
//	  version = "version"
//
//	  attribute "id" { type = "int64" }
//	  attribute "friends" {
//	    kind = "set"
//	    type = "Person"
//	  }
//	}
func ParseHCL(data []byte, filename string) (*Catalog, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL catalog %s: %w", filename, diags)
	}

	var hf hclFile

	diags = gohcl.DecodeBody(file.Body, nil, &hf)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL catalog %s: %w", filename, diags)
	}

	fs := fileSchema{Types: make([]typeSchema, 0, len(hf.Types))}

	for _, ht := range hf.Types {
		ts := typeSchema{
			Name:       ht.Name,
			Kind:       ht.Kind,
			EntityName: ht.EntityName,
			Super:      ht.Super,
			Abstract:   ht.Abstract,
			ID:         ht.ID,
			Version:    ht.Version,
		}

		for _, attr := range ht.Attributes {
			ts.Attributes = append(ts.Attributes, *attr)
		}

		fs.Types = append(fs.Types, ts)
	}

	return fs.build()
}
