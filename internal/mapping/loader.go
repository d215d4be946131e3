package mapping

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a YAML view file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read view file %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return f, nil
}

// Parse parses YAML data into a File. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse view YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in the version and qualifies view names.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	local := make(map[string]bool, len(f.Views))
	for _, v := range f.Views {
		local[v.Name] = true
	}

	for i := range f.Views {
		v := &f.Views[i]
		v.Name = f.qualify(v.Name)
		v.Extends = f.qualifyAll(v.Extends)

		if !v.Inheritance.Contains(inheritanceAuto) {
			v.Inheritance = f.qualifyAll(v.Inheritance)
		}

		for j := range v.Attributes {
			f.qualifyAttribute(&v.Attributes[j], local)
		}

		for j := range v.Constructors {
			for k := range v.Constructors[j].Parameters {
				f.qualifyAttribute(&v.Constructors[j].Parameters[k], local)
			}
		}
	}
}

const inheritanceAuto = "auto"

// qualifyAttribute qualifies subtype names and the types naming views of
// the same file.
func (f *File) qualifyAttribute(a *AttributeDecl, local map[string]bool) {
	if local[a.Type] {
		a.Type = f.qualify(a.Type)
	}

	if local[a.KeyType] {
		a.KeyType = f.qualify(a.KeyType)
	}

	if a.Update != nil {
		a.Update.Subtypes = f.qualifyAll(a.Update.Subtypes)
		a.Update.PersistSubtypes = f.qualifyAll(a.Update.PersistSubtypes)
		a.Update.UpdateSubtypes = f.qualifyAll(a.Update.UpdateSubtypes)
	}

	if a.Subtypes != nil {
		a.Subtypes.Type = f.qualifySet(a.Subtypes.Type)
		a.Subtypes.Key = f.qualifySet(a.Subtypes.Key)
		a.Subtypes.Element = f.qualifySet(a.Subtypes.Element)
	}
}

// qualify prefixes a name without a package with the file package.
func (f *File) qualify(name string) string {
	if f.Package == "" || name == "" || strings.Contains(name, ".") {
		return name
	}

	return f.Package + "." + name
}

func (f *File) qualifyAll(names StringOrArray) StringOrArray {
	if names == nil {
		return nil
	}

	out := make(StringOrArray, 0, len(names))
	for _, n := range names {
		out = append(out, f.qualify(n))
	}

	return out
}

func (f *File) qualifySet(s SubtypeSet) SubtypeSet {
	if s == nil {
		return nil
	}

	out := make(SubtypeSet, len(s))
	for name, d := range s {
		out[f.qualify(name)] = d
	}

	return out
}
