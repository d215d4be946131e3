package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petsYAML = `
types:
  - name: Animal
    abstract: true
    id: id
    version: version
    attributes:
      id: int64
      version: int64
      name: string
      owner: {kind: to_one, type: Person}
  - name: Cat
    super: Animal
    entity_name: Kitty
    attributes:
      lives: int
      kittens: {kind: set, type: Cat, mapped_by: mother}
      mother: {kind: to_one, type: Cat}
  - name: Person
    id: id
    attributes:
      - name: id
        type: int64
      - name: address
        kind: embedded
        type: Address
        overrides:
          country: Country
      - name: nicknames
        kind: map
        key_type: string
        type: string
      - name: secret
        type: string
        exported: false
        package: model
  - name: Address
    kind: embeddable
    attributes:
      street: string
      country: string
  - name: Country
    id: code
    attributes:
      code: string
`

const petsHCL = `
type "Animal" {
  abstract = true
  id       = "id"
  version  = "version"

  attribute "id" { type = "int64" }
  attribute "version" { type = "int64" }
  attribute "name" { type = "string" }
  attribute "owner" {
    kind = "to_one"
    type = "Person"
  }
}

type "Cat" {
  super       = "Animal"
  entity_name = "Kitty"

  attribute "lives" { type = "int" }
  attribute "kittens" {
    kind      = "set"
    type      = "Cat"
    mapped_by = "mother"
  }
  attribute "mother" {
    kind = "to_one"
    type = "Cat"
  }
}

type "Person" {
  id = "id"

  attribute "id" { type = "int64" }
  attribute "address" {
    kind      = "embedded"
    type      = "Address"
    overrides = { country = "Country" }
  }
  attribute "nicknames" {
    kind     = "map"
    key_type = "string"
    type     = "string"
  }
  attribute "secret" {
    type     = "string"
    exported = false
    package  = "model"
  }
}

type "Address" {
  kind = "embeddable"

  attribute "street" { type = "string" }
  attribute "country" { type = "string" }
}

type "Country" {
  id = "code"

  attribute "code" { type = "string" }
}
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(petsYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Address", "Animal", "Cat", "Country", "Person"}, c.Names())

	cat, ok := c.ManagedType("Cat")
	require.True(t, ok)
	assert.Equal(t, "Animal", cat.Super)
	assert.Equal(t, "Kitty", cat.EntityName)
	assert.True(t, cat.Identifiable())

	kittens := cat.Attributes["kittens"]
	require.NotNil(t, kittens)
	assert.Equal(t, AttrSet, kittens.Kind)
	assert.True(t, kittens.Plural())
	assert.Equal(t, "mother", kittens.MappedBy)
	assert.True(t, kittens.Accessor.Exported)

	person, _ := c.ManagedType("Person")
	assert.Equal(t, "Country", person.Attributes["address"].Overrides["country"])
	assert.False(t, person.Attributes["secret"].Accessor.Exported)
	assert.Equal(t, "model", person.Attributes["secret"].Accessor.Package)

	addr, _ := c.ManagedType("Address")
	assert.False(t, addr.Identifiable())
	assert.Equal(t, "Address", addr.EntityName)
}

func TestParseHCL_MatchesYAML(t *testing.T) {
	fromYAML, err := Parse([]byte(petsYAML))
	require.NoError(t, err)

	fromHCL, err := ParseHCL([]byte(petsHCL), "pets.hcl")
	require.NoError(t, err)

	require.Equal(t, fromYAML.Names(), fromHCL.Names())

	for _, name := range fromYAML.Names() {
		a, _ := fromYAML.ManagedType(name)
		b, _ := fromHCL.ManagedType(name)
		assert.Equal(t, a, b, name)
	}
}

func TestCatalog_Attribute(t *testing.T) {
	c, err := Parse([]byte(petsYAML))
	require.NoError(t, err)

	cat, _ := c.ManagedType("Cat")

	attr, err := c.Attribute(cat, "name")
	require.NoError(t, err)
	assert.Equal(t, "string", attr.Type, "inherited from Animal")

	attr, err = c.Attribute(cat, "owner.address.street")
	require.NoError(t, err)
	assert.Equal(t, "street", attr.Name)

	_, err = c.Attribute(cat, "owner.nmae")

	var unknown *UnknownAttributeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Person", unknown.Type)
	assert.Contains(t, unknown.Known, "nicknames")

	_, err = c.Attribute(cat, "name.length")
	require.Error(t, err)
}

func TestCatalog_EntityAndSubtypes(t *testing.T) {
	c, err := Parse([]byte(petsYAML))
	require.NoError(t, err)

	e, ok := c.Entity("Cat")
	require.True(t, ok)
	assert.Equal(t, "Kitty", e.Name)

	_, ok = c.Entity("Address")
	assert.False(t, ok)

	assert.True(t, IsSubtype(c, "Cat", "Animal"))
	assert.True(t, IsSubtype(c, "Cat", "Cat"))
	assert.False(t, IsProperSubtype(c, "Cat", "Cat"))
	assert.False(t, IsSubtype(c, "Animal", "Cat"))
	assert.Equal(t, []string{"Cat"}, c.Subtypes("Animal"))
}

func TestCatalog_Validate(t *testing.T) {
	_, err := Parse([]byte(`
types:
  - name: A
    super: Missing
    id: nope
    attributes:
      b: {kind: to_one, type: Ghost}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type \"Missing\"")
	assert.Contains(t, err.Error(), "missing attribute \"nope\"")
	assert.Contains(t, err.Error(), "unknown type \"Ghost\"")

	_, err = Parse([]byte(`
types:
  - name: A
    attributes:
      x: {kind: wrong, type: string}
`))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "pets.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(petsYAML), 0o644))

	hclPath := filepath.Join(dir, "pets.hcl")
	require.NoError(t, os.WriteFile(hclPath, []byte(petsHCL), 0o644))

	fromYAML, err := LoadFile(yamlPath)
	require.NoError(t, err)

	fromHCL, err := LoadFile(hclPath)
	require.NoError(t, err)

	assert.Equal(t, fromYAML.Names(), fromHCL.Names())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestCatalog_MergeRejectsDuplicates(t *testing.T) {
	a := New()
	require.NoError(t, a.Add(&ManagedType{Name: "A"}))

	b := New()
	require.NoError(t, b.Add(&ManagedType{Name: "A"}))
	require.NoError(t, b.Add(&ManagedType{Name: "B"}))

	err := a.Merge(b)
	require.Error(t, err)
	assert.Equal(t, []string{"A", "B"}, a.Names())
}
