package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personYAML = `
package: views
views:
  - name: PersonView
    entity: Person
    updatable: {mode: full, strategy: query}
    creatable: {validate: false, exclude: age}
    lock: optimistic
    lock-owner: owner
    inheritance: [PersonDetailView]
    batch-size: 10
    filters:
      - {name: byName, provider: NameFilter}
    lifecycle:
      post-create: Init
      post-commit: {method: Committed, transitions: [persist, update]}
    attributes:
      - name: id
        id: true
        type: int64
      - name: name
        mapping: UPPER(name)
        type: string
        setter: true
      - name: cats
        type: CatView
        container: set
        hints: sorted
        update:
          cascade: [persist, update]
          subtypes: CatView
      - name: scores
        type: int
        container: map
        key-type: string
      - name: friend
        type: PersonView
        subtypes:
          type: {PersonDetailView: "name != ''"}
        inverse: {mapped-by: friend, remove: set_null}
  - name: PersonDetailView
    entity: Person
    extends: PersonView
    inheritance-mapping: "age > 18"
    attributes:
      - {name: age, type: int}
  - name: CatView
    entity: Cat
    concrete: true
    constructors:
      - name: init
        parameters:
          - {name: id, id: true, type: int64}
          - {name: owner, type: PersonView}
      - name: named
        parameters:
          - {name: name, type: string, parameter: catName}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(personYAML))
	require.NoError(t, err)

	assert.Equal(t, "1", f.Version)
	require.Len(t, f.Views, 3)

	person := f.Views[0]
	assert.Equal(t, "views.PersonView", person.Name)
	assert.Equal(t, StringOrArray{"views.PersonDetailView"}, person.Inheritance)
	assert.Equal(t, StringOrArray{"age"}, person.Creatable.Exclude)
	assert.Equal(t, LifecycleDecl{Method: "Init"}, person.Lifecycle["post-create"])
	assert.Equal(t, LifecycleDecl{Method: "Committed", Transitions: StringOrArray{"persist", "update"}},
		person.Lifecycle["post-commit"])

	cats := person.Attributes[2]
	assert.Equal(t, "views.CatView", cats.Type)
	assert.Equal(t, StringOrArray{"sorted"}, cats.Hints)
	assert.Equal(t, StringOrArray{"views.CatView"}, cats.Update.Subtypes)

	scores := person.Attributes[3]
	assert.Equal(t, "int", scores.Type)
	assert.Equal(t, "string", scores.KeyType)

	friend := person.Attributes[4]
	discriminator := "name != ''"
	assert.Equal(t, SubtypeSet{"views.PersonDetailView": &discriminator}, friend.Subtypes.Type)

	detail := f.Views[1]
	assert.Equal(t, StringOrArray{"views.PersonView"}, detail.Extends)
	require.NotNil(t, detail.InheritanceMapping)
	assert.Equal(t, "age > 18", *detail.InheritanceMapping)

	cat := f.Views[2]
	assert.True(t, cat.Concrete)
	assert.Equal(t, "views.PersonView", cat.Constructors[0].Parameters[1].Type)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown key",
			yaml: "views:\n  - name: A\n    entiy: Person\n",
			want: "field entiy not found",
		},
		{
			name: "bad list",
			yaml: "views:\n  - name: A\n    extends: {a: b}\n",
			want: "expected string or list, got mapping",
		},
		{
			name: "bad subtype set",
			yaml: "views:\n  - name: A\n    attributes:\n      - name: a\n        subtypes:\n          type: [[x]]\n",
			want: "cannot unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_SubtypeForms(t *testing.T) {
	f, err := Parse([]byte(`
views:
  - name: a.AView
    attributes:
      - name: one
        type: a.B
        subtypes: {type: a.C}
      - name: list
        type: a.B
        subtypes: {element: [a.C, a.D]}
`))
	require.NoError(t, err)

	attrs := f.Views[0].Attributes
	assert.Equal(t, SubtypeSet{"a.C": nil}, attrs[0].Subtypes.Type)
	assert.Equal(t, SubtypeSet{"a.C": nil, "a.D": nil}, attrs[1].Subtypes.Element)
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "1", f.Version)
	assert.Empty(t, f.Views)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "views.yaml")
	require.NoError(t, os.WriteFile(path, []byte(personYAML), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Views, 3)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read view file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("views: 3"), 0o600))

	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestStringOrArray(t *testing.T) {
	assert.Equal(t, "a", StringOrArray{"a", "b"}.First())
	assert.Empty(t, StringOrArray{}.First())
	assert.True(t, StringOrArray{"a", "b"}.Contains("b"))

	single, err := StringOrArray{"a"}.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "a", single)

	many, err := StringOrArray{"a", "b"}.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, many)
}
