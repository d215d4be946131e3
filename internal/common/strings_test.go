package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerUpperFirst(t *testing.T) {
	assert.Equal(t, "name", LowerFirst("Name"))
	assert.Equal(t, "iD", LowerFirst("ID"))
	assert.Equal(t, "", LowerFirst(""))
	assert.Equal(t, "Name", UpperFirst("name"))
	assert.Equal(t, "Name", UpperFirst("Name"))
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"b": 1, "a": 2, "c": 3}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
	assert.Empty(t, SortedKeys(map[string]int{}))
}

func TestSliceHelpers(t *testing.T) {
	assert.False(t, IsSingle([]int{}))
	assert.True(t, IsSingle([]int{1}))
	assert.True(t, IsMultiple([]int{1, 2}))

	v, ok := First([]string{"x", "y"})
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = First([]string(nil))
	assert.False(t, ok)
}
