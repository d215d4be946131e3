package metamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		mapping   MappingKind
		container Container
		want      AttributeKind
	}{
		{MappingImplicit, ContainerNone, KindSingular},
		{MappingExpression, ContainerList, KindList},
		{MappingExpression, ContainerSortedSet, KindSet},
		{MappingImplicit, ContainerSortedMap, KindMap},
		{MappingImplicit, ContainerCollection, KindCollection},
		{MappingCorrelatedSimple, ContainerNone, KindCorrelatedSingular},
		{MappingCorrelated, ContainerSet, KindCorrelatedSet},
		{MappingCorrelated, ContainerList, KindCorrelatedList},
		{MappingCorrelated, ContainerCollection, KindCorrelatedCollection},
		{MappingSubquery, ContainerList, KindSubquery},
		{MappingParameter, ContainerNone, KindParameter},
		{MappingID, ContainerNone, KindSingular},
	}

	for _, test := range tests {
		t.Run(test.mapping.String()+"/"+test.container.String(), func(t *testing.T) {
			assert.Equal(t, test.want, kindOf(test.mapping, test.container))
		})
	}
}

func TestAttributeKind(t *testing.T) {
	assert.True(t, KindCorrelatedSet.IsPlural())
	assert.True(t, KindCorrelatedSet.IsCorrelated())
	assert.False(t, KindSubquery.IsPlural())
	assert.False(t, KindSubquery.IsCorrelated())
	assert.False(t, KindParameter.IsCorrelated())
	assert.Equal(t, "correlated_list", KindCorrelatedList.String())
}

func TestMappingKind(t *testing.T) {
	assert.True(t, MappingID.Outranks(MappingParameter))
	assert.True(t, MappingExpression.Outranks(MappingImplicit))
	assert.False(t, MappingImplicit.Outranks(MappingImplicit))

	assert.True(t, MappingID.HasPath())
	assert.False(t, MappingSubquery.HasPath())

	k, err := ParseMappingKind("Correlated-Simple")
	require.NoError(t, err)
	assert.Equal(t, MappingCorrelatedSimple, k)

	_, err = ParseMappingKind("magic")
	require.EqualError(t, err, `unknown mapping kind "magic"`)
}

func TestParseEnums(t *testing.T) {
	c, err := ParseContainer("")
	require.NoError(t, err)
	assert.Equal(t, ContainerNone, c)

	c, err = ParseContainer("sorted_map")
	require.NoError(t, err)
	assert.True(t, c.IsMap())
	assert.True(t, c.Sorted())

	lock, err := ParseLockMode("OPTIMISTIC")
	require.NoError(t, err)
	assert.Equal(t, LockOptimistic, lock)

	mode, err := ParseFlushMode("")
	require.NoError(t, err)
	assert.Equal(t, FlushModeUnset, mode)

	strategy, err := ParseFlushStrategy("query")
	require.NoError(t, err)
	assert.Equal(t, FlushStrategyQuery, strategy)

	cascade, err := ParseCascadeType("persist")
	require.NoError(t, err)
	assert.Equal(t, CascadePersist, cascade)

	remove, err := ParseInverseRemoveStrategy("set_null")
	require.NoError(t, err)
	assert.Equal(t, RemoveSetNull, remove)

	kind, err := ParseLifecycleKind("post-commit")
	require.NoError(t, err)
	assert.True(t, kind.HasTransitions())
	assert.False(t, PostCreate.HasTransitions())
	assert.Len(t, LifecycleKinds, 11)

	_, err = ParseLockMode("pessimistic")
	require.Error(t, err)
}

func TestParseTransitions(t *testing.T) {
	all, err := ParseTransitions(nil)
	require.NoError(t, err)
	assert.Equal(t, AllTransitions, all)

	got, err := ParseTransitions([]string{"update", "Remove"})
	require.NoError(t, err)
	assert.Equal(t, []Transition{TransitionUpdate, TransitionRemove}, got)

	_, err = ParseTransitions([]string{"flush"})
	require.EqualError(t, err, `unknown transition "flush"`)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "finished", StateFinished.String())
	assert.Equal(t, "explicit", InheritanceExplicit.String())
	assert.Equal(t, "set_null", RemoveSetNull.String())
	assert.Equal(t, "unknown", NodeState(99).String())
}
