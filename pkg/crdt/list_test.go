package crdt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horao-project/horao/pkg/clock"
	"github.com/horao-project/horao/pkg/crdt"
)

func TestListAppendPreservesOrder(t *testing.T) {
	l := crdt.NewList[string](clock.NewScalar())

	_, err := l.Append("cabinet-1")
	require.NoError(t, err)
	_, err = l.Append("cabinet-2")
	require.NoError(t, err)
	_, err = l.Append("cabinet-3")
	require.NoError(t, err)

	items, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"cabinet-1", "cabinet-2", "cabinet-3"}, items)
}

func TestListRemoveAt(t *testing.T) {
	l := crdt.NewList[string](clock.NewScalar())

	_, err := l.Append("a")
	require.NoError(t, err)
	_, err = l.Append("b")
	require.NoError(t, err)
	_, err = l.RemoveAt(0)
	require.NoError(t, err)

	items, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, items)
}

// TestListConcurrentInsertsConverge reproduces two replicas of the same
// empty row each adding a cabinet before syncing — the scenario
// DESIGN.md says the list exists to serve. Both cabinets must survive
// the merge: a map keyed by integer position would collide both writes
// on key "0" and silently drop one.
func TestListConcurrentInsertsConverge(t *testing.T) {
	id := clock.NewScalar().ID()
	l1 := crdt.NewList[string](clock.NewScalarWithID(id, 1))
	l2 := crdt.NewList[string](clock.NewScalarWithID(id, 1))

	u1, err := l1.Append("from-1")
	require.NoError(t, err)
	u2, err := l2.Insert(0, "from-2")
	require.NoError(t, err)

	require.NoError(t, l1.Apply(u2))
	require.NoError(t, l2.Apply(u1))

	items1, err := l1.Read()
	require.NoError(t, err)
	items2, err := l2.Read()
	require.NoError(t, err)
	assert.Equal(t, items1, items2)
	assert.ElementsMatch(t, []string{"from-1", "from-2"}, items1)
	assert.Len(t, items1, 2)
}

func TestListReplacePreservesPosition(t *testing.T) {
	l := crdt.NewList[string](clock.NewScalar())

	_, err := l.Append("a")
	require.NoError(t, err)
	_, err = l.Append("b")
	require.NoError(t, err)
	_, err = l.Append("c")
	require.NoError(t, err)

	_, err = l.Replace(1, "b-updated")
	require.NoError(t, err)

	items, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b-updated", "c"}, items)
}

func TestListMoveRewritesIndex(t *testing.T) {
	l := crdt.NewList[string](clock.NewScalar())

	_, err := l.Append("a")
	require.NoError(t, err)
	_, err = l.Append("b")
	require.NoError(t, err)
	_, err = l.Append("c")
	require.NoError(t, err)

	_, err = l.Move(0, 2)
	require.NoError(t, err)

	items, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, items)
}

func TestListNormalizeRedistributesWithoutChangingOrder(t *testing.T) {
	l := crdt.NewList[string](clock.NewScalar())

	_, err := l.Append("a")
	require.NoError(t, err)
	_, err = l.Insert(1, "b")
	require.NoError(t, err)
	_, err = l.Insert(1, "c")
	require.NoError(t, err)

	before, err := l.Read()
	require.NoError(t, err)

	updates, err := l.Normalize(1.0)
	require.NoError(t, err)
	assert.Len(t, updates, 3)

	after, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestListChecksumChangesOnMutation(t *testing.T) {
	l := crdt.NewList[string](clock.NewScalar())

	empty, err := l.Checksum(nil, nil)
	require.NoError(t, err)

	_, err = l.Append("a")
	require.NoError(t, err)

	withItem, err := l.Checksum(nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, empty, withItem)
}
