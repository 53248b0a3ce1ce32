package crdt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horao-project/horao/pkg/clock"
	"github.com/horao-project/horao/pkg/crdt"
)

func sharedClock(t *testing.T) *clock.Scalar {
	t.Helper()
	return clock.NewScalar()
}

func TestObservedRemovedSetObserveAndRead(t *testing.T) {
	c := sharedClock(t)
	s := crdt.NewObservedRemovedSet(c)

	_, err := s.Observe("cabinet-1")
	require.NoError(t, err)

	assert.True(t, s.Contains("cabinet-1"))
	assert.False(t, s.Contains("cabinet-2"))
}

func TestObservedRemovedSetRemoveWins(t *testing.T) {
	c := sharedClock(t)
	s := crdt.NewObservedRemovedSet(c)

	_, err := s.Observe("cabinet-1")
	require.NoError(t, err)
	_, err = s.Remove("cabinet-1")
	require.NoError(t, err)

	assert.False(t, s.Contains("cabinet-1"))
}

func TestObservedRemovedSetIdempotent(t *testing.T) {
	c := sharedClock(t)
	s := crdt.NewObservedRemovedSet(c)

	u, err := s.Observe("a")
	require.NoError(t, err)

	before := s.Contains("a")
	require.NoError(t, s.Apply(u))
	require.NoError(t, s.Apply(u))
	assert.Equal(t, before, s.Contains("a"))
}

func TestObservedRemovedSetConverges(t *testing.T) {
	id := clock.NewScalar().ID()
	c1 := clock.NewScalarWithID(id, 1)
	c2 := clock.NewScalarWithID(id, 1)

	s1 := crdt.NewObservedRemovedSet(c1)
	s2 := crdt.NewObservedRemovedSet(c2)

	u1, err := s1.Observe("node-a")
	require.NoError(t, err)
	u2, err := s2.Observe("node-b")
	require.NoError(t, err)

	require.NoError(t, s1.Apply(u2))
	require.NoError(t, s2.Apply(u1))

	assert.Equal(t, s1.Read(), s2.Read())
}

func TestObservedRemovedSetRejectsForeignClock(t *testing.T) {
	s := crdt.NewObservedRemovedSet(clock.NewScalar())
	other := crdt.NewObservedRemovedSet(clock.NewScalar())

	u, err := other.Observe("x")
	require.NoError(t, err)

	err = s.Apply(u)
	assert.Error(t, err)
}

func TestObservedRemovedSetMerkleHistoryDetectsDivergence(t *testing.T) {
	id := clock.NewScalar().ID()
	s1 := crdt.NewObservedRemovedSet(clock.NewScalarWithID(id, 1))
	s2 := crdt.NewObservedRemovedSet(clock.NewScalarWithID(id, 1))

	_, err := s1.Observe("only-on-one")
	require.NoError(t, err)

	t1, err := s1.MerkleHistory()
	require.NoError(t, err)
	t2, err := s2.MerkleHistory()
	require.NoError(t, err)

	assert.NotEqual(t, t1.Root, t2.Root)
	missing := crdt.Diff(t2, t1)
	assert.Len(t, missing, 1)
}

func TestObservedRemovedSetMerkleHistoryMatchesWhenEqual(t *testing.T) {
	id := clock.NewScalar().ID()
	s1 := crdt.NewObservedRemovedSet(clock.NewScalarWithID(id, 1))
	s2 := crdt.NewObservedRemovedSet(clock.NewScalarWithID(id, 1))

	u, err := s1.Observe("shared")
	require.NoError(t, err)
	require.NoError(t, s2.Apply(u))

	t1, err := s1.MerkleHistory()
	require.NoError(t, err)
	t2, err := s2.MerkleHistory()
	require.NoError(t, err)

	assert.Equal(t, t1.Root, t2.Root)
	assert.Empty(t, crdt.Diff(t1, t2))
}

func TestObservedRemovedSetListenerInvoked(t *testing.T) {
	c := sharedClock(t)
	s := crdt.NewObservedRemovedSet(c)

	var seen []crdt.Update
	s.AddListener(func(u crdt.Update) { seen = append(seen, u) })

	_, err := s.Observe("x")
	require.NoError(t, err)
	_, err = s.Remove("x")
	require.NoError(t, err)

	assert.Len(t, seen, 2)
}
