package crdt_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horao-project/horao/pkg/clock"
	"github.com/horao-project/horao/pkg/crdt"
)

func TestLastWriterWinsRegisterLaterWriteWins(t *testing.T) {
	c := clock.NewScalar()
	r := crdt.NewLastWriterWinsRegister("state", c)

	_, err := r.Write(json.RawMessage(`"maintenance"`), "replica-a")
	require.NoError(t, err)
	_, err = r.Write(json.RawMessage(`"reserved"`), "replica-a")
	require.NoError(t, err)

	assert.JSONEq(t, `"reserved"`, string(r.Read()))
}

func TestLastWriterWinsRegisterConcurrentTieBreakByWriter(t *testing.T) {
	id := clock.NewScalar().ID()
	c1 := clock.NewScalarWithID(id, 5)
	c2 := clock.NewScalarWithID(id, 5)

	r1 := crdt.NewLastWriterWinsRegister("state", c1)
	r2 := crdt.NewLastWriterWinsRegister("state", c2)

	u1, err := r1.Write(json.RawMessage(`"a"`), "replica-a")
	require.NoError(t, err)
	u2, err := r2.Write(json.RawMessage(`"b"`), "replica-z")
	require.NoError(t, err)

	require.NoError(t, r1.Apply(u2))
	require.NoError(t, r2.Apply(u1))

	assert.Equal(t, r1.Read(), r2.Read())
	assert.JSONEq(t, `"b"`, string(r1.Read()))
}

func TestMultiValueRegisterKeepsConcurrentValues(t *testing.T) {
	id := clock.NewScalar().ID()
	c1 := clock.NewScalarWithID(id, 5)
	c2 := clock.NewScalarWithID(id, 5)

	r1 := crdt.NewMultiValueRegister("claims", c1)
	r2 := crdt.NewMultiValueRegister("claims", c2)

	u1, err := r1.Write(json.RawMessage(`"claim-a"`))
	require.NoError(t, err)
	u2, err := r2.Write(json.RawMessage(`"claim-b"`))
	require.NoError(t, err)

	require.NoError(t, r1.Apply(u2))
	require.NoError(t, r2.Apply(u1))

	assert.Len(t, r1.Read(), 2)
	assert.Equal(t, r1.Read(), r2.Read())
}

func TestMultiValueRegisterLaterWriteSupersedes(t *testing.T) {
	c := clock.NewScalar()
	r := crdt.NewMultiValueRegister("claims", c)

	_, err := r.Write(json.RawMessage(`"claim-a"`))
	require.NoError(t, err)
	_, err = r.Write(json.RawMessage(`"claim-b"`))
	require.NoError(t, err)

	assert.Len(t, r.Read(), 1)
	assert.JSONEq(t, `"claim-b"`, string(r.Read()[0]))
}
