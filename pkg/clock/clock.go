// Package clock implements the logical scalar clock used to order CRDT
// updates across horao replicas.
package clock

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Scalar is a Lamport-style logical clock. Every replica owns exactly one
// Scalar, identified by a stable UUID, and advances its counter whenever it
// observes a timestamp from elsewhere that is not already behind it.
type Scalar struct {
	counter uint32
	id      uuid.UUID
}

// NewScalar creates a clock for a fresh replica, starting its counter at 1
// as the original implementation does (0 is reserved as the default/unset
// timestamp).
func NewScalar() *Scalar {
	return &Scalar{counter: 1, id: uuid.New()}
}

// NewScalarWithID creates a clock for a replica with a known identity, used
// when restoring a clock from storage.
func NewScalarWithID(id uuid.UUID, counter uint32) *Scalar {
	return &Scalar{counter: counter, id: id}
}

// ID returns the replica identity this clock belongs to.
func (s *Scalar) ID() uuid.UUID {
	return s.id
}

// Read returns the current timestamp.
func (s *Scalar) Read() uint32 {
	return s.counter
}

// Update advances the clock so that it is later than data, and returns the
// new current timestamp. It is a no-op (other than the read) when data is
// already behind the clock.
func (s *Scalar) Update(data uint32) uint32 {
	if data >= s.counter {
		s.counter = data + 1
	}
	return s.counter
}

// IsLater reports whether timestamp is strictly later than other.
func IsLater(timestamp, other uint32) bool {
	return timestamp > other
}

// AreConcurrent reports whether neither timestamp is later than the other.
func AreConcurrent(timestamp, other uint32) bool {
	return !IsLater(timestamp, other) && !IsLater(other, timestamp)
}

// Compare returns 1 if timestamp is later than other, -1 if other is later
// than timestamp, and 0 if they are concurrent.
func Compare(timestamp, other uint32) int {
	switch {
	case timestamp > other:
		return 1
	case other > timestamp:
		return -1
	default:
		return 0
	}
}

// Pack encodes the clock as counter||uuid, matching the original
// implementation's wire layout so packed updates stay comparable across
// replicas regardless of language.
func (s *Scalar) Pack() []byte {
	buf := make([]byte, 4+len(s.id))
	binary.BigEndian.PutUint32(buf[:4], s.counter)
	copy(buf[4:], s.id[:])
	return buf
}

// UnpackScalar decodes a clock packed by Pack.
func UnpackScalar(data []byte) (*Scalar, error) {
	if len(data) != 4+len(uuid.UUID{}) {
		return nil, fmt.Errorf("clock: unpack: want %d bytes, got %d", 4+len(uuid.UUID{}), len(data))
	}
	counter := binary.BigEndian.Uint32(data[:4])
	id, err := uuid.FromBytes(data[4:])
	if err != nil {
		return nil, fmt.Errorf("clock: unpack: %w", err)
	}
	return &Scalar{counter: counter, id: id}, nil
}

func (s *Scalar) String() string {
	return fmt.Sprintf("Scalar(counter=%d, id=%s)", s.counter, s.id)
}
