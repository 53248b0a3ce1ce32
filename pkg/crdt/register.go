package crdt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/horao-project/horao/pkg/clock"
)

// LastWriterWinsRegister holds a single value, resolving concurrent
// writes by comparing writer identity and, failing that, the packed
// value itself, so that every replica picks the same winner without
// communication.
type LastWriterWinsRegister struct {
	name       string
	value      json.RawMessage
	clock      *clock.Scalar
	lastUpdate uint32
	lastWriter string
	listeners  []Listener
}

// NewLastWriterWinsRegister creates an empty named register sharing the
// given clock.
func NewLastWriterWinsRegister(name string, c *clock.Scalar) *LastWriterWinsRegister {
	return &LastWriterWinsRegister{name: name, clock: c}
}

// Name returns the register's identifier.
func (r *LastWriterWinsRegister) Name() string { return r.name }

// Read returns the current value, or nil if never written.
func (r *LastWriterWinsRegister) Read() json.RawMessage { return r.value }

// Write creates, applies, and returns an Update setting the register to
// value, attributed to writer for tie-breaking against concurrent writes.
func (r *LastWriterWinsRegister) Write(value json.RawMessage, writer string) (Update, error) {
	u := packUpdate{ClockUUID: r.clock.ID(), TimeStamp: r.clock.Read(), Writer: writer, Value: value}
	if err := r.Apply(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Apply merges a (possibly remote) update. Ties (concurrent writes) are
// broken first by comparing writer identifiers, then by comparing the
// packed value, so the resolution is deterministic across replicas.
func (r *LastWriterWinsRegister) Apply(u Update) error {
	pu, err := toPackUpdate(u)
	if err != nil {
		return err
	}
	if pu.ClockUUID != r.clock.ID() {
		return fmt.Errorf("crdt: lwwregister: update clock %s does not match register clock %s", pu.ClockUUID, r.clock.ID())
	}

	r.invokeListeners(pu)

	if clock.IsLater(pu.TimeStamp, r.lastUpdate) {
		r.lastUpdate = pu.TimeStamp
		r.lastWriter = pu.Writer
		r.value = pu.Value
	} else if clock.AreConcurrent(pu.TimeStamp, r.lastUpdate) {
		if pu.Writer > r.lastWriter || (pu.Writer == r.lastWriter && bytes.Compare(pu.Value, r.value) > 0) {
			r.lastWriter = pu.Writer
			r.value = pu.Value
		}
	}

	r.clock.Update(pu.TimeStamp)
	return nil
}

// History returns the single update needed to reconstruct the register's
// current state.
func (r *LastWriterWinsRegister) History() []Update {
	return []Update{packUpdate{ClockUUID: r.clock.ID(), TimeStamp: r.lastUpdate, Writer: r.lastWriter, Value: r.value}}
}

// MerkleHistory returns a merkle summary of History.
func (r *LastWriterWinsRegister) MerkleHistory() (*MerkleTree, error) {
	return BuildMerkleTree(r.History())
}

// Checksum folds the packed updates in [fromTS, untilTS] into a single
// CRC32 fingerprint.
func (r *LastWriterWinsRegister) Checksum(fromTS, untilTS *uint32) (uint32, error) {
	return checksum(r.History(), fromTS, untilTS)
}

// AddListener registers a callback invoked on every applied update.
func (r *LastWriterWinsRegister) AddListener(l Listener) {
	r.listeners = append(r.listeners, l)
}

func (r *LastWriterWinsRegister) invokeListeners(u Update) {
	for _, l := range r.listeners {
		l(u)
	}
}

// MultiValueRegister holds every concurrently-written value until a
// strictly later write supersedes them all, surfacing divergence to
// callers instead of silently picking a winner.
type MultiValueRegister struct {
	name       string
	values     []json.RawMessage
	clock      *clock.Scalar
	lastUpdate uint32
	listeners  []Listener
}

// NewMultiValueRegister creates an empty named register sharing the given
// clock.
func NewMultiValueRegister(name string, c *clock.Scalar) *MultiValueRegister {
	return &MultiValueRegister{name: name, clock: c}
}

// Name returns the register's identifier.
func (r *MultiValueRegister) Name() string { return r.name }

// Read returns every concurrently-live value, sorted for a stable
// presentation order.
func (r *MultiValueRegister) Read() []json.RawMessage {
	out := make([]json.RawMessage, len(r.values))
	copy(out, r.values)
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

// Write creates, applies, and returns an Update setting value into the
// register.
func (r *MultiValueRegister) Write(value json.RawMessage) (Update, error) {
	u := packUpdate{ClockUUID: r.clock.ID(), TimeStamp: r.clock.Read(), Value: value}
	if err := r.Apply(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Apply merges a (possibly remote) update. A strictly later write
// replaces every existing value; a concurrent write is appended unless
// already present.
func (r *MultiValueRegister) Apply(u Update) error {
	pu, err := toPackUpdate(u)
	if err != nil {
		return err
	}
	if pu.ClockUUID != r.clock.ID() {
		return fmt.Errorf("crdt: mvregister: update clock %s does not match register clock %s", pu.ClockUUID, r.clock.ID())
	}

	r.invokeListeners(pu)

	if clock.IsLater(pu.TimeStamp, r.lastUpdate) {
		r.lastUpdate = pu.TimeStamp
		r.values = []json.RawMessage{pu.Value}
	} else if clock.AreConcurrent(pu.TimeStamp, r.lastUpdate) {
		found := false
		for _, v := range r.values {
			if bytes.Equal(v, pu.Value) {
				found = true
				break
			}
		}
		if !found {
			r.values = append(r.values, pu.Value)
		}
	}

	r.clock.Update(pu.TimeStamp)
	return nil
}

// History returns one update per concurrently-live value.
func (r *MultiValueRegister) History() []Update {
	history := make([]Update, 0, len(r.values))
	for _, v := range r.values {
		history = append(history, packUpdate{ClockUUID: r.clock.ID(), TimeStamp: r.lastUpdate, Value: v})
	}
	return history
}

// MerkleHistory returns a merkle summary of History.
func (r *MultiValueRegister) MerkleHistory() (*MerkleTree, error) {
	return BuildMerkleTree(r.History())
}

// Checksum folds the packed updates in [fromTS, untilTS] into a single
// CRC32 fingerprint.
func (r *MultiValueRegister) Checksum(fromTS, untilTS *uint32) (uint32, error) {
	return checksum(r.History(), fromTS, untilTS)
}

// AddListener registers a callback invoked on every applied update.
func (r *MultiValueRegister) AddListener(l Listener) {
	r.listeners = append(r.listeners, l)
}

func (r *MultiValueRegister) invokeListeners(u Update) {
	for _, l := range r.listeners {
		l(u)
	}
}

func toPackUpdate(u Update) (packUpdate, error) {
	if pu, ok := u.(packUpdate); ok {
		return pu, nil
	}
	packed, err := u.Pack()
	if err != nil {
		return packUpdate{}, err
	}
	return unpackUpdate(packed)
}
