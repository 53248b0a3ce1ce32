package crdt

import (
	"encoding/json"
	"fmt"

	"github.com/horao-project/horao/pkg/clock"
)

// LastWriterWinsMap is a map CRDT built from an OR-Set of keys and one
// last-writer-wins register per key, all sharing the map's clock. Key
// removal is biased toward "observed" the same way the underlying OR-Set
// is: a concurrent set and unset of the same key converges to set.
type LastWriterWinsMap struct {
	names     *ObservedRemovedSet
	registers map[string]*LastWriterWinsRegister
	clock     *clock.Scalar
	listeners []Listener
}

// NewLastWriterWinsMap creates an empty map sharing the given clock.
func NewLastWriterWinsMap(c *clock.Scalar) *LastWriterWinsMap {
	return &LastWriterWinsMap{
		names:     NewObservedRemovedSet(c),
		registers: make(map[string]*LastWriterWinsRegister),
		clock:     c,
	}
}

// Read returns the eventually-consistent key/value view.
func (m *LastWriterWinsMap) Read() map[string]json.RawMessage {
	result := make(map[string]json.RawMessage)
	for name := range m.names.Read() {
		if reg, ok := m.registers[name]; ok {
			result[name] = reg.Read()
		}
	}
	return result
}

// Set extends the map with name: value, attributed to writer for
// tie-breaking against concurrent writes to the same key.
func (m *LastWriterWinsMap) Set(name string, value json.RawMessage, writer string) (Update, error) {
	u := packUpdate{ClockUUID: m.clock.ID(), TimeStamp: m.clock.Read(), Op: "o", Member: name, Writer: writer, Value: value}
	if err := m.Apply(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Unset removes name from the map.
func (m *LastWriterWinsMap) Unset(name string, writer string) (Update, error) {
	u := packUpdate{ClockUUID: m.clock.ID(), TimeStamp: m.clock.Read(), Op: "r", Member: name, Writer: writer}
	if err := m.Apply(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Apply merges a (possibly remote) update: the key's membership is
// applied to the underlying OR-Set, then the value is applied to the
// key's register. A key that the OR-Set no longer reports as observed
// has its register dropped, so stale registers never leak into Read.
func (m *LastWriterWinsMap) Apply(u Update) error {
	pu, err := toPackUpdate(u)
	if err != nil {
		return err
	}
	if pu.ClockUUID != m.clock.ID() {
		return fmt.Errorf("crdt: lwwmap: update clock %s does not match map clock %s", pu.ClockUUID, m.clock.ID())
	}
	if pu.Op != "o" && pu.Op != "r" {
		return fmt.Errorf("crdt: lwwmap: op must be 'o' or 'r', got %q", pu.Op)
	}

	m.invokeListeners(pu)
	name := pu.Member

	if err := m.names.Apply(packUpdate{ClockUUID: m.clock.ID(), TimeStamp: pu.TimeStamp, Op: pu.Op, Member: name}); err != nil {
		return err
	}

	if pu.Op == "o" {
		if _, exists := m.registers[name]; !exists {
			if m.names.Contains(name) {
				m.registers[name] = NewLastWriterWinsRegister(name, m.clock)
			}
		}
	}
	if pu.Op == "r" {
		if !m.names.Contains(name) {
			delete(m.registers, name)
		}
	}

	if reg, ok := m.registers[name]; ok {
		if err := reg.Apply(packUpdate{ClockUUID: m.clock.ID(), TimeStamp: pu.TimeStamp, Writer: pu.Writer, Value: pu.Value}); err != nil {
			return err
		}
	}

	return nil
}

// History returns the updates needed to reconstruct the map's current
// state, one per key the map has seen: a live key's membership update and
// its register's last write are folded into a single map-level update,
// and a removed key contributes its removal update.
func (m *LastWriterWinsMap) History() []Update {
	history := make([]Update, 0, len(m.names.Read()))
	for _, raw := range m.names.History() {
		nu, err := toPackUpdate(raw)
		if err != nil {
			continue
		}
		name := nu.Member
		if reg, ok := m.registers[name]; ok {
			history = append(history, packUpdate{
				ClockUUID: m.clock.ID(),
				TimeStamp: reg.lastUpdate,
				Op:        nu.Op,
				Member:    name,
				Writer:    reg.lastWriter,
				Value:     reg.value,
			})
		} else {
			history = append(history, nu)
		}
	}
	return history
}

// MerkleHistory returns a merkle summary of History.
func (m *LastWriterWinsMap) MerkleHistory() (*MerkleTree, error) {
	return BuildMerkleTree(m.History())
}

// Checksum folds the packed updates in [fromTS, untilTS] into a single
// CRC32 fingerprint.
func (m *LastWriterWinsMap) Checksum(fromTS, untilTS *uint32) (uint32, error) {
	return checksum(m.History(), fromTS, untilTS)
}

// AddListener registers a callback invoked on every applied update.
func (m *LastWriterWinsMap) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

func (m *LastWriterWinsMap) invokeListeners(u Update) {
	for _, l := range m.listeners {
		l(u)
	}
}
