package crdt

import (
	"fmt"

	"github.com/horao-project/horao/pkg/clock"
)

// Listener is notified whenever an update is applied to a CRDT, whether
// created locally or received from a peer.
type Listener func(Update)

// ObservedRemovedSet is an add-biased OR-Set: membership is tracked with
// two underlying sets (observed, removed) so that concurrent add/remove
// of the same member converges to "observed" rather than flapping.
type ObservedRemovedSet struct {
	observed       map[string]struct{}
	observedAt     map[string]uint32
	removed        map[string]struct{}
	removedAt      map[string]uint32
	clock          *clock.Scalar
	cacheAtCounter uint32
	cache          map[string]struct{}
	cacheValid     bool
	listeners      []Listener
}

// NewObservedRemovedSet creates an empty OR-Set sharing the given clock.
func NewObservedRemovedSet(c *clock.Scalar) *ObservedRemovedSet {
	return &ObservedRemovedSet{
		observed:   make(map[string]struct{}),
		observedAt: make(map[string]uint32),
		removed:    make(map[string]struct{}),
		removedAt:  make(map[string]uint32),
		clock:      c,
	}
}

// Read returns the eventually-consistent membership: everything observed
// minus everything removed.
func (s *ObservedRemovedSet) Read() map[string]struct{} {
	if s.cacheValid && s.cacheAtCounter == s.clock.Read() {
		return s.cache
	}
	diff := make(map[string]struct{}, len(s.observed))
	for m := range s.observed {
		if _, removed := s.removed[m]; !removed {
			diff[m] = struct{}{}
		}
	}
	s.cache = diff
	s.cacheAtCounter = s.clock.Read()
	s.cacheValid = true
	return diff
}

// Contains reports whether member is currently a member of the set.
func (s *ObservedRemovedSet) Contains(member string) bool {
	_, ok := s.Read()[member]
	return ok
}

// Observe creates, applies, and returns an Update that adds member to the
// observed set.
func (s *ObservedRemovedSet) Observe(member string) (Update, error) {
	return s.apply("o", member)
}

// Remove creates, applies, and returns an Update that adds member to the
// removed set.
func (s *ObservedRemovedSet) Remove(member string) (Update, error) {
	return s.apply("r", member)
}

func (s *ObservedRemovedSet) apply(op, member string) (Update, error) {
	u := packUpdate{ClockUUID: s.clock.ID(), TimeStamp: s.clock.Read(), Op: op, Member: member}
	if err := s.Apply(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Apply merges a (possibly remote) update into the set. It is idempotent
// and commutative: applying the same update twice, or two concurrent
// updates in either order, yields the same membership.
func (s *ObservedRemovedSet) Apply(u Update) error {
	pu, err := toPackUpdate(u)
	if err != nil {
		return err
	}
	if pu.ClockUUID != s.clock.ID() {
		return fmt.Errorf("crdt: orset: update clock %s does not match set clock %s", pu.ClockUUID, s.clock.ID())
	}
	if pu.Op != "o" && pu.Op != "r" {
		return fmt.Errorf("crdt: orset: op must be 'o' or 'r', got %q", pu.Op)
	}

	s.invokeListeners(pu)
	member := pu.Member
	ts := pu.TimeStamp

	switch pu.Op {
	case "o":
		_, wasRemoved := s.removed[member]
		removedTS, hasRemovedTS := s.removedAt[member]
		if !wasRemoved || (hasRemovedTS && !clock.IsLater(removedTS, ts)) {
			s.observed[member] = struct{}{}
			old, has := s.observedAt[member]
			if !has {
				old = 0
			}
			if clock.IsLater(ts, old) {
				s.observedAt[member] = ts
			}
			if wasRemoved {
				delete(s.removed, member)
				delete(s.removedAt, member)
			}
			s.cacheValid = false
		}
	case "r":
		_, wasObserved := s.observed[member]
		observedTS, hasObservedTS := s.observedAt[member]
		if !wasObserved || (hasObservedTS && clock.IsLater(ts, observedTS)) {
			s.removed[member] = struct{}{}
			old, has := s.removedAt[member]
			if !has {
				old = 0
			}
			if clock.IsLater(ts, old) {
				s.removedAt[member] = ts
			}
			if wasObserved {
				delete(s.observed, member)
				delete(s.observedAt, member)
			}
			s.cacheValid = false
		}
	}

	s.clock.Update(ts)
	return nil
}

// History returns the updates needed to reconstruct the current state,
// one per observed and removed member, for resynchronization.
func (s *ObservedRemovedSet) History() []Update {
	history := make([]Update, 0, len(s.observed)+len(s.removed))
	for m := range s.observed {
		history = append(history, packUpdate{ClockUUID: s.clock.ID(), TimeStamp: s.observedAt[m], Op: "o", Member: m})
	}
	for m := range s.removed {
		history = append(history, packUpdate{ClockUUID: s.clock.ID(), TimeStamp: s.removedAt[m], Op: "r", Member: m})
	}
	return history
}

// MerkleHistory returns a merkle summary of History, used during
// synchronization to find the minimal set of updates a peer is missing.
func (s *ObservedRemovedSet) MerkleHistory() (*MerkleTree, error) {
	return BuildMerkleTree(s.History())
}

// Checksum folds the packed updates in [fromTS, untilTS] into a single
// CRC32 fingerprint, a cheaper desynchronization check than a full
// merkle diff.
func (s *ObservedRemovedSet) Checksum(fromTS, untilTS *uint32) (uint32, error) {
	return checksum(s.History(), fromTS, untilTS)
}

// AddListener registers a callback invoked on every applied update.
func (s *ObservedRemovedSet) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *ObservedRemovedSet) invokeListeners(u Update) {
	for _, l := range s.listeners {
		l(u)
	}
}
