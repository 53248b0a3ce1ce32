package crdt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/horao-project/horao/pkg/clock"
)

// listStep is the fixed increment used when appending past the current
// tail, per SPEC_FULL.md §4.6 ("appends increment the largest known index
// by a small fixed step").
const listStep = 1.0

// fiaItem is the value stored per element in a List's backing map: a
// fractional position plus the element's packed payload. Grounded on
// original_source/horao/crdts/array.py's FractionallyIndexedArrayItem.
type fiaItem struct {
	Index float64         `json:"index"`
	Value json.RawMessage `json:"value"`
}

// List is a CRDT list built on a LastWriterWinsMap keyed by opaque
// element identifier (a uuid minted on insert), each entry carrying a
// fractional index. Two concurrent inserts at the same logical position
// therefore never collide on map key — they get distinct identifiers and
// both survive — which is why the index, not the key, determines order.
// Grounded on original_source/horao/crdts/array.py's
// FractionallyIndexedArray.
type List[T any] struct {
	items *LastWriterWinsMap
}

// NewList creates an empty list sharing the given clock.
func NewList[T any](c *clock.Scalar) *List[T] {
	return &List[T]{items: NewLastWriterWinsMap(c)}
}

// Len returns the number of items currently in the list.
func (l *List[T]) Len() int {
	return len(l.items.Read())
}

// listElement pairs an element's map key with its decoded fiaItem, used
// internally to compute read order and locate positions.
type listElement struct {
	id   string
	item fiaItem
}

// orderedElements decodes every live entry and sorts it by (index,
// packed value), per SPEC_FULL.md §4.6's read order.
func (l *List[T]) orderedElements() ([]listElement, error) {
	raw := l.items.Read()
	elements := make([]listElement, 0, len(raw))
	for id, encoded := range raw {
		var item fiaItem
		if err := json.Unmarshal(encoded, &item); err != nil {
			return nil, fmt.Errorf("crdt: list: corrupt element %q: %w", id, err)
		}
		elements = append(elements, listElement{id: id, item: item})
	}
	sort.Slice(elements, func(i, j int) bool {
		if elements[i].item.Index != elements[j].item.Index {
			return elements[i].item.Index < elements[j].item.Index
		}
		return bytes.Compare(elements[i].item.Value, elements[j].item.Value) < 0
	})
	return elements, nil
}

// Read returns the list contents in position order, stripping element
// identifiers.
func (l *List[T]) Read() ([]T, error) {
	elements, err := l.orderedElements()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(elements))
	for _, e := range elements {
		var item T
		if err := json.Unmarshal(e.item.Value, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Append inserts item after the current last element.
func (l *List[T]) Append(item T) (Update, error) {
	elements, err := l.orderedElements()
	if err != nil {
		return nil, err
	}
	var before *float64
	if len(elements) > 0 {
		idx := elements[len(elements)-1].item.Index
		before = &idx
	}
	return l.put(item, indexBetween(before, nil))
}

// Insert writes item at the given position, computing a fractional index
// strictly between its new neighbours. Concurrent inserts at the same
// position mint distinct element identifiers, so both survive a merge
// rather than one clobbering the other; their indices may be equal, in
// which case read order falls back to the packed value.
func (l *List[T]) Insert(position int, item T) (Update, error) {
	elements, err := l.orderedElements()
	if err != nil {
		return nil, err
	}
	var before, after *float64
	if position > 0 && position-1 < len(elements) {
		idx := elements[position-1].item.Index
		before = &idx
	}
	if position >= 0 && position < len(elements) {
		idx := elements[position].item.Index
		after = &idx
	}
	return l.put(item, indexBetween(before, after))
}

func (l *List[T]) put(item T, index float64) (Update, error) {
	value, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(fiaItem{Index: index, Value: value})
	if err != nil {
		return nil, err
	}
	return l.items.Set(uuid.NewString(), encoded, contentHash(encoded))
}

// indexBetween returns a fractional index strictly between before and
// after. A nil before means "start of list" (half the distance to after,
// or half a step if after is also nil); a nil after means "past the
// current tail" (before plus a fixed step).
func indexBetween(before, after *float64) float64 {
	switch {
	case before == nil && after == nil:
		return listStep / 2
	case before == nil:
		return *after / 2
	case after == nil:
		return *before + listStep
	default:
		return (*before + *after) / 2
	}
}

// RemoveAt removes the item at the given position.
func (l *List[T]) RemoveAt(position int) (Update, error) {
	elements, err := l.orderedElements()
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= len(elements) {
		return nil, fmt.Errorf("crdt: list: no element at position %d", position)
	}
	return l.items.Unset(elements[position].id, "")
}

// Replace overwrites the value of the element at position, keeping its
// current index — and therefore its place in read order — unchanged.
// Used to persist a mutated snapshot back into the list without
// reordering it.
func (l *List[T]) Replace(position int, item T) (Update, error) {
	elements, err := l.orderedElements()
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= len(elements) {
		return nil, fmt.Errorf("crdt: list: no element at position %d", position)
	}
	value, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(fiaItem{Index: elements[position].item.Index, Value: value})
	if err != nil {
		return nil, err
	}
	return l.items.Set(elements[position].id, encoded, contentHash(encoded))
}

// Move rewrites the index of the element currently at position from so
// it sits at position to in read order, under the same element
// identifier — an ordinary update that propagates through sync rather
// than a delete-then-insert. Grounded on
// original_source/horao/crdts/array.py's move_item.
func (l *List[T]) Move(from, to int) (Update, error) {
	elements, err := l.orderedElements()
	if err != nil {
		return nil, err
	}
	if from < 0 || from >= len(elements) {
		return nil, fmt.Errorf("crdt: list: no element at position %d", from)
	}
	moving := elements[from]
	remaining := make([]listElement, 0, len(elements)-1)
	remaining = append(remaining, elements[:from]...)
	remaining = append(remaining, elements[from+1:]...)

	if to < 0 {
		to = 0
	}
	if to > len(remaining) {
		to = len(remaining)
	}

	var before, after *float64
	if to > 0 {
		idx := remaining[to-1].item.Index
		before = &idx
	}
	if to < len(remaining) {
		idx := remaining[to].item.Index
		after = &idx
	}

	encoded, err := json.Marshal(fiaItem{Index: indexBetween(before, after), Value: moving.item.Value})
	if err != nil {
		return nil, err
	}
	return l.items.Set(moving.id, encoded, contentHash(encoded))
}

// Normalize redistributes every element's index evenly across
// [0, maxIndex] by issuing and applying one move per element, so that
// repeated inserts at the same spot never erode float64 precision.
// Grounded on original_source/horao/crdts/array.py's normalize.
func (l *List[T]) Normalize(maxIndex float64) ([]Update, error) {
	elements, err := l.orderedElements()
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	step := maxIndex / float64(len(elements)+1)
	updates := make([]Update, 0, len(elements))
	for i, e := range elements {
		encoded, err := json.Marshal(fiaItem{Index: step * float64(i+1), Value: e.item.Value})
		if err != nil {
			return nil, err
		}
		u, err := l.items.Set(e.id, encoded, contentHash(encoded))
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// Apply merges a (possibly remote) update into the list's backing map.
func (l *List[T]) Apply(u Update) error {
	return l.items.Apply(u)
}

// History returns the updates needed to reconstruct the list's current
// state.
func (l *List[T]) History() []Update {
	return l.items.History()
}

// MerkleHistory returns a merkle summary of History.
func (l *List[T]) MerkleHistory() (*MerkleTree, error) {
	return l.items.MerkleHistory()
}

// Checksum folds the packed updates in [fromTS, untilTS] into a single
// CRC32 fingerprint, delegating to the backing map.
func (l *List[T]) Checksum(fromTS, untilTS *uint32) (uint32, error) {
	return l.items.Checksum(fromTS, untilTS)
}

// AddListener registers a callback invoked on every applied update.
func (l *List[T]) AddListener(listener Listener) {
	l.items.AddListener(listener)
}

func contentHash(data []byte) string {
	h := fnv.New64a()
	h.Write(data)
	return strconv.FormatUint(h.Sum64(), 16)
}
