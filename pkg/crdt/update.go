// Package crdt implements the conflict-free replicated data types horao
// uses to keep infrastructure state consistent across replicas without a
// leader: an observed-removed set, last-writer-wins and multi-value
// registers, a last-writer-wins map, and a position-ordered list built on
// top of the map.
package crdt

import (
	"crypto/sha256"
	"encoding/json"
	"hash/crc32"
	"sort"

	"github.com/google/uuid"
)

// Update is a single delta-state change to a CRDT, self-describing enough
// to be replayed on any replica holding the same clock UUID.
type Update interface {
	// Pack serializes the update to bytes for hashing and transport.
	Pack() ([]byte, error)
}

// RawUpdate wraps bytes received over the wire (e.g. from a peer
// synchronization envelope) as an Update. Apply paths unpack it via
// toPackUpdate the same way they unpack any foreign Update implementation.
type RawUpdate []byte

// Pack returns r unchanged, satisfying Update.
func (r RawUpdate) Pack() ([]byte, error) {
	return r, nil
}

// packUpdate is a concrete, JSON-packable update shared by every CRDT in
// this package. CRDTs interpret Op/Member/Writer/Value differently, but
// all of them hash and transport updates the same way.
type packUpdate struct {
	ClockUUID uuid.UUID       `json:"clock_uuid"`
	TimeStamp uint32          `json:"time_stamp"`
	Op        string          `json:"op,omitempty"`
	Member    string          `json:"member,omitempty"`
	Writer    string          `json:"writer,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}

func (u packUpdate) Pack() ([]byte, error) {
	return json.Marshal(u)
}

// unpackUpdate decodes a packUpdate previously produced by Pack. It is
// used on the receiving side of synchronization, where updates arrive as
// opaque bytes.
func unpackUpdate(data []byte) (packUpdate, error) {
	var u packUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return packUpdate{}, err
	}
	return u, nil
}

// Replica is the minimal shape the peer synchronizer needs from a CRDT:
// enough to replay its history into a remote peer, diff it via merkle
// summary, apply updates received from one, and fingerprint it for a
// cheap desynchronization check. ObservedRemovedSet,
// LastWriterWinsRegister, MultiValueRegister, LastWriterWinsMap, and
// List[T] all satisfy it.
type Replica interface {
	History() []Update
	MerkleHistory() (*MerkleTree, error)
	Apply(u Update) error
	Checksum(fromTS, untilTS *uint32) (uint32, error)
}

// checksum folds the packed form of every update in history whose
// timestamp falls within [fromTS, untilTS] (a nil bound is unbounded)
// into a single CRC32 value: a cheap fingerprint for detecting
// desynchronization without a full merkle diff, implementing the
// checksum(from_ts, until_ts) operation every CRDT exposes (spec.md
// §4.2). Grounded on
// original_source/horao/crdts/{set,register,map}.py's checksums, which
// crc32 the packed fields within the same optional time window;
// collapsed here into one folded value per CRDT rather than a tuple of
// per-field checksums.
func checksum(history []Update, fromTS, untilTS *uint32) (uint32, error) {
	var sum uint32
	for _, u := range history {
		pu, err := toPackUpdate(u)
		if err != nil {
			return 0, err
		}
		if fromTS != nil && pu.TimeStamp < *fromTS {
			continue
		}
		if untilTS != nil && pu.TimeStamp > *untilTS {
			continue
		}
		packed, err := u.Pack()
		if err != nil {
			return 0, err
		}
		sum += crc32.ChecksumIEEE(packed)
	}
	return sum, nil
}

// MerkleTree is a content-addressed summary of a CRDT's update history:
// a root hash over all leaf hashes, the sorted leaf hash list, and a
// lookup from leaf hash back to the packed update it summarizes.
type MerkleTree struct {
	Root    [32]byte
	Leaves  [][32]byte
	History map[[32]byte][]byte
}

// BuildMerkleTree packs every update in history, hashes each packed form
// with SHA-256, and combines the sorted leaf hashes into a root hash. The
// sort makes the root independent of history's iteration order, which
// matters because Go map iteration order (and therefore the order CRDTs
// walk their internal sets) is randomized.
func BuildMerkleTree(history []Update) (*MerkleTree, error) {
	tree := &MerkleTree{History: make(map[[32]byte][]byte, len(history))}
	for _, u := range history {
		packed, err := u.Pack()
		if err != nil {
			return nil, err
		}
		leaf := sha256.Sum256(packed)
		tree.Leaves = append(tree.Leaves, leaf)
		tree.History[leaf] = packed
	}
	sort.Slice(tree.Leaves, func(i, j int) bool {
		return lessBytes(tree.Leaves[i][:], tree.Leaves[j][:])
	})

	joined := make([]byte, 0, len(tree.Leaves)*32)
	for _, leaf := range tree.Leaves {
		joined = append(joined, leaf[:]...)
	}
	tree.Root = sha256.Sum256(joined)
	return tree, nil
}

// Diff accepts a remote tree and returns the leaf hashes present in remote
// but absent locally: the updates the local replica still needs to apply
// to converge. An identical root short-circuits the comparison.
func Diff(local, remote *MerkleTree) [][32]byte {
	if local.Root == remote.Root {
		return nil
	}
	localSet := make(map[[32]byte]struct{}, len(local.Leaves))
	for _, l := range local.Leaves {
		localSet[l] = struct{}{}
	}
	var missing [][32]byte
	for _, l := range remote.Leaves {
		if _, ok := localSet[l]; !ok {
			missing = append(missing, l)
		}
	}
	return missing
}

func lessBytes(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
