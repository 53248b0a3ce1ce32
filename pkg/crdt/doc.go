/*
Package crdt implements the conflict-free replicated data types that let
horao replicas accept writes independently and converge without a leader
or a consensus round.

# Update and merkle synchronization

Every CRDT in this package produces and consumes Update values: small,
clock-stamped deltas that can be packed to bytes, hashed, and replayed on
any replica sharing the same clock UUID. BuildMerkleTree packs a CRDT's
full History into a root hash plus a sorted leaf list; Diff compares two
trees and returns the leaf hashes a replica is missing, so two replicas
can find exactly what diverged without shipping their entire history.

# The CRDTs

ObservedRemovedSet (OR-Set) tracks set membership with two internal sets,
observed and removed, so a concurrent add and remove of the same member
converges to present rather than flapping between replicas (add-biased).

LastWriterWinsRegister and MultiValueRegister hold a single logical value.
The former picks one winner on concurrent writes, using writer identity
and then packed-value comparison as tiebreakers; the latter keeps every
concurrently-written value until a strictly later write supersedes them
all, surfacing divergence instead of hiding it.

LastWriterWinsMap composes an OR-Set of keys with one LastWriterWinsRegister
per key, all sharing a clock, giving map semantics (set/unset) with the
same convergence guarantees as its building blocks.

List builds an ordered collection on top of LastWriterWinsMap. Each
element is stored under an identifier minted on insert and carries a
fractional index; read order is by index, then by packed value. Two
concurrent inserts at the same position land under distinct keys, so
both survive a merge instead of fighting for one slot.

# Convergence guarantees

Every Apply call is designed to be idempotent (applying the same update
twice is a no-op the second time) and commutative (two concurrent updates
converge to the same state regardless of application order). Listeners
registered with AddListener observe every applied update, including ones
received from peers during synchronization, which is how package
replication and package domain propagate change notifications.
*/
package crdt
