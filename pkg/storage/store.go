// Package storage implements the opaque key/JSON-blob persistence layer
// horao depends on for replica snapshots. The core writes two keys:
// "last_sync" (the last successful sync timestamp) and "clock" (the
// packed logical clock); the infrastructure itself is not persisted. The
// core depends only on get/set/atomic-replace semantics; either backend
// below satisfies it.
package storage

import "errors"

// ErrNotFound is returned by Get when key has never been set.
var ErrNotFound = errors.New("storage: key not found")

// Store is the persistence collaborator the replica manager and peer
// synchronizer depend on. Implementations must make Set safe to call
// concurrently with Get.
type Store interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set unconditionally stores value under key, replacing any prior value.
	Set(key string, value []byte) error

	// CompareAndSwap atomically replaces the value stored under key with
	// newValue, but only if the current value is byte-equal to oldValue
	// (or, when oldValue is nil, only if key is currently unset). It
	// reports whether the swap happened.
	CompareAndSwap(key string, oldValue, newValue []byte) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
