// Package storage persists replica snapshots behind a minimal
// get/set/atomic-replace interface, so the manager and peer synchronizer
// don't care whether blobs live in memory or in bbolt.
package storage
