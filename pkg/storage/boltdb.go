package storage

import (
	"bytes"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketSnapshots = []byte("snapshots")

// BoltStore implements Store on top of a single bbolt bucket, keyed
// exactly as the core names its blobs ("last_sync" and "clock").
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if needed) a bbolt database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "horao.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get implements Store.
func (s *BoltStore) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set implements Store.
func (s *BoltStore) Set(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		return b.Put([]byte(key), value)
	})
}

// CompareAndSwap implements Store.
func (s *BoltStore) CompareAndSwap(key string, oldValue, newValue []byte) (bool, error) {
	swapped := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		current := b.Get([]byte(key))
		switch {
		case oldValue == nil && current != nil:
			return nil
		case oldValue != nil && (current == nil || !bytes.Equal(current, oldValue)):
			return nil
		}
		swapped = true
		return b.Put([]byte(key), newValue)
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}
