// Package chunkstore persists encrypted objects as ordered, immutable
// ciphertext chunks with an owner-scoped metadata index. Objects become
// visible only at commit; an aborted or failed write leaves nothing behind.
package chunkstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.etcd.io/bbolt"
)

var (
	bucketObjects = []byte("objects")
	bucketChunks  = []byte("chunks")
)

// Store persists object metadata and chunks in bbolt.
type Store struct {
	db *bbolt.DB

	// mu guards pending, the set of (owner, filename) pairs with an open
	// write handle. A second opener for the same pair is rejected rather
	// than raced.
	mu      sync.Mutex
	pending map[string]struct{}
}

// OpenStore opens or creates the object database at dbPath. The parent
// directory is created if it does not exist.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("chunkstore: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketObjects, bucketChunks} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("chunkstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		pending: make(map[string]struct{}),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// reserve claims the in-flight write slot for (owner, filename).
func (s *Store) reserve(ownerID, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(objectKey(ownerID, filename))
	if _, busy := s.pending[key]; busy {
		return ErrConcurrentWrite
	}
	s.pending[key] = struct{}{}
	return nil
}

// release frees the in-flight write slot for (owner, filename).
func (s *Store) release(ownerID, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, string(objectKey(ownerID, filename)))
}

// getMeta loads committed metadata for (owner, filename) and enforces that
// callerID equals the owner recorded on the object itself. The record-level
// check is deliberate: an owner-filtered lookup alone would hide a
// key-construction bug.
func getMeta(tx *bbolt.Tx, callerID, ownerID, filename string) (*ObjectMeta, error) {
	data := tx.Bucket(bucketObjects).Get(objectKey(ownerID, filename))
	if data == nil {
		return nil, ErrObjectNotFound
	}
	meta, err := decodeMeta(data)
	if err != nil {
		return nil, err
	}
	if meta.OwnerID != ownerID || meta.OwnerID != callerID {
		return nil, ErrOwnerMismatch
	}
	return meta, nil
}

// deleteChunks removes every chunk belonging to objectID within tx.
func deleteChunks(tx *bbolt.Tx, objectID string) error {
	c := tx.Bucket(bucketChunks).Cursor()
	prefix := chunkPrefix(objectID)
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Seek(prefix) {
		if err := c.Delete(); err != nil {
			return fmt.Errorf("chunkstore: delete chunk: %w", err)
		}
	}
	return nil
}
