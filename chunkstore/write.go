package chunkstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// WriteHandle stages one object upload. Chunks are appended in order and are
// immutable once written; the object stays invisible to reads until Commit.
// A handle is exclusively owned by one in-flight upload and is not safe for
// concurrent use.
//
// State machine: Opening -> Writing -> Committed | Aborted. No transitions
// back; Commit and Abort both close the handle.
type WriteHandle struct {
	store     *Store
	meta      ObjectMeta
	overwrite bool
	seq       uint32
	closed    bool
}

// Open begins a new object for (ownerID, filename). It fails with a conflict
// when a committed object already exists and overwrite is false, or when
// another handle for the same pair is in flight.
func (s *Store) Open(ownerID, filename, contentType string, plaintextSize int64, overwrite bool) (*WriteHandle, error) {
	if ownerID == "" || filename == "" {
		return nil, ErrMissingField
	}

	if err := s.reserve(ownerID, filename); err != nil {
		return nil, err
	}

	if !overwrite {
		err := s.db.View(func(tx *bbolt.Tx) error {
			if tx.Bucket(bucketObjects).Get(objectKey(ownerID, filename)) != nil {
				return ErrObjectExists
			}
			return nil
		})
		if err != nil {
			s.release(ownerID, filename)
			return nil, err
		}
	}

	return &WriteHandle{
		store: s,
		meta: ObjectMeta{
			ID:            uuid.NewString(),
			OwnerID:       ownerID,
			Filename:      filename,
			ContentType:   contentType,
			PlaintextSize: plaintextSize,
		},
		overwrite: overwrite,
	}, nil
}

// Append writes the next ciphertext chunk. On a storage fault the chunks
// written so far are cleaned up before the error is surfaced; the handle is
// then closed.
func (h *WriteHandle) Append(chunk []byte) error {
	if h.closed {
		return ErrHandleClosed
	}
	if len(chunk) == 0 {
		return ErrEmptyChunk
	}

	err := h.store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).Put(chunkKey(h.meta.ID, h.seq), chunk)
	})
	if err != nil {
		h.fail()
		return fmt.Errorf("chunkstore: append chunk %d: %w", h.seq, err)
	}

	h.seq++
	return nil
}

// Commit finalizes the object: timestamps, checksum and the measured
// plaintext size are recorded and the metadata becomes visible to reads in
// one transaction. plaintextSize supersedes the size declared at Open, which
// streaming callers may not know upfront. When overwriting, the previous
// object's chunks are removed in the same transaction and its creation
// timestamp is preserved.
func (h *WriteHandle) Commit(checksum string, plaintextSize int64) (*ObjectMeta, error) {
	if h.closed {
		return nil, ErrHandleClosed
	}
	h.closed = true
	defer h.store.release(h.meta.OwnerID, h.meta.Filename)

	now := time.Now().UTC()
	h.meta.Checksum = checksum
	h.meta.PlaintextSize = plaintextSize
	h.meta.ChunkCount = h.seq
	h.meta.CreatedAt = now
	h.meta.ModifiedAt = now

	err := h.store.db.Update(func(tx *bbolt.Tx) error {
		objects := tx.Bucket(bucketObjects)
		key := objectKey(h.meta.OwnerID, h.meta.Filename)

		if existing := objects.Get(key); existing != nil {
			if !h.overwrite {
				return ErrObjectExists
			}
			old, err := decodeMeta(existing)
			if err != nil {
				return err
			}
			if err := deleteChunks(tx, old.ID); err != nil {
				return err
			}
			h.meta.CreatedAt = old.CreatedAt
		}

		data, err := encodeMeta(&h.meta)
		if err != nil {
			return err
		}
		return objects.Put(key, data)
	})
	if err != nil {
		h.discardChunks()
		return nil, err
	}

	meta := h.meta
	return &meta, nil
}

// Abort discards the staged object: every chunk written through this handle
// is removed and the handle closes. Aborting a closed handle is a no-op.
func (h *WriteHandle) Abort() error {
	if h.closed {
		return nil
	}
	h.fail()
	return nil
}

// fail closes the handle, discards staged chunks and releases the write slot.
func (h *WriteHandle) fail() {
	h.closed = true
	h.discardChunks()
	h.store.release(h.meta.OwnerID, h.meta.Filename)
}

// discardChunks best-effort removes the staged chunks for this handle.
func (h *WriteHandle) discardChunks() {
	_ = h.store.db.Update(func(tx *bbolt.Tx) error {
		return deleteChunks(tx, h.meta.ID)
	})
}
