package chunkstore

import (
	"bytes"
	"io"
	"iter"

	"go.etcd.io/bbolt"
)

// OpenReadStream returns the ciphertext of a committed object as an ordered
// chunk stream, together with its metadata. callerID is the verified request
// identity, ownerID the namespace being read; the read is forbidden unless
// both equal the owner recorded on the object itself, so a caller can never
// stream another owner's ciphertext even through a mis-built lookup key.
func (s *Store) OpenReadStream(callerID, ownerID, filename string) (io.ReadCloser, *ObjectMeta, error) {
	if callerID == "" || ownerID == "" || filename == "" {
		return nil, nil, ErrMissingField
	}

	var meta *ObjectMeta
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		meta, err = getMeta(tx, callerID, ownerID, filename)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return &chunkReader{store: s, meta: meta}, meta, nil
}

// chunkReader streams an object's chunks lazily, one bbolt read transaction
// per chunk, copying each chunk out of its transaction.
type chunkReader struct {
	store *Store
	meta  *ObjectMeta
	seq   uint32
	buf   []byte
	off   int
	err   error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	for r.off == len(r.buf) {
		if r.seq == r.meta.ChunkCount {
			r.err = io.EOF
			return 0, io.EOF
		}

		var chunk []byte
		err := r.store.db.View(func(tx *bbolt.Tx) error {
			data := tx.Bucket(bucketChunks).Get(chunkKey(r.meta.ID, r.seq))
			if data == nil {
				// Metadata promises more chunks than are stored. Fail
				// rather than serve a silent prefix.
				return ErrIncompleteObject
			}
			chunk = bytes.Clone(data)
			return nil
		})
		if err != nil {
			r.err = err
			return 0, err
		}

		r.seq++
		r.buf = chunk
		r.off = 0
	}

	n := copy(p, r.buf[r.off:])
	r.off += n
	return n, nil
}

func (r *chunkReader) Close() error {
	r.err = io.EOF
	r.buf = nil
	return nil
}

// Objects returns a lazy, restartable sequence over one owner's committed
// objects. Each ranging restarts the scan; an owner with no objects yields
// nothing rather than an error.
func (s *Store) Objects(ownerID string) iter.Seq2[*ObjectMeta, error] {
	return func(yield func(*ObjectMeta, error) bool) {
		_ = s.db.View(func(tx *bbolt.Tx) error {
			c := tx.Bucket(bucketObjects).Cursor()
			prefix := objectPrefix(ownerID)

			for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
				meta, err := decodeMeta(v)
				if err != nil {
					yield(nil, err)
					return nil
				}
				// The prefix scan is owner-filtered already; the record's
				// own owner field is still checked so a key bug cannot
				// leak a foreign object.
				if meta.OwnerID != ownerID {
					continue
				}
				if !yield(meta, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

// ListByOwner collects the owner's committed objects into a slice. An empty
// slice means no objects; it is distinct from an error.
func (s *Store) ListByOwner(ownerID string) ([]*ObjectMeta, error) {
	objects := []*ObjectMeta{}
	for meta, err := range s.Objects(ownerID) {
		if err != nil {
			return nil, err
		}
		objects = append(objects, meta)
	}
	return objects, nil
}

// Delete removes an object's metadata and all of its chunks as one logical
// unit; partial deletion is not a legal state. The same ownership rules as
// reads apply. After deletion the (owner, filename) pair is free for reuse.
func (s *Store) Delete(callerID, ownerID, filename string) error {
	if callerID == "" || ownerID == "" || filename == "" {
		return ErrMissingField
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := getMeta(tx, callerID, ownerID, filename)
		if err != nil {
			return err
		}
		if err := deleteChunks(tx, meta.ID); err != nil {
			return err
		}
		return tx.Bucket(bucketObjects).Delete(objectKey(ownerID, filename))
	})
}

// OwnerStats summarizes one owner's committed storage.
type OwnerStats struct {
	Objects        int
	Chunks         uint64
	PlaintextBytes int64
}

// Stats reports object, chunk and plaintext byte totals for ownerID.
func (s *Store) Stats(ownerID string) (OwnerStats, error) {
	var stats OwnerStats
	for meta, err := range s.Objects(ownerID) {
		if err != nil {
			return OwnerStats{}, err
		}
		stats.Objects++
		stats.Chunks += uint64(meta.ChunkCount)
		stats.PlaintextBytes += meta.PlaintextSize
	}
	return stats, nil
}
