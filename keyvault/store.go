// Package keyvault persists passphrase-derived key records and verifies
// passphrases against them. Records store only a salted Argon2id hash of the
// passphrase together with a usage counter that increments on every
// successful verification.
package keyvault

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	bucketKeys      = []byte("keys")
	bucketKeysOwner = []byte("keys_owner")
)

// KeyRecord is a stored passphrase key. The raw passphrase is never part of
// the record.
type KeyRecord struct {
	ID         string
	Name       string
	OwnerID    string
	Salt       []byte
	PassHash   []byte
	UsageCount uint64
	CreatedAt  time.Time
}

// Store persists key records in bbolt.
type Store struct {
	db     *bbolt.DB
	params KDFParams
}

// Open opens or creates the key database at dbPath. The parent directory is
// created if it does not exist.
func Open(dbPath string, params KDFParams) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("keyvault: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("keyvault: open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketKeys, bucketKeysOwner} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("keyvault: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, params: params}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// CreateKey validates the inputs, hashes the passphrase, and persists a new
// key record owned by ownerID.
func (s *Store) CreateKey(ownerID, name, passphrase, confirm string) (*KeyRecord, error) {
	if ownerID == "" || name == "" || passphrase == "" {
		return nil, ErrMissingField
	}
	if passphrase != confirm {
		return nil, ErrConfirmMismatch
	}

	salt, err := newSalt()
	if err != nil {
		return nil, err
	}

	rec := &KeyRecord{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		Salt:      salt,
		PassHash:  hashPassphrase(passphrase, salt, s.params),
		CreatedAt: time.Now().UTC(),
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketKeys).Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("keyvault: put record: %w", err)
		}
		if err := tx.Bucket(bucketKeysOwner).Put(ownerKey(rec.OwnerID, rec.ID), []byte(rec.ID)); err != nil {
			return fmt.Errorf("keyvault: put owner index: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// Get retrieves a key record by id.
func (s *Store) Get(keyID string) (*KeyRecord, error) {
	var rec *KeyRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketKeys).Get([]byte(keyID))
		if data == nil {
			return ErrKeyNotFound
		}
		var err error
		rec, err = decodeRecord(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// VerifyPassphrase checks passphrase against the stored hash for keyID in
// constant time. On success the usage counter is incremented inside a single
// write transaction, so concurrent verifications of the same key never lose
// increments. A failed comparison leaves the counter untouched.
func (s *Store) VerifyPassphrase(keyID, passphrase string) error {
	rec, err := s.Get(keyID)
	if err != nil {
		return err
	}

	// The KDF is deliberately slow; run it outside any transaction so it
	// cannot stall other writers.
	if !matches(passphrase, rec.Salt, rec.PassHash, s.params) {
		return ErrPassphraseMismatch
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKeys)
		data := b.Get([]byte(keyID))
		if data == nil {
			return ErrKeyNotFound
		}
		current, err := decodeRecord(data)
		if err != nil {
			return err
		}
		current.UsageCount++
		updated, err := encodeRecord(current)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(keyID), updated); err != nil {
			return fmt.Errorf("keyvault: update usage count: %w", err)
		}
		return nil
	})
}

// ListByOwner returns all key records owned by ownerID, in creation-id order.
// An owner with no keys yields an empty slice, not an error.
func (s *Store) ListByOwner(ownerID string) ([]*KeyRecord, error) {
	records := []*KeyRecord{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		keys := tx.Bucket(bucketKeys)
		c := tx.Bucket(bucketKeysOwner).Cursor()
		prefix := ownerPrefix(ownerID)

		for k, id := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, id = c.Next() {
			data := keys.Get(id)
			if data == nil {
				continue // index entry for a missing record; skip
			}
			rec, err := decodeRecord(data)
			if err != nil {
				return err
			}
			// Owner scoping must hold on the record itself, not just the
			// index key it was found under.
			if rec.OwnerID != ownerID {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ownerKey builds the owner-index key ownerID || 0x00 || keyID. The NUL
// separator keeps one owner's prefix from matching another's.
func ownerKey(ownerID, keyID string) []byte {
	k := make([]byte, 0, len(ownerID)+1+len(keyID))
	k = append(k, ownerID...)
	k = append(k, 0)
	k = append(k, keyID...)
	return k
}

// ownerPrefix builds the cursor prefix for one owner's index entries.
func ownerPrefix(ownerID string) []byte {
	p := make([]byte, 0, len(ownerID)+1)
	p = append(p, ownerID...)
	p = append(p, 0)
	return p
}

// encodeRecord serializes a record using gob encoding.
func encodeRecord(rec *KeyRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("keyvault: encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeRecord deserializes a gob-encoded record.
func decodeRecord(data []byte) (*KeyRecord, error) {
	var rec KeyRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("keyvault: decode record: %w", err)
	}
	return &rec, nil
}
