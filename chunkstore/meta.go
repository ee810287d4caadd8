package chunkstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"time"
)

// ObjectMeta describes one committed object. The ciphertext itself lives in
// ordered chunks keyed by ID. Passphrases and key material never appear here.
type ObjectMeta struct {
	ID            string
	OwnerID       string
	Filename      string
	ContentType   string
	PlaintextSize int64
	Checksum      string // sha256 hex of the plaintext
	ChunkCount    uint32
	CreatedAt     time.Time
	ModifiedAt    time.Time
}

// objectKey builds the metadata key ownerID || 0x00 || filename. The NUL
// separator keeps one owner's prefix from matching another's.
func objectKey(ownerID, filename string) []byte {
	k := make([]byte, 0, len(ownerID)+1+len(filename))
	k = append(k, ownerID...)
	k = append(k, 0)
	k = append(k, filename...)
	return k
}

// objectPrefix builds the cursor prefix covering one owner's objects.
func objectPrefix(ownerID string) []byte {
	p := make([]byte, 0, len(ownerID)+1)
	p = append(p, ownerID...)
	p = append(p, 0)
	return p
}

// chunkKey builds the chunk key objectID || big-endian seq. Big-endian
// counters keep chunks cursor-ordered.
func chunkKey(objectID string, seq uint32) []byte {
	k := make([]byte, 0, len(objectID)+4)
	k = append(k, objectID...)
	k = binary.BigEndian.AppendUint32(k, seq)
	return k
}

// chunkPrefix builds the cursor prefix covering all chunks of one object.
func chunkPrefix(objectID string) []byte {
	return []byte(objectID)
}

// encodeMeta serializes metadata using gob encoding.
func encodeMeta(meta *ObjectMeta) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(meta); err != nil {
		return nil, fmt.Errorf("chunkstore: encode metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeMeta deserializes gob-encoded metadata.
func decodeMeta(data []byte) (*ObjectMeta, error) {
	var meta ObjectMeta
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&meta); err != nil {
		return nil, fmt.Errorf("chunkstore: decode metadata: %w", err)
	}
	return &meta, nil
}
