// Package streamcrypt implements self-contained streaming authenticated
// encryption keyed by a passphrase.
//
// Stream layout:
//
//	magic(4) "BVLT" | version(1) | kdf time(4) | kdf memory KB(4) |
//	kdf parallelism(1) | chunk size(4) | salt(16) | nonce prefix(8)
//	then repeated frames: frameLen(4) | AES-256-GCM(chunk)
//
// The symmetric key is Argon2id(passphrase, salt) with the costs recorded in
// the header, so decryption needs only the stream and the passphrase. Each
// chunk is sealed with nonce = prefix || big-endian counter and the full
// header as additional authenticated data. The final frame sets the top bit
// of both the frame length and the nonce counter; a stream that ends without
// it is reported as truncated. Memory use is one chunk buffer regardless of
// stream size.
package streamcrypt

import (
	"golang.org/x/crypto/argon2"
)

const (
	// KeyLen is the derived AES-256 key length in bytes.
	KeyLen = 32

	// SaltLen is the per-stream Argon2id salt length in bytes.
	SaltLen = 16

	// NoncePrefixLen is the random per-stream nonce prefix length. The
	// remaining 4 nonce bytes are the big-endian chunk counter.
	NoncePrefixLen = 8

	// DefaultChunkSize is the default plaintext bytes per chunk (64 KiB).
	DefaultChunkSize = 64 * 1024

	// MaxChunkSize bounds the chunk size accepted from a stream header,
	// so a hostile header cannot force huge allocations (16 MiB).
	MaxChunkSize = 16 * 1024 * 1024

	// Argon2id cost caps accepted from a stream header.
	maxKDFTime     = 64
	maxKDFMemoryKB = 2 * 1024 * 1024 // 2 GB
)

// Params holds the Argon2id cost parameters and the chunk size used when
// producing a stream. Decryption reads them back from the stream header.
type Params struct {
	Time        uint32
	MemoryKB    uint32
	Parallelism uint8
	ChunkSize   int
}

// DefaultParams returns the production Argon2id costs (3 passes, 64 MB,
// 4 lanes) and the default chunk size.
func DefaultParams() Params {
	return Params{
		Time:        3,
		MemoryKB:    64 * 1024,
		Parallelism: 4,
		ChunkSize:   DefaultChunkSize,
	}
}

// valid reports whether the parameters are usable for derivation.
func (p Params) valid() bool {
	return p.Time > 0 && p.MemoryKB > 0 && p.Parallelism > 0 &&
		p.ChunkSize > 0 && p.ChunkSize <= MaxChunkSize
}

// deriveKey computes the 32-byte AES key from passphrase and salt.
func deriveKey(passphrase string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.MemoryKB, p.Parallelism, KeyLen)
}
