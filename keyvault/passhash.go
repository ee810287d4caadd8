package keyvault

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen = 16
	hashLen = 32
)

// KDFParams holds the Argon2id costs for passphrase hashing.
type KDFParams struct {
	Time        uint32
	MemoryKB    uint32
	Parallelism uint8
}

// DefaultKDFParams returns the production hashing costs (3 passes, 64 MB,
// 4 lanes).
func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 3, MemoryKB: 64 * 1024, Parallelism: 4}
}

// hashPassphrase derives the stored hash for a passphrase and salt. The raw
// passphrase never persists; only this irreversible output does.
func hashPassphrase(passphrase string, salt []byte, p KDFParams) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.MemoryKB, p.Parallelism, hashLen)
}

// newSalt generates a fresh random salt.
func newSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keyvault: generate salt: %w", err)
	}
	return salt, nil
}

// matches compares a candidate passphrase against a stored salt+hash in
// constant time.
func matches(passphrase string, salt, stored []byte, p KDFParams) bool {
	candidate := hashPassphrase(passphrase, salt, p)
	return subtle.ConstantTimeCompare(candidate, stored) == 1
}
