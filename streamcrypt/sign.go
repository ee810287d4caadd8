package streamcrypt

import (
	"crypto/sha256"
	"fmt"
	"io"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Sign produces a detached DER-encoded ECDSA signature over the SHA-256
// digest of r. Signing is independent of encryption; it can cover plaintext
// or ciphertext, whichever provenance the caller wants to attest.
func Sign(r io.Reader, priv *ec.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, ErrNilKey
	}

	digest, err := streamDigest(r)
	if err != nil {
		return nil, err
	}

	sig, err := priv.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("streamcrypt: sign digest: %w", err)
	}
	return sig.Serialize(), nil
}

// Verify checks a detached signature produced by Sign against the SHA-256
// digest of r. A false result means the signature does not match; it is
// reported, never swallowed.
func Verify(r io.Reader, sigDER []byte, pub *ec.PublicKey) (bool, error) {
	if pub == nil {
		return false, ErrNilKey
	}

	sig, err := ec.ParseSignature(sigDER)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	digest, err := streamDigest(r)
	if err != nil {
		return false, err
	}

	return sig.Verify(digest, pub), nil
}

// streamDigest computes the SHA-256 digest of r with constant memory.
func streamDigest(r io.Reader) ([]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("streamcrypt: digest stream: %w", err)
	}
	return h.Sum(nil), nil
}
