package streamcrypt

import (
	"fmt"

	"github.com/blobvault/blobvault-go/fault"
)

var (
	// ErrEmptyPassphrase indicates an empty passphrase was supplied.
	ErrEmptyPassphrase = fmt.Errorf("streamcrypt: passphrase must not be empty: %w", fault.ErrValidation)

	// ErrInvalidParams indicates a zero Argon2id cost or non-positive chunk size.
	ErrInvalidParams = fmt.Errorf("streamcrypt: invalid derivation parameters: %w", fault.ErrValidation)

	// ErrInvalidFormat indicates the stream header or framing is malformed.
	// A corrupted header is indistinguishable from tampering, so this is an
	// authentication failure, not a validation failure.
	ErrInvalidFormat = fmt.Errorf("streamcrypt: malformed or corrupted stream: %w", fault.ErrAuthentication)

	// ErrAuthenticationFailed indicates a chunk authentication tag did not
	// verify: wrong passphrase, or tampered ciphertext.
	ErrAuthenticationFailed = fmt.Errorf("streamcrypt: ciphertext authentication failed: %w", fault.ErrAuthentication)

	// ErrTruncated indicates the ciphertext stream ended before the final
	// chunk marker. Truncation is tampering.
	ErrTruncated = fmt.Errorf("streamcrypt: ciphertext stream truncated: %w", fault.ErrAuthentication)

	// ErrClosed indicates a write to an already-closed encryptor.
	ErrClosed = fmt.Errorf("streamcrypt: encryptor is closed: %w", fault.ErrValidation)

	// ErrStreamTooLong indicates the chunk counter space was exhausted.
	ErrStreamTooLong = fmt.Errorf("streamcrypt: stream exceeds maximum chunk count: %w", fault.ErrValidation)

	// ErrNilKey indicates a nil signing or verification key.
	ErrNilKey = fmt.Errorf("streamcrypt: key is nil: %w", fault.ErrValidation)

	// ErrInvalidSignature indicates a detached signature that could not be parsed.
	ErrInvalidSignature = fmt.Errorf("streamcrypt: malformed signature: %w", fault.ErrValidation)
)
