package keyvault

import (
	"fmt"

	"github.com/blobvault/blobvault-go/fault"
)

var (
	// ErrMissingField indicates a required key-creation field is empty.
	ErrMissingField = fmt.Errorf("keyvault: missing required field: %w", fault.ErrValidation)

	// ErrConfirmMismatch indicates the passphrase confirmation did not match.
	ErrConfirmMismatch = fmt.Errorf("keyvault: passphrase confirmation mismatch: %w", fault.ErrValidation)

	// ErrKeyNotFound indicates no key record exists for the given id.
	ErrKeyNotFound = fmt.Errorf("keyvault: key not found: %w", fault.ErrNotFound)

	// ErrPassphraseMismatch indicates the supplied passphrase does not match
	// the stored hash.
	ErrPassphraseMismatch = fmt.Errorf("keyvault: passphrase mismatch: %w", fault.ErrAuthentication)
)
