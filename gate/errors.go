package gate

import (
	"fmt"

	"github.com/blobvault/blobvault-go/fault"
)

var (
	// ErrMissingIdentity indicates an empty caller or key identifier.
	ErrMissingIdentity = fmt.Errorf("gate: missing caller or key id: %w", fault.ErrValidation)

	// ErrNotKeyOwner indicates the caller does not own the key.
	ErrNotKeyOwner = fmt.Errorf("gate: caller is not the key owner: %w", fault.ErrForbidden)
)
