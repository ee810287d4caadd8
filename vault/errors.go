package vault

import (
	"fmt"

	"github.com/blobvault/blobvault-go/fault"
)

var (
	// ErrEmptyBatch indicates an upload request with no files.
	ErrEmptyBatch = fmt.Errorf("vault: upload batch is empty: %w", fault.ErrValidation)

	// ErrMissingFile indicates an upload entry without a filename or content.
	ErrMissingFile = fmt.Errorf("vault: upload entry missing filename or content: %w", fault.ErrValidation)
)
