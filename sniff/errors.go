package sniff

import (
	"fmt"

	"github.com/blobvault/blobvault-go/fault"
)

var (
	// ErrTypeNotAllowed indicates a file whose sniffed type is outside the
	// allow-list. One offending file rejects its entire batch.
	ErrTypeNotAllowed = fmt.Errorf("sniff: content type not allowed: %w", fault.ErrUnsupportedType)
)
