package chunkstore

import (
	"errors"
	"fmt"

	"github.com/blobvault/blobvault-go/fault"
)

var (
	// ErrMissingField indicates an empty owner id or filename.
	ErrMissingField = fmt.Errorf("chunkstore: missing required field: %w", fault.ErrValidation)

	// ErrObjectExists indicates a committed object already occupies
	// (owner, filename) and overwrite was not requested.
	ErrObjectExists = fmt.Errorf("chunkstore: object already exists: %w", fault.ErrConflict)

	// ErrConcurrentWrite indicates another write handle is open for the same
	// (owner, filename). Concurrent writers race; they are rejected, not
	// serialized silently.
	ErrConcurrentWrite = fmt.Errorf("chunkstore: concurrent write in progress: %w", fault.ErrConflict)

	// ErrObjectNotFound indicates no committed object exists for
	// (owner, filename).
	ErrObjectNotFound = fmt.Errorf("chunkstore: object not found: %w", fault.ErrNotFound)

	// ErrOwnerMismatch indicates a loaded record's owner field does not match
	// the caller. The owner-scoped key should make this impossible; the
	// record is still double-checked so a key-construction bug cannot leak
	// another owner's object.
	ErrOwnerMismatch = fmt.Errorf("chunkstore: caller is not the object owner: %w", fault.ErrForbidden)

	// ErrHandleClosed indicates an append or commit on a handle that was
	// already committed or aborted.
	ErrHandleClosed = fmt.Errorf("chunkstore: write handle is closed: %w", fault.ErrValidation)

	// ErrEmptyChunk indicates an attempt to append a zero-length chunk.
	ErrEmptyChunk = fmt.Errorf("chunkstore: chunk is empty: %w", fault.ErrValidation)

	// ErrIncompleteObject indicates stored chunks do not match the committed
	// chunk count. The object is torn; reads fail rather than yield a prefix.
	ErrIncompleteObject = errors.New("chunkstore: stored chunks incomplete")
)
