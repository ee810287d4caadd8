// Package fault defines the error taxonomy shared by every blobvault
// component. Each sentinel carries a stable code; components wrap them with
// fmt.Errorf("pkg: context: %w", fault.ErrX) and callers discriminate with
// errors.Is. None of these failures are transient — callers must not retry.
package fault

import "errors"

var (
	// ErrValidation indicates malformed or missing caller input.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedType indicates content whose sniffed type is outside the
	// configured allow-list.
	ErrUnsupportedType = errors.New("unsupported content type")

	// ErrAuthentication indicates a passphrase that fails verification, or a
	// ciphertext whose authentication tag does not verify.
	ErrAuthentication = errors.New("authentication failed")

	// ErrForbidden indicates the caller is not the owner of the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the key or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate object key while writing.
	ErrConflict = errors.New("conflict")
)

// Code returns the stable string code for err, or "internal" if err does not
// wrap one of the taxonomy sentinels.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
