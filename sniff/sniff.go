// Package sniff detects true content types from leading magic bytes and
// enforces the upload allow-list. Client-declared filenames and MIME types
// are untrusted and never consulted.
package sniff

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SniffLen is the number of leading bytes inspected. Matches the detection
// library's default read limit.
const SniffLen = 3072

// Detect returns the sniffed MIME type of data, without parameters
// ("text/plain", never "text/plain; charset=utf-8"). Unrecognized content
// reports "application/octet-stream".
func Detect(data []byte) string {
	if len(data) > SniffLen {
		data = data[:SniffLen]
	}
	mt := mimetype.Detect(data).String()
	if base, _, ok := strings.Cut(mt, ";"); ok {
		return strings.TrimSpace(base)
	}
	return mt
}

// Sniffer gates uploads against a fixed allow-list. The allow-list is
// read-only configuration, set at construction.
type Sniffer struct {
	allowed map[string]bool
}

// New builds a Sniffer permitting exactly the given MIME types.
func New(allowList []string) *Sniffer {
	allowed := make(map[string]bool, len(allowList))
	for _, mt := range allowList {
		allowed[mt] = true
	}
	return &Sniffer{allowed: allowed}
}

// IsAllowed reports whether mime is on the allow-list.
func (s *Sniffer) IsAllowed(mime string) bool {
	return s.allowed[mime]
}

// Check sniffs data and returns its detected type, or an error if the type
// is outside the allow-list. name is used only for error context.
func (s *Sniffer) Check(name string, data []byte) (string, error) {
	detected := Detect(data)
	if !s.IsAllowed(detected) {
		return "", fmt.Errorf("%w: %q sniffed as %s", ErrTypeNotAllowed, name, detected)
	}
	return detected, nil
}
