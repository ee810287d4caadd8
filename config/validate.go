package config

import (
	"fmt"
	"strings"
)

// Validate checks that all configuration values are within acceptable ranges
// and returns the first error encountered, or nil if valid.
func Validate(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	if cfg.KDFTime == 0 || cfg.KDFMemoryKB == 0 || cfg.KDFParallelism == 0 {
		return ErrInvalidKDFParams
	}

	for _, mt := range cfg.AllowedTypes {
		if err := validateMIME(mt); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidMIMEType, mt)
		}
	}

	return nil
}

// validateMIME checks that s looks like a "type/subtype" media type.
func validateMIME(s string) error {
	major, minor, ok := strings.Cut(s, "/")
	if !ok || major == "" || minor == "" {
		return ErrInvalidMIMEType
	}
	return nil
}
