package config

import "errors"

var (
	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidChunkSize indicates the chunk size is not a positive integer.
	ErrInvalidChunkSize = errors.New("config: chunk size must be positive")

	// ErrInvalidKDFParams indicates an Argon2id cost parameter is zero.
	ErrInvalidKDFParams = errors.New("config: KDF parameters must be positive")

	// ErrInvalidMIMEType indicates an allow-list entry is not a valid media type.
	ErrInvalidMIMEType = errors.New("config: invalid MIME type in allow-list")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
