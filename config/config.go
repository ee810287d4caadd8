// Package config loads and validates blobvault configuration.
//
// The configuration file is a plain key=value file, one entry per line.
// Lines starting with '#' and blank lines are ignored. Unknown keys are an
// error so typos surface at startup rather than as silently-ignored settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults for the key derivation cost. These match the Argon2id parameters
// used for passphrase hashing and stream key derivation.
const (
	DefaultKDFTime        = 3
	DefaultKDFMemoryKB    = 64 * 1024 // 64 MB
	DefaultKDFParallelism = 4

	// DefaultChunkSize is the plaintext chunk size for streaming encryption
	// and chunked persistence (64 KiB).
	DefaultChunkSize = 64 * 1024
)

// Config holds all runtime settings for a blobvault instance.
type Config struct {
	// DataDir is the root directory for the key and object databases.
	DataDir string

	// AllowedTypes is the MIME allow-list consulted by the upload gate.
	// Consulted as read-only configuration, loaded only at process start.
	AllowedTypes []string

	// ChunkSize is the plaintext bytes per encrypted chunk.
	ChunkSize int

	// Argon2id cost parameters.
	KDFTime        uint32
	KDFMemoryKB    uint32
	KDFParallelism uint8
}

// Default returns a Config with default costs and an empty allow-list,
// rooted at dataDir.
func Default(dataDir string) Config {
	return Config{
		DataDir:        dataDir,
		ChunkSize:      DefaultChunkSize,
		KDFTime:        DefaultKDFTime,
		KDFMemoryKB:    DefaultKDFMemoryKB,
		KDFParallelism: DefaultKDFParallelism,
	}
}

// Path returns the conventional config file location under dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "blobvault.conf")
}

// Load reads a config file. Missing file returns ErrConfigNotFound; the
// caller may fall back to Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, ErrConfigNotFound
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default(filepath.Dir(path))

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Config{}, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, i+1, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "data_dir":
			cfg.DataDir = value
		case "allowed_types":
			cfg.AllowedTypes = splitTypes(value)
		case "chunk_size":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Config{}, fmt.Errorf("%w: line %d: chunk_size: %q", ErrInvalidConfigLine, i+1, value)
			}
			cfg.ChunkSize = n
		case "kdf_time":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Config{}, fmt.Errorf("%w: line %d: kdf_time: %q", ErrInvalidConfigLine, i+1, value)
			}
			cfg.KDFTime = uint32(n)
		case "kdf_memory_kb":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Config{}, fmt.Errorf("%w: line %d: kdf_memory_kb: %q", ErrInvalidConfigLine, i+1, value)
			}
			cfg.KDFMemoryKB = uint32(n)
		case "kdf_parallelism":
			n, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return Config{}, fmt.Errorf("%w: line %d: kdf_parallelism: %q", ErrInvalidConfigLine, i+1, value)
			}
			cfg.KDFParallelism = uint8(n)
		default:
			return Config{}, fmt.Errorf("%w: line %d: unknown key %q", ErrInvalidConfigLine, i+1, key)
		}
	}

	return cfg, nil
}

// splitTypes parses a comma-separated MIME list, trimming whitespace and
// dropping empty entries.
func splitTypes(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
