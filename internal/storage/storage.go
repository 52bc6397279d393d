package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Backend names accepted by New
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// New creates the storage backend selected by config
func New(config Config) (Storage, error) {
	switch config.Backend {
	case "", BackendLocal:
		return NewLocalStorage(config)
	case BackendS3:
		return NewS3Storage(config)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", config.Backend)
	}
}

// sanitizeID encodes an ID as a file name or object key segment. Letters,
// digits, '.' and '-' are kept; every other byte becomes _XX in hex. The
// encoding is injective and never produces "__", which diffName relies on.
func sanitizeID(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("id is required")
	}
	if id != filepath.Base(id) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid id %q", id)
	}

	var sb strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		if isSafeIDByte(c) {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "_%02X", c)
	}
	return sb.String(), nil
}

func isSafeIDByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '.' || c == '-'
}

// diffName names the stored diff between two backups
func diffName(sourceID, targetID string) (string, error) {
	source, err := sanitizeID(sourceID)
	if err != nil {
		return "", fmt.Errorf("source: %w", err)
	}
	target, err := sanitizeID(targetID)
	if err != nil {
		return "", fmt.Errorf("target: %w", err)
	}
	return source + "__" + target, nil
}
