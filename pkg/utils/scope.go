package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ProjectScope maps a project path to a stable, filesystem-safe directory
// name. The readable prefix keeps state dirs inspectable, the hash suffix
// keeps distinct paths from colliding after sanitization.
func ProjectScope(path string) string {
	if path == "" {
		return "default"
	}

	sum := sha256.Sum256([]byte(path))

	base := strings.Trim(path, "/")
	base = strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-").Replace(base)
	base = strings.ToLower(base)
	if len(base) > 48 {
		base = base[len(base)-48:]
	}
	if base == "" {
		base = "root"
	}

	return base + "-" + hex.EncodeToString(sum[:4])
}
