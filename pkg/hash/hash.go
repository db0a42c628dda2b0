package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Digest returns the first n hex characters of SHA256(input), or the full
// hash when n is out of range.
func Digest(input string, n int) string {
	full := SHA256Hex(input)
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}

// NormalizedKey builds a cache key of the form "prefix:<digest>" from
// free-form text. Case and surrounding whitespace do not change the key.
func NormalizedKey(prefix, text string, n int) string {
	return prefix + ":" + Digest(strings.ToLower(strings.TrimSpace(text)), n)
}
