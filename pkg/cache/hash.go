package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashKey builds a namespaced cache key: the prefix kept readable, the
// parts hashed. Parts are separated by a NUL byte before hashing so that
// ("a", "bc") and ("ab", "c") cannot produce the same key.
func hashKey(prefix string, parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of data. Mirror directory names and cache
// file names embed a prefix of it, which keeps same-named projects with
// different clone URLs apart on disk.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
