package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// digestKey joins namespace and the SHA-256 of the JSON encoding of parts.
// Struct fields encode in declaration order and map keys sorted, so equal
// inputs always give equal keys.
func digestKey(namespace string, parts ...any) string {
	// Key parts are plain data, which always encodes.
	data, _ := json.Marshal(parts)
	return namespace + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. Letters are identified by the
// hash of their rendered content, and file cache entries are named by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
