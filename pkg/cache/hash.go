package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/docmap/pkg/model"
)

// hashKey builds prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// SnapshotHash hashes the JSON encoding of s. Node and edge order is part
// of the hash because it is part of the drawing.
func SnapshotHash(s model.Snapshot) string {
	data, err := json.Marshal(s)
	if err != nil {
		// Non-finite positions do not encode; never share an entry then.
		return ""
	}
	return Hash(data)
}

// keyType is the namespace of a key as reported to cache hooks. Scoped
// prefixes are looked through.
func keyType(key string) string {
	for _, t := range []string{"artifact", "edges"} {
		if strings.HasPrefix(key, t+":") || strings.Contains(key, ":"+t+":") {
			return t
		}
	}
	return "other"
}
