package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/highwayhash"
)

// fingerprintKey is the fixed HighwayHash key. Fingerprints are content
// identifiers, not MACs, so the key is public.
var fingerprintKey = []byte("taintview-fingerprint-key-000000")

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
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

// Fingerprint returns a 16-character hex HighwayHash-64 of data. It is used
// to identify traces and graphs, which can be large.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", highwayhash.Sum64(data, fingerprintKey))
}

// FingerprintReader is [Fingerprint] over a stream.
func FingerprintReader(r io.Reader) (string, error) {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
