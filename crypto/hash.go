// Package crypto wraps the ed25519 keys and SHA-256 digests used to sign
// transactions and to derive the state root.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the SHA-256 digest of data as lowercase hex.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
