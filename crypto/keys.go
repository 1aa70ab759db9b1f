package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrBadSignature is returned when a signature does not match its payload.
var ErrBadSignature = errors.New("signature verification failed")

// PrivateKey is a raw ed25519 private key.
type PrivateKey []byte

// PublicKey is a raw ed25519 public key. Its hex form is the account id.
type PublicKey []byte

// GenerateKey creates a fresh key pair from crypto/rand.
func GenerateKey() (PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return PrivateKey(priv), nil
}

// Public derives the public half of priv.
func (priv PrivateKey) Public() PublicKey {
	return PublicKey(ed25519.PrivateKey(priv).Public().(ed25519.PublicKey))
}

// Sign returns the hex-encoded signature of data.
func (priv PrivateKey) Sign(data []byte) string {
	return hex.EncodeToString(ed25519.Sign(ed25519.PrivateKey(priv), data))
}

// Hex returns the 64-char hex encoding used as account id.
func (pub PublicKey) Hex() string {
	return hex.EncodeToString(pub)
}

// Verify checks a hex-encoded signature over data.
func (pub PublicKey) Verify(data []byte, sigHex string) error {
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), data, sig) {
		return ErrBadSignature
	}
	return nil
}

// PublicKeyFromHex decodes an account id back into a public key.
func PublicKeyFromHex(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid pubkey hex: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("pubkey must be %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}
	return PublicKey(b), nil
}
