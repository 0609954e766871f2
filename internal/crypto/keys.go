package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/nbd-wtf/go-nostr"

	"notewire/internal/domain"
)

// GeneratePrivateKey returns a fresh secp256k1 private key as 64 hex
// characters.
func GeneratePrivateKey() string {
	return nostr.GeneratePrivateKey()
}

// ValidatePrivateKey checks that raw is a well-formed private key: 64 hex
// characters encoding a valid scalar.
func ValidatePrivateKey(raw string) error {
	if len(raw) != 64 {
		return domain.ErrInvalidKeyFormat
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return domain.ErrInvalidKeyFormat
	}
	if _, err := nostr.GetPublicKey(raw); err != nil {
		return domain.ErrInvalidKeyFormat
	}
	return nil
}

// PublicKeyOf derives the schnorr public key for a raw private key.
func PublicKeyOf(raw string) (string, error) {
	pub, err := nostr.GetPublicKey(raw)
	if err != nil {
		return "", domain.ErrInvalidKeyFormat
	}
	return pub, nil
}

// ContentHash returns the SHA-256 hex digest of a note's text, used to
// detect drift between local and last-published state.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
