package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"

	"notewire/internal/domain"
)

const (
	KeyBytes  = 32
	SaltBytes = 16
	IVBytes   = 12

	// KDFIterations is the fixed PBKDF2-SHA256 iteration count for newly
	// written records. Unlock honours whatever count the record carries.
	KDFIterations = 310_000

	// CipherAlgorithm names the AEAD used for records written by this build.
	CipherAlgorithm = "aes-256-gcm"
)

// DeriveKey derives a 256-bit key from a passphrase and salt using
// PBKDF2-SHA256. Deterministic for identical inputs and deliberately
// expensive.
func DeriveKey(passphrase string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, KeyBytes, sha256.New)
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// NewIV returns a fresh random 96-bit IV.
func NewIV() ([]byte, error) {
	iv := make([]byte, IVBytes)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// Encrypt seals plaintext under key with AES-256-GCM. It fails only on an
// invalid key or IV length, which is a programmer error.
func Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key, iv)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, iv, plaintext, nil), nil
}

// Decrypt opens ciphertext sealed by Encrypt. Any authentication failure is
// reported as domain.ErrDecryptionFailed: a wrong passphrase and corrupted
// data cannot be told apart.
func Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	aead, err := newGCM(key, iv)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, domain.ErrDecryptionFailed
	}
	return pt, nil
}

func newGCM(key, iv []byte) (cipher.AEAD, error) {
	if len(key) != KeyBytes {
		return nil, errors.New("invalid key size")
	}
	if len(iv) != IVBytes {
		return nil, errors.New("invalid iv size")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
