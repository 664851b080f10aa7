package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// SymmetricKeySize is the size of a secretbox key in bytes.
	SymmetricKeySize = 32

	nonceSize = 24
)

// ErrDecrypt is returned when a ciphertext fails to authenticate.
var ErrDecrypt = errors.New("crypto: decryption failed")

// A SymmetricKey encrypts and decrypts with an authenticated symmetric
// cipher. Ciphertexts are nonce-prefixed, so each Seal output is
// self-contained.
type SymmetricKey struct {
	key [SymmetricKeySize]byte
}

// GenerateSymmetricKey creates a fresh random key.
func GenerateSymmetricKey() (*SymmetricKey, error) {
	var k [SymmetricKeySize]byte
	if _, err := rand.Read(k[:]); err != nil {
		return nil, err
	}
	return &SymmetricKey{key: k}, nil
}

// NewSymmetricKey wraps existing key bytes.
func NewSymmetricKey(key []byte) (*SymmetricKey, error) {
	if len(key) != SymmetricKeySize {
		return nil, errors.New("crypto: symmetric key must be 32 bytes")
	}
	var k [SymmetricKeySize]byte
	copy(k[:], key)
	return &SymmetricKey{key: k}, nil
}

// Bytes returns the raw key bytes.
func (sk *SymmetricKey) Bytes() []byte {
	out := make([]byte, SymmetricKeySize)
	copy(out, sk.key[:])
	return out
}

// Seal encrypts and authenticates data under the key.
func (sk *SymmetricKey) Seal(data []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], data, &nonce, &sk.key), nil
}

// Open decrypts a nonce-prefixed ciphertext produced by Seal.
func (sk *SymmetricKey) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])
	plain, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, &sk.key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}
