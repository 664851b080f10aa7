package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/box"
)

// BoxPublicKeySize is the size of a public encryption key in bytes.
const BoxPublicKeySize = 32

// A BoxKey performs authenticated public-key encryption: a message
// sealed for a recipient both hides the plaintext from everyone else
// and proves which sender produced it.
type BoxKey struct {
	private [32]byte
	public  [32]byte
}

// GenerateBoxKey creates a fresh random encryption key pair.
func GenerateBoxKey() (*BoxKey, error) {
	pk, sk, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &BoxKey{private: *sk, public: *pk}, nil
}

// PublicKey returns the public half of the key pair.
func (bk *BoxKey) PublicKey() []byte {
	out := make([]byte, BoxPublicKeySize)
	copy(out, bk.public[:])
	return out
}

// SealFor encrypts and authenticates data for the given recipient
// public key. The nonce is prefixed to the ciphertext.
func (bk *BoxKey) SealFor(data, recipientPK []byte) ([]byte, error) {
	peer, err := toKey(recipientPK)
	if err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return box.Seal(nonce[:], data, &nonce, peer, &bk.private), nil
}

// OpenFrom decrypts a nonce-prefixed ciphertext sealed by the holder
// of senderPK for this key.
func (bk *BoxKey) OpenFrom(ciphertext, senderPK []byte) ([]byte, error) {
	peer, err := toKey(senderPK)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < nonceSize {
		return nil, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])
	plain, ok := box.Open(nil, ciphertext[nonceSize:], &nonce, peer, &bk.private)
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}

func toKey(pk []byte) (*[32]byte, error) {
	if len(pk) != BoxPublicKeySize {
		return nil, errors.New("crypto: encryption public key must be 32 bytes")
	}
	var k [32]byte
	copy(k[:], pk)
	return &k, nil
}
