// Package crypto wraps the cryptographic capabilities used across
// photochain: SHA3-256 digests, MACs, symmetric and authenticated
// public-key encryption, and the deterministic expansion of a user
// secret into key material.
package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/sha3"

	"github.com/photochain-sys/photochain-go/codec"
)

const (
	// HashSizeByte is the size of all digests in bytes.
	HashSizeByte = 32
	// HashID identifies the hash algorithm in use.
	HashID = "SHA3-256"
)

// Digest hashes the concatenation of the given byte slices.
func Digest(ms ...[]byte) []byte {
	h := sha3.New256()
	for _, m := range ms {
		h.Write(m)
	}
	return h.Sum(nil)
}

// DataHash canonically encodes the given value and hashes the encoding.
func DataHash(v interface{}) ([]byte, error) {
	enc, err := codec.Encode(v)
	if err != nil {
		return nil, err
	}
	return Digest(enc), nil
}

// MakeRand generates a random slice of bytes and hashes it.
func MakeRand() ([]byte, error) {
	r := make([]byte, HashSizeByte)
	if _, err := rand.Read(r); err != nil {
		return nil, err
	}
	// Do not directly reveal bytes from rand.Read on the wire
	return Digest(r), nil
}
