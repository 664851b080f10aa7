package crypto

import (
	"crypto/hmac"

	"golang.org/x/crypto/sha3"
)

// A MAC produces and checks message authentication codes under a
// shared symmetric key.
type MAC struct {
	key []byte
}

// NewMAC wraps the given symmetric key. If key is nil, a fresh random
// key is generated.
func NewMAC(key []byte) (*MAC, error) {
	if key == nil {
		var err error
		key, err = MakeRand()
		if err != nil {
			return nil, err
		}
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &MAC{key: k}, nil
}

// Sum computes the authenticator over data.
func (m *MAC) Sum(data []byte) []byte {
	h := hmac.New(sha3.New256, m.key)
	h.Write(data)
	return h.Sum(nil)
}

// Verify checks the authenticator against data in constant time.
func (m *MAC) Verify(data, tag []byte) bool {
	return hmac.Equal(m.Sum(data), tag)
}
