package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/curve25519"

	"github.com/photochain-sys/photochain-go/crypto/sign"
)

// UserSecretSize is the size of the root user secret in bytes.
const UserSecretSize = 32

// Key derivation domains. Each derived key hashes its domain string
// followed by the raw secret, so the derivations cannot collide.
const (
	domainAuthSecret   = "auth_secret"
	domainSymmetricKey = "symmetric_key"
	domainSigningKey   = "signing_key_pair"
	domainEncryptKey   = "encrypt_and_auth_key_pair"
)

// A UserSecret is the root of a user's key material. All derived keys
// are a pure function of the secret bytes, so a user can recover every
// key on a new device from the secret alone.
type UserSecret struct {
	secret []byte
}

// NewUserSecret wraps the given 32-byte secret. If secret is nil, a
// fresh one is generated.
func NewUserSecret(secret []byte) (*UserSecret, error) {
	if secret == nil {
		secret = make([]byte, UserSecretSize)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	if len(secret) != UserSecretSize {
		return nil, errors.New("crypto: user secret must be 32 bytes")
	}
	s := make([]byte, UserSecretSize)
	copy(s, secret)
	return &UserSecret{secret: s}, nil
}

// Secret returns the raw secret bytes.
func (us *UserSecret) Secret() []byte {
	s := make([]byte, UserSecretSize)
	copy(s, us.secret)
	return s
}

func (us *UserSecret) derive(domain string) []byte {
	return Digest([]byte(domain), us.secret)
}

// AuthSecret returns the credential presented to the server on
// register/login. It carries no weight for log integrity.
func (us *UserSecret) AuthSecret() []byte {
	return us.derive(domainAuthSecret)
}

// SymmetricKey returns the user's symmetric MAC key.
func (us *UserSecret) SymmetricKey() []byte {
	return us.derive(domainSymmetricKey)
}

// SigningKey returns the user's identity signing key. Every device of
// the same user derives the identical key, which anchors trust in the
// first entry of the user's log.
func (us *UserSecret) SigningKey() sign.PrivateKey {
	return sign.NewKeyFromSeed(us.derive(domainSigningKey))
}

// EncryptionKey returns the user's authenticated-encryption key pair,
// used to wrap album keys for friends.
func (us *UserSecret) EncryptionKey() (*BoxKey, error) {
	seed := us.derive(domainEncryptKey)
	var sk [32]byte
	copy(sk[:], seed)
	var pk [32]byte
	curve25519.ScalarBaseMult(&pk, &sk)
	return &BoxKey{private: sk, public: pk}, nil
}
