// Defines public profiles: the user-published record carrying the
// encryption public key used for album sharing. Profiles are signed by
// the user's identity key so a server cannot swap keys undetected.

package protocol

import (
	"errors"

	"github.com/photochain-sys/photochain-go/codec"
	"github.com/photochain-sys/photochain-go/crypto/sign"
)

// ErrMalformedProfile is returned when profile bytes do not decode to
// a well-formed profile.
var ErrMalformedProfile = errors.New("protocol: malformed public profile")

// A PublicProfile binds a username to its public encryption key. The
// signature covers everything but itself and is produced by the user's
// identity signing key.
type PublicProfile struct {
	Username         string
	EncryptPublicKey []byte
	Metadata         []byte
	Signature        []byte
}

func (p *PublicProfile) signedPayload() ([]byte, error) {
	return codec.Encode(map[string]interface{}{
		"username":           p.Username,
		"encrypt_public_key": p.EncryptPublicKey,
		"metadata":           p.Metadata,
	})
}

// Sign (re)signs the profile with the given identity key.
func (p *PublicProfile) Sign(identity sign.PrivateKey) error {
	payload, err := p.signedPayload()
	if err != nil {
		return err
	}
	p.Signature = identity.Sign(payload)
	return nil
}

// VerifyBy checks the profile signature against the given identity
// verification key.
func (p *PublicProfile) VerifyBy(identity sign.PublicKey) bool {
	payload, err := p.signedPayload()
	if err != nil {
		return false
	}
	return identity.Verify(payload, p.Signature)
}

func (p *PublicProfile) toValue() map[string]interface{} {
	return map[string]interface{}{
		"username":           p.Username,
		"encrypt_public_key": p.EncryptPublicKey,
		"metadata":           p.Metadata,
		"signature":          p.Signature,
	}
}

// Encode serializes the profile canonically.
func (p *PublicProfile) Encode() ([]byte, error) {
	return codec.Encode(p.toValue())
}

func profileFromValue(v interface{}) (*PublicProfile, error) {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 4 {
		return nil, ErrMalformedProfile
	}
	username, ok := m["username"].(string)
	if !ok {
		return nil, ErrMalformedProfile
	}
	encryptPK, ok := m["encrypt_public_key"].([]byte)
	if !ok {
		return nil, ErrMalformedProfile
	}
	metadata, ok := m["metadata"].([]byte)
	if !ok {
		return nil, ErrMalformedProfile
	}
	signature, ok := m["signature"].([]byte)
	if !ok {
		return nil, ErrMalformedProfile
	}
	return &PublicProfile{
		Username:         username,
		EncryptPublicKey: encryptPK,
		Metadata:         metadata,
		Signature:        signature,
	}, nil
}

// DecodeProfile is the exact inverse of Encode.
func DecodeProfile(b []byte) (*PublicProfile, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return nil, ErrMalformedProfile
	}
	return profileFromValue(v)
}
