// Implements the shared-album wire format. An album lives on the
// server only as an encrypted snapshot: photos are sealed under a
// symmetric album key, and the album key is wrapped individually for
// each member with authenticated public-key encryption. Access control
// is key availability, not server policy.

package protocol

import (
	"errors"

	"github.com/photochain-sys/photochain-go/codec"
	"github.com/photochain-sys/photochain-go/crypto"
	"github.com/photochain-sys/photochain-go/crypto/sign"
)

var (
	// ErrMalformedAlbum is returned when album bytes do not decode.
	ErrMalformedAlbum = errors.New("protocol: malformed album")
	// ErrAlbumAccess is returned when the caller holds no valid grant
	// for the album's current key.
	ErrAlbumAccess = errors.New("protocol: no access to album key")
)

// An Album is the plaintext view a member reconstructs locally.
type Album struct {
	Photos   [][]byte
	Owner    string
	Friends  map[string]*PublicProfile
	Metadata map[string]interface{}
}

// AddPhoto appends a photo blob to the album.
func (a *Album) AddPhoto(photo []byte) {
	a.Photos = append(a.Photos, photo)
}

// AddFriend grants the given profile's owner membership.
func (a *Album) AddFriend(profile *PublicProfile) {
	a.Friends[profile.Username] = profile
}

// RemoveFriend revokes the given user's membership.
func (a *Album) RemoveFriend(username string) {
	delete(a.Friends, username)
}

// An AlbumGrant is one member's entry in the encrypted snapshot: their
// profile plus the album key wrapped from the owner to them.
type AlbumGrant struct {
	Profile    *PublicProfile
	WrappedKey []byte
}

// An EncryptedAlbum is the complete snapshot stored on the server.
// Every mutating operation rebuilds and re-uploads it wholesale.
type EncryptedAlbum struct {
	Owner    string
	Photos   [][]byte // sealed under the album key
	Friends  map[string]*AlbumGrant
	Metadata []byte
}

// SealAlbum encrypts a plaintext album under the given key, attaching
// the provided per-member wrapped keys. Members re-sealing after an
// added photo pass the wrapped keys through from the snapshot they
// fetched; only the owner mints new ones.
func SealAlbum(a *Album, key *crypto.SymmetricKey, wrapped map[string][]byte) (*EncryptedAlbum, error) {
	sealed := make([][]byte, 0, len(a.Photos))
	for _, photo := range a.Photos {
		ct, err := key.Seal(photo)
		if err != nil {
			return nil, err
		}
		sealed = append(sealed, ct)
	}
	grants := make(map[string]*AlbumGrant, len(a.Friends))
	for username, profile := range a.Friends {
		wk, ok := wrapped[username]
		if !ok {
			return nil, ErrAlbumAccess
		}
		grants[username] = &AlbumGrant{Profile: profile, WrappedKey: wk}
	}
	metadata, err := codec.Encode(a.Metadata)
	if err != nil {
		return nil, err
	}
	return &EncryptedAlbum{
		Owner:    a.Owner,
		Photos:   sealed,
		Friends:  grants,
		Metadata: metadata,
	}, nil
}

// Open decrypts the snapshot for the given member. The owner's profile
// inside the snapshot is verified against ownerIdentity before its
// encryption key is trusted as the wrap sender; the member's own box
// key then unwraps the album key. Returns the plaintext album and the
// recovered key (needed to re-seal after adding a photo).
func (ea *EncryptedAlbum) Open(username string, boxKey *crypto.BoxKey,
	ownerIdentity sign.PublicKey) (*Album, *crypto.SymmetricKey, error) {
	grant, ok := ea.Friends[username]
	if !ok {
		return nil, nil, ErrAlbumAccess
	}
	ownerGrant, ok := ea.Friends[ea.Owner]
	if !ok {
		return nil, nil, ErrMalformedAlbum
	}
	if !ownerGrant.Profile.VerifyBy(ownerIdentity) {
		return nil, nil, ErrMalformedAlbum
	}

	keyBytes, err := boxKey.OpenFrom(grant.WrappedKey, ownerGrant.Profile.EncryptPublicKey)
	if err != nil {
		return nil, nil, ErrAlbumAccess
	}
	key, err := crypto.NewSymmetricKey(keyBytes)
	if err != nil {
		return nil, nil, ErrMalformedAlbum
	}

	photos := make([][]byte, 0, len(ea.Photos))
	for _, ct := range ea.Photos {
		plain, err := key.Open(ct)
		if err != nil {
			return nil, nil, ErrMalformedAlbum
		}
		photos = append(photos, plain)
	}

	metaVal, err := codec.Decode(ea.Metadata)
	if err != nil {
		return nil, nil, ErrMalformedAlbum
	}
	metadata, ok := metaVal.(map[string]interface{})
	if !ok {
		return nil, nil, ErrMalformedAlbum
	}

	friends := make(map[string]*PublicProfile, len(ea.Friends))
	for name, g := range ea.Friends {
		friends[name] = g.Profile
	}
	return &Album{
		Photos:   photos,
		Owner:    ea.Owner,
		Friends:  friends,
		Metadata: metadata,
	}, key, nil
}

// WrappedKeys returns the per-member wrapped album keys of the
// snapshot, keyed by username.
func (ea *EncryptedAlbum) WrappedKeys() map[string][]byte {
	out := make(map[string][]byte, len(ea.Friends))
	for name, g := range ea.Friends {
		out[name] = g.WrappedKey
	}
	return out
}

// Encode serializes the snapshot canonically for transport/storage.
func (ea *EncryptedAlbum) Encode() ([]byte, error) {
	photos := make([]interface{}, len(ea.Photos))
	for i, p := range ea.Photos {
		photos[i] = p
	}
	friends := make(map[string]interface{}, len(ea.Friends))
	for name, g := range ea.Friends {
		friends[name] = map[string]interface{}{
			"profile":     g.Profile.toValue(),
			"wrapped_key": g.WrappedKey,
		}
	}
	return codec.Encode(map[string]interface{}{
		"owner":    ea.Owner,
		"photos":   photos,
		"friends":  friends,
		"metadata": ea.Metadata,
	})
}

// DecodeEncryptedAlbum is the exact inverse of Encode.
func DecodeEncryptedAlbum(b []byte) (*EncryptedAlbum, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return nil, ErrMalformedAlbum
	}
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 4 {
		return nil, ErrMalformedAlbum
	}
	owner, ok := m["owner"].(string)
	if !ok {
		return nil, ErrMalformedAlbum
	}
	metadata, ok := m["metadata"].([]byte)
	if !ok {
		return nil, ErrMalformedAlbum
	}
	rawPhotos, ok := m["photos"].([]interface{})
	if !ok {
		return nil, ErrMalformedAlbum
	}
	photos := make([][]byte, 0, len(rawPhotos))
	for _, rp := range rawPhotos {
		p, ok := rp.([]byte)
		if !ok {
			return nil, ErrMalformedAlbum
		}
		photos = append(photos, p)
	}
	rawFriends, ok := m["friends"].(map[string]interface{})
	if !ok {
		return nil, ErrMalformedAlbum
	}
	friends := make(map[string]*AlbumGrant, len(rawFriends))
	for name, rg := range rawFriends {
		gm, ok := rg.(map[string]interface{})
		if !ok || len(gm) != 2 {
			return nil, ErrMalformedAlbum
		}
		profile, err := profileFromValue(gm["profile"])
		if err != nil {
			return nil, err
		}
		wk, ok := gm["wrapped_key"].([]byte)
		if !ok {
			return nil, ErrMalformedAlbum
		}
		friends[name] = &AlbumGrant{Profile: profile, WrappedKey: wk}
	}
	return &EncryptedAlbum{
		Owner:    owner,
		Photos:   photos,
		Friends:  friends,
		Metadata: metadata,
	}, nil
}
