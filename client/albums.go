// Implements the shared-album client operations. Albums live on the
// server as opaque encrypted snapshots; membership is enforced by key
// possession. Only the owner changes membership, and removing a member
// rotates the album key so nothing added afterwards is readable by the
// removed user.

package client

import (
	"errors"

	"github.com/photochain-sys/photochain-go/crypto"
	"github.com/photochain-sys/photochain-go/crypto/sign"
	"github.com/photochain-sys/photochain-go/protocol"
)

// CreateSharedAlbum creates an album owned by this user, shared with
// the given friends (each of whom must have been added via AddFriend),
// containing the given initial photos.
func (c *Client) CreateSharedAlbum(name string, photos [][]byte, friends []string) error {
	ownProfile, err := c.signedProfile()
	if err != nil {
		return err
	}
	album := &protocol.Album{
		Owner:    c.username,
		Friends:  map[string]*protocol.PublicProfile{c.username: ownProfile},
		Metadata: map[string]interface{}{"name": name},
	}
	for _, p := range photos {
		album.AddPhoto(p)
	}
	for _, friend := range friends {
		profile, err := c.GetFriendPublicProfile(friend)
		if err != nil {
			return err
		}
		album.AddFriend(profile)
	}

	key, err := crypto.GenerateSymmetricKey()
	if err != nil {
		return err
	}
	wrapped, err := c.wrapAlbumKey(key, album.Friends)
	if err != nil {
		return err
	}
	ea, err := protocol.SealAlbum(album, key, wrapped)
	if err != nil {
		return err
	}
	return c.uploadAlbum(name, ea)
}

// wrapAlbumKey wraps the album key from this user to every member
// profile given.
func (c *Client) wrapAlbumKey(key *crypto.SymmetricKey,
	members map[string]*protocol.PublicProfile) (map[string][]byte, error) {
	wrapped := make(map[string][]byte, len(members))
	for username, profile := range members {
		wk, err := c.boxKey.SealFor(key.Bytes(), profile.EncryptPublicKey)
		if err != nil {
			return nil, err
		}
		wrapped[username] = wk
	}
	return wrapped, nil
}

func (c *Client) uploadAlbum(name string, ea *protocol.EncryptedAlbum) error {
	blob, err := ea.Encode()
	if err != nil {
		return err
	}
	resp, err := c.do(protocol.UploadAlbumType, &protocol.UploadAlbumRequest{
		ClientID:  c.clientID,
		Username:  c.username,
		Token:     c.token,
		AlbumName: name,
		AlbumBlob: blob,
	})
	if err != nil {
		return err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
		return nil
	case protocol.ErrInvalidToken:
		return ErrInvalidToken
	default:
		return resp.Error
	}
}

func (c *Client) fetchAlbum(name string) (*protocol.EncryptedAlbum, error) {
	resp, err := c.do(protocol.GetAlbumType, &protocol.GetAlbumRequest{
		ClientID:  c.clientID,
		Username:  c.username,
		Token:     c.token,
		AlbumName: name,
	})
	if err != nil {
		return nil, err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
	case protocol.ErrInvalidToken:
		return nil, ErrInvalidToken
	case protocol.ErrAlbumDoesNotExist:
		return nil, ErrAlbumDoesNotExist
	default:
		return nil, resp.Error
	}
	body, ok := resp.Body.(*protocol.AlbumResult)
	if !ok {
		return nil, syncErr(errors.New("malformed album response"))
	}
	ea, err := protocol.DecodeEncryptedAlbum(body.AlbumBlob)
	if err != nil {
		return nil, syncErr(err)
	}
	return ea, nil
}

// knownIdentity resolves the trust anchor for an album's owner:
// this user's own identity, or the identity key the owner was added
// with as a friend.
func (c *Client) knownIdentity(owner string) (sign.PublicKey, error) {
	if owner == c.username {
		return c.identityPK(), nil
	}
	f, ok := c.friends[owner]
	if !ok {
		return nil, ErrUnknownUser
	}
	return f.identity, nil
}

func (c *Client) openAlbum(ea *protocol.EncryptedAlbum) (*protocol.Album, *crypto.SymmetricKey, error) {
	// the membership check comes first: a non-member learns nothing,
	// not even whether the owner is someone they know
	if _, ok := ea.Friends[c.username]; !ok {
		return nil, nil, ErrAlbumPermission
	}
	ownerIdentity, err := c.knownIdentity(ea.Owner)
	if err != nil {
		return nil, nil, err
	}
	album, key, err := ea.Open(c.username, c.boxKey, ownerIdentity)
	if err == protocol.ErrAlbumAccess {
		return nil, nil, ErrAlbumPermission
	}
	if err != nil {
		return nil, nil, syncErr(err)
	}
	return album, key, nil
}

// GetAlbum fetches and decrypts an album, returning its photos. A
// caller who is not a current member gets ErrAlbumPermission and
// learns nothing about the contents.
func (c *Client) GetAlbum(name string) ([][]byte, error) {
	ea, err := c.fetchAlbum(name)
	if err != nil {
		return nil, err
	}
	album, _, err := c.openAlbum(ea)
	if err != nil {
		return nil, err
	}
	return album.Photos, nil
}

// AddPhotoToAlbum appends a photo to an album this user is a member
// of. The snapshot is re-sealed under the current key with the
// existing grants carried over.
func (c *Client) AddPhotoToAlbum(name string, photo []byte) error {
	ea, err := c.fetchAlbum(name)
	if err != nil {
		return err
	}
	album, key, err := c.openAlbum(ea)
	if err != nil {
		return err
	}
	album.AddPhoto(photo)
	resealed, err := protocol.SealAlbum(album, key, ea.WrappedKeys())
	if err != nil {
		return err
	}
	return c.uploadAlbum(name, resealed)
}

// AddFriendToAlbum grants a friend access to an album this user owns.
// The existing key is wrapped for the new member; photos already in
// the album become visible to them.
func (c *Client) AddFriendToAlbum(name, friend string) error {
	ea, err := c.fetchAlbum(name)
	if err != nil {
		return err
	}
	album, key, err := c.openAlbum(ea)
	if err != nil {
		return err
	}
	if album.Owner != c.username {
		return ErrNotAlbumOwner
	}
	profile, err := c.GetFriendPublicProfile(friend)
	if err != nil {
		return err
	}
	album.AddFriend(profile)

	wrapped := ea.WrappedKeys()
	wk, err := c.boxKey.SealFor(key.Bytes(), profile.EncryptPublicKey)
	if err != nil {
		return err
	}
	wrapped[friend] = wk

	resealed, err := protocol.SealAlbum(album, key, wrapped)
	if err != nil {
		return err
	}
	return c.uploadAlbum(name, resealed)
}

// RemoveFriendFromAlbum revokes a member's access to an album this
// user owns. The album key is rotated and everything is re-sealed, so
// content added from now on is unreadable by the removed member. Each
// remaining member's stored profile is re-verified before the new key
// is wrapped for it, so a snapshot with a substituted profile cannot
// capture the rotated key.
func (c *Client) RemoveFriendFromAlbum(name, friend string) error {
	ea, err := c.fetchAlbum(name)
	if err != nil {
		return err
	}
	album, _, err := c.openAlbum(ea)
	if err != nil {
		return err
	}
	if album.Owner != c.username {
		return ErrNotAlbumOwner
	}
	album.RemoveFriend(friend)

	for username, profile := range album.Friends {
		if username == c.username {
			continue
		}
		identity, err := c.knownIdentity(username)
		if err != nil {
			return err
		}
		if !profile.VerifyBy(identity) {
			return syncErr(errors.New("album member profile fails identity verification"))
		}
	}

	key, err := crypto.GenerateSymmetricKey()
	if err != nil {
		return err
	}
	wrapped, err := c.wrapAlbumKey(key, album.Friends)
	if err != nil {
		return err
	}
	resealed, err := protocol.SealAlbum(album, key, wrapped)
	if err != nil {
		return err
	}
	return c.uploadAlbum(name, resealed)
}
