// Implements the friend side of the client: following another user's
// log and fetching their photos. Trust in a friend is established out
// of band by exchanging identity verification keys; everything the
// server serves about the friend is checked against that anchor.

package client

import (
	"errors"

	"github.com/photochain-sys/photochain-go/crypto/sign"
	"github.com/photochain-sys/photochain-go/protocol"
)

// friendState is the per-friend replay state, the friend-side mirror
// of the client's own chain.
type friendState struct {
	identity    sign.PublicKey
	chain       *protocol.ChainState
	photoHashes map[int64][]byte
	photoCount  int64
}

// AddFriend registers another user locally, anchored by their identity
// verification key obtained out of band. Until a user is added, every
// friend operation on them fails with ErrUnknownUser.
func (c *Client) AddFriend(username string, identity sign.PublicKey) {
	if _, ok := c.friends[username]; ok {
		return
	}
	c.friends[username] = &friendState{
		identity:    identity,
		chain:       protocol.NewChainState(identity),
		photoHashes: make(map[int64][]byte),
	}
}

func (c *Client) friend(username string) (*friendState, error) {
	f, ok := c.friends[username]
	if !ok {
		return nil, ErrUnknownUser
	}
	return f, nil
}

// FriendIdentity returns the identity key a friend was added with.
func (c *Client) FriendIdentity(username string) (sign.PublicKey, error) {
	f, err := c.friend(username)
	if err != nil {
		return nil, err
	}
	return f.identity, nil
}

// SynchronizeFriend pulls and verifies the friend's log suffix. A
// friend whose history is empty after a full pull was never registered.
func (c *Client) SynchronizeFriend(username string) error {
	f, err := c.friend(username)
	if err != nil {
		return err
	}
	resp, err := c.do(protocol.SynchronizeFriendType, &protocol.SynchronizeFriendRequest{
		ClientID:       c.clientID,
		FriendUsername: username,
		MinVersion:     f.chain.NextVersion(),
	})
	if err != nil {
		return err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
	case protocol.ErrVersionTooHigh:
		return syncErr(errors.New("friend history rolled back"))
	default:
		return resp.Error
	}
	body, ok := resp.Body.(*protocol.SyncResult)
	if !ok {
		return syncErr(errors.New("malformed synchronize response"))
	}
	for _, encoded := range body.Entries {
		e, err := f.chain.Apply(encoded)
		if err != nil {
			return syncErr(err)
		}
		if e.Entry.Opcode != protocol.OpPutPhoto {
			continue
		}
		d, err := protocol.DecodePutPhotoData(e.Entry.Data)
		if err != nil {
			return syncErr(err)
		}
		f.photoHashes[d.PhotoID] = d.PhotoHash
		if d.PhotoID >= f.photoCount {
			f.photoCount = d.PhotoID + 1
		}
	}
	if f.chain.NextVersion() == 0 {
		return ErrUnknownUser
	}
	return nil
}

// GetFriendPhotos synchronizes the friend's log and returns all their
// photos in id order, each verified against the hash their log
// committed to.
func (c *Client) GetFriendPhotos(username string) ([][]byte, error) {
	if err := c.SynchronizeFriend(username); err != nil {
		return nil, err
	}
	f := c.friends[username]
	photos := make([][]byte, 0, len(f.photoHashes))
	for id := int64(0); id < f.photoCount; id++ {
		hash, ok := f.photoHashes[id]
		if !ok {
			continue
		}
		blob, err := c.fetchPhoto(username, id, hash)
		if err != nil {
			return nil, err
		}
		photos = append(photos, blob)
	}
	return photos, nil
}

// GetFriendPublicProfile fetches and verifies a friend's public
// profile. A profile that fails its identity-key signature is
// tampering, never returned.
func (c *Client) GetFriendPublicProfile(username string) (*protocol.PublicProfile, error) {
	f, err := c.friend(username)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(protocol.GetFriendProfileType, &protocol.GetFriendProfileRequest{
		ClientID:       c.clientID,
		Username:       c.username,
		Token:          c.token,
		FriendUsername: username,
	})
	if err != nil {
		return nil, err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
	case protocol.ErrInvalidToken:
		return nil, ErrInvalidToken
	default:
		return nil, resp.Error
	}
	body, ok := resp.Body.(*protocol.ProfileResult)
	if !ok {
		return nil, syncErr(errors.New("malformed profile response"))
	}
	if len(body.Profile) == 0 {
		return nil, ErrUnknownUser
	}
	profile, err := protocol.DecodeProfile(body.Profile)
	if err != nil {
		return nil, syncErr(err)
	}
	if profile.Username != username || !profile.VerifyBy(f.identity) {
		return nil, syncErr(errors.New("friend profile fails identity verification"))
	}
	return profile, nil
}
