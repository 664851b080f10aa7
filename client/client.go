// Package client implements the photochain client: one device of one
// user. The client treats the server as untrusted storage. Every log
// entry pulled during synchronization is replayed through a verified
// hash chain, every photo blob is checked against the hash its log
// entry committed to, and any mismatch halts the sync with a
// SynchronizationError.
package client

import (
	"bytes"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/photochain-sys/photochain-go/codec"
	"github.com/photochain-sys/photochain-go/crypto"
	"github.com/photochain-sys/photochain-go/crypto/sign"
	"github.com/photochain-sys/photochain-go/protocol"
)

// A Client is a single device acting on behalf of one user. Devices of
// the same user share the user secret (and therefore the identity key)
// but each holds its own device signing key, which must be authorized
// through the invite/accept flow before the device may append entries.
type Client struct {
	clientID  string
	username  string
	secret    *crypto.UserSecret
	deviceKey sign.PrivateKey
	identity  sign.PrivateKey
	boxKey    *crypto.BoxKey
	transport Transport
	token     string

	chain       *protocol.ChainState
	photoHashes map[int64][]byte
	photoCount  int64
	friends     map[string]*friendState
	profileMeta map[string]interface{}
}

// New creates a device for the given user. A nil secret generates a
// fresh one (first device of a new user); sibling devices pass the
// user's existing secret.
func New(username string, secret *crypto.UserSecret, transport Transport) (*Client, error) {
	secret, err := crypto.NewUserSecret(secretBytes(secret))
	if err != nil {
		return nil, err
	}
	deviceKey, err := sign.GenerateKey()
	if err != nil {
		return nil, err
	}
	boxKey, err := secret.EncryptionKey()
	if err != nil {
		return nil, err
	}
	identity := secret.SigningKey()
	identityPK, ok := identity.Public()
	if !ok {
		return nil, errors.New("client: bad identity key")
	}
	return &Client{
		clientID:    uuid.New().String(),
		username:    username,
		secret:      secret,
		deviceKey:   deviceKey,
		identity:    identity,
		boxKey:      boxKey,
		transport:   transport,
		chain:       protocol.NewChainState(identityPK),
		photoHashes: make(map[int64][]byte),
		friends:     make(map[string]*friendState),
		profileMeta: map[string]interface{}{},
	}, nil
}

func secretBytes(s *crypto.UserSecret) []byte {
	if s == nil {
		return nil
	}
	return s.Secret()
}

// Username returns the user this device acts for.
func (c *Client) Username() string {
	return c.username
}

// Secret returns the user secret, for provisioning sibling devices.
func (c *Client) Secret() *crypto.UserSecret {
	return c.secret
}

// DevicePublicKey returns this device's signing public key, the value
// an existing device passes to InviteDevice.
func (c *Client) DevicePublicKey() []byte {
	pk, _ := c.deviceKey.Public()
	return []byte(pk)
}

func (c *Client) identityPK() sign.PublicKey {
	pk, _ := c.identity.Public()
	return pk
}

// IdentityPublicKey returns the user's identity verification key, the
// value friends exchange out of band and pass to AddFriend.
func (c *Client) IdentityPublicKey() sign.PublicKey {
	return c.identityPK()
}

func (c *Client) do(reqType int, body interface{}) (*protocol.Response, error) {
	resp, err := c.transport.Do(&protocol.Request{Type: reqType, Request: body})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, syncErr(errors.New("empty response"))
	}
	return resp, nil
}

// signedProfile builds and signs this user's current public profile.
func (c *Client) signedProfile() (*protocol.PublicProfile, error) {
	metadata, err := codec.Encode(c.profileMeta)
	if err != nil {
		return nil, err
	}
	p := &protocol.PublicProfile{
		Username:         c.username,
		EncryptPublicKey: c.boxKey.PublicKey(),
		Metadata:         metadata,
	}
	if err := p.Sign(c.identity); err != nil {
		return nil, err
	}
	return p, nil
}

// Register creates the user's account. The device signs the REGISTER
// entry that becomes index 0 of the history, certified by the identity
// key so that every later verifier can anchor trust in it.
func (c *Client) Register() error {
	entryData, err := (protocol.RegisterData{}).Encode()
	if err != nil {
		return err
	}
	cert := c.identity.Sign(c.DevicePublicKey())
	e, err := protocol.NewSignedEntry(c.chain.NextVersion(), c.chain.LastHash(),
		c.deviceKey, cert, protocol.LogEntry{Opcode: protocol.OpRegister, Data: entryData})
	if err != nil {
		return err
	}
	encoded, err := e.Encode()
	if err != nil {
		return err
	}
	profile, err := c.signedProfile()
	if err != nil {
		return err
	}
	profileBytes, err := profile.Encode()
	if err != nil {
		return err
	}

	resp, err := c.do(protocol.RegisterType, &protocol.RegisterRequest{
		ClientID:   c.clientID,
		Username:   c.username,
		AuthSecret: c.secret.AuthSecret(),
		Profile:    profileBytes,
		LogEntry:   encoded,
	})
	if err != nil {
		return err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
	case protocol.ErrUserAlreadyExists:
		return ErrUserAlreadyExists
	default:
		return resp.Error
	}
	auth, ok := resp.Body.(*protocol.AuthResult)
	if !ok {
		return syncErr(errors.New("malformed register response"))
	}
	c.token = auth.Token
	return c.applyLocal(encoded)
}

// Login obtains a fresh session token, invalidating any previous one.
func (c *Client) Login() error {
	resp, err := c.do(protocol.LoginType, &protocol.LoginRequest{
		ClientID:   c.clientID,
		Username:   c.username,
		AuthSecret: c.secret.AuthSecret(),
	})
	if err != nil {
		return err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
	case protocol.ErrLoginFailed:
		return ErrLoginFailed
	default:
		return resp.Error
	}
	auth, ok := resp.Body.(*protocol.AuthResult)
	if !ok {
		return syncErr(errors.New("malformed login response"))
	}
	c.token = auth.Token
	return nil
}

// UpdatePublicProfile replaces the metadata published in this user's
// profile. The profile is re-signed with the identity key, so friends
// keep verifying it against the same trust anchor.
func (c *Client) UpdatePublicProfile(metadata map[string]interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	c.profileMeta = metadata
	profile, err := c.signedProfile()
	if err != nil {
		return err
	}
	profileBytes, err := profile.Encode()
	if err != nil {
		return err
	}
	resp, err := c.do(protocol.UpdateProfileType, &protocol.UpdateProfileRequest{
		ClientID: c.clientID,
		Username: c.username,
		Token:    c.token,
		Profile:  profileBytes,
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

// applyLocal folds an encoded entry this device just appended into the
// local replay state.
func (c *Client) applyLocal(encoded []byte) error {
	e, err := c.chain.Apply(encoded)
	if err != nil {
		return syncErr(err)
	}
	return c.fold(e)
}

// fold updates derived photo state from a chain-verified entry.
func (c *Client) fold(e *protocol.SignedLogEntry) error {
	if e.Entry.Opcode != protocol.OpPutPhoto {
		return nil
	}
	d, err := protocol.DecodePutPhotoData(e.Entry.Data)
	if err != nil {
		return syncErr(err)
	}
	c.photoHashes[d.PhotoID] = d.PhotoHash
	if d.PhotoID >= c.photoCount {
		c.photoCount = d.PhotoID + 1
	}
	return nil
}

// ensureAuthorized checks this device's standing in the local replay
// before signing an entry, so an unauthorized device fails fast
// instead of appending an entry every verifier would reject.
func (c *Client) ensureAuthorized(op protocol.OpCode) error {
	state := c.chain.Registry().State(c.DevicePublicKey())
	if op == protocol.OpAcceptInvite {
		if state != protocol.DeviceInvited {
			return ErrDeviceNotAuthorized
		}
		return nil
	}
	if state != protocol.DeviceAuthorized {
		return ErrDeviceNotAuthorized
	}
	return nil
}

// appendEntry signs a log entry at the current chain position, pushes
// it, and folds it into local state. The local chain enforces the same
// authorization rules every other verifier will apply to the entry.
func (c *Client) appendEntry(entry protocol.LogEntry) error {
	if err := c.ensureAuthorized(entry.Opcode); err != nil {
		return err
	}
	e, err := protocol.NewSignedEntry(c.chain.NextVersion(), c.chain.LastHash(),
		c.deviceKey, nil, entry)
	if err != nil {
		return err
	}
	encoded, err := e.Encode()
	if err != nil {
		return err
	}
	resp, err := c.do(protocol.PushLogEntryType, &protocol.PushLogEntryRequest{
		ClientID: c.clientID,
		Username: c.username,
		Token:    c.token,
		LogEntry: encoded,
	})
	if err != nil {
		return err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
		return c.applyLocal(encoded)
	case protocol.ErrInvalidToken:
		return ErrInvalidToken
	default:
		return resp.Error
	}
}

// PutPhoto stores a photo and appends the log entry committing to its
// contents. The device synchronizes first so the entry is signed at
// the true end of the history; an entry signed at a stale position
// would be rejected by every verifier forever. Returns the photo id.
func (c *Client) PutPhoto(blob []byte) (int64, error) {
	if err := c.Synchronize(); err != nil {
		return 0, err
	}
	if err := c.ensureAuthorized(protocol.OpPutPhoto); err != nil {
		return 0, err
	}
	id := c.photoCount
	data, err := (&protocol.PutPhotoData{PhotoID: id, PhotoHash: crypto.Digest(blob)}).Encode()
	if err != nil {
		return 0, err
	}
	e, err := protocol.NewSignedEntry(c.chain.NextVersion(), c.chain.LastHash(),
		c.deviceKey, nil, protocol.LogEntry{Opcode: protocol.OpPutPhoto, Data: data})
	if err != nil {
		return 0, err
	}
	encoded, err := e.Encode()
	if err != nil {
		return 0, err
	}
	resp, err := c.do(protocol.PutPhotoType, &protocol.PutPhotoRequest{
		ClientID:  c.clientID,
		Username:  c.username,
		Token:     c.token,
		LogEntry:  encoded,
		PhotoBlob: blob,
		PhotoID:   id,
	})
	if err != nil {
		return 0, err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
		return id, c.applyLocal(encoded)
	case protocol.ErrInvalidToken:
		return 0, ErrInvalidToken
	default:
		return 0, resp.Error
	}
}

// fetchPhoto pulls one blob and checks it against the hash the log
// committed to. A missing or mismatching blob is tampering, not a
// not-found condition: the log proves the photo was stored.
func (c *Client) fetchPhoto(owner string, id int64, wantHash []byte) ([]byte, error) {
	resp, err := c.do(protocol.GetPhotoType, &protocol.GetPhotoRequest{
		ClientID:   c.clientID,
		Username:   c.username,
		Token:      c.token,
		PhotoID:    id,
		PhotoOwner: owner,
	})
	if err != nil {
		return nil, err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
	case protocol.ErrInvalidToken:
		return nil, ErrInvalidToken
	case protocol.ErrPhotoDoesNotExist:
		return nil, syncErr(errors.New("server dropped a logged photo"))
	default:
		return nil, resp.Error
	}
	body, ok := resp.Body.(*protocol.PhotoResult)
	if !ok {
		return nil, syncErr(errors.New("malformed photo response"))
	}
	if !bytes.Equal(crypto.Digest(body.PhotoBlob), wantHash) {
		return nil, syncErr(errors.New("photo blob does not match logged hash"))
	}
	return body.PhotoBlob, nil
}

// GetPhoto fetches one of this user's photos, verified against the
// replayed log. Synchronizes first so photos stored by sibling
// devices are visible.
func (c *Client) GetPhoto(id int64) ([]byte, error) {
	if err := c.Synchronize(); err != nil {
		return nil, err
	}
	hash, ok := c.photoHashes[id]
	if !ok {
		return nil, ErrPhotoDoesNotExist
	}
	return c.fetchPhoto(c.username, id, hash)
}

// ListPhotos synchronizes and returns the ids of all photos recorded
// in the replayed log, in ascending order.
func (c *Client) ListPhotos() ([]int64, error) {
	if err := c.Synchronize(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(c.photoHashes))
	for id := range c.photoHashes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Synchronize pulls and verifies all log entries this device has not
// yet seen. Any verification failure aborts with SynchronizationError
// and leaves the already-verified prefix intact.
func (c *Client) Synchronize() error {
	resp, err := c.do(protocol.SynchronizeType, &protocol.SynchronizeRequest{
		ClientID:   c.clientID,
		Username:   c.username,
		Token:      c.token,
		MinVersion: c.chain.NextVersion(),
	})
	if err != nil {
		return err
	}
	switch resp.Error {
	case protocol.ReqSuccess:
	case protocol.ErrInvalidToken:
		return ErrInvalidToken
	case protocol.ErrVersionTooHigh:
		// the server claims fewer entries than this device has already
		// verified
		return syncErr(errors.New("server history rolled back"))
	default:
		return resp.Error
	}
	body, ok := resp.Body.(*protocol.SyncResult)
	if !ok {
		return syncErr(errors.New("malformed synchronize response"))
	}
	for _, encoded := range body.Entries {
		e, err := c.chain.Apply(encoded)
		if err != nil {
			return syncErr(err)
		}
		if err := c.fold(e); err != nil {
			return err
		}
		if e.Entry.Opcode == protocol.OpPutPhoto {
			d, err := protocol.DecodePutPhotoData(e.Entry.Data)
			if err != nil {
				return syncErr(err)
			}
			if _, err := c.fetchPhoto(c.username, d.PhotoID, d.PhotoHash); err != nil {
				return err
			}
		}
	}
	return nil
}

// InviteDevice starts the authorization flow for another device of
// this user, identified by its signing public key.
func (c *Client) InviteDevice(devicePK []byte) error {
	data, err := (&protocol.InviteDeviceData{PublicKey: devicePK}).Encode()
	if err != nil {
		return err
	}
	return c.appendEntry(protocol.LogEntry{Opcode: protocol.OpInviteDevice, Data: data})
}

// AcceptInvite completes this device's authorization. The device must
// have synchronized past its own invite first.
func (c *Client) AcceptInvite(inviterPK []byte) error {
	data, err := (&protocol.AcceptInviteData{InviterKey: inviterPK}).Encode()
	if err != nil {
		return err
	}
	return c.appendEntry(protocol.LogEntry{Opcode: protocol.OpAcceptInvite, Data: data})
}

// RevokeDevice permanently revokes another device of this user.
func (c *Client) RevokeDevice(devicePK []byte) error {
	data, err := (&protocol.RevokeDeviceData{PublicKey: devicePK}).Encode()
	if err != nil {
		return err
	}
	return c.appendEntry(protocol.LogEntry{Opcode: protocol.OpRevokeDevice, Data: data})
}
