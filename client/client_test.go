package client

import (
	"bytes"
	"errors"
	"testing"

	"github.com/photochain-sys/photochain-go/codec"
	"github.com/photochain-sys/photochain-go/server"
	"github.com/photochain-sys/photochain-go/server/testutil"
)

func newHonestServer() *server.PhotoServer {
	return server.NewPhotoServer(server.NewMemStore())
}

func registerClient(t *testing.T, svc server.Service, username string) *Client {
	t.Helper()
	c, err := New(username, nil, NewLocalTransport(svc))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Register(); err != nil {
		t.Fatal(err)
	}
	return c
}

// siblingDevice creates and logs in a second device of the same user.
func siblingDevice(t *testing.T, svc server.Service, c *Client) *Client {
	t.Helper()
	d, err := New(c.Username(), c.Secret(), NewLocalTransport(svc))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Login(); err != nil {
		t.Fatal(err)
	}
	return d
}

// authorizeDevice runs the full invite/accept flow for d2. The server
// keeps one token per user, so each device logs in before it acts.
func authorizeDevice(t *testing.T, d1, d2 *Client) {
	t.Helper()
	if err := d1.Login(); err != nil {
		t.Fatal(err)
	}
	if err := d1.InviteDevice(d2.DevicePublicKey()); err != nil {
		t.Fatal(err)
	}
	if err := d2.Login(); err != nil {
		t.Fatal(err)
	}
	if err := d2.Synchronize(); err != nil {
		t.Fatal(err)
	}
	if err := d2.AcceptInvite(d1.DevicePublicKey()); err != nil {
		t.Fatal(err)
	}
}

func wantSyncError(t *testing.T, err error) {
	t.Helper()
	var se *SynchronizationError
	if !errors.As(err, &se) {
		t.Fatalf("expected SynchronizationError, got %v", err)
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	srv := newHonestServer()
	registerClient(t, srv, "alice")

	squatter, err := New("alice", nil, NewLocalTransport(srv))
	if err != nil {
		t.Fatal(err)
	}
	if err := squatter.Register(); err != ErrUserAlreadyExists {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
	// a client with the wrong secret derives the wrong auth secret
	if err := squatter.Login(); err != ErrLoginFailed {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
}

func TestPutGetListPhotos(t *testing.T) {
	srv := newHonestServer()
	alice := registerClient(t, srv, "alice")

	p0, p1 := []byte("photo zero"), []byte("photo one")
	id0, err := alice.PutPhoto(p0)
	if err != nil {
		t.Fatal(err)
	}
	id1, err := alice.PutPhoto(p1)
	if err != nil {
		t.Fatal(err)
	}
	if id0 != 0 || id1 != 1 {
		t.Fatalf("expected ids 0 and 1, got %d and %d", id0, id1)
	}

	got, err := alice.GetPhoto(id0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, p0) {
		t.Fatal("fetched photo differs from stored")
	}
	ids, err := alice.ListPhotos()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Fatalf("unexpected photo ids %v", ids)
	}

	if _, err := alice.GetPhoto(42); err != ErrPhotoDoesNotExist {
		t.Fatalf("expected ErrPhotoDoesNotExist, got %v", err)
	}
}

func TestStaleTokenRecovery(t *testing.T) {
	srv := newHonestServer()
	alice := registerClient(t, srv, "alice")

	// a sibling login invalidates the registration token
	siblingDevice(t, srv, alice)

	if _, err := alice.PutPhoto([]byte("p")); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := alice.Login(); err != nil {
		t.Fatal(err)
	}
	if _, err := alice.PutPhoto([]byte("p")); err != nil {
		t.Fatal(err)
	}
}

func TestSecondDeviceFlow(t *testing.T) {
	srv := newHonestServer()
	d1 := registerClient(t, srv, "alice")
	if _, err := d1.PutPhoto([]byte("from d1")); err != nil {
		t.Fatal(err)
	}

	d2 := siblingDevice(t, srv, d1)
	if err := d2.Synchronize(); err != nil {
		t.Fatal(err)
	}
	ids, err := d2.ListPhotos()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Fatalf("second device sees %d photos, want 1", len(ids))
	}
	got, err := d2.GetPhoto(0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("from d1")) {
		t.Fatal("photo differs across devices")
	}

	// not yet authorized
	if _, err := d2.PutPhoto([]byte("too early")); err != ErrDeviceNotAuthorized {
		t.Fatalf("expected ErrDeviceNotAuthorized, got %v", err)
	}
	if err := d2.AcceptInvite(d1.DevicePublicKey()); err != ErrDeviceNotAuthorized {
		t.Fatalf("accept without invite: expected ErrDeviceNotAuthorized, got %v", err)
	}

	authorizeDevice(t, d1, d2)
	if _, err := d2.PutPhoto([]byte("from d2")); err != nil {
		t.Fatal(err)
	}

	if err := d1.Login(); err != nil {
		t.Fatal(err)
	}
	if err := d1.Synchronize(); err != nil {
		t.Fatal(err)
	}
	got, err = d1.GetPhoto(1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("from d2")) {
		t.Fatal("first device does not see second device's photo")
	}
}

func TestRevokedDeviceCannotAppend(t *testing.T) {
	srv := newHonestServer()
	d1 := registerClient(t, srv, "alice")
	d2 := siblingDevice(t, srv, d1)
	authorizeDevice(t, d1, d2)

	if err := d1.Login(); err != nil {
		t.Fatal(err)
	}
	if err := d1.Synchronize(); err != nil {
		t.Fatal(err)
	}
	if err := d1.RevokeDevice(d2.DevicePublicKey()); err != nil {
		t.Fatal(err)
	}
	if err := d2.Login(); err != nil {
		t.Fatal(err)
	}
	if err := d2.Synchronize(); err != nil {
		t.Fatal(err)
	}
	if _, err := d2.PutPhoto([]byte("after revoke")); err != ErrDeviceNotAuthorized {
		t.Fatalf("expected ErrDeviceNotAuthorized, got %v", err)
	}
}

// A revoked device that never learns of its revocation can still push
// an entry (the server is blind), but every verifier replaying the log
// must reject the history from that point.
func TestRevokedDeviceEntryDetected(t *testing.T) {
	srv := newHonestServer()
	d1 := registerClient(t, srv, "alice")
	d2 := siblingDevice(t, srv, d1)
	authorizeDevice(t, d1, d2)

	if err := d1.Login(); err != nil {
		t.Fatal(err)
	}
	if err := d1.Synchronize(); err != nil {
		t.Fatal(err)
	}
	if err := d1.RevokeDevice(d2.DevicePublicKey()); err != nil {
		t.Fatal(err)
	}
	if _, err := d1.PutPhoto([]byte("legit")); err != nil {
		t.Fatal(err)
	}
	// d2 pulls the log through a server concealing everything after
	// its last sync, so its local replay still shows it authorized;
	// the push lands in the real history regardless
	d2.transport = NewLocalTransport(&testutil.RollbackServer{Service: srv, Length: 3})
	if err := d2.Login(); err != nil {
		t.Fatal(err)
	}
	if _, err := d2.PutPhoto([]byte("illegit")); err != nil {
		t.Fatal(err)
	}

	bob := registerClient(t, srv, "bob")
	bob.AddFriend("alice", d1.IdentityPublicKey())
	wantSyncError(t, bob.SynchronizeFriend("alice"))

	// even a server that suppresses the revocation entry cannot make
	// the history verify
	omitting := testutil.NewOmitEntryServer(srv, 3)
	carol := registerClient(t, srv, "carol")
	carol.transport = NewLocalTransport(omitting)
	carol.AddFriend("alice", d1.IdentityPublicKey())
	wantSyncError(t, carol.SynchronizeFriend("alice"))
}

// A device that fell behind its sibling must catch up before
// appending, so interleaved puts from two devices never leave an
// entry signed against a stale chain position.
func TestInterleavedDevicePuts(t *testing.T) {
	srv := newHonestServer()
	d1 := registerClient(t, srv, "alice")
	d2 := siblingDevice(t, srv, d1)
	authorizeDevice(t, d1, d2)

	if err := d1.Login(); err != nil {
		t.Fatal(err)
	}
	if _, err := d1.PutPhoto([]byte("p0")); err != nil {
		t.Fatal(err)
	}
	// d2 last pulled the log before d1's append
	if err := d2.Login(); err != nil {
		t.Fatal(err)
	}
	id, err := d2.PutPhoto([]byte("p1"))
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Fatalf("expected photo id 1, got %d", id)
	}

	// the combined history still verifies from scratch
	verifier := siblingDevice(t, srv, d1)
	ids, err := verifier.ListPhotos()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("verifier sees %d photos, want 2", len(ids))
	}
}

func TestUpdatePublicProfile(t *testing.T) {
	srv := newHonestServer()
	alice := registerClient(t, srv, "alice")
	if err := alice.UpdatePublicProfile(map[string]interface{}{"bio": "hiking photos"}); err != nil {
		t.Fatal(err)
	}

	bob := registerClient(t, srv, "bob")
	bob.AddFriend("alice", alice.IdentityPublicKey())
	profile, err := bob.GetFriendPublicProfile("alice")
	if err != nil {
		t.Fatal(err)
	}
	meta, err := codec.Decode(profile.Metadata)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := meta.(map[string]interface{})
	if !ok || m["bio"] != "hiking photos" {
		t.Fatalf("unexpected profile metadata %v", meta)
	}

	// a stale token cannot push a profile
	siblingDevice(t, srv, alice)
	if err := alice.UpdatePublicProfile(map[string]interface{}{"bio": "x"}); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTamperedHistoryDetected(t *testing.T) {
	srv := newHonestServer()
	alice := registerClient(t, srv, "alice")
	if _, err := alice.PutPhoto([]byte("p0")); err != nil {
		t.Fatal(err)
	}
	if _, err := alice.PutPhoto([]byte("p1")); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		svc  server.Service
	}{
		{"replayed entry", testutil.NewReplayEntryServer(srv, 1)},
		{"omitted entry", testutil.NewOmitEntryServer(srv, 1)},
		{"reordered entries", testutil.NewSwapEntriesServer(srv, 1, 2)},
		{"overwritten entry", testutil.NewOverwriteEntryServer(srv, 1, []byte("forged"))},
		{"swapped blob", &testutil.SwapBlobServer{Service: srv, PhotoID: 0, Blob: []byte("other")}},
		{"swapped photo ids", &testutil.SwapPhotoIDServer{Service: srv, A: 0, B: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			victim := siblingDevice(t, tc.svc, alice)
			wantSyncError(t, victim.Synchronize())
		})
	}
}

func TestRollbackDetected(t *testing.T) {
	srv := newHonestServer()
	alice := registerClient(t, srv, "alice")
	if _, err := alice.PutPhoto([]byte("p0")); err != nil {
		t.Fatal(err)
	}

	victim := siblingDevice(t, srv, alice)
	if err := victim.Synchronize(); err != nil {
		t.Fatal(err)
	}

	victim.transport = NewLocalTransport(&testutil.RollbackServer{Service: srv, Length: 1})
	wantSyncError(t, victim.Synchronize())
}

// A brand-new device replaying from scratch must also reject every
// tampered history, not just devices that saw the honest prefix.
func TestFreshReplayRejectsForgedRegistration(t *testing.T) {
	srv := newHonestServer()
	alice := registerClient(t, srv, "alice")

	// mallory registers under her own secret but alice's name cannot
	// exist; instead she serves bob a fabricated alice built from her
	// own identity key
	mallorySrv := newHonestServer()
	mallory, err := New("alice", nil, NewLocalTransport(mallorySrv))
	if err != nil {
		t.Fatal(err)
	}
	if err := mallory.Register(); err != nil {
		t.Fatal(err)
	}

	bob := registerClient(t, mallorySrv, "bob")
	bob.AddFriend("alice", alice.IdentityPublicKey())
	wantSyncError(t, bob.SynchronizeFriend("alice"))
}
