package client

import (
	"bytes"
	"testing"

	"github.com/photochain-sys/photochain-go/server/testutil"
)

// befriend exchanges identity keys both ways, the out-of-band step of
// the friend protocol.
func befriend(a, b *Client) {
	a.AddFriend(b.Username(), b.IdentityPublicKey())
	b.AddFriend(a.Username(), a.IdentityPublicKey())
}

func TestFriendPhotos(t *testing.T) {
	srv := newHonestServer()
	alice := registerClient(t, srv, "alice")
	bob := registerClient(t, srv, "bob")
	befriend(alice, bob)

	if _, err := alice.PutPhoto([]byte("a0")); err != nil {
		t.Fatal(err)
	}
	if _, err := alice.PutPhoto([]byte("a1")); err != nil {
		t.Fatal(err)
	}

	photos, err := bob.GetFriendPhotos("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 2 || !bytes.Equal(photos[0], []byte("a0")) || !bytes.Equal(photos[1], []byte("a1")) {
		t.Fatal("friend photos differ from originals")
	}

	// incremental: a later photo shows up on the next pull
	if _, err := alice.PutPhoto([]byte("a2")); err != nil {
		t.Fatal(err)
	}
	photos, err = bob.GetFriendPhotos("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(photos))
	}

	if _, err := bob.GetFriendPhotos("carol"); err != ErrUnknownUser {
		t.Fatalf("expected ErrUnknownUser for never-added friend, got %v", err)
	}
	bob.AddFriend("dave", alice.IdentityPublicKey())
	if _, err := bob.GetFriendPhotos("dave"); err != ErrUnknownUser {
		t.Fatalf("expected ErrUnknownUser for unregistered friend, got %v", err)
	}
}

func TestFriendProfileVerification(t *testing.T) {
	srv := newHonestServer()
	alice := registerClient(t, srv, "alice")
	bob := registerClient(t, srv, "bob")
	befriend(alice, bob)

	profile, err := bob.GetFriendPublicProfile("alice")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Username != "alice" {
		t.Fatalf("unexpected profile username %q", profile.Username)
	}

	// a server swapping in a profile signed by a different identity is
	// caught by the signature check
	mallory, err := New("alice", nil, NewLocalTransport(srv))
	if err != nil {
		t.Fatal(err)
	}
	forged, err := mallory.signedProfile()
	if err != nil {
		t.Fatal(err)
	}
	forgedBytes, err := forged.Encode()
	if err != nil {
		t.Fatal(err)
	}
	bob.transport = NewLocalTransport(&testutil.SwapProfileServer{
		Service: srv, Username: "alice", Profile: forgedBytes,
	})
	wantSyncError(t, mustFail(t, func() error {
		_, err := bob.GetFriendPublicProfile("alice")
		return err
	}))
}

func mustFail(t *testing.T, f func() error) error {
	t.Helper()
	err := f()
	if err == nil {
		t.Fatal("expected an error")
	}
	return err
}

func TestAlbumLifecycle(t *testing.T) {
	srv := newHonestServer()
	alice := registerClient(t, srv, "alice")
	bob := registerClient(t, srv, "bob")
	carol := registerClient(t, srv, "carol")
	befriend(alice, bob)
	befriend(alice, carol)

	if err := alice.CreateSharedAlbum("m", [][]byte{[]byte("p0")}, []string{"bob"}); err != nil {
		t.Fatal(err)
	}

	photos, err := bob.GetAlbum("m")
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 1 || !bytes.Equal(photos[0], []byte("p0")) {
		t.Fatal("member does not see album contents")
	}

	// a non-member learns nothing
	if _, err := carol.GetAlbum("m"); err != ErrAlbumPermission {
		t.Fatalf("expected ErrAlbumPermission, got %v", err)
	}
	if _, err := alice.GetAlbum("nope"); err != ErrAlbumDoesNotExist {
		t.Fatalf("expected ErrAlbumDoesNotExist, got %v", err)
	}

	// members may add photos, only the owner changes membership
	if err := bob.AddPhotoToAlbum("m", []byte("p1")); err != nil {
		t.Fatal(err)
	}
	if err := bob.AddFriendToAlbum("m", "alice"); err != ErrNotAlbumOwner {
		t.Fatalf("expected ErrNotAlbumOwner, got %v", err)
	}

	photos, err = alice.GetAlbum("m")
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(photos))
	}

	// a newly added member sees everything already in the album
	if err := alice.AddFriendToAlbum("m", "carol"); err != nil {
		t.Fatal(err)
	}
	photos, err = carol.GetAlbum("m")
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 2 {
		t.Fatalf("new member sees %d photos, want 2", len(photos))
	}

	// removal rotates the key: bob loses access, carol keeps it
	if err := alice.RemoveFriendFromAlbum("m", "bob"); err != nil {
		t.Fatal(err)
	}
	if err := alice.AddPhotoToAlbum("m", []byte("p2")); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.GetAlbum("m"); err != ErrAlbumPermission {
		t.Fatalf("removed member: expected ErrAlbumPermission, got %v", err)
	}
	photos, err = carol.GetAlbum("m")
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 3 {
		t.Fatalf("remaining member sees %d photos, want 3", len(photos))
	}
}
