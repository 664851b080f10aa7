package server

import (
	"bytes"
	"testing"

	"github.com/photochain-sys/photochain-go/protocol"
)

func registerTestUser(t *testing.T, s *PhotoServer, username string) string {
	t.Helper()
	resp := s.Register(&protocol.RegisterRequest{
		ClientID:   "client-1",
		Username:   username,
		AuthSecret: []byte(username + "-secret"),
		Profile:    []byte(username + "-profile"),
		LogEntry:   []byte(username + "-register-entry"),
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("register %s: %v", username, resp.Error)
	}
	return resp.Body.(*protocol.AuthResult).Token
}

func TestRegisterAndLogin(t *testing.T) {
	s := NewPhotoServer(NewMemStore())
	token := registerTestUser(t, s, "alice")
	if token == "" {
		t.Fatal("register issued empty token")
	}

	resp := s.Register(&protocol.RegisterRequest{
		Username:   "alice",
		AuthSecret: []byte("other"),
	})
	if resp.Error != protocol.ErrUserAlreadyExists {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", resp.Error)
	}

	resp = s.Login(&protocol.LoginRequest{Username: "alice", AuthSecret: []byte("alice-secret")})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("login: %v", resp.Error)
	}
	fresh := resp.Body.(*protocol.AuthResult).Token
	if fresh == token {
		t.Fatal("login reused the registration token")
	}

	// a login invalidates the previous token
	resp = s.Synchronize(&protocol.SynchronizeRequest{Username: "alice", Token: token})
	if resp.Error != protocol.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for stale token, got %v", resp.Error)
	}

	resp = s.Login(&protocol.LoginRequest{Username: "alice", AuthSecret: []byte("wrong")})
	if resp.Error != protocol.ErrLoginFailed {
		t.Fatalf("expected ErrLoginFailed, got %v", resp.Error)
	}
	resp = s.Login(&protocol.LoginRequest{Username: "nobody", AuthSecret: []byte("x")})
	if resp.Error != protocol.ErrLoginFailed {
		t.Fatalf("expected ErrLoginFailed for unknown user, got %v", resp.Error)
	}
}

func TestTokenGate(t *testing.T) {
	s := NewPhotoServer(NewMemStore())
	registerTestUser(t, s, "alice")

	resp := s.PutPhoto(&protocol.PutPhotoRequest{
		Username: "alice", Token: "bogus", PhotoID: 0, PhotoBlob: []byte("p"),
	})
	if resp.Error != protocol.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", resp.Error)
	}
	resp = s.GetAlbum(&protocol.GetAlbumRequest{Username: "alice", Token: ""})
	if resp.Error != protocol.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", resp.Error)
	}
}

func TestPutAndGetPhoto(t *testing.T) {
	s := NewPhotoServer(NewMemStore())
	token := registerTestUser(t, s, "alice")

	resp := s.PutPhoto(&protocol.PutPhotoRequest{
		Username: "alice", Token: token,
		PhotoID: 7, PhotoBlob: []byte("photo bytes"), LogEntry: []byte("entry"),
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("put photo: %v", resp.Error)
	}

	resp = s.GetPhoto(&protocol.GetPhotoRequest{
		Username: "alice", Token: token, PhotoID: 7, PhotoOwner: "alice",
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("get photo: %v", resp.Error)
	}
	if !bytes.Equal(resp.Body.(*protocol.PhotoResult).PhotoBlob, []byte("photo bytes")) {
		t.Fatal("photo blob differs from stored")
	}

	resp = s.GetPhoto(&protocol.GetPhotoRequest{
		Username: "alice", Token: token, PhotoID: 8, PhotoOwner: "alice",
	})
	if resp.Error != protocol.ErrPhotoDoesNotExist {
		t.Fatalf("expected ErrPhotoDoesNotExist, got %v", resp.Error)
	}
}

func TestSynchronizeSuffix(t *testing.T) {
	s := NewPhotoServer(NewMemStore())
	token := registerTestUser(t, s, "alice")

	for _, e := range []string{"e1", "e2"} {
		resp := s.PushLogEntry(&protocol.PushLogEntryRequest{
			Username: "alice", Token: token, LogEntry: []byte(e),
		})
		if resp.Error != protocol.ReqSuccess {
			t.Fatalf("push: %v", resp.Error)
		}
	}

	resp := s.Synchronize(&protocol.SynchronizeRequest{Username: "alice", Token: token, MinVersion: 0})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("sync: %v", resp.Error)
	}
	entries := resp.Body.(*protocol.SyncResult).Entries
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if !bytes.Equal(entries[0], []byte("alice-register-entry")) ||
		!bytes.Equal(entries[2], []byte("e2")) {
		t.Fatal("entries not in history order")
	}

	resp = s.Synchronize(&protocol.SynchronizeRequest{Username: "alice", Token: token, MinVersion: 2})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("sync suffix: %v", resp.Error)
	}
	if entries := resp.Body.(*protocol.SyncResult).Entries; len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	// min equal to history length is a valid no-op, one past it is not
	resp = s.Synchronize(&protocol.SynchronizeRequest{Username: "alice", Token: token, MinVersion: 3})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("sync at length: %v", resp.Error)
	}
	if entries := resp.Body.(*protocol.SyncResult).Entries; len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}
	resp = s.Synchronize(&protocol.SynchronizeRequest{Username: "alice", Token: token, MinVersion: 4})
	if resp.Error != protocol.ErrVersionTooHigh {
		t.Fatalf("expected ErrVersionTooHigh, got %v", resp.Error)
	}
}

func TestSynchronizeFriendNeedsNoToken(t *testing.T) {
	s := NewPhotoServer(NewMemStore())
	registerTestUser(t, s, "alice")

	resp := s.SynchronizeFriend(&protocol.SynchronizeFriendRequest{
		FriendUsername: "alice", MinVersion: 0,
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("sync friend: %v", resp.Error)
	}
	if entries := resp.Body.(*protocol.SyncResult).Entries; len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	// an unknown friend just has an empty history
	resp = s.SynchronizeFriend(&protocol.SynchronizeFriendRequest{
		FriendUsername: "nobody", MinVersion: 0,
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("sync unknown friend: %v", resp.Error)
	}
	if entries := resp.Body.(*protocol.SyncResult).Entries; len(entries) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(entries))
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := NewPhotoServer(NewMemStore())
	aliceToken := registerTestUser(t, s, "alice")
	bobToken := registerTestUser(t, s, "bob")

	resp := s.UpdateProfile(&protocol.UpdateProfileRequest{
		Username: "alice", Token: aliceToken, Profile: []byte("alice-v2"),
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("update profile: %v", resp.Error)
	}
	resp = s.GetFriendProfile(&protocol.GetFriendProfileRequest{
		Username: "bob", Token: bobToken, FriendUsername: "alice",
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("get friend profile: %v", resp.Error)
	}
	if !bytes.Equal(resp.Body.(*protocol.ProfileResult).Profile, []byte("alice-v2")) {
		t.Fatal("profile differs from last update")
	}

	resp = s.GetFriendProfile(&protocol.GetFriendProfileRequest{
		Username: "bob", Token: bobToken, FriendUsername: "nobody",
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("get unknown profile: %v", resp.Error)
	}
	if len(resp.Body.(*protocol.ProfileResult).Profile) != 0 {
		t.Fatal("unknown user should have an empty profile")
	}
}

func TestAlbumRoundTrip(t *testing.T) {
	s := NewPhotoServer(NewMemStore())
	token := registerTestUser(t, s, "alice")

	resp := s.GetAlbum(&protocol.GetAlbumRequest{Username: "alice", Token: token, AlbumName: "trip"})
	if resp.Error != protocol.ErrAlbumDoesNotExist {
		t.Fatalf("expected ErrAlbumDoesNotExist, got %v", resp.Error)
	}

	resp = s.UploadAlbum(&protocol.UploadAlbumRequest{
		Username: "alice", Token: token, AlbumName: "trip", AlbumBlob: []byte("blob-1"),
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("upload album: %v", resp.Error)
	}
	resp = s.UploadAlbum(&protocol.UploadAlbumRequest{
		Username: "alice", Token: token, AlbumName: "trip", AlbumBlob: []byte("blob-2"),
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("replace album: %v", resp.Error)
	}

	resp = s.GetAlbum(&protocol.GetAlbumRequest{Username: "alice", Token: token, AlbumName: "trip"})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("get album: %v", resp.Error)
	}
	if !bytes.Equal(resp.Body.(*protocol.AlbumResult).AlbumBlob, []byte("blob-2")) {
		t.Fatal("album snapshot is not the latest upload")
	}
}

func TestDispatch(t *testing.T) {
	s := NewPhotoServer(NewMemStore())

	resp := Dispatch(s, &protocol.Request{
		Type: protocol.RegisterType,
		Request: &protocol.RegisterRequest{
			Username: "alice", AuthSecret: []byte("s"),
			Profile: []byte("p"), LogEntry: []byte("e"),
		},
	})
	if resp.Error != protocol.ReqSuccess {
		t.Fatalf("dispatch register: %v", resp.Error)
	}

	// mismatched payload and unknown type are both malformed
	resp = Dispatch(s, &protocol.Request{Type: protocol.LoginType, Request: &protocol.RegisterRequest{}})
	if resp.Error != protocol.ErrMalformedMessage {
		t.Fatalf("expected ErrMalformedMessage, got %v", resp.Error)
	}
	resp = Dispatch(s, &protocol.Request{Type: 99})
	if resp.Error != protocol.ErrMalformedMessage {
		t.Fatalf("expected ErrMalformedMessage, got %v", resp.Error)
	}
}
