// Package server implements the photochain reference server: the
// storage-backed request handlers behind the RPC surface. The server is
// deliberately blind to log-entry and album semantics; clients treat it
// as untrusted and verify everything it returns.
package server

import (
	"encoding/hex"

	"github.com/photochain-sys/photochain-go/crypto"
	"github.com/photochain-sys/photochain-go/protocol"
)

// A Service handles the full photochain request surface. The production
// implementation is PhotoServer; test doubles wrap one to model
// misbehaving servers.
type Service interface {
	Register(req *protocol.RegisterRequest) *protocol.Response
	Login(req *protocol.LoginRequest) *protocol.Response
	UpdateProfile(req *protocol.UpdateProfileRequest) *protocol.Response
	GetFriendProfile(req *protocol.GetFriendProfileRequest) *protocol.Response
	PutPhoto(req *protocol.PutPhotoRequest) *protocol.Response
	GetPhoto(req *protocol.GetPhotoRequest) *protocol.Response
	PushLogEntry(req *protocol.PushLogEntryRequest) *protocol.Response
	Synchronize(req *protocol.SynchronizeRequest) *protocol.Response
	SynchronizeFriend(req *protocol.SynchronizeFriendRequest) *protocol.Response
	UploadAlbum(req *protocol.UploadAlbumRequest) *protocol.Response
	GetAlbum(req *protocol.GetAlbumRequest) *protocol.Response
}

// Dispatch routes a tagged request to the matching Service method. The
// request type set is closed; anything else is malformed.
func Dispatch(s Service, req *protocol.Request) *protocol.Response {
	switch req.Type {
	case protocol.RegisterType:
		if r, ok := req.Request.(*protocol.RegisterRequest); ok {
			return s.Register(r)
		}
	case protocol.LoginType:
		if r, ok := req.Request.(*protocol.LoginRequest); ok {
			return s.Login(r)
		}
	case protocol.UpdateProfileType:
		if r, ok := req.Request.(*protocol.UpdateProfileRequest); ok {
			return s.UpdateProfile(r)
		}
	case protocol.GetFriendProfileType:
		if r, ok := req.Request.(*protocol.GetFriendProfileRequest); ok {
			return s.GetFriendProfile(r)
		}
	case protocol.PutPhotoType:
		if r, ok := req.Request.(*protocol.PutPhotoRequest); ok {
			return s.PutPhoto(r)
		}
	case protocol.GetPhotoType:
		if r, ok := req.Request.(*protocol.GetPhotoRequest); ok {
			return s.GetPhoto(r)
		}
	case protocol.PushLogEntryType:
		if r, ok := req.Request.(*protocol.PushLogEntryRequest); ok {
			return s.PushLogEntry(r)
		}
	case protocol.SynchronizeType:
		if r, ok := req.Request.(*protocol.SynchronizeRequest); ok {
			return s.Synchronize(r)
		}
	case protocol.SynchronizeFriendType:
		if r, ok := req.Request.(*protocol.SynchronizeFriendRequest); ok {
			return s.SynchronizeFriend(r)
		}
	case protocol.UploadAlbumType:
		if r, ok := req.Request.(*protocol.UploadAlbumRequest); ok {
			return s.UploadAlbum(r)
		}
	case protocol.GetAlbumType:
		if r, ok := req.Request.(*protocol.GetAlbumRequest); ok {
			return s.GetAlbum(r)
		}
	}
	return protocol.NewErrorResponse(protocol.ErrMalformedMessage)
}

const tokenSize = 32

// A PhotoServer is the spec-honest Service implementation over a
// Storage backend.
type PhotoServer struct {
	store Storage
}

var _ Service = (*PhotoServer)(nil)

// NewPhotoServer creates a server over the given storage backend.
func NewPhotoServer(store Storage) *PhotoServer {
	return &PhotoServer{store: store}
}

// Store exposes the backend, mainly for test doubles that tamper with
// state behind the server's back.
func (s *PhotoServer) Store() Storage {
	return s.store
}

func newToken() (string, error) {
	raw, err := crypto.MakeRand()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:tokenSize]), nil
}

func (s *PhotoServer) Register(req *protocol.RegisterRequest) *protocol.Response {
	token, err := newToken()
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	err = s.store.RegisterUser(req.Username, req.AuthSecret, token, req.Profile)
	if err == ErrUserExists {
		return protocol.NewErrorResponse(protocol.ErrUserAlreadyExists)
	}
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	if err := s.store.AppendEntry(req.Username, req.LogEntry); err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewAuthResponse(token)
}

func (s *PhotoServer) Login(req *protocol.LoginRequest) *protocol.Response {
	ok, err := s.store.CheckAuthSecret(req.Username, req.AuthSecret)
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	if !ok {
		return protocol.NewErrorResponse(protocol.ErrLoginFailed)
	}
	token, err := newToken()
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	if err := s.store.UpdateToken(req.Username, token); err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewAuthResponse(token)
}

func (s *PhotoServer) checkToken(username, token string) *protocol.Response {
	ok, err := s.store.CheckToken(username, token)
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	if !ok {
		return protocol.NewErrorResponse(protocol.ErrInvalidToken)
	}
	return nil
}

func (s *PhotoServer) UpdateProfile(req *protocol.UpdateProfileRequest) *protocol.Response {
	if resp := s.checkToken(req.Username, req.Token); resp != nil {
		return resp
	}
	if err := s.store.UpdateProfile(req.Username, req.Profile); err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewErrorResponse(protocol.ReqSuccess)
}

func (s *PhotoServer) GetFriendProfile(req *protocol.GetFriendProfileRequest) *protocol.Response {
	if resp := s.checkToken(req.Username, req.Token); resp != nil {
		return resp
	}
	profile, err := s.store.Profile(req.FriendUsername)
	if err == ErrNotFound {
		// unknown users have an empty profile; the client surfaces this
		// as an unknown-user condition
		return protocol.NewProfileResponse(nil)
	}
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewProfileResponse(profile)
}

func (s *PhotoServer) PutPhoto(req *protocol.PutPhotoRequest) *protocol.Response {
	if resp := s.checkToken(req.Username, req.Token); resp != nil {
		return resp
	}
	if err := s.store.StorePhoto(req.Username, req.PhotoID, req.PhotoBlob); err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	if err := s.store.AppendEntry(req.Username, req.LogEntry); err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewErrorResponse(protocol.ReqSuccess)
}

func (s *PhotoServer) GetPhoto(req *protocol.GetPhotoRequest) *protocol.Response {
	if resp := s.checkToken(req.Username, req.Token); resp != nil {
		return resp
	}
	blob, err := s.store.LoadPhoto(req.PhotoOwner, req.PhotoID)
	if err == ErrNotFound {
		return protocol.NewErrorResponse(protocol.ErrPhotoDoesNotExist)
	}
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewPhotoResponse(blob)
}

func (s *PhotoServer) PushLogEntry(req *protocol.PushLogEntryRequest) *protocol.Response {
	if resp := s.checkToken(req.Username, req.Token); resp != nil {
		return resp
	}
	if err := s.store.AppendEntry(req.Username, req.LogEntry); err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewErrorResponse(protocol.ReqSuccess)
}

func (s *PhotoServer) Synchronize(req *protocol.SynchronizeRequest) *protocol.Response {
	if resp := s.checkToken(req.Username, req.Token); resp != nil {
		return resp
	}
	return s.historySuffix(req.Username, req.MinVersion)
}

func (s *PhotoServer) SynchronizeFriend(req *protocol.SynchronizeFriendRequest) *protocol.Response {
	// friend logs carry only self-authenticating entries, so there is
	// no token gate here
	return s.historySuffix(req.FriendUsername, req.MinVersion)
}

func (s *PhotoServer) historySuffix(username string, minVersion int64) *protocol.Response {
	length, err := s.store.HistoryLength(username)
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	if minVersion > length {
		return protocol.NewErrorResponse(protocol.ErrVersionTooHigh)
	}
	entries, err := s.store.HistorySince(username, minVersion)
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewSyncResponse(entries)
}

func (s *PhotoServer) UploadAlbum(req *protocol.UploadAlbumRequest) *protocol.Response {
	if resp := s.checkToken(req.Username, req.Token); resp != nil {
		return resp
	}
	if err := s.store.UpdateAlbum(req.AlbumName, req.AlbumBlob); err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewErrorResponse(protocol.ReqSuccess)
}

func (s *PhotoServer) GetAlbum(req *protocol.GetAlbumRequest) *protocol.Response {
	if resp := s.checkToken(req.Username, req.Token); resp != nil {
		return resp
	}
	blob, err := s.store.Album(req.AlbumName)
	if err == ErrNotFound {
		return protocol.NewErrorResponse(protocol.ErrAlbumDoesNotExist)
	}
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrUnknown)
	}
	return protocol.NewAlbumResponse(blob)
}
