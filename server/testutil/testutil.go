// Package testutil provides misbehaving Service wrappers for tests.
// Each wrapper delegates to an honest server and tampers with one
// aspect of its responses, modeling a server that attacks its clients.
// Log tampering applies to full synchronizations (MinVersion 0), which
// is how a victim client replays a history from scratch.
package testutil

import (
	"github.com/photochain-sys/photochain-go/protocol"
	"github.com/photochain-sys/photochain-go/server"
)

func tamperSync(resp *protocol.Response, tamper func([][]byte) [][]byte) *protocol.Response {
	if resp.Error != protocol.ReqSuccess {
		return resp
	}
	body, ok := resp.Body.(*protocol.SyncResult)
	if !ok {
		return resp
	}
	return protocol.NewSyncResponse(tamper(body.Entries))
}

// A SyncTamperServer rewrites the entry list of every full
// synchronization response with the given function. The named attack
// servers below are thin wrappers over it.
type SyncTamperServer struct {
	server.Service
	Tamper func(entries [][]byte) [][]byte
}

func (s *SyncTamperServer) Synchronize(req *protocol.SynchronizeRequest) *protocol.Response {
	resp := s.Service.Synchronize(req)
	if req.MinVersion != 0 {
		return resp
	}
	return tamperSync(resp, s.Tamper)
}

func (s *SyncTamperServer) SynchronizeFriend(req *protocol.SynchronizeFriendRequest) *protocol.Response {
	resp := s.Service.SynchronizeFriend(req)
	if req.MinVersion != 0 {
		return resp
	}
	return tamperSync(resp, s.Tamper)
}

// NewReplayEntryServer duplicates the entry at index, modeling a server
// replaying an old operation.
func NewReplayEntryServer(s server.Service, index int) server.Service {
	return &SyncTamperServer{Service: s, Tamper: func(entries [][]byte) [][]byte {
		if index >= len(entries) {
			return entries
		}
		out := make([][]byte, 0, len(entries)+1)
		out = append(out, entries[:index+1]...)
		out = append(out, entries[index])
		out = append(out, entries[index+1:]...)
		return out
	}}
}

// NewOmitEntryServer drops the entry at index, modeling a server
// suppressing an operation (a revocation, typically).
func NewOmitEntryServer(s server.Service, index int) server.Service {
	return &SyncTamperServer{Service: s, Tamper: func(entries [][]byte) [][]byte {
		if index >= len(entries) {
			return entries
		}
		out := make([][]byte, 0, len(entries)-1)
		out = append(out, entries[:index]...)
		out = append(out, entries[index+1:]...)
		return out
	}}
}

// NewSwapEntriesServer swaps the entries at i and j, modeling a server
// reordering a history.
func NewSwapEntriesServer(s server.Service, i, j int) server.Service {
	return &SyncTamperServer{Service: s, Tamper: func(entries [][]byte) [][]byte {
		if i >= len(entries) || j >= len(entries) {
			return entries
		}
		out := append([][]byte(nil), entries...)
		out[i], out[j] = out[j], out[i]
		return out
	}}
}

// NewOverwriteEntryServer replaces the entry at index with the given
// bytes, modeling in-place history rewriting.
func NewOverwriteEntryServer(s server.Service, index int, entry []byte) server.Service {
	return &SyncTamperServer{Service: s, Tamper: func(entries [][]byte) [][]byte {
		if index >= len(entries) {
			return entries
		}
		out := append([][]byte(nil), entries...)
		out[index] = entry
		return out
	}}
}

// A RollbackServer behaves as if every history were truncated to
// Length entries, modeling a server that discarded recent appends. A
// client that already verified past Length sees VERSION_TOO_HIGH.
type RollbackServer struct {
	server.Service
	Length int64
}

func (s *RollbackServer) rolledBack(resp *protocol.Response, minVersion int64) *protocol.Response {
	if minVersion > s.Length {
		return protocol.NewErrorResponse(protocol.ErrVersionTooHigh)
	}
	return tamperSync(resp, func(entries [][]byte) [][]byte {
		keep := s.Length - minVersion
		if keep > int64(len(entries)) {
			return entries
		}
		return entries[:keep]
	})
}

func (s *RollbackServer) Synchronize(req *protocol.SynchronizeRequest) *protocol.Response {
	return s.rolledBack(s.Service.Synchronize(req), req.MinVersion)
}

func (s *RollbackServer) SynchronizeFriend(req *protocol.SynchronizeFriendRequest) *protocol.Response {
	return s.rolledBack(s.Service.SynchronizeFriend(req), req.MinVersion)
}

// A SwapBlobServer substitutes the blob returned for one photo,
// leaving the log untouched.
type SwapBlobServer struct {
	server.Service
	PhotoID int64
	Blob    []byte
}

func (s *SwapBlobServer) GetPhoto(req *protocol.GetPhotoRequest) *protocol.Response {
	resp := s.Service.GetPhoto(req)
	if resp.Error != protocol.ReqSuccess || req.PhotoID != s.PhotoID {
		return resp
	}
	return protocol.NewPhotoResponse(s.Blob)
}

// A SwapPhotoIDServer answers photo fetches for two ids with each
// other's blobs.
type SwapPhotoIDServer struct {
	server.Service
	A, B int64
}

func (s *SwapPhotoIDServer) GetPhoto(req *protocol.GetPhotoRequest) *protocol.Response {
	swapped := *req
	switch req.PhotoID {
	case s.A:
		swapped.PhotoID = s.B
	case s.B:
		swapped.PhotoID = s.A
	}
	return s.Service.GetPhoto(&swapped)
}

// A SwapProfileServer substitutes one user's public profile, modeling
// the key-swap attack on album sharing.
type SwapProfileServer struct {
	server.Service
	Username string
	Profile  []byte
}

func (s *SwapProfileServer) GetFriendProfile(req *protocol.GetFriendProfileRequest) *protocol.Response {
	resp := s.Service.GetFriendProfile(req)
	if resp.Error != protocol.ReqSuccess || req.FriendUsername != s.Username {
		return resp
	}
	return protocol.NewProfileResponse(s.Profile)
}
