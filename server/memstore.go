package server

import (
	"bytes"
	"sync"
)

type memUser struct {
	authSecret []byte
	token      string
	profile    []byte
	history    [][]byte
	photos     map[int64][]byte
}

// A MemStore is an in-memory Storage, used by tests and by the local
// single-process setups.
type MemStore struct {
	mu     sync.RWMutex
	users  map[string]*memUser
	albums map[string][]byte
}

var _ Storage = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:  make(map[string]*memUser),
		albums: make(map[string][]byte),
	}
}

func (m *MemStore) RegisterUser(username string, authSecret []byte, token string, profile []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return ErrUserExists
	}
	m.users[username] = &memUser{
		authSecret: append([]byte(nil), authSecret...),
		token:      token,
		profile:    append([]byte(nil), profile...),
		photos:     make(map[int64][]byte),
	}
	return nil
}

func (m *MemStore) UserRegistered(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[username]
	return ok, nil
}

func (m *MemStore) CheckAuthSecret(username string, authSecret []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	return ok && bytes.Equal(u.authSecret, authSecret), nil
}

func (m *MemStore) CheckToken(username, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	return ok && token != "" && u.token == token, nil
}

func (m *MemStore) UpdateToken(username, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return ErrNotFound
	}
	u.token = token
	return nil
}

func (m *MemStore) UpdateProfile(username string, profile []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return ErrNotFound
	}
	u.profile = append([]byte(nil), profile...)
	return nil
}

func (m *MemStore) Profile(username string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), u.profile...), nil
}

func (m *MemStore) AppendEntry(username string, encoded []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return ErrNotFound
	}
	u.history = append(u.history, append([]byte(nil), encoded...))
	return nil
}

func (m *MemStore) HistoryLength(username string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return 0, nil
	}
	return int64(len(u.history)), nil
}

func (m *MemStore) HistorySince(username string, minVersion int64) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok || minVersion >= int64(len(u.history)) {
		return nil, nil
	}
	if minVersion < 0 {
		minVersion = 0
	}
	out := make([][]byte, 0, int64(len(u.history))-minVersion)
	for _, e := range u.history[minVersion:] {
		out = append(out, append([]byte(nil), e...))
	}
	return out, nil
}

func (m *MemStore) StorePhoto(username string, photoID int64, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return ErrNotFound
	}
	u.photos[photoID] = append([]byte(nil), blob...)
	return nil
}

func (m *MemStore) LoadPhoto(username string, photoID int64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	blob, ok := u.photos[photoID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (m *MemStore) UpdateAlbum(name string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.albums[name] = append([]byte(nil), blob...)
	return nil
}

func (m *MemStore) Album(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.albums[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (m *MemStore) Close() error { return nil }
