package server

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/photochain-sys/photochain-go/codec"
	"github.com/photochain-sys/photochain-go/storage/kv"
)

// Key prefixes of the on-disk layout. Usernames and album names never
// contain NUL, so a NUL separator keeps composite keys unambiguous.
const (
	userPrefix    = "u\x00"
	profilePrefix = "p\x00"
	historyPrefix = "l\x00"
	lengthPrefix  = "n\x00"
	photoPrefix   = "f\x00"
	albumPrefix   = "a\x00"
)

// A KVStore is a Storage backed by a kv.DB (leveldb in production).
type KVStore struct {
	db kv.DB

	// serializes check-then-write sequences: user registration and the
	// per-user history counter
	appendMu sync.Mutex
}

var _ Storage = (*KVStore)(nil)

// NewKVStore wraps a kv.DB as server storage.
func NewKVStore(db kv.DB) *KVStore {
	return &KVStore{db: db}
}

func userKey(username string) []byte    { return append([]byte(userPrefix), username...) }
func profileKey(username string) []byte { return append([]byte(profilePrefix), username...) }
func lengthKey(username string) []byte  { return append([]byte(lengthPrefix), username...) }
func albumKey(name string) []byte       { return append([]byte(albumPrefix), name...) }

func historyKey(username string, index int64) []byte {
	k := append([]byte(historyPrefix), username...)
	k = append(k, 0)
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(index))
	return append(k, idx[:]...)
}

func photoKey(username string, photoID int64) []byte {
	k := append([]byte(photoPrefix), username...)
	k = append(k, 0)
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], uint64(photoID))
	return append(k, id[:]...)
}

func (s *KVStore) encodeUser(authSecret []byte, token string) ([]byte, error) {
	return codec.Encode(map[string]interface{}{
		"auth_secret": authSecret,
		"token":       token,
	})
}

func (s *KVStore) decodeUser(b []byte) (authSecret []byte, token string, err error) {
	v, err := codec.Decode(b)
	if err != nil {
		return nil, "", err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, "", codec.ErrMalformedEncoding
	}
	authSecret, ok = m["auth_secret"].([]byte)
	if !ok {
		return nil, "", codec.ErrMalformedEncoding
	}
	token, ok = m["token"].(string)
	if !ok {
		return nil, "", codec.ErrMalformedEncoding
	}
	return authSecret, token, nil
}

func (s *KVStore) RegisterUser(username string, authSecret []byte, token string, profile []byte) error {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()
	registered, err := s.UserRegistered(username)
	if err != nil {
		return err
	}
	if registered {
		return ErrUserExists
	}
	record, err := s.encodeUser(authSecret, token)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	batch.Put(userKey(username), record)
	batch.Put(profileKey(username), profile)
	return s.db.Write(batch)
}

func (s *KVStore) UserRegistered(username string) (bool, error) {
	_, err := s.db.Get(userKey(username))
	if err == s.db.ErrNotFound() {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *KVStore) CheckAuthSecret(username string, authSecret []byte) (bool, error) {
	record, err := s.db.Get(userKey(username))
	if err == s.db.ErrNotFound() {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	stored, _, err := s.decodeUser(record)
	if err != nil {
		return false, err
	}
	return bytes.Equal(stored, authSecret), nil
}

func (s *KVStore) CheckToken(username, token string) (bool, error) {
	record, err := s.db.Get(userKey(username))
	if err == s.db.ErrNotFound() {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_, stored, err := s.decodeUser(record)
	if err != nil {
		return false, err
	}
	return token != "" && stored == token, nil
}

func (s *KVStore) UpdateToken(username, token string) error {
	record, err := s.db.Get(userKey(username))
	if err == s.db.ErrNotFound() {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	authSecret, _, err := s.decodeUser(record)
	if err != nil {
		return err
	}
	updated, err := s.encodeUser(authSecret, token)
	if err != nil {
		return err
	}
	return s.db.Put(userKey(username), updated)
}

func (s *KVStore) UpdateProfile(username string, profile []byte) error {
	return s.db.Put(profileKey(username), profile)
}

func (s *KVStore) Profile(username string) ([]byte, error) {
	profile, err := s.db.Get(profileKey(username))
	if err == s.db.ErrNotFound() {
		return nil, ErrNotFound
	}
	return profile, err
}

func (s *KVStore) AppendEntry(username string, encoded []byte) error {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()
	length, err := s.historyLength(username)
	if err != nil {
		return err
	}
	var next [8]byte
	binary.BigEndian.PutUint64(next[:], uint64(length+1))
	batch := s.db.NewBatch()
	batch.Put(historyKey(username, length), encoded)
	batch.Put(lengthKey(username), next[:])
	return s.db.Write(batch)
}

func (s *KVStore) historyLength(username string) (int64, error) {
	b, err := s.db.Get(lengthKey(username))
	if err == s.db.ErrNotFound() {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(b) != 8 {
		return 0, codec.ErrMalformedEncoding
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (s *KVStore) HistoryLength(username string) (int64, error) {
	return s.historyLength(username)
}

func (s *KVStore) HistorySince(username string, minVersion int64) ([][]byte, error) {
	if minVersion < 0 {
		minVersion = 0
	}
	length, err := s.historyLength(username)
	if err != nil {
		return nil, err
	}
	if minVersion >= length {
		return nil, nil
	}
	it := s.db.NewIterator(&kv.Range{
		Start: historyKey(username, minVersion),
		Limit: historyKey(username, length),
	})
	defer it.Release()
	var out [][]byte
	for ok := it.First(); ok; ok = it.Next() {
		out = append(out, append([]byte(nil), it.Value()...))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *KVStore) StorePhoto(username string, photoID int64, blob []byte) error {
	return s.db.Put(photoKey(username, photoID), blob)
}

func (s *KVStore) LoadPhoto(username string, photoID int64) ([]byte, error) {
	blob, err := s.db.Get(photoKey(username, photoID))
	if err == s.db.ErrNotFound() {
		return nil, ErrNotFound
	}
	return blob, err
}

func (s *KVStore) UpdateAlbum(name string, blob []byte) error {
	return s.db.Put(albumKey(name), blob)
}

func (s *KVStore) Album(name string) ([]byte, error) {
	blob, err := s.db.Get(albumKey(name))
	if err == s.db.ErrNotFound() {
		return nil, ErrNotFound
	}
	return blob, err
}

func (s *KVStore) Close() error {
	return s.db.Close()
}
