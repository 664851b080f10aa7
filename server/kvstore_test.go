package server

import (
	"path"
	"sync"
	"testing"

	"github.com/photochain-sys/photochain-go/storage/kv/leveldbkv"
)

func openTestStore(t *testing.T) *KVStore {
	t.Helper()
	db, err := leveldbkv.OpenDB(path.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatal(err)
	}
	s := NewKVStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKVStoreRegisterUserOnce(t *testing.T) {
	s := openTestStore(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.RegisterUser("alice", []byte("auth"), "token", []byte("profile"))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch err {
		case nil:
			won++
		case ErrUserExists:
		default:
			t.Fatal(err)
		}
	}
	if won != 1 {
		t.Fatalf("%d registrations succeeded, want exactly 1", won)
	}

	registered, err := s.UserRegistered("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !registered {
		t.Fatal("user not registered after the race")
	}
}
