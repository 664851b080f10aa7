// Defines the storage abstraction of the photochain server. The server
// itself is untrusted by clients, so storage holds only opaque blobs:
// encoded log entries, profile bytes, photo bytes and album snapshots.

package server

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("server: record not found")
	// ErrUserExists is returned when registering an already-taken
	// username.
	ErrUserExists = errors.New("server: user already exists")
)

// Storage is the persistence interface of a photochain server. All
// methods are safe for concurrent use. Histories are append-only;
// AppendEntry must be atomic with respect to concurrent appends for
// the same user, so every user's history has one total order.
type Storage interface {
	// RegisterUser creates the account record in one step. Returns
	// ErrUserExists if the username is taken.
	RegisterUser(username string, authSecret []byte, token string, profile []byte) error
	UserRegistered(username string) (bool, error)
	CheckAuthSecret(username string, authSecret []byte) (bool, error)
	CheckToken(username, token string) (bool, error)
	UpdateToken(username, token string) error

	UpdateProfile(username string, profile []byte) error
	// Profile returns ErrNotFound for unknown users.
	Profile(username string) ([]byte, error)

	AppendEntry(username string, encoded []byte) error
	// HistoryLength returns 0 for unknown users.
	HistoryLength(username string) (int64, error)
	// HistorySince returns the encoded entries at index minVersion and
	// after, in history order. An unknown user has an empty history.
	HistorySince(username string, minVersion int64) ([][]byte, error)

	StorePhoto(username string, photoID int64, blob []byte) error
	// LoadPhoto returns ErrNotFound if the photo was never stored.
	LoadPhoto(username string, photoID int64) ([]byte, error)

	UpdateAlbum(name string, blob []byte) error
	// Album returns ErrNotFound if no snapshot was uploaded under name.
	Album(name string) ([]byte, error)

	Close() error
}
