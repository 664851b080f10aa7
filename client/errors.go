// Defines the error taxonomy clients surface to callers. Protocol
// violations are wrapped in SynchronizationError and are fatal to the
// current sync; transport-level failures and ordinary not-found
// conditions are plain sentinels.

package client

import "errors"

var (
	// ErrUserAlreadyExists is returned by Register when the username is
	// taken.
	ErrUserAlreadyExists = errors.New("client: username already registered")
	// ErrLoginFailed is returned when the server rejects the auth
	// secret.
	ErrLoginFailed = errors.New("client: login failed")
	// ErrInvalidToken is returned when the session token has expired.
	// The caller may log in again and retry.
	ErrInvalidToken = errors.New("client: invalid session token")
	// ErrPhotoDoesNotExist is returned for photo ids never recorded in
	// the replayed log.
	ErrPhotoDoesNotExist = errors.New("client: photo does not exist")
	// ErrUnknownUser is returned when a requested user is not known,
	// either locally (never added as a friend) or on the server (never
	// registered).
	ErrUnknownUser = errors.New("client: unknown user")
	// ErrAlbumDoesNotExist is returned when no album was uploaded under
	// the requested name.
	ErrAlbumDoesNotExist = errors.New("client: album does not exist")
	// ErrAlbumPermission is returned when this user holds no grant for
	// the album's current key.
	ErrAlbumPermission = errors.New("client: no permission to access album")
	// ErrNotAlbumOwner is returned when a non-owner attempts to change
	// album membership.
	ErrNotAlbumOwner = errors.New("client: only the album owner may change membership")
	// ErrDeviceNotAuthorized is returned when this device attempts an
	// operation its replayed authorization state does not permit.
	ErrDeviceNotAuthorized = errors.New("client: device not authorized")
)

// A SynchronizationError reports definite evidence of server
// misbehavior: a log entry that fails verification, a blob that does
// not match its recorded hash, a rolled-back history, a swapped
// profile. It is never retried; retrying cannot fix a tampered log.
type SynchronizationError struct {
	Cause error
}

func (e *SynchronizationError) Error() string {
	return "client: synchronization failed: " + e.Cause.Error()
}

func (e *SynchronizationError) Unwrap() error {
	return e.Cause
}

func syncErr(cause error) error {
	return &SynchronizationError{Cause: cause}
}
