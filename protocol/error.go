// Defines constants representing the types of errors the server may
// return to a client.

package protocol

// An ErrorCode is the machine-readable result of a request. It travels
// on the wire, so the values are fixed.
type ErrorCode int

const (
	ReqSuccess ErrorCode = 10 + iota
	ErrUserAlreadyExists
	ErrLoginFailed
	ErrInvalidToken
	ErrPhotoDoesNotExist
	ErrVersionTooHigh
	ErrAlbumDoesNotExist
	ErrMalformedMessage
	ErrUnknown
)

// Errors contains the codes that indicate request failure.
var Errors = map[ErrorCode]bool{
	ErrUserAlreadyExists: true,
	ErrLoginFailed:       true,
	ErrInvalidToken:      true,
	ErrPhotoDoesNotExist: true,
	ErrVersionTooHigh:    true,
	ErrAlbumDoesNotExist: true,
	ErrMalformedMessage:  true,
	ErrUnknown:           true,
}

var errorMessages = map[ErrorCode]string{
	ReqSuccess:           "[photochain] Request successful",
	ErrUserAlreadyExists: "[photochain] Username is already registered",
	ErrLoginFailed:       "[photochain] Wrong username or auth secret",
	ErrInvalidToken:      "[photochain] Invalid session token",
	ErrPhotoDoesNotExist: "[photochain] Photo does not exist",
	ErrVersionTooHigh:    "[photochain] Requested log version exceeds history",
	ErrAlbumDoesNotExist: "[photochain] Album does not exist",
	ErrMalformedMessage:  "[photochain] Malformed client request",
	ErrUnknown:           "[photochain] Unknown server error",
}

func (e ErrorCode) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return errorMessages[ErrUnknown]
}
