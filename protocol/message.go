// Defines the message format of the photochain protocol and
// constructors for the response messages of each request type.

package protocol

// The types of requests photochain clients send to a server. The set is
// closed: the transport layer matches on it exhaustively, so adding a
// request type is a compile-time-checked change.
const (
	RegisterType = iota
	LoginType
	UpdateProfileType
	GetFriendProfileType
	PutPhotoType
	GetPhotoType
	PushLogEntryType
	SynchronizeType
	SynchronizeFriendType
	UploadAlbumType
	GetAlbumType
)

// A Request wraps one of the typed request messages together with its
// type tag for transport.
type Request struct {
	Type    int
	Request interface{}
}

// A RegisterRequest creates a new account. It carries the encoded
// REGISTER log entry that becomes index 0 of the user's history, and
// the user's signed public profile.
type RegisterRequest struct {
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	AuthSecret []byte `json:"auth_secret"`
	Profile    []byte `json:"profile"`
	LogEntry   []byte `json:"log_entry"`
}

// A LoginRequest obtains a fresh session token.
type LoginRequest struct {
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	AuthSecret []byte `json:"auth_secret"`
}

// An UpdateProfileRequest replaces the user's stored public profile.
// The profile bytes are opaque to the server.
type UpdateProfileRequest struct {
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
	Profile  []byte `json:"profile"`
}

// A GetFriendProfileRequest fetches another user's public profile.
type GetFriendProfileRequest struct {
	ClientID       string `json:"client_id"`
	Username       string `json:"username"`
	Token          string `json:"token"`
	FriendUsername string `json:"friend_username"`
}

// A PutPhotoRequest stores a photo blob and appends the corresponding
// PUT_PHOTO log entry in one call.
type PutPhotoRequest struct {
	ClientID  string `json:"client_id"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	LogEntry  []byte `json:"log_entry"`
	PhotoBlob []byte `json:"photo_blob"`
	PhotoID   int64  `json:"photo_id"`
}

// A GetPhotoRequest fetches a photo blob, either the user's own or a
// friend's (PhotoOwner names whose store to read).
type GetPhotoRequest struct {
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Token      string `json:"token"`
	PhotoID    int64  `json:"photo_id"`
	PhotoOwner string `json:"photo_owner"`
}

// A PushLogEntryRequest appends one encoded log entry to the user's
// history. The server is blind to its contents.
type PushLogEntryRequest struct {
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
	LogEntry []byte `json:"log_entry"`
}

// A SynchronizeRequest pulls the user's log suffix starting at
// MinVersion.
type SynchronizeRequest struct {
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Token      string `json:"token"`
	MinVersion int64  `json:"min_version_number"`
}

// A SynchronizeFriendRequest pulls a friend's log suffix. Friend logs
// are not access-controlled by the server, so no token is needed.
type SynchronizeFriendRequest struct {
	ClientID       string `json:"client_id"`
	FriendUsername string `json:"friend_username"`
	MinVersion     int64  `json:"min_version_number"`
}

// An UploadAlbumRequest replaces an album snapshot. The blob is an
// encoded EncryptedAlbum and is opaque to the server.
type UploadAlbumRequest struct {
	ClientID  string `json:"client_id"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	AlbumName string `json:"album_name"`
	AlbumBlob []byte `json:"album_blob"`
}

// A GetAlbumRequest fetches an album snapshot by name.
type GetAlbumRequest struct {
	ClientID  string `json:"client_id"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	AlbumName string `json:"album_name"`
}

// A Response carries the result of any request: an error code plus a
// body whose concrete type depends on the request type.
type Response struct {
	Error ErrorCode
	Body  ResponseBody `json:",omitempty"`
}

// A ResponseBody is one of the typed response payloads below.
type ResponseBody interface{}

// An AuthResult returns the session token issued by Register or Login.
type AuthResult struct {
	Token string `json:"token"`
}

// A PhotoResult returns a photo blob.
type PhotoResult struct {
	PhotoBlob []byte `json:"photo_blob"`
}

// A ProfileResult returns a user's stored (opaque) profile bytes.
type ProfileResult struct {
	Profile []byte `json:"profile"`
}

// A SyncResult returns the encoded log entries at or after the
// requested version, in history order.
type SyncResult struct {
	Entries [][]byte `json:"encoded_log_entries"`
}

// An AlbumResult returns an encoded album snapshot.
type AlbumResult struct {
	AlbumBlob []byte `json:"album_blob"`
}

var _ ResponseBody = (*AuthResult)(nil)
var _ ResponseBody = (*PhotoResult)(nil)
var _ ResponseBody = (*ProfileResult)(nil)
var _ ResponseBody = (*SyncResult)(nil)
var _ ResponseBody = (*AlbumResult)(nil)

// NewErrorResponse creates a response carrying only an error code.
func NewErrorResponse(e ErrorCode) *Response {
	return &Response{Error: e}
}

// NewAuthResponse creates the response to a successful Register or
// Login request.
func NewAuthResponse(token string) *Response {
	return &Response{Error: ReqSuccess, Body: &AuthResult{Token: token}}
}

// NewPhotoResponse creates the response to a successful GetPhoto
// request.
func NewPhotoResponse(blob []byte) *Response {
	return &Response{Error: ReqSuccess, Body: &PhotoResult{PhotoBlob: blob}}
}

// NewProfileResponse creates the response to a successful
// GetFriendProfile request.
func NewProfileResponse(profile []byte) *Response {
	return &Response{Error: ReqSuccess, Body: &ProfileResult{Profile: profile}}
}

// NewSyncResponse creates the response to a successful Synchronize or
// SynchronizeFriend request.
func NewSyncResponse(entries [][]byte) *Response {
	return &Response{Error: ReqSuccess, Body: &SyncResult{Entries: entries}}
}

// NewAlbumResponse creates the response to a successful GetAlbum
// request.
func NewAlbumResponse(blob []byte) *Response {
	return &Response{Error: ReqSuccess, Body: &AlbumResult{AlbumBlob: blob}}
}

// Validate checks that a response is well-formed: failures carry no
// body, and successes carry a body appropriate for the request type
// (checked by the caller, which knows the type it sent).
func (msg *Response) Validate() error {
	if Errors[msg.Error] {
		if msg.Body != nil {
			return ErrMalformedMessage
		}
		return msg.Error
	}
	if msg.Error != ReqSuccess {
		return ErrMalformedMessage
	}
	return nil
}
