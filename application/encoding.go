// Defines methods/functions to encode/decode messages between client
// and server. Currently this module supports JSON marshal/unmarshal only.

package application

import (
	"encoding/json"

	"github.com/photochain-sys/photochain-go/protocol"
)

// MarshalRequest returns a JSON encoding of the client's request.
func MarshalRequest(reqType int, request interface{}) ([]byte, error) {
	return json.Marshal(&protocol.Request{
		Type:    reqType,
		Request: request,
	})
}

// UnmarshalRequest parses a JSON-encoded request msg and
// creates the corresponding protocol.Request, which will be handled
// by the server.
func UnmarshalRequest(msg []byte) (*protocol.Request, error) {
	var content json.RawMessage
	req := protocol.Request{
		Request: &content,
	}
	if err := json.Unmarshal(msg, &req); err != nil {
		return nil, err
	}
	var request interface{}
	switch req.Type {
	case protocol.RegisterType:
		request = new(protocol.RegisterRequest)
	case protocol.LoginType:
		request = new(protocol.LoginRequest)
	case protocol.UpdateProfileType:
		request = new(protocol.UpdateProfileRequest)
	case protocol.GetFriendProfileType:
		request = new(protocol.GetFriendProfileRequest)
	case protocol.PutPhotoType:
		request = new(protocol.PutPhotoRequest)
	case protocol.GetPhotoType:
		request = new(protocol.GetPhotoRequest)
	case protocol.PushLogEntryType:
		request = new(protocol.PushLogEntryRequest)
	case protocol.SynchronizeType:
		request = new(protocol.SynchronizeRequest)
	case protocol.SynchronizeFriendType:
		request = new(protocol.SynchronizeFriendRequest)
	case protocol.UploadAlbumType:
		request = new(protocol.UploadAlbumRequest)
	case protocol.GetAlbumType:
		request = new(protocol.GetAlbumRequest)
	default:
		return nil, protocol.ErrMalformedMessage
	}
	if err := json.Unmarshal(content, &request); err != nil {
		return nil, err
	}
	req.Request = request
	return &req, nil
}

// MarshalResponse returns a JSON encoding of the server's response.
func MarshalResponse(response *protocol.Response) ([]byte, error) {
	return json.Marshal(response)
}

// UnmarshalResponse decodes the given message into a protocol.Response
// according to the given request type t. The request types are integer
// constants defined in the protocol package.
func UnmarshalResponse(t int, msg []byte) *protocol.Response {
	type Response struct {
		Error protocol.ErrorCode
		Body  json.RawMessage
	}
	var res Response
	if err := json.Unmarshal(msg, &res); err != nil {
		return &protocol.Response{
			Error: protocol.ErrMalformedMessage,
		}
	}

	// Body is omitempty for the places where Error is in Errors,
	// and for the request types whose success carries no payload
	if res.Body == nil {
		response := &protocol.Response{
			Error: res.Error,
		}
		if err := response.Validate(); err != nil {
			// we don't want to return an ErrMalformedMessage
			// if Error is in Errors
			if err == protocol.ErrMalformedMessage {
				return &protocol.Response{
					Error: protocol.ErrMalformedMessage,
				}
			}
		}
		return response
	}

	var body protocol.ResponseBody
	switch t {
	case protocol.RegisterType, protocol.LoginType:
		body = new(protocol.AuthResult)
	case protocol.GetFriendProfileType:
		body = new(protocol.ProfileResult)
	case protocol.GetPhotoType:
		body = new(protocol.PhotoResult)
	case protocol.SynchronizeType, protocol.SynchronizeFriendType:
		body = new(protocol.SyncResult)
	case protocol.GetAlbumType:
		body = new(protocol.AlbumResult)
	case protocol.UpdateProfileType, protocol.PutPhotoType,
		protocol.PushLogEntryType, protocol.UploadAlbumType:
		// success carries no body for these types
		return &protocol.Response{
			Error: protocol.ErrMalformedMessage,
		}
	default:
		panic("Unknown request type")
	}
	if err := json.Unmarshal(res.Body, body); err != nil {
		return &protocol.Response{
			Error: protocol.ErrMalformedMessage,
		}
	}
	return &protocol.Response{
		Error: res.Error,
		Body:  body,
	}
}

func malformedClientMsg(err error) *protocol.Response {
	// check if we're just propagating a message
	if err == nil {
		err = protocol.ErrMalformedMessage
	}
	return protocol.NewErrorResponse(protocol.ErrMalformedMessage)
}
