// Defines the log entry model: the opcode set, the per-opcode payload
// schemas, and the signed envelope that makes every entry
// position-bound and author-bound.

package protocol

import (
	"errors"

	"github.com/photochain-sys/photochain-go/codec"
	"github.com/photochain-sys/photochain-go/crypto/sign"
)

// An OpCode identifies the action a log entry records.
type OpCode int64

const (
	OpRegister OpCode = 1 + iota
	OpPutPhoto
	OpInviteDevice
	OpAcceptInvite
	OpRevokeDevice
)

func (op OpCode) valid() bool {
	return op >= OpRegister && op <= OpRevokeDevice
}

// ErrMalformedEntry is returned when bytes presented as a log entry or
// payload do not decode to the expected shape. Unknown opcodes are a
// hard failure, never skipped.
var ErrMalformedEntry = errors.New("protocol: malformed log entry")

// A LogEntry is one typed, versioned record: an opcode plus its
// canonically-encoded payload.
type LogEntry struct {
	Opcode OpCode
	Data   []byte
}

// Encode serializes the entry as the canonical two-element list
// [opcode, payload].
func (e *LogEntry) Encode() ([]byte, error) {
	return codec.Encode([]interface{}{int64(e.Opcode), e.Data})
}

// DecodeLogEntry is the exact inverse of Encode. Anything that is not
// a well-formed two-element encoding with a known opcode fails.
func DecodeLogEntry(b []byte) (*LogEntry, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return nil, ErrMalformedEntry
	}
	list, ok := v.([]interface{})
	if !ok || len(list) != 2 {
		return nil, ErrMalformedEntry
	}
	op, ok := list[0].(int64)
	if !ok {
		return nil, ErrMalformedEntry
	}
	data, ok := list[1].([]byte)
	if !ok {
		return nil, ErrMalformedEntry
	}
	if !OpCode(op).valid() {
		return nil, ErrMalformedEntry
	}
	return &LogEntry{Opcode: OpCode(op), Data: data}, nil
}

// RegisterData is the (empty) payload of a REGISTER entry.
type RegisterData struct{}

func (RegisterData) Encode() ([]byte, error) {
	return codec.Encode([]interface{}{})
}

func DecodeRegisterData(b []byte) (*RegisterData, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return nil, ErrMalformedEntry
	}
	list, ok := v.([]interface{})
	if !ok || len(list) != 0 {
		return nil, ErrMalformedEntry
	}
	return &RegisterData{}, nil
}

// PutPhotoData is the payload of a PUT_PHOTO entry. PhotoHash commits
// the log to the photo contents, so a server cannot later substitute
// the blob without detection.
type PutPhotoData struct {
	PhotoID   int64
	PhotoHash []byte
}

func (d *PutPhotoData) Encode() ([]byte, error) {
	return codec.Encode([]interface{}{d.PhotoID, d.PhotoHash})
}

func DecodePutPhotoData(b []byte) (*PutPhotoData, error) {
	list, err := decodeKeyPayload(b)
	if err != nil {
		return nil, err
	}
	return &PutPhotoData{PhotoID: list.id, PhotoHash: list.key}, nil
}

// InviteDeviceData is the payload of an INVITE_DEVICE entry: the
// signing public key of the device being invited.
type InviteDeviceData struct {
	PublicKey []byte
}

func (d *InviteDeviceData) Encode() ([]byte, error) {
	return codec.Encode([]interface{}{d.PublicKey})
}

func DecodeInviteDeviceData(b []byte) (*InviteDeviceData, error) {
	key, err := decodeSingleKey(b)
	if err != nil {
		return nil, err
	}
	return &InviteDeviceData{PublicKey: key}, nil
}

// AcceptInviteData is the payload of an ACCEPT_INVITE entry: the
// signing public key of the inviting device.
type AcceptInviteData struct {
	InviterKey []byte
}

func (d *AcceptInviteData) Encode() ([]byte, error) {
	return codec.Encode([]interface{}{d.InviterKey})
}

func DecodeAcceptInviteData(b []byte) (*AcceptInviteData, error) {
	key, err := decodeSingleKey(b)
	if err != nil {
		return nil, err
	}
	return &AcceptInviteData{InviterKey: key}, nil
}

// RevokeDeviceData is the payload of a REVOKE_DEVICE entry: the signing
// public key of the device being revoked.
type RevokeDeviceData struct {
	PublicKey []byte
}

func (d *RevokeDeviceData) Encode() ([]byte, error) {
	return codec.Encode([]interface{}{d.PublicKey})
}

func DecodeRevokeDeviceData(b []byte) (*RevokeDeviceData, error) {
	key, err := decodeSingleKey(b)
	if err != nil {
		return nil, err
	}
	return &RevokeDeviceData{PublicKey: key}, nil
}

type idKeyPair struct {
	id  int64
	key []byte
}

func decodeKeyPayload(b []byte) (*idKeyPair, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return nil, ErrMalformedEntry
	}
	list, ok := v.([]interface{})
	if !ok || len(list) != 2 {
		return nil, ErrMalformedEntry
	}
	id, ok := list[0].(int64)
	if !ok {
		return nil, ErrMalformedEntry
	}
	key, ok := list[1].([]byte)
	if !ok {
		return nil, ErrMalformedEntry
	}
	return &idKeyPair{id: id, key: key}, nil
}

func decodeSingleKey(b []byte) ([]byte, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return nil, ErrMalformedEntry
	}
	list, ok := v.([]interface{})
	if !ok || len(list) != 1 {
		return nil, ErrMalformedEntry
	}
	key, ok := list[0].([]byte)
	if !ok {
		return nil, ErrMalformedEntry
	}
	return key, nil
}

// A SignedLogEntry is the envelope actually appended to a history. It
// binds the entry to a position (Version), to its predecessor
// (PrevHash), and to its authoring device (Author, Sig). A REGISTER
// entry additionally carries AuthorCert, the user identity key's
// signature over the author device key; for every other opcode
// AuthorCert is empty and the author's standing comes from replaying
// the invite/accept/revoke chain.
type SignedLogEntry struct {
	Version    int64
	PrevHash   []byte
	Author     []byte
	AuthorCert []byte
	Entry      LogEntry
	Sig        []byte
}

func (e *SignedLogEntry) signedPayload() ([]byte, error) {
	return codec.Encode([]interface{}{
		e.Version,
		e.PrevHash,
		e.Author,
		e.AuthorCert,
		int64(e.Entry.Opcode),
		e.Entry.Data,
	})
}

// NewSignedEntry builds and signs an envelope for the given position
// with the given device key. authorCert must be non-nil exactly for
// REGISTER entries.
func NewSignedEntry(version int64, prevHash []byte, deviceKey sign.PrivateKey,
	authorCert []byte, entry LogEntry) (*SignedLogEntry, error) {
	author, ok := deviceKey.Public()
	if !ok {
		return nil, errors.New("protocol: bad device signing key")
	}
	e := &SignedLogEntry{
		Version:    version,
		PrevHash:   prevHash,
		Author:     author,
		AuthorCert: authorCert,
		Entry:      entry,
	}
	payload, err := e.signedPayload()
	if err != nil {
		return nil, err
	}
	e.Sig = deviceKey.Sign(payload)
	return e, nil
}

// Encode serializes the envelope canonically.
func (e *SignedLogEntry) Encode() ([]byte, error) {
	return codec.Encode([]interface{}{
		e.Version,
		e.PrevHash,
		e.Author,
		e.AuthorCert,
		int64(e.Entry.Opcode),
		e.Entry.Data,
		e.Sig,
	})
}

// DecodeSignedLogEntry is the exact inverse of Encode. The signature is
// not checked here; chain replay does that with position context.
func DecodeSignedLogEntry(b []byte) (*SignedLogEntry, error) {
	v, err := codec.Decode(b)
	if err != nil {
		return nil, ErrMalformedEntry
	}
	list, ok := v.([]interface{})
	if !ok || len(list) != 7 {
		return nil, ErrMalformedEntry
	}
	version, ok := list[0].(int64)
	if !ok {
		return nil, ErrMalformedEntry
	}
	prevHash, ok := list[1].([]byte)
	if !ok {
		return nil, ErrMalformedEntry
	}
	author, ok := list[2].([]byte)
	if !ok {
		return nil, ErrMalformedEntry
	}
	authorCert, ok := list[3].([]byte)
	if !ok {
		return nil, ErrMalformedEntry
	}
	op, ok := list[4].(int64)
	if !ok || !OpCode(op).valid() {
		return nil, ErrMalformedEntry
	}
	data, ok := list[5].([]byte)
	if !ok {
		return nil, ErrMalformedEntry
	}
	sig, ok := list[6].([]byte)
	if !ok {
		return nil, ErrMalformedEntry
	}
	return &SignedLogEntry{
		Version:    version,
		PrevHash:   prevHash,
		Author:     author,
		AuthorCert: authorCert,
		Entry:      LogEntry{Opcode: OpCode(op), Data: data},
		Sig:        sig,
	}, nil
}

// VerifySig checks the author device's signature over the envelope.
func (e *SignedLogEntry) VerifySig() bool {
	payload, err := e.signedPayload()
	if err != nil {
		return false
	}
	return sign.PublicKey(e.Author).Verify(payload, e.Sig)
}
