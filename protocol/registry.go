// Implements the device-authorization state machine. Authorization is
// never stored as ground truth: it is a pure function of the log
// prefix, recomputed (or incrementally folded) by every honest device.

package protocol

import (
	"errors"
	"sort"
)

// A DeviceState is the authorization standing of one device signing
// key within a user's log.
type DeviceState int

const (
	DeviceUnknown DeviceState = iota
	DeviceInvited
	DeviceAuthorized
	DeviceRevoked
)

func (s DeviceState) String() string {
	switch s {
	case DeviceInvited:
		return "invited"
	case DeviceAuthorized:
		return "authorized"
	case DeviceRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

var (
	// ErrUnauthorizedDevice marks an entry whose acting device is not
	// authorized at its position in the replay.
	ErrUnauthorizedDevice = errors.New("protocol: entry from unauthorized device")
	// ErrInvalidTransition marks an entry requesting an illegal device
	// state change (e.g. accepting a never-issued invite, or re-adding
	// a revoked key).
	ErrInvalidTransition = errors.New("protocol: invalid device state transition")
)

// A DeviceRegistry tracks the authorization state of every device key
// seen so far in a replay.
type DeviceRegistry struct {
	states map[string]DeviceState
}

// NewDeviceRegistry creates an empty registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{states: make(map[string]DeviceState)}
}

// State returns the current standing of the given device key.
func (r *DeviceRegistry) State(pk []byte) DeviceState {
	return r.states[string(pk)]
}

// Authorized reports whether the given device key is currently
// authorized.
func (r *DeviceRegistry) Authorized(pk []byte) bool {
	return r.states[string(pk)] == DeviceAuthorized
}

// AuthorizedKeys returns the currently authorized device keys in a
// deterministic order.
func (r *DeviceRegistry) AuthorizedKeys() [][]byte {
	var keys []string
	for k, s := range r.states {
		if s == DeviceAuthorized {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out
}

// Apply folds one decoded entry into the registry. The entry's
// signature and chain position must already have been verified. Any
// violation is fatal to the replay: callers must abort, never skip.
func (r *DeviceRegistry) Apply(e *SignedLogEntry) error {
	actor := string(e.Author)
	switch e.Entry.Opcode {
	case OpRegister:
		if len(r.states) != 0 {
			return ErrInvalidTransition
		}
		if _, err := DecodeRegisterData(e.Entry.Data); err != nil {
			return err
		}
		r.states[actor] = DeviceAuthorized

	case OpPutPhoto:
		if r.states[actor] != DeviceAuthorized {
			return ErrUnauthorizedDevice
		}
		if _, err := DecodePutPhotoData(e.Entry.Data); err != nil {
			return err
		}

	case OpInviteDevice:
		if r.states[actor] != DeviceAuthorized {
			return ErrUnauthorizedDevice
		}
		data, err := DecodeInviteDeviceData(e.Entry.Data)
		if err != nil {
			return err
		}
		if r.states[string(data.PublicKey)] != DeviceUnknown {
			// a revoked key can never be re-invited, and re-inviting a
			// known key is a protocol violation
			return ErrInvalidTransition
		}
		r.states[string(data.PublicKey)] = DeviceInvited

	case OpAcceptInvite:
		if r.states[actor] != DeviceInvited {
			return ErrInvalidTransition
		}
		data, err := DecodeAcceptInviteData(e.Entry.Data)
		if err != nil {
			return err
		}
		// the named inviter must be authorized at this point in the
		// replay, not merely have been authorized once
		if r.states[string(data.InviterKey)] != DeviceAuthorized {
			return ErrUnauthorizedDevice
		}
		r.states[actor] = DeviceAuthorized

	case OpRevokeDevice:
		if r.states[actor] != DeviceAuthorized {
			return ErrUnauthorizedDevice
		}
		data, err := DecodeRevokeDeviceData(e.Entry.Data)
		if err != nil {
			return err
		}
		target := r.states[string(data.PublicKey)]
		if target != DeviceInvited && target != DeviceAuthorized {
			return ErrInvalidTransition
		}
		r.states[string(data.PublicKey)] = DeviceRevoked

	default:
		return ErrMalformedEntry
	}
	return nil
}
