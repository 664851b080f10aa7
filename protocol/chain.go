// Implements hash-chain replay of a user's log. A ChainState is the
// incremental fold carried by a client between synchronizations; it is
// provably equivalent to a full replay from index 0 by induction on
// the log length.

package protocol

import (
	"bytes"
	"errors"

	"github.com/photochain-sys/photochain-go/crypto"
	"github.com/photochain-sys/photochain-go/crypto/sign"
)

var (
	// ErrEntryOutOfOrder marks an entry whose version does not match
	// the next expected index (reorder, duplicate, or deletion).
	ErrEntryOutOfOrder = errors.New("protocol: log entry out of order")
	// ErrChainMismatch marks an entry whose predecessor hash does not
	// match the replayed chain (substitution or splice).
	ErrChainMismatch = errors.New("protocol: log entry breaks hash chain")
	// ErrBadSignature marks an entry whose device signature fails.
	ErrBadSignature = errors.New("protocol: bad entry signature")
	// ErrBadCertificate marks a REGISTER entry whose author device key
	// is not certified by the user's identity key.
	ErrBadCertificate = errors.New("protocol: bad device certificate")
	// ErrMissingRegister marks a log that does not start with REGISTER.
	ErrMissingRegister = errors.New("protocol: history does not begin with registration")
)

// A ChainState verifies and folds a user's log incrementally. The
// identity key is the trust anchor: sibling devices re-derive it from
// the shared user secret, friends receive it out of band via AddFriend.
type ChainState struct {
	identity sign.PublicKey
	registry *DeviceRegistry

	nextVersion int64
	lastHash    []byte
}

// NewChainState creates the replay state for an empty log trusted
// against the given identity verification key.
func NewChainState(identity sign.PublicKey) *ChainState {
	return &ChainState{
		identity: identity,
		registry: NewDeviceRegistry(),
	}
}

// NextVersion returns the next expected log index.
func (c *ChainState) NextVersion() int64 {
	return c.nextVersion
}

// LastHash returns the digest of the last applied encoded entry, or
// nil for an empty chain.
func (c *ChainState) LastHash() []byte {
	return c.lastHash
}

// Registry exposes the replayed device-authorization state.
func (c *ChainState) Registry() *DeviceRegistry {
	return c.registry
}

// Apply validates one encoded entry against the chain and folds it in.
// Checks run in order: decode, position, predecessor hash, registration
// placement and certificate, device signature, authorization
// transition. On any error the state is left unchanged and the caller
// must abort the synchronization.
func (c *ChainState) Apply(encoded []byte) (*SignedLogEntry, error) {
	e, err := DecodeSignedLogEntry(encoded)
	if err != nil {
		return nil, err
	}
	if e.Version != c.nextVersion {
		return nil, ErrEntryOutOfOrder
	}
	if !bytes.Equal(e.PrevHash, c.lastHash) {
		return nil, ErrChainMismatch
	}

	if c.nextVersion == 0 {
		if e.Entry.Opcode != OpRegister {
			return nil, ErrMissingRegister
		}
	} else if e.Entry.Opcode == OpRegister {
		return nil, ErrInvalidTransition
	}
	if e.Entry.Opcode == OpRegister {
		if !c.identity.Verify(e.Author, e.AuthorCert) {
			return nil, ErrBadCertificate
		}
	} else if len(e.AuthorCert) != 0 {
		return nil, ErrMalformedEntry
	}

	if !e.VerifySig() {
		return nil, ErrBadSignature
	}
	if err := c.registry.Apply(e); err != nil {
		return nil, err
	}

	c.nextVersion++
	c.lastHash = crypto.Digest(encoded)
	return e, nil
}
