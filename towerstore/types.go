// Package towerstore persists a validator's tower — its consensus lockout
// state — as a signed, versioned envelope across pluggable backends (an
// in-memory null store for tests, a local file with atomic rename-based
// publish, and a distributed etcd store with exclusive per-validator leases).
package towerstore

import (
	"errors"
	"io"

	"github.com/tos-network/towerd/crypto/ed25519"
)

// Sentinel errors. IOError wraps backend-level failures (etcd transport,
// lost lease, missing value, NullStore.Load) and is constructed with
// NewIOError rather than exposed as a single shared sentinel, since its
// message always carries backend-specific detail.
var (
	ErrWrongTower       = errors.New("towerstore: wrong tower")
	ErrInvalidSignature = errors.New("towerstore: invalid signature")
)

// IOError is returned by NullStore.Load and by EtcdStore for transport and
// lease failures, per spec §7 ("IoError(msg)"). FileStore does not wrap
// filesystem failures: it returns the os package's errors unchanged.
type IOError struct {
	Msg string
}

func NewIOError(msg string) error { return &IOError{Msg: msg} }

func (e *IOError) Error() string { return "towerstore: " + e.Msg }

// Rational is a fixed-point lockout-threshold fraction (e.g. 2/3), kept as
// two integers so the tower payload stays a pure-integer RLP structure.
type Rational struct {
	Num   uint64
	Denom uint64
}

// Lockout is one ancestor vote still locked out from being popped off the
// vote stack; ConfirmationCount halves the lockout's remaining life on every
// vote that does not land on top of it.
type Lockout struct {
	Slot              uint64
	ConfirmationCount uint32
}

// VoteState is the full ancestor lockout stack plus the deepest slot that has
// rolled off the stack and is therefore irrevocably rooted.
type VoteState struct {
	Root  uint64
	Votes []Lockout
}

// Vote is the most recent vote cast by the validator.
type Vote struct {
	Slot uint64
	Hash [32]byte
}

// BlockTimestamp is the last block time the validator observed while voting.
// Timestamp is a Unix time but stored unsigned: go-ethereum's rlp package
// only encodes unsigned integer kinds (plus bool/string/byte slices/arrays/
// structs/big.Int/interfaces), the same reason go-ethereum's own
// core/types.Header.Time field is a uint64 rather than int64.
type BlockTimestamp struct {
	Slot      uint64
	Timestamp uint64
}

// SwitchForkThreshold caches the result of the last switch-fork threshold
// check for Slot, so replay does not need to recompute it every pass.
type SwitchForkThreshold struct {
	Slot uint64
	Ok   bool
}

// Tower is the in-memory, fully-populated consensus snapshot. LastVoteTxBlockhash,
// StrayRestoredSlot, and LastSwitchThreshold are never persisted (see codec.go) —
// they are reconstructed by the voting loop from live state after every load.
type Tower struct {
	NodePubkey          ed25519.PublicKey
	ThresholdDepth      uint64
	ThresholdSize       Rational
	VoteState           VoteState
	LastVote            Vote
	LastVoteTxBlockhash [32]byte
	LastTimestamp       BlockTimestamp
	StrayRestoredSlot   *uint64
	LastSwitchThreshold *SwitchForkThreshold
}

// Keypair signs tower payloads for NewSavedTower and proves identity via Public.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

func (k Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.Private, message)
}

// SavedTowerVersion is implemented by every wire-format version (current and
// 1_7_14); callers never need a type switch to load, verify, or persist a
// tower regardless of which decoder produced it.
type SavedTowerVersion interface {
	IntoTower(expected ed25519.PublicKey) (Tower, error)
	SerializeInto(w io.Writer) error
	Pubkey() ed25519.PublicKey
}

// Store is implemented by every backend (Null, File, Etcd).
type Store interface {
	Load(nodePubkey ed25519.PublicKey) (SavedTowerVersion, error)
	Store(saved SavedTowerVersion) error
}
