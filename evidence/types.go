// Package evidence implements the gossip-fed duplicate-shred pipeline: an
// Entry Listener that forwards signalling peer pubkeys from the gossip
// cursor, and an Evidence Aggregator that reassembles chunked proofs of
// equivocation, persists confirmed duplicates to the blockstore, and
// notifies replay at most once per slot.
package evidence

import (
	"errors"

	"github.com/tos-network/towerd/crypto/ed25519"
)

// Sentinel errors. intoShreds wraps ErrCorruptProof with fmt.Errorf around
// codec and leader-signature failures (and returns it bare for an empty
// chunk set); ErrUnknownLeader and ErrShredsIdentical are returned as-is.
// ErrChunkOverflow is not returned by this package: the aggregator logs a
// chunk overflow and discards the proof.
var (
	ErrChunkOverflow  = errors.New("evidence: chunk count exceeds expected")
	ErrCorruptProof   = errors.New("evidence: proof payload does not decode")
	ErrUnknownLeader  = errors.New("evidence: no leader scheduled for slot")
	ErrShredsIdentical = errors.New("evidence: shreds do not conflict")
)

// DuplicateShredChunk is one fragment of a two-shred equivocation proof, as
// observed from gossip. Chunks sharing (Slot) are reassembled once
// len(chunks) == NumChunks.
type DuplicateShredChunk struct {
	Slot       uint64
	NumChunks  uint32
	ChunkIndex uint32
	Payload    []byte
}

// EntryKind discriminates gossip cluster-value payloads. The listener only
// acts on EntryDuplicateShred; everything else is out of scope here and
// consumed by other subsystems.
type EntryKind int

const (
	EntryOther EntryKind = iota
	EntryDuplicateShred
)

// GossipEntry is one cluster value observed since the last cursor position.
type GossipEntry struct {
	Peer ed25519.PublicKey
	Kind EntryKind
}

// Cursor is an opaque, monotonically-advanced position into the gossip
// value stream. The zero Cursor means "from the beginning".
type Cursor uint64

// ClusterInfo is the gossip overlay collaborator. GossipEntriesSince drives
// the entry listener; DuplicateShredChunks drives the aggregator's
// per-peer reassembly query.
type ClusterInfo interface {
	GossipEntriesSince(cursor Cursor) (entries []GossipEntry, next Cursor)
	DuplicateShredChunks(peer ed25519.PublicKey) []DuplicateShredChunk
}

// Blockstore is the ledger store collaborator: the aggregator's sole source
// of truth for "has this slot already been reported duplicate", and the
// sole place confirmed duplicate-slot proofs are persisted.
type Blockstore interface {
	HasDuplicateSlot(slot uint64) (bool, error)
	StoreDuplicateSlotProof(slot uint64, shred1, shred2 []byte) error
}

// LeaderScheduleFn resolves the pubkey scheduled to lead slot, as of some
// root bank snapshot. Returns ok=false if slot falls outside the known
// schedule window.
type LeaderScheduleFn func(slot uint64) (leader ed25519.PublicKey, ok bool)

// BankForks is the fork-tree collaborator: the aggregator reads the current
// root bank's leader schedule once per pass, never retaining it across
// passes.
type BankForks interface {
	RootBankLeaderSchedule() LeaderScheduleFn
}
