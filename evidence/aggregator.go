package evidence

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/tos-network/towerd/crypto/ed25519"
	"github.com/tos-network/towerd/log"
)

var aggLog = log.New("component", "evidence.aggregator")

// recentNotificationCacheBytes bounds the fast-path cache of slots already
// sent on the duplicate-slot channel. It is a short-circuit in front of the
// blockstore check, never a substitute for it — eviction just means the next
// pass falls back to querying the blockstore directly. fastcache rounds this
// up internally; it is sized far above what a slot-number keyspace needs.
const recentNotificationCacheBytes = 32 * 1024

// Aggregator reassembles duplicate-shred proofs signalled by the entry
// listener. No reassembly state survives across passes: chunksPerSlot is
// rebuilt from the gossip layer's view every time a peer pubkey is
// processed, so a crash mid-pass loses nothing but the in-flight batch.
type Aggregator struct {
	cluster        ClusterInfo
	blockstore     Blockstore
	bankForks      BankForks
	peerCh         <-chan ed25519.PublicKey
	duplicateSlots chan<- uint64
	gossipSleep    time.Duration
	recent         *fastcache.Cache
}

// NewAggregator wires the aggregator to its collaborators. peerCh is fed by
// the entry listener; duplicateSlots is consumed by replay.
func NewAggregator(cluster ClusterInfo, blockstore Blockstore, bankForks BankForks, peerCh <-chan ed25519.PublicKey, duplicateSlots chan<- uint64, gossipSleep time.Duration) (*Aggregator, error) {
	return &Aggregator{
		cluster:        cluster,
		blockstore:     blockstore,
		bankForks:      bankForks,
		peerCh:         peerCh,
		duplicateSlots: duplicateSlots,
		gossipSleep:    gossipSleep,
		recent:         fastcache.New(recentNotificationCacheBytes),
	}, nil
}

// slotKey encodes a slot number as a fastcache key; fastcache is a
// byte-oriented cache with no typed-key API.
func slotKey(slot uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], slot)
	return buf[:]
}

// Run blocks until ctx is cancelled or peerCh is closed.
func (a *Aggregator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case peer, ok := <-a.peerCh:
			if !ok {
				return nil
			}
			batch := append([]ed25519.PublicKey{peer}, a.drainPending()...)
			a.processBatch(batch)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.gossipSleep):
		}
	}
}

// drainPending non-blockingly collects any pubkeys already queued, so one
// wakeup processes a full batch instead of one peer at a time.
func (a *Aggregator) drainPending() []ed25519.PublicKey {
	var out []ed25519.PublicKey
	for {
		select {
		case p := <-a.peerCh:
			out = append(out, p)
		default:
			return out
		}
	}
}

func (a *Aggregator) processBatch(peers []ed25519.PublicKey) {
	leaderFn := a.bankForks.RootBankLeaderSchedule()
	for _, peer := range peers {
		a.processPeer(leaderFn, peer)
	}
}

func (a *Aggregator) processPeer(leaderFn LeaderScheduleFn, peer ed25519.PublicKey) {
	chunksPerSlot := make(map[uint64][]DuplicateShredChunk)
	expectedPerSlot := make(map[uint64]uint32)

	for _, chunk := range a.cluster.DuplicateShredChunks(peer) {
		if a.alreadyKnown(chunk.Slot) {
			continue
		}
		if _, seen := expectedPerSlot[chunk.Slot]; !seen {
			expectedPerSlot[chunk.Slot] = chunk.NumChunks
		}
		chunksPerSlot[chunk.Slot] = append(chunksPerSlot[chunk.Slot], chunk)
	}

	for slot, chunks := range chunksPerSlot {
		a.ingestDuplicateProofChunk(leaderFn, slot, chunks, expectedPerSlot[slot])
	}
}

// alreadyKnown consults the fast-path cache first, then the blockstore — the
// cache is purely an optimization; the blockstore is authoritative.
func (a *Aggregator) alreadyKnown(slot uint64) bool {
	if a.recent.Has(slotKey(slot)) {
		return true
	}
	known, err := a.blockstore.HasDuplicateSlot(slot)
	if err != nil {
		aggLog.Error("failed to query blockstore for duplicate slot", "slot", slot, "err", err)
		return false
	}
	return known
}

// ingestDuplicateProofChunk implements the three-way chunk-count decision:
// exact count attempts reassembly, overflow is logged and discarded, and a
// short count is silently left for a later pass to complete.
func (a *Aggregator) ingestDuplicateProofChunk(leaderFn LeaderScheduleFn, slot uint64, chunks []DuplicateShredChunk, numChunks uint32) {
	switch got := uint32(len(chunks)); {
	case got == numChunks:
		shred1, shred2, err := intoShreds(chunks, leaderFn)
		if err != nil {
			aggLog.Warn("failed to decode duplicate-shred proof", "slot", slot, "err", err)
			return
		}
		if err := a.blockstore.StoreDuplicateSlotProof(slot, shred1.Payload, shred2.Payload); err != nil {
			aggLog.Error("failed to store duplicate-slot proof", "slot", slot, "err", err)
			return
		}
		a.duplicateSlots <- slot
		a.recent.Set(slotKey(slot), nil)
	case got > numChunks:
		aggLog.Error("duplicate-shred proof corrupt: chunk overflow", "slot", slot, "expected", numChunks, "got", got)
	default:
		// Fewer chunks than expected: a later gossip update from this peer
		// re-triggers reassembly with the missing pieces.
	}
}
