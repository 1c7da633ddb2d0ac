// Package votebuffer holds the latest unprocessed vote per validator: a
// bounded-contention buffer that always retains only the highest-slot vote
// packet seen for each pubkey, drained by a stake-weighted reservoir sample
// when the voting loop is ready to process a batch.
package votebuffer

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tos-network/towerd/crypto/ed25519"
)

// VotePacket is an opaque vote payload; only Slot is inspected by the buffer.
type VotePacket struct {
	Slot uint64
	Data []byte
}

type entry struct {
	mu     sync.Mutex
	slot   uint64
	packet *VotePacket
}

// LatestUnprocessedVotes is safe for concurrent use. Contention is scoped to
// the map's outer RWMutex (write-locked only on first-time insert) plus one
// inner per-entry Mutex guarding that entry's (slot, packet) pair.
type LatestUnprocessedVotes struct {
	mu      sync.RWMutex
	entries map[string]*entry
	size    int64
}

func New() *LatestUnprocessedVotes {
	return &LatestUnprocessedVotes{entries: make(map[string]*entry)}
}

// UpdateVote replaces the tracked packet for pubkey if slot is strictly
// greater than the slot currently on file, returning the evicted packet (nil
// if this is the first vote seen for pubkey). When slot is not newer, the
// offered packet is returned unchanged for the caller to discard.
func (b *LatestUnprocessedVotes) UpdateVote(pubkey ed25519.PublicKey, slot uint64, packet *VotePacket) *VotePacket {
	key := string(pubkey)

	b.mu.RLock()
	e, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok {
		b.mu.Lock()
		if e, ok = b.entries[key]; !ok {
			e = &entry{slot: slot, packet: packet}
			b.entries[key] = e
			b.mu.Unlock()
			if packet != nil {
				atomic.AddInt64(&b.size, 1)
			}
			return nil
		}
		b.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if slot <= e.slot {
		return packet
	}
	evicted := e.packet
	hadPacket := e.packet != nil
	e.slot = slot
	e.packet = packet
	switch {
	case !hadPacket && packet != nil:
		atomic.AddInt64(&b.size, 1)
	case hadPacket && packet == nil:
		atomic.AddInt64(&b.size, -1)
	}
	return evicted
}

// LatestVoteSlot reports the highest slot seen for pubkey, if any.
func (b *LatestUnprocessedVotes) LatestVoteSlot(pubkey ed25519.PublicKey) (uint64, bool) {
	key := string(pubkey)
	b.mu.RLock()
	e, ok := b.entries[key]
	b.mu.RUnlock()
	if !ok {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slot, true
}

// Size returns the number of entries currently holding a non-empty packet.
func (b *LatestUnprocessedVotes) Size() int64 { return atomic.LoadInt64(&b.size) }

// IsEmpty reports whether Size() == 0. A genuine boolean, unlike an earlier
// analogous getter that returned a raw count under the same name.
func (b *LatestUnprocessedVotes) IsEmpty() bool { return b.Size() == 0 }

// weightedKey draws Efraimidis-Spirakis' U(0,1)^(1/weight) sampling key.
// Weights here span roughly 10^3-10^9 (validator stake), so this
// power-of-uniform formulation is used rather than, say, the alias method,
// which assumes a weight distribution fixed and known up front.
func weightedKey(weight uint64) float64 {
	if weight == 0 {
		return 0
	}
	u := rand.Float64()
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	return math.Pow(u, 1/float64(weight))
}

// DrainWeightedByStake samples packets without replacement, visiting staked
// pubkeys in descending Efraimidis-Spirakis key order. Each visited entry's
// packet is atomically taken (left nil in the buffer) and the size counter
// decremented. Results are grouped into chunks of at most chunkSize.
func (b *LatestUnprocessedVotes) DrainWeightedByStake(stakes map[string]uint64, chunkSize int) [][]VotePacket {
	if chunkSize <= 0 {
		chunkSize = 1
	}

	type keyed struct {
		pubkey string
		key    float64
	}
	ranked := make([]keyed, 0, len(stakes))
	for pubkey, stake := range stakes {
		if stake == 0 {
			continue
		}
		ranked = append(ranked, keyed{pubkey: pubkey, key: weightedKey(stake)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].key > ranked[j].key })

	var drained []VotePacket
	for _, r := range ranked {
		b.mu.RLock()
		e, ok := b.entries[r.pubkey]
		b.mu.RUnlock()
		if !ok {
			continue
		}
		e.mu.Lock()
		packet := e.packet
		if packet != nil {
			e.packet = nil
			atomic.AddInt64(&b.size, -1)
		}
		e.mu.Unlock()
		if packet != nil {
			drained = append(drained, *packet)
		}
	}

	if len(drained) == 0 {
		return nil
	}
	var chunks [][]VotePacket
	for start := 0; start < len(drained); start += chunkSize {
		end := start + chunkSize
		if end > len(drained) {
			end = len(drained)
		}
		chunks = append(chunks, drained[start:end])
	}
	return chunks
}
