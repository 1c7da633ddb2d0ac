package votebuffer

import (
	"testing"

	"github.com/tos-network/towerd/crypto/ed25519"
)

func pubkeyFor(b byte) ed25519.PublicKey {
	pk := make(ed25519.PublicKey, ed25519.PublicKeySize)
	pk[0] = b
	return pk
}

func TestUpdateVoteFirstInsertionIncrementsSize(t *testing.T) {
	buf := New()
	pk := pubkeyFor(1)

	evicted := buf.UpdateVote(pk, 10, &VotePacket{Slot: 10})
	if evicted != nil {
		t.Fatalf("expected no eviction on first insertion, got %+v", evicted)
	}
	if buf.Size() != 1 {
		t.Fatalf("expected size 1 after first insertion, got %d", buf.Size())
	}
	if buf.IsEmpty() {
		t.Fatalf("expected buffer not empty")
	}
}

func TestUpdateVotePreservesHigherPriorSlot(t *testing.T) {
	buf := New()
	pk := pubkeyFor(2)

	buf.UpdateVote(pk, 10, &VotePacket{Slot: 10})
	stale := &VotePacket{Slot: 5}
	returned := buf.UpdateVote(pk, 5, stale)
	if returned != stale {
		t.Fatalf("expected stale packet returned unchanged")
	}
	slot, ok := buf.LatestVoteSlot(pk)
	if !ok || slot != 10 {
		t.Fatalf("expected stored slot to remain 10, got %d (ok=%v)", slot, ok)
	}
	if buf.Size() != 1 {
		t.Fatalf("expected size unchanged at 1, got %d", buf.Size())
	}
}

func TestUpdateVoteReplacesOnStrictlyGreaterSlot(t *testing.T) {
	buf := New()
	pk := pubkeyFor(3)

	first := &VotePacket{Slot: 10}
	buf.UpdateVote(pk, 10, first)
	second := &VotePacket{Slot: 20}
	evicted := buf.UpdateVote(pk, 20, second)
	if evicted != first {
		t.Fatalf("expected first packet evicted")
	}
	slot, ok := buf.LatestVoteSlot(pk)
	if !ok || slot != 20 {
		t.Fatalf("expected stored slot 20, got %d (ok=%v)", slot, ok)
	}
	if buf.Size() != 1 {
		t.Fatalf("expected size to remain 1 across replacement, got %d", buf.Size())
	}
}

func TestSizeInvariantAcrossDrain(t *testing.T) {
	buf := New()
	pkA, pkB := pubkeyFor(4), pubkeyFor(5)
	buf.UpdateVote(pkA, 10, &VotePacket{Slot: 10})
	buf.UpdateVote(pkB, 20, &VotePacket{Slot: 20})

	if buf.Size() != 2 {
		t.Fatalf("expected size 2, got %d", buf.Size())
	}

	stakes := map[string]uint64{
		string(pkA): 1_000,
		string(pkB): 1_000_000_000,
	}
	chunks := buf.DrainWeightedByStake(stakes, 10)
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	if total != 2 {
		t.Fatalf("expected 2 packets drained, got %d", total)
	}
	if buf.Size() != 0 {
		t.Fatalf("expected size 0 after full drain, got %d", buf.Size())
	}
	if !buf.IsEmpty() {
		t.Fatalf("expected buffer empty after full drain")
	}
}

func TestDrainWeightedByStakeRespectsChunkSize(t *testing.T) {
	buf := New()
	stakes := make(map[string]uint64)
	for i := byte(0); i < 25; i++ {
		pk := pubkeyFor(i + 10)
		buf.UpdateVote(pk, uint64(i)+1, &VotePacket{Slot: uint64(i) + 1})
		stakes[string(pk)] = uint64(i) + 1
	}

	chunks := buf.DrainWeightedByStake(stakes, 10)
	var total int
	for _, c := range chunks {
		if len(c) > 10 {
			t.Fatalf("chunk exceeds chunkSize: %d", len(c))
		}
		total += len(c)
	}
	if total != 25 {
		t.Fatalf("expected all 25 packets drained, got %d", total)
	}
}

func TestDrainWeightedByStakeSkipsUnknownPubkeys(t *testing.T) {
	buf := New()
	pk := pubkeyFor(6)
	buf.UpdateVote(pk, 1, &VotePacket{Slot: 1})

	unknown := pubkeyFor(7)
	stakes := map[string]uint64{string(unknown): 500}

	chunks := buf.DrainWeightedByStake(stakes, 10)
	if len(chunks) != 0 {
		t.Fatalf("expected no packets drained for a pubkey with no buffered vote")
	}
	if buf.Size() != 1 {
		t.Fatalf("expected untouched entry to still count toward size, got %d", buf.Size())
	}
}
