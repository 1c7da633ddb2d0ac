package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/tos-network/towerd/crypto/ed25519"
)

type scriptedClusterInfo struct {
	batches [][]GossipEntry
	idx     int
}

func (s *scriptedClusterInfo) GossipEntriesSince(cursor Cursor) ([]GossipEntry, Cursor) {
	if s.idx >= len(s.batches) {
		return nil, cursor + 1
	}
	entries := s.batches[s.idx]
	s.idx++
	return entries, cursor + 1
}

func (s *scriptedClusterInfo) DuplicateShredChunks(ed25519.PublicKey) []DuplicateShredChunk {
	return nil
}

func TestRunEntryListenerForwardsOnlyDuplicateShredEntries(t *testing.T) {
	peer := make(ed25519.PublicKey, ed25519.PublicKeySize)
	peer[0] = 0xAB
	other := make(ed25519.PublicKey, ed25519.PublicKeySize)
	other[0] = 0xCD

	cluster := &scriptedClusterInfo{
		batches: [][]GossipEntry{
			{{Peer: other, Kind: EntryOther}, {Peer: peer, Kind: EntryDuplicateShred}},
		},
	}

	peerCh := make(chan ed25519.PublicKey, 4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- RunEntryListener(ctx, cluster, peerCh, time.Millisecond) }()

	select {
	case got := <-peerCh:
		if string(got) != string(peer) {
			t.Fatalf("expected duplicate-shred peer forwarded, got %x", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for forwarded peer")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for listener to exit")
	}
}

func TestSendDropOldestDropsUnderOverflow(t *testing.T) {
	ch := make(chan ed25519.PublicKey, 1)
	ctx := context.Background()

	first := make(ed25519.PublicKey, ed25519.PublicKeySize)
	first[0] = 1
	second := make(ed25519.PublicKey, ed25519.PublicKeySize)
	second[0] = 2

	sendDropOldest(ctx, ch, first)
	sendDropOldest(ctx, ch, second)

	got := <-ch
	if string(got) != string(second) {
		t.Fatalf("expected the newer signal to survive drop-oldest, got %x", got)
	}
	select {
	case extra := <-ch:
		t.Fatalf("expected channel drained, got extra %x", extra)
	default:
	}
}
