package main

import (
	"github.com/tos-network/towerd/crypto/ed25519"
	"github.com/tos-network/towerd/evidence"
)

// nullClusterInfo, nullBlockstore, and nullBankForks stand in for the gossip
// overlay, ledger store, and fork tree a real validator process supplies.
// They let `towerd run` wire and exercise the full entry-listener/aggregator
// pipeline standalone (useful for smoke-testing the plumbing); a production
// deployment embeds this module's evidence.Run with its own ClusterInfo/
// Blockstore/BankForks implementations instead of these.
type nullClusterInfo struct{}

func (nullClusterInfo) GossipEntriesSince(cursor evidence.Cursor) ([]evidence.GossipEntry, evidence.Cursor) {
	return nil, cursor
}

func (nullClusterInfo) DuplicateShredChunks(ed25519.PublicKey) []evidence.DuplicateShredChunk {
	return nil
}

type nullBlockstore struct{}

func (nullBlockstore) HasDuplicateSlot(uint64) (bool, error) { return false, nil }

func (nullBlockstore) StoreDuplicateSlotProof(uint64, []byte, []byte) error { return nil }

type nullBankForks struct{}

func (nullBankForks) RootBankLeaderSchedule() evidence.LeaderScheduleFn {
	return func(uint64) (ed25519.PublicKey, bool) { return nil, false }
}
