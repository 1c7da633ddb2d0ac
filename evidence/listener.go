package evidence

import (
	"context"
	"time"

	"github.com/tos-network/towerd/crypto/ed25519"
	"github.com/tos-network/towerd/log"
)

var listenerLog = log.New("component", "evidence.listener")

// GossipSleep is the default poll interval between gossip cursor reads.
const GossipSleep = 100 * time.Millisecond

// RunEntryListener polls cluster for duplicate-shred cluster values since
// cursor and forwards the originating peer's pubkey on peerCh. The cursor
// itself is the deduplication mechanism for the gossip feed — this loop
// does no filtering of its own beyond the entry kind.
//
// peerCh is expected to be bounded with drop-oldest-on-overflow semantics
// (see sendDropOldest); each signal is redundant with peer state already
// held in gossip, so losing a stale one under sustained flood is safe.
func RunEntryListener(ctx context.Context, cluster ClusterInfo, peerCh chan ed25519.PublicKey, sleep time.Duration) error {
	if sleep <= 0 {
		sleep = GossipSleep
	}
	cursor := Cursor(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entries, next := cluster.GossipEntriesSince(cursor)
		cursor = next
		for _, entry := range entries {
			if entry.Kind != EntryDuplicateShred {
				continue
			}
			sendDropOldest(ctx, peerCh, entry.Peer)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// sendDropOldest sends pubkey on ch, dropping the oldest queued value to
// make room if ch is at capacity. Best-effort under concurrent draining:
// if the consumer races us and refills the slot we just freed, this signal
// is dropped rather than spun on, since it is redundant with gossip state.
func sendDropOldest(ctx context.Context, ch chan ed25519.PublicKey, pubkey ed25519.PublicKey) {
	select {
	case ch <- pubkey:
		return
	case <-ctx.Done():
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- pubkey:
	case <-ctx.Done():
	default:
		listenerLog.Warn("dropped duplicate-shred signal under sustained overflow", "peer", pubkey)
	}
}
