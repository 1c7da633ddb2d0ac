package evidence

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tos-network/towerd/crypto/ed25519"
)

// PeerSignalCapacity bounds the entry-listener-to-aggregator channel. It is
// drop-oldest-on-overflow (see sendDropOldest) rather than unbounded: each
// signal is redundant with peer state already held in gossip.
const PeerSignalCapacity = 4096

// Run launches the entry listener and the aggregator under a shared errgroup,
// standing in for the exit flag via ctx cancellation. It returns once both
// goroutines have exited, surfacing the first non-nil, non-cancellation
// error either produced.
func Run(ctx context.Context, cluster ClusterInfo, blockstore Blockstore, bankForks BankForks, duplicateSlots chan<- uint64, gossipSleep time.Duration) error {
	peerCh := make(chan ed25519.PublicKey, PeerSignalCapacity)

	aggregator, err := NewAggregator(cluster, blockstore, bankForks, peerCh, duplicateSlots, gossipSleep)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return swallowCancellation(RunEntryListener(gctx, cluster, peerCh, gossipSleep))
	})
	g.Go(func() error {
		return swallowCancellation(aggregator.Run(gctx))
	})
	return g.Wait()
}

func swallowCancellation(err error) error {
	if err == context.Canceled || err == context.DeadlineExceeded {
		return nil
	}
	return err
}
