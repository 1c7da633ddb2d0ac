package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tos-network/towerd/evidence"
	"github.com/tos-network/towerd/log"
	"github.com/tos-network/towerd/towerstore"
)

var runLog = log.New("component", "towerd")

// buildStore selects the Etcd backend when endpoints are configured,
// falling back to the File backend rooted at cfg.TowerPath otherwise.
func buildStore(cfg config) (towerstore.Store, error) {
	if len(cfg.EtcdEndpoints) > 0 {
		tlsCfg, err := cfg.EtcdTLS.loadEtcdTLS()
		if err != nil {
			return nil, err
		}
		store, err := towerstore.NewEtcdStore(cfg.EtcdEndpoints, tlsCfg, cfg.Migration)
		if err != nil {
			return nil, err
		}
		runLog.Info("tower store: etcd backend", "endpoints", cfg.EtcdEndpoints, "migration", cfg.Migration)
		return store, nil
	}

	runLog.Info("tower store: file backend", "path", cfg.TowerPath, "migration", cfg.Migration)
	return towerstore.NewFileStoreMigration(cfg.TowerPath, cfg.Migration), nil
}

// runDaemon wires the tower store and the evidence pipeline and blocks
// until interrupted. The tower store itself is invoked by the validator's
// voting thread elsewhere in a full deployment; here it's only constructed
// and logged to confirm the configuration resolves to a working backend.
func runDaemon(cfg config) error {
	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	_ = store // held by the voting thread in a full deployment; see doc comment

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runLog.Info("starting duplicate-shred evidence pipeline", "gossip_sleep", cfg.GossipSleep)
	err = evidence.Run(ctx, nullClusterInfo{}, nullBlockstore{}, nullBankForks{}, make(chan uint64, 1), cfg.GossipSleep)
	if err != nil && ctx.Err() == nil {
		runLog.Error("evidence pipeline exited with error", "err", err)
		return err
	}
	runLog.Info("towerd shutting down")
	return nil
}
