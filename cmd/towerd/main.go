// Command towerd runs the tower-store and duplicate-shred-evidence
// subsystems of a validator as a standalone process, for local testing and
// as a reference for embedding into a full node.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	towerPathFlag = &cli.StringFlag{
		Name:  "tower-path",
		Usage: "root directory for the file tower-store backend",
		Value: "./towers",
	}
	migrationFlag = &cli.BoolFlag{
		Name:  "migration",
		Usage: "decode loaded towers using the legacy 1_7_14 wire format",
	}
	etcdEndpointsFlag = &cli.StringFlag{
		Name:  "etcd-endpoints",
		Usage: "comma-separated etcd endpoints; when set, selects the etcd tower-store backend",
	}
	etcdTLSDomainFlag = &cli.StringFlag{
		Name:  "etcd-tls-domain",
		Usage: "expected server name on the etcd TLS certificate",
	}
	etcdTLSCAFlag = &cli.StringFlag{
		Name:  "etcd-tls-ca",
		Usage: "PEM file containing the etcd cluster's CA certificate",
	}
	etcdTLSCertFlag = &cli.StringFlag{
		Name:  "etcd-tls-cert",
		Usage: "PEM file containing this node's etcd client certificate",
	}
	etcdTLSKeyFlag = &cli.StringFlag{
		Name:  "etcd-tls-key",
		Usage: "PEM file containing this node's etcd client private key",
	}
	gossipSleepFlag = &cli.DurationFlag{
		Name:  "gossip-sleep",
		Usage: "poll interval between gossip cursor reads",
		Value: 100 * time.Millisecond,
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML config file; CLI flags override values it sets",
	}
)

func configFromContext(ctx *cli.Context) (config, error) {
	cfg := defaultConfig()
	if path := ctx.String(configFlag.Name); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return config{}, err
		}
	}

	if ctx.IsSet(towerPathFlag.Name) {
		cfg.TowerPath = ctx.String(towerPathFlag.Name)
	}
	if ctx.IsSet(migrationFlag.Name) {
		cfg.Migration = ctx.Bool(migrationFlag.Name)
	}
	if ctx.IsSet(etcdEndpointsFlag.Name) {
		cfg.EtcdEndpoints = splitCommaList(ctx.String(etcdEndpointsFlag.Name))
	}
	if ctx.IsSet(etcdTLSDomainFlag.Name) {
		cfg.EtcdTLS.DomainName = ctx.String(etcdTLSDomainFlag.Name)
	}
	if ctx.IsSet(etcdTLSCAFlag.Name) {
		cfg.EtcdTLS.CACertificateFile = ctx.String(etcdTLSCAFlag.Name)
	}
	if ctx.IsSet(etcdTLSCertFlag.Name) {
		cfg.EtcdTLS.IdentityCertificateFile = ctx.String(etcdTLSCertFlag.Name)
	}
	if ctx.IsSet(etcdTLSKeyFlag.Name) {
		cfg.EtcdTLS.IdentityPrivateKeyFile = ctx.String(etcdTLSKeyFlag.Name)
	}
	if ctx.IsSet(gossipSleepFlag.Name) {
		cfg.GossipSleep = ctx.Duration(gossipSleepFlag.Name)
	}
	return cfg, nil
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "start the tower store and duplicate-shred evidence pipeline",
	Flags: []cli.Flag{
		towerPathFlag, migrationFlag, etcdEndpointsFlag,
		etcdTLSDomainFlag, etcdTLSCAFlag, etcdTLSCertFlag, etcdTLSKeyFlag,
		gossipSleepFlag, configFlag,
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := configFromContext(ctx)
		if err != nil {
			return err
		}
		return runDaemon(cfg)
	},
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "towerd"
	app.Usage = "validator tower persistence and duplicate-shred evidence daemon"
	app.Commands = []*cli.Command{runCommand}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
