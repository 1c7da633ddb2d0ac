package main

import (
	"fmt"
	"os"
	"time"

	"github.com/naoina/toml"

	"github.com/tos-network/towerd/towerstore"
)

// config is the full set of knobs towerd accepts, mergeable from a TOML
// file (--config) with CLI flags applied on top, flags winning ties.
type config struct {
	TowerPath     string
	Migration     bool
	EtcdEndpoints []string
	EtcdTLS       etcdTLSFileConfig
	GossipSleep   time.Duration
}

// etcdTLSFileConfig holds filesystem paths to PEM material; loadEtcdTLS
// reads them into the towerstore.EtcdTLSConfig the Etcd backend actually
// consumes.
type etcdTLSFileConfig struct {
	DomainName              string
	CACertificateFile       string
	IdentityCertificateFile string
	IdentityPrivateKeyFile  string
}

func defaultConfig() config {
	return config{
		TowerPath:   "./towers",
		GossipSleep: 100 * time.Millisecond,
	}
}

// loadConfigFile decodes a TOML config file into cfg, leaving fields absent
// from the file untouched (their defaultConfig values survive). CLI flags
// are applied afterwards by configFromContext.
func loadConfigFile(path string, cfg *config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("towerd: failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("towerd: failed to parse config file: %w", err)
	}
	return nil
}

func (c *etcdTLSFileConfig) empty() bool {
	return c.CACertificateFile == "" && c.IdentityCertificateFile == "" && c.IdentityPrivateKeyFile == ""
}

// loadEtcdTLS reads the configured PEM files, returning nil if no etcd TLS
// material was configured (plaintext etcd connections are allowed).
func (c *etcdTLSFileConfig) loadEtcdTLS() (*towerstore.EtcdTLSConfig, error) {
	if c.empty() {
		return nil, nil
	}
	ca, err := os.ReadFile(c.CACertificateFile)
	if err != nil {
		return nil, fmt.Errorf("towerd: failed to read etcd CA certificate: %w", err)
	}
	cert, err := os.ReadFile(c.IdentityCertificateFile)
	if err != nil {
		return nil, fmt.Errorf("towerd: failed to read etcd identity certificate: %w", err)
	}
	key, err := os.ReadFile(c.IdentityPrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("towerd: failed to read etcd identity private key: %w", err)
	}
	return &towerstore.EtcdTLSConfig{
		DomainName:          c.DomainName,
		CACertificate:       ca,
		IdentityCertificate: cert,
		IdentityPrivateKey:  key,
	}, nil
}
