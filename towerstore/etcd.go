package towerstore

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/tos-network/towerd/crypto/ed25519"
	"github.com/tos-network/towerd/log"
)

var etcdLog = log.New("component", "towerstore.etcd")

// EtcdTLSConfig carries the optional mutual-TLS material for connecting to
// an etcd cluster. All fields are PEM-encoded.
type EtcdTLSConfig struct {
	DomainName          string
	CACertificate       []byte
	IdentityCertificate []byte
	IdentityPrivateKey  []byte
}

func (c *EtcdTLSConfig) tlsConfig() (*tls.Config, error) {
	if c == nil {
		return nil, nil
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(c.CACertificate) {
		return nil, fmt.Errorf("towerstore: invalid etcd CA certificate")
	}
	cert, err := tls.X509KeyPair(c.IdentityCertificate, c.IdentityPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("towerstore: invalid etcd identity certificate: %w", err)
	}
	return &tls.Config{
		ServerName:   c.DomainName,
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
	}, nil
}

// EtcdStore is the distributed backend. It enforces an implicit,
// no-TTL exclusive lease per validator pubkey: Load acquires the lease by
// overwriting "<pubkey>/instance" with this process's instanceID, then reads
// "<pubkey>/tower" conditioned on that same instanceID still being in place.
// Store writes conditioned the same way. Any later Load from a competing
// process invalidates this one's lease; this process's next Store then fails
// with a lost-lock IOError instead of silently clobbering the newer writer.
type EtcdStore struct {
	mu         sync.Mutex
	client     *clientv3.Client
	instanceID [8]byte
	Migration  bool
}

// NewEtcdStore dials endpoints (optionally over mutual TLS) and derives a
// fresh, time-ordered instance id for this process via UUIDv7 — sortable,
// useful for reading etcd key history during an incident.
func NewEtcdStore(endpoints []string, tlsCfg *EtcdTLSConfig, migration bool) (*EtcdStore, error) {
	tc, err := tlsCfg.tlsConfig()
	if err != nil {
		return nil, err
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
		TLS:         tc,
	})
	if err != nil {
		return nil, toIOError("failed to connect to etcd", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("towerstore: failed to generate etcd instance id: %w", err)
	}
	var instanceID [8]byte
	copy(instanceID[:], id[:8])

	return &EtcdStore{client: client, instanceID: instanceID, Migration: migration}, nil
}

func etcdKeys(nodePubkey ed25519.PublicKey) (instanceKey, towerKey string) {
	b58 := base58Encode(nodePubkey)
	return b58 + "/instance", b58 + "/tower"
}

func toIOError(context string, err error) error {
	return NewIOError(fmt.Sprintf("%s: %s", context, err))
}

func (e *EtcdStore) Load(nodePubkey ed25519.PublicKey) (SavedTowerVersion, error) {
	instanceKey, towerKey := etcdKeys(nodePubkey)

	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Unconditionally claim the instance lock.
	if _, err := e.client.Txn(ctx).
		Then(clientv3.OpPut(instanceKey, string(e.instanceID[:]))).
		Commit(); err != nil {
		etcdLog.Error("failed to acquire etcd instance lock", "pubkey", b58For(nodePubkey), "err", err)
		return nil, toIOError("failed to acquire etcd instance lock", err)
	}

	// Read the tower only if nobody has re-claimed the lock since.
	resp, err := e.client.Txn(ctx).
		If(clientv3.Compare(clientv3.Value(instanceKey), "=", string(e.instanceID[:]))).
		Then(clientv3.OpGet(towerKey)).
		Commit()
	if err != nil {
		etcdLog.Error("failed to read etcd saved tower", "pubkey", b58For(nodePubkey), "err", err)
		return nil, toIOError("failed to read etcd saved tower", err)
	}
	if !resp.Succeeded {
		return nil, NewIOError(fmt.Sprintf("lost etcd instance lock for %s", b58For(nodePubkey)))
	}

	getResp := resp.Responses[0].GetResponseRange()
	if getResp == nil || len(getResp.Kvs) == 0 {
		return nil, NewIOError("saved tower response missing")
	}

	raw, err := snappy.Decode(nil, getResp.Kvs[0].Value)
	if err != nil {
		return nil, err
	}

	if e.Migration {
		var saved SavedTower1_7_14
		if err := decodeEnvelope(raw, &saved); err != nil {
			return nil, err
		}
		return saved, nil
	}
	var saved SavedTower
	if err := decodeEnvelope(raw, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (e *EtcdStore) Store(saved SavedTowerVersion) error {
	// A freshly signed envelope has no NodePubkey; use the signed payload's.
	pubkey := saved.Pubkey()
	if len(pubkey) == 0 {
		var tower Tower
		var err error
		switch s := saved.(type) {
		case SavedTower:
			tower, err = decodeTower(s.Data)
		case SavedTower1_7_14:
			tower, err = decodeLegacyTower(s.Data)
		}
		if err != nil {
			return err
		}
		pubkey = tower.NodePubkey
	}
	instanceKey, towerKey := etcdKeys(pubkey)

	encoded, err := encodeEnvelope(saved)
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, encoded)

	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := e.client.Txn(ctx).
		If(clientv3.Compare(clientv3.Value(instanceKey), "=", string(e.instanceID[:]))).
		Then(clientv3.OpPut(towerKey, string(compressed))).
		Commit()
	if err != nil {
		etcdLog.Error("failed to write etcd saved tower", "pubkey", b58For(pubkey), "err", err)
		return toIOError("failed to write etcd saved tower", err)
	}
	if !resp.Succeeded {
		return NewIOError(fmt.Sprintf("lost etcd instance lock for %s", b58For(pubkey)))
	}
	return nil
}

func b58For(pubkey ed25519.PublicKey) string { return base58Encode(pubkey) }

var _ Store = (*EtcdStore)(nil)
