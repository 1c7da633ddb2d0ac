package towerstore

import "github.com/tos-network/towerd/crypto/ed25519"

// NullStore never has a tower to load and discards every store; it exists
// for tests that need a Store but no durability.
type NullStore struct{}

func (NullStore) Load(ed25519.PublicKey) (SavedTowerVersion, error) {
	return nil, NewIOError("NullStore.Load() not available")
}

func (NullStore) Store(SavedTowerVersion) error {
	return nil
}

var _ Store = NullStore{}
