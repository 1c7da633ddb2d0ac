package towerstore

import (
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tos-network/towerd/crypto/ed25519"
	"github.com/tos-network/towerd/log"
)

var fileLog = log.New("component", "towerstore.file")

// FileStore is the local-disk backend. Publishing is atomic: a new tower is
// written to a sibling "<file>.new" path and renamed over the real path.
// fsync of the file or its parent directory is deliberately skipped — the
// tower sits on the voting hot path and the extra latency is not worth it;
// the Etcd backend is what makes multi-instance disaster recovery safe.
type FileStore struct {
	TowerPath string
	Migration bool
}

func NewFileStore(towerPath string) FileStore {
	return FileStore{TowerPath: towerPath}
}

func NewFileStoreMigration(towerPath string, migration bool) FileStore {
	return FileStore{TowerPath: towerPath, Migration: migration}
}

func (f FileStore) filename(nodePubkey ed25519.PublicKey) string {
	return filepath.Join(f.TowerPath, "tower-"+base58Encode(nodePubkey)+".bin")
}

func (f FileStore) Load(nodePubkey ed25519.PublicKey) (SavedTowerVersion, error) {
	filename := f.filename(nodePubkey)
	fileLog.Trace("load", "path", filename)

	// create_dir_all precedes the first save, so load must tolerate it too.
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	if f.Migration {
		var saved SavedTower1_7_14
		if err := rlp.DecodeBytes(raw, &saved); err != nil {
			return nil, err
		}
		return saved, nil
	}
	var saved SavedTower
	if err := rlp.DecodeBytes(raw, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (f FileStore) Store(saved SavedTowerVersion) error {
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
	filename := f.filename(pubkey)
	fileLog.Trace("store", "path", filename)
	newFilename := filename + ".new"

	file, err := os.Create(newFilename)
	if err != nil {
		return err
	}
	if err := saved.SerializeInto(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(newFilename, filename)
}

var _ Store = FileStore{}
