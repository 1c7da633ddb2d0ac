package towerstore

import (
	"bytes"
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tos-network/towerd/crypto/ed25519"
)

// SavedTower is the current signed envelope. NodePubkey is deliberately
// excluded from the RLP encoding (rlp:"-") — it is transient metadata filled
// in by the loader, never part of what gets signed or written to disk.
type SavedTower struct {
	Signature  []byte
	Data       []byte
	NodePubkey ed25519.PublicKey `rlp:"-"`
}

// SavedTower1_7_14 is the legacy envelope, decoded only when a backend's
// migration flag selects it. Shape is identical to SavedTower; only the
// inner Data payload decodes differently (see codec.go).
type SavedTower1_7_14 struct {
	Signature  []byte
	Data       []byte
	NodePubkey ed25519.PublicKey `rlp:"-"`
}

// NewSavedTower signs tower with signer and returns the current envelope.
// Rejects towers whose NodePubkey does not match the signer's own pubkey —
// a validator must never produce a tower claiming someone else's identity.
func NewSavedTower(tower Tower, signer Keypair) (SavedTower, error) {
	if !bytes.Equal(tower.NodePubkey, signer.Public) {
		return SavedTower{}, ErrWrongTower
	}
	data, err := encodeTower(tower)
	if err != nil {
		return SavedTower{}, err
	}
	return SavedTower{
		Signature: signer.Sign(data),
		Data:      data,
	}, nil
}

// NewSavedTower1_7_14 is the legacy counterpart of NewSavedTower, used only
// by migration tooling that needs to write the older format back out.
func NewSavedTower1_7_14(tower Tower, signer Keypair) (SavedTower1_7_14, error) {
	if !bytes.Equal(tower.NodePubkey, signer.Public) {
		return SavedTower1_7_14{}, ErrWrongTower
	}
	data, err := encodeLegacyTower(tower)
	if err != nil {
		return SavedTower1_7_14{}, err
	}
	return SavedTower1_7_14{
		Signature: signer.Sign(data),
		Data:      data,
	}, nil
}

func (s SavedTower) Pubkey() ed25519.PublicKey { return s.NodePubkey }

func (s SavedTower1_7_14) Pubkey() ed25519.PublicKey { return s.NodePubkey }

func (s SavedTower) SerializeInto(w io.Writer) error {
	return rlp.Encode(w, &s)
}

func (s SavedTower1_7_14) SerializeInto(w io.Writer) error {
	return rlp.Encode(w, &s)
}

// IntoTower verifies s against expected and decodes the current-format
// payload. This method assumes s was just deserialized: node_pubkey must
// still be the zero value, since it is never part of the wire encoding.
func (s SavedTower) IntoTower(expected ed25519.PublicKey) (Tower, error) {
	if len(s.NodePubkey) != 0 {
		return Tower{}, ErrWrongTower
	}
	if !ed25519.Verify(expected, s.Data, s.Signature) {
		return Tower{}, ErrInvalidSignature
	}
	tower, err := decodeTower(s.Data)
	if err != nil {
		return Tower{}, err
	}
	if !bytes.Equal(tower.NodePubkey, expected) {
		return Tower{}, ErrWrongTower
	}
	return tower, nil
}

// IntoTower verifies s against expected, decodes the legacy-format payload,
// and converts it into the current Tower representation.
func (s SavedTower1_7_14) IntoTower(expected ed25519.PublicKey) (Tower, error) {
	if len(s.NodePubkey) != 0 {
		return Tower{}, ErrWrongTower
	}
	if !ed25519.Verify(expected, s.Data, s.Signature) {
		return Tower{}, ErrInvalidSignature
	}
	tower, err := decodeLegacyTower(s.Data)
	if err != nil {
		return Tower{}, err
	}
	if !bytes.Equal(tower.NodePubkey, expected) {
		return Tower{}, ErrWrongTower
	}
	return tower, nil
}

var (
	_ SavedTowerVersion = SavedTower{}
	_ SavedTowerVersion = SavedTower1_7_14{}
)

// encodeEnvelope serializes any SavedTowerVersion to bytes, used by backends
// (etcd) that need the raw blob rather than an io.Writer sink.
func encodeEnvelope(saved SavedTowerVersion) ([]byte, error) {
	var buf bytes.Buffer
	if err := saved.SerializeInto(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeEnvelope fills dst (a *SavedTower or *SavedTower1_7_14) from raw
// envelope bytes.
func decodeEnvelope(raw []byte, dst interface{}) error {
	return rlp.DecodeBytes(raw, dst)
}
