package towerstore

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tos-network/towerd/crypto/ed25519"
)

// towerData is the current wire representation of a Tower. Fields that are
// never persisted (LastVoteTxBlockhash, StrayRestoredSlot,
// LastSwitchThreshold) are reconstructed by the voting loop from live state
// after every load and simply do not appear here.
type towerData struct {
	NodePubkey     []byte
	ThresholdDepth uint64
	ThresholdSize  Rational
	VoteState      VoteState
	LastVote       Vote
	LastTimestamp  BlockTimestamp
}

// legacyTowerData is the 1_7_14 wire representation. Root was a separate
// top-level field before it was folded into VoteState; converting to the
// current representation moves it there (see convertLegacy).
type legacyTowerData struct {
	NodePubkey     []byte
	ThresholdDepth uint64
	ThresholdSize  Rational
	Root           uint64
	VoteState      VoteState
	LastVote       Vote
	LastTimestamp  BlockTimestamp
}

func encodeTower(t Tower) ([]byte, error) {
	return rlp.EncodeToBytes(&towerData{
		NodePubkey:     []byte(t.NodePubkey),
		ThresholdDepth: t.ThresholdDepth,
		ThresholdSize:  t.ThresholdSize,
		VoteState:      t.VoteState,
		LastVote:       t.LastVote,
		LastTimestamp:  t.LastTimestamp,
	})
}

func decodeTower(data []byte) (Tower, error) {
	var d towerData
	if err := rlp.DecodeBytes(data, &d); err != nil {
		return Tower{}, err
	}
	return Tower{
		NodePubkey:     ed25519.PublicKey(d.NodePubkey),
		ThresholdDepth: d.ThresholdDepth,
		ThresholdSize:  d.ThresholdSize,
		VoteState:      d.VoteState,
		LastVote:       d.LastVote,
		LastTimestamp:  d.LastTimestamp,
	}, nil
}

func encodeLegacyTower(t Tower) ([]byte, error) {
	return rlp.EncodeToBytes(&legacyTowerData{
		NodePubkey:     []byte(t.NodePubkey),
		ThresholdDepth: t.ThresholdDepth,
		ThresholdSize:  t.ThresholdSize,
		Root:           t.VoteState.Root,
		VoteState:      VoteState{Votes: t.VoteState.Votes},
		LastVote:       t.LastVote,
		LastTimestamp:  t.LastTimestamp,
	})
}

func decodeLegacyTower(data []byte) (Tower, error) {
	var d legacyTowerData
	if err := rlp.DecodeBytes(data, &d); err != nil {
		return Tower{}, err
	}
	return convertLegacy(d), nil
}

// convertLegacy absorbs the legacy format's standalone Root field into
// VoteState, matching how the current format represents root.
func convertLegacy(d legacyTowerData) Tower {
	return Tower{
		NodePubkey:     ed25519.PublicKey(d.NodePubkey),
		ThresholdDepth: d.ThresholdDepth,
		ThresholdSize:  d.ThresholdSize,
		VoteState:      VoteState{Root: d.Root, Votes: d.VoteState.Votes},
		LastVote:       d.LastVote,
		LastTimestamp:  d.LastTimestamp,
	}
}
