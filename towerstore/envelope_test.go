package towerstore

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/tos-network/towerd/crypto/ed25519"
)

func newTestKeypair(t *testing.T) Keypair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return Keypair{Public: pub, Private: priv}
}

func sampleTower(pubkey ed25519.PublicKey) Tower {
	return Tower{
		NodePubkey:     pubkey,
		ThresholdDepth: 8,
		ThresholdSize:  Rational{Num: 2, Denom: 3},
		VoteState: VoteState{
			Root: 10,
			Votes: []Lockout{
				{Slot: 11, ConfirmationCount: 4},
				{Slot: 12, ConfirmationCount: 2},
				{Slot: 13, ConfirmationCount: 1},
			},
		},
		LastVote:      Vote{Slot: 13, Hash: [32]byte{1, 2, 3}},
		LastTimestamp: BlockTimestamp{Slot: 13, Timestamp: 1700000000},
	}
}

func TestSavedTowerRoundTrip(t *testing.T) {
	kp := newTestKeypair(t)
	tower := sampleTower(kp.Public)

	saved, err := NewSavedTower(tower, kp)
	if err != nil {
		t.Fatalf("NewSavedTower: %v", err)
	}
	got, err := saved.IntoTower(kp.Public)
	if err != nil {
		t.Fatalf("IntoTower: %v", err)
	}
	if !bytes.Equal(got.NodePubkey, tower.NodePubkey) ||
		got.ThresholdDepth != tower.ThresholdDepth ||
		got.VoteState.Root != tower.VoteState.Root ||
		len(got.VoteState.Votes) != len(tower.VoteState.Votes) ||
		got.LastVote.Slot != tower.LastVote.Slot {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, tower)
	}
}

func TestNewSavedTowerRejectsWrongTower(t *testing.T) {
	kp := newTestKeypair(t)
	other := newTestKeypair(t)
	tower := sampleTower(other.Public)

	if _, err := NewSavedTower(tower, kp); err != ErrWrongTower {
		t.Fatalf("expected ErrWrongTower, got %v", err)
	}
}

func TestIntoTowerRejectsUnexpectedPubkey(t *testing.T) {
	kp := newTestKeypair(t)
	wrong := newTestKeypair(t)
	tower := sampleTower(kp.Public)

	saved, err := NewSavedTower(tower, kp)
	if err != nil {
		t.Fatalf("NewSavedTower: %v", err)
	}
	_, err = saved.IntoTower(wrong.Public)
	if err != ErrWrongTower && err != ErrInvalidSignature {
		t.Fatalf("expected ErrWrongTower or ErrInvalidSignature, got %v", err)
	}
}

func TestIntoTowerRejectsTamperedData(t *testing.T) {
	kp := newTestKeypair(t)
	tower := sampleTower(kp.Public)

	saved, err := NewSavedTower(tower, kp)
	if err != nil {
		t.Fatalf("NewSavedTower: %v", err)
	}
	tampered := append([]byte(nil), saved.Data...)
	tampered[0] ^= 0xFF
	saved.Data = tampered

	if _, err := saved.IntoTower(kp.Public); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestIntoTowerRejectsNonZeroNodePubkey(t *testing.T) {
	kp := newTestKeypair(t)
	tower := sampleTower(kp.Public)

	saved, err := NewSavedTower(tower, kp)
	if err != nil {
		t.Fatalf("NewSavedTower: %v", err)
	}
	// Simulate a decoder that populated node_pubkey from wire data; the
	// load-time contract must reject this outright.
	saved.NodePubkey = kp.Public

	if _, err := saved.IntoTower(kp.Public); err != ErrWrongTower {
		t.Fatalf("expected ErrWrongTower, got %v", err)
	}
}

func TestLegacyEnvelopeRoundTripConvertsRoot(t *testing.T) {
	kp := newTestKeypair(t)
	tower := sampleTower(kp.Public)

	saved, err := NewSavedTower1_7_14(tower, kp)
	if err != nil {
		t.Fatalf("NewSavedTower1_7_14: %v", err)
	}
	got, err := saved.IntoTower(kp.Public)
	if err != nil {
		t.Fatalf("IntoTower: %v", err)
	}
	if got.VoteState.Root != tower.VoteState.Root {
		t.Fatalf("root not preserved across legacy conversion: got %d, want %d",
			got.VoteState.Root, tower.VoteState.Root)
	}
	// Fields never persisted (current or legacy) must come back zeroed.
	if got.StrayRestoredSlot != nil || got.LastSwitchThreshold != nil {
		t.Fatalf("expected non-persisted fields to be zero after load: %+v", got)
	}
}

func TestSerializeIntoRoundTrip(t *testing.T) {
	kp := newTestKeypair(t)
	tower := sampleTower(kp.Public)

	saved, err := NewSavedTower(tower, kp)
	if err != nil {
		t.Fatalf("NewSavedTower: %v", err)
	}
	var buf bytes.Buffer
	if err := saved.SerializeInto(&buf); err != nil {
		t.Fatalf("SerializeInto: %v", err)
	}

	var decoded SavedTower
	if err := decodeEnvelope(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	if decoded.Pubkey() != nil {
		t.Fatalf("expected zero pubkey after decode, got %x", decoded.Pubkey())
	}
	got, err := decoded.IntoTower(kp.Public)
	if err != nil {
		t.Fatalf("IntoTower: %v", err)
	}
	if got.LastVote.Slot != tower.LastVote.Slot {
		t.Fatalf("serialize/decode round trip mismatch")
	}
}
