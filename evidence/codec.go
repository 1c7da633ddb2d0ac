package evidence

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tos-network/towerd/crypto/ed25519"
)

// Shred is one decoded, leader-signed fragment of an equivocation proof.
type Shred struct {
	Slot      uint64
	Payload   []byte
	Signature []byte
}

// signedShredPair is the RLP wire shape of a reassembled duplicate-shred
// proof: the two conflicting shreds, concatenated chunk payloads decoded as
// one structure.
type signedShredPair struct {
	Shred1 wireSignedShred
	Shred2 wireSignedShred
}

type wireSignedShred struct {
	Slot      uint64
	Payload   []byte
	Signature []byte
}

// intoShreds reassembles ordered chunks into the two conflicting shreds,
// verifying each against the slot's scheduled leader. A chunk set from a
// peer lying about the leader, or whose two shreds don't actually conflict,
// fails decode rather than producing a false duplicate report.
func intoShreds(chunks []DuplicateShredChunk, leaderFn LeaderScheduleFn) (Shred, Shred, error) {
	if len(chunks) == 0 {
		return Shred{}, Shred{}, ErrCorruptProof
	}
	ordered := make([]DuplicateShredChunk, len(chunks))
	copy(ordered, chunks)
	sortChunksByIndex(ordered)

	var buf bytes.Buffer
	for _, c := range ordered {
		buf.Write(c.Payload)
	}

	var pair signedShredPair
	if err := rlp.DecodeBytes(buf.Bytes(), &pair); err != nil {
		return Shred{}, Shred{}, fmt.Errorf("%w: %s", ErrCorruptProof, err)
	}

	slot := ordered[0].Slot
	leader, ok := leaderFn(slot)
	if !ok {
		return Shred{}, Shred{}, ErrUnknownLeader
	}

	s1 := Shred{Slot: pair.Shred1.Slot, Payload: pair.Shred1.Payload, Signature: pair.Shred1.Signature}
	s2 := Shred{Slot: pair.Shred2.Slot, Payload: pair.Shred2.Payload, Signature: pair.Shred2.Signature}

	if !ed25519.Verify(leader, s1.Payload, s1.Signature) || !ed25519.Verify(leader, s2.Payload, s2.Signature) {
		return Shred{}, Shred{}, fmt.Errorf("%w: leader signature check failed", ErrCorruptProof)
	}
	if bytes.Equal(s1.Payload, s2.Payload) {
		return Shred{}, Shred{}, ErrShredsIdentical
	}
	return s1, s2, nil
}

func sortChunksByIndex(chunks []DuplicateShredChunk) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && chunks[j-1].ChunkIndex > chunks[j].ChunkIndex; j-- {
			chunks[j-1], chunks[j] = chunks[j], chunks[j-1]
		}
	}
}

// encodeShredPair is the test/tooling inverse of intoShreds: it builds the
// chunked wire payload a well-behaved peer would gossip for (shred1, shred2),
// split into numChunks roughly equal pieces.
func encodeShredPair(slot uint64, shred1, shred2 wireSignedShred, numChunks int) ([]DuplicateShredChunk, error) {
	pair := signedShredPair{Shred1: shred1, Shred2: shred2}
	raw, err := rlp.EncodeToBytes(&pair)
	if err != nil {
		return nil, err
	}
	if numChunks <= 0 {
		numChunks = 1
	}
	chunkLen := (len(raw) + numChunks - 1) / numChunks
	if chunkLen == 0 {
		chunkLen = 1
	}
	var chunks []DuplicateShredChunk
	for i := 0; i < numChunks; i++ {
		start := i * chunkLen
		if start >= len(raw) {
			start = len(raw)
		}
		end := start + chunkLen
		if end > len(raw) {
			end = len(raw)
		}
		chunks = append(chunks, DuplicateShredChunk{
			Slot:       slot,
			NumChunks:  uint32(numChunks),
			ChunkIndex: uint32(i),
			Payload:    raw[start:end],
		})
	}
	return chunks, nil
}
