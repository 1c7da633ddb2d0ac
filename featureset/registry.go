// Package featureset is the runtime feature-flag registry: a closed,
// process-wide table of known feature identifiers and their human
// descriptions, plus the per-node active/inactive partition the tower reads
// when deciding which upgrade paths are available.
package featureset

import (
	"sort"

	"golang.org/x/crypto/blake2b"
)

// ID identifies one feature. Real deployments mint these from a dedicated
// keypair's public key (so a feature's id is unforgeable and globally
// unique); this registry derives ids deterministically from the feature's
// name instead, since no signing ceremony is part of this module's scope.
type ID [32]byte

func deriveID(name string) ID {
	var id ID
	sum := blake2b.Sum256([]byte("towerd-feature:" + name))
	copy(id[:], sum[:])
	return id
}

// Known feature identifiers. New entries only ever get appended — removing
// one changes every node's feature-set digest.
var (
	PicoInflation      = deriveID("pico_inflation")
	FullInflation      = deriveID("full_inflation")
	GateLargeBlock     = deriveID("gate_large_block")
	RequireRentExempt  = deriveID("require_rent_exempt_accounts")
	TxWideComputeCap   = deriveID("tx_wide_compute_cap")
	Ed25519ProgramOn   = deriveID("ed25519_program_enabled")
	VersionedTxMessage = deriveID("versioned_tx_message_enabled")
	MaxTxAccountLocks  = deriveID("max_tx_account_locks")
)

// names maps every known id to its user-visible description.
var names = map[ID]string{
	PicoInflation:      "pico inflation",
	FullInflation:      "full inflation on devnet and testnet",
	GateLargeBlock:     "validator checks block cost against max limit in realtime, reject if exceeds",
	RequireRentExempt:  "require all new transaction accounts with data to be rent-exempt",
	TxWideComputeCap:   "transaction wide compute cap",
	Ed25519ProgramOn:   "enable builtin ed25519 signature verify program",
	VersionedTxMessage: "enable versioned transaction message processing",
	MaxTxAccountLocks:  "enforce max number of locked accounts per transaction",
}

// Description returns the human-readable description for a known id.
func Description(id ID) (string, bool) {
	desc, ok := names[id]
	return desc, ok
}

// KnownIDs returns every registered id, in ascending byte order.
func KnownIDs() []ID {
	ids := make([]ID, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		for k := 0; k < len(ids[i]); k++ {
			if ids[i][k] != ids[j][k] {
				return ids[i][k] < ids[j][k]
			}
		}
		return false
	})
}

// Digest is the content-addressed identifier of the current software's
// known feature set: blake2b-256 over the sorted id bytes, concatenated in
// order. Two nodes that know the same set of features compute the same
// digest regardless of registration order.
func Digest() [32]byte {
	ids := KnownIDs()
	var buf []byte
	for _, id := range ids {
		buf = append(buf, id[:]...)
	}
	return blake2b.Sum256(buf)
}
