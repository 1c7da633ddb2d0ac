package towerstore

import "math/big"

// base58Alphabet is the Bitcoin/Solana base58 alphabet (no 0, O, I, l).
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// base58Encode renders pubkey bytes the way every Solana-style address is
// displayed, which is also how tower filenames name themselves on disk.
// No third-party base58 implementation is wired into this module (the only
// base58-adjacent dependency reachable from the teacher's stack,
// btcsuite/btcd, does not vendor its encoder at the version pinned here), so
// this is a small, self-contained, stdlib-only implementation.
func base58Encode(b []byte) string {
	zeros := 0
	for zeros < len(b) && b[zeros] == 0 {
		zeros++
	}

	x := new(big.Int).SetBytes(b)
	base := big.NewInt(58)
	mod := new(big.Int)
	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for i := 0; i < zeros; i++ {
		out = append(out, base58Alphabet[0])
	}
	// reverse
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) == 0 {
		return string(base58Alphabet[0])
	}
	return string(out)
}
