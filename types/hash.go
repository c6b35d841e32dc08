package types

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Hash is a 32-byte keccak256 digest, hex-encoded when stringified. Order
// and Match ids are both Hash values derived deterministically from their
// canonical encoding, never random, so replays and restarts reproduce the
// same id.
type Hash [32]byte

// ZeroHash is the empty/unset id.
var ZeroHash = Hash{}

// HashFromHex parses a hex-encoded (with or without 0x prefix) hash.
func HashFromHex(s string) (Hash, error) {
	s = trim0x(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != 32 {
		return Hash{}, fmt.Errorf("invalid hash %q: expected 32 bytes, got %d", s, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

func trim0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// String returns the 0x-prefixed hex encoding.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether h is the unset hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Less gives Hash a total order, used for the matching engine's
// lexicographically-smaller-id tie-break.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// hashBytes returns the keccak256 digest of buf, matching the hashing
// primitive used throughout the wider codebase for deterministic ids.
func hashBytes(buf []byte) Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(buf)
	var h Hash
	copy(h[:], hasher.Sum(nil))
	return h
}
