package equix

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

const (
	// SeedSize is the length of the caller supplied part of a challenge
	SeedSize = 32

	// ChallengeSize is the length of a complete challenge (seed followed by nonce)
	ChallengeSize = SeedSize + 8
)

// Challenge is the 40-byte input every oracle is keyed from.
// Bytes [0,32) carry the seed, bytes [32,40) the little-endian nonce.
type Challenge [ChallengeSize]byte

// NewChallenge packs a seed and a nonce into a challenge
func NewChallenge(seed [SeedSize]byte, nonce uint64) Challenge {
	var c Challenge
	copy(c[:SeedSize], seed[:])
	binary.LittleEndian.PutUint64(c[SeedSize:], nonce)
	return c
}

// ParseChallenge copies a 40-byte buffer into a Challenge
func ParseChallenge(b []byte) (Challenge, error) {
	var c Challenge
	if len(b) != ChallengeSize {
		return c, &Error{
			Kind:    KindInvalidChallenge,
			Message: "challenge must be exactly 40 bytes",
			Context: map[string]interface{}{
				"challenge_length": len(b),
			},
		}
	}
	copy(c[:], b)
	return c, nil
}

// Seed returns the seed part of the challenge
func (c Challenge) Seed() [SeedSize]byte {
	var s [SeedSize]byte
	copy(s[:], c[:SeedSize])
	return s
}

// Nonce returns the nonce part of the challenge
func (c Challenge) Nonce() uint64 {
	return binary.LittleEndian.Uint64(c[SeedSize:])
}

// WithNonce returns a copy of the challenge carrying a different nonce
func (c Challenge) WithNonce(nonce uint64) Challenge {
	binary.LittleEndian.PutUint64(c[SeedSize:], nonce)
	return c
}

func (c Challenge) String() string {
	return hex.EncodeToString(c[:])
}

// ParseSeed decodes a hex seed with an optional 0x prefix. Shorter inputs
// are rejected rather than padded.
func ParseSeed(s string) ([SeedSize]byte, error) {
	var seed [SeedSize]byte
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return seed, &Error{
			Kind:    KindInvalidChallenge,
			Message: "seed is not valid hex",
			Context: map[string]interface{}{"cause": err.Error()},
		}
	}
	if len(b) != SeedSize {
		return seed, &Error{
			Kind:    KindInvalidChallenge,
			Message: "seed must be exactly 32 bytes",
			Context: map[string]interface{}{"seed_length": len(b)},
		}
	}
	copy(seed[:], b)
	return seed, nil
}
