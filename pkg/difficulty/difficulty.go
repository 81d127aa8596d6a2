// Package difficulty scores verified solutions. The score is the number of
// leading zero bits of a Keccak digest over the solution and its nonce.
package difficulty

import (
	"encoding/binary"
	"encoding/hex"
	"math/bits"

	"equix/pkg/equix"
)

// DigestSize is the length of a difficulty digest in bytes
const DigestSize = 32

// Digest computes the Keccak-256 (original padding) digest of the 16-byte
// solution followed by the little-endian nonce. The single 24-byte message
// block is laid out directly in the state.
func Digest(sol equix.Solution, nonce uint64) [DigestSize]byte {
	wire := sol.Bytes()

	var a state
	a[0] = binary.LittleEndian.Uint64(wire[0:8])
	a[1] = binary.LittleEndian.Uint64(wire[8:16])
	a[2] = nonce
	a[3] = 0x01
	a[16] = 0x8000000000000000

	lanes := a.permute()
	var out [DigestSize]byte
	for i, lane := range lanes {
		binary.LittleEndian.PutUint64(out[8*i:], lane)
	}
	return out
}

// LeadingZeros counts leading zero bits of digest, most significant bit of
// byte 0 first.
func LeadingZeros(digest [DigestSize]byte) uint32 {
	var n uint32
	for _, b := range digest {
		z := uint32(bits.LeadingZeros8(b))
		n += z
		if z < 8 {
			break
		}
	}
	return n
}

// Score is LeadingZeros(Digest(sol, nonce))
func Score(sol equix.Solution, nonce uint64) uint32 {
	return LeadingZeros(Digest(sol, nonce))
}

// Hash is a scored solution
type Hash struct {
	Solution equix.Solution
	Nonce    uint64
	Digest   [DigestSize]byte
}

// NewHash digests sol under nonce
func NewHash(sol equix.Solution, nonce uint64) Hash {
	return Hash{
		Solution: sol,
		Nonce:    nonce,
		Digest:   Digest(sol, nonce),
	}
}

func (h Hash) Difficulty() uint32 {
	return LeadingZeros(h.Digest)
}

// Meets reports whether the hash has at least target leading zero bits
func (h Hash) Meets(target uint32) bool {
	return h.Difficulty() >= target
}

func (h Hash) String() string {
	return hex.EncodeToString(h.Digest[:])
}
