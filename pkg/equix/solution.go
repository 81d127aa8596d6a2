package equix

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// SolutionLength is the number of leaf indices in a solution
	SolutionLength = 8

	// SolutionSize is the wire size of a solution in bytes
	SolutionSize = SolutionLength * 2
)

// Solution is an eight-leaf chain of oracle indices in tree order:
// leaves (0,1),(2,3),(4,5),(6,7) are sibling pairs, pairs (0,1)+(2,3) and
// (4,5)+(6,7) are sibling quads.
type Solution [SolutionLength]uint16

// Bytes returns the 16-byte little-endian wire form
func (s Solution) Bytes() [SolutionSize]byte {
	var out [SolutionSize]byte
	for i, idx := range s {
		binary.LittleEndian.PutUint16(out[2*i:], idx)
	}
	return out
}

// SolutionFromBytes decodes the 16-byte wire form
func SolutionFromBytes(b []byte) (Solution, error) {
	var s Solution
	if len(b) != SolutionSize {
		return s, &Error{
			Kind:    KindInvalidSolution,
			Message: "solution must be exactly 16 bytes",
			Context: map[string]interface{}{
				"solution_length": len(b),
			},
		}
	}
	for i := range s {
		s[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return s, nil
}

// ParseSolution decodes a hex encoded wire form
func ParseSolution(str string) (Solution, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return Solution{}, &Error{
			Kind:    KindInvalidSolution,
			Message: "solution is not valid hex",
			Context: map[string]interface{}{"cause": err.Error()},
		}
	}
	return SolutionFromBytes(b)
}

// Hex returns the hex encoded wire form
func (s Solution) Hex() string {
	b := s.Bytes()
	return hex.EncodeToString(b[:])
}

func (s Solution) String() string {
	return fmt.Sprint([SolutionLength]uint16(s))
}

func (s *Solution) pairKey(i int) uint32 {
	return uint32(s[i]) | uint32(s[i+1])<<16
}

func (s *Solution) quadKey(i int) uint64 {
	return uint64(s.pairKey(i)) | uint64(s.pairKey(i+2))<<32
}

// Canonicalize sorts every sibling group of the tree bottom-up: leaves within
// a pair by value, pairs within a quad by their packed 32-bit key, quads by
// their packed 64-bit key. The operation is idempotent.
func (s *Solution) Canonicalize() {
	for i := 0; i < SolutionLength; i += 2 {
		if s[i] > s[i+1] {
			s[i], s[i+1] = s[i+1], s[i]
		}
	}
	for i := 0; i < SolutionLength; i += 4 {
		if s.pairKey(i) > s.pairKey(i+2) {
			s[i], s[i+1], s[i+2], s[i+3] = s[i+2], s[i+3], s[i], s[i+1]
		}
	}
	if s.quadKey(0) > s.quadKey(4) {
		var lo [4]uint16
		copy(lo[:], s[:4])
		copy(s[:4], s[4:])
		copy(s[4:], lo[:])
	}
}

// IsCanonical reports whether Canonicalize would leave s unchanged
func (s Solution) IsCanonical() bool {
	for i := 0; i < SolutionLength; i += 2 {
		if s[i] > s[i+1] {
			return false
		}
	}
	for i := 0; i < SolutionLength; i += 4 {
		if s.pairKey(i) > s.pairKey(i+2) {
			return false
		}
	}
	return s.quadKey(0) <= s.quadKey(4)
}
