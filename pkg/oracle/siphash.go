package oracle

import (
	"encoding/binary"

	"github.com/dchest/siphash"
	"golang.org/x/crypto/blake2b"

	"equix/pkg/equix"
)

// SipHashName identifies the SipHash method
const SipHashName = "siphash"

// SipHash keys SipHash-2-4 with the first 16 bytes of BLAKE2b-512(challenge)
// and evaluates it over the 8-byte little-endian index.
type SipHash struct{}

func NewSipHash() *SipHash {
	return &SipHash{}
}

func (m *SipHash) Name() string {
	return SipHashName
}

func (m *SipHash) IsAvailable() bool {
	return true
}

func (m *SipHash) Build(challenge equix.Challenge) (equix.Oracle, error) {
	key := blake2b.Sum512(challenge[:])
	return &sipOracle{
		k0: binary.LittleEndian.Uint64(key[0:8]),
		k1: binary.LittleEndian.Uint64(key[8:16]),
	}, nil
}

func (m *SipHash) Capabilities() *Capabilities {
	return &Capabilities{
		Name:            SipHashName,
		ChallengeKeyed:  true,
		ProductionReady: true,
		EvalRate:        50_000_000,
	}
}

type sipOracle struct {
	k0, k1 uint64
}

func (o *sipOracle) Evaluate(index uint16) uint64 {
	var msg [8]byte
	binary.LittleEndian.PutUint64(msg[:], uint64(index))
	return siphash.Hash(o.k0, o.k1, msg[:])
}
