package difficulty

import "math/bits"

var roundConstants = [24]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808A, 0x8000000080008000,
	0x000000000000808B, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008A, 0x0000000000000088, 0x0000000080008009, 0x000000008000000A,
	0x000000008000808B, 0x800000000000008B, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800A, 0x800000008000000A,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

// rotation offsets indexed by x + 5y
var rotations = [25]int{
	0, 1, 62, 28, 27,
	36, 44, 6, 55, 20,
	3, 10, 43, 25, 39,
	41, 45, 15, 21, 8,
	18, 2, 61, 56, 14,
}

// state is the Keccak-f[1600] state, lane (x, y) at index x + 5y
type state [25]uint64

// theta returns the column parity mix for every column
func (a *state) theta() [5]uint64 {
	var c, d [5]uint64
	for x := 0; x < 5; x++ {
		c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
	}
	for x := 0; x < 5; x++ {
		d[x] = c[(x+4)%5] ^ bits.RotateLeft64(c[(x+1)%5], 1)
	}
	return d
}

func (a *state) round(rc uint64) {
	d := a.theta()
	for y := 0; y < 25; y += 5 {
		for x := 0; x < 5; x++ {
			a[y+x] ^= d[x]
		}
	}

	var b state
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			b[y+5*((2*x+3*y)%5)] = bits.RotateLeft64(a[x+5*y], rotations[x+5*y])
		}
	}

	for y := 0; y < 25; y += 5 {
		for x := 0; x < 5; x++ {
			a[y+x] = b[y+x] ^ (^b[y+(x+1)%5] & b[y+(x+2)%5])
		}
	}
	a[0] ^= rc
}

// permute runs the first 23 rounds and only as much of the last round as is
// needed for the first four lanes of row 0.
func (a *state) permute() [4]uint64 {
	for r := 0; r < len(roundConstants)-1; r++ {
		a.round(roundConstants[r])
	}

	// row 0 of the last round only reads the diagonal lanes (x, x)
	d := a.theta()
	var b [5]uint64
	for x := 0; x < 5; x++ {
		b[x] = bits.RotateLeft64(a[6*x]^d[x], rotations[6*x])
	}

	var out [4]uint64
	for x := 0; x < 4; x++ {
		out[x] = b[x] ^ (^b[(x+1)%5] & b[(x+2)%5])
	}
	out[0] ^= roundConstants[len(roundConstants)-1]
	return out
}
