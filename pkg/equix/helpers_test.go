package equix

import "math/bits"

const (
	toyA0 = 0x0503
	toyB0 = 3*32768 - toyA0
	toyA1 = 0x0611
	toyB1 = 1<<30 - 3*32768 - toyA1
	toyA2 = 0x0725
	toyB2 = 5*32768 - toyA2
	toyA3 = 0x0842
	toyB3 = 1<<60 - 1<<30 - 5*32768 - toyA3
)

// toyValues places one eight-leaf chain at indices 0..7. Every other index
// lands in bucket 1, whose complement bucket 255 stays empty.
func toyValues() map[uint16]uint64 {
	return map[uint16]uint64{
		0: toyB3, 1: toyA1, 2: toyA0, 3: toyB2,
		4: toyB0, 5: toyA3, 6: toyB1, 7: toyA2,
	}
}

func toyOracle(values map[uint16]uint64) Oracle {
	return OracleFunc(func(i uint16) uint64 {
		if v, ok := values[i]; ok {
			return v
		}
		return uint64(i)<<8 | 1
	})
}

var toySolution = Solution{2, 4, 1, 6, 0, 5, 3, 7}

// mixOracle is a cheap keyed permutation of the index space, good enough to
// drive the solver through realistic bucket loads.
func mixOracle(key uint64) Oracle {
	var table [IndexSpace]uint64
	for i := range table {
		z := key + uint64(i)*0x9e3779b97f4a7c15
		z = (z ^ z>>30) * 0xbf58476d1ce4e5b9
		z = (z ^ z>>27) * 0x94d049bb133111eb
		table[i] = bits.RotateLeft64(z^z>>31, 7)
	}
	return OracleFunc(func(i uint16) uint64 { return table[i] })
}
