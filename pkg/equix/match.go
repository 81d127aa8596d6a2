package equix

// pairSink receives every pair whose fine residuals cancel. Returning false
// stops the scan.
type pairSink interface {
	pair(bucket uint8, left, right uint16, sum uint64) bool
}

// matchBuckets pairs every bucket b in [0,128] with its complement -b mod 256.
// The complement bucket is fine-indexed into scratch first, then each entry
// of b is matched against the fine bucket that completes its low seven bits.
// It returns how many entries did not fit into scratch.
func matchBuckets[I uint16 | uint32](t *coarseTable[I], scratch *fineTable, sink pairSink) int {
	dropped := 0
	for b := 0; b <= NumCoarseBuckets/2; b++ {
		left := uint8(b)
		right := -left
		var carry uint64
		if left != 0 {
			carry = 1
		}

		scratch.reset()
		for item := 0; item < t.count(right); item++ {
			f := uint8(t.data[right][item] % NumFineBuckets)
			if !scratch.insert(f, uint16(item)) {
				dropped++
				continue
			}
			// a self-complementary bucket pairs as it fills
			if left == right && !pairEntry(t, scratch, left, uint16(item), carry, sink) {
				return dropped
			}
		}
		if left == right {
			continue
		}
		for item := 0; item < t.count(left); item++ {
			if !pairEntry(t, scratch, left, uint16(item), carry, sink) {
				return dropped
			}
		}
	}
	return dropped
}

func pairEntry[I uint16 | uint32](t *coarseTable[I], scratch *fineTable, left uint8, item uint16, carry uint64, sink pairSink) bool {
	right := -left
	value := t.data[left][item] + carry
	want := uint8(-(value % NumFineBuckets) % NumFineBuckets)
	for _, other := range scratch.bucket(want) {
		sum := (value + t.data[right][other]) / NumFineBuckets
		if !sink.pair(left, item, other, sum) {
			return false
		}
	}
	return true
}

// stageSink routes matched pairs into the next stage's table
type stageSink struct {
	next    *coarseTable[uint32]
	dropped int
}

func (s *stageSink) pair(bucket uint8, left, right uint16, sum uint64) bool {
	if !s.next.insert(uint8(sum), parent(bucket, left, right), sum/NumCoarseBuckets) {
		s.dropped++
	}
	return true
}

// candidate is a full-depth match: two stage-3 entries, each a parent
// reference into stage 2.
type candidate [2]uint32

// finalSink collects stage-3 pairs whose remaining sum clears the last mask
type finalSink struct {
	stage3     *coarseTable[uint32]
	candidates [MaxSolutions]candidate
	n          int
}

func (s *finalSink) pair(bucket uint8, left, right uint16, sum uint64) bool {
	if sum&mask15 != 0 {
		return true
	}
	s.candidates[s.n] = candidate{s.stage3.index[bucket][left], s.stage3.index[-bucket][right]}
	s.n++
	return s.n < MaxSolutions
}
