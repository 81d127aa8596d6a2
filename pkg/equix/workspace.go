package equix

const (
	// IndexSpace is the number of oracle indices evaluated per attempt
	IndexSpace = 1 << 16

	// NumCoarseBuckets is the number of buckets each stage table is split into
	NumCoarseBuckets = 256

	// CoarseBucketItems is the capacity of a single coarse bucket
	CoarseBucketItems = 336

	// NumFineBuckets is the number of buckets in the per-pairing scratch table
	NumFineBuckets = 128

	// FineBucketItems is the capacity of a single fine bucket
	FineBucketItems = 12

	// MaxSolutions caps the number of candidates collected per attempt
	MaxSolutions = 8

	residualBits = 52
	residualMask = 1<<residualBits - 1
)

// coarseTable holds one stage's bucketed entries. I is the type of the entry
// identifier: a leaf index at stage 1, a packed parent reference afterwards.
type coarseTable[I uint16 | uint32] struct {
	counts [NumCoarseBuckets]uint16
	index  [NumCoarseBuckets][CoarseBucketItems]I
	data   [NumCoarseBuckets][CoarseBucketItems]uint64
}

func (t *coarseTable[I]) reset() {
	t.counts = [NumCoarseBuckets]uint16{}
}

// insert appends an entry to bucket. A full bucket drops the entry.
func (t *coarseTable[I]) insert(bucket uint8, id I, residual uint64) bool {
	n := t.counts[bucket]
	if n >= CoarseBucketItems {
		return false
	}
	t.index[bucket][n] = id
	t.data[bucket][n] = residual
	t.counts[bucket] = n + 1
	return true
}

func (t *coarseTable[I]) count(bucket uint8) int {
	return int(t.counts[bucket])
}

// size returns the number of retained entries across all buckets
func (t *coarseTable[I]) size() int {
	total := 0
	for _, n := range t.counts {
		total += int(n)
	}
	return total
}

// fineTable records positions within one coarse bucket, keyed by the low
// seven bits of their residual.
type fineTable struct {
	counts [NumFineBuckets]uint8
	items  [NumFineBuckets][FineBucketItems]uint16
}

func (t *fineTable) reset() {
	t.counts = [NumFineBuckets]uint8{}
}

func (t *fineTable) insert(bucket uint8, item uint16) bool {
	n := t.counts[bucket]
	if n >= FineBucketItems {
		return false
	}
	t.items[bucket][n] = item
	t.counts[bucket] = n + 1
	return true
}

func (t *fineTable) bucket(b uint8) []uint16 {
	return t.items[b][:t.counts[b]]
}

// Workspace is the fixed scratch memory of one solver. Every stage owns its
// own table; nothing is shared or reinterpreted between stages.
type Workspace struct {
	stage1  coarseTable[uint16]
	stage2  coarseTable[uint32]
	stage3  coarseTable[uint32]
	scratch fineTable
}

// NewWorkspace allocates a workspace. Allocation happens once; attempts only
// reset the bucket counters.
func NewWorkspace() *Workspace {
	return new(Workspace)
}

// Reset clears all bucket counters
func (w *Workspace) Reset() {
	w.stage1.reset()
	w.stage2.reset()
	w.stage3.reset()
	w.scratch.reset()
}

// parent packs a pair reference: left slot in bits 17..31, right slot in
// bits 8..16 and the left bucket in bits 0..7.
func parent(bucket uint8, left, right uint16) uint32 {
	return uint32(left)<<17 | uint32(right)<<8 | uint32(bucket)
}

func unpackParent(p uint32) (bucket uint8, left, right uint16) {
	return uint8(p), uint16(p >> 17), uint16(p>>8) & 0x1ff
}
