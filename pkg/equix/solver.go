package equix

// Solver runs the bucketed search over one oracle at a time. A Solver owns
// its workspace and is not safe for concurrent use.
type Solver struct {
	ws    *Workspace
	stats Stats
}

// NewSolver allocates a solver together with its workspace
func NewSolver() *Solver {
	return &Solver{ws: NewWorkspace()}
}

// Stats returns the counters of the most recent Solve call
func (s *Solver) Stats() Stats {
	return s.stats
}

// Solve evaluates every index of o once and returns up to MaxSolutions
// verified solutions in canonical order. The search is lossy: entries that
// overflow a bucket are dropped, so some solutions may be missed. For a given
// oracle the result is deterministic.
func (s *Solver) Solve(o Oracle) []Solution {
	ws := s.ws
	ws.Reset()
	s.stats = Stats{}

	s.stats.Stage1Dropped = buildStage1(&ws.stage1, o)

	next := stageSink{next: &ws.stage2}
	s.stats.FineDropped += matchBuckets(&ws.stage1, &ws.scratch, &next)
	s.stats.Stage2Dropped = next.dropped

	next = stageSink{next: &ws.stage3}
	s.stats.FineDropped += matchBuckets(&ws.stage2, &ws.scratch, &next)
	s.stats.Stage3Dropped = next.dropped

	final := finalSink{stage3: &ws.stage3}
	s.stats.FineDropped += matchBuckets(&ws.stage3, &ws.scratch, &final)
	s.stats.Candidates = final.n

	solutions := make([]Solution, 0, final.n)
	for _, c := range final.candidates[:final.n] {
		sol := ws.reconstruct(c)
		switch VerifyOracle(o, sol) {
		case ResultOk:
		case ResultFinalSum:
			s.stats.FinalSumMismatches++
			continue
		default:
			s.stats.PartialSumMismatches++
			continue
		}
		sol.Canonicalize()
		solutions = append(solutions, sol)
	}
	s.stats.Solutions = len(solutions)
	return solutions
}

// buildStage1 evaluates the oracle over the whole index space and buckets the
// results by their low eight bits. It returns the number of dropped entries.
func buildStage1(t *coarseTable[uint16], o Oracle) int {
	dropped := 0
	for i := 0; i < IndexSpace; i++ {
		v := o.Evaluate(uint16(i))
		if !t.insert(uint8(v), uint16(i), (v>>8)&residualMask) {
			dropped++
		}
	}
	return dropped
}
