// Package equix implements a memory-bounded solver and verifier for an
// eight-leaf generalized birthday puzzle over a challenge-keyed 16-bit
// oracle.
//
// A solve attempt evaluates the oracle at all 65536 indices, buckets the
// outputs and pairs complementary buckets over three stages until the sums of
// eight leaves cancel under 15, 30 and 60 bit masks. Found chains are
// re-verified and returned in canonical order.
package equix

// Equix ties an oracle builder to a solver. It is the unit of work for a
// single goroutine.
type Equix struct {
	builder Builder
	solver  *Solver
}

// New returns an Equix that derives oracles with builder
func New(builder Builder) *Equix {
	return &Equix{
		builder: builder,
		solver:  NewSolver(),
	}
}

// Solve builds the oracle for challenge and searches it. Build errors are
// returned unchanged so callers can retry with the next nonce.
func (e *Equix) Solve(challenge Challenge) ([]Solution, error) {
	o, err := e.builder.Build(challenge)
	if err != nil {
		return nil, err
	}
	return e.solver.Solve(o), nil
}

// Verify runs the full verification of s against challenge
func (e *Equix) Verify(challenge Challenge, s Solution) Result {
	return Verify(e.builder, challenge, s)
}

// Stats returns the counters of the last solve attempt
func (e *Equix) Stats() Stats {
	return e.solver.Stats()
}

// Builder returns the oracle builder in use
func (e *Equix) Builder() Builder {
	return e.builder
}
