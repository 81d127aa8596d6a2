package equix

import "fmt"

const (
	mask15 = 1<<15 - 1
	mask30 = 1<<30 - 1
	mask60 = 1<<60 - 1
)

// Result is the outcome of verifying a solution
type Result int

const (
	// ResultOk means every partial and the final sum cleared its mask
	ResultOk Result = iota

	// ResultChallenge means no oracle could be built for the challenge
	ResultChallenge

	// ResultOrder means the solution is not in canonical order
	ResultOrder

	// ResultPartialSum means a pair or quad sum failed its mask
	ResultPartialSum

	// ResultFinalSum means the eight-leaf total failed the 60-bit mask
	ResultFinalSum
)

var resultNames = map[Result]string{
	ResultOk:         "ok",
	ResultChallenge:  "challenge",
	ResultOrder:      "order",
	ResultPartialSum: "partial_sum",
	ResultFinalSum:   "final_sum",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// ParseResult is the inverse of Result.String
func ParseResult(s string) (Result, error) {
	for r, name := range resultNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown verification result %q", s)
}

// VerifyOracle recomputes the cascaded sums of s against o. It does not check
// ordering; see Verify for the full check.
func VerifyOracle(o Oracle, s Solution) Result {
	pairSum := func(i int) uint64 {
		return o.Evaluate(s[i]) + o.Evaluate(s[i+1])
	}

	p0 := pairSum(0)
	if p0&mask15 != 0 {
		return ResultPartialSum
	}
	p1 := pairSum(2)
	if p1&mask15 != 0 {
		return ResultPartialSum
	}
	q0 := p0 + p1
	if q0&mask30 != 0 {
		return ResultPartialSum
	}
	p2 := pairSum(4)
	if p2&mask15 != 0 {
		return ResultPartialSum
	}
	p3 := pairSum(6)
	if p3&mask15 != 0 {
		return ResultPartialSum
	}
	q1 := p2 + p3
	if q1&mask30 != 0 {
		return ResultPartialSum
	}
	if (q0+q1)&mask60 != 0 {
		return ResultFinalSum
	}
	return ResultOk
}

// Verify checks a submitted solution from scratch: canonical order first,
// then the oracle for the challenge, then the cascaded sums.
func Verify(builder Builder, challenge Challenge, s Solution) Result {
	if !s.IsCanonical() {
		return ResultOrder
	}
	o, err := builder.Build(challenge)
	if err != nil {
		return ResultChallenge
	}
	return VerifyOracle(o, s)
}
