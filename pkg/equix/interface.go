package equix

// Oracle maps every 16-bit index to a 64-bit pseudorandom value.
// Implementations must be pure: the same index always yields the same value
// for the lifetime of the oracle.
type Oracle interface {
	Evaluate(index uint16) uint64
}

// Builder derives an Oracle from a challenge. A builder may reject a
// challenge with an error of kind KindBuildFailed, in which case the caller
// is expected to retry with a different nonce.
type Builder interface {
	Build(challenge Challenge) (Oracle, error)
}

// OracleFunc adapts a plain function to the Oracle interface
type OracleFunc func(index uint16) uint64

func (f OracleFunc) Evaluate(index uint16) uint64 {
	return f(index)
}

// BuilderFunc adapts a plain function to the Builder interface
type BuilderFunc func(challenge Challenge) (Oracle, error)

func (f BuilderFunc) Build(challenge Challenge) (Oracle, error) {
	return f(challenge)
}
