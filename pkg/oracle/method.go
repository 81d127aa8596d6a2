// Package oracle provides challenge-keyed index oracles for the equix solver
// and a factory that picks one by name and preference.
//
// None of the oracles here is HashX. They are keyed pseudorandom functions
// with the same shape (16-bit index in, 64-bit value out) and are suitable
// for exercising the solver, for tests and for private deployments where
// both sides agree on the method.
package oracle

import "equix/pkg/equix"

// Method is a named oracle builder
type Method interface {
	equix.Builder

	// Name returns the identifier used in configuration and on the wire
	Name() string

	// IsAvailable returns true if the method can build oracles on this system
	IsAvailable() bool

	// Capabilities describes the method
	Capabilities() *Capabilities
}

// Capabilities describes an oracle method
type Capabilities struct {
	// Name of the method
	Name string `json:"name"`

	// Whether the oracle depends on the challenge at all
	ChallengeKeyed bool `json:"challenge_keyed"`

	// Whether Build can reject a challenge
	MayReject bool `json:"may_reject"`

	// Whether this method is recommended for production use
	ProductionReady bool `json:"production_ready"`

	// Rough evaluations per second on a single core, zero if unknown
	EvalRate uint64 `json:"eval_rate"`

	// Reason for unavailability (if applicable)
	Reason string `json:"reason,omitempty"`
}
