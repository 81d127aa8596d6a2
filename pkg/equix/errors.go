package equix

import "fmt"

// ErrorKind classifies errors returned by the solver package
type ErrorKind int

const (
	KindInvalidChallenge ErrorKind = iota
	KindInvalidSolution
	KindBuildFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidChallenge:
		return "invalid_challenge"
	case KindInvalidSolution:
		return "invalid_solution"
	case KindBuildFailed:
		return "build_failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error carries a kind, a message and free-form context for logging
type Error struct {
	Kind    ErrorKind
	Message string
	Context map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so callers can test against the
// package sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	// ErrBuildFailed is returned when an oracle cannot be derived from a
	// challenge. Callers move on to the next nonce.
	ErrBuildFailed = &Error{Kind: KindBuildFailed, Message: "oracle build failed"}

	// ErrInvalidChallenge is returned for malformed challenge input
	ErrInvalidChallenge = &Error{Kind: KindInvalidChallenge, Message: "invalid challenge"}

	// ErrInvalidSolution is returned for malformed solution input
	ErrInvalidSolution = &Error{Kind: KindInvalidSolution, Message: "invalid solution"}
)

// BuildFailed wraps a builder specific cause into an ErrBuildFailed-kind error
func BuildFailed(challenge Challenge, cause error) error {
	msg := "oracle build failed"
	if cause != nil {
		msg = fmt.Sprintf("oracle build failed: %v", cause)
	}
	return &Error{
		Kind:    KindBuildFailed,
		Message: msg,
		Context: map[string]interface{}{
			"nonce": challenge.Nonce(),
		},
	}
}
