package core

import (
	"errors"
	"fmt"
)

// Kind classifies failures of the power-spectrum pipeline and its queries.
type Kind int

const (
	KindUnknown Kind = iota
	// KindOutOfRange marks a (k, z) query outside every supported range.
	KindOutOfRange
	// KindAllocation marks a table that could not be sized or allocated.
	KindAllocation
	// KindInconsistentConfig marks incompatible or incomplete options.
	KindInconsistentConfig
	// KindNonConvergence marks an iterative computation that did not converge.
	KindNonConvergence
	// KindInvalidArgument marks a bad argument such as R <= 0 or an unknown index.
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindOutOfRange:
		return "out of range"
	case KindAllocation:
		return "allocation failure"
	case KindInconsistentConfig:
		return "inconsistent configuration"
	case KindNonConvergence:
		return "non-convergence"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// Sentinels matching every error of the corresponding kind through errors.Is.
var (
	ErrOutOfRange         = &Error{Kind: KindOutOfRange}
	ErrAllocation         = &Error{Kind: KindAllocation}
	ErrInconsistentConfig = &Error{Kind: KindInconsistentConfig}
	ErrNonConvergence     = &Error{Kind: KindNonConvergence}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
)

// Error is the error type returned by the pk packages.
type Error struct {
	Kind Kind
	Op   string // failing operation, e.g. "grid.BuildK"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}

	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return e.Op + ": " + msg
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind when target carries no message,
// which is how the package sentinels are built.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	if t.Op == "" && t.Msg == "" && t.Err == nil {
		return t.Kind == e.Kind
	}

	return t == e
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	var nc *NonConvergenceError
	if errors.As(err, &nc) {
		return KindNonConvergence
	}

	return KindUnknown
}

// NonConvergenceError reports an iterative computation that stalled at a
// given conformal time.
type NonConvergenceError struct {
	Op         string
	Tau        float64
	Iterations int
	Residual   float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s: no convergence at tau=%g after %d iterations (residual %g)",
		e.Op, e.Tau, e.Iterations, e.Residual)
}

// Is lets errors.Is(err, ErrNonConvergence) match.
func (e *NonConvergenceError) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == KindNonConvergence && t.Op == "" && t.Msg == "" && t.Err == nil
	}

	return false
}
