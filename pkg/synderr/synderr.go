// Package synderr implements the five-way error taxonomy of the
// refinement engine: input errors, resource-bound exhaustion, solver
// errors, logical infeasibility, and internal invariant violations.
// Every wrapped error carries a Kind so the refinement loop (pkg/refine)
// can dispatch on it without string matching, following the typed
// sentinel-error style of gopkg.in/src-d/go-errors.v1 that the pack's
// go-mysql-server repo uses alongside github.com/pkg/errors for the
// stack-trace wrapping at each port boundary.
package synderr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error per spec section 7.
type Kind int

const (
	// KindInput marks parse/type-check failures. Fatal to the affected
	// problem; surfaced to the caller with a source position.
	KindInput Kind = iota
	// KindResource marks rewrite-limit, verification-bound, or
	// lemma-attempt-bound exhaustion. Recovered locally as Unknown.
	KindResource
	// KindSolver marks an external solver crash, timeout, or unparsable
	// response. Recovered locally as a failed step.
	KindSolver
	// KindInfeasible marks a proven UNSAT/infeasible result. Surfaced as
	// a successful negative result (Unrealizable), not a failure.
	KindInfeasible
	// KindInternal marks an unreachable state. These are bugs.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindResource:
		return "resource"
	case KindSolver:
		return "solver"
	case KindInfeasible:
		return "infeasible"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a typed, kind-tagged error. It wraps an underlying cause with
// github.com/pkg/errors so Cause() and the %+v stack trace survive
// across the component boundary that produced it.
type Error struct {
	Kind    Kind
	Pos     string // optional source position, set by pkg/parse
	Wrapped error
}

func (e *Error) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s error at %s: %v", e.Kind, e.Pos, e.Wrapped)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Wrapped)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is reports whether target is a *Error with the same Kind, so callers
// can do errors.Is(err, synderr.Resource(nil)) style checks. The message
// of target is ignored; only the Kind is compared.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Input wraps err as a KindInput error at the given source position.
func Input(pos string, err error) error {
	return &Error{Kind: KindInput, Pos: pos, Wrapped: errors.WithStack(err)}
}

// Inputf builds a KindInput error from a format string.
func Inputf(pos, format string, args ...interface{}) error {
	return Input(pos, fmt.Errorf(format, args...))
}

// Resource wraps err as a KindResource error. The refinement loop
// reports a breached bound as a Failed outcome carrying such an error;
// it has no separate Unknown outcome.
func Resource(err error) error {
	return &Error{Kind: KindResource, Wrapped: errors.WithStack(err)}
}

// Resourcef builds a KindResource error from a format string.
func Resourcef(format string, args ...interface{}) error {
	return Resource(fmt.Errorf(format, args...))
}

// Solver wraps err as a KindSolver error.
func Solver(err error) error {
	return &Error{Kind: KindSolver, Wrapped: errors.WithStack(err)}
}

// Infeasible wraps err (typically carrying the witnessing counterexample
// set as its message) as a KindInfeasible error.
func Infeasible(err error) error {
	return &Error{Kind: KindInfeasible, Wrapped: errors.WithStack(err)}
}

// Internal wraps err as a KindInternal error — an unreachable-state bug,
// never an expected control-flow outcome.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Wrapped: errors.WithStack(err)}
}

// Internalf builds a KindInternal error from a format string.
func Internalf(format string, args ...interface{}) error {
	return Internal(fmt.Errorf(format, args...))
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and
// reports whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsSoft reports whether err is a resource or solver error — the two
// kinds spec section 7 says the loop must recover from locally rather
// than crash on.
func IsSoft(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindResource || k == KindSolver)
}
