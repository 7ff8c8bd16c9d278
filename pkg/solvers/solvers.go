// Package solvers declares the two external-solver ports the core talks
// to — SyGuS (program synthesis) and SMT (plain satisfiability) — and the
// response shapes every adapter must normalize onto. Adapters live in
// subpackages: subproc (the default, a CVC5/CVC4/Z3 binary), cache (a
// sqlite-memoized wrapper over another port), and rpc (a gRPC-backed
// remote solver).
package solvers

import (
	"context"

	"github.com/rkestrel/synduce-go/pkg/equations"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// ResponseKind discriminates the four SyGuS outcomes of spec section 5.
type ResponseKind int

const (
	RespSuccess ResponseKind = iota
	RespInfeasible
	RespFail
	RespUnknown
)

// Response is a SyGuS solve outcome. Bodies is populated only for
// RespSuccess; Core only for RespInfeasible.
type Response struct {
	Kind   ResponseKind
	Bodies map[sygus.Hole]term.Term
	Core   []equations.Equation
}

// SyGuSPort solves a synth-fun command list against an external solver.
type SyGuSPort interface {
	Solve(ctx context.Context, cmds []sygus.Command) (Response, error)
}

// SatResult discriminates the three SMT check-sat outcomes a bare
// satisfiability query can return.
type SatResult int

const (
	SatSat SatResult = iota
	SatUnsat
	SatUnknown
)

// SMTCheck is one plain SMT query: a set of declare-const/assert
// commands followed by check-sat, used by C7's cross-validation and C9's
// bounded/unbounded lemma verification.
type SMTCheck struct {
	Asserts []string
	Vars    []term.Var
}

// SMTPort runs a bare satisfiability query.
type SMTPort interface {
	CheckSat(ctx context.Context, check SMTCheck) (SatResult, error)
}
