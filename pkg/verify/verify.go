// Package verify implements the bounded verifier of spec section 4.8:
// check a fully-specialized candidate target by expanding the current
// representative term set by one further step and comparing reference
// and target reductions, falling back to an SMT UNSAT check of the
// negated equality before accepting a counterexample.
package verify

import (
	"context"
	"fmt"

	"github.com/rkestrel/synduce-go/pkg/expand"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/solvers"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/synderr"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// ResultKind discriminates the three outcomes of spec section 4.8.
type ResultKind int

const (
	Correct ResultKind = iota
	Ctexs
	IncorrectAssumptions
)

// generalizationStep is the single expansion step every verifier-added
// term must be derived by, per spec section 8's "Counterexample
// generalization" property.
const generalizationStep = 1

// Result is Verify's outcome.
type Result struct {
	Kind   ResultKind
	TPrime []term.Term
	UPrime []term.Term
	Ctexes []term.Term
}

// Config bounds Verify's expansion and reduction work.
type Config struct {
	NumExpansionsCheck int
	ReduceLimit        int
}

// Verify checks a candidate target (already specialized — no remaining
// holes, via pmrs.SpecializeAll) against refPMRS on an enlarged
// expansion of T, optionally consulting smt for a counterexample's
// satisfiability under pre.
func Verify(ctx context.Context, smt solvers.SMTPort, expander *expand.Expander, refPMRS, tgtPMRS *pmrs.PMRS, T []term.Term, pre *term.Term, cfg Config) (Result, error) {
	if pre != nil && smt != nil {
		res, err := smt.CheckSat(ctx, solvers.SMTCheck{Asserts: []string{sygus.ToSMT(*pre)}, Vars: term.FreeVariables(*pre)})
		if err != nil {
			return Result{}, synderr.Solver(err)
		}
		if res == solvers.SatUnsat {
			return Result{Kind: IncorrectAssumptions}, nil
		}
	}

	checkT, checkU := expander.ExpandLoop(tgtPMRS, T, generalizationStep, cfg.NumExpansionsCheck)

	var ctexes []term.Term
	for _, t := range checkT {
		app, ok := t.(term.App)
		if !ok {
			continue
		}
		lhsApp := term.App{Fn: refPMRS.Main.Name, Args: app.Args, Ty: app.Ty}
		rhsApp := term.App{Fn: tgtPMRS.Main.Name, Args: app.Args, Ty: app.Ty}

		lhs, lhsOK := pmrs.Reduce(refPMRS, lhsApp, cfg.ReduceLimit)
		rhs, rhsOK := pmrs.Reduce(tgtPMRS, rhsApp, cfg.ReduceLimit)
		if !lhsOK || !rhsOK {
			return Result{}, synderr.Resourcef("reduction did not terminate while verifying term %s", t.String())
		}
		if lhs.Equal(rhs) {
			continue
		}
		if smt == nil {
			ctexes = append(ctexes, t)
			continue
		}
		sat, err := checkDisagreement(ctx, smt, lhs, rhs, pre)
		if err != nil {
			return Result{}, err
		}
		if sat != solvers.SatUnsat {
			ctexes = append(ctexes, t)
		}
	}

	if len(ctexes) == 0 {
		return Result{Kind: Correct}, nil
	}
	tPrime := append(append([]term.Term{}, T...), ctexes...)
	return Result{Kind: Ctexs, TPrime: tPrime, UPrime: checkU, Ctexes: ctexes}, nil
}

func checkDisagreement(ctx context.Context, smt solvers.SMTPort, lhs, rhs term.Term, pre *term.Term) (solvers.SatResult, error) {
	asserts := []string{fmt.Sprintf("(not (= %s %s))", sygus.ToSMT(lhs), sygus.ToSMT(rhs))}
	vars := term.FreeVariables(lhs)
	vars = append(vars, term.FreeVariables(rhs)...)
	if pre != nil {
		asserts = append(asserts, sygus.ToSMT(*pre))
		vars = append(vars, term.FreeVariables(*pre)...)
	}
	res, err := smt.CheckSat(ctx, solvers.SMTCheck{Asserts: asserts, Vars: dedupeVars(vars)})
	if err != nil {
		return solvers.SatUnknown, synderr.Solver(err)
	}
	return res, nil
}

func dedupeVars(vs []term.Var) []term.Var {
	seen := make(map[int64]bool, len(vs))
	out := make([]term.Var, 0, len(vs))
	for _, v := range vs {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}
