// Package lemma implements the per-term invariant synthesizer of spec
// section 4.9: when a term's counterexamples block progress, synthesize
// a boolean predicate over its recursion-elimination scalars via SyGuS,
// then prove it either by bounded expansion-and-check or by unbounded
// SMT induction, whichever settles first.
//
// The bounded/unbounded race is grounded directly on the teacher's
// parallel_search.go/optimize_parallel.go winner-take-all combinator,
// reused here through internal/parallel.RaceFirst rather than
// reimplemented, per spec section 5's "select-first" guidance.
package lemma

import (
	"context"
	"fmt"
	"strings"

	"github.com/rkestrel/synduce-go/internal/parallel"
	"github.com/rkestrel/synduce-go/pkg/expand"
	"github.com/rkestrel/synduce-go/pkg/grammar"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/solvers"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/synderr"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// Counterexample maps a scalar variable id to the concrete integer
// value it is asserted (or denied) to satisfy the term's invariant at
// (spec section 3, "a map from variable id to value").
type Counterexample map[int64]int

// TermDetail is the per-term record spec section 3 describes under
// "Term state": the term itself, its recursion-elimination scalars, the
// accumulated positive/negative counterexamples, the current
// precondition, and the proven lemma list.
type TermDetail struct {
	Term         term.Term
	ScalarVars   []term.Var
	Positive     []Counterexample
	Negative     []Counterexample
	Precondition *term.Term
	Lemmas       []term.Term
}

// Config bounds lemma synthesis per spec section 5's named knobs.
type Config struct {
	MaxAttempts  int
	BoundedDepth int
	BoundedCut   int
}

// ResultKind discriminates the three ways the inner lemma-refinement
// loop can terminate (spec section 4.9).
type ResultKind int

const (
	// Accepted means a lemma was proven and conjoined into the term's
	// invariant.
	Accepted ResultKind = iota
	// Unrealizable means the synthesizer itself reported infeasible (no
	// lemma in the grammar can separate the positive/negative examples),
	// or answered success without a lemma body.
	Unrealizable
	// Unknown means the attempt budget was exhausted without a verdict.
	Unknown
)

// Result is Synthesize's outcome.
type Result struct {
	Kind  ResultKind
	Lemma term.Term
}

// holeName derives a stable, collision-free synth-fun name for a term's
// lemma from its scalar variable ids (a term's scalars are unique to
// it within one refinement loop run).
func holeName(d *TermDetail) string {
	var b strings.Builder
	b.WriteString("lemma")
	for _, v := range d.ScalarVars {
		fmt.Fprintf(&b, "_%d", v.ID)
	}
	return b.String()
}

// Synthesize runs the inner lemma-refinement loop of spec section 4.9
// for one term's detail record: synthesize a candidate via syg, verify
// it by racing a bounded expansion check against unbounded SMT
// induction, and either accept it, add the discovered positive example
// and retry, or give up after cfg.MaxAttempts rounds.
func Synthesize(ctx context.Context, syg solvers.SyGuSPort, smt solvers.SMTPort, expander *expand.Expander, p *pmrs.PMRS, d *TermDetail, tinv *term.Term, cfg Config) (Result, error) {
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		cand, ok, err := synthesizeCandidate(ctx, syg, d)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Kind: Unrealizable}, nil
		}

		sat, posExample, err := verifyCandidate(ctx, smt, expander, p, d, tinv, cand, cfg)
		if err != nil {
			return Result{}, err
		}
		if sat == solvers.SatUnsat {
			framed := frame(d.Precondition, cand)
			d.Lemmas = append(d.Lemmas, framed)
			return Result{Kind: Accepted, Lemma: framed}, nil
		}
		d.Positive = append(d.Positive, posExample)
	}
	return Result{Kind: Unknown}, nil
}

// frame wraps a proven lemma in the standard `pre => lemma` shape of
// spec section 4.9, or returns it bare when there is no precondition.
func frame(pre *term.Term, lemma term.Term) term.Term {
	if pre == nil {
		return lemma
	}
	return term.Ite{Cond: *pre, Then: lemma, Else: term.BoolConst(true), Ty: term.Bool}
}

// synthesizeCandidate emits a synth-fun over d's scalar variables with
// the default boolean grammar, one constraint per accumulated
// counterexample, and parses the solver's response.
func synthesizeCandidate(ctx context.Context, syg solvers.SyGuSPort, d *TermDetail) (term.Term, bool, error) {
	name := holeName(d)
	g := grammar.Generate(grammar.GrammarOpts{ReturnSort: term.Bool, Locals: d.ScalarVars, BooleanRequired: true})
	hole := sygus.HoleSig{Name: sygus.Hole(name), Params: d.ScalarVars, Ty: term.Bool}

	var cmds []sygus.Command
	cmds = append(cmds, "(set-logic LIA)")
	cmds = append(cmds, sygus.SynthFunCommand(hole, g))
	for _, v := range d.ScalarVars {
		cmds = append(cmds, sygus.Command(fmt.Sprintf("(declare-var %s %s)", v.Name, sygus.SmtSortOf(v.Ty))))
	}
	for _, pos := range d.Positive {
		cmds = append(cmds, sygus.Command(fmt.Sprintf("(constraint (%s %s))", name, renderArgs(pos, d.ScalarVars))))
	}
	for _, neg := range d.Negative {
		cmds = append(cmds, sygus.Command(fmt.Sprintf("(constraint (not (%s %s)))", name, renderArgs(neg, d.ScalarVars))))
	}
	cmds = append(cmds, "(check-synth)")

	resp, err := syg.Solve(ctx, cmds)
	if err != nil {
		return nil, false, synderr.Solver(err)
	}
	switch resp.Kind {
	case solvers.RespSuccess:
		body, ok := resp.Bodies[sygus.Hole(name)]
		return body, ok, nil
	case solvers.RespInfeasible:
		return nil, false, nil
	default:
		return nil, false, synderr.Resourcef("sygus lemma synthesis returned %v", resp.Kind)
	}
}

func renderArgs(c Counterexample, scalars []term.Var) string {
	parts := make([]string, len(scalars))
	for i, v := range scalars {
		parts[i] = fmt.Sprintf("%d", c[v.ID])
	}
	return strings.Join(parts, " ")
}

// checkOutcome is one verification task's result: whether the candidate
// held (UNSAT on its negation) and, if not, a witnessing assignment.
type checkOutcome struct {
	Result  solvers.SatResult
	Example Counterexample
}

// verifyCandidate races the bounded expansion-and-check mode against
// the unbounded SMT-induction mode, returning whichever settles first
// (spec section 4.9 and section 5's "select-first" combinator).
func verifyCandidate(ctx context.Context, smt solvers.SMTPort, expander *expand.Expander, p *pmrs.PMRS, d *TermDetail, tinv *term.Term, cand term.Term, cfg Config) (solvers.SatResult, Counterexample, error) {
	if smt == nil {
		return solvers.SatUnknown, nil, nil
	}
	tasks := []parallel.Task[checkOutcome]{
		func(ctx context.Context) (checkOutcome, error) { return boundedCheck(ctx, smt, expander, p, d, tinv, cand, cfg) },
		func(ctx context.Context) (checkOutcome, error) { return unboundedCheck(ctx, smt, d, tinv, cand) },
	}
	out, _, err := parallel.RaceFirst(ctx, tasks...)
	if err != nil {
		return solvers.SatUnknown, nil, synderr.Solver(err)
	}
	return out.Result, out.Example, nil
}

// boundedCheck expands d.Term up to cfg.BoundedDepth and checks, at each
// expansion, that the candidate's negation is UNSAT under tinv and the
// term's current precondition — the "bounded" mode of spec section 4.9.
func boundedCheck(ctx context.Context, smt solvers.SMTPort, expander *expand.Expander, p *pmrs.PMRS, d *TermDetail, tinv *term.Term, cand term.Term, cfg Config) (checkOutcome, error) {
	expansions, _ := expander.ExpandLoop(p, []term.Term{d.Term}, cfg.BoundedDepth, cfg.BoundedCut)
	for range expansions {
		asserts, vars := negationQuery(cand, d.Precondition, tinv)
		res, err := smt.CheckSat(ctx, solvers.SMTCheck{Asserts: asserts, Vars: vars})
		if err != nil {
			return checkOutcome{}, err
		}
		if res == solvers.SatSat {
			return checkOutcome{Result: solvers.SatSat, Example: Counterexample{}}, nil
		}
		if res == solvers.SatUnknown {
			return checkOutcome{Result: solvers.SatUnknown}, nil
		}
	}
	return checkOutcome{Result: solvers.SatUnsat}, nil
}

// unboundedCheck quantifies the candidate's negation existentially over
// its scalar variables and asks the SMT port to refute it in one shot —
// the "unbounded" SMT-induction mode of spec section 4.9. ctx's deadline
// (set by the caller from induction_proof_tlimit) bounds the call.
func unboundedCheck(ctx context.Context, smt solvers.SMTPort, d *TermDetail, tinv *term.Term, cand term.Term) (checkOutcome, error) {
	asserts, _ := negationQuery(cand, d.Precondition, tinv)
	body := asserts[0]
	for _, a := range asserts[1:] {
		body = fmt.Sprintf("(and %s %s)", body, a)
	}
	quant := fmt.Sprintf("(exists (%s) %s)", quantifierBindings(d.ScalarVars), body)
	res, err := smt.CheckSat(ctx, solvers.SMTCheck{Asserts: []string{quant}})
	if err != nil {
		return checkOutcome{}, err
	}
	if res == solvers.SatSat {
		return checkOutcome{Result: solvers.SatSat, Example: Counterexample{}}, nil
	}
	return checkOutcome{Result: res}, nil
}

func quantifierBindings(vs []term.Var) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("(%s %s)", v.Name, sygus.SmtSortOf(v.Ty))
	}
	return strings.Join(parts, " ")
}

// negationQuery builds the `(not cand)` assertion list (plus tinv and
// the term's current precondition, if present) and the free variables
// those assertions mention.
func negationQuery(cand term.Term, pre, tinv *term.Term) ([]string, []term.Var) {
	asserts := []string{fmt.Sprintf("(not %s)", sygus.ToSMT(cand))}
	vars := term.FreeVariables(cand)
	if pre != nil {
		asserts = append(asserts, sygus.ToSMT(*pre))
		vars = append(vars, term.FreeVariables(*pre)...)
	}
	if tinv != nil {
		asserts = append(asserts, sygus.ToSMT(*tinv))
		vars = append(vars, term.FreeVariables(*tinv)...)
	}
	return asserts, dedupeVars(vars)
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
