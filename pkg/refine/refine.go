// Package refine implements the outer refinement loop of spec section
// 4.10: Init, BuildEqs, Solve, Verify, LemmaSynth, Lift, Done. It
// iterates C4 (equations) through C9 (lemma synthesis) until the
// candidate target verifies against the growing representative term
// set, a lemma proves the troublesome counterexamples unreachable, or a
// bound is exhausted.
//
// Grounded on the teacher's internal/parallel pool lifecycle and the
// converge-by-iteration shape of bounded fixed-point search: iterate
// C4->C9 until T stabilizes or a step bound is hit, the same loop
// structure as any bounded worklist algorithm.
package refine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/deduce"
	"github.com/rkestrel/synduce-go/pkg/equations"
	"github.com/rkestrel/synduce-go/pkg/expand"
	"github.com/rkestrel/synduce-go/pkg/grammar"
	"github.com/rkestrel/synduce-go/pkg/lemma"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/solvers"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/synderr"
	"github.com/rkestrel/synduce-go/pkg/term"
	"github.com/rkestrel/synduce-go/pkg/verify"
)

// state is the loop's internal phase, spec section 4.10's state machine.
type state int

const (
	stateBuildEqs state = iota
	stateSolve
	stateVerify
	stateLemmaSynth
	stateLift
)

// DoneKind discriminates the three ways a refinement run can settle
// (spec section 4.10's Done{Realizable|Unrealizable|Failed}).
type DoneKind int

const (
	Realizable DoneKind = iota
	Unrealizable
	Failed
)

// Outcome is Run's final answer.
type Outcome struct {
	Kind     DoneKind
	Solution *pmrs.PMRS
	Steps    int
	Err      error
}

// Config bounds the refinement loop per every knob spec.md names.
type Config struct {
	ReductionLimit     int
	ExpandDepth        int
	ExpandCut          int
	NumExpansionsCheck int
	MaxRefinementSteps int
	Detuple            bool
	Lemma              lemma.Config

	AllowMultiplyByConstant bool
	AllowNonlinear          bool

	// InductionProofTimeout is applied as one context deadline to a whole
	// lemma-synthesis call: the bounded and unbounded checks and the lemma
	// SyGuS calls share it. The unbounded check has no deadline of its own.
	InductionProofTimeout time.Duration
	// WaitParallelTimeout bounds how long a single SyGuS solve call may
	// run before the loop gives up on this attempt.
	WaitParallelTimeout time.Duration
	// SimpleInit seeds T from only the target's first main-symbol rule
	// rather than the full most-general-term family (spec section 4.10's
	// simple_init fast path).
	SimpleInit bool
	// UseSyntacticDefinitions skips the deduction engine (C7) and goes
	// straight to SyGuS, useful for benchmarking C6 in isolation (spec
	// section 4.10).
	UseSyntacticDefinitions bool
	// AssumePartialCorrectness disables Verify's upfront
	// precondition-satisfiability check, trusting that a precondition
	// proven once generalizes without bounded re-proof (spec section
	// 4.10's escape hatch).
	AssumePartialCorrectness bool
}

// Loop is one refinement run over a single hole. Multi-hole problems are
// solved by running one Loop per hole in turn, threading the prior
// Loop's accepted Solution in as the next Loop's Target.
type Loop struct {
	Ctx      *ids.Context
	Registry *term.Registry
	Ref      *pmrs.PMRS
	Target   *pmrs.PMRS
	Hole     sygus.HoleSig
	SyGuS    solvers.SyGuSPort
	SMT      solvers.SMTPort
	Expander *expand.Expander
	Cfg      Config
	Log      *logrus.Entry

	pre           *term.Term
	eqs           []equations.Equation
	T, U          []term.Term
	terms         map[string]*lemma.TermDetail
	pendingCtexes []term.Term
	steps         int

	// retriedAssumptions guards the one-shot IncorrectAssumptions retry
	// (spec section 4.10): a second occurrence is a hard Failed, not
	// another retry.
	retriedAssumptions bool
}

// New constructs a Loop. logger may be nil, in which case a
// component-tagged entry off logrus's standard logger is used.
func New(ctx *ids.Context, registry *term.Registry, ref, target *pmrs.PMRS, hole sygus.HoleSig, syg solvers.SyGuSPort, smt solvers.SMTPort, expander *expand.Expander, cfg Config, logger *logrus.Entry) *Loop {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Loop{
		Ctx: ctx, Registry: registry, Ref: ref, Target: target, Hole: hole,
		SyGuS: syg, SMT: smt, Expander: expander, Cfg: cfg,
		Log: logger.WithField("component", "refine"),
	}
}

// Run executes the state machine to completion or to ctx cancellation.
func (l *Loop) Run(ctx context.Context) Outcome {
	l.Ctx.Reinit()
	l.steps = 0
	l.terms = make(map[string]*lemma.TermDetail)

	seed := l.seedTerms()
	l.T, l.U = l.Expander.ExpandLoop(l.Target, seed, l.Cfg.ExpandDepth, l.Cfg.ExpandCut)

	var body term.Term
	var solvedArgs []term.Var
	var accepted *pmrs.PMRS
	haveSolution := false

	st := stateBuildEqs
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{Kind: Failed, Steps: l.steps, Err: err}
		}

		switch st {
		case stateBuildEqs:
			l.steps++
			if l.Cfg.MaxRefinementSteps > 0 && l.steps > l.Cfg.MaxRefinementSteps {
				return Outcome{Kind: Failed, Steps: l.steps, Err: synderr.Resourcef("refinement did not converge within %d steps", l.Cfg.MaxRefinementSteps)}
			}
			eqs, diags := equations.Build(l.Ctx, l.Ref, l.Target, l.T, l.Cfg.Detuple)
			for _, d := range diags {
				l.Log.WithField("reason", d.Reason).Debug("dropped a term while building equations")
			}
			if l.pre != nil {
				for i := range eqs {
					eqs[i].Pre = l.pre
				}
			}
			if len(eqs) == 0 {
				return Outcome{Kind: Failed, Steps: l.steps, Err: synderr.Resourcef("no usable equations from %d candidate terms", len(l.T))}
			}
			l.eqs = eqs
			haveSolution = false
			st = stateSolve

		case stateSolve:
			var guess *term.Term
			if !l.Cfg.UseSyntacticDefinitions {
				dres := deduce.Deduce(ctx, l.Ctx, l.SMT, l.eqs, sygus.Hole(l.Hole.Name), l.Hole.Params)
				switch dres.Kind {
				case deduce.ResultFirst:
					body, solvedArgs, haveSolution = dres.Body, dres.Args, true
				case deduce.ResultSecond:
					guess = &dres.Skeleton
				}
			}
			if !haveSolution {
				resp, err := l.solveSyGuS(ctx, guess)
				if err != nil {
					return Outcome{Kind: Failed, Steps: l.steps, Err: err}
				}
				switch resp.Kind {
				case solvers.RespSuccess:
					b, ok := resp.Bodies[sygus.Hole(l.Hole.Name)]
					if !ok {
						return Outcome{Kind: Failed, Steps: l.steps, Err: synderr.Internalf("sygus success response missing body for hole %q", l.Hole.Name)}
					}
					body, solvedArgs, haveSolution = b, l.Hole.Params, true
				case solvers.RespInfeasible, solvers.RespFail, solvers.RespUnknown:
					// Infeasible/fail/unknown against the *current* T is not
					// the same as the problem being unrealizable outright
					// (spec section 4.6): hand the equation system back to
					// C9 so lemma synthesis can try to restrict it before
					// the loop gives up.
					l.pendingCtexes = l.T
					st = stateLemmaSynth
				default:
					return Outcome{Kind: Failed, Steps: l.steps, Err: synderr.Resourcef("sygus returned %v", resp.Kind)}
				}
			}
			if st != stateLemmaSynth {
				st = stateVerify
			}

		case stateVerify:
			candidate := pmrs.Specialize(l.Target, l.Hole.Name, solvedArgs, body)
			pre := l.pre
			if l.Cfg.AssumePartialCorrectness {
				pre = nil
			}
			vres, err := verify.Verify(ctx, l.SMT, l.Expander, l.Ref, candidate, l.T, pre, verify.Config{
				NumExpansionsCheck: l.Cfg.NumExpansionsCheck,
				ReduceLimit:        l.Cfg.ReductionLimit,
			})
			if err != nil {
				return Outcome{Kind: Failed, Steps: l.steps, Err: err}
			}
			switch vres.Kind {
			case verify.Correct:
				accepted = candidate
				st = stateLift
			case verify.IncorrectAssumptions:
				// Category 2 of spec section 7's error taxonomy, not
				// category 4: an unsatisfiable precondition here means the
				// assumptions the loop made (partial correctness, or
				// skipping deduction for syntactic definitions) were too
				// aggressive, not that the problem is logically
				// unrealizable. Retry once with both turned off; a second
				// occurrence is a hard Failed.
				if l.retriedAssumptions {
					return Outcome{Kind: Failed, Steps: l.steps, Err: synderr.Internalf("verification reported incorrect assumptions even after disabling AssumePartialCorrectness/UseSyntacticDefinitions")}
				}
				l.retriedAssumptions = true
				l.Cfg.AssumePartialCorrectness = false
				l.Cfg.UseSyntacticDefinitions = false
				st = stateBuildEqs
			case verify.Ctexs:
				l.T, l.U = vres.TPrime, vres.UPrime
				l.pendingCtexes = vres.Ctexes
				st = stateLemmaSynth
			}

		case stateLemmaSynth:
			allAccepted := true
			for _, t := range l.pendingCtexes {
				detail, ok := l.terms[t.String()]
				if !ok {
					detail = &lemma.TermDetail{Term: t, ScalarVars: term.FreeVariables(t)}
					l.terms[t.String()] = detail
				}
				detail.Precondition = l.pre

				lctx := ctx
				if l.Cfg.InductionProofTimeout > 0 {
					var cancel context.CancelFunc
					lctx, cancel = context.WithTimeout(ctx, l.Cfg.InductionProofTimeout)
					defer cancel()
				}
				lres, err := lemma.Synthesize(lctx, l.SyGuS, l.SMT, l.Expander, l.Target, detail, nil, l.Cfg.Lemma)
				if err != nil {
					return Outcome{Kind: Failed, Steps: l.steps, Err: err}
				}
				switch lres.Kind {
				case lemma.Accepted:
					l.pre = conjoin(l.pre, lres.Lemma)
				case lemma.Unrealizable:
					return Outcome{Kind: Unrealizable, Steps: l.steps}
				case lemma.Unknown:
					allAccepted = false
				}
			}
			if !allAccepted {
				return Outcome{Kind: Failed, Steps: l.steps, Err: synderr.Resourcef("lemma synthesis exhausted its attempt budget for %d counterexamples", len(l.pendingCtexes))}
			}
			st = stateBuildEqs

		case stateLift:
			return Outcome{Kind: Realizable, Solution: accepted, Steps: l.steps}
		}
	}
}

// seedTerms builds Init's starting term family: the full most-general-term
// family by default, or just its first entry under Cfg.SimpleInit.
func (l *Loop) seedTerms() []term.Term {
	mgts := pmrs.MostGeneralTerms(l.Ctx, l.Target)
	if l.Cfg.SimpleInit && len(mgts) > 0 {
		return mgts[:1]
	}
	return mgts
}

// solveSyGuS emits and solves a full SyGuS-IF command sequence for the
// loop's single remaining hole, optionally biased by a C7 guess skeleton.
func (l *Loop) solveSyGuS(ctx context.Context, guess *term.Term) (solvers.Response, error) {
	if l.Cfg.WaitParallelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Cfg.WaitParallelTimeout)
		defer cancel()
	}
	g := grammar.Generate(grammar.GrammarOpts{
		ReturnSort:              l.Hole.Ty,
		Locals:                  l.Hole.Params,
		AllowMultiplyByConstant: l.Cfg.AllowMultiplyByConstant,
		AllowNonlinear:          l.Cfg.AllowNonlinear,
		BooleanRequired:         sygus.SmtSortOf(l.Hole.Ty) == "Bool",
		Guess:                   guess,
	})
	cmds := sygus.Emit(l.eqs, []sygus.HoleSig{l.Hole}, g)
	resp, err := l.SyGuS.Solve(ctx, cmds)
	if err != nil {
		return solvers.Response{}, synderr.Solver(err)
	}
	return resp, nil
}

// conjoin ands extra onto pre, treating a nil pre as the identity.
func conjoin(pre *term.Term, extra term.Term) *term.Term {
	if pre == nil {
		c := extra
		return &c
	}
	c := term.And(*pre, extra)
	return &c
}
