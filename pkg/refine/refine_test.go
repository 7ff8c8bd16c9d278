package refine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/expand"
	"github.com/rkestrel/synduce-go/pkg/lemma"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/solvers"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// refPMRS is the reference Sum over a cons-list, rules shared by every
// test so the target with a hole can be checked against it.
func refPMRS(t *testing.T) *pmrs.PMRS {
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	main := pmrs.NTSymbol{ID: 0, Name: "Sum"}
	hd := term.Var{ID: 1, Name: "hd", Ty: term.Int}
	tl := term.Var{ID: 2, Name: "tl", Ty: listTy}
	nilRule := pmrs.Rule{ID: 0, NT: main, Pattern: &pmrs.CtorPattern{Ctor: "Nil", Ty: listTy}, RHS: term.IntConst(0)}
	consRule := pmrs.Rule{
		ID: 1, NT: main,
		Pattern: &pmrs.CtorPattern{Ctor: "Cons", Fields: []term.Var{hd, tl}, Ty: listTy},
		RHS:     term.Add(hd, term.App{Fn: "Sum", Args: []term.Term{tl}, Ty: term.Int}),
	}
	p, err := pmrs.New(nil, []pmrs.NTSymbol{main}, main, []pmrs.Rule{nilRule, consRule})
	require.NoError(t, err)
	return p
}

// targetWithHole is a skeleton identical to refPMRS's shape but with the
// Cons rule's body replaced by a bare hole application h(hd, Target(tl))
// — the hole receives the recursive call's result as its own argument
// rather than standing inside a surrounding operator, so the equation
// C4 builds has the hole isolated on one entire side (deduce.Deduce's
// isolateHoleEquation requires exactly that shape), letting C7 solve it
// without ever invoking a SyGuS stub.
func targetWithHole(t *testing.T) *pmrs.PMRS {
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	main := pmrs.NTSymbol{ID: 0, Name: "Target"}
	hd := term.Var{ID: 1, Name: "hd", Ty: term.Int}
	tl := term.Var{ID: 2, Name: "tl", Ty: listTy}
	hole := term.Var{ID: 3, Name: "h", Ty: term.Int}
	nilRule := pmrs.Rule{ID: 0, NT: main, Pattern: &pmrs.CtorPattern{Ctor: "Nil", Ty: listTy}, RHS: term.IntConst(0)}
	consRule := pmrs.Rule{
		ID: 1, NT: main,
		Pattern: &pmrs.CtorPattern{Ctor: "Cons", Fields: []term.Var{hd, tl}, Ty: listTy},
		RHS: term.App{Fn: "h", Ty: term.Int, Args: []term.Term{
			hd,
			term.App{Fn: "Target", Args: []term.Term{tl}, Ty: term.Int},
		}},
	}
	p, err := pmrs.New([]term.Var{hole}, []pmrs.NTSymbol{main}, main, []pmrs.Rule{nilRule, consRule})
	require.NoError(t, err)
	return p
}

// targetWithEmbeddedHole mirrors targetWithHole's shape except the hole
// sits inside the Cons rule's addition rather than standing alone on
// one side of the equation, so deduce.Deduce's isolateHoleEquation never
// isolates it (it only matches a bare hole application occupying an
// entire equation side) and the loop must fall through to SyGuS.
func targetWithEmbeddedHole(t *testing.T) *pmrs.PMRS {
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	main := pmrs.NTSymbol{ID: 0, Name: "Target"}
	hd := term.Var{ID: 1, Name: "hd", Ty: term.Int}
	tl := term.Var{ID: 2, Name: "tl", Ty: listTy}
	hole := term.Var{ID: 3, Name: "h", Ty: term.Int}
	nilRule := pmrs.Rule{ID: 0, NT: main, Pattern: &pmrs.CtorPattern{Ctor: "Nil", Ty: listTy}, RHS: term.IntConst(0)}
	consRule := pmrs.Rule{
		ID: 1, NT: main,
		Pattern: &pmrs.CtorPattern{Ctor: "Cons", Fields: []term.Var{hd, tl}, Ty: listTy},
		RHS:     term.Add(hd, term.App{Fn: "h", Ty: term.Int, Args: []term.Term{tl}}),
	}
	p, err := pmrs.New([]term.Var{hole}, []pmrs.NTSymbol{main}, main, []pmrs.Rule{nilRule, consRule})
	require.NoError(t, err)
	return p
}

// embeddedHoleSig is the single-argument hole signature matched by
// targetWithEmbeddedHole's "h".
func embeddedHoleSig() sygus.HoleSig {
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	return sygus.HoleSig{Name: "h", Params: []term.Var{{ID: 20, Name: "xs", Ty: listTy}}, Ty: term.Int}
}

// synthFunName extracts the synth-fun name a SyGuS-IF command sequence
// is solving for, so a stub can tell the loop's main hole apart from a
// lemma's own per-term hole.
func synthFunName(cmds []sygus.Command) string {
	const prefix = "(synth-fun "
	for _, c := range cmds {
		s := string(c)
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		rest := strings.TrimPrefix(s, prefix)
		if sp := strings.IndexByte(rest, ' '); sp >= 0 {
			return rest[:sp]
		}
	}
	return ""
}

// scriptedSyGuS answers the main hole's synth-fun requests from a fixed
// script of responses (clamped to the last entry once exhausted), and
// accepts any other synth-fun request (a lemma's per-term hole)
// unconditionally with a trivial "true" body.
type scriptedSyGuS struct {
	script []solvers.Response
	calls  int
}

func (s *scriptedSyGuS) Solve(ctx context.Context, cmds []sygus.Command) (solvers.Response, error) {
	name := synthFunName(cmds)
	if name != "h" {
		return solvers.Response{Kind: solvers.RespSuccess, Bodies: map[sygus.Hole]term.Term{sygus.Hole(name): term.BoolConst(true)}}, nil
	}
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i], nil
}

// alwaysFailSyGuS reports the main hole infeasible under every grammar
// and every lemma candidate infeasible too, so lemma synthesis itself
// gives up rather than looping on an attempt budget.
type alwaysFailSyGuS struct{}

func (alwaysFailSyGuS) Solve(ctx context.Context, cmds []sygus.Command) (solvers.Response, error) {
	if synthFunName(cmds) == "h" {
		return solvers.Response{Kind: solvers.RespFail}, nil
	}
	return solvers.Response{Kind: solvers.RespInfeasible}, nil
}

// lemmaAcceptingSMT answers every check-sat query by inspecting its
// shape rather than tracking call order, so it behaves consistently
// regardless of which side of a parallel bounded/unbounded race reaches
// it first: a lemma candidate's negation is always refuted (accepting
// the lemma), a disagreement is refuted once a precondition guards it,
// and a bare precondition is satisfiable unless unsatisfiablePrecondition
// is set.
type lemmaAcceptingSMT struct {
	unsatisfiablePrecondition bool
}

func (s lemmaAcceptingSMT) CheckSat(ctx context.Context, check solvers.SMTCheck) (solvers.SatResult, error) {
	if len(check.Asserts) == 0 {
		return solvers.SatUnknown, nil
	}
	switch first := check.Asserts[0]; {
	case strings.Contains(first, "(not (="):
		if len(check.Asserts) > 1 {
			return solvers.SatUnsat, nil
		}
		return solvers.SatSat, nil
	case strings.HasPrefix(first, "(not "), strings.HasPrefix(first, "(exists"):
		return solvers.SatUnsat, nil
	default:
		if s.unsatisfiablePrecondition {
			return solvers.SatUnsat, nil
		}
		return solvers.SatSat, nil
	}
}

func registryWithList(t *testing.T) *term.Registry {
	reg := term.NewRegistry()
	require.NoError(t, reg.DeclareType(&term.TypeDef{Name: "list", Params: []string{"a"}}))
	intT := term.Int
	listTy := term.Cons{Name: "list", Args: []term.Type{intT}}
	require.NoError(t, reg.DeclareVariant(&term.VariantDef{Name: "Nil", TypeName: "list"}))
	require.NoError(t, reg.DeclareVariant(&term.VariantDef{Name: "Cons", TypeName: "list", Fields: []term.Type{intT, listTy}}))
	return reg
}

// failingSyGuS is never expected to be called in the deducible-hole test;
// it errors loudly if it ever is, so a silent fallback to SyGuS cannot
// masquerade as a passing test.
type failingSyGuS struct{}

func (failingSyGuS) Solve(ctx context.Context, cmds []sygus.Command) (solvers.Response, error) {
	panic("sygus should not be invoked: the hole is deducible by C7 alone")
}

func TestRunSolvesDeducibleHoleWithoutInvokingSyGuS(t *testing.T) {
	ctx := ids.New()
	reg := registryWithList(t)
	exp := expand.New(ctx, reg)

	hole := sygus.HoleSig{Name: "h", Params: []term.Var{
		{ID: 10, Name: "hd", Ty: term.Int},
		{ID: 11, Name: "tlsum", Ty: term.Int},
	}, Ty: term.Int}
	l := New(ctx, reg, refPMRS(t), targetWithHole(t), hole, failingSyGuS{}, nil, exp, Config{
		ReductionLimit:     2000,
		ExpandDepth:        3,
		ExpandCut:          50,
		NumExpansionsCheck: 20,
		MaxRefinementSteps: 10,
	}, nil)

	out := l.Run(context.Background())
	require.Equal(t, Realizable, out.Kind)
	require.NotNil(t, out.Solution)
	require.Empty(t, out.Solution.Params)
}

// TestRunRoutesSyGuSInfeasibleThroughLemmaSynthToRealizable covers the
// "Lemma-guarded realizable" scenario: the first SyGuS attempt against
// the current term set comes back infeasible, the loop hands the
// equation system to lemma synthesis instead of giving up, a lemma
// guards the term family, and a second SyGuS attempt under the widened
// precondition verifies.
func TestRunRoutesSyGuSInfeasibleThroughLemmaSynthToRealizable(t *testing.T) {
	ctx := ids.New()
	reg := registryWithList(t)
	exp := expand.New(ctx, reg)

	syg := &scriptedSyGuS{script: []solvers.Response{
		{Kind: solvers.RespInfeasible},
		{Kind: solvers.RespSuccess, Bodies: map[sygus.Hole]term.Term{"h": term.IntConst(0)}},
	}}
	smt := lemmaAcceptingSMT{}

	l := New(ctx, reg, refPMRS(t), targetWithEmbeddedHole(t), embeddedHoleSig(), syg, smt, exp, Config{
		ReductionLimit:     2000,
		ExpandDepth:        3,
		ExpandCut:          50,
		NumExpansionsCheck: 20,
		MaxRefinementSteps: 10,
		Lemma:              lemma.Config{MaxAttempts: 5, BoundedDepth: 1, BoundedCut: 3},
	}, nil)

	out := l.Run(context.Background())
	require.Equal(t, Realizable, out.Kind)
	require.GreaterOrEqual(t, syg.calls, 2, "expected at least one LemmaSynth -> BuildEqs -> Solve round trip")
}

// TestRunRoutesSyGuSFailToLemmaSynthUnrealizable covers the fail/unknown
// side of the same routing fix: a RespFail response against the current
// term set must still reach lemma synthesis rather than terminating the
// run outright, and the final Unrealizable verdict here comes from
// lemma.Unrealizable, not from stateSolve's fallback error.
func TestRunRoutesSyGuSFailToLemmaSynthUnrealizable(t *testing.T) {
	ctx := ids.New()
	reg := registryWithList(t)
	exp := expand.New(ctx, reg)

	l := New(ctx, reg, refPMRS(t), targetWithEmbeddedHole(t), embeddedHoleSig(), alwaysFailSyGuS{}, nil, exp, Config{
		ReductionLimit:     2000,
		ExpandDepth:        3,
		ExpandCut:          50,
		NumExpansionsCheck: 20,
		MaxRefinementSteps: 10,
		Lemma:              lemma.Config{MaxAttempts: 5, BoundedDepth: 1, BoundedCut: 3},
	}, nil)

	out := l.Run(context.Background())
	require.Equal(t, Unrealizable, out.Kind)
}

// TestRunRetriesIncorrectAssumptionsOnceThenFails covers the
// IncorrectAssumptions retry: the first occurrence disables
// AssumePartialCorrectness/UseSyntacticDefinitions and re-enters
// BuildEqs rather than terminating immediately, and a second occurrence
// after the retry terminates Failed (not Unrealizable, since an
// unsatisfiable precondition is a resource/internal-consistency error,
// not logical infeasibility).
func TestRunRetriesIncorrectAssumptionsOnceThenFails(t *testing.T) {
	ctx := ids.New()
	reg := registryWithList(t)
	exp := expand.New(ctx, reg)

	syg := &scriptedSyGuS{script: []solvers.Response{
		{Kind: solvers.RespInfeasible},
		{Kind: solvers.RespSuccess, Bodies: map[sygus.Hole]term.Term{"h": term.IntConst(0)}},
	}}
	smt := lemmaAcceptingSMT{unsatisfiablePrecondition: true}

	l := New(ctx, reg, refPMRS(t), targetWithEmbeddedHole(t), embeddedHoleSig(), syg, smt, exp, Config{
		ReductionLimit:     2000,
		ExpandDepth:        3,
		ExpandCut:          50,
		NumExpansionsCheck: 20,
		MaxRefinementSteps: 10,
		Lemma:              lemma.Config{MaxAttempts: 5, BoundedDepth: 1, BoundedCut: 3},
	}, nil)

	out := l.Run(context.Background())
	require.Equal(t, Failed, out.Kind)
	require.Error(t, out.Err)
	require.Equal(t, 3, out.Steps, "expected one BuildEqs retry between the two IncorrectAssumptions occurrences")
}
