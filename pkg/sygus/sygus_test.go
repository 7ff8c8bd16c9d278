package sygus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/pkg/equations"
	"github.com/rkestrel/synduce-go/pkg/grammar"
	"github.com/rkestrel/synduce-go/pkg/term"
)

func TestEmitProducesSetLogicSynthFunAndCheckSynth(t *testing.T) {
	x := term.Var{ID: 1, Name: "x", Ty: term.Int}
	eq := equations.Equation{LHS: x, RHS: term.Add(x, term.IntConst(0))}
	hole := HoleSig{Name: "spec", Params: []term.Var{x}, Ty: term.Int}
	g := grammar.Generate(grammar.GrammarOpts{ReturnSort: term.Int, Locals: []term.Var{x}})

	cmds := Emit([]equations.Equation{eq}, []HoleSig{hole}, g)
	require.Equal(t, Command("(set-logic DTLIA)"), cmds[0])
	require.Contains(t, string(cmds[1]), "synth-fun spec")
	require.Equal(t, Command("(check-synth)"), cmds[len(cmds)-1])

	var sawConstraint bool
	for _, c := range cmds {
		if string(c) == "(constraint (= x (+ x 0)))" {
			sawConstraint = true
		}
	}
	require.True(t, sawConstraint)
}

func TestEmitPicksNIAWhenMultiplicationIsNonlinear(t *testing.T) {
	x := term.Var{ID: 1, Name: "x", Ty: term.Int}
	y := term.Var{ID: 2, Name: "y", Ty: term.Int}
	eq := equations.Equation{LHS: x, RHS: term.Mul(x, y)}
	cmds := Emit([]equations.Equation{eq}, nil, grammar.SyGuSGrammar{})
	require.Equal(t, Command("(set-logic NIA)"), cmds[0])
}

func TestToSMTRendersPrefixNotation(t *testing.T) {
	x := term.Var{ID: 1, Name: "x", Ty: term.Int}
	got := ToSMT(term.Ite{Cond: term.Lt(x, term.IntConst(0)), Then: term.Un{Op: term.OpNeg, X: x, Ty: term.Int}, Else: x, Ty: term.Int})
	require.Equal(t, "(ite (< x 0) (- x) x)", got)
}

func TestParseDefineFunRoundTripsASimpleBody(t *testing.T) {
	hole, body, err := ParseDefineFun(
		"(define-fun spec ((x Int)) Int (+ x 1))",
		map[string]term.Type{},
	)
	require.NoError(t, err)
	require.Equal(t, Hole("spec"), hole)
	require.Equal(t, "(+ x 1)", ToSMT(body))
}

func TestParseDefineFunHandlesIteAndComparison(t *testing.T) {
	_, body, err := ParseDefineFun(
		"(define-fun spec ((x Int) (y Int)) Int (ite (<= x y) x y))",
		map[string]term.Type{},
	)
	require.NoError(t, err)
	require.Equal(t, "(ite (<= x y) x y)", ToSMT(body))
}
