package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/pkg/term"
)

func TestGenerateIntReturnHasIxStart(t *testing.T) {
	g := Generate(GrammarOpts{
		ReturnSort: term.Int,
		Locals:     []term.Var{{ID: 1, Name: "x", Ty: term.Int}, {ID: 2, Name: "b", Ty: term.Bool}},
	})
	require.Equal(t, "Ix", g.Start)

	var ix, ipred *NonTerminalDef
	for i := range g.NonTerminals {
		switch g.NonTerminals[i].Name {
		case "Ix":
			ix = &g.NonTerminals[i]
		case "Ipred":
			ipred = &g.NonTerminals[i]
		}
	}
	require.NotNil(t, ix)
	require.NotNil(t, ipred)
	require.Contains(t, ix.Productions, "x")
	require.Contains(t, ipred.Productions, "b")
}

func TestGenerateBoolReturnStartsAtIpred(t *testing.T) {
	g := Generate(GrammarOpts{ReturnSort: term.Bool})
	require.Equal(t, "Ipred", g.Start)
}

func TestGenerateAddsMultiplyByConstantOnlyWhenAllowed(t *testing.T) {
	without := Generate(GrammarOpts{ReturnSort: term.Int})
	with := Generate(GrammarOpts{ReturnSort: term.Int, AllowMultiplyByConstant: true})

	require.NotContains(t, findNT(without, "Ix").Productions, "(* Ix Ic)")
	require.Contains(t, findNT(with, "Ix").Productions, "(* Ix Ic)")
}

func TestGenerateTupleReturnAddsMkTupleHeadRule(t *testing.T) {
	g := Generate(GrammarOpts{ReturnSort: term.Tuple{Elems: []term.Type{term.Int, term.Bool}}})
	require.Equal(t, "ITuple", g.Start)
	nt := findNT(g, "ITuple")
	require.NotNil(t, nt)
	require.Equal(t, []string{"(mkTuple Ix Ipred)"}, nt.Productions)
}

func TestGenerateProjectsTupleLocalIntoSelectors(t *testing.T) {
	tupTy := term.Tuple{Elems: []term.Type{term.Int, term.Bool}}
	g := Generate(GrammarOpts{
		ReturnSort: term.Int,
		Locals:     []term.Var{{ID: 1, Name: "p", Ty: tupTy}},
	})
	ix := findNT(g, "Ix")
	require.Contains(t, ix.Productions, "((_ tuple.select 0) p)")
	ipred := findNT(g, "Ipred")
	require.Contains(t, ipred.Productions, "((_ tuple.select 1) p)")
}

func TestGenerateWithGuessAddsIStart(t *testing.T) {
	guess := term.Add(term.NewVar(1, "x", term.Int), term.NewVar(2, "y", term.Int))
	g := Generate(GrammarOpts{ReturnSort: term.Int, Guess: &guess})
	require.Equal(t, "IStart", g.Start)
	nt := findNT(g, "IStart")
	require.Equal(t, []string{"(+ Ix Ix)"}, nt.Productions)
}

func findNT(g SyGuSGrammar, name string) *NonTerminalDef {
	for i := range g.NonTerminals {
		if g.NonTerminals[i].Name == name {
			return &g.NonTerminals[i]
		}
	}
	return nil
}
