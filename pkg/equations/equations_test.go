package equations

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// sumPMRS builds a list-sum PMRS under the given main-symbol name, used
// as both the reference and a structurally identical "target" under a
// different name so Build must eliminate two distinctly-named recursive
// calls onto the same fresh scalar variable.
func sumPMRS(name string, listTy term.Type) *pmrs.PMRS {
	sum := pmrs.NTSymbol{ID: 0, Name: name}
	hd := term.Var{ID: 200, Name: "hd", Ty: term.Int}
	tl := term.Var{ID: 201, Name: "tl", Ty: listTy}

	nilRule := pmrs.Rule{ID: 0, NT: sum, Pattern: &pmrs.CtorPattern{Ctor: "Nil", Ty: listTy}, RHS: term.IntConst(0)}
	consRule := pmrs.Rule{
		ID:      1,
		NT:      sum,
		Pattern: &pmrs.CtorPattern{Ctor: "Cons", Fields: []term.Var{hd, tl}, Ty: listTy},
		RHS:     term.Add(hd, term.App{Fn: name, Args: []term.Term{tl}, Ty: term.Int}),
	}
	p, err := pmrs.New(nil, []pmrs.NTSymbol{sum}, sum, []pmrs.Rule{nilRule, consRule})
	if err != nil {
		panic(err)
	}
	return p
}

func TestBuildEliminatesRecursiveCallsOnBothSides(t *testing.T) {
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	ref := sumPMRS("Sum", listTy)
	tgt := sumPMRS("Sum2", listTy)
	ctx := ids.New()

	hd := term.Var{ID: 1, Name: "hd", Ty: term.Int}
	tl := term.Var{ID: 2, Name: "tl", Ty: listTy}
	scrutinee := term.Data{Ctor: "Cons", Args: []term.Term{hd, tl}, Ty: listTy}
	T := []term.Term{term.App{Fn: "Sum", Args: []term.Term{scrutinee}, Ty: term.Int}}

	eqs, diags := Build(ctx, ref, tgt, T, false)
	require.Empty(t, diags)
	require.Len(t, eqs, 1)

	eq := eqs[0]
	require.False(t, containsMainApplication("Sum", "Sum2", eq.LHS))
	require.False(t, containsMainApplication("Sum", "Sum2", eq.RHS))
	// Both sides reduce to "hd + <fresh scalar for tl>" — structurally
	// the same shape once the fresh variable is abstracted away.
	lhsBin, ok := eq.LHS.(term.Bin)
	require.True(t, ok)
	rhsBin, ok := eq.RHS.(term.Bin)
	require.True(t, ok)
	require.True(t, lhsBin.R.Equal(rhsBin.R))
}

func TestBuildReportsDiagnosticForNonApplicationTerm(t *testing.T) {
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	ref := sumPMRS("Sum", listTy)
	tgt := sumPMRS("Sum2", listTy)
	ctx := ids.New()

	T := []term.Term{term.IntConst(0)}
	eqs, diags := Build(ctx, ref, tgt, T, false)
	require.Empty(t, eqs)
	require.Len(t, diags, 1)
}

func TestBuildDetuplesTupleValuedEquation(t *testing.T) {
	intTy := term.Int
	main := pmrs.NTSymbol{ID: 0, Name: "Pair"}
	tupTy := term.Tuple{Elems: []term.Type{intTy, intTy}}
	rule := pmrs.Rule{
		ID:      0,
		NT:      main,
		Pattern: &pmrs.CtorPattern{Ctor: "Unit"},
		RHS:     term.Tup{Elems: []term.Term{term.IntConst(1), term.IntConst(2)}, Ty: tupTy},
	}
	p, err := pmrs.New(nil, []pmrs.NTSymbol{main}, main, []pmrs.Rule{rule})
	require.NoError(t, err)

	ctx := ids.New()
	unitTy := term.Cons{Name: "unit"}
	T := []term.Term{term.App{Fn: "Pair", Args: []term.Term{term.Data{Ctor: "Unit", Ty: unitTy}}, Ty: tupTy}}

	eqs, diags := Build(ctx, p, p, T, true)
	require.Empty(t, diags)
	require.Len(t, eqs, 2)
}
