package expand

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/term"
)

func listRegistry() (*term.Registry, term.Type) {
	reg := term.NewRegistry()
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	_ = reg.DeclareType(&term.TypeDef{Name: "list", Params: []string{"a"}})
	_ = reg.DeclareVariant(&term.VariantDef{Name: "Nil", TypeName: "list", Fields: nil})
	_ = reg.DeclareVariant(&term.VariantDef{Name: "Cons", TypeName: "list", Fields: []term.Type{term.Int, listTy}})
	return reg, listTy
}

func listSumPMRS(listTy term.Type) *pmrs.PMRS {
	sum := pmrs.NTSymbol{ID: 0, Name: "Sum"}
	hd := term.Var{ID: 900, Name: "hd", Ty: term.Int}
	tl := term.Var{ID: 901, Name: "tl", Ty: listTy}

	nilRule := pmrs.Rule{ID: 0, NT: sum, Pattern: &pmrs.CtorPattern{Ctor: "Nil", Ty: listTy}, RHS: term.IntConst(0)}
	consRule := pmrs.Rule{
		ID:      1,
		NT:      sum,
		Pattern: &pmrs.CtorPattern{Ctor: "Cons", Fields: []term.Var{hd, tl}, Ty: listTy},
		RHS:     term.Add(hd, term.App{Fn: "Sum", Args: []term.Term{tl}, Ty: term.Int}),
	}
	p, err := pmrs.New(nil, []pmrs.NTSymbol{sum}, sum, []pmrs.Rule{nilRule, consRule})
	if err != nil {
		panic(err)
	}
	return p
}

func TestToMaximallyReducibleSplitsAFreeListVariable(t *testing.T) {
	reg, listTy := listRegistry()
	p := listSumPMRS(listTy)
	ctx := ids.New()
	e := New(ctx, reg)

	l := term.Var{ID: 1, Name: "l", Ty: listTy}
	seed := term.App{Fn: "Sum", Args: []term.Term{l}, Ty: term.Int}

	tPrime, uPrime := e.ToMaximallyReducible(p, seed)
	// Each Nil branch reached along the way is already maximally
	// reducible; the Cons chain keeps one free list variable alive at
	// every depth until the split-depth ceiling reports it as boundary.
	require.NotEmpty(t, tPrime)
	require.NotEmpty(t, uPrime)
	for _, mr := range tPrime {
		require.True(t, pmrs.IsMR(p, mr, defaultReduceLimit))
	}
	for _, boundary := range uPrime {
		require.False(t, pmrs.IsMR(p, boundary, defaultReduceLimit))
	}
}

func TestExpandLoopRespectsDepthAndCutBudgets(t *testing.T) {
	reg, listTy := listRegistry()
	p := listSumPMRS(listTy)
	ctx := ids.New()
	e := New(ctx, reg)

	l := term.Var{ID: 1, Name: "l", Ty: listTy}
	seed := []term.Term{term.App{Fn: "Sum", Args: []term.Term{l}, Ty: term.Int}}

	T, U := e.ExpandLoop(p, seed, 3, 50)
	require.NotEmpty(t, T)
	require.True(t, IsMRAll(p, T, defaultReduceLimit))
	for _, u := range U {
		require.False(t, pmrs.IsMR(p, u, defaultReduceLimit))
	}
}

func TestExpandLoopCutBudgetStopsEarly(t *testing.T) {
	reg, listTy := listRegistry()
	p := listSumPMRS(listTy)
	ctx := ids.New()
	e := New(ctx, reg)

	l := term.Var{ID: 1, Name: "l", Ty: listTy}
	seed := []term.Term{term.App{Fn: "Sum", Args: []term.Term{l}, Ty: term.Int}}

	T, U := e.ExpandLoop(p, seed, 10, 1)
	// The cut is checked once per dequeue, not per emitted branch, so a
	// single split can still push the count one step past the budget —
	// it must never run away further than that.
	require.LessOrEqual(t, len(T)+len(U), 2)
}
