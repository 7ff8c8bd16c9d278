package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/expand"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/term"
)

func sumPMRS(t *testing.T, name string) *pmrs.PMRS {
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	main := pmrs.NTSymbol{ID: 0, Name: name}
	hd := term.Var{ID: 1, Name: "hd", Ty: term.Int}
	tl := term.Var{ID: 2, Name: "tl", Ty: listTy}
	nilRule := pmrs.Rule{ID: 0, NT: main, Pattern: &pmrs.CtorPattern{Ctor: "Nil", Ty: listTy}, RHS: term.IntConst(0)}
	consRule := pmrs.Rule{
		ID: 1, NT: main,
		Pattern: &pmrs.CtorPattern{Ctor: "Cons", Fields: []term.Var{hd, tl}, Ty: listTy},
		RHS:     term.Add(hd, term.App{Fn: name, Args: []term.Term{tl}, Ty: term.Int}),
	}
	p, err := pmrs.New(nil, []pmrs.NTSymbol{main}, main, []pmrs.Rule{nilRule, consRule})
	require.NoError(t, err)
	return p
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

func TestVerifyReturnsCorrectWhenTargetMatchesReference(t *testing.T) {
	ref := sumPMRS(t, "Sum")
	tgt := sumPMRS(t, "Sum") // identical rules: target == reference
	reg := registryWithList(t)
	ctx := ids.New()
	exp := expand.New(ctx, reg)

	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	seed := term.Var{ID: 1000, Name: "l", Ty: listTy}
	seedTerm := term.App{Fn: "Sum", Args: []term.Term{seed}, Ty: term.Int}
	T, _ := exp.ExpandLoop(tgt, []term.Term{seedTerm}, 2, 10)

	res, err := Verify(context.Background(), nil, exp, ref, tgt, T, nil, Config{NumExpansionsCheck: 10, ReduceLimit: 2000})
	require.NoError(t, err)
	require.Equal(t, Correct, res.Kind)
}

func TestVerifyReturnsCounterexamplesWhenTargetDisagrees(t *testing.T) {
	ref := sumPMRS(t, "Sum")
	tgt := sumPMRS(t, "Wrong")
	// Perturb Wrong's Cons rule to double the head, a concrete bug.
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	hd := term.Var{ID: 1, Name: "hd", Ty: term.Int}
	tl := term.Var{ID: 2, Name: "tl", Ty: listTy}
	main := pmrs.NTSymbol{ID: 0, Name: "Wrong"}
	nilRule := pmrs.Rule{ID: 0, NT: main, Pattern: &pmrs.CtorPattern{Ctor: "Nil", Ty: listTy}, RHS: term.IntConst(0)}
	consRule := pmrs.Rule{
		ID: 1, NT: main,
		Pattern: &pmrs.CtorPattern{Ctor: "Cons", Fields: []term.Var{hd, tl}, Ty: listTy},
		RHS:     term.Add(term.Mul(hd, term.IntConst(2)), term.App{Fn: "Wrong", Args: []term.Term{tl}, Ty: term.Int}),
	}
	var err error
	tgt, err = pmrs.New(nil, []pmrs.NTSymbol{main}, main, []pmrs.Rule{nilRule, consRule})
	require.NoError(t, err)

	reg := registryWithList(t)
	ctx := ids.New()
	exp := expand.New(ctx, reg)

	listVal := term.Data{Ctor: "Cons", Args: []term.Term{term.IntConst(1), term.Data{Ctor: "Nil", Ty: listTy}}, Ty: listTy}
	seedTerm := term.App{Fn: "Wrong", Args: []term.Term{listVal}, Ty: term.Int}

	res, err := Verify(context.Background(), nil, exp, ref, tgt, []term.Term{seedTerm}, nil, Config{NumExpansionsCheck: 10, ReduceLimit: 2000})
	require.NoError(t, err)
	require.Equal(t, Ctexs, res.Kind)
	require.NotEmpty(t, res.Ctexes)
}
