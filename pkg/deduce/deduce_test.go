package deduce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/equations"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/term"
)

func TestDeduceSolvesIdentityProjection(t *testing.T) {
	x := term.Var{ID: 1, Name: "x", Ty: term.Int}
	y := term.Var{ID: 2, Name: "y", Ty: term.Int}
	// lhs = x + 1, hole(x, y) applied with actual args (x, y): boxing
	// x finds the literal occurrence of x inside (x + 1), y never
	// appears, but the result contains no leftover free vars once
	// boxed, so it must succeed with a single-box template.
	eq := equations.Equation{LHS: term.Add(x, term.IntConst(1)), RHS: term.App{Fn: "h", Args: []term.Term{x, y}, Ty: term.Int}}

	ctx := ids.New()
	res := Deduce(context.Background(), ctx, nil, []equations.Equation{eq}, sygus.Hole("h"), []term.Var{x, y})
	require.Equal(t, ResultFirst, res.Kind)
	bin, ok := res.Body.(term.Bin)
	require.True(t, ok)
	gotVar, ok := bin.L.(term.Var)
	require.True(t, ok)
	require.Equal(t, x.ID, gotVar.ID)
}

func TestDeduceReturnsThirdWhenNoEquationIsolatesTheHole(t *testing.T) {
	x := term.Var{ID: 1, Name: "x", Ty: term.Int}
	eq := equations.Equation{LHS: x, RHS: term.IntConst(1)}
	ctx := ids.New()
	res := Deduce(context.Background(), ctx, nil, []equations.Equation{eq}, sygus.Hole("h"), []term.Var{x})
	require.Equal(t, ResultThird, res.Kind)
}

func TestDeduceReturnsSecondForAPartialSkeleton(t *testing.T) {
	x := term.Var{ID: 1, Name: "x", Ty: term.Int}
	y := term.Var{ID: 2, Name: "y", Ty: term.Int}
	z := term.Var{ID: 3, Name: "z", Ty: term.Int} // never appears in lhs nor args
	eq := equations.Equation{LHS: term.Add(x, z), RHS: term.App{Fn: "h", Args: []term.Term{x, y}, Ty: term.Int}}

	ctx := ids.New()
	res := Deduce(context.Background(), ctx, nil, []equations.Equation{eq}, sygus.Hole("h"), []term.Var{x, y})
	require.Equal(t, ResultSecond, res.Kind)
	require.NotNil(t, res.Skeleton)
}

func TestDeduceRejectsDisagreeingCandidatesWithNoSMTPort(t *testing.T) {
	x := term.Var{ID: 1, Name: "x", Ty: term.Int}
	eq1 := equations.Equation{LHS: x, RHS: term.App{Fn: "h", Args: []term.Term{x}, Ty: term.Int}}
	eq2 := equations.Equation{LHS: term.Add(x, term.IntConst(1)), RHS: term.App{Fn: "h", Args: []term.Term{x}, Ty: term.Int}}

	ctx := ids.New()
	res := Deduce(context.Background(), ctx, nil, []equations.Equation{eq1, eq2}, sygus.Hole("h"), []term.Var{x})
	require.Equal(t, ResultThird, res.Kind)
}
