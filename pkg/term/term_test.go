package term

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualIsStructuralNotIdentity(t *testing.T) {
	a := Add(IntConst(1), IntConst(2))
	b := Add(IntConst(1), IntConst(2))
	require.True(t, a.Equal(b))
}

func TestFreeVariablesExcludesMatchBoundVars(t *testing.T) {
	h := NewVar(0, "h", Int)
	tl := NewVar(1, "t", Cons{Name: "list", Args: []Type{Int}})
	x := NewVar(2, "x", Int)

	m := Match{
		Scrutinee: x,
		Ty:        Int,
		Cases: []MatchCase{
			{Ctor: "Nil", Vars: nil, Body: IntConst(0)},
			{Ctor: "Cons", Vars: []Var{h, tl}, Body: Add(h, App{Fn: "rec", Args: []Term{tl}, Ty: Int})},
		},
	}

	free := FreeVariables(m)
	require.Len(t, free, 1)
	require.Equal(t, int64(2), free[0].ID)
}

func TestMatchesSubpatternBindsConsistently(t *testing.T) {
	x := NewVar(0, "x", Int)
	pat := Add(x, x) // same pattern var used twice must match the same subterm both times
	good := Add(IntConst(5), IntConst(5))
	bad := Add(IntConst(5), IntConst(6))

	_, ok := MatchesSubpattern(good, pat)
	require.True(t, ok)

	_, ok = MatchesSubpattern(bad, pat)
	require.False(t, ok)
}

func TestSizeCountsNodes(t *testing.T) {
	// 5 (5 > 3) ? 1 : 0  -> Ite + Gt + 2 consts + 1 + 0 = 1 + (1+1+1) + 1 + 1 = 6
	e := Ite{Cond: Gt(IntConst(5), IntConst(3)), Then: IntConst(1), Else: IntConst(0), Ty: Int}
	require.Equal(t, 6, Size(e))
}

func TestSubstApplyRecursesIntoCompoundTerms(t *testing.T) {
	x := NewVar(0, "x", Int)
	s := NewSubst().Bind(x, IntConst(7))
	out := s.Apply(Add(x, IntConst(1)))
	require.Equal(t, Add(IntConst(7), IntConst(1)), out)
}

func TestSubstBindToSelfIsNoop(t *testing.T) {
	x := NewVar(0, "x", Int)
	s := NewSubst()
	s2 := s.Bind(x, x)
	require.Equal(t, 0, s2.Size())
}
