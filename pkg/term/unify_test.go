package term

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnifyOneBindsTypeVariable(t *testing.T) {
	a := TyVar{ID: 0}
	b := Base{Kind: TInt}
	sub, err := UnifyOne(NewTySubst(), a, b)
	require.NoError(t, err)
	require.True(t, sub.Apply(a).Equal(b))
}

func TestUnifyOneDetectsOccursCheck(t *testing.T) {
	a := TyVar{ID: 0}
	b := Fun{Dom: a, Cod: Base{Kind: TBool}}
	_, err := UnifyOne(NewTySubst(), a, b)
	require.Error(t, err)
	require.True(t, IsOccursCheckFailure(err))
}

func TestUnifyOneDetectsMismatch(t *testing.T) {
	_, err := UnifyOne(NewTySubst(), Base{Kind: TInt}, Base{Kind: TBool})
	require.Error(t, err)
	require.False(t, IsOccursCheckFailure(err))
}

func TestUnifySolvesChainOfEquations(t *testing.T) {
	tv0, tv1 := TyVar{ID: 0}, TyVar{ID: 1}
	sub, err := Unify([]TypeEq{
		{LHS: tv0, RHS: tv1},
		{LHS: tv1, RHS: Base{Kind: TInt}},
	})
	require.NoError(t, err)
	require.True(t, sub.Apply(tv0).Equal(Base{Kind: TInt}))
}

// Soundness property (spec section 8): applying the returned substitution
// to every equation yields syntactically equal pairs.
func TestUnifySoundness(t *testing.T) {
	eqs := []TypeEq{
		{LHS: Cons{Name: "list", Args: []Type{TyVar{ID: 0}}}, RHS: Cons{Name: "list", Args: []Type{Base{Kind: TInt}}}},
		{LHS: Fun{Dom: TyVar{ID: 1}, Cod: TyVar{ID: 0}}, RHS: Fun{Dom: Base{Kind: TBool}, Cod: Base{Kind: TInt}}},
	}
	sub, err := Unify(eqs)
	require.NoError(t, err)
	for _, eq := range eqs {
		require.True(t, sub.Apply(eq.LHS).Equal(sub.Apply(eq.RHS)))
	}
}
