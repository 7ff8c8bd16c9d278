package pmrs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/pkg/term"
)

func TestUnifyTwoWithUpdateSolvesBothDomainPairs(t *testing.T) {
	reg := term.NewRegistry()
	a, b := term.TyVar{ID: 0}, term.Int
	c, d := term.TyVar{ID: 1}, term.Bool

	sub, err := UnifyTwoWithUpdate(reg, [2]term.Type{a, b}, [2]term.Type{c, d})
	require.NoError(t, err)
	require.True(t, sub.Apply(a).Equal(term.Int))
	require.True(t, sub.Apply(c).Equal(term.Bool))
}

func TestUnifyTwoWithUpdateRejectsMismatch(t *testing.T) {
	reg := term.NewRegistry()
	_, err := UnifyTwoWithUpdate(reg, [2]term.Type{term.Int, term.Bool}, [2]term.Type{term.Int, term.Int})
	require.Error(t, err)
}
