package pmrs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/pkg/term"
)

func TestReduceSumsAConcreteList(t *testing.T) {
	p := listSum()
	start := term.App{Fn: "Sum", Args: []term.Term{listVal(listType(), 1, 2, 3)}, Ty: term.Int}

	got, complete := Reduce(p, start, 100)
	require.True(t, complete)
	require.Equal(t, term.IntConst(6).String(), got.String())
	require.True(t, got.Equal(term.IntConst(6)))
}

func TestReduceOnEmptyListYieldsZero(t *testing.T) {
	p := listSum()
	start := term.App{Fn: "Sum", Args: []term.Term{listVal(listType())}, Ty: term.Int}

	got, complete := Reduce(p, start, 10)
	require.True(t, complete)
	require.True(t, got.Equal(term.IntConst(0)))
}

func TestReduceReportsIncompleteWhenStepBudgetExhausted(t *testing.T) {
	p := listSum()
	start := term.App{Fn: "Sum", Args: []term.Term{listVal(listType(), 1, 2, 3, 4, 5)}, Ty: term.Int}

	_, complete := Reduce(p, start, 1)
	require.False(t, complete)
}

func TestFuncOfPMRSProjectsEveryRule(t *testing.T) {
	p := listSum()
	funcs := FuncOfPMRS(p)
	require.Len(t, funcs, 2)
	for _, f := range funcs {
		require.Equal(t, "Sum", f.Name)
		require.NotNil(t, f.Guard)
	}
}
