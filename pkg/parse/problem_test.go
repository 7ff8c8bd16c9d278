package parse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/term"
)

func TestLoadProblemComposesIdentityReprAndExtractsHole(t *testing.T) {
	reg := term.NewRegistry()
	ctx := ids.New()

	problem, err := LoadProblem(ctx, reg, ParsePMRS, pmrsListSum, RoleNames{}, "h")
	require.NoError(t, err)
	require.NotNil(t, problem.Ref)
	require.NotNil(t, problem.Target)
	require.Equal(t, "spec", problem.Ref.Main.Name)
	require.Equal(t, "target", problem.Target.Main.Name)
	require.Equal(t, "h", string(problem.Hole.Name))
	require.Equal(t, term.Int, problem.Hole.Ty)
}

func TestLoadProblemHonorsRoleOverrides(t *testing.T) {
	reg := term.NewRegistry()
	ctx := ids.New()

	src := `
type list = Nil | Cons(int, list)

fun reference : int
fun goal : int
hole guess(x: int, y: int): int

rule reference(Nil) -> 0
rule reference(Cons(hd, tl)) -> hd + reference(tl)

rule goal(Nil) -> 0
rule goal(Cons(hd, tl)) -> guess(hd, goal(tl))
`
	problem, err := LoadProblem(ctx, reg, ParsePMRS, src, RoleNames{Target: "goal", Ref: "reference"}, "guess")
	require.NoError(t, err)
	require.Equal(t, "reference", problem.Ref.Main.Name)
	require.Equal(t, "goal", problem.Target.Main.Name)
}

func TestLoadProblemErrorsOnUnknownHole(t *testing.T) {
	reg := term.NewRegistry()
	ctx := ids.New()
	_, err := LoadProblem(ctx, reg, ParsePMRS, pmrsListSum, RoleNames{}, "nope")
	require.Error(t, err)
}

func TestLoadProblemErrorsOnMissingRole(t *testing.T) {
	reg := term.NewRegistry()
	ctx := ids.New()
	_, err := LoadProblem(ctx, reg, ParsePMRS, `
fun spec : int
rule spec(x: int) -> x
`, RoleNames{}, "h")
	require.Error(t, err)
}
