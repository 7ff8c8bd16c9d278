package term

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryDeclareAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareType(&TypeDef{Name: "list", Params: []string{"a"}}))
	require.NoError(t, r.DeclareVariant(&VariantDef{Name: "Nil", TypeName: "list"}))
	require.NoError(t, r.DeclareVariant(&VariantDef{Name: "Cons", TypeName: "list", Fields: []Type{TyVar{ID: 0}, Cons{Name: "list", Args: []Type{TyVar{ID: 0}}}}}))

	v, ok := r.LookupVariant("Cons")
	require.True(t, ok)
	require.Equal(t, "list", v.TypeName)
	require.Equal(t, []string{"Nil", "Cons"}, r.VariantsOf("list"))
}

func TestRegistryRejectsDuplicateVariant(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareType(&TypeDef{Name: "list"}))
	require.NoError(t, r.DeclareVariant(&VariantDef{Name: "Nil", TypeName: "list"}))
	require.Error(t, r.DeclareVariant(&VariantDef{Name: "Nil", TypeName: "list"}))
}

func TestRegistryReinitClears(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareType(&TypeDef{Name: "list"}))
	r.Reinit()
	_, ok := r.LookupType("list")
	require.False(t, ok)
}
