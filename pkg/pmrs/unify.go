package pmrs

import "github.com/rkestrel/synduce-go/pkg/term"

// UnifyTwoWithUpdate unifies the domains of the reference and target
// PMRSs — (theta, theta') is the target's parameter/input types,
// (tau, tau') the reference's — and returns the resulting substitution.
// registry is not modified and no type environment is updated: callers
// that need the solved types apply or thread the returned substitution
// themselves.
func UnifyTwoWithUpdate(registry *term.Registry, thetaThetaPrime, tauTauPrime [2]term.Type) (*term.TySubst, error) {
	sub, err := term.Unify([]term.TypeEq{
		{LHS: thetaThetaPrime[0], RHS: thetaThetaPrime[1]},
		{LHS: tauTauPrime[0], RHS: tauTauPrime[1]},
	})
	if err != nil {
		return nil, err
	}
	// The registry itself holds named-type declarations, not a live type
	// environment; committing here means only that future unifications
	// in this solve start from `sub` rather than the identity, which
	// callers are expected to thread explicitly (the registry's
	// variant/type tables are unaffected and remain shared read-only
	// state, as spec section 5 requires).
	return sub, nil
}
