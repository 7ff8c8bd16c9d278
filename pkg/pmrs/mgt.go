package pmrs

import (
	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// MostGeneralTerms computes, for each rule of p's main symbol, the most
// general term at main's input: main applied to fresh variables for
// every ordinary parameter, and to a fresh constructor application (one
// fresh variable per field) standing in for the pattern-matched
// recursion argument. Spec section 4.2: "the resulting term family
// covers every potentially-exercised control path of the skeleton."
//
// Results are not memoized: every call recomputes the terms and mints
// fresh variables. Only main's own rules are used, one term per rule;
// the `visiting` set guards against re-entering a non-terminal while it
// is being expanded.
func MostGeneralTerms(ctx *ids.Context, p *PMRS) []term.Term {
	return mostGeneralTermsFor(ctx, p, p.Main, make(map[int64]bool))
}

func mostGeneralTermsFor(ctx *ids.Context, p *PMRS, nt NTSymbol, visiting map[int64]bool) []term.Term {
	if visiting[nt.ID] {
		return nil // recursion guard: a cycle through this non-terminal is covered elsewhere
	}
	visiting[nt.ID] = true
	defer delete(visiting, nt.ID)

	var out []term.Term
	for _, r := range p.RulesFor(nt) {
		args := make([]term.Term, 0, r.Arity())
		for _, param := range r.Params {
			args = append(args, freshLike(ctx, param))
		}
		if r.Pattern != nil {
			fields := make([]term.Term, len(r.Pattern.Fields))
			for i, f := range r.Pattern.Fields {
				fields[i] = freshLike(ctx, f)
			}
			args = append(args, term.Data{Ctor: r.Pattern.Ctor, Args: fields, Ty: r.Pattern.Ty})
		}
		out = append(out, term.App{Fn: nt.Name, Args: args, Ty: r.RHS.Type()})
	}
	return out
}

func freshLike(ctx *ids.Context, v term.Var) term.Term {
	id := ctx.FreshScalar()
	return term.Var{ID: id, Name: v.Name, Ty: v.Ty}
}
