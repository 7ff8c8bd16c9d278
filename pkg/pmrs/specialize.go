package pmrs

import "github.com/rkestrel/synduce-go/pkg/term"

// Specialize returns a PMRS identical to p except every application of
// hole anywhere in a rule's right-hand side is replaced by body with its
// formal parameters bound to the actual arguments at that call site.
// Used by C8 (verify) to check a candidate solution and by C10 (refine)
// to commit an accepted one; hole is dropped from the resulting PMRS's
// Params since it is no longer an unknown once specialized.
func Specialize(p *PMRS, hole string, formalArgs []term.Var, body term.Term) *PMRS {
	rules := make([]Rule, len(p.Rules))
	for i, r := range p.Rules {
		r.RHS = specializeTerm(r.RHS, hole, formalArgs, body)
		rules[i] = r
	}
	params := make([]term.Var, 0, len(p.Params))
	for _, prm := range p.Params {
		if prm.Name != hole {
			params = append(params, prm)
		}
	}
	out := &PMRS{Params: params, NonTerminals: p.NonTerminals, Main: p.Main, Rules: rules}
	_ = out.reindex()
	return out
}

// specializeTerm rewrites every occurrence of hole(actuals...) in t to
// body with formalArgs bound to actuals.
func specializeTerm(t term.Term, hole string, formalArgs []term.Var, body term.Term) term.Term {
	switch x := t.(type) {
	case term.App:
		args := make([]term.Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = specializeTerm(a, hole, formalArgs, body)
		}
		if x.Fn != hole {
			return term.App{Fn: x.Fn, Args: args, Ty: x.Ty}
		}
		sub := term.NewSubst()
		for i, f := range formalArgs {
			if i < len(args) {
				sub = sub.Bind(f, args[i])
			}
		}
		return sub.Apply(body)
	case term.Tup:
		elems := make([]term.Term, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = specializeTerm(e, hole, formalArgs, body)
		}
		return term.Tup{Elems: elems, Ty: x.Ty}
	case term.Bin:
		return term.Bin{Op: x.Op, L: specializeTerm(x.L, hole, formalArgs, body), R: specializeTerm(x.R, hole, formalArgs, body), Ty: x.Ty}
	case term.Un:
		return term.Un{Op: x.Op, X: specializeTerm(x.X, hole, formalArgs, body), Ty: x.Ty}
	case term.Ite:
		return term.Ite{
			Cond: specializeTerm(x.Cond, hole, formalArgs, body),
			Then: specializeTerm(x.Then, hole, formalArgs, body),
			Else: specializeTerm(x.Else, hole, formalArgs, body),
			Ty:   x.Ty,
		}
	case term.Data:
		args := make([]term.Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = specializeTerm(a, hole, formalArgs, body)
		}
		return term.Data{Ctor: x.Ctor, Args: args, Ty: x.Ty}
	case term.Match:
		cases := make([]term.MatchCase, len(x.Cases))
		for i, c := range x.Cases {
			cases[i] = term.MatchCase{Ctor: c.Ctor, Vars: c.Vars, Body: specializeTerm(c.Body, hole, formalArgs, body)}
		}
		return term.Match{Scrutinee: specializeTerm(x.Scrutinee, hole, formalArgs, body), Cases: cases, Ty: x.Ty}
	default:
		return t
	}
}

// SpecializeAll applies Specialize for every hole in candidate, in
// arbitrary map order (holes are independent once solved, so
// application order does not affect the result).
func SpecializeAll(p *PMRS, candidate map[string]HoleSolution) *PMRS {
	out := p
	for name, sol := range candidate {
		out = Specialize(out, name, sol.Args, sol.Body)
	}
	return out
}

// HoleSolution is a solved hole's formal signature and body, the common
// shape C6, C7, and C10 all need to pass a candidate solution around.
type HoleSolution struct {
	Args []term.Var
	Body term.Term
}
