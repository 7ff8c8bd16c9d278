package pmrs

import (
	"fmt"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// Compose builds the single PMRS g = ref ∘ repr used directly as a
// refine.Loop's reference (spec section 3: "the representation
// function's type composes [reference and target]"). repr may be nil,
// which is the cached identity-representation case (spec section 3's
// "an identity-representation flag is cached") — ref is returned as-is
// since there is nothing to compose.
//
// The composite keeps repr's main symbol and every one of its rules'
// patterns unchanged (repr recurses on the same θ-typed scrutinee the
// target does), except each main rule's right-hand side e is rewritten
// to `ref.Main(e)` instead of returning e bare. repr's original main
// rules are kept under a separate non-terminal named `<main>$repr`, and
// every call to repr's main inside repr's rules is redirected to it, so
// repr's own recursion still produces θ-typed values rather than going
// through ref. Every other rule of both inputs (repr's helper
// non-terminals, all of ref's own rules) is carried over; a ref
// non-terminal whose name collides with one of repr's is renamed with a
// `$ref` suffix so Reduce's name-based non-terminal lookup never
// conflates them.
func Compose(ctx *ids.Context, ref, repr *PMRS) (*PMRS, error) {
	if repr == nil {
		return ref, nil
	}
	if len(ref.RulesFor(ref.Main)) == 0 {
		return nil, fmt.Errorf("reference main symbol %q has no rules to compose with", ref.Main.Name)
	}
	outTy := ref.RulesFor(ref.Main)[0].RHS.Type()

	rename := make(map[string]string, len(ref.NonTerminals))
	reprNames := make(map[string]bool, len(repr.NonTerminals))
	for _, nt := range repr.NonTerminals {
		reprNames[nt.Name] = true
	}
	for _, nt := range ref.NonTerminals {
		if reprNames[nt.Name] {
			rename[nt.Name] = nt.Name + "$ref"
		}
	}
	refMainName := renamed(ref.Main.Name, rename)

	inner := NTSymbol{ID: repr.Main.ID, Name: repr.Main.Name + "$repr"}
	for _, nt := range append(append([]NTSymbol(nil), repr.NonTerminals...), ref.NonTerminals...) {
		if nt.ID >= inner.ID {
			inner.ID = nt.ID + 1
		}
	}
	toInner := map[string]string{repr.Main.Name: inner.Name}

	rules := make([]Rule, 0, 2*len(repr.Rules)+len(ref.Rules))
	for _, r := range repr.Rules {
		r.RHS = renameCalls(r.RHS, toInner)
		if r.NT.ID == repr.Main.ID {
			wrapped := r
			wrapped.ID = ctx.FreshRuleID()
			wrapped.RHS = term.App{Fn: refMainName, Args: []term.Term{r.RHS}, Ty: outTy}
			rules = append(rules, wrapped)
			r.NT = inner
		}
		rules = append(rules, r)
	}
	for _, r := range ref.Rules {
		nr := r
		nr.ID = ctx.FreshRuleID()
		nr.NT = NTSymbol{ID: nr.NT.ID, Name: renamed(nr.NT.Name, rename)}
		nr.RHS = renameCalls(r.RHS, rename)
		rules = append(rules, nr)
	}

	nts := make([]NTSymbol, 0, len(repr.NonTerminals)+len(ref.NonTerminals))
	nts = append(nts, repr.NonTerminals...)
	nts = append(nts, inner)
	for _, nt := range ref.NonTerminals {
		nts = append(nts, NTSymbol{ID: nt.ID, Name: renamed(nt.Name, rename)})
	}

	params := append([]term.Var(nil), repr.Params...)
	params = append(params, ref.Params...)

	return New(params, nts, repr.Main, rules)
}

func renamed(name string, rename map[string]string) string {
	if n, ok := rename[name]; ok {
		return n
	}
	return name
}

// renameCalls rewrites every App's function name through rename,
// leaving every other term kind structurally unchanged. Used by Compose
// to keep ref's own recursive calls pointing at its (possibly renamed)
// non-terminals after merging into the composite's rule set.
func renameCalls(t term.Term, rename map[string]string) term.Term {
	switch x := t.(type) {
	case term.App:
		args := make([]term.Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = renameCalls(a, rename)
		}
		return term.App{Fn: renamed(x.Fn, rename), Args: args, Ty: x.Ty}
	case term.Bin:
		return term.Bin{Op: x.Op, L: renameCalls(x.L, rename), R: renameCalls(x.R, rename), Ty: x.Ty}
	case term.Un:
		return term.Un{Op: x.Op, X: renameCalls(x.X, rename), Ty: x.Ty}
	case term.Ite:
		return term.Ite{Cond: renameCalls(x.Cond, rename), Then: renameCalls(x.Then, rename), Else: renameCalls(x.Else, rename), Ty: x.Ty}
	case term.Tup:
		elems := make([]term.Term, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = renameCalls(e, rename)
		}
		return term.Tup{Elems: elems, Ty: x.Ty}
	case term.Data:
		args := make([]term.Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = renameCalls(a, rename)
		}
		return term.Data{Ctor: x.Ctor, Args: args, Ty: x.Ty}
	case term.Match:
		cases := make([]term.MatchCase, len(x.Cases))
		for i, c := range x.Cases {
			cases[i] = term.MatchCase{Ctor: c.Ctor, Vars: c.Vars, Body: renameCalls(c.Body, rename)}
		}
		return term.Match{Scrutinee: renameCalls(x.Scrutinee, rename), Cases: cases, Ty: x.Ty}
	default:
		return t
	}
}
