// Package equations builds the verification-condition equations that
// drive SyGuS synthesis: for each maximally-reducible term t, reduce it
// under both the reference and target PMRS, then eliminate matching
// recursive calls on the same sub-variable into a single fresh scalar
// variable shared by both sides, so a downstream SMT/SyGuS solver never
// sees an uninterpreted recursive application.
//
// Grounded on the datalog-style solver bookkeeping of
// biscuit-auth-biscuit-go's datalog/solver.go: substituting a fact's
// bound arguments before comparing two rule bodies for unification is
// the same shape as substituting a recursive call's argument before
// comparing an equation's two sides.
package equations

import (
	"fmt"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// reduceLimit bounds the Reduce call Build makes for each term; hitting
// it marks the equation impure (spec section 8, "Equation purity").
const reduceLimit = 2000

// Equation is one verification condition: lhs and rhs must be proven
// equal (under pre, if present) for the candidate to be correct.
type Equation struct {
	Term term.Term
	Pre  *term.Term
	LHS  term.Term
	RHS  term.Term
}

// Diagnostic explains why a term from T did not yield an equation.
type Diagnostic struct {
	Term   term.Term
	Reason string
}

// Build constructs one equation per term of T (more after detupling),
// dropping and diagnosing any term whose reduction does not terminate
// within the bound or whose recursive calls cannot be eliminated onto a
// bare sub-variable.
func Build(ctx *ids.Context, refPMRS, tgtPMRS *pmrs.PMRS, T []term.Term, detuple bool) ([]Equation, []Diagnostic) {
	var eqs []Equation
	var diags []Diagnostic

	for _, t := range T {
		app, ok := t.(term.App)
		if !ok {
			diags = append(diags, Diagnostic{Term: t, Reason: "term is not headed by a main-symbol application"})
			continue
		}
		// t is headed by one PMRS's main symbol (typically the target
		// skeleton's, since T comes from expanding the target); rebuild the
		// same argument application under each PMRS's own main-symbol name
		// so both sides are evaluated over the identical input.
		lhsApp := term.App{Fn: refPMRS.Main.Name, Args: app.Args, Ty: app.Ty}
		rhsApp := term.App{Fn: tgtPMRS.Main.Name, Args: app.Args, Ty: app.Ty}

		lhs0, lhsOK := pmrs.Reduce(refPMRS, lhsApp, reduceLimit)
		rhs0, rhsOK := pmrs.Reduce(tgtPMRS, rhsApp, reduceLimit)
		if !lhsOK || !rhsOK {
			diags = append(diags, Diagnostic{Term: t, Reason: "reduction did not terminate within the step bound"})
			continue
		}

		mapping := make(map[int64]term.Var)
		lhs := eliminateRecursion(refPMRS.Main.Name, tgtPMRS.Main.Name, lhs0, mapping, ctx)
		rhs := eliminateRecursion(refPMRS.Main.Name, tgtPMRS.Main.Name, rhs0, mapping, ctx)

		if containsMainApplication(refPMRS.Main.Name, tgtPMRS.Main.Name, lhs) ||
			containsMainApplication(refPMRS.Main.Name, tgtPMRS.Main.Name, rhs) {
			diags = append(diags, Diagnostic{Term: t, Reason: "recursive call survived elimination (not on a bare sub-variable)"})
			continue
		}

		if detuple {
			split, ok := detupleEquation(t, lhs, rhs)
			if ok {
				eqs = append(eqs, split...)
				continue
			}
		}
		eqs = append(eqs, Equation{Term: t, LHS: lhs, RHS: rhs})
	}
	return eqs, diags
}

// detupleEquation splits an equation whose two sides are literal tuples
// of equal arity into one equation per component.
func detupleEquation(t, lhs, rhs term.Term) ([]Equation, bool) {
	lt, ok := lhs.(term.Tup)
	if !ok {
		return nil, false
	}
	rt, ok := rhs.(term.Tup)
	if !ok || len(rt.Elems) != len(lt.Elems) {
		return nil, false
	}
	out := make([]Equation, len(lt.Elems))
	for i := range lt.Elems {
		out[i] = Equation{Term: t, LHS: lt.Elems[i], RHS: rt.Elems[i]}
	}
	return out, true
}

// eliminateRecursion rewrites every application of refMain or tgtMain to
// a bare variable into a fresh scalar variable, reusing the same fresh
// variable for repeated occurrences of the same argument variable (the
// "identically substituted on both sides" requirement of spec section
// 4.4) via the shared mapping.
func eliminateRecursion(refMain, tgtMain string, t term.Term, mapping map[int64]term.Var, ctx *ids.Context) term.Term {
	if app, ok := t.(term.App); ok && (app.Fn == refMain || app.Fn == tgtMain) && len(app.Args) == 1 {
		if v, isVar := app.Args[0].(term.Var); isVar {
			if fresh, seen := mapping[v.ID]; seen {
				return fresh
			}
			id := ctx.FreshScalar()
			fresh := term.Var{ID: id, Name: fmt.Sprintf("s%d", id), Ty: app.Ty}
			mapping[v.ID] = fresh
			return fresh
		}
	}

	switch x := t.(type) {
	case term.Tup:
		elems := make([]term.Term, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = eliminateRecursion(refMain, tgtMain, e, mapping, ctx)
		}
		return term.Tup{Elems: elems, Ty: x.Ty}
	case term.Bin:
		return term.Bin{Op: x.Op, L: eliminateRecursion(refMain, tgtMain, x.L, mapping, ctx), R: eliminateRecursion(refMain, tgtMain, x.R, mapping, ctx), Ty: x.Ty}
	case term.Un:
		return term.Un{Op: x.Op, X: eliminateRecursion(refMain, tgtMain, x.X, mapping, ctx), Ty: x.Ty}
	case term.Ite:
		return term.Ite{
			Cond: eliminateRecursion(refMain, tgtMain, x.Cond, mapping, ctx),
			Then: eliminateRecursion(refMain, tgtMain, x.Then, mapping, ctx),
			Else: eliminateRecursion(refMain, tgtMain, x.Else, mapping, ctx),
			Ty:   x.Ty,
		}
	case term.App:
		args := make([]term.Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = eliminateRecursion(refMain, tgtMain, a, mapping, ctx)
		}
		return term.App{Fn: x.Fn, Args: args, Ty: x.Ty}
	case term.Data:
		args := make([]term.Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = eliminateRecursion(refMain, tgtMain, a, mapping, ctx)
		}
		return term.Data{Ctor: x.Ctor, Args: args, Ty: x.Ty}
	case term.Match:
		cases := make([]term.MatchCase, len(x.Cases))
		for i, c := range x.Cases {
			cases[i] = term.MatchCase{Ctor: c.Ctor, Vars: c.Vars, Body: eliminateRecursion(refMain, tgtMain, c.Body, mapping, ctx)}
		}
		return term.Match{Scrutinee: eliminateRecursion(refMain, tgtMain, x.Scrutinee, mapping, ctx), Cases: cases, Ty: x.Ty}
	default:
		return t
	}
}

// containsMainApplication reports whether t still applies refMain or
// tgtMain anywhere, the purity condition equations must satisfy.
func containsMainApplication(refMain, tgtMain string, t term.Term) bool {
	switch x := t.(type) {
	case term.App:
		if x.Fn == refMain || x.Fn == tgtMain {
			return true
		}
		for _, a := range x.Args {
			if containsMainApplication(refMain, tgtMain, a) {
				return true
			}
		}
	case term.Tup:
		for _, e := range x.Elems {
			if containsMainApplication(refMain, tgtMain, e) {
				return true
			}
		}
	case term.Bin:
		return containsMainApplication(refMain, tgtMain, x.L) || containsMainApplication(refMain, tgtMain, x.R)
	case term.Un:
		return containsMainApplication(refMain, tgtMain, x.X)
	case term.Ite:
		return containsMainApplication(refMain, tgtMain, x.Cond) || containsMainApplication(refMain, tgtMain, x.Then) || containsMainApplication(refMain, tgtMain, x.Else)
	case term.Data:
		for _, a := range x.Args {
			if containsMainApplication(refMain, tgtMain, a) {
				return true
			}
		}
	case term.Match:
		if containsMainApplication(refMain, tgtMain, x.Scrutinee) {
			return true
		}
		for _, c := range x.Cases {
			if containsMainApplication(refMain, tgtMain, c.Body) {
				return true
			}
		}
	}
	return false
}
