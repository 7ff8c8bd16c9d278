// Package deduce implements the solver-free functional-equation solving
// of spec section 4.7: given an equation lhs = hole(a1,...,an), try to
// rewrite lhs into a composition of the bound arguments a1..an (and,
// failing that, a partial skeleton usable as a grammar guess) without
// ever invoking the external SyGuS solver.
//
// Grounded on pkg/term's MatchesSubpattern/structural-subterm search
// (ops.go): the deduction loop's "find a subexpression of E equal to
// bound argument a" step is the same preorder structural search, here
// used to substitute rather than merely witness a match.
package deduce

import (
	"context"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/equations"
	"github.com/rkestrel/synduce-go/pkg/solvers"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// ResultKind discriminates the three outcomes of spec section 4.7.
type ResultKind int

const (
	// ResultFirst is a solved closed-form hole implementation.
	ResultFirst ResultKind = iota
	// ResultSecond is a partial shape usable as a grammar guess.
	ResultSecond
	// ResultThird means give up; fall through to C6.
	ResultThird
)

// Result is the outcome of one Deduce call.
type Result struct {
	Kind     ResultKind
	Name     string
	Args     []term.Var
	Body     term.Term
	Skeleton term.Term
}

// stepLimit bounds the deduction loop's iterations (spec section 4.7:
// "iterates up to 20 steps").
const stepLimit = 20

// cheapOccamLimit rejects any guess whose expression size exceeds this
// (spec section 4.7, "Cheap Occam").
const cheapOccamLimit = 15

// Deduce attempts to solve hole's implementation directly from eqs,
// without invoking an external solver. smt is optional; when non-nil it
// is used to cross-validate candidates drawn from different equations
// that do not agree pointwise by plain structural equality.
func Deduce(ctx context.Context, ids *ids.Context, smt solvers.SMTPort, eqs []equations.Equation, hole sygus.Hole, args []term.Var) Result {
	var candidates []term.Term
	var bestSkeleton term.Term

	for _, eq := range eqs {
		e, holeArgs, ok := isolateHoleEquation(eq, string(hole))
		if !ok {
			continue
		}
		body, solved := deduceOne(e, holeArgs)
		if solved {
			if term.Size(body) > cheapOccamLimit {
				continue
			}
			candidates = append(candidates, body)
			continue
		}
		if bestSkeleton == nil {
			bestSkeleton = body
		}
	}

	if len(candidates) == 0 {
		if bestSkeleton != nil {
			return Result{Kind: ResultSecond, Skeleton: bestSkeleton}
		}
		return Result{Kind: ResultThird}
	}

	agreed := candidates[0]
	for _, c := range candidates[1:] {
		if c.Equal(agreed) {
			continue
		}
		if !crossValidate(ctx, smt, agreed, c, args) {
			return Result{Kind: ResultThird}
		}
	}
	// Replace each positional box with its formal parameter variable so
	// the returned body reads exactly like a SyGuS-synthesized body
	// (named vars, no Box placeholders) and can be substituted into a
	// call site the same way regardless of origin.
	return Result{Kind: ResultFirst, Name: string(hole), Args: args, Body: boxesToVars(agreed, args)}
}

// boxesToVars rewrites every positional Box in t into the corresponding
// formal parameter variable.
func boxesToVars(t term.Term, args []term.Var) term.Term {
	if b, ok := t.(term.Box); ok && b.Kind == term.BoxPositional && int(b.ID) < len(args) {
		return args[b.ID]
	}
	switch x := t.(type) {
	case term.Tup:
		elems := make([]term.Term, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = boxesToVars(e, args)
		}
		return term.Tup{Elems: elems, Ty: x.Ty}
	case term.Bin:
		return term.Bin{Op: x.Op, L: boxesToVars(x.L, args), R: boxesToVars(x.R, args), Ty: x.Ty}
	case term.Un:
		return term.Un{Op: x.Op, X: boxesToVars(x.X, args), Ty: x.Ty}
	case term.Ite:
		return term.Ite{Cond: boxesToVars(x.Cond, args), Then: boxesToVars(x.Then, args), Else: boxesToVars(x.Else, args), Ty: x.Ty}
	case term.App:
		as := make([]term.Term, len(x.Args))
		for i, a := range x.Args {
			as[i] = boxesToVars(a, args)
		}
		return term.App{Fn: x.Fn, Args: as, Ty: x.Ty}
	case term.Data:
		as := make([]term.Term, len(x.Args))
		for i, a := range x.Args {
			as[i] = boxesToVars(a, args)
		}
		return term.Data{Ctor: x.Ctor, Args: as, Ty: x.Ty}
	default:
		return t
	}
}

// isolateHoleEquation checks whether one side of eq is a bare
// application of hole; if so it returns the other side (E) and the
// hole's actual arguments at this call site.
func isolateHoleEquation(eq equations.Equation, hole string) (e term.Term, args []term.Term, ok bool) {
	if app, isApp := eq.RHS.(term.App); isApp && app.Fn == hole {
		return eq.LHS, app.Args, true
	}
	if app, isApp := eq.LHS.(term.App); isApp && app.Fn == hole {
		return eq.RHS, app.Args, true
	}
	return nil, nil, false
}

// deduceOne runs the boxing state machine of spec section 4.7 on a
// single equation's E against holeArgs (the actual expressions bound to
// the hole's formal positions at this call site). It returns the
// boxed template (with positional boxes standing for the formals) and
// whether every boxable position was consumed (a full solution) or the
// process stalled with at least one box placed (a partial skeleton).
func deduceOne(e term.Term, holeArgs []term.Term) (term.Term, bool) {
	cur := e
	boxedAny := false
	for step := 0; step < stepLimit; step++ {
		progressed := false
		for i, a := range holeArgs {
			box := term.Box{ID: int64(i), Kind: term.BoxPositional, Ty: a.Type()}
			if next, found := findAndBox(cur, a, box); found {
				cur = next
				boxedAny = true
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return cur, boxedAny && isFunctionOfBoxes(cur)
}

// findAndBox replaces the first preorder occurrence of a subterm
// structurally equal to target with box, reporting whether one was found.
func findAndBox(t, target, box term.Term) (term.Term, bool) {
	if t.Equal(target) {
		return box, true
	}
	switch x := t.(type) {
	case term.Tup:
		elems := append([]term.Term(nil), x.Elems...)
		for i, e := range elems {
			if next, ok := findAndBox(e, target, box); ok {
				elems[i] = next
				return term.Tup{Elems: elems, Ty: x.Ty}, true
			}
		}
	case term.Bin:
		if next, ok := findAndBox(x.L, target, box); ok {
			return term.Bin{Op: x.Op, L: next, R: x.R, Ty: x.Ty}, true
		}
		if next, ok := findAndBox(x.R, target, box); ok {
			return term.Bin{Op: x.Op, L: x.L, R: next, Ty: x.Ty}, true
		}
	case term.Un:
		if next, ok := findAndBox(x.X, target, box); ok {
			return term.Un{Op: x.Op, X: next, Ty: x.Ty}, true
		}
	case term.Ite:
		if next, ok := findAndBox(x.Cond, target, box); ok {
			return term.Ite{Cond: next, Then: x.Then, Else: x.Else, Ty: x.Ty}, true
		}
		if next, ok := findAndBox(x.Then, target, box); ok {
			return term.Ite{Cond: x.Cond, Then: next, Else: x.Else, Ty: x.Ty}, true
		}
		if next, ok := findAndBox(x.Else, target, box); ok {
			return term.Ite{Cond: x.Cond, Then: x.Then, Else: next, Ty: x.Ty}, true
		}
	case term.App:
		args := append([]term.Term(nil), x.Args...)
		for i, a := range args {
			if next, ok := findAndBox(a, target, box); ok {
				args[i] = next
				return term.App{Fn: x.Fn, Args: args, Ty: x.Ty}, true
			}
		}
	case term.Data:
		args := append([]term.Term(nil), x.Args...)
		for i, a := range args {
			if next, ok := findAndBox(a, target, box); ok {
				args[i] = next
				return term.Data{Ctor: x.Ctor, Args: args, Ty: x.Ty}, true
			}
		}
	}
	return t, false
}

// isFunctionOfBoxes reports whether t contains no remaining free
// variables outside of boxes and constants — i.e. it is now purely a
// function of the boxed positions.
func isFunctionOfBoxes(t term.Term) bool {
	return len(term.FreeVariables(t)) == 0
}

// crossValidate asks the SMT port whether a and b (the two candidate
// bodies, applied to the same formal args) can ever disagree; absence of
// a port is treated as "cannot validate", which is conservative (not
// cross-validated => reject per spec section 4.7).
func crossValidate(ctx context.Context, smt solvers.SMTPort, a, b term.Term, args []term.Var) bool {
	if smt == nil {
		return false
	}
	neq := fmtNotEqual(a, b)
	res, err := smt.CheckSat(ctx, solvers.SMTCheck{Asserts: []string{neq}, Vars: args})
	if err != nil {
		return false
	}
	return res == solvers.SatUnsat
}

func fmtNotEqual(a, b term.Term) string {
	return "(not (= " + sygus.ToSMT(a) + " " + sygus.ToSMT(b) + "))"
}
