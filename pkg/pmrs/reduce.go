package pmrs

import "github.com/rkestrel/synduce-go/pkg/term"

// Reduce rewrites t by outermost-leftmost application of p's rules, up
// to limit rewrite steps. The bool result is false iff the step budget
// was exhausted before reaching a normal form — callers (equation
// building, verification) must treat that as an incomplete reduction
// (a resource error), never as a final answer.
//
// Grounded on the teacher's core.go Substitution.Walk chase combined
// with search.go's iterative bounded exploration: here the "frontier" is
// a single term rewritten in place rather than a backtracking search
// tree, since PMRS reduction is confluent under the bound (spec section
// 8, "reduction confluence (bounded)").
func Reduce(p *PMRS, t term.Term, limit int) (term.Term, bool) {
	cur := t
	steps := 0
	for steps < limit {
		next, rewrote := stepOutermostLeftmost(p, cur)
		if !rewrote {
			return next, true
		}
		cur = next
		steps++
	}
	// One more check: maybe the term happened to already be in normal
	// form exactly at the budget boundary.
	if _, rewrote := stepOutermostLeftmost(p, cur); !rewrote {
		return cur, true
	}
	return cur, false
}

// stepOutermostLeftmost performs a single rewrite step if one is
// available anywhere in t, preferring the outermost, then leftmost,
// redex. It returns (t, false) if t is already in normal form.
func stepOutermostLeftmost(p *PMRS, t term.Term) (term.Term, bool) {
	if app, ok := t.(term.App); ok {
		if nt, isNT := p.NTByName(app.Fn); isNT {
			if rewritten, ok := tryApplyRules(p, nt, app.Args); ok {
				return rewritten, true
			}
			// Scrutinee (if any) might not yet be in constructor form;
			// reduce the last argument one step and retry.
			if n := len(app.Args); n > 0 {
				last, changed := stepOutermostLeftmost(p, app.Args[n-1])
				if changed {
					newArgs := append([]term.Term(nil), app.Args...)
					newArgs[n-1] = last
					return term.App{Fn: app.Fn, Args: newArgs, Ty: app.Ty}, true
				}
			}
		}
	}
	return descendOneStep(p, t)
}

// tryApplyRules looks for a rule of nt whose pattern matches args, and
// if found returns the substituted right-hand side.
func tryApplyRules(p *PMRS, nt NTSymbol, args []term.Term) (term.Term, bool) {
	for _, r := range p.RulesFor(nt) {
		if r.Arity() != len(args) {
			continue
		}
		sub := term.NewSubst()
		for i, param := range r.Params {
			sub = sub.Bind(param, args[i])
		}
		if r.Pattern == nil {
			return sub.Apply(r.RHS), true
		}
		scrutinee := args[len(args)-1]
		data, ok := scrutinee.(term.Data)
		if !ok || data.Ctor != r.Pattern.Ctor {
			continue
		}
		if len(data.Args) != len(r.Pattern.Fields) {
			continue
		}
		for i, field := range r.Pattern.Fields {
			sub = sub.Bind(field, data.Args[i])
		}
		return sub.Apply(r.RHS), true
	}
	return nil, false
}

// descendOneStep tries to rewrite the leftmost child of t that contains
// a redex, returning the reconstructed parent.
func descendOneStep(p *PMRS, t term.Term) (term.Term, bool) {
	switch x := t.(type) {
	case term.Tup:
		for i, e := range x.Elems {
			if next, ok := stepOutermostLeftmost(p, e); ok {
				elems := append([]term.Term(nil), x.Elems...)
				elems[i] = next
				return term.Tup{Elems: elems, Ty: x.Ty}, true
			}
		}
	case term.Bin:
		if next, ok := stepOutermostLeftmost(p, x.L); ok {
			return term.Bin{Op: x.Op, L: next, R: x.R, Ty: x.Ty}, true
		}
		if next, ok := stepOutermostLeftmost(p, x.R); ok {
			return term.Bin{Op: x.Op, L: x.L, R: next, Ty: x.Ty}, true
		}
		if folded, ok := foldBin(x); ok {
			return folded, true
		}
	case term.Un:
		if next, ok := stepOutermostLeftmost(p, x.X); ok {
			return term.Un{Op: x.Op, X: next, Ty: x.Ty}, true
		}
		if folded, ok := foldUn(x); ok {
			return folded, true
		}
	case term.Ite:
		if next, ok := stepOutermostLeftmost(p, x.Cond); ok {
			return term.Ite{Cond: next, Then: x.Then, Else: x.Else, Ty: x.Ty}, true
		}
		if bc, ok := x.Cond.(term.Const); ok {
			if b, isBool := bc.Value.(bool); isBool {
				if b {
					return x.Then, true
				}
				return x.Else, true
			}
		}
		if next, ok := stepOutermostLeftmost(p, x.Then); ok {
			return term.Ite{Cond: x.Cond, Then: next, Else: x.Else, Ty: x.Ty}, true
		}
		if next, ok := stepOutermostLeftmost(p, x.Else); ok {
			return term.Ite{Cond: x.Cond, Then: x.Then, Else: next, Ty: x.Ty}, true
		}
	case term.App:
		for i, a := range x.Args {
			if next, ok := stepOutermostLeftmost(p, a); ok {
				args := append([]term.Term(nil), x.Args...)
				args[i] = next
				return term.App{Fn: x.Fn, Args: args, Ty: x.Ty}, true
			}
		}
	case term.Data:
		for i, a := range x.Args {
			if next, ok := stepOutermostLeftmost(p, a); ok {
				args := append([]term.Term(nil), x.Args...)
				args[i] = next
				return term.Data{Ctor: x.Ctor, Args: args, Ty: x.Ty}, true
			}
		}
	case term.Match:
		if next, ok := stepOutermostLeftmost(p, x.Scrutinee); ok {
			return term.Match{Scrutinee: next, Cases: x.Cases, Ty: x.Ty}, true
		}
		if data, ok := x.Scrutinee.(term.Data); ok {
			for _, c := range x.Cases {
				if c.Ctor == data.Ctor && len(c.Vars) == len(data.Args) {
					sub := term.NewSubst()
					for i, v := range c.Vars {
						sub = sub.Bind(v, data.Args[i])
					}
					return sub.Apply(c.Body), true
				}
			}
		}
	}
	return t, false
}

// FirstOrderFunc is the projection of one PMRS rule to an ordinary
// function: a plain (name, params, guard, body) view with no
// PMRS-specific structure.
type FirstOrderFunc struct {
	Name    string
	Params  []term.Var
	Guard   *CtorPattern // nil if the rule is unconditional
	Body    term.Term
}

// FuncOfPMRS projects every rule of p to its FirstOrderFunc view.
func FuncOfPMRS(p *PMRS) []FirstOrderFunc {
	out := make([]FirstOrderFunc, 0, len(p.Rules))
	for _, r := range p.Rules {
		params := append([]term.Var(nil), r.Params...)
		if r.Pattern != nil {
			params = append(params, r.Pattern.Fields...)
		}
		out = append(out, FirstOrderFunc{
			Name:   r.NT.Name,
			Params: params,
			Guard:  r.Pattern,
			Body:   r.RHS,
		})
	}
	return out
}

// foldBin evaluates a binary operator applied to two literal operands,
// the concrete arithmetic a counterexample-driven verifier (C8) needs to
// actually run the reference and target functions rather than leave
// their results as symbolic expressions.
func foldBin(b term.Bin) (term.Term, bool) {
	lc, ok := b.L.(term.Const)
	if !ok {
		return nil, false
	}
	rc, ok := b.R.(term.Const)
	if !ok {
		return nil, false
	}
	switch b.Op {
	case term.OpAdd, term.OpSub, term.OpMul, term.OpDiv, term.OpMod, term.OpMin, term.OpMax:
		li, lok := lc.Value.(int)
		ri, rok := rc.Value.(int)
		if !lok || !rok {
			return nil, false
		}
		switch b.Op {
		case term.OpAdd:
			return term.Const{Value: li + ri, Ty: b.Ty}, true
		case term.OpSub:
			return term.Const{Value: li - ri, Ty: b.Ty}, true
		case term.OpMul:
			return term.Const{Value: li * ri, Ty: b.Ty}, true
		case term.OpDiv:
			if ri == 0 {
				return nil, false
			}
			return term.Const{Value: li / ri, Ty: b.Ty}, true
		case term.OpMod:
			if ri == 0 {
				return nil, false
			}
			return term.Const{Value: li % ri, Ty: b.Ty}, true
		case term.OpMin:
			if li < ri {
				return term.Const{Value: li, Ty: b.Ty}, true
			}
			return term.Const{Value: ri, Ty: b.Ty}, true
		case term.OpMax:
			if li > ri {
				return term.Const{Value: li, Ty: b.Ty}, true
			}
			return term.Const{Value: ri, Ty: b.Ty}, true
		}
	case term.OpEq, term.OpNeq, term.OpLt, term.OpLe, term.OpGt, term.OpGe:
		li, lok := lc.Value.(int)
		ri, rok := rc.Value.(int)
		if !lok || !rok {
			return nil, false
		}
		var res bool
		switch b.Op {
		case term.OpEq:
			res = li == ri
		case term.OpNeq:
			res = li != ri
		case term.OpLt:
			res = li < ri
		case term.OpLe:
			res = li <= ri
		case term.OpGt:
			res = li > ri
		case term.OpGe:
			res = li >= ri
		}
		return term.Const{Value: res, Ty: b.Ty}, true
	case term.OpAnd, term.OpOr:
		lb, lok := lc.Value.(bool)
		rb, rok := rc.Value.(bool)
		if !lok || !rok {
			return nil, false
		}
		if b.Op == term.OpAnd {
			return term.Const{Value: lb && rb, Ty: b.Ty}, true
		}
		return term.Const{Value: lb || rb, Ty: b.Ty}, true
	}
	return nil, false
}

// foldUn evaluates a unary operator applied to a literal operand.
func foldUn(u term.Un) (term.Term, bool) {
	c, ok := u.X.(term.Const)
	if !ok {
		return nil, false
	}
	switch u.Op {
	case term.OpNeg:
		if i, ok := c.Value.(int); ok {
			return term.Const{Value: -i, Ty: u.Ty}, true
		}
	case term.OpNot:
		if b, ok := c.Value.(bool); ok {
			return term.Const{Value: !b, Ty: u.Ty}, true
		}
	}
	return nil, false
}

// SubstRuleRHS returns a copy of r whose right-hand side has sub
// applied to it.
func SubstRuleRHS(r Rule, sub *term.Subst) Rule {
	r.RHS = sub.Apply(r.RHS)
	return r
}
