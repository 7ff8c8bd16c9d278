package parse

import (
	"fmt"

	"github.com/rkestrel/synduce-go/pkg/term"
)

// exprParser parses one expression against a fixed local scope (the
// enclosing rule's ordinary parameters and pattern-bound fields) plus
// the program's declared non-terminal/hole signatures and the shared
// type registry's constructors. It produces term.Term directly — the
// dialect has no separate untyped-AST phase since every name in scope
// already carries a known type by the time an expression is parsed
// (spec section 1 keeps surface parsing minimal; a full
// infer-then-check pass is not worth building for it).
type exprParser struct {
	*parserBase
	reg *term.Registry
	fns map[string]term.Type
	env map[string]term.Var
	vg  *varGen
}

func (p *exprParser) parseExpr() (term.Term, error) { return p.parseOr() }

func (p *exprParser) parseOr() (term.Term, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		p.next()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = term.Or(l, r)
	}
	return l, nil
}

func (p *exprParser) parseAnd() (term.Term, error) {
	l, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for p.isPunct("&&") {
		p.next()
		r, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		l = term.And(l, r)
	}
	return l, nil
}

var compareOps = map[string]term.BinOpKind{
	"=": term.OpEq, "==": term.OpEq, "!=": term.OpNeq,
	"<": term.OpLt, "<=": term.OpLe, ">": term.OpGt, ">=": term.OpGe,
}

func (p *exprParser) parseCompare() (term.Term, error) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokPunct {
		if op, ok := compareOps[t.text]; ok {
			p.next()
			r, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return term.Bin{Op: op, L: l, R: r, Ty: term.Bool}, nil
		}
	}
	return l, nil
}

func (p *exprParser) parseAdditive() (term.Term, error) {
	l, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := term.OpAdd
		if p.peek().text == "-" {
			op = term.OpSub
		}
		p.next()
		r, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		l = term.Bin{Op: op, L: l, R: r, Ty: l.Type()}
	}
	return l, nil
}

func (p *exprParser) parseMultiplicative() (term.Term, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		var op term.BinOpKind
		switch p.peek().text {
		case "*":
			op = term.OpMul
		case "/":
			op = term.OpDiv
		case "%":
			op = term.OpMod
		}
		p.next()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = term.Bin{Op: op, L: l, R: r, Ty: l.Type()}
	}
	return l, nil
}

func (p *exprParser) parseUnary() (term.Term, error) {
	if p.isPunct("-") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return term.Un{Op: term.OpNeg, X: x, Ty: x.Type()}, nil
	}
	if p.isPunct("!") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return term.Un{Op: term.OpNot, X: x, Ty: term.Bool}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (term.Term, error) {
	t := p.peek()
	switch {
	case t.kind == tokInt:
		p.next()
		n, err := parseIntLiteral(t.text)
		if err != nil {
			return nil, fmt.Errorf("parse: bad integer literal %q at offset %d", t.text, t.pos)
		}
		return term.IntConst(n), nil

	case p.isKeyword("true"):
		p.next()
		return term.BoolConst(true), nil
	case p.isKeyword("false"):
		p.next()
		return term.BoolConst(false), nil

	case p.isKeyword("if"):
		return p.parseIte()

	case p.isKeyword("match"):
		return p.parseMatch()

	case p.isPunct("["):
		return p.parseHoleMarker()

	case p.isKeyword("min") || p.isKeyword("max"):
		op := term.OpMin
		if t.text == "max" {
			op = term.OpMax
		}
		p.next()
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		l, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		r, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return term.Bin{Op: op, L: l, R: r, Ty: l.Type()}, nil

	case p.isPunct("("):
		return p.parseParenOrTuple()

	case t.kind == tokCtor:
		return p.parseDataOrPattern()

	case t.kind == tokIdent:
		return p.parseIdentExpr()
	}
	return nil, fmt.Errorf("parse: unexpected token %q at offset %d", t.text, t.pos)
}

func (p *exprParser) parseIte() (term.Term, error) {
	if err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("else"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return term.Ite{Cond: cond, Then: then, Else: els, Ty: then.Type()}, nil
}

// parseMatch parses `match scrutinee with | Ctor(fields) -> body ...`,
// the `.ml` dialect's only way to destructure a value (the `.pmrs`
// dialect instead spreads one clause per rule; both end up building the
// same term.Match/pmrs.CtorPattern shapes one level up).
func (p *exprParser) parseMatch() (term.Term, error) {
	if err := p.expectKeyword("match"); err != nil {
		return nil, err
	}
	scrutinee, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("with"); err != nil {
		return nil, err
	}
	if p.isPunct("|") {
		p.next()
	}
	var cases []term.MatchCase
	var ty term.Type
	for {
		ctor, err := p.expectCtor()
		if err != nil {
			return nil, err
		}
		def, ok := p.reg.LookupVariant(ctor)
		if !ok {
			return nil, fmt.Errorf("parse: undeclared constructor %q in match arm", ctor)
		}
		caseEnv := make(map[string]term.Var, len(p.env))
		for k, v := range p.env {
			caseEnv[k] = v
		}
		var vars []term.Var
		if p.isPunct("(") {
			p.next()
			i := 0
			for !p.isPunct(")") {
				fname, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				if i >= len(def.Fields) {
					return nil, fmt.Errorf("parse: constructor %q has fewer fields than the match arm binds", ctor)
				}
				v := p.vg.fresh(fname, def.Fields[i])
				vars = append(vars, v)
				caseEnv[fname] = v
				i++
				if p.isPunct(",") {
					p.next()
				}
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
		}
		if err := p.expectPunct("->"); err != nil {
			return nil, err
		}
		body, err := (&exprParser{parserBase: p.parserBase, reg: p.reg, fns: p.fns, env: caseEnv, vg: p.vg}).parseExpr()
		if err != nil {
			return nil, err
		}
		cases = append(cases, term.MatchCase{Ctor: ctor, Vars: vars, Body: body})
		ty = body.Type()
		if p.isPunct("|") {
			p.next()
			continue
		}
		break
	}
	return term.Match{Scrutinee: scrutinee, Cases: cases, Ty: ty}, nil
}

// parseHoleMarker parses `[%synt name]`, optionally applied to
// arguments the same way a function call is — the `.ml` dialect's
// hole-marker extension (spec section 6), producing the same
// term.App{Fn: name, ...} shape the `.pmrs` dialect gets from calling a
// declared hole directly by name.
func (p *exprParser) parseHoleMarker() (term.Term, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	if err := p.expectPunct("%"); err != nil {
		return nil, err
	}
	marker, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if marker != "synt" {
		return nil, fmt.Errorf("parse: unsupported marker %%%s (only %%synt is recognized)", marker)
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	retTy, ok := p.fns[name]
	if !ok {
		return nil, fmt.Errorf("parse: [%%synt %s] references an undeclared hole (missing a preceding hole declaration)", name)
	}
	var args []term.Term
	if p.isPunct("(") {
		p.next()
		for !p.isPunct(")") {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.isPunct(",") {
				p.next()
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}
	return term.App{Fn: name, Args: args, Ty: retTy}, nil
}

func (p *exprParser) parseParenOrTuple() (term.Term, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isPunct(",") {
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elems := []term.Term{first}
	for p.isPunct(",") {
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	tys := make([]term.Type, len(elems))
	for i, e := range elems {
		tys[i] = e.Type()
	}
	return term.Tup{Elems: elems, Ty: term.Tuple{Elems: tys}}, nil
}

func (p *exprParser) parseDataOrPattern() (term.Term, error) {
	ctor, err := p.expectCtor()
	if err != nil {
		return nil, err
	}
	def, ok := p.reg.LookupVariant(ctor)
	if !ok {
		return nil, fmt.Errorf("parse: undeclared constructor %q", ctor)
	}
	var args []term.Term
	if p.isPunct("(") {
		p.next()
		for !p.isPunct(")") {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.isPunct(",") {
				p.next()
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}
	return term.Data{Ctor: ctor, Args: args, Ty: term.Cons{Name: def.TypeName}}, nil
}

// parseIdentExpr resolves a lowercase identifier to a bound local
// variable, a hole application, or a non-terminal (function) call,
// disambiguated the only way the dialect needs to: a following "(" with
// the name matching a declared fun/hole is a call, otherwise it is a
// plain variable reference.
func (p *exprParser) parseIdentExpr() (term.Term, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if !p.isPunct("(") {
		v, ok := p.env[name]
		if !ok {
			return nil, fmt.Errorf("parse: unbound variable %q", name)
		}
		return v, nil
	}
	retTy, ok := p.fns[name]
	if !ok {
		return nil, fmt.Errorf("parse: call to undeclared function/hole %q (missing a preceding fun/hole declaration)", name)
	}
	p.next()
	var args []term.Term
	for !p.isPunct(")") {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.isPunct(",") {
			p.next()
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return term.App{Fn: name, Args: args, Ty: retTy}, nil
}
