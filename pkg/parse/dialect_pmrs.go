package parse

import (
	"fmt"

	"github.com/rkestrel/synduce-go/pkg/term"
)

// ParsePMRS parses the `.pmrs` explicit-rule dialect (spec section 6):
// type declarations, `fun name : type` non-terminal signatures, `hole
// name(args): type` unknown declarations, and `rule nt(args) -> rhs`
// clauses, in any order as long as every name is declared before its
// first use (the dialect requires forward signatures precisely so a
// recursive call's return type is always already known — spec section
// 1 keeps this minimal on purpose, not a general type-inference pass).
//
// Registered type/variant declarations are written directly into reg,
// matching Registry's documented "callers own one Registry per solve"
// contract (spec section 9).
func ParsePMRS(src string, reg *term.Registry) (*Program, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, err
	}
	p := &pmrsParser{parserBase: &parserBase{toks: toks}, reg: reg, fns: map[string]term.Type{}, vg: &varGen{}}
	return p.parseProgram()
}

type pmrsParser struct {
	*parserBase
	reg  *term.Registry
	fns  map[string]term.Type
	vg   *varGen
	prog Program
}

func (p *pmrsParser) parseProgram() (*Program, error) {
	for !p.atEOF() {
		switch {
		case p.isKeyword("type"):
			if err := parseTypeDecl(p.parserBase, p.reg); err != nil {
				return nil, err
			}
		case p.peek().kind == tokIdent && p.peek().text == "fun":
			if err := p.parseFunSig(); err != nil {
				return nil, err
			}
		case p.isKeyword("hole"):
			if err := p.parseHoleDecl(); err != nil {
				return nil, err
			}
		case p.peek().kind == tokIdent && p.peek().text == "rule":
			if err := p.parseRule(); err != nil {
				return nil, err
			}
		default:
			t := p.peek()
			return nil, fmt.Errorf("parse: unexpected top-level token %q at offset %d", t.text, t.pos)
		}
	}
	return &p.prog, nil
}

// parseFunSig parses `fun name : type`. "fun" is a contextual
// identifier keyword (not reserved across the whole grammar) so
// ordinary non-terminal names are unaffected.
func (p *pmrsParser) parseFunSig() error {
	p.next() // "fun"
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectPunct(":"); err != nil {
		return err
	}
	ty, err := parseBaseOrNamedType(p.parserBase)
	if err != nil {
		return err
	}
	p.fns[name] = ty
	p.prog.Funs = append(p.prog.Funs, FunSig{Name: name, Ty: ty})
	return nil
}

func (p *pmrsParser) parseHoleDecl() error {
	h, err := parseHoleDecl(p.parserBase, p.vg)
	if err != nil {
		return err
	}
	p.fns[h.Name] = h.Ty
	p.prog.Holes = append(p.prog.Holes, h)
	return nil
}

func (p *pmrsParser) parseRule() error {
	p.next() // "rule"
	nt, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectPunct("("); err != nil {
		return err
	}
	env := map[string]term.Var{}
	var args []RuleArg
	for !p.isPunct(")") {
		if p.peek().kind == tokCtor {
			ctor, err := p.expectCtor()
			if err != nil {
				return err
			}
			def, ok := p.reg.LookupVariant(ctor)
			if !ok {
				return fmt.Errorf("parse: undeclared constructor %q in pattern", ctor)
			}
			var fields []term.Var
			if p.isPunct("(") {
				p.next()
				i := 0
				for !p.isPunct(")") {
					fname, err := p.expectIdent()
					if err != nil {
						return err
					}
					if i >= len(def.Fields) {
						return fmt.Errorf("parse: constructor %q has fewer fields than the pattern binds", ctor)
					}
					v := p.vg.fresh(fname, def.Fields[i])
					env[fname] = v
					fields = append(fields, v)
					i++
					if p.isPunct(",") {
						p.next()
					}
				}
				if err := p.expectPunct(")"); err != nil {
					return err
				}
			}
			args = append(args, RuleArg{IsPattern: true, Ctor: ctor, Fields: fields})
		} else {
			pname, err := p.expectIdent()
			if err != nil {
				return err
			}
			if err := p.expectPunct(":"); err != nil {
				return err
			}
			ty, err := parseBaseOrNamedType(p.parserBase)
			if err != nil {
				return err
			}
			v := p.vg.fresh(pname, ty)
			env[pname] = v
			args = append(args, RuleArg{Var: v})
		}
		if p.isPunct(",") {
			p.next()
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return err
	}
	if err := p.expectPunct("->"); err != nil {
		return err
	}
	ep := &exprParser{parserBase: p.parserBase, reg: p.reg, fns: p.fns, env: env, vg: p.vg}
	rhs, err := ep.parseExpr()
	if err != nil {
		return err
	}
	p.prog.Rules = append(p.prog.Rules, RawRule{NT: nt, Args: args, RHS: rhs})
	return nil
}
