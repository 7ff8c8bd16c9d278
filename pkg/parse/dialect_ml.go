package parse

import (
	"fmt"

	"github.com/rkestrel/synduce-go/pkg/term"
)

// ParseML parses the `.ml` hole-marker dialect (spec section 6): type
// declarations, `hole name(args): type` unknown declarations, and
// `let rec name(args): type = match recursionArg with | Ctor(fields) ->
// body ...` function definitions. Each match arm desugars directly into
// one RawRule per constructor, the same shape ParsePMRS produces from
// its explicit `rule` clauses, so both dialects feed the same
// BuildPMRS. This is not OCaml's surface grammar (no curried
// application, no standalone `function`) — spec section 1 scopes surface parsing to "minimal",
// not a faithful OCaml front end.
func ParseML(src string, reg *term.Registry) (*Program, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, err
	}
	p := &mlParser{parserBase: &parserBase{toks: toks}, reg: reg, fns: map[string]term.Type{}, vg: &varGen{}}
	return p.parseProgram()
}

type mlParser struct {
	*parserBase
	reg  *term.Registry
	fns  map[string]term.Type
	vg   *varGen
	prog Program
}

func (p *mlParser) parseProgram() (*Program, error) {
	for !p.atEOF() {
		switch {
		case p.isKeyword("type"):
			if err := parseTypeDecl(p.parserBase, p.reg); err != nil {
				return nil, err
			}
		case p.isKeyword("hole"):
			if err := p.parseHoleDecl(); err != nil {
				return nil, err
			}
		case p.isKeyword("let"):
			if err := p.parseLetRec(); err != nil {
				return nil, err
			}
		default:
			t := p.peek()
			return nil, fmt.Errorf("parse: unexpected top-level token %q at offset %d", t.text, t.pos)
		}
	}
	return &p.prog, nil
}

func (p *mlParser) parseHoleDecl() error {
	h, err := parseHoleDecl(p.parserBase, p.vg)
	if err != nil {
		return err
	}
	p.fns[h.Name] = h.Ty
	p.prog.Holes = append(p.prog.Holes, h)
	return nil
}

// parseLetRec parses one `let rec name(args): type = match lastArg with
// ...` definition and desugars its match arms into RawRules, with the
// function's leading (non-recursion) arguments prepended to every
// desugared rule's argument list so BuildPMRS/buildRule see exactly the
// same per-constructor-clause shape the `.pmrs` dialect already
// produces.
func (p *mlParser) parseLetRec() error {
	if err := p.expectKeyword("let"); err != nil {
		return err
	}
	if p.isKeyword("rec") {
		p.next()
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectPunct("("); err != nil {
		return err
	}
	env := map[string]term.Var{}
	var leading []RuleArg
	for !p.isPunct(")") {
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
		leading = append(leading, RuleArg{Var: v})
		if p.isPunct(",") {
			p.next()
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return err
	}
	if err := p.expectPunct(":"); err != nil {
		return err
	}
	retTy, err := parseBaseOrNamedType(p.parserBase)
	if err != nil {
		return err
	}
	p.fns[name] = retTy
	if err := p.expectPunct("="); err != nil {
		return err
	}
	if len(leading) == 0 {
		return fmt.Errorf("parse: %q has no arguments to match on", name)
	}
	recArg := leading[len(leading)-1]
	leading = leading[:len(leading)-1]

	if err := p.expectKeyword("match"); err != nil {
		return err
	}
	scrutName, err := p.expectIdent()
	if err != nil {
		return err
	}
	if scrutName != recArg.Var.Name {
		return fmt.Errorf("parse: %q must match on its final (recursion) argument %q, found %q", name, recArg.Var.Name, scrutName)
	}
	if err := p.expectKeyword("with"); err != nil {
		return err
	}
	if p.isPunct("|") {
		p.next()
	}

	for {
		ctor, err := p.expectCtor()
		if err != nil {
			return err
		}
		def, ok := p.reg.LookupVariant(ctor)
		if !ok {
			return fmt.Errorf("parse: undeclared constructor %q in rule %q", ctor, name)
		}
		caseEnv := make(map[string]term.Var, len(env))
		for k, v := range env {
			caseEnv[k] = v
		}
		delete(caseEnv, recArg.Var.Name)
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
					return fmt.Errorf("parse: constructor %q has fewer fields than the rule binds", ctor)
				}
				v := p.vg.fresh(fname, def.Fields[i])
				caseEnv[fname] = v
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
		if err := p.expectPunct("->"); err != nil {
			return err
		}
		ep := &exprParser{parserBase: p.parserBase, reg: p.reg, fns: p.fns, env: caseEnv, vg: p.vg}
		rhs, err := ep.parseExpr()
		if err != nil {
			return err
		}
		args := make([]RuleArg, 0, len(leading)+1)
		args = append(args, leading...)
		args = append(args, RuleArg{IsPattern: true, Ctor: ctor, Fields: fields})
		p.prog.Rules = append(p.prog.Rules, RawRule{NT: name, Args: args, RHS: rhs})

		if p.isPunct("|") {
			p.next()
			continue
		}
		break
	}
	p.prog.Funs = append(p.prog.Funs, FunSig{Name: name, Ty: retTy})
	return nil
}
