package parse

import (
	"fmt"

	"github.com/rkestrel/synduce-go/pkg/term"
)

// varGen mints bound-variable identities during one parse: term.Var's
// Equal/Subst keying is by ID alone (see pkg/term/subst.go), so every
// binder (a rule's ordinary parameter, a constructor pattern's field, a
// match arm's field) must carry an ID distinct from every other binder
// in scope, and every occurrence of that name inside the binder's body
// must reuse the exact same Var value. A single counter shared across
// one ParsePMRS/ParseML call is the simplest way to guarantee that.
type varGen struct{ n int64 }

func (g *varGen) fresh(name string, ty term.Type) term.Var {
	g.n++
	return term.Var{ID: g.n, Name: name, Ty: ty}
}

// parseBaseOrNamedType resolves a type annotation to a term.Type: the
// four base keywords, or any other identifier as the (possibly not yet
// fully declared) named sum type — deliberately not registry-checked
// here so a type may reference itself in its own declaration (e.g.
// `Cons` carrying a `list` field while `list` is still being declared).
// Shared by both dialects since the type-annotation grammar is
// identical in each.
func parseBaseOrNamedType(p *parserBase) (term.Type, error) {
	t := p.peek()
	switch {
	case p.isKeyword("int"):
		p.next()
		return term.Int, nil
	case p.isKeyword("bool"):
		p.next()
		return term.Bool, nil
	case p.isKeyword("string"):
		p.next()
		return term.String, nil
	case p.isKeyword("char"):
		p.next()
		return term.Char, nil
	case t.kind == tokIdent:
		p.next()
		return term.Cons{Name: t.text}, nil
	}
	return nil, fmt.Errorf("parse: expected a type at offset %d, found %q", t.pos, t.text)
}

// parseTypeDecl parses `type name = Ctor1(ty, ty) | Ctor2 | ...` and
// registers the type and each variant into reg, shared by both dialects.
func parseTypeDecl(p *parserBase, reg *term.Registry) error {
	if err := p.expectKeyword("type"); err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := reg.DeclareType(&term.TypeDef{Name: name}); err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	for {
		ctor, err := p.expectCtor()
		if err != nil {
			return err
		}
		var fields []term.Type
		if p.isPunct("(") {
			p.next()
			for !p.isPunct(")") {
				ty, err := parseBaseOrNamedType(p)
				if err != nil {
					return err
				}
				fields = append(fields, ty)
				if p.isPunct(",") {
					p.next()
				}
			}
			if err := p.expectPunct(")"); err != nil {
				return err
			}
		}
		if err := reg.DeclareVariant(&term.VariantDef{Name: ctor, TypeName: name, Fields: fields}); err != nil {
			return err
		}
		if !p.isPunct("|") {
			break
		}
		p.next()
	}
	return nil
}

// parseHoleDecl parses `hole name(arg: ty, ...): ty`, shared by both
// dialects — the `.ml` dialect still declares holes explicitly up
// front rather than inferring their signature from `[%synt ...]` call
// sites, keeping the unknown's argument scope and return type
// unambiguous without a real type-inference pass (spec section 1's
// "surface syntax parsing is out of scope" licenses this simplification).
// Each parameter is minted through vg, the same counter every other
// binder site uses, so a two-or-more-argument hole's formal parameters
// carry distinct ids rather than all defaulting to the Var zero value.
func parseHoleDecl(p *parserBase, vg *varGen) (HoleDecl, error) {
	if err := p.expectKeyword("hole"); err != nil {
		return HoleDecl{}, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return HoleDecl{}, err
	}
	if err := p.expectPunct("("); err != nil {
		return HoleDecl{}, err
	}
	var params []term.Var
	for !p.isPunct(")") {
		pname, err := p.expectIdent()
		if err != nil {
			return HoleDecl{}, err
		}
		if err := p.expectPunct(":"); err != nil {
			return HoleDecl{}, err
		}
		ty, err := parseBaseOrNamedType(p)
		if err != nil {
			return HoleDecl{}, err
		}
		params = append(params, vg.fresh(pname, ty))
		if p.isPunct(",") {
			p.next()
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return HoleDecl{}, err
	}
	if err := p.expectPunct(":"); err != nil {
		return HoleDecl{}, err
	}
	ty, err := parseBaseOrNamedType(p)
	if err != nil {
		return HoleDecl{}, err
	}
	return HoleDecl{Name: name, Params: params, Ty: ty}, nil
}
