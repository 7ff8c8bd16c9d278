package parse

import "github.com/rkestrel/synduce-go/pkg/term"

// RuleArg is one left-hand-side argument slot of a `.pmrs` rule: either
// an ordinary, explicitly-typed parameter, or (only in the final
// position) a constructor pattern destructuring the recursion argument.
// Var/Fields carry the actual binder identities minted while parsing
// the rule's body, so buildRule can reuse them verbatim as a
// pmrs.Rule's Params/Pattern.Fields without re-minting (and thereby
// mismatching) variable identity.
type RuleArg struct {
	IsPattern bool
	Var       term.Var   // ordinary parameter (IsPattern == false)
	Ctor      string     // pattern constructor name (IsPattern == true)
	Fields    []term.Var // pattern fields, in declaration order
}

// RawRule is one parsed `nt args -> rhs` clause, spec section 3's rule
// shape, before being grouped by non-terminal into a pmrs.PMRS.
type RawRule struct {
	NT  string
	Args []RuleArg
	RHS term.Term
}

// FunSig declares a non-terminal's return type ahead of its rule
// clauses, resolving the forward-reference problem a recursive call
// inside its own right-hand side would otherwise pose.
type FunSig struct {
	Name string
	Ty   term.Type
}

// HoleDecl declares one unknown hole's full signature, mirroring
// sygus.HoleSig but recorded before any PMRS exists to attach it to.
type HoleDecl struct {
	Name   string
	Params []term.Var
	Ty     term.Type
}

// Program is the fully parsed, but not yet PMRS-grouped, contents of
// one `.pmrs` source file: type declarations (already registered into
// the caller's term.Registry by the time Parse returns), non-terminal
// signatures, hole declarations, and every rule clause in source order.
type Program struct {
	Funs  []FunSig
	Holes []HoleDecl
	Rules []RawRule
}

// FunType looks up a declared non-terminal's return type by name.
func (p *Program) FunType(name string) (term.Type, bool) {
	for _, f := range p.Funs {
		if f.Name == name {
			return f.Ty, true
		}
	}
	return nil, false
}

// Hole looks up a declared hole's signature by name.
func (p *Program) Hole(name string) (HoleDecl, bool) {
	for _, h := range p.Holes {
		if h.Name == name {
			return h, true
		}
	}
	return HoleDecl{}, false
}
