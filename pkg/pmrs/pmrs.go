// Package pmrs implements Pattern-Matching Recursion Schemes: the rule
// representation, outermost-leftmost reduction, most-general-term (MGT)
// computation, and the projection to ordinary first-order functions used
// by the SMT/SyGuS encoders.
//
// Rules and non-terminals are addressed by small integer ids in an
// arena rather than by pointer (spec section 9, "cyclic and shared term
// structure"): a PMRS's rule graph is cyclic in general (non-terminals
// call each other, including recursively through main), so an
// id-indexed arena sidesteps any ownership-cycle concern a pointer graph
// would raise.
package pmrs

import (
	"fmt"

	"github.com/rkestrel/synduce-go/pkg/term"
)

// NTSymbol is a non-terminal of a PMRS, addressed by arena id.
type NTSymbol struct {
	ID   int64
	Name string
}

func (s NTSymbol) String() string { return s.Name }

// CtorPattern is the optional `(C b1 ... bm)` constructor pattern a rule
// may match against its recursion argument. Ty is the scrutinee's own
// sum type (not any field's type — a nullary constructor like Nil has
// no fields to recover it from).
type CtorPattern struct {
	Ctor   string
	Fields []term.Var
	Ty     term.Type
}

// Rule has the shape `nt a1 ... ak (C b1 ... bm)? -> rhs` of spec
// section 3. Params are the non-pattern arguments a1..ak (in order);
// Pattern, if non-nil, destructures the final (recursion) argument.
type Rule struct {
	ID      int64
	NT      NTSymbol
	Params  []term.Var
	Pattern *CtorPattern
	RHS     term.Term
}

// Arity returns the number of arguments the rule's left-hand side binds:
// the ordinary params plus one if a constructor pattern is present.
func (r Rule) Arity() int {
	n := len(r.Params)
	if r.Pattern != nil {
		n++
	}
	return n
}

// PMRS is the tuple (params, non-terminals, main, rules) of spec
// section 3. Params are the holes ξ — the unknowns a synthesis run is
// solving for.
type PMRS struct {
	Params       []term.Var
	NonTerminals []NTSymbol
	Main         NTSymbol
	Rules        []Rule

	byNT map[int64][]Rule
}

// New constructs a PMRS and indexes its rules by non-terminal.
func New(params []term.Var, nts []NTSymbol, main NTSymbol, rules []Rule) (*PMRS, error) {
	p := &PMRS{Params: params, NonTerminals: nts, Main: main, Rules: rules}
	if err := p.reindex(); err != nil {
		return nil, err
	}
	if err := p.checkInvariants(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PMRS) reindex() error {
	p.byNT = make(map[int64][]Rule, len(p.NonTerminals))
	for _, r := range p.Rules {
		p.byNT[r.NT.ID] = append(p.byNT[r.NT.ID], r)
	}
	return nil
}

// checkInvariants enforces spec section 3's PMRS invariants: main has
// exactly one recursion argument (i.e. every rule for Main carries a
// constructor pattern on its last argument), and params (holes) are
// disjoint from non-terminal names.
func (p *PMRS) checkInvariants() error {
	holeNames := make(map[string]bool, len(p.Params))
	for _, h := range p.Params {
		holeNames[h.Name] = true
	}
	for _, nt := range p.NonTerminals {
		if holeNames[nt.Name] {
			return fmt.Errorf("non-terminal %q collides with a hole parameter", nt.Name)
		}
	}
	for _, r := range p.byNT[p.Main.ID] {
		if r.Pattern == nil {
			return fmt.Errorf("main symbol %q must recurse on a single pattern-matched argument (rule %d lacks one)", p.Main.Name, r.ID)
		}
	}
	return nil
}

// RulesFor returns every rule defined for a non-terminal.
func (p *PMRS) RulesFor(nt NTSymbol) []Rule { return p.byNT[nt.ID] }

// IsHole reports whether name is one of the PMRS's unknown hole
// parameters.
func (p *PMRS) IsHole(name string) bool {
	for _, h := range p.Params {
		if h.Name == name {
			return true
		}
	}
	return false
}

// NTByName looks up a non-terminal by name, used when building terms
// from parsed surface syntax.
func (p *PMRS) NTByName(name string) (NTSymbol, bool) {
	for _, nt := range p.NonTerminals {
		if nt.Name == name {
			return nt, true
		}
	}
	return NTSymbol{}, false
}
