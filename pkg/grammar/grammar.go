// Package grammar generates SyGuS grammars from an operator set, the
// argument locals in scope, and (optionally) a guess skeleton produced
// by the deduction engine. Productions are represented as literal SyGuS
// s-expression fragments rather than a structured expression tree: C6
// emits them verbatim into a synth-fun command, and a flat string is
// exactly what the teacher's own SMT/solver adapters pass through to an
// external process (no intermediate AST needed on the Go side).
package grammar

import (
	"fmt"
	"sort"

	"github.com/rkestrel/synduce-go/pkg/term"
)

// NonTerminalDef is one SyGuS grammar nonterminal: a name, a sort
// ("Int" or "Bool"), and its production list.
type NonTerminalDef struct {
	Name        string
	Sort        string
	Productions []string
}

// SyGuSGrammar is the full `(Start Sort (Productions...)) ...` grouped
// grammar definition for one synth-fun.
type SyGuSGrammar struct {
	NonTerminals []NonTerminalDef
	Start        string
}

// GrammarOpts parameterises grammar generation per spec section 4.5.
type GrammarOpts struct {
	ReturnSort              term.Type
	Locals                  []term.Var
	AllowMultiplyByConstant bool
	AllowNonlinear          bool
	BooleanRequired         bool
	Guess                   *term.Term
}

// Generate produces the three-nonterminal grammar schema (Ix, Ic, Ipred)
// of spec section 4.5, adding a tuple head rule for tuple return sorts
// and an IStart nonterminal biased toward a C7 guess skeleton when one
// is supplied.
func Generate(opts GrammarOpts) SyGuSGrammar {
	ix := NonTerminalDef{Name: "Ix", Sort: "Int"}
	ic := NonTerminalDef{Name: "Ic", Sort: "Int", Productions: []string{"0", "1", "-1"}}
	ipred := NonTerminalDef{Name: "Ipred", Sort: "Bool"}

	for _, v := range sortedIntLocals(opts.Locals) {
		ix.Productions = append(ix.Productions, v.Name)
	}
	for _, v := range sortedBoolLocals(opts.Locals) {
		ipred.Productions = append(ipred.Productions, v.Name)
	}

	ix.Productions = append(ix.Productions,
		"Ic",
		"(+ Ix Ix)",
		"(- Ix Ix)",
		"(min Ix Ix)",
		"(max Ix Ix)",
		"(ite Ipred Ix Ix)",
	)
	if opts.AllowMultiplyByConstant {
		ix.Productions = append(ix.Productions, "(* Ix Ic)")
	}
	if opts.AllowNonlinear {
		ix.Productions = append(ix.Productions, "(* Ix Ix)")
	}

	ipred.Productions = append(ipred.Productions,
		"(= Ix Ix)",
		"(<= Ix Ix)",
		"(< Ix Ix)",
		"(>= Ix Ix)",
		"(> Ix Ix)",
		"(and Ipred Ipred)",
		"(or Ipred Ipred)",
		"(not Ipred)",
	)
	if opts.BooleanRequired && len(ipred.Productions) == 0 {
		ipred.Productions = append(ipred.Productions, "true", "false")
	}

	addProjections(&ix, &ipred, opts.Locals)

	g := SyGuSGrammar{NonTerminals: []NonTerminalDef{ix, ic, ipred}}
	g.Start = startNonTerminalFor(opts.ReturnSort)

	if tup, ok := opts.ReturnSort.(term.Tuple); ok {
		g.NonTerminals = append(g.NonTerminals, tupleHeadRule(tup))
		g.Start = "ITuple"
	}

	if opts.Guess != nil {
		g.NonTerminals = append(g.NonTerminals, NonTerminalDef{
			Name:        "IStart",
			Sort:        sygusSort(opts.ReturnSort),
			Productions: guessProductions(*opts.Guess),
		})
		g.Start = "IStart"
	}
	return g
}

// startNonTerminalFor picks the default start nonterminal for a
// non-tuple, non-guess-biased return sort.
func startNonTerminalFor(sort term.Type) string {
	if b, ok := sort.(term.Base); ok && b.Kind == term.TBool {
		return "Ipred"
	}
	return "Ix"
}

func sygusSort(t term.Type) string {
	if b, ok := t.(term.Base); ok && b.Kind == term.TBool {
		return "Bool"
	}
	return "Int"
}

// tupleHeadRule builds the single mkTuple production spec section 4.5
// requires for a tuple return sort: one component per tuple element,
// drawn from whichever of Ix/Ipred matches that element's sort.
func tupleHeadRule(tup term.Tuple) NonTerminalDef {
	parts := make([]string, len(tup.Elems))
	for i, e := range tup.Elems {
		if b, ok := e.(term.Base); ok && b.Kind == term.TBool {
			parts[i] = "Ipred"
		} else {
			parts[i] = "Ix"
		}
	}
	prod := "(mkTuple"
	for _, p := range parts {
		prod += " " + p
	}
	prod += ")"
	return NonTerminalDef{Name: "ITuple", Sort: "Tuple", Productions: []string{prod}}
}

// addProjections unfolds any tuple-typed local into per-component
// selector expressions, added to Ix or Ipred according to the
// component's sort, per spec section 4.5's automatic tuple-argument
// projection.
func addProjections(ix, ipred *NonTerminalDef, locals []term.Var) {
	for _, v := range sortedLocals(locals) {
		tup, ok := v.Ty.(term.Tuple)
		if !ok {
			continue
		}
		for i, e := range tup.Elems {
			sel := fmt.Sprintf("((_ tuple.select %d) %s)", i, v.Name)
			if b, ok := e.(term.Base); ok && b.Kind == term.TBool {
				ipred.Productions = append(ipred.Productions, sel)
			} else {
				ix.Productions = append(ix.Productions, sel)
			}
		}
	}
}

// guessProductions renders a C7 guess skeleton into a single IStart
// production per distinct top-level shape: operator nodes keep their
// operator and recurse into nonterminal placeholders rather than the
// guess's own concrete leaves, so the synthesizer is biased toward the
// *shape* of the guess, not locked onto its exact leaves (spec section
// 4.5, "productions materialize every shape implied by the guess").
func guessProductions(guess term.Term) []string {
	return []string{guessShape(guess)}
}

func guessShape(t term.Term) string {
	switch x := t.(type) {
	case term.Bin:
		return fmt.Sprintf("(%s %s %s)", sygusBinOp(x.Op), guessSlot(x.L), guessSlot(x.R))
	case term.Un:
		name := "-"
		if x.Op == term.OpNot {
			name = "not"
		}
		return fmt.Sprintf("(%s %s)", name, guessSlot(x.X))
	case term.Ite:
		return fmt.Sprintf("(ite %s %s %s)", guessSlot(x.Cond), guessSlot(x.Then), guessSlot(x.Else))
	default:
		return guessSlot(t)
	}
}

// guessSlot returns the placeholder nonterminal for one position inside
// a guess shape, based on that position's static type.
func guessSlot(t term.Term) string {
	if b, ok := t.Type().(term.Base); ok && b.Kind == term.TBool {
		return "Ipred"
	}
	return "Ix"
}

// sygusBinOp maps a term.BinOpKind to its SMT-LIB/SyGuS operator token,
// which occasionally differs from the term package's human-readable
// String() form (e.g. "!=" has no literal SMT-LIB symbol).
func sygusBinOp(op term.BinOpKind) string {
	switch op {
	case term.OpNeq:
		return "distinct"
	case term.OpAnd:
		return "and"
	case term.OpOr:
		return "or"
	default:
		return op.String()
	}
}

func sortedLocals(locals []term.Var) []term.Var {
	out := append([]term.Var(nil), locals...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedIntLocals(locals []term.Var) []term.Var {
	var out []term.Var
	for _, v := range sortedLocals(locals) {
		if b, ok := v.Ty.(term.Base); ok && b.Kind == term.TInt {
			out = append(out, v)
		}
	}
	return out
}

func sortedBoolLocals(locals []term.Var) []term.Var {
	var out []term.Var
	for _, v := range sortedLocals(locals) {
		if b, ok := v.Ty.(term.Base); ok && b.Kind == term.TBool {
			out = append(out, v)
		}
	}
	return out
}
