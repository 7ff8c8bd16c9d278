// Package sygus renders equations, hole signatures, and a generated
// grammar into the literal SyGuS-IF command sequence an external solver
// process consumes: set-logic, synth-fun (with grammar), declare-var,
// constraint, check-synth (spec section 5, "SyGuS port"). Variables are
// emitted under their own names with no renaming: names are not
// sanitized, and distinct variables that share a name become one SyGuS
// variable.
package sygus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rkestrel/synduce-go/pkg/equations"
	"github.com/rkestrel/synduce-go/pkg/grammar"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// Command is one top-level SyGuS-IF command, already rendered to text.
type Command string

// Hole identifies an unknown function a synthesis run is solving for, by
// the name it carries as a PMRS parameter. Identified by name (not a
// struct of its full signature) so Hole remains a valid Go map key —
// spec section 5's `map[Hole]term.Term` needs exactly that.
type Hole string

// HoleSig is a hole's full signature: its argument variables and return
// sort, needed to emit its synth-fun declaration.
type HoleSig struct {
	Name   Hole
	Params []term.Var
	Ty     term.Type
}

// Emit renders eqs, holes, and grammar into a full SyGuS-IF command list.
func Emit(eqs []equations.Equation, holes []HoleSig, g grammar.SyGuSGrammar) []Command {
	var cmds []Command
	cmds = append(cmds, Command(fmt.Sprintf("(set-logic %s)", recomputeLogic(eqs))))

	for _, h := range holes {
		cmds = append(cmds, synthFunCommand(h, g))
	}

	for _, name := range declaredVarNames(eqs) {
		cmds = append(cmds, Command(fmt.Sprintf("(declare-var %s %s)", name.name, name.sort)))
	}

	for _, eq := range eqs {
		cmds = append(cmds, constraintCommand(eq))
	}

	cmds = append(cmds, "(check-synth)")
	return cmds
}

// recomputeLogic picks DTLIA unless any equation's sides contain a
// nonlinear (variable * variable) multiplication, in which case NIA is
// required. Spec section 5: "logic recomputed (DTLIA default) from the
// operator set present."
func recomputeLogic(eqs []equations.Equation) string {
	for _, eq := range eqs {
		if hasNonlinearMultiplication(eq.LHS) || hasNonlinearMultiplication(eq.RHS) {
			return "NIA"
		}
	}
	return "DTLIA"
}

func hasNonlinearMultiplication(t term.Term) bool {
	switch x := t.(type) {
	case term.Bin:
		if x.Op == term.OpMul {
			_, lConst := x.L.(term.Const)
			_, rConst := x.R.(term.Const)
			if !lConst && !rConst {
				return true
			}
		}
		return hasNonlinearMultiplication(x.L) || hasNonlinearMultiplication(x.R)
	case term.Un:
		return hasNonlinearMultiplication(x.X)
	case term.Ite:
		return hasNonlinearMultiplication(x.Cond) || hasNonlinearMultiplication(x.Then) || hasNonlinearMultiplication(x.Else)
	case term.Tup:
		for _, e := range x.Elems {
			if hasNonlinearMultiplication(e) {
				return true
			}
		}
	case term.App:
		for _, a := range x.Args {
			if hasNonlinearMultiplication(a) {
				return true
			}
		}
	}
	return false
}

// SynthFunCommand renders a single synth-fun declaration for h under g,
// exported so other per-hole synthesis drivers (C9's per-term lemma
// synth-funs) can reuse the exact same rendering C6 uses for equations.
func SynthFunCommand(h HoleSig, g grammar.SyGuSGrammar) Command {
	return synthFunCommand(h, g)
}

// SmtSortOf exposes the SyGuS/SMT sort name ("Int" or "Bool") of a
// term.Type, for callers building constraint commands outside of Emit.
func SmtSortOf(t term.Type) string { return smtSortOf(t) }

func synthFunCommand(h HoleSig, g grammar.SyGuSGrammar) Command {
	var params []string
	for _, p := range h.Params {
		params = append(params, fmt.Sprintf("(%s %s)", p.Name, smtSortOf(p.Ty)))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "(synth-fun %s (%s) %s\n", h.Name, strings.Join(params, " "), smtSortOf(h.Ty))
	fmt.Fprintf(&b, "  ((%s %s))\n", g.Start, sortOfNT(g, g.Start))
	b.WriteString("  (")
	for _, nt := range g.NonTerminals {
		fmt.Fprintf(&b, "\n    (%s %s (%s))", nt.Name, smtSortName(nt.Sort), strings.Join(nt.Productions, " "))
	}
	b.WriteString("))")
	return Command(b.String())
}

func sortOfNT(g grammar.SyGuSGrammar, name string) string {
	for _, nt := range g.NonTerminals {
		if nt.Name == name {
			return smtSortName(nt.Sort)
		}
	}
	return "Int"
}

func smtSortName(sort string) string {
	if sort == "" {
		return "Int"
	}
	return sort
}

func smtSortOf(t term.Type) string {
	if b, ok := t.(term.Base); ok && b.Kind == term.TBool {
		return "Bool"
	}
	return "Int"
}

func constraintCommand(eq equations.Equation) Command {
	body := fmt.Sprintf("(= %s %s)", ToSMT(eq.LHS), ToSMT(eq.RHS))
	if eq.Pre != nil {
		body = fmt.Sprintf("(=> %s %s)", ToSMT(*eq.Pre), body)
	}
	return Command(fmt.Sprintf("(constraint %s)", body))
}

type declaredVar struct {
	name string
	sort string
}

// declaredVarNames collects every free scalar variable mentioned in eqs,
// sorted for deterministic emission order.
func declaredVarNames(eqs []equations.Equation) []declaredVar {
	seen := make(map[string]string)
	record := func(v term.Var) { seen[v.Name] = smtSortOf(v.Ty) }
	for _, eq := range eqs {
		for _, v := range term.FreeVariables(eq.LHS) {
			record(v)
		}
		for _, v := range term.FreeVariables(eq.RHS) {
			record(v)
		}
		if eq.Pre != nil {
			for _, v := range term.FreeVariables(*eq.Pre) {
				record(v)
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]declaredVar, len(names))
	for i, n := range names {
		out[i] = declaredVar{name: n, sort: seen[n]}
	}
	return out
}

// ToSMT renders a term to its SMT-LIB2 prefix-notation text.
func ToSMT(t term.Term) string {
	switch x := t.(type) {
	case term.Var:
		return x.String()
	case term.Const:
		switch v := x.Value.(type) {
		case bool:
			if v {
				return "true"
			}
			return "false"
		default:
			return fmt.Sprintf("%v", v)
		}
	case term.Tup:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = ToSMT(e)
		}
		return fmt.Sprintf("(mkTuple %s)", strings.Join(parts, " "))
	case term.Bin:
		return fmt.Sprintf("(%s %s %s)", smtBinOp(x.Op), ToSMT(x.L), ToSMT(x.R))
	case term.Un:
		if x.Op == term.OpNot {
			return fmt.Sprintf("(not %s)", ToSMT(x.X))
		}
		return fmt.Sprintf("(- %s)", ToSMT(x.X))
	case term.Ite:
		return fmt.Sprintf("(ite %s %s %s)", ToSMT(x.Cond), ToSMT(x.Then), ToSMT(x.Else))
	case term.App:
		parts := make([]string, len(x.Args))
		for i, a := range x.Args {
			parts[i] = ToSMT(a)
		}
		if len(parts) == 0 {
			return x.Fn
		}
		return fmt.Sprintf("(%s %s)", x.Fn, strings.Join(parts, " "))
	case term.Data:
		parts := make([]string, len(x.Args))
		for i, a := range x.Args {
			parts[i] = ToSMT(a)
		}
		if len(parts) == 0 {
			return x.Ctor
		}
		return fmt.Sprintf("(%s %s)", x.Ctor, strings.Join(parts, " "))
	default:
		return t.String()
	}
}

func smtBinOp(op term.BinOpKind) string {
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
