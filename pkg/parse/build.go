package parse

import (
	"fmt"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// BuildPMRS groups prog's flat rule list into a pmrs.PMRS rooted at
// mainName: every non-terminal transitively called from mainName's
// rules (by App.Fn) is included, everything else in prog is ignored.
// This is how a single parsed file can hold several independent
// functions (spec section 6: "identification of the target, reference,
// and representation functions is by name") without the dialect
// needing separate per-role sections.
func BuildPMRS(ctx *ids.Context, reg *term.Registry, prog *Program, mainName string) (*pmrs.PMRS, error) {
	byNT := make(map[string][]RawRule)
	for _, r := range prog.Rules {
		byNT[r.NT] = append(byNT[r.NT], r)
	}
	if _, ok := byNT[mainName]; !ok {
		return nil, fmt.Errorf("parse: no rules declared for non-terminal %q", mainName)
	}

	reachable := map[string]bool{mainName: true}
	queue := []string{mainName}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range byNT[cur] {
			for _, callee := range calledNonTerminals(r.RHS) {
				if _, isHole := prog.Hole(callee); isHole {
					continue
				}
				if _, known := byNT[callee]; !known {
					continue
				}
				if !reachable[callee] {
					reachable[callee] = true
					queue = append(queue, callee)
				}
			}
		}
	}

	var holeParams []term.Var
	for _, h := range prog.Holes {
		holeParams = append(holeParams, term.Var{Name: h.Name, Ty: h.Ty})
	}

	ntByName := map[string]pmrs.NTSymbol{}
	var nts []pmrs.NTSymbol
	for name := range reachable {
		nt := pmrs.NTSymbol{ID: ctx.FreshNTID(), Name: name}
		ntByName[name] = nt
		nts = append(nts, nt)
	}

	var rules []pmrs.Rule
	for name := range reachable {
		for _, raw := range byNT[name] {
			rule, err := buildRule(ctx, reg, ntByName[name], raw)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
	}

	return pmrs.New(holeParams, nts, ntByName[mainName], rules)
}

// buildRule converts one RawRule's argument list into a pmrs.Rule,
// requiring a constructor pattern (if present) to be the final
// argument — the single recursion slot spec section 3's PMRS shape
// reserves for it.
func buildRule(ctx *ids.Context, reg *term.Registry, nt pmrs.NTSymbol, raw RawRule) (pmrs.Rule, error) {
	var params []term.Var
	var pattern *pmrs.CtorPattern
	for i, a := range raw.Args {
		if a.IsPattern {
			if i != len(raw.Args)-1 {
				return pmrs.Rule{}, fmt.Errorf("parse: constructor pattern %q must be the final argument of rule %q", a.Ctor, nt.Name)
			}
			if pattern != nil {
				return pmrs.Rule{}, fmt.Errorf("parse: rule %q has more than one constructor pattern", nt.Name)
			}
			def, ok := reg.LookupVariant(a.Ctor)
			if !ok {
				return pmrs.Rule{}, fmt.Errorf("parse: undeclared constructor %q in rule %q", a.Ctor, nt.Name)
			}
			pattern = &pmrs.CtorPattern{Ctor: a.Ctor, Ty: term.Cons{Name: def.TypeName}, Fields: a.Fields}
			continue
		}
		params = append(params, a.Var)
	}
	return pmrs.Rule{ID: ctx.FreshRuleID(), NT: nt, Params: params, Pattern: pattern, RHS: raw.RHS}, nil
}

func calledNonTerminals(t term.Term) []string {
	var out []string
	var walk func(term.Term)
	walk = func(t term.Term) {
		switch x := t.(type) {
		case term.App:
			out = append(out, x.Fn)
			for _, a := range x.Args {
				walk(a)
			}
		case term.Tup:
			for _, e := range x.Elems {
				walk(e)
			}
		case term.Bin:
			walk(x.L)
			walk(x.R)
		case term.Un:
			walk(x.X)
		case term.Ite:
			walk(x.Cond)
			walk(x.Then)
			walk(x.Else)
		case term.Data:
			for _, a := range x.Args {
				walk(a)
			}
		case term.Match:
			walk(x.Scrutinee)
			for _, c := range x.Cases {
				walk(c.Body)
			}
		}
	}
	walk(t)
	return out
}
