package pmrs

import "github.com/rkestrel/synduce-go/pkg/term"

// IsMR reports whether t is maximally reducible under p: every
// recursive subterm of t (every application of a p non-terminal) reduces
// to a value containing no further application of p (spec section 4.1).
func IsMR(p *PMRS, t term.Term, limit int) bool {
	reduced, complete := Reduce(p, t, limit)
	if !complete {
		return false
	}
	return !containsApplicationOf(p, reduced)
}

func containsApplicationOf(p *PMRS, t term.Term) bool {
	switch x := t.(type) {
	case term.App:
		if _, isNT := p.NTByName(x.Fn); isNT {
			return true
		}
		for _, a := range x.Args {
			if containsApplicationOf(p, a) {
				return true
			}
		}
	case term.Tup:
		for _, e := range x.Elems {
			if containsApplicationOf(p, e) {
				return true
			}
		}
	case term.Bin:
		return containsApplicationOf(p, x.L) || containsApplicationOf(p, x.R)
	case term.Un:
		return containsApplicationOf(p, x.X)
	case term.Ite:
		return containsApplicationOf(p, x.Cond) || containsApplicationOf(p, x.Then) || containsApplicationOf(p, x.Else)
	case term.Data:
		for _, a := range x.Args {
			if containsApplicationOf(p, a) {
				return true
			}
		}
	case term.Match:
		if containsApplicationOf(p, x.Scrutinee) {
			return true
		}
		for _, c := range x.Cases {
			if containsApplicationOf(p, c.Body) {
				return true
			}
		}
	}
	return false
}
