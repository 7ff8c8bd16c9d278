package term

// FreeVariables collects every distinct variable occurring in t, in
// first-occurrence order. Match bindings (MatchCase.Vars) are excluded
// since they are bound within the case's Body, not free.
func FreeVariables(t Term) []Var {
	seen := make(map[int64]bool)
	var out []Var
	var walk func(Term, map[int64]bool)
	walk = func(t Term, bound map[int64]bool) {
		switch x := t.(type) {
		case Var:
			if bound[x.ID] || seen[x.ID] {
				return
			}
			seen[x.ID] = true
			out = append(out, x)
		case Tup:
			for _, e := range x.Elems {
				walk(e, bound)
			}
		case Bin:
			walk(x.L, bound)
			walk(x.R, bound)
		case Un:
			walk(x.X, bound)
		case Ite:
			walk(x.Cond, bound)
			walk(x.Then, bound)
			walk(x.Else, bound)
		case App:
			for _, a := range x.Args {
				walk(a, bound)
			}
		case Data:
			for _, a := range x.Args {
				walk(a, bound)
			}
		case Match:
			walk(x.Scrutinee, bound)
			for _, c := range x.Cases {
				inner := make(map[int64]bool, len(bound)+len(c.Vars))
				for k := range bound {
					inner[k] = true
				}
				for _, v := range c.Vars {
					inner[v.ID] = true
				}
				walk(c.Body, inner)
			}
		}
	}
	walk(t, map[int64]bool{})
	return out
}

// MatchesSubpattern reports whether pat is a structural subpattern of t
// — i.e. pat, viewed as a linear pattern whose variables may match any
// subterm, can be instantiated by some substitution to equal t exactly.
// On success it returns the witnessing substitution (pattern variable ->
// matched subterm).
func MatchesSubpattern(t, pat Term) (*Subst, bool) {
	sub := NewSubst()
	ok := matchInto(t, pat, sub)
	return sub, ok
}

func matchInto(t, pat Term, sub *Subst) bool {
	if pv, ok := pat.(Var); ok {
		if existing := sub.Lookup(pv); existing != nil {
			return existing.Equal(t)
		}
		*sub = *sub.Bind(pv, t)
		return true
	}

	switch p := pat.(type) {
	case Const:
		c, ok := t.(Const)
		return ok && c.Value == p.Value
	case Tup:
		tt, ok := t.(Tup)
		if !ok || len(tt.Elems) != len(p.Elems) {
			return false
		}
		for i := range p.Elems {
			if !matchInto(tt.Elems[i], p.Elems[i], sub) {
				return false
			}
		}
		return true
	case Bin:
		tb, ok := t.(Bin)
		return ok && tb.Op == p.Op && matchInto(tb.L, p.L, sub) && matchInto(tb.R, p.R, sub)
	case Un:
		tu, ok := t.(Un)
		return ok && tu.Op == p.Op && matchInto(tu.X, p.X, sub)
	case Ite:
		ti, ok := t.(Ite)
		return ok && matchInto(ti.Cond, p.Cond, sub) && matchInto(ti.Then, p.Then, sub) && matchInto(ti.Else, p.Else, sub)
	case App:
		ta, ok := t.(App)
		if !ok || ta.Fn != p.Fn || len(ta.Args) != len(p.Args) {
			return false
		}
		for i := range p.Args {
			if !matchInto(ta.Args[i], p.Args[i], sub) {
				return false
			}
		}
		return true
	case Data:
		td, ok := t.(Data)
		if !ok || td.Ctor != p.Ctor || len(td.Args) != len(p.Args) {
			return false
		}
		for i := range p.Args {
			if !matchInto(td.Args[i], p.Args[i], sub) {
				return false
			}
		}
		return true
	default:
		return t.Equal(pat)
	}
}
