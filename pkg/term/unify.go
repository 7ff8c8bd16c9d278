package term

import (
	"fmt"

	"github.com/pkg/errors"
)

// TySubst is a substitution over type variables, applied by walking
// through chained bindings the same way the term-level Subst.Walk does
// (grounded on the teacher's core.go Substitution.Walk union-find-less
// chase, and on the occurs-check substitution composition shown in
// 0dfb6231_violethaze74-go-to-github's types2 subst.go and
// a04c4237_SeleniaProject-Orizon's algorithm_w.go).
type TySubst struct {
	bindings map[int64]Type
}

// NewTySubst returns the empty type substitution.
func NewTySubst() *TySubst {
	return &TySubst{bindings: make(map[int64]Type)}
}

// Apply substitutes every type variable in t per the bindings, recursing
// through compound types.
func (s *TySubst) Apply(t Type) Type {
	switch x := t.(type) {
	case TyVar:
		if bound, ok := s.bindings[x.ID]; ok {
			return s.Apply(bound)
		}
		return x
	case Fun:
		return Fun{Dom: s.Apply(x.Dom), Cod: s.Apply(x.Cod)}
	case Tuple:
		elems := make([]Type, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = s.Apply(e)
		}
		return Tuple{Elems: elems}
	case Cons:
		args := make([]Type, len(x.Args))
		for i, a := range x.Args {
			args[i] = s.Apply(a)
		}
		return Cons{Name: x.Name, Args: args}
	default:
		return t
	}
}

// Compose returns a new substitution equivalent to first applying s then
// other, i.e. (other ∘ s).
func (s *TySubst) Compose(other *TySubst) *TySubst {
	out := NewTySubst()
	for id, t := range s.bindings {
		out.bindings[id] = other.Apply(t)
	}
	for id, t := range other.bindings {
		if _, exists := out.bindings[id]; !exists {
			out.bindings[id] = t
		}
	}
	return out
}

func (s *TySubst) bind(id int64, t Type) *TySubst {
	out := NewTySubst()
	for k, v := range s.bindings {
		out.bindings[k] = v
	}
	out.bindings[id] = t
	return out
}

// TypeEq is one equation to solve during unification.
type TypeEq struct{ LHS, RHS Type }

// occursCheckErr and unifyMismatchErr are sentinel causes distinguished
// by errors.Cause so callers can tell circularity from plain mismatch,
// per spec section 4.1 ("unify_one producing a substitution or failing
// with a circularity/mismatch reason").
type occursCheckErr struct{ varID int64 }

func (e *occursCheckErr) Error() string {
	return fmt.Sprintf("occurs check failed for type variable 't%d'", e.varID)
}

type mismatchErr struct{ a, b Type }

func (e *mismatchErr) Error() string {
	return fmt.Sprintf("cannot unify %s with %s", e.a.String(), e.b.String())
}

func occursIn(id int64, t Type) bool {
	switch x := t.(type) {
	case TyVar:
		return x.ID == id
	case Fun:
		return occursIn(id, x.Dom) || occursIn(id, x.Cod)
	case Tuple:
		for _, e := range x.Elems {
			if occursIn(id, e) {
				return true
			}
		}
		return false
	case Cons:
		for _, a := range x.Args {
			if occursIn(id, a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// UnifyOne unifies a single pair of types under an existing
// substitution, returning an updated substitution or a diagnostic error
// (not a panic) describing an occurs-check circularity or a structural
// mismatch.
func UnifyOne(sub *TySubst, a, b Type) (*TySubst, error) {
	a, b = sub.Apply(a), sub.Apply(b)

	if a.Equal(b) {
		return sub, nil
	}

	if av, ok := a.(TyVar); ok {
		if occursIn(av.ID, b) {
			return nil, errors.WithStack(&occursCheckErr{varID: av.ID})
		}
		return sub.bind(av.ID, b), nil
	}
	if bv, ok := b.(TyVar); ok {
		if occursIn(bv.ID, a) {
			return nil, errors.WithStack(&occursCheckErr{varID: bv.ID})
		}
		return sub.bind(bv.ID, a), nil
	}

	switch at := a.(type) {
	case Fun:
		bt, ok := b.(Fun)
		if !ok {
			return nil, errors.WithStack(&mismatchErr{a, b})
		}
		s1, err := UnifyOne(sub, at.Dom, bt.Dom)
		if err != nil {
			return nil, err
		}
		return UnifyOne(s1, at.Cod, bt.Cod)
	case Tuple:
		bt, ok := b.(Tuple)
		if !ok || len(bt.Elems) != len(at.Elems) {
			return nil, errors.WithStack(&mismatchErr{a, b})
		}
		cur := sub
		for i := range at.Elems {
			var err error
			cur, err = UnifyOne(cur, at.Elems[i], bt.Elems[i])
			if err != nil {
				return nil, err
			}
		}
		return cur, nil
	case Cons:
		bt, ok := b.(Cons)
		if !ok || bt.Name != at.Name || len(bt.Args) != len(at.Args) {
			return nil, errors.WithStack(&mismatchErr{a, b})
		}
		cur := sub
		for i := range at.Args {
			var err error
			cur, err = UnifyOne(cur, at.Args[i], bt.Args[i])
			if err != nil {
				return nil, err
			}
		}
		return cur, nil
	default:
		return nil, errors.WithStack(&mismatchErr{a, b})
	}
}

// Unify solves a list of type equations with standard Robinson
// unification, folding UnifyOne over the list left to right.
func Unify(eqs []TypeEq) (*TySubst, error) {
	sub := NewTySubst()
	for _, eq := range eqs {
		var err error
		sub, err = UnifyOne(sub, eq.LHS, eq.RHS)
		if err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// IsOccursCheckFailure reports whether err (as returned by UnifyOne or
// Unify) was a circularity rather than a plain mismatch.
func IsOccursCheckFailure(err error) bool {
	_, ok := errors.Cause(err).(*occursCheckErr)
	return ok
}
