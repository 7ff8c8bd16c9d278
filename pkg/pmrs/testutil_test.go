package pmrs

import "github.com/rkestrel/synduce-go/pkg/term"

// listSum builds a tiny PMRS equivalent to:
//
//	Sum(Nil)         -> 0
//	Sum(Cons(hd, tl)) -> hd + Sum(tl)
//
// used as a shared fixture across this package's tests.
func listSum() *PMRS {
	listTy := term.Cons{Name: "list", Args: []term.Type{term.Int}}
	sum := NTSymbol{ID: 0, Name: "Sum"}

	hd := term.Var{ID: 100, Name: "hd", Ty: term.Int}
	tl := term.Var{ID: 101, Name: "tl", Ty: listTy}

	nilRule := Rule{
		ID:      0,
		NT:      sum,
		Pattern: &CtorPattern{Ctor: "Nil", Ty: listTy},
		RHS:     term.IntConst(0),
	}
	consRule := Rule{
		ID:      1,
		NT:      sum,
		Pattern: &CtorPattern{Ctor: "Cons", Fields: []term.Var{hd, tl}, Ty: listTy},
		RHS:     term.Add(hd, term.App{Fn: "Sum", Args: []term.Term{tl}, Ty: term.Int}),
	}

	p, err := New(nil, []NTSymbol{sum}, sum, []Rule{nilRule, consRule})
	if err != nil {
		panic(err)
	}
	return p
}

func listVal(listTy term.Type, vals ...int) term.Term {
	t := term.Term(term.Data{Ctor: "Nil", Ty: listTy})
	for i := len(vals) - 1; i >= 0; i-- {
		t = term.Data{Ctor: "Cons", Args: []term.Term{term.IntConst(vals[i]), t}, Ty: listTy}
	}
	return t
}

func listType() term.Type {
	return term.Cons{Name: "list", Args: []term.Type{term.Int}}
}
