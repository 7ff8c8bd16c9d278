package term

import (
	"fmt"
	"sort"
	"strings"
)

// Term is the closed sum of term kinds described in spec section 3: a
// tagged tree over constants, variables, tuples, binary/unary/ite
// operators, function application, pattern-match/data-constructor form,
// and boxes. Every Term carries a Type; terms are value objects compared
// structurally by Equal.
type Term interface {
	isTerm()
	Type() Type
	String() string
	Equal(Term) bool
}

// Var is a logic/program variable: a hole parameter, a bound pattern
// variable, or a fresh scalar introduced by recursion-elimination.
type Var struct {
	ID   int64
	Name string
	Ty   Type
}

func (Var) isTerm()         {}
func (v Var) Type() Type    { return v.Ty }
func (v Var) String() string {
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprintf("v%d", v.ID)
}
func (v Var) Equal(o Term) bool {
	ov, ok := o.(Var)
	return ok && ov.ID == v.ID
}

// Const is a literal constant of base type.
type Const struct {
	Value interface{}
	Ty    Type
}

func (Const) isTerm()          {}
func (c Const) Type() Type     { return c.Ty }
func (c Const) String() string { return fmt.Sprintf("%v", c.Value) }
func (c Const) Equal(o Term) bool {
	oc, ok := o.(Const)
	return ok && oc.Value == c.Value
}

// Tup is a tuple constructor.
type Tup struct {
	Elems []Term
	Ty    Type
}

func (Tup) isTerm()      {}
func (t Tup) Type() Type { return t.Ty }
func (t Tup) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t Tup) Equal(o Term) bool {
	ot, ok := o.(Tup)
	if !ok || len(ot.Elems) != len(t.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(ot.Elems[i]) {
			return false
		}
	}
	return true
}

// BinOpKind enumerates binary operators available to the linear integer
// arithmetic + min/max/ite + boolean theory spec section 1 commits to.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpMin
	OpMax
)

var binOpNames = map[BinOpKind]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpEq: "=", OpNeq: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||", OpMin: "min", OpMax: "max",
}

func (k BinOpKind) String() string { return binOpNames[k] }

// Bin is a binary operator application.
type Bin struct {
	Op   BinOpKind
	L, R Term
	Ty   Type
}

func (Bin) isTerm()      {}
func (b Bin) Type() Type { return b.Ty }
func (b Bin) String() string {
	if b.Op == OpMin || b.Op == OpMax {
		return fmt.Sprintf("%s(%s, %s)", b.Op, b.L.String(), b.R.String())
	}
	return fmt.Sprintf("(%s %s %s)", b.L.String(), b.Op, b.R.String())
}
func (b Bin) Equal(o Term) bool {
	ob, ok := o.(Bin)
	return ok && ob.Op == b.Op && b.L.Equal(ob.L) && b.R.Equal(ob.R)
}

// UnOpKind enumerates unary operators.
type UnOpKind int

const (
	OpNeg UnOpKind = iota
	OpNot
)

func (k UnOpKind) String() string {
	if k == OpNeg {
		return "-"
	}
	return "!"
}

// Un is a unary operator application.
type Un struct {
	Op UnOpKind
	X  Term
	Ty Type
}

func (Un) isTerm()          {}
func (u Un) Type() Type     { return u.Ty }
func (u Un) String() string { return fmt.Sprintf("%s%s", u.Op, u.X.String()) }
func (u Un) Equal(o Term) bool {
	ou, ok := o.(Un)
	return ok && ou.Op == u.Op && u.X.Equal(ou.X)
}

// Ite is a conditional expression.
type Ite struct {
	Cond, Then, Else Term
	Ty               Type
}

func (Ite) isTerm()      {}
func (i Ite) Type() Type { return i.Ty }
func (i Ite) String() string {
	return fmt.Sprintf("(if %s then %s else %s)", i.Cond.String(), i.Then.String(), i.Else.String())
}
func (i Ite) Equal(o Term) bool {
	oi, ok := o.(Ite)
	return ok && i.Cond.Equal(oi.Cond) && i.Then.Equal(oi.Then) && i.Else.Equal(oi.Else)
}

// App is function application: Fn is the applied symbol's name (a PMRS
// non-terminal, a hole, or an uninterpreted function), Args its actuals.
type App struct {
	Fn   string
	Args []Term
	Ty   Type
}

func (App) isTerm()      {}
func (a App) Type() Type { return a.Ty }
func (a App) String() string {
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	return a.Fn + " " + strings.Join(parts, " ")
}
func (a App) Equal(o Term) bool {
	oa, ok := o.(App)
	if !ok || oa.Fn != a.Fn || len(oa.Args) != len(a.Args) {
		return false
	}
	for i := range a.Args {
		if !a.Args[i].Equal(oa.Args[i]) {
			return false
		}
	}
	return true
}

// Data is a data-constructor application, e.g. `Cons(h, t)`.
type Data struct {
	Ctor string
	Args []Term
	Ty   Type
}

func (Data) isTerm()      {}
func (d Data) Type() Type { return d.Ty }
func (d Data) String() string {
	parts := make([]string, len(d.Args))
	for i, a := range d.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", d.Ctor, strings.Join(parts, ", "))
}
func (d Data) Equal(o Term) bool {
	od, ok := o.(Data)
	if !ok || od.Ctor != d.Ctor || len(od.Args) != len(d.Args) {
		return false
	}
	for i := range d.Args {
		if !d.Args[i].Equal(od.Args[i]) {
			return false
		}
	}
	return true
}

// MatchCase is one arm of a Match: a constructor pattern with bound
// field variables, and a body in scope of those bindings.
type MatchCase struct {
	Ctor string
	Vars []Var
	Body Term
}

// Match is a pattern-match over a scrutinee, used both in PMRS rule
// right-hand sides and directly as a term.
type Match struct {
	Scrutinee Term
	Cases     []MatchCase
	Ty        Type
}

func (Match) isTerm()      {}
func (m Match) Type() Type { return m.Ty }
func (m Match) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "match %s with ", m.Scrutinee.String())
	for _, c := range m.Cases {
		fmt.Fprintf(&b, "| %s -> %s ", c.Ctor, c.Body.String())
	}
	return b.String()
}
func (m Match) Equal(o Term) bool {
	om, ok := o.(Match)
	if !ok || !m.Scrutinee.Equal(om.Scrutinee) || len(om.Cases) != len(m.Cases) {
		return false
	}
	for i := range m.Cases {
		if m.Cases[i].Ctor != om.Cases[i].Ctor || !m.Cases[i].Body.Equal(om.Cases[i].Body) {
			return false
		}
	}
	return true
}

// BoxKind distinguishes the two box flavors the deduction engine (C7)
// uses: Positional boxes stand for a bound argument at a fixed index,
// Free boxes stand for a yet-unbound subexpression constrained to an
// allowed-variable set.
type BoxKind int

const (
	BoxPositional BoxKind = iota
	BoxFree
)

// Box is an indexed or positional placeholder substituted for a
// subexpression during C7's boxing search.
type Box struct {
	ID   int64
	Kind BoxKind
	Ty   Type
}

func (Box) isTerm()      {}
func (b Box) Type() Type { return b.Ty }
func (b Box) String() string {
	if b.Kind == BoxPositional {
		return fmt.Sprintf("[arg#%d]", b.ID)
	}
	return fmt.Sprintf("[box#%d]", b.ID)
}
func (b Box) Equal(o Term) bool {
	ob, ok := o.(Box)
	return ok && ob.Kind == b.Kind && ob.ID == b.ID
}

// Size returns the number of term-tree nodes, used by C7's "Cheap Occam"
// rejection (any guess whose expression size exceeds 15 is dropped).
func Size(t Term) int {
	switch x := t.(type) {
	case Tup:
		n := 1
		for _, e := range x.Elems {
			n += Size(e)
		}
		return n
	case Bin:
		return 1 + Size(x.L) + Size(x.R)
	case Un:
		return 1 + Size(x.X)
	case Ite:
		return 1 + Size(x.Cond) + Size(x.Then) + Size(x.Else)
	case App:
		n := 1
		for _, a := range x.Args {
			n += Size(a)
		}
		return n
	case Data:
		n := 1
		for _, a := range x.Args {
			n += Size(a)
		}
		return n
	case Match:
		n := 1 + Size(x.Scrutinee)
		for _, c := range x.Cases {
			n += Size(c.Body)
		}
		return n
	default:
		return 1
	}
}

// SortedVarNames returns the names of vs sorted for reproducible output,
// used wherever a variable set must be printed or hashed deterministically
// (e.g. SyGuS declare-var emission order).
func SortedVarNames(vs []Var) []string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.String()
	}
	sort.Strings(names)
	return names
}
