package term

// This file is a thin, additive set of constructor shorthands, in the
// spirit of the teacher's highlevel_api.go A()/L() helpers — it reduces
// boilerplate when building fixtures and tests, delegating entirely to
// the structs above.

// Int, Bool are the two base types used throughout the worked examples.
var (
	Int    = Base{Kind: TInt}
	Bool   = Base{Kind: TBool}
	String = Base{Kind: TString}
	Char   = Base{Kind: TChar}
)

// IntConst builds an integer literal.
func IntConst(v int) Term { return Const{Value: v, Ty: Int} }

// BoolConst builds a boolean literal.
func BoolConst(v bool) Term { return Const{Value: v, Ty: Bool} }

// NewVar builds a named variable of the given type.
func NewVar(id int64, name string, ty Type) Var { return Var{ID: id, Name: name, Ty: ty} }

// Add, Sub, Mul, Min, Max, Lt, Le, Gt, Ge, Eq, And, Or build binary
// operator terms with the natural result type (Bool for comparisons and
// boolean connectives, the operand type otherwise).
func Add(l, r Term) Term { return Bin{Op: OpAdd, L: l, R: r, Ty: l.Type()} }
func Sub(l, r Term) Term { return Bin{Op: OpSub, L: l, R: r, Ty: l.Type()} }
func Mul(l, r Term) Term { return Bin{Op: OpMul, L: l, R: r, Ty: l.Type()} }
func Min(l, r Term) Term { return Bin{Op: OpMin, L: l, R: r, Ty: l.Type()} }
func Max(l, r Term) Term { return Bin{Op: OpMax, L: l, R: r, Ty: l.Type()} }
func Lt(l, r Term) Term  { return Bin{Op: OpLt, L: l, R: r, Ty: Bool} }
func Le(l, r Term) Term  { return Bin{Op: OpLe, L: l, R: r, Ty: Bool} }
func Gt(l, r Term) Term  { return Bin{Op: OpGt, L: l, R: r, Ty: Bool} }
func Ge(l, r Term) Term  { return Bin{Op: OpGe, L: l, R: r, Ty: Bool} }
func Eq(l, r Term) Term  { return Bin{Op: OpEq, L: l, R: r, Ty: Bool} }
func And(l, r Term) Term { return Bin{Op: OpAnd, L: l, R: r, Ty: Bool} }
func Or(l, r Term) Term  { return Bin{Op: OpOr, L: l, R: r, Ty: Bool} }

// Not negates a boolean term.
func Not(x Term) Term { return Un{Op: OpNot, X: x, Ty: Bool} }
