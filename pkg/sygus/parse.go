package sygus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/rkestrel/synduce-go/pkg/term"
)

// sexpr is a minimal parsed S-expression: either an atom or a list.
type sexpr struct {
	atom string
	list []sexpr
}

// parseSexpr tokenizes and parses one S-expression from the start of s,
// returning it and the unconsumed remainder.
func parseSexpr(s string) (sexpr, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sexpr{}, "", errors.New("unexpected end of input")
	}
	if s[0] != '(' {
		end := strings.IndexAny(s, " \t\n()")
		if end == -1 {
			end = len(s)
		}
		return sexpr{atom: s[:end]}, s[end:], nil
	}
	rest := s[1:]
	var items []sexpr
	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return sexpr{}, "", errors.New("unbalanced parentheses")
		}
		if rest[0] == ')' {
			return sexpr{list: items}, rest[1:], nil
		}
		var item sexpr
		var err error
		item, rest, err = parseSexpr(rest)
		if err != nil {
			return sexpr{}, "", err
		}
		items = append(items, item)
	}
}

// ParseDefineFun parses one `(define-fun name ((arg Sort)...) Sort body)`
// response line, as CVC5/Z3 emit for each hole of a successful SyGuS
// solve, returning the hole name and its body as a term.Term.
func ParseDefineFun(line string, varTypes map[string]term.Type) (Hole, term.Term, error) {
	sx, rest, err := parseSexpr(line)
	if err != nil {
		return "", nil, errors.Wrap(err, "parsing define-fun")
	}
	if strings.TrimSpace(rest) != "" {
		return "", nil, errors.New("trailing content after define-fun")
	}
	if len(sx.list) < 5 || sx.list[0].atom != "define-fun" {
		return "", nil, errors.Errorf("not a define-fun form: %q", line)
	}
	name := sx.list[1].atom
	body := sx.list[len(sx.list)-1]

	local := make(map[string]term.Type, len(varTypes))
	for k, v := range varTypes {
		local[k] = v
	}
	for _, argPair := range sx.list[2].list {
		if len(argPair.list) == 2 {
			local[argPair.list[0].atom] = smtSortToType(argPair.list[1].atom)
		}
	}

	t, err := sexprToTerm(body, local)
	if err != nil {
		return "", nil, err
	}
	return Hole(name), t, nil
}

func smtSortToType(name string) term.Type {
	if name == "Bool" {
		return term.Bool
	}
	return term.Int
}

// sexprToTerm converts a parsed S-expression into a term.Term, using
// varTypes to resolve free variable sorts and inferring operator result
// types structurally. Covers exactly the operator vocabulary pkg/grammar
// and Emit's ToSMT can produce; anything else is reported as an error
// rather than silently misinterpreted.
func sexprToTerm(sx sexpr, varTypes map[string]term.Type) (term.Term, error) {
	if sx.atom != "" {
		return atomToTerm(sx.atom, varTypes)
	}
	if len(sx.list) == 0 {
		return nil, errors.New("empty list in synthesized term")
	}
	head := sx.list[0].atom
	args := sx.list[1:]

	argTerms := make([]term.Term, len(args))
	for i, a := range args {
		t, err := sexprToTerm(a, varTypes)
		if err != nil {
			return nil, err
		}
		argTerms[i] = t
	}

	switch head {
	case "+", "-", "*", "min", "max":
		if len(argTerms) == 1 && head == "-" {
			return term.Un{Op: term.OpNeg, X: argTerms[0], Ty: argTerms[0].Type()}, nil
		}
		if len(argTerms) != 2 {
			return nil, fmt.Errorf("operator %s expects 2 arguments, got %d", head, len(argTerms))
		}
		op := map[string]term.BinOpKind{"+": term.OpAdd, "-": term.OpSub, "*": term.OpMul, "min": term.OpMin, "max": term.OpMax}[head]
		return term.Bin{Op: op, L: argTerms[0], R: argTerms[1], Ty: argTerms[0].Type()}, nil
	case "=", "distinct", "<=", "<", ">=", ">":
		if len(argTerms) != 2 {
			return nil, fmt.Errorf("operator %s expects 2 arguments, got %d", head, len(argTerms))
		}
		op := map[string]term.BinOpKind{"=": term.OpEq, "distinct": term.OpNeq, "<=": term.OpLe, "<": term.OpLt, ">=": term.OpGe, ">": term.OpGt}[head]
		return term.Bin{Op: op, L: argTerms[0], R: argTerms[1], Ty: term.Bool}, nil
	case "and", "or":
		if len(argTerms) != 2 {
			return nil, fmt.Errorf("operator %s expects 2 arguments, got %d", head, len(argTerms))
		}
		op := term.OpAnd
		if head == "or" {
			op = term.OpOr
		}
		return term.Bin{Op: op, L: argTerms[0], R: argTerms[1], Ty: term.Bool}, nil
	case "not":
		if len(argTerms) != 1 {
			return nil, errors.New("not expects 1 argument")
		}
		return term.Un{Op: term.OpNot, X: argTerms[0], Ty: term.Bool}, nil
	case "ite":
		if len(argTerms) != 3 {
			return nil, errors.New("ite expects 3 arguments")
		}
		return term.Ite{Cond: argTerms[0], Then: argTerms[1], Else: argTerms[2], Ty: argTerms[1].Type()}, nil
	case "mkTuple":
		elemTypes := make([]term.Type, len(argTerms))
		for i, a := range argTerms {
			elemTypes[i] = a.Type()
		}
		return term.Tup{Elems: argTerms, Ty: term.Tuple{Elems: elemTypes}}, nil
	default:
		return nil, fmt.Errorf("unsupported synthesized operator %q", head)
	}
}

func atomToTerm(atom string, varTypes map[string]term.Type) (term.Term, error) {
	switch atom {
	case "true":
		return term.BoolConst(true), nil
	case "false":
		return term.BoolConst(false), nil
	}
	if n, err := strconv.Atoi(atom); err == nil {
		return term.IntConst(n), nil
	}
	if ty, ok := varTypes[atom]; ok {
		return term.Var{Name: atom, Ty: ty}, nil
	}
	return nil, fmt.Errorf("unresolved identifier %q in synthesized term", atom)
}
