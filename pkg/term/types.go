// Package term implements the typed surface and internal term language:
// the type model (base types, sum types, arrows, type variables), the
// term model (constants, variables, tuples, operators, application,
// pattern matching, and boxes for the deduction engine), structural
// equality, substitution, and Robinson unification with occurs-check.
//
// Types and terms are closed tagged unions (spec section 9: "the term
// type is a closed sum of kinds"): a small interface plus a fixed set of
// concrete struct implementations, matched with ordinary type switches
// rather than an open class hierarchy.
package term

import (
	"fmt"
	"strings"
	"sync"
)

// Type is the closed sum of type-term kinds.
type Type interface {
	isType()
	String() string
	// Equal checks syntactic equality (not unifiability).
	Equal(Type) bool
}

// BaseKind enumerates the primitive base types.
type BaseKind int

const (
	TInt BaseKind = iota
	TBool
	TString
	TChar
)

func (k BaseKind) String() string {
	switch k {
	case TInt:
		return "int"
	case TBool:
		return "bool"
	case TString:
		return "string"
	case TChar:
		return "char"
	default:
		return "?basekind"
	}
}

// Base is a primitive base type.
type Base struct{ Kind BaseKind }

func (Base) isType()             {}
func (b Base) String() string    { return b.Kind.String() }
func (b Base) Equal(o Type) bool { ob, ok := o.(Base); return ok && ob.Kind == b.Kind }

// TyVar is a fresh type variable, used during unification.
type TyVar struct{ ID int64 }

func (TyVar) isType()          {}
func (v TyVar) String() string { return fmt.Sprintf("'t%d", v.ID) }
func (v TyVar) Equal(o Type) bool {
	ov, ok := o.(TyVar)
	return ok && ov.ID == v.ID
}

// Fun is a function arrow Dom -> Cod.
type Fun struct{ Dom, Cod Type }

func (Fun) isType() {}
func (f Fun) String() string {
	return fmt.Sprintf("(%s -> %s)", f.Dom.String(), f.Cod.String())
}
func (f Fun) Equal(o Type) bool {
	of, ok := o.(Fun)
	return ok && f.Dom.Equal(of.Dom) && f.Cod.Equal(of.Cod)
}

// Tuple is a fixed-arity product type.
type Tuple struct{ Elems []Type }

func (Tuple) isType() {}
func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, " * ") + ")"
}
func (t Tuple) Equal(o Type) bool {
	ot, ok := o.(Tuple)
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

// Cons is a named sum/parametric type applied to type arguments, e.g.
// `list int` is Cons{Name: "list", Args: []Type{Base{TInt}}}.
type Cons struct {
	Name string
	Args []Type
}

func (Cons) isType() {}
func (c Cons) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + " " + strings.Join(parts, " ")
}
func (c Cons) Equal(o Type) bool {
	oc, ok := o.(Cons)
	if !ok || oc.Name != c.Name || len(oc.Args) != len(c.Args) {
		return false
	}
	for i := range c.Args {
		if !c.Args[i].Equal(oc.Args[i]) {
			return false
		}
	}
	return true
}

// VariantDef describes one data-constructor variant of a sum type: its
// globally unique name, the type it belongs to, and its payload types
// (in terms of the owning type's parameters).
type VariantDef struct {
	Name     string
	TypeName string
	Fields   []Type
}

// TypeDef describes a named sum type: its type parameters and variants.
type TypeDef struct {
	Name     string
	Params   []string
	Variants []string // variant names, in declaration order
}

// Registry is the global, read-mostly-after-construction mapping from
// variant name to owning type and from type name to its definition
// (spec section 3: "a registry maps variant name -> type name, and type
// name -> (type-parameter list, body)"). Registry has explicit
// Init/Reinit entry points per spec section 9's guidance to hide process
// globals behind a context object; callers own one Registry per solve
// (or share one across a batch of independent problems with the same
// ADT declarations).
type Registry struct {
	mu       sync.RWMutex
	types    map[string]*TypeDef
	variants map[string]*VariantDef
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reinit()
	return r
}

// Reinit clears the registry back to empty. Called once per independent
// solve per spec section 9.
func (r *Registry) Reinit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = make(map[string]*TypeDef)
	r.variants = make(map[string]*VariantDef)
}

// DeclareType registers a sum type. Returns an error if the name is
// already taken.
func (r *Registry) DeclareType(def *TypeDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[def.Name]; exists {
		return fmt.Errorf("type %q already declared", def.Name)
	}
	r.types[def.Name] = def
	return nil
}

// DeclareVariant registers a data-constructor variant. Variant names are
// globally unique (spec section 3); returns an error on collision or if
// the owning type was not declared first.
func (r *Registry) DeclareVariant(v *VariantDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.variants[v.Name]; exists {
		return fmt.Errorf("variant %q already declared", v.Name)
	}
	if _, ok := r.types[v.TypeName]; !ok {
		return fmt.Errorf("variant %q refers to undeclared type %q", v.Name, v.TypeName)
	}
	r.variants[v.Name] = v
	r.types[v.TypeName].Variants = append(r.types[v.TypeName].Variants, v.Name)
	return nil
}

// LookupVariant returns the VariantDef for a constructor name.
func (r *Registry) LookupVariant(name string) (*VariantDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[name]
	return v, ok
}

// LookupType returns the TypeDef for a type name.
func (r *Registry) LookupType(name string) (*TypeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// VariantsOf returns every variant name declared for a type, in
// declaration order. Used by C2 to check that every constructor
// appearing as a PMRS pattern is accounted for.
func (r *Registry) VariantsOf(typeName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[typeName]
	if !ok {
		return nil
	}
	out := make([]string, len(t.Variants))
	copy(out, t.Variants)
	return out
}
