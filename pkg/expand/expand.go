// Package expand implements bounded pointwise term expansion: growing a
// seed set of terms into the two term families a refinement loop needs,
// T (maximally-reducible terms ready to drive equation building) and U
// (boundary terms one split short of maximal reducibility, kept so a
// later counterexample-generalization pass can resume expanding from
// exactly the right place rather than restarting from scratch).
//
// Grounded on the teacher's search.go iterative-stack DFS: the same
// "frame with a depth/budget, push children, stop at a cutoff" shape,
// retargeted from finite-domain backtracking search to splitting a free
// variable of declared sum type into its constructors one level at a time.
package expand

import (
	"fmt"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// defaultReduceLimit bounds the Reduce call IsMR makes internally while
// deciding whether a candidate term is already maximally reducible.
const defaultReduceLimit = 2000

// maxSplitDepth bounds how many nested variable splits
// ToMaximallyReducible performs before giving up and reporting a
// boundary term. Recursive sum types (lists, trees) admit an
// unboundedly deep chain of splits, so an unconditional recursion would
// never terminate; ExpandLoop's explicit depth/cut parameters are the
// normal way callers bound this, but ToMaximallyReducible's own spec
// signature carries no such parameter, so it falls back to this fixed
// ceiling rather than risk an unbounded stack.
const maxSplitDepth = 8

// Expander holds the fresh-id allocator and type registry an expansion
// run needs to mint new field variables when splitting a scrutinee.
type Expander struct {
	Ctx      *ids.Context
	Registry *term.Registry
}

// New constructs an Expander over a shared id allocator and type registry.
func New(ctx *ids.Context, registry *term.Registry) *Expander {
	return &Expander{Ctx: ctx, Registry: registry}
}

// ToMaximallyReducible recursively splits t's free variables of declared
// sum type until every resulting branch is maximally reducible (added to
// tPrime) or no further splittable variable remains (added to uPrime,
// the boundary spec section 4.3 calls U').
func (e *Expander) ToMaximallyReducible(p *pmrs.PMRS, t term.Term) (tPrime, uPrime []term.Term) {
	return e.toMaximallyReducible(p, t, 0)
}

func (e *Expander) toMaximallyReducible(p *pmrs.PMRS, t term.Term, depth int) (tPrime, uPrime []term.Term) {
	if pmrs.IsMR(p, t, defaultReduceLimit) {
		return []term.Term{t}, nil
	}
	if depth >= maxSplitDepth {
		return nil, []term.Term{t}
	}
	v, ok := e.firstSplittableVar(t)
	if !ok {
		return nil, []term.Term{t}
	}
	for _, branch := range e.splitOnVariable(t, v) {
		bt, bu := e.toMaximallyReducible(p, branch, depth+1)
		tPrime = append(tPrime, bt...)
		uPrime = append(uPrime, bu...)
	}
	return tPrime, uPrime
}

// ExpandLoop grows seed into T/U by repeated splitting, bounded by depth
// (maximum number of splits per branch) and cut (total term budget).
// Processing is FIFO over a depth-tagged queue: since children are always
// enqueued after their parent and split branches are generated in the
// registry's declaration order (which fresh-id minting also respects),
// this gives the deterministic minimum-depth-first, then
// lexicographic-fresh-id tie-break spec section 4.3 requires.
func (e *Expander) ExpandLoop(p *pmrs.PMRS, seed []term.Term, depth, cut int) (T, U []term.Term) {
	type frame struct {
		t     term.Term
		depth int
	}
	queue := make([]frame, 0, len(seed))
	for _, s := range seed {
		queue = append(queue, frame{t: s, depth: 0})
	}
	for len(queue) > 0 && len(T)+len(U) < cut {
		f := queue[0]
		queue = queue[1:]

		if pmrs.IsMR(p, f.t, defaultReduceLimit) {
			T = append(T, f.t)
			continue
		}
		if f.depth >= depth {
			U = append(U, f.t)
			continue
		}
		v, ok := e.firstSplittableVar(f.t)
		if !ok {
			U = append(U, f.t)
			continue
		}
		for _, branch := range e.splitOnVariable(f.t, v) {
			queue = append(queue, frame{t: branch, depth: f.depth + 1})
		}
	}
	// Anything still queued when the cut fires is an honest boundary term,
	// not a silently dropped one.
	for _, f := range queue {
		U = append(U, f.t)
	}
	return T, U
}

// IsMRAll reports whether every term in terms is maximally reducible
// under p, used as the equation-building precondition of spec section 4.4.
func IsMRAll(p *pmrs.PMRS, terms []term.Term, limit int) bool {
	for _, t := range terms {
		if !pmrs.IsMR(p, t, limit) {
			return false
		}
	}
	return true
}

// firstSplittableVar returns the first free variable of t whose type is a
// declared sum type with at least one registered variant, in
// FreeVariables order (which is itself deterministic recursion order).
func (e *Expander) firstSplittableVar(t term.Term) (term.Var, bool) {
	for _, v := range term.FreeVariables(t) {
		cons, ok := v.Ty.(term.Cons)
		if !ok {
			continue
		}
		if len(e.Registry.VariantsOf(cons.Name)) > 0 {
			return v, true
		}
	}
	return term.Var{}, false
}

// splitOnVariable returns one branch of t per constructor variant of v's
// type, each branch substituting v for a fresh constructor application
// whose fields are themselves fresh variables.
func (e *Expander) splitOnVariable(t term.Term, v term.Var) []term.Term {
	cons := v.Ty.(term.Cons)
	variants := e.Registry.VariantsOf(cons.Name)
	branches := make([]term.Term, 0, len(variants))
	for _, name := range variants {
		def, ok := e.Registry.LookupVariant(name)
		if !ok {
			continue
		}
		fields := make([]term.Term, len(def.Fields))
		for i, fty := range def.Fields {
			id := e.Ctx.FreshScalar()
			fields[i] = term.Var{ID: id, Name: fmt.Sprintf("x%d", id), Ty: fty}
		}
		sub := term.NewSubst().Bind(v, term.Data{Ctor: name, Args: fields, Ty: v.Ty})
		branches = append(branches, sub.Apply(t))
	}
	return branches
}
