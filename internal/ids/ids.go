// Package ids provides the process-wide fresh-identifier allocators the
// core relies on: integer counters for scalar variables, PMRS rules and
// non-terminals, and SyGuS/SMT-facing names, plus a UUID-stamped run id
// for statistics records.
//
// Per the design note on global state (spec section 9), these allocators
// are not hidden process globals: they live on a *Context that the
// driver constructs once per solve and threads through every component.
// Reinit resets counters between independent solves (or between the two
// instances a multi-configuration driver races against each other)
// without requiring a process restart.
package ids

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Context owns every fresh-id counter for one solve. It is safe for
// concurrent use: the only concurrency inside a single core instance is
// the bounded/unbounded lemma race and the SyGuS/SMT call promises, both
// of which may mint ids from the same Context.
type Context struct {
	runID    uuid.UUID
	scalar   atomic.Int64
	rule     atomic.Int64
	nt       atomic.Int64
	sygusVar atomic.Int64
	box      atomic.Int64
}

// New constructs a fresh Context with a new run id.
func New() *Context {
	c := &Context{runID: uuid.New()}
	return c
}

// Reinit resets every counter to zero and mints a new run id. Call it at
// the start of each independent Refine.Loop.Run, per spec section 9's
// explicit init/reinit contract.
func (c *Context) Reinit() {
	c.runID = uuid.New()
	c.scalar.Store(0)
	c.rule.Store(0)
	c.nt.Store(0)
	c.sygusVar.Store(0)
	c.box.Store(0)
}

// RunID returns the UUID stamped on this solve; cmd/synduce writes it
// into the persisted statistics record.
func (c *Context) RunID() string { return c.runID.String() }

// FreshScalar returns the next globally-unique scalar variable id, used
// by recursion-elimination (C4) and lemma argument naming (C9).
func (c *Context) FreshScalar() int64 { return c.scalar.Add(1) - 1 }

// FreshScalarName returns an ASCII-safe, collision-free name suitable
// for a SyGuS declare-var, e.g. "x!3".
func (c *Context) FreshScalarName() string {
	return fmt.Sprintf("x!%d", c.FreshScalar())
}

// FreshRuleID returns the next PMRS rule arena id (C2).
func (c *Context) FreshRuleID() int64 { return c.rule.Add(1) - 1 }

// FreshNTID returns the next PMRS non-terminal arena id (C2).
func (c *Context) FreshNTID() int64 { return c.nt.Add(1) - 1 }

// FreshSyGuSVarName mints an ASCII-safe identifier for a SyGuS
// declare-var or synth-fun argument.
func (c *Context) FreshSyGuSVarName(hint string) string {
	return fmt.Sprintf("%s!%d", sanitize(hint), c.sygusVar.Add(1)-1)
}

// FreshBoxID returns the next box id used by the deduction engine (C7).
func (c *Context) FreshBoxID() int64 { return c.box.Add(1) - 1 }

func sanitize(s string) string {
	if s == "" {
		return "v"
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
