package parse

import (
	"fmt"
	"strings"

	"github.com/rkestrel/synduce-go/internal/ids"
	"github.com/rkestrel/synduce-go/pkg/pmrs"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// RoleNames picks the three non-terminal names a source file's target,
// reference, and representation functions are identified by, defaulting
// to spec section 6's `target`/`spec`/`repr` and overridable per run
// (cmd/synduce's -target, -ref and -repr flags supply the overrides).
type RoleNames struct {
	Target string
	Ref    string
	Repr   string
}

// DefaultRoleNames is spec section 6's default naming convention.
var DefaultRoleNames = RoleNames{Target: "target", Ref: "spec", Repr: "repr"}

func (r RoleNames) withDefaults() RoleNames {
	out := r
	if out.Target == "" {
		out.Target = DefaultRoleNames.Target
	}
	if out.Ref == "" {
		out.Ref = DefaultRoleNames.Ref
	}
	if out.Repr == "" {
		out.Repr = DefaultRoleNames.Repr
	}
	return out
}

// Problem is everything a refine.Loop needs for one hole of a parsed
// ψ-def: the composed reference (spec section 3's f ∘ r), the
// unreduced target skeleton holding the hole, and the hole's signature.
type Problem struct {
	Ref    *pmrs.PMRS
	Target *pmrs.PMRS
	Hole   sygus.HoleSig
}

// LoadProblem parses src with dialect (ParsePMRS or ParseML), builds the
// target/reference/representation PMRSes named by roles, composes
// reference and representation into the single PMRS a refine.Loop takes
// as Ref (pmrs.Compose — identity when the file declares no
// representation function), and extracts holeName's signature.
//
// A file with no representation function (RoleNames.Repr unset and no
// rules under the default "repr") is the common case spec section 3
// calls out explicitly: r is the identity, so Compose's repr == nil
// fast path applies and Ref is exactly the parsed reference PMRS.
func LoadProblem(ctx *ids.Context, reg *term.Registry, dialect func(string, *term.Registry) (*Program, error), src string, roles RoleNames, holeName string) (*Problem, error) {
	roles = roles.withDefaults()

	prog, err := dialect(src, reg)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	target, err := BuildPMRS(ctx, reg, prog, roles.Target)
	if err != nil {
		return nil, fmt.Errorf("parse: building target %q: %w", roles.Target, err)
	}
	ref, err := BuildPMRS(ctx, reg, prog, roles.Ref)
	if err != nil {
		return nil, fmt.Errorf("parse: building reference %q: %w", roles.Ref, err)
	}

	var repr *pmrs.PMRS
	if hasRulesFor(prog, roles.Repr) {
		repr, err = BuildPMRS(ctx, reg, prog, roles.Repr)
		if err != nil {
			return nil, fmt.Errorf("parse: building representation %q: %w", roles.Repr, err)
		}
	}

	composedRef, err := pmrs.Compose(ctx, ref, repr)
	if err != nil {
		return nil, fmt.Errorf("parse: composing reference and representation: %w", err)
	}

	hole, ok := prog.Hole(holeName)
	if !ok {
		return nil, fmt.Errorf("parse: no hole named %q declared (available: %s)", holeName, strings.Join(holeNames(prog), ", "))
	}

	return &Problem{
		Ref:    composedRef,
		Target: target,
		Hole:   sygus.HoleSig{Name: sygus.Hole(hole.Name), Params: hole.Params, Ty: hole.Ty},
	}, nil
}

func hasRulesFor(prog *Program, nt string) bool {
	for _, r := range prog.Rules {
		if r.NT == nt {
			return true
		}
	}
	return false
}

func holeNames(prog *Program) []string {
	names := make([]string, len(prog.Holes))
	for i, h := range prog.Holes {
		names[i] = h.Name
	}
	return names
}
