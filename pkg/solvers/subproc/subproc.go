// Package subproc is the default SyGuS/SMT adapter: it shells out to an
// installed CVC5, CVC4, or Z3 binary, feeding it a SyGuS-IF command
// script over stdin and parsing its stdout response. Grounded on the
// teacher's pattern of treating an external engine as an opaque,
// cancellable black box reached through context.Context (gokando's
// search.go/solver.go do the same for its own in-process search, here
// the "external engine" is a real subprocess instead of a goroutine).
package subproc

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rkestrel/synduce-go/pkg/solvers"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/synderr"
	"github.com/rkestrel/synduce-go/pkg/term"
)

// Adapter invokes a SyGuS-IF-speaking solver binary as a subprocess per
// call. Version is logged but not otherwise enforced (spec section 9:
// "version-tagged" solver identity, useful for reproducing a bug report
// against the exact binary that produced it).
type Adapter struct {
	BinaryPath string
	Args       []string
	Version    string
	Logger     *logrus.Logger
}

// New constructs a subprocess adapter for binaryPath (e.g. "cvc5",
// "cvc4", "z3"), defaulting to the single flag "--lang=sygus2" when no
// args are given.
func New(binaryPath string, args ...string) *Adapter {
	if len(args) == 0 {
		args = []string{"--lang=sygus2"}
	}
	return &Adapter{BinaryPath: binaryPath, Args: args, Logger: logrus.StandardLogger()}
}

// Solve writes cmds to the solver's stdin and parses its response.
func (a *Adapter) Solve(ctx context.Context, cmds []sygus.Command) (solvers.Response, error) {
	var stdin bytes.Buffer
	for _, c := range cmds {
		stdin.WriteString(string(c))
		stdin.WriteByte('\n')
	}

	cmd := exec.CommandContext(ctx, a.BinaryPath, a.Args...)
	cmd.Stdin = &stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.Logger.WithFields(logrus.Fields{"binary": a.BinaryPath, "version": a.Version}).Debug("invoking sygus solver")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return solvers.Response{}, synderr.Resource(errors.Wrap(ctx.Err(), "solver call cancelled"))
		}
		return solvers.Response{}, synderr.Solver(errors.Wrapf(err, "solver process failed: %s", stderr.String()))
	}
	return parseResponse(stdout.String())
}

// CheckSat writes a plain declare-const/assert/check-sat script and
// interprets the sat/unsat/unknown verdict line.
func (a *Adapter) CheckSat(ctx context.Context, check solvers.SMTCheck) (solvers.SatResult, error) {
	var b strings.Builder
	for _, v := range check.Vars {
		b.WriteString("(declare-const " + v.Name + " " + smtSort(v.Ty) + ")\n")
	}
	for _, assertion := range check.Asserts {
		b.WriteString("(assert " + assertion + ")\n")
	}
	b.WriteString("(check-sat)\n")

	cmd := exec.CommandContext(ctx, a.BinaryPath, a.Args...)
	cmd.Stdin = strings.NewReader(b.String())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return solvers.SatUnknown, synderr.Resource(errors.Wrap(ctx.Err(), "smt call cancelled"))
		}
		return solvers.SatUnknown, synderr.Solver(errors.Wrapf(err, "smt process failed: %s", stderr.String()))
	}
	switch strings.TrimSpace(firstLine(stdout.String())) {
	case "sat":
		return solvers.SatSat, nil
	case "unsat":
		return solvers.SatUnsat, nil
	default:
		return solvers.SatUnknown, nil
	}
}

func smtSort(t term.Type) string {
	if b, ok := t.(term.Base); ok && b.Kind == term.TBool {
		return "Bool"
	}
	return "Int"
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// parseResponse interprets a solver's stdout after a SyGuS solve: a
// leading "infeasible"/"fail"/"unknown" verdict, or one define-fun line
// per synthesized hole on success.
func parseResponse(out string) (solvers.Response, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return solvers.Response{Kind: solvers.RespUnknown}, nil
	}
	switch strings.TrimSpace(lines[0]) {
	case "infeasible":
		return solvers.Response{Kind: solvers.RespInfeasible}, nil
	case "fail":
		return solvers.Response{Kind: solvers.RespFail}, nil
	case "unknown":
		return solvers.Response{Kind: solvers.RespUnknown}, nil
	}

	bodies := make(map[sygus.Hole]term.Term)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "(define-fun") {
			continue
		}
		hole, body, err := sygus.ParseDefineFun(line, nil)
		if err != nil {
			return solvers.Response{}, synderr.Solver(errors.Wrap(err, "parsing solver response"))
		}
		bodies[hole] = body
	}
	if len(bodies) == 0 {
		return solvers.Response{Kind: solvers.RespUnknown}, nil
	}
	return solvers.Response{Kind: solvers.RespSuccess, Bodies: bodies}, nil
}
