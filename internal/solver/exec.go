// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package solver

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/hongzhonglu/transcriptutorial/internal/ctxlog"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// stderrTail bounds how much solver stderr is kept for error messages.
const stderrTail = 4096

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args, env []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args, env []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// ExecSolver runs the solver wrapper as a local process. The wrapper reads
// the input files, drives the configured ILP solver, and writes the result
// tables into its output directory.
type ExecSolver struct {
	command string
	env     map[string]string
	out     io.Writer
	exec    executor
}

// NewExecSolver returns a solver that runs command with env added to the
// process environment. Wrapper stdout is forwarded to w.
func NewExecSolver(command string, env map[string]string, w io.Writer) *ExecSolver {
	if w == nil {
		w = io.Discard
	}
	return &ExecSolver{command: command, env: env, out: w, exec: &osExecutor{}}
}

// Name returns the backend identifier.
func (s *ExecSolver) Name() string { return "exec" }

// Solve validates cfg, writes the inputs into the work directory, runs the
// wrapper, and reads its result tables. Invalid paths, licence failures and
// infeasible models surface as errors carrying the tail of solver stderr.
func (s *ExecSolver) Solve(ctx context.Context, in types.SolverInput, cfg types.SolverConfig) (*RawResult, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if err := checkSolverBinary(cfg); err != nil {
		return nil, err
	}
	bin, err := s.exec.LookPath(s.command)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapper command %q: %v", ErrInvalidConfig, s.command, err)
	}

	dir, cleanup, err := workDir(cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	files, err := WriteInputs(dir, in)
	if err != nil {
		return nil, err
	}
	out, err := prepareOutDir(dir)
	if err != nil {
		return nil, err
	}

	args := Args(files, cfg, out)
	ctxlog.FromContext(ctx).Debug("running solver", "command", bin, "args", args)

	stderr := &tailBuffer{limit: stderrTail}
	if err := s.exec.Run(ctx, bin, args, environ(s.env), s.out, stderr); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("solver interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("solver %s failed: %w%s", cfg.Solver, err, stderr.suffix())
	}
	return ReadRawResult(out)
}

// environ renders env as sorted KEY=value pairs.
func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) suffix() string {
	s := strings.TrimSpace(string(t.buf))
	if s == "" {
		return ""
	}
	return "\n" + s
}
