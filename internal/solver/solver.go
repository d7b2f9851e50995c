// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package solver runs the external ILP network inference tool. The ILP
// formulation lives behind the Solver interface; this package assembles its
// four inputs, validates the run configuration, and collects the raw result
// tables.
package solver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hongzhonglu/transcriptutorial/internal/container"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

var (
	// ErrInvalidConfig reports a solver configuration that cannot run.
	ErrInvalidConfig = errors.New("invalid solver configuration")

	// ErrNoMeasurements is returned when no measured node is part of the
	// network, leaving the solver without constraints.
	ErrNoMeasurements = errors.New("no measured node in network")
)

// RawTable is a result table as emitted by the solver: a header and string
// cells.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// RawResult holds the untyped solver output. Typing happens in the results
// package.
type RawResult struct {
	WeightedSIF RawTable
	Nodes       RawTable
}

// Solver fits a sub-network to measurements. Implementations must honour
// ctx cancellation; the time limit in cfg is enforced by the solver itself,
// which returns its best solution when the limit is hit.
type Solver interface {
	Name() string
	Solve(ctx context.Context, in types.SolverInput, cfg types.SolverConfig) (*RawResult, error)
}

// Validate checks the solver selection, time limit, and gap tolerances.
func Validate(cfg types.SolverConfig) error {
	switch cfg.Solver {
	case types.SolverCplex, types.SolverCbc, types.SolverGurobi:
		if cfg.SolverPath == "" {
			return fmt.Errorf("%w: solver %s needs a solver path", ErrInvalidConfig, cfg.Solver)
		}
	case types.SolverLpSolve:
	default:
		return fmt.Errorf("%w: unknown solver %q", ErrInvalidConfig, cfg.Solver)
	}
	// The wrapper takes whole seconds.
	if cfg.TimeLimit < time.Second {
		return fmt.Errorf("%w: time limit must be at least 1s, got %v", ErrInvalidConfig, cfg.TimeLimit)
	}
	if !inUnitRange(cfg.MIPGap) {
		return fmt.Errorf("%w: mip gap %v outside [0, 1]", ErrInvalidConfig, cfg.MIPGap)
	}
	if !inUnitRange(cfg.PoolRelGap) {
		return fmt.Errorf("%w: pool relative gap %v outside [0, 1]", ErrInvalidConfig, cfg.PoolRelGap)
	}
	return nil
}

// inUnitRange reports whether g lies in [0, 1]; NaN does not.
func inUnitRange(g float64) bool {
	return g >= 0 && g <= 1
}

// checkSolverBinary verifies that a locally installed solver exists.
func checkSolverBinary(cfg types.SolverConfig) error {
	if cfg.Solver == types.SolverLpSolve {
		return nil
	}
	info, err := os.Stat(cfg.SolverPath)
	if err != nil {
		return fmt.Errorf("%w: solver binary: %v", ErrInvalidConfig, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: solver path %s is a directory", ErrInvalidConfig, cfg.SolverPath)
	}
	return nil
}

// New returns the solver backend selected by cfg. env is exported to the
// solver process; progress output of the wrapper goes to w.
func New(cfg types.SolverConfig, env map[string]string, w io.Writer) (Solver, error) {
	switch cfg.Backend {
	case types.BackendExec, "":
		return NewExecSolver(cfg.Command, env, w), nil
	case types.BackendContainer:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return NewContainerSolver(rt, cfg.Image, env, w), nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
}

// workDir returns the configured run directory as an absolute path. When
// none is configured a temporary directory is created; the returned cleanup
// removes it and is a no-op for configured directories, which are kept for
// inspection.
func workDir(cfg types.SolverConfig) (string, func(), error) {
	dir := cfg.WorkDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "carnival-*")
		if err != nil {
			return "", nil, fmt.Errorf("creating work directory: %w", err)
		}
		return tmp, func() { os.RemoveAll(tmp) }, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving work directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating work directory: %w", err)
	}
	return abs, func() {}, nil
}
