// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package solver

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hongzhonglu/transcriptutorial/internal/container"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// containerWorkDir is where the host work directory is mounted.
const containerWorkDir = "/work"

// ContainerSolver runs the solver wrapper image through a container
// runtime (docker or podman). The work directory is bind-mounted, so input
// and output files are exchanged exactly as with ExecSolver. The solver path
// refers to a location inside the image.
type ContainerSolver struct {
	runtime container.Runtime
	image   string
	env     map[string]string
	out     io.Writer
}

// NewContainerSolver creates a solver that runs image on rt.
func NewContainerSolver(rt container.Runtime, image string, env map[string]string, w io.Writer) *ContainerSolver {
	if w == nil {
		w = io.Discard
	}
	return &ContainerSolver{runtime: rt, image: image, env: env, out: w}
}

// Name returns the backend identifier.
func (s *ContainerSolver) Name() string { return "container:" + s.runtime.Name() }

// Solve writes the inputs, runs the image with the work directory mounted,
// and reads the result tables.
func (s *ContainerSolver) Solve(ctx context.Context, in types.SolverInput, cfg types.SolverConfig) (*RawResult, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if err := s.runtime.ImageExists(s.image); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	dir, cleanup, err := workDir(cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if _, err := WriteInputs(dir, in); err != nil {
		return nil, err
	}
	out, err := prepareOutDir(dir)
	if err != nil {
		return nil, err
	}

	// Same file names, seen from inside the container.
	inside := InputFiles{
		Network:       containerPath(networkFile),
		Measurements:  containerPath(measurementsFile),
		Perturbations: containerPath(perturbationsFile),
	}
	if in.Weights != nil {
		inside.Weights = containerPath(weightsFile)
	}

	opts := container.RunOptions{
		Mounts:  []container.Mount{{HostPath: dir, ContainerPath: containerWorkDir}},
		Env:     s.env,
		WorkDir: containerWorkDir,
		Args:    Args(inside, cfg, containerPath(outDir)),
	}
	stderr := &tailBuffer{limit: stderrTail}
	if err := s.runtime.Run(ctx, s.image, opts, s.out, stderr); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("solver interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("solver %s failed: %w%s", cfg.Solver, err, stderr.suffix())
	}
	return ReadRawResult(out)
}

func containerPath(name string) string {
	return filepath.ToSlash(filepath.Join(containerWorkDir, name))
}
