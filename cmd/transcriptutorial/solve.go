// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongzhonglu/transcriptutorial/internal/activity"
	"github.com/hongzhonglu/transcriptutorial/internal/network"
	"github.com/hongzhonglu/transcriptutorial/internal/pipeline"
	"github.com/hongzhonglu/transcriptutorial/internal/results"
	"github.com/hongzhonglu/transcriptutorial/internal/secrets"
	"github.com/hongzhonglu/transcriptutorial/internal/solver"
	"github.com/hongzhonglu/transcriptutorial/internal/store"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Fit a causal sub-network with the ILP solver",
	Long: `Solve reads the SIF network written by the network command, selects
measurements and node weights from the activity tables, and runs the solver
wrapper. Perturbation nodes are the network roots, left unconstrained. The
typed result is saved, recorded in the run store, and rendered unless
--no-render is given.

Solver licence files are taken from the secrets directory and exported to the
solver environment (for example .secrets/ilog-license-file becomes
ILOG_LICENSE_FILE).`,
	RunE: runSolve,
}

func init() {
	addActivityFlags(solveCmd)
	addSolverFlags(solveCmd)
	addOutputFlags(solveCmd)
	solveCmd.Flags().String("network", "", "SIF network (default: the network command's output)")
	solveCmd.Flags().Bool("no-render", false, "skip rendering")
	rootCmd.AddCommand(solveCmd)
}

func newSolver(cmd *cobra.Command, cfg types.SolverConfig) (solver.Solver, error) {
	return solver.New(cfg, secrets.Env(loadedSecrets), cmd.ErrOrStderr())
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	path, _ := cmd.Flags().GetString("network")
	if path == "" {
		path = cfg.Network.OutputPath
	}
	edges, err := network.ReadSIFFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "loaded: %d edges from %s\n", len(edges), path)

	f, err := activity.Format(ctx, cfg.Activity, w)
	if err != nil {
		return err
	}

	s, err := newSolver(cmd, cfg.Solver)
	if err != nil {
		return err
	}
	r, _, err := pipeline.Solve(ctx, s, edges, f, cfg.Solver, w)
	if err != nil {
		return err
	}

	meta := store.RunMeta{Solver: string(cfg.Solver.Solver), Column: f.Measurements.Column}
	if _, err := pipeline.Persist(ctx, r, cfg.Output, meta, w); err != nil {
		return err
	}

	stats := results.Summarize(r)
	fmt.Fprintf(w, "\nSolve summary: %d edges (%d activating, %d inhibiting, mean weight %.1f), %d nodes\n",
		stats.Edges, stats.Activating, stats.Inhibiting, stats.MeanWeight, stats.Nodes)

	if noRender, _ := cmd.Flags().GetBool("no-render"); noRender {
		return nil
	}
	return pipeline.Render(r, cfg.Output, "", w)
}
