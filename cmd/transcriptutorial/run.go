// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/hongzhonglu/transcriptutorial/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline: network, activity, solve, save, render",
	Long: `Run executes every stage in order. Any stage error aborts the run and is
reported with the stage name. Results are saved before rendering, so a
rendering failure leaves them intact.`,
	RunE: runPipeline,
}

func init() {
	addNetworkFlags(runCmd)
	addActivityFlags(runCmd)
	addSolverFlags(runCmd)
	addOutputFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSolver(cmd, cfg.Solver)
	if err != nil {
		return err
	}
	_, err = pipeline.Run(cmd.Context(), cfg, s, cmd.OutOrStdout())
	return err
}
