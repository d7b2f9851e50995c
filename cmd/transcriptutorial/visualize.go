// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongzhonglu/transcriptutorial/internal/pipeline"
	"github.com/hongzhonglu/transcriptutorial/internal/results"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize [run-id]",
	Short: "Render a result as an interactive HTML page and a DOT graph",
	Long: `Visualize renders a fitted network. The result is read from --input, or
from the run store by ID prefix or "latest" (the default). Edge colour and
arrowhead encode the sign, width encodes the weight; node colour encodes the
average activity and shape the node type.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVisualize,
}

func init() {
	addOutputFlags(visualizeCmd)
	visualizeCmd.Flags().String("input", "", "result file to render instead of a stored run")
	visualizeCmd.Flags().String("title", "", "page title")
	rootCmd.AddCommand(visualizeCmd)
}

func runVisualize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	var r *types.SolverResult
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		if len(args) > 0 {
			return fmt.Errorf("--input and a run ID are mutually exclusive")
		}
		if r, err = results.Load(path); err != nil {
			return err
		}
	} else {
		run, res, err := loadStored(cmd, args)
		if err != nil {
			return err
		}
		r = res
		fmt.Fprintf(w, "loaded: run %s\n", run.ID[:8])
	}

	title, _ := cmd.Flags().GetString("title")
	return pipeline.Render(r, cfg.Output, title, w)
}
