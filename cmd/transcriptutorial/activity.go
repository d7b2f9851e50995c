// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/hongzhonglu/transcriptutorial/internal/activity"
	"github.com/hongzhonglu/transcriptutorial/internal/network"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Select transcription factor measurements and pathway node weights",
	Long: `Activity reads the transcription factor and pathway activity tables,
keeps the top-N transcription factors of the selected sample column, and
assigns each pathway score to the pathway's representative genes.

With --check-network the selections are joined against a SIF network and
identifiers missing from it are listed; the solver would ignore them.`,
	RunE: runActivity,
}

func init() {
	addActivityFlags(activityCmd)
	activityCmd.Flags().String("check-network", "", "SIF network to join the selections against")
	activityCmd.Flags().String("out", "", "write the selections as YAML to this file")
	rootCmd.AddCommand(activityCmd)
}

// activityExport is the YAML shape written by --out.
type activityExport struct {
	Measurements types.ScoredList  `yaml:"measurements"`
	Weights      *types.ScoredList `yaml:"weights,omitempty"`
}

func runActivity(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	f, err := activity.Format(cmd.Context(), cfg.Activity, w)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("check-network"); path != "" {
		edges, err := network.ReadSIFFile(path)
		if err != nil {
			return err
		}
		g := network.NewGraph(edges)
		m := activity.MatchNodes(f.Measurements, g)
		fmt.Fprintf(w, "matched: %d of %d measurements in network\n", m.Matched.Len(), f.Measurements.Len())
		for _, id := range m.Unmatched {
			fmt.Fprintf(w, "  missing measurement %s\n", id)
		}
		if f.Weights != nil {
			wm := activity.MatchNodes(*f.Weights, g)
			fmt.Fprintf(w, "matched: %d of %d weighted genes in network\n", wm.Matched.Len(), f.Weights.Len())
		}
	}

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		data, err := yaml.Marshal(activityExport{Measurements: f.Measurements, Weights: f.Weights})
		if err != nil {
			return fmt.Errorf("marshaling selections: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(w, "wrote: %s\n", path)
	}
	return nil
}
