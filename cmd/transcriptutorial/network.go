// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongzhonglu/transcriptutorial/internal/pipeline"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Build the signed prior-knowledge network from OmniPath",
	Long: `Network queries the OmniPath interactions endpoint, keeps interactions
with a consensus direction and an agreeing consensus sign, normalizes complex
identifiers, drops duplicates, and writes the result as a SIF table
(source, interaction, target). The raw query result is cached; use --refresh
to query again.`,
	RunE: runNetwork,
}

func init() {
	addNetworkFlags(networkCmd)
	rootCmd.AddCommand(networkCmd)
}

func runNetwork(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	res, n, err := pipeline.BuildNetwork(cmd.Context(), cfg.Network, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nNetwork summary: %d interactions, %d edges, dropped %d (undirected %d, unsigned %d, sign conflict %d, duplicate %d)\n",
		n, len(res.Edges), res.Dropped(), res.Undirected, res.Unsigned, res.SignConflict, res.Duplicates)
	return nil
}
