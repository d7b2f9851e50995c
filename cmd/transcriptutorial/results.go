// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hongzhonglu/transcriptutorial/internal/results"
	"github.com/hongzhonglu/transcriptutorial/internal/store"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect and export stored solver runs",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runResultsList,
}

var resultsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the edges and node attributes of a run",
	Long: `Show prints a stored run. The run is selected by an ID prefix or
"latest" (the default); --file reads a saved result file instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResultsShow,
}

var resultsExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a stored run as YAML, JSON or TSV tables",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResultsExport,
}

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsDelete,
}

func init() {
	for _, c := range []*cobra.Command{resultsListCmd, resultsShowCmd, resultsExportCmd, resultsDeleteCmd} {
		c.Flags().String("db", types.DefaultPipelineConfig().Output.DBPath, "SQLite run store")
	}
	resultsShowCmd.Flags().String("file", "", "read a result file instead of the store")
	resultsExportCmd.Flags().String("format", "yaml", "export format: yaml, json or tsv")
	resultsExportCmd.Flags().StringP("output", "o", "", "output file, or directory for tsv (default: stdout, or . for tsv)")

	resultsCmd.AddCommand(resultsListCmd, resultsShowCmd, resultsExportCmd, resultsDeleteCmd)
	rootCmd.AddCommand(resultsCmd)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Output.DBPath == "" {
		return nil, fmt.Errorf("no run store configured (set --db)")
	}
	return store.Open(cfg.Output.DBPath)
}

// loadStored resolves the run named by args (default "latest").
func loadStored(cmd *cobra.Command, args []string) (store.Run, *types.SolverResult, error) {
	s, err := openStore(cmd)
	if err != nil {
		return store.Run{}, nil, err
	}
	defer s.Close()

	ref := "latest"
	if len(args) > 0 {
		ref = args[0]
	}
	return s.LoadRun(cmd.Context(), ref)
}

func runResultsList(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return nil
	}
	fmt.Fprintf(w, "%-8s  %-20s  %-8s  %-12s  %5s  %5s  %s\n", "ID", "CREATED", "SOLVER", "COLUMN", "EDGES", "NODES", "RESULT")
	for _, r := range runs {
		fmt.Fprintf(w, "%-8s  %-20s  %-8s  %-12s  %5d  %5d  %s\n",
			r.ID[:8], r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Solver, r.Column, r.Edges, r.Nodes, r.ResultPath)
	}
	return nil
}

func runResultsShow(cmd *cobra.Command, args []string) error {
	var r *types.SolverResult
	w := cmd.OutOrStdout()

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		if len(args) > 0 {
			return fmt.Errorf("--file and a run ID are mutually exclusive")
		}
		res, err := results.Load(path)
		if err != nil {
			return err
		}
		r = res
		fmt.Fprintf(w, "File: %s\n", path)
	} else {
		run, res, err := loadStored(cmd, args)
		if err != nil {
			return err
		}
		r = res
		fmt.Fprintf(w, "Run: %s (%s, column %s, %s)\n",
			run.ID, run.Solver, run.Column, run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintf(w, "\n%-16s  %4s  %-16s  %7s\n", "SOURCE", "SIGN", "TARGET", "WEIGHT")
	for _, e := range r.WeightedSIF {
		fmt.Fprintf(w, "%-16s  %+4d  %-16s  %7.1f\n", e.Source, int(e.Sign), e.Target, e.Weight)
	}
	fmt.Fprintf(w, "\n%-16s  %4s  %7s  %7s  %7s  %7s\n", "NODE", "TYPE", "ZERO", "UP", "DOWN", "AVG")
	for _, n := range r.Nodes {
		fmt.Fprintf(w, "%-16s  %4s  %7.1f  %7.1f  %7.1f  %7.1f\n", n.Node, n.NodeType, n.ZeroAct, n.UpAct, n.DownAct, n.AvgAct)
	}

	st := results.Summarize(r)
	fmt.Fprintf(w, "\n%d edges (%d activating, %d inhibiting), %d nodes (%d measured, %d perturbed)\n",
		st.Edges, st.Activating, st.Inhibiting, st.Nodes, st.Measured, st.Perturbed)
	return nil
}

func runResultsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("output")
	w := cmd.OutOrStdout()

	run, r, err := loadStored(cmd, args)
	if err != nil {
		return err
	}

	switch format {
	case "tsv":
		if out == "" {
			out = "."
		}
		if err := os.MkdirAll(out, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		sif, nodes, err := results.ExportTSV(out, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote: %s\nwrote: %s\n", sif, nodes)
		return nil
	case "yaml", "json":
		if out != "" {
			if ext := filepath.Ext(out); ext == "" {
				out += "." + format
			}
			if err := results.Save(out, r); err != nil {
				return err
			}
			fmt.Fprintf(w, "exported: run %s to %s\n", run.ID[:8], out)
			return nil
		}
		data, err := results.Marshal(r, results.Format(format))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported export format %q (want yaml, json or tsv)", format)
	}
}

func runResultsDelete(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.ResolveID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := s.DeleteRun(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted: %s\n", id)
	return nil
}
