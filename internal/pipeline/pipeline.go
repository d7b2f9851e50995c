// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline chains the stages of a network inference run: build the
// prior-knowledge network, format activities, solve, persist, render. Each
// stage is exported on its own so the CLI can run stages individually.
// Data flows forward only; any stage error aborts the run and names the
// stage.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/hongzhonglu/transcriptutorial/internal/activity"
	"github.com/hongzhonglu/transcriptutorial/internal/ctxlog"
	"github.com/hongzhonglu/transcriptutorial/internal/network"
	"github.com/hongzhonglu/transcriptutorial/internal/render"
	"github.com/hongzhonglu/transcriptutorial/internal/results"
	"github.com/hongzhonglu/transcriptutorial/internal/solver"
	"github.com/hongzhonglu/transcriptutorial/internal/store"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// Stage names used in errors and status lines.
const (
	StageNetwork  = "network"
	StageActivity = "activity"
	StageSolve    = "solve"
	StagePersist  = "persist"
	StageRender   = "render"
)

// Summary reports what each stage produced.
type Summary struct {
	Interactions int
	Filter       network.FilterResult
	Measurements int
	Weights      int
	Assembly     solver.AssembleReport
	Result       results.Stats
	Run          store.Run
	ResultPath   string
	HTMLPath     string
	DOTPath      string
}

// BuildNetwork fetches interactions, keeps the directed, sign-consistent
// ones, and writes them as SIF to cfg.OutputPath when set.
func BuildNetwork(ctx context.Context, cfg types.NetworkConfig, w io.Writer) (network.FilterResult, int, error) {
	client := network.NewClient(cfg)
	fmt.Fprintf(w, "fetching: %s\n", cfg.BaseURL)
	records, err := client.Fetch(ctx)
	if err != nil {
		return network.FilterResult{}, 0, err
	}
	res := network.Filter(records)
	ctxlog.FromContext(ctx).Debug("interactions dropped",
		"undirected", res.Undirected, "unsigned", res.Unsigned,
		"sign_conflict", res.SignConflict, "duplicates", res.Duplicates)
	fmt.Fprintf(w, "kept: %d of %d interactions as signed edges\n", len(res.Edges), len(records))
	if len(res.Edges) == 0 {
		return res, len(records), fmt.Errorf("no signed directed interactions in %d records", len(records))
	}

	if cfg.OutputPath != "" {
		if err := network.WriteSIFFile(cfg.OutputPath, res.Edges); err != nil {
			return res, len(records), fmt.Errorf("writing network: %w", err)
		}
		fmt.Fprintf(w, "wrote: %s\n", cfg.OutputPath)
	}
	return res, len(records), nil
}

// Solve assembles the solver input, runs s, and parses its output into a
// typed result.
func Solve(ctx context.Context, s solver.Solver, edges []types.Edge, f activity.Formatted, cfg types.SolverConfig, w io.Writer) (*types.SolverResult, solver.AssembleReport, error) {
	in, rep, err := solver.Assemble(ctx, edges, f.Measurements, f.Weights)
	if err != nil {
		return nil, rep, err
	}
	fmt.Fprintf(w, "solving: %d nodes, %d perturbations, %d measured, %d weighted (%s, %s)\n",
		rep.Nodes, rep.Perturbations, rep.Measured, rep.Weighted, s.Name(), cfg.Solver)

	raw, err := s.Solve(ctx, in, cfg)
	if err != nil {
		return nil, rep, err
	}
	r, err := results.Parse(raw)
	if err != nil {
		return nil, rep, err
	}
	return r, rep, nil
}

// Persist saves r to cfg.ResultPath and, when cfg.DBPath is set, records it
// as a new run in the store.
func Persist(ctx context.Context, r *types.SolverResult, cfg types.OutputConfig, meta store.RunMeta, w io.Writer) (store.Run, error) {
	if cfg.ResultPath != "" {
		if err := results.Save(cfg.ResultPath, r); err != nil {
			return store.Run{}, err
		}
		fmt.Fprintf(w, "saved: %s\n", cfg.ResultPath)
		meta.ResultPath = cfg.ResultPath
	}
	if cfg.DBPath == "" {
		return store.Run{}, nil
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return store.Run{}, err
	}
	defer st.Close()
	run, err := st.SaveRun(ctx, meta, r)
	if err != nil {
		return store.Run{}, err
	}
	fmt.Fprintf(w, "stored: run %s in %s\n", run.ID, cfg.DBPath)
	return run, nil
}

// Render writes the HTML page and, when configured, the DOT file.
func Render(r *types.SolverResult, cfg types.OutputConfig, title string, w io.Writer) error {
	g, err := render.Build(r, render.Options{Title: title, MinWeight: cfg.MinWeight})
	if err != nil {
		return err
	}
	if cfg.HTMLPath != "" {
		if err := render.WriteHTMLFile(cfg.HTMLPath, g); err != nil {
			return err
		}
		fmt.Fprintf(w, "rendered: %s\n", cfg.HTMLPath)
	}
	if cfg.DOTPath != "" {
		if err := render.WriteDOTFile(cfg.DOTPath, g); err != nil {
			return err
		}
		fmt.Fprintf(w, "rendered: %s\n", cfg.DOTPath)
	}
	return nil
}

// Run executes every stage in order. Results are persisted before
// rendering, so a render error leaves saved results intact; the returned
// summary is filled up to the failing stage.
func Run(ctx context.Context, cfg types.PipelineConfig, s solver.Solver, w io.Writer) (Summary, error) {
	var sum Summary

	filtered, n, err := BuildNetwork(ctx, cfg.Network, w)
	sum.Interactions, sum.Filter = n, filtered
	if err != nil {
		return sum, fmt.Errorf("%s: %w", StageNetwork, err)
	}

	formatted, err := activity.Format(ctx, cfg.Activity, w)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", StageActivity, err)
	}
	sum.Measurements = formatted.Measurements.Len()
	if formatted.Weights != nil {
		sum.Weights = formatted.Weights.Len()
	}

	r, rep, err := Solve(ctx, s, filtered.Edges, formatted, cfg.Solver, w)
	sum.Assembly = rep
	if err != nil {
		return sum, fmt.Errorf("%s: %w", StageSolve, err)
	}
	sum.Result = results.Summarize(r)

	meta := store.RunMeta{Solver: string(cfg.Solver.Solver), Column: formatted.Measurements.Column}
	run, err := Persist(ctx, r, cfg.Output, meta, w)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", StagePersist, err)
	}
	sum.Run = run
	sum.ResultPath = cfg.Output.ResultPath

	if err := Render(r, cfg.Output, title(formatted), w); err != nil {
		return sum, fmt.Errorf("%s: %w", StageRender, err)
	}
	sum.HTMLPath = cfg.Output.HTMLPath
	sum.DOTPath = cfg.Output.DOTPath

	fmt.Fprintf(w, "\nPipeline summary: %d interactions, %d edges, %d measured, %d weighted, result %d edges / %d nodes\n",
		sum.Interactions, len(sum.Filter.Edges), sum.Assembly.Measured, sum.Assembly.Weighted,
		sum.Result.Edges, sum.Result.Nodes)
	return sum, nil
}

func title(f activity.Formatted) string {
	if f.Measurements.Column == "" {
		return ""
	}
	return "Inferred signalling network: " + f.Measurements.Column
}
