// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package solver

import (
	"context"
	"fmt"

	"github.com/hongzhonglu/transcriptutorial/internal/activity"
	"github.com/hongzhonglu/transcriptutorial/internal/ctxlog"
	"github.com/hongzhonglu/transcriptutorial/internal/network"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// AssembleReport counts what was joined into the solver input.
type AssembleReport struct {
	Nodes                 int
	Perturbations         int
	Measured              int
	UnmatchedMeasurements []string
	Weighted              int
	UnmatchedWeights      []string
}

// Assemble builds the solver input from the network, the transcription
// factor measurements, and optional pathway weights. Perturbation nodes are
// the network roots, each unconstrained. Activity identifiers are joined
// against network nodes; unmatched identifiers are dropped and logged as
// warnings instead of being ignored silently by the solver.
func Assemble(ctx context.Context, edges []types.Edge, measurements types.ScoredList, weights *types.ScoredList) (types.SolverInput, AssembleReport, error) {
	log := ctxlog.FromContext(ctx)
	if len(edges) == 0 {
		return types.SolverInput{}, AssembleReport{}, fmt.Errorf("empty network")
	}

	g := network.NewGraph(edges)
	in := types.SolverInput{
		Perturbations: network.PerturbationNodes(edges),
		Network:       edges,
	}
	rep := AssembleReport{Nodes: g.Len(), Perturbations: len(in.Perturbations)}

	m := activity.MatchNodes(measurements, g)
	in.Measurements = m.Matched
	rep.Measured = m.Matched.Len()
	rep.UnmatchedMeasurements = m.Unmatched
	if len(m.Unmatched) > 0 {
		log.Warn("measured nodes missing from network", "count", len(m.Unmatched), "ids", m.Unmatched)
	}
	if rep.Measured == 0 {
		return types.SolverInput{}, rep, fmt.Errorf("%w: none of %d measurements match", ErrNoMeasurements, measurements.Len())
	}

	if weights != nil {
		wm := activity.MatchNodes(*weights, g)
		in.Weights = &wm.Matched
		rep.Weighted = wm.Matched.Len()
		rep.UnmatchedWeights = wm.Unmatched
		if len(wm.Unmatched) > 0 {
			log.Warn("weighted nodes missing from network", "count", len(wm.Unmatched), "ids", wm.Unmatched)
		}
	}

	return in, rep, nil
}
