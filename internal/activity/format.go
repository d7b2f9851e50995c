// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hongzhonglu/transcriptutorial/internal/ctxlog"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// Formatted holds the solver-facing activity lists.
type Formatted struct {
	// Measurements are the top-N transcription factor scores.
	Measurements types.ScoredList

	// Weights are per-gene pathway scores; nil when no pathway table is
	// configured.
	Weights *types.ScoredList

	// TFColumn and PathwayColumn are the selection indices used.
	TFColumn      int
	PathwayColumn int
}

// Format loads the configured activity tables and reshapes them. The two
// tables are independent and are read concurrently.
func Format(ctx context.Context, cfg types.ActivityConfig, w io.Writer) (Formatted, error) {
	delim, err := ParseDelimiter(cfg.Delimiter)
	if err != nil {
		return Formatted{}, err
	}
	topN := cfg.TopN
	if topN == 0 {
		topN = DefaultTopN
	}

	var (
		tfTable, pwTable types.ActivityTable
		members          types.Membership
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := ReadTableFile(cfg.TFPath, delim)
		if err != nil {
			return fmt.Errorf("transcription factor activities: %w", err)
		}
		tfTable = t
		return nil
	})
	if cfg.PathwayPath != "" {
		g.Go(func() error {
			t, err := ReadTableFile(cfg.PathwayPath, delim)
			if err != nil {
				return fmt.Errorf("pathway activities: %w", err)
			}
			pwTable = t
			return nil
		})
		g.Go(func() error {
			if cfg.MembershipPath == "" {
				members = DefaultMembership()
				return nil
			}
			m, err := ReadMembershipFile(cfg.MembershipPath)
			if err != nil {
				return err
			}
			members = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Formatted{}, err
	}

	var out Formatted
	col, err := SelectColumn(tfTable, cfg.TFColumn)
	if err != nil {
		return Formatted{}, fmt.Errorf("transcription factor activities: %w", err)
	}
	out.TFColumn = col
	out.Measurements, err = TopN(tfTable, col, topN, cfg.RankBy)
	if err != nil {
		return Formatted{}, err
	}
	fmt.Fprintf(w, "selected: %d of %d transcription factors (column %s, by %s)\n",
		out.Measurements.Len(), len(tfTable.IDs), tfTable.Columns[col], rankName(cfg.RankBy))

	if cfg.PathwayPath == "" {
		return out, nil
	}

	col, err = SelectColumn(pwTable, cfg.PathwayColumn)
	if err != nil {
		return Formatted{}, fmt.Errorf("pathway activities: %w", err)
	}
	out.PathwayColumn = col
	pathways := Column(pwTable, col)
	assigned := AssignPathwayScores(pathways, members)
	for _, p := range assigned.Unmapped {
		ctxlog.FromContext(ctx).Warn("pathway has no representative genes", "pathway", p)
	}
	out.Weights = &assigned.Genes
	fmt.Fprintf(w, "assigned: %d pathway scores to %d genes (column %s)\n",
		pathways.Len()-len(assigned.Unmapped), assigned.Genes.Len(), pwTable.Columns[col])

	return out, nil
}

func rankName(r types.RankBy) types.RankBy {
	if r == "" {
		return types.RankAbsolute
	}
	return r
}
