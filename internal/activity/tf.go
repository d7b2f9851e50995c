// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import (
	"fmt"
	"math"
	"sort"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// DefaultTopN is the number of transcription factors passed to the solver
// as measurements.
const DefaultTopN = 50

// TopN selects the n highest-ranked entities of one sample column. With
// RankAbsolute entities are ordered by |score|, with RankSigned by score;
// ties are broken by identifier. n <= 0 keeps every scored entity. The
// returned list is in rank order and records the column it was taken from.
func TopN(table types.ActivityTable, col, n int, rank types.RankBy) (types.ScoredList, error) {
	if col < 0 || col >= len(table.Columns) {
		return types.ScoredList{}, fmt.Errorf("column index %d: %w", col, ErrNoColumn)
	}
	if rank == "" {
		rank = types.RankAbsolute
	}

	key := func(v float64) float64 { return math.Abs(v) }
	switch rank {
	case types.RankAbsolute:
	case types.RankSigned:
		key = func(v float64) float64 { return v }
	default:
		return types.ScoredList{}, fmt.Errorf("unknown ranking %q (want %s or %s)", rank, types.RankAbsolute, types.RankSigned)
	}

	type scored struct {
		id string
		v  float64
	}
	var rows []scored
	for i, id := range table.IDs {
		v := table.Values[i][col]
		if math.IsNaN(v) {
			continue
		}
		rows = append(rows, scored{id, v})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ki, kj := key(rows[i].v), key(rows[j].v)
		if ki != kj {
			return ki > kj
		}
		return rows[i].id < rows[j].id
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	list := types.NewScoredList(table.Columns[col])
	for _, r := range rows {
		list.Set(r.id, r.v)
	}
	return list, nil
}
