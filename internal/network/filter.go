// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package network

import (
	"strings"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// complexSeparator joins member genes of a protein complex in interaction
// database identifiers (e.g. "NFKB1:RELA").
const complexSeparator = ":"

// FilterResult holds the filtered network and the number of records
// dropped at each step.
type FilterResult struct {
	Edges        []types.Edge
	Undirected   int
	Unsigned     int
	SignConflict int
	Duplicates   int
}

// Dropped returns the total number of records that did not become edges.
func (r FilterResult) Dropped() int {
	return r.Undirected + r.Unsigned + r.SignConflict + r.Duplicates
}

// stimulationSign remaps the stimulation flag: 1 stays 1, 0 becomes -1.
func stimulationSign(flag bool) types.Sign {
	if flag {
		return types.Activation
	}
	return types.Inhibition
}

// inhibitionSign remaps the inhibition flag with inverted convention:
// 1 becomes -1, 0 becomes 1.
func inhibitionSign(flag bool) types.Sign {
	if flag {
		return types.Inhibition
	}
	return types.Activation
}

// EdgeSign returns the signed interaction type of a record and whether the
// record is kept. A record is kept only when its consensus direction is
// asserted, at least one consensus sign flag is set, and the remapped
// stimulation and inhibition values agree.
func EdgeSign(rec types.InteractionRecord) (types.Sign, bool) {
	if !rec.ConsensusDirection {
		return 0, false
	}
	if !rec.ConsensusStimulation && !rec.ConsensusInhibition {
		return 0, false
	}
	stim := stimulationSign(rec.ConsensusStimulation)
	inh := inhibitionSign(rec.ConsensusInhibition)
	if stim != inh {
		return 0, false
	}
	return stim, true
}

// NormalizeID replaces complex separators so identifiers are safe as solver
// variable names.
func NormalizeID(id string) string {
	return strings.ReplaceAll(id, complexSeparator, "_")
}

// Filter turns raw interaction records into a deduplicated signed edge
// list. Output order follows first occurrence in records.
func Filter(records []types.InteractionRecord) FilterResult {
	var res FilterResult
	seen := make(map[types.Edge]bool, len(records))

	for _, rec := range records {
		if !rec.ConsensusDirection {
			res.Undirected++
			continue
		}
		if !rec.ConsensusStimulation && !rec.ConsensusInhibition {
			res.Unsigned++
			continue
		}
		sign, ok := EdgeSign(rec)
		if !ok {
			res.SignConflict++
			continue
		}

		e := types.Edge{
			Source:      NormalizeID(rec.Source),
			Interaction: sign,
			Target:      NormalizeID(rec.Target),
		}
		if seen[e] {
			res.Duplicates++
			continue
		}
		seen[e] = true
		res.Edges = append(res.Edges, e)
	}
	return res
}
