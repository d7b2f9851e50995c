// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// DefaultMembership returns the representative genes of the PROGENy
// pathways, each carrying its pathway score unscaled.
func DefaultMembership() types.Membership {
	genes := map[string][]string{
		"Androgen": {"AR"},
		"EGFR":     {"EGFR"},
		"Estrogen": {"ESR1"},
		"Hypoxia":  {"HIF1A"},
		"JAK-STAT": {"JAK1", "JAK2", "STAT1", "STAT2", "STAT3", "STAT4", "STAT5A", "STAT5B", "STAT6"},
		"MAPK":     {"MAPK1", "MAPK3"},
		"NFkB":     {"NFKB1"},
		"p53":      {"TP53"},
		"PI3K":     {"PIK3CA"},
		"TGFb":     {"TGFBR1"},
		"TNFa":     {"TNF"},
		"Trail":    {"TNFSF10"},
		"VEGF":     {"VEGFA"},
		"WNT":      {"WNT3A"},
	}
	m := make(types.Membership, len(genes))
	for pathway, gs := range genes {
		for _, g := range gs {
			m[pathway] = append(m[pathway], types.PathwayMember{Gene: g, Weight: 1})
		}
	}
	return m
}

// ReadMembership parses a YAML pathway → members mapping:
//
//	MAPK:
//	  - gene: MAPK1
//	    weight: 1
//
// A member without a weight gets weight 1.
func ReadMembership(r io.Reader) (types.Membership, error) {
	var raw map[string][]struct {
		Gene   string   `yaml:"gene"`
		Weight *float64 `yaml:"weight"`
	}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing membership: %w", err)
	}
	m := make(types.Membership, len(raw))
	for pathway, members := range raw {
		for i, mem := range members {
			if mem.Gene == "" {
				return nil, fmt.Errorf("pathway %s member %d: missing gene", pathway, i)
			}
			w := 1.0
			if mem.Weight != nil {
				w = *mem.Weight
			}
			m[pathway] = append(m[pathway], types.PathwayMember{Gene: mem.Gene, Weight: w})
		}
	}
	return m, nil
}

// ReadMembershipFile reads a membership mapping from path.
func ReadMembershipFile(path string) (types.Membership, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening membership: %w", err)
	}
	defer f.Close()
	return ReadMembership(f)
}

// PathwayAssignment is the result of distributing pathway scores onto genes.
type PathwayAssignment struct {
	// Genes holds one score per representative gene, sorted by gene.
	Genes types.ScoredList

	// Source records which pathway each gene's score came from.
	Source map[string]string

	// Unmapped lists scored pathways with no membership entry, sorted.
	Unmapped []string
}

// AssignPathwayScores gives every representative gene of a scored pathway
// the pathway score multiplied by the gene's weight. A gene representing
// several pathways keeps the score of largest magnitude; equal magnitudes
// resolve to the lexically first pathway. The result does not depend on map
// iteration order.
func AssignPathwayScores(pathways types.ScoredList, members types.Membership) PathwayAssignment {
	res := PathwayAssignment{
		Genes:  types.NewScoredList(pathways.Column),
		Source: map[string]string{},
	}

	names := pathways.SortedIDs()
	best := map[string]float64{}
	for _, p := range names {
		genes, ok := members[p]
		if !ok {
			res.Unmapped = append(res.Unmapped, p)
			continue
		}
		score := pathways.Scores[p]
		for _, g := range genes {
			v := score * g.Weight
			cur, seen := best[g.Gene]
			// Pathways are visited in lexical order, so ties keep the first.
			if seen && math.Abs(v) <= math.Abs(cur) {
				continue
			}
			best[g.Gene] = v
			res.Source[g.Gene] = p
		}
	}

	genes := make([]string, 0, len(best))
	for g := range best {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	for _, g := range genes {
		res.Genes.Set(g, best[g])
	}
	return res
}
