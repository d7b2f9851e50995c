// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// ActivityTable is an entities × samples matrix of activity scores as
// produced by the transcription factor and pathway scoring tools.
type ActivityTable struct {
	// Columns names the sample columns, in file order.
	Columns []string `json:"columns" yaml:"columns"`

	// IDs lists the entity identifiers, one per row.
	IDs []string `json:"ids" yaml:"ids"`

	// Values holds one row per ID with len(Columns) scores.
	Values [][]float64 `json:"values" yaml:"values"`
}

// ColumnIndex returns the position of the named column, or -1.
func (t ActivityTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ScoredList is a single-row wide table keyed by identifier: the shape the
// solver consumes for measurements and node weights.
type ScoredList struct {
	// Column is the sample column the scores were taken from.
	Column string `json:"column" yaml:"column"`

	// Scores maps identifier to score.
	Scores map[string]float64 `json:"scores" yaml:"scores"`

	// Order lists identifiers in selection order (rank order for top-N
	// lists). Every identifier in Scores appears exactly once.
	Order []string `json:"order" yaml:"order"`
}

// NewScoredList returns an empty list for column.
func NewScoredList(column string) ScoredList {
	return ScoredList{Column: column, Scores: map[string]float64{}}
}

// Set records a score, appending id to Order on first sight.
func (l *ScoredList) Set(id string, score float64) {
	if l.Scores == nil {
		l.Scores = map[string]float64{}
	}
	if _, ok := l.Scores[id]; !ok {
		l.Order = append(l.Order, id)
	}
	l.Scores[id] = score
}

// Len returns the number of identifiers.
func (l ScoredList) Len() int { return len(l.Order) }

// SortedIDs returns the identifiers in lexical order.
func (l ScoredList) SortedIDs() []string {
	ids := make([]string, len(l.Order))
	copy(ids, l.Order)
	sort.Strings(ids)
	return ids
}

// PathwayMember is a gene that represents a pathway in the network, with the
// weight applied to the pathway score when it is assigned to the gene.
type PathwayMember struct {
	Gene   string  `json:"gene" yaml:"gene"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Membership maps a pathway name to its representative genes.
type Membership map[string][]PathwayMember
