// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import "github.com/hongzhonglu/transcriptutorial/pkg/types"

// NodeSet is the network side of the identifier join.
type NodeSet interface {
	HasNode(id string) bool
}

// MatchReport splits a scored list by whether its identifiers are network
// nodes.
type MatchReport struct {
	// Matched keeps the scores of identifiers found in the network, in the
	// original order.
	Matched types.ScoredList

	// Unmatched lists identifiers absent from the network, in the original
	// order. The solver would ignore them silently.
	Unmatched []string
}

// MatchNodes joins list against nodes on the gene-symbol key.
func MatchNodes(list types.ScoredList, nodes NodeSet) MatchReport {
	rep := MatchReport{Matched: types.NewScoredList(list.Column)}
	for _, id := range list.Order {
		if nodes.HasNode(id) {
			rep.Matched.Set(id, list.Scores[id])
			continue
		}
		rep.Unmatched = append(rep.Unmatched, id)
	}
	return rep
}
