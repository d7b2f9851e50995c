// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// PerturbationNode is a network root whose activity is not derived from
// other nodes. Unconstrained nodes carry no sign; the solver decides it.
type PerturbationNode struct {
	ID            string  `json:"id" yaml:"id"`
	Unconstrained bool    `json:"unconstrained" yaml:"unconstrained"`
	Value         float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// Unconstrained returns a perturbation node with a sign-free marker. Value
// is ignored for unconstrained nodes.
func Unconstrained(id string) PerturbationNode {
	return PerturbationNode{ID: id, Unconstrained: true}
}

// SolverInput bundles the four inputs of a network inference run.
type SolverInput struct {
	Perturbations []PerturbationNode `json:"perturbations" yaml:"perturbations"`
	Measurements  ScoredList         `json:"measurements" yaml:"measurements"`
	Network       []Edge             `json:"network" yaml:"network"`

	// Weights is optional; nil means no node priors.
	Weights *ScoredList `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// WeightedEdge is an edge of the fitted network. Weight is the percentage of
// solutions in the pool that contain the edge (0-100), the numeric
// confidence the visualization encodes as width.
type WeightedEdge struct {
	Source string  `json:"source" yaml:"source"`
	Sign   Sign    `json:"sign" yaml:"sign"`
	Target string  `json:"target" yaml:"target"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// NodeType marks the role a node played in the inference run.
type NodeType string

const (
	NodeInner      NodeType = ""
	NodeMeasured   NodeType = "T"
	NodePerturbed  NodeType = "S"
	NodeProtein    NodeType = "P"
	NodeMetabolite NodeType = "M"
)

// NodeAttribute summarises a node's activity across the solution pool.
// ZeroAct, UpAct and DownAct are the percentages of solutions in which the
// node is inactive, up- or down-regulated; AvgAct is UpAct - DownAct.
type NodeAttribute struct {
	Node     string   `json:"node" yaml:"node"`
	ZeroAct  float64  `json:"zero_act" yaml:"zero_act"`
	UpAct    float64  `json:"up_act" yaml:"up_act"`
	DownAct  float64  `json:"down_act" yaml:"down_act"`
	AvgAct   float64  `json:"avg_act" yaml:"avg_act"`
	NodeType NodeType `json:"node_type" yaml:"node_type"`
}

// SolverResult is the post-processed output of a run: the weighted edge
// list and the per-node attribute table.
type SolverResult struct {
	WeightedSIF []WeightedEdge  `json:"weighted_sif" yaml:"weighted_sif"`
	Nodes       []NodeAttribute `json:"nodes" yaml:"nodes"`
}

// Validate checks that every node referenced by an edge has an attribute
// row and that every edge sign is valid.
func (r *SolverResult) Validate() error {
	known := make(map[string]bool, len(r.Nodes))
	for _, n := range r.Nodes {
		known[n.Node] = true
	}
	for i, e := range r.WeightedSIF {
		if !e.Sign.Valid() {
			return fmt.Errorf("edge %d (%s -> %s): invalid sign %d", i, e.Source, e.Target, int(e.Sign))
		}
		for _, n := range []string{e.Source, e.Target} {
			if !known[n] {
				return fmt.Errorf("edge %d references %q: %w", i, n, ErrUnknownNode)
			}
		}
	}
	return nil
}

// NodeByName returns the attribute row for name.
func (r *SolverResult) NodeByName(name string) (NodeAttribute, bool) {
	for _, n := range r.Nodes {
		if n.Node == name {
			return n, true
		}
	}
	return NodeAttribute{}, false
}
