// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package network

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// Graph is the directed topology of a signed edge list, indexed by gene
// symbol.
type Graph struct {
	g     *simple.DirectedGraph
	ids   map[string]int64
	names []string        // indexed by gonum node ID
	loops map[string]bool // nodes with a self-edge
}

// NewGraph builds the topology of edges. Parallel edges of opposite sign
// collapse to a single arc. Simple graphs reject self-edges, so those are
// recorded on the side.
func NewGraph(edges []types.Edge) *Graph {
	gr := &Graph{
		g:     simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		loops: make(map[string]bool),
	}
	for _, e := range edges {
		from := gr.node(e.Source)
		to := gr.node(e.Target)
		if from.ID() == to.ID() {
			gr.loops[e.Source] = true
			continue
		}
		gr.g.SetEdge(gr.g.NewEdge(from, to))
	}
	return gr
}

func (gr *Graph) node(name string) graph.Node {
	if id, ok := gr.ids[name]; ok {
		return gr.g.Node(id)
	}
	n := gr.g.NewNode()
	gr.g.AddNode(n)
	gr.ids[name] = n.ID()
	for int64(len(gr.names)) <= n.ID() {
		gr.names = append(gr.names, "")
	}
	gr.names[n.ID()] = name
	return n
}

// HasNode reports whether name appears as a source or target.
func (gr *Graph) HasNode(name string) bool {
	_, ok := gr.ids[name]
	return ok
}

// Len returns the number of nodes.
func (gr *Graph) Len() int { return len(gr.ids) }

// Nodes returns all node names in lexical order.
func (gr *Graph) Nodes() []string {
	out := make([]string, 0, len(gr.ids))
	for name := range gr.ids {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Roots returns the nodes that never appear as a target, in lexical order.
func (gr *Graph) Roots() []string {
	var out []string
	for name, id := range gr.ids {
		if gr.g.To(id).Len() == 0 && !gr.loops[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Successors returns the direct targets of name in lexical order.
func (gr *Graph) Successors(name string) []string {
	id, ok := gr.ids[name]
	if !ok {
		return nil
	}
	var out []string
	for _, n := range graph.NodesOf(gr.g.From(id)) {
		out = append(out, gr.names[n.ID()])
	}
	sort.Strings(out)
	return out
}

// PerturbationNodes derives the perturbation set: every source identifier
// that never occurs as a target, each with an unconstrained marker.
func PerturbationNodes(edges []types.Edge) []types.PerturbationNode {
	targets := make(map[string]bool, len(edges))
	for _, e := range edges {
		targets[e.Target] = true
	}
	seen := make(map[string]bool)
	var ids []string
	for _, e := range edges {
		if targets[e.Source] || seen[e.Source] {
			continue
		}
		seen[e.Source] = true
		ids = append(ids, e.Source)
	}
	sort.Strings(ids)

	out := make([]types.PerturbationNode, len(ids))
	for i, id := range ids {
		out[i] = types.Unconstrained(id)
	}
	return out
}
