// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render draws solver results. Build turns a result into a
// presentation model with every visual encoding resolved; WriteHTML and
// WriteDOT serialize that model. Nothing here writes result data, so a
// rendering failure never affects persisted results.
package render

import (
	"fmt"
	"math"
	"sort"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// Colours and shapes used by both output formats.
const (
	colorActivation = "#1a9850"
	colorInhibition = "#d73027"
	colorUp         = "#d6604d"
	colorDown       = "#4393c3"
	colorNeutral    = "#bdbdbd"

	shapeCircle   = "circle"
	shapeTriangle = "triangle"
	shapeSquare   = "square"
	shapeDiamond  = "diamond"

	minEdgeWidth = 1.0
	maxEdgeWidth = 6.0

	// canvas is the side of the square drawing area in pixels.
	canvas = 800.0
)

// Graph is the presentation model of a fitted network.
type Graph struct {
	Title string `json:"title"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats *Stats `json:"stats,omitempty"`
}

// Node is a network node with its resolved encoding. X and Y place it on
// the canvas.
type Node struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Activity float64 `json:"activity"`
	Color    string  `json:"color"`
	Shape    string  `json:"shape"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Edge is a signed, weighted edge with its resolved encoding.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

// Stats counts what the model shows.
type Stats struct {
	TotalNodes  int            `json:"total_nodes"`
	TotalEdges  int            `json:"total_edges"`
	HiddenEdges int            `json:"hidden_edges"`
	NodesByType map[string]int `json:"nodes_by_type,omitempty"`
	EdgesByType map[string]int `json:"edges_by_type,omitempty"`
}

// Options tunes the model.
type Options struct {
	Title string

	// MinWeight hides edges whose weight is below it, together with nodes
	// left without edges. Zero shows everything.
	MinWeight float64
}

// Build resolves the visual encoding of r. The result must be consistent:
// every edge endpoint needs an attribute row.
func Build(r *types.SolverResult, opts Options) (*Graph, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	g := &Graph{
		Title: opts.Title,
		Stats: &Stats{NodesByType: map[string]int{}, EdgesByType: map[string]int{}},
	}
	if g.Title == "" {
		g.Title = "Inferred signalling network"
	}

	used := map[string]bool{}
	for _, e := range r.WeightedSIF {
		if e.Weight < opts.MinWeight {
			g.Stats.HiddenEdges++
			continue
		}
		edge := Edge{
			Source: e.Source,
			Target: e.Target,
			Weight: e.Weight,
			Width:  edgeWidth(e.Weight),
		}
		if e.Sign == types.Activation {
			edge.Type, edge.Color = "activation", colorActivation
		} else {
			edge.Type, edge.Color = "inhibition", colorInhibition
		}
		g.Edges = append(g.Edges, edge)
		g.Stats.EdgesByType[edge.Type]++
		used[e.Source] = true
		used[e.Target] = true
	}

	for _, n := range r.Nodes {
		if opts.MinWeight > 0 && !used[n.Node] {
			continue
		}
		node := Node{
			ID:       n.Node,
			Type:     nodeTypeName(n.NodeType),
			Activity: n.AvgAct,
			Color:    activityColor(n.AvgAct),
			Shape:    nodeShape(n.NodeType),
		}
		g.Nodes = append(g.Nodes, node)
		g.Stats.NodesByType[node.Type]++
	}
	sort.SliceStable(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	layoutCircle(g.Nodes)

	g.Stats.TotalNodes = len(g.Nodes)
	g.Stats.TotalEdges = len(g.Edges)
	return g, nil
}

func nodeTypeName(t types.NodeType) string {
	switch t {
	case types.NodeMeasured:
		return "measured"
	case types.NodePerturbed:
		return "perturbed"
	case types.NodeProtein:
		return "protein"
	case types.NodeMetabolite:
		return "metabolite"
	}
	return "inner"
}

func nodeShape(t types.NodeType) string {
	switch t {
	case types.NodeMeasured:
		return shapeSquare
	case types.NodePerturbed:
		return shapeTriangle
	case types.NodeProtein, types.NodeMetabolite:
		return shapeDiamond
	}
	return shapeCircle
}

// edgeWidth maps a 0-100 weight onto the stroke width range.
func edgeWidth(w float64) float64 {
	f := math.Max(0, math.Min(w, 100)) / 100
	return minEdgeWidth + f*(maxEdgeWidth-minEdgeWidth)
}

// activityColor blends from neutral grey towards red (up) or blue (down)
// by the magnitude of the average activity, which lies in [-100, 100].
func activityColor(avg float64) string {
	if avg == 0 || math.IsNaN(avg) {
		return colorNeutral
	}
	target := colorUp
	if avg < 0 {
		target = colorDown
	}
	return blend(colorNeutral, target, math.Min(math.Abs(avg), 100)/100)
}

func blend(from, to string, f float64) string {
	var a, b [3]int
	fmt.Sscanf(from, "#%02x%02x%02x", &a[0], &a[1], &a[2])
	fmt.Sscanf(to, "#%02x%02x%02x", &b[0], &b[1], &b[2])
	var c [3]int
	for i := range c {
		c[i] = int(math.Round(float64(a[i]) + f*float64(b[i]-a[i])))
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// layoutCircle places nodes evenly on a circle centred in the canvas.
func layoutCircle(nodes []Node) {
	const margin = 80.0
	c := canvas / 2
	r := c - margin
	if len(nodes) == 1 {
		nodes[0].X, nodes[0].Y = c, c
		return
	}
	for i := range nodes {
		theta := 2*math.Pi*float64(i)/float64(len(nodes)) - math.Pi/2
		nodes[i].X = math.Round((c+r*math.Cos(theta))*100) / 100
		nodes[i].Y = math.Round((c+r*math.Sin(theta))*100) / 100
	}
}
