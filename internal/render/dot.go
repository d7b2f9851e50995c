// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
)

// dotNode carries a model node into the gonum graph.
type dotNode struct {
	id int64
	n  Node
}

func (d dotNode) ID() int64     { return d.id }
func (d dotNode) DOTID() string { return d.n.ID }

func (d dotNode) Attributes() []encoding.Attribute {
	shape := d.n.Shape
	switch shape {
	case shapeSquare:
		shape = "box"
	case shapeTriangle:
		shape = "triangle"
	case shapeDiamond:
		shape = "diamond"
	default:
		shape = "ellipse"
	}
	return []encoding.Attribute{
		{Key: "shape", Value: shape},
		{Key: "style", Value: "filled"},
		{Key: "fillcolor", Value: d.n.Color},
		{Key: "tooltip", Value: fmt.Sprintf("%s (%s) activity %s", d.n.ID, d.n.Type, strconv.FormatFloat(d.n.Activity, 'g', -1, 64))},
	}
}

// dotLine is a model edge as a multigraph line, so opposite-sign edges
// between the same pair are both kept.
type dotLine struct {
	multi.Line
	e Edge
}

func (l dotLine) ReversedLine() graph.Line {
	return dotLine{Line: multi.Line{F: l.T, T: l.F, UID: l.UID}, e: l.e}
}

func (l dotLine) Attributes() []encoding.Attribute {
	head := "normal"
	if l.e.Type == "inhibition" {
		head = "tee"
	}
	return []encoding.Attribute{
		{Key: "color", Value: l.e.Color},
		{Key: "arrowhead", Value: head},
		{Key: "penwidth", Value: strconv.FormatFloat(l.e.Width, 'f', 2, 64)},
		{Key: "label", Value: strconv.FormatFloat(l.e.Weight, 'g', -1, 64)},
	}
}

// dotGraph adds graph-level attributes to the multigraph.
type dotGraph struct {
	*multi.DirectedGraph
	title string
}

func (g dotGraph) DOTAttributers() (graphAttrs, nodeAttrs, edgeAttrs encoding.Attributer) {
	return attrs{{Key: "label", Value: g.title}, {Key: "rankdir", Value: "LR"}},
		attrs{{Key: "fontname", Value: "Helvetica"}},
		attrs{{Key: "fontsize", Value: "10"}}
}

type attrs []encoding.Attribute

func (a attrs) Attributes() []encoding.Attribute { return a }

// WriteDOT writes g in Graphviz DOT format.
func WriteDOT(w io.Writer, g *Graph) error {
	mg := multi.NewDirectedGraph()
	ids := make(map[string]dotNode, len(g.Nodes))
	for i, n := range g.Nodes {
		dn := dotNode{id: int64(i), n: n}
		ids[n.ID] = dn
		mg.AddNode(dn)
	}
	for i, e := range g.Edges {
		from, ok := ids[e.Source]
		if !ok {
			return fmt.Errorf("edge %d: unknown node %q", i, e.Source)
		}
		to, ok := ids[e.Target]
		if !ok {
			return fmt.Errorf("edge %d: unknown node %q", i, e.Target)
		}
		mg.SetLine(dotLine{Line: multi.Line{F: from, T: to, UID: int64(i)}, e: e})
	}

	data, err := dot.MarshalMulti(dotGraph{DirectedGraph: mg, title: g.Title}, "network", "", "  ")
	if err != nil {
		return fmt.Errorf("encoding DOT: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
