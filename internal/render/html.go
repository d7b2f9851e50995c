// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const nodeRadius = 18.0

// htmlTmpl renders a self-contained page: inline SVG, inline style and
// script, no external assets.
var htmlTmpl = template.Must(template.New("network").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Graph.Title}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; margin: 0; background: #fafafa; }
  header { padding: 12px 20px; border-bottom: 1px solid #ddd; background: #fff; }
  header h1 { font-size: 18px; margin: 0 0 4px 0; }
  header p { font-size: 12px; color: #555; margin: 0; }
  svg { display: block; margin: 0 auto; }
  .edge { opacity: 0.85; }
  .node text { font-size: 11px; text-anchor: middle; pointer-events: none; }
  .dim { opacity: 0.12; }
  #info { position: fixed; right: 16px; top: 16px; background: #fff; border: 1px solid #ccc; padding: 8px 12px; font-size: 12px; min-width: 160px; display: none; }
</style>
</head>
<body>
<header>
  <h1>{{.Graph.Title}}</h1>
  <p>{{.Graph.Stats.TotalNodes}} nodes, {{.Graph.Stats.TotalEdges}} edges{{if .Graph.Stats.HiddenEdges}} ({{.Graph.Stats.HiddenEdges}} below weight threshold hidden){{end}}. Green arrows activate, red bars inhibit. Width shows edge weight; fill shows average activity.</p>
</header>
<div id="info"></div>
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Size}}" height="{{.Size}}" viewBox="0 0 {{.Size}} {{.Size}}">
  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="#1a9850"/>
    </marker>
    <marker id="tee" viewBox="0 0 4 10" refX="3" refY="5" markerWidth="3" markerHeight="8" orient="auto">
      <rect x="0" y="0" width="4" height="10" fill="#d73027"/>
    </marker>
  </defs>
  <g id="edges">
  {{- range .Edges}}
    <line class="edge" data-source="{{.Source}}" data-target="{{.Target}}" x1="{{.X1}}" y1="{{.Y1}}" x2="{{.X2}}" y2="{{.Y2}}" stroke="{{.Color}}" stroke-width="{{.Width}}" marker-end="url(#{{.Marker}})"><title>{{.Source}} → {{.Target}} ({{.Type}}, weight {{.Weight}})</title></line>
  {{- end}}
  </g>
  <g id="nodes">
  {{- range .Nodes}}
    <g class="node" data-id="{{.ID}}">
      {{- if eq .Shape "circle"}}
      <circle cx="{{.X}}" cy="{{.Y}}" r="{{.R}}" fill="{{.Color}}" stroke="#333"/>
      {{- else}}
      <polygon points="{{.Points}}" fill="{{.Color}}" stroke="#333"/>
      {{- end}}
      <text x="{{.X}}" y="{{.LabelY}}">{{.ID}}</text>
    </g>
  {{- end}}
  </g>
</svg>
<script>
(function () {
  var graph = {{.Graph}};
  var byId = {};
  graph.nodes.forEach(function (n) { byId[n.id] = n; });
  var info = document.getElementById("info");
  var edges = Array.prototype.slice.call(document.querySelectorAll(".edge"));
  var nodes = Array.prototype.slice.call(document.querySelectorAll(".node"));

  function highlight(id) {
    var keep = {};
    keep[id] = true;
    edges.forEach(function (e) {
      var hit = e.dataset.source === id || e.dataset.target === id;
      if (hit) { keep[e.dataset.source] = true; keep[e.dataset.target] = true; }
      e.classList.toggle("dim", !hit);
    });
    nodes.forEach(function (n) { n.classList.toggle("dim", !keep[n.dataset.id]); });
    var n = byId[id];
    info.textContent = n.id + " | " + n.type + " | activity " + n.activity;
    info.style.display = "block";
  }

  function reset() {
    edges.forEach(function (e) { e.classList.remove("dim"); });
    nodes.forEach(function (n) { n.classList.remove("dim"); });
    info.style.display = "none";
  }

  nodes.forEach(function (n) {
    n.addEventListener("mouseenter", function () { highlight(n.dataset.id); });
    n.addEventListener("mouseleave", reset);
  });
})();
</script>
</body>
</html>
`))

type htmlNode struct {
	Node
	R      float64
	LabelY float64
	Points string
}

type htmlEdge struct {
	Edge
	X1, Y1, X2, Y2 float64
	Marker         string
}

type htmlPage struct {
	Graph *Graph
	Size  float64
	Nodes []htmlNode
	Edges []htmlEdge
}

// WriteHTML writes g as a self-contained interactive HTML page.
func WriteHTML(w io.Writer, g *Graph) error {
	if g.Stats == nil {
		cp := *g
		cp.Stats = &Stats{TotalNodes: len(g.Nodes), TotalEdges: len(g.Edges)}
		g = &cp
	}
	page := htmlPage{Graph: g, Size: canvas}
	pos := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		pos[n.ID] = n
		page.Nodes = append(page.Nodes, htmlNode{
			Node:   n,
			R:      nodeRadius,
			LabelY: round2(n.Y + nodeRadius + 12),
			Points: shapePoints(n),
		})
	}
	for i, e := range g.Edges {
		from, ok := pos[e.Source]
		if !ok {
			return fmt.Errorf("edge %d: unknown node %q", i, e.Source)
		}
		to, ok := pos[e.Target]
		if !ok {
			return fmt.Errorf("edge %d: unknown node %q", i, e.Target)
		}
		he := htmlEdge{Edge: e, Marker: "arrow"}
		if e.Type == "inhibition" {
			he.Marker = "tee"
		}
		he.X1, he.Y1, he.X2, he.Y2 = trim(from, to)
		page.Edges = append(page.Edges, he)
	}
	return htmlTmpl.Execute(w, page)
}

// WriteHTMLFile renders g to path, replacing any earlier file only once
// rendering has succeeded.
func WriteHTMLFile(path string, g *Graph) error {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, g); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

// WriteDOTFile writes g in DOT format to path.
func WriteDOTFile(path string, g *Graph) error {
	var buf bytes.Buffer
	if err := WriteDOT(&buf, g); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

// trim shortens the segment between two node centres so it starts and ends
// at the node outlines. Self-loops collapse to a short stub above the node.
func trim(from, to Node) (x1, y1, x2, y2 float64) {
	dx, dy := to.X-from.X, to.Y-from.Y
	d := math.Hypot(dx, dy)
	if d < 2*nodeRadius {
		return from.X, round2(from.Y - nodeRadius), to.X, round2(to.Y - 2*nodeRadius)
	}
	ux, uy := dx/d, dy/d
	return round2(from.X + ux*nodeRadius), round2(from.Y + uy*nodeRadius),
		round2(to.X - ux*(nodeRadius+2)), round2(to.Y - uy*(nodeRadius+2))
}

// shapePoints returns the polygon outline for non-circular shapes.
func shapePoints(n Node) string {
	r := nodeRadius
	var pts [][2]float64
	switch n.Shape {
	case shapeSquare:
		pts = [][2]float64{{-r, -r}, {r, -r}, {r, r}, {-r, r}}
	case shapeTriangle:
		pts = [][2]float64{{0, -r}, {r, r * 0.8}, {-r, r * 0.8}}
	case shapeDiamond:
		pts = [][2]float64{{0, -r}, {r, 0}, {0, r}, {-r, 0}}
	default:
		return ""
	}
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = strconv.FormatFloat(round2(n.X+p[0]), 'f', -1, 64) + "," +
			strconv.FormatFloat(round2(n.Y+p[1]), 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
