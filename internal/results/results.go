// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package results turns raw solver tables into typed results and persists
// them. Parsing is the only place result cells are converted from text;
// everything downstream works on types.SolverResult.
package results

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hongzhonglu/transcriptutorial/internal/solver"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// ErrCoercion is wrapped by every error about a cell that cannot be
// converted to its declared type.
var ErrCoercion = errors.New("result coercion failed")

// Table names used in errors.
const (
	TableWeightedSIF = "weightedSIF"
	TableNodes       = "nodesAttributes"
)

var (
	sifColumns  = []string{"Node1", "Sign", "Node2", "Weight"}
	nodeColumns = []string{"Node", "ZeroAct", "UpAct", "DownAct", "AvgAct", "NodeType"}
)

// CoercionError locates a cell that could not be converted. Row is the
// 1-based data row, not counting the header.
type CoercionError struct {
	Table  string
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s row %d column %s: %q %s", e.Table, e.Row, e.Column, e.Value, e.Reason)
}

func (e *CoercionError) Unwrap() error { return ErrCoercion }

// Parse converts raw solver tables into a typed result. Sign, Weight and
// the four activity columns must be numeric; any other cell fails the
// whole parse with its location. Values are not rounded or rescaled. The
// parsed result must reference only nodes it describes.
func Parse(raw *solver.RawResult) (*types.SolverResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil solver result")
	}
	edges, err := parseSIF(raw.WeightedSIF)
	if err != nil {
		return nil, err
	}
	nodes, err := parseNodes(raw.Nodes)
	if err != nil {
		return nil, err
	}
	r := &types.SolverResult{WeightedSIF: edges, Nodes: nodes}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// columnIndex maps each wanted column to its position in header.
func columnIndex(table string, header, want []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}
	idx := make(map[string]int, len(want))
	for _, w := range want {
		i, ok := pos[w]
		if !ok {
			return nil, fmt.Errorf("%s: missing column %q: %w", table, w, ErrCoercion)
		}
		idx[w] = i
	}
	return idx, nil
}

func parseSIF(t solver.RawTable) ([]types.WeightedEdge, error) {
	idx, err := columnIndex(TableWeightedSIF, t.Header, sifColumns)
	if err != nil {
		return nil, err
	}
	edges := make([]types.WeightedEdge, 0, len(t.Rows))
	for i, row := range t.Rows {
		c := cells{table: TableWeightedSIF, row: i + 1, cells: row, idx: idx}
		e := types.WeightedEdge{
			Source: c.text("Node1"),
			Target: c.text("Node2"),
			Sign:   c.sign("Sign"),
			Weight: c.number("Weight"),
		}
		if c.err != nil {
			return nil, c.err
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func parseNodes(t solver.RawTable) ([]types.NodeAttribute, error) {
	idx, err := columnIndex(TableNodes, t.Header, nodeColumns)
	if err != nil {
		return nil, err
	}
	nodes := make([]types.NodeAttribute, 0, len(t.Rows))
	for i, row := range t.Rows {
		c := cells{table: TableNodes, row: i + 1, cells: row, idx: idx}
		n := types.NodeAttribute{
			Node:     c.text("Node"),
			ZeroAct:  c.number("ZeroAct"),
			UpAct:    c.number("UpAct"),
			DownAct:  c.number("DownAct"),
			AvgAct:   c.number("AvgAct"),
			NodeType: c.nodeType("NodeType"),
		}
		if c.err != nil {
			return nil, c.err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// cells reads typed values from one row, keeping the first error.
type cells struct {
	table string
	row   int
	cells []string
	idx   map[string]int
	err   error
}

func (c *cells) fail(col, value, reason string) {
	if c.err == nil {
		c.err = &CoercionError{Table: c.table, Row: c.row, Column: col, Value: value, Reason: reason}
	}
}

func (c *cells) raw(col string) string {
	i := c.idx[col]
	if i >= len(c.cells) {
		c.fail(col, "", "missing cell")
		return ""
	}
	return strings.TrimSpace(c.cells[i])
}

func (c *cells) text(col string) string {
	v := c.raw(col)
	if v == "" {
		c.fail(col, v, "is empty")
	}
	return v
}

func (c *cells) number(col string) float64 {
	v := c.raw(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		c.fail(col, v, "is not a finite number")
		return 0
	}
	return f
}

func (c *cells) sign(col string) types.Sign {
	v := c.raw(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.fail(col, v, "is not a number")
		return 0
	}
	s := types.Sign(f)
	if float64(s) != f || !s.Valid() {
		c.fail(col, v, "is not 1 or -1")
		return 0
	}
	return s
}

func (c *cells) nodeType(col string) types.NodeType {
	v := c.raw(col)
	switch t := types.NodeType(v); t {
	case types.NodeInner, types.NodeMeasured, types.NodePerturbed, types.NodeProtein, types.NodeMetabolite:
		return t
	}
	c.fail(col, v, "is not a known node type")
	return types.NodeInner
}
