// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/hongzhonglu/transcriptutorial/internal/solver"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// Format is a serialization format for saved results.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported result file extension %q (want .yaml, .yml or .json)", filepath.Ext(path))
}

// Marshal encodes r in the given format.
func Marshal(r *types.SolverResult, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(r)
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// Save writes r to path in the format implied by its extension. The file is
// replaced atomically so a failed save leaves any earlier result intact.
func Save(path string, r *types.SolverResult) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(r, f)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return writeAtomic(path, data)
}

// Load reads a result written by Save and validates it.
func Load(path string) (*types.SolverResult, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}

	var r types.SolverResult
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &r)
	case FormatJSON:
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &r, nil
}

// WriteWeightedSIF writes the edge table with the solver's column names.
func WriteWeightedSIF(w io.Writer, edges []types.WeightedEdge) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.Write(sifColumns)
	for _, e := range edges {
		cw.Write([]string{e.Source, strconv.Itoa(int(e.Sign)), e.Target, formatFloat(e.Weight)})
	}
	cw.Flush()
	return cw.Error()
}

// WriteNodes writes the node attribute table with the solver's column names.
func WriteNodes(w io.Writer, nodes []types.NodeAttribute) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.Write(nodeColumns)
	for _, n := range nodes {
		cw.Write([]string{
			n.Node,
			formatFloat(n.ZeroAct),
			formatFloat(n.UpAct),
			formatFloat(n.DownAct),
			formatFloat(n.AvgAct),
			string(n.NodeType),
		})
	}
	cw.Flush()
	return cw.Error()
}

// ExportTSV writes both tables into dir under the names the solver uses
// and returns the two paths.
func ExportTSV(dir string, r *types.SolverResult) (sifPath, nodesPath string, err error) {
	var sif, nodes bytes.Buffer
	if err := WriteWeightedSIF(&sif, r.WeightedSIF); err != nil {
		return "", "", fmt.Errorf("encoding edges: %w", err)
	}
	if err := WriteNodes(&nodes, r.Nodes); err != nil {
		return "", "", fmt.Errorf("encoding nodes: %w", err)
	}
	sifPath = filepath.Join(dir, solver.WeightedSIFFile)
	nodesPath = filepath.Join(dir, solver.NodesFile)
	if err := writeAtomic(sifPath, sif.Bytes()); err != nil {
		return "", "", err
	}
	if err := writeAtomic(nodesPath, nodes.Bytes()); err != nil {
		return "", "", err
	}
	return sifPath, nodesPath, nil
}

// Stats summarises a result for status output.
type Stats struct {
	Edges      int
	Nodes      int
	Activating int
	Inhibiting int
	Measured   int
	Perturbed  int
	MeanWeight float64
}

// Summarize counts edges by sign and nodes by role.
func Summarize(r *types.SolverResult) Stats {
	s := Stats{Edges: len(r.WeightedSIF), Nodes: len(r.Nodes)}
	var total float64
	for _, e := range r.WeightedSIF {
		if e.Sign == types.Activation {
			s.Activating++
		} else {
			s.Inhibiting++
		}
		total += e.Weight
	}
	if s.Edges > 0 {
		s.MeanWeight = total / float64(s.Edges)
	}
	for _, n := range r.Nodes {
		switch n.NodeType {
		case types.NodeMeasured:
			s.Measured++
		case types.NodePerturbed:
			s.Perturbed++
		}
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".result-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, errors.Join(writeErr, closeErr))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
