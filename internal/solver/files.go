// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package solver

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hongzhonglu/transcriptutorial/internal/network"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

const (
	networkFile       = "network.tsv"
	measurementsFile  = "measurements.tsv"
	perturbationsFile = "perturbations.tsv"
	weightsFile       = "weights.tsv"
	outDir            = "out"

	// WeightedSIFFile and NodesFile are the tables the wrapper writes into
	// its output directory.
	WeightedSIFFile = "weightedSIF.tsv"
	NodesFile       = "nodesAttributes.tsv"

	// unconstrainedValue marks a perturbation whose sign the solver chooses.
	unconstrainedValue = "NaN"
)

// InputFiles names the files an input was written to. Weights is empty
// when the input has no node weights.
type InputFiles struct {
	Network       string
	Measurements  string
	Perturbations string
	Weights       string
}

// WriteInputs writes in as tab-separated files under dir. The network is a
// SIF table; measurements, perturbations and weights are single-row wide
// tables with node identifiers as the header.
func WriteInputs(dir string, in types.SolverInput) (InputFiles, error) {
	files := InputFiles{
		Network:       filepath.Join(dir, networkFile),
		Measurements:  filepath.Join(dir, measurementsFile),
		Perturbations: filepath.Join(dir, perturbationsFile),
	}
	if err := network.WriteSIFFile(files.Network, in.Network); err != nil {
		return InputFiles{}, fmt.Errorf("writing network: %w", err)
	}
	ids, values := scoredRow(in.Measurements)
	if err := writeWideFile(files.Measurements, ids, values); err != nil {
		return InputFiles{}, fmt.Errorf("writing measurements: %w", err)
	}

	ids = make([]string, len(in.Perturbations))
	values = make([]string, len(in.Perturbations))
	for i, p := range in.Perturbations {
		ids[i] = p.ID
		values[i] = unconstrainedValue
		if !p.Unconstrained {
			values[i] = formatFloat(p.Value)
		}
	}
	if err := writeWideFile(files.Perturbations, ids, values); err != nil {
		return InputFiles{}, fmt.Errorf("writing perturbations: %w", err)
	}

	if in.Weights != nil {
		files.Weights = filepath.Join(dir, weightsFile)
		ids, values := scoredRow(*in.Weights)
		if err := writeWideFile(files.Weights, ids, values); err != nil {
			return InputFiles{}, fmt.Errorf("writing weights: %w", err)
		}
	}
	return files, nil
}

func scoredRow(l types.ScoredList) ([]string, []string) {
	values := make([]string, len(l.Order))
	for i, id := range l.Order {
		values[i] = formatFloat(l.Scores[id])
	}
	return l.Order, values
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeWideFile(path string, header, row []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	cw.Comma = '\t'
	cw.Write(header)
	cw.Write(row)
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Args builds the wrapper command line for the given file locations.
func Args(files InputFiles, cfg types.SolverConfig, out string) []string {
	args := []string{
		"--network", files.Network,
		"--measurements", files.Measurements,
		"--perturbations", files.Perturbations,
	}
	if files.Weights != "" {
		args = append(args, "--weights", files.Weights)
	}
	args = append(args, "--solver", string(cfg.Solver))
	if cfg.SolverPath != "" {
		args = append(args, "--solver-path", cfg.SolverPath)
	}
	return append(args,
		"--time-limit", strconv.Itoa(int(cfg.TimeLimit/time.Second)),
		"--mip-gap", formatFloat(cfg.MIPGap),
		"--pool-rel-gap", formatFloat(cfg.PoolRelGap),
		"--out-dir", out,
	)
}

// ReadRawTable reads a tab-separated table with a header row. Every row
// must have as many cells as the header.
func ReadRawTable(r io.Reader) (RawTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return RawTable{}, fmt.Errorf("missing header")
		}
		return RawTable{}, err
	}
	t := RawTable{Header: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return RawTable{}, err
		}
		t.Rows = append(t.Rows, row)
	}
}

func readRawTableFile(path string) (RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawTable{}, fmt.Errorf("solver output: %w", err)
	}
	defer f.Close()
	t, err := ReadRawTable(f)
	if err != nil {
		return RawTable{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// ReadRawResult reads both result tables from a wrapper output directory.
func ReadRawResult(dir string) (*RawResult, error) {
	sif, err := readRawTableFile(filepath.Join(dir, WeightedSIFFile))
	if err != nil {
		return nil, err
	}
	nodes, err := readRawTableFile(filepath.Join(dir, NodesFile))
	if err != nil {
		return nil, err
	}
	return &RawResult{WeightedSIF: sif, Nodes: nodes}, nil
}

// prepareOutDir empties the output directory so a failed run cannot pick up
// tables from an earlier one.
func prepareOutDir(dir string) (string, error) {
	out := filepath.Join(dir, outDir)
	if err := os.RemoveAll(out); err != nil {
		return "", fmt.Errorf("clearing output directory: %w", err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return out, nil
}
