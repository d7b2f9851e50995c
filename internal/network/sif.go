// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package network

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

var sifHeader = []string{"source", "interaction", "target"}

// WriteSIF writes edges as a tab-separated table with a header row.
func WriteSIF(w io.Writer, edges []types.Edge) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(sifHeader); err != nil {
		return err
	}
	for _, e := range edges {
		if err := cw.Write([]string{e.Source, strconv.Itoa(int(e.Interaction)), e.Target}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSIFFile writes edges to path, replacing any existing file atomically.
func WriteSIFFile(path string, edges []types.Edge) error {
	var buf bytes.Buffer
	if err := WriteSIF(&buf, edges); err != nil {
		return fmt.Errorf("encoding network: %w", err)
	}
	return writeAtomic(path, &buf)
}

// ReadSIF parses a table written by WriteSIF. Interaction values must be
// 1 or -1.
func ReadSIF(r io.Reader) ([]types.Edge, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = 3

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, h := range header {
		if strings.TrimSpace(h) != sifHeader[i] {
			return nil, fmt.Errorf("column %d is %q, want %q: %w", i+1, h, sifHeader[i], ErrSchema)
		}
	}

	var edges []types.Edge
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || !types.Sign(n).Valid() {
			return nil, fmt.Errorf("line %d: invalid interaction %q", line, row[1])
		}
		edges = append(edges, types.Edge{Source: row[0], Interaction: types.Sign(n), Target: row[2]})
	}
	return edges, nil
}

// ReadSIFFile reads a network written by WriteSIFFile.
func ReadSIFFile(path string) ([]types.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening network %s: %w", path, err)
	}
	defer f.Close()
	edges, err := ReadSIF(f)
	if err != nil {
		return nil, fmt.Errorf("reading network %s: %w", path, err)
	}
	return edges, nil
}
