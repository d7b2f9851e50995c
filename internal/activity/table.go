// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package activity reshapes transcription factor and pathway activity tables
// into the scored node lists the network solver consumes.
package activity

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// ErrNoColumn is returned when a column selector matches no sample column.
var ErrNoColumn = errors.New("no such column")

// missing cell spellings that read as NaN.
var missing = map[string]bool{"": true, "NA": true, "NaN": true, "nan": true}

// ReadTable parses a delimited activity table. The first column holds
// entity identifiers and the remaining columns numeric scores, one per
// sample. delim forces the separator; 0 detects tab or comma from the header.
func ReadTable(r io.Reader, delim rune) (types.ActivityTable, error) {
	br := bufio.NewReader(r)
	if delim == 0 {
		head, err := br.Peek(4096)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return types.ActivityTable{}, fmt.Errorf("reading header: %w", err)
		}
		delim = detectDelimiter(string(head))
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return types.ActivityTable{}, fmt.Errorf("empty activity table")
		}
		return types.ActivityTable{}, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 2 {
		return types.ActivityTable{}, fmt.Errorf("activity table needs an identifier column and at least one score column, got %d column(s)", len(header))
	}

	table := types.ActivityTable{Columns: append([]string(nil), header[1:]...)}
	seen := make(map[string]int)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.ActivityTable{}, fmt.Errorf("line %d: %w", line, err)
		}

		id := strings.TrimSpace(row[0])
		if id == "" {
			return types.ActivityTable{}, fmt.Errorf("line %d: empty identifier", line)
		}
		if prev, ok := seen[id]; ok {
			return types.ActivityTable{}, fmt.Errorf("line %d: duplicate identifier %q (first on line %d)", line, id, prev)
		}
		seen[id] = line

		values := make([]float64, len(table.Columns))
		for i, cell := range row[1:] {
			cell = strings.TrimSpace(cell)
			if missing[cell] {
				values[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return types.ActivityTable{}, fmt.Errorf("line %d, column %s: invalid score %q", line, table.Columns[i], cell)
			}
			values[i] = v
		}
		table.IDs = append(table.IDs, id)
		table.Values = append(table.Values, values)
	}
	return table, nil
}

// ReadTableFile reads the activity table at path.
func ReadTableFile(path string, delim rune) (types.ActivityTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ActivityTable{}, fmt.Errorf("opening activity table: %w", err)
	}
	defer f.Close()
	t, err := ReadTable(f, delim)
	if err != nil {
		return types.ActivityTable{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// ParseDelimiter maps a configured delimiter name to a rune. Empty means
// auto-detect (0).
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case "comma", ",":
		return ',', nil
	case "semicolon", ";":
		return ';', nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q", s)
}

func detectDelimiter(head string) rune {
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if strings.Count(head, "\t") >= strings.Count(head, ",") && strings.Contains(head, "\t") {
		return '\t'
	}
	return ','
}

// SelectColumn resolves selector to a column index. The selector is either
// a column name or a 0-based index; empty selects the first column.
func SelectColumn(table types.ActivityTable, selector string) (int, error) {
	if selector == "" {
		if len(table.Columns) == 0 {
			return 0, fmt.Errorf("table has no score columns: %w", ErrNoColumn)
		}
		return 0, nil
	}
	if i := table.ColumnIndex(selector); i >= 0 {
		return i, nil
	}
	if i, err := strconv.Atoi(selector); err == nil {
		if i < 0 || i >= len(table.Columns) {
			return 0, fmt.Errorf("column index %d out of range [0, %d): %w", i, len(table.Columns), ErrNoColumn)
		}
		return i, nil
	}
	return 0, fmt.Errorf("column %q: %w", selector, ErrNoColumn)
}

// Column returns the scores of one sample column as a ScoredList in table
// row order. Missing values are skipped.
func Column(table types.ActivityTable, col int) types.ScoredList {
	list := types.NewScoredList(table.Columns[col])
	for i, id := range table.IDs {
		v := table.Values[i][col]
		if math.IsNaN(v) {
			continue
		}
		list.Set(id, v)
	}
	return list
}
