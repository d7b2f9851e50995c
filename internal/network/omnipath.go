// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package network builds the signed prior-knowledge network from the
// OmniPath interaction database: it fetches interaction records, keeps the
// directed sign-consistent ones, and writes them as a SIF edge table.
package network

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hongzhonglu/transcriptutorial/internal/ctxlog"
	"github.com/hongzhonglu/transcriptutorial/internal/httputil"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// ErrSchema is returned when the interaction table lacks a required column.
// Schema errors are not retried.
var ErrSchema = errors.New("unexpected interaction table schema")

const cacheFile = "omnipath_interactions.tsv"

// queryFields are requested explicitly so the consensus columns are present
// regardless of server defaults.
var queryFields = []string{
	"is_directed",
	"is_stimulation",
	"is_inhibition",
	"consensus_direction",
	"consensus_stimulation",
	"consensus_inhibition",
}

// Client queries the OmniPath interactions endpoint.
type Client struct {
	HTTP   *http.Client
	Config types.NetworkConfig
}

// NewClient returns a Client with an HTTP client honouring cfg.Timeout.
func NewClient(cfg types.NetworkConfig) *Client {
	return &Client{
		HTTP:   &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}
}

// QueryURL returns the interactions query for the configured endpoint.
func (c *Client) QueryURL() string {
	params := url.Values{
		"genesymbols": {"yes"},
		"datasets":    {"omnipath"},
		"organisms":   {"9606"},
		"fields":      {strings.Join(queryFields, ",")},
		"license":     {"academic"},
	}
	return c.Config.BaseURL + "?" + params.Encode()
}

// Fetch returns all interaction records. A cached query result is used when
// present unless Config.Refresh is set. Transient HTTP failures are retried;
// any other non-200 status and schema mismatches are fatal.
func (c *Client) Fetch(ctx context.Context) ([]types.InteractionRecord, error) {
	log := ctxlog.FromContext(ctx)

	var cachePath string
	if c.Config.CacheDir != "" {
		cachePath = filepath.Join(c.Config.CacheDir, cacheFile)
		if !c.Config.Refresh {
			if f, err := os.Open(cachePath); err == nil {
				defer f.Close()
				log.Debug("using cached interactions", "path", cachePath)
				return ParseInteractions(f)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.QueryURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("OmniPath request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OmniPath returned HTTP %d", resp.StatusCode)
	}

	if cachePath == "" {
		return ParseInteractions(resp.Body)
	}

	if err := writeAtomic(cachePath, resp.Body); err != nil {
		return nil, fmt.Errorf("caching interactions: %w", err)
	}
	f, err := os.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("opening cached interactions: %w", err)
	}
	defer f.Close()
	return ParseInteractions(f)
}

// ParseInteractions reads a tab-separated interaction table with a header
// row. Gene symbol columns are preferred over UniProt identifiers when both
// are present. Flags accept 1/0 and true/false in any case.
func ParseInteractions(r io.Reader) ([]types.InteractionRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty interaction table: %w", ErrSchema)
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}

	source, ok := firstColumn(cols, "source_genesymbol", "source")
	if !ok {
		return nil, fmt.Errorf("missing source column: %w", ErrSchema)
	}
	target, ok := firstColumn(cols, "target_genesymbol", "target")
	if !ok {
		return nil, fmt.Errorf("missing target column: %w", ErrSchema)
	}
	required := []string{"consensus_direction", "consensus_stimulation", "consensus_inhibition"}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing %s column: %w", name, ErrSchema)
		}
	}
	directed, hasDirected := cols["is_directed"]

	var records []types.InteractionRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) < len(header) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d: %w", line, len(row), len(header), ErrSchema)
		}

		rec := types.InteractionRecord{
			Source: row[source],
			Target: row[target],
		}
		flags := []struct {
			col string
			dst *bool
		}{
			{"consensus_direction", &rec.ConsensusDirection},
			{"consensus_stimulation", &rec.ConsensusStimulation},
			{"consensus_inhibition", &rec.ConsensusInhibition},
		}
		for _, f := range flags {
			v, err := parseFlag(row[cols[f.col]])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, f.col, err)
			}
			*f.dst = v
		}
		if hasDirected {
			v, err := parseFlag(row[directed])
			if err != nil {
				return nil, fmt.Errorf("line %d, column is_directed: %w", line, err)
			}
			rec.IsDirected = v
		} else {
			rec.IsDirected = rec.ConsensusDirection
		}
		records = append(records, rec)
	}
	return records, nil
}

func firstColumn(cols map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes":
		return true, nil
	case "0", "false", "f", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid flag %q: %w", s, ErrSchema)
}

// writeAtomic copies r to path through a temporary file in the same
// directory, renaming it into place on success.
func writeAtomic(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".network-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, r)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
