// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongzhonglu/transcriptutorial/internal/httputil"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const interactionsTSV = "source\ttarget\tsource_genesymbol\ttarget_genesymbol\tis_directed\tis_stimulation\tis_inhibition\tconsensus_direction\tconsensus_stimulation\tconsensus_inhibition\n" +
	"P1\tP2\tEGFR\tGRB2\t1\t1\t0\t1\t1\t0\n" +
	"P2\tP3\tGRB2\tSOS1\t1\t1\t0\t1\t1\t0\n" +
	"P4\tP5\tPTEN\tAKT1\t1\t0\t1\t1\t0\t1\n" +
	"P6\tP7\tNFKB1:RELA\tTNF\t1\t1\t0\t1\t1\t0\n" +
	"P8\tP9\tA\tB\t1\t1\t1\t1\t1\t1\n" +
	"P10\tP11\tC\tD\t0\t0\t0\t0\t0\t0\n" +
	"P1\tP2\tEGFR\tGRB2\t1\t1\t0\t1\t1\t0\n"

func TestEdgeSign_MappingTable(t *testing.T) {
	tests := []struct {
		direction, stim, inh bool
		wantSign             types.Sign
		wantKeep             bool
	}{
		{false, false, false, 0, false},
		{false, true, false, 0, false},
		{false, false, true, 0, false},
		{false, true, true, 0, false},
		{true, false, false, 0, false},
		{true, true, false, types.Activation, true},
		{true, false, true, types.Inhibition, true},
		{true, true, true, 0, false},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("dir=%v stim=%v inh=%v", tt.direction, tt.stim, tt.inh)
		t.Run(name, func(t *testing.T) {
			sign, keep := EdgeSign(types.InteractionRecord{
				Source:               "A",
				Target:               "B",
				ConsensusDirection:   tt.direction,
				ConsensusStimulation: tt.stim,
				ConsensusInhibition:  tt.inh,
			})
			assert.Equal(t, tt.wantKeep, keep)
			if tt.wantKeep {
				assert.Equal(t, tt.wantSign, sign)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	records, err := ParseInteractions(strings.NewReader(interactionsTSV))
	require.NoError(t, err)
	require.Len(t, records, 7)

	res := Filter(records)

	want := []types.Edge{
		{Source: "EGFR", Interaction: types.Activation, Target: "GRB2"},
		{Source: "GRB2", Interaction: types.Activation, Target: "SOS1"},
		{Source: "PTEN", Interaction: types.Inhibition, Target: "AKT1"},
		{Source: "NFKB1_RELA", Interaction: types.Activation, Target: "TNF"},
	}
	assert.Equal(t, want, res.Edges)
	assert.Equal(t, 1, res.Undirected)
	assert.Equal(t, 0, res.Unsigned)
	assert.Equal(t, 1, res.SignConflict)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 3, res.Dropped())
}

func TestFilter_Invariants(t *testing.T) {
	// Every combination of flags over a small node set, repeated twice.
	var records []types.InteractionRecord
	for i := 0; i < 2; i++ {
		for mask := 0; mask < 8; mask++ {
			records = append(records, types.InteractionRecord{
				Source:               fmt.Sprintf("S:%d", mask%3),
				Target:               fmt.Sprintf("T:%d", mask%2),
				ConsensusDirection:   mask&1 != 0,
				ConsensusStimulation: mask&2 != 0,
				ConsensusInhibition:  mask&4 != 0,
			})
		}
	}

	res := Filter(records)

	seen := map[types.Edge]bool{}
	for _, e := range res.Edges {
		assert.False(t, seen[e], "duplicate edge %v", e)
		seen[e] = true
		assert.NotContains(t, e.Source, ":")
		assert.NotContains(t, e.Target, ":")
		assert.True(t, e.Interaction.Valid())
	}

	// An edge appears iff some record keeps it with exactly that sign.
	for _, rec := range records {
		sign, keep := EdgeSign(rec)
		e := types.Edge{Source: NormalizeID(rec.Source), Interaction: sign, Target: NormalizeID(rec.Target)}
		if keep {
			assert.True(t, seen[e], "kept record %+v missing from output", rec)
		}
	}
	assert.Equal(t, len(records), len(res.Edges)+res.Dropped())
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "NFKB1_RELA", NormalizeID("NFKB1:RELA"))
	assert.Equal(t, "A_B_C", NormalizeID("A:B:C"))
	assert.Equal(t, "TP53", NormalizeID("TP53"))
}

func TestParseInteractions_Schema(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no consensus columns", "source\ttarget\nA\tB\n"},
		{"missing target", "source\tconsensus_direction\tconsensus_stimulation\tconsensus_inhibition\nA\t1\t1\t0\n"},
		{"bad flag", "source\ttarget\tconsensus_direction\tconsensus_stimulation\tconsensus_inhibition\nA\tB\tmaybe\t1\t0\n"},
		{"short row", "source\ttarget\tconsensus_direction\tconsensus_stimulation\tconsensus_inhibition\nA\tB\t1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInteractions(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.name != "short row" {
				assert.ErrorIs(t, err, ErrSchema)
			}
		})
	}
}

func TestParseInteractions_FallbackColumns(t *testing.T) {
	input := "source\ttarget\tconsensus_direction\tconsensus_stimulation\tconsensus_inhibition\n" +
		"EGFR\tGRB2\tTRUE\tTRUE\tFALSE\n"
	records, err := ParseInteractions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "EGFR", records[0].Source)
	assert.True(t, records[0].ConsensusStimulation)
	assert.True(t, records[0].IsDirected)
}

func testConfig(url, cacheDir string) types.NetworkConfig {
	return types.NetworkConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test-agent", MaxRetries: 3},
		BaseURL:    url,
		CacheDir:   cacheDir,
	}
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.URL.Query().Get("genesymbols"))
		assert.Contains(t, r.URL.Query().Get("fields"), "consensus_direction")
		fmt.Fprint(w, interactionsTSV)
	}))
	defer ts.Close()

	c := NewClient(testConfig(ts.URL, ""))
	records, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 7)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetch_PermanentFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewClient(testConfig(ts.URL, "")).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetch_SchemaMismatchNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, "a\tb\n1\t2\n")
	}))
	defer ts.Close()

	_, err := NewClient(testConfig(ts.URL, "")).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_Cache(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, interactionsTSV)
	}))
	defer ts.Close()

	cacheDir := t.TempDir()
	cfg := testConfig(ts.URL, cacheDir)

	_, err := NewClient(cfg).Fetch(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cacheDir, cacheFile))
	require.NoError(t, err)

	records, err := NewClient(cfg).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 7)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second fetch should be served from cache")

	cfg.Refresh = true
	_, err = NewClient(cfg).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSIF_RoundTrip(t *testing.T) {
	edges := []types.Edge{
		{Source: "A", Interaction: types.Activation, Target: "B"},
		{Source: "B", Interaction: types.Inhibition, Target: "C"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSIF(&buf, edges))
	assert.Equal(t, "source\tinteraction\ttarget\nA\t1\tB\nB\t-1\tC\n", buf.String())

	got, err := ReadSIF(&buf)
	require.NoError(t, err)
	assert.Equal(t, edges, got)

	path := filepath.Join(t.TempDir(), "out", "network.tsv")
	require.NoError(t, WriteSIFFile(path, edges))
	got, err = ReadSIFFile(path)
	require.NoError(t, err)
	assert.Equal(t, edges, got)
}

func TestReadSIF_Invalid(t *testing.T) {
	_, err := ReadSIF(strings.NewReader("source\tinteraction\ttarget\nA\t0\tB\n"))
	assert.Error(t, err)

	_, err = ReadSIF(strings.NewReader("from\tsign\tto\nA\t1\tB\n"))
	assert.ErrorIs(t, err, ErrSchema)
}

func TestPerturbationNodes(t *testing.T) {
	edges := []types.Edge{
		{Source: "A", Interaction: types.Activation, Target: "B"},
		{Source: "B", Interaction: types.Activation, Target: "C"},
		{Source: "D", Interaction: types.Inhibition, Target: "C"},
		{Source: "A", Interaction: types.Inhibition, Target: "C"},
		{Source: "E", Interaction: types.Activation, Target: "E"},
	}

	got := PerturbationNodes(edges)

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ID)
	assert.Equal(t, "D", got[1].ID)
	for _, p := range got {
		assert.True(t, p.Unconstrained)
	}

	g := NewGraph(edges)
	roots := g.Roots()
	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	assert.Equal(t, ids, roots, "graph roots and set difference must agree")
	for _, id := range ids {
		assert.NotEmpty(t, g.Successors(id), "perturbation node %s must be a source", id)
	}
}

func TestGraph(t *testing.T) {
	g := NewGraph([]types.Edge{
		{Source: "A", Interaction: types.Activation, Target: "B"},
		{Source: "A", Interaction: types.Inhibition, Target: "B"},
		{Source: "A", Interaction: types.Activation, Target: "C"},
	})
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"A", "B", "C"}, g.Nodes())
	assert.Equal(t, []string{"B", "C"}, g.Successors("A"))
	assert.True(t, g.HasNode("C"))
	assert.False(t, g.HasNode("Z"))
	assert.Nil(t, g.Successors("Z"))
}
