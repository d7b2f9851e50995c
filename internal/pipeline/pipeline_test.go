// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongzhonglu/transcriptutorial/internal/results"
	"github.com/hongzhonglu/transcriptutorial/internal/solver"
	"github.com/hongzhonglu/transcriptutorial/internal/store"
	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

const chainInteractions = "source_genesymbol\ttarget_genesymbol\tis_directed\tconsensus_direction\tconsensus_stimulation\tconsensus_inhibition\n" +
	"A\tB\t1\t1\t1\t0\n" +
	"B\tC\t1\t1\t1\t0\n" +
	"C\tD\t0\t0\t0\t0\n"

// fakeSolver records its input and returns a fixed pool summary.
type fakeSolver struct {
	in  types.SolverInput
	err error
	raw *solver.RawResult
}

func (f *fakeSolver) Name() string { return "fake" }

func (f *fakeSolver) Solve(_ context.Context, in types.SolverInput, _ types.SolverConfig) (*solver.RawResult, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func chainRaw() *solver.RawResult {
	return &solver.RawResult{
		WeightedSIF: solver.RawTable{
			Header: []string{"Node1", "Sign", "Node2", "Weight"},
			Rows:   [][]string{{"A", "1", "B", "100"}, {"B", "1", "C", "100"}},
		},
		Nodes: solver.RawTable{
			Header: []string{"Node", "ZeroAct", "UpAct", "DownAct", "AvgAct", "NodeType"},
			Rows: [][]string{
				{"A", "0", "0", "100", "-100", "S"},
				{"B", "0", "0", "100", "-100", ""},
				{"C", "0", "0", "100", "-100", "T"},
			},
		},
	}
}

func omniPathServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		fmt.Fprint(w, chainInteractions)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) types.PipelineConfig {
	t.Helper()
	dir := t.TempDir()
	tf := filepath.Join(dir, "tf.csv")
	require.NoError(t, os.WriteFile(tf, []byte("id,t\nC,-2.5\nZNF1,1.2\n"), 0o644))

	cfg := types.DefaultPipelineConfig()
	cfg.Network.BaseURL = baseURL
	cfg.Network.CacheDir = ""
	cfg.Network.MaxRetries = 0
	cfg.Network.OutputPath = filepath.Join(dir, "network.tsv")
	cfg.Activity.TFPath = tf
	cfg.Activity.PathwayPath = ""
	cfg.Solver.Solver = types.SolverLpSolve
	cfg.Solver.WorkDir = filepath.Join(dir, "work")
	cfg.Output = types.OutputConfig{
		ResultPath: filepath.Join(dir, "result.yaml"),
		DBPath:     filepath.Join(dir, "runs.db"),
		HTMLPath:   filepath.Join(dir, "network.html"),
		DOTPath:    filepath.Join(dir, "network.dot"),
	}
	return cfg
}

func TestRun_ChainScenario(t *testing.T) {
	srv := omniPathServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	fake := &fakeSolver{raw: chainRaw()}
	var out bytes.Buffer

	sum, err := Run(context.Background(), cfg, fake, &out)
	require.NoError(t, err)

	// The solver receives exactly the four structured inputs.
	assert.Equal(t, []types.PerturbationNode{types.Unconstrained("A")}, fake.in.Perturbations)
	assert.Equal(t, []string{"C"}, fake.in.Measurements.Order)
	assert.Equal(t, -2.5, fake.in.Measurements.Scores["C"])
	assert.Equal(t, []types.Edge{
		{Source: "A", Interaction: types.Activation, Target: "B"},
		{Source: "B", Interaction: types.Activation, Target: "C"},
	}, fake.in.Network)
	assert.Nil(t, fake.in.Weights)

	assert.Equal(t, 3, sum.Interactions)
	assert.Len(t, sum.Filter.Edges, 2)
	assert.Equal(t, 2, sum.Measurements)
	assert.Equal(t, []string{"ZNF1"}, sum.Assembly.UnmatchedMeasurements)
	assert.Equal(t, 2, sum.Result.Edges)

	// The network file is the filtered SIF.
	sif, err := os.ReadFile(cfg.Network.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "source\tinteraction\ttarget\nA\t1\tB\nB\t1\tC\n", string(sif))

	// The persisted result round-trips to the parsed values.
	want, err := results.Parse(chainRaw())
	require.NoError(t, err)
	got, err := results.Load(cfg.Output.ResultPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	st, err := store.Open(cfg.Output.DBPath)
	require.NoError(t, err)
	defer st.Close()
	run, stored, err := st.LoadRun(context.Background(), sum.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, want, stored)
	assert.Equal(t, "lpSolve", run.Solver)
	assert.Equal(t, "t", run.Column)

	for _, p := range []string{cfg.Output.HTMLPath, cfg.Output.DOTPath} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	assert.Contains(t, out.String(), "Pipeline summary:")
}

func TestRun_StageErrors(t *testing.T) {
	t.Run("fetch failure", func(t *testing.T) {
		srv := omniPathServer(t, http.StatusNotFound)
		_, err := Run(context.Background(), testConfig(t, srv.URL), &fakeSolver{raw: chainRaw()}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), StageNetwork+":")
	})

	t.Run("missing activity table", func(t *testing.T) {
		srv := omniPathServer(t, http.StatusOK)
		cfg := testConfig(t, srv.URL)
		cfg.Activity.TFPath = filepath.Join(t.TempDir(), "missing.csv")
		_, err := Run(context.Background(), cfg, &fakeSolver{raw: chainRaw()}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), StageActivity+":")
	})

	t.Run("solver failure", func(t *testing.T) {
		srv := omniPathServer(t, http.StatusOK)
		cfg := testConfig(t, srv.URL)
		boom := errors.New("licence expired")
		_, err := Run(context.Background(), cfg, &fakeSolver{err: boom}, &bytes.Buffer{})
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), StageSolve+":")
		_, statErr := os.Stat(cfg.Output.ResultPath)
		assert.True(t, os.IsNotExist(statErr), "nothing persisted after a solver failure")
	})

	t.Run("coercion failure", func(t *testing.T) {
		srv := omniPathServer(t, http.StatusOK)
		raw := chainRaw()
		raw.WeightedSIF.Rows[0][3] = "n/a"
		_, err := Run(context.Background(), testConfig(t, srv.URL), &fakeSolver{raw: raw}, &bytes.Buffer{})
		assert.ErrorIs(t, err, results.ErrCoercion)
	})
}

func TestRun_RenderFailureKeepsResults(t *testing.T) {
	srv := omniPathServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	// A regular file where the output directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.Output.HTMLPath = filepath.Join(blocker, "network.html")

	sum, err := Run(context.Background(), cfg, &fakeSolver{raw: chainRaw()}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), StageRender+":")
	assert.NotEmpty(t, sum.Run.ID)

	_, err = results.Load(cfg.Output.ResultPath)
	assert.NoError(t, err)
}
