// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// --- test helpers ---

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// entityTable builds a one-column table of n entities TF001..TFn with
// distinct scores; even entities are negative.
func entityTable(n int) types.ActivityTable {
	t := types.ActivityTable{Columns: []string{"t_vs_c"}}
	for i := 1; i <= n; i++ {
		v := float64(i) / 10
		if i%2 == 0 {
			v = -v
		}
		t.IDs = append(t.IDs, fmt.Sprintf("TF%03d", i))
		t.Values = append(t.Values, []float64{v})
	}
	return t
}

type nodeSet map[string]bool

func (s nodeSet) HasNode(id string) bool { return s[id] }

// --- ReadTable ---

func TestReadTable(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		delim   rune
		wantIDs []string
		wantCol []string
	}{
		{
			name:    "comma with empty corner cell",
			input:   "\"\",\"t\"\nSTAT1,1.5\nMYC,-2\n",
			wantIDs: []string{"STAT1", "MYC"},
			wantCol: []string{"t"},
		},
		{
			name:    "tab detected",
			input:   "id\ts1\ts2\nSTAT1\t1.5\t0.1\nMYC\t-2\t3\n",
			wantIDs: []string{"STAT1", "MYC"},
			wantCol: []string{"s1", "s2"},
		},
		{
			name:    "forced semicolon",
			input:   "id;s1\nSTAT1;1.5\n",
			delim:   ';',
			wantIDs: []string{"STAT1"},
			wantCol: []string{"s1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadTable(strings.NewReader(tt.input), tt.delim)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, table.IDs)
			assert.Equal(t, tt.wantCol, table.Columns)
			assert.Equal(t, 1.5, table.Values[0][0])
		})
	}
}

func TestReadTable_MissingValues(t *testing.T) {
	table, err := ReadTable(strings.NewReader("id,s1\nA,NA\nB,2\n"), 0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(table.Values[0][0]))

	list := Column(table, 0)
	assert.Equal(t, []string{"B"}, list.Order)
}

func TestReadTable_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty", "", "empty"},
		{"single column", "id\nA\n", "at least one score column"},
		{"duplicate id", "id,s\nA,1\nA,2\n", "duplicate identifier"},
		{"bad value", "id,s\nA,high\n", "invalid score"},
		{"empty id", "id,s\n,1\n", "empty identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.input), 0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": 0, "tab": '\t', ",": ',', "comma": ',', ";": ';'} {
		got, err := ParseDelimiter(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
	}
	_, err := ParseDelimiter("pipe")
	assert.Error(t, err)
}

func TestSelectColumn(t *testing.T) {
	table := types.ActivityTable{Columns: []string{"a", "b", "c"}}

	tests := []struct {
		selector string
		want     int
		wantErr  bool
	}{
		{"", 0, false},
		{"b", 1, false},
		{"2", 2, false},
		{"3", 0, true},
		{"-1", 0, true},
		{"zzz", 0, true},
	}
	for _, tt := range tests {
		got, err := SelectColumn(table, tt.selector)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrNoColumn, "selector %q", tt.selector)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "selector %q", tt.selector)
	}
}

// --- TopN ---

func TestTopN_SelectsHighestOf200(t *testing.T) {
	table := types.ActivityTable{Columns: []string{"score"}}
	for i := 0; i < 200; i++ {
		table.IDs = append(table.IDs, fmt.Sprintf("TF%03d", i))
		table.Values = append(table.Values, []float64{float64((i*37)%200) + 0.5})
	}

	for _, rank := range []types.RankBy{types.RankAbsolute, types.RankSigned} {
		t.Run(string(rank), func(t *testing.T) {
			list, err := TopN(table, 0, DefaultTopN, rank)
			require.NoError(t, err)
			require.Equal(t, 50, list.Len())
			assert.Equal(t, "score", list.Column)
			for _, id := range list.Order {
				assert.GreaterOrEqual(t, list.Scores[id], 150.5, "entity %s is not in the top 50", id)
			}
			assert.Equal(t, 199.5, list.Scores[list.Order[0]])
		})
	}
}

func TestTopN_Ranking(t *testing.T) {
	table := entityTable(6) // 0.1 -0.2 0.3 -0.4 0.5 -0.6

	abs, err := TopN(table, 0, 3, types.RankAbsolute)
	require.NoError(t, err)
	assert.Equal(t, []string{"TF006", "TF005", "TF004"}, abs.Order)

	signed, err := TopN(table, 0, 3, types.RankSigned)
	require.NoError(t, err)
	assert.Equal(t, []string{"TF005", "TF003", "TF001"}, signed.Order)

	all, err := TopN(table, 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 6, all.Len())

	_, err = TopN(table, 0, 3, "median")
	assert.Error(t, err)
	_, err = TopN(table, 1, 3, types.RankAbsolute)
	assert.ErrorIs(t, err, ErrNoColumn)
}

func TestTopN_TiesBrokenByID(t *testing.T) {
	table := types.ActivityTable{
		Columns: []string{"s"},
		IDs:     []string{"B", "A", "C"},
		Values:  [][]float64{{1}, {-1}, {0.5}},
	}
	list, err := TopN(table, 0, 2, types.RankAbsolute)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, list.Order)
}

// --- pathways ---

func TestAssignPathwayScores(t *testing.T) {
	pathways := types.NewScoredList("t")
	pathways.Set("MAPK", 2)
	pathways.Set("EGFR", -3)
	pathways.Set("Orphan", 1)

	members := types.Membership{
		"MAPK": {{Gene: "MAPK1", Weight: 1}, {Gene: "MAPK3", Weight: 0.5}, {Gene: "SHARED", Weight: 1}},
		"EGFR": {{Gene: "EGFR", Weight: 1}, {Gene: "SHARED", Weight: 0.5}},
	}

	got := AssignPathwayScores(pathways, members)

	assert.Equal(t, []string{"EGFR", "MAPK1", "MAPK3", "SHARED"}, got.Genes.Order)
	assert.Equal(t, -3.0, got.Genes.Scores["EGFR"])
	assert.Equal(t, 2.0, got.Genes.Scores["MAPK1"])
	assert.Equal(t, 1.0, got.Genes.Scores["MAPK3"])
	// |2*1| > |-3*0.5|: MAPK wins for the shared gene.
	assert.Equal(t, 2.0, got.Genes.Scores["SHARED"])
	assert.Equal(t, "MAPK", got.Source["SHARED"])
	assert.Equal(t, []string{"Orphan"}, got.Unmapped)
}

func TestAssignPathwayScores_Deterministic(t *testing.T) {
	pathways := types.NewScoredList("t")
	for _, p := range []string{"JAK-STAT", "MAPK", "EGFR", "p53", "TNFa"} {
		pathways.Set(p, float64(len(p))-3)
	}
	first := AssignPathwayScores(pathways, DefaultMembership())
	for i := 0; i < 20; i++ {
		again := AssignPathwayScores(pathways, DefaultMembership())
		assert.Equal(t, first, again)
	}
}

func TestAssignPathwayScores_TieKeepsFirstPathway(t *testing.T) {
	pathways := types.NewScoredList("t")
	pathways.Set("B", -1)
	pathways.Set("A", 1)
	members := types.Membership{
		"A": {{Gene: "G", Weight: 1}},
		"B": {{Gene: "G", Weight: 1}},
	}
	got := AssignPathwayScores(pathways, members)
	assert.Equal(t, 1.0, got.Genes.Scores["G"])
	assert.Equal(t, "A", got.Source["G"])
}

func TestReadMembership(t *testing.T) {
	m, err := ReadMembership(strings.NewReader("MAPK:\n  - gene: MAPK1\n  - gene: MAPK3\n    weight: 0.5\n"))
	require.NoError(t, err)
	assert.Equal(t, []types.PathwayMember{{Gene: "MAPK1", Weight: 1}, {Gene: "MAPK3", Weight: 0.5}}, m["MAPK"])

	_, err = ReadMembership(strings.NewReader("MAPK:\n  - weight: 2\n"))
	assert.Error(t, err)
}

func TestDefaultMembership(t *testing.T) {
	m := DefaultMembership()
	assert.Len(t, m, 14)
	assert.Equal(t, []types.PathwayMember{{Gene: "MAPK1", Weight: 1}, {Gene: "MAPK3", Weight: 1}}, m["MAPK"])
}

// --- matching ---

func TestMatchNodes(t *testing.T) {
	list := types.NewScoredList("t")
	list.Set("STAT1", 1)
	list.Set("GHOST", 2)
	list.Set("MYC", -1)

	rep := MatchNodes(list, nodeSet{"STAT1": true, "MYC": true})

	assert.Equal(t, []string{"STAT1", "MYC"}, rep.Matched.Order)
	assert.Equal(t, -1.0, rep.Matched.Scores["MYC"])
	assert.Equal(t, []string{"GHOST"}, rep.Unmatched)
	assert.Equal(t, "t", rep.Matched.Column)
}

// --- Format ---

func TestFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := types.ActivityConfig{
		TFPath:      writeFile(t, dir, "tf.csv", "id,ctrl,treated\nSTAT1,0.1,3\nMYC,0.2,-4\nJUN,0.3,1\n"),
		PathwayPath: writeFile(t, dir, "pw.tsv", "id\ttreated\nMAPK\t2.5\nHypoxia\t-1\nUnknown\t1\n"),
		TFColumn:    "treated",
		TopN:        2,
	}

	var log bytes.Buffer
	out, err := Format(context.Background(), cfg, &log)
	require.NoError(t, err)

	assert.Equal(t, 1, out.TFColumn)
	assert.Equal(t, []string{"MYC", "STAT1"}, out.Measurements.Order)
	require.NotNil(t, out.Weights)
	assert.Equal(t, 2.5, out.Weights.Scores["MAPK3"])
	assert.Equal(t, -1.0, out.Weights.Scores["HIF1A"])
	assert.Contains(t, log.String(), "selected: 2 of 3")
	assert.Contains(t, log.String(), "assigned: 2 pathway scores")
}

func TestFormat_NoPathways(t *testing.T) {
	dir := t.TempDir()
	cfg := types.ActivityConfig{TFPath: writeFile(t, dir, "tf.csv", "id,s\nA,1\n")}

	out, err := Format(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, out.Weights)
	assert.Equal(t, 1, out.Measurements.Len())
}

func TestFormat_MissingFile(t *testing.T) {
	cfg := types.ActivityConfig{TFPath: filepath.Join(t.TempDir(), "absent.csv")}
	_, err := Format(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcription factor activities")
}
