// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

// binding ties a configuration key to the flag that overrides it.
type binding struct {
	key  string
	flag string
}

var (
	networkBindings = []binding{
		{"network.base_url", "base-url"},
		{"network.cache_dir", "cache-dir"},
		{"network.refresh", "refresh"},
		{"network.output_path", "network-out"},
		{"network.timeout", "timeout"},
		{"network.max_retries", "max-retries"},
	}
	activityBindings = []binding{
		{"activity.tf_path", "tf"},
		{"activity.pathway_path", "pathways"},
		{"activity.membership_path", "membership"},
		{"activity.tf_column", "tf-column"},
		{"activity.pathway_column", "pathway-column"},
		{"activity.top_n", "top-n"},
		{"activity.rank_by", "rank-by"},
		{"activity.delimiter", "delimiter"},
	}
	solverBindings = []binding{
		{"solver.backend", "backend"},
		{"solver.command", "command"},
		{"solver.image", "image"},
		{"solver.solver", "solver"},
		{"solver.solver_path", "solver-path"},
		{"solver.time_limit", "time-limit"},
		{"solver.mip_gap", "mip-gap"},
		{"solver.pool_rel_gap", "pool-rel-gap"},
		{"solver.work_dir", "work-dir"},
	}
	outputBindings = []binding{
		{"output.result_path", "result"},
		{"output.db_path", "db"},
		{"output.html_path", "html"},
		{"output.dot_path", "dot"},
		{"output.min_weight", "min-weight"},
	}
)

// registerDefaults seeds v with the default pipeline configuration so every
// key is known to viper and can be set from the environment.
func registerDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()

	v.SetDefault("network.base_url", d.Network.BaseURL)
	v.SetDefault("network.cache_dir", d.Network.CacheDir)
	v.SetDefault("network.refresh", d.Network.Refresh)
	v.SetDefault("network.output_path", d.Network.OutputPath)
	v.SetDefault("network.timeout", d.Network.Timeout)
	v.SetDefault("network.user_agent", d.Network.UserAgent)
	v.SetDefault("network.max_retries", d.Network.MaxRetries)

	v.SetDefault("activity.tf_path", d.Activity.TFPath)
	v.SetDefault("activity.pathway_path", d.Activity.PathwayPath)
	v.SetDefault("activity.membership_path", d.Activity.MembershipPath)
	v.SetDefault("activity.tf_column", d.Activity.TFColumn)
	v.SetDefault("activity.pathway_column", d.Activity.PathwayColumn)
	v.SetDefault("activity.top_n", d.Activity.TopN)
	v.SetDefault("activity.rank_by", string(d.Activity.RankBy))
	v.SetDefault("activity.delimiter", d.Activity.Delimiter)

	v.SetDefault("solver.backend", string(d.Solver.Backend))
	v.SetDefault("solver.command", d.Solver.Command)
	v.SetDefault("solver.image", d.Solver.Image)
	v.SetDefault("solver.solver", string(d.Solver.Solver))
	v.SetDefault("solver.solver_path", d.Solver.SolverPath)
	v.SetDefault("solver.time_limit", d.Solver.TimeLimit)
	v.SetDefault("solver.mip_gap", d.Solver.MIPGap)
	v.SetDefault("solver.pool_rel_gap", d.Solver.PoolRelGap)
	v.SetDefault("solver.work_dir", d.Solver.WorkDir)
	v.SetDefault("solver.secrets_dir", d.Solver.SecretsDir)

	v.SetDefault("output.result_path", d.Output.ResultPath)
	v.SetDefault("output.db_path", d.Output.DBPath)
	v.SetDefault("output.html_path", d.Output.HTMLPath)
	v.SetDefault("output.dot_path", d.Output.DOTPath)
	v.SetDefault("output.min_weight", d.Output.MinWeight)
}

// bindFlags binds the flags of cmd that exist to their configuration keys.
// Binding happens at run time so commands sharing a flag name do not
// overwrite each other's binding.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, groups ...[]binding) error {
	for _, group := range groups {
		for _, b := range group {
			f := flags.Lookup(b.flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(b.key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", b.flag, err)
			}
		}
	}
	return nil
}

// loadConfig merges defaults, config file, environment and the flags of
// cmd into a pipeline configuration.
func loadConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags(), networkBindings, activityBindings, solverBindings, outputBindings); err != nil {
		return types.PipelineConfig{}, err
	}
	cfg := types.DefaultPipelineConfig()
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHook)); err != nil {
		return types.PipelineConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// configDecodeHook extends viper's default hooks: durations written as bare
// numbers (time_limit: 3600) are seconds.
var configDecodeHook = mapstructure.ComposeDecodeHookFunc(
	secondsToDurationHook,
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
)

func secondsToDurationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) || from == to {
		return data, nil
	}
	var secs float64
	switch v := data.(type) {
	case int:
		secs = float64(v)
	case int64:
		secs = float64(v)
	case uint64:
		secs = float64(v)
	case float64:
		secs = v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return data, nil
		}
		secs = f
	default:
		return data, nil
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// --- flag groups ---

func addNetworkFlags(cmd *cobra.Command) {
	d := types.DefaultPipelineConfig().Network
	f := cmd.Flags()
	f.String("base-url", d.BaseURL, "OmniPath interactions endpoint")
	f.String("cache-dir", d.CacheDir, "directory caching the raw interaction table (empty disables caching)")
	f.Bool("refresh", false, "ignore the cached interaction table")
	f.String("network-out", d.OutputPath, "SIF file for the filtered network")
	f.Duration("timeout", d.Timeout, "HTTP request timeout")
	f.Int("max-retries", d.MaxRetries, "retries of transient HTTP failures")
}

func addActivityFlags(cmd *cobra.Command) {
	d := types.DefaultPipelineConfig().Activity
	f := cmd.Flags()
	f.String("tf", d.TFPath, "transcription factor activity table")
	f.String("pathways", d.PathwayPath, "pathway activity table (empty disables node weights)")
	f.String("membership", d.MembershipPath, "YAML pathway to gene mapping (default: built-in PROGENy genes)")
	f.String("tf-column", d.TFColumn, "transcription factor sample column, by name or 0-based index")
	f.String("pathway-column", d.PathwayColumn, "pathway sample column, by name or 0-based index")
	f.Int("top-n", d.TopN, "number of transcription factors kept as measurements")
	f.String("rank-by", string(d.RankBy), "transcription factor ranking: abs or signed")
	f.String("delimiter", d.Delimiter, "table delimiter: tab, comma or semicolon (default: detect)")
}

func addSolverFlags(cmd *cobra.Command) {
	d := types.DefaultPipelineConfig().Solver
	f := cmd.Flags()
	f.String("backend", string(d.Backend), "solver backend: exec or container")
	f.String("command", d.Command, "solver wrapper executable (exec backend)")
	f.String("image", d.Image, "solver wrapper image (container backend)")
	f.String("solver", string(d.Solver), "ILP solver: cplex, cbc, gurobi or lpSolve")
	f.String("solver-path", d.SolverPath, "ILP solver binary")
	f.Duration("time-limit", d.TimeLimit, "solver time limit; the best solution found is kept")
	f.Float64("mip-gap", d.MIPGap, "relative MIP gap tolerance in [0, 1]")
	f.Float64("pool-rel-gap", d.PoolRelGap, "relative gap of pooled solutions in [0, 1]")
	f.String("work-dir", d.WorkDir, "directory for solver input and output files")
}

func addOutputFlags(cmd *cobra.Command) {
	d := types.DefaultPipelineConfig().Output
	f := cmd.Flags()
	f.String("result", d.ResultPath, "serialized result file (.yaml, .yml or .json)")
	f.String("db", d.DBPath, "SQLite run store (empty disables the store)")
	f.String("html", d.HTMLPath, "interactive network page")
	f.String("dot", d.DOTPath, "Graphviz DOT rendering (empty skips it)")
	f.Float64("min-weight", d.MinWeight, "hide edges below this weight in renderings")
}
