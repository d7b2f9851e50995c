package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "transcriptutorial/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries of transient failures (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// NetworkConfig holds settings for the prior-knowledge network stage.
type NetworkConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the interaction database endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// CacheDir keeps the raw query result between runs. Empty disables caching.
	CacheDir string `json:"cache_dir" yaml:"cache_dir" mapstructure:"cache_dir"`

	// Refresh ignores a cached query result.
	Refresh bool `json:"refresh" yaml:"refresh" mapstructure:"refresh"`

	// OutputPath is the SIF file the filtered network is written to.
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`
}

// RankBy selects how transcription factors are ranked for top-N selection.
type RankBy string

const (
	RankAbsolute RankBy = "abs"
	RankSigned   RankBy = "signed"
)

// ActivityConfig holds settings for the activity formatting stage.
type ActivityConfig struct {
	// TFPath is the transcription factor activity table.
	TFPath string `json:"tf_path" yaml:"tf_path" mapstructure:"tf_path"`

	// PathwayPath is the pathway activity table. Empty disables node weights.
	PathwayPath string `json:"pathway_path" yaml:"pathway_path" mapstructure:"pathway_path"`

	// MembershipPath is an optional YAML pathway → gene mapping. Empty uses
	// the built-in PROGENy representative genes.
	MembershipPath string `json:"membership_path" yaml:"membership_path" mapstructure:"membership_path"`

	// TFColumn and PathwayColumn select the sample column by name or
	// 0-based index. Empty selects the first column.
	TFColumn      string `json:"tf_column" yaml:"tf_column" mapstructure:"tf_column"`
	PathwayColumn string `json:"pathway_column" yaml:"pathway_column" mapstructure:"pathway_column"`

	// TopN is the number of transcription factors kept (default 50).
	TopN int `json:"top_n" yaml:"top_n" mapstructure:"top_n"`

	// RankBy orders factors by absolute or signed score (default abs).
	RankBy RankBy `json:"rank_by" yaml:"rank_by" mapstructure:"rank_by"`

	// Delimiter forces the table delimiter. Empty auto-detects.
	Delimiter string `json:"delimiter" yaml:"delimiter" mapstructure:"delimiter"`
}

// SolverName identifies the ILP solver the wrapper drives.
type SolverName string

const (
	SolverCplex   SolverName = "cplex"
	SolverCbc     SolverName = "cbc"
	SolverGurobi  SolverName = "gurobi"
	SolverLpSolve SolverName = "lpSolve"
)

// SolverBackend selects how the solver wrapper is executed.
type SolverBackend string

const (
	BackendExec      SolverBackend = "exec"
	BackendContainer SolverBackend = "container"
)

// SolverConfig holds settings for the network inference stage.
type SolverConfig struct {
	// Backend runs the wrapper as a local process or inside a container.
	Backend SolverBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Command is the wrapper executable (exec backend).
	Command string `json:"command" yaml:"command" mapstructure:"command"`

	// Image is the wrapper image (container backend).
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Solver selects the ILP solver.
	Solver SolverName `json:"solver" yaml:"solver" mapstructure:"solver"`

	// SolverPath is the solver binary. Not required for lpSolve.
	SolverPath string `json:"solver_path" yaml:"solver_path" mapstructure:"solver_path"`

	// TimeLimit bounds the solver search; the best solution found is returned.
	TimeLimit time.Duration `json:"time_limit" yaml:"time_limit" mapstructure:"time_limit"`

	// MIPGap is the relative optimality gap tolerance, in [0, 1].
	MIPGap float64 `json:"mip_gap" yaml:"mip_gap" mapstructure:"mip_gap"`

	// PoolRelGap is the relative gap for solutions kept in the pool, in [0, 1].
	PoolRelGap float64 `json:"pool_rel_gap" yaml:"pool_rel_gap" mapstructure:"pool_rel_gap"`

	// WorkDir receives input and output files of the run.
	WorkDir string `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`

	// SecretsDir holds licence files exported to the solver environment.
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`
}

// OutputConfig holds settings for persistence and visualization.
type OutputConfig struct {
	// ResultPath is the serialized result object (.yaml or .json).
	ResultPath string `json:"result_path" yaml:"result_path" mapstructure:"result_path"`

	// DBPath is the SQLite run store. Empty disables the store.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// HTMLPath is the interactive network page.
	HTMLPath string `json:"html_path" yaml:"html_path" mapstructure:"html_path"`

	// DOTPath is an optional Graphviz rendering.
	DOTPath string `json:"dot_path" yaml:"dot_path" mapstructure:"dot_path"`

	// MinWeight hides edges below this weight in the rendering.
	MinWeight float64 `json:"min_weight" yaml:"min_weight" mapstructure:"min_weight"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Network  NetworkConfig  `json:"network" yaml:"network" mapstructure:"network"`
	Activity ActivityConfig `json:"activity" yaml:"activity" mapstructure:"activity"`
	Solver   SolverConfig   `json:"solver" yaml:"solver" mapstructure:"solver"`
	Output   OutputConfig   `json:"output" yaml:"output" mapstructure:"output"`
}

// DefaultPipelineConfig returns the settings used by the reference analysis.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Network: NetworkConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    5 * time.Minute,
				UserAgent:  "transcriptutorial/0.1",
				MaxRetries: 5,
			},
			BaseURL:    "https://omnipathdb.org/interactions",
			CacheDir:   "cache",
			OutputPath: "results/omnipath_carnival.tsv",
		},
		Activity: ActivityConfig{
			TFPath:      "data/TFActivity_CARNIVALinput.csv",
			PathwayPath: "data/PathwayActivity_CARNIVALinput.csv",
			TopN:        50,
			RankBy:      RankAbsolute,
		},
		Solver: SolverConfig{
			Backend:    BackendExec,
			Command:    "carnival",
			Image:      "carnival:latest",
			Solver:     SolverCplex,
			TimeLimit:  3600 * time.Second,
			MIPGap:     0.05,
			PoolRelGap: 0.0001,
			WorkDir:    "results/carnival",
			SecretsDir: ".secrets/",
		},
		Output: OutputConfig{
			ResultPath: "results/carnival_result.yaml",
			DBPath:     "results/carnival.db",
			HTMLPath:   "results/carnival_network.html",
		},
	}
}
