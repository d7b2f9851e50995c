// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the transcriptutorial CLI. Each
// pipeline stage is a subcommand: network, activity, solve, results and
// visualize; run chains them end to end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hongzhonglu/transcriptutorial/internal/ctxlog"
	"github.com/hongzhonglu/transcriptutorial/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds solver licence settings loaded from the secrets
// directory at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the transcriptutorial CLI.
var rootCmd = &cobra.Command{
	Use:   "transcriptutorial",
	Short: "Infer causal signalling networks from transcription factor activities",
	Long: `transcriptutorial builds a signed prior-knowledge network from OmniPath,
selects the most active transcription factors, assigns pathway activities to
representative genes, and fits a causal sub-network with an external ILP
solver. Results are saved, stored for later runs, and rendered as an
interactive network page.

Each stage is a subcommand; run executes them all. Settings come from
transcriptutorial.yaml, TRANSCRIPTUTORIAL_* environment variables, and flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger := ctxlog.New(os.Stderr, verbose)
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))

		s, err := secrets.Load(viper.GetString("solver.secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./transcriptutorial.yaml or ~/.config/transcriptutorial/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug diagnostics to stderr")
}

func initConfig() {
	registerDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("transcriptutorial")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "transcriptutorial"))
		}
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindEnv maps TRANSCRIPTUTORIAL_SECTION_KEY variables onto section.key.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("TRANSCRIPTUTORIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
