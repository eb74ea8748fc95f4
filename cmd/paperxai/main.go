// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperxai CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperxai/internal/config"
	"github.com/pdiddy/paperxai/internal/llm"
	"github.com/pdiddy/paperxai/internal/observability"
	"github.com/pdiddy/paperxai/internal/pipeline"
	"github.com/pdiddy/paperxai/internal/secrets"
	"github.com/pdiddy/paperxai/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the paperxai CLI.
var rootCmd = &cobra.Command{
	Use:   "paperxai",
	Short: "Daily arXiv digests answered by a language model",
	Long: `paperxai fetches the newest arXiv papers in the configured categories,
keeps a rolling 90-day store of them, embeds the new papers, and answers the
questions in the config file using the most relevant papers as context.

Use fetch to refresh the store, report to produce a report, history to
browse archived reports, and schedule to run reports on a cron schedule.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir, zerolog.New(os.Stderr))
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperxai.yaml or ~/.config/paperxai/config.yaml)")
	rootCmd.PersistentFlags().String("path_config", "", "alias for --config")
	_ = rootCmd.PersistentFlags().MarkHidden("path_config")

	rootCmd.PersistentFlags().String("data-dir", "", "directory for paper artifacts (overrides data_dir)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("metrics-file", "", "Prometheus textfile written after each run")

	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile == "" {
		cfgFile, _ = rootCmd.PersistentFlags().GetString("path_config")
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperxai")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperxai"))
		}
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig reads and validates the config file located by initConfig.
func loadConfig() (*types.Config, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		return nil, fmt.Errorf("no config file found: pass --config or create ./paperxai.yaml")
	}
	return config.Load(path, viper.GetViper())
}

// setup loads the config and builds a pipeline with its logger and metrics.
// The caller closes the pipeline.
func setup(ctx context.Context) (*pipeline.Pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cfg.Logging, os.Stderr)
	metrics := observability.NewMetrics()

	provider, err := pipeline.NewProvider(ctx, cfg, llm.Credentials(secrets.Credentials(loadedSecrets)), logger, metrics)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, provider, logger, metrics)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
