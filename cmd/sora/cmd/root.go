package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sora/config"
)

var rootCmd = &cobra.Command{
	Use:   "sora",
	Short: "Incremental synchronizer and query tool for the SORA dataset",
	Long: `sora keeps a local SQLite copy of the Singapore Overnight Rate Average
dataset in step with MAS' Domestic Interest Rates API and answers
filtered, projected queries against it.

It provides tools for:
  - Catching the local store up against the remote source
  - Querying year ranges with a configurable field subset
  - Exporting query results as CSV
  - Inspecting past sync runs`,
}

var (
	cfgFile string
	dbPath  string
	verbose bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite store (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig resolves the effective configuration: file if given, else
// defaults plus environment, with the --db flag on top.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	if dbPath != "" {
		cfg.DB.Path = dbPath
	}
	return cfg, nil
}

// newLogger builds the process logger: JSON to stderr, Debug when -v.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
