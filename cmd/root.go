package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/schemalock-cli/internal/config"
	"github.com/KaramelBytes/schemalock-cli/internal/logger"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	// Per-invocation logger tagged with a run id.
	log = logger.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "schemalock",
	Short: "schemalock: sanitize and pin the feature schema of a tabular dataset",
	Long: `schemalock resolves requested categorical and numerical feature columns against a
dataset, removes leakage-prone and target columns, discovers remaining numeric
columns, and saves the result as a JSON metadata file so later runs use exactly the
same features.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.schemalock/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

// setup loads configuration and builds the logger before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	format := cfg.LogFormat
	if logFormat != "" {
		format = logFormat
	}
	level := logger.ParseLevel(cfg.LogLevel)
	if debug {
		level = slog.LevelDebug
	}
	log = logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Format: format,
		Level:  level,
	}).With("run_id", uuid.NewString())
	log.Debug("configuration loaded", "config", cfgFile, "metadata_path", cfg.MetadataPath)
	return nil
}
