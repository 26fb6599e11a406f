// Package main provides the phone advisor CLI entrypoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/app"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/config"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
)

var version = "0.1.0"

// Persistent flags and the runtime they configure.
var (
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "phone-advisor",
	Short: "Phone advisor CLI for chatting with the assistant and managing the catalog",
	Long: `Phone advisor CLI runs the shopping assistant locally.

Use this tool to:
- Ask questions interactively or one at a time
- Browse, import and export the phone catalog
- Replay a file of questions and summarize how they were classified
- Purge cached answers and tail audit events

All commands support --json for automation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupRuntime()
	},
}

// setupRuntime loads the config and builds the logger shared by every
// subcommand. Logs go to stderr so stdout stays clean for --json.
func setupRuntime() error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded

	logCfg := observability.LogConfig{
		Level:       "warn",
		Format:      "console",
		Output:      os.Stderr,
		ServiceName: "phone-advisor-cli",
	}
	if verbose {
		logCfg.Level = cfg.Observability.LogLevel
	}
	if outputJSON {
		logCfg.Format = "json"
	}
	logger = observability.NewLogger(logCfg)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newAskCmd(),
		newCatalogCmd(),
		newBatchCmd(),
		newCacheCmd(),
		newAuditCmd(),
		newVersionCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp assembles the assistant from the loaded configuration.
func openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if a.GenerationErr != nil {
		logger.Warn().Err(a.GenerationErr).Msg("Generation disabled, answers are rule-based")
	}
	return a, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				_ = enc.Encode(map[string]string{
					"version": version,
					"go":      runtime.Version(),
				})
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "phone-advisor v%s\n", version)
		},
	}
}
