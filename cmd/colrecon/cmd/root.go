package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/colrecon/internal/app"
)

var (
	configFlag   string
	tenantFlag   string
	logLevelFlag string
	colorFlag    string
)

// Resolved in PersistentPreRunE for every subcommand.
var (
	paths *app.Paths
	cfg   app.Config
)

var rootCmd = &cobra.Command{
	Use:   "colrecon",
	Short: "colrecon: import column reconciliation",
	Long: "Maps Arabic and English import column headers onto canonical fields " +
		"(exact alias, learned history, fuzzy + content analysis, semantic rules).",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configFlag, "config", "", "Config file (default .colrecon/config.yaml)")
	f.StringVarP(&tenantFlag, "tenant", "t", "", "Tenant whose learned mappings apply")
	f.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&colorFlag, "color", "auto", "Color output: auto, always, never")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	paths = app.NewPaths(projectRoot())

	loaded, err := app.LoadConfig(paths, configFlag)
	if err != nil {
		return err
	}
	if tenantFlag != "" {
		loaded.Tenant = tenantFlag
	}
	if logLevelFlag != "" {
		loaded.LogLevel = logLevelFlag
	}

	logger, err := app.NewLogger(os.Stderr, loaded.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	cfg = loaded

	useColor = resolveColor(colorFlag)
	return nil
}

// openEngine opens the configured store and alias table.
func openEngine(ctx context.Context) (*app.Engine, error) {
	if cfg.Store == app.BackendBBolt || cfg.Store == app.BackendSQLite {
		if err := os.MkdirAll(paths.Root, 0755); err != nil {
			return nil, err
		}
	}
	e, err := app.Open(ctx, cfg, slog.Default())
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("cannot open history: %s", diagnoseDBLock(paths))
		}
		return nil, err
	}
	return e, nil
}
