package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/fieldprompts/internal/config"
	"github.com/JonMunkholm/fieldprompts/internal/core"
	"github.com/JonMunkholm/fieldprompts/internal/logging"
	"github.com/JonMunkholm/fieldprompts/internal/storage/postgres"
	"github.com/JonMunkholm/fieldprompts/internal/storage/sqlite"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root has set up.
type app struct {
	stdout io.Writer
	stderr io.Writer

	envFile string

	cfg   *config.Config
	store core.Store
}

// run executes the command line args and releases the store afterwards,
// whether or not the command failed.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fieldprompts",
		Short: "Reconcile field prompt exports with the prompt store",
		Long: `
Loads a tabular export (Area, Sub Area, Field, Prompt) into the prompt store.
New prompts are inserted; prompts that already exist are left untouched, so an
import can be re-run safely. Existing prompts are changed with "update".

Configuration comes from the environment (DB_DRIVER, DATABASE_URL, ...) and an
optional .env file.
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load environment from this file (default: .env when present)")

	root.AddCommand(
		newSchemaCmd(a),
		newPreviewCmd(a),
		newIngestCmd(a),
		newStatsCmd(a),
		newUpdateCmd(a),
		newAreasCmd(a),
		newHistoryCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads configuration, configures logging and opens the store.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}

	if a.envFile != "" {
		if err := godotenv.Overload(a.envFile); err != nil {
			return withCode(exitUsage, fmt.Errorf("load %s: %w", a.envFile, err))
		}
	} else if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.cfg = cfg

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	store, err := openStore(cmd.Context(), cfg.Database)
	if err != nil {
		return withCode(exitDB, err)
	}
	a.store = store

	// Schema setup is idempotent and runs on every start.
	if err := a.service().EnsureSchema(cmd.Context()); err != nil {
		return classified(err)
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (core.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (a *app) service(opts ...core.Option) *core.Service {
	return core.NewService(a.store, a.cfg, opts...)
}

// printJSON writes v as one JSON line to stdout.
func (a *app) printJSON(v any) error {
	return json.NewEncoder(a.stdout).Encode(v)
}
