package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-library/config"
	"github.com/goliatone/go-library/logging"
	"github.com/goliatone/go-library/persistence"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "library-api",
		Short:         "Library CMS REST backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "path to a YAML config file")
	flags.String("database.url", "", "database URL, postgres:// or a sqlite DSN")
	flags.Bool("database.debug", false, "log every SQL query")
	flags.String("logging.level", "", "log level")
	flags.String("logging.format", "", "log format, text or json")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newAdminCommand(),
		newConfigCommand(),
	)
	return root
}

// app carries what every subcommand needs once config is loaded
type app struct {
	cfg    *config.Config
	logger *logging.Logger
}

func load(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	lgr, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logging.Wrap(lgr)}, nil
}

// openDB connects and brings the schema up to date
func (a *app) openDB(ctx context.Context) (*bun.DB, error) {
	db, dialect, err := persistence.Open(ctx, persistence.Options{
		URL:         a.cfg.Database.URL,
		Debug:       a.cfg.Database.Debug,
		PingTimeout: a.cfg.Database.PingTimeout,
	})
	if err != nil {
		return nil, err
	}

	if err := persistence.Migrate(ctx, db, dialect, a.logger.With("logger", "migrate").Entry()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
