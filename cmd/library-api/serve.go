package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	library "github.com/goliatone/go-library"
	"github.com/goliatone/go-library/activitymap"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and start the HTTP server",
		RunE:  runServe,
	}
	cmd.Flags().String("server.address", "", "listen address")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := load(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := library.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	api := library.NewAPI(a.cfg, repo,
		library.WithAPILogger(a.logger.GetLogger("api")),
		library.WithAPIMetrics(library.NewMetrics()),
		library.WithAPIActivitySink(activitymap.LogrusSink(a.logger.With("logger", "activity").Entry())),
	)

	app := api.NewApp()
	app.Server().ReadTimeout = a.cfg.Server.ReadTimeout
	app.Server().WriteTimeout = a.cfg.Server.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "address", a.cfg.Server.Address, "base_path", a.cfg.Server.BasePath)
		errCh <- app.Listen(a.cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
