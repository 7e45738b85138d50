package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"studentdash/internal/metrics"
	"studentdash/internal/router"
	"studentdash/internal/service"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard as a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("port", "", "HTTP port (env SERVER_PORT)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	data, db, err := a.loadDataset(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db, a.log)

	m := metrics.New()
	dashboard := service.NewDashboardService(data, m, a.log, a.renderOptions())

	opts := router.Options{
		AllowedOrigins: a.cfg.AllowedOrigins,
		Metrics:        m,
		Log:            a.log,
	}
	if db != nil {
		opts.Importer = service.NewImportService(db, a.log, a.cfg.ImportBatchSize)
		opts.ImportPath = a.cfg.DatasetPath
	}

	srv := &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: router.New(dashboard, opts),
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}
	a.log.Info().Msg("Shutdown complete")
	return nil
}
