package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"studentdash/internal/service"
	"studentdash/internal/shell"
)

func newMenuCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Run the interactive terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			data, db, err := a.loadDataset(ctx)
			if err != nil {
				return err
			}
			defer closeDB(db, a.log)

			dashboard := service.NewDashboardService(data, nil, a.log, a.renderOptions())
			sh := shell.New(dashboard, cmd.InOrStdin(), cmd.OutOrStdout(), a.cfg.ChartDir, a.log)
			if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("chart-dir", "", "directory for chart PNGs (env CHART_DIR)")
	return cmd
}
