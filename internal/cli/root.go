package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"studentdash/internal/chart"
	"studentdash/internal/config"
	"studentdash/internal/database"
	"studentdash/internal/dataset"
	"studentdash/internal/logger"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewRootCommand builds the studentdash command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "studentdash",
		Short:         "Explore student performance records from a CSV dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(logOutput(cmd), cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("dataset", "", "path to the student CSV (env DATASET_PATH)")
	flags.String("source", "", "dataset source: csv or database (env DATASET_SOURCE)")
	flags.String("log-level", "", "log level (env LOG_LEVEL)")
	flags.String("db-driver", "", "database driver: sqlite or postgres (env DB_DRIVER)")

	root.AddCommand(newServeCommand(a), newMenuCommand(a), newImportCommand(a))
	return root
}

// Execute runs the root command and reports errors on stderr.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// logOutput keeps the menu's stdout free for the menu itself.
func logOutput(cmd *cobra.Command) io.Writer {
	if cmd.Name() == "menu" {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

// loadDataset reads the dataset from the configured source. For the
// database source the open connection is returned so the caller can reuse
// and close it.
func (a *app) loadDataset(ctx context.Context) (dataset.Dataset, *gorm.DB, error) {
	if a.cfg.DatasetSource == dataset.SourceDatabase {
		db, err := database.Open(a.cfg, a.log)
		if err != nil {
			return dataset.Dataset{}, nil, err
		}
		data, err := dataset.LoadFromDB(ctx, db)
		if err != nil {
			closeDB(db, a.log)
			return dataset.Dataset{}, nil, err
		}
		a.log.Info().Str("source", dataset.SourceDatabase).Int("records", data.Len()).Msg("Dataset loaded")
		return data, db, nil
	}

	data, err := dataset.Load(a.cfg.DatasetPath)
	if err != nil {
		return dataset.Dataset{}, nil, err
	}
	a.log.Info().Str("source", a.cfg.DatasetPath).Int("records", data.Len()).Msg("Dataset loaded")
	return data, nil, nil
}

func (a *app) renderOptions() chart.RenderOptions {
	return chart.RenderOptions{Width: a.cfg.ChartWidth, Height: a.cfg.ChartHeight}
}

func closeDB(db *gorm.DB, log zerolog.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("Close database")
	}
}
