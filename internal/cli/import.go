package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"studentdash/internal/database"
	"studentdash/internal/service"
)

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [csv]",
		Short: "Copy a CSV dataset into the students table",
		Long: "Load the CSV (default DATASET_PATH), replace the contents of the students table\n" +
			"and insert the records in batches. Run the dashboard with --source database to use it.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.DatasetPath
			if len(args) == 1 {
				path = args[0]
			}

			db, err := database.Open(a.cfg, a.log)
			if err != nil {
				return err
			}
			defer closeDB(db, a.log)

			importer := service.NewImportService(db, a.log, a.cfg.ImportBatchSize)

			progress := make(chan service.ProgressInfo, 64)
			importer.RegisterProgressListener(progress)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for p := range progress {
					a.log.Debug().
						Str("file", p.FileName).
						Int("processed", p.Processed).
						Int("total", p.TotalRecords).
						Str("status", p.Status).
						Msg("Import progress")
				}
			}()

			n, err := importer.ImportCSV(cmd.Context(), path)
			importer.UnregisterProgressListener(progress)
			close(progress)
			<-done
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %s\n", n, path)
			return nil
		},
	}
}
