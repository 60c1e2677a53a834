package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lakeshore-events/photostrip/internal/config"
	"github.com/lakeshore-events/photostrip/internal/export"
	"github.com/lakeshore-events/photostrip/internal/storage"
)

func newExportCmd() *cobra.Command {
	var (
		dbPath string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export submitted strip records",
		Long: `Dumps the strip records from the backend database for event reporting,
as parquet or JSONL.`,
		Example: `  # Export to parquet
  photostrip export -o strips.parquet

  # Export to JSONL from a specific database
  photostrip export --db event.db --format jsonl -o strips.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.DBPath
			}

			store, err := storage.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List()
			if err != nil {
				return err
			}
			rows := export.FromRecords(records)

			switch format {
			case "parquet":
				err = export.WriteParquet(output, rows)
			case "jsonl":
				err = export.WriteJSONL(output, rows)
			default:
				return fmt.Errorf("unsupported format: %s (supported: parquet, jsonl)", format)
			}
			if err != nil {
				return err
			}

			slog.Info("Export written", "path", output, "format", format, "strips", len(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (defaults to PHOTOSTRIP_DB)")
	cmd.Flags().StringVar(&format, "format", "parquet", "Output format: parquet or jsonl")
	cmd.Flags().StringVarP(&output, "output", "o", "strips.parquet", "Output file path")

	return cmd
}
