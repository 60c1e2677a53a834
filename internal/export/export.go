// Package export dumps stored strip records for event reporting.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/lakeshore-events/photostrip/internal/models"
)

// Row is one exported strip record. Timestamps are RFC 3339 strings so both
// formats stay trivially greppable.
type Row struct {
	StripID     string `parquet:"strip_id" json:"strip_id"`
	ImageRef    string `parquet:"image_ref" json:"image_ref"`
	TemplateRef string `parquet:"template_ref" json:"template_ref"`
	EventLabel  string `parquet:"event_label" json:"event_label"`
	ByteSize    int64  `parquet:"byte_size" json:"byte_size"`
	PrintCount  int32  `parquet:"print_count" json:"print_count"`
	PrintedAt   string `parquet:"printed_at" json:"printed_at,omitempty"`
	CreatedAt   string `parquet:"created_at" json:"created_at"`
}

// FromRecords converts store records into export rows.
func FromRecords(records []models.StripRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := Row{
			StripID:     rec.ID,
			ImageRef:    rec.ImageRef,
			TemplateRef: rec.TemplateRef,
			EventLabel:  rec.EventLabel,
			ByteSize:    rec.ByteSize,
			PrintCount:  int32(rec.PrintCount),
			CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
		}
		if rec.PrintedAt != nil {
			row.PrintedAt = rec.PrintedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteParquet writes rows to a parquet file at path.
func WriteParquet(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[Row](f)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteJSONL writes rows as one JSON object per line.
func WriteJSONL(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write JSONL row: %w", err)
		}
	}
	return nil
}
