// Package storage persists submitted strips in SQLite so the admin surface
// survives a restart mid-event.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lakeshore-events/photostrip/internal/models"
)

// ErrNotFound is returned for unknown strip IDs.
var ErrNotFound = errors.New("strip not found")

const schema = `
CREATE TABLE IF NOT EXISTS strips (
	id           TEXT PRIMARY KEY,
	image_path   TEXT NOT NULL,
	image_ref    TEXT NOT NULL,
	template_ref TEXT NOT NULL DEFAULT '',
	event_label  TEXT NOT NULL DEFAULT '',
	byte_size    INTEGER NOT NULL,
	print_count  INTEGER NOT NULL DEFAULT 0,
	printed_at   TIMESTAMP,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_strips_created_at ON strips(created_at DESC);
`

// StripStore is a SQLite-backed store of submitted strips.
type StripStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path with the usual
// production pragmas.
func Open(path string) (*StripStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &StripStore{db: db}, nil
}

// OpenMemory opens an in-memory store for tests.
func OpenMemory() (*StripStore, error) {
	return Open(":memory:")
}

// Close releases the underlying database.
func (s *StripStore) Close() error {
	return s.db.Close()
}

// Save inserts a strip record.
func (s *StripStore) Save(rec models.StripRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO strips (id, image_path, image_ref, template_ref, event_label, byte_size, print_count, printed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ImagePath, rec.ImageRef, rec.TemplateRef, rec.EventLabel,
		rec.ByteSize, rec.PrintCount, rec.PrintedAt, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save strip: %w", err)
	}
	return nil
}

// Get returns one strip by ID.
func (s *StripStore) Get(id string) (models.StripRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, image_path, image_ref, template_ref, event_label, byte_size, print_count, printed_at, created_at
		 FROM strips WHERE id = ?`, id)
	rec, err := scanStrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StripRecord{}, ErrNotFound
	}
	if err != nil {
		return models.StripRecord{}, fmt.Errorf("failed to load strip: %w", err)
	}
	return rec, nil
}

// List returns all strips, newest first.
func (s *StripStore) List() ([]models.StripRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, image_path, image_ref, template_ref, event_label, byte_size, print_count, printed_at, created_at
		 FROM strips ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list strips: %w", err)
	}
	defer rows.Close()

	var records []models.StripRecord
	for rows.Next() {
		rec, err := scanStrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strip: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read strips: %w", err)
	}
	return records, nil
}

// Delete removes a strip record.
func (s *StripStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM strips WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete strip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPrinted bumps the print count and records the print time.
func (s *StripStore) MarkPrinted(id string, at time.Time) (models.StripRecord, error) {
	res, err := s.db.Exec(
		`UPDATE strips SET print_count = print_count + 1, printed_at = ? WHERE id = ?`,
		at.UTC(), id)
	if err != nil {
		return models.StripRecord{}, fmt.Errorf("failed to mark strip printed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.StripRecord{}, fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return models.StripRecord{}, ErrNotFound
	}
	return s.Get(id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStrip(row scanner) (models.StripRecord, error) {
	var rec models.StripRecord
	var printedAt sql.NullTime
	err := row.Scan(&rec.ID, &rec.ImagePath, &rec.ImageRef, &rec.TemplateRef,
		&rec.EventLabel, &rec.ByteSize, &rec.PrintCount, &printedAt, &rec.CreatedAt)
	if err != nil {
		return models.StripRecord{}, err
	}
	if printedAt.Valid {
		t := printedAt.Time
		rec.PrintedAt = &t
	}
	return rec, nil
}
