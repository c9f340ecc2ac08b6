package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/gridcrop/internal/model"
)

// FileName is the database file created inside the history directory.
const FileName = "gridcrop.db"

// timeLayout stores times with a fixed-width fraction so that started_at
// sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB stores job records in SQLite.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging, so `gridcrop history` can read
	// while a batch is writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		source_hash TEXT,
		mime_type TEXT,
		format TEXT,
		width INTEGER DEFAULT 0,
		height INTEGER DEFAULT 0,
		mode TEXT NOT NULL,
		grid_rows INTEGER DEFAULT 0,
		grid_cols INTEGER DEFAULT 0,
		rotation REAL DEFAULT 0,
		background_removed INTEGER DEFAULT 0,
		result_count INTEGER DEFAULT 0,
		output_bytes INTEGER DEFAULT 0,
		output_dir TEXT,
		error TEXT,
		timed_out INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		metadata_json TEXT,
		started_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_started ON jobs(started_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_hash ON jobs(source_hash);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// JobRecord is one row of the jobs table.
type JobRecord struct {
	ID                string               `json:"id"`
	Source            string               `json:"source"`
	SourceHash        string               `json:"source_hash"`
	MIMEType          string               `json:"mime_type"`
	Format            string               `json:"format"`
	Width             int                  `json:"width"`
	Height            int                  `json:"height"`
	Mode              model.Mode           `json:"mode"`
	Grid              model.GridSpec       `json:"grid"`
	Rotation          float64              `json:"rotation"`
	BackgroundRemoved bool                 `json:"background_removed"`
	ResultCount       int                  `json:"result_count"`
	OutputBytes       int                  `json:"output_bytes"`
	OutputDir         string               `json:"output_dir"`
	Error             string               `json:"error,omitempty"`
	TimedOut          bool                 `json:"timed_out"`
	Duration          time.Duration        `json:"duration"`
	Metadata          *model.ImageMetadata `json:"metadata,omitempty"`
	StartedAt         time.Time            `json:"started_at"`
}

// Status returns "ok", "failed" or "cancelled".
func (r *JobRecord) Status() string {
	switch {
	case r.TimedOut:
		return "cancelled"
	case r.Error != "":
		return "failed"
	default:
		return "ok"
	}
}

// SaveJob records a finished job. Saving the same job ID twice replaces
// the earlier row.
func (hdb *HistoryDB) SaveJob(ctx context.Context, job *model.Job) error {
	var metaJSON sql.NullString
	if job.Metadata != nil {
		data, err := json.Marshal(job.Metadata)
		if err != nil {
			return fmt.Errorf("failed to serialize metadata: %w", err)
		}
		metaJSON = sql.NullString{String: string(data), Valid: true}
	}

	errText := job.ErrorMessage
	if errText == "" && job.Error != nil {
		errText = job.Error.Error()
	}

	query := `
	INSERT OR REPLACE INTO jobs (
		id, source, source_hash, mime_type, format, width, height,
		mode, grid_rows, grid_cols, rotation, background_removed,
		result_count, output_bytes, output_dir, error, timed_out,
		duration_ms, metadata_json, started_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := hdb.db.ExecContext(ctx, query,
		job.ID,
		job.Source,
		job.SourceHash,
		job.MIMEType,
		job.Format,
		job.Width,
		job.Height,
		string(job.Options.Mode),
		job.Options.Grid.Rows,
		job.Options.Grid.Cols,
		job.Options.Rotation,
		job.BackgroundRemoved,
		job.ResultCount(),
		job.Results.TotalSize(),
		job.OutputDir,
		errText,
		job.TimedOut,
		job.Duration.Milliseconds(),
		metaJSON,
		job.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// selectColumns lists the columns scanRecord expects, in order.
const selectColumns = `
	id, source, source_hash, mime_type, format, width, height,
	mode, grid_rows, grid_cols, rotation, background_removed,
	result_count, output_bytes, output_dir, error, timed_out,
	duration_ms, metadata_json, started_at
`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one jobs row.
func scanRecord(row rowScanner) (*JobRecord, error) {
	var (
		rec                                    JobRecord
		mode                                   string
		hash, mimeType, format, outDir, errTxt sql.NullString
		metaJSON                               sql.NullString
		durationMS                             int64
		startedAt                              string
	)

	err := row.Scan(
		&rec.ID,
		&rec.Source,
		&hash,
		&mimeType,
		&format,
		&rec.Width,
		&rec.Height,
		&mode,
		&rec.Grid.Rows,
		&rec.Grid.Cols,
		&rec.Rotation,
		&rec.BackgroundRemoved,
		&rec.ResultCount,
		&rec.OutputBytes,
		&outDir,
		&errTxt,
		&rec.TimedOut,
		&durationMS,
		&metaJSON,
		&startedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.SourceHash = hash.String
	rec.MIMEType = mimeType.String
	rec.Format = format.String
	rec.OutputDir = outDir.String
	rec.Error = errTxt.String
	rec.Mode = model.Mode(mode)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.StartedAt = parseTimestamp(startedAt)

	if metaJSON.Valid && metaJSON.String != "" {
		var meta model.ImageMetadata
		if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
			rec.Metadata = &meta
		}
	}

	return &rec, nil
}

// GetJob returns the record with the given ID, or nil if there is none.
func (hdb *HistoryDB) GetJob(ctx context.Context, id string) (*JobRecord, error) {
	query := "SELECT" + selectColumns + "FROM jobs WHERE id = ?"

	rec, err := scanRecord(hdb.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return rec, nil
}

// ListJobs returns the most recent jobs first. A non-positive limit
// returns every job.
func (hdb *HistoryDB) ListJobs(ctx context.Context, limit int) ([]*JobRecord, error) {
	query := "SELECT" + selectColumns + "FROM jobs ORDER BY started_at DESC"
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return hdb.queryRecords(ctx, query, args...)
}

// FindBySourceHash returns every job whose input had the given hash, most
// recent first.
func (hdb *HistoryDB) FindBySourceHash(ctx context.Context, hash string) ([]*JobRecord, error) {
	query := "SELECT" + selectColumns + "FROM jobs WHERE source_hash = ? ORDER BY started_at DESC"
	return hdb.queryRecords(ctx, query, hash)
}

// CountJobs returns the number of recorded jobs.
func (hdb *HistoryDB) CountJobs(ctx context.Context) (int, error) {
	var count int
	if err := hdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// queryRecords runs query and scans every row.
func (hdb *HistoryDB) queryRecords(ctx context.Context, query string, args ...any) ([]*JobRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var records []*JobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
