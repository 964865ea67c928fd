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

	"github.com/pkgstats/pkgstats/internal/model"
)

// StatsDB provides SQLite-based storage for completed statistics runs.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all architectures
// rather than one file per architecture. This simplifies cross-architecture
// history queries and backup/restore operations.
type StatsDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures StatsDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a StatsDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*StatsDB, error) {
	dbPath := filepath.Join(dbDir, "pkgstats.db")

	// Check if we should create the database or require it to exist
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

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &StatsDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *StatsDB) Close() error {
	return sdb.db.Close()
}

// Path returns the location of the database file.
func (sdb *StatsDB) Path() string {
	return sdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (sdb *StatsDB) createTables() error {
	schema := `
	-- Runs store one completed statistics run each
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		architecture TEXT NOT NULL,
		mirror TEXT NOT NULL,
		suite TEXT NOT NULL,
		component TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		duration_ms INTEGER NOT NULL,
		lines_processed INTEGER NOT NULL,
		distinct_packages INTEGER NOT NULL,
		top_n INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_architecture ON runs(architecture);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- Ranked packages of each run, for history queries without JSON parsing
	CREATE TABLE IF NOT EXISTS run_packages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		package TEXT NOT NULL,
		file_count INTEGER NOT NULL,
		UNIQUE(run_id, rank)
	);

	CREATE INDEX IF NOT EXISTS idx_run_packages_run ON run_packages(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_packages_package ON run_packages(package);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a completed run and its ranked packages.
// The run row and its package rows are written in one transaction, so a
// half-saved run never appears in history. Returns the new run ID.
func (sdb *StatsDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (architecture, mirror, suite, component, timestamp, duration_ms, lines_processed, distinct_packages, top_n, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(report.Architecture),
		report.Mirror,
		report.Suite,
		report.Component,
		report.DateGenerated.UTC().Format("2006-01-02 15:04:05"),
		report.Duration.Milliseconds(),
		report.LinesProcessed,
		report.DistinctPackages,
		report.TopN,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for i, pkg := range report.Packages {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO run_packages (run_id, rank, package, file_count)
		VALUES (?, ?, ?, ?)
		`, runID, i+1, pkg.Package, pkg.Count); err != nil {
			return 0, fmt.Errorf("failed to insert run package: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// GetLatestRun retrieves the most recent run for an architecture.
// Returns nil without error when no run exists.
func (sdb *StatsDB) GetLatestRun(ctx context.Context, arch model.Architecture) (*model.Report, error) {
	query := `
	SELECT report_json FROM runs
	WHERE architecture = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query, string(arch)).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetRunByID retrieves a run by its database ID.
// Returns nil without error when no run exists.
func (sdb *StatsDB) GetRunByID(ctx context.Context, id int64) (*model.Report, error) {
	query := `
	SELECT report_json FROM runs
	WHERE id = ?
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListArchitectures returns all architectures that have stored runs.
func (sdb *StatsDB) ListArchitectures(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT architecture FROM runs
	ORDER BY architecture
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list architectures: %w", err)
	}
	defer rows.Close()

	var archs []string
	for rows.Next() {
		var arch string
		if err := rows.Scan(&arch); err != nil {
			return nil, fmt.Errorf("failed to scan architecture: %w", err)
		}
		archs = append(archs, arch)
	}

	return archs, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Architecture is the architecture the run was performed for.
	Architecture string

	// Mirror is the mirror base URL used for the fetch.
	Mirror string

	// Suite is the distribution suite.
	Suite string

	// Component is the archive component.
	Component string

	// Timestamp is when the run completed.
	Timestamp time.Time

	// LinesProcessed is the total number of manifest lines consumed.
	LinesProcessed int

	// DistinctPackages is the number of distinct package identifiers seen.
	DistinctPackages int

	// TopN is the requested result size.
	TopN int
}

// GetRunHistory retrieves run metadata, most recent first. When arch is
// empty, runs for all architectures are returned. limit caps the number of
// rows; zero or negative means no cap.
//
// This is more efficient than loading full reports when only summaries are
// displayed.
func (sdb *StatsDB) GetRunHistory(ctx context.Context, arch model.Architecture, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, architecture, mirror, suite, component, timestamp, lines_processed, distinct_packages, top_n
	FROM runs
	`
	args := make([]any, 0, 2)

	if arch != "" {
		query += " WHERE architecture = ?"
		args = append(args, string(arch))
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string

		if err := rows.Scan(
			&meta.ID,
			&meta.Architecture,
			&meta.Mirror,
			&meta.Suite,
			&meta.Component,
			&timestamp,
			&meta.LinesProcessed,
			&meta.DistinctPackages,
			&meta.TopN,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRunPackages retrieves the ranked packages of a stored run in rank order.
func (sdb *StatsDB) GetRunPackages(ctx context.Context, runID int64) ([]model.PackageCount, error) {
	query := `
	SELECT package, file_count FROM run_packages
	WHERE run_id = ?
	ORDER BY rank ASC
	`

	rows, err := sdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run packages: %w", err)
	}
	defer rows.Close()

	var packages []model.PackageCount
	for rows.Next() {
		var pkg model.PackageCount
		if err := rows.Scan(&pkg.Package, &pkg.Count); err != nil {
			return nil, fmt.Errorf("failed to scan run package: %w", err)
		}
		packages = append(packages, pkg)
	}

	return packages, rows.Err()
}

// PackageTrend is the count of one package at one point in history.
type PackageTrend struct {
	// RunID identifies the run the count belongs to.
	RunID int64

	// Timestamp is when that run completed.
	Timestamp time.Time

	// Count is the file count recorded for the package.
	Count int
}

// GetPackageTrend retrieves the historical counts of one package for an
// architecture, oldest first. Runs where the package did not rank in the
// stored top-N are absent from the result.
func (sdb *StatsDB) GetPackageTrend(ctx context.Context, arch model.Architecture, pkg string) ([]PackageTrend, error) {
	query := `
	SELECT r.id, r.timestamp, p.file_count
	FROM runs r
	JOIN run_packages p ON p.run_id = r.id
	WHERE r.architecture = ? AND p.package = ?
	ORDER BY r.timestamp ASC, r.id ASC
	`

	rows, err := sdb.db.QueryContext(ctx, query, string(arch), pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to get package trend: %w", err)
	}
	defer rows.Close()

	var results []PackageTrend
	for rows.Next() {
		var trend PackageTrend
		var timestamp string
		if err := rows.Scan(&trend.RunID, &timestamp, &trend.Count); err != nil {
			return nil, fmt.Errorf("failed to scan package trend: %w", err)
		}
		trend.Timestamp = parseTimestamp(timestamp)
		results = append(results, trend)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
