package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/orphancrawl/internal/model"
)

// DefaultFileName is the database file inside the archive directory.
const DefaultFileName = "orphancrawl.db"

// timeLayout is fixed width so that stored times sort lexically.
const timeLayout = "2006-01-02 15:04:05.000000000"

// ReportDB is the SQLite archive of orphan runs.
type ReportDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures ReportDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if they
	// don't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the archive in dbDir.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, DefaultFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
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

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReportDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (r *ReportDB) Path() string {
	return r.dbPath
}

// Close closes the database connection.
func (r *ReportDB) Close() error {
	return r.db.Close()
}

func (r *ReportDB) createTables() error {
	schema := `
	-- One row per finished orphan run
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		site TEXT NOT NULL,
		server TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		orphan_count INTEGER NOT NULL,
		server_count INTEGER NOT NULL,
		site_count INTEGER NOT NULL,
		partial INTEGER NOT NULL DEFAULT 0,
		digest TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site);
	CREATE INDEX IF NOT EXISTS idx_runs_generated ON runs(generated_at);

	CREATE TABLE IF NOT EXISTS orphans (
		run_id TEXT NOT NULL REFERENCES runs(id),
		path TEXT NOT NULL,
		PRIMARY KEY (run_id, path)
	);

	-- Pages fetched by the site crawl of a run
	CREATE TABLE IF NOT EXISTS pages (
		run_id TEXT NOT NULL REFERENCES runs(id),
		path TEXT NOT NULL,
		url TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		raw_hash TEXT,
		PRIMARY KEY (run_id, path)
	);
	`

	_, err := r.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary describes an archived run without loading the report.
type RunSummary struct {
	ID          string    `json:"id"`
	Site        string    `json:"site"`
	Server      string    `json:"server"`
	GeneratedAt time.Time `json:"generated_at"`
	Orphans     int       `json:"orphans"`
	ServerFiles int       `json:"server_files"`
	SitePaths   int       `json:"site_paths"`
	Partial     bool      `json:"partial"`
	Digest      string    `json:"digest"`
}

// Digest returns the hex SHA3-256 of a sorted, deduplicated orphan list.
// Equal digests mean equal orphan sets.
func Digest(orphans []string) string {
	sorted := slices.Clone(orphans)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	h := sha3.New256()
	for _, p := range sorted {
		// NUL cannot occur in a path, so entries cannot run together.
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SaveReport archives a report and returns its run ID. A report without
// an ID is given a new UUID, which is written back to report.ID.
func (r *ReportDB) SaveReport(ctx context.Context, report *model.OrphanReport) (string, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	totals := report.Totals()
	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, site, server, generated_at, orphan_count, server_count, site_count, partial, digest, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.Site,
		report.Server,
		report.GeneratedAt.UTC().Format(timeLayout),
		totals.Orphans,
		totals.Server,
		totals.Site,
		report.Partial(),
		Digest(report.Orphans),
		string(reportJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}

	for _, p := range report.Orphans {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO orphans (run_id, path) VALUES (?, ?)`, report.ID, p); err != nil {
			return "", fmt.Errorf("failed to save orphan %s: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return report.ID, nil
}

// PageRecord is a stored page of a run.
type PageRecord struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	RawHash     string `json:"raw_hash"`
}

// SavePages stores the pages fetched by the site crawl of a run. A page
// saved twice keeps the latest values.
func (r *ReportDB) SavePages(ctx context.Context, runID string, pages []*model.Page) error {
	if len(pages) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, path, url, status_code, content_type, title, raw_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, path) DO UPDATE SET
		url = excluded.url,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		raw_hash = excluded.raw_hash
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		if p.Hash == "" {
			p.ComputeHash()
		}
		if _, err := stmt.ExecContext(ctx, runID, p.Path, p.URL, p.StatusCode, p.ContentType, p.Title, p.Hash); err != nil {
			return fmt.Errorf("failed to save page %s: %w", p.Path, err)
		}
	}

	return tx.Commit()
}

// Pages returns the stored pages of a run ordered by path.
func (r *ReportDB) Pages(ctx context.Context, runID string) ([]PageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT path, url, status_code, content_type, title, raw_hash
	FROM pages WHERE run_id = ?
	ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var contentType, title, hash sql.NullString
		if err := rows.Scan(&p.Path, &p.URL, &p.StatusCode, &contentType, &title, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.ContentType = contentType.String
		p.Title = title.String
		p.RawHash = hash.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetReport loads the archived report of a run.
func (r *ReportDB) GetReport(ctx context.Context, id string) (*model.OrphanReport, error) {
	var reportJSON string
	err := r.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.OrphanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ListRuns returns the runs of a site, newest first. An empty site lists
// every run.
func (r *ReportDB) ListRuns(ctx context.Context, site string) ([]RunSummary, error) {
	return r.listRuns(ctx, site, -1)
}

// ListSites returns the distinct sites in the archive.
func (r *ReportDB) ListSites(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT site FROM runs ORDER BY site`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (r *ReportDB) listRuns(ctx context.Context, site string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, site, server, generated_at, orphan_count, server_count, site_count, partial, digest
	FROM runs
	WHERE (? = '' OR site = ?)
	ORDER BY generated_at DESC, seq DESC
	LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, site, site, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var generated string
		if err := rows.Scan(&run.ID, &run.Site, &run.Server, &generated,
			&run.Orphans, &run.ServerFiles, &run.SitePaths, &run.Partial, &run.Digest); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.GeneratedAt = parseTimestamp(generated)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *ReportDB) orphans(ctx context.Context, runID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path FROM orphans WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orphans: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan orphan: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// RunDiff compares the orphan sets of two runs of a site.
type RunDiff struct {
	Previous RunSummary `json:"previous"`
	Current  RunSummary `json:"current"`

	// New orphans appeared since the previous run.
	New []string `json:"new"`

	// Resolved orphans are linked or gone in the current run.
	Resolved []string `json:"resolved"`
}

// Unchanged reports whether both runs found the same orphans.
func (d *RunDiff) Unchanged() bool {
	return d.Previous.Digest == d.Current.Digest
}

// DiffLatest compares the two most recent runs of a site.
func (r *ReportDB) DiffLatest(ctx context.Context, site string) (*RunDiff, error) {
	runs, err := r.listRuns(ctx, site, 2)
	if err != nil {
		return nil, err
	}
	if len(runs) < 2 {
		return nil, fmt.Errorf("%w (site %s has %d)", ErrNotEnoughRuns, site, len(runs))
	}

	current, err := r.orphans(ctx, runs[0].ID)
	if err != nil {
		return nil, err
	}
	previous, err := r.orphans(ctx, runs[1].ID)
	if err != nil {
		return nil, err
	}

	return &RunDiff{
		Previous: runs[1],
		Current:  runs[0],
		New:      subtract(current, previous),
		Resolved: subtract(previous, current),
	}, nil
}

// subtract returns the entries of a missing from b, keeping a's order.
func subtract(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, p := range b {
		seen[p] = struct{}{}
	}
	out := []string{}
	for _, p := range a {
		if _, ok := seen[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// parseTimestamp parses a stored time as UTC, returning the zero time if
// no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
