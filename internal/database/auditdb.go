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

	"github.com/nao1215/seoscan/internal/model"
)

// DBFileName is the name of the SQLite file inside the data directory.
const DBFileName = "seoscan.db"

// ErrAuditNotFound is returned when an audit ID is not in the history.
var ErrAuditNotFound = errors.New("audit not found")

// ErrNoSummary is returned when saving a report that has not been summarized.
var ErrNoSummary = errors.New("audit report has no summary")

// AuditDB provides SQLite-based storage for audit summaries.
//
// Design decision: We store one row per audit with the summary scores as
// columns and the full SiteSummary as JSON, and never store page records because:
// 1. History and compare only need site-level numbers
// 2. Page analyses are large and go stale as soon as the site changes
// 3. Score columns can be sorted and filtered without decoding JSON
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
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

// Open opens or creates an AuditDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

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

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	// busy_timeout lets history queries wait for a running audit's write.
	dsn := dbPath + "?mode=rw&_pragma=busy_timeout(5000)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// Path returns the path of the database file.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (adb *AuditDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		site TEXT NOT NULL,
		url TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		overall REAL NOT NULL DEFAULT 0,
		technical REAL NOT NULL DEFAULT 0,
		content REAL NOT NULL DEFAULT 0,
		accessibility REAL NOT NULL DEFAULT 0,
		pages_analyzed INTEGER NOT NULL DEFAULT 0,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		critical INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		broken_links INTEGER NOT NULL DEFAULT 0,
		health TEXT,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audits_site ON audits(site);
	CREATE INDEX IF NOT EXISTS idx_audits_timestamp ON audits(timestamp);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// AuditRecord is one stored audit summary.
type AuditRecord struct {
	ID            string             `json:"id"`
	Site          string             `json:"site"`
	URL           string             `json:"url"`
	Timestamp     time.Time          `json:"timestamp"`
	Overall       float64            `json:"overall"`
	Technical     float64            `json:"technical_seo"`
	Content       float64            `json:"content_seo"`
	Accessibility float64            `json:"accessibility"`
	PagesAnalyzed int                `json:"pages_analyzed"`
	PagesCrawled  int                `json:"pages_crawled"`
	Critical      int                `json:"critical"`
	Warnings      int                `json:"warnings"`
	BrokenLinks   int                `json:"broken_links"`
	Health        model.HealthStatus `json:"health_status,omitempty"`
	Summary       *model.SiteSummary `json:"summary"`
}

// Valid reports whether the audit analyzed at least one page.
func (r *AuditRecord) Valid() bool {
	return r.Summary.Valid()
}

// SiteInfo describes one audited site.
type SiteInfo struct {
	Site       string    `json:"site"`
	AuditCount int       `json:"audit_count"`
	LastAudit  time.Time `json:"last_audit"`
}

// storedTimeLayout is fixed-width so timestamps sort lexicographically.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveAudit stores the summary of a finished audit.
// A report whose summary carries an error is stored with zero scores so
// the failed run still shows up in the history.
func (adb *AuditDB) SaveAudit(ctx context.Context, report *model.AuditReport) error {
	if report == nil || report.Summary == nil {
		return ErrNoSummary
	}

	summaryJSON, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	s := report.Summary
	query := `
	INSERT INTO audits (id, site, url, timestamp, overall, technical, content, accessibility,
		pages_analyzed, pages_crawled, critical, warnings, broken_links, health, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = adb.db.ExecContext(ctx, query,
		report.ID,
		report.Site(),
		report.URL,
		report.Timestamp.UTC().Format(storedTimeLayout),
		s.AverageScores.Overall,
		s.AverageScores.Technical,
		s.AverageScores.Content,
		s.AverageScores.Accessibility,
		s.TotalPagesAnalyzed,
		report.CrawlStats.PagesCrawled,
		s.TotalIssues.Critical,
		s.TotalIssues.Warnings,
		s.TotalBrokenLinks,
		string(s.HealthStatus),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit: %w", err)
	}
	return nil
}

const selectAuditColumns = `
	SELECT id, site, url, timestamp, overall, technical, content, accessibility,
		pages_analyzed, pages_crawled, critical, warnings, broken_links, health, summary_json
	FROM audits`

// RecentAudits returns the most recent audits across all sites, newest first.
func (adb *AuditDB) RecentAudits(ctx context.Context, limit int) ([]*AuditRecord, error) {
	if limit <= 0 {
		return []*AuditRecord{}, nil
	}
	return adb.queryAudits(ctx, selectAuditColumns+` ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
}

// GetAuditHistory returns every audit of a site, newest first.
func (adb *AuditDB) GetAuditHistory(ctx context.Context, site string) ([]*AuditRecord, error) {
	return adb.queryAudits(ctx, selectAuditColumns+` WHERE site = ? ORDER BY timestamp DESC, rowid DESC`, site)
}

// LatestAudits returns up to n audits of a site, newest first.
func (adb *AuditDB) LatestAudits(ctx context.Context, site string, n int) ([]*AuditRecord, error) {
	if n <= 0 {
		return []*AuditRecord{}, nil
	}
	return adb.queryAudits(ctx, selectAuditColumns+` WHERE site = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`, site, n)
}

// GetAuditByID retrieves a single audit. It returns ErrAuditNotFound if
// no audit has the given ID.
func (adb *AuditDB) GetAuditByID(ctx context.Context, id string) (*AuditRecord, error) {
	row := adb.db.QueryRowContext(ctx, selectAuditColumns+` WHERE id = ?`, id)
	record, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAuditNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}
	return record, nil
}

// ListAuditedSites returns every audited site with its audit count,
// most recently audited first.
func (adb *AuditDB) ListAuditedSites(ctx context.Context) ([]SiteInfo, error) {
	query := `
	SELECT site, COUNT(*), MAX(timestamp)
	FROM audits
	GROUP BY site
	ORDER BY MAX(timestamp) DESC, site
	`
	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	sites := make([]SiteInfo, 0)
	for rows.Next() {
		var (
			info SiteInfo
			last string
		)
		if err := rows.Scan(&info.Site, &info.AuditCount, &last); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		info.LastAudit = parseTimestamp(last)
		sites = append(sites, info)
	}
	return sites, rows.Err()
}

// DeleteSite removes every audit of a site and returns the number removed.
func (adb *AuditDB) DeleteSite(ctx context.Context, site string) (int64, error) {
	result, err := adb.db.ExecContext(ctx, `DELETE FROM audits WHERE site = ?`, site)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audits: %w", err)
	}
	return result.RowsAffected()
}

func (adb *AuditDB) queryAudits(ctx context.Context, query string, args ...any) ([]*AuditRecord, error) {
	rows, err := adb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	records := make([]*AuditRecord, 0)
	for rows.Next() {
		record, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAudit(row rowScanner) (*AuditRecord, error) {
	var (
		r           AuditRecord
		timestamp   string
		health      sql.NullString
		summaryJSON string
	)
	if err := row.Scan(
		&r.ID, &r.Site, &r.URL, &timestamp,
		&r.Overall, &r.Technical, &r.Content, &r.Accessibility,
		&r.PagesAnalyzed, &r.PagesCrawled, &r.Critical, &r.Warnings, &r.BrokenLinks,
		&health, &summaryJSON,
	); err != nil {
		return nil, err
	}

	r.Timestamp = parseTimestamp(timestamp)
	r.Health = model.HealthStatus(health.String)

	var summary model.SiteSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary of audit %s: %w", r.ID, err)
	}
	r.Summary = &summary
	return &r, nil
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
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
