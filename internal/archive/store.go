// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists completed analyses and comparisons so they can be
// listed and reloaded by identifier. Each record keeps a few indexed columns
// for listing and the full JSON document for verbatim reload.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DefaultListLimit caps list queries when the caller passes no limit.
const DefaultListLimit = 50

// ErrNotFound is returned when no record has the requested identifier.
var ErrNotFound = errors.New("archive: not found")

// AnalysisEntry is one row of the analysis history.
type AnalysisEntry struct {
	ID             string        `db:"id" json:"id" yaml:"id"`
	Subject        string        `db:"subject" json:"subject" yaml:"subject"`
	Context        string        `db:"context" json:"context" yaml:"context"`
	Recommendation types.Verdict `db:"recommendation" json:"recommendation" yaml:"recommendation"`
	Score          int           `db:"score" json:"score" yaml:"score"`
	Strategy       string        `db:"strategy" json:"strategy" yaml:"strategy"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at" yaml:"created_at"`
}

// ComparisonEntry is one row of the comparison history.
type ComparisonEntry struct {
	ID             string    `db:"id" json:"id" yaml:"id"`
	Context        string    `db:"context" json:"context" yaml:"context"`
	Subjects       string    `db:"subjects" json:"subjects" yaml:"subjects"`
	BestCandidates string    `db:"best_candidates" json:"best_candidates" yaml:"best_candidates"`
	TopScore       int       `db:"top_score" json:"top_score" yaml:"top_score"`
	CreatedAt      time.Time `db:"created_at" json:"created_at" yaml:"created_at"`
}

// Store is the archive database.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database named by cfg and creates the schema if it
// does not exist. For sqlite3 the DSN is a file path whose parent directory
// is created as needed.
func Open(cfg types.StoreConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = types.DefaultStoreDriver
	}
	dsn := cfg.DSN
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = types.DefaultStoreDSN
		}
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_journal_mode=WAL&_busy_timeout=5000"
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres store requires a dsn")
		}
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			context TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			score INTEGER NOT NULL,
			strategy TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_subject ON analyses(subject)`,
		`CREATE TABLE IF NOT EXISTS comparisons (
			id TEXT PRIMARY KEY,
			context TEXT NOT NULL,
			subjects TEXT NOT NULL,
			best_candidates TEXT NOT NULL,
			top_score INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comparisons_created_at ON comparisons(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveAnalysis stores a, assigning a new identifier when a.ID is empty, and
// returns the identifier. Saving an existing identifier replaces the record.
func (s *Store) SaveAnalysis(ctx context.Context, a *types.Analysis) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encoding analysis: %w", err)
	}
	created := a.Timestamp
	if created.IsZero() {
		created = time.Now().UTC()
	}
	rec := a.Recommendation
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO analyses (id, subject, context, recommendation, score, strategy, created_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			subject=excluded.subject, context=excluded.context,
			recommendation=excluded.recommendation, score=excluded.score,
			strategy=excluded.strategy, created_at=excluded.created_at,
			payload=excluded.payload`),
		a.ID, a.Subject, a.Context, string(rec.Recommendation), rec.Score,
		string(rec.Strategy), created, string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("saving analysis %s: %w", a.ID, err)
	}
	return a.ID, nil
}

// LoadAnalysis returns the analysis stored under id exactly as it was saved.
func (s *Store) LoadAnalysis(ctx context.Context, id string) (types.Analysis, error) {
	var a types.Analysis
	if err := s.loadPayload(ctx, "analyses", id, &a); err != nil {
		return types.Analysis{}, err
	}
	return a, nil
}

// ListAnalyses returns the most recent analyses, newest first. A non-empty
// subject filters case-insensitively.
func (s *Store) ListAnalyses(ctx context.Context, subject string, limit int) ([]AnalysisEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `SELECT id, subject, context, recommendation, score, strategy, created_at FROM analyses`
	args := []any{}
	if subject = strings.TrimSpace(subject); subject != "" {
		query += ` WHERE LOWER(subject) = LOWER(?)`
		args = append(args, subject)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	entries := []AnalysisEntry{}
	if err := s.db.SelectContext(ctx, &entries, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	return entries, nil
}

// SaveComparison stores c, assigning a new identifier when c.ID is empty.
// Subject analyses are embedded in the comparison record.
func (s *Store) SaveComparison(ctx context.Context, c *types.Comparison) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding comparison: %w", err)
	}
	created := c.Timestamp
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO comparisons (id, context, subjects, best_candidates, top_score, created_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			context=excluded.context, subjects=excluded.subjects,
			best_candidates=excluded.best_candidates, top_score=excluded.top_score,
			created_at=excluded.created_at, payload=excluded.payload`),
		c.ID, c.Context, strings.Join(c.Subjects, ", "),
		strings.Join(c.Result.BestCandidates, ", "), c.Result.TopScore,
		created, string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("saving comparison %s: %w", c.ID, err)
	}
	return c.ID, nil
}

// LoadComparison returns the comparison stored under id.
func (s *Store) LoadComparison(ctx context.Context, id string) (types.Comparison, error) {
	var c types.Comparison
	if err := s.loadPayload(ctx, "comparisons", id, &c); err != nil {
		return types.Comparison{}, err
	}
	return c, nil
}

// ListComparisons returns the most recent comparisons, newest first.
func (s *Store) ListComparisons(ctx context.Context, limit int) ([]ComparisonEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	entries := []ComparisonEntry{}
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind(
		`SELECT id, context, subjects, best_candidates, top_score, created_at
		 FROM comparisons ORDER BY created_at DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("listing comparisons: %w", err)
	}
	return entries, nil
}

// loadPayload decodes the payload column of table's row id into v.
func (s *Store) loadPayload(ctx context.Context, table, id string, v any) error {
	var payload string
	err := s.db.GetContext(ctx, &payload, s.db.Rebind(`SELECT payload FROM `+table+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", strings.TrimSuffix(table, "s"), id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decoding %s: %w", id, err)
	}
	return nil
}
