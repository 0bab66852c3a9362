package hits

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists one row per page, day and visitor.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the hits database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open hits db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS hits (
			page_id TEXT NOT NULL,
			day TEXT NOT NULL,
			visitor_hash TEXT NOT NULL,
			PRIMARY KEY (page_id, day, visitor_hash)
		);

		CREATE INDEX IF NOT EXISTS idx_hits_page_day ON hits(page_id, day);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Record stores a visit. Repeat visits of the same visitor on the same day
// are ignored.
func (s *Store) Record(ctx context.Context, pageID, day, visitorHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO hits (page_id, day, visitor_hash) VALUES (?, ?, ?)`,
		pageID, day, visitorHash)
	return err
}

// Counts returns the visitors of pageID on day and over all days.
func (s *Store) Counts(ctx context.Context, pageID, day string) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN day = ? THEN 1 ELSE 0 END), 0),
			COUNT(*)
		FROM hits WHERE page_id = ?`, day, pageID).Scan(&c.Today, &c.Total)
	if err != nil {
		return Counts{}, fmt.Errorf("count hits: %w", err)
	}
	return c, nil
}
