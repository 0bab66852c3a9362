package notionpub

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding content snapshots and the metadata of
// cached images.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets page renders read snapshots while a refresh writes one.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
    key TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS images (
    key TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    content_type TEXT NOT NULL,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    size INTEGER NOT NULL DEFAULT 0,
    fetched_at TEXT NOT NULL
);
`)
	return err
}

// SaveSnapshot upserts the snapshot stored under key.
func (s *Store) SaveSnapshot(key string, payload []byte, fetchedAt time.Time) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO snapshots (key, payload, fetched_at) VALUES (?, ?, ?)`,
		key, payload, fetchedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// GetSnapshot returns the snapshot stored under key, or ErrNotFound.
func (s *Store) GetSnapshot(key string) (Snapshot, error) {
	var payload []byte
	var fetched string
	err := s.db.QueryRow(`SELECT payload, fetched_at FROM snapshots WHERE key = ?`, key).Scan(&payload, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	t, _ := time.Parse(time.RFC3339Nano, fetched)
	return Snapshot{Key: key, Payload: payload, FetchedAt: t}, nil
}

// DeleteSnapshot removes the snapshot stored under key.
func (s *Store) DeleteSnapshot(key string) error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE key = ?`, key)
	return err
}

// SaveImage upserts image metadata.
func (s *Store) SaveImage(img Image) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO images (key, filename, content_type, width, height, size, fetched_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.Key, img.Filename, img.ContentType, img.Width, img.Height, img.Size, img.FetchedAt.UTC().Format(time.RFC3339))
	return err
}

// GetImage returns the metadata stored under key, or ErrNotFound.
func (s *Store) GetImage(key string) (Image, error) {
	img := Image{Key: key}
	var fetched string
	err := s.db.QueryRow(`SELECT filename, content_type, width, height, size, fetched_at FROM images WHERE key = ?`, key).
		Scan(&img.Filename, &img.ContentType, &img.Width, &img.Height, &img.Size, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, err
	}
	img.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
	return img, nil
}

// ListImages returns all cached images, newest first.
func (s *Store) ListImages() ([]Image, error) {
	rows, err := s.db.Query(`SELECT key, filename, content_type, width, height, size, fetched_at FROM images ORDER BY fetched_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		var fetched string
		if err := rows.Scan(&img.Key, &img.Filename, &img.ContentType, &img.Width, &img.Height, &img.Size, &fetched); err != nil {
			return nil, err
		}
		img.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImages removes all image metadata and returns the removed rows so the
// caller can delete the files.
func (s *Store) DeleteImages() ([]Image, error) {
	images, err := s.ListImages()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`DELETE FROM images`); err != nil {
		return nil, err
	}
	return images, nil
}
