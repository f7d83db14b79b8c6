package preview

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS previews (
    url         TEXT PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    image_data  TEXT NOT NULL DEFAULT '',
    fetched_at  TEXT NOT NULL DEFAULT ''
);
`

// Cache persists fetched link cards so repeated exports of the same chat
// stay fast and stable even when pages change or go offline.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (and if needed creates) the preview cache at dbPath.
func OpenCache(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached card for url, or nil when absent.
func (c *Cache) Get(url string) (*Card, error) {
	var card Card
	err := c.db.QueryRow(
		"SELECT url, title, description, image_data FROM previews WHERE url = ?", url,
	).Scan(&card.URL, &card.Title, &card.Description, &card.ImageDataURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// Put stores or replaces the card for its URL.
func (c *Cache) Put(card *Card, fetchedAt string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO previews (url, title, description, image_data, fetched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		card.URL, card.Title, card.Description, card.ImageDataURL, fetchedAt,
	)
	return err
}
