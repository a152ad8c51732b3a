// Package sqlite opens the default crawl staging database (data/places.db).
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"castro_guide/internal/storage/staging"
)

const driver = "sqlite"

func init() { sqlx.BindDriver(driver, sqlx.QUESTION) }

const schema = `
CREATE TABLE IF NOT EXISTS places (
  id           TEXT PRIMARY KEY,
  source_id    TEXT NOT NULL DEFAULT '',
  name         TEXT NOT NULL,
  category     TEXT NOT NULL,
  rating       REAL NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0,
  latitude     REAL,
  longitude    REAL,
  distance_km  REAL,
  data         TEXT NOT NULL,
  created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_places_source_id ON places(source_id);
CREATE INDEX IF NOT EXISTS idx_places_category ON places(category);
CREATE INDEX IF NOT EXISTS idx_places_rating ON places(rating);
CREATE INDEX IF NOT EXISTS idx_places_distance ON places(distance_km);
`

const upsertSQL = `
INSERT INTO places
  (id, source_id, name, category, rating, review_count, latitude, longitude, distance_km, data)
VALUES
  (:id, :source_id, :name, :category, :rating, :review_count, :latitude, :longitude, :distance_km, :data)
ON CONFLICT(id) DO UPDATE SET
  source_id    = excluded.source_id,
  name         = excluded.name,
  category     = excluded.category,
  rating       = excluded.rating,
  review_count = excluded.review_count,
  latitude     = excluded.latitude,
  longitude    = excluded.longitude,
  distance_km  = excluded.distance_km,
  data         = excluded.data,
  updated_at   = CURRENT_TIMESTAMP
`

var Dialect = staging.Dialect{Name: "sqlite", Upsert: upsertSQL}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Open opens (and creates when needed) the staging database at path.
// ":memory:" is accepted for tests.
func Open(path string) (*staging.Repo, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}
	db, err := sqlx.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one writer; also keeps every query on the same :memory: database
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return staging.New(db, Dialect), nil
}
