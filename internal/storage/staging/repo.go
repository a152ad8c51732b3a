// Package staging is the crawl staging store shared by the SQLite and MySQL
// backends. Queryable fields live in columns; the whole place is kept as JSON
// in data so Find and Export return exactly what Save stored.
package staging

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"castro_guide/internal/domain"
)

type row struct {
	ID          string          `db:"id"`
	SourceID    string          `db:"source_id"`
	Name        string          `db:"name"`
	Category    string          `db:"category"`
	Rating      float64         `db:"rating"`
	ReviewCount int64           `db:"review_count"`
	Latitude    sql.NullFloat64 `db:"latitude"`
	Longitude   sql.NullFloat64 `db:"longitude"`
	DistanceKm  sql.NullFloat64 `db:"distance_km"`
	Data        string          `db:"data"`
}

func nullF64(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func toRow(p domain.Place) (row, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return row{}, err
	}
	return row{
		ID:          p.ID,
		SourceID:    p.SourceID,
		Name:        p.Name,
		Category:    string(p.Category),
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Latitude:    nullF64(p.Latitude),
		Longitude:   nullF64(p.Longitude),
		DistanceKm:  nullF64(p.DistanceKm),
		Data:        string(b),
	}, nil
}

// Dialect carries the statements that differ between backends.
type Dialect struct {
	Name string
	// Upsert inserts or replaces one row using named parameters.
	Upsert string
}

type Repo struct {
	db      *sqlx.DB
	dialect Dialect
}

func New(db *sqlx.DB, d Dialect) *Repo { return &Repo{db: db, dialect: d} }

func (r *Repo) Close() error { return r.db.Close() }

// Find looks a place up by id, then by source id.
func (r *Repo) Find(ctx context.Context, id, sourceID string) (domain.Place, error) {
	var data string
	err := r.db.GetContext(ctx, &data, `SELECT data FROM places WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) && sourceID != "" {
		err = r.db.GetContext(ctx, &data, `SELECT data FROM places WHERE source_id = ? ORDER BY id LIMIT 1`, sourceID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Place{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Place{}, fmt.Errorf("%s find %s: %w", r.dialect.Name, id, err)
	}
	var p domain.Place
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return domain.Place{}, fmt.Errorf("%s find %s: decode: %w", r.dialect.Name, id, err)
	}
	return p, nil
}

func (r *Repo) Save(ctx context.Context, p domain.Place) error {
	if p.ID == "" {
		return errors.New("staging: place without id")
	}
	rw, err := toRow(p)
	if err != nil {
		return fmt.Errorf("%s save %s: encode: %w", r.dialect.Name, p.ID, err)
	}
	if _, err := r.db.NamedExecContext(ctx, r.dialect.Upsert, rw); err != nil {
		return fmt.Errorf("%s save %s: %w", r.dialect.Name, p.ID, err)
	}
	return nil
}

// Export returns the places with coordinates, best rated first.
func (r *Repo) Export(ctx context.Context) ([]domain.Place, error) {
	var datas []string
	err := r.db.SelectContext(ctx, &datas, `
SELECT data FROM places
WHERE latitude IS NOT NULL AND longitude IS NOT NULL
ORDER BY rating DESC, review_count DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("%s export: %w", r.dialect.Name, err)
	}
	out := make([]domain.Place, 0, len(datas))
	for _, d := range datas {
		var p domain.Place
		if err := json.Unmarshal([]byte(d), &p); err != nil {
			return nil, fmt.Errorf("%s export: decode: %w", r.dialect.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Repo) Stats(ctx context.Context) ([]domain.CategoryStat, error) {
	var out []domain.CategoryStat
	err := r.db.SelectContext(ctx, &out, `
SELECT category, COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg_rating
FROM places
GROUP BY category
ORDER BY count DESC, category`)
	if err != nil {
		return nil, fmt.Errorf("%s stats: %w", r.dialect.Name, err)
	}
	return out, nil
}
