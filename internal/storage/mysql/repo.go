// Package mysql is the optional MySQL backend of the crawl staging store.
// The schema lives in migrations/.
package mysql

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"castro_guide/internal/storage/staging"
)

var Dialect = staging.Dialect{Name: "mysql", Upsert: upsertPlaceSQL}

func New(db *sql.DB) *staging.Repo { return staging.New(sqlx.NewDb(db, "mysql"), Dialect) }

// Open connects with dsn; parseTime is expected so timestamps scan.
func Open(dsn string) (*staging.Repo, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return staging.New(db, Dialect), nil
}
