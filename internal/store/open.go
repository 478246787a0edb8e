package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Driver string

const (
	DriverSqlite   Driver = "sqlite"
	DriverLibsql   Driver = "libsql"
	DriverPostgres Driver = "postgres"
)

// Config selects and locates the database.
type Config struct {
	// Driver defaults to sqlite.
	Driver Driver `json:"driver"`
	// File is the sqlite database path.
	File string `json:"file"`
	// URL is the libsql or postgres connection url.
	URL string `json:"url"`
	// AuthToken is appended to libsql urls.
	AuthToken string `json:"auth_token"`
}

func openSqlite(file string) (*sql.DB, error) {
	if file == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	if file != ":memory:" {
		err := os.MkdirAll(filepath.Dir(file), 0755)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, err
	}
	// sqlite only allows one writer at a time
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openLibsql(rawUrl, authToken string) (*sql.DB, error) {
	if rawUrl == "" {
		return nil, fmt.Errorf("a libsql url was not specified")
	}
	if authToken != "" {
		sep := "?"
		if strings.Contains(rawUrl, "?") {
			sep = "&"
		}
		rawUrl = fmt.Sprintf("%s%sauthToken=%s", rawUrl, sep, authToken)
	}
	return sql.Open("libsql", rawUrl)
}

// OpenDB opens the configured database without touching its schema.
func (c Config) OpenDB() (*sql.DB, Driver, error) {
	driver := c.Driver
	if driver == "" {
		driver = DriverSqlite
	}

	var db *sql.DB
	var err error
	switch driver {
	case DriverSqlite:
		db, err = openSqlite(c.File)
	case DriverLibsql:
		db, err = openLibsql(c.URL, c.AuthToken)
	case DriverPostgres:
		if c.URL == "" {
			return nil, driver, fmt.Errorf("a postgres url was not specified")
		}
		db, err = sql.Open("pgx", c.URL)
	default:
		return nil, driver, fmt.Errorf("unknown database driver '%s'", driver)
	}
	if err != nil {
		return nil, driver, err
	}
	return db, driver, nil
}

// Migrate applies the schema, every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
