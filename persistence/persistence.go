// Package persistence opens the bun database and applies the embedded
// goose migrations.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	library "github.com/goliatone/go-library"
)

// Dialect names the SQL flavour behind a connection
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// Options controls how the database is opened
type Options struct {
	URL         string
	Debug       bool
	PingTimeout time.Duration
}

// DialectFor picks postgres for postgres:// URLs and sqlite for anything
// else.
func DialectFor(url string) Dialect {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects and pings the database
func Open(ctx context.Context, opts Options) (*bun.DB, Dialect, error) {
	dialect := DialectFor(opts.URL)

	var (
		sqldb *sql.DB
		db    *bun.DB
		err   error
	)

	switch dialect {
	case DialectPostgres:
		if sqldb, err = sql.Open("pgx", opts.URL); err != nil {
			return nil, dialect, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		if sqldb, err = sql.Open(sqliteshim.ShimName, opts.URL); err != nil {
			return nil, dialect, fmt.Errorf("open sqlite: %w", err)
		}
		// in memory databases live as long as their one connection
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if opts.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, dialect, fmt.Errorf("ping database: %w", err)
	}

	return db, dialect, nil
}

// Logger is what goose prints through
type Logger interface {
	Printf(format string, v ...any)
	Fatalf(format string, v ...any)
}

// Migrate applies every pending migration from the library's embedded FS
func Migrate(ctx context.Context, db *bun.DB, dialect Dialect, logger Logger) error {
	sub, err := fs.Sub(library.GetMigrationsFS(), library.MigrationsDir)
	if err != nil {
		return err
	}
	return MigrateFS(ctx, db, dialect, sub, logger)
}

// MigrateFS applies the goose migrations found at the root of fsys
func MigrateFS(ctx context.Context, db *bun.DB, dialect Dialect, fsys fs.FS, logger Logger) error {
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if logger != nil {
		goose.SetLogger(logger)
	} else {
		goose.SetLogger(goose.NopLogger())
	}

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
