package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
)

// Open connects to the store named by driver ("pgx" or "sqlite"), checks
// the connection and returns it with the matching RepositoryManager.
//
// SQLite connections get foreign keys enabled and a single open
// connection, which also keeps ":memory:" databases shared.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	var m RepositoryManager

	switch driver {
	case config.DriverPostgres:
		m = NewPostgresRepositoryManager()
	case config.DriverSQLite:
		dsn = sqliteDSN(dsn)
		m = NewSQLiteRepositoryManager()
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	return db, m, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
