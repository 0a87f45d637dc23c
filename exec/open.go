package exec

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/queryport/queryport/compile"
	"github.com/queryport/queryport/dberr"
	"github.com/queryport/queryport/dburl"
)

// Open connects to the database named by a URL and returns the adapter for
// its dialect. The scheme selects the backend: postgres:// goes through
// pgx, mysql:// and sqlite:// through database/sql.
func Open(ctx context.Context, dbURL string, log *slog.Logger) (Database, error) {
	dialect, err := dburl.Infer(dbURL)
	if err != nil {
		return nil, dberr.InvalidRequest("%v", err)
	}

	switch dialect {
	case dburl.DialectPostgres:
		return OpenPgx(ctx, dbURL, log)
	case dburl.DialectMySQL:
		return openMySQL(ctx, dbURL, log)
	case dburl.DialectSQLite:
		return openSQLite(ctx, dbURL, log)
	default:
		return nil, dberr.InvalidRequest("unsupported dialect %s", dialect)
	}
}

// openMySQL converts the URL into a driver DSN and opens a pooled handle.
// parseTime makes the driver hand back time.Time for temporal columns,
// which the row decoder expects.
func openMySQL(ctx context.Context, dbURL string, log *slog.Logger) (*SQLDatabase, error) {
	ep, err := dburl.ParseEndpoint(dbURL)
	if err != nil {
		return nil, dberr.InvalidRequest("%v", err)
	}
	port := ep.Port
	if port == 0 {
		port = 3306
	}

	cfg := mysql.NewConfig()
	cfg.User = ep.User
	cfg.Passwd = ep.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", ep.Host, port)
	cfg.DBName = ep.DBName
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, dberr.Transport(err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dberr.Transport(err)
	}
	return NewSQLDatabase(db, compile.MySQL, log), nil
}

// openSQLite opens the database file named by the URL. The adapter
// serializes access; a single connection is enough and avoids writer
// contention in the driver.
func openSQLite(ctx context.Context, dbURL string, log *slog.Logger) (*SQLDatabase, error) {
	path, err := dburl.SQLitePath(dbURL)
	if err != nil {
		return nil, dberr.InvalidRequest("%v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, dberr.Transport(err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dberr.Transport(err)
	}
	return NewSQLDatabase(db, compile.SQLite, log), nil
}
