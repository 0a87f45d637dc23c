// Package dburl parses database URLs and infers the target dialect from
// the scheme. URLs are the single configuration surface: one string names
// the backend, the endpoint, and the database.
package dburl

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Supported database dialects
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

var (
	ErrUnknownDialect = errors.New("unknown database dialect")
	ErrInvalidURL     = errors.New("invalid database URL")
)

// Infer returns the dialect ("postgres", "mysql", or "sqlite") based on
// the URL scheme.
func Infer(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDialect, u.Scheme)
	}
}

// Endpoint is the decomposed network part of a database URL.
type Endpoint struct {
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
}

// ParseEndpoint decomposes a postgres or mysql URL. SQLite URLs have no
// endpoint; use SQLitePath instead.
func ParseEndpoint(dbURL string) (Endpoint, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	ep := Endpoint{
		User:   u.User.Username(),
		Host:   u.Hostname(),
		DBName: strings.TrimPrefix(u.Path, "/"),
	}
	if pw, ok := u.User.Password(); ok {
		ep.Password = pw
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: bad port %q", ErrInvalidURL, p)
		}
		ep.Port = port
	}
	return ep, nil
}

// SQLitePath extracts the database file path from a sqlite URL.
// sqlite:///abs/path.db yields /abs/path.db; sqlite:rel.db yields rel.db.
func SQLitePath(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "sqlite", "sqlite3":
	default:
		return "", fmt.Errorf("%w: %s is not a sqlite URL", ErrInvalidURL, dbURL)
	}
	if u.Opaque != "" {
		return u.Opaque, nil
	}
	if u.Path != "" {
		return u.Path, nil
	}
	return "", fmt.Errorf("%w: sqlite URL has no path", ErrInvalidURL)
}

// IsLocalhost returns true if the URL points to localhost (127.0.0.1,
// localhost, or ::1). SQLite URLs are file-based and always local.
func IsLocalhost(dbURL string) bool {
	u, err := url.Parse(dbURL)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "sqlite" || scheme == "sqlite3" {
		return true
	}

	host := strings.ToLower(u.Hostname())
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// BuildPostgresURL constructs a PostgreSQL connection URL.
// Format: postgres://user@host:port/dbname
func BuildPostgresURL(dbname, user, host string, port int) string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s", user, host, port, dbname)
}

// BuildMySQLURL constructs a MySQL connection URL (TCP, no socket).
// Format: mysql://user@host:port/dbname
func BuildMySQLURL(dbname, user, host string, port int) string {
	return fmt.Sprintf("mysql://%s@%s:%d/%s", user, host, port, dbname)
}

// BuildSQLiteURL constructs a SQLite connection URL.
// Format: sqlite:///path/to/file.db
func BuildSQLiteURL(filepath string) string {
	if strings.HasPrefix(filepath, "/") {
		return fmt.Sprintf("sqlite://%s", filepath)
	}
	return fmt.Sprintf("sqlite:%s", filepath)
}

// ParseDatabaseName extracts the database name from a URL.
// Returns an empty string if no database name is present.
func ParseDatabaseName(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// WithDatabaseName returns a new URL with the database name replaced.
func WithDatabaseName(dbURL, dbname string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	u.Path = "/" + dbname
	return u.String(), nil
}

// TestDatabaseURL returns the test database URL for a given dev URL.
// Convention: test database is named {dev_db}_test
// For SQLite: foo.db -> foo_test.db
func TestDatabaseURL(devURL string) (string, error) {
	devDBName := ParseDatabaseName(devURL)
	if devDBName == "" {
		return "", fmt.Errorf("could not parse database name from URL")
	}

	dialect, err := Infer(devURL)
	if err != nil {
		return "", err
	}

	var testDBName string
	if dialect == DialectSQLite {
		if strings.HasSuffix(devDBName, ".db") {
			testDBName = strings.TrimSuffix(devDBName, ".db") + "_test.db"
		} else {
			testDBName = devDBName + "_test"
		}
	} else {
		testDBName = devDBName + "_test"
	}

	return WithDatabaseName(devURL, testDBName)
}
