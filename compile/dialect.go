// Package compile lowers query statements into parameterized SQL text for
// the supported dialects. One Compiler wraps one Dialect; the Dialect
// carries only the syntax splits (placeholder style, identifier quoting,
// null-coalescing, timestamp functions, row-id column, parameter ceiling)
// while the clause walking lives in the Compiler and is written once.
package compile

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect is the per-target syntax contract consumed by the Compiler.
type Dialect interface {
	// Name returns the dialect identifier ("postgres", "mysql", "sqlite").
	Name() string
	// QuoteIdent quotes a simple identifier. Names containing characters
	// outside [A-Za-z0-9_] pass through unquoted; they are assumed
	// pre-quoted by the caller.
	QuoteIdent(name string) string
	// Placeholder returns the parameter marker for the n-th parameter,
	// 1-based.
	Placeholder(n int) string
	// Coalesce renders first-non-null over the pre-rendered arguments.
	Coalesce(args []string) string
	// Now renders the current-timestamp function call.
	Now() string
	// NowAdd renders current timestamp plus the raw interval text.
	NowAdd(interval string) string
	// RowID returns the row-identifier column used for LIMIT emulation on
	// UPDATE/DELETE.
	RowID() string
	// WrapLimitSubquery wraps the row-id subquery where the dialect cannot
	// reference the write target directly inside it.
	WrapLimitSubquery(inner string) string
	// UpsertClause renders the conflict clause of a multi-row upsert over
	// the unique (conflict target) and updated column names.
	UpsertClause(unique, update []string) string
	// ParamLimit returns the maximum number of bound parameters a single
	// statement may carry.
	ParamLimit() int
	// SupportsReturning reports whether writes can append RETURNING *.
	SupportsReturning() bool
}

// Exported dialect instances, one per supported target.
var (
	Postgres Dialect = postgresDialect{}
	MySQL    Dialect = mysqlDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// simpleIdentRe matches identifiers eligible for automatic quoting.
// Anything else (dots, spaces, embedded quotes) passes through verbatim.
var simpleIdentRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func quoteWith(name, q string) string {
	if !simpleIdentRe.MatchString(name) {
		return name
	}
	return q + name + q
}

type postgresDialect struct{}

func (postgresDialect) Name() string                 { return "postgres" }
func (postgresDialect) QuoteIdent(name string) string { return quoteWith(name, `"`) }
func (postgresDialect) Placeholder(n int) string     { return fmt.Sprintf("$%d", n) }
func (postgresDialect) Coalesce(args []string) string {
	return "COALESCE(" + strings.Join(args, ", ") + ")"
}
func (postgresDialect) Now() string { return "NOW()" }
func (postgresDialect) NowAdd(interval string) string {
	return fmt.Sprintf("NOW() + INTERVAL '%s'", interval)
}
func (postgresDialect) RowID() string                       { return "CTID" }
func (postgresDialect) WrapLimitSubquery(inner string) string { return inner }
func (postgresDialect) UpsertClause(unique, update []string) string {
	return onConflictClause(postgresDialect{}, unique, update)
}
func (postgresDialect) ParamLimit() int         { return 65535 }
func (postgresDialect) SupportsReturning() bool { return true }

type mysqlDialect struct{}

func (mysqlDialect) Name() string                  { return "mysql" }
func (mysqlDialect) QuoteIdent(name string) string { return quoteWith(name, "`") }
func (mysqlDialect) Placeholder(int) string        { return "?" }
func (mysqlDialect) Coalesce(args []string) string {
	return "COALESCE(" + strings.Join(args, ", ") + ")"
}
func (mysqlDialect) Now() string { return "NOW()" }
func (mysqlDialect) NowAdd(interval string) string {
	return fmt.Sprintf("DATE_ADD(NOW(), INTERVAL %s)", interval)
}
func (mysqlDialect) RowID() string { return "id" }

// MySQL rejects subqueries that select from the table being written
// (ER_UPDATE_TABLE_USED); a derived table breaks the reference.
func (mysqlDialect) WrapLimitSubquery(inner string) string {
	return "SELECT * FROM (" + inner + ") AS limited"
}
func (d mysqlDialect) UpsertClause(unique, update []string) string {
	if len(update) == 0 {
		// Nothing to update on conflict; assign a key column to itself so
		// the statement stays valid.
		col := d.QuoteIdent(unique[0])
		return fmt.Sprintf("ON DUPLICATE KEY UPDATE %s=%s", col, col)
	}
	sets := make([]string, len(update))
	for i, name := range update {
		col := d.QuoteIdent(name)
		sets[i] = fmt.Sprintf("%s=VALUES(%s)", col, col)
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}
func (mysqlDialect) ParamLimit() int         { return 65535 }
func (mysqlDialect) SupportsReturning() bool { return false }

type sqliteDialect struct{}

func (sqliteDialect) Name() string                  { return "sqlite" }
func (sqliteDialect) QuoteIdent(name string) string { return quoteWith(name, `"`) }
func (sqliteDialect) Placeholder(int) string        { return "?" }

// Pairwise IFNULL reduction; the binary form is the only null-coalescing
// shape shared across every supported SQLite build.
func (d sqliteDialect) Coalesce(args []string) string {
	switch len(args) {
	case 0:
		return "NULL"
	case 1:
		return args[0]
	}
	return fmt.Sprintf("IFNULL(%s, %s)", args[0], d.Coalesce(args[1:]))
}
func (sqliteDialect) Now() string {
	return "strftime('%Y-%m-%dT%H:%M:%f', 'now')"
}
func (sqliteDialect) NowAdd(interval string) string {
	return fmt.Sprintf("strftime('%%Y-%%m-%%dT%%H:%%M:%%f', 'now', '%s')", interval)
}
func (sqliteDialect) RowID() string                         { return "rowid" }
func (sqliteDialect) WrapLimitSubquery(inner string) string { return inner }
func (sqliteDialect) UpsertClause(unique, update []string) string {
	return onConflictClause(sqliteDialect{}, unique, update)
}
func (sqliteDialect) ParamLimit() int         { return 32766 }
func (sqliteDialect) SupportsReturning() bool { return true }

// onConflictClause renders the standard ON CONFLICT clause shared by
// Postgres and SQLite.
func onConflictClause(d Dialect, unique, update []string) string {
	target := make([]string, len(unique))
	for i, name := range unique {
		target[i] = d.QuoteIdent(name)
	}
	if len(update) == 0 {
		return fmt.Sprintf("ON CONFLICT(%s) DO NOTHING", strings.Join(target, ", "))
	}
	sets := make([]string, len(update))
	for i, name := range update {
		col := d.QuoteIdent(name)
		sets[i] = fmt.Sprintf("%s=EXCLUDED.%s", col, col)
	}
	return fmt.Sprintf("ON CONFLICT(%s) DO UPDATE SET %s",
		strings.Join(target, ", "), strings.Join(sets, ", "))
}
