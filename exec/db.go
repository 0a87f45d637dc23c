// Package exec runs compiled statements against native database backends
// and normalizes result rows into the generic value model.
//
// Two adapters implement the Database interface: a pgx-based Postgres
// adapter (natively concurrent across pooled connections) and a
// database/sql adapter serving MySQL and SQLite. Both share the upsert,
// chunking, and limit-emulation plumbing in this package; only binding,
// streaming, and row decoding are backend-specific.
package exec

import (
	"context"
	"log/slog"

	"github.com/queryport/queryport/dberr"
	"github.com/queryport/queryport/logging"
	"github.com/queryport/queryport/query"
	"github.com/queryport/queryport/value"
)

// Field is one named value in a result row.
type Field struct {
	Name  string
	Value value.Value
}

// Row is a decoded result record. Field order matches the order the
// backend's prepared statement reports columns in, which is not
// necessarily the order of the original projection list.
type Row []Field

// Get returns the value of the named column and whether it is present.
func (r Row) Get(name string) (value.Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return value.Value{}, false
}

// Columns returns the column names in row order.
func (r Row) Columns() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Equal reports whether two rows have the same columns and equal values,
// in order.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i].Name != o[i].Name || !r[i].Value.Equal(o[i].Value) {
			return false
		}
	}
	return true
}

// Database is the uniform statement-execution surface implemented by every
// backend adapter. All operations are single statements; transaction and
// session management belong to the caller. Errors are returned typed (see
// dberr) and never retried internally.
type Database interface {
	// Query runs a SELECT and returns all rows.
	Query(ctx context.Context, stmt *query.SelectStatement) ([]Row, error)
	// QueryFirst runs a SELECT capped at one row and returns it, or nil
	// when nothing matched.
	QueryFirst(ctx context.Context, stmt *query.SelectStatement) (*Row, error)
	// ExecInsert inserts one row and returns its post-image.
	ExecInsert(ctx context.Context, stmt *query.InsertStatement) (Row, error)
	// ExecUpdate updates matching rows and returns their post-images.
	ExecUpdate(ctx context.Context, stmt *query.UpdateStatement) ([]Row, error)
	// ExecUpdateFirst updates at most one row and returns its post-image,
	// or nil when nothing matched.
	ExecUpdateFirst(ctx context.Context, stmt *query.UpdateStatement) (*Row, error)
	// ExecDelete deletes matching rows and returns their pre-images.
	ExecDelete(ctx context.Context, stmt *query.DeleteStatement) ([]Row, error)
	// ExecUpsert updates matching rows, inserting the value list when the
	// update touches nothing. The two round trips are not atomic.
	ExecUpsert(ctx context.Context, stmt *query.UpsertStatement) ([]Row, error)
	// ExecUpsertFirst upserts a single row and returns it.
	ExecUpsertFirst(ctx context.Context, stmt *query.UpsertStatement) (Row, error)
	// ExecUpsertMulti runs an atomic multi-row upsert, chunked under the
	// dialect parameter ceiling. Row order is preserved in the result.
	ExecUpsertMulti(ctx context.Context, stmt *query.UpsertMultiStatement) ([]Row, error)
	// ExecUpdateMulti runs a batched multi-row update keyed by the
	// statement's unique columns, chunked like ExecUpsertMulti.
	ExecUpdateMulti(ctx context.Context, stmt *query.UpdateMultiStatement) ([]Row, error)
	// Close releases the underlying pool.
	Close() error
}

// upsert implements update-then-insert over any Database. The update half
// runs first; a zero-row result falls back to inserting the value list.
func upsert(ctx context.Context, db Database, stmt *query.UpsertStatement) ([]Row, error) {
	rows, err := db.ExecUpdate(ctx, stmt.AsUpdate())
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}
	inserted, err := db.ExecInsert(ctx, stmt.AsInsert())
	if err != nil {
		return nil, err
	}
	return []Row{inserted}, nil
}

// upsertFirst upserts one row, logging at debug level whether an existing
// row actually changed. The pre/post comparison is diagnostic only.
func upsertFirst(ctx context.Context, db Database, log *slog.Logger, stmt *query.UpsertStatement) (Row, error) {
	var pre *Row
	if log.Enabled(ctx, slog.LevelDebug) {
		sel := query.Select(stmt.Table).Where(stmt.Filters...)
		found, err := db.QueryFirst(ctx, sel)
		if err == nil {
			pre = found
		}
	}

	one := 1
	limited := *stmt
	limited.Limit = &one
	updated, err := db.ExecUpdateFirst(ctx, limited.AsUpdate())
	if err != nil {
		return nil, err
	}
	if updated != nil {
		if pre != nil {
			log.DebugContext(ctx, "upsert updated row",
				"table", stmt.Table, "changed", !pre.Equal(*updated))
		}
		return *updated, nil
	}
	inserted, err := db.ExecInsert(ctx, stmt.AsInsert())
	if err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "upsert inserted row", "table", stmt.Table)
	return inserted, nil
}

// logStatement records a compiled statement at debug level and returns
// the completion callback logging the elapsed time. Diagnostic only; not
// part of the error contract.
func logStatement(ctx context.Context, log *slog.Logger, dialect, sql string, args []any) func() {
	log.DebugContext(ctx, "executing statement",
		"dialect", dialect, "sql", sql, "params", len(args))
	return logging.Timed(ctx, log, "statement completed", "dialect", dialect)
}

// firstRow narrows a row slice to its first element.
func firstRow(rows []Row) *Row {
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

// requireRow converts an empty result into a NoRow error.
func requireRow(rows []Row, context string) (Row, error) {
	if len(rows) == 0 {
		return nil, dberr.NoRow(context)
	}
	return rows[0], nil
}
