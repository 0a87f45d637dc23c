package exec

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/queryport/queryport/compile"
	"github.com/queryport/queryport/dberr"
	"github.com/queryport/queryport/logging"
	"github.com/queryport/queryport/query"
	"github.com/queryport/queryport/value"
)

// SQLDatabase executes statements through a database/sql handle. It serves
// the MySQL and SQLite backends; Postgres goes through PgxDatabase.
//
// SQLite handles are serialized behind a mutex because the driver rejects
// concurrent writers on one connection. MySQL runs unserialized and relies
// on the pool.
type SQLDatabase struct {
	db       *sql.DB
	compiler *compile.Compiler
	log      *slog.Logger

	mu        sync.Mutex
	serialize bool
}

var _ Database = (*SQLDatabase)(nil)

// NewSQLDatabase wraps an open database/sql handle for the given dialect.
func NewSQLDatabase(db *sql.DB, dialect compile.Dialect, log *slog.Logger) *SQLDatabase {
	if log == nil {
		log = logging.Nop()
	}
	return &SQLDatabase{
		db:        db,
		compiler:  compile.NewCompiler(dialect),
		log:       log,
		serialize: dialect.Name() == "sqlite",
	}
}

func (d *SQLDatabase) lock() func() {
	if !d.serialize {
		return func() {}
	}
	d.mu.Lock()
	return d.mu.Unlock
}

// Close releases the underlying pool.
func (d *SQLDatabase) Close() error { return d.db.Close() }

// queryRows runs compiled SQL and decodes the full result set.
func (d *SQLDatabase) queryRows(ctx context.Context, sqlText string, args []any) ([]Row, error) {
	defer logStatement(ctx, d.log, d.compiler.Dialect().Name(), sqlText, args)()
	rows, err := d.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, dberr.Transport(err)
	}
	return scanRows(rows)
}

// execOnly runs compiled SQL without a result set.
func (d *SQLDatabase) execOnly(ctx context.Context, sqlText string, args []any) (sql.Result, error) {
	defer logStatement(ctx, d.log, d.compiler.Dialect().Name(), sqlText, args)()
	res, err := d.db.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return nil, dberr.Transport(err)
	}
	return res, nil
}

// Query runs a SELECT and returns all rows.
func (d *SQLDatabase) Query(ctx context.Context, stmt *query.SelectStatement) ([]Row, error) {
	defer d.lock()()
	sqlText, args, err := d.compiler.CompileSelect(stmt)
	if err != nil {
		return nil, err
	}
	return d.queryRows(ctx, sqlText, args)
}

// QueryFirst runs a SELECT capped at one row.
func (d *SQLDatabase) QueryFirst(ctx context.Context, stmt *query.SelectStatement) (*Row, error) {
	one := 1
	limited := *stmt
	limited.Limit = &one
	rows, err := d.Query(ctx, &limited)
	if err != nil {
		return nil, err
	}
	return firstRow(rows), nil
}

// ExecInsert inserts one row and returns its post-image.
func (d *SQLDatabase) ExecInsert(ctx context.Context, stmt *query.InsertStatement) (Row, error) {
	defer d.lock()()
	sqlText, args, err := d.compiler.CompileInsert(stmt)
	if err != nil {
		return nil, err
	}
	if d.compiler.Dialect().SupportsReturning() {
		rows, err := d.queryRows(ctx, sqlText, args)
		if err != nil {
			return nil, err
		}
		return requireRow(rows, "insert")
	}

	res, err := d.execOnly(ctx, sqlText, args)
	if err != nil {
		return nil, err
	}
	sel, err := insertedRowSelect(stmt, res)
	if err != nil {
		return nil, err
	}
	selSQL, selArgs, err := d.compiler.CompileSelect(sel)
	if err != nil {
		return nil, err
	}
	rows, err := d.queryRows(ctx, selSQL, selArgs)
	if err != nil {
		return nil, err
	}
	return requireRow(rows, "insert re-select")
}

// insertedRowSelect builds the re-select locating a freshly inserted row on
// a backend without RETURNING. An auto-generated key wins; without one the
// inserted values themselves identify the row.
func insertedRowSelect(stmt *query.InsertStatement, res sql.Result) (*query.SelectStatement, error) {
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		return query.Select(stmt.Table).Where(query.Eq("id", id)).WithLimit(1), nil
	}
	sel := query.Select(stmt.Table).WithLimit(1)
	for _, set := range stmt.Values {
		v, ok := set.Value.(query.ValueExpr)
		if !ok || !v.Value.IsParam() {
			// Server-evaluated values cannot be matched back.
			continue
		}
		sel.Where(query.BinaryExpr{
			Left:  query.IdentExpr{Name: set.Column},
			Op:    query.OpEq,
			Right: set.Value,
		})
	}
	if len(sel.Filters) == 0 {
		return nil, dberr.InvalidRequest(
			"insert into %s has no re-selectable values", stmt.Table)
	}
	return sel, nil
}

// ExecUpdate updates matching rows and returns their post-images.
func (d *SQLDatabase) ExecUpdate(ctx context.Context, stmt *query.UpdateStatement) ([]Row, error) {
	defer d.lock()()
	if d.compiler.Dialect().SupportsReturning() {
		sqlText, args, err := d.compiler.CompileUpdate(stmt)
		if err != nil {
			return nil, err
		}
		return d.queryRows(ctx, sqlText, args)
	}

	ids, err := d.matchingIDs(ctx, stmt.Table, stmt.Filters, stmt.Limit)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	keyed := query.Update(stmt.Table).
		WithValues(stmt.Values...).
		Where(query.In("id", ids...))
	sqlText, args, err := d.compiler.CompileUpdate(keyed)
	if err != nil {
		return nil, err
	}
	if _, err := d.execOnly(ctx, sqlText, args); err != nil {
		return nil, err
	}
	return d.rowsByID(ctx, stmt.Table, ids)
}

// ExecUpdateFirst updates at most one row.
func (d *SQLDatabase) ExecUpdateFirst(ctx context.Context, stmt *query.UpdateStatement) (*Row, error) {
	one := 1
	limited := *stmt
	limited.Limit = &one
	rows, err := d.ExecUpdate(ctx, &limited)
	if err != nil {
		return nil, err
	}
	return firstRow(rows), nil
}

// ExecDelete deletes matching rows and returns their pre-images.
func (d *SQLDatabase) ExecDelete(ctx context.Context, stmt *query.DeleteStatement) ([]Row, error) {
	defer d.lock()()
	if d.compiler.Dialect().SupportsReturning() {
		sqlText, args, err := d.compiler.CompileDelete(stmt)
		if err != nil {
			return nil, err
		}
		return d.queryRows(ctx, sqlText, args)
	}

	ids, err := d.matchingIDs(ctx, stmt.Table, stmt.Filters, stmt.Limit)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	pre, err := d.rowsByID(ctx, stmt.Table, ids)
	if err != nil {
		return nil, err
	}
	keyed := query.Delete(stmt.Table).Where(query.In("id", ids...))
	sqlText, args, err := d.compiler.CompileDelete(keyed)
	if err != nil {
		return nil, err
	}
	if _, err := d.execOnly(ctx, sqlText, args); err != nil {
		return nil, err
	}
	return pre, nil
}

// matchingIDs resolves the key column values of the rows a write would
// touch, honoring the statement limit.
func (d *SQLDatabase) matchingIDs(ctx context.Context, table string, filters []query.Expr, limit *int) ([]any, error) {
	sel := query.Select(table).WithColumns("id").Where(filters...)
	sel.Limit = limit
	sqlText, args, err := d.compiler.CompileSelect(sel)
	if err != nil {
		return nil, err
	}
	rows, err := d.queryRows(ctx, sqlText, args)
	if err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(rows))
	for _, row := range rows {
		v, ok := row.Get("id")
		if !ok {
			return nil, dberr.InvalidRequest("table %s has no id column", table)
		}
		arg, _ := v.Arg()
		ids = append(ids, arg)
	}
	return ids, nil
}

// rowsByID loads full rows for the given key values.
func (d *SQLDatabase) rowsByID(ctx context.Context, table string, ids []any) ([]Row, error) {
	sel := query.Select(table).Where(query.In("id", ids...))
	sqlText, args, err := d.compiler.CompileSelect(sel)
	if err != nil {
		return nil, err
	}
	return d.queryRows(ctx, sqlText, args)
}

// ExecUpsert runs the update-then-insert upsert.
func (d *SQLDatabase) ExecUpsert(ctx context.Context, stmt *query.UpsertStatement) ([]Row, error) {
	return upsert(ctx, d, stmt)
}

// ExecUpsertFirst upserts a single row.
func (d *SQLDatabase) ExecUpsertFirst(ctx context.Context, stmt *query.UpsertStatement) (Row, error) {
	return upsertFirst(ctx, d, d.log, stmt)
}

// ExecUpsertMulti runs an atomic multi-row upsert, chunked under the
// dialect parameter ceiling.
func (d *SQLDatabase) ExecUpsertMulti(ctx context.Context, stmt *query.UpsertMultiStatement) ([]Row, error) {
	return upsertMulti(ctx, d.compiler.Dialect(), stmt, d.upsertChunk)
}

func (d *SQLDatabase) upsertChunk(ctx context.Context, chunk *query.UpsertMultiStatement) ([]Row, error) {
	defer d.lock()()
	sqlText, args, err := d.compiler.CompileUpsertMulti(chunk)
	if err != nil {
		return nil, err
	}
	if d.compiler.Dialect().SupportsReturning() {
		return d.queryRows(ctx, sqlText, args)
	}
	if _, err := d.execOnly(ctx, sqlText, args); err != nil {
		return nil, err
	}
	return d.selectBack(ctx, chunk)
}

// selectBack reloads upserted rows by their unique key values and reorders
// them to match the input rows. Requires plain bound key values.
func (d *SQLDatabase) selectBack(ctx context.Context, chunk *query.UpsertMultiStatement) ([]Row, error) {
	keys := make([][]value.Value, len(chunk.Rows))
	match := make([]query.Expr, len(chunk.Rows))
	for ri, row := range chunk.Rows {
		conds := make([]query.Expr, 0, len(chunk.Unique))
		keys[ri] = make([]value.Value, 0, len(chunk.Unique))
		for _, name := range chunk.Unique {
			v, ok := rowKeyValue(row, name)
			if !ok {
				return nil, dberr.InvalidRequest(
					"upsert key column %s must be a plain value", name)
			}
			keys[ri] = append(keys[ri], v)
			conds = append(conds, query.Eq(name, v))
		}
		match[ri] = query.And(conds...)
	}

	sel := query.Select(chunk.Table).Where(query.Or(match...))
	sqlText, args, err := d.compiler.CompileSelect(sel)
	if err != nil {
		return nil, err
	}
	loaded, err := d.queryRows(ctx, sqlText, args)
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(chunk.Rows))
	for ri := range chunk.Rows {
		found := false
		for _, row := range loaded {
			if rowMatchesKey(row, chunk.Unique, keys[ri]) {
				out = append(out, row)
				found = true
				break
			}
		}
		if !found {
			return nil, dberr.NoRow("upsert re-select")
		}
	}
	return out, nil
}

// ExecUpdateMulti runs the batched multi-row update.
func (d *SQLDatabase) ExecUpdateMulti(ctx context.Context, stmt *query.UpdateMultiStatement) ([]Row, error) {
	return updateMulti(ctx, d, d.compiler.Dialect(), stmt)
}

// rowKeyValue extracts the plain bound value a row assigns to a column.
func rowKeyValue(row []query.SetClause, column string) (value.Value, bool) {
	for _, set := range row {
		if set.Column != column {
			continue
		}
		v, ok := set.Value.(query.ValueExpr)
		if !ok || !v.Value.IsParam() {
			return value.Value{}, false
		}
		return v.Value, true
	}
	return value.Value{}, false
}

// rowMatchesKey reports whether a decoded row carries the given key values.
// Numeric kinds compare across signedness because drivers widen unsigned
// keys into int64 on decode.
func rowMatchesKey(row Row, unique []string, key []value.Value) bool {
	for i, name := range unique {
		got, ok := row.Get(name)
		if !ok || !keyEqual(got, key[i]) {
			return false
		}
	}
	return true
}

func keyEqual(a, b value.Value) bool {
	if a.Equal(b) {
		return true
	}
	if an, ok := a.Int64(); ok {
		if bu, ok := b.Uint64(); ok {
			return an >= 0 && uint64(an) == bu
		}
	}
	if au, ok := a.Uint64(); ok {
		if bn, ok := b.Int64(); ok {
			return bn >= 0 && au == uint64(bn)
		}
	}
	return false
}
