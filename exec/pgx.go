package exec

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queryport/queryport/compile"
	"github.com/queryport/queryport/dberr"
	"github.com/queryport/queryport/logging"
	"github.com/queryport/queryport/query"
)

// PgxDatabase executes statements against Postgres through a pgx pool.
// The pool handles connection concurrency; no serialization is needed.
type PgxDatabase struct {
	pool     *pgxpool.Pool
	compiler *compile.Compiler
	log      *slog.Logger
}

var _ Database = (*PgxDatabase)(nil)

// NewPgxDatabase wraps an open pgx pool.
func NewPgxDatabase(pool *pgxpool.Pool, log *slog.Logger) *PgxDatabase {
	if log == nil {
		log = logging.Nop()
	}
	return &PgxDatabase{
		pool:     pool,
		compiler: compile.NewCompiler(compile.Postgres),
		log:      log,
	}
}

// OpenPgx connects a pool and pings it.
func OpenPgx(ctx context.Context, dsn string, log *slog.Logger) (*PgxDatabase, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, dberr.Transport(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, dberr.Transport(err)
	}
	return NewPgxDatabase(pool, log), nil
}

// Close releases the pool.
func (d *PgxDatabase) Close() error {
	d.pool.Close()
	return nil
}

// queryRows runs compiled SQL and decodes every returned row. pgx has
// already decoded values into native Go types, so classification is
// dynamic rather than declared-type driven.
func (d *PgxDatabase) queryRows(ctx context.Context, sqlText string, args []any) ([]Row, error) {
	defer logStatement(ctx, d.log, "postgres", sqlText, args)()
	rows, err := d.pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, dberr.Transport(err)
	}
	defer rows.Close()

	var out []Row
	fields := rows.FieldDescriptions()
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, dberr.Transport(err)
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			v, err := dynamicValue(vals[i])
			if err != nil {
				return nil, err
			}
			row[i] = Field{Name: fd.Name, Value: v}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Transport(err)
	}
	return out, nil
}

// Query runs a SELECT and returns all rows.
func (d *PgxDatabase) Query(ctx context.Context, stmt *query.SelectStatement) ([]Row, error) {
	sqlText, args, err := d.compiler.CompileSelect(stmt)
	if err != nil {
		return nil, err
	}
	return d.queryRows(ctx, sqlText, args)
}

// QueryFirst runs a SELECT capped at one row.
func (d *PgxDatabase) QueryFirst(ctx context.Context, stmt *query.SelectStatement) (*Row, error) {
	one := 1
	limited := *stmt
	limited.Limit = &one
	rows, err := d.Query(ctx, &limited)
	if err != nil {
		return nil, err
	}
	return firstRow(rows), nil
}

// ExecInsert inserts one row and returns its post-image via RETURNING.
func (d *PgxDatabase) ExecInsert(ctx context.Context, stmt *query.InsertStatement) (Row, error) {
	sqlText, args, err := d.compiler.CompileInsert(stmt)
	if err != nil {
		return nil, err
	}
	rows, err := d.queryRows(ctx, sqlText, args)
	if err != nil {
		return nil, err
	}
	return requireRow(rows, "insert")
}

// ExecUpdate updates matching rows and returns their post-images.
func (d *PgxDatabase) ExecUpdate(ctx context.Context, stmt *query.UpdateStatement) ([]Row, error) {
	sqlText, args, err := d.compiler.CompileUpdate(stmt)
	if err != nil {
		return nil, err
	}
	return d.queryRows(ctx, sqlText, args)
}

// ExecUpdateFirst updates at most one row.
func (d *PgxDatabase) ExecUpdateFirst(ctx context.Context, stmt *query.UpdateStatement) (*Row, error) {
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
func (d *PgxDatabase) ExecDelete(ctx context.Context, stmt *query.DeleteStatement) ([]Row, error) {
	sqlText, args, err := d.compiler.CompileDelete(stmt)
	if err != nil {
		return nil, err
	}
	return d.queryRows(ctx, sqlText, args)
}

// ExecUpsert runs the update-then-insert upsert.
func (d *PgxDatabase) ExecUpsert(ctx context.Context, stmt *query.UpsertStatement) ([]Row, error) {
	return upsert(ctx, d, stmt)
}

// ExecUpsertFirst upserts a single row.
func (d *PgxDatabase) ExecUpsertFirst(ctx context.Context, stmt *query.UpsertStatement) (Row, error) {
	return upsertFirst(ctx, d, d.log, stmt)
}

// ExecUpsertMulti runs an atomic multi-row upsert, chunked under the
// dialect parameter ceiling.
func (d *PgxDatabase) ExecUpsertMulti(ctx context.Context, stmt *query.UpsertMultiStatement) ([]Row, error) {
	return upsertMulti(ctx, compile.Postgres, stmt, func(ctx context.Context, chunk *query.UpsertMultiStatement) ([]Row, error) {
		sqlText, args, err := d.compiler.CompileUpsertMulti(chunk)
		if err != nil {
			return nil, err
		}
		return d.queryRows(ctx, sqlText, args)
	})
}

// ExecUpdateMulti runs the batched multi-row update.
func (d *PgxDatabase) ExecUpdateMulti(ctx context.Context, stmt *query.UpdateMultiStatement) ([]Row, error) {
	return updateMulti(ctx, d, compile.Postgres, stmt)
}
