package exec

import (
	"context"

	"github.com/queryport/queryport/compile"
	"github.com/queryport/queryport/dberr"
	"github.com/queryport/queryport/query"
)

// validateRowSchemas checks that every row after the first has the same
// column count and column names as the first row, in order.
func validateRowSchemas(rows [][]query.SetClause) error {
	if len(rows) == 0 {
		return nil
	}
	first := rows[0]
	for ri, row := range rows[1:] {
		if len(row) != len(first) {
			return dberr.InvalidRequest(
				"row %d has %d columns, want %d", ri+1, len(row), len(first))
		}
		for i, set := range row {
			if set.Column != first[i].Column {
				return dberr.InvalidRequest(
					"row %d column %d is %q, want %q", ri+1, i, set.Column, first[i].Column)
			}
		}
	}
	return nil
}

// chunkRows splits rows into chunks whose bound-parameter counts stay
// below the dialect ceiling, leaving one parameter of headroom. A single
// row exceeding the ceiling still forms its own chunk; the driver rejects
// it with a transport error, which is the best available signal.
func chunkRows(rows [][]query.SetClause, dialect compile.Dialect) [][][]query.SetClause {
	ceiling := dialect.ParamLimit() - 1
	var (
		chunks  [][][]query.SetClause
		current [][]query.SetClause
		used    int
	)
	for _, row := range rows {
		n := query.RowParamCount(row)
		if len(current) > 0 && used+n > ceiling {
			chunks = append(chunks, current)
			current = nil
			used = 0
		}
		current = append(current, row)
		used += n
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// upsertMulti validates, chunks, and executes a multi-row upsert through
// the given single-chunk runner. Returned rows concatenate in chunk order,
// which equals input row order.
func upsertMulti(
	ctx context.Context,
	dialect compile.Dialect,
	stmt *query.UpsertMultiStatement,
	runChunk func(ctx context.Context, chunk *query.UpsertMultiStatement) ([]Row, error),
) ([]Row, error) {
	if len(stmt.Unique) == 0 {
		return nil, dberr.MissingUnique()
	}
	if len(stmt.Rows) == 0 {
		return nil, nil
	}
	if err := validateRowSchemas(stmt.Rows); err != nil {
		return nil, err
	}

	var out []Row
	for _, chunk := range chunkRows(stmt.Rows, dialect) {
		rows, err := runChunk(ctx, &query.UpsertMultiStatement{
			Table:  stmt.Table,
			Unique: stmt.Unique,
			Rows:   chunk,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// updateMulti validates, chunks, and executes a batched multi-row update.
// Each row updates the target selected by its unique-column values and
// assigns the remaining columns. An overall limit truncates the row list
// before chunking, so accumulation stops even mid-chunk.
func updateMulti(ctx context.Context, db Database, dialect compile.Dialect, stmt *query.UpdateMultiStatement) ([]Row, error) {
	if len(stmt.Unique) == 0 {
		return nil, dberr.InvalidRequest("update multi requires unique key columns")
	}
	if len(stmt.Rows) == 0 {
		return nil, nil
	}
	if err := validateRowSchemas(stmt.Rows); err != nil {
		return nil, err
	}

	rows := stmt.Rows
	if stmt.Limit != nil && *stmt.Limit < len(rows) {
		rows = rows[:*stmt.Limit]
	}

	var out []Row
	for _, chunk := range chunkRows(rows, dialect) {
		for _, row := range chunk {
			upd, err := rowUpdate(stmt.Table, stmt.Unique, row)
			if err != nil {
				return nil, err
			}
			updated, err := db.ExecUpdate(ctx, upd)
			if err != nil {
				return nil, err
			}
			out = append(out, updated...)
		}
	}
	return out, nil
}

// rowUpdate splits one row into key filters and assigned values.
func rowUpdate(table string, unique []string, row []query.SetClause) (*query.UpdateStatement, error) {
	key := make(map[string]bool, len(unique))
	for _, name := range unique {
		key[name] = true
	}
	upd := query.Update(table)
	seen := 0
	for _, set := range row {
		if key[set.Column] {
			upd.Where(query.BinaryExpr{
				Left:  query.IdentExpr{Name: set.Column},
				Op:    query.OpEq,
				Right: set.Value,
			})
			seen++
		} else {
			upd.Values = append(upd.Values, set)
		}
	}
	if seen != len(unique) {
		return nil, dberr.InvalidRequest(
			"update multi row is missing a unique key column")
	}
	if len(upd.Values) == 0 {
		return nil, dberr.InvalidRequest("update multi row assigns no columns")
	}
	return upd, nil
}
