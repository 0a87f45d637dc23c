package query

// Statements are short-lived builder values constructed per call. They are
// not safe for concurrent mutation and are not meant to outlive the
// execute/query call they are passed to.

// SelectStatement describes a SELECT.
type SelectStatement struct {
	Table    string
	Distinct bool
	Columns  []string
	Joins    []Join
	Filters  []Expr
	Sorts    []Sort
	Limit    *int
}

// Select starts a SELECT statement against the given table.
func Select(table string) *SelectStatement {
	return &SelectStatement{Table: table}
}

// WithDistinct sets the DISTINCT flag.
func (s *SelectStatement) WithDistinct() *SelectStatement {
	s.Distinct = true
	return s
}

// WithColumns sets the projected column list. An empty list projects *.
func (s *SelectStatement) WithColumns(columns ...string) *SelectStatement {
	s.Columns = columns
	return s
}

// Where appends filter conditions, combined with AND.
func (s *SelectStatement) Where(filters ...Expr) *SelectStatement {
	s.Filters = append(s.Filters, filters...)
	return s
}

// Join appends an INNER JOIN.
func (s *SelectStatement) Join(table, on string) *SelectStatement {
	s.Joins = append(s.Joins, Join{Table: table, On: on})
	return s
}

// LeftJoin appends a LEFT JOIN.
func (s *SelectStatement) LeftJoin(table, on string) *SelectStatement {
	s.Joins = append(s.Joins, Join{Table: table, On: on, Left: true})
	return s
}

// OrderBy appends sort terms.
func (s *SelectStatement) OrderBy(sorts ...Sort) *SelectStatement {
	s.Sorts = append(s.Sorts, sorts...)
	return s
}

// WithLimit caps the number of returned rows.
func (s *SelectStatement) WithLimit(n int) *SelectStatement {
	s.Limit = &n
	return s
}

// InsertStatement describes a single-row INSERT.
type InsertStatement struct {
	Table  string
	Values []SetClause
}

// Insert starts an INSERT statement against the given table.
func Insert(table string) *InsertStatement {
	return &InsertStatement{Table: table}
}

// Value appends one column assignment.
func (s *InsertStatement) Value(column string, v any) *InsertStatement {
	s.Values = append(s.Values, Set(column, v))
	return s
}

// WithValues replaces the column assignment list.
func (s *InsertStatement) WithValues(values ...SetClause) *InsertStatement {
	s.Values = values
	return s
}

// UpdateStatement describes an UPDATE, optionally limited to n rows.
type UpdateStatement struct {
	Table   string
	Values  []SetClause
	Filters []Expr
	Limit   *int
}

// Update starts an UPDATE statement against the given table.
func Update(table string) *UpdateStatement {
	return &UpdateStatement{Table: table}
}

// Value appends one column assignment.
func (s *UpdateStatement) Value(column string, v any) *UpdateStatement {
	s.Values = append(s.Values, Set(column, v))
	return s
}

// WithValues replaces the column assignment list.
func (s *UpdateStatement) WithValues(values ...SetClause) *UpdateStatement {
	s.Values = values
	return s
}

// Where appends filter conditions, combined with AND.
func (s *UpdateStatement) Where(filters ...Expr) *UpdateStatement {
	s.Filters = append(s.Filters, filters...)
	return s
}

// WithLimit caps the number of updated rows. Dialects without
// UPDATE ... LIMIT emulate it with a row-id subquery.
func (s *UpdateStatement) WithLimit(n int) *UpdateStatement {
	s.Limit = &n
	return s
}

// DeleteStatement describes a DELETE, optionally limited to n rows.
type DeleteStatement struct {
	Table   string
	Filters []Expr
	Limit   *int
}

// Delete starts a DELETE statement against the given table.
func Delete(table string) *DeleteStatement {
	return &DeleteStatement{Table: table}
}

// Where appends filter conditions, combined with AND.
func (s *DeleteStatement) Where(filters ...Expr) *DeleteStatement {
	s.Filters = append(s.Filters, filters...)
	return s
}

// WithLimit caps the number of deleted rows.
func (s *DeleteStatement) WithLimit(n int) *DeleteStatement {
	s.Limit = &n
	return s
}

// UpsertStatement describes an update-then-insert upsert: run the update,
// and if it touches zero rows, insert the value list instead. The two
// round trips are not atomic; callers with concurrent writers should use
// UpsertMulti, which compiles to a single ON CONFLICT statement.
type UpsertStatement struct {
	Table   string
	Values  []SetClause
	Filters []Expr
	Limit   *int
}

// Upsert starts an upsert statement against the given table.
func Upsert(table string) *UpsertStatement {
	return &UpsertStatement{Table: table}
}

// Value appends one column assignment.
func (s *UpsertStatement) Value(column string, v any) *UpsertStatement {
	s.Values = append(s.Values, Set(column, v))
	return s
}

// WithValues replaces the column assignment list.
func (s *UpsertStatement) WithValues(values ...SetClause) *UpsertStatement {
	s.Values = values
	return s
}

// Where appends filter conditions identifying the row to update.
func (s *UpsertStatement) Where(filters ...Expr) *UpsertStatement {
	s.Filters = append(s.Filters, filters...)
	return s
}

// WithLimit caps the number of rows touched by the update half.
func (s *UpsertStatement) WithLimit(n int) *UpsertStatement {
	s.Limit = &n
	return s
}

// AsUpdate returns the update half of the upsert.
func (s *UpsertStatement) AsUpdate() *UpdateStatement {
	return &UpdateStatement{
		Table:   s.Table,
		Values:  s.Values,
		Filters: s.Filters,
		Limit:   s.Limit,
	}
}

// AsInsert returns the insert half of the upsert.
func (s *UpsertStatement) AsInsert() *InsertStatement {
	return &InsertStatement{Table: s.Table, Values: s.Values}
}

// UpsertMultiStatement describes an atomic multi-row upsert compiled to
// INSERT ... ON CONFLICT(unique) DO UPDATE per chunk. Every row must share
// the schema of the first row, in column order. Unique names the conflict
// target and is required.
type UpsertMultiStatement struct {
	Table  string
	Unique []string
	Rows   [][]SetClause
}

// UpsertMulti starts a multi-row upsert statement against the given table.
func UpsertMulti(table string) *UpsertMultiStatement {
	return &UpsertMultiStatement{Table: table}
}

// WithUnique names the conflict target columns.
func (s *UpsertMultiStatement) WithUnique(columns ...string) *UpsertMultiStatement {
	s.Unique = columns
	return s
}

// Row appends one row of column assignments.
func (s *UpsertMultiStatement) Row(values ...SetClause) *UpsertMultiStatement {
	s.Rows = append(s.Rows, values)
	return s
}

// UpdateMultiStatement describes a batched multi-row update. Each row is
// applied as an update keyed by the Unique columns: those columns select
// the target row, the remaining columns are assigned. Rows are chunked
// under the dialect parameter ceiling; Limit caps the total number of rows
// updated across all chunks.
type UpdateMultiStatement struct {
	Table  string
	Unique []string
	Rows   [][]SetClause
	Limit  *int
}

// UpdateMulti starts a multi-row update statement against the given table.
func UpdateMulti(table string) *UpdateMultiStatement {
	return &UpdateMultiStatement{Table: table}
}

// WithUnique names the key columns identifying each row's target.
func (s *UpdateMultiStatement) WithUnique(columns ...string) *UpdateMultiStatement {
	s.Unique = columns
	return s
}

// Row appends one row of column assignments.
func (s *UpdateMultiStatement) Row(values ...SetClause) *UpdateMultiStatement {
	s.Rows = append(s.Rows, values)
	return s
}

// WithLimit caps the total number of rows updated.
func (s *UpdateMultiStatement) WithLimit(n int) *UpdateMultiStatement {
	s.Limit = &n
	return s
}
