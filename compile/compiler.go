package compile

import (
	"fmt"
	"strings"

	"github.com/queryport/queryport/dberr"
	"github.com/queryport/queryport/query"
	"github.com/queryport/queryport/value"
)

// Compiler lowers statements into (sql, args) for one dialect. A Compiler
// is stateless and safe for concurrent use; the positional placeholder
// counter lives in a per-call printer and is never shared across compiles.
type Compiler struct {
	dialect Dialect
}

// NewCompiler creates a Compiler for the given dialect.
func NewCompiler(d Dialect) *Compiler {
	return &Compiler{dialect: d}
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() Dialect { return c.dialect }

// CompileSelect lowers a SELECT statement.
func (c *Compiler) CompileSelect(stmt *query.SelectStatement) (string, []any, error) {
	p := &printer{d: c.dialect}
	sql, err := p.selectSQL(stmt)
	if err != nil {
		return "", nil, err
	}
	return sql, p.args, nil
}

// CompileInsert lowers an INSERT statement, appending RETURNING * on
// dialects that support it.
func (c *Compiler) CompileInsert(stmt *query.InsertStatement) (string, []any, error) {
	if len(stmt.Values) == 0 {
		return "", nil, dberr.InvalidRequest("insert into %s has no values", stmt.Table)
	}
	p := &printer{d: c.dialect}
	cols := make([]string, len(stmt.Values))
	vals := make([]string, len(stmt.Values))
	for i, set := range stmt.Values {
		cols[i] = c.dialect.QuoteIdent(set.Column)
		s, err := p.expr(set.Value)
		if err != nil {
			return "", nil, err
		}
		vals[i] = s
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s)",
		stmt.Table, strings.Join(cols, ", "), strings.Join(vals, ", "))
	if c.dialect.SupportsReturning() {
		sb.WriteString(" RETURNING *")
	}
	return sb.String(), p.args, nil
}

// CompileUpdate lowers an UPDATE statement. A limit is emulated with a
// row-id subquery repeating the filter predicates, so their parameters
// appear twice, after the SET parameters.
func (c *Compiler) CompileUpdate(stmt *query.UpdateStatement) (string, []any, error) {
	if len(stmt.Values) == 0 {
		return "", nil, dberr.InvalidRequest("update of %s has no set clauses", stmt.Table)
	}
	p := &printer{d: c.dialect}
	sets := make([]string, len(stmt.Values))
	for i, set := range stmt.Values {
		s, err := p.expr(set.Value)
		if err != nil {
			return "", nil, err
		}
		sets[i] = c.dialect.QuoteIdent(set.Column) + "=" + s
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET %s", stmt.Table, strings.Join(sets, ", "))
	if err := p.writeClause(&sb, stmt.Table, stmt.Filters, stmt.Limit); err != nil {
		return "", nil, err
	}
	if c.dialect.SupportsReturning() {
		sb.WriteString(" RETURNING *")
	}
	return sb.String(), p.args, nil
}

// CompileDelete lowers a DELETE statement with the same limit emulation as
// CompileUpdate.
func (c *Compiler) CompileDelete(stmt *query.DeleteStatement) (string, []any, error) {
	p := &printer{d: c.dialect}
	var sb strings.Builder
	fmt.Fprintf(&sb, "DELETE FROM %s", stmt.Table)
	if err := p.writeClause(&sb, stmt.Table, stmt.Filters, stmt.Limit); err != nil {
		return "", nil, err
	}
	if c.dialect.SupportsReturning() {
		sb.WriteString(" RETURNING *")
	}
	return sb.String(), p.args, nil
}

// CompileUpsertMulti lowers one chunk of a multi-row upsert into a single
// atomic INSERT ... ON CONFLICT statement. The caller is responsible for
// chunking rows under the dialect parameter ceiling.
func (c *Compiler) CompileUpsertMulti(stmt *query.UpsertMultiStatement) (string, []any, error) {
	if len(stmt.Unique) == 0 {
		return "", nil, dberr.MissingUnique()
	}
	if len(stmt.Rows) == 0 {
		return "", nil, dberr.InvalidRequest("upsert multi into %s has no rows", stmt.Table)
	}
	first := stmt.Rows[0]
	cols := make([]string, len(first))
	for i, set := range first {
		cols[i] = c.dialect.QuoteIdent(set.Column)
	}

	p := &printer{d: c.dialect}
	rows := make([]string, len(stmt.Rows))
	for ri, row := range stmt.Rows {
		if len(row) != len(first) {
			return "", nil, dberr.InvalidRequest(
				"upsert multi row %d has %d columns, want %d", ri, len(row), len(first))
		}
		vals := make([]string, len(row))
		for i, set := range row {
			if set.Column != first[i].Column {
				return "", nil, dberr.InvalidRequest(
					"upsert multi row %d column %d is %q, want %q",
					ri, i, set.Column, first[i].Column)
			}
			s, err := p.expr(set.Value)
			if err != nil {
				return "", nil, err
			}
			vals[i] = s
		}
		rows[ri] = "(" + strings.Join(vals, ", ") + ")"
	}

	unique := make(map[string]bool, len(stmt.Unique))
	for _, name := range stmt.Unique {
		unique[name] = true
	}
	var update []string
	for _, set := range first {
		if !unique[set.Column] {
			update = append(update, set.Column)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES %s %s",
		stmt.Table, strings.Join(cols, ", "), strings.Join(rows, ", "),
		c.dialect.UpsertClause(stmt.Unique, update))
	if c.dialect.SupportsReturning() {
		sb.WriteString(" RETURNING *")
	}
	return sb.String(), p.args, nil
}

// printer accumulates the bound argument list for one compile call. The
// positional counter is len(args); it starts at zero per statement and
// increments across clauses in visitation order.
type printer struct {
	d    Dialect
	args []any
}

// selectSQL renders a full SELECT in the fixed clause order
// DISTINCT, projection, joins, WHERE, ORDER BY, LIMIT.
func (p *printer) selectSQL(stmt *query.SelectStatement) (string, error) {
	distinct := ""
	if stmt.Distinct {
		distinct = "DISTINCT "
	}

	columns := "*"
	if len(stmt.Columns) > 0 {
		quoted := make([]string, len(stmt.Columns))
		for i, name := range stmt.Columns {
			quoted[i] = p.d.QuoteIdent(name)
		}
		columns = strings.Join(quoted, ", ")
	}

	joins := make([]string, len(stmt.Joins))
	for i, j := range stmt.Joins {
		kw := "JOIN"
		if j.Left {
			kw = "LEFT JOIN"
		}
		joins[i] = fmt.Sprintf("%s %s ON %s", kw, j.Table, j.On)
	}

	where, err := p.whereSQL(stmt.Filters)
	if err != nil {
		return "", err
	}

	sort := ""
	if len(stmt.Sorts) > 0 {
		terms := make([]string, len(stmt.Sorts))
		for i, s := range stmt.Sorts {
			expr, err := p.expr(s.Expr)
			if err != nil {
				return "", err
			}
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			terms[i] = fmt.Sprintf("(%s) %s", expr, dir)
		}
		sort = "ORDER BY " + strings.Join(terms, ", ")
	}

	limit := ""
	if stmt.Limit != nil {
		limit = fmt.Sprintf("LIMIT %d", *stmt.Limit)
	}

	sql := fmt.Sprintf("SELECT %s%s FROM %s %s %s %s %s",
		distinct, columns, stmt.Table, strings.Join(joins, " "), where, sort, limit)
	return strings.TrimRight(sql, " "), nil
}

// whereSQL renders the filter list joined by AND, or "" when empty.
func (p *printer) whereSQL(filters []query.Expr) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		s, err := p.expr(f)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "WHERE " + strings.Join(parts, " AND "), nil
}

// writeClause appends the WHERE clause of an UPDATE/DELETE, emulating a
// limit with a row-id subquery that repeats the filters. The repeated
// filter parameters are appended a second time, in the same order.
func (p *printer) writeClause(sb *strings.Builder, table string, filters []query.Expr, limit *int) error {
	outer, err := p.whereSQL(filters)
	if err != nil {
		return err
	}
	if limit == nil {
		if outer != "" {
			sb.WriteString(" " + outer)
		}
		return nil
	}

	inner, err := p.whereSQL(filters)
	if err != nil {
		return err
	}
	rowid := p.d.RowID()
	sub := fmt.Sprintf("SELECT %s FROM %s", rowid, table)
	if inner != "" {
		sub += " " + inner
	}
	sub += fmt.Sprintf(" LIMIT %d", *limit)

	if outer == "" {
		fmt.Fprintf(sb, " WHERE %s IN (%s)", rowid, p.d.WrapLimitSubquery(sub))
	} else {
		fmt.Fprintf(sb, " %s AND %s IN (%s)", outer, rowid, p.d.WrapLimitSubquery(sub))
	}
	return nil
}

// expr renders a single expression, appending any bound parameters.
func (p *printer) expr(e query.Expr) (string, error) {
	switch x := e.(type) {
	case query.ValueExpr:
		return p.value(x.Value)

	case query.IdentExpr:
		return p.d.QuoteIdent(x.Name), nil

	case query.RawExpr:
		return x.SQL, nil

	case query.BinaryExpr:
		left, err := p.expr(x.Left)
		if err != nil {
			return "", err
		}
		if exprIsNull(x.Right) {
			switch x.Op {
			case query.OpEq:
				return fmt.Sprintf("(%s IS NULL)", left), nil
			case query.OpNe:
				return fmt.Sprintf("(%s IS NOT NULL)", left), nil
			default:
				return "", dberr.UnsupportedNullComparison(string(x.Op))
			}
		}
		right, err := p.expr(x.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, x.Op, right), nil

	case query.AndExpr:
		return p.conds(x.Conds, " AND ")

	case query.OrExpr:
		return p.conds(x.Conds, " OR ")

	case query.InExpr:
		left, err := p.expr(x.Left)
		if err != nil {
			return "", err
		}
		vals := make([]string, len(x.Values))
		for i, v := range x.Values {
			s, err := p.expr(v)
			if err != nil {
				return "", err
			}
			vals[i] = s
		}
		return fmt.Sprintf("%s IN (%s)", left, strings.Join(vals, ", ")), nil

	case query.CoalesceExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			s, err := p.expr(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return p.d.Coalesce(args), nil

	case query.SubqueryExpr:
		sql, err := p.selectSQL(x.Query)
		if err != nil {
			return "", err
		}
		return "(" + sql + ")", nil

	case query.InvalidExpr:
		return "", dberr.InvalidRequest("unsupported value type %T", x.Got)

	default:
		return "", dberr.InvalidRequest("unsupported expression type %T", e)
	}
}

// conds renders a parenthesized condition list.
func (p *printer) conds(conds []query.Expr, sep string) (string, error) {
	parts := make([]string, len(conds))
	for i, c := range conds {
		s, err := p.expr(c)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// value renders a scalar: pseudo-values inline as function calls, every
// other variant consumes the next placeholder.
func (p *printer) value(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindNow:
		return p.d.Now(), nil
	case value.KindNowAdd:
		return p.d.NowAdd(v.Interval()), nil
	}
	arg, _ := v.Arg()
	p.args = append(p.args, arg)
	return p.d.Placeholder(len(p.args)), nil
}

// exprIsNull reports whether an expression is a NULL scalar, which flips
// equality comparisons to IS/IS NOT and invalidates ordering comparisons.
func exprIsNull(e query.Expr) bool {
	v, ok := e.(query.ValueExpr)
	return ok && v.Value.IsNull()
}
