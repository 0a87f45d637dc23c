package query

import (
	"time"

	"github.com/queryport/queryport/value"
)

// Expr is the interface for all expressions in a statement AST.
type Expr interface {
	exprNode() // marker method to identify expression types
}

// ValueExpr wraps a scalar value as an expression. Every variant except
// value.Now/value.NowAdd becomes one bound parameter when compiled.
type ValueExpr struct {
	Value value.Value
}

func (ValueExpr) exprNode() {}

// IdentExpr is a column or table identifier. The compiler quotes it with
// the dialect's identifier quote unless the name contains characters
// outside [A-Za-z0-9_], in which case it passes through untouched and is
// assumed pre-quoted by the caller.
type IdentExpr struct {
	Name string
}

func (IdentExpr) exprNode() {}

// RawExpr is pre-rendered SQL text emitted verbatim. It carries no
// parameters.
type RawExpr struct {
	SQL string
}

func (RawExpr) exprNode() {}

// BinaryExpr is a comparison between two expressions.
type BinaryExpr struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

func (BinaryExpr) exprNode() {}

// BinaryOp enumerates the comparison operators.
type BinaryOp string

const (
	OpEq  BinaryOp = "="
	OpNe  BinaryOp = "!="
	OpGt  BinaryOp = ">"
	OpGte BinaryOp = ">="
	OpLt  BinaryOp = "<"
	OpLte BinaryOp = "<="
)

// Ordering reports whether the operator is an ordering comparison, which
// is invalid against a NULL operand.
func (op BinaryOp) Ordering() bool {
	switch op {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// AndExpr is a parenthesized conjunction of conditions.
// Precondition: the condition list must be non-empty; an empty list
// renders as an empty parenthesis.
type AndExpr struct {
	Conds []Expr
}

func (AndExpr) exprNode() {}

// OrExpr is a parenthesized disjunction of conditions. Same precondition
// as AndExpr.
type OrExpr struct {
	Conds []Expr
}

func (OrExpr) exprNode() {}

// InExpr tests membership of the left expression in a value list.
type InExpr struct {
	Left   Expr
	Values []Expr
}

func (InExpr) exprNode() {}

// CoalesceExpr is the first-non-null of an ordered argument list.
type CoalesceExpr struct {
	Args []Expr
}

func (CoalesceExpr) exprNode() {}

// SubqueryExpr embeds a nested SELECT as an expression.
type SubqueryExpr struct {
	Query *SelectStatement
}

func (SubqueryExpr) exprNode() {}

// InvalidExpr marks a Go value that has no mapping into the value model.
// Compilation reports it as an error.
type InvalidExpr struct {
	Got any
}

func (InvalidExpr) exprNode() {}

// Compile-time verification that all expression types implement Expr
var (
	_ Expr = ValueExpr{}
	_ Expr = IdentExpr{}
	_ Expr = RawExpr{}
	_ Expr = BinaryExpr{}
	_ Expr = AndExpr{}
	_ Expr = OrExpr{}
	_ Expr = InExpr{}
	_ Expr = CoalesceExpr{}
	_ Expr = SubqueryExpr{}
	_ Expr = InvalidExpr{}
)

// Join is a join clause on a statement.
type Join struct {
	Table string
	On    string
	Left  bool
}

// Sort is an ORDER BY term.
type Sort struct {
	Expr Expr
	Desc bool
}

// SetClause pairs a column name with the expression assigned to it in a
// write statement.
type SetClause struct {
	Column string
	Value  Expr
}

// =============================================================================
// Expression constructors
// =============================================================================

// Ident returns an identifier expression for the given column name.
func Ident(name string) Expr { return IdentExpr{Name: name} }

// Raw returns a pre-rendered SQL fragment.
func Raw(sql string) Expr { return RawExpr{SQL: sql} }

// Eq compares a column against a value for equality. A NULL right operand
// compiles to IS NULL.
func Eq(column string, v any) Expr {
	return BinaryExpr{Left: IdentExpr{Name: column}, Op: OpEq, Right: toExpr(v)}
}

// Ne compares a column against a value for inequality. A NULL right
// operand compiles to IS NOT NULL.
func Ne(column string, v any) Expr {
	return BinaryExpr{Left: IdentExpr{Name: column}, Op: OpNe, Right: toExpr(v)}
}

// Gt compares a column strictly greater than a value.
func Gt(column string, v any) Expr {
	return BinaryExpr{Left: IdentExpr{Name: column}, Op: OpGt, Right: toExpr(v)}
}

// Gte compares a column greater than or equal to a value.
func Gte(column string, v any) Expr {
	return BinaryExpr{Left: IdentExpr{Name: column}, Op: OpGte, Right: toExpr(v)}
}

// Lt compares a column strictly less than a value.
func Lt(column string, v any) Expr {
	return BinaryExpr{Left: IdentExpr{Name: column}, Op: OpLt, Right: toExpr(v)}
}

// Lte compares a column less than or equal to a value.
func Lte(column string, v any) Expr {
	return BinaryExpr{Left: IdentExpr{Name: column}, Op: OpLte, Right: toExpr(v)}
}

// In tests a column against a list of values.
func In(column string, vs ...any) Expr {
	values := make([]Expr, len(vs))
	for i, v := range vs {
		values[i] = toExpr(v)
	}
	return InExpr{Left: IdentExpr{Name: column}, Values: values}
}

// And combines conditions with AND.
func And(conds ...Expr) Expr { return AndExpr{Conds: conds} }

// Or combines conditions with OR.
func Or(conds ...Expr) Expr { return OrExpr{Conds: conds} }

// Coalesce returns the first non-null of the given expressions.
func Coalesce(args ...any) Expr {
	exprs := make([]Expr, len(args))
	for i, a := range args {
		exprs[i] = toExpr(a)
	}
	return CoalesceExpr{Args: exprs}
}

// Subquery embeds a SELECT statement as an expression.
func Subquery(stmt *SelectStatement) Expr { return SubqueryExpr{Query: stmt} }

// Asc sorts by the given column ascending.
func Asc(column string) Sort { return Sort{Expr: IdentExpr{Name: column}} }

// Desc sorts by the given column descending.
func Desc(column string) Sort { return Sort{Expr: IdentExpr{Name: column}, Desc: true} }

// Set pairs a column with a value for a write statement.
func Set(column string, v any) SetClause {
	return SetClause{Column: column, Value: toExpr(v)}
}

// toExpr coerces plain Go values into expressions. Expressions and
// value.Value pass through; everything else becomes a bound value.
func toExpr(v any) Expr {
	switch x := v.(type) {
	case Expr:
		return x
	case value.Value:
		return ValueExpr{Value: x}
	case nil:
		return ValueExpr{Value: value.Null()}
	case bool:
		return ValueExpr{Value: value.Bool(x)}
	case int:
		return ValueExpr{Value: value.Int64(int64(x))}
	case int32:
		return ValueExpr{Value: value.Int64(int64(x))}
	case int64:
		return ValueExpr{Value: value.Int64(x)}
	case uint:
		return ValueExpr{Value: value.Uint64(uint64(x))}
	case uint32:
		return ValueExpr{Value: value.Uint64(uint64(x))}
	case uint64:
		return ValueExpr{Value: value.Uint64(x)}
	case float32:
		return ValueExpr{Value: value.Float64(float64(x))}
	case float64:
		return ValueExpr{Value: value.Float64(x)}
	case string:
		return ValueExpr{Value: value.String(x)}
	case time.Time:
		return ValueExpr{Value: value.Time(x)}
	default:
		// Unknown Go types have no column class; the compiler rejects
		// them instead of guessing a driver encoding.
		return InvalidExpr{Got: v}
	}
}
