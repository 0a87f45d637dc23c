package query

// ParamCount returns the number of bound parameters an expression
// contributes when compiled. Pseudo-values (Now, NowAdd) render inline and
// count zero; a NULL right operand of an equality comparison renders as
// IS NULL and counts zero. The chunking layer uses this to keep multi-row
// statements under the dialect parameter ceiling.
func ParamCount(e Expr) int {
	switch x := e.(type) {
	case ValueExpr:
		if !x.Value.IsParam() {
			return 0
		}
		return 1
	case BinaryExpr:
		if v, ok := x.Right.(ValueExpr); ok && v.Value.IsNull() {
			return ParamCount(x.Left)
		}
		return ParamCount(x.Left) + ParamCount(x.Right)
	case AndExpr:
		return sumParams(x.Conds)
	case OrExpr:
		return sumParams(x.Conds)
	case InExpr:
		return ParamCount(x.Left) + sumParams(x.Values)
	case CoalesceExpr:
		return sumParams(x.Args)
	case SubqueryExpr:
		n := sumParams(x.Query.Filters)
		for _, s := range x.Query.Sorts {
			n += ParamCount(s.Expr)
		}
		return n
	default:
		return 0
	}
}

// RowParamCount returns the bound parameter count of one row of column
// assignments.
func RowParamCount(row []SetClause) int {
	n := 0
	for _, set := range row {
		n += ParamCount(set.Value)
	}
	return n
}

func sumParams(exprs []Expr) int {
	n := 0
	for _, e := range exprs {
		n += ParamCount(e)
	}
	return n
}
