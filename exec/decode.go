package exec

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/queryport/queryport/dberr"
	"github.com/queryport/queryport/value"
)

// scanRows drains a database/sql result set into decoded rows. Column
// classes come from the driver's reported database type names; typed NULLs
// are preserved as absent values of the column's kind.
func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, dberr.Transport(err)
	}

	var out []Row
	for rows.Next() {
		holders := make([]any, len(cols))
		for i, ct := range cols {
			h, err := holderFor(ct.DatabaseTypeName())
			if err != nil {
				return nil, err
			}
			holders[i] = h
		}
		if err := rows.Scan(holders...); err != nil {
			return nil, dberr.Transport(err)
		}
		row := make(Row, len(cols))
		for i, ct := range cols {
			v, err := holderValue(holders[i])
			if err != nil {
				return nil, err
			}
			row[i] = Field{Name: ct.Name(), Value: v}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Transport(err)
	}
	return out, nil
}

// holderFor picks a scan destination for one column class. SQLite reports
// an empty type name for computed columns; those fall back to dynamic
// classification of whatever the driver hands over.
func holderFor(typeName string) (any, error) {
	name := strings.ToUpper(typeName)
	switch {
	case name == "":
		return new(any), nil
	case name == "BOOL" || name == "BOOLEAN" || name == "TINYINT(1)":
		return new(sql.NullBool), nil
	case strings.HasPrefix(name, "UNSIGNED"):
		return new(nullUint64), nil
	case name == "TINYINT" || name == "SMALLINT" || name == "MEDIUMINT" ||
		name == "INT" || name == "INTEGER" || name == "BIGINT" ||
		name == "INT2" || name == "INT4" || name == "INT8":
		return new(sql.NullInt64), nil
	case name == "FLOAT" || name == "DOUBLE" || name == "REAL" ||
		name == "NUMERIC" || name == "DECIMAL":
		return new(sql.NullFloat64), nil
	case name == "CHAR" || name == "VARCHAR" || name == "TINYTEXT" ||
		name == "TEXT" || name == "MEDIUMTEXT" || name == "LONGTEXT" ||
		name == "NVARCHAR" || name == "CLOB" || name == "JSON":
		return new(sql.NullString), nil
	case name == "DATE" || name == "DATETIME" || name == "TIMESTAMP" ||
		name == "TIMESTAMPTZ":
		return new(sql.NullTime), nil
	default:
		return nil, dberr.TypeNotFound(typeName)
	}
}

// holderValue converts a filled scan destination into a Value.
func holderValue(holder any) (value.Value, error) {
	switch h := holder.(type) {
	case *sql.NullBool:
		if !h.Valid {
			return value.NullBool(), nil
		}
		return value.Bool(h.Bool), nil
	case *nullUint64:
		if !h.Valid {
			return value.NullUint64(), nil
		}
		return value.Uint64(h.V), nil
	case *sql.NullInt64:
		if !h.Valid {
			return value.NullInt64(), nil
		}
		return value.Int64(h.Int64), nil
	case *sql.NullFloat64:
		if !h.Valid {
			return value.NullFloat64(), nil
		}
		return value.Float64(h.Float64), nil
	case *sql.NullString:
		if !h.Valid {
			return value.NullString(), nil
		}
		return value.String(h.String), nil
	case *sql.NullTime:
		if !h.Valid {
			return value.NullTime(), nil
		}
		return value.Time(h.Time), nil
	case *any:
		return dynamicValue(*h)
	default:
		return value.Value{}, dberr.TypeNotFound(fmt.Sprintf("%T", holder))
	}
}

// nullUint64 mirrors sql.Null[uint64], which is unavailable before Go 1.22:
// a nullable uint64 scan destination covering the driver value types the
// database/sql conversion rules accept for uint64.
type nullUint64 struct {
	V     uint64
	Valid bool
}

func (n *nullUint64) Scan(src any) error {
	if src == nil {
		n.V, n.Valid = 0, false
		return nil
	}
	n.Valid = true
	switch x := src.(type) {
	case uint64:
		n.V = x
		return nil
	case int64:
		if x < 0 {
			return fmt.Errorf("converting driver.Value type %T (%d) to uint64: value out of range", src, x)
		}
		n.V = uint64(x)
		return nil
	case []byte:
		u, err := strconv.ParseUint(string(x), 10, 64)
		if err != nil {
			return fmt.Errorf("converting driver.Value type %T (%q) to uint64: %v", src, x, err)
		}
		n.V = u
		return nil
	case string:
		u, err := strconv.ParseUint(x, 10, 64)
		if err != nil {
			return fmt.Errorf("converting driver.Value type %T (%q) to uint64: %v", src, x, err)
		}
		n.V = u
		return nil
	default:
		return fmt.Errorf("converting driver.Value type %T to uint64: unsupported type", src)
	}
}

// dynamicValue classifies a driver-native Go value. Used for columns with
// no declared type and for backends that surface decoded Go values
// directly.
func dynamicValue(v any) (value.Value, error) {
	switch x := v.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(x), nil
	case int64:
		return value.Int64(x), nil
	case int32:
		return value.Int64(int64(x)), nil
	case int16:
		return value.Int64(int64(x)), nil
	case int8:
		return value.Int64(int64(x)), nil
	case int:
		return value.Int64(int64(x)), nil
	case uint64:
		return value.Uint64(x), nil
	case uint32:
		return value.Uint64(uint64(x)), nil
	case float64:
		return value.Float64(x), nil
	case float32:
		return value.Float64(float64(x)), nil
	case string:
		return value.String(x), nil
	case []byte:
		return value.String(string(x)), nil
	case time.Time:
		return value.Time(x), nil
	default:
		return value.Value{}, dberr.TypeNotFound(fmt.Sprintf("%T", v))
	}
}
