package calllog

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect is the placeholder style of a SQL backend.
type Dialect int

const (
	// DialectSQLite uses ? placeholders.
	DialectSQLite Dialect = iota
	// DialectPostgres uses $n placeholders.
	DialectPostgres
)

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// columns maps filterable fields to call log columns.
var columns = map[Field]string{
	FieldDate:       "date",
	FieldDuration:   "duration",
	FieldCachedName: "name",
	FieldNumber:     "number",
	FieldType:       "type",
}

// CompileWhere renders p as a parameterized WHERE fragment (without the keyword).
// Caller values only ever travel as arguments; LIKE wildcards inside them are escaped.
// A nil predicate compiles to "" with no arguments.
func CompileWhere(p *Predicate, d Dialect, firstArg int) (string, []any, error) {
	if p == nil || len(p.Conditions) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(p.Conditions))
	args := make([]any, 0, len(p.Conditions))
	n := firstArg
	for _, c := range p.Conditions {
		col, ok := columns[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("calllog: unknown field %q", c.Field)
		}
		switch c.Op {
		case OpGreater, OpLess, OpEqual:
			parts = append(parts, fmt.Sprintf("%s %s %s", col, c.Op, d.placeholder(n)))
			args = append(args, c.Value)
		case OpContains:
			s, ok := c.Value.(string)
			if !ok {
				return "", nil, fmt.Errorf("calllog: %s contains needs a string, got %T", c.Field, c.Value)
			}
			parts = append(parts, fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, col, d.placeholder(n)))
			args = append(args, "%"+EscapeLike(s)+"%")
		default:
			return "", nil, fmt.Errorf("calllog: unsupported operator %q", c.Op)
		}
		n++
	}
	return strings.Join(parts, " AND "), args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards in s for use with ESCAPE '\'.
func EscapeLike(s string) string { return likeEscaper.Replace(s) }
