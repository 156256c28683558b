package calllog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// NOTE: SQLStore reads a table shaped like the platform call log:
//
//	calls(id, formatted_number, number, type, date, duration, name, numbertype, numberlabel)
//
// It never writes.

// Sort selects the store-level ordering of query results.
type Sort struct {
	Field      Field
	Descending bool
}

// SortByDateDesc is the only order the controller asks for: newest call first.
var SortByDateDesc = Sort{Field: FieldDate, Descending: true}

// SQLStore is a read-only call log store over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) Query(ctx context.Context, p *Predicate, sort Sort) ([]CallRecord, error) {
	if s.db == nil {
		return nil, errors.New("calllog: store not configured")
	}
	q, args, err := s.buildQuery(p, sort)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("calllog: query call log: %w", err)
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		var (
			r         CallRecord
			formatted sql.NullString
			name      sql.NullString
			numType   sql.NullInt64
			label     sql.NullInt64
			callType  int64
		)
		if err := rows.Scan(&formatted, &r.Number, &callType, &r.Timestamp, &r.Duration, &name, &numType, &label); err != nil {
			return nil, fmt.Errorf("calllog: scan call row: %w", err)
		}
		r.FormattedNumber = formatted.String
		r.CallType = CallType(callType)
		r.CachedNumberType = int(numType.Int64)
		if name.Valid {
			v := name.String
			r.CachedName = &v
		}
		if label.Valid {
			v := int(label.Int64)
			r.CachedNumberLabel = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calllog: read call rows: %w", err)
	}
	return out, nil
}

func (s *SQLStore) buildQuery(p *Predicate, sort Sort) (string, []any, error) {
	q := `
SELECT formatted_number, number, type, date, duration, name, numbertype, numberlabel
FROM calls`
	where, args, err := CompileWhere(p, s.dialect, 1)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		q += "\nWHERE " + where
	}

	col, ok := columns[sort.Field]
	if !ok {
		return "", nil, fmt.Errorf("calllog: unknown sort field %q", sort.Field)
	}
	dir := "ASC"
	if sort.Descending {
		dir = "DESC"
	}
	// id breaks ties so equal timestamps come back in a stable order.
	q += fmt.Sprintf("\nORDER BY %s %s, id %s", col, dir, dir)
	return q, args, nil
}
