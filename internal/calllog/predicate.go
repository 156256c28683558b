package calllog

import (
	"fmt"
	"strings"
)

// Field names a filterable call log column.
type Field string

const (
	FieldDate       Field = "date"
	FieldDuration   Field = "duration"
	FieldCachedName Field = "name"
	FieldNumber     Field = "number"
	FieldType       Field = "type"
)

// Operator is the comparison applied by a Condition.
type Operator string

const (
	OpGreater  Operator = ">"
	OpLess     Operator = "<"
	OpEqual    Operator = "="
	OpContains Operator = "contains"
)

// Condition is one (field, operator, value) term. Value is int64 for numeric
// fields and string for text fields.
type Condition struct {
	Field Field
	Op    Operator
	Value any
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// Predicate is a conjunction of conditions. A nil *Predicate matches everything.
type Predicate struct {
	Conditions []Condition
}

func (p *Predicate) String() string {
	if p == nil || len(p.Conditions) == 0 {
		return "<all>"
	}
	parts := make([]string, len(p.Conditions))
	for i, c := range p.Conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// BuildPredicate turns a filter into a predicate. It returns nil when the filter
// is empty, which is the same request as the unfiltered get.
//
// Conditions are emitted in a fixed order: dateFrom, dateTo, durationFrom,
// durationTo, name, number, type.
func BuildPredicate(f QueryFilter) *Predicate {
	var conds []Condition
	if f.DateFrom != nil {
		conds = append(conds, Condition{Field: FieldDate, Op: OpGreater, Value: *f.DateFrom})
	}
	if f.DateTo != nil {
		conds = append(conds, Condition{Field: FieldDate, Op: OpLess, Value: *f.DateTo})
	}
	if f.DurationFrom != nil {
		conds = append(conds, Condition{Field: FieldDuration, Op: OpGreater, Value: *f.DurationFrom})
	}
	if f.DurationTo != nil {
		conds = append(conds, Condition{Field: FieldDuration, Op: OpLess, Value: *f.DurationTo})
	}
	if f.Name != nil {
		conds = append(conds, Condition{Field: FieldCachedName, Op: OpContains, Value: *f.Name})
	}
	if f.Number != nil {
		conds = append(conds, Condition{Field: FieldNumber, Op: OpContains, Value: *f.Number})
	}
	if f.Type != nil {
		conds = append(conds, Condition{Field: FieldType, Op: OpEqual, Value: int64(*f.Type)})
	}
	if len(conds) == 0 {
		return nil
	}
	return &Predicate{Conditions: conds}
}

// Match evaluates the predicate against a record in memory.
// Substring matches are case-sensitive; a nil cached name never matches a name condition.
func (p *Predicate) Match(r CallRecord) bool {
	if p == nil {
		return true
	}
	for _, c := range p.Conditions {
		if !c.match(r) {
			return false
		}
	}
	return true
}

func (c Condition) match(r CallRecord) bool {
	switch c.Field {
	case FieldDate:
		return compareInt(r.Timestamp, c.Op, c.Value)
	case FieldDuration:
		return compareInt(r.Duration, c.Op, c.Value)
	case FieldType:
		return compareInt(int64(r.CallType), c.Op, c.Value)
	case FieldCachedName:
		if r.CachedName == nil {
			return false
		}
		return compareString(*r.CachedName, c.Op, c.Value)
	case FieldNumber:
		return compareString(r.Number, c.Op, c.Value)
	default:
		return false
	}
}

func compareInt(got int64, op Operator, value any) bool {
	want, ok := value.(int64)
	if !ok {
		return false
	}
	switch op {
	case OpGreater:
		return got > want
	case OpLess:
		return got < want
	case OpEqual:
		return got == want
	default:
		return false
	}
}

func compareString(got string, op Operator, value any) bool {
	want, ok := value.(string)
	if !ok {
		return false
	}
	switch op {
	case OpContains:
		return strings.Contains(got, want)
	case OpEqual:
		return got == want
	default:
		return false
	}
}
