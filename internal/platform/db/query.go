package db

import (
	"fmt"
	"strings"
)

// SelectQuery builds a parameterised SELECT with an AND-joined WHERE clause.
type SelectQuery struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// NewSelectQuery creates a query over table returning cols.
func NewSelectQuery(table, cols string) *SelectQuery {
	return &SelectQuery{
		table: table,
		cols:  cols,
		idx:   1,
	}
}

// Idx returns the next available parameter index.
func (q *SelectQuery) Idx() int { return q.idx }

// Add appends a raw WHERE clause fragment (without leading "AND"). The
// fragment must number its placeholders starting at Idx().
func (q *SelectQuery) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

// AddEq adds "column = $n".
func (q *SelectQuery) AddEq(column string, value interface{}) {
	q.Add(fmt.Sprintf("%s = $%d", column, q.idx), value)
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *SelectQuery) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// Where returns the accumulated predicate, starting with "1=1".
func (q *SelectQuery) Where() string {
	return "1=1" + q.where
}

// Args returns the arguments bound so far.
func (q *SelectQuery) Args() []interface{} {
	return q.args
}

// CountSQL returns the count query SQL.
func (q *SelectQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", q.table, q.Where())
}

// SQL returns the data query without pagination.
func (q *SelectQuery) SQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s", q.cols, q.table, q.Where())
	if q.orderBy != "" {
		b.WriteString(" ORDER BY " + q.orderBy)
	}
	return b.String()
}

// DataSQL returns the data query SQL with ORDER BY and LIMIT/OFFSET.
func (q *SelectQuery) DataSQL() string {
	return q.SQL() + fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
}

// DataArgs returns the arguments for the data query (search args + limit + offset).
func (q *SelectQuery) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}
