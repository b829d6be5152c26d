package pgstore

import (
	"fmt"
	"sort"
	"strings"
)

// FilterOperator is a comparison used in a WHERE condition
type FilterOperator string

const (
	OpEqual FilterOperator = "eq"
	OpIn    FilterOperator = "in"
)

// Filter is one AND-ed WHERE condition
type Filter struct {
	Column   string
	Operator FilterOperator
	Value    interface{}
}

// OrderBy is one ORDER BY term
type OrderBy struct {
	Column string
	Desc   bool
}

// QueryBuilder builds parameterised SQL for a single table. Statements are
// deterministic: columns given as maps are emitted in sorted order so that
// placeholders line up with arguments the same way on every call.
type QueryBuilder struct {
	table      string
	columns    []string
	filters    []Filter
	orderBy    []OrderBy
	limit      *int
	returning  []string
	argCounter int
}

// NewQueryBuilder creates a new QueryBuilder for the given table
func NewQueryBuilder(table string) *QueryBuilder {
	return &QueryBuilder{table: table, argCounter: 1}
}

// WithColumns sets the columns to select
func (qb *QueryBuilder) WithColumns(columns []string) *QueryBuilder {
	qb.columns = columns
	return qb
}

// WithFilters sets the WHERE conditions
func (qb *QueryBuilder) WithFilters(filters []Filter) *QueryBuilder {
	qb.filters = filters
	return qb
}

// WithOrder sets the ORDER BY clauses
func (qb *QueryBuilder) WithOrder(order []OrderBy) *QueryBuilder {
	qb.orderBy = order
	return qb
}

// WithLimit sets the LIMIT clause
func (qb *QueryBuilder) WithLimit(limit int) *QueryBuilder {
	qb.limit = &limit
	return qb
}

// WithReturning sets the RETURNING clause columns
func (qb *QueryBuilder) WithReturning(columns []string) *QueryBuilder {
	qb.returning = columns
	return qb
}

// BuildSelect builds a SELECT query
func (qb *QueryBuilder) BuildSelect() (string, []interface{}) {
	selectClause := "*"
	if len(qb.columns) > 0 {
		selectClause = quoteList(qb.columns)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", selectClause, quoteIdentifier(qb.table))

	whereClause, args := qb.buildWhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	if orderClause := qb.buildOrderClause(); orderClause != "" {
		query += " ORDER BY " + orderClause
	}

	if qb.limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *qb.limit)
	}

	return query, args
}

// BuildInsert builds an INSERT query
func (qb *QueryBuilder) BuildInsert(data map[string]interface{}) (string, []interface{}) {
	if len(data) == 0 {
		return "", nil
	}

	columns := sortedKeys(data)
	placeholders := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))

	for _, col := range columns {
		placeholders = append(placeholders, qb.nextPlaceholder())
		args = append(args, data[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(qb.table),
		quoteList(columns),
		strings.Join(placeholders, ", "))

	return query + qb.buildReturningClause(), args
}

// BuildUpdate builds an UPDATE query. SET placeholders come before WHERE placeholders.
func (qb *QueryBuilder) BuildUpdate(data map[string]interface{}) (string, []interface{}) {
	if len(data) == 0 {
		return "", nil
	}

	columns := sortedKeys(data)
	setClauses := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))

	for _, col := range columns {
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", quoteIdentifier(col), qb.nextPlaceholder()))
		args = append(args, data[col])
	}

	query := fmt.Sprintf("UPDATE %s SET %s", quoteIdentifier(qb.table), strings.Join(setClauses, ", "))

	whereClause, whereArgs := qb.buildWhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
		args = append(args, whereArgs...)
	}

	return query + qb.buildReturningClause(), args
}

// BuildDelete builds a DELETE query
func (qb *QueryBuilder) BuildDelete() (string, []interface{}) {
	query := fmt.Sprintf("DELETE FROM %s", quoteIdentifier(qb.table))

	whereClause, args := qb.buildWhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	return query + qb.buildReturningClause(), args
}

func (qb *QueryBuilder) buildWhereClause() (string, []interface{}) {
	var conditions []string
	var args []interface{}

	for _, filter := range qb.filters {
		condition, arg := qb.filterToSQL(filter)
		if condition == "" {
			continue
		}
		conditions = append(conditions, condition)
		args = append(args, arg)
	}

	return strings.Join(conditions, " AND "), args
}

func (qb *QueryBuilder) filterToSQL(filter Filter) (string, interface{}) {
	quotedCol := quoteIdentifier(filter.Column)
	if quotedCol == "" {
		return "", nil
	}

	placeholder := qb.nextPlaceholder()

	switch filter.Operator {
	case OpIn:
		return fmt.Sprintf("%s = ANY(%s)", quotedCol, placeholder), filter.Value
	default:
		return fmt.Sprintf("%s = %s", quotedCol, placeholder), filter.Value
	}
}

func (qb *QueryBuilder) buildOrderClause() string {
	parts := make([]string, 0, len(qb.orderBy))
	for _, order := range qb.orderBy {
		quoted := quoteIdentifier(order.Column)
		if quoted == "" {
			continue
		}
		if order.Desc {
			parts = append(parts, quoted+" DESC")
		} else {
			parts = append(parts, quoted+" ASC")
		}
	}
	return strings.Join(parts, ", ")
}

func (qb *QueryBuilder) buildReturningClause() string {
	if len(qb.returning) == 0 {
		return ""
	}
	return " RETURNING " + quoteList(qb.returning)
}

func (qb *QueryBuilder) nextPlaceholder() string {
	p := fmt.Sprintf("$%d", qb.argCounter)
	qb.argCounter++
	return p
}

// quoteIdentifier quotes a PostgreSQL identifier, escaping embedded quotes
func quoteIdentifier(identifier string) string {
	if identifier == "" {
		return ""
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func quoteList(columns []string) string {
	quoted := make([]string, 0, len(columns))
	for _, col := range columns {
		if q := quoteIdentifier(col); q != "" {
			quoted = append(quoted, q)
		}
	}
	return strings.Join(quoted, ", ")
}

func sortedKeys(data map[string]interface{}) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
