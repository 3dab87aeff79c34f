// Package soql builds SOQL clauses from structured query fields.
//
// SOQL (Salesforce Object Query Language) uses a fixed clause order:
// SELECT ... FROM ... WHERE ... ORDER BY ... LIMIT ... OFFSET ...
// Only a single object is supported in FROM.
//
// Reference:
// https://developer.salesforce.com/docs/atlas.en-us.soql_sosl.meta/soql_sosl/sforce_api_calls_soql_select.htm
package soql

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError reports a malformed query that must not be sent upstream.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid soql query: %s", e.Reason)
}

// Query holds the structured fields of a SOQL SELECT statement.
//
// OrderBy defaults to "Id" when nil; a stable order key is required for
// offset-based pagination, otherwise the server may skip or duplicate rows
// between pages. Set OrderBy to an empty non-nil slice to omit the clause
// entirely (COUNT queries must not carry ORDER BY).
type Query struct {
	Select  []string
	From    string
	Where   string
	OrderBy []string
	Limit   int
	Offset  int
}

// NewQuery creates a query for the given object with the given selected
// fields, parsing comma-separated field lists.
func NewQuery(from string, selects ...string) *Query {
	q := &Query{From: from}
	for _, s := range selects {
		q.SelectAnd(s)
	}
	return q
}

// SelectAnd appends fields to the SELECT list. The value may be a single
// field name or a comma-separated list.
func (q *Query) SelectAnd(value string) {
	q.Select = append(q.Select, ListFromCSV(value)...)
}

// OrderByAnd appends fields to the ORDER BY list. The value may be a single
// field name or a comma-separated list.
func (q *Query) OrderByAnd(value string) {
	q.OrderBy = append(q.OrderBy, ListFromCSV(value)...)
}

// WhereAnd replaces the WHERE expression with the conjunction of the current
// expression and the given one, skipping empty operands.
func (q *Query) WhereAnd(expr string) {
	q.Where = WhereAnd(q.Where, expr)
}

// orderBy resolves the effective ORDER BY fields: nil means the "Id" default,
// an empty non-nil slice means no ORDER BY clause.
func (q *Query) orderBy() []string {
	if q.OrderBy == nil {
		return []string{"Id"}
	}
	return q.OrderBy
}

// Clause renders the query as a SOQL statement.
//
// SELECT and FROM are required, and FROM must name a single object.
func (q *Query) Clause() (string, error) {
	if len(q.Select) == 0 {
		return "", &ValidationError{Reason: "SELECT is required"}
	}
	if q.From == "" {
		return "", &ValidationError{Reason: "FROM is required"}
	}
	if strings.Contains(q.From, ",") {
		return "", &ValidationError{Reason: fmt.Sprintf("only a single object is supported in FROM: %s", q.From)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(q.Select, ","), q.From)
	if q.Where != "" {
		fmt.Fprintf(&b, " WHERE %s", q.Where)
	}
	if orderBy := q.orderBy(); len(orderBy) > 0 {
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(orderBy, ","))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.Offset)
	}
	return b.String(), nil
}

// String renders the clause, or the validation error text when the query is
// malformed. Intended for logging only; use Clause for anything sent upstream.
func (q *Query) String() string {
	clause, err := q.Clause()
	if err != nil {
		return err.Error()
	}
	return clause
}

// ListFromCSV splits a comma-separated value into trimmed non-empty entries.
func ListFromCSV(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// WhereIn builds "name IN ('v1','v2',...)", skipping empty values. Returns ""
// when name is empty or no values remain.
func WhereIn(name string, values ...string) string {
	if name == "" {
		return ""
	}
	var quoted []string
	for _, v := range values {
		if v != "" {
			quoted = append(quoted, fmt.Sprintf("'%s'", v))
		}
	}
	if len(quoted) == 0 {
		return ""
	}
	return fmt.Sprintf("%s IN (%s)", name, strings.Join(quoted, ","))
}

// WhereLike builds "name LIKE '%value%'". Returns "" when name or value is
// empty.
func WhereLike(name, value string) string {
	if name == "" || value == "" {
		return ""
	}
	return fmt.Sprintf("%s LIKE '%%%s%%'", name, value)
}

// WhereJoin joins non-empty sub-expressions with the given boolean operator,
// parenthesizing each operand.
func WhereJoin(op string, exprs ...string) string {
	var parts []string
	for _, e := range exprs {
		if e != "" {
			parts = append(parts, fmt.Sprintf("(%s)", e))
		}
	}
	return strings.Join(parts, fmt.Sprintf(" %s ", op))
}

// WhereAnd joins non-empty sub-expressions with AND.
func WhereAnd(exprs ...string) string {
	return WhereJoin("AND", exprs...)
}

// WhereOr joins non-empty sub-expressions with OR.
func WhereOr(exprs ...string) string {
	return WhereJoin("OR", exprs...)
}

// soslReservedChars are the characters that must be escaped in a SOSL FIND
// clause.
// https://developer.salesforce.com/docs/atlas.en-us.soql_sosl.meta/soql_sosl/sforce_api_calls_sosl_find.htm#reserved_chars
var soslReservedChars = regexp.MustCompile(`([?&|!{}[\]()^~*:\\"'+-])`)

// EscapeSOSL escapes all SOSL reserved characters in a search string.
func EscapeSOSL(search string) string {
	return soslReservedChars.ReplaceAllString(search, `\$1`)
}
