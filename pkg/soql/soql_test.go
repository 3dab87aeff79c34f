package soql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClause(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{
			name:  "select from only",
			query: Query{Select: []string{"Id"}, From: "Case"},
			want:  "SELECT Id FROM Case ORDER BY Id",
		},
		{
			name: "all clauses in fixed order",
			query: Query{
				Select:  []string{"Id", "Subject"},
				From:    "Case",
				Where:   "IsClosed = FALSE",
				OrderBy: []string{"CreatedDate", "Id"},
				Limit:   200,
				Offset:  400,
			},
			want: "SELECT Id,Subject FROM Case WHERE IsClosed = FALSE ORDER BY CreatedDate,Id LIMIT 200 OFFSET 400",
		},
		{
			name:  "order by defaults to Id when unset",
			query: Query{Select: []string{"Id"}, From: "Account", Where: "Name != ''"},
			want:  "SELECT Id FROM Account WHERE Name != '' ORDER BY Id",
		},
		{
			name:  "explicit empty order by is omitted",
			query: Query{Select: []string{"COUNT()"}, From: "Case", Where: "IsClosed = FALSE", OrderBy: []string{}},
			want:  "SELECT COUNT() FROM Case WHERE IsClosed = FALSE",
		},
		{
			name:  "zero limit and offset omitted",
			query: Query{Select: []string{"Id"}, From: "Case", Limit: 0, Offset: 0},
			want:  "SELECT Id FROM Case ORDER BY Id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := tt.query.Clause()
			require.NoError(t, err)
			assert.Equal(t, tt.want, clause)
		})
	}
}

func TestClauseValidation(t *testing.T) {
	tests := []struct {
		name  string
		query Query
	}{
		{name: "missing select", query: Query{From: "Case"}},
		{name: "missing from", query: Query{Select: []string{"Id"}}},
		{name: "multi-object from", query: Query{Select: []string{"Id"}, From: "Account,Contact"}},
		{
			name:  "multi-object from with all other fields set",
			query: Query{Select: []string{"Id"}, From: "Account,Contact", Where: "x", OrderBy: []string{"Id"}, Limit: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.query.Clause()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
		})
	}
}

func TestNewQueryParsesCSV(t *testing.T) {
	q := NewQuery("Case", "Id, Subject , Status")
	assert.Equal(t, []string{"Id", "Subject", "Status"}, q.Select)

	q.SelectAnd("OwnerId,CreatedDate")
	assert.Equal(t, []string{"Id", "Subject", "Status", "OwnerId", "CreatedDate"}, q.Select)

	q.OrderByAnd("CreatedDate, Id")
	assert.Equal(t, []string{"CreatedDate", "Id"}, q.OrderBy)
}

func TestQueryWhereAnd(t *testing.T) {
	q := NewQuery("Case", "Id")
	q.WhereAnd("IsClosed = FALSE")
	assert.Equal(t, "(IsClosed = FALSE)", q.Where)

	q.WhereAnd("Priority = 'High'")
	assert.Equal(t, "((IsClosed = FALSE)) AND (Priority = 'High')", q.Where)
}

func TestListFromCSV(t *testing.T) {
	assert.Nil(t, ListFromCSV(""))
	assert.Equal(t, []string{"a"}, ListFromCSV("a"))
	assert.Equal(t, []string{"a", "b"}, ListFromCSV("a, b,"))
}

func TestWhereIn(t *testing.T) {
	assert.Equal(t, "Status IN ('Open','Closed')", WhereIn("Status", "Open", "", "Closed"))
	assert.Empty(t, WhereIn("Status"))
	assert.Empty(t, WhereIn("Status", "", ""))
	assert.Empty(t, WhereIn("", "Open"))
}

func TestWhereLike(t *testing.T) {
	assert.Equal(t, "CommentBody LIKE '%kernel%'", WhereLike("CommentBody", "kernel"))
	assert.Empty(t, WhereLike("CommentBody", ""))
	assert.Empty(t, WhereLike("", "kernel"))
}

func TestWhereJoin(t *testing.T) {
	assert.Equal(t, "(a = 1) AND (b = 2)", WhereAnd("a = 1", "b = 2"))
	assert.Equal(t, "(a = 1) OR (b = 2) OR (c = 3)", WhereOr("a = 1", "b = 2", "c = 3"))
	assert.Equal(t, "(a = 1)", WhereAnd("a = 1", ""))
	assert.Empty(t, WhereAnd("", ""))
}

func TestEscapeSOSL(t *testing.T) {
	assert.Equal(t, `foo\?`, EscapeSOSL("foo?"))
	assert.Equal(t, `\{bar\}`, EscapeSOSL("{bar}"))
	assert.Equal(t, `a\&b\|c\!d`, EscapeSOSL("a&b|c!d"))
	assert.Equal(t, `\"quoted\"`, EscapeSOSL(`"quoted"`))
	assert.Equal(t, "plain text", EscapeSOSL("plain text"))
}
