package postgres

import "strings"

// query accumulates a statement with '?' placeholders. Callers Rebind the
// result for the postgres driver.
type query struct {
	b    strings.Builder
	args []interface{}
}

func newQuery(base string) *query {
	q := &query{}
	q.b.WriteString(base)
	return q
}

func (q *query) where(cond string, args ...interface{}) {
	q.b.WriteString(" AND ")
	q.b.WriteString(cond)
	q.args = append(q.args, args...)
}

func (q *query) suffix(s string, args ...interface{}) {
	q.b.WriteString(s)
	q.args = append(q.args, args...)
}

func (q *query) sql() string {
	return q.b.String()
}
