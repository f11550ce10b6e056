package sqlite

import (
	"fmt"
	"strings"
)

// placeholder returns a placeholder for SQLite (uses ?)
func placeholder(_ int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// limitClause renders LIMIT/OFFSET. SQLite needs a LIMIT before OFFSET, -1 means unbounded.
func limitClause(limit, offset *int) string {
	if limit == nil && offset == nil {
		return ""
	}
	l := -1
	if limit != nil {
		l = *limit
	}
	clause := fmt.Sprintf(" LIMIT %d", l)
	if offset != nil {
		clause += fmt.Sprintf(" OFFSET %d", *offset)
	}
	return clause
}
