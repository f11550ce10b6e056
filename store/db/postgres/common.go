package postgres

import (
	"fmt"
	"strings"
)

// placeholder returns a positional placeholder ($1, $2, ...).
func placeholder(n int) string {
	return "$" + fmt.Sprint(n)
}

func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

func limitClause(limit, offset *int) string {
	clause := ""
	if limit != nil {
		clause += fmt.Sprintf(" LIMIT %d", *limit)
	}
	if offset != nil {
		clause += fmt.Sprintf(" OFFSET %d", *offset)
	}
	return clause
}
