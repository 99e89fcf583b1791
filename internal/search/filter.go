package search

import (
	"fmt"
	"strings"
)

// AllValue is the UI choice that disables a filter.
const AllValue = "전체"

// Filter builds an OData filter from equality clauses joined with "and".
type Filter struct {
	clauses []string
}

func isAll(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || v == AllValue || strings.EqualFold(v, "all")
}

// Eq adds field eq 'value'. Empty and "all" values are skipped.
func (f *Filter) Eq(field, value string) *Filter {
	if isAll(value) {
		return f
	}
	escaped := strings.ReplaceAll(value, "'", "''")
	f.clauses = append(f.clauses, fmt.Sprintf("%s eq '%s'", field, escaped))
	return f
}

func (f *Filter) Empty() bool {
	return f == nil || len(f.clauses) == 0
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return strings.Join(f.clauses, " and ")
}
