package database

import (
	"fmt"
	"strings"
)

// Filter accumulates WHERE conditions with positional $n arguments.
// Conditions use "?" as the placeholder for their single argument.
type Filter struct {
	conds []string
	args  []interface{}
}

func NewFilter() *Filter {
	return &Filter{}
}

// Where adds a condition. A "?" in cond is replaced by the next $n placeholder.
func (f *Filter) Where(cond string, args ...interface{}) *Filter {
	for _, arg := range args {
		f.args = append(f.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(f.args)), 1)
	}
	f.conds = append(f.conds, cond)
	return f
}

// WhereIf adds the condition only when ok is true.
func (f *Filter) WhereIf(ok bool, cond string, args ...interface{}) *Filter {
	if ok {
		return f.Where(cond, args...)
	}
	return f
}

// Search adds an ILIKE match of term against any of the columns.
func (f *Filter) Search(term string, columns ...string) *Filter {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return f
	}
	f.args = append(f.args, "%"+term+"%")
	ph := fmt.Sprintf("$%d", len(f.args))
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + " ILIKE " + ph
	}
	f.conds = append(f.conds, "("+strings.Join(parts, " OR ")+")")
	return f
}

// Clause returns " WHERE a AND b" or an empty string.
func (f *Filter) Clause() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

func (f *Filter) Args() []interface{} {
	return f.args
}

// Arg appends a bare argument, for placeholders that sit outside the WHERE clause.
func (f *Filter) Arg(v interface{}) string {
	f.args = append(f.args, v)
	return fmt.Sprintf("$%d", len(f.args))
}

// Next returns the placeholder the next appended argument would take.
func (f *Filter) Next() string {
	return fmt.Sprintf("$%d", len(f.args)+1)
}

// Page appends LIMIT/OFFSET placeholders and returns the suffix and full args.
func (f *Filter) Page(limit, offset int) (string, []interface{}) {
	args := append(append([]interface{}{}, f.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
