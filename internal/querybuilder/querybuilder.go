// Package querybuilder assembles positional-parameter SQL from an ordered list of
// predicates. Column and table names come from code, never from requests; every
// request value travels as a bound argument.
package querybuilder

import (
	"fmt"
	"strings"
)

type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Predicate is one "column op $n" clause together with its argument.
type Predicate struct {
	Column string
	Op     Op
	Arg    any
}

func Eq(column string, arg any) Predicate  { return Predicate{Column: column, Op: OpEq, Arg: arg} }
func Gte(column string, arg any) Predicate { return Predicate{Column: column, Op: OpGte, Arg: arg} }
func Lte(column string, arg any) Predicate { return Predicate{Column: column, Op: OpLte, Arg: arg} }

// Where joins predicates with AND in the order they were added.
type Where []Predicate

// build renders the clause with placeholders numbered from next. It returns the
// clause ("" when empty), the args and the next free placeholder index.
func (w Where) build(next int) (string, []any, int) {
	if len(w) == 0 {
		return "", nil, next
	}

	conds := make([]string, 0, len(w))
	args := make([]any, 0, len(w))
	for _, p := range w {
		conds = append(conds, fmt.Sprintf("%s %s $%d", p.Column, p.Op, next))
		args = append(args, p.Arg)
		next++
	}

	return " WHERE " + strings.Join(conds, " AND "), args, next
}

// Select builds a read query. Limit <= 0 means no LIMIT clause.
type Select struct {
	Columns []string
	From    string
	Where   Where
	GroupBy []string
	OrderBy []string
	Limit   int
}

func (s Select) Build() (string, []any) {
	var b strings.Builder

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.From)

	where, args, next := s.Where.build(1)
	b.WriteString(where)

	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(s.GroupBy, ", "))
	}
	if len(s.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.OrderBy, ", "))
	}
	if s.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT $%d", next)
		args = append(args, s.Limit)
	}

	return b.String(), args
}

// Assignment is one "column = <expr>" entry of an UPDATE SET list.
type Assignment struct {
	Column string
	scale  bool
	Arg    any
}

func Set(column string, arg any) Assignment { return Assignment{Column: column, Arg: arg} }

// Scale renders "column = column * $n".
func Scale(column string, factor float64) Assignment {
	return Assignment{Column: column, scale: true, Arg: factor}
}

type Update struct {
	Table string
	Set   []Assignment
	Where Where
}

func (u Update) Build() (string, []any, error) {
	if len(u.Set) == 0 {
		return "", nil, fmt.Errorf("update %s: no assignments", u.Table)
	}

	sets := make([]string, 0, len(u.Set))
	args := make([]any, 0, len(u.Set)+len(u.Where))
	next := 1

	for _, a := range u.Set {
		if a.scale {
			sets = append(sets, fmt.Sprintf("%s = %s * $%d", a.Column, a.Column, next))
		} else {
			sets = append(sets, fmt.Sprintf("%s = $%d", a.Column, next))
		}
		args = append(args, a.Arg)
		next++
	}

	where, whereArgs, _ := u.Where.build(next)
	args = append(args, whereArgs...)

	return "UPDATE " + u.Table + " SET " + strings.Join(sets, ", ") + where, args, nil
}
