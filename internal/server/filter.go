package server

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type columnKind int

const (
	kindText columnKind = iota
	kindBool
	kindInt
	kindTime
)

// filterable lists the task columns a request may filter or order by.
var filterable = map[string]columnKind{
	"id":          kindText,
	"title":       kindText,
	"description": kindText,
	"completed":   kindBool,
	"priority":    kindText,
	"category_id": kindText,
	"due_date":    kindTime,
	"reminder_at": kindTime,
	"position":    kindInt,
	"recurrence":  kindText,
	"created_at":  kindTime,
	"updated_at":  kindTime,
}

// reserved query keys are not column filters.
var reserved = map[string]bool{
	"select": true,
	"order":  true,
	"limit":  true,
	"offset": true,
}

var comparisons = map[string]string{
	"eq":  "=",
	"neq": "<>",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

// selection is a parsed row filter. Conditions are ANDed, including
// repeated conditions on the same column.
type selection struct {
	where  []string
	args   []any
	order  []string
	limit  int
	offset int
}

// hasFilter reports whether any column condition was given.
func (s selection) hasFilter() bool {
	return len(s.where) > 0
}

// clause renders the conditions after the mandatory owner condition.
func (s selection) clause() string {
	if len(s.where) == 0 {
		return ""
	}
	return " AND " + strings.Join(s.where, " AND ")
}

// parseSelection reads PostgREST-style filters: col=op.value with op one of
// eq, neq, gt, gte, lt, lte, like, ilike, in and is.
func parseSelection(values url.Values) (selection, error) {
	var sel selection

	for key, vals := range values {
		if reserved[key] {
			continue
		}
		kind, ok := filterable[key]
		if !ok {
			return sel, badRequest(fmt.Sprintf("unknown column %q", key))
		}
		for _, raw := range vals {
			if err := sel.addCondition(key, kind, raw); err != nil {
				return sel, err
			}
		}
	}

	if o := values.Get("order"); o != "" {
		order, err := parseOrder(o)
		if err != nil {
			return sel, err
		}
		sel.order = order
	}

	var err error
	if sel.limit, err = nonNegative(values, "limit"); err != nil {
		return sel, err
	}
	if sel.offset, err = nonNegative(values, "offset"); err != nil {
		return sel, err
	}

	return sel, nil
}

func (s *selection) addCondition(col string, kind columnKind, raw string) error {
	op, operand, ok := strings.Cut(raw, ".")
	if !ok {
		return badRequest(fmt.Sprintf("malformed filter %s=%s", col, raw))
	}

	if sqlOp, ok := comparisons[op]; ok {
		v, err := convert(kind, operand)
		if err != nil {
			return badRequest(fmt.Sprintf("filter %s: %v", col, err))
		}
		s.where = append(s.where, col+" "+sqlOp+" ?")
		s.args = append(s.args, v)
		return nil
	}

	switch op {
	case "like", "ilike":
		if kind != kindText {
			return badRequest(fmt.Sprintf("filter %s: %s needs a text column", col, op))
		}
		cond := "LOWER(" + col + ") LIKE LOWER(?)"
		if op == "like" {
			cond = col + " LIKE ?"
		}
		s.where = append(s.where, cond)
		s.args = append(s.args, strings.ReplaceAll(operand, "*", "%"))

	case "in":
		items, err := parseList(operand)
		if err != nil {
			return badRequest(fmt.Sprintf("filter %s: %v", col, err))
		}
		if len(items) == 0 {
			s.where = append(s.where, "1 = 0")
			return nil
		}
		marks := make([]string, len(items))
		for i, item := range items {
			v, err := convert(kind, item)
			if err != nil {
				return badRequest(fmt.Sprintf("filter %s: %v", col, err))
			}
			marks[i] = "?"
			s.args = append(s.args, v)
		}
		s.where = append(s.where, col+" IN ("+strings.Join(marks, ", ")+")")

	case "is":
		switch operand {
		case "null":
			s.where = append(s.where, col+" IS NULL")
		case "true", "false":
			s.where = append(s.where, col+" = ?")
			s.args = append(s.args, operand == "true")
		default:
			return badRequest(fmt.Sprintf("filter %s: is.%s is not supported", col, operand))
		}

	default:
		return badRequest(fmt.Sprintf("filter %s: unknown operator %q", col, op))
	}

	return nil
}

// parseList splits "(a,b)" honouring double-quoted items.
func parseList(operand string) ([]string, error) {
	if !strings.HasPrefix(operand, "(") || !strings.HasSuffix(operand, ")") {
		return nil, fmt.Errorf("list must be parenthesized")
	}
	inner := operand[1 : len(operand)-1]
	if strings.TrimSpace(inner) == "" {
		return nil, nil
	}
	r := csv.NewReader(strings.NewReader(inner))
	r.LazyQuotes = true
	items, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading list: %w", err)
	}
	return items, nil
}

func convert(kind columnKind, s string) (any, error) {
	switch kind {
	case kindBool:
		return strconv.ParseBool(s)
	case kindInt:
		return strconv.Atoi(s)
	case kindTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	}
	return s, nil
}

// parseOrder reads "col.dir[.nullsfirst|.nullslast],..." into ORDER BY
// terms. Nulls sort last unless asked otherwise.
func parseOrder(raw string) ([]string, error) {
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Split(strings.TrimSpace(part), ".")
		col := fields[0]
		if _, ok := filterable[col]; !ok {
			return nil, badRequest(fmt.Sprintf("cannot order by %q", col))
		}

		dir, nullsFirst := "ASC", false
		for _, f := range fields[1:] {
			switch f {
			case "asc":
				dir = "ASC"
			case "desc":
				dir = "DESC"
			case "nullsfirst":
				nullsFirst = true
			case "nullslast":
				nullsFirst = false
			default:
				return nil, badRequest(fmt.Sprintf("bad order modifier %q", f))
			}
		}

		nulls := "CASE WHEN " + col + " IS NULL THEN 1 ELSE 0 END"
		if nullsFirst {
			nulls += " DESC"
		}
		terms = append(terms, nulls, col+" "+dir)
	}
	return terms, nil
}

func nonNegative(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest(fmt.Sprintf("%s must be a non-negative integer", key))
	}
	return n, nil
}
