package table

import (
	"reflect"
	"strings"
)

// All is the criterion value that matches every row.
const All = "all"

// Criterion is a discrete equality constraint on one column.
type Criterion struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Inert reports whether the criterion matches everything.
func (c Criterion) Inert() bool {
	s, ok := c.Value.(string)
	return ok && s == All
}

// Filter returns the rows that contain search in at least one searchable
// column and satisfy every criterion. The input slice is not modified.
//
// A criterion naming a column the registry does not know matches no rows.
func Filter[T any](rows []T, search string, criteria []Criterion, reg *Registry[T]) []T {
	out := make([]T, 0, len(rows))

	active := make([]*Column[T], 0, len(criteria))
	values := make([]any, 0, len(criteria))
	for _, c := range criteria {
		if c.Inert() {
			continue
		}
		col, ok := reg.Lookup(c.Field)
		if !ok {
			return out
		}
		active = append(active, col)
		values = append(values, c.Value)
	}

	needle := strings.ToLower(search)
	var searchable []*Column[T]
	if needle != "" {
		for i := range reg.columns {
			if reg.columns[i].Searchable {
				searchable = append(searchable, &reg.columns[i])
			}
		}
	}

	for _, row := range rows {
		if needle != "" && !matchesSearch(row, needle, searchable) {
			continue
		}
		if !matchesCriteria(row, active, values) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesSearch[T any](row T, needle string, cols []*Column[T]) bool {
	for _, col := range cols {
		v := col.text(row)
		if IsNull(v) {
			continue
		}
		if strings.Contains(strings.ToLower(Stringify(v)), needle) {
			return true
		}
	}
	return false
}

func matchesCriteria[T any](row T, cols []*Column[T], values []any) bool {
	for i, col := range cols {
		if !Equal(col.raw(row), values[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether a raw column value equals a criterion value. Values
// of the same comparable type use ==, and numbers of different Go types
// compare by value, so a JSON-decoded float64 matches an int column. A
// string criterion also matches the rendered form of the raw value, so "3",
// "true" and "Web Apps" work when they arrive from a query string.
func Equal(raw, want any) bool {
	if IsNull(raw) {
		return IsNull(want)
	}
	raw, want = deref(raw), deref(want)
	if comparableEqual(raw, want) {
		return true
	}
	if rf, ok := toFloat(raw); ok {
		if wf, ok := toFloat(want); ok {
			return rf == wf
		}
	}
	if s, ok := want.(string); ok {
		return Stringify(raw) == s
	}
	return false
}

func comparableEqual(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || tb == nil || ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
