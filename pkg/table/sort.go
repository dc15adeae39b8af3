package table

import "slices"

// Direction is a column sort direction.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// ParseDirection maps "desc"/"descending" to Descending and anything else to
// Ascending.
func ParseDirection(s string) Direction {
	switch s {
	case "desc", "descending":
		return Descending
	}
	return Ascending
}

// SortSpec selects either a single column and direction or a named strategy.
// Strategy takes precedence when both are set. The zero value leaves rows in
// input order.
type SortSpec struct {
	Key       string    `json:"key,omitempty"`
	Direction Direction `json:"direction,omitempty"`
	Strategy  string    `json:"strategy,omitempty"`
}

// ByColumn returns a column-keyed SortSpec.
func ByColumn(key string, dir Direction) SortSpec {
	return SortSpec{Key: key, Direction: dir}
}

// ByStrategy returns a SortSpec for a named strategy.
func ByStrategy(name string) SortSpec {
	return SortSpec{Strategy: name}
}

// Sort returns a stably sorted copy of rows. Unknown strategies, unknown
// columns and non-sortable columns yield the input order. Null column values
// sort after all others in either direction.
func Sort[T any](rows []T, spec SortSpec, reg *Registry[T]) []T {
	out := slices.Clone(rows)
	if out == nil {
		out = []T{}
	}

	if spec.Strategy != "" {
		cmp, ok := reg.Strategy(spec.Strategy)
		if !ok {
			return out
		}
		slices.SortStableFunc(out, cmp)
		return out
	}

	if spec.Key == "" {
		return out
	}
	col, ok := reg.Lookup(spec.Key)
	if !ok || !col.Sortable {
		return out
	}

	desc := spec.Direction == Descending
	slices.SortStableFunc(out, func(a, b T) int {
		aNull, bNull := IsNull(col.raw(a)), IsNull(col.raw(b))
		switch {
		case aNull && bNull:
			return 0
		case aNull:
			return 1
		case bNull:
			return -1
		}
		c := col.compare(a, b)
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Chain combines comparators: each later comparator only breaks ties left by
// the earlier ones.
func Chain[T any](cmps ...Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

// By builds an ascending comparator from a value accessor using
// CompareValues, with null values last.
func By[T any](value func(T) any) Comparator[T] {
	return byValue(value, false)
}

// ByDesc is By in descending order. Null values still sort last.
func ByDesc[T any](value func(T) any) Comparator[T] {
	return byValue(value, true)
}

func byValue[T any](value func(T) any, desc bool) Comparator[T] {
	return func(a, b T) int {
		av, bv := value(a), value(b)
		aNull, bNull := IsNull(av), IsNull(bv)
		switch {
		case aNull && bNull:
			return 0
		case aNull:
			return 1
		case bNull:
			return -1
		}
		c := CompareValues(av, bv)
		if desc {
			return -c
		}
		return c
	}
}
