package table

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// KeyFunc returns the stable identifier of a row.
type KeyFunc[T any] func(row T) string

// Comparator orders two rows, returning -1, 0 or 1.
type Comparator[T any] func(a, b T) int

// Column describes how one field of a row participates in search, filtering
// and sorting.
type Column[T any] struct {
	Key        string
	Searchable bool
	Sortable   bool

	// Value returns the raw field value. It drives criterion equality,
	// null detection and the default comparator.
	Value func(row T) any

	// Text returns the search haystack. Defaults to Value.
	Text func(row T) any

	// Compare overrides the default comparison of Value.
	Compare Comparator[T]
}

func (c *Column[T]) raw(row T) any {
	if c.Value == nil {
		return nil
	}
	return c.Value(row)
}

func (c *Column[T]) text(row T) any {
	if c.Text != nil {
		return c.Text(row)
	}
	return c.raw(row)
}

func (c *Column[T]) compare(a, b T) int {
	if c.Compare != nil {
		return c.Compare(a, b)
	}
	return CompareValues(c.raw(a), c.raw(b))
}

// Registry is the column metadata for one dataset: its columns, the row key
// and any named composite sort strategies.
type Registry[T any] struct {
	key        KeyFunc[T]
	columns    []Column[T]
	index      map[string]int
	strategies map[string]Comparator[T]
}

// NewRegistry creates a Registry. Later columns with a duplicate key replace
// earlier ones.
func NewRegistry[T any](key KeyFunc[T], columns ...Column[T]) *Registry[T] {
	r := &Registry[T]{
		key:        key,
		index:      make(map[string]int, len(columns)),
		strategies: make(map[string]Comparator[T]),
	}
	for _, c := range columns {
		if i, ok := r.index[c.Key]; ok {
			r.columns[i] = c
			continue
		}
		r.index[c.Key] = len(r.columns)
		r.columns = append(r.columns, c)
	}
	return r
}

// WithStrategy registers a named comparator and returns the registry.
// The comparator should end with a tie-break that is unique per row so that
// the resulting order is fully deterministic.
func (r *Registry[T]) WithStrategy(name string, c Comparator[T]) *Registry[T] {
	r.strategies[name] = c
	return r
}

// Key returns the row identifier for row.
func (r *Registry[T]) Key(row T) string {
	return r.key(row)
}

// Keys returns the identifiers of rows in order.
func (r *Registry[T]) Keys(rows []T) []string {
	keys := make([]string, len(rows))
	for i := range rows {
		keys[i] = r.key(rows[i])
	}
	return keys
}

// Lookup returns the column registered under key.
func (r *Registry[T]) Lookup(key string) (*Column[T], bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return &r.columns[i], true
}

// Columns returns a copy of the registered columns in declaration order.
func (r *Registry[T]) Columns() []Column[T] {
	out := make([]Column[T], len(r.columns))
	copy(out, r.columns)
	return out
}

// Strategy returns the comparator registered under name.
func (r *Registry[T]) Strategy(name string) (Comparator[T], bool) {
	c, ok := r.strategies[name]
	return c, ok
}

// StrategyNames lists the registered strategy names.
func (r *Registry[T]) StrategyNames() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsNull reports whether v is nil, a nil pointer, or a nil slice or map.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// deref unwraps non-nil pointers so *int and int compare alike.
func deref(v any) any {
	for {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return v
		}
		v = rv.Elem().Interface()
	}
}

// CompareValues is the default column comparator. Numbers compare
// numerically, strings lexically, false sorts before true and times
// chronologically. Mismatched types fall back to comparing their string
// forms. Null handling is the caller's responsibility.
func CompareValues(a, b any) int {
	a, b = deref(a), deref(b)

	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf)
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}

	return cmp.Compare(Stringify(a), Stringify(b))
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Stringify renders a scalar in plain, locale-free form: integers and floats
// in shortest decimal notation, times in RFC 3339, string slices joined by a
// space. Null values render as the empty string.
func Stringify(v any) string {
	if IsNull(v) {
		return ""
	}
	v = deref(v)
	switch s := v.(type) {
	case string:
		return s
	case []string:
		return strings.Join(s, " ")
	case time.Time:
		return s.Format(time.RFC3339)
	case fmt.Stringer:
		return s.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
