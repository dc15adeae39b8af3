// Package table is an in-memory tabular query engine: free-text search,
// discrete filter criteria, column and strategy sorting, pagination with a
// compact page window, and key-based row selection.
//
// The engine is pure and synchronous. Callers hand it a dataset snapshot and
// a Query on every state change and receive a fresh Result; nothing is
// cached between calls, so concurrent callers need no locking. Malformed but
// well-typed input (unknown fields, out-of-range pages) degrades to defined
// fallbacks instead of failing. Panics raised by caller-supplied column
// functions propagate unchanged.
package table

// Query is the caller-owned view state applied to a dataset.
type Query struct {
	Search   string      `json:"search,omitempty"`
	Criteria []Criterion `json:"criteria,omitempty"`
	Sort     SortSpec    `json:"sort"`
	PaginationState
}

// Result is a display-ready page of rows.
type Result[T any] struct {
	Rows          []T          `json:"rows"`
	TotalCount    int          `json:"total_count"`
	FilteredCount int          `json:"filtered_count"`
	Page          int          `json:"page"`
	PageSize      int          `json:"page_size"`
	TotalPages    int          `json:"total_pages"`
	PageWindow    []WindowItem `json:"page_window"`
}

// Apply runs filter, sort and paginate over dataset, in that order.
func Apply[T any](dataset []T, q Query, reg *Registry[T]) Result[T] {
	filtered := Filter(dataset, q.Search, q.Criteria, reg)
	sorted := Sort(filtered, q.Sort, reg)
	page := Paginate(sorted, q.PaginationState)

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	return Result[T]{
		Rows:          page.Rows,
		TotalCount:    len(dataset),
		FilteredCount: len(filtered),
		Page:          page.Page,
		PageSize:      size,
		TotalPages:    page.TotalPages,
		PageWindow:    page.Window,
	}
}

// Matching returns every row the query matches, sorted but not paginated.
// Exports operate on this set rather than on the current page.
func Matching[T any](dataset []T, q Query, reg *Registry[T]) []T {
	return Sort(Filter(dataset, q.Search, q.Criteria, reg), q.Sort, reg)
}

// Facet is the number of rows carrying one value of a field.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets counts the values of field across the rows matching q with any
// criterion on field itself removed, so each option shows how many rows
// selecting it would yield. Values are returned in first-seen order. An
// unknown field yields no facets.
func Facets[T any](dataset []T, q Query, reg *Registry[T], field string) []Facet {
	col, ok := reg.Lookup(field)
	if !ok {
		return []Facet{}
	}

	criteria := make([]Criterion, 0, len(q.Criteria))
	for _, c := range q.Criteria {
		if c.Field != field {
			criteria = append(criteria, c)
		}
	}

	rows := Filter(dataset, q.Search, criteria, reg)
	index := make(map[string]int)
	out := []Facet{}
	for _, row := range rows {
		v := col.raw(row)
		if IsNull(v) {
			continue
		}
		s := Stringify(v)
		if i, ok := index[s]; ok {
			out[i].Count++
			continue
		}
		index[s] = len(out)
		out = append(out, Facet{Value: s, Count: 1})
	}
	return out
}
