package table

import (
	"encoding/json"
	"fmt"
)

// DefaultPageSize is used when a PaginationState carries no positive size.
const DefaultPageSize = 10

// windowSize is the number of page slots the window aims to show.
const windowSize = 5

// PaginationState is the requested page (1-based) and page size.
type PaginationState struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// WindowItem is one slot of a page window: a page number or an ellipsis.
type WindowItem struct {
	Page     int
	Ellipsis bool
}

// Ellipsis is the gap marker in a page window.
var Ellipsis = WindowItem{Ellipsis: true}

// PageItem returns a numbered window slot.
func PageItem(n int) WindowItem {
	return WindowItem{Page: n}
}

func (w WindowItem) String() string {
	if w.Ellipsis {
		return "ellipsis"
	}
	return fmt.Sprint(w.Page)
}

// MarshalJSON renders page slots as numbers and gaps as "ellipsis".
func (w WindowItem) MarshalJSON() ([]byte, error) {
	if w.Ellipsis {
		return []byte(`"ellipsis"`), nil
	}
	return json.Marshal(w.Page)
}

// UnmarshalJSON accepts a number or the string "ellipsis".
func (w *WindowItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "ellipsis" {
			return fmt.Errorf("table: invalid page window item %q", s)
		}
		*w = Ellipsis
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("table: invalid page window item: %w", err)
	}
	*w = PageItem(n)
	return nil
}

// Page is one slice of a collection plus its navigation metadata.
type Page[T any] struct {
	Rows       []T
	Page       int
	TotalPages int
	Window     []WindowItem
}

// Paginate slices rows into the requested page. Out-of-range pages clamp to
// the nearest valid page; an empty collection has a single empty page.
func Paginate[T any](rows []T, state PaginationState) Page[T] {
	size := state.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	total := TotalPages(len(rows), size)
	page := min(max(state.Page, 1), total)

	// page <= total keeps (page-1)*size below len(rows); end is computed
	// from the remainder so start+size cannot overflow.
	start := min((page-1)*size, len(rows))
	end := start + min(size, len(rows)-start)

	out := make([]T, end-start)
	copy(out, rows[start:end])

	return Page[T]{
		Rows:       out,
		Page:       page,
		TotalPages: total,
		Window:     Window(total, page),
	}
}

// TotalPages is max(1, ceil(n/size)).
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	pages := n / size
	if n%size != 0 {
		pages++
	}
	return pages
}

// Window computes the abbreviated page list for navigation controls:
//
//	total <= 5:        1 .. total
//	page <= 3:         1 2 3 4 … total
//	page >= total-2:   1 … total-3 .. total
//	otherwise:         1 … page-1 page page+1 … total
func Window(total, page int) []WindowItem {
	if total < 1 {
		total = 1
	}
	page = min(max(page, 1), total)

	if total <= windowSize {
		out := make([]WindowItem, 0, total)
		for i := 1; i <= total; i++ {
			out = append(out, PageItem(i))
		}
		return out
	}

	switch {
	case page <= 3:
		return []WindowItem{PageItem(1), PageItem(2), PageItem(3), PageItem(4), Ellipsis, PageItem(total)}
	case page >= total-2:
		return []WindowItem{PageItem(1), Ellipsis, PageItem(total - 3), PageItem(total - 2), PageItem(total - 1), PageItem(total)}
	default:
		return []WindowItem{PageItem(1), Ellipsis, PageItem(page - 1), PageItem(page), PageItem(page + 1), Ellipsis, PageItem(total)}
	}
}
