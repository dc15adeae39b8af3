// Package dataset exposes a table.Registry-described dataset over HTTP:
// paged listing, CSV export, facet counts and selection updates. Every
// request takes a fresh snapshot and re-runs the engine; the only state
// shared between requests is the snapshot cache behind the source.
package dataset

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/HerbHall/tabula/pkg/table"
)

// Paging bounds applied to the page_size parameter.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

func (p Paging) normalize() Paging {
	if p.DefaultSize <= 0 {
		p.DefaultSize = table.DefaultPageSize
	}
	if p.MaxSize <= 0 {
		p.MaxSize = 100
	}
	if p.DefaultSize > p.MaxSize {
		p.DefaultSize = p.MaxSize
	}
	return p
}

// ParseQuery builds a table.Query from URL parameters:
//
//	search=<text>
//	sort=<column>&order=asc|desc
//	strategy=<name>          (takes precedence over sort)
//	page=<n>&page_size=<n>
//	filter=<field>:<value>   (repeatable)
//
// Malformed numbers fall back to defaults and filters without a colon are
// ignored, so a query string never produces an error.
func ParseQuery(v url.Values, paging Paging) table.Query {
	paging = paging.normalize()

	q := table.Query{
		Search: strings.TrimSpace(v.Get("search")),
		PaginationState: table.PaginationState{
			Page:     1,
			PageSize: paging.DefaultSize,
		},
	}

	if strategy := v.Get("strategy"); strategy != "" {
		q.Sort = table.ByStrategy(strategy)
	} else if key := v.Get("sort"); key != "" {
		q.Sort = table.ByColumn(key, table.ParseDirection(v.Get("order")))
	}

	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(v.Get("page_size")); err == nil && n > 0 {
		q.PageSize = min(n, paging.MaxSize)
	}

	for _, raw := range v["filter"] {
		field, value, ok := strings.Cut(raw, ":")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			continue
		}
		q.Criteria = append(q.Criteria, table.Criterion{Field: field, Value: value})
	}
	return q
}

// Encode renders q back into URL parameters understood by ParseQuery.
func Encode(q table.Query) url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	switch {
	case q.Sort.Strategy != "":
		v.Set("strategy", q.Sort.Strategy)
	case q.Sort.Key != "":
		v.Set("sort", q.Sort.Key)
		order := "asc"
		if q.Sort.Direction == table.Descending {
			order = "desc"
		}
		v.Set("order", order)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	for _, c := range q.Criteria {
		v.Add("filter", c.Field+":"+table.Stringify(c.Value))
	}
	return v
}
