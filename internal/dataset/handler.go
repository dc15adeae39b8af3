package dataset

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/server"
	"github.com/HerbHall/tabula/internal/services"
	"github.com/HerbHall/tabula/pkg/plugin"
	"github.com/HerbHall/tabula/pkg/table"
)

// Definition binds a dataset name to its rows, column metadata and CSV form.
type Definition[T any] struct {
	Name     string
	Source   services.Snapshotter[T]
	Registry *table.Registry[T]
	Export   Exporter[T]
}

// Handler serves one dataset.
type Handler[T any] struct {
	def     Definition[T]
	paging  Paging
	metrics *Metrics
	logger  *zap.Logger
}

// NewHandler creates a Handler. metrics may be nil.
func NewHandler[T any](def Definition[T], paging Paging, metrics *Metrics, logger *zap.Logger) *Handler[T] {
	return &Handler[T]{
		def:     def,
		paging:  paging.normalize(),
		metrics: metrics,
		logger:  logger,
	}
}

// Name returns the dataset name.
func (h *Handler[T]) Name() string {
	return h.def.Name
}

// Routes returns the dataset routes mounted under prefix.
func (h *Handler[T]) Routes(prefix string, protected bool) []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodGet, Path: prefix, Handler: h.handleList, Protected: protected},
		{Method: http.MethodGet, Path: prefix + "/export", Handler: h.handleExport, Protected: protected},
		{Method: http.MethodGet, Path: prefix + "/facets/{field}", Handler: h.handleFacets, Protected: protected},
		{Method: http.MethodPost, Path: prefix + "/selection", Handler: h.handleSelection, Protected: protected},
	}
}

// ListResponse is a page of rows plus the caller's selection state.
type ListResponse[T any] struct {
	table.Result[T]
	Strategies  []string        `json:"strategies"`
	Selected    table.Selection `json:"selected"`
	AllSelected bool            `json:"all_selected"`
}

// FacetResponse lists the value counts of one column.
type FacetResponse struct {
	Field  string        `json:"field"`
	Facets []table.Facet `json:"facets"`
}

// SelectionRequest applies one selection action. Query is the list query
// string the caller is viewing, which defines the visible page.
type SelectionRequest struct {
	Query    string   `json:"query"`
	Selected []string `json:"selected"`
	Action   string   `json:"action" validate:"required,oneof=toggle select_visible deselect_visible clear retain"`
	Key      string   `json:"key" validate:"required_if=Action toggle"`
}

// SelectionResponse is the selection after an action.
type SelectionResponse struct {
	Selected    table.Selection `json:"selected"`
	Count       int             `json:"count"`
	AllSelected bool            `json:"all_selected"`
}

func (h *Handler[T]) snapshot(w http.ResponseWriter, r *http.Request) ([]T, bool) {
	rows, err := h.def.Source.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("load dataset snapshot",
			zap.String("dataset", h.def.Name),
			zap.Error(err),
		)
		server.InternalError(w, "failed to load "+h.def.Name, r.URL.Path)
		return nil, false
	}
	return rows, true
}

// handleList returns one page of the dataset.
//
//	@Summary		List dataset rows
//	@Description	Applies search, filters, sorting and pagination to the dataset.
//	@Produce		json
//	@Param			search query string false "Case-insensitive substring search"
//	@Param			sort query string false "Column key to sort by"
//	@Param			order query string false "asc or desc" default(asc)
//	@Param			strategy query string false "Named sort strategy"
//	@Param			page query int false "1-based page number" default(1)
//	@Param			page_size query int false "Rows per page"
//	@Param			filter query []string false "field:value criteria" collectionFormat(multi)
//	@Param			selected query []string false "Currently selected row keys" collectionFormat(multi)
//	@Success		200 {object} map[string]any
//	@Failure		500 {object} server.Problem
func (h *Handler[T]) handleList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rows, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	params := r.URL.Query()
	q := ParseQuery(params, h.paging)
	result := table.Apply(rows, q, h.def.Registry)

	sel := table.NewSelection(params["selected"]...).Retain(h.def.Registry.Keys(rows))

	h.metrics.observe(h.def.Name, KindList, start, len(rows))
	server.WriteJSON(w, http.StatusOK, ListResponse[T]{
		Result:      result,
		Strategies:  h.def.Registry.StrategyNames(),
		Selected:    sel,
		AllSelected: sel.AllSelected(h.def.Registry.Keys(result.Rows)),
	})
}

// handleExport streams every matching row as CSV.
//
//	@Summary	Export dataset rows as CSV
//	@Produce	text/csv
//	@Success	200 {string} string
//	@Failure	500 {object} server.Problem
func (h *Handler[T]) handleExport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rows, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	q := ParseQuery(r.URL.Query(), h.paging)
	matching := table.Matching(rows, q, h.def.Registry)

	var buf bytes.Buffer
	if err := h.def.Export.WriteCSV(&buf, matching); err != nil {
		h.logger.Error("export csv", zap.String("dataset", h.def.Name), zap.Error(err))
		server.InternalError(w, "failed to export "+h.def.Name, r.URL.Path)
		return
	}

	h.metrics.observe(h.def.Name, KindExport, start, len(rows))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, h.def.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleFacets counts the values of one column under the current query.
//
//	@Summary	Count column values
//	@Produce	json
//	@Param		field path string true "Column key"
//	@Success	200 {object} FacetResponse
//	@Failure	404 {object} server.Problem
func (h *Handler[T]) handleFacets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	field := r.PathValue("field")
	if _, ok := h.def.Registry.Lookup(field); !ok {
		server.NotFound(w, fmt.Sprintf("%s has no column %q", h.def.Name, field), r.URL.Path)
		return
	}

	rows, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	q := ParseQuery(r.URL.Query(), h.paging)
	facets := table.Facets(rows, q, h.def.Registry, field)

	h.metrics.observe(h.def.Name, KindFacets, start, len(rows))
	server.WriteJSON(w, http.StatusOK, FacetResponse{Field: field, Facets: facets})
}

// handleSelection applies a selection action and returns the new selection.
//
//	@Summary	Update a row selection
//	@Accept		json
//	@Produce	json
//	@Param		request body SelectionRequest true "Selection action"
//	@Success	200 {object} SelectionResponse
//	@Failure	400 {object} server.Problem
func (h *Handler[T]) handleSelection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req SelectionRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	params, err := url.ParseQuery(req.Query)
	if err != nil {
		server.BadRequest(w, "invalid query: "+err.Error(), r.URL.Path)
		return
	}

	rows, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	result := table.Apply(rows, ParseQuery(params, h.paging), h.def.Registry)
	visible := h.def.Registry.Keys(result.Rows)

	sel := table.NewSelection(req.Selected...)
	switch req.Action {
	case "toggle":
		sel = sel.Toggle(req.Key)
	case "select_visible":
		sel = sel.SelectAllVisible(visible)
	case "deselect_visible":
		sel = sel.DeselectAllVisible(visible)
	case "clear":
		sel = sel.Clear()
	case "retain":
		sel = sel.Retain(h.def.Registry.Keys(rows))
	}

	h.metrics.observe(h.def.Name, KindSelection, start, len(rows))
	server.WriteJSON(w, http.StatusOK, SelectionResponse{
		Selected:    sel,
		Count:       sel.Len(),
		AllSelected: sel.AllSelected(visible),
	})
}
