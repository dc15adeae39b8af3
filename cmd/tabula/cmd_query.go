package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/admin"
	"github.com/HerbHall/tabula/internal/catalog"
	"github.com/HerbHall/tabula/internal/dataset"
	"github.com/HerbHall/tabula/internal/services"
	"github.com/HerbHall/tabula/pkg/models"
	"github.com/HerbHall/tabula/pkg/table"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

var queryFlags struct {
	search   string
	sort     string
	order    string
	strategy string
	page     int
	pageSize int
	filters  []string
	format   string
}

var exportOutput string

var queryCmd = &cobra.Command{
	Use:   "query <dataset>",
	Short: "Search, filter, sort and page a dataset",
	Example: `  tabula query projects --search go --sort stars --order desc
  tabula query formations --filter level:beginner --strategy upcoming
  tabula query registrations --filter status:pending --format json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: datasetNames(),
	RunE:      runQuery,
}

var exportCmd = &cobra.Command{
	Use:       "export <dataset>",
	Short:     "Write every row matching the query as CSV",
	Args:      cobra.ExactArgs(1),
	ValidArgs: datasetNames(),
	RunE:      runExport,
}

func init() {
	for _, cmd := range []*cobra.Command{queryCmd, exportCmd} {
		f := cmd.Flags()
		f.StringVarP(&queryFlags.search, "search", "s", "", "case-insensitive text to find in searchable columns")
		f.StringVar(&queryFlags.sort, "sort", "", "column to sort by")
		f.StringVar(&queryFlags.order, "order", "asc", "sort order: asc or desc")
		f.StringVar(&queryFlags.strategy, "strategy", "", "named sort strategy (overrides --sort)")
		f.StringArrayVarP(&queryFlags.filters, "filter", "f", nil, "field:value criterion, repeatable")
	}
	queryCmd.Flags().IntVar(&queryFlags.page, "page", 1, "page number")
	queryCmd.Flags().IntVar(&queryFlags.pageSize, "page-size", table.DefaultPageSize, "rows per page")
	queryCmd.Flags().StringVar(&queryFlags.format, "format", formatTable, "output format: table, json or csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}

// boundDataset ties a snapshot source to the registry and CSV layout used
// to query and render it.
type boundDataset[T any] struct {
	source   services.Snapshotter[T]
	registry *table.Registry[T]
	export   dataset.Exporter[T]
}

// queryable hides the row type so datasets of different types can share a
// lookup table.
type queryable interface {
	query(ctx context.Context, q table.Query, format string, w io.Writer) error
	exportAll(ctx context.Context, q table.Query, w io.Writer) error
	strategies() []string
}

func (b boundDataset[T]) query(ctx context.Context, q table.Query, format string, w io.Writer) error {
	rows, err := b.source.Snapshot(ctx)
	if err != nil {
		return err
	}
	res := table.Apply(rows, q, b.registry)

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case formatCSV:
		return b.export.WriteCSV(w, res.Rows)
	case formatTable:
		if err := b.writeTable(w, res.Rows); err != nil {
			return err
		}
		fmt.Fprintln(w, summary(res.Page, res.PageSize, len(res.Rows), res.FilteredCount, res.TotalCount))
		fmt.Fprintln(w, pageLine(res.PageWindow, res.Page))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}
}

func (b boundDataset[T]) exportAll(ctx context.Context, q table.Query, w io.Writer) error {
	rows, err := b.source.Snapshot(ctx)
	if err != nil {
		return err
	}
	return b.export.WriteCSV(w, table.Matching(rows, q, b.registry))
}

func (b boundDataset[T]) strategies() []string {
	return b.registry.StrategyNames()
}

func (b boundDataset[T]) writeTable(w io.Writer, rows []T) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(b.export.Header, "\t")))
	for i := range rows {
		cells := b.export.Row(rows[i])
		for j, c := range cells {
			cells[j] = truncate(c, 40)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// bindDatasets exposes every dataset the CLI can query. Formations are
// listed unfiltered, the way the admin dashboard sees them.
func bindDatasets(ds *services.Datasets) map[string]queryable {
	return map[string]queryable{
		services.DatasetProjects: boundDataset[models.Project]{
			source:   ds.Projects(),
			registry: catalog.ProjectRegistry(),
			export:   catalog.ProjectExport,
		},
		services.DatasetFormations: boundDataset[models.Formation]{
			source:   ds.Formations(),
			registry: catalog.FormationRegistry(),
			export:   catalog.FormationExport,
		},
		services.DatasetRegistrations: boundDataset[models.Registration]{
			source:   ds.Registrations(),
			registry: admin.RegistrationRegistry(),
			export:   admin.RegistrationExport,
		},
		services.DatasetMessages: boundDataset[models.Message]{
			source:   ds.Messages(),
			registry: admin.MessageRegistry(),
			export:   admin.MessageExport,
		},
	}
}

func datasetNames() []string {
	return []string{
		services.DatasetProjects,
		services.DatasetFormations,
		services.DatasetRegistrations,
		services.DatasetMessages,
	}
}

// buildQuery turns the shared flags into a query through the same parser
// the HTTP API uses, so both surfaces accept identical syntax.
func buildQuery(paging bool) table.Query {
	v := url.Values{}
	if queryFlags.search != "" {
		v.Set("search", queryFlags.search)
	}
	if queryFlags.sort != "" {
		v.Set("sort", queryFlags.sort)
		v.Set("order", queryFlags.order)
	}
	if queryFlags.strategy != "" {
		v.Set("strategy", queryFlags.strategy)
	}
	for _, f := range queryFlags.filters {
		v.Add("filter", f)
	}

	p := dataset.Paging{DefaultSize: table.DefaultPageSize, MaxSize: 1000}
	if paging {
		v.Set("page", strconv.Itoa(queryFlags.page))
		v.Set("page_size", strconv.Itoa(queryFlags.pageSize))
	}
	return dataset.ParseQuery(v, p)
}

func lookupDataset(a *app, name string) (queryable, error) {
	d, ok := bindDatasets(a.datasets)[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q (want one of %s)", name, strings.Join(datasetNames(), ", "))
	}
	if queryFlags.strategy != "" && !slices.Contains(d.strategies(), queryFlags.strategy) {
		fmt.Fprintln(os.Stderr, color.YellowString("warning:"),
			fmt.Sprintf("unknown strategy %q keeps the stored order (available: %s)",
				queryFlags.strategy, strings.Join(d.strategies(), ", ")))
	}
	return d, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := lookupDataset(a, args[0])
	if err != nil {
		return err
	}
	return d.query(cmd.Context(), buildQuery(true), queryFlags.format, cmd.OutOrStdout())
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	a, err := newApp(cmd.Context(), zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := lookupDataset(a, args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if exportOutput != "" {
		f, ferr := os.Create(exportOutput)
		if ferr != nil {
			return fmt.Errorf("create %s: %w", exportOutput, ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	if err := d.exportAll(cmd.Context(), buildQuery(false), w); err != nil {
		return err
	}
	if exportOutput != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("Exported"), args[0], "to", exportOutput)
	}
	return nil
}

func summary(page, size, shown, filtered, total int) string {
	if shown == 0 {
		return color.YellowString("No matching rows (%d total)", total)
	}
	first := (page-1)*size + 1
	return color.CyanString("Showing %d-%d of %d (%d total)", first, first+shown-1, filtered, total)
}

func pageLine(window []table.WindowItem, current int) string {
	parts := make([]string, len(window))
	for i, item := range window {
		if item.Ellipsis {
			parts[i] = "…"
			continue
		}
		s := item.String()
		if item.Page == current {
			s = color.New(color.Bold).Sprintf("[%s]", s)
		}
		parts[i] = s
	}
	return "Pages: " + strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
