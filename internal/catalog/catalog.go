// Package catalog is the public module: it serves the project and formation
// catalogs and accepts formation registrations and contact messages.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/dataset"
	"github.com/HerbHall/tabula/internal/services"
	pkgcatalog "github.com/HerbHall/tabula/pkg/catalog"
	"github.com/HerbHall/tabula/pkg/models"
	"github.com/HerbHall/tabula/pkg/plugin"
	"github.com/HerbHall/tabula/pkg/table"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// Module implements plugin.Plugin for the public catalog.
type Module struct {
	store    plugin.Store
	datasets *services.Datasets
	metrics  *dataset.Metrics
	seed     *pkgcatalog.Catalog
	now      func() time.Time

	logger      *zap.Logger
	seedOnStart bool
	projects    *dataset.Handler[models.Project]
	formations  *dataset.Handler[models.Formation]
}

// New creates the catalog module. seed supplies the rows written to empty
// tables on start; metrics may be nil.
func New(st plugin.Store, ds *services.Datasets, metrics *dataset.Metrics, seed *pkgcatalog.Catalog) *Module {
	return &Module{
		store:    st,
		datasets: ds,
		metrics:  metrics,
		seed:     seed,
		now:      time.Now,
	}
}

func (m *Module) Name() string    { return "catalog" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *viper.Viper, logger *zap.Logger) error {
	m.logger = logger
	m.seedOnStart = cfg.GetBool("seed")

	paging := dataset.Paging{
		DefaultSize: cfg.GetInt("page_size"),
		MaxSize:     cfg.GetInt("max_page_size"),
	}
	m.projects = dataset.NewHandler(dataset.Definition[models.Project]{
		Name:     services.DatasetProjects,
		Source:   m.datasets.Projects(),
		Registry: ProjectRegistry(),
		Export:   ProjectExport,
	}, paging, m.metrics, logger)

	formations := FormationRegistry()
	m.formations = dataset.NewHandler(dataset.Definition[models.Formation]{
		Name:     services.DatasetFormations,
		Source:   publishedOnly(m.datasets.Formations(), formations),
		Registry: formations,
		Export:   FormationExport,
	}, paging, m.metrics, logger)
	return nil
}

// Start applies the dataset migrations and seeds empty tables.
func (m *Module) Start(ctx context.Context) error {
	if err := m.store.Migrate(ctx, "datasets", services.Migrations()); err != nil {
		return fmt.Errorf("migrate datasets: %w", err)
	}
	if !m.seedOnStart || m.seed == nil {
		return nil
	}

	projects, err := m.seed.Projects()
	if err != nil {
		return fmt.Errorf("load seed projects: %w", err)
	}
	formations, err := m.seed.Formations()
	if err != nil {
		return fmt.Errorf("load seed formations: %w", err)
	}
	return m.datasets.Seed(ctx, projects, formations)
}

func (m *Module) Stop() error { return nil }

func (m *Module) Routes() []plugin.Route {
	routes := m.projects.Routes("/projects", false)
	routes = append(routes, m.formations.Routes("/formations", false)...)
	return append(routes,
		plugin.Route{Method: http.MethodGet, Path: "/projects/{id}", Handler: m.handleGetProject},
		plugin.Route{Method: http.MethodGet, Path: "/formations/{id}", Handler: m.handleGetFormation},
		plugin.Route{Method: http.MethodPost, Path: "/formations/{id}/registrations", Handler: m.handleRegister},
		plugin.Route{Method: http.MethodPost, Path: "/messages", Handler: m.handleContact},
	)
}

// Health reports whether the project snapshot can be loaded.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	if _, err := m.datasets.Projects().Snapshot(ctx); err != nil {
		return plugin.HealthStatus{Status: "degraded", Details: map[string]string{"projects": err.Error()}}
	}
	return plugin.HealthStatus{Status: "ok"}
}

// publishedOnly hides unpublished formations from the public dataset by
// running the published criterion through the engine.
func publishedOnly(src services.Snapshotter[models.Formation], reg *table.Registry[models.Formation]) services.Snapshotter[models.Formation] {
	published := []table.Criterion{{Field: "published", Value: true}}
	return services.SnapshotFunc[models.Formation](func(ctx context.Context) ([]models.Formation, error) {
		rows, err := src.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return table.Filter(rows, "", published, reg), nil
	})
}
