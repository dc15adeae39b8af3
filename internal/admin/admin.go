// Package admin is the dashboard module. Every route it exposes requires an
// admin bearer token.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/catalog"
	"github.com/HerbHall/tabula/internal/dataset"
	"github.com/HerbHall/tabula/internal/services"
	"github.com/HerbHall/tabula/pkg/models"
	"github.com/HerbHall/tabula/pkg/plugin"
)

var _ plugin.Plugin = (*Module)(nil)

// Module implements plugin.Plugin for the admin dashboard.
type Module struct {
	store    plugin.Store
	datasets *services.Datasets
	metrics  *dataset.Metrics
	now      func() time.Time

	logger        *zap.Logger
	registrations *dataset.Handler[models.Registration]
	messages      *dataset.Handler[models.Message]
	formations    *dataset.Handler[models.Formation]
}

// New creates the admin module. metrics may be nil.
func New(st plugin.Store, ds *services.Datasets, metrics *dataset.Metrics) *Module {
	return &Module{
		store:    st,
		datasets: ds,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (m *Module) Name() string    { return "admin" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *viper.Viper, logger *zap.Logger) error {
	m.logger = logger
	paging := dataset.Paging{
		DefaultSize: cfg.GetInt("page_size"),
		MaxSize:     cfg.GetInt("max_page_size"),
	}

	m.registrations = dataset.NewHandler(dataset.Definition[models.Registration]{
		Name:     services.DatasetRegistrations,
		Source:   m.datasets.Registrations(),
		Registry: RegistrationRegistry(),
		Export:   RegistrationExport,
	}, paging, m.metrics, logger)
	m.messages = dataset.NewHandler(dataset.Definition[models.Message]{
		Name:     services.DatasetMessages,
		Source:   m.datasets.Messages(),
		Registry: MessageRegistry(),
		Export:   MessageExport,
	}, paging, m.metrics, logger)
	m.formations = dataset.NewHandler(dataset.Definition[models.Formation]{
		Name:     services.DatasetFormations,
		Source:   m.datasets.Formations(),
		Registry: catalog.FormationRegistry(),
		Export:   catalog.FormationExport,
	}, paging, m.metrics, logger)
	return nil
}

// Start applies the dataset migrations.
func (m *Module) Start(ctx context.Context) error {
	if err := m.store.Migrate(ctx, "datasets", services.Migrations()); err != nil {
		return fmt.Errorf("migrate datasets: %w", err)
	}
	return nil
}

func (m *Module) Stop() error { return nil }

func (m *Module) Routes() []plugin.Route {
	var routes []plugin.Route
	routes = append(routes, m.registrations.Routes("/registrations", true)...)
	routes = append(routes, m.messages.Routes("/messages", true)...)
	routes = append(routes, m.formations.Routes("/formations", true)...)
	return append(routes,
		plugin.Route{Method: http.MethodGet, Path: "/summary", Handler: m.handleSummary, Protected: true},
		plugin.Route{Method: http.MethodPatch, Path: "/registrations/{id}/status", Handler: m.handleUpdateStatus, Protected: true},
		plugin.Route{Method: http.MethodDelete, Path: "/registrations/{id}", Handler: m.handleDeleteRegistration, Protected: true},
		plugin.Route{Method: http.MethodGet, Path: "/messages/{id}", Handler: m.handleGetMessage, Protected: true},
		plugin.Route{Method: http.MethodPost, Path: "/messages/{id}/reply", Handler: m.handleReply, Protected: true},
		plugin.Route{Method: http.MethodDelete, Path: "/messages/{id}", Handler: m.handleDeleteMessage, Protected: true},
	)
}
