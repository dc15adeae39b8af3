package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/config"
	"github.com/HerbHall/tabula/internal/services"
	"github.com/HerbHall/tabula/internal/store"
)

// app holds what every command needs: configuration, a logger and the
// dataset store.
type app struct {
	cfg      *config.Config
	settings config.Settings
	logger   *zap.Logger
	store    *store.SQLiteStore
	datasets *services.Datasets
}

// newApp loads configuration and opens the database with the dataset
// tables migrated. Close must be called when done.
func newApp(ctx context.Context, logger *zap.Logger) (*app, error) {
	v, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg := config.New(v)
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	st, err := store.New(settings.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx, "datasets", services.Migrations()); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate datasets: %w", err)
	}

	return &app{
		cfg:      cfg,
		settings: settings,
		logger:   logger,
		store:    st,
		datasets: services.NewDatasets(st.DB(), settings.Database.CacheTTL, logger.Named("datasets")),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
