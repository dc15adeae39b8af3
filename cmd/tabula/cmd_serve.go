package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/admin"
	"github.com/HerbHall/tabula/internal/auth"
	"github.com/HerbHall/tabula/internal/catalog"
	"github.com/HerbHall/tabula/internal/dataset"
	"github.com/HerbHall/tabula/internal/plugin"
	"github.com/HerbHall/tabula/internal/server"
	pkgcatalog "github.com/HerbHall/tabula/pkg/catalog"
	pkgplugin "github.com/HerbHall/tabula/pkg/plugin"
)

var serveDev bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "use the human-readable development logger")
}

func newLogger() (*zap.Logger, error) {
	if serveDev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("tabula server starting", zap.String("database", a.settings.Database.Path))

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := dataset.NewMetrics(promReg)

	var authn *auth.Authenticator
	if a.settings.Auth.Secret != "" {
		authn, err = auth.New(a.settings.Auth.Secret, a.settings.Auth.Issuer, a.settings.Auth.TokenTTL)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("auth.secret is not set; admin routes will reject every request")
	}

	registry := plugin.NewRegistry(logger)
	modules := []pkgplugin.Plugin{
		catalog.New(a.store, a.datasets, metrics, pkgcatalog.NewCatalog()),
		admin.New(a.store, a.datasets, metrics),
	}
	for _, m := range modules {
		if err := registry.Register(m); err != nil {
			return err
		}
	}
	if err := registry.InitAll(a.cfg.Viper()); err != nil {
		return err
	}
	if err := registry.StartAll(ctx); err != nil {
		return err
	}
	defer registry.StopAll()

	srv := server.New(a.settings.Addr(), registry, logger, server.Options{
		Auth:        authn,
		RateLimiter: server.NewRateLimiter(a.settings.Server.RateLimit, a.settings.Server.RateBurst),
		Gatherer:    promReg,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	logger.Info("tabula server ready", zap.String("addr", a.settings.Addr()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("tabula server stopped")
	return nil
}
