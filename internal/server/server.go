package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/auth"
	"github.com/HerbHall/tabula/internal/plugin"
	"github.com/HerbHall/tabula/internal/version"
)

// Options carries the optional collaborators of a Server.
type Options struct {
	Auth        *auth.Authenticator
	RateLimiter *RateLimiter
	Gatherer    prometheus.Gatherer
}

// Server is the tabula HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *plugin.Registry
	auth       *auth.Authenticator
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a new Server instance and mounts every enabled module's routes.
func New(addr string, reg *plugin.Registry, logger *zap.Logger, opts Options) *Server {
	mux := http.NewServeMux()

	var handler http.Handler = mux
	if opts.RateLimiter != nil {
		handler = opts.RateLimiter.Middleware(mux)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		registry: reg,
		auth:     opts.Auth,
		logger:   logger,
		mux:      mux,
	}

	s.registerCoreRoutes(opts.Gatherer)
	s.mountPluginRoutes()

	return s
}

// Handler returns the root handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes(g prometheus.Gatherer) {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/modules", s.handleModules)
	if g != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
}

// mountPluginRoutes registers all module routes under /api/v1/{module}.
func (s *Server) mountPluginRoutes() {
	for name, routes := range s.registry.AllRoutes() {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, name, route.Path)
			h := route.Handler
			if route.Protected {
				h = RequireAdmin(s.auth, s.logger, h)
			}
			s.mux.HandleFunc(pattern, h)
			s.logger.Debug("mounted route",
				zap.String("module", name),
				zap.String("pattern", pattern),
				zap.Bool("protected", route.Protected),
			)
		}
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status.
//
//	@Summary	Health check
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Tabula-Version", version.Short())
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "tabula",
		"version": version.Map(),
		"modules": s.registry.Health(r.Context()),
	})
}

// handleModules returns the list of enabled modules.
func (s *Server) handleModules(w http.ResponseWriter, _ *http.Request) {
	type moduleResponse struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	mods := s.registry.All()
	info := make([]moduleResponse, 0, len(mods))
	for _, m := range mods {
		info = append(info, moduleResponse{Name: m.Name(), Version: m.Version()})
	}
	w.Header().Set("X-Tabula-Version", version.Short())
	WriteJSON(w, http.StatusOK, info)
}
