// Package plugin defines the contracts between the server and its modules.
package plugin

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Route represents an HTTP route exposed by a module. Protected routes are
// wrapped in the server's bearer-token middleware.
type Route struct {
	Method    string
	Path      string
	Handler   http.HandlerFunc
	Protected bool
}

// Plugin defines the interface that all tabula modules must implement.
type Plugin interface {
	// Name returns the module's unique identifier (e.g., "catalog", "admin").
	Name() string

	// Version returns the module's semantic version.
	Version() string

	// Init initializes the module with its configuration subtree and logger.
	Init(config *viper.Viper, logger *zap.Logger) error

	// Start begins the module's background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the module.
	Stop() error

	// Routes returns the HTTP routes this module exposes.
	Routes() []Route
}

// Migration is one versioned schema change owned by a module.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// Store is the persistence handle shared by modules.
type Store interface {
	DB() *sql.DB
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Migrate(ctx context.Context, pluginName string, migrations []Migration) error
}
