// Package config loads tabula's configuration from defaults, an optional
// YAML file, a .env file and TABULA_* environment variables, and exposes it
// through a nil-safe wrapper around viper.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. TABULA_SERVER_PORT.
const EnvPrefix = "TABULA"

// Config is a read-only view over a viper instance. A Config built from a
// nil viper returns zero values.
type Config struct {
	v *viper.Viper
}

// New wraps v.
func New(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	return &Config{v: v}
}

// Viper returns the wrapped viper instance.
func (c *Config) Viper() *viper.Viper { return c.v }

func (c *Config) GetString(key string) string          { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *Config) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *Config) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *Config) IsSet(key string) bool                { return c.v.IsSet(key) }

// Sub returns the subtree at key. Missing subtrees yield an empty Config,
// never nil.
func (c *Config) Sub(key string) *Config {
	return New(c.v.Sub(key))
}

// Unmarshal decodes the whole configuration into target using mapstructure tags.
func (c *Config) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}

// Settings is the typed form of the server, database and auth sections.
type Settings struct {
	Server struct {
		Host      string  `mapstructure:"host"`
		Port      string  `mapstructure:"port"`
		RateLimit float64 `mapstructure:"rate_limit"`
		RateBurst int     `mapstructure:"rate_burst"`
	} `mapstructure:"server"`

	Database struct {
		Path     string        `mapstructure:"path"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"database"`

	Auth struct {
		Secret   string        `mapstructure:"secret"`
		Issuer   string        `mapstructure:"issuer"`
		TokenTTL time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`
}

// Addr is the listen address built from server.host and server.port.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Server.Host, s.Server.Port)
}

// Settings decodes the typed sections.
func (c *Config) Settings() (Settings, error) {
	var s Settings
	if err := c.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("database.path", "tabula.db")
	v.SetDefault("database.cache_ttl", "5s")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "tabula")
	v.SetDefault("auth.token_ttl", "12h")

	for _, module := range []string{"catalog", "admin"} {
		v.SetDefault("modules."+module+".enabled", true)
		v.SetDefault("modules."+module+".page_size", 10)
		v.SetDefault("modules."+module+".max_page_size", 100)
	}
	v.SetDefault("modules.catalog.seed", true)
}

// Load builds the runtime configuration. A .env file in the working
// directory is loaded first when present; path, when non-empty, must name a
// readable config file.
func Load(path string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}
	return v, nil
}
