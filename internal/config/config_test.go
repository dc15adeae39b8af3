package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestViperConfigGetString(t *testing.T) {
	v := viper.New()
	v.Set("name", "test")
	cfg := New(v)

	if got := cfg.GetString("name"); got != "test" {
		t.Errorf("GetString('name') = %q, want %q", got, "test")
	}
}

func TestViperConfigGetInt(t *testing.T) {
	v := viper.New()
	v.Set("port", 8080)
	cfg := New(v)

	if got := cfg.GetInt("port"); got != 8080 {
		t.Errorf("GetInt('port') = %d, want %d", got, 8080)
	}
}

func TestViperConfigGetBool(t *testing.T) {
	v := viper.New()
	v.Set("enabled", true)
	cfg := New(v)

	if got := cfg.GetBool("enabled"); !got {
		t.Error("GetBool('enabled') = false, want true")
	}
}

func TestViperConfigGetDuration(t *testing.T) {
	v := viper.New()
	v.Set("timeout", "5s")
	cfg := New(v)

	want := 5 * time.Second
	if got := cfg.GetDuration("timeout"); got != want {
		t.Errorf("GetDuration('timeout') = %v, want %v", got, want)
	}
}

func TestViperConfigIsSet(t *testing.T) {
	v := viper.New()
	v.Set("exists", true)
	cfg := New(v)

	if !cfg.IsSet("exists") {
		t.Error("IsSet('exists') = false, want true")
	}
	if cfg.IsSet("missing") {
		t.Error("IsSet('missing') = true, want false")
	}
}

func TestViperConfigSub(t *testing.T) {
	v := viper.New()
	v.Set("plugins.recon.enabled", true)
	v.Set("plugins.recon.interval", 30)
	cfg := New(v)

	sub := cfg.Sub("plugins.recon")
	if sub == nil {
		t.Fatal("Sub('plugins.recon') = nil")
	}
	if got := sub.GetBool("enabled"); !got {
		t.Error("sub.GetBool('enabled') = false, want true")
	}
	if got := sub.GetInt("interval"); got != 30 {
		t.Errorf("sub.GetInt('interval') = %d, want %d", got, 30)
	}
}

func TestViperConfigSubMissing(t *testing.T) {
	v := viper.New()
	cfg := New(v)

	sub := cfg.Sub("nonexistent")
	if sub == nil {
		t.Fatal("Sub('nonexistent') should return empty Config, not nil")
	}
	// Should return zero values without panic.
	if got := cfg.GetString("anything"); got != "" {
		t.Errorf("empty config GetString() = %q, want empty", got)
	}
	_ = sub
}

func TestViperConfigUnmarshal(t *testing.T) {
	v := viper.New()
	v.Set("host", "localhost")
	v.Set("port", 9090)
	cfg := New(v)

	var target struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	}
	if err := cfg.Unmarshal(&target); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if target.Host != "localhost" {
		t.Errorf("Host = %q, want %q", target.Host, "localhost")
	}
	if target.Port != 9090 {
		t.Errorf("Port = %d, want %d", target.Port, 9090)
	}
}

func TestNilViper(t *testing.T) {
	cfg := New(nil)
	// Should not panic and return zero values.
	if got := cfg.GetString("key"); got != "" {
		t.Errorf("nil viper GetString() = %q, want empty", got)
	}
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg := New(v)

	if got := cfg.GetString("server.port"); got != "8080" {
		t.Errorf("server.port = %q, want 8080", got)
	}
	if got := cfg.Sub("modules.catalog").GetInt("page_size"); got != 10 {
		t.Errorf("modules.catalog.page_size = %d, want 10", got)
	}
	if !cfg.GetBool("modules.admin.enabled") {
		t.Error("modules.admin.enabled = false, want true")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tabula.yaml")
	content := "server:\n  port: \"9000\"\nmodules:\n  catalog:\n    page_size: 6\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TABULA_DATABASE_PATH", "/tmp/override.db")

	v, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := New(v)
	if got := cfg.GetString("server.port"); got != "9000" {
		t.Errorf("server.port = %q, want 9000", got)
	}
	if got := cfg.GetInt("modules.catalog.page_size"); got != 6 {
		t.Errorf("page_size = %d, want 6", got)
	}
	if got := cfg.GetString("database.path"); got != "/tmp/override.db" {
		t.Errorf("database.path = %q, want env override", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestSettings(t *testing.T) {
	t.Setenv("TABULA_AUTH_SECRET", "s3cret")
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v.Set("server.host", "127.0.0.1")

	s, err := New(v).Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
	if s.Database.CacheTTL != 5*time.Second {
		t.Errorf("cache_ttl = %v, want 5s", s.Database.CacheTTL)
	}
	if s.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("token_ttl = %v, want 12h", s.Auth.TokenTTL)
	}
	if s.Auth.Secret != "s3cret" {
		t.Errorf("secret = %q, want env value", s.Auth.Secret)
	}
	if s.Server.RateBurst != 40 {
		t.Errorf("rate_burst = %d, want 40", s.Server.RateBurst)
	}
}
