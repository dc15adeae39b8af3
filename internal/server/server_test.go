package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/auth"
	"github.com/HerbHall/tabula/internal/plugin"
	pkgplugin "github.com/HerbHall/tabula/pkg/plugin"
)

type stubModule struct{}

func (stubModule) Name() string                         { return "stub" }
func (stubModule) Version() string                      { return "0.1.0" }
func (stubModule) Init(*viper.Viper, *zap.Logger) error { return nil }
func (stubModule) Start(context.Context) error          { return nil }
func (stubModule) Stop() error                          { return nil }
func (stubModule) Routes() []pkgplugin.Route {
	ok := func(w http.ResponseWriter, _ *http.Request) { WriteJSON(w, http.StatusOK, map[string]string{"ok": "yes"}) }
	return []pkgplugin.Route{
		{Method: http.MethodGet, Path: "/open", Handler: ok},
		{Method: http.MethodGet, Path: "/secret", Handler: ok, Protected: true},
	}
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	reg := plugin.NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register(stubModule{}))
	require.NoError(t, reg.InitAll(viper.New()))
	return New(":0", reg, zap.NewNop(), opts)
}

func do(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	w := do(t, s.Handler(), http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "tabula", body["service"])
	assert.NotEmpty(t, w.Header().Get("X-Tabula-Version"))
}

func TestModules(t *testing.T) {
	s := newTestServer(t, Options{})
	w := do(t, s.Handler(), http.MethodGet, "/api/v1/modules", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"stub"`)
}

func TestProtectedRoutes(t *testing.T) {
	a, err := auth.New("secret", "tabula", time.Hour)
	require.NoError(t, err)
	admin, _ := a.Issue("alice", auth.RoleAdmin)
	viewer, _ := a.Issue("bob", "viewer")

	s := newTestServer(t, Options{Auth: a})
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/stub/open", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/v1/stub/secret", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/api/v1/stub/secret", viewer).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/stub/secret", admin).Code)
}

func TestProtectedRoutes_NoAuthenticator(t *testing.T) {
	s := newTestServer(t, Options{})
	w := do(t, s.Handler(), http.MethodGet, "/api/v1/stub/secret", "anything")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateLimiter: NewRateLimiter(1, 2)})
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/health", "").Code)

	w := do(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimiter_PerClient(t *testing.T) {
	l := NewRateLimiter(1, 1)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestRateLimiter_ConcurrentFirstRequests(t *testing.T) {
	l := NewRateLimiter(0.01, 3)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if l.Allow("10.0.0.1") {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(3), allowed.Load(), "one shared bucket per client")
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0, 1)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("10.0.0.1"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "tabula_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s := newTestServer(t, Options{Gatherer: reg})
	w := do(t, s.Handler(), http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tabula_test_total 1")
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required,max=5"`
	}

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"valid", `{"email":"a@b.co","name":"Ann"}`, ""},
		{"empty", ``, "request body is empty"},
		{"malformed", `{"email":`, "invalid JSON body"},
		{"unknown field", `{"email":"a@b.co","name":"Ann","x":1}`, "invalid JSON body"},
		{"missing", `{"email":"a@b.co"}`, "name is required"},
		{"bad email", `{"email":"nope","name":"Ann"}`, "email must be a valid email address"},
		{"too long", `{"email":"a@b.co","name":"Annabel"}`, "name must be at most 5 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			var b body
			err := DecodeJSON(r, &b)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
