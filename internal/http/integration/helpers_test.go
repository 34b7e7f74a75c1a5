package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/bidashboard/internal/auth"
	"github.com/geocoder89/bidashboard/internal/cache"
	"github.com/geocoder89/bidashboard/internal/config"
	apphttp "github.com/geocoder89/bidashboard/internal/http"
	"github.com/geocoder89/bidashboard/internal/http/handlers"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"requestId"`
}

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		Store:          config.StoreMemory,
		JWTSecret:      "test-secret-key",
		TokenTTL:       time.Hour,
		BcryptCost:     bcrypt.MinCost,
		CORSOrigins:    []string{"http://localhost:5173"},
		MaxBodyBytes:   1 << 20,
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
		CacheTTL:       time.Minute,
	}
}

func newRouter(t *testing.T, cfg config.Config, users handlers.UserStore, metrics handlers.MetricsStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return apphttp.NewRouter(logger, cfg, apphttp.Dependencies{
		Users:   users,
		Metrics: metrics,
		Cache:   cache.New(cfg.CacheTTL),
		Tokens:  auth.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		Prom:    observability.NewProm(prometheus.NewRegistry()),
		Now:     func() time.Time { return fixedNow },
	})
}

func doRequest(router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func mustReadData[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) envelope {
	t.Helper()
	var env envelope
	mustReadJSON(t, w, &env)
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("failed to unmarshal data: %v, data=%s", err, string(env.Data))
	}
	return env
}

// registerAndLogin returns an Authorization header value for a fresh account.
func registerAndLogin(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	creds := `{"email":"` + email + `","password":"hunter2"}`

	w := doRequest(router, http.MethodPost, "/api/register", creds)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/api/login", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var login struct {
		Token string `json:"token"`
	}
	mustReadData(t, w, &login)
	if login.Token == "" {
		t.Fatalf("login returned an empty token")
	}

	return "Bearer " + login.Token
}
