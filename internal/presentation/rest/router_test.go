package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/pkg/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockStorage struct {
	presignFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
}

func (m *mockStorage) Upload(context.Context, string, string, []byte) error { return nil }

func (m *mockStorage) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return m.presignFn(ctx, key, expiry)
}

func serve(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]Checker
		want   int
		status string
	}{
		{"no checks", nil, http.StatusOK, "ready"},
		{"all healthy", map[string]Checker{"postgres": healthy, "redis": healthy}, http.StatusOK, "ready"},
		{"one down", map[string]Checker{"postgres": healthy, "redis": down}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(RouterConfig{ServiceName: "collections-service", Checks: tt.checks, Logger: testLogger()})

			live := serve(t, r, http.MethodGet, "/healthz", "")
			assert.Equal(t, http.StatusOK, live.Code)

			rec := serve(t, r, http.MethodGet, "/readyz", "")
			assert.Equal(t, tt.want, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, "collections-service", body["service"])
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	r := NewRouter(RouterConfig{Logger: testLogger()})
	assert.Equal(t, http.StatusNotFound, serve(t, r, http.MethodGet, "/metrics", "").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("collections_transitions_total 3\n"))
	})
	r = NewRouter(RouterConfig{Metrics: metrics, Logger: testLogger()})
	rec := serve(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "collections_transitions_total")
}

func TestCORS(t *testing.T) {
	r := NewRouter(RouterConfig{CORSOrigins: []string{"https://ops.example.com"}, Logger: testLogger()})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReportDownload(t *testing.T) {
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "rest-test-secret"})
	require.NoError(t, err)
	token, err := jwtSvc.GenerateToken("staff-7", "tenant-1", []string{auth.RoleSupervisor})
	require.NoError(t, err)

	var presigned string
	storage := &mockStorage{presignFn: func(_ context.Context, key string, expiry time.Duration) (string, error) {
		presigned = key
		assert.Equal(t, downloadLinkExpiry, expiry)
		if key == "portfolio/tenant-1/broken.xlsx" {
			return "", errors.New("s3 down")
		}
		return "https://s3.example.com/" + key + "?sig=abc", nil
	}}
	r := NewRouter(RouterConfig{Reports: storage, JWT: jwtSvc, Logger: testLogger()})

	tests := []struct {
		name   string
		target string
		token  string
		want   int
	}{
		{"redirects", "/reports/portfolio/tenant-1/par-2026-10-01-ab12cd34.xlsx", token, http.StatusFound},
		{"no token", "/reports/portfolio/tenant-1/par-2026-10-01-ab12cd34.xlsx", "", http.StatusUnauthorized},
		{"other tenant", "/reports/portfolio/tenant-2/par-2026-10-01-ab12cd34.xlsx", token, http.StatusForbidden},
		{"not a workbook", "/reports/portfolio/tenant-1/secrets.txt", token, http.StatusBadRequest},
		{"storage failure", "/reports/portfolio/tenant-1/broken.xlsx", token, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, r, http.MethodGet, tt.target, tt.token)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := serve(t, r, http.MethodGet, "/reports/portfolio/tenant-1/par-2026-10-01-ab12cd34.xlsx", token)
	assert.Equal(t, "portfolio/tenant-1/par-2026-10-01-ab12cd34.xlsx", presigned)
	assert.Equal(t, "https://s3.example.com/portfolio/tenant-1/par-2026-10-01-ab12cd34.xlsx?sig=abc", rec.Header().Get("Location"))
}
