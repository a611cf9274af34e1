// Package rest serves the operational HTTP surface: probes, metrics and
// report downloads. Business operations go through gRPC.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/pkg/auth"
)

// RouterConfig wires the HTTP dependencies. Metrics and Reports are
// optional; their routes are only mounted when set.
type RouterConfig struct {
	ServiceName string
	CORSOrigins []string
	Checks      map[string]Checker
	Metrics     http.Handler
	Reports     port.ReportStorage
	JWT         *auth.JWTService
	Logger      *slog.Logger
}

// NewRouter builds the chi router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(30*time.Second),
	)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	health := NewHealthHandler(cfg.ServiceName, cfg.Checks, cfg.Logger)
	r.Get("/healthz", health.liveness)
	r.Get("/readyz", health.readiness)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.Reports != nil && cfg.JWT != nil {
		reports := NewReportHandler(cfg.Reports, cfg.Logger)
		r.Group(func(r chi.Router) {
			r.Use(auth.HTTPMiddleware(cfg.JWT))
			r.Get("/reports/portfolio/{tenantID}/{file}", reports.download)
		})
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
