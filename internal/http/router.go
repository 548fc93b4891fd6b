// Package httpapi assembles the chi router: shared middleware, health and
// metrics endpoints, and the route groups of each feature handler.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"territorial/internal/platform/metrics"
	"territorial/pkg/platform/httputil"
	adminmw "territorial/pkg/platform/middleware/admin"
	authmw "territorial/pkg/platform/middleware/auth"
	metadata "territorial/pkg/platform/middleware/metadata"
	request "territorial/pkg/platform/middleware/request"
	"territorial/pkg/platform/middleware/requesttime"
)

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

type RegistrarFunc func(r chi.Router)

func (f RegistrarFunc) Register(r chi.Router) { f(r) }

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type Config struct {
	Logger     *zap.Logger
	Validator  authmw.JWTValidator
	AdminToken string
	Metrics    *metrics.Metrics
	Checks     map[string]Check

	// Public routes need no credentials, Operator routes need the admin
	// token, Authenticated routes need a bearer token.
	Public        []Registrar
	Operator      []Registrar
	Authenticated []Registrar
}

func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(cfg.Logger))
	r.Use(cfg.Metrics.Middleware)

	r.Get("/healthz", healthHandler(cfg.Checks))
	r.Handle("/metrics", promhttp.Handler())

	for _, reg := range cfg.Public {
		reg.Register(r)
	}
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(cfg.AdminToken, cfg.Logger))
		for _, reg := range cfg.Operator {
			reg.Register(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Validator, cfg.Logger))
		for _, reg := range cfg.Authenticated {
			reg.Register(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
