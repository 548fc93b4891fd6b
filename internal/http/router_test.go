package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	authmw "territorial/pkg/platform/middleware/auth"
	"territorial/pkg/requestcontext"
)

type staticValidator struct{}

func (staticValidator) ValidateToken(token string) (*authmw.JWTClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &authmw.JWTClaims{UserID: "6f1c2a4e-8d0b-4b5e-9f1a-2c3d4e5f6a7b"}, nil
}

func testRouter(checks map[string]Check) http.Handler {
	return NewRouter(Config{
		Logger:     zap.NewNop(),
		Validator:  staticValidator{},
		AdminToken: "ops-secret",
		Checks:     checks,
		Public: []Registrar{RegistrarFunc(func(r chi.Router) {
			r.Post("/auth/token", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		})},
		Operator: []Registrar{RegistrarFunc(func(r chi.Router) {
			r.Post("/provisionCongregation", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
		})},
		Authenticated: []Registrar{RegistrarFunc(func(r chi.Router) {
			r.Post("/resetTerritoryProgress", func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(requestcontext.UserID(r.Context()).String()))
			})
		})},
	})
}

func serve(h http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterGroups(t *testing.T) {
	h := testRouter(nil)

	rec := serve(h, http.MethodPost, "/auth/token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(h, http.MethodPost, "/resetTerritoryProgress", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodPost, "/resetTerritoryProgress", map[string]string{"Authorization": "Bearer expired"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodPost, "/resetTerritoryProgress", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "6f1c2a4e-8d0b-4b5e-9f1a-2c3d4e5f6a7b", rec.Body.String())

	rec = serve(h, http.MethodPost, "/provisionCongregation", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodPost, "/provisionCongregation", map[string]string{"X-Admin-Token": "ops-secret"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHealthz(t *testing.T) {
	healthy := testRouter(map[string]Check{"mongo": func(context.Context) error { return nil }})
	rec := serve(healthy, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"mongo":"ok"}}`, rec.Body.String())

	down := testRouter(map[string]Check{"redis": func(context.Context) error { return errors.New("connection refused") }})
	rec = serve(down, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(testRouter(nil), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
