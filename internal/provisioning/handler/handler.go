// Package handler exposes congregation provisioning to operators.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"territorial/internal/provisioning"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/httputil"
	"territorial/pkg/requestcontext"
)

type Service interface {
	CreateOrganizationAndAdmin(ctx context.Context, org provisioning.OrganizationData, admin provisioning.AdminData) (*provisioning.Result, error)
}

type Handler struct {
	service Service
	logger  *zap.Logger
}

func New(svc Service, logger *zap.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the route. The router must already require the admin token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/provisionCongregation", h.HandleProvision)
}

type ProvisionRequest struct {
	CongregationName string `json:"congregationName"`
	AdminName        string `json:"adminName"`
	AdminEmail       string `json:"adminEmail"`
	AdminPassword    string `json:"adminPassword"`
}

func (r *ProvisionRequest) Validate() error {
	if strings.TrimSpace(r.CongregationName) == "" {
		return dErrors.New(dErrors.CodeValidation, "congregationName is required")
	}
	if strings.TrimSpace(r.AdminEmail) == "" || r.AdminPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "adminEmail and adminPassword are required")
	}
	return nil
}

type ProvisionResponse struct {
	Success bool `json:"success"`
	*provisioning.Result
}

func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[ProvisionRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	res, err := h.service.CreateOrganizationAndAdmin(ctx,
		provisioning.OrganizationData{Name: req.CongregationName},
		provisioning.AdminData{Name: req.AdminName, Email: req.AdminEmail, Password: req.AdminPassword},
	)
	if err != nil {
		h.logger.Warn("provisioning failed", zap.String("request_id", requestID), zap.Error(err))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ProvisionResponse{Success: true, Result: res})
}
