// Package handler exposes territory lifecycle operations over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"territorial/internal/territory/models"
	"territorial/internal/territory/service"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/httputil"
	"territorial/pkg/requestcontext"
)

// Service is the territory service as the handler uses it.
type Service interface {
	Assign(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID, assigneeID id.UserID, durationDays int) (*models.Territory, error)
	Return(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID) (*models.HistoryEntry, error)
	ResetProgress(ctx context.Context, callerID id.UserID, congregationID id.CongregationID, territoryID id.TerritoryID) (int64, error)
	EditHistoryLog(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID, logID id.HistoryLogID, correction models.HistoryCorrection) (*models.HistoryEntry, error)
	CreateTerritory(ctx context.Context, callerID id.UserID, congregationID id.CongregationID, req service.CreateTerritoryRequest) (*models.Territory, error)
	DeleteTerritory(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID) error
	CreateQuadra(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID, name string, houseCount int) (*models.Quadra, error)
	DeleteQuadra(ctx context.Context, callerID id.UserID, quadraID id.QuadraID) error
	MarkHouse(ctx context.Context, callerID id.UserID, houseID id.HouseID, update service.HouseUpdate) (bool, error)
}

type Handler struct {
	service Service
	logger  *zap.Logger
}

func New(svc Service, logger *zap.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the routes. The router must already require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/resetTerritoryProgress", h.HandleResetProgress)
	r.Post("/territories", h.HandleCreateTerritory)
	r.Delete("/territories/{id}", h.HandleDeleteTerritory)
	r.Post("/territories/{id}/assign", h.HandleAssign)
	r.Post("/territories/{id}/return", h.HandleReturn)
	r.Put("/territories/{id}/history/{logId}", h.HandleEditHistory)
	r.Post("/territories/{id}/quadras", h.HandleCreateQuadra)
	r.Delete("/quadras/{id}", h.HandleDeleteQuadra)
	r.Put("/houses/{id}", h.HandleMarkHouse)
}

func (h *Handler) HandleResetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ResetProgressRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	changed, err := h.service.ResetProgress(ctx, requestcontext.UserID(ctx), req.congregationID, req.territoryID)
	if err != nil {
		h.fail(w, r, "reset territory progress", err)
		return
	}
	message := "territory progress reset"
	if changed == 0 {
		message = "no completed houses to reset"
	}
	httputil.WriteJSON(w, http.StatusOK, ResetProgressResponse{
		Success:      true,
		Message:      message,
		ChangedCount: changed,
	})
}

func (h *Handler) HandleCreateTerritory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateTerritoryRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	t, err := h.service.CreateTerritory(ctx, requestcontext.UserID(ctx), req.congregationID, service.CreateTerritoryRequest{
		Number: req.Number,
		Name:   req.Name,
		Kind:   models.Kind(req.Kind),
	})
	if err != nil {
		h.fail(w, r, "create territory", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) HandleDeleteTerritory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteTerritory(ctx, requestcontext.UserID(ctx), territoryID); err != nil {
		h.fail(w, r, "delete territory", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	t, err := h.service.Assign(ctx, requestcontext.UserID(ctx), territoryID, req.assigneeID, req.DurationDays)
	if err != nil {
		h.fail(w, r, "assign territory", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.service.Return(ctx, requestcontext.UserID(ctx), territoryID)
	if err != nil {
		h.fail(w, r, "return territory", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) HandleEditHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	logID, err := id.ParseHistoryLogID(chi.URLParam(r, "logId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[EditHistoryRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	entry, err := h.service.EditHistoryLog(ctx, requestcontext.UserID(ctx), territoryID, logID, req.correction())
	if err != nil {
		h.fail(w, r, "edit history log", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) HandleCreateQuadra(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateQuadraRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	q, err := h.service.CreateQuadra(ctx, requestcontext.UserID(ctx), territoryID, req.Name, req.Houses)
	if err != nil {
		h.fail(w, r, "create quadra", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, q)
}

func (h *Handler) HandleDeleteQuadra(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	quadraID, err := id.ParseQuadraID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteQuadra(ctx, requestcontext.UserID(ctx), quadraID); err != nil {
		h.fail(w, r, "delete quadra", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) HandleMarkHouse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	houseID, err := id.ParseHouseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[MarkHouseRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	changed, err := h.service.MarkHouse(ctx, requestcontext.UserID(ctx), houseID, service.HouseUpdate{
		Done:  *req.Done,
		Notes: req.Notes,
	})
	if err != nil {
		h.fail(w, r, "mark house", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MarkHouseResponse{Changed: changed})
}

// fail logs at a level matching the error class and writes the envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	fields := []zap.Field{
		zap.String("request_id", requestcontext.RequestID(r.Context())),
		zap.String("op", op),
		zap.Error(err),
	}
	if dErrors.HTTPStatus(codeOf(err)) >= http.StatusInternalServerError {
		h.logger.Error("territory request failed", fields...)
	} else {
		h.logger.Warn("territory request rejected", fields...)
	}
	httputil.WriteError(w, err)
}

func codeOf(err error) dErrors.Code {
	if de, ok := dErrors.As(err); ok {
		return de.Code
	}
	return dErrors.CodeInternal
}
