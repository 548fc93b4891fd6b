// Package handler exposes notification sending, device registration and the
// in-app inbox over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"territorial/internal/notification"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/httputil"
	"territorial/pkg/requestcontext"
)

type Service interface {
	SendOverdueNotification(ctx context.Context, callerID, targetID id.UserID, title, body string) (notification.Result, error)
	RegisterDevice(ctx context.Context, callerID id.UserID, token, platform, userAgent string) error
	RemoveDevice(ctx context.Context, callerID id.UserID, token string) error
	List(ctx context.Context, callerID id.UserID, limit int) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, callerID id.UserID, notificationID id.NotificationID) error
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
	r.Post("/sendOverdueNotification", h.HandleSendOverdue)
	r.Post("/me/devices", h.HandleRegisterDevice)
	r.Delete("/me/devices/{token}", h.HandleRemoveDevice)
	r.Get("/me/notifications", h.HandleList)
	r.Post("/me/notifications/{id}/read", h.HandleMarkRead)
}

func (h *Handler) HandleSendOverdue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SendOverdueRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	result, err := h.service.SendOverdueNotification(ctx, requestcontext.UserID(ctx), req.userID, req.Title, req.Body)
	if err != nil {
		h.fail(w, r, "send overdue notification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SendOverdueResponse{Success: true, Result: result})
}

func (h *Handler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterDeviceRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.RegisterDevice(ctx, requestcontext.UserID(ctx), req.Token, req.Platform, r.UserAgent()); err != nil {
		h.fail(w, r, "register device", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.RemoveDevice(ctx, requestcontext.UserID(ctx), chi.URLParam(r, "token")); err != nil {
		h.fail(w, r, "remove device", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	items, err := h.service.List(ctx, requestcontext.UserID(ctx), limit)
	if err != nil {
		h.fail(w, r, "list notifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Notifications: items})
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.MarkRead(ctx, requestcontext.UserID(ctx), notificationID); err != nil {
		h.fail(w, r, "mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	fields := []zap.Field{
		zap.String("request_id", requestcontext.RequestID(r.Context())),
		zap.String("op", op),
		zap.Error(err),
	}
	if de, ok := dErrors.As(err); ok && dErrors.HTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.Warn("notification request rejected", fields...)
	} else {
		h.logger.Error("notification request failed", fields...)
	}
	httputil.WriteError(w, err)
}
