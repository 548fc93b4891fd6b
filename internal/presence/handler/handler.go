// Package handler lets an authenticated client report its connection state.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/httputil"
	"territorial/pkg/requestcontext"
)

type Realtime interface {
	Connect(ctx context.Context, userID id.UserID) (time.Time, error)
	Heartbeat(ctx context.Context, userID id.UserID) (bool, error)
	Disconnect(ctx context.Context, userID id.UserID) (bool, error)
}

type Handler struct {
	realtime Realtime
	logger   *zap.Logger
}

func New(realtime Realtime, logger *zap.Logger) *Handler {
	return &Handler{realtime: realtime, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/presence/connect", h.HandleConnect)
	r.Post("/presence/heartbeat", h.HandleHeartbeat)
	r.Post("/presence/disconnect", h.HandleDisconnect)
}

type connectResponse struct {
	State       string    `json:"state"`
	LastChanged time.Time `json:"lastChanged"`
}

func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	at, err := h.realtime.Connect(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, connectResponse{State: "online", LastChanged: at})
}

func (h *Handler) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alive, err := h.realtime.Heartbeat(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !alive {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidState, "no live connection, connect again"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.realtime.Disconnect(ctx, requestcontext.UserID(ctx)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("presence write failed",
		zap.String("request_id", requestcontext.RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "presence store unavailable"))
}
