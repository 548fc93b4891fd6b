// Package handler exposes account deletion, member registration and token
// issuance over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"territorial/internal/account"
	"territorial/internal/profile"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/httputil"
	"territorial/pkg/requestcontext"
)

type Service interface {
	DeleteAccount(ctx context.Context, callerID, targetID id.UserID) error
	RegisterMember(ctx context.Context, req account.RegisterRequest) (*profile.Profile, error)
	IssueToken(ctx context.Context, email, password string) (*account.Token, error)
}

type Handler struct {
	service Service
	logger  *zap.Logger
}

func New(svc Service, logger *zap.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/token", h.HandleToken)
	r.Post("/registerMember", h.HandleRegisterMember)
}

// Register mounts the routes that require a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/deleteUserAccount", h.HandleDeleteAccount)
}

type DeleteAccountRequest struct {
	UserIDToDelete string `json:"userIdToDelete"`

	target id.UserID
}

func (r *DeleteAccountRequest) Validate() error {
	var err error
	r.target, err = id.ParseUserID(r.UserIDToDelete)
	return err
}

type DeleteAccountResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[DeleteAccountRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(ctx, requestcontext.UserID(ctx), req.target); err != nil {
		h.fail(w, r, "delete account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DeleteAccountResponse{Success: true, Message: "account deleted"})
}

type RegisterMemberRequest struct {
	CongregationID string `json:"congregationId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`

	congregationID id.CongregationID
}

func (r *RegisterMemberRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	var err error
	r.congregationID, err = id.ParseCongregationID(r.CongregationID)
	return err
}

type RegisterMemberResponse struct {
	UserID id.UserID     `json:"userId"`
	Status id.UserStatus `json:"status"`
}

func (h *Handler) HandleRegisterMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterMemberRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.RegisterMember(ctx, account.RegisterRequest{
		CongregationID: req.congregationID,
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
	})
	if err != nil {
		h.fail(w, r, "register member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, RegisterMemberResponse{UserID: p.ID, Status: p.Status})
}

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *TokenRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	tok, err := h.service.IssueToken(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "issue token", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, tok)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	fields := []zap.Field{
		zap.String("request_id", requestcontext.RequestID(r.Context())),
		zap.String("op", op),
		zap.Error(err),
	}
	if de, ok := dErrors.As(err); ok && dErrors.HTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.Warn("account request rejected", fields...)
	} else {
		h.logger.Error("account request failed", fields...)
	}
	httputil.WriteError(w, err)
}
