package handler

import (
	"strings"

	"territorial/internal/notification"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
)

// SendOverdueRequest is the body of POST /sendOverdueNotification.
type SendOverdueRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`

	userID id.UserID
}

func (r *SendOverdueRequest) Validate() error {
	if r.UserID == "" || strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Body) == "" {
		return dErrors.New(dErrors.CodeValidation, "userId, title and body are required")
	}
	var err error
	r.userID, err = id.ParseUserID(r.UserID)
	return err
}

// SendOverdueResponse flattens the dispatch counts next to success.
type SendOverdueResponse struct {
	Success bool `json:"success"`
	notification.Result
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
}

func (r *RegisterDeviceRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	return nil
}

type ListResponse struct {
	Notifications []*notification.Notification `json:"notifications"`
}
