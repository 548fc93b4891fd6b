// Package notification delivers push messages to a member's devices, keeps an
// in-app copy of every message, and prunes device tokens the push gateway
// reports as dead.
package notification

import (
	"context"
	"strings"
	"time"

	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/sanitize"
)

type Type string

const (
	TypeTerritoryOverdue Type = "territory_overdue"
	TypeMemberPending    Type = "member_pending"
	TypeManual           Type = "manual"
)

const (
	maxTitleRunes = 120
	maxBodyRunes  = 1000
)

// Notification is the stored in-app copy of a dispatched message.
type Notification struct {
	ID        id.NotificationID `bson:"_id" json:"id"`
	UserID    id.UserID         `bson:"user_id" json:"user_id"`
	Type      Type              `bson:"type" json:"type"`
	Title     string            `bson:"title" json:"title"`
	Body      string            `bson:"body" json:"body"`
	Read      bool              `bson:"read" json:"read"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	ReadAt    *time.Time        `bson:"read_at,omitempty" json:"read_at,omitempty"`
}

// Content is a message before delivery. NewContent sanitizes it.
type Content struct {
	Type  Type
	Title string
	Body  string
	Data  map[string]string
}

func NewContent(t Type, title, body string, data map[string]string) (Content, error) {
	title = sanitize.Text(title, maxTitleRunes)
	body = sanitize.Text(body, maxBodyRunes)
	if strings.TrimSpace(title) == "" {
		return Content{}, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(body) == "" {
		return Content{}, dErrors.New(dErrors.CodeValidation, "body is required")
	}
	return Content{Type: t, Title: title, Body: body, Data: data}, nil
}

// Result summarizes one dispatch. Partial delivery is not an error.
type Result struct {
	SuccessCount int  `json:"messageCount"`
	FailureCount int  `json:"failureCount"`
	NoDevices    bool `json:"noDevices"`
}

// Store persists in-app notifications. MarkRead returns sentinel.ErrNotFound
// when the notification does not exist or belongs to someone else.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID, at time.Time) error
	DeleteByUser(ctx context.Context, userID id.UserID) (int64, error)
}
