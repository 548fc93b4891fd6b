// Package identity holds login credentials. Identities live in PostgreSQL,
// apart from the profile documents that carry roles and membership.
package identity

import (
	"context"
	"strings"
	"time"

	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
)

type Identity struct {
	ID           id.UserID
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// NewIdentity expects a normalized email and an already hashed password.
func NewIdentity(userID id.UserID, email, passwordHash, displayName string, now time.Time) (*Identity, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity email cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity password hash cannot be empty")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity display name cannot be empty")
	}
	return &Identity{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		CreatedAt:    now.UTC(),
	}, nil
}

// Store persists identities. Missing rows return sentinel.ErrNotFound and a
// taken email returns sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, i *Identity) error
	FindByID(ctx context.Context, userID id.UserID) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	Delete(ctx context.Context, userID id.UserID) error
}
