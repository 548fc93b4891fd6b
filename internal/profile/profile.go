// Package profile holds user profile documents: role, status, device tokens and
// the presence fields mirrored from the realtime store.
package profile

import (
	"context"
	"strings"
	"time"

	"territorial/internal/authz"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
)

type DeviceToken struct {
	Token    string    `bson:"token" json:"token"`
	Platform string    `bson:"platform" json:"platform"`
	AddedAt  time.Time `bson:"added_at" json:"added_at"`
}

// Profile is the user document. Its ID equals the identity ID.
//
// Invariants:
//   - Name is non-empty
//   - Role and Status are members of their enumerations
//   - LastSeen only moves forward (see Store.UpdatePresence)
type Profile struct {
	ID             id.UserID         `bson:"_id" json:"id"`
	CongregationID id.CongregationID `bson:"congregation_id" json:"congregation_id"`
	Name           string            `bson:"name" json:"name"`
	Email          string            `bson:"email" json:"email"`
	Role           id.Role           `bson:"role" json:"role"`
	Status         id.UserStatus     `bson:"status" json:"status"`
	DeviceTokens   []DeviceToken     `bson:"device_tokens" json:"-"`
	IsOnline       bool              `bson:"is_online" json:"is_online"`
	LastSeen       time.Time         `bson:"last_seen" json:"last_seen"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updated_at"`
}

func NewProfile(userID id.UserID, congregationID id.CongregationID, name, email string, role id.Role, status id.UserStatus, now time.Time) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile name must be 128 characters or less")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid status")
	}
	return &Profile{
		ID:             userID,
		CongregationID: congregationID,
		Name:           name,
		Email:          email,
		Role:           role,
		Status:         status,
		DeviceTokens:   []DeviceToken{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (p *Profile) IsActive() bool {
	return p.Status == id.UserStatusActive
}

// Tokens returns the registered device token strings.
func (p *Profile) Tokens() []string {
	out := make([]string, len(p.DeviceTokens))
	for i, t := range p.DeviceTokens {
		out[i] = t.Token
	}
	return out
}

// AuthzRequest builds a policy request with this profile as the caller.
func (p *Profile) AuthzRequest(action authz.Action, congregationID id.CongregationID) authz.Request {
	return authz.Request{
		CallerID:             p.ID,
		CallerRole:           p.Role,
		CallerStatus:         p.Status,
		CallerCongregationID: p.CongregationID,
		Action:               action,
		TargetCongregationID: congregationID,
	}
}

// Store persists profiles. Lookups of absent profiles return sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, p *Profile) error
	FindByID(ctx context.Context, userID id.UserID) (*Profile, error)
	Delete(ctx context.Context, userID id.UserID) error
	ListByRole(ctx context.Context, congregationID id.CongregationID, roles ...id.Role) ([]*Profile, error)
	AddDeviceToken(ctx context.Context, userID id.UserID, token DeviceToken) error
	// RemoveDeviceTokens pulls all given tokens in a single update.
	RemoveDeviceTokens(ctx context.Context, userID id.UserID, tokens []string) error
	// UpdatePresence writes presence only when lastSeen is newer than the stored
	// value and reports whether it did.
	UpdatePresence(ctx context.Context, userID id.UserID, online bool, lastSeen time.Time) (bool, error)
}
