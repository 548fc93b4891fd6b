// Package provisioning creates a congregation together with its first
// administrator. Identity rows and documents live in different databases, so
// the writes run as a saga with compensation.
package provisioning

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"territorial/internal/congregation"
	"territorial/internal/identity"
	"territorial/internal/identity/secrets"
	"territorial/internal/profile"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/email"
	"territorial/pkg/platform/audit"
	"territorial/pkg/platform/saga"
	"territorial/pkg/platform/sentinel"
	"territorial/pkg/requestcontext"
)

type OrganizationData struct {
	Name string
}

type AdminData struct {
	Name     string
	Email    string
	Password string
}

type Result struct {
	CongregationID id.CongregationID `json:"congregationId"`
	AdminID        id.UserID         `json:"adminId"`
}

type ProfileCreator interface {
	Create(ctx context.Context, p *profile.Profile) error
}

// AuditRecorder stores provisioning audit events.
type AuditRecorder interface {
	Record(ctx context.Context, ev audit.Event) error
}

type Service struct {
	identities    identity.Store
	congregations congregation.Store
	profiles      ProfileCreator
	logger        *zap.Logger
	audit         AuditRecorder
}

type Option func(*Service)

func WithAudit(r AuditRecorder) Option {
	return func(s *Service) {
		s.audit = r
	}
}

func New(identities identity.Store, congregations congregation.Store, profiles ProfileCreator, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{identities: identities, congregations: congregations, profiles: profiles, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrganizationAndAdmin creates the identity, the congregation and the
// administrator profile in that order. A failure undoes the earlier steps.
func (s *Service) CreateOrganizationAndAdmin(ctx context.Context, org OrganizationData, admin AdminData) (*Result, error) {
	now := requestcontext.Now(ctx).UTC()

	addr, err := email.Normalize(admin.Email)
	if err != nil {
		return nil, err
	}
	hash, err := secrets.Hash(admin.Password)
	if err != nil {
		return nil, err
	}
	name := admin.Name
	if name == "" {
		name = email.DisplayNameFromEmail(addr)
	}

	cong, err := congregation.NewCongregation(id.NewCongregationID(), org.Name, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid congregation")
	}
	ident, err := identity.NewIdentity(id.NewUserID(), addr, hash, name, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid administrator")
	}
	adminProfile, err := profile.NewProfile(ident.ID, cong.ID, name, addr, id.RoleAdministrator, id.UserStatusActive, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid administrator")
	}

	run := saga.New("provision_congregation", s.logger,
		saga.Step{
			Name: "identity",
			Do: func(ctx context.Context) error {
				return createIdentity(ctx, s.identities, ident)
			},
			Undo: func(ctx context.Context) error {
				return ignoreNotFound(s.identities.Delete(ctx, ident.ID))
			},
		},
		saga.Step{
			Name: "congregation",
			Do: func(ctx context.Context) error {
				if err := s.congregations.Create(ctx, cong); err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create congregation")
				}
				return nil
			},
			Undo: func(ctx context.Context) error {
				return ignoreNotFound(s.congregations.Delete(ctx, cong.ID))
			},
		},
		saga.Step{
			Name: "admin_profile",
			Do: func(ctx context.Context) error {
				return createProfile(ctx, s.profiles, adminProfile)
			},
		},
	)
	if err := run.Run(ctx); err != nil {
		return nil, err
	}

	if s.audit != nil {
		err := s.audit.Record(ctx, audit.Event{
			Action:         audit.ActionCongregationProvisioned,
			ActorID:        ident.ID,
			SubjectID:      cong.ID.String(),
			CongregationID: cong.ID,
		})
		if err != nil {
			s.logger.Warn("audit event dropped", zap.Error(err))
		}
	}
	s.logger.Info("congregation provisioned",
		zap.String("congregation_id", cong.ID.String()),
		zap.String("admin_id", ident.ID.String()),
	)
	return &Result{CongregationID: cong.ID, AdminID: ident.ID}, nil
}

func createIdentity(ctx context.Context, store identity.Store, ident *identity.Identity) error {
	if err := store.Create(ctx, ident); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
	}
	return nil
}

func createProfile(ctx context.Context, store ProfileCreator, p *profile.Profile) error {
	if err := store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "profile already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}
	return nil
}

func ignoreNotFound(err error) error {
	if err == nil || errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("compensate: %w", err)
}
