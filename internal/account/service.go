// Package account deletes accounts under the authorization policy, registers
// members awaiting approval and exchanges credentials for access tokens.
package account

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"territorial/internal/authz"
	"territorial/internal/congregation"
	"territorial/internal/events"
	"territorial/internal/identity"
	"territorial/internal/identity/secrets"
	"territorial/internal/profile"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/email"
	"territorial/pkg/platform/audit"
	"territorial/pkg/platform/saga"
	"territorial/pkg/platform/sentinel"
	"territorial/pkg/platform/tx"
	"territorial/pkg/requestcontext"
)

type ProfileStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*profile.Profile, error)
	Create(ctx context.Context, p *profile.Profile) error
	Delete(ctx context.Context, userID id.UserID) error
}

type CongregationReader interface {
	FindByID(ctx context.Context, congregationID id.CongregationID) (*congregation.Congregation, error)
}

// PresenceRemover drops a user's realtime presence keys.
type PresenceRemover interface {
	Remove(ctx context.Context, userID id.UserID) error
}

// InboxRemover drops a user's stored notifications.
type InboxRemover interface {
	DeleteByUser(ctx context.Context, userID id.UserID) (int64, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, congregationID id.CongregationID, expiresIn time.Duration) (string, error)
}

// AuditRecorder stores account audit events.
type AuditRecorder interface {
	Record(ctx context.Context, ev audit.Event) error
}

// SignInGuard throttles repeated failed sign-ins.
type SignInGuard interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) (bool, error)
	Clear(ctx context.Context, email, ip string) error
}

type EventAppender interface {
	Append(ctx context.Context, env events.Envelope) error
}

type Service struct {
	identities    identity.Store
	profiles      ProfileStore
	congregations CongregationReader
	outbox        EventAppender
	tx            tx.Transactor
	tokens        TokenIssuer
	presence      PresenceRemover
	inbox         InboxRemover
	guard         SignInGuard
	audit         AuditRecorder
	tokenTTL      time.Duration
	logger        *zap.Logger
	metrics       *Metrics
	tracer        trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPresence(p PresenceRemover) Option {
	return func(s *Service) {
		s.presence = p
	}
}

func WithInbox(i InboxRemover) Option {
	return func(s *Service) {
		s.inbox = i
	}
}

func WithAudit(r AuditRecorder) Option {
	return func(s *Service) {
		s.audit = r
	}
}

func WithSignInGuard(g SignInGuard) Option {
	return func(s *Service) {
		s.guard = g
	}
}

func WithTokenTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tokenTTL = d
		}
	}
}

func New(identities identity.Store, profiles ProfileStore, congregations CongregationReader, outbox EventAppender, transactor tx.Transactor, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		identities:    identities,
		profiles:      profiles,
		congregations: congregations,
		outbox:        outbox,
		tx:            transactor,
		tokens:        tokens,
		tokenTTL:      time.Hour,
		logger:        zap.NewNop(),
		tracer:        otel.Tracer("territorial/account"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DeleteAccount removes the target's identity and profile. Members may delete
// themselves; administrators may delete anyone else but not themselves.
// Parts already gone count as deleted, so a retried call completes cleanup.
func (s *Service) DeleteAccount(ctx context.Context, callerID, targetID id.UserID) error {
	ctx, span := s.tracer.Start(ctx, "account.DeleteAccount",
		trace.WithAttributes(attribute.String("target_id", targetID.String())))
	defer span.End()

	if targetID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "userIdToDelete is required")
	}
	caller, err := s.profiles.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "caller profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load caller profile")
	}

	var targetCongregation id.CongregationID
	if targetID == caller.ID {
		targetCongregation = caller.CongregationID
	} else {
		target, err := s.profiles.FindByID(ctx, targetID)
		switch {
		case err == nil:
			targetCongregation = target.CongregationID
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load target profile")
		}
	}

	req := caller.AuthzRequest(authz.ActionDeleteAccount, targetCongregation)
	req.TargetID = targetID
	if decision := authz.Decide(req); !decision.Allowed {
		s.logger.Warn("account deletion denied",
			zap.String("caller_id", callerID.String()),
			zap.String("target_id", targetID.String()),
			zap.String("reason", decision.Reason),
		)
		return decision.Err()
	}

	if err := s.identities.Delete(ctx, targetID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete identity")
	}
	if err := s.profiles.Delete(ctx, targetID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete profile")
	}
	s.cleanup(ctx, targetID)
	s.record(ctx, audit.Event{
		Action:         audit.ActionAccountDeleted,
		ActorID:        callerID,
		SubjectID:      targetID.String(),
		CongregationID: targetCongregation,
	})

	s.metrics.incDeleted(targetID == callerID)
	s.logger.Info("account deleted",
		zap.String("caller_id", callerID.String()),
		zap.String("target_id", targetID.String()),
	)
	return nil
}

// cleanup removes derived data. Failures are logged; the account itself is
// already gone.
func (s *Service) cleanup(ctx context.Context, userID id.UserID) {
	if s.presence != nil {
		if err := s.presence.Remove(ctx, userID); err != nil {
			s.logger.Warn("failed to remove presence keys", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	if s.inbox != nil {
		if _, err := s.inbox.DeleteByUser(ctx, userID); err != nil {
			s.logger.Warn("failed to remove notifications", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
}

// record stores an audit event after the change it describes has committed,
// so a failure is logged and not returned.
func (s *Service) record(ctx context.Context, ev audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.logger.Warn("audit event dropped", zap.String("action", string(ev.Action)), zap.Error(err))
	}
}

type RegisterRequest struct {
	CongregationID id.CongregationID
	Name           string
	Email          string
	Password       string
}

// RegisterMember creates a login and a pending publisher profile, and
// announces the member so administrators can approve them.
func (s *Service) RegisterMember(ctx context.Context, req RegisterRequest) (*profile.Profile, error) {
	now := requestcontext.Now(ctx).UTC()

	addr, err := email.Normalize(req.Email)
	if err != nil {
		return nil, err
	}
	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	if _, err := s.congregations.FindByID(ctx, req.CongregationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "congregation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load congregation")
	}

	name := req.Name
	if name == "" {
		name = email.DisplayNameFromEmail(addr)
	}
	ident, err := identity.NewIdentity(id.NewUserID(), addr, hash, name, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid member")
	}
	member, err := profile.NewProfile(ident.ID, req.CongregationID, name, addr, id.RolePublisher, id.UserStatusPending, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid member")
	}
	env, err := events.New(events.TypeUserCreated, member.ID.String(), now, events.UserCreated{
		UserID:         member.ID,
		CongregationID: member.CongregationID,
		Name:           member.Name,
		Status:         member.Status,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build event")
	}
	env.RequestID = requestcontext.RequestID(ctx)

	run := saga.New("register_member", s.logger,
		saga.Step{
			Name: "identity",
			Do: func(ctx context.Context) error {
				if err := s.identities.Create(ctx, ident); err != nil {
					if errors.Is(err, sentinel.ErrConflict) {
						return dErrors.New(dErrors.CodeConflict, "email already registered")
					}
					return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
				}
				return nil
			},
			Undo: func(ctx context.Context) error {
				if err := s.identities.Delete(ctx, ident.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
					return err
				}
				return nil
			},
		},
		saga.Step{
			Name: "profile",
			Do: func(ctx context.Context) error {
				return s.tx.RunInTx(ctx, func(ctx context.Context) error {
					if err := s.profiles.Create(ctx, member); err != nil {
						if errors.Is(err, sentinel.ErrConflict) {
							return dErrors.New(dErrors.CodeConflict, "email already registered")
						}
						return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
					}
					if err := s.outbox.Append(ctx, env); err != nil {
						return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
					}
					return nil
				})
			},
		},
	)
	if err := run.Run(ctx); err != nil {
		return nil, err
	}

	s.record(ctx, audit.Event{
		Action:         audit.ActionMemberRegistered,
		ActorID:        member.ID,
		SubjectID:      member.ID.String(),
		CongregationID: member.CongregationID,
	})
	s.metrics.incRegistered()
	s.logger.Info("member registered",
		zap.String("user_id", member.ID.String()),
		zap.String("congregation_id", member.CongregationID.String()),
	)
	return member, nil
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// IssueToken checks credentials and returns a bearer token. Unknown emails and
// wrong passwords are indistinguishable to the caller. With a sign-in guard,
// repeated failures from one address lock the email for a while.
func (s *Service) IssueToken(ctx context.Context, emailAddr, password string) (*Token, error) {
	ip := requestcontext.ClientIP(ctx)
	if s.guard != nil {
		if err := s.guard.Check(ctx, emailAddr, ip); err != nil {
			s.metrics.incLogin(false)
			return nil, err
		}
	}

	ident, err := s.verifyCredentials(ctx, emailAddr, password)
	if err != nil {
		s.metrics.incLogin(false)
		if s.guard != nil && dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			if _, gerr := s.guard.RecordFailure(ctx, emailAddr, ip); gerr != nil {
				s.logger.Warn("failed to record sign-in failure", zap.Error(gerr))
			}
		}
		return nil, err
	}

	p, err := s.profiles.FindByID(ctx, ident.ID)
	if err != nil {
		s.metrics.incLogin(false)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	if p.Status == id.UserStatusBlocked || p.Status == id.UserStatusRejected {
		s.metrics.incLogin(false)
		return nil, dErrors.New(dErrors.CodeForbidden, "account is not allowed to sign in")
	}

	signed, err := s.tokens.GenerateAccessToken(ident.ID, p.CongregationID, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	if s.guard != nil {
		if err := s.guard.Clear(ctx, emailAddr, ip); err != nil {
			s.logger.Warn("failed to clear sign-in failures", zap.Error(err))
		}
	}
	s.metrics.incLogin(true)
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresIn: int(s.tokenTTL.Seconds())}, nil
}

func (s *Service) verifyCredentials(ctx context.Context, emailAddr, password string) (*identity.Identity, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	addr, err := email.Normalize(emailAddr)
	if err != nil {
		return nil, invalid
	}
	ident, err := s.identities.FindByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, invalid
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	if err := secrets.Verify(password, ident.PasswordHash); err != nil {
		return nil, invalid
	}
	return ident, nil
}
