package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mssola/useragent"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"territorial/internal/authz"
	"territorial/internal/notification/gateway"
	"territorial/internal/profile"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/sentinel"
	pstrings "territorial/pkg/platform/strings"
	"territorial/pkg/requestcontext"
)

const (
	maxTokenLength = 4096
	defaultListMax = 50
)

// ProfileStore is the subset of profile persistence the dispatcher touches.
type ProfileStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*profile.Profile, error)
	ListByRole(ctx context.Context, congregationID id.CongregationID, roles ...id.Role) ([]*profile.Profile, error)
	AddDeviceToken(ctx context.Context, userID id.UserID, token profile.DeviceToken) error
	RemoveDeviceTokens(ctx context.Context, userID id.UserID, tokens []string) error
}

// Service fans messages out to device tokens and keeps the in-app inbox.
type Service struct {
	store       Store
	profiles    ProfileStore
	gateway     gateway.Gateway
	logger      *zap.Logger
	metrics     *Metrics
	tracer      trace.Tracer
	concurrency int
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

// WithConcurrency bounds in-flight gateway calls per dispatch.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(store Store, profiles ProfileStore, gw gateway.Gateway, opts ...Option) *Service {
	s := &Service{
		store:       store,
		profiles:    profiles,
		gateway:     gw,
		logger:      zap.NewNop(),
		tracer:      otel.Tracer("territorial/notification"),
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch records content in the user's inbox and pushes it to each of their
// devices. Tokens the gateway reports dead are pulled in a single update.
func (s *Service) Dispatch(ctx context.Context, userID id.UserID, content Content) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "notification.Dispatch",
		trace.WithAttributes(attribute.String("user_id", userID.String()), attribute.String("type", string(content.Type))))
	defer span.End()

	target, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Result{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	n := &Notification{
		ID:        id.NewNotificationID(),
		UserID:    target.ID,
		Type:      content.Type,
		Title:     content.Title,
		Body:      content.Body,
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store notification")
	}

	tokens := pstrings.DedupeAndTrim(target.Tokens())
	if len(tokens) == 0 {
		s.logger.Info("notification has no devices", zap.String("user_id", userID.String()))
		result := Result{NoDevices: true}
		s.metrics.observeDispatch(content.Type, result)
		return result, nil
	}

	result, dead := s.fanOut(ctx, tokens, content)
	s.metrics.observeDispatch(content.Type, result)

	if len(dead) > 0 {
		if err := s.profiles.RemoveDeviceTokens(ctx, target.ID, dead); err != nil {
			s.logger.Error("failed to prune dead device tokens",
				zap.String("user_id", userID.String()),
				zap.Int("tokens", len(dead)),
				zap.Error(err),
			)
		} else {
			s.metrics.observePruned(len(dead))
		}
	}

	s.logger.Info("notification dispatched",
		zap.String("user_id", userID.String()),
		zap.String("type", string(content.Type)),
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount),
		zap.Int("pruned", len(dead)),
	)
	return result, nil
}

func (s *Service) fanOut(ctx context.Context, tokens []string, content Content) (Result, []string) {
	var (
		success, failure atomic.Int64
		mu               sync.Mutex
		dead             []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, token := range tokens {
		g.Go(func() error {
			err := s.gateway.Send(gctx, gateway.Message{
				Token: token,
				Title: content.Title,
				Body:  content.Body,
				Data:  content.Data,
			})
			if err == nil {
				success.Add(1)
				return nil
			}
			failure.Add(1)
			if gateway.IsDeadToken(err) {
				mu.Lock()
				dead = append(dead, token)
				mu.Unlock()
				return nil
			}
			s.logger.Warn("push delivery failed", zap.Error(err))
			return nil
		})
	}
	_ = g.Wait()

	return Result{SuccessCount: int(success.Load()), FailureCount: int(failure.Load())}, dead
}

// SendOverdueNotification is the manual reminder sent by a supervisor or
// administrator of the target's congregation.
func (s *Service) SendOverdueNotification(ctx context.Context, callerID, targetID id.UserID, title, body string) (Result, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return Result{}, err
	}
	content, err := NewContent(TypeManual, title, body, map[string]string{"kind": string(TypeManual)})
	if err != nil {
		return Result{}, err
	}
	// Role and status are checked before the target is loaded.
	if err := authz.Decide(caller.AuthzRequest(authz.ActionSendNotification, caller.CongregationID)).Err(); err != nil {
		return Result{}, err
	}
	target, err := s.profiles.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Result{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := authz.Decide(caller.AuthzRequest(authz.ActionSendNotification, target.CongregationID)).Err(); err != nil {
		return Result{}, err
	}
	return s.Dispatch(ctx, target.ID, content)
}

// RegisterDevice stores a push token for the caller. An empty platform is
// derived from the user agent.
func (s *Service) RegisterDevice(ctx context.Context, callerID id.UserID, token, platform, userAgent string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	if len(token) > maxTokenLength {
		return dErrors.New(dErrors.CodeValidation, "token is too long")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		platform = PlatformFromUserAgent(userAgent)
	}
	err := s.profiles.AddDeviceToken(ctx, callerID, profile.DeviceToken{
		Token:    token,
		Platform: platform,
		AddedAt:  requestcontext.Now(ctx).UTC(),
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "caller profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register device")
	}
	return nil
}

func (s *Service) RemoveDevice(ctx context.Context, callerID id.UserID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	if err := s.profiles.RemoveDeviceTokens(ctx, callerID, []string{token}); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "caller profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove device")
	}
	return nil
}

func (s *Service) List(ctx context.Context, callerID id.UserID, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > defaultListMax {
		limit = defaultListMax
	}
	out, err := s.store.ListByUser(ctx, callerID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, callerID id.UserID, notificationID id.NotificationID) error {
	err := s.store.MarkRead(ctx, callerID, notificationID, requestcontext.Now(ctx).UTC())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return nil
}

// DeleteForUser drops the user's inbox. Used by account deletion.
func (s *Service) DeleteForUser(ctx context.Context, userID id.UserID) (int64, error) {
	n, err := s.store.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete notifications")
	}
	return n, nil
}

func (s *Service) caller(ctx context.Context, callerID id.UserID) (*profile.Profile, error) {
	p, err := s.profiles.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "caller profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load caller profile")
	}
	return p, nil
}

// PlatformFromUserAgent maps a client user agent to android, ios, mobile or web.
func PlatformFromUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "unknown"
	}
	ua := useragent.New(raw)
	name := strings.ToLower(ua.OSInfo().Name + " " + ua.Platform())
	switch {
	case strings.Contains(name, "android"):
		return "android"
	case strings.Contains(name, "iphone"), strings.Contains(name, "ipad"), strings.Contains(name, "ios"):
		return "ios"
	case ua.Mobile():
		return "mobile"
	default:
		return "web"
	}
}
