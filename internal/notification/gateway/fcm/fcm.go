// Package fcm sends push messages through the FCM HTTP v1 API.
package fcm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"territorial/internal/notification/gateway"
	"territorial/pkg/platform/circuit"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string            `json:"token"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type      string `json:"@type"`
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

func (e *errorResponse) errorCode() string {
	for _, d := range e.Error.Details {
		if d.ErrorCode != "" {
			return d.ErrorCode
		}
	}
	return e.Error.Status
}

// Client is a gateway.Gateway. Server-side failures feed a circuit breaker;
// while it is open calls fail fast with gateway.ErrUnavailable.
type Client struct {
	http      *resty.Client
	projectID string
	breaker   *circuit.Breaker
	logger    *zap.Logger
}

type Option func(*Client)

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// New builds a client on top of hc, which must already authenticate requests.
func New(hc *http.Client, endpoint, projectID string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		http: resty.NewWithClient(hc).
			SetBaseURL(endpoint).
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		projectID: projectID,
		breaker:   circuit.New("fcm", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromCredentialsFile authenticates with a service account key file.
func NewFromCredentialsFile(ctx context.Context, path, endpoint, projectID string, logger *zap.Logger, opts ...Option) (*Client, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fcm credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("parse fcm credentials: %w", err)
	}
	if projectID == "" {
		projectID = creds.ProjectID
	}
	return New(oauth2.NewClient(ctx, creds.TokenSource), endpoint, projectID, logger, opts...), nil
}

func (c *Client) Send(ctx context.Context, msg gateway.Message) error {
	if !c.breaker.Allow() {
		return gateway.ErrUnavailable
	}

	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendRequest{Message: message{
			Token:        msg.Token,
			Notification: notification{Title: msg.Title, Body: msg.Body},
			Data:         msg.Data,
		}}).
		SetError(&apiErr).
		SetPathParam("project", c.projectID).
		Post("/v1/projects/{project}/messages:send")
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("fcm send: %w", err)
	}

	status := resp.StatusCode()
	switch {
	case status < 300:
		c.recordSuccess()
		return nil
	case status >= 500 || status == http.StatusTooManyRequests:
		c.recordFailure()
		return fmt.Errorf("fcm send: status %d: %s", status, apiErr.Error.Message)
	}

	// Per-token rejections say nothing about gateway health.
	c.recordSuccess()
	switch code := apiErr.errorCode(); {
	case code == "UNREGISTERED" || status == http.StatusNotFound:
		return gateway.ErrUnregistered
	case code == "INVALID_ARGUMENT":
		return fmt.Errorf("%w: %s", gateway.ErrInvalidArgument, apiErr.Error.Message)
	default:
		return fmt.Errorf("fcm send: status %d: %s", status, code)
	}
}

func (c *Client) recordFailure() {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("push gateway circuit opened", zap.String("breaker", c.breaker.Name()))
	}
}

func (c *Client) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("push gateway circuit closed", zap.String("breaker", c.breaker.Name()))
	}
}
