// Package service throttles password logins: repeated failures for the same
// username and client address lock that pair out for a while.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"registro/internal/platform/metrics"
	"registro/internal/ratelimit/models"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/requestcontext"
)

// Store persists lockout state.
type Store interface {
	Get(ctx context.Context, key string, now time.Time, window time.Duration) (*models.Lockout, error)
	RecordFailure(ctx context.Context, key string, now time.Time, window time.Duration) (*models.Lockout, error)
	Lock(ctx context.Context, key string, until time.Time) error
	Clear(ctx context.Context, key string) error
}

type Service struct {
	store   Store
	config  models.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithConfig overrides the thresholds. Non-positive fields keep the defaults.
func WithConfig(cfg models.Config) Option {
	return func(s *Service) {
		if cfg.MaxFailures > 0 {
			s.config.MaxFailures = cfg.MaxFailures
		}
		if cfg.Window > 0 {
			s.config.Window = cfg.Window
		}
		if cfg.LockDuration > 0 {
			s.config.LockDuration = cfg.LockDuration
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("lockout store is required")
	}
	svc := &Service{store: store, config: models.DefaultConfig()}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Check returns a CodeTooManyRequests error while the pair is locked.
func (s *Service) Check(ctx context.Context, username, ip string) error {
	now := requestcontext.Now(ctx)
	rec, err := s.store.Get(ctx, models.LockoutKey(username, ip), now, s.config.Window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read login lockout")
	}
	if !rec.IsLocked(now) {
		return nil
	}
	s.increment("rejected")
	return lockedError(rec.LockedUntil.Sub(now))
}

// RecordFailure counts a failed login and locks the pair once the threshold
// is reached.
func (s *Service) RecordFailure(ctx context.Context, username, ip string) error {
	now := requestcontext.Now(ctx)
	key := models.LockoutKey(username, ip)
	rec, err := s.store.RecordFailure(ctx, key, now, s.config.Window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	s.increment("failure")
	if rec.Failures < s.config.MaxFailures || rec.IsLocked(now) {
		return nil
	}

	until := now.Add(s.config.LockDuration)
	if err := s.store.Lock(ctx, key, until); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock login")
	}
	s.increment("lockout")
	s.logAudit(ctx, "login_locked",
		"username", username,
		"ip", ip,
		"failures", rec.Failures,
		"locked_until", until,
	)
	return nil
}

// Clear forgets the failures of a pair after a successful login.
func (s *Service) Clear(ctx context.Context, username, ip string) error {
	if err := s.store.Clear(ctx, models.LockoutKey(username, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}

func lockedError(remaining time.Duration) error {
	minutes := int(math.Ceil(remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return dErrors.New(dErrors.CodeTooManyRequests,
		fmt.Sprintf("demasiados intentos fallidos; intente de nuevo en %d minuto(s)", minutes))
}

func (s *Service) increment(event string) {
	if s.metrics != nil {
		s.metrics.IncrementLoginThrottle(event)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
