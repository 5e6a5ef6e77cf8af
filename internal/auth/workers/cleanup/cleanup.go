package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RefreshTokenStore exposes cleanup for refresh tokens and rotation artifacts.
type RefreshTokenStore interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
	DeleteUsedTokens(ctx context.Context) (int, error)
}

// SubscriptionStore marks subscriptions whose paid period ended as lapsed.
type SubscriptionStore interface {
	ExpireLapsed(ctx context.Context, now time.Time) (int, error)
}

// CleanupResult summarizes the work performed by a cleanup run.
type CleanupResult struct {
	DeletedRefreshTokens     int
	DeletedUsedRefreshTokens int
	ExpiredSubscriptions     int
}

var runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "registro_cleanup_runs_total",
	Help: "Background cleanup runs by outcome",
}, []string{"outcome"})

// CleanupService periodically removes expired refresh tokens and lapses
// unpaid subscriptions.
type CleanupService struct {
	refreshTokenStore RefreshTokenStore
	subscriptions     SubscriptionStore
	interval          time.Duration
	logger            *slog.Logger
	now               func() time.Time
}

// CleanupOption configures CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCleanupLogger overrides the logger used for cleanup errors.
func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSubscriptionStore enables lapsing of subscriptions past fin_periodo.
func WithSubscriptionStore(store SubscriptionStore) CleanupOption {
	return func(s *CleanupService) {
		s.subscriptions = store
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) CleanupOption {
	return func(s *CleanupService) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a CleanupService with required stores and options applied.
func New(refreshTokenStore RefreshTokenStore, opts ...CleanupOption) (*CleanupService, error) {
	if refreshTokenStore == nil {
		return nil, fmt.Errorf("refreshTokenStore is required")
	}
	svc := &CleanupService{
		refreshTokenStore: refreshTokenStore,
		interval:          15 * time.Minute,
		logger:            slog.Default(),
		now:               time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup once immediately and then periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	s.runAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runAndLog(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *CleanupService) runAndLog(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		s.logger.ErrorContext(ctx, "cleanup failed", "error", err)
		return
	}
	runsTotal.WithLabelValues("ok").Inc()
	if res != (CleanupResult{}) {
		s.logger.InfoContext(ctx, "cleanup completed",
			"deleted_refresh_tokens", res.DeletedRefreshTokens,
			"deleted_used_refresh_tokens", res.DeletedUsedRefreshTokens,
			"expired_subscriptions", res.ExpiredSubscriptions,
		)
	}
}

// RunOnce performs a single cleanup pass. Failures of individual steps are
// joined; the remaining steps still run.
func (s *CleanupService) RunOnce(ctx context.Context) (CleanupResult, error) {
	now := s.now()
	var res CleanupResult
	var errs []error

	deletedExpiredRefresh, err := s.refreshTokenStore.DeleteExpiredTokens(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete expired refresh tokens: %w", err))
	} else {
		res.DeletedRefreshTokens = deletedExpiredRefresh
	}

	deletedUsedRefresh, err := s.refreshTokenStore.DeleteUsedTokens(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete used refresh tokens: %w", err))
	} else {
		res.DeletedUsedRefreshTokens = deletedUsedRefresh
	}

	if s.subscriptions != nil {
		expired, err := s.subscriptions.ExpireLapsed(ctx, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("expire lapsed subscriptions: %w", err))
		} else {
			res.ExpiredSubscriptions = expired
		}
	}

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}
