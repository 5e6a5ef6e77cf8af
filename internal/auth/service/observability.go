package service

import (
	"context"

	"registro/pkg/requestcontext"
)

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) authFailure(ctx context.Context, reason string, attributes ...any) {
	args := append(attributes, "reason", reason, "request_id", requestcontext.RequestID(ctx))
	s.logger.WarnContext(ctx, "authentication failed", args...)
	if s.metrics != nil {
		s.metrics.IncrementLogin("failure")
	}
}

func (s *Service) incrementLoginSuccess() {
	if s.metrics != nil {
		s.metrics.IncrementLogin("success")
	}
}

func (s *Service) incrementTokenRefresh() {
	if s.metrics != nil {
		s.metrics.IncrementTokenRefresh()
	}
}

func (s *Service) incrementRefreshReuse() {
	if s.metrics != nil {
		s.metrics.IncrementRefreshReuse()
	}
}

func (s *Service) incrementUsersCreated() {
	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}
}

func (s *Service) observeLoginDuration(ms float64) {
	if s.metrics != nil {
		s.metrics.ObserveLoginDuration(ms)
	}
}
