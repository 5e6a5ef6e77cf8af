package service

import (
	"context"
	"errors"

	"registro/internal/auth/models"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/sentinel"
	"registro/pkg/requestcontext"
)

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued in the same transaction. Presenting an already rotated token
// revokes every refresh token of its owner.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*models.TokenResult, error) {
	if rawToken == "" {
		return nil, errInvalidRefresh
	}
	tokenHash := HashRefreshToken(rawToken)
	now := requestcontext.Now(ctx)

	var (
		consumed *models.RefreshTokenRecord
		result   *models.TokenResult
	)
	txErr := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		consumed, err = s.tokens.Consume(ctx, tokenHash, now)
		if err != nil {
			return err
		}
		user, err := s.users.FindByID(ctx, consumed.UserID)
		if err != nil {
			return err
		}
		if !user.Active {
			return sentinel.ErrInvalidState
		}
		result, err = s.issueTokens(ctx, user)
		return err
	})
	if txErr != nil {
		return nil, s.handleRefreshError(ctx, txErr, consumed)
	}

	s.logAudit(ctx, "token_refreshed", "user_id", consumed.UserID.String())
	s.incrementTokenRefresh()
	return result, nil
}

func (s *Service) handleRefreshError(ctx context.Context, err error, record *models.RefreshTokenRecord) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		s.incrementRefreshReuse()
		if record != nil {
			revoked, delErr := s.tokens.DeleteByUser(ctx, record.UserID)
			if delErr != nil {
				s.logger.ErrorContext(ctx, "failed to revoke tokens after reuse", "error", delErr, "user_id", record.UserID)
			}
			s.logAudit(ctx, "refresh_token_reuse_detected", "user_id", record.UserID.String(), "revoked", revoked)
		}
		s.authFailure(ctx, "refresh_reuse")
		return errInvalidRefresh
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrExpired), errors.Is(err, sentinel.ErrInvalidState):
		s.authFailure(ctx, "refresh_rejected", "error", err.Error())
		return errInvalidRefresh
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh token")
}

// Logout revokes the presented refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	if err := s.tokens.DeleteByToken(ctx, HashRefreshToken(rawToken)); err != nil {
		if isNotFound(err) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.logAudit(ctx, "user_logged_out")
	return nil
}
