package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"registro/internal/auth/device"
	"registro/internal/auth/models"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/requestcontext"
)

// dummyHash keeps unknown-user logins as slow as wrong-password ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("registro-timing-equalizer"), bcrypt.DefaultCost)

// Login verifies credentials and issues an access token and a refresh token.
// Unknown users, inactive users and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResult, error) {
	start := time.Now()
	defer func() {
		s.observeLoginDuration(float64(time.Since(start).Milliseconds()))
	}()

	ip := requestcontext.ClientIP(ctx)
	if s.throttle != nil {
		if err := s.throttle.Check(ctx, req.Username, ip); err != nil {
			return nil, err
		}
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if isNotFound(err) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			s.loginFailed(ctx, req.Username, ip, "unknown_user")
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.ErrorContext(ctx, "password hash unreadable", "error", err, "user_id", user.ID)
		}
		s.loginFailed(ctx, req.Username, ip, "bad_password", "user_id", user.ID.String())
		return nil, errInvalidCredentials
	}
	if !user.Active {
		s.loginFailed(ctx, req.Username, ip, "inactive_user", "user_id", user.ID.String())
		return nil, errInvalidCredentials
	}

	var result *models.TokenResult
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var issueErr error
		result, issueErr = s.issueTokens(ctx, user)
		return issueErr
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue tokens")
	}

	if s.throttle != nil {
		if err := s.throttle.Clear(ctx, req.Username, ip); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login failures", "error", err)
		}
	}
	s.logAudit(ctx, "user_logged_in", "user_id", user.ID.String())
	s.incrementLoginSuccess()
	return result, nil
}

// loginFailed logs the failure and feeds the throttle. A throttle error only
// costs the lockout bookkeeping, never the response.
func (s *Service) loginFailed(ctx context.Context, username, ip, reason string, attrs ...any) {
	s.authFailure(ctx, reason, attrs...)
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, username, ip); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
	}
}

func (s *Service) issueTokens(ctx context.Context, user *models.User) (*models.TokenResult, error) {
	accessToken, _, err := s.jwt.GenerateAccessToken(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	rawRefresh, err := s.jwt.CreateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	record := &models.RefreshTokenRecord{
		ID:        uuid.NewString(),
		TokenHash: HashRefreshToken(rawRefresh),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		UserAgent: device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &models.TokenResult{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwt.TokenTTL().Seconds()),
		User:         models.ToUserResponse(user),
		RefreshToken: rawRefresh,
		RefreshTTL:   s.refreshTTL,
	}, nil
}
