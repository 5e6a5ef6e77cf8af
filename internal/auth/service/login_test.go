package service

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"registro/internal/auth/models"
	ratelimitmodels "registro/internal/ratelimit/models"
	ratelimitsvc "registro/internal/ratelimit/service"
	ratelimitstore "registro/internal/ratelimit/store"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/requestcontext"
)

func (s *ServiceSuite) TestLogin() {
	s.Run("valid credentials issue both tokens", func() {
		res, err := s.service.Login(s.ctx, &models.LoginRequest{Username: "admin", Password: testPassword})
		s.Require().NoError(err)
		s.NotEmpty(res.AccessToken)
		s.NotEmpty(res.RefreshToken)
		s.Equal("Bearer", res.TokenType)
		s.Equal(900, res.ExpiresIn)
		s.Equal("admin", res.User.Username)

		claims, err := s.jwt.ValidateToken(res.AccessToken)
		s.Require().NoError(err)
		s.Equal("admin", claims.Role)

		record, err := s.tokens.Find(s.ctx, HashRefreshToken(res.RefreshToken))
		s.Require().NoError(err)
		s.Equal("Firefox on Linux", record.UserAgent)
	})

	s.Run("wrong password, unknown user and inactive user look the same", func() {
		s.addUser("inactivo", id.RoleEditor, false)
		cases := []models.LoginRequest{
			{Username: "admin", Password: "incorrecta"},
			{Username: "nadie", Password: testPassword},
			{Username: "inactivo", Password: testPassword},
		}
		for _, req := range cases {
			_, err := s.service.Login(s.ctx, &req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
			s.Equal("credenciales invalidas", err.Error())
		}
	})
}

func (s *ServiceSuite) TestLoginThrottle() {
	throttle, err := ratelimitsvc.New(ratelimitstore.NewInMemory(),
		ratelimitsvc.WithConfig(ratelimitmodels.Config{MaxFailures: 3, Window: time.Minute, LockDuration: time.Minute}))
	s.Require().NoError(err)
	svc := New(s.users, s.tokens, s.jwt,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBcryptCost(bcrypt.MinCost),
		WithLoginThrottle(throttle),
	)
	bad := &models.LoginRequest{Username: "admin", Password: "incorrecta"}
	good := &models.LoginRequest{Username: "admin", Password: testPassword}

	s.Run("success clears earlier failures", func() {
		for range 2 {
			_, err := svc.Login(s.ctx, bad)
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}
		_, err := svc.Login(s.ctx, good)
		s.Require().NoError(err)
		for range 2 {
			_, _ = svc.Login(s.ctx, bad)
		}
		_, err = svc.Login(s.ctx, good)
		s.NoError(err, "two failures after a success stay below the threshold")
	})

	s.Run("threshold locks even the right password", func() {
		for range 3 {
			_, _ = svc.Login(s.ctx, bad)
		}
		_, err := svc.Login(s.ctx, good)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))

		other := requestcontext.WithClientMetadata(s.ctx, "10.0.0.99", "")
		_, err = svc.Login(other, good)
		s.NoError(err, "another address is not locked")
	})
}

func (s *ServiceSuite) TestRefresh() {
	login, err := s.service.Login(s.ctx, &models.LoginRequest{Username: "admin", Password: testPassword})
	s.Require().NoError(err)

	s.Run("rotation returns a new refresh token", func() {
		res, err := s.service.Refresh(s.ctx, login.RefreshToken)
		s.Require().NoError(err)
		s.NotEqual(login.RefreshToken, res.RefreshToken)
		s.NotEmpty(res.AccessToken)

		old, err := s.tokens.Find(s.ctx, HashRefreshToken(login.RefreshToken))
		s.Require().NoError(err)
		s.True(old.Used)
	})

	s.Run("reuse revokes every token of the user", func() {
		fresh, err := s.service.Login(s.ctx, &models.LoginRequest{Username: "admin", Password: testPassword})
		s.Require().NoError(err)

		_, err = s.service.Refresh(s.ctx, login.RefreshToken)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		_, err = s.tokens.Find(s.ctx, HashRefreshToken(fresh.RefreshToken))
		s.Error(err, "sibling tokens must be revoked after reuse")
	})

	s.Run("unknown and empty tokens", func() {
		_, err := s.service.Refresh(s.ctx, "desconocido")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		_, err = s.service.Refresh(s.ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("expired token", func() {
		res, err := s.service.Login(s.ctx, &models.LoginRequest{Username: "admin", Password: testPassword})
		s.Require().NoError(err)
		later := requestcontext.WithTime(s.ctx, time.Now().Add(2*time.Hour))
		_, err = s.service.Refresh(later, res.RefreshToken)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("deactivated user cannot refresh", func() {
		editor := s.addUser("editor", id.RoleEditor, true)
		res, err := s.service.Login(s.ctx, &models.LoginRequest{Username: "editor", Password: testPassword})
		s.Require().NoError(err)

		editor.Active = false
		s.Require().NoError(s.users.Update(s.ctx, editor))

		_, err = s.service.Refresh(s.ctx, res.RefreshToken)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestLogout() {
	login, err := s.service.Login(s.ctx, &models.LoginRequest{Username: "admin", Password: testPassword})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, login.RefreshToken))
	_, err = s.tokens.Find(s.ctx, HashRefreshToken(login.RefreshToken))
	s.Error(err)

	s.NoError(s.service.Logout(s.ctx, login.RefreshToken), "logout is idempotent")
	s.NoError(s.service.Logout(s.ctx, ""))
}

func (s *ServiceSuite) TestIsActive() {
	active, err := s.service.IsActive(s.ctx, s.admin.ID)
	s.Require().NoError(err)
	s.True(active)

	inactive := s.addUser("baja", id.RoleReader, false)
	active, err = s.service.IsActive(s.ctx, inactive.ID)
	s.Require().NoError(err)
	s.False(active)
}
