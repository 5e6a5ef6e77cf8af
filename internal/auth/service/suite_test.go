package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"registro/internal/auth/models"
	refreshtoken "registro/internal/auth/store/refresh-token"
	userstore "registro/internal/auth/store/user"
	jwttoken "registro/internal/jwt_token"
	id "registro/pkg/domain"
	"registro/pkg/requestcontext"
	"registro/pkg/testutil"
)

const testPassword = "contrasena-segura"

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	users   *userstore.InMemoryUserStore
	tokens  *refreshtoken.InMemoryRefreshTokenStore
	jwt     *jwttoken.JWTService
	service *Service
	admin   *models.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithClientMetadata(context.Background(), "10.0.0.1",
		"Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0")
	s.users = userstore.NewInMemoryUserStore()
	s.tokens = refreshtoken.NewInMemoryRefreshTokenStore()
	s.jwt = jwttoken.NewJWTService("test-key", "registro", 15*time.Minute)
	s.service = New(s.users, s.tokens, s.jwt,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBcryptCost(bcrypt.MinCost),
		WithRefreshTTL(time.Hour),
	)
	s.admin = s.addUser("admin", id.RoleAdmin, true)
}

func (s *ServiceSuite) addUser(username string, role id.Role, active bool) *models.User {
	b := testutil.NewUserBuilder().WithUsername(username).WithRole(role).WithPassword(testPassword)
	if !active {
		b = b.Inactive()
	}
	u := b.Build()
	s.Require().NoError(s.users.Create(context.Background(), u))
	return u
}

func (s *ServiceSuite) asAdmin() context.Context {
	return requestcontext.WithPrincipal(s.ctx, requestcontext.AuthPrincipal{UserID: s.admin.ID, Role: id.RoleAdmin})
}
