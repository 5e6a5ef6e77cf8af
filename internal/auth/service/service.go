package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"registro/internal/auth/metrics"
	"registro/internal/auth/models"
	id "registro/pkg/domain"
)

// UserStore persists operator accounts.
// Error Contract: Find methods return sentinel.ErrNotFound when the user doesn't exist.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID id.UserID) error
	CountActiveAdmins(ctx context.Context) (int, error)
}

// RefreshTokenStore persists hashed refresh tokens.
type RefreshTokenStore interface {
	Create(ctx context.Context, token *models.RefreshTokenRecord) error
	Consume(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshTokenRecord, error)
	DeleteByToken(ctx context.Context, tokenHash string) error
	DeleteByUser(ctx context.Context, userID id.UserID) (int, error)
}

// TokenGenerator issues access and refresh tokens.
type TokenGenerator interface {
	GenerateAccessToken(ctx context.Context, userID id.UserID, role id.Role) (string, string, error)
	CreateRefreshToken() (string, error)
	TokenTTL() time.Duration
}

// LoginThrottle blocks repeated failed logins for a username and address.
type LoginThrottle interface {
	Check(ctx context.Context, username, ip string) error
	RecordFailure(ctx context.Context, username, ip string) error
	Clear(ctx context.Context, username, ip string) error
}

// TxRunner runs a unit of work in one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	users      UserStore
	tokens     RefreshTokenStore
	jwt        TokenGenerator
	tx         TxRunner
	throttle   LoginThrottle
	refreshTTL time.Duration
	bcryptCost int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

const (
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultBcryptCost = 12
)

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

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithLoginThrottle enables lockout after repeated failed logins.
func WithLoginThrottle(t LoginThrottle) Option {
	return func(s *Service) {
		s.throttle = t
	}
}

// WithRefreshTTL configures the lifetime of refresh tokens. Non-positive values keep the default.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithBcryptCost overrides the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

func New(users UserStore, tokens RefreshTokenStore, jwt TokenGenerator, opts ...Option) *Service {
	svc := &Service{
		users:      users,
		tokens:     tokens,
		jwt:        jwt,
		refreshTTL: defaultRefreshTTL,
		bcryptCost: defaultBcryptCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tx == nil {
		svc.tx = noopTx{}
	}
	return svc
}

// IsActive reports whether userID may keep using issued access tokens.
func (s *Service) IsActive(ctx context.Context, userID id.UserID) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return user.Active, nil
}

// HashRefreshToken returns the digest stored for an opaque refresh token.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
