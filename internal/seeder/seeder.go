package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	authmodels "registro/internal/auth/models"
	billingmodels "registro/internal/billing/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
)

// UserStore defines the user operations the seeder needs.
type UserStore interface {
	CountActiveAdmins(ctx context.Context) (int, error)
	Create(ctx context.Context, user *authmodels.User) error
}

// PlanStore inserts a plan unless its codigo already exists.
type PlanStore interface {
	EnsurePlan(ctx context.Context, p *billingmodels.Plan) (bool, error)
}

// AdminCredentials names the administrator created on an empty install.
type AdminCredentials struct {
	Username string
	Password string
}

// Seeder writes first-boot data. Every step is idempotent so it runs on each
// start.
type Seeder struct {
	users      UserStore
	plans      PlanStore
	admin      AdminCredentials
	logger     *slog.Logger
	bcryptCost int
	now        func() time.Time
}

type Option func(*Seeder)

// WithBcryptCost overrides the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Seeder) { s.bcryptCost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

// New creates a new seeder
func New(users UserStore, plans PlanStore, admin AdminCredentials, logger *slog.Logger, opts ...Option) *Seeder {
	s := &Seeder{
		users:      users,
		plans:      plans,
		admin:      admin,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultPlans is the catalogue inserted on first boot.
func DefaultPlans() []billingmodels.Plan {
	return []billingmodels.Plan{
		{Codigo: "basico", Nombre: "Basico mensual", Precio: decimal.NewFromInt(150000), Intervalo: billingmodels.IntervaloMensual},
		{Codigo: "anual", Nombre: "Profesional anual", Precio: decimal.NewFromInt(1500000), Intervalo: billingmodels.IntervaloAnual},
	}
}

// SeedAll bootstraps the administrator and the default plans.
func (s *Seeder) SeedAll(ctx context.Context) error {
	if err := s.seedAdmin(ctx); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	created, err := s.seedPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed planes: %w", err)
	}
	s.logger.InfoContext(ctx, "seed complete", "planes_created", created)
	return nil
}

func (s *Seeder) seedAdmin(ctx context.Context) error {
	username := strings.ToLower(strings.TrimSpace(s.admin.Username))
	if username == "" || s.admin.Password == "" {
		return nil
	}
	n, err := s.users.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.admin.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	user := &authmodels.User{
		ID:           id.UserID(uuid.New()),
		Username:     username,
		PasswordHash: string(hash),
		Nombre:       "Administrador",
		Role:         id.RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.logger.WarnContext(ctx, "bootstrap admin username already taken by a non-admin user", "username", username)
			return nil
		}
		return err
	}
	s.logger.InfoContext(ctx, "bootstrap admin created", "username", username, "user_id", user.ID.String())
	return nil
}

func (s *Seeder) seedPlans(ctx context.Context) (int, error) {
	created := 0
	now := s.now()
	for _, p := range DefaultPlans() {
		p.ID = id.PlanID(uuid.New())
		p.Moneda = billingmodels.DefaultMoneda
		p.Activo = true
		p.CreatedAt = now
		ok, err := s.plans.EnsurePlan(ctx, &p)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}
