package seeder

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	userstore "registro/internal/auth/store/user"
	billingstore "registro/internal/billing/store"
	id "registro/pkg/domain"
)

func newSeeder(users *userstore.InMemoryUserStore, plans *billingstore.InMemoryStore, admin AdminCredentials) *Seeder {
	return New(users, plans, admin, slog.New(slog.NewTextHandler(io.Discard, nil)), WithBcryptCost(bcrypt.MinCost))
}

func TestSeedAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := userstore.NewInMemoryUserStore()
	plans := billingstore.NewInMemory()
	s := newSeeder(users, plans, AdminCredentials{Username: " Admin ", Password: "s3cret-pass"})

	require.NoError(t, s.SeedAll(ctx))
	require.NoError(t, s.SeedAll(ctx))

	n, err := users.CountActiveAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	admin, err := users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, id.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("s3cret-pass")))

	all, err := plans.ListPlans(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, len(DefaultPlans()))
	assert.Equal(t, "basico", all[0].Codigo)
	assert.Equal(t, "PYG", all[0].Moneda)
}

func TestSeedSkipsAdminWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	users := userstore.NewInMemoryUserStore()
	s := newSeeder(users, billingstore.NewInMemory(), AdminCredentials{})

	require.NoError(t, s.SeedAll(ctx))

	n, err := users.CountActiveAdmins(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
