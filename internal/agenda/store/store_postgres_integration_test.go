//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"registro/internal/agenda/models"
	"registro/internal/agenda/store"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
	"registro/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	owner    id.UserID
	other    id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "contactos", "users"))
	s.owner = s.postgres.CreateTestUser(ctx, s.T(), "lector")
	s.other = s.postgres.CreateTestUser(ctx, s.T(), "lector")
}

func (s *PostgresStoreSuite) newContacto(owner id.UserID, nombres, apellidos string, telefonos ...string) *models.Contacto {
	now := time.Now().UTC()
	return &models.Contacto{
		ID:        id.ContactID(uuid.New()),
		OwnerID:   owner,
		Nombres:   nombres,
		Apellidos: apellidos,
		Telefonos: telefonos,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestTelefonosRoundTrip() {
	ctx := context.Background()
	c := s.newContacto(s.owner, "Juan", "Perez", "0981123456", "021555666")
	s.Require().NoError(s.store.Create(ctx, c))

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal([]string{"0981123456", "021555666"}, got.Telefonos)

	got.Telefonos = nil
	s.Require().NoError(s.store.Update(ctx, got))
	again, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(again.Telefonos)
}

func (s *PostgresStoreSuite) TestListScopesByOwner() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newContacto(s.owner, "Juan", "Perez", "0981123456")))
	fav := s.newContacto(s.owner, "Ana", "Zarate")
	fav.Favorito = true
	s.Require().NoError(s.store.Create(ctx, fav))
	s.Require().NoError(s.store.Create(ctx, s.newContacto(s.other, "Luis", "Perez")))

	mine, total, err := s.store.List(ctx, models.ListFilter{OwnerID: &s.owner}, 10, 0)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal("Ana", mine[0].Nombres, "favorites sort first")

	_, total, err = s.store.List(ctx, models.ListFilter{}, 10, 0)
	s.Require().NoError(err)
	s.Equal(3, total)

	byPhone, total, err := s.store.List(ctx, models.ListFilter{OwnerID: &s.owner, Q: "0981123456"}, 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("Juan", byPhone[0].Nombres)

	_, total, err = s.store.List(ctx, models.ListFilter{OwnerID: &s.owner, Q: "%"}, 10, 0)
	s.Require().NoError(err)
	s.Zero(total, "wildcards match literally")

	yes := true
	favs, total, err := s.store.List(ctx, models.ListFilter{OwnerID: &s.owner, Favorito: &yes}, 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(fav.ID, favs[0].ID)
}

// TestConcurrentToggle verifies toggles are applied atomically: an even
// number of flips leaves the flag where it started.
func (s *PostgresStoreSuite) TestConcurrentToggle() {
	ctx := context.Background()
	c := s.newContacto(s.owner, "Juan", "Perez")
	s.Require().NoError(s.store.Create(ctx, c))

	const flips = 20
	var wg sync.WaitGroup
	for range flips {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.ToggleFavorito(ctx, c.ID, time.Now())
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.False(got.Favorito)

	_, err = s.store.ToggleFavorito(ctx, id.ContactID(uuid.New()), time.Now())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
