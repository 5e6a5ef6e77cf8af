//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	pmodels "registro/internal/persona/models"
	"registro/internal/roster/models"
	"registro/internal/roster/store"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
	"registro/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	kind     models.Kind
	owner    id.UserID
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
	k, ok := models.KindByName("abogados")
	s.Require().True(ok)
	s.kind = k
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "abogados", "telefonos", "general", "users"))
	s.owner = s.postgres.CreateTestUser(ctx, s.T(), "editor")
}

func (s *PostgresStoreSuite) newRecord(cedula, nombres, apellidos, matricula string) *models.Record {
	s.postgres.CreateTestPersona(context.Background(), s.T(), cedula, nombres, apellidos)
	now := time.Now().UTC()
	owner := s.owner
	return &models.Record{
		ID:      id.RecordID(uuid.New()),
		Persona: &pmodels.Persona{Cedula: id.Cedula(cedula)},
		Datos: models.Values{
			"matricula":       matricula,
			"colegio":         "Colegio de Abogados del Paraguay",
			"especialidad":    "",
			"fecha_matricula": (*time.Time)(nil),
		},
		CreatedBy: &owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	rec := s.newRecord("1234567", "Juan", "Perez", "M-100")
	s.Require().NoError(s.store.Create(ctx, s.kind, rec))

	got, err := s.store.FindByID(ctx, s.kind, rec.ID)
	s.Require().NoError(err)
	s.Equal("abogados", got.Kind)
	s.Equal("Juan", got.Persona.Nombres)
	s.Equal("M-100", got.Datos["matricula"])
	s.Nil(got.Datos["fecha_matricula"])
	s.Require().NotNil(got.CreatedBy)
	s.Equal(s.owner, *got.CreatedBy)

	s.Run("second record for the same cedula conflicts", func() {
		dup := *rec
		dup.ID = id.RecordID(uuid.New())
		s.ErrorIs(s.store.Create(ctx, s.kind, &dup), sentinel.ErrConflict)
	})

	s.Run("missing id", func() {
		_, err := s.store.FindByID(ctx, s.kind, id.RecordID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestUpdateAndDelete() {
	ctx := context.Background()
	rec := s.newRecord("1234567", "Juan", "Perez", "M-100")
	s.Require().NoError(s.store.Create(ctx, s.kind, rec))

	fecha := time.Date(2010, 3, 1, 0, 0, 0, 0, time.UTC)
	rec.Datos["especialidad"] = "Penal"
	rec.Datos["fecha_matricula"] = &fecha
	rec.UpdatedAt = time.Now().UTC()
	s.Require().NoError(s.store.Update(ctx, s.kind, rec))

	got, err := s.store.FindByID(ctx, s.kind, rec.ID)
	s.Require().NoError(err)
	s.Equal("Penal", got.Datos["especialidad"])
	gotFecha, ok := got.Datos["fecha_matricula"].(*time.Time)
	s.Require().True(ok)
	s.Require().NotNil(gotFecha)
	s.Equal("2010-03-01", gotFecha.Format(pmodels.DateLayout))

	s.Require().NoError(s.store.Delete(ctx, s.kind, rec.ID))
	s.ErrorIs(s.store.Delete(ctx, s.kind, rec.ID), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(ctx, s.kind, rec), sentinel.ErrNotFound)

	var n int
	s.Require().NoError(s.postgres.QueryRow(ctx, `SELECT COUNT(*) FROM general WHERE cedula = '1234567'`).Scan(&n))
	s.Equal(1, n, "deleting a roster entry keeps the general row")
}

func (s *PostgresStoreSuite) TestListSearchesJoinedPersona() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.kind, s.newRecord("1234567", "Juan", "Perez", "M-1")))
	s.Require().NoError(s.store.Create(ctx, s.kind, s.newRecord("2345678", "Ana", "Benitez", "M-2")))
	// A persona outside the roster never appears in the listing.
	s.postgres.CreateTestPersona(ctx, s.T(), "3456789", "Luis", "Perez")

	all, total, err := s.store.List(ctx, s.kind, "", 10, 0)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(all, 2)
	s.Equal("Benitez", all[0].Persona.Apellidos)

	byName, total, err := s.store.List(ctx, s.kind, "perez", 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(id.Cedula("1234567"), byName[0].Persona.Cedula)

	byCedula, total, err := s.store.List(ctx, s.kind, "2.345", 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("Ana", byCedula[0].Persona.Nombres)
}
