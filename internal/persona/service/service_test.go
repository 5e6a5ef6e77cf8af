package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registro/internal/persona/models"
	"registro/internal/persona/store"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

type PersonaServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemoryStore
	service *Service
}

func TestPersonaServiceSuite(t *testing.T) {
	suite.Run(t, new(PersonaServiceSuite))
}

func (s *PersonaServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	s.store = store.NewInMemory()
	s.service = New(s.store)
}

func (s *PersonaServiceSuite) TestUpsert() {
	s.Run("creates persona with normalized phones", func() {
		res, err := s.service.Upsert(s.ctx, &models.PersonaInput{
			Cedula: "1234567", Nombres: "Ana", Apellidos: "Benitez",
			Telefonos: []models.TelefonoInput{{Numero: "0981 111 222", Tipo: "movil"}, {Numero: "0981-111-222"}},
		})
		s.Require().NoError(err)
		s.Equal("1234567", res.Cedula)
		s.Require().Len(res.Telefonos, 1)
		s.Equal("0981111222", res.Telefonos[0].Numero)
		s.Equal("movil", res.Telefonos[0].Tipo)
	})

	s.Run("partial payload keeps existing identity data", func() {
		_, err := s.service.Upsert(s.ctx, &models.PersonaInput{Cedula: "1234567", Ciudad: "Encarnacion"})
		s.Require().NoError(err)

		got, err := s.service.Get(s.ctx, "1234567")
		s.Require().NoError(err)
		s.Equal("Ana", got.Nombres)
		s.Equal("Benitez", got.Apellidos)
		s.Equal("Encarnacion", got.Ciudad)
		s.Len(got.Telefonos, 1)
	})

	s.Run("new phone is appended and existing tipo refreshed", func() {
		_, err := s.service.Upsert(s.ctx, &models.PersonaInput{
			Cedula:    "1234567",
			Telefonos: []models.TelefonoInput{{Numero: "0981111222", Tipo: "laboral"}, {Numero: "021 555 000"}},
		})
		s.Require().NoError(err)

		got, err := s.service.Get(s.ctx, "1234567")
		s.Require().NoError(err)
		s.Require().Len(got.Telefonos, 2)
		s.Equal("laboral", got.Telefonos[0].Tipo)
	})
}

func (s *PersonaServiceSuite) TestGet_NotFound() {
	_, err := s.service.Get(s.ctx, "999")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PersonaServiceSuite) TestSearch() {
	for _, in := range []*models.PersonaInput{
		{Cedula: "1000001", Nombres: "Carlos", Apellidos: "Acosta"},
		{Cedula: "1000002", Nombres: "Maria", Apellidos: "Zarate", Telefonos: []models.TelefonoInput{{Numero: "0971222333"}}},
		{Cedula: "2000003", Nombres: "Mario", Apellidos: "Benitez"},
	} {
		_, err := s.service.Upsert(s.ctx, in)
		s.Require().NoError(err)
	}

	s.Run("cedula prefix with separators", func() {
		res, err := s.service.Search(s.ctx, "1.000", httputil.PageRequest{Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Equal(2, res.Pagination.Total)
		s.Equal("Acosta", res.Data[0].Apellidos)
		s.Len(res.Data[1].Telefonos, 1)
	})

	s.Run("pagination", func() {
		res, err := s.service.Search(s.ctx, "", httputil.PageRequest{Page: 2, Limit: 2})
		s.Require().NoError(err)
		s.Equal(3, res.Pagination.Total)
		s.Len(res.Data, 1)
		s.Equal(2, res.Pagination.TotalPages)
	})
}

func (s *PersonaServiceSuite) TestDeleteTelefono() {
	_, err := s.service.Upsert(s.ctx, &models.PersonaInput{Cedula: "555", Telefonos: []models.TelefonoInput{{Numero: "0981000111"}}})
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteTelefono(s.ctx, id.Cedula("555"), "0981 000 111"))

	err = s.service.DeleteTelefono(s.ctx, id.Cedula("555"), "0981000111")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.DeleteTelefono(s.ctx, id.Cedula("555"), "x")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
