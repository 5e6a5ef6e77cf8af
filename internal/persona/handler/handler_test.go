package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"registro/internal/persona/handler/mocks"
	"registro/internal/persona/models"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/persona-mocks.go -package=mocks Service
type PersonaHandlerSuite struct {
	suite.Suite
}

func TestPersonaHandlerSuite(t *testing.T) {
	suite.Run(t, new(PersonaHandlerSuite))
}

func (s *PersonaHandlerSuite) newHandler(t *testing.T) (*mocks.MockService, *chi.Mux) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return svc, r
}

func (s *PersonaHandlerSuite) do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func (s *PersonaHandlerSuite) TestSearch() {
	s.T().Run("passes q and defaults", func(t *testing.T) {
		svc, router := s.newHandler(t)
		page := httputil.PageRequest{Page: 1, Limit: httputil.DefaultPageLimit}
		svc.EXPECT().Search(gomock.Any(), "benitez", page).
			Return(httputil.NewListResponse([]*models.PersonaResponse{{Cedula: "1"}}, page, 1), nil)

		rr := s.do(router, http.MethodGet, "/general?q=benitez", "")

		require.Equal(t, http.StatusOK, rr.Code)
		var body httputil.ListResponse[models.PersonaResponse]
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, 1, body.Pagination.Total)
	})

	s.T().Run("clamps oversized limit", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Search(gomock.Any(), "", httputil.PageRequest{Page: 1, Limit: httputil.MaxPageLimit}).
			Return(httputil.ListResponse[*models.PersonaResponse]{}, nil)

		rr := s.do(router, http.MethodGet, "/general?limit=5000", "")

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	s.T().Run("rejects negative page", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := s.do(router, http.MethodGet, "/general?page=-1", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func (s *PersonaHandlerSuite) TestGet() {
	s.T().Run("normalizes cedula from path", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Get(gomock.Any(), id.Cedula("1234567")).Return(&models.PersonaResponse{Cedula: "1234567"}, nil)

		rr := s.do(router, http.MethodGet, "/general/1.234.567", "")

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	s.T().Run("404 when missing", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Get(gomock.Any(), id.Cedula("42")).Return(nil, dErrors.New(dErrors.CodeNotFound, "persona no encontrada"))

		rr := s.do(router, http.MethodGet, "/general/42", "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	s.T().Run("400 on invalid cedula", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)

		rr := s.do(router, http.MethodGet, "/general/abc", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func (s *PersonaHandlerSuite) TestUpsert() {
	s.T().Run("path cedula overrides body", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Upsert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in *models.PersonaInput) (*models.PersonaResponse, error) {
				assert.Equal(t, "777", in.Cedula)
				assert.Equal(t, "Ana", in.Nombres)
				return &models.PersonaResponse{Cedula: in.Cedula}, nil
			})

		rr := s.do(router, http.MethodPut, "/general/777", `{"cedula":"888","nombres":" Ana "}`)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	s.T().Run("validation error never reaches service", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Upsert(gomock.Any(), gomock.Any()).Times(0)

		rr := s.do(router, http.MethodPut, "/general/777", `{"email":"not-an-email"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	s.T().Run("unknown fields are rejected", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Upsert(gomock.Any(), gomock.Any()).Times(0)

		rr := s.do(router, http.MethodPut, "/general/777", `{"nombre":"typo"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func (s *PersonaHandlerSuite) TestDeleteTelefono() {
	svc, router := s.newHandler(s.T())
	svc.EXPECT().DeleteTelefono(gomock.Any(), id.Cedula("777"), "0981111222").Return(nil)

	rr := s.do(router, http.MethodDelete, "/general/777/telefonos/0981111222", "")

	s.Equal(http.StatusNoContent, rr.Code)
}
