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
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"registro/internal/billing/handler/mocks"
	"registro/internal/billing/models"
	"registro/internal/billing/service"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/billing-mocks.go -package=mocks Service
type BillingHandlerSuite struct {
	suite.Suite
}

func TestBillingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BillingHandlerSuite))
}

func (s *BillingHandlerSuite) newHandler(t *testing.T) (*mocks.MockService, *chi.Mux) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return svc, r
}

func (s *BillingHandlerSuite) do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func (s *BillingHandlerSuite) TestPlans() {
	s.T().Run("list wraps data", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().ListPlans(gomock.Any()).Return([]*models.PlanResponse{{Codigo: "basico", Precio: "150000.00"}}, nil)

		rr := s.do(router, http.MethodGet, "/planes", "")

		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Data []models.PlanResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "basico", body.Data[0].Codigo)
	})

	s.T().Run("create normalizes the request", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().CreatePlan(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *models.PlanRequest) (*models.PlanResponse, error) {
				assert.Equal(t, "pro", req.Codigo)
				assert.Equal(t, "PYG", req.Moneda)
				return &models.PlanResponse{Codigo: req.Codigo}, nil
			})

		rr := s.do(router, http.MethodPost, "/planes", `{"codigo":" PRO ","nombre":"Pro","precio":"300000","intervalo":"anual"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	s.T().Run("create rejects a zero price", func(t *testing.T) {
		_, router := s.newHandler(t)

		rr := s.do(router, http.MethodPost, "/planes", `{"codigo":"x","nombre":"X","precio":"0","intervalo":"anual"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	s.T().Run("create forbidden for non-admins", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().CreatePlan(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeForbidden, "solo admin"))

		rr := s.do(router, http.MethodPost, "/planes", `{"codigo":"x","nombre":"X","precio":"10","intervalo":"mensual"}`)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	s.T().Run("update with bad id", func(t *testing.T) {
		_, router := s.newHandler(t)

		rr := s.do(router, http.MethodPut, "/planes/nope", `{}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func (s *BillingHandlerSuite) TestSubscribe() {
	s.T().Run("created", func(t *testing.T) {
		svc, router := s.newHandler(t)
		planID := uuid.NewString()
		svc.EXPECT().Subscribe(gomock.Any(), &models.SuscripcionRequest{PlanID: planID}).
			Return(&models.SuscripcionResponse{Estado: "pendiente"}, nil)

		rr := s.do(router, http.MethodPost, "/suscripciones", `{"plan_id":"`+planID+`"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	s.T().Run("plan id must be a uuid", func(t *testing.T) {
		_, router := s.newHandler(t)

		rr := s.do(router, http.MethodPost, "/suscripciones", `{"plan_id":"basico"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	s.T().Run("already subscribed", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Subscribe(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "ya tiene una suscripcion vigente"))

		rr := s.do(router, http.MethodPost, "/suscripciones", `{"plan_id":"`+uuid.NewString()+`"}`)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func (s *BillingHandlerSuite) TestMineRouteWinsOverID() {
	svc, router := s.newHandler(s.T())
	svc.EXPECT().Mine(gomock.Any()).Return(nil, dErrors.New(dErrors.CodeNotFound, "no tiene una suscripcion vigente"))

	rr := s.do(router, http.MethodGet, "/suscripciones/mia", "")

	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *BillingHandlerSuite) TestListSubscriptions() {
	s.T().Run("passes filters and page", func(t *testing.T) {
		svc, router := s.newHandler(t)
		page := httputil.PageRequest{Page: 1, Limit: 50}
		svc.EXPECT().ListSubscriptions(gomock.Any(), service.ListQuery{Estado: "vencida"}, page).
			Return(httputil.NewListResponse([]*models.SuscripcionResponse{}, page, 0), nil)

		rr := s.do(router, http.MethodGet, "/suscripciones?estado=vencida&limit=50", "")

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	s.T().Run("limit must be positive", func(t *testing.T) {
		_, router := s.newHandler(t)

		rr := s.do(router, http.MethodGet, "/suscripciones?limit=0", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func (s *BillingHandlerSuite) TestPayments() {
	subID := id.SubscriptionID(uuid.New())

	s.T().Run("record", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().RecordPayment(gomock.Any(), subID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.SubscriptionID, req *models.PagoRequest) (*models.PagoRegistradoResponse, error) {
				assert.Equal(t, "efectivo", req.Metodo)
				return &models.PagoRegistradoResponse{Pago: &models.PagoResponse{Referencia: req.Referencia}}, nil
			})

		rr := s.do(router, http.MethodPost, "/suscripciones/"+subID.String()+"/pagos",
			`{"monto":"150000","metodo":"Efectivo","referencia":"REC-001"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	s.T().Run("missing referencia", func(t *testing.T) {
		_, router := s.newHandler(t)

		rr := s.do(router, http.MethodPost, "/suscripciones/"+subID.String()+"/pagos", `{"monto":"150000","metodo":"efectivo"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	s.T().Run("duplicate referencia", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().RecordPayment(gomock.Any(), subID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "la referencia de pago ya fue registrada"))

		rr := s.do(router, http.MethodPost, "/suscripciones/"+subID.String()+"/pagos",
			`{"monto":"150000","metodo":"efectivo","referencia":"REC-001"}`)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	s.T().Run("list", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().ListPayments(gomock.Any(), subID).Return([]*models.PagoResponse{}, nil)

		rr := s.do(router, http.MethodGet, "/suscripciones/"+subID.String()+"/pagos", "")

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	s.T().Run("cancel", func(t *testing.T) {
		svc, router := s.newHandler(t)
		svc.EXPECT().Cancel(gomock.Any(), subID).Return(&models.SuscripcionResponse{Estado: "cancelada"}, nil)

		rr := s.do(router, http.MethodPost, "/suscripciones/"+subID.String()+"/cancelar", "")

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
