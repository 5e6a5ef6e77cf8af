package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"registro/internal/billing/models"
	"registro/internal/billing/store"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

var t0 = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

type BillingServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
	user    context.Context
	other   context.Context
	admin   context.Context
	plan    *models.PlanResponse
}

func TestBillingServiceSuite(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) as(role id.Role) context.Context {
	ctx := requestcontext.WithTime(context.Background(), t0)
	return requestcontext.WithPrincipal(ctx, requestcontext.AuthPrincipal{UserID: id.UserID(uuid.New()), Role: role})
}

func at(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}

func (s *BillingServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store)
	s.user = s.as(id.RoleReader)
	s.other = s.as(id.RoleEditor)
	s.admin = s.as(id.RoleAdmin)
	s.plan = s.createPlan("basico", "150000", "mensual")
}

func (s *BillingServiceSuite) createPlan(codigo, precio, intervalo string) *models.PlanResponse {
	req := &models.PlanRequest{Codigo: codigo, Nombre: codigo, Precio: precio, Intervalo: intervalo}
	req.Normalize()
	s.Require().NoError(req.Validate())
	res, err := s.service.CreatePlan(s.admin, req)
	s.Require().NoError(err)
	return res
}

func (s *BillingServiceSuite) subscribe(ctx context.Context) *models.SuscripcionResponse {
	res, err := s.service.Subscribe(ctx, &models.SuscripcionRequest{PlanID: s.plan.ID})
	s.Require().NoError(err)
	return res
}

func (s *BillingServiceSuite) pay(ctx context.Context, subID, monto, ref string) (*models.PagoRegistradoResponse, error) {
	req := &models.PagoRequest{Monto: monto, Metodo: "transferencia", Referencia: ref}
	req.Normalize()
	s.Require().NoError(req.Validate())
	parsed, err := id.ParseSubscriptionID(subID)
	s.Require().NoError(err)
	return s.service.RecordPayment(ctx, parsed, req)
}

func (s *BillingServiceSuite) TestPlanAdministrationIsAdminOnly() {
	req := &models.PlanRequest{Codigo: "pro", Nombre: "Pro", Precio: "300000", Intervalo: "anual", Moneda: "PYG"}
	_, err := s.service.CreatePlan(s.user, req)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.CreatePlan(s.admin, &models.PlanRequest{Codigo: "basico", Nombre: "x", Precio: "1", Intervalo: "anual", Moneda: "PYG"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *BillingServiceSuite) TestInactivePlansAreHiddenFromNonAdmins() {
	planID, _ := id.ParsePlanID(s.plan.ID)
	off := false
	_, err := s.service.UpdatePlan(s.admin, planID, &models.PlanRequest{
		Codigo: "basico", Nombre: "Basico", Precio: "150000", Moneda: "PYG", Intervalo: "mensual", Activo: &off,
	})
	s.Require().NoError(err)

	planes, err := s.service.ListPlans(s.user)
	s.Require().NoError(err)
	s.Empty(planes)

	planes, err = s.service.ListPlans(s.admin)
	s.Require().NoError(err)
	s.Len(planes, 1)

	_, err = s.service.Subscribe(s.user, &models.SuscripcionRequest{PlanID: s.plan.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *BillingServiceSuite) TestSubscribeStartsPendingAndAllowsOneLive() {
	sub := s.subscribe(s.user)
	s.Equal(string(models.EstadoPendiente), sub.Estado)
	s.False(sub.Vigente)
	s.Equal(s.plan.Codigo, sub.Plan.Codigo)

	_, err := s.service.Subscribe(s.user, &models.SuscripcionRequest{PlanID: s.plan.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	mine, err := s.service.Mine(s.user)
	s.Require().NoError(err)
	s.Equal(sub.ID, mine.ID)

	_, err = s.service.Mine(s.other)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *BillingServiceSuite) TestPaymentActivatesAndExtendsFromPeriodEnd() {
	sub := s.subscribe(s.user)

	res, err := s.pay(s.admin, sub.ID, "150000", "TX-1")
	s.Require().NoError(err)
	s.Equal(string(models.EstadoActiva), res.Suscripcion.Estado)
	s.Equal(t0.AddDate(0, 1, 0), res.Suscripcion.FinPeriodo)

	// Early renewal keeps the remaining days.
	res, err = s.pay(at(s.admin, t0.AddDate(0, 0, 20)), sub.ID, "150000.00", "TX-2")
	s.Require().NoError(err)
	s.Equal(t0.AddDate(0, 2, 0), res.Suscripcion.FinPeriodo)

	ok, err := s.service.HasActiveSubscription(at(s.user, t0.AddDate(0, 1, 15)), requestcontext.UserID(s.user))
	s.Require().NoError(err)
	s.True(ok)
}

func (s *BillingServiceSuite) TestLapsedSubscriptionRestartsFromNow() {
	sub := s.subscribe(s.user)
	_, err := s.pay(s.admin, sub.ID, "150000", "TX-1")
	s.Require().NoError(err)

	later := t0.AddDate(0, 3, 0)
	n, err := s.store.ExpireLapsed(context.Background(), later)
	s.Require().NoError(err)
	s.Equal(1, n)

	ok, err := s.service.HasActiveSubscription(at(s.user, later), requestcontext.UserID(s.user))
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.service.Subscribe(at(s.user, later), &models.SuscripcionRequest{PlanID: s.plan.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "a lapsed subscription is still live")

	res, err := s.pay(at(s.admin, later), sub.ID, "150000", "TX-2")
	s.Require().NoError(err)
	s.Equal(string(models.EstadoActiva), res.Suscripcion.Estado)
	s.Equal(later.AddDate(0, 1, 0), res.Suscripcion.FinPeriodo)
}

func (s *BillingServiceSuite) TestPaymentValidation() {
	sub := s.subscribe(s.user)

	_, err := s.pay(s.admin, sub.ID, "100000", "TX-1")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "amount must equal the plan price")

	_, err = s.pay(s.user, sub.ID, "150000", "TX-1")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.pay(s.admin, sub.ID, "150000", "TX-1")
	s.Require().NoError(err)
	_, err = s.pay(s.admin, sub.ID, "150000", "TX-1")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "referencia is unique")

	_, err = s.pay(s.admin, uuid.NewString(), "150000", "TX-9")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *BillingServiceSuite) TestCancel() {
	sub := s.subscribe(s.user)
	subID, _ := id.ParseSubscriptionID(sub.ID)

	_, err := s.service.Cancel(s.other, subID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "other users cannot see it")

	res, err := s.service.Cancel(s.user, subID)
	s.Require().NoError(err)
	s.Equal(string(models.EstadoCancelada), res.Estado)
	s.Require().NotNil(res.CanceladaEn)

	_, err = s.service.Cancel(s.admin, subID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.pay(s.admin, sub.ID, "150000", "TX-1")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "cancelled subscriptions take no payments")

	// A cancelled subscription frees the slot.
	s.subscribe(s.user)
}

func (s *BillingServiceSuite) TestListSubscriptionsAndPayments() {
	sub := s.subscribe(s.user)
	s.subscribe(s.other)
	_, err := s.pay(s.admin, sub.ID, "150000", "TX-1")
	s.Require().NoError(err)

	_, err = s.service.ListSubscriptions(s.user, ListQuery{}, httputil.PageRequest{Page: 1, Limit: 20})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	res, err := s.service.ListSubscriptions(s.admin, ListQuery{Estado: "activa"}, httputil.PageRequest{Page: 1, Limit: 20})
	s.Require().NoError(err)
	s.Equal(1, res.Pagination.Total)
	s.Equal(sub.ID, res.Data[0].ID)

	_, err = s.service.ListSubscriptions(s.admin, ListQuery{Estado: "pausada"}, httputil.PageRequest{Page: 1, Limit: 20})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	subID, _ := id.ParseSubscriptionID(sub.ID)
	pagos, err := s.service.ListPayments(s.user, subID)
	s.Require().NoError(err)
	s.Require().Len(pagos, 1)
	s.Equal("150000.00", pagos[0].Monto)

	_, err = s.service.ListPayments(s.other, subID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
