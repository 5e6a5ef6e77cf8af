package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"registro/internal/access"
	"registro/internal/billing/models"
	"registro/internal/platform/metrics"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/requestcontext"
)

// Store persists plans, subscriptions and payments.
// Error Contract: Find*, Lock*, Update* return sentinel.ErrNotFound; Create*
// return sentinel.ErrConflict on a duplicate codigo, live subscription or
// payment referencia.
type Store interface {
	CreatePlan(ctx context.Context, p *models.Plan) error
	UpdatePlan(ctx context.Context, p *models.Plan) error
	FindPlan(ctx context.Context, planID id.PlanID) (*models.Plan, error)
	ListPlans(ctx context.Context, includeInactive bool) ([]*models.Plan, error)

	CreateSubscription(ctx context.Context, sub *models.Suscripcion) error
	FindSubscription(ctx context.Context, subID id.SubscriptionID) (*models.Suscripcion, error)
	LockSubscription(ctx context.Context, subID id.SubscriptionID) (*models.Suscripcion, error)
	FindLiveByUser(ctx context.Context, userID id.UserID) (*models.Suscripcion, error)
	ListSubscriptions(ctx context.Context, f models.SuscripcionFilter, limit, offset int) ([]*models.Suscripcion, int, error)
	UpdateSubscription(ctx context.Context, sub *models.Suscripcion) error
	HasActive(ctx context.Context, userID id.UserID, now time.Time) (bool, error)

	CreatePayment(ctx context.Context, p *models.Pago) error
	ListPayments(ctx context.Context, subID id.SubscriptionID) ([]*models.Pago, error)
}

// TxRunner runs a unit of work in one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	store   Store
	tx      TxRunner
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) { s.tx = tx }
}

func New(store Store, opts ...Option) *Service {
	svc := &Service{store: store}
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

type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

const (
	msgPlanNotFound        = "plan no encontrado"
	msgSuscripcionNotFound = "suscripcion no encontrada"
)

var (
	errSinSuscripcion = dErrors.New(dErrors.CodeNotFound, "no tiene una suscripcion vigente")
	errYaSuscripto    = dErrors.New(dErrors.CodeConflict, "ya tiene una suscripcion vigente")
	errCancelada      = dErrors.New(dErrors.CodeConflict, "la suscripcion esta cancelada")
)

// ListPlans returns the active catalogue. Admins also see inactive plans.
func (s *Service) ListPlans(ctx context.Context) ([]*models.PlanResponse, error) {
	planes, err := s.store.ListPlans(ctx, requestcontext.Principal(ctx).IsAdmin())
	if err != nil {
		return nil, pgerr.Translate(err, "failed to list planes")
	}
	out := make([]*models.PlanResponse, 0, len(planes))
	for _, p := range planes {
		out = append(out, models.ToPlanResponse(p))
	}
	return out, nil
}

func (s *Service) CreatePlan(ctx context.Context, req *models.PlanRequest) (*models.PlanResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	p := &models.Plan{
		ID:        id.PlanID(uuid.New()),
		Activo:    true,
		CreatedAt: requestcontext.Now(ctx),
	}
	req.Apply(p)
	if err := s.store.CreatePlan(ctx, p); err != nil {
		return nil, translatePlan(err, "failed to create plan")
	}
	s.logAudit(ctx, "plan_created", "plan_id", p.ID.String(), "codigo", p.Codigo)
	return models.ToPlanResponse(p), nil
}

// UpdatePlan rewrites a plan. Price changes apply to the next payment of
// every subscription on the plan.
func (s *Service) UpdatePlan(ctx context.Context, planID id.PlanID, req *models.PlanRequest) (*models.PlanResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var updated *models.Plan
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.store.FindPlan(ctx, planID)
		if err != nil {
			return err
		}
		req.Apply(p)
		if err := s.store.UpdatePlan(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, translatePlan(err, "failed to update plan")
	}
	s.logAudit(ctx, "plan_updated", "plan_id", planID.String(), "activo", updated.Activo)
	return models.ToPlanResponse(updated), nil
}

// Subscribe opens a pending subscription for the caller. It grants nothing
// until the first payment is recorded.
func (s *Service) Subscribe(ctx context.Context, req *models.SuscripcionRequest) (*models.SuscripcionResponse, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "autenticacion requerida")
	}
	planID, err := id.ParsePlanID(req.PlanID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var (
		sub  *models.Suscripcion
		plan *models.Plan
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		plan, err = s.store.FindPlan(ctx, planID)
		if err != nil {
			return err
		}
		if !plan.Activo {
			return dErrors.New(dErrors.CodeBadRequest, "el plan no esta disponible")
		}
		if _, err := s.store.FindLiveByUser(ctx, principal.UserID); err == nil {
			return errYaSuscripto
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		sub = &models.Suscripcion{
			ID:         id.SubscriptionID(uuid.New()),
			UserID:     principal.UserID,
			PlanID:     plan.ID,
			Estado:     models.EstadoPendiente,
			Inicio:     now,
			FinPeriodo: now,
			CreatedAt:  now,
		}
		return s.store.CreateSubscription(ctx, sub)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, errYaSuscripto
		}
		return nil, translatePlan(err, "failed to create suscripcion")
	}
	s.recordEvent("created")
	s.logAudit(ctx, "subscription_created", "suscripcion_id", sub.ID.String(), "plan", plan.Codigo)
	return models.ToSuscripcionResponse(sub, plan, now), nil
}

// Mine returns the caller's live subscription with its plan.
func (s *Service) Mine(ctx context.Context) (*models.SuscripcionResponse, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "autenticacion requerida")
	}
	sub, err := s.store.FindLiveByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errSinSuscripcion
		}
		return nil, pgerr.Translate(err, "failed to load suscripcion")
	}
	return s.withPlan(ctx, sub)
}

// Cancel ends a subscription immediately. Owners and admins may cancel.
func (s *Service) Cancel(ctx context.Context, subID id.SubscriptionID) (*models.SuscripcionResponse, error) {
	var cancelled *models.Suscripcion
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		sub, err := s.owned(ctx, subID, s.store.LockSubscription)
		if err != nil {
			return err
		}
		if sub.Estado == models.EstadoCancelada {
			return errCancelada
		}
		now := requestcontext.Now(ctx)
		sub.Estado = models.EstadoCancelada
		sub.CanceladaEn = &now
		if err := s.store.UpdateSubscription(ctx, sub); err != nil {
			return err
		}
		cancelled = sub
		return nil
	})
	if err != nil {
		return nil, translateSuscripcion(err, "failed to cancel suscripcion")
	}
	s.recordEvent("cancelled")
	s.logAudit(ctx, "subscription_cancelled", "suscripcion_id", subID.String(), "owner_id", cancelled.UserID.String())
	return s.withPlan(ctx, cancelled)
}

// ListQuery carries the admin subscription filters.
type ListQuery struct {
	Estado string
	UserID string
}

func (s *Service) ListSubscriptions(ctx context.Context, q ListQuery, page httputil.PageRequest) (httputil.ListResponse[*models.SuscripcionResponse], error) {
	var empty httputil.ListResponse[*models.SuscripcionResponse]
	if err := requireAdmin(ctx); err != nil {
		return empty, err
	}
	var filter models.SuscripcionFilter
	if q.Estado != "" {
		estado := models.Estado(q.Estado)
		if !estado.IsValid() {
			return empty, dErrors.New(dErrors.CodeInvalidInput, "estado invalido")
		}
		filter.Estado = &estado
	}
	if q.UserID != "" {
		userID, err := id.ParseUserID(q.UserID)
		if err != nil {
			return empty, err
		}
		filter.UserID = &userID
	}

	subs, total, err := s.store.ListSubscriptions(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return empty, pgerr.Translate(err, "failed to list suscripciones")
	}
	now := requestcontext.Now(ctx)
	planes := make(map[id.PlanID]*models.Plan)
	items := make([]*models.SuscripcionResponse, 0, len(subs))
	for _, sub := range subs {
		plan, ok := planes[sub.PlanID]
		if !ok {
			plan, err = s.store.FindPlan(ctx, sub.PlanID)
			if err != nil {
				return empty, pgerr.Translate(err, "failed to load plan")
			}
			planes[sub.PlanID] = plan
		}
		items = append(items, models.ToSuscripcionResponse(sub, plan, now))
	}
	return httputil.NewListResponse(items, page, total), nil
}

// RecordPayment books a payment against a subscription and renews it. The
// amount and currency must match the plan. The period is extended by one
// interval from the later of now and the current period end, so early
// renewals keep the remaining days and lapsed ones restart today.
func (s *Service) RecordPayment(ctx context.Context, subID id.SubscriptionID, req *models.PagoRequest) (*models.PagoRegistradoResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	monto, err := req.MontoDecimal()
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var (
		pago  *models.Pago
		sub   *models.Suscripcion
		plan  *models.Plan
		event string
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.store.LockSubscription(ctx, subID)
		if err != nil {
			return err
		}
		if sub.Estado == models.EstadoCancelada {
			return errCancelada
		}
		plan, err = s.store.FindPlan(ctx, sub.PlanID)
		if err != nil {
			return err
		}
		if !monto.Equal(plan.Precio) {
			return dErrors.New(dErrors.CodeValidation, "el monto debe ser igual al precio del plan ("+plan.Precio.StringFixed(2)+")")
		}
		if req.Moneda != plan.Moneda {
			return dErrors.New(dErrors.CodeValidation, "la moneda debe ser "+plan.Moneda)
		}

		pago = &models.Pago{
			ID:            id.PaymentID(uuid.New()),
			SuscripcionID: sub.ID,
			Monto:         monto,
			Moneda:        req.Moneda,
			Metodo:        req.Metodo,
			Referencia:    req.Referencia,
			PagadoEn:      now,
		}
		if err := s.store.CreatePayment(ctx, pago); err != nil {
			return err
		}

		event = renewalEvent(sub.Estado)
		base := sub.FinPeriodo
		if now.After(base) {
			base = now
		}
		sub.FinPeriodo = plan.Intervalo.Next(base)
		sub.Estado = models.EstadoActiva
		return s.store.UpdateSubscription(ctx, sub)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "la referencia de pago ya fue registrada")
		}
		return nil, translateSuscripcion(err, "failed to record pago")
	}
	s.recordEvent("payment")
	s.recordEvent(event)
	s.logAudit(ctx, "payment_recorded",
		"suscripcion_id", subID.String(),
		"pago_id", pago.ID.String(),
		"monto", pago.Monto.StringFixed(2),
		"fin_periodo", sub.FinPeriodo.Format(time.RFC3339))
	return &models.PagoRegistradoResponse{
		Pago:        models.ToPagoResponse(pago),
		Suscripcion: models.ToSuscripcionResponse(sub, plan, now),
	}, nil
}

func renewalEvent(prev models.Estado) string {
	switch prev {
	case models.EstadoPendiente:
		return "activated"
	case models.EstadoVencida:
		return "reactivated"
	default:
		return "renewed"
	}
}

// ListPayments returns a subscription's payments, newest first.
func (s *Service) ListPayments(ctx context.Context, subID id.SubscriptionID) ([]*models.PagoResponse, error) {
	if _, err := s.owned(ctx, subID, s.store.FindSubscription); err != nil {
		return nil, translateSuscripcion(err, "failed to load suscripcion")
	}
	pagos, err := s.store.ListPayments(ctx, subID)
	if err != nil {
		return nil, pgerr.Translate(err, "failed to list pagos")
	}
	out := make([]*models.PagoResponse, 0, len(pagos))
	for _, p := range pagos {
		out = append(out, models.ToPagoResponse(p))
	}
	return out, nil
}

// HasActiveSubscription backs the subscription gate.
func (s *Service) HasActiveSubscription(ctx context.Context, userID id.UserID) (bool, error) {
	ok, err := s.store.HasActive(ctx, userID, requestcontext.Now(ctx))
	if err != nil {
		return false, pgerr.Translate(err, "failed to check suscripcion")
	}
	return ok, nil
}

// owned loads a subscription the caller may act on. Other users' subscriptions
// answer not found.
func (s *Service) owned(ctx context.Context, subID id.SubscriptionID, load func(context.Context, id.SubscriptionID) (*models.Suscripcion, error)) (*models.Suscripcion, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "autenticacion requerida")
	}
	sub, err := load(ctx, subID)
	if err != nil {
		return nil, err
	}
	owner := sub.UserID
	if !access.CanAccessRecord(principal, &owner) {
		return nil, dErrors.New(dErrors.CodeNotFound, msgSuscripcionNotFound)
	}
	return sub, nil
}

func (s *Service) withPlan(ctx context.Context, sub *models.Suscripcion) (*models.SuscripcionResponse, error) {
	plan, err := s.store.FindPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, pgerr.Translate(err, "failed to load plan")
	}
	return models.ToSuscripcionResponse(sub, plan, requestcontext.Now(ctx)), nil
}

func requireAdmin(ctx context.Context) error {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "autenticacion requerida")
	}
	if !principal.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "solo un administrador puede realizar esta accion")
	}
	return nil
}

func translatePlan(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msgPlanNotFound)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "ya existe un plan con ese codigo")
	}
	return pgerr.Translate(err, msg)
}

func translateSuscripcion(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, msgSuscripcionNotFound)
	}
	return pgerr.Translate(err, msg)
}

func (s *Service) recordEvent(event string) {
	if s.metrics != nil {
		s.metrics.IncrementSubscriptionEvent(event)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		attributes = append(attributes, "user_id", userID.String())
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
