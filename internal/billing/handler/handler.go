package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registro/internal/billing/models"
	"registro/internal/billing/service"
	id "registro/pkg/domain"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

// Service defines the interface for plans, subscriptions and payments.
type Service interface {
	ListPlans(ctx context.Context) ([]*models.PlanResponse, error)
	CreatePlan(ctx context.Context, req *models.PlanRequest) (*models.PlanResponse, error)
	UpdatePlan(ctx context.Context, planID id.PlanID, req *models.PlanRequest) (*models.PlanResponse, error)
	Subscribe(ctx context.Context, req *models.SuscripcionRequest) (*models.SuscripcionResponse, error)
	Mine(ctx context.Context) (*models.SuscripcionResponse, error)
	Cancel(ctx context.Context, subID id.SubscriptionID) (*models.SuscripcionResponse, error)
	ListSubscriptions(ctx context.Context, q service.ListQuery, page httputil.PageRequest) (httputil.ListResponse[*models.SuscripcionResponse], error)
	RecordPayment(ctx context.Context, subID id.SubscriptionID, req *models.PagoRequest) (*models.PagoRegistradoResponse, error)
	ListPayments(ctx context.Context, subID id.SubscriptionID) ([]*models.PagoResponse, error)
}

type Handler struct {
	billing Service
	logger  *slog.Logger
}

func New(billing Service, logger *slog.Logger) *Handler {
	return &Handler{billing: billing, logger: logger}
}

// Register mounts /planes and /suscripciones. Admin-only operations are
// enforced by the service so the routes share one authenticated group.
func (h *Handler) Register(r chi.Router) {
	r.Route("/planes", func(r chi.Router) {
		r.Get("/", h.HandleListPlans)
		r.Post("/", h.HandleCreatePlan)
		r.Put("/{id}", h.HandleUpdatePlan)
	})
	r.Route("/suscripciones", func(r chi.Router) {
		r.Get("/", h.HandleListSubscriptions)
		r.Post("/", h.HandleSubscribe)
		r.Get("/mia", h.HandleMine)
		r.Post("/{id}/cancelar", h.HandleCancel)
		r.Get("/{id}/pagos", h.HandleListPayments)
		r.Post("/{id}/pagos", h.HandleRecordPayment)
	})
}

func (h *Handler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.billing.ListPlans(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list planes failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": res})
}

func (h *Handler) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.PlanRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.billing.CreatePlan(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "create plan failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) HandleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID, err := id.ParsePlanID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.PlanRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.billing.UpdatePlan(ctx, planID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "update plan failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.SuscripcionRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.billing.Subscribe(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "subscribe failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	res, err := h.billing.Mine(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subID, err := id.ParseSubscriptionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.billing.Cancel(ctx, subID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel suscripcion failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q := service.ListQuery{
		Estado: r.URL.Query().Get("estado"),
		UserID: r.URL.Query().Get("user_id"),
	}

	res, err := h.billing.ListSubscriptions(ctx, q, page)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subID, err := id.ParseSubscriptionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.PagoRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.billing.RecordPayment(ctx, subID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "record pago failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subID, err := id.ParseSubscriptionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.billing.ListPayments(ctx, subID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": res})
}
