package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registro/internal/agenda/models"
	"registro/internal/agenda/service"
	id "registro/pkg/domain"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

// Service defines the interface for the per-user agenda.
type Service interface {
	List(ctx context.Context, q service.ListQuery, page httputil.PageRequest) (httputil.ListResponse[*models.ContactoResponse], error)
	Get(ctx context.Context, contactID id.ContactID) (*models.ContactoResponse, error)
	Create(ctx context.Context, req *models.ContactoRequest) (*models.ContactoResponse, error)
	Update(ctx context.Context, contactID id.ContactID, req *models.ContactoRequest) (*models.ContactoResponse, error)
	ToggleFavorito(ctx context.Context, contactID id.ContactID) (*models.ContactoResponse, error)
	Delete(ctx context.Context, contactID id.ContactID) error
}

type Handler struct {
	agenda Service
	logger *slog.Logger
}

func New(agenda Service, logger *slog.Logger) *Handler {
	return &Handler{agenda: agenda, logger: logger}
}

// Register mounts /contactos. Every authenticated role may keep an agenda.
func (h *Handler) Register(r chi.Router) {
	r.Route("/contactos", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Patch("/{id}/favorito", h.HandleToggleFavorito)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	favorito, err := httputil.OptionalBool(r, "favorito")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	todos, err := httputil.OptionalBool(r, "todos")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q := service.ListQuery{
		Q:        r.URL.Query().Get("q"),
		Favorito: favorito,
		All:      todos != nil && *todos,
	}

	res, err := h.agenda.List(ctx, q, page)
	if err != nil {
		h.logger.ErrorContext(ctx, "list contactos failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.agenda.Get(ctx, contactID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.ContactoRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.agenda.Create(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "create contacto failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ContactoRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.agenda.Update(ctx, contactID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "update contacto failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleToggleFavorito(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.agenda.ToggleFavorito(ctx, contactID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.agenda.Delete(ctx, contactID); err != nil {
		h.logger.WarnContext(ctx, "delete contacto failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
