package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registro/internal/persona/models"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

// Service defines the interface for the general identity registry.
type Service interface {
	Search(ctx context.Context, q string, page httputil.PageRequest) (httputil.ListResponse[*models.PersonaResponse], error)
	Get(ctx context.Context, cedula id.Cedula) (*models.PersonaResponse, error)
	Upsert(ctx context.Context, in *models.PersonaInput) (*models.PersonaResponse, error)
	DeleteTelefono(ctx context.Context, cedula id.Cedula, numero string) error
}

type Handler struct {
	personas Service
	logger   *slog.Logger
}

func New(personas Service, logger *slog.Logger) *Handler {
	return &Handler{personas: personas, logger: logger}
}

// Register mounts /general. Write methods rely on the parent router's
// writer guard.
func (h *Handler) Register(r chi.Router) {
	r.Get("/general", h.HandleSearch)
	r.Get("/general/{cedula}", h.HandleGet)
	r.Put("/general/{cedula}", h.HandleUpsert)
	r.Delete("/general/{cedula}/telefonos/{numero}", h.HandleDeleteTelefono)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.personas.Search(ctx, r.URL.Query().Get("q"), page)
	if err != nil {
		h.logger.ErrorContext(ctx, "search personas failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cedula, err := id.ParseCedula(chi.URLParam(r, "cedula"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.personas.Get(ctx, cedula)
	if err != nil {
		h.logger.WarnContext(ctx, "get persona failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleUpsert merges the body into general. The cedula in the path wins
// over any cedula in the body.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cedula, err := id.ParseCedula(chi.URLParam(r, "cedula"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[models.PersonaInput](w, r, h.logger)
	if !ok {
		return
	}
	req.Cedula = cedula.String()
	if err := httputil.PrepareRequest(req); err != nil {
		h.writeValidationError(ctx, w, err)
		return
	}

	res, err := h.personas.Upsert(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "upsert persona failed", "error", err, "request_id", requestID, "cedula", cedula.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleDeleteTelefono(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cedula, err := id.ParseCedula(chi.URLParam(r, "cedula"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.personas.DeleteTelefono(ctx, cedula, chi.URLParam(r, "numero")); err != nil {
		h.logger.WarnContext(ctx, "delete telefono failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) writeValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.WarnContext(ctx, "invalid request", "error", err, "request_id", requestcontext.RequestID(ctx))
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
}
