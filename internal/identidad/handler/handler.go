package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registro/internal/identidad/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

// Service defines the interface for national ID lookups.
type Service interface {
	Lookup(ctx context.Context, cedula id.Cedula, persist bool) (*models.LookupResponse, error)
}

type Handler struct {
	identidad Service
	logger    *slog.Logger
}

func New(identidad Service, logger *slog.Logger) *Handler {
	return &Handler{identidad: identidad, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/cedula/{cedula}", h.HandleLookup)
}

// HandleLookup serves GET /cedula/{cedula}[?persist=true].
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cedula, err := id.ParseCedula(chi.URLParam(r, "cedula"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	persist, err := httputil.OptionalBool(r, "persist")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.identidad.Lookup(ctx, cedula, persist != nil && *persist)
	if err != nil {
		h.logger.WarnContext(ctx, "cedula lookup failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
