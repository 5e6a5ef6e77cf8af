package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registro/internal/roster/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

// Service defines the interface for roster CRUD across every Kind.
type Service interface {
	List(ctx context.Context, kind, q string, page httputil.PageRequest) (httputil.ListResponse[*models.RecordResponse], error)
	Get(ctx context.Context, kind string, recordID id.RecordID) (*models.RecordResponse, error)
	Create(ctx context.Context, kind string, req *models.RecordRequest) (*models.RecordResponse, error)
	Update(ctx context.Context, kind string, recordID id.RecordID, req *models.RecordRequest) (*models.RecordResponse, error)
	Delete(ctx context.Context, kind string, recordID id.RecordID) error
}

type Handler struct {
	rosters Service
	logger  *slog.Logger
}

func New(rosters Service, logger *slog.Logger) *Handler {
	return &Handler{rosters: rosters, logger: logger}
}

// Register mounts /{kind} for every roster in models.Kinds.
func (h *Handler) Register(r chi.Router) {
	for _, k := range models.Kinds {
		kind := k.Name
		r.Route("/"+kind, func(r chi.Router) {
			r.Get("/", h.handleList(kind))
			r.Post("/", h.handleCreate(kind))
			r.Get("/{id}", h.handleGet(kind))
			r.Put("/{id}", h.handleUpdate(kind))
			r.Delete("/{id}", h.handleDelete(kind))
		})
	}
}

func (h *Handler) handleList(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		page, err := httputil.ParsePage(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		res, err := h.rosters.List(ctx, kind, r.URL.Query().Get("q"), page)
		if err != nil {
			h.logger.ErrorContext(ctx, "list roster failed", "error", err, "request_id", requestID, "kind", kind)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}

func (h *Handler) handleGet(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		res, err := h.rosters.Get(ctx, kind, recordID)
		if err != nil {
			h.logger.WarnContext(ctx, "get roster record failed", "error", err, "request_id", requestID, "kind", kind)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}

func (h *Handler) handleCreate(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		req, ok := httputil.DecodeAndPrepare[models.RecordRequest](w, r, h.logger)
		if !ok {
			return
		}

		res, err := h.rosters.Create(ctx, kind, req)
		if err != nil {
			h.logger.ErrorContext(ctx, "create roster record failed", "error", err, "request_id", requestID, "kind", kind)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, res)
	}
}

func (h *Handler) handleUpdate(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		req, ok := httputil.DecodeAndPrepare[models.RecordRequest](w, r, h.logger)
		if !ok {
			return
		}

		res, err := h.rosters.Update(ctx, kind, recordID, req)
		if err != nil {
			h.logger.ErrorContext(ctx, "update roster record failed", "error", err, "request_id", requestID, "kind", kind, "record_id", recordID.String())
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}

func (h *Handler) handleDelete(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		if err := h.rosters.Delete(ctx, kind, recordID); err != nil {
			h.logger.ErrorContext(ctx, "delete roster record failed", "error", err, "request_id", requestID, "kind", kind, "record_id", recordID.String())
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteNoContent(w)
	}
}
