package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registro/internal/catastro/models"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

// Service defines the interface for property records and the cadastre map.
type Service interface {
	List(ctx context.Context, f models.ListFilter, page httputil.PageRequest) (httputil.ListResponse[*models.PropiedadResponse], error)
	Get(ctx context.Context, propertyID id.PropertyID) (*models.PropiedadResponse, error)
	Create(ctx context.Context, req *models.PropiedadRequest) (*models.PropiedadResponse, error)
	Update(ctx context.Context, propertyID id.PropertyID, req *models.PropiedadRequest) (*models.PropiedadResponse, error)
	Delete(ctx context.Context, propertyID id.PropertyID) error
	PropiedadGeo(ctx context.Context, propertyID id.PropertyID) (*models.Feature, error)
	FetchGeo(ctx context.Context, key models.ParcelaKey) (*models.GeoDataResponse, error)
	FetchGeoBatch(ctx context.Context, keys []models.ParcelaKey) (*models.BatchResponse, error)
	Map(ctx context.Context, bbox models.BBox, limit int) (models.FeatureCollection, error)
}

type Handler struct {
	catastro Service
	logger   *slog.Logger
}

func New(catastro Service, logger *slog.Logger) *Handler {
	return &Handler{catastro: catastro, logger: logger}
}

// RegisterPropiedades mounts the property CRUD.
func (h *Handler) RegisterPropiedades(r chi.Router) {
	r.Route("/propiedades", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Get("/{id}/geo", h.HandlePropiedadGeo)
	})
}

// RegisterGeo mounts the cadastre lookups and the map. The router puts
// these behind the subscription gate.
func (h *Handler) RegisterGeo(r chi.Router) {
	r.Post("/geo-data", h.HandleFetchGeo)
	r.Post("/geo-data/batch", h.HandleFetchGeoBatch)
	r.Get("/mapa", h.HandleMap)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q := r.URL.Query()
	filter := models.ListFilter{
		Departamento: q.Get("departamento"),
		Distrito:     q.Get("distrito"),
		Q:            q.Get("q"),
	}

	res, err := h.catastro.List(ctx, filter, page)
	if err != nil {
		h.logger.ErrorContext(ctx, "list propiedades failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.catastro.Get(ctx, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.PropiedadRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.catastro.Create(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "create propiedad failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.PropiedadRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.catastro.Update(ctx, propertyID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "update propiedad failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.catastro.Delete(ctx, propertyID); err != nil {
		h.logger.WarnContext(ctx, "delete propiedad failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) HandlePropiedadGeo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.catastro.PropiedadGeo(ctx, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleFetchGeo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.ParcelaKey](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.catastro.FetchGeo(ctx, *req)
	if err != nil {
		h.logger.WarnContext(ctx, "geo-data failed", "error", err, "parcela", req.String(), "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleFetchGeoBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.BatchRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.catastro.FetchGeoBatch(ctx, req.Parcelas)
	if err != nil {
		h.logger.ErrorContext(ctx, "geo-data batch failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleMap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := r.URL.Query().Get("bbox")
	if raw == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "bbox es requerido"))
		return
	}
	bbox, err := models.ParseBBox(raw)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := httputil.OptionalInt(r, "limit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n := 0
	if limit != nil {
		if *limit < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be at least 1"))
			return
		}
		n = *limit
	}

	fc, err := h.catastro.Map(ctx, bbox, n)
	if err != nil {
		h.logger.ErrorContext(ctx, "map query failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fc)
}
