package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"registro/internal/access"
	"registro/internal/catastro/models"
	"registro/internal/platform/metrics"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/platform/tracer"
	"registro/pkg/platform/upstream"
	"registro/pkg/requestcontext"
)

// Store persists propiedades and cached parcel geometries.
// Error Contract: FindByID, Update, Delete and FindGeo return sentinel.ErrNotFound;
// Create and Update return sentinel.ErrConflict on a duplicate cadastral key.
type Store interface {
	Create(ctx context.Context, p *models.Propiedad) error
	FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Propiedad, error)
	List(ctx context.Context, f models.ListFilter, limit, offset int) ([]*models.Propiedad, int, error)
	Update(ctx context.Context, p *models.Propiedad) error
	Delete(ctx context.Context, propertyID id.PropertyID) error
	UpsertGeo(ctx context.Context, f *models.GeoFeature) error
	FindGeo(ctx context.Context, key models.ParcelaKey) (*models.GeoFeature, error)
	MapFeatures(ctx context.Context, bbox models.BBox, limit int) ([]*models.MapFeature, error)
}

// Fetcher retrieves a parcel from the cadastre. Errors are *upstream.Error.
type Fetcher interface {
	GetFeature(ctx context.Context, key models.ParcelaKey) (*models.GeoFeature, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const (
	DefaultMapLimit = 500
	MaxMapLimit     = 2000
)

type Service struct {
	store            Store
	fetcher          Fetcher
	tx               TxRunner
	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           tracer.Tracer
	batchConcurrency int
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

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithBatchConcurrency bounds concurrent cadastre calls of one batch.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

func New(store Store, fetcher Fetcher, opts ...Option) *Service {
	svc := &Service{store: store, fetcher: fetcher, batchConcurrency: 4}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tx == nil {
		svc.tx = noopTx{}
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc
}

type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Service) List(ctx context.Context, f models.ListFilter, page httputil.PageRequest) (httputil.ListResponse[*models.PropiedadResponse], error) {
	props, total, err := s.store.List(ctx, f, page.Limit, page.Offset())
	if err != nil {
		return httputil.ListResponse[*models.PropiedadResponse]{}, pgerr.Translate(err, "failed to list propiedades")
	}
	items := make([]*models.PropiedadResponse, 0, len(props))
	for _, p := range props {
		items = append(items, models.ToPropiedadResponse(p))
	}
	return httputil.NewListResponse(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, propertyID id.PropertyID) (*models.PropiedadResponse, error) {
	p, err := s.store.FindByID(ctx, propertyID)
	if err != nil {
		return nil, translate(err, "failed to load propiedad")
	}
	return models.ToPropiedadResponse(p), nil
}

func (s *Service) Create(ctx context.Context, req *models.PropiedadRequest) (*models.PropiedadResponse, error) {
	principal := requestcontext.Principal(ctx)
	if err := access.RequireWriter(principal); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	createdBy := principal.UserID
	p := &models.Propiedad{
		ID:        id.PropertyID(uuid.New()),
		CreatedBy: &createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.Apply(p)

	if err := s.store.Create(ctx, p); err != nil {
		return nil, translate(err, "failed to create propiedad")
	}
	s.recordWrite("create")
	s.logAudit(ctx, "propiedad_created", "propiedad_id", p.ID.String(), "parcela", p.ParcelaKey.String())
	return models.ToPropiedadResponse(p), nil
}

func (s *Service) Update(ctx context.Context, propertyID id.PropertyID, req *models.PropiedadRequest) (*models.PropiedadResponse, error) {
	principal := requestcontext.Principal(ctx)
	if err := access.RequireWriter(principal); err != nil {
		return nil, err
	}

	var saved *models.Propiedad
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.store.FindByID(ctx, propertyID)
		if err != nil {
			return err
		}
		if err := access.RequireRecordAccess(principal, p.CreatedBy); err != nil {
			return err
		}
		req.Apply(p)
		p.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.Update(ctx, p); err != nil {
			return err
		}
		saved = p
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to update propiedad")
	}
	s.recordWrite("update")
	s.logAudit(ctx, "propiedad_updated", "propiedad_id", propertyID.String())
	return models.ToPropiedadResponse(saved), nil
}

func (s *Service) Delete(ctx context.Context, propertyID id.PropertyID) error {
	principal := requestcontext.Principal(ctx)
	if err := access.RequireWriter(principal); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.store.FindByID(ctx, propertyID)
		if err != nil {
			return err
		}
		if err := access.RequireRecordAccess(principal, p.CreatedBy); err != nil {
			return err
		}
		return s.store.Delete(ctx, propertyID)
	})
	if err != nil {
		return translate(err, "failed to delete propiedad")
	}
	s.recordWrite("delete")
	s.logAudit(ctx, "propiedad_deleted", "propiedad_id", propertyID.String())
	return nil
}

// FetchGeo asks the cadastre for a parcel and caches it. When the cadastre
// fails and the parcel was cached before, the cached copy is returned
// marked stale. A parcel the cadastre reports missing is never served stale.
func (s *Service) FetchGeo(ctx context.Context, key models.ParcelaKey) (*models.GeoDataResponse, error) {
	feature, err := s.fetcher.GetFeature(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cadastre lookup failed",
			"error", err,
			"parcela", key.String(),
			"category", string(upstream.CategoryOf(err)),
			"request_id", requestcontext.RequestID(ctx),
		)
		if upstream.CategoryOf(err) != upstream.CategoryNotFound {
			if cached, cerr := s.store.FindGeo(ctx, key); cerr == nil {
				if s.metrics != nil {
					s.metrics.IncrementGeoStale()
				}
				return models.ToGeoDataResponse(cached, true), nil
			}
		}
		return nil, upstream.ToDomain(err, "parcela no encontrada en catastro")
	}

	if err := s.store.UpsertGeo(ctx, feature); err != nil {
		return nil, pgerr.Translate(err, "failed to cache parcel geometry")
	}
	s.recordWrite("geo")
	return models.ToGeoDataResponse(feature, false), nil
}

// FetchGeoBatch fetches parcels concurrently, at most batchConcurrency at a
// time. One parcel failing does not abort the others; results keep the
// request order.
func (s *Service) FetchGeoBatch(ctx context.Context, keys []models.ParcelaKey) (*models.BatchResponse, error) {
	if len(keys) == 0 || len(keys) > models.MaxBatchSize {
		return nil, dErrors.New(dErrors.CodeValidation, "se admiten entre 1 y 50 parcelas por lote")
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanGeoBatch, tracer.Int(tracer.AttrBatchSize, len(keys)))

	results := make([]models.BatchItem, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			res, err := s.FetchGeo(gctx, key)
			item := models.BatchItem{Parcela: key, Status: http.StatusOK, Data: res}
			if err != nil {
				status, body := httputil.ErrorFor(err)
				item.Status = status
				item.Error = &body
			}
			results[i] = item
			return nil
		})
	}
	err := g.Wait()
	span.End(err)
	if err != nil {
		return nil, err
	}

	out := &models.BatchResponse{Results: results}
	for _, r := range results {
		if r.Error == nil {
			out.OK++
		} else {
			out.Failed++
		}
	}
	return out, nil
}

// Map returns cached parcels inside bbox as a GeoJSON FeatureCollection.
func (s *Service) Map(ctx context.Context, bbox models.BBox, limit int) (models.FeatureCollection, error) {
	switch {
	case limit <= 0:
		limit = DefaultMapLimit
	case limit > MaxMapLimit:
		limit = MaxMapLimit
	}
	features, err := s.store.MapFeatures(ctx, bbox, limit)
	if err != nil {
		return models.FeatureCollection{}, pgerr.Translate(err, "failed to load map")
	}
	return models.ToFeatureCollection(features), nil
}

// PropiedadGeo returns the cached feature of a property.
func (s *Service) PropiedadGeo(ctx context.Context, propertyID id.PropertyID) (*models.Feature, error) {
	p, err := s.store.FindByID(ctx, propertyID)
	if err != nil {
		return nil, translate(err, "failed to load propiedad")
	}
	g, err := s.store.FindGeo(ctx, p.ParcelaKey)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "la propiedad no tiene geometria en cache")
		}
		return nil, pgerr.Translate(err, "failed to load parcel geometry")
	}
	f := models.ToFeature(&models.MapFeature{GeoFeature: *g, Propiedad: p})
	return &f, nil
}

func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "propiedad no encontrada")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "ya existe una propiedad con ese departamento, distrito y padron")
	}
	return pgerr.Translate(err, msg)
}

func (s *Service) recordWrite(op string) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrite("propiedades", op)
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
