package service

import (
	"context"
	"errors"
	"log/slog"

	"registro/internal/access"
	"registro/internal/identidad/models"
	pmodels "registro/internal/persona/models"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/platform/tracer"
	"registro/pkg/platform/upstream"
	"registro/pkg/requestcontext"
)

// Personas is the slice of the persona service a lookup needs.
// Find returns sentinel.ErrNotFound for unknown cedulas.
type Personas interface {
	Find(ctx context.Context, cedula id.Cedula) (*pmodels.Persona, error)
	Save(ctx context.Context, p *pmodels.Persona) error
}

// Cache holds positive remote answers. Get returns sentinel.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, cedula id.Cedula) (*models.Identidad, error)
	Set(ctx context.Context, ident *models.Identidad) error
}

// Client queries the national identity service. Errors are *upstream.Error.
type Client interface {
	Lookup(ctx context.Context, cedula id.Cedula) (*models.Identidad, error)
}

type Service struct {
	personas Personas
	cache    Cache
	client   Client
	logger   *slog.Logger
	tracer   tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(personas Personas, cache Cache, client Client, opts ...Option) *Service {
	svc := &Service{personas: personas, cache: cache, client: client}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc
}

// Lookup answers from general first, then the cache, then the national
// service. With persist a remote or cached answer is upserted into general;
// that requires a writer role.
func (s *Service) Lookup(ctx context.Context, cedula id.Cedula, persist bool) (res *models.LookupResponse, err error) {
	if persist {
		if err := access.RequireWriter(requestcontext.Principal(ctx)); err != nil {
			return nil, err
		}
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanCedulaLookup, tracer.String(tracer.AttrCedula, tracer.HashCedula(cedula.String())))
	defer func() { span.End(err) }()

	local, err := s.personas.Find(ctx, cedula)
	switch {
	case err == nil:
		span.SetAttributes(tracer.String(tracer.AttrSource, string(models.FuenteLocal)))
		return models.ToLookupResponse(models.FromPersona(local), models.FuenteLocal, true), nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read general")
	}

	ident, fuente, err := s.remote(ctx, cedula)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrSource, string(fuente)))

	if !persist {
		return models.ToLookupResponse(ident, fuente, false), nil
	}
	if err := s.personas.Save(ctx, ident.ToPersona()); err != nil {
		return nil, pgerr.Translate(err, "failed to persist cedula")
	}
	s.logAudit(ctx, "cedula_persisted", "fuente", string(fuente))
	return models.ToLookupResponse(ident, fuente, true), nil
}

// remote reads the cache and falls back to the national service. Cache
// failures only cost a remote call.
func (s *Service) remote(ctx context.Context, cedula id.Cedula) (*models.Identidad, models.Fuente, error) {
	cached, err := s.cache.Get(ctx, cedula)
	if err == nil {
		return cached, models.FuenteCache, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "cedula cache read failed", "error", err, "request_id", requestcontext.RequestID(ctx))
	}

	ident, err := s.client.Lookup(ctx, cedula)
	if err != nil {
		s.logger.WarnContext(ctx, "cedula lookup failed",
			"error", err,
			"category", string(upstream.CategoryOf(err)),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, "", upstream.ToDomain(err, "cedula no encontrada")
	}
	if err := s.cache.Set(ctx, ident); err != nil {
		s.logger.WarnContext(ctx, "cedula cache write failed", "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	return ident, models.FuenteRemota, nil
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
