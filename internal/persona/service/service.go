package service

import (
	"context"
	"errors"
	"log/slog"

	"registro/internal/persona/models"
	"registro/internal/platform/metrics"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/requestcontext"
)

// Store persists the general identity table and its phones.
// Error Contract: FindByCedula and DeleteTelefono return sentinel.ErrNotFound.
type Store interface {
	UpsertGeneral(ctx context.Context, p *models.Persona) error
	UpsertTelefonos(ctx context.Context, cedula id.Cedula, telefonos []models.Telefono) error
	FindByCedula(ctx context.Context, cedula id.Cedula) (*models.Persona, error)
	TelefonosFor(ctx context.Context, cedulas []id.Cedula) (map[id.Cedula][]models.Telefono, error)
	Search(ctx context.Context, q string, limit, offset int) ([]*models.Persona, int, error)
	DeleteTelefono(ctx context.Context, cedula id.Cedula, numero string) error
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

// Save merges p into general and attaches its phones. When ctx already
// carries a transaction (a roster write) both statements join it.
func (s *Service) Save(ctx context.Context, p *models.Persona) error {
	p.UpdatedAt = requestcontext.Now(ctx)
	p.Telefonos = models.NormalizeTelefonos(p.Telefonos)
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpsertGeneral(ctx, p); err != nil {
			return err
		}
		return s.store.UpsertTelefonos(ctx, p.Cedula, p.Telefonos)
	})
}

// Upsert handles PUT /api/general/{cedula}.
func (s *Service) Upsert(ctx context.Context, in *models.PersonaInput) (*models.PersonaResponse, error) {
	p, err := in.ToPersona()
	if err != nil {
		return nil, err
	}
	var saved *models.Persona
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.Save(ctx, p); err != nil {
			return err
		}
		saved, err = s.store.FindByCedula(ctx, p.Cedula)
		return err
	})
	if err != nil {
		return nil, pgerr.Translate(err, "failed to save persona")
	}
	s.recordWrite("upsert")
	s.logAudit(ctx, "persona_upserted", "cedula", p.Cedula.String())
	return models.ToPersonaResponse(saved), nil
}

func (s *Service) Get(ctx context.Context, cedula id.Cedula) (*models.PersonaResponse, error) {
	p, err := s.store.FindByCedula(ctx, cedula)
	if err != nil {
		return nil, translate(err, "failed to load persona")
	}
	return models.ToPersonaResponse(p), nil
}

// Find returns the stored persona. Used by the identity lookup before it
// calls the external service.
func (s *Service) Find(ctx context.Context, cedula id.Cedula) (*models.Persona, error) {
	return s.store.FindByCedula(ctx, cedula)
}

func (s *Service) Search(ctx context.Context, q string, page httputil.PageRequest) (httputil.ListResponse[*models.PersonaResponse], error) {
	personas, total, err := s.store.Search(ctx, q, page.Limit, page.Offset())
	if err != nil {
		return httputil.ListResponse[*models.PersonaResponse]{}, pgerr.Translate(err, "failed to search personas")
	}
	if err := s.attachTelefonos(ctx, personas); err != nil {
		return httputil.ListResponse[*models.PersonaResponse]{}, pgerr.Translate(err, "failed to search personas")
	}
	items := make([]*models.PersonaResponse, 0, len(personas))
	for _, p := range personas {
		items = append(items, models.ToPersonaResponse(p))
	}
	return httputil.NewListResponse(items, page, total), nil
}

func (s *Service) DeleteTelefono(ctx context.Context, cedula id.Cedula, numero string) error {
	normalized := models.NormalizeTelefonos([]models.Telefono{{Numero: numero}})
	if len(normalized) == 0 {
		return dErrors.New(dErrors.CodeValidation, "numero de telefono invalido")
	}
	if err := s.store.DeleteTelefono(ctx, cedula, normalized[0].Numero); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "telefono no encontrado")
		}
		return pgerr.Translate(err, "failed to delete telefono")
	}
	s.recordWrite("delete_telefono")
	s.logAudit(ctx, "telefono_deleted", "cedula", cedula.String())
	return nil
}

// TelefonosFor exposes the batched phone lookup to modules that embed
// personas in their own responses.
func (s *Service) TelefonosFor(ctx context.Context, cedulas []id.Cedula) (map[id.Cedula][]models.Telefono, error) {
	return s.store.TelefonosFor(ctx, cedulas)
}

func (s *Service) attachTelefonos(ctx context.Context, personas []*models.Persona) error {
	if len(personas) == 0 {
		return nil
	}
	cedulas := make([]id.Cedula, len(personas))
	for i, p := range personas {
		cedulas[i] = p.Cedula
	}
	phones, err := s.store.TelefonosFor(ctx, cedulas)
	if err != nil {
		return err
	}
	for _, p := range personas {
		p.Telefonos = phones[p.Cedula]
	}
	return nil
}

func translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "persona no encontrada")
	}
	return pgerr.Translate(err, msg)
}

func (s *Service) recordWrite(op string) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrite("general", op)
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
