package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"registro/internal/access"
	pmodels "registro/internal/persona/models"
	"registro/internal/platform/metrics"
	"registro/internal/roster/models"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/requestcontext"
)

// Store persists specialization rows.
// Error Contract: FindByID, Update and Delete return sentinel.ErrNotFound;
// Create returns sentinel.ErrConflict when the cedula is already on the roster.
type Store interface {
	Create(ctx context.Context, k models.Kind, rec *models.Record) error
	FindByID(ctx context.Context, k models.Kind, recordID id.RecordID) (*models.Record, error)
	List(ctx context.Context, k models.Kind, q string, limit, offset int) ([]*models.Record, int, error)
	Update(ctx context.Context, k models.Kind, rec *models.Record) error
	Delete(ctx context.Context, k models.Kind, recordID id.RecordID) error
}

// Personas writes the shared general identity and reads phones.
type Personas interface {
	Save(ctx context.Context, p *pmodels.Persona) error
	TelefonosFor(ctx context.Context, cedulas []id.Cedula) (map[id.Cedula][]pmodels.Telefono, error)
}

// TxRunner runs a unit of work in one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	store    Store
	personas Personas
	tx       TxRunner
	logger   *slog.Logger
	metrics  *metrics.Metrics
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

func New(store Store, personas Personas, opts ...Option) *Service {
	svc := &Service{store: store, personas: personas}
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

func kindFor(name string) (models.Kind, error) {
	k, ok := models.KindByName(name)
	if !ok {
		return models.Kind{}, dErrors.New(dErrors.CodeNotFound, "listado desconocido")
	}
	return k, nil
}

func (s *Service) List(ctx context.Context, kind, q string, page httputil.PageRequest) (httputil.ListResponse[*models.RecordResponse], error) {
	k, err := kindFor(kind)
	if err != nil {
		return httputil.ListResponse[*models.RecordResponse]{}, err
	}
	records, total, err := s.store.List(ctx, k, q, page.Limit, page.Offset())
	if err != nil {
		return httputil.ListResponse[*models.RecordResponse]{}, pgerr.Translate(err, "failed to list "+k.Name)
	}
	if err := s.attachTelefonos(ctx, records); err != nil {
		return httputil.ListResponse[*models.RecordResponse]{}, pgerr.Translate(err, "failed to list "+k.Name)
	}
	items := make([]*models.RecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, models.ToRecordResponse(k, r))
	}
	return httputil.NewListResponse(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, kind string, recordID id.RecordID) (*models.RecordResponse, error) {
	k, err := kindFor(kind)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, k, recordID)
	if err != nil {
		return nil, err
	}
	return models.ToRecordResponse(k, rec), nil
}

// Create upserts the general identity, its phones and the specialization row
// in one transaction.
func (s *Service) Create(ctx context.Context, kind string, req *models.RecordRequest) (*models.RecordResponse, error) {
	k, err := kindFor(kind)
	if err != nil {
		return nil, err
	}
	principal := requestcontext.Principal(ctx)
	if err := access.RequireWriter(principal); err != nil {
		return nil, err
	}
	persona, datos, err := parseRequest(k, req)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	owner := principal.UserID
	rec := &models.Record{
		ID:        id.RecordID(uuid.New()),
		Kind:      k.Name,
		Persona:   persona,
		Datos:     datos,
		CreatedBy: &owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var saved *models.Record
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.personas.Save(ctx, persona); err != nil {
			return err
		}
		if err := s.store.Create(ctx, k, rec); err != nil {
			return err
		}
		saved, err = s.reload(ctx, k, rec.ID)
		return err
	})
	if err != nil {
		return nil, s.translate(k, err, "failed to create "+k.Label)
	}

	s.recordWrite(k, "create")
	s.logAudit(ctx, "roster_record_created", "kind", k.Name, "record_id", rec.ID.String(), "cedula", persona.Cedula.String())
	return models.ToRecordResponse(k, saved), nil
}

// Update rewrites the specialization values and merges the identity. Only
// the creator or an admin may update; the cedula of a record is immutable.
func (s *Service) Update(ctx context.Context, kind string, recordID id.RecordID, req *models.RecordRequest) (*models.RecordResponse, error) {
	k, err := kindFor(kind)
	if err != nil {
		return nil, err
	}
	principal := requestcontext.Principal(ctx)
	if err := access.RequireWriter(principal); err != nil {
		return nil, err
	}
	persona, datos, err := parseRequest(k, req)
	if err != nil {
		return nil, err
	}

	var saved *models.Record
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindByID(ctx, k, recordID)
		if err != nil {
			return err
		}
		if err := access.RequireRecordAccess(principal, existing.CreatedBy); err != nil {
			return err
		}
		if existing.Persona.Cedula != persona.Cedula {
			return dErrors.New(dErrors.CodeValidation, "la cedula de un registro no puede cambiar")
		}
		if err := s.personas.Save(ctx, persona); err != nil {
			return err
		}
		existing.Datos = datos
		existing.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.Update(ctx, k, existing); err != nil {
			return err
		}
		saved, err = s.reload(ctx, k, recordID)
		return err
	})
	if err != nil {
		return nil, s.translate(k, err, "failed to update "+k.Label)
	}

	s.recordWrite(k, "update")
	s.logAudit(ctx, "roster_record_updated", "kind", k.Name, "record_id", recordID.String())
	return models.ToRecordResponse(k, saved), nil
}

// Delete removes the specialization row. The general identity stays, other
// rosters or properties may reference it.
func (s *Service) Delete(ctx context.Context, kind string, recordID id.RecordID) error {
	k, err := kindFor(kind)
	if err != nil {
		return err
	}
	principal := requestcontext.Principal(ctx)
	if err := access.RequireWriter(principal); err != nil {
		return err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindByID(ctx, k, recordID)
		if err != nil {
			return err
		}
		if err := access.RequireRecordAccess(principal, existing.CreatedBy); err != nil {
			return err
		}
		return s.store.Delete(ctx, k, recordID)
	})
	if err != nil {
		return s.translate(k, err, "failed to delete "+k.Label)
	}

	s.recordWrite(k, "delete")
	s.logAudit(ctx, "roster_record_deleted", "kind", k.Name, "record_id", recordID.String())
	return nil
}

func parseRequest(k models.Kind, req *models.RecordRequest) (*pmodels.Persona, models.Values, error) {
	persona, err := req.Persona.ToPersona()
	if err != nil {
		return nil, nil, err
	}
	datos, err := k.ParseDatos(req.Datos)
	if err != nil {
		return nil, nil, err
	}
	return persona, datos, nil
}

func (s *Service) load(ctx context.Context, k models.Kind, recordID id.RecordID) (*models.Record, error) {
	rec, err := s.reload(ctx, k, recordID)
	if err != nil {
		return nil, s.translate(k, err, "failed to load "+k.Label)
	}
	return rec, nil
}

func (s *Service) reload(ctx context.Context, k models.Kind, recordID id.RecordID) (*models.Record, error) {
	rec, err := s.store.FindByID(ctx, k, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.attachTelefonos(ctx, []*models.Record{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) attachTelefonos(ctx context.Context, records []*models.Record) error {
	if len(records) == 0 {
		return nil
	}
	cedulas := make([]id.Cedula, 0, len(records))
	for _, r := range records {
		cedulas = append(cedulas, r.Persona.Cedula)
	}
	phones, err := s.personas.TelefonosFor(ctx, cedulas)
	if err != nil {
		return err
	}
	for _, r := range records {
		r.Persona.Telefonos = phones[r.Persona.Cedula]
	}
	return nil
}

func (s *Service) translate(k models.Kind, err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, k.Label+" no encontrado")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "la cedula ya esta registrada como "+k.Label)
	}
	return pgerr.Translate(err, msg)
}

func (s *Service) recordWrite(k models.Kind, op string) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrite(k.Name, op)
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
