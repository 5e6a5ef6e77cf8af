package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"registro/internal/access"
	"registro/internal/agenda/models"
	"registro/internal/platform/metrics"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/requestcontext"
)

// Store persists agenda contacts.
// Error Contract: FindByID, Update, ToggleFavorito and Delete return sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, c *models.Contacto) error
	FindByID(ctx context.Context, contactID id.ContactID) (*models.Contacto, error)
	List(ctx context.Context, f models.ListFilter, limit, offset int) ([]*models.Contacto, int, error)
	Update(ctx context.Context, c *models.Contacto) error
	ToggleFavorito(ctx context.Context, contactID id.ContactID, now time.Time) (*models.Contacto, error)
	Delete(ctx context.Context, contactID id.ContactID) error
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

var errContactoNotFound = dErrors.New(dErrors.CodeNotFound, "contacto no encontrado")

// ListQuery carries the agenda list filters. All only has effect for admins.
type ListQuery struct {
	Q        string
	Favorito *bool
	All      bool
}

// List returns the caller's agenda. Admins asking for All see every agenda.
func (s *Service) List(ctx context.Context, q ListQuery, page httputil.PageRequest) (httputil.ListResponse[*models.ContactoResponse], error) {
	principal := requestcontext.Principal(ctx)
	filter := models.ListFilter{Q: q.Q, Favorito: q.Favorito}
	if !(q.All && principal.IsAdmin()) {
		owner := principal.UserID
		filter.OwnerID = &owner
	}
	contactos, total, err := s.store.List(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return httputil.ListResponse[*models.ContactoResponse]{}, pgerr.Translate(err, "failed to list contactos")
	}
	items := make([]*models.ContactoResponse, 0, len(contactos))
	for _, c := range contactos {
		items = append(items, models.ToContactoResponse(c))
	}
	return httputil.NewListResponse(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, contactID id.ContactID) (*models.ContactoResponse, error) {
	c, err := s.owned(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return models.ToContactoResponse(c), nil
}

func (s *Service) Create(ctx context.Context, req *models.ContactoRequest) (*models.ContactoResponse, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "autenticacion requerida")
	}
	now := requestcontext.Now(ctx)
	c := &models.Contacto{
		ID:        id.ContactID(uuid.New()),
		OwnerID:   principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.Apply(c)
	if err := s.store.Create(ctx, c); err != nil {
		return nil, pgerr.Translate(err, "failed to create contacto")
	}
	s.recordWrite("create")
	return models.ToContactoResponse(c), nil
}

func (s *Service) Update(ctx context.Context, contactID id.ContactID, req *models.ContactoRequest) (*models.ContactoResponse, error) {
	var updated *models.Contacto
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.owned(ctx, contactID)
		if err != nil {
			return err
		}
		req.Apply(c)
		c.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to update contacto")
	}
	s.recordWrite("update")
	return models.ToContactoResponse(updated), nil
}

func (s *Service) ToggleFavorito(ctx context.Context, contactID id.ContactID) (*models.ContactoResponse, error) {
	var toggled *models.Contacto
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, contactID); err != nil {
			return err
		}
		var err error
		toggled, err = s.store.ToggleFavorito(ctx, contactID, requestcontext.Now(ctx))
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to toggle favorito")
	}
	s.recordWrite("favorito")
	return models.ToContactoResponse(toggled), nil
}

func (s *Service) Delete(ctx context.Context, contactID id.ContactID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, contactID); err != nil {
			return err
		}
		return s.store.Delete(ctx, contactID)
	})
	if err != nil {
		return translate(err, "failed to delete contacto")
	}
	s.recordWrite("delete")
	return nil
}

// owned loads a contact the caller may see. Contacts of other users answer
// not found so agendas do not leak their existence.
func (s *Service) owned(ctx context.Context, contactID id.ContactID) (*models.Contacto, error) {
	c, err := s.store.FindByID(ctx, contactID)
	if err != nil {
		return nil, translate(err, "failed to load contacto")
	}
	owner := c.OwnerID
	if !access.CanAccessRecord(requestcontext.Principal(ctx), &owner) {
		return nil, errContactoNotFound
	}
	return c, nil
}

func translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "contacto no encontrado")
	}
	return pgerr.Translate(err, msg)
}

func (s *Service) recordWrite(op string) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrite("contactos", op)
	}
}
