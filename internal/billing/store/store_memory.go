package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"registro/internal/billing/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
)

// InMemoryStore mirrors PostgresStore, including its uniqueness rules, for
// service tests.
type InMemoryStore struct {
	mu            sync.RWMutex
	planes        map[id.PlanID]*models.Plan
	suscripciones map[id.SubscriptionID]*models.Suscripcion
	pagos         map[id.PaymentID]*models.Pago
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		planes:        make(map[id.PlanID]*models.Plan),
		suscripciones: make(map[id.SubscriptionID]*models.Suscripcion),
		pagos:         make(map[id.PaymentID]*models.Pago),
	}
}

func (s *InMemoryStore) CreatePlan(_ context.Context, p *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codigoTaken(p.Codigo, p.ID) {
		return fmt.Errorf("plan %s already exists: %w", p.Codigo, sentinel.ErrConflict)
	}
	cp := *p
	s.planes[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) EnsurePlan(_ context.Context, p *models.Plan) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codigoTaken(p.Codigo, p.ID) {
		return false, nil
	}
	cp := *p
	s.planes[p.ID] = &cp
	return true, nil
}

func (s *InMemoryStore) UpdatePlan(_ context.Context, p *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.planes[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.codigoTaken(p.Codigo, p.ID) {
		return fmt.Errorf("plan %s already exists: %w", p.Codigo, sentinel.ErrConflict)
	}
	cp := *p
	s.planes[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) codigoTaken(codigo string, except id.PlanID) bool {
	for _, p := range s.planes {
		if p.Codigo == codigo && p.ID != except {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) FindPlan(_ context.Context, planID id.PlanID) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.planes[planID]
	if !ok {
		return nil, fmt.Errorf("plan not found: %w", sentinel.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) ListPlans(_ context.Context, includeInactive bool) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Plan
	for _, p := range s.planes {
		if !p.Activo && !includeInactive {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Precio.Cmp(out[j].Precio); c != 0 {
			return c < 0
		}
		return out[i].Codigo < out[j].Codigo
	})
	return out, nil
}

func (s *InMemoryStore) CreateSubscription(_ context.Context, sub *models.Suscripcion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.Estado.IsLive() {
		for _, existing := range s.suscripciones {
			if existing.UserID == sub.UserID && existing.Estado.IsLive() {
				return fmt.Errorf("user %s already subscribed: %w", sub.UserID, sentinel.ErrConflict)
			}
		}
	}
	cp := *sub
	s.suscripciones[sub.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindSubscription(_ context.Context, subID id.SubscriptionID) (*models.Suscripcion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.suscripciones[subID]
	if !ok {
		return nil, fmt.Errorf("suscripcion not found: %w", sentinel.ErrNotFound)
	}
	cp := *sub
	return &cp, nil
}

func (s *InMemoryStore) LockSubscription(ctx context.Context, subID id.SubscriptionID) (*models.Suscripcion, error) {
	return s.FindSubscription(ctx, subID)
}

func (s *InMemoryStore) FindLiveByUser(_ context.Context, userID id.UserID) (*models.Suscripcion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.suscripciones {
		if sub.UserID == userID && sub.Estado.IsLive() {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("suscripcion not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) ListSubscriptions(_ context.Context, f models.SuscripcionFilter, limit, offset int) ([]*models.Suscripcion, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Suscripcion
	for _, sub := range s.suscripciones {
		if f.Estado != nil && sub.Estado != *f.Estado {
			continue
		}
		if f.UserID != nil && sub.UserID != *f.UserID {
			continue
		}
		cp := *sub
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

func (s *InMemoryStore) UpdateSubscription(_ context.Context, sub *models.Suscripcion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.suscripciones[sub.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.Estado = sub.Estado
	existing.FinPeriodo = sub.FinPeriodo
	existing.CanceladaEn = sub.CanceladaEn
	return nil
}

func (s *InMemoryStore) HasActive(_ context.Context, userID id.UserID, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.suscripciones {
		if sub.UserID == userID && sub.ActiveAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ExpireLapsed(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.suscripciones {
		if sub.Estado == models.EstadoActiva && !now.Before(sub.FinPeriodo) {
			sub.Estado = models.EstadoVencida
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) CreatePayment(_ context.Context, p *models.Pago) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.pagos {
		if existing.Referencia == p.Referencia {
			return fmt.Errorf("referencia %s already used: %w", p.Referencia, sentinel.ErrConflict)
		}
	}
	cp := *p
	s.pagos[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListPayments(_ context.Context, subID id.SubscriptionID) ([]*models.Pago, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Pago
	for _, p := range s.pagos {
		if p.SuscripcionID == subID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PagadoEn.After(out[j].PagadoEn) })
	return out, nil
}
