package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"registro/internal/agenda/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
)

// InMemoryStore mirrors PostgresStore for service tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	contactos map[id.ContactID]*models.Contacto
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{contactos: make(map[id.ContactID]*models.Contacto)}
}

func clone(c *models.Contacto) *models.Contacto {
	cp := *c
	cp.Telefonos = slices.Clone(c.Telefonos)
	return &cp
}

func (s *InMemoryStore) Create(_ context.Context, c *models.Contacto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contactos[c.ID] = clone(c)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, contactID id.ContactID) (*models.Contacto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contactos[contactID]
	if !ok {
		return nil, fmt.Errorf("contacto not found: %w", sentinel.ErrNotFound)
	}
	return clone(c), nil
}

func (s *InMemoryStore) List(_ context.Context, f models.ListFilter, limit, offset int) ([]*models.Contacto, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(f.Q))
	var out []*models.Contacto
	for _, c := range s.contactos {
		if f.OwnerID != nil && c.OwnerID != *f.OwnerID {
			continue
		}
		if f.Favorito != nil && c.Favorito != *f.Favorito {
			continue
		}
		if q != "" {
			hay := strings.ToLower(c.Nombres + " " + c.Apellidos + " " + c.Empresa + " " + c.Email)
			if !strings.Contains(hay, q) && !strings.HasPrefix(c.Cedula, q) && !slices.Contains(c.Telefonos, q) {
				continue
			}
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Favorito != out[j].Favorito {
			return out[i].Favorito
		}
		if out[i].Apellidos != out[j].Apellidos {
			return out[i].Apellidos < out[j].Apellidos
		}
		return out[i].Nombres < out[j].Nombres
	})
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

func (s *InMemoryStore) Update(_ context.Context, c *models.Contacto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contactos[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.contactos[c.ID] = clone(c)
	return nil
}

func (s *InMemoryStore) ToggleFavorito(_ context.Context, contactID id.ContactID, now time.Time) (*models.Contacto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contactos[contactID]
	if !ok {
		return nil, fmt.Errorf("contacto not found: %w", sentinel.ErrNotFound)
	}
	c.Favorito = !c.Favorito
	c.UpdatedAt = now
	return clone(c), nil
}

func (s *InMemoryStore) Delete(_ context.Context, contactID id.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contactos[contactID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.contactos, contactID)
	return nil
}
