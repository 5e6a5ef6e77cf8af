package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"registro/internal/persona/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
)

// InMemoryStore mirrors PostgresStore semantics for service tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	personas  map[id.Cedula]*models.Persona
	telefonos map[id.Cedula][]models.Telefono
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		personas:  make(map[id.Cedula]*models.Persona),
		telefonos: make(map[id.Cedula][]models.Telefono),
	}
}

func (s *InMemoryStore) UpsertGeneral(_ context.Context, p *models.Persona) error {
	if p == nil {
		return fmt.Errorf("persona is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.personas[p.Cedula]
	if !ok {
		cp := *p
		cp.Telefonos = nil
		cp.CreatedAt = p.UpdatedAt
		s.personas[p.Cedula] = &cp
		p.CreatedAt = cp.CreatedAt
		return nil
	}
	merge := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	merge(&existing.Nombres, p.Nombres)
	merge(&existing.Apellidos, p.Apellidos)
	merge(&existing.Sexo, p.Sexo)
	merge(&existing.Direccion, p.Direccion)
	merge(&existing.Ciudad, p.Ciudad)
	merge(&existing.Email, p.Email)
	if p.FechaNacimiento != nil {
		existing.FechaNacimiento = p.FechaNacimiento
	}
	existing.UpdatedAt = p.UpdatedAt
	p.CreatedAt = existing.CreatedAt
	return nil
}

func (s *InMemoryStore) UpsertTelefonos(_ context.Context, cedula id.Cedula, telefonos []models.Telefono) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.personas[cedula]; !ok && len(telefonos) > 0 {
		return fmt.Errorf("telefonos for unknown persona %s", cedula)
	}
	current := s.telefonos[cedula]
	for _, t := range telefonos {
		found := false
		for i := range current {
			if current[i].Numero == t.Numero {
				if t.Tipo != "" {
					current[i].Tipo = t.Tipo
				}
				found = true
				break
			}
		}
		if !found {
			current = append(current, t)
		}
	}
	s.telefonos[cedula] = current
	return nil
}

func (s *InMemoryStore) FindByCedula(_ context.Context, cedula id.Cedula) (*models.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personas[cedula]
	if !ok {
		return nil, fmt.Errorf("persona not found: %w", sentinel.ErrNotFound)
	}
	cp := *p
	cp.Telefonos = append([]models.Telefono(nil), s.telefonos[cedula]...)
	return &cp, nil
}

func (s *InMemoryStore) TelefonosFor(_ context.Context, cedulas []id.Cedula) (map[id.Cedula][]models.Telefono, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.Cedula][]models.Telefono, len(cedulas))
	for _, c := range cedulas {
		if phones := s.telefonos[c]; len(phones) > 0 {
			out[c] = append([]models.Telefono(nil), phones...)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Search(_ context.Context, q string, limit, offset int) ([]*models.Persona, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q = strings.ToLower(strings.TrimSpace(q))
	prefix := strings.NewReplacer(".", "", " ", "").Replace(q)

	var matches []*models.Persona
	for _, p := range s.personas {
		name := strings.ToLower(p.Nombres + " " + p.Apellidos)
		if q == "" || strings.HasPrefix(p.Cedula.String(), prefix) || strings.Contains(name, q) {
			cp := *p
			matches = append(matches, &cp)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Apellidos != matches[j].Apellidos {
			return matches[i].Apellidos < matches[j].Apellidos
		}
		if matches[i].Nombres != matches[j].Nombres {
			return matches[i].Nombres < matches[j].Nombres
		}
		return matches[i].Cedula < matches[j].Cedula
	})
	total := len(matches)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return matches[offset:end], total, nil
}

func (s *InMemoryStore) DeleteTelefono(_ context.Context, cedula id.Cedula, numero string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.telefonos[cedula]
	for i, t := range current {
		if t.Numero == numero {
			s.telefonos[cedula] = append(current[:i], current[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}
