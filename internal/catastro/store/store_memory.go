package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"registro/internal/catastro/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
)

// InMemoryStore backs service tests. MapFeatures compares envelopes of the
// stored geometries, which is coarser than ST_Intersects.
type InMemoryStore struct {
	mu          sync.RWMutex
	propiedades map[id.PropertyID]*models.Propiedad
	geo         map[models.ParcelaKey]*models.GeoFeature
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		propiedades: make(map[id.PropertyID]*models.Propiedad),
		geo:         make(map[models.ParcelaKey]*models.GeoFeature),
	}
}

func (s *InMemoryStore) keyTaken(key models.ParcelaKey, except id.PropertyID) bool {
	for pid, p := range s.propiedades {
		if pid != except && p.ParcelaKey == key {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Propiedad) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keyTaken(p.ParcelaKey, p.ID) {
		return fmt.Errorf("padron %s already registered: %w", p.ParcelaKey.String(), sentinel.ErrConflict)
	}
	cp := *p
	s.propiedades[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, propertyID id.PropertyID) (*models.Propiedad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.propiedades[propertyID]
	if !ok {
		return nil, fmt.Errorf("propiedad not found: %w", sentinel.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context, f models.ListFilter, limit, offset int) ([]*models.Propiedad, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(f.Q))
	var matched []*models.Propiedad
	for _, p := range s.propiedades {
		if f.Departamento != "" && p.Departamento != f.Departamento {
			continue
		}
		if f.Distrito != "" && p.Distrito != f.Distrito {
			continue
		}
		if q != "" && !matches(p, q) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ParcelaKey.String() < matched[j].ParcelaKey.String()
	})
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func matches(p *models.Propiedad, q string) bool {
	if p.Padron == q || strings.HasPrefix(strings.ToLower(p.CtaCte), q) ||
		strings.Contains(strings.ToLower(p.Direccion), q) {
		return true
	}
	return p.PropietarioCedula != nil && p.PropietarioCedula.String() == q
}

func (s *InMemoryStore) Update(_ context.Context, p *models.Propiedad) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.propiedades[p.ID]; !ok {
		return fmt.Errorf("update propiedad: %w", sentinel.ErrNotFound)
	}
	if s.keyTaken(p.ParcelaKey, p.ID) {
		return fmt.Errorf("padron %s already registered: %w", p.ParcelaKey.String(), sentinel.ErrConflict)
	}
	cp := *p
	s.propiedades[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, propertyID id.PropertyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.propiedades[propertyID]; !ok {
		return fmt.Errorf("delete propiedad: %w", sentinel.ErrNotFound)
	}
	delete(s.propiedades, propertyID)
	return nil
}

func (s *InMemoryStore) UpsertGeo(_ context.Context, f *models.GeoFeature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.geo[f.ParcelaKey] = &cp
	return nil
}

func (s *InMemoryStore) FindGeo(_ context.Context, key models.ParcelaKey) (*models.GeoFeature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.geo[key]
	if !ok {
		return nil, fmt.Errorf("geometry not cached: %w", sentinel.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (s *InMemoryStore) MapFeatures(_ context.Context, bbox models.BBox, limit int) ([]*models.MapFeature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.MapFeature
	for key, f := range s.geo {
		env, ok := envelope(f.Geometry)
		if !ok || !env.Intersects(bbox) {
			continue
		}
		mf := &models.MapFeature{GeoFeature: *f}
		for _, p := range s.propiedades {
			if p.ParcelaKey == key {
				cp := *p
				mf.Propiedad = &cp
			}
		}
		out = append(out, mf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParcelaKey.String() < out[j].ParcelaKey.String() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// envelope walks the nested coordinate arrays of a GeoJSON geometry.
func envelope(geometry json.RawMessage) (models.BBox, bool) {
	var g struct {
		Coordinates any `json:"coordinates"`
	}
	if err := json.Unmarshal(geometry, &g); err != nil {
		return models.BBox{}, false
	}
	env := models.BBox{MinLon: math.Inf(1), MinLat: math.Inf(1), MaxLon: math.Inf(-1), MaxLat: math.Inf(-1)}
	var walk func(v any)
	walk = func(v any) {
		arr, ok := v.([]any)
		if !ok {
			return
		}
		if len(arr) >= 2 {
			lon, okLon := arr[0].(float64)
			lat, okLat := arr[1].(float64)
			if okLon && okLat {
				env.MinLon, env.MaxLon = math.Min(env.MinLon, lon), math.Max(env.MaxLon, lon)
				env.MinLat, env.MaxLat = math.Min(env.MinLat, lat), math.Max(env.MaxLat, lat)
				return
			}
		}
		for _, child := range arr {
			walk(child)
		}
	}
	walk(g.Coordinates)
	return env, !math.IsInf(env.MinLon, 1)
}
