package models

import (
	"encoding/json"
	"time"

	"registro/pkg/platform/httputil"
)

type PropiedadResponse struct {
	ID                string    `json:"id"`
	Departamento      string    `json:"departamento"`
	Distrito          string    `json:"distrito"`
	Padron            string    `json:"padron"`
	CtaCte            string    `json:"cta_cte"`
	Zona              string    `json:"zona"`
	PropietarioCedula *string   `json:"propietario_cedula"`
	Superficie        *string   `json:"superficie"`
	Direccion         string    `json:"direccion"`
	Observaciones     string    `json:"observaciones"`
	CreatedBy         *string   `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func ToPropiedadResponse(p *Propiedad) *PropiedadResponse {
	if p == nil {
		return nil
	}
	res := &PropiedadResponse{
		ID:            p.ID.String(),
		Departamento:  p.Departamento,
		Distrito:      p.Distrito,
		Padron:        p.Padron,
		CtaCte:        p.CtaCte,
		Zona:          p.Zona,
		Direccion:     p.Direccion,
		Observaciones: p.Observaciones,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.PropietarioCedula != nil {
		c := p.PropietarioCedula.String()
		res.PropietarioCedula = &c
	}
	if p.Superficie.Valid {
		s := p.Superficie.Decimal.StringFixed(2)
		res.Superficie = &s
	}
	if p.CreatedBy != nil {
		u := p.CreatedBy.String()
		res.CreatedBy = &u
	}
	return res
}

// GeoDataResponse is the answer of POST /api/geo-data. Stale marks a cached
// geometry served because the cadastre could not be reached.
type GeoDataResponse struct {
	Departamento string          `json:"departamento"`
	Distrito     string          `json:"distrito"`
	Padron       string          `json:"padron"`
	Geometry     json.RawMessage `json:"geometry"`
	Properties   json.RawMessage `json:"properties"`
	FetchedAt    time.Time       `json:"fetched_at"`
	Stale        bool            `json:"stale"`
}

func ToGeoDataResponse(f *GeoFeature, stale bool) *GeoDataResponse {
	props := f.PropertiesObject()
	return &GeoDataResponse{
		Departamento: f.Departamento,
		Distrito:     f.Distrito,
		Padron:       f.Padron,
		Geometry:     f.Geometry,
		Properties:   props,
		FetchedAt:    f.FetchedAt,
		Stale:        stale,
	}
}

// BatchItem reports the outcome of one parcel in a batch. Exactly one of
// Data and Error is set.
type BatchItem struct {
	Parcela ParcelaKey              `json:"parcela"`
	Status  int                     `json:"status"`
	Data    *GeoDataResponse        `json:"data,omitempty"`
	Error   *httputil.ErrorResponse `json:"error,omitempty"`
}

type BatchResponse struct {
	Results []BatchItem `json:"results"`
	OK      int         `json:"ok"`
	Failed  int         `json:"failed"`
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// ToFeatureCollection renders map features. Non-empty property columns
// override cadastre attributes of the same name.
func ToFeatureCollection(features []*MapFeature) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(features))}
	for _, f := range features {
		fc.Features = append(fc.Features, ToFeature(f))
	}
	return fc
}

func ToFeature(f *MapFeature) Feature {
	var props map[string]any
	if err := json.Unmarshal(f.PropertiesObject(), &props); err != nil || props == nil {
		props = map[string]any{}
	}
	props["departamento"] = f.Departamento
	props["distrito"] = f.Distrito
	props["padron"] = f.Padron
	props["fetched_at"] = f.FetchedAt
	if p := f.Propiedad; p != nil {
		res := ToPropiedadResponse(p)
		props["propiedad_id"] = res.ID
		if res.CtaCte != "" {
			props["cta_cte"] = res.CtaCte
		}
		if res.Zona != "" {
			props["zona"] = res.Zona
		}
		props["propietario_cedula"] = res.PropietarioCedula
		props["superficie"] = res.Superficie
	}
	return Feature{Type: "Feature", ID: f.ParcelaKey.String(), Geometry: f.Geometry, Properties: props}
}
