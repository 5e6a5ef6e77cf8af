package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/validation"
)

// ParcelaKey is the cadastral natural key shared by propiedades and the
// geometry cache.
type ParcelaKey struct {
	Departamento string `json:"departamento" validate:"required,notblank,max=10"`
	Distrito     string `json:"distrito" validate:"required,notblank,max=10"`
	Padron       string `json:"padron" validate:"required,notblank,max=20"`
}

func (k ParcelaKey) String() string {
	return k.Departamento + "-" + k.Distrito + "-" + k.Padron
}

func (k *ParcelaKey) Normalize() {
	k.Departamento = strings.TrimSpace(k.Departamento)
	k.Distrito = strings.TrimSpace(k.Distrito)
	k.Padron = strings.TrimSpace(k.Padron)
}

func (k *ParcelaKey) Validate() error {
	return validation.Validate(k)
}

// Propiedad is a cadastral property record.
type Propiedad struct {
	ID                id.PropertyID
	ParcelaKey
	CtaCte            string
	Zona              string
	PropietarioCedula *id.Cedula
	Superficie        decimal.NullDecimal
	Direccion         string
	Observaciones     string
	CreatedBy         *id.UserID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ListFilter narrows a property listing. Empty fields do not filter.
type ListFilter struct {
	Departamento string
	Distrito     string
	Q            string
}

// GeoFeature is a cached parcel geometry in GeoJSON, SRID 4326.
type GeoFeature struct {
	ParcelaKey
	Geometry   json.RawMessage
	Properties json.RawMessage
	FetchedAt  time.Time
}

// PropertiesObject returns the cadastre attributes as a JSON object. Empty
// and null attributes become {}.
func (f *GeoFeature) PropertiesObject() json.RawMessage {
	trimmed := bytes.TrimSpace(f.Properties)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage(`{}`)
	}
	return f.Properties
}

// MapFeature is a cached parcel joined with its property row, if any.
type MapFeature struct {
	GeoFeature
	Propiedad *Propiedad
}

// BBox is a lon/lat envelope in EPSG:4326.
type BBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat".
func ParseBBox(raw string) (BBox, error) {
	invalid := dErrors.New(dErrors.CodeValidation, "bbox debe ser minLon,minLat,maxLon,maxLat")
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return BBox{}, invalid
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return BBox{}, invalid
		}
		vals[i] = v
	}
	b := BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if b.MinLon < -180 || b.MaxLon > 180 || b.MinLat < -90 || b.MaxLat > 90 ||
		b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
		return BBox{}, invalid
	}
	return b, nil
}

// Intersects reports whether two envelopes overlap, edges included.
func (b BBox) Intersects(o BBox) bool {
	return b.MinLon <= o.MaxLon && o.MinLon <= b.MaxLon && b.MinLat <= o.MaxLat && o.MinLat <= b.MaxLat
}
