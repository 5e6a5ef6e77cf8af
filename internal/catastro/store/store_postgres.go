package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"registro/internal/catastro/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/platform/sqlsearch"
	"registro/pkg/platform/tx"
)

// PostgresStore persists propiedades and the propiedades_geo cache.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const propiedadColumns = `p.id, p.departamento, p.distrito, p.padron, p.cta_cte, p.zona, p.propietario_cedula,
	p.superficie, p.direccion, p.observaciones, p.created_by, p.created_at, p.updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Propiedad) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO propiedades (id, departamento, distrito, padron, cta_cte, zona, propietario_cedula,
			superficie, direccion, observaciones, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, uuid.UUID(p.ID), p.Departamento, p.Distrito, p.Padron, p.CtaCte, p.Zona, nullableCedula(p.PropietarioCedula),
		p.Superficie, p.Direccion, p.Observaciones, nullableUser(p.CreatedBy), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("padron %s already registered: %w", p.ParcelaKey.String(), sentinel.ErrConflict)
		}
		return fmt.Errorf("insert propiedad: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Propiedad, error) {
	p, err := scanPropiedad(tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+propiedadColumns+` FROM propiedades p WHERE p.id = $1`, uuid.UUID(propertyID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("propiedad not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find propiedad: %w", err)
	}
	return p, nil
}

func listWhere(f models.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Departamento != "" {
		args = append(args, f.Departamento)
		conds = append(conds, fmt.Sprintf("p.departamento = $%d", len(args)))
	}
	if f.Distrito != "" {
		args = append(args, f.Distrito)
		conds = append(conds, fmt.Sprintf("p.distrito = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		args = append(args, q, sqlsearch.EscapeLike(q))
		n := len(args) - 1
		conds = append(conds, fmt.Sprintf(
			`(p.padron = $%[1]d OR p.cta_cte ILIKE $%[2]d::text || '%%' ESCAPE '\' OR p.propietario_cedula = $%[1]d `+
				`OR p.direccion ILIKE '%%' || $%[2]d::text || '%%' ESCAPE '\')`, n, n+1))
	}
	if len(conds) == 0 {
		return "TRUE", args
	}
	return strings.Join(conds, " AND "), args
}

// List pages propiedades ordered by their cadastral key.
func (s *PostgresStore) List(ctx context.Context, f models.ListFilter, limit, offset int) ([]*models.Propiedad, int, error) {
	where, args := listWhere(f)
	q := tx.Q(ctx, s.db)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM propiedades p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count propiedades: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM propiedades p WHERE %s
		ORDER BY p.departamento, p.distrito, p.padron
		LIMIT $%d OFFSET $%d
	`, propiedadColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list propiedades: %w", err)
	}
	defer rows.Close()

	var out []*models.Propiedad
	for rows.Next() {
		p, err := scanPropiedad(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan propiedad: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate propiedades: %w", err)
	}
	return out, total, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Propiedad) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE propiedades SET departamento = $2, distrito = $3, padron = $4, cta_cte = $5, zona = $6,
			propietario_cedula = $7, superficie = $8, direccion = $9, observaciones = $10, updated_at = $11
		WHERE id = $1
	`, uuid.UUID(p.ID), p.Departamento, p.Distrito, p.Padron, p.CtaCte, p.Zona, nullableCedula(p.PropietarioCedula),
		p.Superficie, p.Direccion, p.Observaciones, p.UpdatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("padron %s already registered: %w", p.ParcelaKey.String(), sentinel.ErrConflict)
		}
		return fmt.Errorf("update propiedad: %w", err)
	}
	return requireOneRow(res, "update propiedad")
}

// Delete removes the property. Its cached geometry stays for the map.
func (s *PostgresStore) Delete(ctx context.Context, propertyID id.PropertyID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM propiedades WHERE id = $1`, uuid.UUID(propertyID))
	if err != nil {
		return fmt.Errorf("delete propiedad: %w", err)
	}
	return requireOneRow(res, "delete propiedad")
}

// UpsertGeo caches a parcel in one statement. Polygons are promoted to
// MultiPolygon to fit the column type.
func (s *PostgresStore) UpsertGeo(ctx context.Context, f *models.GeoFeature) error {
	props := f.PropertiesObject()
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO propiedades_geo (departamento, distrito, padron, geom, properties, fetched_at)
		VALUES ($1, $2, $3, ST_Multi(ST_SetSRID(ST_GeomFromGeoJSON($4), 4326)), $5::jsonb, $6)
		ON CONFLICT (departamento, distrito, padron) DO UPDATE
		SET geom = EXCLUDED.geom, properties = EXCLUDED.properties, fetched_at = EXCLUDED.fetched_at
	`, f.Departamento, f.Distrito, f.Padron, string(f.Geometry), string(props), f.FetchedAt)
	if err != nil {
		return fmt.Errorf("upsert propiedad geo: %w", err)
	}
	return nil
}

const geoColumns = `g.departamento, g.distrito, g.padron, ST_AsGeoJSON(g.geom), g.properties::text, g.fetched_at`

func (s *PostgresStore) FindGeo(ctx context.Context, key models.ParcelaKey) (*models.GeoFeature, error) {
	f, err := scanGeo(tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+geoColumns+` FROM propiedades_geo g
		WHERE g.departamento = $1 AND g.distrito = $2 AND g.padron = $3
	`, key.Departamento, key.Distrito, key.Padron))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("geometry not cached: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find propiedad geo: %w", err)
	}
	return f, nil
}

// MapFeatures returns cached parcels whose geometry intersects bbox.
func (s *PostgresStore) MapFeatures(ctx context.Context, bbox models.BBox, limit int) ([]*models.MapFeature, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT `+geoColumns+`, `+propiedadColumns+`
		FROM propiedades_geo g
		LEFT JOIN propiedades p
			ON p.departamento = g.departamento AND p.distrito = g.distrito AND p.padron = g.padron
		WHERE ST_Intersects(g.geom, ST_MakeEnvelope($1, $2, $3, $4, 4326))
		ORDER BY g.departamento, g.distrito, g.padron
		LIMIT $5
	`, bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat, limit)
	if err != nil {
		return nil, fmt.Errorf("query map features: %w", err)
	}
	defer rows.Close()

	var out []*models.MapFeature
	for rows.Next() {
		f, err := scanMapFeature(rows)
		if err != nil {
			return nil, fmt.Errorf("scan map feature: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate map features: %w", err)
	}
	return out, nil
}

type row interface {
	Scan(dest ...any) error
}

type propiedadDest struct {
	id        uuid.NullUUID
	dep, dist sql.NullString
	padron    sql.NullString
	ctaCte    sql.NullString
	zona      sql.NullString
	cedula    sql.NullString
	sup       decimal.NullDecimal
	direccion sql.NullString
	obs       sql.NullString
	createdBy uuid.NullUUID
	createdAt sql.NullTime
	updatedAt sql.NullTime
}

func (d *propiedadDest) targets() []any {
	return []any{&d.id, &d.dep, &d.dist, &d.padron, &d.ctaCte, &d.zona, &d.cedula,
		&d.sup, &d.direccion, &d.obs, &d.createdBy, &d.createdAt, &d.updatedAt}
}

func (d *propiedadDest) propiedad() *models.Propiedad {
	if !d.id.Valid {
		return nil
	}
	p := &models.Propiedad{
		ID:            id.PropertyID(d.id.UUID),
		ParcelaKey:    models.ParcelaKey{Departamento: d.dep.String, Distrito: d.dist.String, Padron: d.padron.String},
		CtaCte:        d.ctaCte.String,
		Zona:          d.zona.String,
		Superficie:    d.sup,
		Direccion:     d.direccion.String,
		Observaciones: d.obs.String,
		CreatedAt:     d.createdAt.Time,
		UpdatedAt:     d.updatedAt.Time,
	}
	if d.cedula.Valid {
		c := id.Cedula(d.cedula.String)
		p.PropietarioCedula = &c
	}
	if d.createdBy.Valid {
		u := id.UserID(d.createdBy.UUID)
		p.CreatedBy = &u
	}
	return p
}

func scanPropiedad(r row) (*models.Propiedad, error) {
	var d propiedadDest
	if err := r.Scan(d.targets()...); err != nil {
		return nil, err
	}
	return d.propiedad(), nil
}

type geoDest struct {
	f           models.GeoFeature
	geom, props string
}

func (g *geoDest) targets() []any {
	return []any{&g.f.Departamento, &g.f.Distrito, &g.f.Padron, &g.geom, &g.props, &g.f.FetchedAt}
}

func (g *geoDest) feature() *models.GeoFeature {
	g.f.Geometry = json.RawMessage(g.geom)
	g.f.Properties = json.RawMessage(g.props)
	return &g.f
}

func scanGeo(r row) (*models.GeoFeature, error) {
	var g geoDest
	if err := r.Scan(g.targets()...); err != nil {
		return nil, err
	}
	return g.feature(), nil
}

func scanMapFeature(r row) (*models.MapFeature, error) {
	var (
		g geoDest
		p propiedadDest
	)
	if err := r.Scan(append(g.targets(), p.targets()...)...); err != nil {
		return nil, err
	}
	return &models.MapFeature{GeoFeature: *g.feature(), Propiedad: p.propiedad()}, nil
}

func nullableUser(u *id.UserID) any {
	if u == nil {
		return nil
	}
	return uuid.UUID(*u)
}

func nullableCedula(c *id.Cedula) any {
	if c == nil {
		return nil
	}
	return c.String()
}

func requireOneRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}
