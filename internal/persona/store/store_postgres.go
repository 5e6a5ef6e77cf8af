package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"registro/internal/persona/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
	"registro/pkg/platform/sqlsearch"
	"registro/pkg/platform/tx"
)

// PostgresStore persists the general identity table and its phones.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed persona store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const generalColumns = `cedula, nombres, apellidos, fecha_nacimiento, sexo, direccion, ciudad, email, created_at, updated_at`

// UpsertGeneral inserts the persona or merges it into the existing row. A
// column is only overwritten when the incoming value is non-empty, so partial
// payloads never blank identity data.
func (s *PostgresStore) UpsertGeneral(ctx context.Context, p *models.Persona) error {
	if p == nil {
		return fmt.Errorf("persona is required")
	}
	err := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO general (cedula, nombres, apellidos, fecha_nacimiento, sexo, direccion, ciudad, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (cedula) DO UPDATE SET
			nombres          = COALESCE(NULLIF(EXCLUDED.nombres, ''), general.nombres),
			apellidos        = COALESCE(NULLIF(EXCLUDED.apellidos, ''), general.apellidos),
			fecha_nacimiento = COALESCE(EXCLUDED.fecha_nacimiento, general.fecha_nacimiento),
			sexo             = COALESCE(NULLIF(EXCLUDED.sexo, ''), general.sexo),
			direccion        = COALESCE(NULLIF(EXCLUDED.direccion, ''), general.direccion),
			ciudad           = COALESCE(NULLIF(EXCLUDED.ciudad, ''), general.ciudad),
			email            = COALESCE(NULLIF(EXCLUDED.email, ''), general.email),
			updated_at       = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`, p.Cedula.String(), p.Nombres, p.Apellidos, p.FechaNacimiento, p.Sexo, p.Direccion, p.Ciudad, p.Email, p.UpdatedAt).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert general: %w", err)
	}
	return nil
}

// UpsertTelefonos attaches phones to a persona. Callers pass numbers already
// run through models.NormalizeTelefonos; an existing number only has its tipo
// refreshed.
func (s *PostgresStore) UpsertTelefonos(ctx context.Context, cedula id.Cedula, telefonos []models.Telefono) error {
	if len(telefonos) == 0 {
		return nil
	}
	numeros := make([]string, len(telefonos))
	tipos := make([]string, len(telefonos))
	for i, t := range telefonos {
		numeros[i] = t.Numero
		tipos[i] = t.Tipo
	}
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO telefonos (cedula_persona, numero, tipo)
		SELECT $1, t.numero, t.tipo
		FROM unnest($2::text[], $3::text[]) AS t(numero, tipo)
		ON CONFLICT (cedula_persona, numero) DO UPDATE
		SET tipo = COALESCE(NULLIF(EXCLUDED.tipo, ''), telefonos.tipo)
	`, cedula.String(), pq.Array(numeros), pq.Array(tipos))
	if err != nil {
		return fmt.Errorf("upsert telefonos: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCedula(ctx context.Context, cedula id.Cedula) (*models.Persona, error) {
	p, err := scanPersona(tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+generalColumns+` FROM general WHERE cedula = $1`, cedula.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("persona not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find persona: %w", err)
	}
	phones, err := s.TelefonosFor(ctx, []id.Cedula{cedula})
	if err != nil {
		return nil, err
	}
	p.Telefonos = phones[cedula]
	return p, nil
}

// TelefonosFor loads the phones of many personas in one round trip.
func (s *PostgresStore) TelefonosFor(ctx context.Context, cedulas []id.Cedula) (map[id.Cedula][]models.Telefono, error) {
	out := make(map[id.Cedula][]models.Telefono, len(cedulas))
	if len(cedulas) == 0 {
		return out, nil
	}
	keys := make([]string, len(cedulas))
	for i, c := range cedulas {
		keys[i] = c.String()
	}
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT cedula_persona, numero, tipo
		FROM telefonos
		WHERE cedula_persona = ANY($1)
		ORDER BY cedula_persona, id
	`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("list telefonos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cedula string
		var t models.Telefono
		if err := rows.Scan(&cedula, &t.Numero, &t.Tipo); err != nil {
			return nil, fmt.Errorf("scan telefono: %w", err)
		}
		out[id.Cedula(cedula)] = append(out[id.Cedula(cedula)], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telefonos: %w", err)
	}
	return out, nil
}

// Search pages through general. q matches a cedula prefix or, through the
// Spanish full-text index, the names.
func (s *PostgresStore) Search(ctx context.Context, q string, limit, offset int) ([]*models.Persona, int, error) {
	where, args := SearchClause(q, "general", 1)
	qr := tx.Q(ctx, s.db)

	var total int
	if err := qr.QueryRowContext(ctx, `SELECT COUNT(*) FROM general WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count general: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := qr.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM general WHERE %s
		ORDER BY apellidos, nombres, cedula
		LIMIT $%d OFFSET $%d
	`, generalColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search general: %w", err)
	}
	defer rows.Close()

	var personas []*models.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan persona: %w", err)
		}
		personas = append(personas, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate general: %w", err)
	}
	return personas, total, nil
}

func (s *PostgresStore) DeleteTelefono(ctx context.Context, cedula id.Cedula, numero string) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM telefonos WHERE cedula_persona = $1 AND numero = $2`, cedula.String(), numero)
	if err != nil {
		return fmt.Errorf("delete telefono: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete telefono rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// SearchClause builds the WHERE fragment shared by every list that searches
// people by name or cedula. alias qualifies the general columns; argPos is the
// placeholder index the fragment may use. An empty q matches everything.
func SearchClause(q, alias string, argPos int) (string, []any) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "TRUE", nil
	}
	prefix := sqlsearch.EscapeLike(strings.NewReplacer(".", "", " ", "").Replace(q))
	return fmt.Sprintf(`(%[1]s.cedula LIKE $%[2]d::text || '%%' ESCAPE '\'
		OR to_tsvector('spanish', %[1]s.nombres || ' ' || %[1]s.apellidos) @@ plainto_tsquery('spanish', $%[3]d::text))`,
		alias, argPos, argPos+1), []any{prefix, q}
}

type personaRow interface {
	Scan(dest ...any) error
}

func scanPersona(row personaRow) (*models.Persona, error) {
	var p models.Persona
	var cedula string
	var fecha sql.NullTime
	if err := row.Scan(&cedula, &p.Nombres, &p.Apellidos, &fecha, &p.Sexo, &p.Direccion, &p.Ciudad, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Cedula = id.Cedula(cedula)
	if fecha.Valid {
		t := fecha.Time
		p.FechaNacimiento = &t
	}
	return &p, nil
}
