package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"registro/internal/agenda/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
	"registro/pkg/platform/sqlsearch"
	"registro/pkg/platform/tx"
)

// PostgresStore persists agenda contacts. Phones live in a text[] column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const contactoColumns = `id, owner_id, nombres, apellidos, cedula, empresa, email, telefonos, notas, favorito, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *models.Contacto) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO contactos (`+contactoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, uuid.UUID(c.ID), uuid.UUID(c.OwnerID), c.Nombres, c.Apellidos, c.Cedula, c.Empresa, c.Email,
		pq.Array(phones(c.Telefonos)), c.Notas, c.Favorito, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert contacto: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, contactID id.ContactID) (*models.Contacto, error) {
	c, err := scanContacto(tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+contactoColumns+` FROM contactos WHERE id = $1`, uuid.UUID(contactID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contacto not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find contacto: %w", err)
	}
	return c, nil
}

// List returns one page of contacts, favourites first.
func (s *PostgresStore) List(ctx context.Context, f models.ListFilter, limit, offset int) ([]*models.Contacto, int, error) {
	var conds []string
	var args []any
	if f.OwnerID != nil {
		args = append(args, uuid.UUID(*f.OwnerID))
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.Favorito != nil {
		args = append(args, *f.Favorito)
		conds = append(conds, fmt.Sprintf("favorito = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		args = append(args, sqlsearch.EscapeLike(q), q)
		n := len(args) - 1
		conds = append(conds, fmt.Sprintf(`(
			(nombres || ' ' || apellidos || ' ' || empresa) ILIKE '%%' || $%[1]d::text || '%%' ESCAPE '\'
			OR email ILIKE '%%' || $%[1]d::text || '%%' ESCAPE '\'
			OR cedula LIKE $%[1]d::text || '%%' ESCAPE '\'
			OR $%[2]d::text = ANY(telefonos))`, n, n+1))
	}
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	qr := tx.Q(ctx, s.db)
	var total int
	if err := qr.QueryRowContext(ctx, `SELECT COUNT(*) FROM contactos WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contactos: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := qr.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM contactos WHERE %s
		ORDER BY favorito DESC, apellidos, nombres, id
		LIMIT $%d OFFSET $%d
	`, contactoColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contactos: %w", err)
	}
	defer rows.Close()

	var out []*models.Contacto
	for rows.Next() {
		c, err := scanContacto(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contacto: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate contactos: %w", err)
	}
	return out, total, nil
}

func (s *PostgresStore) Update(ctx context.Context, c *models.Contacto) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE contactos
		SET nombres = $2, apellidos = $3, cedula = $4, empresa = $5, email = $6,
		    telefonos = $7, notas = $8, favorito = $9, updated_at = $10
		WHERE id = $1
	`, uuid.UUID(c.ID), c.Nombres, c.Apellidos, c.Cedula, c.Empresa, c.Email,
		pq.Array(phones(c.Telefonos)), c.Notas, c.Favorito, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update contacto: %w", err)
	}
	return requireOneRow(res, "update contacto")
}

// ToggleFavorito flips the flag in a single statement so concurrent toggles
// never lose an update.
func (s *PostgresStore) ToggleFavorito(ctx context.Context, contactID id.ContactID, now time.Time) (*models.Contacto, error) {
	c, err := scanContacto(tx.Q(ctx, s.db).QueryRowContext(ctx, `
		UPDATE contactos SET favorito = NOT favorito, updated_at = $2
		WHERE id = $1
		RETURNING `+contactoColumns, uuid.UUID(contactID), now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contacto not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("toggle favorito: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Delete(ctx context.Context, contactID id.ContactID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM contactos WHERE id = $1`, uuid.UUID(contactID))
	if err != nil {
		return fmt.Errorf("delete contacto: %w", err)
	}
	return requireOneRow(res, "delete contacto")
}

// phones keeps the column NOT NULL when a contact has no numbers.
func phones(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}

type contactoRow interface {
	Scan(dest ...any) error
}

func scanContacto(row contactoRow) (*models.Contacto, error) {
	var c models.Contacto
	var contactID, ownerID uuid.UUID
	var telefonos pq.StringArray
	if err := row.Scan(&contactID, &ownerID, &c.Nombres, &c.Apellidos, &c.Cedula, &c.Empresa, &c.Email,
		&telefonos, &c.Notas, &c.Favorito, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = id.ContactID(contactID)
	c.OwnerID = id.UserID(ownerID)
	c.Telefonos = []string(telefonos)
	return &c, nil
}

func requireOneRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
