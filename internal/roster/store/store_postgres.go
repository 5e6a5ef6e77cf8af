package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pmodels "registro/internal/persona/models"
	personastore "registro/internal/persona/store"
	"registro/internal/roster/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/platform/tx"
)

// PostgresStore serves every roster table. Each method takes the Kind whose
// table and columns it operates on.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const joinedGeneralColumns = `g.nombres, g.apellidos, g.fecha_nacimiento, g.sexo, g.direccion, g.ciudad, g.email, g.created_at, g.updated_at`

func selectColumns(k models.Kind) string {
	cols := []string{"r.id", "r.cedula"}
	for _, c := range k.Columns() {
		cols = append(cols, "r."+c)
	}
	cols = append(cols, "r.created_by", "r.created_at", "r.updated_at", joinedGeneralColumns)
	return strings.Join(cols, ", ")
}

// Create inserts the specialization row. The general row must already exist
// in the same transaction.
func (s *PostgresStore) Create(ctx context.Context, k models.Kind, rec *models.Record) error {
	cols := append([]string{"id", "cedula"}, k.Columns()...)
	cols = append(cols, "created_by", "created_at", "updated_at")
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	args := []any{uuid.UUID(rec.ID), rec.Persona.Cedula.String()}
	args = append(args, valueArgs(k, rec.Datos)...)
	args = append(args, nullableUser(rec.CreatedBy), rec.CreatedAt, rec.UpdatedAt)

	_, err := tx.Q(ctx, s.db).ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`, k.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", ")),
		args...)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("%s already registered for cedula: %w", k.Label, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert %s: %w", k.Table, err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, k models.Kind, recordID id.RecordID) (*models.Record, error) {
	rec, err := scanRecord(k, tx.Q(ctx, s.db).QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s r JOIN general g ON g.cedula = r.cedula
		WHERE r.id = $1
	`, selectColumns(k), k.Table), uuid.UUID(recordID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s not found: %w", k.Label, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find %s: %w", k.Table, err)
	}
	return rec, nil
}

// List pages through a roster ordered by surname. q searches the joined
// general row by cedula prefix or name.
func (s *PostgresStore) List(ctx context.Context, k models.Kind, q string, limit, offset int) ([]*models.Record, int, error) {
	where, args := personastore.SearchClause(q, "g", 1)
	qr := tx.Q(ctx, s.db)

	var total int
	if err := qr.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s r JOIN general g ON g.cedula = r.cedula WHERE %s`, k.Table, where),
		args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", k.Table, err)
	}

	args = append(args, limit, offset)
	rows, err := qr.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s r JOIN general g ON g.cedula = r.cedula
		WHERE %s
		ORDER BY g.apellidos, g.nombres, r.cedula
		LIMIT $%d OFFSET $%d
	`, selectColumns(k), k.Table, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", k.Table, err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		rec, err := scanRecord(k, rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", k.Table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s: %w", k.Table, err)
	}
	return records, total, nil
}

// Update replaces the specialization values of a row.
func (s *PostgresStore) Update(ctx context.Context, k models.Kind, rec *models.Record) error {
	sets := make([]string, 0, len(k.Fields)+1)
	for i, c := range k.Columns() {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+2))
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(k.Fields)+2))

	args := []any{uuid.UUID(rec.ID)}
	args = append(args, valueArgs(k, rec.Datos)...)
	args = append(args, rec.UpdatedAt)

	res, err := tx.Q(ctx, s.db).ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET %s WHERE id = $1`, k.Table, strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", k.Table, err)
	}
	return requireOneRow(res, "update "+k.Table)
}

func (s *PostgresStore) Delete(ctx context.Context, k models.Kind, recordID id.RecordID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, k.Table), uuid.UUID(recordID))
	if err != nil {
		return fmt.Errorf("delete %s: %w", k.Table, err)
	}
	return requireOneRow(res, "delete "+k.Table)
}

// valueArgs orders values by column and converts them to driver arguments.
func valueArgs(k models.Kind, vals models.Values) []any {
	args := make([]any, len(k.Fields))
	for i, f := range k.Fields {
		v := vals[f.Column]
		switch f.Type {
		case models.FieldText:
			s, _ := v.(string)
			args[i] = s
		case models.FieldDate:
			t, _ := v.(*time.Time)
			args[i] = t
		case models.FieldDecimal:
			d, _ := v.(decimal.NullDecimal)
			args[i] = d
		case models.FieldInt:
			n, _ := v.(*int64)
			args[i] = n
		}
	}
	return args
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(k models.Kind, row recordRow) (*models.Record, error) {
	var (
		recordID  uuid.UUID
		cedula    string
		createdBy uuid.NullUUID
		fecha     sql.NullTime
		rec       models.Record
		p         pmodels.Persona
	)

	texts := make([]string, len(k.Fields))
	dates := make([]sql.NullTime, len(k.Fields))
	decimals := make([]decimal.NullDecimal, len(k.Fields))
	ints := make([]sql.NullInt64, len(k.Fields))

	dest := []any{&recordID, &cedula}
	for i, f := range k.Fields {
		switch f.Type {
		case models.FieldText:
			dest = append(dest, &texts[i])
		case models.FieldDate:
			dest = append(dest, &dates[i])
		case models.FieldDecimal:
			dest = append(dest, &decimals[i])
		case models.FieldInt:
			dest = append(dest, &ints[i])
		}
	}
	dest = append(dest, &createdBy, &rec.CreatedAt, &rec.UpdatedAt,
		&p.Nombres, &p.Apellidos, &fecha, &p.Sexo, &p.Direccion, &p.Ciudad, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	rec.ID = id.RecordID(recordID)
	rec.Kind = k.Name
	p.Cedula = id.Cedula(cedula)
	if fecha.Valid {
		t := fecha.Time
		p.FechaNacimiento = &t
	}
	rec.Persona = &p
	if createdBy.Valid {
		u := id.UserID(createdBy.UUID)
		rec.CreatedBy = &u
	}

	rec.Datos = make(models.Values, len(k.Fields))
	for i, f := range k.Fields {
		switch f.Type {
		case models.FieldText:
			rec.Datos[f.Column] = texts[i]
		case models.FieldDate:
			var t *time.Time
			if dates[i].Valid {
				v := dates[i].Time
				t = &v
			}
			rec.Datos[f.Column] = t
		case models.FieldDecimal:
			rec.Datos[f.Column] = decimals[i]
		case models.FieldInt:
			var n *int64
			if ints[i].Valid {
				v := ints[i].Int64
				n = &v
			}
			rec.Datos[f.Column] = n
		}
	}
	return &rec, nil
}

func nullableUser(u *id.UserID) any {
	if u == nil {
		return nil
	}
	return uuid.UUID(*u)
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
