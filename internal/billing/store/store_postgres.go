package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"registro/internal/billing/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/platform/tx"
)

// PostgresStore persists plans, subscriptions and payments.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	planColumns        = `id, codigo, nombre, precio, moneda, intervalo, activo, created_at`
	suscripcionColumns = `id, user_id, plan_id, estado, inicio, fin_periodo, cancelada_en, created_at`
	pagoColumns        = `id, suscripcion_id, monto, moneda, metodo, referencia, pagado_en`
)

func (s *PostgresStore) CreatePlan(ctx context.Context, p *models.Plan) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO planes (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(p.ID), p.Codigo, p.Nombre, p.Precio, p.Moneda, string(p.Intervalo), p.Activo, p.CreatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("plan %s already exists: %w", p.Codigo, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// EnsurePlan inserts p unless a plan with the same codigo exists. It reports
// whether a row was written.
func (s *PostgresStore) EnsurePlan(ctx context.Context, p *models.Plan) (bool, error) {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO planes (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (codigo) DO NOTHING
	`, uuid.UUID(p.ID), p.Codigo, p.Nombre, p.Precio, p.Moneda, string(p.Intervalo), p.Activo, p.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("ensure plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure plan rows: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) UpdatePlan(ctx context.Context, p *models.Plan) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE planes
		SET codigo = $2, nombre = $3, precio = $4, moneda = $5, intervalo = $6, activo = $7
		WHERE id = $1
	`, uuid.UUID(p.ID), p.Codigo, p.Nombre, p.Precio, p.Moneda, string(p.Intervalo), p.Activo)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("plan %s already exists: %w", p.Codigo, sentinel.ErrConflict)
		}
		return fmt.Errorf("update plan: %w", err)
	}
	return requireOneRow(res, "update plan")
}

func (s *PostgresStore) FindPlan(ctx context.Context, planID id.PlanID) (*models.Plan, error) {
	p, err := scanPlan(tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM planes WHERE id = $1`, uuid.UUID(planID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plan not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return p, nil
}

// ListPlans returns plans cheapest first. Inactive plans are included only
// when asked.
func (s *PostgresStore) ListPlans(ctx context.Context, includeInactive bool) ([]*models.Plan, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT `+planColumns+` FROM planes
		WHERE activo OR $1
		ORDER BY precio, codigo
	`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list planes: %w", err)
	}
	defer rows.Close()

	var out []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate planes: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CreateSubscription(ctx context.Context, sub *models.Suscripcion) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO suscripciones (`+suscripcionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(sub.ID), uuid.UUID(sub.UserID), uuid.UUID(sub.PlanID), string(sub.Estado),
		sub.Inicio, sub.FinPeriodo, sub.CanceladaEn, sub.CreatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("user %s already subscribed: %w", sub.UserID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert suscripcion: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSubscription(ctx context.Context, subID id.SubscriptionID) (*models.Suscripcion, error) {
	return s.findSubscription(ctx, `SELECT `+suscripcionColumns+` FROM suscripciones WHERE id = $1`, uuid.UUID(subID))
}

// LockSubscription loads the row FOR UPDATE. It must run inside RunInTx so
// concurrent payments on one subscription serialise.
func (s *PostgresStore) LockSubscription(ctx context.Context, subID id.SubscriptionID) (*models.Suscripcion, error) {
	return s.findSubscription(ctx, `SELECT `+suscripcionColumns+` FROM suscripciones WHERE id = $1 FOR UPDATE`, uuid.UUID(subID))
}

// FindLiveByUser returns the subscription that is pending, active or lapsed
// for the user.
func (s *PostgresStore) FindLiveByUser(ctx context.Context, userID id.UserID) (*models.Suscripcion, error) {
	return s.findSubscription(ctx, `
		SELECT `+suscripcionColumns+` FROM suscripciones
		WHERE user_id = $1 AND estado IN ('pendiente', 'activa', 'vencida')
	`, uuid.UUID(userID))
}

func (s *PostgresStore) findSubscription(ctx context.Context, query string, args ...any) (*models.Suscripcion, error) {
	sub, err := scanSuscripcion(tx.Q(ctx, s.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("suscripcion not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find suscripcion: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) ListSubscriptions(ctx context.Context, f models.SuscripcionFilter, limit, offset int) ([]*models.Suscripcion, int, error) {
	var conds []string
	var args []any
	if f.Estado != nil {
		args = append(args, string(*f.Estado))
		conds = append(conds, fmt.Sprintf("estado = $%d", len(args)))
	}
	if f.UserID != nil {
		args = append(args, uuid.UUID(*f.UserID))
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	qr := tx.Q(ctx, s.db)
	var total int
	if err := qr.QueryRowContext(ctx, `SELECT COUNT(*) FROM suscripciones WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suscripciones: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := qr.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM suscripciones WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, suscripcionColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suscripciones: %w", err)
	}
	defer rows.Close()

	var out []*models.Suscripcion
	for rows.Next() {
		sub, err := scanSuscripcion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan suscripcion: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate suscripciones: %w", err)
	}
	return out, total, nil
}

func (s *PostgresStore) UpdateSubscription(ctx context.Context, sub *models.Suscripcion) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE suscripciones
		SET estado = $2, fin_periodo = $3, cancelada_en = $4
		WHERE id = $1
	`, uuid.UUID(sub.ID), string(sub.Estado), sub.FinPeriodo, sub.CanceladaEn)
	if err != nil {
		return fmt.Errorf("update suscripcion: %w", err)
	}
	return requireOneRow(res, "update suscripcion")
}

// HasActive reports whether the user holds an active, unexpired subscription.
// It does not rely on the cleanup worker having run.
func (s *PostgresStore) HasActive(ctx context.Context, userID id.UserID, now time.Time) (bool, error) {
	var ok bool
	err := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM suscripciones
			WHERE user_id = $1 AND estado = 'activa' AND fin_periodo > $2
		)
	`, uuid.UUID(userID), now).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check active suscripcion: %w", err)
	}
	return ok, nil
}

// ExpireLapsed marks active subscriptions whose period ended at or before now
// as vencida and returns how many changed.
func (s *PostgresStore) ExpireLapsed(ctx context.Context, now time.Time) (int, error) {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE suscripciones SET estado = 'vencida'
		WHERE estado = 'activa' AND fin_periodo <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("expire suscripciones: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire suscripciones rows: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) CreatePayment(ctx context.Context, p *models.Pago) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO pagos (`+pagoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(p.ID), uuid.UUID(p.SuscripcionID), p.Monto, p.Moneda, p.Metodo, p.Referencia, p.PagadoEn)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("referencia %s already used: %w", p.Referencia, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert pago: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPayments(ctx context.Context, subID id.SubscriptionID) ([]*models.Pago, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT `+pagoColumns+` FROM pagos
		WHERE suscripcion_id = $1
		ORDER BY pagado_en DESC, id
	`, uuid.UUID(subID))
	if err != nil {
		return nil, fmt.Errorf("list pagos: %w", err)
	}
	defer rows.Close()

	var out []*models.Pago
	for rows.Next() {
		var p models.Pago
		var pagoID, subUUID uuid.UUID
		if err := rows.Scan(&pagoID, &subUUID, &p.Monto, &p.Moneda, &p.Metodo, &p.Referencia, &p.PagadoEn); err != nil {
			return nil, fmt.Errorf("scan pago: %w", err)
		}
		p.ID = id.PaymentID(pagoID)
		p.SuscripcionID = id.SubscriptionID(subUUID)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pagos: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	var p models.Plan
	var planID uuid.UUID
	var intervalo string
	if err := row.Scan(&planID, &p.Codigo, &p.Nombre, &p.Precio, &p.Moneda, &intervalo, &p.Activo, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PlanID(planID)
	p.Intervalo = models.Intervalo(intervalo)
	return &p, nil
}

func scanSuscripcion(row rowScanner) (*models.Suscripcion, error) {
	var sub models.Suscripcion
	var subID, userID, planID uuid.UUID
	var estado string
	var canceladaEn sql.NullTime
	if err := row.Scan(&subID, &userID, &planID, &estado, &sub.Inicio, &sub.FinPeriodo, &canceladaEn, &sub.CreatedAt); err != nil {
		return nil, err
	}
	sub.ID = id.SubscriptionID(subID)
	sub.UserID = id.UserID(userID)
	sub.PlanID = id.PlanID(planID)
	sub.Estado = models.Estado(estado)
	if canceladaEn.Valid {
		t := canceladaEn.Time
		sub.CanceladaEn = &t
	}
	return &sub, nil
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
