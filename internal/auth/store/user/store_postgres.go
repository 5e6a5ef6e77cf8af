package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"registro/internal/auth/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
	"registro/pkg/platform/tx"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, username, password_hash, nombre, role, active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, nombre, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(user.ID), user.Username, user.PasswordHash, user.Nombre, user.Role.String(), user.Active, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("username already taken: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := scanUser(tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// List returns one page of users ordered by username and the total count.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	q := tx.Q(ctx, s.db)
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

func (s *PostgresStore) Update(ctx context.Context, user *models.User) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE users
		SET nombre = $2, role = $3, active = $4, password_hash = $5, updated_at = $6
		WHERE id = $1
	`, uuid.UUID(user.ID), user.Nombre, user.Role.String(), user.Active, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireOneRow(res, "update user")
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireOneRow(res, "delete user")
}

// IsActive reports whether the user exists and is enabled.
func (s *PostgresStore) IsActive(ctx context.Context, userID id.UserID) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx, `SELECT active FROM users WHERE id = $1`, uuid.UUID(userID)).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user status: %w", err)
	}
	return active, nil
}

// CountActiveAdmins counts enabled administrators. Rows are locked so a
// concurrent demotion in another transaction waits.
func (s *PostgresStore) CountActiveAdmins(ctx context.Context) (int, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT id FROM users WHERE role = 'admin' AND active = TRUE FOR UPDATE`)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

type userRow interface {
	Scan(dest ...any) error
}

func scanUser(row userRow) (*models.User, error) {
	var u models.User
	var userID uuid.UUID
	var role string
	if err := row.Scan(&userID, &u.Username, &u.PasswordHash, &u.Nombre, &role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = id.UserID(userID)
	u.Role = id.Role(role)
	return &u, nil
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
