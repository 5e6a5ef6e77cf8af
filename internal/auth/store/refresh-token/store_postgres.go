package refreshtoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"registro/internal/auth/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
	"registro/pkg/platform/tx"
)

// PostgresStore persists refresh tokens in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed refresh token store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, token *models.RefreshTokenRecord) error {
	if token == nil {
		return fmt.Errorf("refresh token is required")
	}
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, used, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, token.ID, token.TokenHash, uuid.UUID(token.UserID), token.ExpiresAt, token.Used, token.UserAgent, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, tokenHash string) (*models.RefreshTokenRecord, error) {
	record, err := scanRefreshToken(tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, token, user_id, expires_at, used, user_agent, created_at
		FROM refresh_tokens
		WHERE token = $1
	`, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return record, nil
}

// Consume atomically marks an unused, unexpired token as used. When the
// token cannot be consumed the stored record is returned together with
// sentinel.ErrAlreadyUsed or sentinel.ErrExpired so callers can react to reuse.
func (s *PostgresStore) Consume(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshTokenRecord, error) {
	record, err := scanRefreshToken(tx.Q(ctx, s.db).QueryRowContext(ctx, `
		UPDATE refresh_tokens
		SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at > $2
		RETURNING id, token, user_id, expires_at, used, user_agent, created_at
	`, tokenHash, now))
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}

	existing, err := s.Find(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if existing.Used {
		return existing, sentinel.ErrAlreadyUsed
	}
	return existing, sentinel.ErrExpired
}

func (s *PostgresStore) DeleteByToken(ctx context.Context, tokenHash string) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete refresh token rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// DeleteByUser removes every refresh token of a user and returns how many were removed.
func (s *PostgresStore) DeleteByUser(ctx context.Context, userID id.UserID) (int, error) {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens by user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens by user rows: %w", err)
	}
	return int(rows), nil
}

// DeleteExpiredTokens removes all refresh tokens that have expired as of the given time.
func (s *PostgresStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens rows: %w", err)
	}
	return int(rows), nil
}

func (s *PostgresStore) DeleteUsedTokens(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE used = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("delete used refresh tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete used refresh tokens rows: %w", err)
	}
	return int(rows), nil
}

type refreshTokenRow interface {
	Scan(dest ...any) error
}

func scanRefreshToken(row refreshTokenRow) (*models.RefreshTokenRecord, error) {
	var record models.RefreshTokenRecord
	var userID uuid.UUID
	if err := row.Scan(&record.ID, &record.TokenHash, &userID, &record.ExpiresAt, &record.Used, &record.UserAgent, &record.CreatedAt); err != nil {
		return nil, err
	}
	record.UserID = id.UserID(userID)
	return &record, nil
}
