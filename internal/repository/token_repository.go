package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-service/internal/domain"
)

// ErrDuplicateToken signals an insert collision on the token value. Token
// randomness makes this unreachable in normal operation; the unique index
// defends against it anyway.
var ErrDuplicateToken = errors.New("token already recorded")

// TokenRepository is the revocation ledger: the durable record of every
// issued token's lifecycle state. Lookups miss with pgx.ErrNoRows.
type TokenRepository interface {
	Insert(ctx context.Context, token *domain.Token) error
	GetByToken(ctx context.Context, raw string) (*domain.Token, error)
	FindLiveByUser(ctx context.Context, userID string) ([]domain.Token, error)
	Revoke(ctx context.Context, id string) error
	RevokeAll(ctx context.Context, ids []string) error
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a Postgres-backed implementation.
func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) Insert(ctx context.Context, token *domain.Token) error {
	const query = `
        INSERT INTO tokens (token, token_type, expired, revoked, user_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		token.Token,
		token.Type,
		token.Expired,
		token.Revoked,
		token.UserID,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (r *tokenRepository) GetByToken(ctx context.Context, raw string) (*domain.Token, error) {
	const query = `
        SELECT id, token, token_type, expired, revoked, user_id, created_at
        FROM tokens WHERE token=$1`

	var token domain.Token
	if err := r.pool.QueryRow(ctx, query, raw).Scan(
		&token.ID,
		&token.Token,
		&token.Type,
		&token.Expired,
		&token.Revoked,
		&token.UserID,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

// FindLiveByUser returns the user's tokens that are neither expired nor
// revoked. AND-semantics: a record with either flag set is excluded.
func (r *tokenRepository) FindLiveByUser(ctx context.Context, userID string) ([]domain.Token, error) {
	const query = `
        SELECT id, token, token_type, expired, revoked, user_id, created_at
        FROM tokens WHERE user_id=$1 AND NOT expired AND NOT revoked`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		var token domain.Token
		if err := rows.Scan(
			&token.ID,
			&token.Token,
			&token.Type,
			&token.Expired,
			&token.Revoked,
			&token.UserID,
			&token.CreatedAt,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// Revoke marks a record dead. Revoking an already dead record is a no-op.
func (r *tokenRepository) Revoke(ctx context.Context, id string) error {
	const query = `
        UPDATE tokens SET expired=true, revoked=true
        WHERE id=$1`

	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// RevokeAll marks every listed record dead in one statement.
func (r *tokenRepository) RevokeAll(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `
        UPDATE tokens SET expired=true, revoked=true
        WHERE id = ANY($1)`

	_, err := r.pool.Exec(ctx, query, ids)
	return err
}

// IsNotFound reports whether the error is a ledger or user lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
