package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/repository"
)

// ResetTokenRepository persists password reset token hashes in the
// auth.password_reset_tokens table.
type ResetTokenRepository struct {
	db pgExecutor
}

var _ port.ResetTokenRepository = (*ResetTokenRepository)(nil)

func NewResetTokenRepository(db pgExecutor) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, token domain.PasswordResetToken) error {
	query, args, err := psql.
		Insert("password_reset_tokens").
		Columns("id", "identity_id", "token_hash", "created_at", "expires_at").
		Values(token.ID, token.IdentityID, token.TokenHash, token.CreatedAt, token.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reset token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}

	return nil
}

func (r *ResetTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.PasswordResetToken, error) {
	query, args, err := psql.
		Select("id", "identity_id", "token_hash", "created_at", "expires_at", "used_at").
		From("password_reset_tokens").
		Where(sq.Eq{"token_hash": hash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reset token query: %w", err)
	}

	var token domain.PasswordResetToken
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&token.ID,
		&token.IdentityID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.UsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select reset token: %w", err)
	}

	return &token, nil
}

// Consume marks a token used. The used_at guard makes redemption single use
// even under concurrent confirm requests.
func (r *ResetTokenRepository) Consume(ctx context.Context, id string) error {
	query, args, err := psql.
		Update("password_reset_tokens").
		Set("used_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"used_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume reset token query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
