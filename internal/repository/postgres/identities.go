package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/repository"
)

const uniqueViolationCode = "23505"

var identityColumns = []string{
	"id",
	"email",
	"first_name",
	"last_name",
	"password_hash",
	"roles",
	"is_verified",
	"is_active",
	"login_attempts",
	"lock_until",
	"last_login",
	"created_at",
	"updated_at",
}

// IdentityRepository persists identities in the auth.identities table.
type IdentityRepository struct {
	db pgExecutor
}

var _ port.IdentityRepository = (*IdentityRepository)(nil)

func NewIdentityRepository(db pgExecutor) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *IdentityRepository) WithTx(tx pgx.Tx) *IdentityRepository {
	return &IdentityRepository{db: tx}
}

func (r *IdentityRepository) Create(ctx context.Context, identity domain.Identity) error {
	query, args, err := psql.
		Insert("identities").
		Columns(
			"id", "email", "first_name", "last_name", "password_hash",
			"roles", "is_verified", "is_active", "login_attempts",
			"created_at", "updated_at",
		).
		Values(
			identity.ID,
			identity.Email,
			identity.FirstName,
			identity.LastName,
			identity.PasswordHash,
			identity.Roles.Strings(),
			identity.IsVerified,
			identity.IsActive,
			identity.LoginAttempts,
			identity.CreatedAt,
			identity.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert identity query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert identity: %w", err)
	}

	return nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	query, args, err := psql.
		Select(identityColumns...).
		From("identities").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select identity query: %w", err)
	}

	return r.scanOne(ctx, query, args)
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	query, args, err := psql.
		Select(identityColumns...).
		From("identities").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select identity query: %w", err)
	}

	return r.scanOne(ctx, query, args)
}

func (r *IdentityRepository) List(ctx context.Context, filter port.IdentityFilter) ([]domain.Identity, error) {
	builder := psql.
		Select(identityColumns...).
		From("identities").
		OrderBy("created_at DESC")

	builder = applyFilter(builder, filter)

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list identities query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []domain.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, *identity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	return identities, nil
}

func (r *IdentityRepository) Count(ctx context.Context, filter port.IdentityFilter) (int, error) {
	builder := psql.
		Select("COUNT(*)").
		From("identities")

	builder = applyFilter(builder, filter)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count identities query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}

	return count, nil
}

// RecordLoginFailure increments the counter and sets the lock in a single
// statement so that concurrent failed attempts cannot race past the
// threshold without locking.
func (r *IdentityRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockUntil time.Time, at time.Time) (port.LockoutResult, error) {
	const query = `
		UPDATE identities
		SET login_attempts = login_attempts + 1,
		    lock_until = CASE
		        WHEN login_attempts + 1 >= $2 THEN $3
		        ELSE lock_until
		    END,
		    updated_at = $4
		WHERE id = $1
		RETURNING login_attempts, lock_until`

	var result port.LockoutResult
	err := r.db.QueryRow(ctx, query, id, threshold, lockUntil, at).
		Scan(&result.Attempts, &result.LockUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return port.LockoutResult{}, repository.ErrNotFound
		}
		return port.LockoutResult{}, fmt.Errorf("record login failure: %w", err)
	}

	return result, nil
}

func (r *IdentityRepository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	query, args, err := psql.
		Update("identities").
		Set("login_attempts", 0).
		Set("lock_until", nil).
		Set("last_login", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record login success query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record login success: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *IdentityRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	query, args, err := psql.
		Update("identities").
		Set("password_hash", passwordHash).
		Set("login_attempts", 0).
		Set("lock_until", nil).
		Set("updated_at", changedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *IdentityRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.setFlag(ctx, id, "is_active", active)
}

func (r *IdentityRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.setFlag(ctx, id, "is_verified", verified)
}

func (r *IdentityRepository) setFlag(ctx context.Context, id, column string, value bool) error {
	query, args, err := psql.
		Update("identities").
		Set(column, value).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update %s query: %w", column, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *IdentityRepository) scanOne(ctx context.Context, query string, args []any) (*domain.Identity, error) {
	identity, err := scanIdentity(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return identity, nil
}

func applyFilter(builder sq.SelectBuilder, filter port.IdentityFilter) sq.SelectBuilder {
	if filter.Role != "" {
		builder = builder.Where("? = ANY(roles)", filter.Role)
	}
	if filter.IsActive != nil {
		builder = builder.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	return builder
}

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var (
		identity domain.Identity
		roles    []string
	)

	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.FirstName,
		&identity.LastName,
		&identity.PasswordHash,
		&roles,
		&identity.IsVerified,
		&identity.IsActive,
		&identity.LoginAttempts,
		&identity.LockUntil,
		&identity.LastLogin,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}

	identity.Roles = domain.RoleSetFromStrings(roles)
	return &identity, nil
}
