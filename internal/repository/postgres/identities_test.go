package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/repository"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func testIdentity() domain.Identity {
	now := time.Now()
	return domain.Identity{
		ID:           "id-1",
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Reed",
		PasswordHash: "$2a$10$hash",
		Roles:        domain.RoleSet{domain.RoleStudent},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func identityRows(identity domain.Identity) *pgxmock.Rows {
	return pgxmock.NewRows(identityColumns).AddRow(
		identity.ID,
		identity.Email,
		identity.FirstName,
		identity.LastName,
		identity.PasswordHash,
		identity.Roles.Strings(),
		identity.IsVerified,
		identity.IsActive,
		identity.LoginAttempts,
		identity.LockUntil,
		identity.LastLogin,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
}

func TestCreateIdentity(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)
	identity := testIdentity()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO identities")).
		WithArgs(
			identity.ID, identity.Email, identity.FirstName, identity.LastName,
			identity.PasswordHash, identity.Roles.Strings(), identity.IsVerified,
			identity.IsActive, identity.LoginAttempts, identity.CreatedAt, identity.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), identity); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)
	identity := testIdentity()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO identities")).
		WithArgs(
			identity.ID, identity.Email, identity.FirstName, identity.LastName,
			identity.PasswordHash, identity.Roles.Strings(), identity.IsVerified,
			identity.IsActive, identity.LoginAttempts, identity.CreatedAt, identity.UpdatedAt,
		).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "identities_email_key"})

	if err := repo.Create(context.Background(), identity); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("got %v, want ErrDuplicate", err)
	}
}

func TestGetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)
	identity := testIdentity()

	mock.ExpectQuery("SELECT .+ FROM identities WHERE email").
		WithArgs(identity.Email).
		WillReturnRows(identityRows(identity))

	got, err := repo.GetByEmail(context.Background(), identity.Email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != identity.ID {
		t.Errorf("ID = %q, want %q", got.ID, identity.ID)
	}
	if !got.Roles.Contains(domain.RoleStudent) {
		t.Errorf("roles = %v, want student", got.Roles)
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM identities WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRecordLoginFailureBelowThreshold(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)
	now := time.Now()
	lockUntil := now.Add(30 * time.Minute)

	mock.ExpectQuery("UPDATE identities").
		WithArgs("id-1", 5, lockUntil, now).
		WillReturnRows(pgxmock.NewRows([]string{"login_attempts", "lock_until"}).
			AddRow(2, (*time.Time)(nil)))

	result, err := repo.RecordLoginFailure(context.Background(), "id-1", 5, lockUntil, now)
	if err != nil {
		t.Fatalf("RecordLoginFailure: %v", err)
	}
	if result.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", result.Attempts)
	}
	if result.LockUntil != nil {
		t.Error("lock should not be set below threshold")
	}
}

func TestRecordLoginFailureAtThreshold(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)
	now := time.Now()
	lockUntil := now.Add(30 * time.Minute)

	mock.ExpectQuery("UPDATE identities").
		WithArgs("id-1", 5, lockUntil, now).
		WillReturnRows(pgxmock.NewRows([]string{"login_attempts", "lock_until"}).
			AddRow(5, &lockUntil))

	result, err := repo.RecordLoginFailure(context.Background(), "id-1", 5, lockUntil, now)
	if err != nil {
		t.Fatalf("RecordLoginFailure: %v", err)
	}
	if result.Attempts != 5 {
		t.Errorf("attempts = %d, want 5", result.Attempts)
	}
	if result.LockUntil == nil || !result.LockUntil.Equal(lockUntil) {
		t.Errorf("lockUntil = %v, want %v", result.LockUntil, lockUntil)
	}
}

func TestRecordLoginSuccess(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)
	now := time.Now()

	mock.ExpectExec("UPDATE identities SET").
		WithArgs(0, nil, now, now, "id-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.RecordLoginSuccess(context.Background(), "id-1", now); err != nil {
		t.Fatalf("RecordLoginSuccess: %v", err)
	}
}

func TestRecordLoginSuccessUnknownIdentity(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)
	now := time.Now()

	mock.ExpectExec("UPDATE identities SET").
		WithArgs(0, nil, now, now, "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.RecordLoginSuccess(context.Background(), "gone", now); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSetActive(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)

	mock.ExpectExec("UPDATE identities SET is_active").
		WithArgs(false, pgxmock.AnyArg(), "id-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.SetActive(context.Background(), "id-1", false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
}

func TestListWithFilter(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)
	identity := testIdentity()

	mock.ExpectQuery("SELECT .+ FROM identities WHERE").
		WillReturnRows(identityRows(identity))

	active := true
	got, err := repo.List(context.Background(), port.IdentityFilter{
		Role:     "student",
		IsActive: &active,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != identity.ID {
		t.Errorf("got %v, want one identity %q", got, identity.ID)
	}
}
