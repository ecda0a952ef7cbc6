package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/repository"
	"github.com/campuspoint/auth-service/internal/usecase"
)

type stubVerifier struct {
	roles      []string
	identityID string
	err        error
}

func (v stubVerifier) ParseAccessToken(string) ([]string, string, error) {
	return v.roles, v.identityID, v.err
}

func newGuardedRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/protected", handlers...)
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthMissingToken(t *testing.T) {
	router := newGuardedRouter(RequireAuth(stubVerifier{}))

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer "} {
		rec := doRequest(router, header)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status %d, want 401", header, rec.Code)
		}
	}
}

func TestRequireAuthDistinguishesExpiredFromInvalid(t *testing.T) {
	expired := newGuardedRouter(RequireAuth(stubVerifier{err: usecase.ErrTokenExpired}))
	rec := doRequest(expired, "Bearer some-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := rec.Body.String(); !contains(body, "TOKEN_EXPIRED") {
		t.Errorf("body %q should carry TOKEN_EXPIRED", body)
	}

	invalid := newGuardedRouter(RequireAuth(stubVerifier{err: usecase.ErrInvalidToken}))
	rec = doRequest(invalid, "Bearer some-token")
	if body := rec.Body.String(); !contains(body, "TOKEN_INVALID") {
		t.Errorf("body %q should carry TOKEN_INVALID", body)
	}
}

func TestRequireAuthAttachesCallerContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", RequireAuth(stubVerifier{roles: []string{"teacher"}, identityID: "id-7"}), func(c *gin.Context) {
		id, _ := IdentityIDFromContext(c)
		roles, _ := RolesFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "roles": roles})
	})

	rec := doRequest(router, "Bearer valid-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !contains(body, "id-7") || !contains(body, "teacher") {
		t.Errorf("caller context missing from body %q", body)
	}
}

func TestRequireAuthBearerSchemeIsCaseInsensitive(t *testing.T) {
	router := newGuardedRouter(RequireAuth(stubVerifier{identityID: "id-1", roles: []string{"student"}}))

	rec := doRequest(router, "bearer valid-token")
	if rec.Code != http.StatusOK {
		t.Errorf("lowercase scheme: status %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{"student denied", []string{"student"}, http.StatusForbidden},
		{"platform_admin allowed", []string{"platform_admin"}, http.StatusOK},
		{"sub_admin allowed", []string{"sub_admin"}, http.StatusOK},
		{"mixed set allowed", []string{"student", "sub_admin"}, http.StatusOK},
		{"no roles denied", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newGuardedRouter(
				RequireAuth(stubVerifier{roles: tt.roles, identityID: "id-1"}),
				RequireRole(domain.RolePlatformAdmin, domain.RoleSubAdmin),
			)
			rec := doRequest(router, "Bearer token")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireRoleWithoutAuthContext(t *testing.T) {
	router := newGuardedRouter(RequireRole(domain.RolePlatformAdmin))

	rec := doRequest(router, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", OptionalAuth(stubVerifier{identityID: "id-9", roles: []string{"parent"}}), func(c *gin.Context) {
		if id, ok := IdentityIDFromContext(c); ok {
			c.JSON(http.StatusOK, gin.H{"id": id})
			return
		}
		c.JSON(http.StatusOK, gin.H{"anonymous": true})
	})

	rec := doRequest(router, "")
	if !contains(rec.Body.String(), "anonymous") {
		t.Error("anonymous caller should pass through")
	}

	rec = doRequest(router, "Bearer token")
	if !contains(rec.Body.String(), "id-9") {
		t.Error("valid token should attach caller context")
	}
}

// gateRepo holds one identity for state gate tests.
type gateRepo struct {
	identity domain.Identity
}

func (r gateRepo) Create(context.Context, domain.Identity) error { return nil }
func (r gateRepo) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	if id != r.identity.ID {
		return nil, repository.ErrNotFound
	}
	clone := r.identity
	return &clone, nil
}
func (r gateRepo) GetByEmail(context.Context, string) (*domain.Identity, error) {
	return nil, repository.ErrNotFound
}
func (r gateRepo) List(context.Context, port.IdentityFilter) ([]domain.Identity, error) {
	return nil, nil
}
func (r gateRepo) Count(context.Context, port.IdentityFilter) (int, error) { return 0, nil }
func (r gateRepo) RecordLoginFailure(context.Context, string, int, time.Time, time.Time) (port.LockoutResult, error) {
	return port.LockoutResult{}, nil
}
func (r gateRepo) RecordLoginSuccess(context.Context, string, time.Time) error { return nil }
func (r gateRepo) UpdatePassword(context.Context, string, string, time.Time) error {
	return nil
}
func (r gateRepo) SetActive(context.Context, string, bool) error   { return nil }
func (r gateRepo) SetVerified(context.Context, string, bool) error { return nil }

func newStateGate(identity domain.Identity) StateGate {
	return StateGate{
		Identities: usecase.NewIdentityService(gateRepo{identity: identity}, zap.NewNop()),
	}
}

func TestRequireActive(t *testing.T) {
	active := domain.Identity{ID: "id-1", IsActive: true, IsVerified: true}
	inactive := domain.Identity{ID: "id-1", IsActive: false, IsVerified: true}

	router := newGuardedRouter(
		RequireAuth(stubVerifier{identityID: "id-1", roles: []string{"student"}}),
		newStateGate(active).RequireActive(),
	)
	if rec := doRequest(router, "Bearer token"); rec.Code != http.StatusOK {
		t.Errorf("active account: status %d, want 200", rec.Code)
	}

	router = newGuardedRouter(
		RequireAuth(stubVerifier{identityID: "id-1", roles: []string{"student"}}),
		newStateGate(inactive).RequireActive(),
	)
	rec := doRequest(router, "Bearer token")
	if rec.Code != http.StatusForbidden {
		t.Errorf("inactive account: status %d, want 403", rec.Code)
	}
	if !contains(rec.Body.String(), "ACCOUNT_INACTIVE") {
		t.Errorf("body %q should carry ACCOUNT_INACTIVE", rec.Body.String())
	}
}

func TestRequireVerified(t *testing.T) {
	unverified := domain.Identity{ID: "id-1", IsActive: true, IsVerified: false}

	router := newGuardedRouter(
		RequireAuth(stubVerifier{identityID: "id-1", roles: []string{"student"}}),
		newStateGate(unverified).RequireVerified(),
	)
	rec := doRequest(router, "Bearer token")
	if rec.Code != http.StatusForbidden {
		t.Errorf("unverified account: status %d, want 403", rec.Code)
	}
	if !contains(rec.Body.String(), "VERIFICATION_REQUIRED") {
		t.Errorf("body %q should carry VERIFICATION_REQUIRED", rec.Body.String())
	}
}

// A valid token for a deleted identity fails the state gate as invalid.
func TestStateGateDeletedIdentity(t *testing.T) {
	router := newGuardedRouter(
		RequireAuth(stubVerifier{identityID: "gone", roles: []string{"student"}}),
		newStateGate(domain.Identity{ID: "id-1"}).RequireActive(),
	)

	rec := doRequest(router, "Bearer token")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
