package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/usecase"
)

// TokenVerifier verifies bearer tokens for the access guard.
type TokenVerifier interface {
	ParseAccessToken(tokenString string) (roles []string, identityID string, err error)
}

// AuthServiceVerifier adapts usecase.AuthService to the TokenVerifier shape.
type AuthServiceVerifier struct {
	Auth *usecase.AuthService
}

func (v AuthServiceVerifier) ParseAccessToken(tokenString string) ([]string, string, error) {
	claims, err := v.Auth.ParseAccessToken(tokenString)
	if err != nil {
		return nil, "", err
	}
	return claims.Roles, claims.Subject, nil
}

type guardError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func abortUnauthorized(c *gin.Context, message, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, guardError{Error: message, Code: code})
}

// bearerToken extracts the token from the Authorization header. The scheme
// comparison is case insensitive per RFC 7235.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// RequireAuth rejects requests without a valid access token. Missing,
// expired, and otherwise invalid tokens each get a distinct error code so
// clients can tell a needed refresh from a needed login.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "authentication token required", "TOKEN_MISSING")
			return
		}

		roles, identityID, err := verifier.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, usecase.ErrTokenExpired) {
				abortUnauthorized(c, "token expired", "TOKEN_EXPIRED")
				return
			}
			abortUnauthorized(c, "invalid token", "TOKEN_INVALID")
			return
		}

		c.Set(ContextKeyIdentityID, identityID)
		c.Set(ContextKeyRoles, roles)
		c.Next()
	}
}

// OptionalAuth attaches caller context when a valid token is present but
// never rejects. Endpoints using it must tolerate anonymous callers.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		roles, identityID, err := verifier.ParseAccessToken(token)
		if err == nil {
			c.Set(ContextKeyIdentityID, identityID)
			c.Set(ContextKeyRoles, roles)
		}

		c.Next()
	}
}

// RequireRole allows the request through when the caller holds at least one
// of the given roles. Must run after RequireAuth.
func RequireRole(required ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawRoles, ok := RolesFromContext(c)
		if !ok {
			abortUnauthorized(c, "authentication required", "TOKEN_MISSING")
			return
		}

		roles := domain.RoleSetFromStrings(rawRoles)
		if !roles.Intersects(required...) {
			c.AbortWithStatusJSON(http.StatusForbidden, guardError{
				Error: "insufficient permissions",
				Code:  "FORBIDDEN",
			})
			return
		}

		c.Next()
	}
}

// StateGate checks verification and active flags against the store rather
// than the token, so deactivation takes effect immediately.
type StateGate struct {
	Identities *usecase.IdentityService
}

// RequireVerified rejects callers whose account is not verified.
func (g StateGate) RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := g.load(c)
		if !ok {
			return
		}

		if !identity.IsVerified {
			c.AbortWithStatusJSON(http.StatusForbidden, guardError{
				Error: "account verification required",
				Code:  "VERIFICATION_REQUIRED",
			})
			return
		}

		c.Next()
	}
}

// RequireActive rejects callers whose account has been deactivated.
func (g StateGate) RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := g.load(c)
		if !ok {
			return
		}

		if !identity.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, guardError{
				Error: "account is deactivated",
				Code:  "ACCOUNT_INACTIVE",
			})
			return
		}

		c.Next()
	}
}

func (g StateGate) load(c *gin.Context) (*domain.Identity, bool) {
	identityID, ok := IdentityIDFromContext(c)
	if !ok {
		abortUnauthorized(c, "authentication required", "TOKEN_MISSING")
		return nil, false
	}

	identity, err := g.Identities.Get(c.Request.Context(), identityID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			abortUnauthorized(c, "invalid token", "TOKEN_INVALID")
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, guardError{
			Error: "internal error",
			Code:  "INTERNAL",
		})
		return nil, false
	}

	return identity, true
}
