package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campuspoint/auth-service/internal/infra/logger"
)

const (
	// ContextKeyIdentityID holds the authenticated caller's identity ID.
	ContextKeyIdentityID = "identity_id"

	// ContextKeyRoles holds the authenticated caller's role tags.
	ContextKeyRoles = "roles"

	// ContextKeyRequestID holds the per-request correlation ID.
	ContextKeyRequestID = "request_id"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns a correlation ID to every request, honoring an inbound
// X-Request-ID header when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Header(requestIDHeader, requestID)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey{}, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequestIDFromContext returns the request ID set by the RequestID middleware.
func RequestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(ContextKeyRequestID); ok {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// IdentityIDFromContext returns the authenticated identity ID, if any.
func IdentityIDFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(ContextKeyIdentityID)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

// RolesFromContext returns the authenticated caller's roles, if any.
func RolesFromContext(c *gin.Context) ([]string, bool) {
	val, ok := c.Get(ContextKeyRoles)
	if !ok {
		return nil, false
	}
	roles, ok := val.([]string)
	return roles, ok
}
