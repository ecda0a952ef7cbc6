package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/transport/http/middleware"
	"github.com/campuspoint/auth-service/internal/usecase"
)

// ErrorCase maps one sentinel error to its HTTP projection.
type ErrorCase struct {
	Err    error
	Status int
	Code   string
}

var commonErrorCases = []ErrorCase{
	{usecase.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
	{usecase.ErrDuplicateEmail, http.StatusBadRequest, "EMAIL_TAKEN"},
	{usecase.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{usecase.ErrAccountLocked, http.StatusUnauthorized, "ACCOUNT_LOCKED"},
	{usecase.ErrMissingToken, http.StatusBadRequest, "TOKEN_MISSING"},
	{usecase.ErrInvalidToken, http.StatusUnauthorized, "TOKEN_INVALID"},
	{usecase.ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
	{usecase.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{usecase.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{usecase.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{usecase.ErrVerificationRequired, http.StatusForbidden, "VERIFICATION_REQUIRED"},
	{usecase.ErrAccountInactive, http.StatusForbidden, "ACCOUNT_INACTIVE"},
	{usecase.ErrStoreUnavailable, http.StatusInternalServerError, "STORE_UNAVAILABLE"},
}

// respondWithMappedError translates a usecase error into the uniform error
// body. Unmapped errors become an opaque 500; the detail goes to the log,
// never to the client.
func respondWithMappedError(c *gin.Context, log *zap.Logger, err error, cases ...ErrorCase) {
	requestID := middleware.RequestIDFromContext(c)

	for _, ec := range append(cases, commonErrorCases...) {
		if errors.Is(err, ec.Err) {
			c.JSON(ec.Status, ErrorResponse{
				Error:     ec.Err.Error(),
				Code:      ec.Code,
				RequestID: requestID,
			})
			return
		}
	}

	log.Error("unhandled handler error",
		zap.String("path", c.FullPath()),
		zap.String("request_id", requestID),
		zap.Error(err),
	)

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:     "internal server error",
		Code:      "INTERNAL",
		RequestID: requestID,
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     message,
		Code:      "VALIDATION_FAILED",
		RequestID: middleware.RequestIDFromContext(c),
	})
}
