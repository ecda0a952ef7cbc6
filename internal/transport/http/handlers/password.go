package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/usecase"
)

const resetDispatchTimeout = 10 * time.Second

// PasswordHandler serves the forgot/reset password flow.
type PasswordHandler struct {
	resets *usecase.PasswordResetService
	log    *zap.Logger
}

func NewPasswordHandler(resets *usecase.PasswordResetService, log *zap.Logger) *PasswordHandler {
	return &PasswordHandler{resets: resets, log: log}
}

// ForgotPassword handles POST /forgot-password. The response is the same
// whether or not the email is registered, and delivery happens after the
// response so its latency is invisible to the caller.
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email is required")
		return
	}

	event, err := h.resets.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, usecase.ErrValidation) {
			respondWithMappedError(c, h.log, err)
			return
		}
		// Store failures are logged but still answered generically so the
		// endpoint stays unusable as an account probe.
		h.log.Error("reset request failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, messageResponse{
		Message: "if that email is registered, a reset link has been sent",
	})

	if event != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), resetDispatchTimeout)
			defer cancel()
			h.resets.Dispatch(ctx, *event)
		}()
	}
}

// ResetPassword handles POST /reset-password.
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email, token and newPassword are required")
		return
	}

	err := h.resets.ConfirmReset(c.Request.Context(), req.Email, req.Token, req.NewPassword)
	if err != nil {
		respondWithMappedError(c, h.log, err, ErrorCase{
			Err:    usecase.ErrInvalidToken,
			Status: http.StatusBadRequest,
			Code:   "RESET_TOKEN_INVALID",
		})
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "password has been reset"})
}
