package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/usecase"
)

// AuthHandler serves registration, login, refresh, and logout.
type AuthHandler struct {
	registration *usecase.RegistrationService
	auth         *usecase.AuthService
	log          *zap.Logger
}

func NewAuthHandler(registration *usecase.RegistrationService, auth *usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{registration: registration, auth: auth, log: log}
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email, password, firstName and lastName are required")
		return
	}

	identity, tokens, err := h.registration.Register(c.Request.Context(), usecase.RegistrationInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Roles:     req.Roles,
	})
	if err != nil {
		respondWithMappedError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		User: identity.Public(),
		Tokens: tokenResponse{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    tokens.ExpiresIn,
			TokenType:    "Bearer",
		},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email and password are required")
		return
	}

	identity, tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondWithMappedError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		User: identity.Public(),
		Tokens: tokenResponse{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    tokens.ExpiresIn,
			TokenType:    "Bearer",
		},
	})
}

// RefreshToken handles POST /refresh-token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "refreshToken is required")
		return
	}

	accessToken, expiresIn, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondWithMappedError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

// Logout handles POST /logout. Tokens are stateless, so the server has
// nothing to revoke; the endpoint exists so clients have a uniform call to
// clear their session against.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}
