package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/transport/http/middleware"
	"github.com/campuspoint/auth-service/internal/usecase"
)

// IdentityHandler serves the authenticated profile endpoint and the
// administrative identity operations.
type IdentityHandler struct {
	identities *usecase.IdentityService
	log        *zap.Logger
}

func NewIdentityHandler(identities *usecase.IdentityService, log *zap.Logger) *IdentityHandler {
	return &IdentityHandler{identities: identities, log: log}
}

// Me handles GET /me.
func (h *IdentityHandler) Me(c *gin.Context) {
	identityID, ok := middleware.IdentityIDFromContext(c)
	if !ok {
		respondWithMappedError(c, h.log, usecase.ErrUnauthenticated)
		return
	}

	identity, err := h.identities.Get(c.Request.Context(), identityID)
	if err != nil {
		respondWithMappedError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": identity.Public()})
}

// List handles GET /admin/identities.
func (h *IdentityHandler) List(c *gin.Context) {
	filter := port.IdentityFilter{
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}

	if role := c.Query("role"); role != "" {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			respondBadRequest(c, "unknown role filter")
			return
		}
		filter.Role = string(parsed)
	}

	if active := c.Query("active"); active != "" {
		val, err := strconv.ParseBool(active)
		if err != nil {
			respondBadRequest(c, "active filter must be true or false")
			return
		}
		filter.IsActive = &val
	}

	page, err := h.identities.List(c.Request.Context(), filter)
	if err != nil {
		respondWithMappedError(c, h.log, err)
		return
	}

	publics := make([]domain.PublicIdentity, len(page.Identities))
	for i, identity := range page.Identities {
		publics[i] = identity.Public()
	}

	c.JSON(http.StatusOK, listIdentitiesResponse{
		Identities: publics,
		Total:      page.Total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Deactivate handles POST /admin/identities/:id/deactivate.
func (h *IdentityHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

// Activate handles POST /admin/identities/:id/activate.
func (h *IdentityHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *IdentityHandler) setActive(c *gin.Context, active bool) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "identity id is required")
		return
	}

	if err := h.identities.SetActive(c.Request.Context(), id, active); err != nil {
		respondWithMappedError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "identity updated"})
}

// Verify handles POST /admin/identities/:id/verify.
func (h *IdentityHandler) Verify(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "identity id is required")
		return
	}

	if err := h.identities.SetVerified(c.Request.Context(), id, true); err != nil {
		respondWithMappedError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "identity verified"})
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return fallback
	}
	return val
}
