package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/infra/config"
	"github.com/campuspoint/auth-service/internal/transport/http/handlers"
	"github.com/campuspoint/auth-service/internal/transport/http/middleware"
)

// Dependencies carries everything route assembly needs.
type Dependencies struct {
	Config      *config.AppConfig
	Log         *zap.Logger
	Auth        *handlers.AuthHandler
	Password    *handlers.PasswordHandler
	Identity    *handlers.IdentityHandler
	Health      *handlers.HealthHandler
	Verifier    middleware.TokenVerifier
	StateGate   middleware.StateGate
	RateLimiter *middleware.RateLimiter
	Registry    *prometheus.Registry
}

// NewEngine assembles the gin engine with the full middleware chain and
// route surface.
func NewEngine(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(deps.Log))
	engine.Use(middleware.CORS())

	metrics := middleware.NewHTTPMetrics(deps.Config.Telemetry.MetricsNamespace, deps.Registry)
	engine.Use(metrics.Handler())

	rl := deps.RateLimiter
	rlCfg := deps.Config.RateLimit

	// Public authentication surface.
	engine.POST("/register", rl.Limit("register", rlCfg.RegisterMaxAttempts), deps.Auth.Register)
	engine.POST("/login", rl.Limit("login", rlCfg.LoginMaxAttempts), deps.Auth.Login)
	engine.POST("/refresh-token", deps.Auth.RefreshToken)
	engine.POST("/forgot-password", rl.Limit("forgot-password", rlCfg.PasswordResetMaxAttempts), deps.Password.ForgotPassword)
	engine.POST("/reset-password", deps.Password.ResetPassword)
	engine.POST("/logout", deps.Auth.Logout)

	// Authenticated surface.
	authed := engine.Group("/", middleware.RequireAuth(deps.Verifier))
	authed.GET("/me", deps.Identity.Me)

	// Administrative surface. State gates read the store so deactivated
	// admins lose access before their token expires.
	admin := authed.Group("/admin",
		middleware.RequireRole(domain.RolePlatformAdmin, domain.RoleSubAdmin),
		deps.StateGate.RequireActive(),
		deps.StateGate.RequireVerified(),
	)
	admin.GET("/identities", deps.Identity.List)
	admin.POST("/identities/:id/deactivate", deps.Identity.Deactivate)
	admin.POST("/identities/:id/activate", deps.Identity.Activate)
	admin.POST("/identities/:id/verify", deps.Identity.Verify)

	// Operational surface.
	engine.GET("/healthz", deps.Health.Status)
	engine.GET("/readyz", deps.Health.Readiness)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	return engine
}
