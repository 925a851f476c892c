package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/http/handler"
	httpmiddleware "github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/http/middleware"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/middleware"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/org"
)

// Handlers groups every HTTP handler set mounted by the router.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Admin         *handler.AdminHandler
	Organizations *handler.OrganizationHandler
	Exercises     *handler.ExerciseHandler
	Programs      *handler.ProgramHandler
	Health        *handler.HealthHandler
}

// Limiters holds the global and the credential endpoint rate limiters. Either may be nil.
type Limiters struct {
	Global *middleware.RateLimiter
	Auth   *middleware.RateLimiter
}

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, logger *zap.Logger, h Handlers, authMiddleware *httpmiddleware.Auth, resolver *org.Resolver, limiters Limiters) *gin.Engine {
	handler.SetupValidation()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg))
	r.Use(limiters.Global.Handler())
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/health", h.Health.Health)

	requireAuth := authMiddleware.ValidateJWT
	requireAdmin := httpmiddleware.RequireRole(domain.RoleAdmin)

	authGroup := r.Group("/auth")
	{
		credentials := authGroup.Group("", limiters.Auth.Handler())
		credentials.POST("/register", h.Auth.Register)
		credentials.POST("/login", h.Auth.Login)
		credentials.POST("/refresh", h.Auth.Refresh)
		credentials.POST("/verify-email/:token", h.Auth.VerifyEmail)
		credentials.POST("/password-reset/request", h.Auth.RequestPasswordReset)
		credentials.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)

		authGroup.GET("/me", requireAuth, h.Auth.Me)
		authGroup.POST("/resend-verification", requireAuth, limiters.Auth.Handler(), h.Auth.ResendVerification)
	}

	users := r.Group("/users/me", requireAuth)
	{
		users.GET("", h.Users.Get)
		users.PUT("", h.Users.Update)
		users.DELETE("", h.Users.RequestDeletion)
		users.PUT("/password", h.Users.ChangePassword)
		users.POST("/cancel-deletion", h.Users.CancelDeletion)
	}

	orgs := r.Group("/organizations/me", requireAuth)
	{
		orgs.GET("", h.Organizations.Get)
		orgs.PUT("", requireAdmin, h.Organizations.Rename)
	}

	admin := r.Group("/admin", requireAuth, requireAdmin)
	{
		admin.GET("/users", h.Admin.ListUsers)
		admin.PUT("/users/:id/role", h.Admin.UpdateRole)
		admin.POST("/users/:id/suspend", h.Admin.Suspend)
		admin.POST("/users/:id/activate", h.Admin.Activate)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
	}

	exercises := r.Group("/exercises", requireAuth)
	{
		exercises.GET("", h.Exercises.List)
		exercises.POST("", httpmiddleware.RequireFeature(resolver, domain.FeatureCustomExercises), h.Exercises.Create)
		exercises.DELETE("/:id", h.Exercises.Delete)
	}

	programs := r.Group("/programs", requireAuth)
	{
		programs.GET("", h.Programs.List)
		programs.POST("", httpmiddleware.RequireFeature(resolver, domain.FeatureCustomPrograms), h.Programs.Create)
		programs.GET("/:id", h.Programs.Get)
		programs.DELETE("/:id", h.Programs.Delete)
	}

	internal := r.Group("/internal", httpmiddleware.InternalKey(cfg.InternalAPIKey))
	{
		internal.POST("/organizations/:id/subscription", h.Organizations.ApplySubscription)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
	})

	return r
}
