package handlers

import (
	"github.com/chamahub/treasury/cmd/docs"
	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/chamahub/treasury/internal/core/services"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/chamahub/treasury/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// through the service container.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	container *services.Container,
) {
	registerCustomValidators()

	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Public gateway callback routes, rate limited by IP
	registerCallbackRoutes(r, container.Reconciliation, cfg.CallbackRateLimit)

	// API v1 routes behind JWT auth
	setupAPIV1Routes(r, cfg, container)

	// Swagger routes (non-production only)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the entity
// route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	container *services.Container,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerTreasuryRoutes(v1, container.Ledger)
	registerLoanRoutes(v1, container.Loan)
	registerWithdrawalRoutes(v1, container.Withdrawal)
	registerNotificationRoutes(v1, container.Notification)
}

// setupSwaggerRoutes configures the swagger documentation routes.
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// registerCustomValidators wires domain validators into gin's binding layer.
func registerCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("votechoice", func(fl validator.FieldLevel) bool {
			return domain.ValidVoteChoice(domain.VoteChoice(fl.Field().String()))
		})
	}
}
