package handlers

import (
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/middleware"
	"github.com/SscSPs/voucher_posting_service/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// enqueuer and rateLimiter may be nil.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	enqueuer portssvc.VoucherTaskEnqueuer,
	rateLimiter *limiter.Limiter,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, cfg, services, enqueuer, rateLimiter)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	enqueuer portssvc.VoucherTaskEnqueuer,
	rateLimiter *limiter.Limiter,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))
	// Limit after auth so authenticated callers are keyed by user
	if rateLimiter != nil {
		v1.Use(middleware.RateLimit(rateLimiter))
	}

	org := v1.Group("/organizations/:organization_id")
	RegisterVoucherRoutes(org, services.Voucher, services.Builder, enqueuer)
	RegisterLedgerRoutes(org, services.Ledger)
	RegisterVoucherConfigRoutes(org, services.VoucherConfig)
}
