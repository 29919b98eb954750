package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sangkips/pos-terminal-api/internal/config"
	domainRepo "github.com/sangkips/pos-terminal-api/internal/domain/repository"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/handler"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/middleware"
	"github.com/sangkips/pos-terminal-api/pkg/utils"
)

// Permissions checked on the protected routes
const (
	PermissionOperateTerminal = "operate-terminal"
	PermissionViewSales       = "view-sales"
	PermissionDeleteSales     = "delete-sales"
	PermissionManagePrinter   = "manage-printer"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Terminal *handler.TerminalHandler
	Sales    *handler.SalesHandler
	Printer  *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.OperatorRateLimiter
	// Gatherer serves /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRateLimiter builds the per-operator limiter from configuration.
func NewRateLimiter(cfg config.RateLimitConfig) *middleware.OperatorRateLimiter {
	duration := cfg.Duration
	if duration <= 0 {
		duration = 1
	}
	return middleware.NewOperatorRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.Requests) / float64(duration),
		BurstSize:         cfg.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerTerminalRoutes(protected, h, deps, logger)
		registerSalesRoutes(protected, h)
		registerPrinterRoutes(protected, h)
	}

	return router
}

func registerTerminalRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps, logger *zap.Logger) {
	sessions := protected.Group("/terminal/sessions")
	sessions.Use(middleware.RequirePermission(PermissionOperateTerminal))
	{
		sessions.POST("", h.Terminal.OpenSession)
		sessions.GET("/:id", h.Terminal.GetSession)
		sessions.DELETE("/:id", h.Terminal.CloseSession)

		sessions.POST("/:id/selection/product", h.Terminal.SelectProduct)
		sessions.POST("/:id/selection/flavor", h.Terminal.SelectFlavor)
		sessions.POST("/:id/selection/variant", h.Terminal.SelectVariant)
		sessions.PUT("/:id/selection/quantity", h.Terminal.SetQuantity)
		sessions.POST("/:id/selection/commit", h.Terminal.CommitSelection)
		sessions.DELETE("/:id/selection", h.Terminal.ClearSelection)

		sessions.DELETE("/:id/cart/items/:index", h.Terminal.RemoveCartItem)
		sessions.PUT("/:id/observation", h.Terminal.SetObservation)

		// a repeated settle with the same key replays the recorded sale
		sessions.POST("/:id/settle", middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:   deps.IdempotencyRepo,
			Logger: logger,
		}), h.Terminal.Settle)
	}
}

func registerSalesRoutes(protected *gin.RouterGroup, h *Handlers) {
	sales := protected.Group("/sales")
	{
		sales.GET("", middleware.RequirePermission(PermissionViewSales), h.Sales.List)
		sales.GET("/summary", middleware.RequirePermission(PermissionViewSales), h.Sales.Summary)
		sales.GET("/export", middleware.RequirePermission(PermissionViewSales), h.Sales.Export)
		sales.DELETE("/:id", middleware.RequirePermission(PermissionDeleteSales), h.Sales.Delete)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printerGroup := protected.Group("/printer")
	printerGroup.Use(middleware.RequirePermission(PermissionManagePrinter))
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
		printerGroup.POST("/test", h.Printer.TestPrint)
	}
}
