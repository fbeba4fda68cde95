package routes

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/machinetrade/pos-api/internal/config"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/internal/presentation/http/handler"
	"github.com/machinetrade/pos-api/internal/presentation/http/middleware"
	"github.com/machinetrade/pos-api/pkg/utils"
	"github.com/machinetrade/pos-api/pkg/validation"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Sale     *handler.SaleHandler
	Order    *handler.OrderHandler
	Machine  *handler.MachineHandler
	Customer *handler.CustomerHandler
	Report   *handler.ReportHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.RateLimiter
	// Ping checks storage for /health; nil reports ok
	Ping func(ctx context.Context) error
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.Register(v); err != nil {
			log.Fatalf("Failed to register validators: %v", err)
		}
	}
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", healthHandler(deps))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler(deps))

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerSaleRoutes(protected, h, deps)
		registerOrderRoutes(protected, h)
		registerMachineRoutes(protected, h)
		registerCustomerRoutes(protected, h)
		registerReportRoutes(protected, h)
	}

	return router
}

func healthHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				log.Printf("[health] WARN: storage ping failed: %v", err)
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": deps.Cfg.App.Name,
		})
	}
}

func registerSaleRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	sales := protected.Group("/sales")
	{
		sales.POST("/validate", h.Sale.Validate)
		sales.POST("", middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:     deps.IdempotencyRepo,
			TTL:      deps.Cfg.Sale.IdempotencyTTL,
			Required: deps.Cfg.Sale.IdempotencyRequired,
		}), h.Sale.Process)
	}
}

func registerOrderRoutes(protected *gin.RouterGroup, h *Handlers) {
	orders := protected.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.GET("/code/:code", h.Order.GetByCode)
		orders.GET("/:id", h.Order.Get)
		orders.PUT("/:id", h.Order.Update)
		orders.POST("/:id/cancel", h.Order.Cancel)
		orders.POST("/:id/items/:itemId/return", h.Order.ReturnItem)
	}
}

func registerMachineRoutes(protected *gin.RouterGroup, h *Handlers) {
	machines := protected.Group("/machines")
	{
		machines.GET("", h.Machine.List)
		machines.POST("", h.Machine.Create)
		machines.GET("/low-stock", h.Machine.LowStock)
		machines.GET("/:id", h.Machine.Get)
		machines.PUT("/:id", h.Machine.Update)
		machines.DELETE("/:id", h.Machine.Delete)
	}
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
		customers.DELETE("/:id", h.Customer.Delete)
		customers.GET("/:id/orders", h.Customer.Orders)
	}
}

func registerReportRoutes(protected *gin.RouterGroup, h *Handlers) {
	reports := protected.Group("/reports")
	{
		reports.GET("/dashboard", h.Report.Dashboard)
	}
}
