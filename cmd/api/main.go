package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/machinetrade/pos-api/internal/application/service"
	"github.com/machinetrade/pos-api/internal/config"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/internal/infrastructure/cache"
	"github.com/machinetrade/pos-api/internal/infrastructure/database"
	"github.com/machinetrade/pos-api/internal/infrastructure/memory"
	"github.com/machinetrade/pos-api/internal/infrastructure/repository"
	"github.com/machinetrade/pos-api/internal/presentation/http/handler"
	"github.com/machinetrade/pos-api/internal/presentation/http/middleware"
	"github.com/machinetrade/pos-api/internal/presentation/http/routes"
	"github.com/machinetrade/pos-api/pkg/utils"
	"github.com/shopspring/decimal"
)

const idempotencyCleanupInterval = time.Hour

func main() {
	cfg := config.Load()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	decimal.MarshalJSONWithoutQuotes = true

	repos, ping, closeStore := openStorage(cfg)
	defer closeStore()

	var reportCache cache.ReportCache = cache.NoopReportCache{}
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisReportCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("Warning: Redis unavailable, report caching disabled: %v", err)
			_ = redisCache.Close()
		} else {
			reportCache = redisCache
			defer redisCache.Close()
			log.Printf("Report cache connected to Redis at %s", cfg.Redis.Addr)
		}
		cancel()
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Leeway)

	settings := service.SaleSettings{
		DefaultVATPercentage:  cfg.Sale.DefaultVATPercentage,
		DefaultWarrantyMonths: cfg.Sale.DefaultWarrantyMonths,
		LowStockThreshold:     cfg.Sale.LowStockThreshold,
	}

	reportService := service.NewReportService(repos.Reports, repos.Machines, repos.Customers,
		reportCache, cfg.Redis.ReportCacheTTL, cfg.Sale.LowStockThreshold)
	saleService := service.NewSaleService(repos.Transactor, repos.Machines, repos.Customers, repos.Orders,
		reportService, settings)
	returnService := service.NewReturnService(repos.Machines, repos.Orders, reportService)
	orderService := service.NewOrderService(repos.Orders, repos.Machines, reportService, settings)
	customerService := service.NewCustomerService(repos.Customers, repos.Orders)
	machineService := service.NewMachineService(repos.Machines, repos.Orders, reportService, cfg.Sale.LowStockThreshold)

	handlers := &routes.Handlers{
		Sale:     handler.NewSaleHandler(saleService),
		Order:    handler.NewOrderHandler(orderService, returnService),
		Machine:  handler.NewMachineHandler(machineService, cfg.Sale.LowStockThreshold),
		Customer: handler.NewCustomerHandler(customerService),
		Report:   handler.NewReportHandler(reportService),
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfigFrom(cfg.RateLimit.Requests, cfg.RateLimit.Duration))
	defer rateLimiter.Stop()

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: repos.Idempotency,
		RateLimiter:     rateLimiter,
		Ping:            ping,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupIdempotencyKeys(ctx, repos.Idempotency)

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s, storage: %s", cfg.App.Env, cfg.App.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// openStorage builds the repositories for the configured driver and returns
// a health check and a close function
func openStorage(cfg *config.Config) (domainRepo.Repositories, func(context.Context) error, func()) {
	if cfg.App.StorageDriver == "memory" {
		log.Println("Warning: using in-memory storage, data is lost on restart")
		return memory.NewStore().Repositories(), nil, func() {}
	}

	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repos := repository.NewRepositories(db)
	ping := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	closeDB := func() {
		if err := database.Close(db); err != nil {
			log.Printf("Warning: failed to close database: %v", err)
		}
	}
	return repos, ping, closeDB
}

func cleanupIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository) {
	ticker := time.NewTicker(idempotencyCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.Printf("[idempotency] WARN: cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("[idempotency] removed %d expired keys", n)
			}
		}
	}
}
