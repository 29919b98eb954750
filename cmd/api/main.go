package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sangkips/pos-terminal-api/internal/application/service"
	"github.com/sangkips/pos-terminal-api/internal/config"
	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	domainRepo "github.com/sangkips/pos-terminal-api/internal/domain/repository"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/database"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/metrics"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/remote"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/handler"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/routes"
	"github.com/sangkips/pos-terminal-api/pkg/printer"
	"github.com/sangkips/pos-terminal-api/pkg/utils"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.App)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Idempotency keys survive restarts only with a database
	var idempotencyRepo domainRepo.IdempotencyRepository
	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := database.AutoMigrate(db, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		idempotencyRepo = repository.NewIdempotencyRepository(db)
	} else {
		logger.Info("database disabled, idempotency keys kept in memory")
		idempotencyRepo = repository.NewMemoryIdempotencyRepository()
	}
	go purgeIdempotencyKeys(ctx, idempotencyRepo, time.Hour, logger)

	var (
		registry *prometheus.Registry
		m        *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(registry)
	}

	remoteClient := remote.NewClient(remote.Config{
		BaseURL:      cfg.Remote.BaseURL,
		Timeout:      cfg.Remote.Timeout,
		ClientID:     cfg.Remote.ClientID,
		ClientSecret: cfg.Remote.ClientSecret,
		TokenURL:     cfg.Remote.TokenURL,
		Scopes:       cfg.Remote.Scopes,
	}, logger)
	salesGateway := remote.NewSalesGateway(remoteClient)
	catalogGateway := remote.NewCatalogGateway(remoteClient)

	thermalPrinter, err := printer.New(printer.Config{
		Type:    cfg.Printer.Type,
		USBPath: cfg.Printer.USBPath,
		Address: cfg.Printer.Address,
	})
	if err != nil {
		logger.Warn("failed to initialize printer, receipts disabled", zap.Error(err))
		thermalPrinter = printer.NewNullPrinter()
	}
	defer thermalPrinter.Close()

	printerService := service.NewPrinterService(thermalPrinter, cfg.Printer.Type, entity.ReceiptHeader{
		StoreName: cfg.Printer.StoreName,
		Address:   cfg.Printer.Address2,
		Phone:     cfg.Printer.Phone,
	}, cfg.Printer.Width, logger)

	terminalService := service.NewTerminalService(service.TerminalServiceDeps{
		Sessions:   repository.NewMemorySessionRepository(),
		Catalog:    catalogGateway,
		Sales:      salesGateway,
		Receipts:   printerService,
		Metrics:    m,
		LocationID: cfg.Remote.LocationID,
		Logger:     logger,
	})
	terminalService.StartCleanup(ctx, cfg.Session.TTL, cfg.Session.CleanupInterval)

	salesReportService := service.NewSalesReportService(salesGateway, m, logger)

	handlers := &routes.Handlers{
		Terminal: handler.NewTerminalHandler(terminalService),
		Sales:    handler.NewSalesHandler(salesReportService),
		Printer:  handler.NewPrinterHandler(printerService),
	}

	rateLimiter := routes.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	deps := &routes.Deps{
		JWTManager:      utils.NewJWTManager(cfg.JWT.Secret),
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Logger:          logger,
	}
	if registry != nil {
		deps.Gatherer = registry
	}
	router := routes.Setup(handlers, deps)

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
		logger.Info("starting server",
			zap.String("service", cfg.App.Name),
			zap.String("port", port),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(app config.AppConfig) (*zap.Logger, error) {
	if app.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				logger.Warn("failed to purge idempotency keys", zap.Error(err))
			}
		}
	}
}
