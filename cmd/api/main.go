package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/montecristo/sales-api/docs"
	"github.com/montecristo/sales-api/internal/auth"
	"github.com/montecristo/sales-api/internal/config"
	"github.com/montecristo/sales-api/internal/database"
	"github.com/montecristo/sales-api/internal/document"
	"github.com/montecristo/sales-api/internal/http/handler"
	"github.com/montecristo/sales-api/internal/http/middleware"
	"github.com/montecristo/sales-api/internal/http/router"
	"github.com/montecristo/sales-api/internal/jobs"
	"github.com/montecristo/sales-api/internal/logger"
	"github.com/montecristo/sales-api/internal/pricing"
	"github.com/montecristo/sales-api/internal/repository"
	"github.com/montecristo/sales-api/internal/service"
	"github.com/montecristo/sales-api/internal/storage"
	"go.uber.org/zap"
)

// @title Monte Cristo Sales API
// @version 1.0
// @description Quotation pricing and lifecycle API for products, clients and quotations

// @contact.name API Support
// @contact.email soporte@montecristo.com

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" || basicCfg.App.Environment == "local" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Full configuration; secrets come from Key Vault outside development
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// PostgreSQL schemas are managed by cmd/migrate
	if cfg.Database.IsSQLite() {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	if cfg.Seed.Enabled {
		if err := database.Seed(ctx, db, log); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	engine, err := pricing.NewEngineFromFloat(cfg.Pricing.TaxRate)
	if err != nil {
		return fmt.Errorf("invalid pricing configuration: %w", err)
	}

	tokens, err := auth.NewTokenManager(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("invalid auth configuration: %w", err)
	}

	// Repositories
	productRepo := repository.NewProductRepository(db)
	clientRepo := repository.NewClientRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	userRepo := repository.NewUserRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)

	// Services
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, cfg.Quotation.NumberPrefix, log)
	documentService := service.NewQuotationDocumentService(quotationRepo, fileStorage, document.NewRenderer(document.DefaultCompany), log)
	productService := service.NewProductService(productRepo, fileStorage, cfg.Reports.LowStockThreshold, log)
	clientService := service.NewClientService(clientRepo, cfg.Clients.AtRiskQuotationThreshold, log)
	quotationService := service.NewQuotationService(
		quotationRepo,
		clientRepo,
		productRepo,
		numberSequenceService,
		engine,
		documentService,
		cfg.Quotation.DefaultValidity(),
		log,
	)
	reportService := service.NewReportService(
		quotationRepo,
		clientRepo,
		productRepo,
		cfg.Clients.AtRiskQuotationThreshold,
		cfg.Reports.LowStockThreshold,
		log,
	)
	authService := service.NewAuthService(userRepo, tokens, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(tokens, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	productHandler := handler.NewProductHandler(productService, &cfg.Storage, log)
	clientHandler := handler.NewClientHandler(clientService, log)
	quotationHandler := handler.NewQuotationHandler(quotationService, documentService, log)
	reportHandler := handler.NewReportHandler(reportService, quotationService, numberSequenceService, cfg, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		productHandler,
		clientHandler,
		quotationHandler,
		reportHandler,
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.ExpiryEnabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterQuotationExpiryJob(scheduler, quotationService, log, cfg.Jobs.ExpirySchedule); err != nil {
			return fmt.Errorf("failed to register quotation expiry job: %w", err)
		}
		scheduler.Start()
		log.Info("Scheduler started",
			zap.Strings("jobs", scheduler.GetJobNames()),
			zap.String("expiry_schedule", cfg.Jobs.ExpirySchedule),
		)
	} else {
		log.Info("Quotation expiry job disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           rt.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeoutDuration(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
