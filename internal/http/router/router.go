package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/montecristo/sales-api/internal/auth"
	"github.com/montecristo/sales-api/internal/config"
	"github.com/montecristo/sales-api/internal/database"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/http/handler"
	"github.com/montecristo/sales-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/montecristo/sales-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	db               *gorm.DB
	authMiddleware   *auth.Middleware
	rateLimiter      *middleware.RateLimiter
	authHandler      *handler.AuthHandler
	productHandler   *handler.ProductHandler
	clientHandler    *handler.ClientHandler
	quotationHandler *handler.QuotationHandler
	reportHandler    *handler.ReportHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	clientHandler *handler.ClientHandler,
	quotationHandler *handler.QuotationHandler,
	reportHandler *handler.ReportHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		authHandler:      authHandler,
		productHandler:   productHandler,
		clientHandler:    clientHandler,
		quotationHandler: quotationHandler,
		reportHandler:    reportHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness probe with pool statistics
	r.Get("/health/db", rt.databaseHealth)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimiddleware.Timeout(timeout))
		}

		// Public routes
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.LimitByUser)

			r.Get("/auth/me", rt.authHandler.Me)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", rt.productHandler.List)
				r.Post("/", rt.productHandler.Create)
				r.Get("/categories", rt.productHandler.Categories)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", rt.productHandler.GetByID)
					r.Put("/", rt.productHandler.Update)
					r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin)).Delete("/", rt.productHandler.Delete)
					r.Get("/image", rt.productHandler.GetImage)
					r.Post("/image", rt.productHandler.UploadImage)
				})
			})

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", rt.clientHandler.List)
				r.Post("/", rt.clientHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", rt.clientHandler.GetByID)
					r.Put("/", rt.clientHandler.Update)
					r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin)).Post("/block", rt.clientHandler.Block)
				})
			})

			r.Route("/quotations", func(r chi.Router) {
				r.Get("/", rt.quotationHandler.List)
				r.Post("/", rt.quotationHandler.Create)
				r.Post("/preview", rt.quotationHandler.Preview)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", rt.quotationHandler.GetByID)
					r.Put("/", rt.quotationHandler.Update)
					r.Delete("/", rt.quotationHandler.Delete)
					r.Post("/send", rt.quotationHandler.Send)
					r.Post("/accept", rt.quotationHandler.Accept)
					r.Post("/reject", rt.quotationHandler.Reject)
					r.Post("/expire", rt.quotationHandler.Expire)
					r.Get("/pdf", rt.quotationHandler.PDF)
				})
			})

			r.Get("/dashboard", rt.reportHandler.Dashboard)
			r.Get("/reports", rt.reportHandler.Report)
			r.Get("/settings", rt.reportHandler.Settings)
		})
	})

	return r
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"service": "database",
			"driver":  rt.cfg.Database.Driver,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"driver":  rt.cfg.Database.Driver,
		"stats":   stats,
	})
}
