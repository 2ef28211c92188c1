package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/config"
	"github.com/loxconnect/connect-api/internal/database"
	"github.com/loxconnect/connect-api/internal/http/handler"
	"github.com/loxconnect/connect-api/internal/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/loxconnect/connect-api/docs" // Import generated swagger docs
)

// Handlers bundles the HTTP handlers mounted by the router
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Customer     *handler.CustomerHandler
	Label        *handler.LabelHandler
	QuoteRequest *handler.QuoteRequestHandler
	Dashboard    *handler.DashboardHandler
	Notification *handler.NotificationHandler
	Feedback     *handler.FeedbackHandler
	Template     *handler.TemplateHandler
}

// ReadinessCheck reports whether an optional dependency is usable
type ReadinessCheck func(ctx context.Context) error

type Router struct {
	cfg                     *config.Config
	logger                  *zap.Logger
	db                      *gorm.DB
	authMiddleware          *auth.Middleware
	countryFilterMiddleware *middleware.CountryFilterMiddleware
	rateLimiter             *middleware.RateLimiter
	handlers                Handlers
	checks                  map[string]ReadinessCheck
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	countryFilterMiddleware *middleware.CountryFilterMiddleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
	checks map[string]ReadinessCheck,
) *Router {
	return &Router{
		cfg:                     cfg,
		logger:                  logger,
		db:                      db,
		authMiddleware:          authMiddleware,
		countryFilterMiddleware: countryFilterMiddleware,
		rateLimiter:             rateLimiter,
		handlers:                handlers,
		checks:                  checks,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := rt.handlers

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)
	r.Handle("/metrics", promhttp.Handler())

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Session exchange happens before a caller has credentials
	r.Route("/api/auth/session", func(r chi.Router) {
		r.Post("/", h.Auth.CreateSession)
		r.Delete("/", h.Auth.DeleteSession)
	})

	r.Group(func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.authMiddleware.RequireAdmin)
		r.Post("/api/admin/check-deadlines", h.Dashboard.CheckDeadlines)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)
		r.Use(rt.countryFilterMiddleware.Filter)

		r.Get("/auth/me", h.Auth.Me)

		// Read-only users may mark notifications read and report problems
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.Notification.List)
			r.Get("/count", h.Notification.GetUnreadCount)
			r.Put("/read-all", h.Notification.MarkAllAsRead)
			r.Put("/{id}/read", h.Notification.MarkAsRead)
		})
		r.Post("/error-reports", h.Feedback.CreateErrorReport)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireWriter)

			// Users
			r.Get("/users", h.User.ListUsers)
			r.With(rt.authMiddleware.RequireSuperAdmin).Put("/users/{id}", h.User.UpdateUser)

			// Countries
			r.Route("/countries", func(r chi.Router) {
				r.Get("/", h.User.ListCountries)
				r.With(rt.authMiddleware.RequireAdmin).Post("/", h.User.CreateCountry)
				r.With(rt.authMiddleware.RequireAdmin).Put("/{id}", h.User.UpdateCountry)
				r.With(rt.authMiddleware.RequireAdmin).Delete("/{id}", h.User.DeleteCountry)
			})

			// Customers and jobsites
			r.Route("/customers", func(r chi.Router) {
				r.Get("/", h.Customer.List)
				r.Post("/", h.Customer.Create)
				r.Get("/{id}", h.Customer.GetByID)
				r.Put("/{id}", h.Customer.Update)
				r.Delete("/{id}", h.Customer.Delete)
				r.Get("/{id}/jobsites", h.Customer.ListJobsites)
				r.Post("/{id}/jobsites", h.Customer.CreateJobsite)
			})
			r.Route("/jobsites", func(r chi.Router) {
				r.Get("/nearby", h.Customer.Nearby)
				r.Put("/{id}", h.Customer.UpdateJobsite)
				r.Delete("/{id}", h.Customer.DeleteJobsite)
			})

			// Labels
			r.Route("/labels", func(r chi.Router) {
				r.Get("/", h.Label.List)
				r.Post("/", h.Label.Create)
				r.With(rt.authMiddleware.RequireAdmin).Post("/fix-duplicates", h.Label.FixDuplicates)
				r.Put("/{id}", h.Label.Update)
				r.Delete("/{id}", h.Label.Delete)
			})

			// Quote requests
			r.Route("/quote-requests", func(r chi.Router) {
				r.Get("/", h.QuoteRequest.List)
				r.Post("/", h.QuoteRequest.Create)
				r.Get("/export", h.QuoteRequest.Export)
				r.Get("/{id}", h.QuoteRequest.GetByID)
				r.Put("/{id}", h.QuoteRequest.Update)
				r.Delete("/{id}", h.QuoteRequest.Delete)

				r.Put("/{id}/status", h.QuoteRequest.UpdateStatus)
				r.Put("/{id}/flags", h.QuoteRequest.UpdateFlags)
				r.Post("/{id}/labels/{labelId}", h.QuoteRequest.AddLabel)
				r.Delete("/{id}/labels/{labelId}", h.QuoteRequest.RemoveLabel)
				r.Post("/{id}/notes", h.QuoteRequest.AddNote)
				r.Post("/{id}/reconcile", h.QuoteRequest.Reconcile)
				r.Get("/{id}/modifications", h.QuoteRequest.ListModifications)

				r.Post("/{id}/attachments", h.QuoteRequest.UploadAttachment)
				r.Get("/{id}/attachments/{index}", h.QuoteRequest.DownloadAttachment)
				r.Delete("/{id}/attachments/{index}", h.QuoteRequest.DeleteAttachment)

				r.Get("/{id}/messages", h.QuoteRequest.ListMessages)
				r.Post("/{id}/messages", h.QuoteRequest.PostMessage)
			})

			// Dashboard and analytics
			r.Get("/dashboard/kanban", h.Dashboard.Kanban)
			r.Get("/analytics/summary", h.Dashboard.Analytics)
			r.With(rt.authMiddleware.RequireAdmin).Post("/admin/reconcile-all", h.Dashboard.ReconcileAll)

			// Notification settings and broadcasts
			r.Get("/notification-settings", h.Notification.ListSettings)
			r.With(rt.authMiddleware.RequireAdmin).Put("/notification-settings/{country}", h.Notification.UpdateSettings)
			r.Route("/broadcasts", func(r chi.Router) {
				r.Get("/", h.Notification.ListBroadcasts)
				r.With(rt.authMiddleware.RequireAdmin).Post("/", h.Notification.CreateBroadcast)
			})

			// Ideas
			r.Route("/ideas", func(r chi.Router) {
				r.Get("/", h.Feedback.ListIdeas)
				r.Post("/", h.Feedback.CreateIdea)
				r.Post("/{id}/like", h.Feedback.LikeIdea)
				r.Delete("/{id}/like", h.Feedback.UnlikeIdea)
				r.With(rt.authMiddleware.RequireAdmin).Put("/{id}/status", h.Feedback.UpdateIdeaStatus)
			})

			// Error reports
			r.Get("/error-reports", h.Feedback.ListErrorReports)
			r.With(rt.authMiddleware.RequireAdmin).Put("/error-reports/{id}/status", h.Feedback.UpdateErrorReportStatus)

			// Templates
			r.Route("/templates", func(r chi.Router) {
				r.Get("/", h.Template.List)
				r.Post("/", h.Template.Create)
				r.Delete("/{id}", h.Template.Delete)
				r.Post("/{id}/quote-requests", h.Template.CreateQuoteRequest)
			})
		})
	})

	return r
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats":   stats,
	})
}

// readiness checks the database and every registered optional dependency
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	record := func(name string, err error) {
		if err != nil {
			rt.logger.Error("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = map[string]string{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
			return
		}
		checks[name] = map[string]string{"status": "healthy"}
	}

	record("database", database.HealthCheck(rt.db))
	for name, check := range rt.checks {
		record(name, check(r.Context()))
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
