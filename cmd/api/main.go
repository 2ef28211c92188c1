package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loxconnect/connect-api/docs"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/config"
	"github.com/loxconnect/connect-api/internal/database"
	"github.com/loxconnect/connect-api/internal/http/handler"
	"github.com/loxconnect/connect-api/internal/http/middleware"
	"github.com/loxconnect/connect-api/internal/http/router"
	"github.com/loxconnect/connect-api/internal/jobs"
	"github.com/loxconnect/connect-api/internal/lock"
	"github.com/loxconnect/connect-api/internal/logger"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/storage"
	"go.uber.org/zap"
)

// @title LoxConnect PRO API
// @version 1.0
// @description Quote request tracking with Kanban classification and deadline notifications

// @contact.name API Support
// @contact.email support@loxconnect.io

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Identity provider ID token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
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

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In staging/production secrets may come from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	fileStorage, err := storage.NewStorage(ctx, &cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// The deadline scan lock is shared through Redis when replicas run side by side
	var locker lock.Locker = lock.NewLocalLocker()
	checks := map[string]router.ReadinessCheck{}
	if cfg.Redis.Enabled {
		redisClient := lock.NewRedisClient(&cfg.Redis)
		defer func() { _ = redisClient.Close() }()
		locker = lock.NewRedisLocker(redisClient, "loxconnect:lock:")
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		log.Info("Redis lock enabled", zap.String("address", cfg.Redis.Address))
	} else {
		log.Info("Redis disabled, deadline scan lock is process local")
	}

	// Repositories
	quoteRepo := repository.NewQuoteRequestRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	countryRepo := repository.NewCountryRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	modificationRepo := repository.NewModificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	broadcastRepo := repository.NewBroadcastRepository(db)
	ideaRepo := repository.NewIdeaRepository(db)
	errorReportRepo := repository.NewErrorReportRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	// Services
	reconciler := service.NewReconciler(quoteRepo, labelRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, countryRepo, log)
	userService := service.NewUserService(userRepo, log)
	countryService := service.NewCountryService(countryRepo, quoteRepo, userRepo, customerRepo, notificationRepo, log, db)
	customerService := service.NewCustomerService(customerRepo, quoteRepo, log)
	labelService := service.NewLabelService(labelRepo, quoteRepo, log, db)
	quoteService := service.NewQuoteRequestService(
		quoteRepo,
		labelRepo,
		customerRepo,
		modificationRepo,
		messageRepo,
		notificationRepo,
		reconciler,
		notificationService,
		fileStorage,
		cfg.Storage.MaxUploadBytes(),
		log,
		db,
	)
	dashboardService := service.NewDashboardService(quoteRepo, reconciler, log)
	deadlineService := service.NewDeadlineService(
		quoteRepo,
		notificationRepo,
		reconciler,
		notificationService,
		locker,
		cfg.Deadlines.Location(),
		cfg.Deadlines.LockTTLDuration(),
		log,
	)
	broadcastService := service.NewBroadcastService(broadcastRepo, notificationRepo, log, db)
	ideaService := service.NewIdeaService(ideaRepo, log)
	errorReportService := service.NewErrorReportService(errorReportRepo, log)
	templateService := service.NewTemplateService(templateRepo, labelRepo, quoteService, log)

	// Authentication
	verifier := auth.NewJWTValidator(&cfg.Firebase)
	secureCookies := cfg.App.Environment != "development" && cfg.App.Environment != "local"
	sessions := auth.NewSessionManager(cfg.Firebase.SessionSecret, cfg.Firebase.SessionDuration(), secureCookies)
	if cfg.Firebase.SessionSecret == "" {
		log.Warn("SESSION_SECRET not set, session cookies are disabled")
	}
	authMiddleware := auth.NewMiddleware(verifier, sessions, userService, cfg.ApiKey.Value, log)
	countryFilterMiddleware := middleware.NewCountryFilterMiddleware(log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(verifier, sessions, userService, log),
		User:         handler.NewUserHandler(userService, countryService, log),
		Customer:     handler.NewCustomerHandler(customerService, log),
		Label:        handler.NewLabelHandler(labelService, log),
		QuoteRequest: handler.NewQuoteRequestHandler(quoteService, cfg.Storage.MaxUploadSizeMB, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, deadlineService, log),
		Notification: handler.NewNotificationHandler(notificationService, broadcastService, log),
		Feedback:     handler.NewFeedbackHandler(ideaService, errorReportService, log),
		Template:     handler.NewTemplateHandler(templateService, log),
	}

	rt := router.NewRouter(cfg, log, db, authMiddleware, countryFilterMiddleware, rateLimiter, handlers, checks)

	scheduler := jobs.NewScheduler(log, cfg.Deadlines.Location())
	if err := jobs.RegisterDeadlineJob(
		scheduler,
		deadlineService,
		log,
		cfg.Deadlines.Cron,
		cfg.Deadlines.LockTTLDuration(),
	); err != nil {
		return fmt.Errorf("failed to register deadline job: %w", err)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
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
		<-scheduler.Stop().Done()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		select {
		case <-scheduler.Stop().Done():
			log.Info("Scheduler stopped")
		case <-ctx.Done():
			log.Warn("Scheduler did not stop before the shutdown deadline")
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
