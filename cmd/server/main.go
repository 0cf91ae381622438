package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hivelabs/namehive/internal"
	"github.com/hivelabs/namehive/internal/ai"
	"github.com/hivelabs/namehive/internal/ai/anthropic"
	"github.com/hivelabs/namehive/internal/ai/mock"
	"github.com/hivelabs/namehive/internal/billing"
	"github.com/hivelabs/namehive/internal/handler"
	"github.com/hivelabs/namehive/internal/kvstore"
	"github.com/hivelabs/namehive/internal/metrics"
	"github.com/hivelabs/namehive/internal/middleware"
	"github.com/hivelabs/namehive/internal/repository"
	"github.com/hivelabs/namehive/internal/service"
	"github.com/hivelabs/namehive/internal/storage"
	"github.com/hivelabs/namehive/internal/worker"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	queries := repository.New(db)

	// Initialize object storage
	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize AI provider
	provider, err := newNameProvider(cfg, queries, logger)
	if err != nil {
		return fmt.Errorf("ai provider initialization failed: %w", err)
	}
	logger.Info("Name provider ready", "provider", cfg.AIProvider)

	// Anonymous usage days live in an in-process store; account usage goes
	// through the Postgres ledger.
	anonStore := kvstore.NewMemory()

	// Initialize services
	userService := service.NewUserService(queries, cfg.IsAdminEmail, logger)
	entitlementService := service.NewEntitlementService(queries, anonStore, service.ParseLedgerErrorPolicy(cfg.OnLedgerError), logger)
	generatorService := service.NewGeneratorService(entitlementService, provider, logger)
	favoriteService := service.NewFavoriteService(queries, logger)
	blogService := service.NewBlogService(queries, store, service.NewImagingProcessor(), logger)
	pricingService := service.NewPricingService(queries, logger)

	// Stripe is optional in development. With no secret key the billing
	// handlers respond 503 and webhooks are acknowledged without processing.
	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			PremiumMonthlyPriceID: cfg.StripePremiumMonthlyPriceID,
			PremiumYearlyPriceID:  cfg.StripePremiumYearlyPriceID,
		})
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe billing disabled, no secret key configured")
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	authLimiter := middleware.NewAuthRateLimiter(logger)
	metricsAuth := middleware.NewMetricsAuth(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, logger, isSecure)
	generateHandler := handler.NewGenerateHandler(generatorService, entitlementService, logger)
	favoriteHandler := handler.NewFavoriteHandler(favoriteService, logger)
	blogHandler := handler.NewBlogHandler(blogService, logger)
	pricingHandler := handler.NewPricingHandler(pricingService, logger)
	billingHandler := handler.NewBillingHandler(billingService, userService, cfg.BaseURL, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, userService, logger)
	healthHandler := handler.NewHealthHandler(db, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Middleware stacks. Visitor identity rides on every request so that
	// anonymous quota tracking works without an account.
	public := middleware.Stack(authMw.WithUser, authMw.WithVisitor)
	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)
	requireAdmin := middleware.Stack(authMw.WithUser, authMw.RequireUser, authMw.RequireAdmin)

	// Health and metrics
	mux.HandleFunc("GET /health", healthHandler.Live)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Locally stored cover images
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Auth routes
	mux.Handle("POST /api/auth/register", authLimiter.LimitRegister(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", authLimiter.LimitLogin(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", requireUser(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PATCH /api/auth/me", requireUser(http.HandlerFunc(authHandler.UpdateProfile)))
	mux.Handle("POST /api/auth/password", requireUser(http.HandlerFunc(authHandler.ChangePassword)))

	// Name generation (open to anonymous visitors, quota enforced per tier)
	mux.Handle("POST /api/generate", public(http.HandlerFunc(generateHandler.Generate)))
	mux.Handle("GET /api/quota", public(http.HandlerFunc(generateHandler.Quota)))

	// Favorites (account only)
	mux.Handle("POST /api/favorites", requireUser(http.HandlerFunc(favoriteHandler.Save)))
	mux.Handle("GET /api/favorites", requireUser(http.HandlerFunc(favoriteHandler.List)))
	mux.Handle("DELETE /api/favorites/{id}", requireUser(http.HandlerFunc(favoriteHandler.Delete)))

	// Public content
	mux.Handle("GET /api/blog", middleware.Stack(authMw.WithUser)(http.HandlerFunc(blogHandler.List)))
	mux.HandleFunc("GET /api/blog/{slug}", blogHandler.Get)
	mux.HandleFunc("GET /api/pricing", pricingHandler.List)

	// Admin content management
	mux.Handle("POST /admin/blog", requireAdmin(http.HandlerFunc(blogHandler.Create)))
	mux.Handle("PUT /admin/blog/{slug}", requireAdmin(http.HandlerFunc(blogHandler.Update)))
	mux.Handle("POST /admin/blog/{slug}/cover", requireAdmin(http.HandlerFunc(blogHandler.UploadCover)))
	mux.Handle("DELETE /admin/blog/{slug}", requireAdmin(http.HandlerFunc(blogHandler.Delete)))
	mux.Handle("PUT /admin/pricing/{code}", requireAdmin(http.HandlerFunc(pricingHandler.Update)))

	// Billing (account only)
	mux.Handle("POST /api/billing/checkout", requireUser(http.HandlerFunc(billingHandler.Checkout)))
	mux.Handle("POST /api/billing/portal", requireUser(http.HandlerFunc(billingHandler.Portal)))
	mux.Handle("POST /api/billing/cancel", requireUser(http.HandlerFunc(billingHandler.Cancel)))
	mux.Handle("POST /api/billing/reactivate", requireUser(http.HandlerFunc(billingHandler.Reactivate)))

	// Stripe webhooks are public, authenticated by signature
	mux.HandleFunc("POST /webhooks/stripe", webhookHandler.HandleStripeWebhook)

	// Outer middleware applied to every route
	root := middleware.Stack(loggingMw.Handler, securityMw.Handler, metrics.Middleware)(mux)

	// ==========================================================================
	// Start background worker
	// ==========================================================================

	var maintenanceWorker *worker.Worker
	if cfg.WorkerEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Interval = cfg.WorkerInterval
		maintenanceWorker, err = worker.New(workerCfg, userService, entitlementService, queries, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		maintenanceWorker.Start(ctx)
		logger.Info("Maintenance worker started", "interval", cfg.WorkerInterval)
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if maintenanceWorker != nil {
		maintenanceWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newStorage builds the object store named by STORAGE_PROVIDER.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case storage.ProviderLocal:
		store, err := storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case storage.ProviderR2:
		store, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}

// newNameProvider builds the AI provider named by AI_PROVIDER. The mock
// provider needs no credentials and is the development default.
func newNameProvider(cfg *internal.Config, queries *repository.Queries, logger *slog.Logger) (ai.NameProvider, error) {
	switch cfg.AIProvider {
	case "mock":
		return mock.New(logger), nil
	case "anthropic":
		provider, err := anthropic.New(anthropic.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
		}, queries, logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
