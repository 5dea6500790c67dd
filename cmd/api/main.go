package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-sync-layer/internal/application"
	"storefront-sync-layer/internal/application/webhook_handlers"
	"storefront-sync-layer/internal/domain"
	apiinfra "storefront-sync-layer/internal/infrastructure/api"
	"storefront-sync-layer/internal/infrastructure/cache"
	"storefront-sync-layer/internal/infrastructure/encryption"
	"storefront-sync-layer/internal/infrastructure/repository"
	shopifyinfra "storefront-sync-layer/internal/infrastructure/shopify"
)

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envMinutes(name string, fallback int) time.Duration {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(fallback) * time.Minute
}

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	mongoURI := envOr("MONGODB_URI", "mongodb://localhost:27017")
	mongoDatabase := envOr("MONGODB_DATABASE", "storefront_mirror")
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	fullSyncInterval := envMinutes("SYNC_INTERVAL_MINUTES", 30)
	recentOrdersInterval := envMinutes("RECENT_ORDERS_INTERVAL_MINUTES", 60)

	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		logger.Fatal().Msg("ENCRYPTION_KEY environment variable is required")
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(mongoDatabase)
	if err := repository.EnsureIndexes(context.Background(), db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create indexes")
	}

	// Redis backs the best-effort analytics cache.
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})

	// Initialize infrastructure (implementations)
	encryptionService, err := encryption.NewService(encryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	shopRepo := repository.NewMongoShopRepository(db)
	productRepo := repository.NewMongoProductRepository(db)
	orderRepo := repository.NewMongoOrderRepository(db)
	customerRepo := repository.NewMongoCustomerRepository(db)
	statusRepo := repository.NewMongoSyncStatusRepository(db)

	analyticsCache := cache.NewRedisAnalyticsCache(redisClient, logger)

	fetcher := shopifyinfra.NewClientWithOptions(
		os.Getenv("SHOPIFY_API_KEY"),
		os.Getenv("SHOPIFY_API_SECRET"),
		shopifyinfra.MaxPageSize,
		shopifyinfra.NewPacer(logger),
		shopifyinfra.DefaultRetryConfig(),
		logger,
	)

	// Initialize application services
	guard := application.NewInflightGuard()
	syncService := application.NewSyncService(
		shopRepo,
		productRepo,
		orderRepo,
		customerRepo,
		statusRepo,
		fetcher,
		encryptionService,
		guard,
		logger,
		fullSyncInterval,
	)

	dashboardService := application.NewDashboardService(
		shopRepo,
		productRepo,
		orderRepo,
		customerRepo,
		statusRepo,
		analyticsCache,
		logger,
	)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewProductHandler(productRepo, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(orderRepo, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewCustomerHandler(customerRepo, logger))

	scheduler := application.NewScheduler(syncService, shopRepo, fullSyncInterval, recentOrdersInterval, logger)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Cached-read facade + on-demand sync
	facade := apiinfra.NewHandler(dashboardService, syncService, logger)
	r.Mount("/api/v1/shops/{shop}", facade.Routes())

	// Webhook endpoint: push-driven refresh between sync waves
	r.Post("/webhooks/shopify", webhookHandler(webhookDispatcher, os.Getenv("SHOPIFY_WEBHOOK_SECRET"), logger))

	port := envOr("PORT", "8080")
	server := &http.Server{Addr: ":" + port, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)

	go func() {
		logger.Info().Str("port", port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}

// webhookHandler verifies and dispatches upstream webhook deliveries.
func webhookHandler(
	dispatcher *application.WebhookDispatcher,
	webhookSecret string,
	logger zerolog.Logger,
) http.HandlerFunc {
	verifier := shopifyinfra.NewWebhookVerifier(webhookSecret)

	return func(w http.ResponseWriter, r *http.Request) {
		if webhookSecret == "" {
			logger.Warn().Msg("Webhook secret not configured")
			http.Error(w, "Webhook secret not configured", http.StatusBadRequest)
			return
		}

		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if err := verifier.Verify(payload, r.Header.Get("X-Shopify-Hmac-SHA256")); err != nil {
			logger.Warn().Err(err).Str("topic", topic).Msg("Webhook signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		shop := r.Header.Get("X-Shopify-Shop-Domain")
		event := &domain.WebhookEvent{
			Topic:    topic,
			Shop:     shop,
			Payload:  payload,
			Verified: true,
		}

		if err := dispatcher.Dispatch(r.Context(), event); err != nil {
			logger.Error().Err(err).Str("topic", topic).Str("shop", shop).
				Msg("Failed to dispatch webhook event")
			// 500 asks the upstream to retry the delivery.
			http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"received":"true"}`))
	}
}
