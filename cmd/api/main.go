package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gigmarket/internal/adapter/api"
	"gigmarket/internal/adapter/api/handler"
	apimiddleware "gigmarket/internal/adapter/api/middleware"
	"gigmarket/internal/adapter/api/router"
	"gigmarket/internal/adapter/repository"
	"gigmarket/internal/domain/service"
	"gigmarket/internal/infrastructure/auth"
	"gigmarket/internal/infrastructure/firebase"
	"gigmarket/internal/infrastructure/ratelimit"
	"gigmarket/internal/infrastructure/scheduler"
	"gigmarket/internal/infrastructure/storage"
	"gigmarket/internal/infrastructure/websocket"
	"gigmarket/internal/usecase"
	"gigmarket/pkg/config"
	"gigmarket/pkg/logger"
	"gigmarket/pkg/response"
)

const (
	jsonBodyLimit    = "1M"
	uploadBodyLimit  = "55M"
	limiterSweep     = 5 * time.Minute
	typingEventLimit = 10
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	firebaseApp, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase: %v", err)
	}

	firestoreClient, err := firebaseApp.Firestore(ctx)
	if err != nil {
		logger.Fatal("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	fileStorage := newFileStorage(ctx, cfg, firebaseApp)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		defer redisClient.Close()
		logger.Info("Using Redis at %s for rate limits and realtime fan-out", cfg.RedisAddr)
	}

	apiLimiter := newLimiter(ctx, redisClient, "api", ratelimit.Rule{Limit: cfg.RateLimitRequests, Window: cfg.RateLimitWindow})
	authLimiter := newLimiter(ctx, redisClient, "auth", ratelimit.Rule{Limit: cfg.AuthRateLimitRequests, Window: cfg.RateLimitWindow})
	messageLimiter := newLimiter(ctx, redisClient, "message", ratelimit.Rule{Limit: cfg.MessageRateLimit, Window: time.Minute})
	typingLimiter := newLimiter(ctx, redisClient, "typing", ratelimit.Rule{Limit: typingEventLimit, Window: 10 * time.Second})

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	gigRepo := repository.NewFirestoreGigRepository(firestoreClient)
	orderRepo := repository.NewFirestoreOrderRepository(firestoreClient)
	reviewRepo := repository.NewFirestoreReviewRepository(firestoreClient)
	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	fileMetadataRepo := repository.NewFirestoreFileMetadataRepository(firestoreClient)

	tokenService := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())
	passwordHasher := auth.NewPasswordHasher(auth.DefaultBcryptCost)

	fileUseCase := usecase.NewFileUseCase(fileStorage, fileMetadataRepo)
	authUseCase := usecase.NewAuthUseCase(userRepo, tokenService, passwordHasher)
	userUseCase := usecase.NewUserUseCase(userRepo, gigRepo, orderRepo)
	gigUseCase := usecase.NewGigUseCase(gigRepo, orderRepo, fileUseCase)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, gigRepo, userRepo)
	chatUseCase := usecase.NewChatUseCase(conversationRepo, orderRepo, userRepo, messageLimiter, nil)
	reviewUseCase := usecase.NewReviewUseCase(reviewRepo, orderRepo, gigRepo, userRepo)
	analyticsUseCase := usecase.NewAnalyticsUseCase(userRepo, gigRepo, orderRepo)

	presence, fanout := newRealtime(redisClient)
	wsManager := websocket.NewManager(presence, fanout)
	wsManager.SetAuthorizer(chatUseCase)
	wsManager.SetTypingLimiter(typingLimiter)
	wsManager.Start(ctx)
	chatUseCase.SetNotifier(wsManager)

	jobs := scheduler.New()
	grace := time.Duration(cfg.OrderAutoCompleteDays) * 24 * time.Hour
	if err := jobs.ScheduleAutoComplete(cfg.OrderAutoCompleteSchedule, grace, orderUseCase); err != nil {
		logger.Fatal("Failed to schedule order auto-complete: %v", err)
	}
	jobs.Start()

	handler.Setup(authUseCase, userUseCase, gigUseCase, orderUseCase, chatUseCase, reviewUseCase, fileUseCase, analyticsUseCase, handler.SessionCookie{
		Name:   cfg.CookieName,
		Secure: cfg.CookieSecure,
		TTL:    cfg.TokenTTL(),
	})
	handler.SetupWebSocketHandler(wsManager, cfg.AllowedOrigins)
	handler.SetupHealthHandler(readinessChecks(firestoreClient, redisClient)...)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Validator = api.NewValidator()

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(apimiddleware.RequestLogger())
	e.Use(apimiddleware.Metrics())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(apimiddleware.BodyLimit(jsonBodyLimit, uploadBodyLimit, "/v1/uploads", "/v1/gigs/:id/images"))

	e.GET("/metrics", echo.WrapHandler(apimiddleware.MetricsHandler()))
	if cfg.StorageBackend == "local" {
		e.Static("/uploads", cfg.UploadDir)
	}

	router.Setup(e, router.Guards{
		Auth:        apimiddleware.NewAuthMiddleware(tokenService, cfg.CookieName, authUseCase),
		APILimiter:  apiLimiter,
		AuthLimiter: authLimiter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
	jobs.Stop(shutdownCtx)
}

// newFileStorage picks the upload backend. GCS goes through the Firebase
// storage client so both share credentials.
func newFileStorage(ctx context.Context, cfg *config.Config, app *fbapp.App) service.FileStorage {
	if cfg.StorageBackend != "gcs" {
		local, err := storage.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			logger.Fatal("Failed to prepare local uploads: %v", err)
		}
		logger.Info("Storing uploads under %s", cfg.UploadDir)
		return local
	}

	client, err := app.Storage(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize Cloud Storage: %v", err)
	}
	bucket, err := client.Bucket(cfg.StorageBucket)
	if err != nil {
		logger.Fatal("Failed to open bucket %s: %v", cfg.StorageBucket, err)
	}

	gcs := storage.NewGCSStorage(bucket, cfg.StorageBucket)
	if err := gcs.EnsureCORS(ctx, cfg.AllowedOrigins); err != nil {
		logger.Warn("Failed to apply bucket CORS policy: %v", err)
	}
	logger.Info("Storing uploads in gs://%s", cfg.StorageBucket)
	return gcs
}

// newLimiter shares counters through Redis when available.
func newLimiter(ctx context.Context, client *redis.Client, name string, rule ratelimit.Rule) ratelimit.Limiter {
	if client != nil {
		return ratelimit.NewRedisLimiter(client, name, rule)
	}
	limiter := ratelimit.NewMemoryLimiter(rule)
	limiter.StartCleanupRoutine(ctx, limiterSweep)
	return limiter
}

func newRealtime(client *redis.Client) (websocket.Presence, websocket.Fanout) {
	if client != nil {
		return websocket.NewRedisPresence(client), websocket.NewRedisFanout(client)
	}
	return websocket.NewMemoryPresence(), websocket.NewLocalFanout()
}

func readinessChecks(fs *firestore.Client, client *redis.Client) []handler.HealthCheck {
	checks := []handler.HealthCheck{{
		Name: "firestore",
		Check: func(ctx context.Context) error {
			_, err := fs.Collection("health").Doc("ping").Get(ctx)
			if err != nil && status.Code(err) != codes.NotFound {
				return err
			}
			return nil
		},
	}}
	if client != nil {
		checks = append(checks, handler.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
	}
	return checks
}
