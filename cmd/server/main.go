package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/coachsync/internal/bootstrap"
	"github.com/aryan0dhankhar/coachsync/internal/events"
	"github.com/aryan0dhankhar/coachsync/internal/featureflags"
	"github.com/aryan0dhankhar/coachsync/internal/handler"
	"github.com/aryan0dhankhar/coachsync/internal/infrastructure/emailjs"
	"github.com/aryan0dhankhar/coachsync/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/coachsync/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/coachsync/internal/mirror"
	"github.com/aryan0dhankhar/coachsync/internal/observability/metrics"
	"github.com/aryan0dhankhar/coachsync/internal/observability/tracing"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/internal/security"
	"github.com/aryan0dhankhar/coachsync/internal/security/audit"
	"github.com/aryan0dhankhar/coachsync/internal/security/auth"
	"github.com/aryan0dhankhar/coachsync/internal/security/middleware"
	"github.com/aryan0dhankhar/coachsync/internal/security/ratelimit"
	"github.com/aryan0dhankhar/coachsync/internal/service"
	"github.com/aryan0dhankhar/coachsync/internal/worker"
	"github.com/aryan0dhankhar/coachsync/pkg/config"
	"github.com/aryan0dhankhar/coachsync/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting CoachSync server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "coachsync", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to the store and provision every relation
	pool, err := database.NewConnectionPool(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	client := pool.Store()

	provisioner := bootstrap.New(client, log,
		bootstrap.WithRetry(cfg.BootstrapAttempts, 500*time.Millisecond),
		bootstrap.WithDemoOrganization(featureflags.Enabled(featureflags.SeedDemoOrg)),
	)
	if err := provisioner.EnsureAll(ctx); err != nil {
		log.Error("failed to bootstrap schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Initialize repositories and the event bus
	repos := repository.New(client, provisioner, log)

	var (
		bus         events.Bus
		redisPinger handler.Pinger
	)
	if cfg.Redis.URL == "" {
		bus = events.NewLocalBus()
	} else {
		redisClient, err := redis.NewClient(cfg.Redis.URL, log)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		redisBus, err := redis.NewEventBus(ctx, redisClient)
		if err != nil {
			log.Error("failed to subscribe to Redis events", slog.String("error", err.Error()))
			os.Exit(1)
		}
		bus = redisBus
		redisPinger = redisClient
	}
	defer bus.Close()

	registry := mirror.NewRegistry(repos, bus, cfg.MirrorTTL, log)
	registry.Start(ctx)
	defer registry.Close()

	// 6. Initialize services
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	tokenManager := auth.NewTokenManager(secret, "coachsync", cfg.Auth.TokenTTL)
	authService := service.NewAuthService(repos, tokenManager, service.AdminCredentials{
		Username: cfg.Auth.AdminUsername,
		Password: cfg.Auth.AdminPassword,
	}, log)
	adminService := service.NewAdminService(repos, provisioner, bus, log)
	mailer := emailjs.NewClient(cfg.EmailJS.Endpoint, emailjs.Credentials{
		ServiceID:  cfg.EmailJS.ServiceID,
		TemplateID: cfg.EmailJS.TemplateID,
		PublicKey:  cfg.EmailJS.PublicKey,
		PrivateKey: cfg.EmailJS.PrivateKey,
	}, log)
	if !mailer.Configured() {
		log.Info("EmailJS not configured, email runs in demo mode")
	}
	emailService := service.NewEmailService(repos, mailer, log)

	// 6a. Initialize security components
	authz := security.NewAuthorizationService(log)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute)
	auditLogger := audit.NewLogger(log)

	// 7. Initialize handlers and routes
	handlers := handler.Handlers{
		Health: handler.NewHealthHandler(client, redisPinger, log),
		Auth:   handler.NewAuthHandler(authService, registry, auditLogger, log),
		State:  handler.NewStateHandler(registry, authz, emailService, log),
		Admin:  handler.NewAdminHandler(adminService, authz, log),
	}
	if featureflags.Enabled(featureflags.LiveEvents) {
		handlers.Events = handler.NewEventsHandler(bus, cfg.CORSAllowedOrigins, log)
	}

	mux := http.NewServeMux()
	handler.Register(mux, handlers)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chain middleware: request ID -> CORS -> metrics -> JWT -> rate limit -> audit -> validation
	rootHandler := middleware.Chain(mux,
		middleware.RequestID(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		metrics.HTTPMetricsMiddleware,
		middleware.JWTMiddleware(tokenManager, log),
		middleware.RateLimitMiddleware(rateLimiter, log),
		middleware.AuditMiddleware(auditLogger),
		middleware.ValidateJSONContentType(log),
		middleware.SanitizeInputs(log),
	)

	// 8. Start recount worker in background
	recountWorker := worker.NewRecountWorker(adminService, log, cfg.RecountInterval)
	go recountWorker.Start(ctx)

	// 9. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "coachsync"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("store", pool.Driver()),
		slog.Bool("redis", cfg.Redis.URL != ""),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop worker and event relay
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("coachsync-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
