package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "athleteapi/docs"
	"athleteapi/internal/config"
	"athleteapi/internal/events"
	"athleteapi/internal/handlers"
	"athleteapi/internal/logger"
	"athleteapi/internal/metrics"
	"athleteapi/internal/middleware"
	"athleteapi/internal/repositories"
	"athleteapi/internal/routes"
	"athleteapi/internal/services"
	"athleteapi/internal/utils"
)

// Run starts the API and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}()
	if cfg.Database.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxConns)
		db.SetMaxIdleConns(cfg.Database.MaxConns)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	// === Optional infrastructure ===
	var cache services.RevocationCache
	if cfg.Redis.URL != "" {
		rdb, err := connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn("redis unavailable, revocation cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			cache = repositories.NewBannedTokenCache(rdb, cfg.Redis.Key)
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		np, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Warn("nats unavailable, events disabled", zap.Error(err))
		} else {
			publisher = np
		}
	}
	defer publisher.Close()

	m := metrics.New()

	// === Repos ===
	verificationRepo := repositories.NewPhoneVerificationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	bannedRepo := repositories.NewBannedTokenRepository(db)

	// === Services ===
	codec := utils.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	log.Info("token codec ready", zap.Duration("ttl", codec.TTL()))
	if cfg.Nexmo.DryRun {
		log.Warn("nexmo dry-run enabled: codes are not sent or checked")
	}
	nexmo := utils.NewNexmoClient(
		cfg.Nexmo.BaseURL,
		cfg.Nexmo.APIKey,
		cfg.Nexmo.APISecret,
		cfg.Nexmo.Brand,
		cfg.Nexmo.Timeout,
		cfg.Nexmo.DryRun,
		log.Named("nexmo"),
	)

	userService := services.NewUserService(userRepo, log.Named("users"))
	revocationService := services.NewRevocationService(bannedRepo, cache, publisher, log.Named("revocation"))
	verificationService := services.NewVerificationService(
		nexmo,
		verificationRepo,
		userService,
		codec,
		publisher,
		m,
		log.Named("verification"),
	)

	// === Handlers ===
	h := routes.Handlers{
		Auth:  handlers.NewAuthHandler(verificationService, log),
		Admin: handlers.NewAdminHandler(revocationService, cfg.Admin.PassCodeHash, log),
		User:  handlers.NewUserHandler(userService, log),
		Info:  handlers.NewInfoHandler(cfg.Server.Environment),
	}
	gate := middleware.NewAccessGate(cfg.Auth, revocationService, codec, m, log.Named("gate"))

	// === Gin ===
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log.Named("http")))
	router.Use(middleware.Recovery(log))
	router.Use(corsMiddleware(cfg.Auth.TokenHeader, cfg.Auth.IdentityHeader))
	routes.SetupRoutes(router, gate, h, m.Handler())

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// corsMiddleware answers preflight requests before the access gate runs and
// exposes the session headers to browsers.
func corsMiddleware(tokenHeader, identityHeader string) gin.HandlerFunc {
	allow := []string{"Origin", "Content-Type", middleware.HeaderRequestID}
	if tokenHeader != "" {
		allow = append(allow, tokenHeader)
	}
	expose := []string{middleware.HeaderRequestID}
	if identityHeader != "" {
		expose = append(expose, identityHeader)
	}
	allowHeaders := strings.Join(allow, ", ")
	exposeHeaders := strings.Join(expose, ", ")

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		c.Writer.Header().Set("Access-Control-Expose-Headers", exposeHeaders)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
