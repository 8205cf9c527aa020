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

	"github.com/gin-gonic/gin"
	"github.com/peterphenikaa/zen8labs-auth/handlers"
	"github.com/peterphenikaa/zen8labs-auth/internal/audit"
	"github.com/peterphenikaa/zen8labs-auth/internal/auth"
	"github.com/peterphenikaa/zen8labs-auth/internal/config"
	"github.com/peterphenikaa/zen8labs-auth/internal/database"
	"github.com/peterphenikaa/zen8labs-auth/internal/sessions"
	"github.com/peterphenikaa/zen8labs-auth/internal/tokens"
	"github.com/peterphenikaa/zen8labs-auth/internal/users"
	"github.com/peterphenikaa/zen8labs-auth/pkg/logger"
	"github.com/peterphenikaa/zen8labs-auth/pkg/metrics"
	"github.com/peterphenikaa/zen8labs-auth/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	logger.Info("config_loaded",
		"users_backend", cfg.Users.Backend,
		"mongo", cfg.MongoDB.URI != "",
		"redis", cfg.Redis.Host != "",
		"rate_limit", cfg.RateLimit.Enabled)

	if err := run(cfg); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.Check{}

	// Redis holds sessions when configured; otherwise they live in process memory.
	var rdb *redis.Client
	var cache sessions.Cache
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis_ping_failed", "addr", cfg.Redis.Addr(), "error", err)
		}
		rc := sessions.NewRedisCache(rdb, cfg.Redis.Prefix)
		cache = rc
		checks["sessions"] = rc.Ping
	} else {
		logger.Warn("redis_not_configured", "fallback", "memory session cache")
		mc := sessions.NewMemoryCache(0)
		cache = mc
		checks["sessions"] = mc.Ping
	}

	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			return err
		}
		mongoClient = client
		defer func() { _ = client.Disconnect(context.Background()) }()
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}

	repo, closeRepo, err := userRepository(ctx, cfg, mongoClient, checks)
	if err != nil {
		return err
	}
	defer closeRepo()

	var rec audit.Recorder = audit.NopRecorder{}
	if mongoClient != nil {
		mrec := audit.NewMongoRecorder(mongoClient.Database(cfg.MongoDB.Database).Collection("auth_events"))
		if err := mrec.EnsureIndexes(ctx); err != nil {
			logger.Warn("audit_index_failed", "error", err)
		}
		rec = mrec
	}

	usersSvc := users.NewService(repo, cfg.Users.BcryptCost)
	signer := tokens.NewSigner(cfg.JWT)
	authSvc := auth.NewService(usersSvc, signer, sessions.NewStore(cache),
		auth.Config{RefreshTTL: cfg.Session.RefreshTTL, MaxSessionsPerUser: cfg.Session.MaxSessionsPerUser},
		auth.WithRecorder(rec))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), middleware.Recovery())

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	handlers.RegisterHealth(r, checks)
	handlers.RegisterSwagger(r)

	guard := middleware.AuthMiddleware(signer, handlers.LoginPath)
	v1 := r.Group("/v1")
	handlers.NewAuthHandler(cfg, authSvc, usersSvc).Register(v1, guard, rateLimiters(cfg, rdb)...)
	handlers.RegisterEventRoutes(v1, rec, guard)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func userRepository(ctx context.Context, cfg *config.Config, mongoClient *mongo.Client, checks map[string]handlers.Check) (users.UserRepository, func(), error) {
	switch cfg.Users.Backend {
	case config.UsersBackendMongo:
		repo := users.NewMongoUserRepository(mongoClient.Database(cfg.MongoDB.Database).Collection("users"))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	case config.UsersBackendPostgres:
		repo, err := users.NewPostgresUserRepository(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, nil, err
		}
		checks["postgres"] = repo.Ping
		return repo, repo.Close, nil
	default:
		logger.Warn("memory_users_backend", "note", "users are lost on restart")
		return users.NewMemoryUserRepository(), func() {}, nil
	}
}

// rateLimiters returns the limiter chain for credential endpoints, empty when disabled.
func rateLimiters(cfg *config.Config, rdb *redis.Client) []gin.HandlerFunc {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	if cfg.RateLimit.UseRedis && rdb != nil {
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		return []gin.HandlerFunc{middleware.RedisRateLimitMiddleware(rdb, cfg.Redis.Prefix, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)}
	}
	return []gin.HandlerFunc{middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)}
}
