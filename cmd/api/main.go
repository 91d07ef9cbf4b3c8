// Package main is the entrypoint for the teamtodo API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/teamtodo/teamtodo/internal/auth"
	"github.com/teamtodo/teamtodo/internal/cache"
	"github.com/teamtodo/teamtodo/internal/config"
	"github.com/teamtodo/teamtodo/internal/handler"
	"github.com/teamtodo/teamtodo/internal/metrics"
	"github.com/teamtodo/teamtodo/internal/middleware"
	"github.com/teamtodo/teamtodo/internal/notification"
	"github.com/teamtodo/teamtodo/internal/repository"
	"github.com/teamtodo/teamtodo/internal/server"
	"github.com/teamtodo/teamtodo/internal/service"
	"github.com/teamtodo/teamtodo/internal/team"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.StoreDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}

	var cacheClient *cache.Cache
	if cfg.RedisEnabled() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	}

	recorder, metricsHandler := initMetrics(cfg)

	codec, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		logger.Error("failed to create token codec", "error", err)
		os.Exit(1)
	}

	var users auth.UserFinder = store
	if cacheClient != nil {
		users = cache.NewCachedUsers(cacheClient, store, cfg.PrincipalCacheTTL)
	}
	resolver := auth.NewResolver(auth.NewAllowList(auth.DefaultAllowList...), codec, users, recorder)

	cookies := auth.CookieConfig{
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: auth.ParseSameSite(cfg.CookieSameSite),
	}

	// Services
	userService := service.NewUserService(store, auth.NewArgon2Hasher(), codec)
	teamService := team.NewService(store, recorder)
	assignmentService := team.NewAssignmentService(store, recorder)

	healthDeps := []handler.Dependency{{Name: "database", Checker: store}}
	if cacheClient != nil {
		healthDeps = append(healthDeps, handler.Dependency{Name: "redis", Checker: cacheClient})
	} else {
		healthDeps = append(healthDeps, handler.Dependency{Name: "redis"})
	}

	var shutdowns []namedShutdown
	loginLimiter, stopLimiter := initLoginLimiter(cfg, cacheClient)
	if stopLimiter != nil {
		shutdowns = append(shutdowns, namedShutdown{"login-limiter", stopLimiter})
	}

	router := handler.NewRouter(handler.RouterConfig{
		Logger:           logger,
		Resolver:         resolver,
		Cookies:          cookies,
		CORS:             middleware.DefaultCORSConfig(cfg.GetCORSAllowedOrigins()),
		IsDevelopment:    cfg.IsDevelopment(),
		MaxBodySize:      cfg.MaxRequestBodySize,
		LoginLimiter:     loginLimiter,
		RateLimitEnabled: cfg.LoginRateLimitEnabled,
		Index:            handler.New(version),
		Health:           handler.NewHealthHandler(logger, healthDeps...),
		Users:            handler.NewUserHandler(userService, cookies, codec.TTL(), logger),
		Teams:            handler.NewTeamHandler(teamService, logger),
		Assignments:      handler.NewAssignmentHandler(assignmentService, logger),
		Notifications:    handler.NewNotificationHandler(store, logger),
		Metrics:          metricsHandler,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first, stopped last.
	srv.OnShutdown("store", closeStore)
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error { return cacheClient.Close() })
	}
	for _, s := range shutdowns {
		srv.OnShutdown(s.name, s.fn)
	}

	if cfg.NotificationWorkerEnabled {
		worker := notification.NewWorker(
			cacheClient.Client(),
			notification.NewTrigger(store),
			logger,
			notification.NewConsumerID(),
			recorder,
		)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("notification worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("notification-worker", worker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", version,
		"store", cfg.StoreDriver,
		"redis", cfg.RedisEnabled(),
		"notification_worker", cfg.NotificationWorkerEnabled,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type namedShutdown struct {
	name string
	fn   server.ShutdownFunc
}

// openStore connects the configured store and applies migrations when asked.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, server.ShutdownFunc, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemory(), func(context.Context) error { return nil }, nil
	}

	if cfg.RunMigrations {
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to database")
	return repo, func(context.Context) error {
		repo.Close()
		return nil
	}, nil
}

// initMetrics picks the recorder and the /metrics handler for the backend.
func initMetrics(cfg *config.Config) (metrics.Recorder, http.Handler) {
	if cfg.MetricsBackend == config.MetricsBackendMemory {
		rec := metrics.NewInMemory()
		return rec, http.HandlerFunc(handler.NewMetricsHandler(rec).Metrics)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.NewPrometheus(reg), metrics.Handler(reg)
}

// initLoginLimiter shares limits through Redis when available and falls back
// to a per-process limiter otherwise.
func initLoginLimiter(cfg *config.Config, c *cache.Cache) (middleware.Limiter, server.ShutdownFunc) {
	if c != nil {
		return c.NewIPRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst), nil
	}
	local := middleware.NewLocalLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst, time.Minute)
	return local, func(context.Context) error {
		local.Stop()
		return nil
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "teamtodo")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL drops passwords from connection strings before they are logged.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	if q := parsed.Query(); q.Has("password") {
		q.Set("password", "redacted")
		parsed.RawQuery = q.Encode()
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, redactURL(secret))
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
