package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "modernc.org/sqlite"

	emailPkg "coachdesk/internal/adapters/email"
	web "coachdesk/internal/adapters/http"
	"coachdesk/internal/adapters/http/metrics"
	"coachdesk/internal/adapters/http/middleware"
	"coachdesk/internal/adapters/storage"
	accountStore "coachdesk/internal/adapters/storage/account"
	profileStore "coachdesk/internal/adapters/storage/profile"
	resultStore "coachdesk/internal/adapters/storage/result"
	templateStore "coachdesk/internal/adapters/storage/template"
	weekStore "coachdesk/internal/adapters/storage/week"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/config"
	"coachdesk/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	env := flag.String("env", "development", "environment [dev | development | prod | production]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	_, logCloser := logging.Setup(logging.SetupParams{
		LogFile:     cfg.LogFile,
		LogToStdout: cfg.LogToStdout,
		LogLevel:    cfg.LogLevel,
		JSON:        cfg.LogJSON,
	})
	defer logCloser.Close()

	if err := run(*env, cfg); err != nil {
		slog.Error("server_event", "event", "fatal", "error", err)
		os.Exit(1)
	}
}

func run(env string, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WAL mode, foreign keys and busy timeout on every connection
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.InitDB(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("server_event", "event", "database_ready", "path", cfg.DBPath)

	var metricsManager *metrics.Manager
	var queryObserver storage.QueryObserver
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsManager = metrics.NewManager(metrics.DefaultNamespace, metrics.DefaultSubsystem, reg)
		queryObserver = metricsManager
	}
	timedDB := storage.NewTimedDB(db, queryObserver, cfg.SlowQueryMs)

	stores := &web.Stores{
		AccountStore:  accountStore.NewSQLiteStore(timedDB),
		ProfileStore:  profileStore.NewSQLiteStore(timedDB),
		TemplateStore: templateStore.NewSQLiteStore(timedDB),
		WeekStore:     weekStore.NewSQLiteStore(timedDB),
		ResultStore:   resultStore.NewSQLiteStore(timedDB),
	}

	seedDeps := orchestrators.RegisterDeps{
		AccountStore: stores.AccountStore,
		ProfileStore: stores.ProfileStore,
		GenerateID:   func() string { return uuid.New().String() },
		Now:          time.Now,
	}
	if err := orchestrators.ExecuteSeedCoach(ctx, cfg.SeedCoachEmail, cfg.SeedCoachPass, seedDeps); err != nil {
		return fmt.Errorf("seed coach: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	opts := web.Options{
		CSRFKey:        []byte(cfg.CSRFKey),
		SecureCookies:  cfg.SecureCookies,
		TrustedOrigins: cfg.TrustedOrigins,
		Notifier:       emailPkg.NewNotifier(newSender(env, cfg), cfg.BaseURL),
		Metrics:        metricsManager,
		SessionTTL:     cfg.SessionTTL.Duration,
		RememberMeTTL:  cfg.RememberMeTTL.Duration,
		SlowRequestMs:  cfg.SlowRequestMs,
		Location:       loc,
	}
	if cfg.JWTSecret != "" {
		opts.Tokens = middleware.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL.Duration)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}
		opts.Sessions = middleware.NewRedisSessionStore(rdb)
		opts.Limiter = middleware.NewRedisLimiter(redis_rate.NewLimiter(rdb), cfg.RateLimitPerSec)
		slog.Info("server_event", "event", "redis_ready", "addr", cfg.RedisAddr)
	} else {
		opts.Limiter = middleware.NewMemoryLimiter(cfg.RateLimitPerSec, time.Second)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           web.NewMux(stores, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "listening", "version", version, "addr", srv.Addr, "env", env)
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

	slog.Warn("server_event", "event", "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutS)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newSender picks Resend when a key is configured, otherwise the noop sender.
func newSender(env string, cfg *config.Config) emailPkg.Sender {
	if cfg.ResendKey != "" {
		slog.Info("server_event", "event", "email_sender", "sender", "resend")
		return emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.EmailReplyTo)
	}
	if env == "prod" || env == "production" {
		slog.Warn("server_event", "event", "email_sender", "sender", "noop", "detail", "COACHDESK_RESEND_KEY is not set; notifications are disabled")
	} else {
		slog.Info("server_event", "event", "email_sender", "sender", "noop")
	}
	return emailPkg.NewNoopSender()
}
