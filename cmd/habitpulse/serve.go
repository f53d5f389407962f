package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/config"
	"github.com/JonnyWalker81/habitpulse/backend/internal/events"
	"github.com/JonnyWalker81/habitpulse/backend/internal/handlers"
	"github.com/JonnyWalker81/habitpulse/backend/internal/lock"
	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/JonnyWalker81/habitpulse/backend/internal/middleware"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository/postgres"
	"github.com/JonnyWalker81/habitpulse/backend/internal/scheduler"
	"github.com/JonnyWalker81/habitpulse/backend/internal/service"
	"github.com/JonnyWalker81/habitpulse/backend/pkg/supabase"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and the periodic analysis scheduler.`,
	RunE:  runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func newLogger(cfg config.LoggingConfig, out io.Writer) logger.Logger {
	log := logger.New(logger.Config{
		Level:   logger.ParseLevel(cfg.Level),
		Format:  cfg.Format,
		Backend: cfg.Backend,
		Output:  out,
	})
	logger.SetDefault(log)
	return log
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port != "" {
		cfg.Server.Port = port
	}

	log := newLogger(cfg.Logging, os.Stdout)
	log.Info("starting habitpulse server",
		logger.String("env", cfg.Server.Env),
		logger.String("store", cfg.Store.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var supabaseClient *supabase.Client
	if cfg.Supabase.URL != "" {
		supabaseClient = supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	}

	var store *repository.Store
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}
			log.Info("database schema applied")
		}
		store = postgres.NewStore(pool)
	default:
		store = repository.NewSupabaseStore(supabaseClient)
	}

	var locker lock.UserLocker = lock.NewKeyedMutex()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable at startup", logger.String("addr", cfg.Redis.Addr), logger.Err(err))
		}
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LeaseTTL)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			// alerts are still stored; only the notification fan-out is lost
			log.Error("alert events disabled", logger.Err(err))
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
		}
	}

	policy := cfg.Analysis.Policy
	services := handlers.Services{
		Analysis:     service.NewAnalysisService(store, locker, publisher, policy),
		Patterns:     service.NewPatternService(store, policy),
		Correlations: service.NewCorrelationService(store),
		Risk:         service.NewRiskService(store, policy),
	}

	var verifier middleware.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = middleware.NewJWTVerifier(cfg.Auth.JWTSecret)
	} else {
		verifier = middleware.NewSupabaseVerifier(supabaseClient)
	}

	var runLimiter *middleware.RateLimiter
	if cfg.Analysis.RunsPerMinute > 0 {
		runLimiter = middleware.NewRateLimiter(cfg.Analysis.RunsPerMinute, cfg.Analysis.RunBurst, "analysis_run")
		go runLimiter.RunCleanup(5*time.Minute, ctx.Done())
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Env:         cfg.Server.Env,
		Logger:      log,
		Verifier:    verifier,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		RunLimiter:  runLimiter,
	}, services)

	if cfg.Analysis.ScheduleInterval > 0 {
		lookback := time.Duration(policy.WindowDays) * 24 * time.Hour
		sched := scheduler.New(store.Activities, services.Analysis, log.With(logger.String("component", "scheduler")), cfg.Analysis.ScheduleInterval, lookback)
		go sched.Start(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
