package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/solarml/internal/auth"
	"github.com/geocoder89/solarml/internal/config"
	"github.com/geocoder89/solarml/internal/db"
	httpx "github.com/geocoder89/solarml/internal/http"
	"github.com/geocoder89/solarml/internal/mailer"
	"github.com/geocoder89/solarml/internal/observability"
	"github.com/geocoder89/solarml/internal/predictor"
	"github.com/geocoder89/solarml/internal/redisclient"
	"github.com/geocoder89/solarml/internal/repo/postgres"
	"github.com/geocoder89/solarml/internal/verification"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	// tracing is opt-in
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	{
		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
	}

	// redis is optional; without it the rate limiter falls back to
	// per-process counters
	var rdb *redis.Client

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})

		ctx, cancel := config.WithTimeout(3 * time.Second)
		defer cancel()

		if err := rc.Ping(ctx); err != nil {
			log.Error("redis ping failed", "err", err)
			os.Exit(1)
		}

		defer rc.Close()
		rdb = rc.Raw()
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	var mail mailer.Mailer

	if cfg.SMTP.Configured() {
		mail = mailer.NewSMTP(cfg.SMTP)
	} else {
		log.Warn("smtp not configured, mail goes to the log")
		mail = mailer.NewLogMailer(log)
	}

	mail = mailer.NewInstrumented(mailer.NewProtected(mail, mailer.ProtectedConfig{}), prom)

	usersRepo := postgres.NewInstrumentedUsersRepo(postgres.NewUsersRepo(pool), prom)
	service := verification.NewService(usersRepo, mail, nil)

	predictorClient := predictor.NewClient(cfg.PredictorURL, cfg.PredictorTimeout, log, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL)

	router := httpx.NewRouter(httpx.Deps{
		Cfg:       cfg,
		Log:       log,
		Pool:      pool,
		Redis:     rdb,
		Prom:      prom,
		Service:   service,
		Users:     usersRepo,
		Predictor: predictorClient,
		JWT:       jwtManager,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
