package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	amqpad "experiences/internal/adapters/amqp"
	"experiences/internal/adapters/auth"
	server "experiences/internal/adapters/http_server"
	"experiences/internal/adapters/objectstore"
	"experiences/internal/adapters/observability"
	redisad "experiences/internal/adapters/redis"
	"experiences/internal/app"
	"experiences/internal/domain"
	"experiences/internal/shared"
	"experiences/internal/storage/memory"
	mysqlrepo "experiences/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(cfg)
	defer closeStore()

	// cache is optional; the services run uncached without it
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, caching disabled")
		} else {
			cache = rc
			defer func() { _ = rc.Close() }()
		}
	}

	var objs domain.ObjectStore = objectstore.Unconfigured{}
	if cfg.S3Bucket != "" {
		c, err := objectstore.New(ctx, objectstore.Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			BaseURL:   cfg.S3BaseURL,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			RPS:       cfg.S3RPS,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("object store init failed")
		}
		objs = c
	}

	var events domain.EventPublisher
	if cfg.AMQPURL != "" {
		events = amqpad.NewPublisher(cfg.AMQPURL)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.AppEnv != "dev" && cfg.AppEnv != "development" {
			log.Fatal().Msg("JWT_SECRET is required outside dev")
		}
		secret = "dev-only-insecure-secret"
		log.Warn().Msg("JWT_SECRET is empty; using the dev secret")
	}
	tokens, err := auth.NewTokens(secret, cfg.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer init failed")
	}

	// deps
	h := &server.Handlers{
		Experiences: app.NewExperienceService(store, store, cache, app.ExperienceOptions{
			CacheTTL:           cfg.CacheTTL,
			DetailRequiresAuth: cfg.DetailRequiresAuth,
		}),
		Bookings:       app.NewBookingService(store, store, events),
		Reviews:        app.NewReviewService(store, store, cache, cfg.CacheTTL),
		Photos:         app.NewPhotoService(store, store, objs, cache),
		Accounts:       app.NewAccountService(store, store, store, auth.Bcrypt{Cost: cfg.BcryptCost}, tokens, objs),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	// http
	srv := server.New(tokens)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdown); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.Storage).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func openStore(cfg shared.Config) (domain.Store, func()) {
	if cfg.Storage == "memory" {
		log.Warn().Msg("using in-memory storage; data is lost on exit")
		return memory.New(), func() {}
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	return mysqlrepo.New(db), func() { _ = db.Close() }
}
