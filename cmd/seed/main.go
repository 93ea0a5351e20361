package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"experiences/internal/adapters/auth"
	"experiences/internal/adapters/objectstore"
	"experiences/internal/adapters/observability"
	"experiences/internal/app"
	"experiences/internal/domain"
	"experiences/internal/shared"
	"experiences/internal/storage/memory"
	mysqlrepo "experiences/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("file", cfg.SeedFile).
		Int("workers", cfg.SeedWorkers).
		Str("storage", cfg.Storage).
		Msg("seed starting")

	f, err := os.Open(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("open seed file failed")
	}
	fx, err := app.DecodeSeed(f)
	_ = f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("seed file invalid")
	}

	var store domain.Store
	if cfg.Storage == "memory" {
		log.Warn().Msg("seeding in-memory storage; nothing survives this process")
		store = memory.New()
	} else {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("db ping ok")
		store = mysqlrepo.New(db)
	}

	// tokens are issued on signup but never handed out here
	tokens, err := auth.NewTokens(seedSecret(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer init failed")
	}

	accounts := app.NewAccountService(store, store, store, auth.Bcrypt{Cost: cfg.BcryptCost}, tokens, objectstore.Unconfigured{})
	exps := app.NewExperienceService(store, store, nil, app.ExperienceOptions{})

	rep, err := app.NewSeedService(accounts, exps, cfg.SeedWorkers).Run(ctx, fx)
	if err != nil {
		log.Fatal().Err(err).Msg("seed aborted")
	}
	log.Info().
		Int("users", rep.Users).
		Int("created", rep.Created).
		Int("failed", rep.Failed).
		Msg("seed completed")
}

func seedSecret(s string) string {
	if len(s) >= 16 {
		return s
	}
	return "seed-only-signing-secret"
}
