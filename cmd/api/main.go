package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/sessions"

	"workerbook/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx := context.Background()
	startedAt := time.Now()

	logger, logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	if err := core.EnsureSchema(ctx, db); err != nil {
		logger.Fatalf("failed to ensure schema: %v", err)
	}

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	// Gorilla cookie store carries only the opaque session token.
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))

	credRepo := core.NewPgCredentialRepository(db)
	creds := core.NewCredentialService(credRepo, core.NewBcryptHasher(cfg.BcryptCost))
	sessionStore := core.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	ledger := core.NewBookingLedger(core.NewPgBookingRepository(db), logger)

	if cfg.SeedFile != "" {
		rep, err := core.SeedFromFile(ctx, creds, cfg.SeedFile, logger)
		if err != nil {
			logger.Fatalf("seed failed: %v", err)
		}
		logger.Infof("seed applied: created=%d skipped=%d", rep.Created, rep.Skipped)
	}

	svc := core.Services{
		Credentials: creds,
		Auth:        core.NewSessionAuthority(creds, sessionStore, logger),
		Ledger:      ledger,
		Views:       core.NewViewAssembler(credRepo, ledger),
		Status:      core.NewStatusCollector(db, redisClient, sessionStore, startedAt),
	}
	router := core.NewRouter(cfg, store, svc, logger)

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Infof("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
