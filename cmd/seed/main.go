package main

import (
	"context"
	"flag"
	"log"
	"os"

	"workerbook/core"
)

func main() {
	path := flag.String("file", "", "YAML fixture with users and workers")
	flag.Parse()

	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *path == "" {
		*path = cfg.SeedFile
	}
	if *path == "" {
		log.Fatalf("no fixture given: use -file or SEED_FILE")
	}

	logger := core.NewLogger(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	if err := core.EnsureSchema(ctx, db); err != nil {
		logger.Fatalf("failed to ensure schema: %v", err)
	}

	creds := core.NewCredentialService(core.NewPgCredentialRepository(db), core.NewBcryptHasher(cfg.BcryptCost))
	rep, err := core.SeedFromFile(ctx, creds, *path, logger)
	if err != nil {
		logger.Fatalf("seed failed: %v", err)
	}
	logger.Infof("seed done: created=%d skipped=%d", rep.Created, rep.Skipped)
}
