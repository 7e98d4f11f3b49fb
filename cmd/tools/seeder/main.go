// Command seeder loads one or more seed directories (tenant.yaml plus an
// optional loyalty.yaml) into the database.
//
//	go run ./cmd/tools/seeder -dir seeds/warung-sate
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/seed"
)

func main() {
	dirs := flag.String("dir", "seeds/warung-sate", "comma separated seed directories")
	dryRun := flag.Bool("dry-run", false, "validate the seed files without touching the database")
	flag.Parse()

	_ = godotenv.Load()
	logger := obs.NewLogger(obs.LogConfig{Format: "console", Level: "info", Service: "resto-seeder"})

	var bundles []seed.Bundle
	for _, dir := range strings.Split(*dirs, ",") {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		b, err := seed.LoadDir(dir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("load seed")
		}
		bundles = append(bundles, b)
	}
	if *dryRun {
		logger.Info().Int("bundles", len(bundles)).Msg("seed files are valid")
		return
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	s := seed.Seeder{DB: db, Log: logger}
	for _, b := range bundles {
		sum, err := s.Apply(ctx, b)
		if err != nil {
			logger.Fatal().Err(err).Str("tenant", b.File.Tenant.Slug).Msg("apply seed")
		}
		logger.Info().Str("tenant_id", sum.TenantID).Int("pages", sum.Pages).Int("ingredients", sum.Ingredients).Msg("tenant seeded")
	}
}
