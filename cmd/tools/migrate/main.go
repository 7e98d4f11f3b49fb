// Command migrate applies or rolls back the embedded schema migrations.
//
//	go run ./cmd/tools/migrate up
//	go run ./cmd/tools/migrate down -steps 1
//	go run ./cmd/tools/migrate version
//	go run ./cmd/tools/migrate force -version 1
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-resto/internal/db"
	"github.com/noah-isme/backend-resto/internal/obs"
)

func main() {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	steps := fs.Int("steps", 1, "migrations to roll back with down")
	version := fs.Int("version", -1, "version to record with force")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: migrate [up|down|version|force] [flags]")
		fs.PrintDefaults()
	}
	if len(os.Args) < 2 {
		fs.Usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	_ = fs.Parse(os.Args[2:])

	_ = godotenv.Load()
	logger := obs.NewLogger(obs.LogConfig{Format: "console", Level: "info", Service: "resto-migrate"})

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	m, err := db.NewMigrator(dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("close migrator")
		}
	}()

	switch cmd {
	case "up":
		err = db.Up(m)
	case "down":
		err = db.Down(m, *steps)
	case "force":
		if *version < 0 {
			logger.Fatal().Msg("force needs -version")
		}
		err = m.Force(*version)
	case "version":
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", cmd).Msg("migration failed")
	}

	v, dirty, err := db.Version(m)
	if err != nil {
		logger.Fatal().Err(err).Msg("read schema version")
	}
	logger.Info().Str("command", cmd).Uint("version", v).Bool("dirty", dirty).Msg("schema version")
}
