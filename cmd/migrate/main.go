package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/JaimeStill/sightline/internal/config"
	"github.com/JaimeStill/sightline/internal/migrations"
	"github.com/JaimeStill/sightline/pkg/database"
	"github.com/JaimeStill/sightline/pkg/logging"
)

func main() {
	var (
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version (use with caution)")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, closer, err := logging.New(&cfg.Logging, os.Stderr)
	if err != nil {
		log.Fatalf("logging init failed: %v", err)
	}
	defer closer.Close()

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	defer db.Connection().Close()

	ctx := context.Background()
	m, release, err := migrations.Open(ctx, db.Connection(), db.Driver())
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer release()

	logger.Info("migrating", "driver", db.Driver(), "env", cfg.Env())

	switch {
	case *version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return
		}
		if err != nil {
			log.Fatalf("failed to get version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatalf("failed to force version: %v", err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("failed to run up migrations: %v", err)
		}
		fmt.Println("migrations applied successfully")
	case *down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("failed to run down migrations: %v", err)
		}
		fmt.Println("migrations reverted successfully")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("failed to run migrations: %v", err)
		}
		fmt.Printf("applied %d migration steps\n", *steps)
	default:
		fmt.Println("usage: migrate [-up|-down|-steps N|-version|-force N]")
		fmt.Println("connection settings come from config.toml and SIGHTLINE_DB_* variables")
		flag.PrintDefaults()
	}
}
