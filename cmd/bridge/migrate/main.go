package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/chainsafe/billing-bridge/pkg/config"
	"github.com/chainsafe/billing-bridge/pkg/migrations/bridgedb"
	"github.com/chainsafe/billing-bridge/pkg/pgutil"
	mghelper "github.com/chainsafe/billing-bridge/pkg/pgutil/migrations"
)

const usage = `usage: migrate [-config path] <command>

commands:
  init     create migration tables
  up       apply pending migrations
  down     roll back the last migration group
  status   print migration status
`

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail("error reading configuration file: %v", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fail("error setting up logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		fail("error connecting to database: %v", err)
	}
	defer db.Close()

	logger.Info("Running bridge migrations", zap.String("database", cfg.Database.Database))

	migrator := migrate.NewMigrator(db, bridgedb.Migrations)
	if err := mghelper.RunMigrations(context.Background(), migrator, logger, flag.Args()...); err != nil {
		if errors.Is(err, mghelper.ErrNoCommand) {
			flag.Usage()
		}
		fail("%v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
