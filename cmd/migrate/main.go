// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate            apply every pending migration
//	migrate -down 1    roll back the most recent migration
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/iliyamo/campus-room-booking/internal/config"
	"github.com/iliyamo/campus-room-booking/internal/database"
	"github.com/iliyamo/campus-room-booking/internal/logger"
)

func main() {
	down := flag.Int("down", 0, "number of migrations to roll back instead of migrating up")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.OpenForMigrations(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if *down > 0 {
		err = database.RollbackMigrations(db, *down, log)
	} else {
		err = database.RunMigrations(db, log)
	}
	if err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}
