// Command migrate applies the PostgreSQL schema: migrate [up|down|status]
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/accounts/internal/config"
	"github.com/BradenHooton/accounts/internal/database"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Driver != config.DriverPostgres {
		// the MySQL backend manages its schema through GORM on startup
		logger.Error("migrations only apply to the postgres driver", slog.String("driver", cfg.Driver))
		os.Exit(1)
	}

	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := database.RunMigrations(ctx, sqlDB, command, logger); err != nil {
		logger.Error("migration failed", slog.String("command", command), slog.Any("error", err))
		cancel()
		os.Exit(1)
	}

	logger.Info("migration complete", slog.String("command", command))
}
