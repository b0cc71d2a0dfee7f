package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/akeren/form-history-api/config"
	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/migrations"
	"github.com/akeren/form-history-api/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.LoadEnvFiles(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	migrationsCfg := migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", migrations.DefaultDir),
		Logger: logger,
	}

	switch args[0] {
	case "migrate":
		withDatabase(logger, func(ctx context.Context, sqlDB *sql.DB) error {
			return migrations.Up(ctx, sqlDB, migrationsCfg)
		})
		logger.Info("Database migrations completed")

	case "migrate-down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				fmt.Fprintf(os.Stderr, "invalid step count: %s\n", args[1])
				os.Exit(1)
			}
			steps = n
		}

		withDatabase(logger, func(ctx context.Context, sqlDB *sql.DB) error {
			return migrations.Down(ctx, sqlDB, migrationsCfg, steps)
		})
		logger.Info("Database migrations rolled back", "steps", steps)

	case "migrate-version":
		withDatabase(logger, func(ctx context.Context, sqlDB *sql.DB) error {
			version, dirty, err := migrations.Version(ctx, sqlDB, migrationsCfg)
			if err != nil {
				return err
			}
			logger.Info("Schema version", "version", version, "dirty", dirty)
			return nil
		})

	case "migrate-check":
		versions, err := migrations.CheckDir(migrationsCfg.Dir)
		if err != nil {
			logger.Error("Migration files are inconsistent", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Migration files are consistent", "migrations", versions)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// withDatabase connects, runs fn under a five minute deadline and exits on failure.
func withDatabase(logger *log.Logger, fn func(ctx context.Context, sqlDB *sql.DB) error) {
	db, err := config.NewDatabase(logger, config.NewDBConfigFromEnv())
	if err != nil {
		logger.Error("Failed to connect to database for migration", "error", err.Error())
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance for migration", "error", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	err = fn(ctx, sqlDB)
	cancel()

	if closeErr := sqlDB.Close(); closeErr != nil {
		logger.Warn("Failed to close SQL DB after migration", "error", closeErr.Error())
	}

	if err != nil {
		logger.Error("Database migration failed", "error", err.Error())
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate             Apply pending SQL migrations from MIGRATIONS_DIR")
	fmt.Println("  migrate-down [n]    Roll back the last n migrations (default 1)")
	fmt.Println("  migrate-version     Print the current schema version")
	fmt.Println("  migrate-check       Verify every migration has up and down files")
}
