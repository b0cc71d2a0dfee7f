package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/constants"
	"github.com/akeren/form-history-api/pkg/retry"
	"github.com/akeren/form-history-api/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // Default: "require" for prod safety
	// Retry governs the initial connection ping. Nil uses retry.DefaultConfig.
	Retry *retry.Config
}

// NewDBConfigFromEnv reads DB_MAX_IDLE_CONNS, DB_MAX_OPEN_CONNS and DB_CONN_MAX_LIFETIME.
func NewDBConfigFromEnv() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    utils.GetEnvPositiveInt("DB_MAX_IDLE_CONNS", constants.DefaultDBMaxIdleConns),
		MaxOpenConns:    utils.GetEnvPositiveInt("DB_MAX_OPEN_CONNS", constants.DefaultDBMaxOpenConns),
		ConnMaxLifetime: utils.GetEnvDuration("DB_CONN_MAX_LIFETIME", constants.DefaultDBConnMaxLifetime),
		SSLMode:         "require",
	}
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = NewDBConfigFromEnv()
	}

	dsn, err := dsnFromEnv(logger, cfg)
	if err != nil {
		logger.Error("Invalid database configuration", "error", err)
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithRetry(logger, sqlDB.PingContext, cfg.Retry); err != nil {
		logger.Error("Database ping failed", "error", err)
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

// pingWithRetry retries transient ping failures, e.g. while postgres is still starting.
func pingWithRetry(logger *log.Logger, ping func(context.Context) error, cfg *retry.Config) error {
	if cfg == nil {
		cfg = retry.DefaultConfig()
	}
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("Database not reachable yet, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
	}

	return retry.NewExponentialBackoff(cfg).Execute(context.Background(), ping)
}

// postgresParams are the discrete POSTGRES_* settings used when APP_DATABASE_URL is unset.
type postgresParams struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (p postgresParams) dsn() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// postgresParamsFromEnv fails listing every missing variable at once.
func postgresParamsFromEnv(defaultSSLMode string) (postgresParams, error) {
	raw := map[string]string{}
	var missing []string
	for _, key := range []string{"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_DB_NAME"} {
		raw[key] = envValue(key)
		if raw[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return postgresParams{}, fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(raw["POSTGRES_PORT"])
	if err != nil || port <= 0 {
		return postgresParams{}, fmt.Errorf("invalid POSTGRES_PORT %q", raw["POSTGRES_PORT"])
	}

	sslMode := envValue("POSTGRES_SSLMODE")
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	return postgresParams{
		Host:     raw["POSTGRES_HOST"],
		Port:     port,
		User:     raw["POSTGRES_USER"],
		Password: envValue("POSTGRES_PASSWORD"),
		DBName:   raw["POSTGRES_DB_NAME"],
		SSLMode:  sslMode,
	}, nil
}

// dsnFromEnv prefers APP_DATABASE_URL and falls back to the POSTGRES_* variables.
func dsnFromEnv(logger *log.Logger, cfg *DBConfig) (string, error) {
	if url := envValue("APP_DATABASE_URL"); url != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		return url, nil
	}

	params, err := postgresParamsFromEnv(cfg.SSLMode)
	if err != nil {
		return "", err
	}

	logger.Info("Connecting to database",
		"host", params.Host,
		"port", params.Port,
		"user", params.User,
		"dbname", params.DBName,
		"sslmode", params.SSLMode,
	)
	return params.dsn(), nil
}

// envValue trims the variable and strips one pair of surrounding quotes, which
// docker env files and some CI secrets leave in place.
func envValue(key string) string {
	s := strings.TrimSpace(os.Getenv(key))
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
