package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/utils"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

// autoMigrateEnvs are the APP_ENV values where --auto-migrate may run. Empty counts as development.
var autoMigrateEnvs = []string{"", "dev", "development", "local", "test", "testing"}

// envFiles lists the dotenv files for appEnv, most specific first. godotenv never
// overrides a variable that is already set, so earlier files win.
func envFiles(appEnv string) []string {
	if appEnv == "" {
		return []string{".env"}
	}
	return []string{".env." + appEnv + ".local", ".env." + appEnv, ".env"}
}

// LoadEnvFiles loads the dotenv files that exist. SKIP_DOTENV=true disables loading,
// e.g. in containers where the environment is the only source.
func LoadEnvFiles(logger *log.Logger) {
	if utils.GetEnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping .env files (SKIP_DOTENV=true)")
		return
	}

	var loaded []string
	for _, file := range envFiles(GetAppEnv()) {
		err := godotenv.Load(file)
		switch {
		case err == nil:
			loaded = append(loaded, file)
		case errors.Is(err, fs.ErrNotExist):
		default:
			logger.Warn("Failed to load env file", "file", file, "error", err)
		}
	}

	if len(loaded) == 0 {
		logger.Info("No .env file found; using process environment")
		return
	}
	logger.Info("Environment loaded", "files", loaded)
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if slices.Contains(autoMigrateEnvs, env) {
		return nil
	}
	return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: %s)", AppEnvKey, env, strings.Join(autoMigrateEnvs[1:], ", "))
}
