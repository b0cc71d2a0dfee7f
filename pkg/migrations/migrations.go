// Package migrations applies the SQL files under migrations/ with golang-migrate.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	DefaultDir   = "migrations"
	DefaultTable = "schema_migrations"
)

type migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Close() (sourceErr error, databaseErr error)
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
}

var migratorFactory = func(sourceURL string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	Logger          Logger
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = DefaultDir
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		cfg.MigrationsTable = DefaultTable
	}
}

func (cfg Config) info(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Info(msg, args...)
	}
}

func (cfg Config) warn(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Warn(msg, args...)
	}
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	return run(ctx, db, cfg, "up", func(m migrator) error {
		return m.Up()
	})
}

// Down rolls back the given number of applied migrations.
func Down(ctx context.Context, db *sql.DB, cfg Config, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migrations: down steps must be positive, got %d", steps)
	}

	return run(ctx, db, cfg, "down", func(m migrator) error {
		return m.Steps(-steps)
	})
}

// Version reports the current schema version. A database with no applied
// migrations reports version 0.
func Version(ctx context.Context, db *sql.DB, cfg Config) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)

	err := run(ctx, db, cfg, "version", func(m migrator) error {
		v, d, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		version, dirty = v, d
		return err
	})

	return version, dirty, err
}

func run(ctx context.Context, db *sql.DB, cfg Config, op string, fn func(migrator) error) error {
	if db == nil {
		return fmt.Errorf("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg.applyDefaults()

	sourceURL, err := SourceURL(cfg.Dir)
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(sourceURL, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var closeOnce sync.Once
	closeMigrator := func() {
		closeOnce.Do(func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				cfg.warn("Migrations source close error", "error", srcErr)
			}
			if dbErr != nil {
				cfg.warn("Migrations db close error", "error", dbErr)
			}
		})
	}
	defer closeMigrator()

	cfg.info("Running SQL migrations", "op", op, "source", sourceURL, "table", cfg.MigrationsTable)

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn(m)
	}()

	select {
	case <-ctx.Done():
		// migrate has no context support; closing is the only way to interrupt it.
		closeMigrator()
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, migrate.ErrNoChange) {
			cfg.info("No migrations to apply", "op", op)
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrations: %s: %w", op, err)
		}
	}

	cfg.info("Migrations applied successfully", "op", op)
	return nil
}

// SourceURL turns dir into an escaped file:// URL.
func SourceURL(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations: resolve dir: %w", err)
	}

	return (&url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absDir),
	}).String(), nil
}

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

// CheckDir verifies that every migration in dir has both an up and a down file and
// that versions are unique.
func CheckDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: read dir: %w", err)
	}

	type pair struct{ name, up, down string }
	byVersion := map[string]*pair{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("migrations: unexpected file %q", entry.Name())
		}

		version, name, direction := match[1], match[2], match[3]
		p, ok := byVersion[version]
		if !ok {
			p = &pair{name: name}
			byVersion[version] = p
		}
		if p.name != name {
			return nil, fmt.Errorf("migrations: version %s used by %q and %q", version, p.name, name)
		}
		if direction == "up" {
			p.up = entry.Name()
		} else {
			p.down = entry.Name()
		}
	}

	versions := make([]string, 0, len(byVersion))
	for version, p := range byVersion {
		if p.up == "" || p.down == "" {
			return nil, fmt.Errorf("migrations: version %s (%s) needs both up and down files", version, p.name)
		}
		versions = append(versions, version+"_"+p.name)
	}
	sort.Strings(versions)

	return versions, nil
}
