package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/escape-finder/api-go/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	migrationUp   = "up"
	migrationDown = "down"
)

var (
	migrationsPath  string
	migrationsTable string
	migrateSteps    int
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back SQL migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{migrationUp, migrationDown},
	RunE:      runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsPath, "path", "migrations", "Directory holding the migration files")
	migrateCmd.Flags().StringVar(&migrationsTable, "table", "schema_migrations", "Name of the migrations table")
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0, "Apply at most this many migrations (0 = all)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	m, err := migrate.New("file://"+migrationsPath, migrateURL(config.Load(), migrationsTable))
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch {
	case migrateSteps > 0 && args[0] == migrationDown:
		err = m.Steps(-migrateSteps)
	case migrateSteps > 0:
		err = m.Steps(migrateSteps)
	case args[0] == migrationDown:
		err = m.Down()
	default:
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", args[0], err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return verr
	}
	logger.Info("migrations applied", zap.String("direction", args[0]), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// migrateURL builds a postgres:// URL from DATABASE_URL or the DB_* settings.
func migrateURL(cfg config.Config, table string) string {
	var u *url.URL
	if cfg.DatabaseURL != "" {
		parsed, err := url.Parse(cfg.DatabaseURL)
		if err == nil && parsed.Scheme != "" {
			u = parsed
		}
	}
	if u == nil {
		u = &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.DBUser, cfg.DBPassword),
			Host:   cfg.DBHost + ":" + cfg.DBPort,
			Path:   "/" + cfg.DBName,
		}
		q := u.Query()
		q.Set("sslmode", cfg.DBSSLMode)
		u.RawQuery = q.Encode()
	}
	if u.Scheme == "postgresql" {
		u.Scheme = "postgres"
	}
	q := u.Query()
	if table != "" {
		q.Set("x-migrations-table", table)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
