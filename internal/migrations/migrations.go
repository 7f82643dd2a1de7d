// Package migrations applies the embedded Postgres schema with golang-migrate
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"wikidomains/internal/platform/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Source returns the embedded migrations as a golang-migrate source
func Source() (source.Driver, error) { return iofs.New(files, "sql") }

// DriverURL rewrites a postgres URL to the pgx5 scheme golang-migrate expects
func DriverURL(dbURL string) (string, error) {
	for _, scheme := range []string{"postgres://", "postgresql://", "pgx5://"} {
		if strings.HasPrefix(dbURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(dbURL, scheme), nil
		}
	}
	return "", fmt.Errorf("migrations: unsupported database url scheme")
}

func open(dbURL string) (*migrate.Migrate, error) {
	src, err := Source()
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	u, err := DriverURL(dbURL)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, u)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// Up applies every pending migration
func Up(dbURL string) error {
	m, err := open(dbURL)
	if err != nil {
		return err
	}
	defer closeQuietly(m)

	log := logger.Named("migrate")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("no pending migrations")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}
	v, _, _ := m.Version()
	log.Info().Uint("version", v).Msg("migrations applied")
	return nil
}

// Down rolls back steps migrations, at least one
func Down(dbURL string, steps int) error {
	m, err := open(dbURL)
	if err != nil {
		return err
	}
	defer closeQuietly(m)

	if err := m.Steps(-max(1, steps)); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("rollback migrations: %w", err)
	}
	logger.Named("migrate").Info().Int("steps", max(1, steps)).Msg("migrations rolled back")
	return nil
}

// Version reports the applied version, zero when the schema is empty
func Version(dbURL string) (uint, bool, error) {
	m, err := open(dbURL)
	if err != nil {
		return 0, false, err
	}
	defer closeQuietly(m)

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return v, dirty, nil
}

// Force sets the version without running anything, used to clear a dirty state
func Force(dbURL string, version int) error {
	m, err := open(dbURL)
	if err != nil {
		return err
	}
	defer closeQuietly(m)

	if err := m.Force(version); err != nil {
		return fmt.Errorf("force migration version: %w", err)
	}
	return nil
}

func closeQuietly(m *migrate.Migrate) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		logger.Named("migrate").Warn().AnErr("source", srcErr).AnErr("db", dbErr).Msg("close migrate")
	}
}
