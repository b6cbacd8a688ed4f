// Package migrations applies versioned mongo commands (indexes, validators)
// embedded by each service.
package migrations

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Source is a directory of migrate json files (`<version>_<name>.up.json`).
type Source struct {
	FS  fs.FS
	Dir string
}

type Migrator interface {
	// Up applies every pending migration.
	Up() error
	// Version returns the applied version and whether the last run left it dirty.
	Version() (uint, bool, error)
}

type migrator struct {
	source Source
	uri    string
	log    *zap.Logger
}

func newMigrator(source Source, uri string, log *zap.Logger) (Migrator, error) {
	if source.FS == nil {
		return nil, fmt.Errorf("migrations filesystem is required")
	}
	if uri == "" {
		return nil, fmt.Errorf("migrations database uri is required")
	}
	if source.Dir == "" {
		source.Dir = "."
	}
	return &migrator{source: source, uri: uri, log: log}, nil
}

func (m *migrator) open() (*migrate.Migrate, error) {
	src, err := iofs.New(m.source.FS, m.source.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source: %w", err)
	}
	mi, err := migrate.NewWithSourceInstance("iofs", src, m.uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mi, nil
}

func (m *migrator) close(mi *migrate.Migrate) {
	srcErr, dbErr := mi.Close()
	if srcErr != nil {
		m.log.Warn("failed to close migrations source", zap.Error(srcErr))
	}
	if dbErr != nil {
		m.log.Warn("failed to close migrations database", zap.Error(dbErr))
	}
}

func (m *migrator) Up() error {
	mi, err := m.open()
	if err != nil {
		return err
	}
	defer m.close(mi)

	err = mi.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations up: %w", err)
	}

	version, dirty, err := mi.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	m.log.Info("migrations applied",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

func (m *migrator) Version() (uint, bool, error) {
	mi, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer m.close(mi)

	version, dirty, err := mi.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
