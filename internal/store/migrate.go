// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package store

import (
	"cmp"
	"embed"
	"errors"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema change.
type Migration struct {
	Version uint
	// Name is the file stem, e.g. "000001_create_users".
	Name string
}

// Status summarises the schema state of a database.
type Status struct {
	Version uint
	Dirty   bool
	Applied []Migration
	Pending []Migration
}

// catalog parses the embedded directory once; the embedded FS never changes.
var catalog = sync.OnceValues(func() ([]Migration, error) {
	return readCatalog(migrationsFS)
})

// Migrations lists the embedded migrations in version order.
func Migrations() ([]Migration, error) {
	all, err := catalog()
	if err != nil {
		return nil, err
	}
	return slices.Clone(all), nil
}

func readCatalog(fsys fs.FS) ([]Migration, error) {
	files, err := fs.Glob(fsys, "migrations/*.up.sql")
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").Wrap(err)
	}

	out := make([]Migration, 0, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".up.sql")
		prefix, _, _ := strings.Cut(name, "_")
		version, err := strconv.ParseUint(prefix, 10, 0)
		if err != nil || len(prefix) != 6 {
			return nil, oops.Code("MIGRATION_NAME_INVALID").
				With("file", file).
				Errorf("migration %q is not named NNNNNN_name.up.sql", file)
		}
		out = append(out, Migration{Version: uint(version), Name: name})
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
}

// schemaDriver is the part of *migrate.Migrate the Migrator drives.
type schemaDriver interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded users schema to a PostgreSQL database.
type Migrator struct {
	driver schemaDriver
}

// NewMigrator opens a Migrator for databaseURL. postgres:// and
// postgresql:// URLs are accepted.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}

	driver, err := migrate.NewWithSourceInstance("iofs", source, MigrateURL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // the init error is the one worth reporting
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("operation", "initialize migrator").Wrap(err)
	}
	return &Migrator{driver: driver}, nil
}

// MigrateURL rewrites a libpq style URL to the pgx5:// scheme registered by
// the golang-migrate driver.
func MigrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(databaseURL, scheme); found {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	return migrateStep("MIGRATION_UP_FAILED", m.driver.Up)
}

// Down rolls the schema back to version 0, dropping the users table.
func (m *Migrator) Down() error {
	return migrateStep("MIGRATION_DOWN_FAILED", m.driver.Down)
}

func migrateStep(code string, step func() error) error {
	if err := step(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code(code).Wrap(err)
	}
	return nil
}

// Version reports the applied version and whether the last migration failed
// partway. An empty database is version 0 and clean.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.driver.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied and clears the dirty flag without running
// any SQL.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.driver.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Status splits the embedded migrations into applied and pending.
func (m *Migrator) Status() (Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return Status{}, oops.With("operation", "migration status").Wrap(err)
	}
	all, err := catalog()
	if err != nil {
		return Status{}, err
	}

	status := Status{Version: version, Dirty: dirty}
	for _, mig := range all {
		if mig.Version <= version {
			status.Applied = append(status.Applied, mig)
		} else {
			status.Pending = append(status.Pending, mig)
		}
	}
	return status, nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.driver.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
