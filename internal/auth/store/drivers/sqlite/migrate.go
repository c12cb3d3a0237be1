package sqlite

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/aussiebroadwan/hotellisting/internal/auth/store/drivers/sqlite/migrations"
)

func (m *Store) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("sqlite: migration source: %w", err)
	}
	db, err := migratesqlite.WithInstance(m.db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite: migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "sqlite", db)
}

// ApplyMigrations brings the schema up to date from the migrations embedded
// in the binary. The first migration seeds the Administrator and User roles.
func (m *Store) ApplyMigrations() error {
	mg, err := m.migrator()
	if err != nil {
		return err
	}
	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: migrate up: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version. dirty is true when a
// migration failed halfway.
func (m *Store) SchemaVersion() (version uint, dirty bool, err error) {
	mg, err := m.migrator()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
