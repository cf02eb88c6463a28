package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	coffeedomain "github.com/smallbiznis/coffeeshop/internal/coffee/domain"
	eventdomain "github.com/smallbiznis/coffeeshop/internal/event/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}

// AutoMigrate derives the schema from the gorm models. Used for mysql and
// sqlite, and on top of the SQL migrations when synchronize is enabled.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.SetupJoinTable(&coffeedomain.Coffee{}, "Flavors", &coffeedomain.CoffeeFlavor{}); err != nil {
		return fmt.Errorf("setup coffee_flavors: %w", err)
	}
	if err := db.AutoMigrate(
		&coffeedomain.Flavor{},
		&coffeedomain.Coffee{},
		&coffeedomain.CoffeeFlavor{},
		&eventdomain.Event{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
