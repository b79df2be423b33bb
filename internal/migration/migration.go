// Package migration applies the database schema. Postgres gets versioned
// embedded SQL behind an advisory lock; the sqlite dev path relies on gorm
// auto-migration of the domain models.
package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingrundomain "github.com/recordbay/recordbay/internal/billingrun/domain"
	"github.com/recordbay/recordbay/internal/config"
	directorydomain "github.com/recordbay/recordbay/internal/directory/domain"
	invoicedomain "github.com/recordbay/recordbay/internal/invoice/domain"
	ledgerdomain "github.com/recordbay/recordbay/internal/serviceledger/domain"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Run brings the schema to the latest version for the configured driver.
func Run(gdb *gorm.DB, cfg config.Config, log *zap.Logger) error {
	switch cfg.Database.Driver {
	case "postgres":
		return runPostgres(gdb, log)
	default:
		return runAutoMigrate(gdb, log)
	}
}

func runPostgres(gdb *gorm.DB, log *zap.Logger) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	unlock, err := acquireAdvisoryLock(ctx, sqlDB)
	if err != nil {
		return err
	}
	defer func() {
		_ = unlock(context.Background())
	}()

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	if dirty {
		return fmt.Errorf("schema dirty at version %d", version)
	}
	log.Info("schema migrated", zap.Uint("version", version))
	return nil
}

func runAutoMigrate(gdb *gorm.DB, log *zap.Logger) error {
	err := gdb.AutoMigrate(
		&directorydomain.Customer{},
		&directorydomain.Department{},
		&directorydomain.Container{},
		&ledgerdomain.ServiceCharge{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&billingrundomain.BillingRun{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info("schema auto-migrated")
	return nil
}
