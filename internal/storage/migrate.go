package storage

import (
	"database/sql"
	"embed"
	"sync"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state
var migrateMu sync.Mutex

// Migrate runs all pending database migrations on db.
func Migrate(db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite"); err != nil {
		return errors.Wrap(err, "failed to set dialect")
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	return nil
}

// MigrationVersion returns the current migration version of db.
func MigrationVersion(db *sql.DB) (int64, error) {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, errors.Wrap(err, "failed to set dialect")
	}

	return goose.GetDBVersion(db)
}
