package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c *Credentials) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

func OpenPostgres(cred *Credentials) (*sql.DB, error) {
	db, err := sql.Open("postgres", cred.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	return db, nil
}

// OpenSQLite opens a file database with a single connection; SQLite
// serialises writers anyway and this avoids SQLITE_BUSY under load.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	return db, nil
}

// Migration names an embedded migration set and the table that tracks it.
type Migration struct {
	FS    fs.FS
	Dir   string
	Table string
}

func MigratePostgres(db *sql.DB, m Migration) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: m.Table})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	return run(driver, "postgres", m)
}

func MigrateSQLite(db *sql.DB, m Migration) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: m.Table})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	return run(driver, "sqlite", m)
}

func run(driver database.Driver, name string, m Migration) error {
	src, err := iofs.New(m.FS, m.Dir)
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}
